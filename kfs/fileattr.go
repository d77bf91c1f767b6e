package kfs

import (
	"time"

	"github.com/mwantia/dfs/binding"
	"github.com/mwantia/dfs/data"
)

type fileAttrOps struct {
	newAttr          func() any
	filename         func(attr any) string
	isDirectory      func(attr any) bool
	modificationTime func(attr any) int64
	filesize         func(attr any) int64
	mode             func(attr any) int
	ownerName        func(attr any) string
	groupName        func(attr any) string
}

func resolveFileAttr(r *binding.Resolver) *fileAttrOps {
	return &fileAttrOps{
		newAttr:          binding.Func[func() any](r, "New"),
		filename:         binding.Func[func(any) string](r, "Filename"),
		isDirectory:      binding.Func[func(any) bool](r, "IsDirectory"),
		modificationTime: binding.Func[func(any) int64](r, "ModificationTime"),
		filesize:         binding.Func[func(any) int64](r, "Filesize"),
		mode:             binding.Func[func(any) int](r, "Mode"),
		ownerName:        binding.Func[func(any) string](r, "OwnerName"),
		groupName:        binding.Func[func(any) string](r, "GroupName"),
	}
}

// FileAttr wraps an attribute record filled by Stat or Readdirplus.
type FileAttr struct {
	b   *Bindings
	raw any
}

// Attributes is the flattened content of a FileAttr.
type Attributes struct {
	Filename    string
	IsDirectory bool
	ModTime     time.Time
	Size        int64
	Permissions data.Permissions
	Owner       string
	Group       string
}

// NewFileAttr creates an empty record for Stat to fill.
func (b *Bindings) NewFileAttr() (*FileAttr, error) {
	o := ops(b.fileAttr)
	raw, err := binding.Value(b.invoker, "KfsFileAttr.new", o.newAttr)
	if err != nil {
		return nil, err
	}
	return &FileAttr{b: b, raw: raw}, nil
}

// Attributes reads every field. Directories report size 0.
func (fa *FileAttr) Attributes() (*Attributes, error) {
	o := ops(fa.b.fileAttr)
	return binding.Value(fa.b.invoker, "KfsFileAttr.read", func() *Attributes {
		attrs := &Attributes{
			Filename:    o.filename(fa.raw),
			IsDirectory: o.isDirectory(fa.raw),
			ModTime:     time.UnixMilli(o.modificationTime(fa.raw)),
			Permissions: data.Permissions(o.mode(fa.raw)).Mask(),
			Owner:       o.ownerName(fa.raw),
			Group:       o.groupName(fa.raw),
		}
		if !attrs.IsDirectory {
			attrs.Size = o.filesize(fa.raw)
		}
		return attrs
	})
}

// IsDirectory reads only the directory flag.
func (fa *FileAttr) IsDirectory() (bool, error) {
	o := ops(fa.b.fileAttr)
	return binding.Value(fa.b.invoker, "KfsFileAttr.isDirectory", func() bool {
		return o.isDirectory(fa.raw)
	})
}

// Raw returns the backend value.
func (fa *FileAttr) Raw() any {
	return fa.raw
}
