package hadoop

import (
	"io"

	"github.com/mwantia/dfs/binding"
	"github.com/mwantia/dfs/data/errors"
)

type inputStreamOps struct {
	getPos func(in any) (int64, error)
	seek   func(in any, pos int64) error
	read   func(in any, p []byte) (int, error)
	close  func(in any) error
}

func resolveInputStream(r *binding.Resolver) *inputStreamOps {
	return &inputStreamOps{
		getPos: binding.Func[func(any) (int64, error)](r, "GetPos"),
		seek:   binding.Func[func(any, int64) error](r, "Seek"),
		read:   binding.Func[func(any, []byte) (int, error)](r, "Read"),
		close:  binding.Func[func(any) error](r, "Close"),
	}
}

// outputStreamOps is empty: output values are plain io.WriteCloser.
type outputStreamOps struct{}

func resolveOutputStream(*binding.Resolver) *outputStreamOps {
	return &outputStreamOps{}
}

// FSDataInputStream wraps a positional input stream.
type FSDataInputStream struct {
	b   *Bindings
	raw any
}

// Read reads into p; io.EOF is passed through untranslated.
func (in *FSDataInputStream) Read(p []byte) (int, error) {
	o := ops(in.b.inputStream)

	eof := false
	n, err := binding.Call1(in.b.invoker, "FSDataInputStream.read", func() (int, error) {
		n, err := o.read(in.raw, p)
		if err == io.EOF {
			eof = true
			return n, nil
		}
		return n, err
	}, errors.CodeIO)
	if err == nil && eof {
		return n, io.EOF
	}
	return n, err
}

// Pos returns the current read offset.
func (in *FSDataInputStream) Pos() (int64, error) {
	o := ops(in.b.inputStream)
	return binding.Call1(in.b.invoker, "FSDataInputStream.getPos", func() (int64, error) {
		return o.getPos(in.raw)
	}, errors.CodeIO)
}

// SeekTo moves the read offset to pos.
func (in *FSDataInputStream) SeekTo(pos int64) error {
	o := ops(in.b.inputStream)
	return binding.Call(in.b.invoker, "FSDataInputStream.seek", func() error {
		return o.seek(in.raw, pos)
	}, errors.CodeIO)
}

// Seek implements io.Seeker for io.SeekStart and io.SeekCurrent. The
// stream does not know its length, so io.SeekEnd is rejected.
func (in *FSDataInputStream) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		pos, err := in.Pos()
		if err != nil {
			return 0, err
		}
		offset += pos
	default:
		return 0, errors.Newf(errors.CodeInvalidArgument, "unsupported seek whence %d", whence)
	}
	if offset < 0 {
		return 0, errors.Newf(errors.CodeInvalidArgument, "negative seek offset %d", offset)
	}
	if err := in.SeekTo(offset); err != nil {
		return 0, err
	}
	return offset, nil
}

func (in *FSDataInputStream) Close() error {
	o := ops(in.b.inputStream)
	return binding.Call(in.b.invoker, "FSDataInputStream.close", func() error {
		return o.close(in.raw)
	}, errors.CodeIO)
}

// FSDataOutputStream wraps an output stream returned by create or append.
type FSDataOutputStream struct {
	b *Bindings
	w io.WriteCloser
}

func (b *Bindings) newOutputStream(raw any) (*FSDataOutputStream, error) {
	w, ok := raw.(io.WriteCloser)
	if !ok {
		return nil, errors.Binding(errors.Newf(errors.CodeInitialization, "output stream of type %T is not writable", raw), "FSDataOutputStream")
	}
	return &FSDataOutputStream{b: b, w: w}, nil
}

func (out *FSDataOutputStream) Write(p []byte) (int, error) {
	return binding.Call1(out.b.invoker, "FSDataOutputStream.write", func() (int, error) {
		return out.w.Write(p)
	}, errors.CodeIO)
}

func (out *FSDataOutputStream) Close() error {
	return binding.Call(out.b.invoker, "FSDataOutputStream.close", out.w.Close, errors.CodeIO)
}
