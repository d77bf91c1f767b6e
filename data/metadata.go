package data

import (
	"encoding/json"
	"time"
)

// Metadata is the record a namespace store keeps for every entry.
type Metadata struct {
	ID  string `json:"id"`
	Key string `json:"key"`

	Mode FileMode `json:"mode"`
	Size int64    `json:"size"`

	Owner string `json:"owner"`
	Group string `json:"group"`

	ModifyTime time.Time `json:"modify_time"`
	AccessTime time.Time `json:"access_time"`
	CreateTime time.Time `json:"create_time"`
}

// IsDir reports whether the record describes a directory.
func (m *Metadata) IsDir() bool {
	return m.Mode.IsDir()
}

// Clone returns an independent copy.
func (m *Metadata) Clone() *Metadata {
	c := *m
	return &c
}

// ToFileInfo converts the record into an attribute snapshot.
func (m *Metadata) ToFileInfo() *FileInfo {
	return &FileInfo{
		Name:        BaseName(m.Key),
		Path:        m.Key,
		Exists:      true,
		IsDir:       m.IsDir(),
		Size:        m.Size,
		ModTime:     m.ModifyTime,
		Permissions: m.Mode.Perm(),
		Owner:       m.Owner,
		Group:       m.Group,
	}
}

// Marshal provides JSON serialization for Metadata.
func (m *Metadata) Marshal() ([]byte, error) {
	return json.Marshal(m)
}

// Unmarshal provides JSON deserialization for Metadata.
func (m *Metadata) Unmarshal(data []byte) error {
	return json.Unmarshal(data, m)
}
