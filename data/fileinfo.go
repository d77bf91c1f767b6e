package data

import (
	"encoding/json"
	"time"
)

// FileInfo is a point-in-time snapshot of a remote file's attributes.
type FileInfo struct {
	Name        string      `json:"name"`
	Path        string      `json:"path"`
	Exists      bool        `json:"exists"`
	IsDir       bool        `json:"is_dir"`
	Size        int64       `json:"size"`
	ModTime     time.Time   `json:"mod_time"`
	Permissions Permissions `json:"permissions"`
	Owner       string      `json:"owner"`
	Group       string      `json:"group"`
}

// Mode folds the directory flag and permission bits into a FileMode.
func (fi *FileInfo) Mode() FileMode {
	return NewFileMode(fi.IsDir, fi.Permissions)
}

// Marshal provides JSON serialization for FileInfo.
func (fi *FileInfo) Marshal() ([]byte, error) {
	return json.Marshal(fi)
}
