package data

import (
	"time"

	"github.com/google/uuid"
)

// NewMetadata creates a record with a fresh id and all timestamps set to now.
func NewMetadata(key string, mode FileMode, size int64) *Metadata {
	now := time.Now()

	return &Metadata{
		ID:         NewID(),
		Key:        CleanPath(key),
		Mode:       mode,
		Size:       size,
		ModifyTime: now,
		AccessTime: now,
		CreateTime: now,
	}
}

// NewFileMetadata creates a record for a regular file.
func NewFileMetadata(key string, perm Permissions) *Metadata {
	return NewMetadata(key, NewFileMode(false, perm), 0)
}

// NewDirectoryMetadata creates a record for a directory.
func NewDirectoryMetadata(key string, perm Permissions) *Metadata {
	return NewMetadata(key, NewFileMode(true, perm), 0)
}

// NewID returns a time-ordered unique identifier.
func NewID() string {
	return uuid.Must(uuid.NewV7()).String()
}
