package data

import "time"

// MetadataUpdateMask controls which fields of a record should be updated.
type MetadataUpdateMask int

const (
	MetadataUpdateKey        MetadataUpdateMask = 1 << iota // Update path
	MetadataUpdateMode                                      // Update permission bits
	MetadataUpdateSize                                      // Update size
	MetadataUpdateModifyTime                                // Update modification time
	MetadataUpdateAccessTime                                // Update access time
	MetadataUpdateOwner                                     // Update owner and group

	MetadataUpdateAll = ^MetadataUpdateMask(0)
)

// MetadataUpdate represents a partial update to a record.
type MetadataUpdate struct {
	Mask     MetadataUpdateMask `json:"mask"`
	Metadata *Metadata          `json:"metadata"`
}

// Apply applies this update to target and reports whether anything changed.
// The directory flag of target is never altered by a mode update.
func (mu *MetadataUpdate) Apply(target *Metadata) bool {
	modified := false

	if mu.Mask&MetadataUpdateKey != 0 {
		target.Key = mu.Metadata.Key
		modified = true
	}

	if mu.Mask&MetadataUpdateMode != 0 {
		target.Mode = NewFileMode(target.IsDir(), mu.Metadata.Mode.Perm())
		modified = true
	}

	if mu.Mask&MetadataUpdateSize != 0 {
		target.Size = mu.Metadata.Size
		modified = true
	}

	if mu.Mask&MetadataUpdateModifyTime != 0 {
		target.ModifyTime = mu.Metadata.ModifyTime
		modified = true
	}

	if mu.Mask&MetadataUpdateAccessTime != 0 {
		target.AccessTime = mu.Metadata.AccessTime
		modified = true
	}

	if mu.Mask&MetadataUpdateOwner != 0 {
		target.Owner = mu.Metadata.Owner
		target.Group = mu.Metadata.Group
		modified = true
	}

	if modified && mu.Mask&MetadataUpdateAccessTime == 0 {
		target.AccessTime = time.Now()
	}

	return modified
}
