package data

// FileMode represents file type and permission bits of a remote entry.
type FileMode uint32

const (
	ModeDir FileMode = 1 << 31 // d: directory

	// Permission bits
	ModePerm FileMode = 0777
)

// IsDir reports whether m describes a directory.
func (m FileMode) IsDir() bool {
	return m&ModeDir != 0
}

// Perm returns the Unix permission bits in m (the lower 9 bits).
func (m FileMode) Perm() Permissions {
	return Permissions(m & ModePerm)
}

// String returns a textual representation of the mode in ls -l format.
func (m FileMode) String() string {
	if m.IsDir() {
		return "d" + m.Perm().String()
	}
	return "-" + m.Perm().String()
}

// NewFileMode combines the directory flag with permission bits.
func NewFileMode(dir bool, perm Permissions) FileMode {
	mode := FileMode(perm.Mask())
	if dir {
		mode |= ModeDir
	}
	return mode
}
