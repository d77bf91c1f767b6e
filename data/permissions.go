package data

import (
	"fmt"
	"strconv"
)

// Permissions holds the nine rwx bits of a file (0000-0777).
type Permissions uint16

// Access selects whose permission triple is addressed.
type Access int

const (
	AccessOther Access = iota
	AccessGroup
	AccessUser
)

// Permission selects one bit within a triple.
type Permission int

const (
	PermissionExecute Permission = iota
	PermissionWrite
	PermissionRead
)

const (
	// DefaultFilePermissions is used when a backend reports no file yet.
	DefaultFilePermissions Permissions = 0664
	// DefaultDirectoryPermissions matches the Hadoop default with umask 022.
	DefaultDirectoryPermissions Permissions = 0755
)

// Mask strips anything outside the rwx bits.
func (p Permissions) Mask() Permissions {
	return p & 0777
}

// Bit returns the mask addressed by access and permission.
func Bit(access Access, permission Permission) Permissions {
	return Permissions(1) << (uint(access)*3 + uint(permission))
}

// Has reports whether the given bit is set.
func (p Permissions) Has(access Access, permission Permission) bool {
	return p&Bit(access, permission) != 0
}

// With returns p with one bit set or cleared.
func (p Permissions) With(access Access, permission Permission, enabled bool) Permissions {
	if enabled {
		return (p | Bit(access, permission)).Mask()
	}
	return (p &^ Bit(access, permission)).Mask()
}

// String renders the bits as "rwxr-xr-x".
func (p Permissions) String() string {
	const rwx = "rwxrwxrwx"
	var buf [9]byte
	for i, c := range rwx {
		if p&(1<<uint(9-1-i)) != 0 {
			buf[i] = byte(c)
		} else {
			buf[i] = '-'
		}
	}
	return string(buf[:])
}

// Octal renders the bits as a four digit octal string.
func (p Permissions) Octal() string {
	return fmt.Sprintf("%04o", uint16(p.Mask()))
}

// ParsePermissions parses an octal string such as "0644" or "755".
func ParsePermissions(s string) (Permissions, error) {
	v, err := strconv.ParseUint(s, 8, 16)
	if err != nil {
		return 0, fmt.Errorf("dfs: invalid permissions '%s': %w", s, err)
	}
	if v > 0777 {
		return 0, fmt.Errorf("dfs: permissions '%s' out of range", s)
	}
	return Permissions(v), nil
}
