package dfs

import (
	"fmt"

	"github.com/mwantia/dfs/data"
)

// CheckRename validates a move of src to dst before anything is changed:
// both must live on the same filesystem instance, must differ, and a
// directory cannot move beneath itself. URLs without a port address
// standardPort.
func CheckRename(src, dst File, standardPort int) error {
	if dst == nil {
		return fmt.Errorf("%w: nil destination", ErrInvalid)
	}

	su, du := src.URL(), dst.URL()
	if !su.SameRealm(du, standardPort) {
		return fmt.Errorf("%w: %s -> %s", ErrIncompatible, su, du)
	}
	if su.Path == du.Path {
		return fmt.Errorf("%w: %s", ErrSameFile, su)
	}
	if data.HasPrefix(du.Path, su.Path) {
		return fmt.Errorf("%w: cannot move '%s' beneath itself", ErrInvalid, su.Path)
	}

	return nil
}
