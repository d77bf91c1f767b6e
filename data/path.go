package data

import (
	"path"
	"strings"
)

// CleanPath normalises a remote path: absolute, no trailing slash, no dot
// segments. The root stays "/".
func CleanPath(p string) string {
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return path.Clean(p)
}

// ParentPath returns the parent of p, or "" for the root.
func ParentPath(p string) string {
	p = CleanPath(p)
	if p == "/" {
		return ""
	}
	return path.Dir(p)
}

// BaseName returns the last element of p; the root yields "".
func BaseName(p string) string {
	p = CleanPath(p)
	if p == "/" {
		return ""
	}
	return path.Base(p)
}

// JoinPath appends a child name to a directory path.
func JoinPath(dir, name string) string {
	return CleanPath(path.Join(CleanPath(dir), name))
}

// HasPrefix reports whether p equals prefix or lies beneath it.
func HasPrefix(p, prefix string) bool {
	p, prefix = CleanPath(p), CleanPath(prefix)
	if prefix == "/" || p == prefix {
		return true
	}
	return strings.HasPrefix(p, prefix+"/")
}
