package dfs

import "errors"

// Errors returned by the registry and shared by the protocol facades.
var (
	// Registry errors
	ErrUnknownScheme    = errors.New("dfs: unknown scheme")
	ErrSchemeRegistered = errors.New("dfs: scheme already registered")
	ErrShutdown         = errors.New("dfs: filesystem closed")

	// File operation errors
	ErrNotDirectory = errors.New("dfs: not a directory")
	ErrSameFile     = errors.New("dfs: source and destination are the same file")
	ErrIncompatible = errors.New("dfs: destination is on another filesystem")

	// I/O errors
	ErrClosed  = errors.New("dfs: file already closed")
	ErrInvalid = errors.New("dfs: invalid argument")
)
