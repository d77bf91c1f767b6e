package cmd

import (
	"context"
	"io"

	"github.com/mwantia/dfs"
)

// API is the part of dfs.FileSystem the commands need.
type API interface {
	// Open parses raw and opens the file it addresses. The returned File
	// must be closed by the caller.
	Open(ctx context.Context, raw string) (dfs.File, error)
}

var _ API = (*dfs.FileSystem)(nil)

// Command represents an executable command operating on remote files.
type Command interface {
	// Name returns the command identifier
	Name() string

	// Description returns human-readable help text
	Description() string

	// Usage returns a usage string for help (e.g. "ls -l <url>")
	Usage() string

	// Execute runs the command with parsed arguments.
	// The writer parameter is where command output should be written.
	// Returns exit code (0 = success) and error message
	Execute(ctx context.Context, api API, args *CommandArgs, writer io.Writer) (int, error)

	// GetFlags returns the flag set for this command (this is optional)
	GetFlags() *CommandFlagSet
}
