// Package builtin provides the file commands of dfsctl.
package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/cmd"
	"github.com/mwantia/dfs/data"
)

// InitBuiltin registers every builtin command with m.
func InitBuiltin(m *cmd.Manager) error {
	commands := []cmd.Command{
		&CatCommand{},
		&ChmodCommand{},
		&LsCommand{},
		&MkdirCommand{},
		&MvCommand{},
		&PutCommand{},
		&RmCommand{},
		&StatCommand{},
		&TouchCommand{},
	}
	for _, c := range commands {
		if err := m.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// withFile opens raw, runs fn and closes the file again.
func withFile(ctx context.Context, api cmd.API, raw string, fn func(dfs.File) error) error {
	f, err := api.Open(ctx, raw)
	if err != nil {
		return err
	}
	defer f.Close()

	return fn(f)
}

// result converts an error into the exit code of a command.
func result(err error) (int, error) {
	if err != nil {
		return 1, err
	}
	return 0, nil
}

func writeLong(w io.Writer, info *data.FileInfo) {
	fmt.Fprintf(w, "%s %-10s %-10s %12d %s %s\n",
		info.Mode(),
		info.Owner,
		info.Group,
		info.Size,
		info.ModTime.Format("2006-01-02 15:04"),
		info.Name)
}
