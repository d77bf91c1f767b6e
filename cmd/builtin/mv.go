package builtin

import (
	"context"
	"io"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/cmd"
)

type MvCommand struct{}

func (m *MvCommand) Name() string {
	return "mv"
}

// Description warns about the replacement of an existing destination,
// which is deleted before the move.
func (m *MvCommand) Description() string {
	return "Move a file, replacing the destination (not atomic)"
}

func (m *MvCommand) Usage() string {
	return "mv <src-url> <dst-url>"
}

func (m *MvCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Expect(2, m.Usage()); err != nil {
		return 1, err
	}

	return result(withFile(ctx, api, args.Args[0], func(src dfs.File) error {
		return withFile(ctx, api, args.Args[1], func(dst dfs.File) error {
			return src.RenameTo(ctx, dst)
		})
	}))
}

func (m *MvCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
