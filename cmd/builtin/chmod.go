package builtin

import (
	"context"
	"io"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/cmd"
	"github.com/mwantia/dfs/data"
)

type ChmodCommand struct{}

func (c *ChmodCommand) Name() string {
	return "chmod"
}

func (c *ChmodCommand) Description() string {
	return "Change the permissions of a file (octal)"
}

func (c *ChmodCommand) Usage() string {
	return "chmod <mode> <url>"
}

func (c *ChmodCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Expect(2, c.Usage()); err != nil {
		return 1, err
	}
	perm, err := data.ParsePermissions(args.Args[0])
	if err != nil {
		return 1, err
	}

	return result(withFile(ctx, api, args.Args[1], func(f dfs.File) error {
		return f.ChangePermissions(ctx, perm)
	}))
}

func (c *ChmodCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
