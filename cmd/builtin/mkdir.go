package builtin

import (
	"context"
	"io"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/cmd"
)

type MkdirCommand struct{}

func (m *MkdirCommand) Name() string {
	return "mkdir"
}

func (m *MkdirCommand) Description() string {
	return "Create a directory and its missing parents"
}

func (m *MkdirCommand) Usage() string {
	return "mkdir <url>"
}

func (m *MkdirCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Expect(1, m.Usage()); err != nil {
		return 1, err
	}

	return result(withFile(ctx, api, args.Args[0], func(f dfs.File) error {
		return f.Mkdir(ctx)
	}))
}

func (m *MkdirCommand) GetFlags() *cmd.CommandFlagSet {
	return nil
}
