package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/cmd"
)

type RmCommand struct{}

func (r *RmCommand) Name() string {
	return "rm"
}

func (r *RmCommand) Description() string {
	return "Delete a file or directory"
}

func (r *RmCommand) Usage() string {
	return "rm [-f] <url>"
}

func (r *RmCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Expect(1, r.Usage()); err != nil {
		return 1, err
	}

	return result(withFile(ctx, api, args.Args[0], func(f dfs.File) error {
		exists, err := f.Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			if args.Bool("force") {
				return nil
			}
			return fmt.Errorf("%s: no such file or directory", f.URL())
		}
		return f.Delete(ctx)
	}))
}

func (r *RmCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"force": {
				Name:        "force",
				Short:       "f",
				Type:        "bool",
				Description: "Ignore missing files",
			},
		},
	}
}
