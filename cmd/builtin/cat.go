package builtin

import (
	"context"
	"io"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/cmd"
)

type CatCommand struct{}

func (c *CatCommand) Name() string {
	return "cat"
}

func (c *CatCommand) Description() string {
	return "Print the content of a file"
}

func (c *CatCommand) Usage() string {
	return "cat [--offset n] <url>"
}

func (c *CatCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Expect(1, c.Usage()); err != nil {
		return 1, err
	}
	offset := args.Int("offset")

	return result(withFile(ctx, api, args.Args[0], func(f dfs.File) error {
		if offset == 0 {
			r, err := f.OpenReader(ctx)
			if err != nil {
				return err
			}
			defer r.Close()

			_, err = io.Copy(writer, r)
			return err
		}

		r, err := f.OpenRandomAccessReader(ctx)
		if err != nil {
			return err
		}
		defer r.Close()

		if _, err := r.Seek(offset, io.SeekStart); err != nil {
			return err
		}
		_, err = io.Copy(writer, r)
		return err
	}))
}

func (c *CatCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"offset": {
				Name:        "offset",
				Short:       "o",
				Type:        "int",
				Default:     int64(0),
				Description: "Start reading at this byte offset",
			},
		},
	}
}
