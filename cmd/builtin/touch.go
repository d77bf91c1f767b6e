package builtin

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/cmd"
)

type TouchCommand struct {
	// Now replaces time.Now when set
	Now func() time.Time
}

func (t *TouchCommand) Name() string {
	return "touch"
}

func (t *TouchCommand) Description() string {
	return "Create an empty file or update its modification time"
}

func (t *TouchCommand) Usage() string {
	return "touch [--date RFC3339] <url>"
}

func (t *TouchCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Expect(1, t.Usage()); err != nil {
		return 1, err
	}

	date := time.Now()
	if t.Now != nil {
		date = t.Now()
	}
	if raw := args.String("date"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return 1, fmt.Errorf("invalid date '%s': %w", raw, err)
		}
		date = parsed
	}

	return result(withFile(ctx, api, args.Args[0], func(f dfs.File) error {
		exists, err := f.Exists(ctx)
		if err != nil {
			return err
		}
		if !exists {
			w, err := f.OpenWriter(ctx)
			if err != nil {
				return err
			}
			if err := w.Close(); err != nil {
				return err
			}
		}
		return f.ChangeModTime(ctx, date)
	}))
}

func (t *TouchCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"date": {
				Name:        "date",
				Short:       "d",
				Type:        "string",
				Description: "Use this time instead of the current time",
			},
		},
	}
}
