package builtin

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/cmd"
)

type StatCommand struct{}

func (s *StatCommand) Name() string {
	return "stat"
}

func (s *StatCommand) Description() string {
	return "Show the attributes of a file"
}

func (s *StatCommand) Usage() string {
	return "stat [--json] <url>"
}

// Execute prints the cached attributes. Files that do not exist are
// reported with their default owner, group and permissions.
func (s *StatCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Expect(1, s.Usage()); err != nil {
		return 1, err
	}

	return result(withFile(ctx, api, args.Args[0], func(f dfs.File) error {
		info, err := f.Stat(ctx)
		if err != nil {
			return err
		}

		if args.Bool("json") {
			raw, err := info.Marshal()
			if err != nil {
				return err
			}
			fmt.Fprintln(writer, string(raw))
			return nil
		}

		fmt.Fprintf(writer, "  File: %s\n", f.URL())
		fmt.Fprintf(writer, "Exists: %t\n", info.Exists)
		fmt.Fprintf(writer, "  Type: %s\n", kind(info.IsDir))
		fmt.Fprintf(writer, "  Size: %d\n", info.Size)
		fmt.Fprintf(writer, "  Mode: %s (%s)\n", info.Permissions.Octal(), info.Mode())
		fmt.Fprintf(writer, " Owner: %s\n", info.Owner)
		fmt.Fprintf(writer, " Group: %s\n", info.Group)
		fmt.Fprintf(writer, "Modify: %s\n", info.ModTime.Format(time.RFC3339))
		return nil
	}))
}

func (s *StatCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"json": {
				Name:        "json",
				Type:        "bool",
				Description: "Print the attributes as JSON",
			},
		},
	}
}

func kind(dir bool) string {
	if dir {
		return "directory"
	}
	return "file"
}
