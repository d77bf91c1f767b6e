package builtin

import (
	"context"
	"fmt"
	"io"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/cmd"
)

type LsCommand struct {
}

// Name returns the command identifier
func (ls *LsCommand) Name() string {
	return "ls"
}

// Description returns human-readable help text
func (ls *LsCommand) Description() string {
	return "List a directory, or show a single file"
}

// Usage returns a usage string for help
func (ls *LsCommand) Usage() string {
	return "ls [-l] <url>"
}

// Execute lists the children of a directory by name. With -l every
// entry is printed with mode, owner, group, size and date.
func (ls *LsCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Expect(1, ls.Usage()); err != nil {
		return 1, err
	}
	long := args.Bool("long")

	return result(withFile(ctx, api, args.Args[0], func(f dfs.File) error {
		info, err := f.Stat(ctx)
		if err != nil {
			return err
		}
		if !info.Exists {
			return fmt.Errorf("%s: no such file or directory", f.URL())
		}
		if !info.IsDir {
			ls.write(ctx, writer, f, long)
			return nil
		}

		children, err := f.List(ctx)
		if err != nil {
			return err
		}
		for _, child := range children {
			ls.write(ctx, writer, child, long)
			child.Close()
		}
		return nil
	}))
}

func (ls *LsCommand) write(ctx context.Context, writer io.Writer, f dfs.File, long bool) {
	if !long {
		fmt.Fprintln(writer, f.Name())
		return
	}
	info, err := f.Stat(ctx)
	if err != nil {
		fmt.Fprintf(writer, "?????????? %s: %v\n", f.Name(), err)
		return
	}
	writeLong(writer, info)
}

// GetFlags returns the flag set for this command
func (ls *LsCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"long": {
				Name:        "long",
				Short:       "l",
				Type:        "bool",
				Description: "Use the long listing format",
			},
		},
	}
}
