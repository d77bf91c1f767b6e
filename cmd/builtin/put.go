package builtin

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/mwantia/dfs"
	"github.com/mwantia/dfs/cmd"
)

type PutCommand struct{}

func (p *PutCommand) Name() string {
	return "put"
}

func (p *PutCommand) Description() string {
	return "Upload a local file, '-' reads standard input"
}

func (p *PutCommand) Usage() string {
	return "put [-a] <local> <url>"
}

func (p *PutCommand) Execute(ctx context.Context, api cmd.API, args *cmd.CommandArgs, writer io.Writer) (int, error) {
	if err := args.Expect(2, p.Usage()); err != nil {
		return 1, err
	}

	var src io.Reader = os.Stdin
	if args.Args[0] != "-" {
		local, err := os.Open(args.Args[0])
		if err != nil {
			return 1, err
		}
		defer local.Close()
		src = local
	}

	return result(withFile(ctx, api, args.Args[1], func(f dfs.File) error {
		var (
			w   io.WriteCloser
			err error
		)
		if args.Bool("append") {
			w, err = f.OpenAppender(ctx)
		} else {
			w, err = f.OpenWriter(ctx)
		}
		if err != nil {
			return err
		}

		n, err := io.Copy(w, src)
		if err != nil {
			w.Close()
			return err
		}
		if err := w.Close(); err != nil {
			return err
		}

		fmt.Fprintf(writer, "%d bytes written to %s\n", n, f.URL())
		return nil
	}))
}

func (p *PutCommand) GetFlags() *cmd.CommandFlagSet {
	return &cmd.CommandFlagSet{
		Flags: map[string]*cmd.CommandFlag{
			"append": {
				Name:        "append",
				Short:       "a",
				Type:        "bool",
				Description: "Append instead of replacing the file",
			},
		},
	}
}
