// linkspacectl is a thin diagnostic entry point over the linkspace core: it
// opens a database directory, saves packets, and dumps them back out by
// hash. It is explicitly not the CLI frontend named as an external
// collaborator in spec.md §1 — no ABE template rendering, no LNS name
// resolution, no exchange transport — just enough surface to smoke-test
// the packet/store/query/matcher stack end to end, in the teacher's own
// cmd-x-*.go / urfave/cli idiom.
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sort"
	"syscall"

	logging "github.com/ipfs/go-log/v2"
	"github.com/urfave/cli/v2"
)

var log = logging.Logger("linkspacectl")

var gitCommitSHA = ""

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		interrupt := make(chan os.Signal, 1)
		signal.Notify(interrupt, syscall.SIGTERM, syscall.SIGINT)
		select {
		case <-interrupt:
			log.Info("received interrupt signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(interrupt)
	}()

	app := &cli.App{
		Name:        "linkspacectl",
		Version:     gitCommitSHA,
		Description: "Diagnostic CLI for a linkspace packet store: open a database, save packets, and inspect them by hash.",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:     "db",
				Usage:    "path to the linkspace database directory",
				Required: true,
			},
		},
		Commands: []*cli.Command{
			newCmdSave(),
			newCmdGet(),
			newCmdLog(),
			newCmdVersion(),
		},
	}

	sort.Sort(cli.CommandsByName(app.Commands))

	if err := app.RunContext(ctx, os.Args); err != nil {
		if isBrokenPipe(err) {
			// §7: a broken stdout pipe (e.g. piping into `head`) is a clean
			// exit for this CLI collaborator, not a failure.
			return
		}
		log.Fatal(err)
	}
}

func isBrokenPipe(err error) bool {
	return errors.Is(err, syscall.EPIPE)
}
