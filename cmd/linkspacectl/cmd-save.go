package main

import (
	"encoding/base64"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/linkspace/linkspace"
	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/store"
)

func newCmdSave() *cli.Command {
	return &cli.Command{
		Name:      "save",
		Usage:     "Build a DataPoint from a file (or stdin) and save it.",
		ArgsUsage: "[file]",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "read-only", Usage: "open the database read-only (fails: save requires a writer)"},
		},
		Action: func(c *cli.Context) error {
			data, err := readInput(c.Args().First())
			if err != nil {
				return err
			}

			var opts []linkspace.Option
			if c.Bool("read-only") {
				opts = append(opts, linkspace.WithStoreOptions(store.ReadOnly(true)))
			}
			ls, err := linkspace.Open(c.String("db"), opts...)
			if err != nil {
				return err
			}
			defer ls.Close()

			dp, err := packet.BuildDataPoint(data)
			if err != nil {
				return err
			}
			recv, isNew, err := ls.Save(linkspace.Wrap(dp))
			if err != nil {
				return err
			}

			h := dp.Hash()
			fmt.Printf("hash=%s recv=%d new=%t\n", base64.RawURLEncoding.EncodeToString(h[:]), recv, isNew)
			return nil
		},
	}
}

func readInput(path string) ([]byte, error) {
	if path == "" || path == "-" {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(path)
}
