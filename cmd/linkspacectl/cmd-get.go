package main

import (
	"encoding/base64"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/linkspace/linkspace"
	"github.com/linkspace/linkspace/lserr"
	"github.com/linkspace/linkspace/packet"
)

func newCmdGet() *cli.Command {
	return &cli.Command{
		Name:      "get",
		Usage:     "Look up a packet by its base64url-encoded canonical hash.",
		ArgsUsage: "<hash>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "read-only"},
		},
		Action: func(c *cli.Context) error {
			arg := c.Args().First()
			if arg == "" {
				return lserr.Newf(lserr.KindConstraint, "cmd.get", "missing <hash> argument")
			}
			raw, err := base64.RawURLEncoding.DecodeString(arg)
			if err != nil {
				return lserr.New(lserr.KindFormat, "cmd.get", err)
			}
			if len(raw) != packet.HashSize {
				return lserr.Newf(lserr.KindFormat, "cmd.get", "hash must be %d bytes, got %d", packet.HashSize, len(raw))
			}
			var h packet.Hash
			copy(h[:], raw)

			ls, err := linkspace.Open(c.String("db"))
			if err != nil {
				return err
			}
			defer ls.Close()

			recv, np, found, err := ls.Get(h)
			if err != nil {
				return err
			}
			if !found {
				fmt.Println("not found")
				return nil
			}
			fmt.Printf("recv=%d type=%s group=%s domain=%s data_len=%d\n",
				recv, np.Point.Kind(),
				base64.RawURLEncoding.EncodeToString(packet.Group(np.Point)[:]),
				base64.RawURLEncoding.EncodeToString(packet.Domain(np.Point)[:]),
				len(packet.DataOf(np.Point)))
			return nil
		},
	}
}
