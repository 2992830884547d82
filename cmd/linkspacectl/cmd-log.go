package main

import (
	"encoding/base64"
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/linkspace/linkspace"
	"github.com/linkspace/linkspace/packet"
	"github.com/linkspace/linkspace/predicate"
	"github.com/linkspace/linkspace/query"
)

func newCmdLog() *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "Dump every packet in recv_stamp order.",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "desc", Usage: "walk newest-first"},
			&cli.Uint64Flag{Name: "limit", Usage: "stop after this many entries (0 = unbounded)"},
		},
		Action: func(c *cli.Context) error {
			ls, err := linkspace.Open(c.String("db"))
			if err != nil {
				return err
			}
			defer ls.Close()

			order := query.OrderAsc
			if c.Bool("desc") {
				order = query.OrderDesc
			}
			limit := c.Uint64("limit")

			var n uint64
			err = ls.Query(query.Mode{Table: query.TableLog, Order: order}, predicate.New(),
				func(recv uint64, np *packet.NetPacket) bool {
					h := np.Hash()
					fmt.Printf("recv=%d type=%s hash=%s\n", recv, np.Point.Kind(), base64.RawURLEncoding.EncodeToString(h[:]))
					n++
					return limit == 0 || n < limit
				})
			return err
		},
	}
}
