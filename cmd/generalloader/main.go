// Command generalloader reads a general-writer event stream from
// standard input and drives the database loader with it.
package main

import (
	"bufio"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"github.com/snowflk/general-loader/internal/diag"
	"github.com/snowflk/general-loader/internal/loader"
	"github.com/snowflk/general-loader/internal/protocol"
	"github.com/snowflk/general-loader/internal/reader"
	"github.com/snowflk/general-loader/internal/schema"
)

func main() {
	app := &cli.App{
		Name:  "generalloader",
		Usage: "decode a general-writer event stream from stdin into the database loader",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "include",
				Aliases: []string{"I"},
				Usage:   "colon-separated schema include paths, may be repeated",
			},
			&cli.StringSliceFlag{
				Name:    "schema",
				Aliases: []string{"S"},
				Usage:   "colon-separated schema files, may be repeated",
			},
			&cli.StringFlag{
				Name:  "checkpoint-db",
				Value: "generalloader.db",
				Usage: "path of the bbolt file holding the table/column registry and row checkpoints",
			},
			&cli.StringFlag{
				Name:  "listen",
				Usage: "address for the diagnostics HTTP server; disabled when empty",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "enable debug-level logging, including per-cell loader calls",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		log.Error(err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	if c.NArg() != 0 {
		return cli.Exit("positional arguments are not accepted", 1)
	}
	if c.Bool("verbose") {
		log.SetLevel(log.DebugLevel)
	}

	resolver := schema.NewResolver(c.StringSlice("include"), c.StringSlice("schema"))

	dbl, err := loader.NewBoltLoader(loader.BoltLoaderOptions{
		Path:   c.String("checkpoint-db"),
		Log:    log.StandardLogger(),
		Schema: resolver,
	})
	if err != nil {
		return err
	}
	defer dbl.Close()

	if addr := c.String("listen"); addr != "" {
		srv := diag.NewServer(addr, dbl.Stats)
		go func() {
			if err := srv.ListenAndServe(); err != nil {
				log.Errorf("diagnostics server: %s", err)
			}
		}()
		defer srv.Close()
	}

	dec := protocol.NewDecoder(
		reader.New(bufio.NewReader(os.Stdin)),
		dbl,
		log.NewEntry(log.StandardLogger()).WithField("session", dbl.SessionID().String()),
	)
	return dec.Run()
}
