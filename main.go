package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/activecm/tunnelhunter/cmd"
	"github.com/activecm/tunnelhunter/logger"
)

// Version is populated by build flags with the current Git tag.
var Version string

func main() {
	app := &cli.App{
		EnableBashCompletion: true,
		Commands:             cmd.Commands(),
		Name:                 "tunnelhunter",
		Usage:                "Detect DNS tunneling and domain-generation activity in a capture file",
		UsageText:            "tunnelhunter [-d] command [command options]",
		Version:              Version,
		ExitErrHandler:       exitErrHandler,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:     "debug",
				Aliases:  []string{"d"},
				Usage:    "run in debug mode",
				Value:    false,
				Required: false,
			},
		},
		Before: func(cCtx *cli.Context) error {
			logger.DebugMode = cCtx.Bool("debug")
			return nil
		},
	}

	if err := app.Run(os.Args); err != nil {
		zlog := logger.GetLogger()
		zlog.Fatal().Err(err).Send()
	}
}

// exitErrHandler implements cli.ExitErrHandlerFunc.
func exitErrHandler(c *cli.Context, err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(c.App.ErrWriter, "\n[!] %+v\n", err.Error())
	cli.OsExiter(1)
}
