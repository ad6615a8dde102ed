package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/activecm/tunnelhunter/config"
	"github.com/activecm/tunnelhunter/logger"
	"github.com/activecm/tunnelhunter/pipeline"
	"github.com/activecm/tunnelhunter/report"
	"github.com/activecm/tunnelhunter/webprofile"
)

// AnalyzeCommand runs the detection pipeline once against a capture file and
// writes the resulting report as JSON.
var AnalyzeCommand = &cli.Command{
	Name:      "analyze",
	Usage:     "analyze a capture file for DNS tunneling and domain-generation activity",
	UsageText: "tunnelhunter analyze --pcap FILE [--config FILE] [--out FILE]",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "pcap",
			Aliases:  []string{"p"},
			Usage:    "path to a classic pcap capture file",
			Required: true,
			Action: func(_ *cli.Context, path string) error {
				return ValidateFilePath(afero.NewOsFs(), path)
			},
		},
		ConfigFlag(false),
		&cli.StringFlag{
			Name:    "out",
			Aliases: []string{"o"},
			Usage:   "write the JSON report to `FILE` instead of stdout",
		},
	},
	Action: func(cCtx *cli.Context) error {
		afs := afero.NewOsFs()

		cfg := config.Load(afs, cCtx.String("config"))

		level, err := zerolog.ParseLevel(strings.ToLower(cfg.Logging.Level))
		if err != nil {
			level = zerolog.InfoLevel
		}
		if cCtx.Bool("debug") {
			level = zerolog.DebugLevel
		}
		logger.SetLevel(level)

		envelope, err := RunAnalyzeCmd(cCtx.Context, afs, cfg, cCtx.String("pcap"))
		if err != nil {
			return fmt.Errorf("analyze: %w", err)
		}

		return writeReport(cCtx.String("out"), envelope)
	},
}

// RunAnalyzeCmd runs the full pipeline against pcapPath using cfg, returning
// the result stamped with a fresh run ID. Exposed separately from Action so
// it can be called directly in tests without going through urfave/cli's
// flag-parsing machinery.
func RunAnalyzeCmd(ctx context.Context, afs afero.Fs, cfg config.Config, pcapPath string) (report.Envelope, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	orch := pipeline.New(cfg, webprofile.NoopCollaborator{})
	pipelineReport, err := orch.Run(ctx, afs, pcapPath)
	if err != nil {
		return report.Envelope{}, err
	}

	return report.New(pipelineReport), nil
}

func writeReport(outPath string, envelope report.Envelope) error {
	encoded, err := json.MarshalIndent(envelope, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding report: %w", err)
	}

	if outPath == "" {
		fmt.Println(string(encoded))
		return nil
	}

	return os.WriteFile(outPath, append(encoded, '\n'), 0o644)
}
