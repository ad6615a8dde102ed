// Package cmd wires the CLI surface: one "analyze" command that runs the
// detection pipeline against a capture file, and one "validate" command that
// checks a config file without running anything.
package cmd

import (
	"errors"

	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/activecm/tunnelhunter/util"
)

var ErrMissingPcapPath = errors.New("pcap path is required")
var ErrMissingConfigPath = errors.New("config path parameter is required")
var ErrTooManyArguments = errors.New("too many arguments provided")

// Commands returns every top-level CLI command.
func Commands() []*cli.Command {
	return []*cli.Command{
		AnalyzeCommand,
		ValidateConfigCommand,
	}
}

// ConfigFlag is the shared --config/-c flag used by both commands.
func ConfigFlag(required bool) *cli.StringFlag {
	return &cli.StringFlag{
		Name:     "config",
		Aliases:  []string{"c"},
		Usage:    "Load configuration from `FILE`",
		Required: required,
	}
}

// ValidateFilePath checks that path exists, is not a directory, and is not
// empty -- the same shape as the teacher's log-directory flag validation,
// adapted here to validate a single file (a capture file or a config file)
// instead of a zeek log directory.
func ValidateFilePath(afs afero.Fs, path string) error {
	if path == "" {
		return ErrMissingPcapPath
	}
	return util.ValidateFile(afs, path)
}
