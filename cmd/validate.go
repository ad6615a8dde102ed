package cmd

import (
	"fmt"

	hjson "github.com/hjson/hjson-go/v4"
	"github.com/spf13/afero"
	"github.com/urfave/cli/v2"

	"github.com/activecm/tunnelhunter/config"
)

// ValidateConfigCommand checks a config file against its validation tags
// without running the pipeline, surfacing the real parse/validate error
// instead of config.Load's graceful fallback-to-defaults behavior.
var ValidateConfigCommand = &cli.Command{
	Name:      "validate",
	Usage:     "validate a configuration file",
	UsageText: "tunnelhunter validate --config FILE",
	Flags: []cli.Flag{
		ConfigFlag(true),
	},
	Action: func(cCtx *cli.Context) error {
		if cCtx.NArg() > 0 {
			return ErrTooManyArguments
		}

		afs := afero.NewOsFs()
		if _, err := RunValidateConfigCommand(afs, cCtx.String("config")); err != nil {
			fmt.Println("\n\t[!] configuration file is not valid")
			return err
		}

		fmt.Println("\n\t[ok] configuration file is valid")
		return nil
	},
}

// RunValidateConfigCommand reads and validates the hjson config file at
// path, returning the parsed Config on success.
func RunValidateConfigCommand(afs afero.Fs, path string) (config.Config, error) {
	if path == "" {
		return config.Config{}, ErrMissingConfigPath
	}

	if err := ValidateFilePath(afs, path); err != nil {
		return config.Config{}, err
	}

	contents, err := afero.ReadFile(afs, path)
	if err != nil {
		return config.Config{}, fmt.Errorf("reading config file: %w", err)
	}

	cfg := config.Default()
	if err := hjson.Unmarshal(contents, &cfg); err != nil {
		return config.Config{}, fmt.Errorf("parsing config file: %w", err)
	}

	if err := config.Validate(cfg); err != nil {
		return config.Config{}, err
	}

	return cfg, nil
}
