package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/phobologic/fnmap/internal/config"
)

const configHeader = `# fnmap configuration.
#
# Flags given on the command line override these values. Paths in exclude
# are doublestar patterns matched against slash-separated paths relative to
# the scanned root.

`

// newInitCmd implements the `fnmap init` subcommand, which writes a
// starter fnmap.yaml.
func newInitCmd(stdout, stderr io.Writer) *cobra.Command {
	var dryRun, force bool

	cmd := &cobra.Command{
		Use:   "init [path-to-fnmap.yaml]",
		Short: "Write a starter " + config.FileName,
		Long: `Write a starter ` + config.FileName + ` with the default settings and the
exclude patterns most JavaScript projects want. fnmap picks the file up
automatically when it sits in the scanned root.

path-to-fnmap.yaml defaults to ./` + config.FileName + `. An existing file is kept
unless --force is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := starterConfig()

			// --dry-run: just print the file.
			if dryRun {
				content, err := generateConfig(cfg)
				if err != nil {
					return err
				}
				_, _ = fmt.Fprint(stdout, content)
				return nil
			}

			path := config.FileName
			if len(args) > 0 {
				path = args[0]
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			if err := cfg.Save(path, configHeader); err != nil {
				return fmt.Errorf("writing %s: %w", path, err)
			}

			_, _ = fmt.Fprintf(stderr, "wrote %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the file instead of writing it")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// starterConfig returns the defaults plus the excludes most projects want.
func starterConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Exclude = []string{
		"**/node_modules/**",
		"**/dist/**",
		"**/build/**",
		"**/*.min.js",
	}
	return cfg
}

// generateConfig renders cfg the way init writes it.
func generateConfig(cfg *config.Config) (string, error) {
	data, err := cfg.Marshal()
	if err != nil {
		return "", fmt.Errorf("encoding config: %w", err)
	}
	return configHeader + string(data), nil
}
