// fnmap writes an inventory of the functions, parameters and local variables
// defined in a tree of JavaScript and TypeScript sources.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/phobologic/fnmap/internal/config"
	"github.com/phobologic/fnmap/internal/discover"
	"github.com/phobologic/fnmap/internal/lang"
	"github.com/phobologic/fnmap/internal/logging"
	"github.com/phobologic/fnmap/internal/report"
	"github.com/phobologic/fnmap/internal/scan"
)

var version = "dev"

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCmd(stdout, stderr)
	cmd.SetArgs(args)
	return cmd.ExecuteContext(ctx)
}

type options struct {
	configPath  string
	output      string
	format      string
	workers     int
	maxFileSize int64
	exclude     []string
	gitignore   bool
	skipIfFresh bool
	quiet       bool
	logLevel    string
	logFormat   string
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var opts options

	cmd := &cobra.Command{
		Use:   "fnmap [root]",
		Short: "Inventory the functions defined in a JavaScript/TypeScript tree",
		Long: `fnmap walks a directory, parses every .js, .ts and .tsx file with tree-sitter
and records each function declaration, class method and variable-bound arrow or
function expression: its name, its plain identifier parameters and every variable
declared inside it.

The report is a JSON object keyed by file path relative to root.

Examples:
  fnmap ~/src/webapp                        # writes code_analysis_ast.json
  fnmap -o - src | jq 'keys'                # report on stdout
  fnmap --exclude '**/node_modules/**' .    # skip vendored code
  fnmap -f toon -o map.toon .               # compact TOON output`,
		Args:          cobra.MaximumNArgs(1),
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return analyze(cmd, root, &opts, stdout, stderr)
		},
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetVersionTemplate("fnmap {{.Version}}\n")

	f := cmd.Flags()
	f.StringVar(&opts.configPath, "config", "", "config file (default is <root>/"+config.FileName+")")
	f.StringVarP(&opts.output, "output", "o", config.DefaultOutput, `report destination ("-" for stdout)`)
	f.StringVarP(&opts.format, "format", "f", "json", "report format: json or toon")
	f.IntVarP(&opts.workers, "workers", "j", 0, "files analyzed in parallel (default GOMAXPROCS)")
	f.Int64Var(&opts.maxFileSize, "max-file-size", 0, "skip files larger than this many bytes (0 = no limit)")
	f.StringArrayVar(&opts.exclude, "exclude", nil, "doublestar pattern of paths to skip (repeatable)")
	f.BoolVar(&opts.gitignore, "gitignore", false, "skip paths matched by the root .gitignore")
	f.BoolVar(&opts.skipIfFresh, "skip-if-fresh", false, "keep the existing report if it is newer than every source file")
	f.BoolVarP(&opts.quiet, "quiet", "q", false, "hide the progress bar")
	f.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	f.StringVar(&opts.logFormat, "log-format", "text", "log format (text, json)")

	cmd.AddCommand(newInitCmd(stdout, stderr))
	return cmd
}

func analyze(cmd *cobra.Command, root string, opts *options, stdout, stderr io.Writer) error {
	absRoot, err := scan.Resolve(root)
	if err != nil {
		return err
	}

	cfg, err := loadConfig(opts.configPath, absRoot)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	applyFlags(cmd.Flags(), opts, cfg)

	format, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return err
	}
	if err := discover.ValidatePatterns(cfg.Exclude); err != nil {
		return err
	}
	logger, err := logging.Setup(stderr, cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return err
	}

	sopts := scan.Options{
		Workers:     cfg.Workers,
		MaxFileSize: cfg.MaxFileSize,
		Discover: discover.Options{
			Exclude:   cfg.Exclude,
			Gitignore: cfg.Gitignore,
		},
		Logger: logger,
	}
	absRoot, files, err := scan.Discover(absRoot, sopts)
	if err != nil {
		return err
	}
	logger.Debug("discovered source files", "root", absRoot, "count", len(files), "languages", lang.Names())

	toStdout := cfg.Output == "-"
	if opts.skipIfFresh && !toStdout && reportIsFresh(cfg.Output, absRoot, files) {
		_, _ = fmt.Fprintf(stdout, "Analysis up to date: %s\n", cfg.Output)
		return nil
	}

	bar := newProgressBar(stderr, len(files), opts.quiet)
	if bar != nil {
		sopts.OnFile = func(string) { _ = bar.Add(1) }
	}

	result, scanErr := scan.Analyze(cmd.Context(), absRoot, files, sopts)
	if bar != nil {
		_ = bar.Finish()
	}

	if toStdout {
		if err := report.Encode(stdout, result, format); err != nil {
			return fmt.Errorf("writing report: %w", err)
		}
	} else if err := report.Write(result, cfg.Output, format); err != nil {
		return err
	}
	logger.Info("analysis complete", "files", len(result.Files), "functions", result.FunctionCount())

	if scanErr != nil {
		logger.Warn("report is partial", "destination", cfg.Output)
		return scanErr
	}
	if !toStdout {
		_, _ = fmt.Fprintf(stdout, "Analysis saved to %s\n", cfg.Output)
	}
	return nil
}

// loadConfig reads an explicit --config path, which must exist, or the
// optional fnmap.yaml in root.
func loadConfig(path, root string) (*config.Config, error) {
	if path == "" {
		return config.LoadFromDir(root)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, err
	}
	return config.Load(path)
}

// applyFlags overrides config values with flags set on the command line.
func applyFlags(flags *pflag.FlagSet, opts *options, cfg *config.Config) {
	if flags.Changed("output") {
		cfg.Output = opts.output
	}
	if flags.Changed("format") {
		cfg.Format = opts.format
	}
	if flags.Changed("workers") {
		cfg.Workers = opts.workers
	}
	if flags.Changed("max-file-size") {
		cfg.MaxFileSize = opts.maxFileSize
	}
	if flags.Changed("exclude") {
		cfg.Exclude = append(cfg.Exclude, opts.exclude...)
	}
	if flags.Changed("gitignore") {
		cfg.Gitignore = opts.gitignore
	}
	if flags.Changed("log-level") {
		cfg.Logging.Level = opts.logLevel
	}
	if flags.Changed("log-format") {
		cfg.Logging.Format = opts.logFormat
	}
}

// reportIsFresh reports whether the report at path is newer than every
// discovered source file.
func reportIsFresh(path, root string, files []discover.FileEntry) bool {
	reportInfo, err := os.Stat(path)
	if err != nil {
		return false
	}
	reportMtime := reportInfo.ModTime()

	for _, f := range files {
		fi, err := os.Stat(filepath.Join(root, filepath.FromSlash(f.Path)))
		if err != nil {
			return false
		}
		if !fi.ModTime().Before(reportMtime) {
			return false
		}
	}
	return true
}

// newProgressBar returns nil unless w is an interactive terminal.
func newProgressBar(w io.Writer, total int, quiet bool) *progressbar.ProgressBar {
	if quiet || total == 0 {
		return nil
	}
	f, ok := w.(*os.File)
	if !ok || !(isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("Analyzing"),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
}
