// Package scan analyzes every JavaScript and TypeScript file under a
// directory and aggregates the function records by relative path.
package scan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/phobologic/fnmap/internal/discover"
	"github.com/phobologic/fnmap/internal/extract"
	"github.com/phobologic/fnmap/internal/lang"
	"github.com/phobologic/fnmap/internal/model"
	"github.com/phobologic/fnmap/internal/parse"
)

var (
	// ErrInvalidRoot is returned when the root path is missing, inaccessible
	// or not a directory.
	ErrInvalidRoot = errors.New("invalid root")

	// ErrFileTooLarge is logged for files above Options.MaxFileSize.
	ErrFileTooLarge = errors.New("file exceeds size limit")
)

// Options configures a scan.
type Options struct {
	// Workers is the number of files analyzed in parallel.
	// Zero means GOMAXPROCS.
	Workers int

	// MaxFileSize skips files larger than this many bytes. Zero disables the limit.
	MaxFileSize int64

	Discover discover.Options
	Logger   *slog.Logger

	// OnFile is called once per file after it has been analyzed or skipped.
	// Calls are serialized.
	OnFile func(path string)
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}

// Scan resolves root, discovers source files beneath it and analyzes them.
// Per-file failures are logged and the file is left out of the result.
func Scan(ctx context.Context, root string, opts Options) (*model.AnalysisResult, error) {
	abs, files, err := Discover(root, opts)
	if err != nil {
		return nil, err
	}
	return Analyze(ctx, abs, files, opts)
}

// Discover resolves root and lists the source files beneath it, honouring
// opts.Discover. It returns the absolute root alongside the files.
func Discover(root string, opts Options) (string, []discover.FileEntry, error) {
	abs, err := Resolve(root)
	if err != nil {
		return "", nil, err
	}

	dopts := opts.Discover
	if dopts.Logger == nil {
		dopts.Logger = opts.logger()
	}
	files, err := discover.Files(abs, dopts)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %s: %w", ErrInvalidRoot, root, err)
	}
	return abs, files, nil
}

// Resolve expands a leading "~", makes root absolute and checks that it is a
// readable directory.
func Resolve(root string) (string, error) {
	expanded, err := ExpandHome(root)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("%w: resolving %s: %w", ErrInvalidRoot, root, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrInvalidRoot, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("%w: %s: not a directory", ErrInvalidRoot, abs)
	}
	return abs, nil
}

// ExpandHome replaces a leading "~" path element with the user's home directory.
// Other paths, including "~user", are returned unchanged.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") && !strings.HasPrefix(path, "~"+string(filepath.Separator)) {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", path, err)
	}
	return filepath.Join(home, path[1:]), nil
}

// Analyze parses and extracts every file in files. Each worker owns its own
// parsers; results are merged in files order. If ctx is cancelled, remaining
// files are abandoned and the partial result is returned with an error.
func Analyze(ctx context.Context, root string, files []discover.FileEntry, opts Options) (*model.AnalysisResult, error) {
	logger := opts.logger()

	numWorkers := opts.Workers
	if numWorkers <= 0 {
		numWorkers = runtime.GOMAXPROCS(0)
	}
	if numWorkers > len(files) {
		numWorkers = len(files)
	}

	work := make(chan int, len(files))
	for i := range files {
		work <- i
	}
	close(work)

	reports := make([]*model.FileReport, len(files))
	var progressMu sync.Mutex

	var g errgroup.Group
	for range numWorkers {
		g.Go(func() error {
			// Each goroutine gets its own parser
			p := parse.NewParser()
			defer p.Close()

			for idx := range work {
				if ctx.Err() != nil {
					return nil
				}
				f := files[idx]

				report, err := analyzeFile(ctx, p, root, f, opts.MaxFileSize, logger)
				switch {
				case err == nil:
					reports[idx] = report
				case ctx.Err() == nil:
					logger.Warn("skipping file", "path", f.Path, "error", err)
				}

				if opts.OnFile != nil {
					progressMu.Lock()
					opts.OnFile(f.Path)
					progressMu.Unlock()
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	result := &model.AnalysisResult{Root: root}
	for _, r := range reports {
		if r != nil {
			result.Files = append(result.Files, *r)
		}
	}

	if err := ctx.Err(); err != nil {
		return result, fmt.Errorf("scan interrupted: %w", err)
	}
	return result, nil
}

func analyzeFile(ctx context.Context, p *parse.Parser, root string, f discover.FileEntry, maxSize int64, logger *slog.Logger) (*model.FileReport, error) {
	absPath := filepath.Join(root, filepath.FromSlash(f.Path))

	if maxSize > 0 {
		fi, err := os.Stat(absPath)
		if err != nil {
			return nil, err
		}
		if fi.Size() > maxSize {
			return nil, fmt.Errorf("%w (%d > %d bytes)", ErrFileTooLarge, fi.Size(), maxSize)
		}
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, err
	}

	functions, degraded, err := Source(ctx, p, f.Language, Decode(data))
	if err != nil {
		return nil, err
	}
	if degraded {
		logger.Debug("parse recovered from syntax errors", "path", f.Path, "language", f.Language.Name)
	}

	return &model.FileReport{
		Path:      f.Path,
		Language:  f.Language.Name,
		Functions: functions,
	}, nil
}

// Source parses source with l and extracts its function records. degraded
// reports whether the parser had to recover from syntax errors.
func Source(ctx context.Context, p *parse.Parser, l *lang.Language, source []byte) (functions []model.FunctionRecord, degraded bool, err error) {
	tree, err := p.Parse(ctx, l, source)
	if err != nil {
		return nil, false, err
	}
	defer tree.Close()

	root := tree.RootNode()
	return extract.Functions(extract.Wrap(root), source), root.HasError(), nil
}

// Decode drops bytes that are not valid UTF-8 so that undecodable input
// never fails a file.
func Decode(data []byte) []byte {
	return []byte(strings.ToValidUTF8(string(data), ""))
}
