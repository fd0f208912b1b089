// Package discover finds parseable source files under a directory.
package discover

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	ignore "github.com/sabhiram/go-gitignore"

	"github.com/phobologic/fnmap/internal/lang"
)

// FileEntry represents a discovered source file.
type FileEntry struct {
	Path     string // Relative to root, slash-separated
	Language *lang.Language
}

// Options narrows which files are returned. The zero value returns every
// file with a recognized extension.
type Options struct {
	// Exclude holds doublestar patterns matched against slash-separated
	// relative paths. A directory matching a pattern (with a trailing "/")
	// is not descended into.
	Exclude []string

	// Gitignore honours the .gitignore file at root.
	Gitignore bool

	Logger *slog.Logger
}

// Files walks root in lexical order and returns every file whose extension
// maps to a grammar. Unreadable subdirectories are logged and skipped.
func Files(root string, opts Options) ([]FileEntry, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var gi *ignore.GitIgnore
	if opts.Gitignore {
		gi = loadGitignore(root)
	}

	var results []FileEntry

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			logger.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}

		rel, err := filepath.Rel(root, path)
		if err != nil {
			return nil
		}
		rel = filepath.ToSlash(rel)

		if d.IsDir() {
			if path == root {
				return nil
			}
			if gi != nil && gi.MatchesPath(rel+"/") {
				return filepath.SkipDir
			}
			if excluded(opts.Exclude, rel+"/") {
				return filepath.SkipDir
			}
			return nil
		}

		l := lang.ForFilename(d.Name())
		if l == nil {
			return nil
		}

		if gi != nil && gi.MatchesPath(rel) {
			return nil
		}
		if excluded(opts.Exclude, rel) {
			return nil
		}

		results = append(results, FileEntry{Path: rel, Language: l})
		return nil
	})
	if err != nil {
		return nil, err
	}

	return results, nil
}

func excluded(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, rel); err == nil && ok {
			return true
		}
		// "dir/**" should also prune the directory itself.
		if strings.HasSuffix(rel, "/") && strings.HasSuffix(pattern, "/**") {
			if ok, err := doublestar.Match(strings.TrimSuffix(pattern, "/**"), strings.TrimSuffix(rel, "/")); err == nil && ok {
				return true
			}
		}
	}
	return false
}

// ValidatePatterns reports the first malformed exclude pattern.
func ValidatePatterns(patterns []string) error {
	for _, p := range patterns {
		if !doublestar.ValidatePattern(p) {
			return fmt.Errorf("invalid exclude pattern %q", p)
		}
	}
	return nil
}

func loadGitignore(root string) *ignore.GitIgnore {
	path := filepath.Join(root, ".gitignore")
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	gi, err := ignore.CompileIgnoreFile(path)
	if err != nil {
		return nil
	}
	return gi
}
