// Package parse turns source bytes into tree-sitter syntax trees.
package parse

import (
	"context"
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/fnmap/internal/lang"
)

// Parser owns one tree-sitter parser per language. A Parser must be used by a
// single goroutine; create one per worker.
type Parser struct {
	parsers map[string]*sitter.Parser
}

// NewParser returns an empty Parser. Grammar parsers are created on first use.
func NewParser() *Parser {
	return &Parser{parsers: make(map[string]*sitter.Parser)}
}

// Parse parses source with the given language. Malformed input still yields a
// tree; callers can inspect RootNode().HasError() to detect recovery.
// The caller must Close the returned tree.
func (p *Parser) Parse(ctx context.Context, l *lang.Language, source []byte) (*sitter.Tree, error) {
	sp, ok := p.parsers[l.Name]
	if !ok {
		sp = l.NewParser()
		p.parsers[l.Name] = sp
	}

	tree, err := sp.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parsing %s source: %w", l.Name, err)
	}
	return tree, nil
}

// Close releases all grammar parsers.
func (p *Parser) Close() {
	for name, sp := range p.parsers {
		sp.Close()
		delete(p.parsers, name)
	}
}
