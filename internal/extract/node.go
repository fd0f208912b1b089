package extract

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Node is the view of a syntax tree node the extractor needs. It is satisfied
// by tree-sitter nodes through Wrap, and by fakes in tests.
type Node interface {
	Type() string
	StartByte() uint32
	EndByte() uint32
	ChildCount() int
	Child(i int) Node
	ChildByFieldName(name string) Node
}

// Wrap adapts a tree-sitter node. It returns nil for a nil node.
func Wrap(n *sitter.Node) Node {
	if n == nil {
		return nil
	}
	return sitterNode{n}
}

type sitterNode struct {
	n *sitter.Node
}

func (s sitterNode) Type() string      { return s.n.Type() }
func (s sitterNode) StartByte() uint32 { return s.n.StartByte() }
func (s sitterNode) EndByte() uint32   { return s.n.EndByte() }
func (s sitterNode) ChildCount() int   { return int(s.n.ChildCount()) }

func (s sitterNode) Child(i int) Node {
	return Wrap(s.n.Child(i))
}

func (s sitterNode) ChildByFieldName(name string) Node {
	return Wrap(s.n.ChildByFieldName(name))
}

// kind is the closed set of node kinds the extractor reacts to. Every other
// tree-sitter type maps to kindOther and is traversed transparently.
type kind int

const (
	kindOther kind = iota
	kindFunctionDeclaration
	kindMethodDefinition
	kindDeclaration
	kindVariableDeclarator
	kindFunctionExpression
	kindStatementBlock
	kindIdentifier
	kindPropertyName
	kindFormalParameters
	kindTypedParameter
)

var kinds = map[string]kind{
	"function_declaration":           kindFunctionDeclaration,
	"generator_function_declaration": kindFunctionDeclaration,
	"method_definition":              kindMethodDefinition,
	"lexical_declaration":            kindDeclaration,
	"variable_declaration":           kindDeclaration,
	"variable_declarator":            kindVariableDeclarator,
	"arrow_function":                 kindFunctionExpression,
	"function":                       kindFunctionExpression,
	"function_expression":            kindFunctionExpression,
	"generator_function":             kindFunctionExpression,
	"statement_block":                kindStatementBlock,
	"identifier":                     kindIdentifier,
	"property_identifier":            kindPropertyName,
	"private_property_identifier":    kindPropertyName,
	"formal_parameters":              kindFormalParameters,
	"required_parameter":             kindTypedParameter,
	"optional_parameter":             kindTypedParameter,
}

func classify(n Node) kind {
	if n == nil {
		return kindOther
	}
	return kinds[n.Type()]
}

func text(n Node, source []byte) string {
	start, end := int(n.StartByte()), int(n.EndByte())
	if start > len(source) {
		start = len(source)
	}
	if end > len(source) {
		end = len(source)
	}
	if start > end {
		return ""
	}
	return string(source[start:end])
}
