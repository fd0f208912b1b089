package extract

import "strings"

// fakeNode is a hand-built syntax node. Its byte range is resolved against the
// source assembled by build, so tests can describe trees without a parser.
type fakeNode struct {
	typ      string
	text     string
	field    string
	start    uint32
	end      uint32
	children []*fakeNode
}

func (f *fakeNode) Type() string      { return f.typ }
func (f *fakeNode) StartByte() uint32 { return f.start }
func (f *fakeNode) EndByte() uint32   { return f.end }
func (f *fakeNode) ChildCount() int   { return len(f.children) }

func (f *fakeNode) Child(i int) Node {
	if i < 0 || i >= len(f.children) {
		return nil
	}
	return f.children[i]
}

func (f *fakeNode) ChildByFieldName(name string) Node {
	for _, c := range f.children {
		if c.field == name {
			return c
		}
	}
	return nil
}

// n creates an interior node.
func n(typ string, children ...*fakeNode) *fakeNode {
	return &fakeNode{typ: typ, children: children}
}

// leaf creates a node that owns a piece of source text.
func leaf(typ, text string) *fakeNode {
	return &fakeNode{typ: typ, text: text}
}

// field tags a node with the field name its parent exposes it under.
func field(name string, node *fakeNode) *fakeNode {
	node.field = name
	return node
}

// build lays out every leaf's text into a single source buffer and assigns
// byte ranges bottom-up.
func build(root *fakeNode) (Node, []byte) {
	var b strings.Builder
	var layout func(*fakeNode)
	layout = func(f *fakeNode) {
		f.start = uint32(b.Len())
		if len(f.children) == 0 {
			b.WriteString(f.text)
		}
		for _, c := range f.children {
			layout(c)
			b.WriteByte(' ')
		}
		f.end = uint32(b.Len())
	}
	layout(root)
	return root, []byte(b.String())
}
