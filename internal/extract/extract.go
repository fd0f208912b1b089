// Package extract recovers function records from JavaScript and TypeScript
// syntax trees.
//
// The extractor is purely syntactic. It matches two families of constructs
// during a pre-order walk:
//
//   - function declarations and class method definitions
//   - variable declarators whose value is an arrow function or function expression
//
// Every match produces one model.FunctionRecord, and the walk continues into the
// matched node so nested constructs produce their own records. Variable
// collection is deliberately unscoped: a function's variables include those
// declared in functions nested inside it.
package extract

import (
	"github.com/phobologic/fnmap/internal/model"
)

// Functions walks the tree rooted at root and returns one record per
// function-like construct, in pre-order.
func Functions(root Node, source []byte) []model.FunctionRecord {
	if root == nil {
		return []model.FunctionRecord{}
	}
	return walk(root, source)
}

func walk(n Node, source []byte) []model.FunctionRecord {
	var records []model.FunctionRecord

	switch classify(n) {
	case kindFunctionDeclaration, kindMethodDefinition:
		records = append(records, directFunction(n, source))
	case kindDeclaration:
		records = append(records, boundFunctions(n, source)...)
	}

	for i := 0; i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			records = append(records, walk(child, source)...)
		}
	}
	if records == nil {
		records = []model.FunctionRecord{}
	}
	return records
}

// directFunction builds the record for a function declaration or method.
// Only statement-block children contribute variables.
func directFunction(n Node, source []byte) model.FunctionRecord {
	vars := []string{}
	for i := 0; i < n.ChildCount(); i++ {
		child := n.Child(i)
		if classify(child) == kindStatementBlock {
			vars = append(vars, Variables(child, source)...)
		}
	}
	return model.FunctionRecord{
		Name:      declarationName(n, source),
		Params:    Parameters(n, source),
		Variables: vars,
	}
}

// boundFunctions returns a record for each declarator of decl whose value is
// a function expression.
func boundFunctions(decl Node, source []byte) []model.FunctionRecord {
	var records []model.FunctionRecord
	for i := 0; i < decl.ChildCount(); i++ {
		declarator := decl.Child(i)
		if classify(declarator) != kindVariableDeclarator {
			continue
		}
		value := declarator.ChildByFieldName("value")
		if classify(value) != kindFunctionExpression {
			continue
		}
		var name *string
		if nameNode := declarator.ChildByFieldName("name"); nameNode != nil {
			name = model.StringPtr(text(nameNode, source))
		}
		records = append(records, model.FunctionRecord{
			Name:      name,
			Params:    Parameters(value, source),
			Variables: Variables(value, source),
		})
	}
	return records
}

// declarationName prefers the node's name field. A name field holding a
// computed or literal key yields nil. Without a name field the first direct
// identifier child wins.
func declarationName(n Node, source []byte) *string {
	if nameNode := n.ChildByFieldName("name"); nameNode != nil {
		switch classify(nameNode) {
		case kindIdentifier, kindPropertyName:
			return model.StringPtr(text(nameNode, source))
		}
		return nil
	}
	for i := 0; i < n.ChildCount(); i++ {
		child := n.Child(i)
		if classify(child) == kindIdentifier {
			return model.StringPtr(text(child, source))
		}
	}
	return nil
}

// Parameters returns the plain identifier parameters of fn in source order.
// Destructuring patterns, defaults and rest parameters are skipped.
func Parameters(fn Node, source []byte) []string {
	params := []string{}

	// x => x
	if p := fn.ChildByFieldName("parameter"); classify(p) == kindIdentifier {
		return append(params, text(p, source))
	}

	for i := 0; i < fn.ChildCount(); i++ {
		list := fn.Child(i)
		if classify(list) != kindFormalParameters {
			continue
		}
		for j := 0; j < list.ChildCount(); j++ {
			p := list.Child(j)
			switch classify(p) {
			case kindIdentifier:
				params = append(params, text(p, source))
			case kindTypedParameter:
				// b = 1 and b: number = 1 carry a value field.
				if p.ChildByFieldName("value") != nil {
					continue
				}
				if pat := p.ChildByFieldName("pattern"); classify(pat) == kindIdentifier {
					params = append(params, text(pat, source))
				}
			}
		}
		break
	}
	return params
}

// Variables returns the names of every variable declarator under n, including
// n itself, in pre-order. Nested blocks and nested functions are included.
func Variables(n Node, source []byte) []string {
	vars := []string{}
	if n == nil {
		return vars
	}

	if classify(n) == kindDeclaration {
		for i := 0; i < n.ChildCount(); i++ {
			declarator := n.Child(i)
			if classify(declarator) != kindVariableDeclarator {
				continue
			}
			if name := declarator.ChildByFieldName("name"); name != nil {
				vars = append(vars, text(name, source))
			}
		}
	}

	for i := 0; i < n.ChildCount(); i++ {
		if child := n.Child(i); child != nil {
			vars = append(vars, Variables(child, source)...)
		}
	}
	return vars
}
