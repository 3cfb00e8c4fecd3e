package syntax

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

// Candidate is a component declaration selected for rewriting. Slot indexes
// the Document's slot table; Text is the declaration as it was parsed.
type Candidate struct {
	Slot      int
	Name      string
	Text      string
	StartLine int
}

// FindCandidates returns, in document order, every function declaration whose
// name is capitalized and whose body directly returns JSX. Declarations nested
// in other functions are visited as well.
func FindCandidates(doc *Document) []Candidate {
	if doc == nil || doc.tree == nil {
		return nil
	}

	var out []Candidate
	cursor := doc.tree.RootNode().Walk()
	defer cursor.Close()

	walk(cursor, doc, &out)
	return out
}

func walk(cursor *tree_sitter.TreeCursor, doc *Document, out *[]Candidate) {
	node := cursor.Node()
	if isFunctionDeclaration(node) {
		if c, ok := candidateFor(node, doc); ok {
			*out = append(*out, c)
		}
	}

	if cursor.GotoFirstChild() {
		walk(cursor, doc, out)
		for cursor.GotoNextSibling() {
			walk(cursor, doc, out)
		}
		cursor.GotoParent()
	}
}

func candidateFor(node *tree_sitter.Node, doc *Document) (Candidate, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return Candidate{}, false
	}
	name := nameNode.Utf8Text(doc.source)
	if !IsCapitalized(name) {
		return Candidate{}, false
	}
	if !returnsJSX(node.ChildByFieldName("body")) {
		return Candidate{}, false
	}

	return Candidate{
		Slot:      doc.addSlot(node),
		Name:      name,
		Text:      node.Utf8Text(doc.source),
		StartLine: int(node.StartPosition().Row) + 1,
	}, true
}

// returnsJSX reports whether a statement block has a direct return statement
// whose argument is a JSX element or fragment.
func returnsJSX(body *tree_sitter.Node) bool {
	if body == nil {
		return false
	}
	for i := uint(0); i < body.NamedChildCount(); i++ {
		stmt := body.NamedChild(i)
		if stmt == nil || stmt.Kind() != "return_statement" {
			continue
		}
		if isJSX(returnArgument(stmt)) {
			return true
		}
	}
	return false
}

func returnArgument(stmt *tree_sitter.Node) *tree_sitter.Node {
	for i := uint(0); i < stmt.NamedChildCount(); i++ {
		child := stmt.NamedChild(i)
		if child != nil && child.Kind() != "comment" {
			return child
		}
	}
	return nil
}

func isJSX(expr *tree_sitter.Node) bool {
	for expr != nil && expr.Kind() == "parenthesized_expression" {
		expr = returnArgument(expr)
	}
	if expr == nil {
		return false
	}
	switch expr.Kind() {
	case "jsx_element", "jsx_self_closing_element", "jsx_fragment":
		return true
	}
	return false
}
