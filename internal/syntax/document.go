package syntax

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
)

var (
	// ErrUnknownSlot is returned when a slot index was never registered.
	ErrUnknownSlot = errors.New("syntax: unknown slot")
	// ErrSlotReplaced is returned on a second replacement of the same slot.
	ErrSlotReplaced = errors.New("syntax: slot already replaced")
)

// slot is one replaceable byte range of the original source.
type slot struct {
	start, end  uint
	replacement *string
}

// importDecl is a top-level import statement that binds a module as a whole.
type importDecl struct {
	module  string
	binding string
}

type importRequest struct {
	module  string
	binding string
}

// Document is one parsed file. Candidate declarations are registered as
// slots; rewrites replace whole slots and never touch the tree itself, so
// goroutines that own different slots can write concurrently.
type Document struct {
	Filename string
	Dialect  Dialect

	source []byte
	tree   *tree_sitter.Tree

	// importAt is the offset where a new import statement is inserted;
	// importLead is true when a newline must precede it.
	importAt   uint
	importLead bool
	imports    []importDecl

	mu         sync.Mutex
	slots      []slot
	wantImport *importRequest
}

func newDocument(filename string, dialect Dialect, source []byte, tree *tree_sitter.Tree) *Document {
	d := &Document{
		Filename: filename,
		Dialect:  dialect,
		source:   source,
		tree:     tree,
	}
	d.scanImports()
	return d
}

// Close releases the underlying tree. Slots stay usable.
func (d *Document) Close() {
	if d.tree != nil {
		d.tree.Close()
		d.tree = nil
	}
}

// Source returns the original source text.
func (d *Document) Source() []byte {
	return d.source
}

// addSlot registers the byte range of node and returns its index.
func (d *Document) addSlot(node *tree_sitter.Node) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.slots = append(d.slots, slot{start: node.StartByte(), end: node.EndByte()})
	return len(d.slots) - 1
}

// Text returns the original text of a slot.
func (d *Document) Text(index int) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.slots) {
		return "", fmt.Errorf("%w: %d", ErrUnknownSlot, index)
	}
	s := d.slots[index]
	return string(d.source[s.start:s.end]), nil
}

// Replace sets the replacement text of a slot. Each slot may be replaced once.
func (d *Document) Replace(index int, text string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.slots) {
		return fmt.Errorf("%w: %d", ErrUnknownSlot, index)
	}
	if d.slots[index].replacement != nil {
		return fmt.Errorf("%w: %d", ErrSlotReplaced, index)
	}
	d.slots[index].replacement = &text
	return nil
}

// Replaced reports whether any slot has a replacement.
func (d *Document) Replaced() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.slots {
		if s.replacement != nil {
			return true
		}
	}
	return false
}

// Superseded reports whether the slot is replaced but lies inside another
// replaced slot, so its replacement will not appear in Serialize output.
func (d *Document) Superseded(index int) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if index < 0 || index >= len(d.slots) || d.slots[index].replacement == nil {
		return false
	}
	inner := d.slots[index]
	for j, outer := range d.slots {
		if j == index || outer.replacement == nil {
			continue
		}
		if outer.start <= inner.start && inner.end <= outer.end {
			return true
		}
	}
	return false
}

// EnsureDefaultImport makes sure module has a default import binding in the
// serialized output and returns the binding name. An existing default (or
// namespace) import of module is reused; otherwise one named nameHint is
// inserted after the last top-level import.
func (d *Document) EnsureDefaultImport(module, nameHint string) string {
	for _, imp := range d.imports {
		if imp.module == module {
			return imp.binding
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.wantImport != nil && d.wantImport.module == module {
		return d.wantImport.binding
	}
	d.wantImport = &importRequest{module: module, binding: nameHint}
	return nameHint
}

type edit struct {
	start, end uint
	text       string
}

// Serialize renders the document with all replacements applied in source
// order. A replacement inside an enclosing replaced slot is dropped; the
// enclosing rewrite already covers its text.
func (d *Document) Serialize() string {
	d.mu.Lock()
	defer d.mu.Unlock()

	var edits []edit
	for _, s := range d.slots {
		if s.replacement != nil {
			edits = append(edits, edit{start: s.start, end: s.end, text: *s.replacement})
		}
	}
	sort.SliceStable(edits, func(i, j int) bool {
		if edits[i].start != edits[j].start {
			return edits[i].start < edits[j].start
		}
		return edits[i].end > edits[j].end
	})

	var sb strings.Builder
	sb.Grow(len(d.source))

	var pos uint
	importDone := d.wantImport == nil
	for _, e := range edits {
		if e.start < pos {
			continue // nested in a replaced slot
		}
		if !importDone && d.importAt <= e.start {
			sb.Write(d.source[pos:d.importAt])
			sb.WriteString(d.importText())
			pos = d.importAt
			importDone = true
		}
		sb.Write(d.source[pos:e.start])
		sb.WriteString(e.text)
		pos = e.end
	}
	if !importDone {
		sb.Write(d.source[pos:d.importAt])
		sb.WriteString(d.importText())
		pos = d.importAt
	}
	sb.Write(d.source[pos:])
	return sb.String()
}

func (d *Document) importText() string {
	stmt := fmt.Sprintf("import %s from %q;", d.wantImport.binding, d.wantImport.module)
	if d.importLead {
		return "\n" + stmt
	}
	return stmt + "\n"
}

// scanImports records top-level imports and where a new one would go: after
// the last import, else after a hashbang and directive prologue, else at 0.
func (d *Document) scanImports() {
	root := d.tree.RootNode()
	prologue := true
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child == nil {
			continue
		}
		switch child.Kind() {
		case "import_statement":
			prologue = false
			d.importAt = child.EndByte()
			d.importLead = true
			if imp, ok := d.wholeModuleImport(child); ok {
				d.imports = append(d.imports, imp)
			}
		case "hash_bang_line":
			if prologue {
				d.importAt = child.EndByte()
				d.importLead = true
			}
		case "expression_statement":
			if prologue && isDirective(child) {
				d.importAt = child.EndByte()
				d.importLead = true
				continue
			}
			prologue = false
		case "comment":
		default:
			prologue = false
		}
	}
}

// wholeModuleImport extracts the binding of `import X from "m"` or
// `import * as X from "m"`. Type-only imports do not bind a value.
func (d *Document) wholeModuleImport(node *tree_sitter.Node) (importDecl, bool) {
	src := node.ChildByFieldName("source")
	if src == nil {
		return importDecl{}, false
	}
	module := strings.Trim(src.Utf8Text(d.source), "\"'`")

	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child == nil {
			continue
		}
		if child.Kind() == "type" {
			return importDecl{}, false
		}
		if child.Kind() != "import_clause" {
			continue
		}
		for j := uint(0); j < child.NamedChildCount(); j++ {
			part := child.NamedChild(j)
			if part == nil {
				continue
			}
			switch part.Kind() {
			case "identifier":
				return importDecl{module: module, binding: part.Utf8Text(d.source)}, true
			case "namespace_import":
				for k := uint(0); k < part.NamedChildCount(); k++ {
					if id := part.NamedChild(k); id != nil && id.Kind() == "identifier" {
						return importDecl{module: module, binding: id.Utf8Text(d.source)}, true
					}
				}
			}
		}
	}
	return importDecl{}, false
}

func isDirective(node *tree_sitter.Node) bool {
	if node.NamedChildCount() != 1 {
		return false
	}
	expr := node.NamedChild(0)
	return expr != nil && expr.Kind() == "string"
}
