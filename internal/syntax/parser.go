package syntax

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// Dialect selects the grammar used to parse a file.
type Dialect string

const (
	// DialectJSX is JavaScript with JSX enabled.
	DialectJSX Dialect = "jsx"
	// DialectTSX is TypeScript with JSX enabled.
	DialectTSX Dialect = "tsx"
)

// Syntax extension names accepted from the plugins option.
const (
	ExtensionJSX        = "jsx"
	ExtensionTypeScript = "typescript"
)

// ErrNotDeclaration is returned by ParseDeclaration when the text does not
// start with a function declaration.
var ErrNotDeclaration = errors.New("syntax: not a function declaration")

// ParseError reports source text that tree-sitter could not parse cleanly.
type ParseError struct {
	Filename string
	Reason   string
}

func (e *ParseError) Error() string {
	if e.Filename == "" {
		return fmt.Sprintf("syntax: %s", e.Reason)
	}
	return fmt.Sprintf("syntax: %s: %s", e.Filename, e.Reason)
}

// DialectFor picks the dialect for filename. Files ending in .tsx always use
// the TSX grammar; the typescript extension forces it for every file.
func DialectFor(filename string, extensions []string) Dialect {
	for _, ext := range extensions {
		if ext == ExtensionTypeScript {
			return DialectTSX
		}
	}
	if strings.EqualFold(filepath.Ext(filename), ".tsx") {
		return DialectTSX
	}
	return DialectJSX
}

// Parser parses JSX and TSX source with tree-sitter. A new tree-sitter parser
// is created per call, so a single Parser may be shared between goroutines.
type Parser struct {
	languages map[Dialect]*tree_sitter.Language
}

// NewParser creates a Parser with the JavaScript and TSX grammars registered.
func NewParser() *Parser {
	return &Parser{
		languages: map[Dialect]*tree_sitter.Language{
			DialectJSX: tree_sitter.NewLanguage(tree_sitter_javascript.Language()),
			DialectTSX: tree_sitter.NewLanguage(tree_sitter_typescript.LanguageTSX()),
		},
	}
}

// Parse builds a Document for source. The caller must Close the Document.
// A tree with syntax errors is rejected with a *ParseError.
func (p *Parser) Parse(ctx context.Context, filename string, source []byte, dialect Dialect) (*Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tree, err := p.parse(source, dialect)
	if err != nil {
		return nil, err
	}
	if tree == nil {
		return nil, &ParseError{Filename: filename, Reason: "tree-sitter returned nil tree"}
	}
	if tree.RootNode().HasError() {
		tree.Close()
		return nil, &ParseError{Filename: filename, Reason: "source contains syntax errors"}
	}
	return newDocument(filename, dialect, source, tree), nil
}

// ParseDeclaration parses text produced outside the file (a model response)
// and returns the source of its first top-level statement when that statement
// is a function declaration. Comments before it are skipped.
func (p *Parser) ParseDeclaration(text string, dialect Dialect) (string, error) {
	source := []byte(text)
	tree, err := p.parse(source, dialect)
	if err != nil {
		return "", err
	}
	if tree == nil {
		return "", &ParseError{Reason: "tree-sitter returned nil tree"}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return "", &ParseError{Reason: "response contains syntax errors"}
	}
	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		if child == nil || child.Kind() == "comment" || child.Kind() == "hash_bang_line" {
			continue
		}
		if !isFunctionDeclaration(child) {
			return "", fmt.Errorf("%w: got %s", ErrNotDeclaration, child.Kind())
		}
		return child.Utf8Text(source), nil
	}
	return "", fmt.Errorf("%w: no statements", ErrNotDeclaration)
}

func (p *Parser) parse(source []byte, dialect Dialect) (*tree_sitter.Tree, error) {
	lang, ok := p.languages[dialect]
	if !ok {
		return nil, fmt.Errorf("syntax: unsupported dialect: %s", dialect)
	}

	parser := tree_sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(lang); err != nil {
		return nil, fmt.Errorf("syntax: set language %s: %w", dialect, err)
	}
	return parser.Parse(source, nil), nil
}

func isFunctionDeclaration(node *tree_sitter.Node) bool {
	switch node.Kind() {
	case "function_declaration", "generator_function_declaration":
		return true
	}
	return false
}
