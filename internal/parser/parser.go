// Package parser extracts top-level declarations and file-level context
// from source code using tree-sitter grammars.
package parser

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/ApeachM/llm-code-reviewer-sub001/pkg/types"
)

// Node is one top-level syntax node extracted from a parse tree.
// Line numbers are 1-indexed and inclusive (tree-sitter rows are
// 0-indexed; the conversion happens here and nowhere else).
type Node struct {
	Kind      types.NodeKind
	Name      string
	StartLine int
	EndLine   int
	Text      string
}

// ParseResult holds the file-level view the chunker works from
type ParseResult struct {
	Language     string
	ContextNodes []Node // imports/usings in source order
	Declarations []Node // functions/classes/structs/namespaces in source order
	HasErrors    bool   // the tree contains syntax error nodes
}

// Parser parses source code with tree-sitter. Grammars are loaded and
// cached lazily per language. Safe for concurrent use.
type Parser struct {
	mu        sync.Mutex
	languages map[string]*tree_sitter.Language
}

// New creates a new Parser instance
func New() *Parser {
	return &Parser{
		languages: make(map[string]*tree_sitter.Language),
	}
}

// loadLanguage returns the tree-sitter language for a language name,
// loading and caching it on first access
func (p *Parser) loadLanguage(lang string) (*tree_sitter.Language, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if l, ok := p.languages[lang]; ok {
		return l, nil
	}

	spec, ok := languageSpecs[lang]
	if !ok {
		return nil, fmt.Errorf("%w: %q", types.ErrUnsupportedLanguage, lang)
	}

	l := tree_sitter.NewLanguage(spec.provider())
	if l == nil {
		return nil, fmt.Errorf("%w: grammar for %q failed to load", types.ErrUnsupportedLanguage, lang)
	}

	p.languages[lang] = l
	return l, nil
}

// Parse parses source code and extracts top-level declarations and
// context nodes. Returns an error when the language is unsupported or
// the grammar produces no tree; syntax errors inside an otherwise
// parseable file are reported via ParseResult.HasErrors instead, since
// tree-sitter recovers around them.
func (p *Parser) Parse(source []byte, lang string) (*ParseResult, error) {
	language, err := p.loadLanguage(lang)
	if err != nil {
		return nil, err
	}

	spec := languageSpecs[lang]

	tsParser := tree_sitter.NewParser()
	defer tsParser.Close()
	if err := tsParser.SetLanguage(language); err != nil {
		return nil, fmt.Errorf("set language %q: %w", lang, err)
	}

	tree := tsParser.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parsing %q source produced no tree", lang)
	}
	defer tree.Close()

	root := tree.RootNode()
	result := &ParseResult{
		Language:  lang,
		HasErrors: root.HasError(),
	}

	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		kind := child.Kind()

		if spec.contextKinds[kind] {
			result.ContextNodes = append(result.ContextNodes, p.extractNode(child, source, ""))
			continue
		}

		if nodeKind, ok := spec.declKinds[kind]; ok {
			name := declarationName(child, source)
			node := p.extractNode(child, source, name)
			node.Kind = nodeKind
			result.Declarations = append(result.Declarations, node)
		}
	}

	return result, nil
}

// extractNode converts a tree-sitter node into our Node representation
func (p *Parser) extractNode(node *tree_sitter.Node, source []byte, name string) Node {
	return Node{
		Name:      name,
		StartLine: int(node.StartPosition().Row) + 1,
		EndLine:   int(node.EndPosition().Row) + 1,
		Text:      node.Utf8Text(source),
	}
}

// identifierKinds are node types that can serve as a declaration's name
var identifierKinds = map[string]bool{
	"identifier":           true,
	"type_identifier":      true,
	"field_identifier":     true,
	"namespace_identifier": true,
	"qualified_identifier": true,
}

// declarationName extracts the name of a declaration node. Grammars
// differ: most expose a "name" field; C++ function definitions bury the
// identifier inside a declarator chain. Falls back to scanning children
// and finally to "unknown" so chunk IDs stay well-formed.
func declarationName(node *tree_sitter.Node, source []byte) string {
	if nameNode := node.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Utf8Text(source)
	}

	if decl := node.ChildByFieldName("declarator"); decl != nil {
		if name := declaratorName(decl, source); name != "" {
			return name
		}
	}

	// Decorated/wrapped definitions: look one level down
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if identifierKinds[child.Kind()] {
			return child.Utf8Text(source)
		}
		if nameNode := child.ChildByFieldName("name"); nameNode != nil {
			return nameNode.Utf8Text(source)
		}
	}

	return "unknown"
}

// declaratorName walks a C/C++ declarator chain down to its identifier
func declaratorName(node *tree_sitter.Node, source []byte) string {
	if identifierKinds[node.Kind()] {
		return node.Utf8Text(source)
	}

	if decl := node.ChildByFieldName("declarator"); decl != nil {
		return declaratorName(decl, source)
	}

	for i := uint(0); i < node.NamedChildCount(); i++ {
		if name := declaratorName(node.NamedChild(i), source); name != "" {
			return name
		}
	}

	return ""
}
