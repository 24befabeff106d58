package extractor

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/mvp-joe/classmap/internal/model"
)

// treeSitterExtractor provides common tree-sitter parsing functionality.
type treeSitterExtractor struct {
	language   *sitter.Language
	lang       string
	extensions []string
}

// newTreeSitterExtractor creates a new tree-sitter extractor base for the given language.
func newTreeSitterExtractor(language *sitter.Language, lang string, extensions ...string) *treeSitterExtractor {
	return &treeSitterExtractor{
		language:   language,
		lang:       lang,
		extensions: extensions,
	}
}

func (e *treeSitterExtractor) Language() string     { return e.lang }
func (e *treeSitterExtractor) Extensions() []string { return e.extensions }

// withTree parses source and calls fn with the root node while the tree is alive.
// Blank input skips fn entirely. A tree containing error or missing nodes is
// reported as a *ParseError positioned at the first such node.
func (e *treeSitterExtractor) withTree(ctx context.Context, path string, source []byte, fn func(root *sitter.Node)) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if isBlank(source) {
		return nil
	}

	parser := sitter.NewParser()
	defer parser.Close()

	if err := parser.SetLanguage(e.language); err != nil {
		return fmt.Errorf("failed to set %s language: %w", e.lang, err)
	}

	tree := parser.Parse(source, nil)
	if tree == nil {
		return &ParseError{Path: path, Message: fmt.Sprintf("failed to parse %s source", e.lang)}
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		return syntaxError(path, root, source)
	}

	fn(root)
	return nil
}

// syntaxError builds a ParseError from the first error or missing node.
func syntaxError(path string, root *sitter.Node, source []byte) *ParseError {
	var bad *sitter.Node
	walkTree(root, func(n *sitter.Node) bool {
		if bad != nil {
			return false
		}
		if n.IsError() || n.IsMissing() {
			bad = n
			return false
		}
		return n.HasError()
	})

	if bad == nil {
		return &ParseError{Path: path, Message: "syntax error"}
	}

	pos := bad.StartPosition()
	msg := "syntax error"
	if bad.IsMissing() {
		msg = fmt.Sprintf("missing %s", bad.Kind())
	} else if text := strings.TrimSpace(extractNodeText(bad, source)); text != "" {
		msg = fmt.Sprintf("syntax error near %q", truncate(firstLine(text), 40))
	}

	return &ParseError{
		Path:    path,
		Line:    int(pos.Row) + 1,
		Column:  int(pos.Column) + 1,
		Message: msg,
	}
}

// extractNodeText extracts the text content of a tree-sitter node.
func extractNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	return string(source[node.StartByte():node.EndByte()])
}

// fieldText returns the text of the named field child, or "".
func fieldText(node *sitter.Node, field string, source []byte) string {
	return extractNodeText(node.ChildByFieldName(field), source)
}

// walkTree recursively walks a tree-sitter tree and calls the visitor for each node.
// Children are skipped when the visitor returns false.
func walkTree(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if node == nil {
		return
	}

	if !visitor(node) {
		return
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		walkTree(child, visitor)
	}
}

// findChildByType finds the first child node with the given type.
func findChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child != nil && child.Kind() == nodeType {
			return child
		}
	}
	return nil
}

// findChildrenByType finds all child nodes with the given type.
func findChildrenByType(node *sitter.Node, nodeType string) []*sitter.Node {
	var results []*sitter.Node
	if node == nil {
		return results
	}

	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child != nil && child.Kind() == nodeType {
			results = append(results, child)
		}
	}
	return results
}

// namedChildren returns the named children of node in order.
func namedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}

	results := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(uint(i)); child != nil {
			results = append(results, child)
		}
	}
	return results
}

// hasChildOfType reports whether node has a direct child of the given type.
func hasChildOfType(node *sitter.Node, nodeType string) bool {
	return findChildByType(node, nodeType) != nil
}

// modifierVisibility scans the direct children of node for access keywords.
func modifierVisibility(node *sitter.Node) model.Visibility {
	if node == nil {
		return model.VisibilityDefault
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(uint(i))
		if child == nil {
			continue
		}
		if v := model.ParseVisibility(child.Kind()); v != model.VisibilityDefault {
			return v
		}
	}
	return model.VisibilityDefault
}

// stripReceiver drops the first parameter when it names an implicit receiver.
func stripReceiver(params []string, receivers ...string) []string {
	if len(params) == 0 {
		return params
	}
	for _, r := range receivers {
		if params[0] == r {
			return params[1:]
		}
	}
	return params
}

// appendUnique appends name unless it is already present.
func appendUnique(names []string, name string) []string {
	for _, n := range names {
		if n == name {
			return names
		}
	}
	return append(names, name)
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
