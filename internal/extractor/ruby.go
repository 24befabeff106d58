package extractor

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"

	"github.com/mvp-joe/classmap/internal/model"
)

// rubyExtractor extracts classes from Ruby source files.
type rubyExtractor struct {
	*treeSitterExtractor
}

// NewRubyExtractor creates a new Ruby extractor.
func NewRubyExtractor() *rubyExtractor {
	lang := sitter.NewLanguage(ruby.Language())
	return &rubyExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "ruby", ".rb"),
	}
}

// Extract returns every class in the file, including those nested in modules.
func (p *rubyExtractor) Extract(ctx context.Context, path string, source []byte) ([]model.ClassEntity, error) {
	var classes []model.ClassEntity

	err := p.withTree(ctx, path, source, func(root *sitter.Node) {
		walkTree(root, func(n *sitter.Node) bool {
			if n.Kind() == "class" {
				if class, ok := p.extractClass(n, source); ok {
					classes = append(classes, class)
				}
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}

	return classes, nil
}

func (p *rubyExtractor) extractClass(node *sitter.Node, source []byte) (model.ClassEntity, bool) {
	name := p.constantName(node.ChildByFieldName("name"), source)
	if name == "" {
		return model.ClassEntity{}, false
	}

	class := model.ClassEntity{Name: name, Kind: model.KindClass}
	if superclass := node.ChildByFieldName("superclass"); superclass != nil {
		base := model.UnknownBase
		if expr := superclass.NamedChild(0); expr != nil {
			switch expr.Kind() {
			case "constant", "scope_resolution":
				base = p.constantName(expr, source)
			}
		}
		class.BaseNames = []string{base}
	}

	visibility := model.VisibilityPublic
	seen := make(map[string]bool)
	addField := func(name, typeName string, v model.Visibility) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		class.Fields = append(class.Fields, model.FieldEntity{Name: name, TypeName: typeName, Visibility: v})
	}

	for _, member := range p.bodyMembers(node) {
		switch member.Kind() {
		case "identifier":
			// A bare private/protected/public switches the visibility of what follows.
			if v := model.ParseVisibility(extractNodeText(member, source)); v != model.VisibilityDefault {
				visibility = v
			}
		case "call":
			for _, attr := range p.attributeNames(member, source) {
				addField(attr, model.UnknownType, model.VisibilityPublic)
			}
		case "assignment":
			if left := member.ChildByFieldName("left"); left != nil && left.Kind() == "constant" {
				addField(extractNodeText(left, source), model.UnknownType, model.VisibilityPublic)
			}
		case "method", "singleton_method":
			methodName := fieldText(member, "name", source)
			if methodName == "initialize" {
				for _, ivar := range p.instanceVariables(member, source) {
					addField(ivar, model.UnknownType, model.VisibilityPrivate)
				}
			}
			class.Methods = append(class.Methods, model.MethodEntity{
				Name:           methodName,
				ParameterNames: p.parameterNames(member.ChildByFieldName("parameters"), source),
				Visibility:     visibility,
			})
		}
	}

	return class, true
}

// bodyMembers returns the statements of a class body. Depending on the
// grammar version they sit directly under the class or inside a body_statement.
func (p *rubyExtractor) bodyMembers(classNode *sitter.Node) []*sitter.Node {
	var members []*sitter.Node
	for _, child := range namedChildren(classNode) {
		if child.Kind() == "body_statement" {
			members = append(members, namedChildren(child)...)
			continue
		}
		members = append(members, child)
	}
	return members
}

// attributeNames returns the symbols declared by attr_accessor, attr_reader
// or attr_writer.
func (p *rubyExtractor) attributeNames(call *sitter.Node, source []byte) []string {
	switch fieldText(call, "method", source) {
	case "attr_accessor", "attr_reader", "attr_writer":
	default:
		return nil
	}

	var names []string
	for _, arg := range namedChildren(call.ChildByFieldName("arguments")) {
		if arg.Kind() == "simple_symbol" {
			names = append(names, strings.TrimPrefix(extractNodeText(arg, source), ":"))
		}
	}
	return names
}

// instanceVariables lists @variables assigned anywhere in a method body.
func (p *rubyExtractor) instanceVariables(method *sitter.Node, source []byte) []string {
	var names []string
	walkTree(method, func(n *sitter.Node) bool {
		if n.Kind() == "assignment" || n.Kind() == "operator_assignment" {
			if left := n.ChildByFieldName("left"); left != nil && left.Kind() == "instance_variable" {
				names = appendUnique(names, strings.TrimPrefix(extractNodeText(left, source), "@"))
			}
		}
		return true
	})
	return names
}

func (p *rubyExtractor) parameterNames(params *sitter.Node, source []byte) []string {
	var names []string
	for _, param := range namedChildren(params) {
		switch param.Kind() {
		case "identifier":
			names = append(names, extractNodeText(param, source))
		case "optional_parameter", "keyword_parameter", "splat_parameter",
			"hash_splat_parameter", "block_parameter":
			if name := fieldText(param, "name", source); name != "" {
				names = append(names, name)
			}
		}
	}
	return names
}

// constantName returns the last segment of a constant or Foo::Bar path.
func (p *rubyExtractor) constantName(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	if node.Kind() == "scope_resolution" {
		if name := node.ChildByFieldName("name"); name != nil {
			return extractNodeText(name, source)
		}
	}
	return extractNodeText(node, source)
}
