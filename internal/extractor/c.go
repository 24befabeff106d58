package extractor

import (
	"context"

	sitter "github.com/tree-sitter/go-tree-sitter"
	c "github.com/tree-sitter/tree-sitter-c/bindings/go"

	"github.com/mvp-joe/classmap/internal/model"
)

// cExtractor extracts structs and unions from C files. Function pointer
// members are reported as methods.
type cExtractor struct {
	*treeSitterExtractor
}

// NewCExtractor creates a new C extractor.
func NewCExtractor() *cExtractor {
	lang := sitter.NewLanguage(c.Language())
	return &cExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "c", ".c", ".h"),
	}
}

// Extract returns every struct or union that has a body.
func (p *cExtractor) Extract(ctx context.Context, path string, source []byte) ([]model.ClassEntity, error) {
	var classes []model.ClassEntity

	err := p.withTree(ctx, path, source, func(root *sitter.Node) {
		walkTree(root, func(n *sitter.Node) bool {
			switch n.Kind() {
			case "struct_specifier", "union_specifier":
				if class, ok := p.extractStruct(n, source); ok {
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

func (p *cExtractor) extractStruct(node *sitter.Node, source []byte) (model.ClassEntity, bool) {
	body := node.ChildByFieldName("body")
	if body == nil {
		// Forward declaration or use as a type.
		return model.ClassEntity{}, false
	}

	name := fieldText(node, "name", source)
	if name == "" {
		name = p.typedefName(node, source)
	}
	if name == "" {
		return model.ClassEntity{}, false
	}

	class := model.ClassEntity{Name: name, Kind: model.KindStruct}
	for _, field := range findChildrenByType(body, "field_declaration") {
		typeName := fieldText(field, "type", source)
		// Type specifiers fall through addDeclarator untouched, so every
		// named child can be offered to it.
		for _, child := range namedChildren(field) {
			p.addDeclarator(&class, child, typeName, source)
		}
	}

	return class, true
}

// addDeclarator adds one field declarator, unwrapping pointers and arrays.
// A function declarator becomes a method.
func (p *cExtractor) addDeclarator(class *model.ClassEntity, node *sitter.Node, typeName string, source []byte) {
	for node != nil {
		switch node.Kind() {
		case "field_identifier", "identifier":
			class.Fields = append(class.Fields, model.FieldEntity{
				Name:       extractNodeText(node, source),
				TypeName:   typeName,
				Visibility: model.VisibilityPublic,
			})
			return
		case "pointer_declarator":
			typeName += "*"
		case "array_declarator":
			typeName += "[]"
		case "function_declarator":
			name := p.declaratorName(node.ChildByFieldName("declarator"), source)
			if name == "" {
				return
			}
			class.Methods = append(class.Methods, model.MethodEntity{
				Name:           name,
				ParameterNames: p.parameterNames(node.ChildByFieldName("parameters"), source),
				ReturnTypeName: typeName,
				Visibility:     model.VisibilityPublic,
			})
			return
		case "parenthesized_declarator":
			node = node.NamedChild(0)
			continue
		default:
			return
		}
		node = node.ChildByFieldName("declarator")
	}
}

// declaratorName finds the identifier inside nested declarators.
func (p *cExtractor) declaratorName(node *sitter.Node, source []byte) string {
	var name string
	walkTree(node, func(n *sitter.Node) bool {
		if name != "" {
			return false
		}
		switch n.Kind() {
		case "field_identifier", "identifier", "type_identifier":
			name = extractNodeText(n, source)
			return false
		}
		return true
	})
	return name
}

func (p *cExtractor) parameterNames(params *sitter.Node, source []byte) []string {
	var names []string
	for _, param := range findChildrenByType(params, "parameter_declaration") {
		if name := p.declaratorName(param.ChildByFieldName("declarator"), source); name != "" {
			names = append(names, name)
		}
	}
	return names
}

// typedefName returns the alias of an anonymous struct declared in a typedef.
func (p *cExtractor) typedefName(node *sitter.Node, source []byte) string {
	parent := node.Parent()
	if parent == nil || parent.Kind() != "type_definition" {
		return ""
	}
	return p.declaratorName(parent.ChildByFieldName("declarator"), source)
}
