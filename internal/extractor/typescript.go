package extractor

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	"github.com/mvp-joe/classmap/internal/model"
)

// typeScriptExtractor extracts classes and interfaces from TypeScript and TSX files.
type typeScriptExtractor struct {
	*treeSitterExtractor
}

// NewTypeScriptExtractor creates a new TypeScript extractor.
func NewTypeScriptExtractor() *typeScriptExtractor {
	lang := sitter.NewLanguage(typescript.LanguageTypescript())
	return &typeScriptExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "typescript", ".ts", ".mts", ".cts"),
	}
}

// NewTSXExtractor creates a TypeScript extractor using the TSX grammar.
func NewTSXExtractor() *typeScriptExtractor {
	lang := sitter.NewLanguage(typescript.LanguageTSX())
	return &typeScriptExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "tsx", ".tsx"),
	}
}

// Extract returns every class and interface declaration in the file.
func (p *typeScriptExtractor) Extract(ctx context.Context, path string, source []byte) ([]model.ClassEntity, error) {
	var classes []model.ClassEntity

	err := p.withTree(ctx, path, source, func(root *sitter.Node) {
		walkTree(root, func(n *sitter.Node) bool {
			switch n.Kind() {
			case "class_declaration", "abstract_class_declaration":
				if class, ok := p.extractClass(n, source); ok {
					classes = append(classes, class)
				}
			case "interface_declaration":
				if class, ok := p.extractInterface(n, source); ok {
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

// extractClass extracts a class or abstract class declaration.
func (p *typeScriptExtractor) extractClass(node *sitter.Node, source []byte) (model.ClassEntity, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		return model.ClassEntity{}, false
	}

	class := model.ClassEntity{Name: name, Kind: model.KindClass}
	if node.Kind() == "abstract_class_declaration" {
		class.Kind = model.KindAbstractClass
	}

	if heritage := findChildByType(node, "class_heritage"); heritage != nil {
		if extends := findChildByType(heritage, "extends_clause"); extends != nil {
			for _, value := range namedChildren(extends) {
				if value.Kind() == "type_arguments" {
					continue
				}
				class.BaseNames = append(class.BaseNames, p.resolveValue(value, source))
			}
		}
		if implements := findChildByType(heritage, "implements_clause"); implements != nil {
			for _, t := range namedChildren(implements) {
				class.BaseNames = append(class.BaseNames, p.resolveType(t, source))
			}
		}
	}

	p.extractMembers(&class, node.ChildByFieldName("body"), source)
	return class, true
}

// extractInterface extracts an interface declaration.
func (p *typeScriptExtractor) extractInterface(node *sitter.Node, source []byte) (model.ClassEntity, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		return model.ClassEntity{}, false
	}

	class := model.ClassEntity{Name: name, Kind: model.KindInterface}

	extends := findChildByType(node, "extends_type_clause")
	if extends == nil {
		extends = findChildByType(node, "extends_clause")
	}
	for _, t := range namedChildren(extends) {
		class.BaseNames = append(class.BaseNames, p.resolveType(t, source))
	}

	p.extractMembers(&class, node.ChildByFieldName("body"), source)
	return class, true
}

// extractMembers collects fields and methods from a class or interface body.
func (p *typeScriptExtractor) extractMembers(class *model.ClassEntity, body *sitter.Node, source []byte) {
	for _, member := range namedChildren(body) {
		switch member.Kind() {
		case "public_field_definition", "property_signature":
			nameNode := member.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			typeName := p.annotationText(member.ChildByFieldName("type"), source)
			if typeName == "" {
				typeName = model.UnknownType
			}
			class.Fields = append(class.Fields, model.FieldEntity{
				Name:       extractNodeText(nameNode, source),
				TypeName:   typeName,
				Visibility: p.memberVisibility(member, nameNode, source),
			})
		case "method_definition", "method_signature", "abstract_method_signature":
			nameNode := member.ChildByFieldName("name")
			if nameNode == nil {
				continue
			}
			class.Methods = append(class.Methods, model.MethodEntity{
				Name:           extractNodeText(nameNode, source),
				ParameterNames: p.parameterNames(member.ChildByFieldName("parameters"), source),
				ReturnTypeName: p.annotationText(member.ChildByFieldName("return_type"), source),
				Visibility:     p.memberVisibility(member, nameNode, source),
			})
		}
	}
}

// memberVisibility reads the accessibility modifier; #names are private and
// everything else is public.
func (p *typeScriptExtractor) memberVisibility(member, nameNode *sitter.Node, source []byte) model.Visibility {
	if nameNode.Kind() == "private_property_identifier" {
		return model.VisibilityPrivate
	}
	if modifier := findChildByType(member, "accessibility_modifier"); modifier != nil {
		if v := model.ParseVisibility(extractNodeText(modifier, source)); v != model.VisibilityDefault {
			return v
		}
	}
	return model.VisibilityPublic
}

// parameterNames lists parameter patterns. A leading this parameter is the
// receiver and is dropped.
func (p *typeScriptExtractor) parameterNames(params *sitter.Node, source []byte) []string {
	var names []string
	for _, param := range namedChildren(params) {
		switch param.Kind() {
		case "required_parameter", "optional_parameter":
			if pattern := param.ChildByFieldName("pattern"); pattern != nil {
				names = append(names, extractNodeText(pattern, source))
			}
		}
	}
	return stripReceiver(names, "this")
}

// annotationText returns a type annotation without its leading colon.
func (p *typeScriptExtractor) annotationText(node *sitter.Node, source []byte) string {
	text := strings.TrimSpace(extractNodeText(node, source))
	text = strings.TrimPrefix(text, ":")
	return strings.TrimSpace(text)
}

// resolveValue reduces an extends expression to a simple name.
func (p *typeScriptExtractor) resolveValue(node *sitter.Node, source []byte) string {
	switch node.Kind() {
	case "identifier", "type_identifier":
		return extractNodeText(node, source)
	case "member_expression":
		if property := node.ChildByFieldName("property"); property != nil {
			return extractNodeText(property, source)
		}
	}
	return model.UnknownBase
}

// resolveType reduces a type reference to a simple name.
func (p *typeScriptExtractor) resolveType(node *sitter.Node, source []byte) string {
	switch node.Kind() {
	case "type_identifier", "identifier":
		return extractNodeText(node, source)
	case "nested_type_identifier":
		if name := node.ChildByFieldName("name"); name != nil {
			return extractNodeText(name, source)
		}
	case "generic_type":
		if name := node.ChildByFieldName("name"); name != nil {
			return p.resolveType(name, source)
		}
	}
	return model.UnknownBase
}
