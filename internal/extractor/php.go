package extractor

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	php "github.com/tree-sitter/tree-sitter-php/bindings/go"

	"github.com/mvp-joe/classmap/internal/model"
)

// phpExtractor extracts classes, interfaces, traits and enums from PHP files.
type phpExtractor struct {
	*treeSitterExtractor
}

// NewPHPExtractor creates a new PHP extractor.
func NewPHPExtractor() *phpExtractor {
	lang := sitter.NewLanguage(php.LanguagePHP())
	return &phpExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "php", ".php"),
	}
}

// Extract returns every class-like declaration in the file.
func (p *phpExtractor) Extract(ctx context.Context, path string, source []byte) ([]model.ClassEntity, error) {
	var classes []model.ClassEntity

	err := p.withTree(ctx, path, source, func(root *sitter.Node) {
		walkTree(root, func(n *sitter.Node) bool {
			switch n.Kind() {
			case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
				if class, ok := p.extractType(n, source); ok {
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

func (p *phpExtractor) extractType(node *sitter.Node, source []byte) (model.ClassEntity, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		return model.ClassEntity{}, false
	}

	class := model.ClassEntity{Name: name, Kind: model.KindClass}
	switch node.Kind() {
	case "class_declaration":
		if hasChildOfType(node, "abstract_modifier") {
			class.Kind = model.KindAbstractClass
		}
	case "interface_declaration":
		class.Kind = model.KindInterface
	case "enum_declaration":
		class.Kind = model.KindEnum
	}

	class.BaseNames = append(class.BaseNames, p.clauseNames(findChildByType(node, "base_clause"), source)...)
	class.BaseNames = append(class.BaseNames, p.clauseNames(findChildByType(node, "class_interface_clause"), source)...)

	for _, member := range namedChildren(node.ChildByFieldName("body")) {
		switch member.Kind() {
		case "property_declaration":
			visibility := p.visibility(member, source)
			typeName := strings.TrimSpace(fieldText(member, "type", source))
			if typeName == "" {
				typeName = model.UnknownType
			}
			for _, element := range findChildrenByType(member, "property_element") {
				class.Fields = append(class.Fields, model.FieldEntity{
					Name:       p.variableName(findChildByType(element, "variable_name"), source),
					TypeName:   typeName,
					Visibility: visibility,
				})
			}
		case "const_declaration":
			visibility := p.visibility(member, source)
			for _, element := range findChildrenByType(member, "const_element") {
				if constName := findChildByType(element, "name"); constName != nil {
					class.Fields = append(class.Fields, model.FieldEntity{
						Name:       extractNodeText(constName, source),
						TypeName:   model.UnknownType,
						Visibility: visibility,
					})
				}
			}
		case "enum_case":
			class.Fields = append(class.Fields, model.FieldEntity{
				Name:       fieldText(member, "name", source),
				TypeName:   name,
				Visibility: model.VisibilityPublic,
			})
		case "method_declaration":
			class.Methods = append(class.Methods, model.MethodEntity{
				Name:           fieldText(member, "name", source),
				ParameterNames: p.parameterNames(member.ChildByFieldName("parameters"), source),
				ReturnTypeName: strings.TrimSpace(fieldText(member, "return_type", source)),
				Visibility:     p.visibility(member, source),
			})
		}
	}

	return class, true
}

// visibility reads a member's visibility modifier. PHP members default to public.
func (p *phpExtractor) visibility(member *sitter.Node, source []byte) model.Visibility {
	if modifier := findChildByType(member, "visibility_modifier"); modifier != nil {
		if v := model.ParseVisibility(strings.TrimSpace(extractNodeText(modifier, source))); v != model.VisibilityDefault {
			return v
		}
	}
	return model.VisibilityPublic
}

func (p *phpExtractor) parameterNames(params *sitter.Node, source []byte) []string {
	var names []string
	for _, param := range namedChildren(params) {
		switch param.Kind() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
			v := param.ChildByFieldName("name")
			if v == nil {
				v = findChildByType(param, "variable_name")
			}
			if v != nil {
				names = append(names, p.variableName(v, source))
			}
		}
	}
	return names
}

// variableName returns the identifier of a $variable without its sigil.
func (p *phpExtractor) variableName(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	if ident := findChildByType(node, "name"); ident != nil {
		return extractNodeText(ident, source)
	}
	return strings.TrimPrefix(extractNodeText(node, source), "$")
}

// clauseNames resolves the names listed in an extends or implements clause.
func (p *phpExtractor) clauseNames(clause *sitter.Node, source []byte) []string {
	var names []string
	for _, n := range namedChildren(clause) {
		names = append(names, p.resolveName(n, source))
	}
	return names
}

func (p *phpExtractor) resolveName(node *sitter.Node, source []byte) string {
	switch node.Kind() {
	case "name":
		return extractNodeText(node, source)
	case "qualified_name":
		parts := findChildrenByType(node, "name")
		if len(parts) > 0 {
			return extractNodeText(parts[len(parts)-1], source)
		}
		text := extractNodeText(node, source)
		if i := strings.LastIndex(text, `\`); i >= 0 {
			return text[i+1:]
		}
		return text
	}
	return model.UnknownBase
}
