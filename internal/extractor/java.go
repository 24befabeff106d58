package extractor

import (
	"context"

	sitter "github.com/tree-sitter/go-tree-sitter"
	java "github.com/tree-sitter/tree-sitter-java/bindings/go"

	"github.com/mvp-joe/classmap/internal/model"
)

// javaExtractor extracts classes, interfaces, enums and records from Java files.
type javaExtractor struct {
	*treeSitterExtractor
}

// NewJavaExtractor creates a new Java extractor.
func NewJavaExtractor() *javaExtractor {
	lang := sitter.NewLanguage(java.Language())
	return &javaExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "java", ".java"),
	}
}

// Extract returns every type declaration in the file, nested ones included.
func (p *javaExtractor) Extract(ctx context.Context, path string, source []byte) ([]model.ClassEntity, error) {
	var classes []model.ClassEntity

	err := p.withTree(ctx, path, source, func(root *sitter.Node) {
		walkTree(root, func(n *sitter.Node) bool {
			switch n.Kind() {
			case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
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

// extractType extracts any of the supported type declarations.
func (p *javaExtractor) extractType(node *sitter.Node, source []byte) (model.ClassEntity, bool) {
	name := fieldText(node, "name", source)
	if name == "" {
		return model.ClassEntity{}, false
	}

	modifiers := findChildByType(node, "modifiers")
	class := model.ClassEntity{Name: name, Kind: model.KindClass}

	switch node.Kind() {
	case "class_declaration":
		if hasChildOfType(modifiers, "abstract") {
			class.Kind = model.KindAbstractClass
		}
		if superclass := findChildByType(node, "superclass"); superclass != nil {
			for _, t := range namedChildren(superclass) {
				class.BaseNames = append(class.BaseNames, p.resolveType(t, source))
			}
		}
		class.BaseNames = append(class.BaseNames, p.typeListNames(findChildByType(node, "super_interfaces"), source)...)
	case "interface_declaration":
		class.Kind = model.KindInterface
		class.BaseNames = p.typeListNames(findChildByType(node, "extends_interfaces"), source)
	case "enum_declaration":
		class.Kind = model.KindEnum
		class.BaseNames = p.typeListNames(findChildByType(node, "super_interfaces"), source)
	case "record_declaration":
		class.BaseNames = p.typeListNames(findChildByType(node, "super_interfaces"), source)
		for _, param := range findChildrenByType(findChildByType(node, "formal_parameters"), "formal_parameter") {
			class.Fields = append(class.Fields, model.FieldEntity{
				Name:       fieldText(param, "name", source),
				TypeName:   fieldText(param, "type", source),
				Visibility: model.VisibilityPrivate,
			})
		}
	}

	body := node.ChildByFieldName("body")
	isInterface := node.Kind() == "interface_declaration"
	for _, member := range namedChildren(body) {
		switch member.Kind() {
		case "enum_constant":
			class.Fields = append(class.Fields, model.FieldEntity{
				Name:       fieldText(member, "name", source),
				TypeName:   name,
				Visibility: model.VisibilityPublic,
			})
		case "enum_body_declarations":
			for _, decl := range namedChildren(member) {
				p.addMember(&class, decl, source, false)
			}
		default:
			p.addMember(&class, member, source, isInterface)
		}
	}

	return class, true
}

// addMember adds a field, method or constructor declaration to class.
// Interface members without modifiers are public.
func (p *javaExtractor) addMember(class *model.ClassEntity, node *sitter.Node, source []byte, inInterface bool) {
	visibility := modifierVisibility(findChildByType(node, "modifiers"))
	if visibility == model.VisibilityDefault {
		if inInterface {
			visibility = model.VisibilityPublic
		} else {
			visibility = model.VisibilityPackage
		}
	}

	switch node.Kind() {
	case "field_declaration", "constant_declaration":
		typeName := fieldText(node, "type", source)
		for _, declarator := range findChildrenByType(node, "variable_declarator") {
			class.Fields = append(class.Fields, model.FieldEntity{
				Name:       fieldText(declarator, "name", source),
				TypeName:   typeName,
				Visibility: visibility,
			})
		}
	case "method_declaration":
		class.Methods = append(class.Methods, model.MethodEntity{
			Name:           fieldText(node, "name", source),
			ParameterNames: p.parameterNames(node.ChildByFieldName("parameters"), source),
			ReturnTypeName: fieldText(node, "type", source),
			Visibility:     visibility,
		})
	case "constructor_declaration":
		class.Methods = append(class.Methods, model.MethodEntity{
			Name:           fieldText(node, "name", source),
			ParameterNames: p.parameterNames(node.ChildByFieldName("parameters"), source),
			Visibility:     visibility,
		})
	}
}

// parameterNames lists formal parameter names. An explicit receiver
// parameter (Foo this) is skipped.
func (p *javaExtractor) parameterNames(params *sitter.Node, source []byte) []string {
	var names []string
	for _, param := range namedChildren(params) {
		switch param.Kind() {
		case "formal_parameter":
			names = append(names, fieldText(param, "name", source))
		case "spread_parameter":
			if declarator := findChildByType(param, "variable_declarator"); declarator != nil {
				names = append(names, fieldText(declarator, "name", source))
			}
		}
	}
	return names
}

// typeListNames resolves the types of an extends/implements clause.
func (p *javaExtractor) typeListNames(clause *sitter.Node, source []byte) []string {
	if clause == nil {
		return nil
	}

	list := findChildByType(clause, "type_list")
	if list == nil {
		list = clause
	}

	var names []string
	for _, t := range namedChildren(list) {
		names = append(names, p.resolveType(t, source))
	}
	return names
}

// resolveType reduces a type reference to its simple name.
func (p *javaExtractor) resolveType(node *sitter.Node, source []byte) string {
	switch node.Kind() {
	case "type_identifier", "identifier":
		return extractNodeText(node, source)
	case "scoped_type_identifier":
		children := namedChildren(node)
		if len(children) > 0 {
			return p.resolveType(children[len(children)-1], source)
		}
	case "generic_type":
		if first := node.NamedChild(0); first != nil {
			return p.resolveType(first, source)
		}
	}
	return model.UnknownBase
}
