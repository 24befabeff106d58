package extractor

import (
	"context"
	"strconv"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"

	"github.com/mvp-joe/classmap/internal/model"
)

// rustExtractor extracts structs, enums and traits from Rust files. Methods in
// impl blocks are attached to the implementing type.
type rustExtractor struct {
	*treeSitterExtractor
}

// NewRustExtractor creates a new Rust extractor.
func NewRustExtractor() *rustExtractor {
	lang := sitter.NewLanguage(rust.Language())
	return &rustExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "rust", ".rs"),
	}
}

// Extract returns one entity per named type, in order of first appearance.
func (p *rustExtractor) Extract(ctx context.Context, path string, source []byte) ([]model.ClassEntity, error) {
	set := newEntitySet()

	err := p.withTree(ctx, path, source, func(root *sitter.Node) {
		walkTree(root, func(n *sitter.Node) bool {
			switch n.Kind() {
			case "struct_item":
				p.extractStruct(set, n, source)
			case "enum_item":
				p.extractEnum(set, n, source)
			case "trait_item":
				p.extractTrait(set, n, source)
			case "impl_item":
				p.extractImpl(set, n, source)
			}
			return true
		})
	})
	if err != nil {
		return nil, err
	}

	return set.list(), nil
}

func (p *rustExtractor) extractStruct(set *entitySet, node *sitter.Node, source []byte) {
	name := fieldText(node, "name", source)
	if name == "" {
		return
	}
	class := set.ensure(name, model.KindStruct)

	body := node.ChildByFieldName("body")
	if body == nil {
		return
	}
	switch body.Kind() {
	case "field_declaration_list":
		for _, field := range findChildrenByType(body, "field_declaration") {
			class.Fields = append(class.Fields, model.FieldEntity{
				Name:       fieldText(field, "name", source),
				TypeName:   fieldText(field, "type", source),
				Visibility: p.visibility(field, source),
			})
		}
	case "ordered_field_declaration_list":
		// Tuple struct fields are named by position.
		idx := 0
		visibility := model.VisibilityPrivate
		for _, child := range namedChildren(body) {
			switch child.Kind() {
			case "attribute_item":
				continue
			case "visibility_modifier":
				visibility = p.modifierVisibility(child, source)
				continue
			}
			class.Fields = append(class.Fields, model.FieldEntity{
				Name:       strconv.Itoa(idx),
				TypeName:   extractNodeText(child, source),
				Visibility: visibility,
			})
			visibility = model.VisibilityPrivate
			idx++
		}
	}
}

func (p *rustExtractor) extractEnum(set *entitySet, node *sitter.Node, source []byte) {
	name := fieldText(node, "name", source)
	if name == "" {
		return
	}
	class := set.ensure(name, model.KindEnum)
	class.Kind = model.KindEnum

	for _, variant := range findChildrenByType(node.ChildByFieldName("body"), "enum_variant") {
		class.Fields = append(class.Fields, model.FieldEntity{
			Name:       fieldText(variant, "name", source),
			TypeName:   name,
			Visibility: model.VisibilityPublic,
		})
	}
}

func (p *rustExtractor) extractTrait(set *entitySet, node *sitter.Node, source []byte) {
	name := fieldText(node, "name", source)
	if name == "" {
		return
	}
	class := set.ensure(name, model.KindInterface)
	class.Kind = model.KindInterface

	for _, bound := range namedChildren(node.ChildByFieldName("bounds")) {
		if bound.Kind() == "lifetime" {
			continue
		}
		if base := p.resolveType(bound, source); base != "" {
			class.BaseNames = appendUnique(class.BaseNames, base)
		}
	}

	for _, item := range namedChildren(node.ChildByFieldName("body")) {
		switch item.Kind() {
		case "function_signature_item", "function_item":
			class.Methods = append(class.Methods, p.method(item, source, model.VisibilityPublic))
		}
	}
}

// extractImpl attaches impl block methods to the implementing type. A trait
// impl also records the trait as a base.
func (p *rustExtractor) extractImpl(set *entitySet, node *sitter.Node, source []byte) {
	name := p.resolveType(node.ChildByFieldName("type"), source)
	if name == "" || name == model.UnknownBase {
		return
	}
	class := set.ensure(name, model.KindStruct)

	isTraitImpl := false
	if trait := node.ChildByFieldName("trait"); trait != nil {
		isTraitImpl = true
		class.BaseNames = appendUnique(class.BaseNames, p.resolveType(trait, source))
	}

	for _, item := range findChildrenByType(node.ChildByFieldName("body"), "function_item") {
		visibility := p.visibility(item, source)
		if isTraitImpl {
			visibility = model.VisibilityPublic
		}
		class.Methods = append(class.Methods, p.method(item, source, visibility))
	}
}

func (p *rustExtractor) method(node *sitter.Node, source []byte, visibility model.Visibility) model.MethodEntity {
	var params []string
	for _, param := range namedChildren(node.ChildByFieldName("parameters")) {
		if param.Kind() == "parameter" {
			params = append(params, fieldText(param, "pattern", source))
		}
	}

	return model.MethodEntity{
		Name:           fieldText(node, "name", source),
		ParameterNames: params,
		ReturnTypeName: fieldText(node, "return_type", source),
		Visibility:     visibility,
	}
}

// visibility maps pub to public, pub(crate) and friends to package, and the
// default to private.
func (p *rustExtractor) visibility(node *sitter.Node, source []byte) model.Visibility {
	return p.modifierVisibility(findChildByType(node, "visibility_modifier"), source)
}

func (p *rustExtractor) modifierVisibility(modifier *sitter.Node, source []byte) model.Visibility {
	if modifier == nil {
		return model.VisibilityPrivate
	}
	if strings.TrimSpace(extractNodeText(modifier, source)) == "pub" {
		return model.VisibilityPublic
	}
	return model.VisibilityPackage
}

// resolveType reduces a type path to its final identifier.
func (p *rustExtractor) resolveType(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	switch node.Kind() {
	case "type_identifier", "identifier":
		return extractNodeText(node, source)
	case "scoped_type_identifier", "scoped_identifier":
		if name := node.ChildByFieldName("name"); name != nil {
			return extractNodeText(name, source)
		}
	case "generic_type":
		return p.resolveType(node.ChildByFieldName("type"), source)
	case "reference_type":
		return p.resolveType(node.ChildByFieldName("type"), source)
	}
	return model.UnknownBase
}
