package extractor

import (
	"context"
	"strings"

	sitter "github.com/tree-sitter/go-tree-sitter"
	python "github.com/tree-sitter/tree-sitter-python/bindings/go"

	"github.com/mvp-joe/classmap/internal/model"
)

// pythonExtractor extracts classes from Python files.
type pythonExtractor struct {
	*treeSitterExtractor
}

// NewPythonExtractor creates a new Python extractor.
func NewPythonExtractor() *pythonExtractor {
	lang := sitter.NewLanguage(python.Language())
	return &pythonExtractor{
		treeSitterExtractor: newTreeSitterExtractor(lang, "python", ".py", ".pyi"),
	}
}

// Extract returns every class in the file, nested classes included, in document order.
func (p *pythonExtractor) Extract(ctx context.Context, path string, source []byte) ([]model.ClassEntity, error) {
	var classes []model.ClassEntity

	err := p.withTree(ctx, path, source, func(root *sitter.Node) {
		walkTree(root, func(n *sitter.Node) bool {
			if n.Kind() == "class_definition" {
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

// ExtractFunctions returns the functions defined at module level, decorated
// ones included, in document order.
func (p *pythonExtractor) ExtractFunctions(ctx context.Context, path string, source []byte) ([]model.MethodEntity, error) {
	var functions []model.MethodEntity

	err := p.withTree(ctx, path, source, func(root *sitter.Node) {
		for _, stmt := range namedChildren(root) {
			def := stmt
			if stmt.Kind() == "decorated_definition" {
				def = stmt.ChildByFieldName("definition")
			}
			if def != nil && def.Kind() == "function_definition" {
				functions = append(functions, p.extractFunction(def, source))
			}
		}
	})
	if err != nil {
		return nil, err
	}

	return functions, nil
}

// extractClass extracts a class definition.
func (p *pythonExtractor) extractClass(node *sitter.Node, source []byte) (model.ClassEntity, bool) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		return model.ClassEntity{}, false
	}

	class := model.ClassEntity{
		Name:      extractNodeText(nameNode, source),
		BaseNames: p.extractBases(node.ChildByFieldName("superclasses"), source),
	}

	body := node.ChildByFieldName("body")
	for _, stmt := range namedChildren(body) {
		switch stmt.Kind() {
		case "expression_statement":
			for _, expr := range namedChildren(stmt) {
				if expr.Kind() == "assignment" {
					class.Fields = append(class.Fields, p.assignmentFields(expr, source)...)
				}
			}
		case "function_definition":
			class.Methods = append(class.Methods, p.extractMethod(stmt, source))
		case "decorated_definition":
			if def := stmt.ChildByFieldName("definition"); def != nil && def.Kind() == "function_definition" {
				class.Methods = append(class.Methods, p.extractMethod(def, source))
			}
		}
	}

	return class, true
}

// extractBases resolves the superclass argument list to simple names.
// Keyword arguments such as metaclass= are not bases.
func (p *pythonExtractor) extractBases(args *sitter.Node, source []byte) []string {
	var bases []string
	for _, arg := range namedChildren(args) {
		switch arg.Kind() {
		case "identifier":
			bases = append(bases, extractNodeText(arg, source))
		case "attribute":
			bases = append(bases, fieldText(arg, "attribute", source))
		case "keyword_argument", "dictionary_splat", "comment":
			continue
		default:
			bases = append(bases, model.UnknownBase)
		}
	}
	return bases
}

// assignmentFields returns one field per simple name target of a (possibly
// chained) assignment. Annotated targets keep their annotation as type.
func (p *pythonExtractor) assignmentFields(node *sitter.Node, source []byte) []model.FieldEntity {
	var fields []model.FieldEntity

	for cur := node; cur != nil && cur.Kind() == "assignment"; cur = cur.ChildByFieldName("right") {
		left := cur.ChildByFieldName("left")
		if left == nil || left.Kind() != "identifier" {
			continue
		}

		typeName := model.UnknownType
		if annotation := strings.TrimSpace(fieldText(cur, "type", source)); annotation != "" {
			typeName = annotation
		}

		fields = append(fields, model.FieldEntity{
			Name:     extractNodeText(left, source),
			TypeName: typeName,
		})
	}

	return fields
}

// extractMethod extracts a method from a class body.
func (p *pythonExtractor) extractMethod(node *sitter.Node, source []byte) model.MethodEntity {
	method := p.extractFunction(node, source)
	method.ParameterNames = stripReceiver(method.ParameterNames, "self", "cls")
	return method
}

// extractFunction extracts a function definition with all its parameters.
func (p *pythonExtractor) extractFunction(node *sitter.Node, source []byte) model.MethodEntity {
	method := model.MethodEntity{
		Name:           fieldText(node, "name", source),
		ParameterNames: p.parameterNames(node.ChildByFieldName("parameters"), source),
	}

	if returnNode := node.ChildByFieldName("return_type"); returnNode != nil {
		method.ReturnTypeName = strings.TrimSpace(extractNodeText(returnNode, source))
		if method.ReturnTypeName == "" {
			method.ReturnTypeName = model.UnknownType
		}
	}

	return method
}

// parameterNames lists parameter names in order. Splat parameters keep their
// star prefix; bare * and / separators are dropped.
func (p *pythonExtractor) parameterNames(params *sitter.Node, source []byte) []string {
	var names []string
	for _, param := range namedChildren(params) {
		switch param.Kind() {
		case "identifier", "list_splat_pattern", "dictionary_splat_pattern":
			names = append(names, extractNodeText(param, source))
		case "typed_parameter":
			if first := param.NamedChild(0); first != nil {
				names = append(names, extractNodeText(first, source))
			}
		case "default_parameter", "typed_default_parameter":
			names = append(names, fieldText(param, "name", source))
		}
	}
	return names
}
