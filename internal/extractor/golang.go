package extractor

import (
	"context"
	"errors"
	"go/ast"
	"go/parser"
	"go/scanner"
	"go/token"
	"go/types"
	"strings"

	"github.com/mvp-joe/classmap/internal/model"
)

// goExtractor extracts struct and interface types from Go files using go/ast.
// Methods declared on a receiver are attached to the receiver's type.
type goExtractor struct{}

// NewGoExtractor creates a new Go extractor.
func NewGoExtractor() *goExtractor {
	return &goExtractor{}
}

func (e *goExtractor) Language() string     { return "go" }
func (e *goExtractor) Extensions() []string { return []string{".go"} }

// Extract returns struct and interface types in declaration order.
func (e *goExtractor) Extract(ctx context.Context, path string, source []byte) ([]model.ClassEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if isBlank(source) {
		return nil, nil
	}

	fset := token.NewFileSet()
	file, err := parser.ParseFile(fset, path, source, parser.SkipObjectResolution)
	if err != nil {
		return nil, goParseError(path, err)
	}

	set := newEntitySet()
	var methods []*ast.FuncDecl

	ast.Inspect(file, func(n ast.Node) bool {
		switch decl := n.(type) {
		case *ast.TypeSpec:
			e.processTypeSpec(set, decl)
		case *ast.FuncDecl:
			if decl.Recv != nil && len(decl.Recv.List) > 0 {
				methods = append(methods, decl)
			}
			return false
		}
		return true
	})

	// Methods attach only to types declared in this file.
	for _, decl := range methods {
		recv := receiverTypeName(decl.Recv.List[0].Type)
		class, ok := set.byName[recv]
		if !ok {
			continue
		}
		class.Methods = append(class.Methods, model.MethodEntity{
			Name:           decl.Name.Name,
			ParameterNames: fieldListNames(decl.Type.Params),
			ReturnTypeName: resultText(decl.Type.Results),
			Visibility:     goVisibility(decl.Name.Name),
		})
	}

	return set.list(), nil
}

func (e *goExtractor) processTypeSpec(set *entitySet, spec *ast.TypeSpec) {
	switch t := spec.Type.(type) {
	case *ast.StructType:
		class := set.ensure(spec.Name.Name, model.KindStruct)
		for _, field := range t.Fields.List {
			typeName := types.ExprString(field.Type)
			if len(field.Names) == 0 {
				// Embedded fields are the closest Go has to a base type.
				class.BaseNames = append(class.BaseNames, receiverTypeName(field.Type))
				continue
			}
			for _, name := range field.Names {
				class.Fields = append(class.Fields, model.FieldEntity{
					Name:       name.Name,
					TypeName:   typeName,
					Visibility: goVisibility(name.Name),
				})
			}
		}
	case *ast.InterfaceType:
		class := set.ensure(spec.Name.Name, model.KindInterface)
		for _, field := range t.Methods.List {
			fn, isMethod := field.Type.(*ast.FuncType)
			if !isMethod || len(field.Names) == 0 {
				// Embedded interface; union constraints have no single base.
				if base := receiverTypeName(field.Type); base != model.UnknownBase {
					class.BaseNames = append(class.BaseNames, base)
				}
				continue
			}
			for _, name := range field.Names {
				class.Methods = append(class.Methods, model.MethodEntity{
					Name:           name.Name,
					ParameterNames: fieldListNames(fn.Params),
					ReturnTypeName: resultText(fn.Results),
					Visibility:     goVisibility(name.Name),
				})
			}
		}
	}
}

// receiverTypeName strips pointers, generics and package qualifiers.
func receiverTypeName(expr ast.Expr) string {
	switch t := expr.(type) {
	case *ast.Ident:
		return t.Name
	case *ast.StarExpr:
		return receiverTypeName(t.X)
	case *ast.IndexExpr:
		return receiverTypeName(t.X)
	case *ast.IndexListExpr:
		return receiverTypeName(t.X)
	case *ast.SelectorExpr:
		return t.Sel.Name
	case *ast.ParenExpr:
		return receiverTypeName(t.X)
	}
	return model.UnknownBase
}

// fieldListNames lists parameter names; unnamed parameters are listed by type.
func fieldListNames(list *ast.FieldList) []string {
	if list == nil {
		return nil
	}
	var names []string
	for _, field := range list.List {
		if len(field.Names) == 0 {
			names = append(names, types.ExprString(field.Type))
			continue
		}
		for _, name := range field.Names {
			names = append(names, name.Name)
		}
	}
	return names
}

// resultText renders a result list the way it is written in source.
func resultText(results *ast.FieldList) string {
	if results == nil || len(results.List) == 0 {
		return ""
	}
	if len(results.List) == 1 && len(results.List[0].Names) == 0 {
		return types.ExprString(results.List[0].Type)
	}

	parts := make([]string, 0, len(results.List))
	for _, field := range results.List {
		typeName := types.ExprString(field.Type)
		if len(field.Names) == 0 {
			parts = append(parts, typeName)
			continue
		}
		for _, name := range field.Names {
			parts = append(parts, name.Name+" "+typeName)
		}
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

func goVisibility(name string) model.Visibility {
	if token.IsExported(name) {
		return model.VisibilityPublic
	}
	return model.VisibilityPrivate
}

// goParseError converts a go/parser error into a *ParseError at its first position.
func goParseError(path string, err error) *ParseError {
	var list scanner.ErrorList
	if errors.As(err, &list) && len(list) > 0 {
		return &ParseError{
			Path:    path,
			Line:    list[0].Pos.Line,
			Column:  list[0].Pos.Column,
			Message: list[0].Msg,
		}
	}
	return &ParseError{Path: path, Message: err.Error()}
}
