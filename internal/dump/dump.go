// Package dump writes a tree's sources as one concatenated text file and a
// companion declarations outline built from the extracted class model.
package dump

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/mvp-joe/classmap/internal/model"
	"github.com/mvp-joe/classmap/internal/pipeline"
)

// Separator ends every file section.
var Separator = strings.Repeat("=", 80)

// Header starts every file section.
func Header(path string) string {
	return fmt.Sprintf("# File: %s\n", path)
}

// WriteSources writes each non-blank file as a header, its content and the
// separator. Returns the number of files written.
func WriteSources(w io.Writer, files []pipeline.SourceFile) (int, error) {
	written := 0
	for _, file := range files {
		if len(bytes.TrimSpace(file.Content)) == 0 {
			continue
		}
		if err := writeSection(w, file.Path, string(file.Content)); err != nil {
			return written, err
		}
		written++
	}
	return written, nil
}

// WriteDeclarations writes one outline section per extracted file.
// functions holds module-level functions by path, where known.
func WriteDeclarations(w io.Writer, results []pipeline.FileResult, functions map[string][]model.MethodEntity) error {
	for _, result := range results {
		if err := writeSection(w, result.Path, FormatDeclarations(result.Classes, functions[result.Path])); err != nil {
			return err
		}
	}
	return nil
}

func writeSection(w io.Writer, path, body string) error {
	_, err := fmt.Fprintf(w, "%s%s\n\n%s\n\n", Header(path), body, Separator)
	return err
}

// FormatDeclarations renders classes, then module-level functions, as a
// signature-only outline:
//
//	class Dog(Animal)
//	  name: str
//	  bark(times) -> str
//
//	def adopt(dog) -> Dog
//	  pass
func FormatDeclarations(classes []model.ClassEntity, functions []model.MethodEntity) string {
	var sb strings.Builder

	for i, class := range classes {
		if i > 0 {
			sb.WriteString("\n")
		}

		sb.WriteString(fmt.Sprintf("%s %s", class.EffectiveKind(), class.Name))
		if len(class.BaseNames) > 0 {
			sb.WriteString("(" + strings.Join(class.BaseNames, ", ") + ")")
		}
		sb.WriteString("\n")

		if len(class.Fields) == 0 && len(class.Methods) == 0 {
			sb.WriteString("  pass\n")
			continue
		}

		for _, field := range class.Fields {
			sb.WriteString(fmt.Sprintf("  %s%s: %s\n", visibilityPrefix(field.Visibility), field.Name, typeOrUnknown(field.TypeName)))
		}
		for _, method := range class.Methods {
			line := fmt.Sprintf("  %s%s(%s)", visibilityPrefix(method.Visibility), method.Name, strings.Join(method.ParameterNames, ", "))
			if method.ReturnTypeName != "" {
				line += " -> " + method.ReturnTypeName
			}
			sb.WriteString(line + "\n")
		}
	}

	for i, fn := range functions {
		if i > 0 || len(classes) > 0 {
			sb.WriteString("\n")
		}
		sb.WriteString(fmt.Sprintf("def %s(%s)", fn.Name, strings.Join(fn.ParameterNames, ", ")))
		if fn.ReturnTypeName != "" {
			sb.WriteString(" -> " + fn.ReturnTypeName)
		}
		sb.WriteString("\n  pass\n")
	}

	return strings.TrimSuffix(sb.String(), "\n")
}

func visibilityPrefix(v model.Visibility) string {
	if v == model.VisibilityDefault {
		return ""
	}
	return string(v) + " "
}

func typeOrUnknown(name string) string {
	if name == "" {
		return model.UnknownType
	}
	return name
}
