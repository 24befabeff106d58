package diagram

import (
	"fmt"
	"strings"

	"github.com/mvp-joe/classmap/internal/model"
)

// Document markers.
const (
	StartMarker = "@startuml"
	EndMarker   = "@enduml"
)

// Render converts class entities into a PlantUML class diagram.
// Class blocks come first in input order, followed by one inheritance edge
// per (base, derived) pair. The output depends only on its input.
func Render(classes []model.ClassEntity) string {
	var sb strings.Builder

	sb.WriteString(StartMarker)
	sb.WriteString("\n")

	for _, class := range classes {
		writeClass(&sb, class)
	}

	for _, class := range classes {
		for _, base := range class.BaseNames {
			if base == "" || base == model.RootBase {
				continue
			}
			sb.WriteString(fmt.Sprintf("%s <|-- %s\n", base, class.Name))
		}
	}

	sb.WriteString(EndMarker)
	sb.WriteString("\n")

	return sb.String()
}

// writeClass writes a single class block.
func writeClass(sb *strings.Builder, class model.ClassEntity) {
	sb.WriteString(fmt.Sprintf("%s %s {\n", class.EffectiveKind(), class.Name))

	for _, field := range class.Fields {
		typeName := field.TypeName
		if typeName == "" {
			typeName = model.UnknownType
		}
		sb.WriteString(fmt.Sprintf("  %s %s : %s\n", fieldMark(field.Visibility), field.Name, typeName))
	}

	for _, method := range class.Methods {
		line := fmt.Sprintf("  %s %s(%s)", methodMark(method.Visibility), method.Name, strings.Join(method.ParameterNames, ", "))
		if method.ReturnTypeName != "" {
			line += " : " + method.ReturnTypeName
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString("}\n")
}

// fieldMark returns the visibility mark for a field. Fields default to private.
func fieldMark(v model.Visibility) string {
	if v == model.VisibilityDefault {
		return "-"
	}
	return visibilityMark(v)
}

// methodMark returns the visibility mark for a method. Methods default to public.
func methodMark(v model.Visibility) string {
	if v == model.VisibilityDefault {
		return "+"
	}
	return visibilityMark(v)
}

func visibilityMark(v model.Visibility) string {
	switch v {
	case model.VisibilityPrivate:
		return "-"
	case model.VisibilityProtected:
		return "#"
	case model.VisibilityPackage:
		return "~"
	default:
		return "+"
	}
}

// StripMarkers returns the body of a document: the text between the start and
// end markers, with surrounding whitespace removed.
func StripMarkers(doc string) string {
	body := strings.TrimSpace(doc)
	body = strings.TrimPrefix(body, StartMarker)
	body = strings.TrimSuffix(body, EndMarker)
	return strings.TrimSpace(body)
}
