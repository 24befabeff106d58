package extractor

import (
	"bufio"
	"bytes"
	"context"
	"regexp"
	"strings"

	"github.com/mvp-joe/classmap/internal/model"
)

const (
	csVisibility = `(public|private|protected|internal)`
	csType       = `([\w.]+(?:<(?:[^<>]|<[^<>]*>)*>)?(?:\[\])*\??)`
	csGenericArg = `(?:<[^>]*>)?`
	csWhere      = `(?:\s*where\s+[^{;]*)?`
)

var (
	csDeclPattern = regexp.MustCompile(`^\s*(?:\[[^\]]*\]\s*)*` + csVisibility +
		`\s+((?:(?:abstract|sealed|static|partial|readonly|unsafe|new)\s+)*)` +
		`(class|interface|enum|struct|record)\s+(\w+)(?:<[^>{]*>)?(?:\s*\(([^)]*)\))?\s*(?::\s*([^{;]*))?`)

	csMethodPattern = regexp.MustCompile(`^\s*` + csVisibility +
		`\s+(?:(?:static|virtual|override|abstract|async|sealed|new|extern|unsafe|partial)\s+)*` +
		csType + `\s+(\w+)` + csGenericArg + `\s*\(([^)]*)\)` + csWhere + `\s*(?:\{|;|=>|$)`)

	csConstructorPattern = regexp.MustCompile(`^\s*` + csVisibility +
		`\s+(?:static\s+)?(\w+)\s*\(([^)]*)\)\s*(?::\s*(?:base|this)\s*\(.*\))?\s*(?:\{|=>|$)`)

	csInterfaceMethodPattern = regexp.MustCompile(`^\s*` + csType + `\s+(\w+)` + csGenericArg + `\s*\(([^)]*)\)` + csWhere + `\s*;`)

	csFieldPattern = regexp.MustCompile(`^\s*` + csVisibility +
		`\s+(?:(?:static|readonly|const|volatile|new|required)\s+)*` +
		csType + `\s+(\w+)\s*(?:=[^;]*)?;`)

	csPropertyPattern = regexp.MustCompile(`^\s*` + csVisibility +
		`\s+(?:(?:static|virtual|override|abstract|new|required|sealed)\s+)*` +
		csType + `\s+(\w+)\s*\{\s*(?:get|set|init)`)

	csEnumMemberPattern = regexp.MustCompile(`^\s*(\w+)\s*(?:=\s*[^,]+)?,?\s*$`)
)

// csharpExtractor is a line-oriented scanner for C#. There is no grammar
// behind it: declarations are recognised by pattern and entity extent is
// tracked by brace depth. Lines it does not recognise are ignored, so it
// never reports a ParseError.
type csharpExtractor struct{}

// NewCSharpExtractor creates a new C# extractor.
func NewCSharpExtractor() *csharpExtractor {
	return &csharpExtractor{}
}

func (e *csharpExtractor) Language() string     { return "csharp" }
func (e *csharpExtractor) Extensions() []string { return []string{".cs"} }

// csScanState is the accumulator threaded through the line fold.
// Only one entity is open at a time.
type csScanState struct {
	current *model.ClassEntity
	depth   int
	opened  bool // the entity's opening brace has been seen
	done    []model.ClassEntity
}

// Extract scans source line by line and returns the entities found.
func (e *csharpExtractor) Extract(ctx context.Context, path string, source []byte) ([]model.ClassEntity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var state csScanState
	scanner := bufio.NewScanner(bytes.NewReader(source))
	scanner.Buffer(make([]byte, 64*1024), len(source)+1)
	for scanner.Scan() {
		state = e.step(state, scanner.Text())
	}

	// An unterminated entity is still reported.
	if state.current != nil {
		state.done = append(state.done, *state.current)
	}
	return state.done, nil
}

// step folds one line into the scan state.
func (e *csharpExtractor) step(state csScanState, line string) csScanState {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "//") {
		return state
	}

	delta := strings.Count(line, "{") - strings.Count(line, "}")

	// A declaration still waiting for its brace gives way to the next one.
	if state.current != nil && !state.opened && csDeclPattern.MatchString(line) {
		state = e.emit(state)
	}

	if state.current == nil {
		m := csDeclPattern.FindStringSubmatch(line)
		if m == nil {
			return state
		}
		class := &model.ClassEntity{
			Name:      m[4],
			Kind:      csKind(m[3], m[2]),
			BaseNames: csBaseNames(m[6]),
		}
		if m[3] == "record" {
			class.Fields = csRecordFields(m[5])
		}
		state.current = class
		state.depth = delta

		brace := strings.Index(line, "{")
		if brace < 0 {
			// Positional records and other body-less declarations end at ';'.
			if strings.HasSuffix(trimmed, ";") {
				return e.emit(state)
			}
			return state
		}
		state.opened = true
		if class.Kind == model.KindEnum {
			csEnumMembers(class, line[brace+1:])
		}
		return e.closeIfDone(state)
	}

	state.depth += delta
	if strings.Contains(line, "{") {
		state.opened = true
	}
	e.matchMember(state.current, line, state.depth-delta)
	return e.closeIfDone(state)
}

func (e *csharpExtractor) closeIfDone(state csScanState) csScanState {
	if state.opened && state.depth <= 0 {
		return e.emit(state)
	}
	return state
}

func (e *csharpExtractor) emit(state csScanState) csScanState {
	state.done = append(state.done, *state.current)
	state.current = nil
	state.depth = 0
	state.opened = false
	return state
}

// matchMember tests line against the member patterns. The method pattern is
// tried first; a line it matches is never tested as a field.
func (e *csharpExtractor) matchMember(class *model.ClassEntity, line string, depthBefore int) {
	// Members live directly in the entity body; deeper lines are method bodies.
	if depthBefore > 1 {
		return
	}

	if m := csMethodPattern.FindStringSubmatch(line); m != nil {
		class.Methods = append(class.Methods, model.MethodEntity{
			Name:           m[3],
			ParameterNames: csParameterNames(m[4]),
			ReturnTypeName: m[2],
			Visibility:     model.ParseVisibility(m[1]),
		})
		return
	}
	if m := csConstructorPattern.FindStringSubmatch(line); m != nil && m[2] == class.Name {
		class.Methods = append(class.Methods, model.MethodEntity{
			Name:           m[2],
			ParameterNames: csParameterNames(m[3]),
			Visibility:     model.ParseVisibility(m[1]),
		})
		return
	}
	if class.Kind == model.KindInterface {
		if m := csInterfaceMethodPattern.FindStringSubmatch(line); m != nil {
			class.Methods = append(class.Methods, model.MethodEntity{
				Name:           m[2],
				ParameterNames: csParameterNames(m[3]),
				ReturnTypeName: m[1],
				Visibility:     model.VisibilityPublic,
			})
			return
		}
	}
	if m := csFieldPattern.FindStringSubmatch(line); m != nil {
		class.Fields = append(class.Fields, model.FieldEntity{
			Name:       m[3],
			TypeName:   m[2],
			Visibility: model.ParseVisibility(m[1]),
		})
		return
	}
	if m := csPropertyPattern.FindStringSubmatch(line); m != nil {
		class.Fields = append(class.Fields, model.FieldEntity{
			Name:       m[3],
			TypeName:   m[2],
			Visibility: model.ParseVisibility(m[1]),
		})
		return
	}
	if class.Kind == model.KindEnum {
		csEnumMembers(class, line)
	}
}

// csEnumMembers adds each comma-separated member in text, up to any closing
// brace, as a field typed by the enum.
func csEnumMembers(class *model.ClassEntity, text string) {
	if i := strings.Index(text, "}"); i >= 0 {
		text = text[:i]
	}
	for _, member := range strings.Split(text, ",") {
		if m := csEnumMemberPattern.FindStringSubmatch(member); m != nil {
			class.Fields = append(class.Fields, model.FieldEntity{
				Name:       m[1],
				TypeName:   class.Name,
				Visibility: model.VisibilityPublic,
			})
		}
	}
}

// csRecordFields turns a positional record's parameter list into public
// fields.
func csRecordFields(params string) []model.FieldEntity {
	if strings.TrimSpace(params) == "" {
		return nil
	}

	var fields []model.FieldEntity
	for _, param := range splitTopLevel(params) {
		if i := strings.Index(param, "="); i >= 0 {
			param = param[:i]
		}
		param = strings.TrimSpace(param)
		i := strings.LastIndexAny(param, " \t")
		if i < 0 {
			continue
		}
		fields = append(fields, model.FieldEntity{
			Name:       param[i+1:],
			TypeName:   strings.TrimSpace(param[:i]),
			Visibility: model.VisibilityPublic,
		})
	}
	return fields
}

func csKind(keyword, modifiers string) model.Kind {
	switch keyword {
	case "interface":
		return model.KindInterface
	case "enum":
		return model.KindEnum
	case "struct":
		return model.KindStruct
	}
	if strings.Contains(modifiers, "abstract") {
		return model.KindAbstractClass
	}
	return model.KindClass
}

// csBaseNames splits a base list on top-level commas, dropping generic
// arguments, namespaces and any where clause.
func csBaseNames(list string) []string {
	if i := strings.Index(list, " where "); i >= 0 {
		list = list[:i]
	}
	list = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(list), "{"))
	if list == "" {
		return nil
	}

	var names []string
	for _, part := range splitTopLevel(list) {
		name := strings.TrimSpace(part)
		if i := strings.IndexAny(name, "<("); i >= 0 {
			name = name[:i]
		}
		if i := strings.LastIndex(name, "."); i >= 0 {
			name = name[i+1:]
		}
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		names = append(names, name)
	}
	return names
}

// csParameterNames takes the last identifier of each parameter, ignoring
// default values.
func csParameterNames(params string) []string {
	if strings.TrimSpace(params) == "" {
		return nil
	}

	var names []string
	for _, param := range splitTopLevel(params) {
		if i := strings.Index(param, "="); i >= 0 {
			param = param[:i]
		}
		fields := strings.Fields(param)
		if len(fields) == 0 {
			continue
		}
		names = append(names, fields[len(fields)-1])
	}
	return names
}

// splitTopLevel splits s on commas that are not inside <>, () or [].
func splitTopLevel(s string) []string {
	var parts []string
	depth := 0
	start := 0
	for i, r := range s {
		switch r {
		case '<', '(', '[':
			depth++
		case '>', ')', ']':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, s[start:i])
				start = i + 1
			}
		}
	}
	return append(parts, s[start:])
}
