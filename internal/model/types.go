package model

// Placeholder names used when a type or base cannot be resolved from source.
const (
	UnknownType = "Unknown"
	UnknownBase = "UnknownBase"

	// RootBase is the implicit universal base class. Edges to it are not drawn.
	RootBase = "object"
)

// Kind is the diagram keyword a class-like entity is rendered with.
type Kind string

const (
	KindClass         Kind = "class"
	KindAbstractClass Kind = "abstract class"
	KindInterface     Kind = "interface"
	KindEnum          Kind = "enum"
	KindStruct        Kind = "struct"
)

// Visibility is the access level of a member. Empty means the language default.
type Visibility string

const (
	VisibilityDefault   Visibility = ""
	VisibilityPublic    Visibility = "public"
	VisibilityPrivate   Visibility = "private"
	VisibilityProtected Visibility = "protected"
	VisibilityPackage   Visibility = "package"
)

// ClassEntity is a class-like declaration extracted from a single source file.
type ClassEntity struct {
	Name      string
	Kind      Kind     // Empty is treated as KindClass
	BaseNames []string // Declaration order; UnknownBase for unresolvable bases
	Fields    []FieldEntity
	Methods   []MethodEntity
}

// FieldEntity is a data member of a class.
type FieldEntity struct {
	Name       string
	TypeName   string // UnknownType when not statically declared
	Visibility Visibility
}

// MethodEntity is a function member of a class.
type MethodEntity struct {
	Name           string
	ParameterNames []string // Implicit receiver excluded
	ReturnTypeName string   // Empty when unspecified
	Visibility     Visibility
}

// EffectiveKind returns the entity kind, defaulting to KindClass.
func (c ClassEntity) EffectiveKind() Kind {
	if c.Kind == "" {
		return KindClass
	}
	return c.Kind
}

// ParseVisibility maps a source-level access modifier to a Visibility.
// Unrecognized modifiers map to VisibilityDefault.
func ParseVisibility(modifier string) Visibility {
	switch modifier {
	case "public", "pub":
		return VisibilityPublic
	case "private":
		return VisibilityPrivate
	case "protected":
		return VisibilityProtected
	case "internal", "package":
		return VisibilityPackage
	}
	return VisibilityDefault
}
