package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/mvp-joe/classmap/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for CExtractor:
// - Named structs and typedef'd anonymous structs are extracted; forward declarations are not
// - Multiple declarators per field line become separate fields
// - Pointer and array declarators decorate the type
// - Function pointer members become methods with parameter names
// - Unions are treated like structs
// - Syntax errors return *ParseError

const cSource = `
#include <stddef.h>

struct node;

struct list {
    struct node *head;
    size_t len, cap;
    char name[32];
    int (*compare)(const void *a, const void *b);
};

typedef struct {
    double x;
    double y;
} Point;

union value {
    int i;
    float f;
};
`

func TestCExtractor_Structure(t *testing.T) {
	t.Parallel()

	classes, err := NewCExtractor().Extract(context.Background(), "list.h", []byte(cSource))
	require.NoError(t, err)

	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"list", "Point", "value"}, names)

	list := classes[0]
	assert.Equal(t, model.KindStruct, list.Kind)
	assert.Equal(t, []model.FieldEntity{
		{Name: "head", TypeName: "struct node*", Visibility: model.VisibilityPublic},
		{Name: "len", TypeName: "size_t", Visibility: model.VisibilityPublic},
		{Name: "cap", TypeName: "size_t", Visibility: model.VisibilityPublic},
		{Name: "name", TypeName: "char[]", Visibility: model.VisibilityPublic},
	}, list.Fields)
	require.Len(t, list.Methods, 1)
	assert.Equal(t, model.MethodEntity{
		Name:           "compare",
		ParameterNames: []string{"a", "b"},
		ReturnTypeName: "int",
		Visibility:     model.VisibilityPublic,
	}, list.Methods[0])

	point := classes[1]
	require.Len(t, point.Fields, 2)
	assert.Equal(t, "x", point.Fields[0].Name)
	assert.Equal(t, "double", point.Fields[0].TypeName)

	assert.Len(t, classes[2].Fields, 2)
}

func TestCExtractor_ParseError(t *testing.T) {
	t.Parallel()

	_, err := NewCExtractor().Extract(context.Background(), "bad.c", []byte("struct bad { int x "))
	require.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}
