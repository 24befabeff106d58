package extractor

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/mvp-joe/classmap/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for PythonExtractor:
// - Dog scenario: base, field typed Unknown, method with receiver stripped and return type
// - Attribute bases resolve to their trailing component
// - Non-name bases resolve to UnknownBase; keyword arguments are ignored
// - Nested classes are extracted after their enclosing class
// - Field and method order follows declaration order
// - Chained and annotated assignments; tuple targets ignored
// - cls receiver stripped; splat parameters kept; separators dropped
// - Decorated and async methods are extracted
// - Syntax errors return *ParseError with path and position
// - Empty and whitespace-only files yield no classes
// - Testdata file with several classes parses without error
// - ExtractFunctions lists module-level functions only, receivers kept

func TestPythonExtractor_DogScenario(t *testing.T) {
	t.Parallel()

	source := "class Dog(Animal):\n    legs = 4\n    def bark(self, volume) -> str:\n        return \"woof\""

	classes, err := NewPythonExtractor().Extract(context.Background(), "a.py", []byte(source))
	require.NoError(t, err)
	require.Len(t, classes, 1)

	dog := classes[0]
	assert.Equal(t, "Dog", dog.Name)
	assert.Equal(t, []string{"Animal"}, dog.BaseNames)
	assert.Equal(t, []model.FieldEntity{{Name: "legs", TypeName: "Unknown"}}, dog.Fields)
	require.Len(t, dog.Methods, 1)
	assert.Equal(t, "bark", dog.Methods[0].Name)
	assert.Equal(t, []string{"volume"}, dog.Methods[0].ParameterNames)
	assert.Equal(t, "str", dog.Methods[0].ReturnTypeName)
}

func TestPythonExtractor_Bases(t *testing.T) {
	t.Parallel()

	source := `
class A(models.Model, Base):
    pass

class B(Generic[T], metaclass=ABCMeta):
    pass

class C(make_base()):
    pass

class D:
    pass
`
	classes, err := NewPythonExtractor().Extract(context.Background(), "bases.py", []byte(source))
	require.NoError(t, err)
	require.Len(t, classes, 4)

	assert.Equal(t, []string{"Model", "Base"}, classes[0].BaseNames)
	assert.Equal(t, []string{model.UnknownBase}, classes[1].BaseNames)
	assert.Equal(t, []string{model.UnknownBase}, classes[2].BaseNames)
	assert.Empty(t, classes[3].BaseNames)
}

func TestPythonExtractor_NestedClassesAndOrder(t *testing.T) {
	t.Parallel()

	source := `
class Outer:
    first = 1
    second: int = 2
    a = b = 3
    x, y = 4, 5

    class Inner(Outer):
        def ping(self):
            pass

    def one(self):
        pass

    def two(self, a, b):
        pass

def factory():
    class Local:
        pass
    return Local
`
	classes, err := NewPythonExtractor().Extract(context.Background(), "nested.py", []byte(source))
	require.NoError(t, err)
	require.Len(t, classes, 3)

	assert.Equal(t, "Outer", classes[0].Name)
	assert.Equal(t, "Inner", classes[1].Name)
	assert.Equal(t, "Local", classes[2].Name)

	outer := classes[0]
	assert.Equal(t, []model.FieldEntity{
		{Name: "first", TypeName: "Unknown"},
		{Name: "second", TypeName: "int"},
		{Name: "a", TypeName: "Unknown"},
		{Name: "b", TypeName: "Unknown"},
	}, outer.Fields)

	require.Len(t, outer.Methods, 2)
	assert.Equal(t, "one", outer.Methods[0].Name)
	assert.Empty(t, outer.Methods[0].ParameterNames)
	assert.Equal(t, "two", outer.Methods[1].Name)
	assert.Equal(t, []string{"a", "b"}, outer.Methods[1].ParameterNames)
	assert.Empty(t, outer.Methods[1].ReturnTypeName)

	assert.Equal(t, []string{"Outer"}, classes[1].BaseNames)
	require.Len(t, classes[1].Methods, 1)
	assert.Equal(t, "ping", classes[1].Methods[0].Name)
}

func TestPythonExtractor_Parameters(t *testing.T) {
	t.Parallel()

	source := `
class Service:
    @classmethod
    def create(cls, name: str, retries: int = 3) -> "Service":
        pass

    @staticmethod
    def helper(value, *args, key=None, **kwargs):
        pass

    async def fetch(self, url, /, *, timeout):
        pass
`
	classes, err := NewPythonExtractor().Extract(context.Background(), "service.py", []byte(source))
	require.NoError(t, err)
	require.Len(t, classes, 1)

	methods := classes[0].Methods
	require.Len(t, methods, 3)

	assert.Equal(t, "create", methods[0].Name)
	assert.Equal(t, []string{"name", "retries"}, methods[0].ParameterNames)
	assert.Equal(t, `"Service"`, methods[0].ReturnTypeName)

	assert.Equal(t, "helper", methods[1].Name)
	assert.Equal(t, []string{"value", "*args", "key", "**kwargs"}, methods[1].ParameterNames)

	assert.Equal(t, "fetch", methods[2].Name)
	assert.Equal(t, []string{"url", "timeout"}, methods[2].ParameterNames)
}

func TestPythonExtractor_ParseError(t *testing.T) {
	t.Parallel()

	source := "class Broken(:\n    def x(self\n"

	classes, err := NewPythonExtractor().Extract(context.Background(), "broken.py", []byte(source))
	require.Error(t, err)
	assert.Nil(t, classes)

	var parseErr *ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, "broken.py", parseErr.Path)
	assert.Greater(t, parseErr.Line, 0)
	assert.Contains(t, parseErr.Error(), "broken.py:")
}

func TestPythonExtractor_EmptySource(t *testing.T) {
	t.Parallel()

	p := NewPythonExtractor()
	for _, source := range []string{"", "   \n\t\n"} {
		classes, err := p.Extract(context.Background(), "empty.py", []byte(source))
		assert.NoError(t, err)
		assert.Empty(t, classes)
	}
}

func TestPythonExtractor_NoClasses(t *testing.T) {
	t.Parallel()

	classes, err := NewPythonExtractor().Extract(context.Background(), "util.py", []byte("def f(x):\n    return x\n"))
	require.NoError(t, err)
	assert.Empty(t, classes)
}

func TestPythonExtractor_Testdata(t *testing.T) {
	t.Parallel()

	source, err := os.ReadFile("../../testdata/code/python/shapes.py")
	require.NoError(t, err)

	classes, err := NewPythonExtractor().Extract(context.Background(), "shapes.py", source)
	require.NoError(t, err)
	require.Len(t, classes, 3)

	assert.Equal(t, "Shape", classes[0].Name)
	assert.Equal(t, []string{"ABC"}, classes[0].BaseNames)
	assert.Equal(t, "Circle", classes[1].Name)
	assert.Equal(t, []string{"Shape"}, classes[1].BaseNames)
	assert.Equal(t, "Square", classes[2].Name)

	circle := classes[1]
	require.Len(t, circle.Methods, 2)
	assert.Equal(t, "__init__", circle.Methods[0].Name)
	assert.Equal(t, []string{"radius"}, circle.Methods[0].ParameterNames)
	assert.Equal(t, "area", circle.Methods[1].Name)
	assert.Equal(t, "float", circle.Methods[1].ReturnTypeName)
}

func TestPythonExtractor_ExtractFunctions(t *testing.T) {
	t.Parallel()

	source := `import functools

def adopt(name, *owners) -> "Dog":
    def inner():
        pass
    return Dog(name)

class Dog:
    def bark(self):
        pass

@functools.cache
async def fetch(self, url):
    pass
`
	var fe FunctionExtractor = NewPythonExtractor()
	functions, err := fe.ExtractFunctions(context.Background(), "zoo.py", []byte(source))
	require.NoError(t, err)

	assert.Equal(t, []model.MethodEntity{
		{Name: "adopt", ParameterNames: []string{"name", "*owners"}, ReturnTypeName: `"Dog"`},
		{Name: "fetch", ParameterNames: []string{"self", "url"}},
	}, functions)

	_, err = fe.ExtractFunctions(context.Background(), "bad.py", []byte("def broken(:\n"))
	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}
