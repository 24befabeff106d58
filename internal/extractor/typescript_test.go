package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/mvp-joe/classmap/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for TypeScriptExtractor:
// - Class extends (identifier and member expression) and implements (generic, nested) resolve to names
// - Fields keep annotation type or Unknown; accessibility modifiers and #private map to visibility
// - Methods keep parameter patterns and return annotation without the colon
// - Leading this parameter is stripped
// - Abstract classes and interfaces get their kinds; interface extends clause becomes bases
// - TSX grammar handles JSX inside methods
// - Syntax errors return *ParseError

const tsSource = `
import { Base } from "./base";

export interface Named {
  name: string;
  rename(next: string): void;
}

interface Pet extends Named, Serializable<Pet> {
  owner?: string;
}

export abstract class Animal extends Base implements Named, models.Entity {
  name: string;
  private age: number = 0;
  protected tags;
  #secret = 1;

  constructor(name: string, public readonly id: number) {
    super();
    this.name = name;
  }

  rename(next: string): void {
    this.name = next;
  }

  abstract speak(this: Animal, volume?: number): string;
}

class Dog extends mixins.Loud {
  bark(...times: number[]) {}
}
`

func TestTypeScriptExtractor_Structure(t *testing.T) {
	t.Parallel()

	classes, err := NewTypeScriptExtractor().Extract(context.Background(), "zoo.ts", []byte(tsSource))
	require.NoError(t, err)
	require.Len(t, classes, 4)

	named := classes[0]
	assert.Equal(t, "Named", named.Name)
	assert.Equal(t, model.KindInterface, named.Kind)
	assert.Equal(t, []model.FieldEntity{{Name: "name", TypeName: "string", Visibility: model.VisibilityPublic}}, named.Fields)
	require.Len(t, named.Methods, 1)
	assert.Equal(t, []string{"next"}, named.Methods[0].ParameterNames)
	assert.Equal(t, "void", named.Methods[0].ReturnTypeName)

	pet := classes[1]
	assert.Equal(t, []string{"Named", "Serializable"}, pet.BaseNames)

	animal := classes[2]
	assert.Equal(t, model.KindAbstractClass, animal.Kind)
	assert.Equal(t, []string{"Base", "Named", "Entity"}, animal.BaseNames)
	assert.Equal(t, []model.FieldEntity{
		{Name: "name", TypeName: "string", Visibility: model.VisibilityPublic},
		{Name: "age", TypeName: "number", Visibility: model.VisibilityPrivate},
		{Name: "tags", TypeName: "Unknown", Visibility: model.VisibilityProtected},
		{Name: "#secret", TypeName: "Unknown", Visibility: model.VisibilityPrivate},
	}, animal.Fields)

	require.Len(t, animal.Methods, 3)
	assert.Equal(t, "constructor", animal.Methods[0].Name)
	assert.Equal(t, []string{"name", "id"}, animal.Methods[0].ParameterNames)
	assert.Equal(t, "rename", animal.Methods[1].Name)
	assert.Equal(t, "speak", animal.Methods[2].Name)
	assert.Equal(t, []string{"volume"}, animal.Methods[2].ParameterNames)
	assert.Equal(t, "string", animal.Methods[2].ReturnTypeName)

	dog := classes[3]
	assert.Equal(t, []string{"Loud"}, dog.BaseNames)
	require.Len(t, dog.Methods, 1)
	assert.Equal(t, []string{"...times"}, dog.Methods[0].ParameterNames)
	assert.Empty(t, dog.Methods[0].ReturnTypeName)
}

func TestTSXExtractor_Component(t *testing.T) {
	t.Parallel()

	source := `
class Greeting extends React.Component<Props> {
  render(): JSX.Element {
    return <div className="greeting">Hello {this.props.name}</div>;
  }
}
`
	classes, err := NewTSXExtractor().Extract(context.Background(), "greeting.tsx", []byte(source))
	require.NoError(t, err)
	require.Len(t, classes, 1)

	assert.Equal(t, "Greeting", classes[0].Name)
	assert.Equal(t, []string{"Component"}, classes[0].BaseNames)
	require.Len(t, classes[0].Methods, 1)
	assert.Equal(t, "JSX.Element", classes[0].Methods[0].ReturnTypeName)
}

func TestTypeScriptExtractor_ParseError(t *testing.T) {
	t.Parallel()

	_, err := NewTypeScriptExtractor().Extract(context.Background(), "bad.ts", []byte("class { constructor( }"))
	require.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}
