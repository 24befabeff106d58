package extractor

import (
	"context"
	"errors"
	"testing"

	"github.com/mvp-joe/classmap/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for RustExtractor:
// - Named and tuple struct fields with pub / pub(crate) / private visibility
// - Enum variants become fields typed by the enum
// - Traits are interfaces; supertraits become bases; signatures become methods
// - impl blocks attach methods to their type; trait impls add the trait as a base
// - self receivers are dropped from parameters
// - impl before the struct declaration still yields a single entity
// - Syntax errors return *ParseError

const rustSource = `
use std::fmt;

impl Point {
    pub fn origin() -> Point { Point { x: 0, y: 0, label: String::new() } }
}

pub struct Point {
    pub x: i32,
    pub(crate) y: i32,
    label: String,
}

struct Meters(f64, pub u8);

pub enum Shape {
    Circle(f64),
    Square { side: f64 },
    Empty,
}

pub trait Area: fmt::Debug + Clone {
    fn area(&self) -> f64;
    fn scale(&mut self, factor: f64) {}
}

impl Area for Shape {
    fn area(&self) -> f64 { 0.0 }
}

impl Point {
    fn shift(&mut self, dx: i32, dy: i32) {}
}
`

func TestRustExtractor_Structure(t *testing.T) {
	t.Parallel()

	classes, err := NewRustExtractor().Extract(context.Background(), "geo.rs", []byte(rustSource))
	require.NoError(t, err)

	names := make([]string, 0, len(classes))
	for _, c := range classes {
		names = append(names, c.Name)
	}
	require.Equal(t, []string{"Point", "Meters", "Shape", "Area"}, names)

	point := classes[0]
	assert.Equal(t, model.KindStruct, point.Kind)
	assert.Equal(t, []model.FieldEntity{
		{Name: "x", TypeName: "i32", Visibility: model.VisibilityPublic},
		{Name: "y", TypeName: "i32", Visibility: model.VisibilityPackage},
		{Name: "label", TypeName: "String", Visibility: model.VisibilityPrivate},
	}, point.Fields)
	require.Len(t, point.Methods, 2)
	assert.Equal(t, model.MethodEntity{
		Name:           "origin",
		ReturnTypeName: "Point",
		Visibility:     model.VisibilityPublic,
	}, point.Methods[0])
	assert.Equal(t, model.MethodEntity{
		Name:           "shift",
		ParameterNames: []string{"dx", "dy"},
		Visibility:     model.VisibilityPrivate,
	}, point.Methods[1])

	meters := classes[1]
	assert.Equal(t, []model.FieldEntity{
		{Name: "0", TypeName: "f64", Visibility: model.VisibilityPrivate},
		{Name: "1", TypeName: "u8", Visibility: model.VisibilityPublic},
	}, meters.Fields)

	shape := classes[2]
	assert.Equal(t, model.KindEnum, shape.Kind)
	assert.Equal(t, []string{"Area"}, shape.BaseNames)
	require.Len(t, shape.Fields, 3)
	assert.Equal(t, model.FieldEntity{Name: "Circle", TypeName: "Shape", Visibility: model.VisibilityPublic}, shape.Fields[0])
	require.Len(t, shape.Methods, 1)
	assert.Equal(t, model.VisibilityPublic, shape.Methods[0].Visibility)
	assert.Empty(t, shape.Methods[0].ParameterNames)

	area := classes[3]
	assert.Equal(t, model.KindInterface, area.Kind)
	assert.Equal(t, []string{"Debug", "Clone"}, area.BaseNames)
	require.Len(t, area.Methods, 2)
	assert.Equal(t, "f64", area.Methods[0].ReturnTypeName)
	assert.Equal(t, []string{"factor"}, area.Methods[1].ParameterNames)
}

func TestRustExtractor_ParseError(t *testing.T) {
	t.Parallel()

	_, err := NewRustExtractor().Extract(context.Background(), "bad.rs", []byte("struct Bad { x: i32,,, "))
	require.Error(t, err)

	var parseErr *ParseError
	assert.True(t, errors.As(err, &parseErr))
}
