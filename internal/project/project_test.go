package project

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/typesystem"
)

func writeFiles(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return dir
}

func open(t *testing.T, dir string) *Project {
	t.Helper()
	p, err := Open(context.Background(), filepath.Join(dir, "sumshape.yaml"), zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, p.Close()) })
	return p
}

const shapeProject = `
enums:
  - name: Shape
    pattern: "(T) | () where T: ^Area"
    variants:
      - name: Circle
        fields: [Disk]
      - name: Square
        fields: [Tile]
      - name: Empty
traits:
  - name: Area
    methods:
      - name: area
        return: f64
oracle:
  facts:
    Disk: [Area]
  rules: rules.dl
  cache: .cache/oracle.db
`

func TestCheckAndGenerateRust(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"sumshape.yaml": shapeProject,
		"rules.dl":      `implements("Tile", "Area").`,
	})
	p := open(t, dir)

	assert.ElementsMatch(t, []string{
		filepath.Join(dir, "sumshape.yaml"),
		filepath.Join(dir, "rules.dl"),
	}, p.Inputs)

	reports, err := p.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 1)
	require.False(t, reports[0].Failed(), "%v", reports[0].Result.Diagnostics)

	out, err := p.Generate(reports)
	require.NoError(t, err)
	assert.Contains(t, out, "pub enum Shape")
	assert.Contains(t, out, "impl Area for Shape {")
	assert.Contains(t, out, "fn area(&self) -> f64 {")
	assert.Contains(t, out, "Shape::Circle(val) => val.area(),")
	assert.Contains(t, out, "Shape::Square(val) => val.area(),")
	assert.Contains(t, out, "Shape::Empty => 0.0,")

	assert.FileExists(t, filepath.Join(dir, ".cache", "oracle.db"))
}

func TestCheckReportsDiagnostics(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"sumshape.yaml": `
enums:
  - name: Shape
    pattern: "(T) | () where T: ^Area"
    variants:
      - name: Circle
        fields: [Disk]
      - name: Pair
        fields: [Disk, Disk]
traits:
  - name: Area
    methods:
      - name: area
        return: f64
`,
	})
	p := open(t, dir)

	reports, err := p.Check(context.Background())
	require.NoError(t, err)
	require.True(t, reports[0].Failed())

	all := Diagnostics(reports)
	codes := map[diagnostics.ErrorCode]int{}
	for _, d := range all.Errors() {
		codes[d.Code]++
		assert.Equal(t, filepath.Join(dir, "sumshape.yaml"), d.File)
		assert.Equal(t, "Shape", d.Enum)
	}
	assert.Equal(t, 1, codes[diagnostics.ErrS001], "Pair fits no fragment")
	assert.Equal(t, 1, codes[diagnostics.ErrS002], "Disk does not implement Area")

	_, err = p.Generate(reports)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refusing to generate")
}

func TestDerivations(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"sumshape.yaml": `
lint: false
enums:
  - name: Greeting
    pattern: "_"
    variants:
      - name: Hello
        expr: '"hello"'
      - name: World
        fields: [i32]
      - name: __Default__
        expr: '"?"'
    derive:
      - trait: ToString
  - name: Bad
    pattern: "_"
    variants:
      - name: A
    derive:
      - trait: Into
`,
	})
	p := open(t, dir)

	reports, err := p.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, 2)

	greet := reports[0]
	require.False(t, greet.Failed(), "%v %v", greet.Err, greet.Result.Diagnostics)
	require.Len(t, greet.Derivations, 1)
	assert.Len(t, greet.Result.Enum.Variants, 2, "the fallback variant is not checked")

	bad := reports[1]
	require.Error(t, bad.Err)
	assert.Contains(t, bad.Err.Error(), "missing target type")

	_, err = p.Generate(reports)
	require.Error(t, err)

	out, err := p.Generate(reports[:1])
	require.NoError(t, err)
	assert.Contains(t, out, "impl std::string::ToString for Greeting")
	assert.Contains(t, out, `"?"`)
}

func TestRustSources(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"sumshape.yaml": `
sources:
  rust: [src/lib.rs]
oracle:
  facts:
    i32: [Speak]
`,
		"src/lib.rs": `
pub trait Speak {
    fn speak(&self) -> String;
}

#[penum((T) | () where T: ^Speak)]
enum Animal {
    Dog(i32),
    Silent,
}
`,
	})
	p := open(t, dir)
	require.Len(t, p.Definitions, 1)
	assert.Contains(t, p.Inputs, filepath.Join(dir, "src", "lib.rs"))

	reports, err := p.Check(context.Background())
	require.NoError(t, err)
	require.False(t, reports[0].Failed(), "%v", reports[0].Result.Diagnostics)

	out, err := p.Generate(reports)
	require.NoError(t, err)
	assert.NotContains(t, out, "enum Animal", "source enums are not re-emitted")
	assert.Contains(t, out, "impl Speak for Animal {")
	assert.Contains(t, out, "Animal::Silent => String::new(),")
}

func TestRustSourceImplsAreFacts(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"sumshape.yaml": `
sources:
  rust: [src/lib.rs]
oracle:
  cache: .cache/oracle.db
`,
		"src/lib.rs": `
pub trait Speak {
    fn speak(&self) -> String;
}

pub struct Dog;

impl Speak for Dog {
    fn speak(&self) -> String { "woof".into() }
}

#[derive(Default)]
pub struct Quiet;

#[penum((T) | () where T: ^Speak)]
enum Animal {
    Barker(Dog),
    Silent,
}
`,
	})
	p := open(t, dir)

	reports, err := p.Check(context.Background())
	require.NoError(t, err)
	require.False(t, reports[0].Failed(), "%v", reports[0].Result.Diagnostics)

	ctor, ok := p.Oracle.DefaultConstructor(typesystem.Named("Quiet"))
	require.True(t, ok)
	assert.Equal(t, "Default::default()", ctor.Expr)

	out, err := p.Generate(reports)
	require.NoError(t, err)
	assert.Contains(t, out, "Animal::Barker(val) => val.speak(),")
}

func TestProtoSources(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"sumshape.yaml": `
sources:
  proto:
    - file: geo.proto
      import_paths: [protos]
      oneofs:
        geo.Shape.kind:
          pattern: "(T) where T: Copy"
`,
		"protos/geo.proto": `syntax = "proto3";
package geo;
message Shape {
  oneof kind {
    double side = 1;
    int32 count = 2;
  }
}
`,
	})
	p := open(t, dir)
	require.Len(t, p.Definitions, 1)
	assert.Equal(t, "Kind", p.Definitions[0].Enum.Name)
	assert.Contains(t, p.Inputs, filepath.Join(dir, "protos", "geo.proto"))

	reports, err := p.Check(context.Background())
	require.NoError(t, err)
	assert.False(t, reports[0].Failed(), "%v", reports[0].Result.Diagnostics)
}

func TestGenerateGo(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"sumshape.yaml": `
enums:
  - name: Shape
    pattern: "{ Geom: T, .. } | () where T: ^Areaer"
    variants:
      - name: Rect
        named: ["Geom: Box", "Tag: string"]
      - name: Empty
traits:
  - name: Areaer
    methods:
      - name: Area
        return: float64
oracle:
  facts:
    Box: [Areaer]
output:
  dialect: go
  package: shapes
`,
	})
	p := open(t, dir)

	reports, err := p.Check(context.Background())
	require.NoError(t, err)
	require.False(t, reports[0].Failed(), "%v", reports[0].Result.Diagnostics)

	out, err := p.Generate(reports)
	require.NoError(t, err)
	assert.Contains(t, out, "package shapes")
	assert.Contains(t, out, "type Shape interface {")
	assert.Contains(t, out, "func ShapeArea(self Shape) (r0 float64) {")
	assert.Contains(t, out, "return arm.Geom.Area()")
}

func TestOpenErrors(t *testing.T) {
	dir := writeFiles(t, map[string]string{
		"sumshape.yaml": `
enums:
  - name: E
    pattern: "(T)"
    variants:
      - name: A
        fields: ["Vec<"]
`,
	})
	_, err := Open(context.Background(), filepath.Join(dir, "sumshape.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "enum E: variant A")

	dir = writeFiles(t, map[string]string{
		"sumshape.yaml": "enums: [{name: E, pattern: \"(T)\"}]\noracle:\n  rules: missing.dl\n",
	})
	_, err = Open(context.Background(), filepath.Join(dir, "sumshape.yaml"), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading rules")

	_, err = Open(context.Background(), filepath.Join(t.TempDir(), "sumshape.yaml"), nil)
	require.Error(t, err)
}

func TestCheckIsConcurrentAndOrdered(t *testing.T) {
	yaml := "lint: false\nenums:\n"
	names := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	for _, n := range names {
		yaml += "  - name: " + n + "\n    pattern: \"(T) where T: Copy\"\n    variants:\n      - name: V\n        fields: [i32]\n"
	}
	p := open(t, writeFiles(t, map[string]string{"sumshape.yaml": yaml}))

	reports, err := p.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, reports, len(names))
	for i, r := range reports {
		assert.Equal(t, names[i], r.Definition.Enum.Name)
		assert.False(t, r.Failed())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Check(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}
