package gosrc

import (
	"context"
	"go/ast"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/funvibe/sumshape/internal/shape"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/typesystem"
)

const shapesSource = `package shapes

import "fmt"

type Areaer interface{ Area() float64 }

type Geom struct{ W, H float64 }

func (g Geom) Area() float64 { return g.W * g.H }

type Label struct{ Text string }

func (l *Label) String() string { return l.Text }

var _ fmt.Stringer = (*Label)(nil)

// Shape is a closed set of shapes.
//
//sumshape:shape { Geom: T, .. } | () where T: ^Areaer
//sumshape:derive ToString
type Shape interface{ isShape() }

//sumshape:expr "rect"
type Rect struct {
	Geom Geom
	Tag  string
}

func (Rect) isShape() {}

type Empty struct{}

func (*Empty) isShape() {}

// Celsius implements Shape but is not a struct.
type Celsius float64

func (Celsius) isShape() {}

type Scaler interface {
	Scale(by float64) Shape
	Pair() (int, error)
}

type Logger interface {
	Logf(format string, args ...any)
}
`

func loadShapes(t *testing.T) *Inspector {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping package loading in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not found")
	}

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/shapes\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "shapes.go"), []byte(shapesSource), 0o644))

	ins := NewInspector(dir, zaptest.NewLogger(t))
	require.NoError(t, ins.Load(context.Background(), "./..."))
	return ins
}

func TestSumTypes(t *testing.T) {
	ins := loadShapes(t)

	defs, err := ins.SumTypes()
	require.NoError(t, err)
	require.Len(t, defs, 1)

	def := defs[0]
	assert.Equal(t, "Shape", def.Enum.Name)
	assert.Equal(t, "example.com/shapes", def.Enum.Module)
	assert.Equal(t, "{ Geom: T, .. } | () where T: ^Areaer", def.Pattern)
	assert.Equal(t, "go", def.Origin)
	assert.Equal(t, []subject.DeriveSpec{{Trait: "ToString"}}, def.Derives)
	assert.Equal(t, "shapes.go", filepath.Base(def.File))

	// Celsius is skipped: only structs become variants.
	require.Len(t, def.Enum.Variants, 2)
	rect, empty := def.Enum.Variants[0], def.Enum.Variants[1]

	assert.Equal(t, "Rect", rect.Name())
	assert.Equal(t, shape.Struct, rect.Kind())
	assert.Equal(t, `"rect"`, rect.Discriminant())
	assert.True(t, typesystem.Equal(typesystem.TCon{Name: "Geom", Module: "example.com/shapes"}, rect.Field(0).Type))
	assert.Equal(t, "string", rect.Field(1).Type.String())

	assert.Equal(t, "Empty", empty.Name())
	assert.Equal(t, shape.Unit, empty.Kind())

	assert.Equal(t, map[string]bool{"Empty": true}, def.PointerVariants)

	require.Len(t, ins.Files(), 1)
	assert.Equal(t, "shapes.go", filepath.Base(ins.Files()[0]))
}

func TestBlueprints(t *testing.T) {
	ins := loadShapes(t)

	byPath := map[string]bool{}
	for _, bp := range ins.Blueprints() {
		byPath[bp.Path] = true
		if bp.Path == "shapes.Scaler" {
			require.Len(t, bp.Methods, 2)
			pair, scale := bp.Methods[0], bp.Methods[1]
			assert.Equal(t, "Pair", pair.Name)
			assert.Equal(t, "(int, error)", pair.Return.String())
			assert.Equal(t, "Scale", scale.Name)
			require.Len(t, scale.Params, 1)
			assert.Equal(t, "by", scale.Params[0].Name)
			assert.Equal(t, "shapes.Shape", scale.Return.String())
		}
	}

	assert.True(t, byPath["shapes.Areaer"])
	assert.True(t, byPath["shapes.Scaler"])
	assert.True(t, byPath["fmt.Stringer"], "exported interfaces of imports are included")
	assert.False(t, byPath["shapes.Logger"], "variadic methods are not forwardable")
}

func TestOracle(t *testing.T) {
	ins := loadShapes(t)
	o := ins.Oracle()

	geom := typesystem.TCon{Name: "Geom", Module: "example.com/shapes"}
	label := typesystem.TCon{Name: "Label", Module: "shapes"}

	assert.True(t, o.Satisfies(geom, typesystem.Bound{Trait: "Areaer"}))
	assert.True(t, o.Satisfies(typesystem.TRef{Elem: geom}, typesystem.Bound{Trait: "shapes.Areaer"}))
	assert.True(t, o.Satisfies(label, typesystem.Bound{Trait: "fmt.Stringer"}), "pointer method set counts for fields")
	assert.False(t, o.Satisfies(geom, typesystem.Bound{Trait: "fmt.Stringer"}))
	assert.False(t, o.Satisfies(typesystem.Named("i32"), typesystem.Bound{Trait: "Areaer"}))
	assert.False(t, o.Satisfies(geom, typesystem.Bound{Trait: "std::fmt::Display"}))

	cases := []struct {
		typ  typesystem.Type
		want string
	}{
		{typesystem.Named("int"), "0"},
		{typesystem.Named("string"), `""`},
		{typesystem.Named("bool"), "false"},
		{typesystem.Named("error"), "nil"},
		{geom, "shapes.Geom{}"},
		{typesystem.TRef{Elem: geom}, "nil"},
		{typesystem.TSlice{Elem: typesystem.Named("int")}, "nil"},
		{typesystem.App("map", typesystem.Named("string"), geom), "nil"},
	}
	for _, tc := range cases {
		t.Run(tc.typ.String(), func(t *testing.T) {
			ctor, ok := o.DefaultConstructor(tc.typ)
			require.True(t, ok)
			assert.Equal(t, tc.want, ctor.Expr)
			assert.Equal(t, "zero", ctor.Capability)
		})
	}

	_, ok := o.DefaultConstructor(typesystem.Named("String"))
	assert.False(t, ok)
}

func TestDirectives(t *testing.T) {
	doc := &ast.CommentGroup{List: []*ast.Comment{
		{Text: "// Op is an operator."},
		{Text: "//sumshape:shape (T) where T: ^Eval"},
		{Text: "//sumshape:derive Into u8"},
		{Text: "//sumshape:derive ToString"},
		{Text: "//go:generate sumshape gen"},
	}}
	got := directives(doc)
	assert.Equal(t, []string{"(T) where T: ^Eval"}, got[verbShape])
	assert.Equal(t, []string{"Into u8", "ToString"}, got[verbDerive])
	assert.Len(t, got, 2)
	assert.Empty(t, directives(nil))
}

func TestLoadReportsPackageErrors(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping package loading in short mode")
	}
	if _, err := exec.LookPath("go"); err != nil {
		t.Skip("go command not found")
	}
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module example.com/broken\n\ngo 1.22\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.go"), []byte("package broken\n\nvar x int = \"s\"\n"), 0o644))

	err := NewInspector(dir, nil).Load(context.Background(), "./...")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "example.com/broken")
}
