package dispatch

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/sumshape/internal/defaults"
	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/matcher"
	"github.com/funvibe/sumshape/internal/oracle"
	"github.com/funvibe/sumshape/internal/parser"
	"github.com/funvibe/sumshape/internal/shape"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/traits"
	"github.com/funvibe/sumshape/internal/traits/stdlib"
	"github.com/funvibe/sumshape/internal/typesystem"
)

var (
	i32     = typesystem.Named("i32")
	storage = typesystem.Named("Storage")
	other   = typesystem.Named("Something")
)

func pattern(t *testing.T, src string) *shape.PatternSet {
	t.Helper()
	set, diags := parser.ParsePattern(src)
	require.False(t, diags.HasErrors(), diags.Error())
	return set
}

func registry(t *testing.T, src string) *traits.Registry {
	t.Helper()
	bp, err := parser.ParseTrait(src)
	require.NoError(t, err)
	return stdlib.Registry().With(bp)
}

func TestScenarioA(t *testing.T) {
	set := pattern(t, "() | (T) | (_, T) where T: ^TraitX")
	reg := registry(t, "trait TraitX { fn get(&self) -> Option<i32>; }")
	e := subject.New("E",
		subject.Unit("V1"),
		subject.Tuple("V2", storage),
		subject.Tuple("V3", i32, other),
	)

	targets, diags := Prepare(set, reg)
	require.Zero(t, diags.Len())
	require.Len(t, targets, 1)

	impl, err := Synthesize(e, targets[0], matcher.MatchAll(e, set, nil), defaults.Standard(), nil)
	require.NoError(t, err)
	require.Len(t, impl.Methods, 1)

	arms := impl.Methods[0].Arms
	require.Len(t, arms, 3)
	assert.Equal(t, Default, arms[0].Kind)
	assert.Equal(t, "None", arms[0].Value.String())
	assert.Equal(t, Forward, arms[1].Kind)
	assert.Equal(t, 0, arms[1].Field)
	assert.Equal(t, Forward, arms[2].Kind)
	assert.Equal(t, 1, arms[2].Field)
	assert.Equal(t, other, arms[2].FieldType)

	for i, arm := range arms {
		assert.Equal(t, e.Variants[i].Name(), arm.Variant.Name(), "arms follow declaration order")
	}
}

func TestScenarioDAmbiguousAssoc(t *testing.T) {
	set := pattern(t, "(T) where T: ^Add<i32>")
	targets, diags := Prepare(set, stdlib.Registry())
	assert.Empty(t, targets)
	require.Equal(t, 1, diags.Len())
	d := diags.Items()[0]
	assert.Equal(t, diagnostics.ErrS005, d.Code)
	assert.True(t, d.Fatal())
	assert.Contains(t, d.Message, "Output")
}

func TestPrepareDiagnostics(t *testing.T) {
	cases := []struct {
		pattern string
		code    diagnostics.ErrorCode
	}{
		{"(T) where T: ^Frobnicate", diagnostics.ErrS007},
		{"(T) where T: ^Add<Output = i32>", diagnostics.ErrS011},
		{"(T) where T: ^Clone", diagnostics.ErrS011},
		{"(T) where T: ^Default", diagnostics.ErrS011},
		{"(T) where T: ^AsRef<str, str>", diagnostics.ErrS010},
		{"(T) where T: ^Into", diagnostics.ErrS010},
	}
	for _, tc := range cases {
		t.Run(tc.pattern, func(t *testing.T) {
			_, diags := Prepare(pattern(t, tc.pattern), stdlib.Registry())
			require.Equal(t, 1, diags.Len(), diags.Error())
			assert.Equal(t, tc.code, diags.Items()[0].Code)
			assert.Equal(t, "T", diags.Items()[0].Symbol)
		})
	}
}

func TestUnsatisfiableCollectsAllArms(t *testing.T) {
	set := pattern(t, "() | (T) where T: ^Getter")
	reg := registry(t, "trait Getter { fn get(&self) -> Storage; }")
	e := subject.New("E", subject.Unit("A"), subject.Tuple("B", i32), subject.Unit("C"))

	targets, diags := Prepare(set, reg)
	require.Zero(t, diags.Len())

	_, err := Synthesize(e, targets[0], matcher.MatchAll(e, set, nil), defaults.Standard(), oracle.NewFacts())
	require.Error(t, err)
	set6, ok := err.(*diagnostics.Set)
	require.True(t, ok)
	got := set6.ByCode(diagnostics.ErrS006)
	require.Len(t, got, 2)
	assert.Equal(t, "A", got[0].Variant)
	assert.Equal(t, "C", got[1].Variant)
	assert.Equal(t, "get", got[0].Method)

	o := oracle.NewFacts().Implement(storage, typesystem.Bound{Trait: "Default"})
	impl, err := Synthesize(e, targets[0], matcher.MatchAll(e, set, o), defaults.Standard(), o)
	require.NoError(t, err)
	assert.Equal(t, "Default::default()", impl.Methods[0].Arms[0].Value.String())
}

func TestAssociatedTypesResolve(t *testing.T) {
	set := pattern(t, "(T) | { value: T, .. } | () where T: ^Add<i32, Output = i32>")
	e := subject.New("Num",
		subject.Tuple("Small", i32),
		subject.Struct("Named", subject.Field{Name: "id", Type: storage}, subject.Field{Name: "value", Type: i32}),
		subject.Unit("Zero"),
	)
	targets, diags := Prepare(set, stdlib.Registry())
	require.Zero(t, diags.Len(), diags.Error())

	impl, err := Synthesize(e, targets[0], matcher.MatchAll(e, set, nil), defaults.Standard(), nil)
	require.NoError(t, err)
	m := impl.Methods[0]
	assert.Equal(t, "add", m.Name)
	assert.Equal(t, i32, m.Resolved)
	assert.Equal(t, "value", m.Arms[1].FieldName)
	assert.Equal(t, 1, m.Arms[1].Field)
	assert.Equal(t, "0", m.Arms[2].Value.String())
}

func TestConcreteSubjectDispatch(t *testing.T) {
	set := pattern(t, "(String) | () where String: ^AsRef<str>")
	e := subject.New("Name", subject.Tuple("Some", typesystem.Named("String")), subject.Unit("Anon"))
	targets, diags := Prepare(set, stdlib.Registry())
	require.Zero(t, diags.Len(), diags.Error())
	assert.Equal(t, "String", targets[0].Key)

	impl, err := Synthesize(e, targets[0], matcher.MatchAll(e, set, nil), defaults.Standard(), nil)
	require.NoError(t, err)
	arms := impl.Methods[0].Arms
	assert.Equal(t, Forward, arms[0].Kind)
	assert.Equal(t, `""`, arms[1].Value.String())
}

func TestFingerprintStable(t *testing.T) {
	b := typesystem.Bound{Trait: "AsRef", Args: []typesystem.Type{typesystem.Named("str")}}
	assert.Equal(t, Fingerprint("E", "T", b), Fingerprint("E", "T", b))
	assert.NotEqual(t, Fingerprint("E", "T", b), Fingerprint("F", "T", b))
	assert.NotEqual(t, Fingerprint("E", "T", b), Fingerprint("E", "U", b))
}

func TestSynthesizeRejectsUnmatched(t *testing.T) {
	set := pattern(t, "(T) where T: ^AsRef<str>")
	e := subject.New("E", subject.Unit("A"))
	targets, _ := Prepare(set, stdlib.Registry())
	_, err := Synthesize(e, targets[0], matcher.MatchAll(e, set, nil), defaults.Standard(), nil)
	require.Error(t, err)
	_, isSet := err.(*diagnostics.Set)
	assert.False(t, isSet)
}
