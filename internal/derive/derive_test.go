package derive

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/typesystem"
)

func colors() *subject.Enum {
	return subject.New("Color",
		subject.Unit("Red").WithDiscriminant(`"red"`),
		subject.Unit("Green").WithDiscriminant(`"green"`),
		subject.Tuple("Rgb", typesystem.Named("u8"), typesystem.Named("u8"), typesystem.Named("u8")),
	)
}

func TestDeriveFallback(t *testing.T) {
	d, err := Derive(colors(), ToString, nil)
	require.NoError(t, err)
	require.Len(t, d.Arms, 2)
	assert.Equal(t, "Red", d.Arms[0].Variant.Name())
	assert.Equal(t, `"red"`, d.Arms[0].Expr)
	assert.Empty(t, d.Arms[0].Variant.Discriminant())
	assert.Equal(t, `""`, d.Fallback)
	assert.False(t, d.Custom)
	assert.False(t, d.Exhaustive())
	assert.Len(t, d.Enum.Variants, 3)
}

func TestDefaultVariantIsRemoved(t *testing.T) {
	e := subject.New("Status",
		subject.Unit("Ok").WithDiscriminant("200"),
		subject.Unit("__Default__").WithDiscriminant("500"),
	)
	d, err := Derive(e, Into, typesystem.Named("u16"))
	require.NoError(t, err)
	assert.Equal(t, "500", d.Fallback)
	assert.True(t, d.Custom)
	require.Len(t, d.Enum.Variants, 1)
	assert.Equal(t, "Ok", d.Enum.Variants[0].Name())
	assert.True(t, d.Exhaustive())

	_, ok := e.Variant("__Default__")
	assert.True(t, ok, "input enum is not modified")
}

func TestDeriveErrors(t *testing.T) {
	_, err := Derive(colors(), Into, nil)
	assert.ErrorContains(t, err, "missing target type")

	_, err = Derive(colors(), Display, typesystem.Named("str"))
	assert.ErrorContains(t, err, "takes no target type")

	_, err = Derive(subject.New("E", subject.Unit("__Default__")), ToString, nil)
	assert.ErrorContains(t, err, "needs an expression")

	_, err = Derive(subject.New("E", subject.Unit("__Default__").WithDiscriminant(`"x"`)), ToString, nil)
	assert.ErrorContains(t, err, "no variants")
}

func TestStaticStrTargetsStr(t *testing.T) {
	d, err := Derive(colors(), StaticStr, nil)
	require.NoError(t, err)
	assert.Equal(t, "str", d.Target.String())
	assert.Equal(t, `""`, d.Fallback)

	d, err = Derive(colors(), Deref, typesystem.Named("str"))
	require.NoError(t, err)
	assert.Equal(t, "Default::default()", d.Fallback)
}

func TestParseKind(t *testing.T) {
	for _, name := range []string{"ToString", "Display", "Into", "Deref", "StaticStr"} {
		k, err := ParseKind(name)
		require.NoError(t, err)
		assert.Equal(t, name, k.String())
	}
	_, err := ParseKind("Debug")
	assert.Error(t, err)
}
