package traits

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/sumshape/internal/typesystem"
)

func TestRegistryWithShadows(t *testing.T) {
	base := NewRegistry(
		&Blueprint{Name: "Show", Path: "lib::Show"},
		&Blueprint{Name: "Size"},
	)
	custom := &Blueprint{Name: "Show", Path: "lib::Show", Methods: []Method{{Name: "show", Receiver: ByRef, Return: typesystem.Named("String")}}}
	layered := base.With(custom, &Blueprint{Name: "Extra"})

	bp, ok := layered.Lookup("Show")
	require.True(t, ok)
	assert.Same(t, custom, bp)

	bp, ok = base.Lookup("Show")
	require.True(t, ok)
	assert.NotSame(t, custom, bp, "base registry must not change")
	_, ok = base.Lookup("Extra")
	assert.False(t, ok)

	names := []string{}
	for _, bp := range layered.All() {
		names = append(names, bp.QualifiedName())
	}
	assert.Equal(t, []string{"Size", "lib::Show", "Extra"}, names)
}

func TestResolveUnknown(t *testing.T) {
	_, err := NewRegistry().Resolve("Nope")
	var unknown *UnknownTraitError
	require.True(t, errors.As(err, &unknown))
	assert.Equal(t, "Nope", unknown.Name)
}

func TestMethodSignature(t *testing.T) {
	m := Method{
		Name:     "hash",
		Generics: []TypeParam{{Name: "H", Bounds: []typesystem.Bound{{Trait: "Hasher"}}}},
		Receiver: ByRef,
		Params:   []Param{{Name: "state", Type: typesystem.TRef{Elem: typesystem.Named("H"), Mutable: true}}},
	}
	assert.Equal(t, "fn hash<H: Hasher>(&self, state: &mut H)", m.Signature())
}
