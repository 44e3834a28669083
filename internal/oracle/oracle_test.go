package oracle

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/funvibe/sumshape/internal/typesystem"
)

var (
	i32 = typesystem.Named("i32")
	str = typesystem.Named("str")
)

func addBound(rhs, out typesystem.Type) typesystem.Bound {
	return typesystem.Bound{Trait: "Add", Args: []typesystem.Type{rhs}, Assoc: []typesystem.AssocBinding{{Name: "Output", Type: out}}}
}

func TestMatches(t *testing.T) {
	have := addBound(i32, i32)

	assert.True(t, Matches(have, addBound(i32, i32)))
	assert.True(t, Matches(have, typesystem.Bound{Trait: "std::ops::Add", Args: []typesystem.Type{i32}}), "open assoc and qualified path")
	assert.False(t, Matches(have, addBound(i32, typesystem.Named("i64"))))
	assert.False(t, Matches(have, typesystem.Bound{Trait: "Add"}), "arg count differs")
	assert.False(t, Matches(have, typesystem.Bound{Trait: "Sub", Args: []typesystem.Type{i32}}))
}

func TestFacts(t *testing.T) {
	storage := typesystem.Named("Storage")
	f := NewFacts().
		Implement(i32, typesystem.Bound{Trait: "Trait", Dispatch: true}).
		Implement(storage, typesystem.Bound{Trait: "Default"}).
		Construct(typesystem.Named("Handle"), Constructor{Expr: "Handle::closed()", Capability: "fact"})

	assert.True(t, f.Satisfies(i32, typesystem.Bound{Trait: "Trait"}))
	assert.False(t, f.Satisfies(typesystem.Named("f32"), typesystem.Bound{Trait: "Trait"}))

	ctor, ok := f.DefaultConstructor(storage)
	require.True(t, ok)
	assert.Equal(t, "Default::default()", ctor.Expr)

	ctor, ok = f.DefaultConstructor(typesystem.Named("Handle"))
	require.True(t, ok)
	assert.Equal(t, "Handle::closed()", ctor.Expr)

	_, ok = f.DefaultConstructor(i32)
	assert.False(t, ok)

	assert.Equal(t, []string{"Handle", "Storage", "i32"}, f.Types())
}

func TestFactsKeepSameNamedGoTypesApart(t *testing.T) {
	userA := typesystem.TCon{Name: "User", Module: "example.com/a/model"}
	userB := typesystem.TCon{Name: "User", Module: "example.com/b/model"}
	f := NewFacts().
		Implement(userA, typesystem.Bound{Trait: "Stringer"}).
		Construct(userB, Constructor{Expr: "model.NewUser()", Capability: "fact"})

	assert.True(t, f.Satisfies(userA, typesystem.Bound{Trait: "Stringer"}))
	assert.False(t, f.Satisfies(userB, typesystem.Bound{Trait: "Stringer"}))

	_, ok := f.DefaultConstructor(userA)
	assert.False(t, ok)
	ctor, ok := f.DefaultConstructor(userB)
	require.True(t, ok)
	assert.Equal(t, "model.NewUser()", ctor.Expr)

	assert.Equal(t, []string{"example.com/a/model.User", "example.com/b/model.User"}, f.Types())
}

func TestStd(t *testing.T) {
	std := Std()
	assert.Same(t, std, Std())

	assert.True(t, std.Satisfies(i32, addBound(i32, i32)))
	assert.True(t, std.Satisfies(typesystem.Named("String"), typesystem.Bound{Trait: "AsRef", Args: []typesystem.Type{str}}))
	assert.True(t, std.Satisfies(typesystem.TRef{Elem: str}, typesystem.Bound{Trait: "Copy"}))
	assert.False(t, std.Satisfies(typesystem.Named("String"), typesystem.Bound{Trait: "Copy"}))
	assert.False(t, std.Satisfies(typesystem.Named("f64"), typesystem.Bound{Trait: "Hash"}))
	assert.True(t, std.Satisfies(i32, typesystem.Bound{Trait: "Add", Assoc: []typesystem.AssocBinding{{Name: "Output", Type: i32}}}), "Rhs defaults to Self")

	ctor, ok := std.DefaultConstructor(typesystem.Named("u64"))
	require.True(t, ok)
	assert.Equal(t, "Default", ctor.Capability)
}

func TestChain(t *testing.T) {
	a := NewFacts().Implement(i32, typesystem.Bound{Trait: "A"})
	b := NewFacts().
		Implement(i32, typesystem.Bound{Trait: "B"}).
		Construct(i32, Constructor{Expr: "0"})
	c := NewFacts().Construct(i32, Constructor{Expr: "1"})

	o := Chain(a, nil, Chain(b, c))
	assert.True(t, o.Satisfies(i32, typesystem.Bound{Trait: "A"}))
	assert.True(t, o.Satisfies(i32, typesystem.Bound{Trait: "B"}))
	assert.False(t, o.Satisfies(i32, typesystem.Bound{Trait: "C"}))

	ctor, ok := o.DefaultConstructor(i32)
	require.True(t, ok)
	assert.Equal(t, "0", ctor.Expr, "first oracle wins")
}

func TestLoadFactsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.yaml")
	content := `
facts:
  i32: [Trait, "Add<i32, Output = i32>"]
  "A<i32>": [Trait]
defaults:
  Storage: "Storage::empty()"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	f, err := LoadFactsFile(path)
	require.NoError(t, err)

	assert.True(t, f.Satisfies(i32, typesystem.Bound{Trait: "Trait"}))
	assert.True(t, f.Satisfies(i32, addBound(i32, i32)))
	assert.True(t, f.Satisfies(typesystem.App("A", i32), typesystem.Bound{Trait: "Trait"}))

	ctor, ok := f.DefaultConstructor(typesystem.Named("Storage"))
	require.True(t, ok)
	assert.Equal(t, "Storage::empty()", ctor.Expr)
}

func TestLoadFactsFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "facts.yaml")
	require.NoError(t, os.WriteFile(path, []byte("facts:\n  i32: [\"Add<\"]\n"), 0o644))

	_, err := LoadFactsFile(path)
	assert.ErrorContains(t, err, `bound "Add<"`)

	_, err = LoadFactsFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRules(t *testing.T) {
	src := `
copy("i32").
copy("u8").
implements(T, "Clone") :- copy(T).
implements(T, "Copy") :- copy(T).
implements("Storage", "Trait").
default_ctor("Storage", "Storage::empty()").
`
	f, err := LoadRules(src)
	require.NoError(t, err)

	assert.True(t, f.Satisfies(i32, typesystem.Bound{Trait: "Clone"}))
	assert.True(t, f.Satisfies(typesystem.Named("u8"), typesystem.Bound{Trait: "Copy"}))
	assert.False(t, f.Satisfies(typesystem.Named("String"), typesystem.Bound{Trait: "Copy"}))
	assert.True(t, f.Satisfies(typesystem.Named("Storage"), typesystem.Bound{Trait: "Trait"}))

	ctor, ok := f.DefaultConstructor(typesystem.Named("Storage"))
	require.True(t, ok)
	assert.Equal(t, "Storage::empty()", ctor.Expr)
}

func TestLoadRulesErrors(t *testing.T) {
	_, err := LoadRules("implements(")
	assert.ErrorContains(t, err, "parse error")

	_, err = LoadRules(`implements("i32", 3).`)
	assert.ErrorContains(t, err, "must be a string")
}

type countingOracle struct {
	Oracle
	satisfies int
	defaults  int
}

func (c *countingOracle) Satisfies(t typesystem.Type, b typesystem.Bound) bool {
	c.satisfies++
	return c.Oracle.Satisfies(t, b)
}

func (c *countingOracle) DefaultConstructor(t typesystem.Type) (Constructor, bool) {
	c.defaults++
	return c.Oracle.DefaultConstructor(t)
}

func TestCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache", "oracle.db")
	inner := &countingOracle{Oracle: Std()}

	c, err := OpenCache(path, inner, "config-v1", nil)
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		assert.True(t, c.Satisfies(i32, typesystem.Bound{Trait: "Copy"}))
		assert.False(t, c.Satisfies(typesystem.Named("String"), typesystem.Bound{Trait: "Copy"}))
		ctor, ok := c.DefaultConstructor(i32)
		assert.True(t, ok)
		assert.Equal(t, "Default::default()", ctor.Expr)
	}
	assert.Equal(t, 2, inner.satisfies)
	assert.Equal(t, 1, inner.defaults)

	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	require.NoError(t, c.Close())

	// Same file, same fingerprint: answered from disk.
	reopened, err := OpenCache(path, inner, "config-v1", nil)
	require.NoError(t, err)
	assert.True(t, reopened.Satisfies(i32, typesystem.Bound{Trait: "Copy"}))
	assert.Equal(t, 2, inner.satisfies)
	require.NoError(t, reopened.Close())

	// New fingerprint: the inner oracle is asked again.
	changed, err := OpenCache(path, inner, "config-v2", nil)
	require.NoError(t, err)
	defer changed.Close()
	assert.True(t, changed.Satisfies(i32, typesystem.Bound{Trait: "Copy"}))
	assert.Equal(t, 3, inner.satisfies)
}

func TestCacheKeepsSameNamedGoTypesApart(t *testing.T) {
	userA := typesystem.TCon{Name: "User", Module: "example.com/a/model"}
	userB := typesystem.TCon{Name: "User", Module: "example.com/b/model"}
	facts := NewFacts().Implement(userA, typesystem.Bound{Trait: "Stringer"})

	c, err := OpenCache(filepath.Join(t.TempDir(), "oracle.db"), facts, "v1", nil)
	require.NoError(t, err)
	defer c.Close()

	assert.True(t, c.Satisfies(userA, typesystem.Bound{Trait: "Stringer"}))
	assert.False(t, c.Satisfies(userB, typesystem.Bound{Trait: "Stringer"}))
	n, err := c.Len()
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}
