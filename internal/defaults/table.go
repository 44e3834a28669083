// Package defaults infers a default value for a type from a curated table,
// falling back to the capability oracle.
package defaults

import (
	"sync"

	"github.com/funvibe/sumshape/internal/oracle"
	"github.com/funvibe/sumshape/internal/typesystem"
)

// Rule produces a default for a type whose head matched the rule's key.
// infer recurses into component types.
type Rule func(t typesystem.Type, infer func(typesystem.Type) (Expr, bool)) (Expr, bool)

// Table maps constructor head names to rules. Tables are never mutated after
// construction; Extend returns a copy.
type Table struct {
	rules map[string]Rule
	// fallback runs after the oracle, for any type shape.
	fallback Rule
}

// Extend returns a new table with an extra rule. Existing rules for the same
// head are replaced in the copy only.
func (tb *Table) Extend(head string, rule Rule) *Table {
	rules := make(map[string]Rule, len(tb.rules)+1)
	for k, v := range tb.rules {
		rules[k] = v
	}
	rules[head] = rule
	return &Table{rules: rules, fallback: tb.fallback}
}

// Infer returns a default for t, or false when neither the table nor the
// oracle can provide one.
func (tb *Table) Infer(t typesystem.Type, o oracle.Oracle) (Expr, bool) {
	var infer func(typesystem.Type) (Expr, bool)
	infer = func(t typesystem.Type) (Expr, bool) {
		if typesystem.IsUnit(t) {
			return Expr{Kind: UnitValue, Type: typesystem.Unit}, true
		}
		switch typ := t.(type) {
		case typesystem.TTuple:
			elems := make([]Expr, len(typ.Elements))
			for i, el := range typ.Elements {
				e, ok := infer(el)
				if !ok {
					return Expr{}, false
				}
				elems[i] = e
			}
			return Expr{Kind: TupleValue, Type: t, Elems: elems}, true
		case typesystem.TRef:
			if e, ok := inferRef(typ, infer); ok {
				return e, true
			}
		case typesystem.TCon, typesystem.TApp:
			if rule, ok := tb.rules[typesystem.HeadName(t)]; ok {
				if e, ok := rule(t, infer); ok {
					return e, true
				}
			}
		}
		if o != nil {
			if ctor, ok := o.DefaultConstructor(t); ok {
				return Expr{Kind: CtorCall, Type: t, Ctor: ctor}, true
			}
		}
		if tb.fallback != nil {
			return tb.fallback(t, infer)
		}
		return Expr{}, false
	}
	return infer(t)
}

func inferRef(ref typesystem.TRef, infer func(typesystem.Type) (Expr, bool)) (Expr, bool) {
	if ref.Mutable {
		// A shared static cannot back a unique reference.
		return Expr{}, false
	}
	switch elem := ref.Elem.(type) {
	case typesystem.TCon:
		if typesystem.HeadName(elem) == "str" {
			return Expr{Kind: EmptyStr, Type: ref}, true
		}
	case typesystem.TSlice:
		return Expr{Kind: EmptySlice, Type: ref}, true
	}
	inner, ok := infer(ref.Elem)
	if !ok {
		return Expr{}, false
	}
	return Expr{Kind: StaticRef, Type: ref, Elems: []Expr{inner}}, true
}

// Standard returns the shared curated table.
var Standard = sync.OnceValue(func() *Table {
	rules := map[string]Rule{
		"Option": constant(EmptyOptional),
		"String": constant(EmptyString),
		"bool":   constant(False),
		"char":   constant(NulChar),
		"Result": okRule,
	}
	for _, name := range []string{"i8", "i16", "i32", "i64", "i128", "isize", "u8", "u16", "u32", "u64", "u128", "usize"} {
		rules[name] = constant(Zero)
	}
	for _, name := range []string{"f32", "f64"} {
		rules[name] = constant(ZeroFloat)
	}
	for _, name := range []string{"Vec", "VecDeque", "HashMap", "HashSet", "BTreeMap", "BTreeSet", "BinaryHeap", "LinkedList"} {
		rules[name] = collection(name)
	}
	return &Table{rules: rules}
})

// Go returns the table used for Go output: the standard table plus Go's
// predeclared types, with nil for pointers, slices, maps, channels and
// interfaces.
var Go = sync.OnceValue(func() *Table {
	tb := Standard()
	for _, name := range []string{"int", "int8", "int16", "int32", "int64", "uint", "uint8", "uint16", "uint32", "uint64", "uintptr", "byte", "rune"} {
		tb = tb.Extend(name, constant(Zero))
	}
	tb = tb.Extend("float32", constant(ZeroFloat)).
		Extend("float64", constant(ZeroFloat)).
		Extend("string", constant(EmptyStr)).
		Extend("error", constant(NilValue)).
		Extend("any", constant(NilValue))
	tb.fallback = nilRule
	return tb
})

func nilRule(t typesystem.Type, _ func(typesystem.Type) (Expr, bool)) (Expr, bool) {
	switch typ := t.(type) {
	case typesystem.TRef, typesystem.TSlice:
		return Expr{Kind: NilValue, Type: t}, true
	case typesystem.TApp:
		switch typesystem.HeadName(typ) {
		case "map", "chan":
			return Expr{Kind: NilValue, Type: t}, true
		}
	}
	return Expr{}, false
}

func constant(kind ExprKind) Rule {
	return func(t typesystem.Type, _ func(typesystem.Type) (Expr, bool)) (Expr, bool) {
		return Expr{Kind: kind, Type: t}, true
	}
}

func collection(name string) Rule {
	return func(t typesystem.Type, _ func(typesystem.Type) (Expr, bool)) (Expr, bool) {
		return Expr{Kind: EmptyCollection, Type: t, Collection: name}, true
	}
}

// okRule: Result<T, E> defaults to Ok(default T). A bare alias such as
// fmt::Result is Result<(), Error>.
func okRule(t typesystem.Type, infer func(typesystem.Type) (Expr, bool)) (Expr, bool) {
	var okType typesystem.Type = typesystem.Unit
	if app, ok := t.(typesystem.TApp); ok && len(app.Args) > 0 {
		okType = app.Args[0]
	}
	inner, ok := infer(okType)
	if !ok {
		return Expr{}, false
	}
	return Expr{Kind: OkValue, Type: t, Elems: []Expr{inner}}, true
}
