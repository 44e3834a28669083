package parser

import (
	"testing"

	"github.com/funvibe/sumshape/internal/diagnostics"
	"github.com/funvibe/sumshape/internal/shape"
	"github.com/funvibe/sumshape/internal/traits"
	"github.com/funvibe/sumshape/internal/typesystem"
)

func TestParsePattern(t *testing.T) {
	testCases := []struct {
		name  string
		input string
		want  string
	}{
		{"single_tuple", "(T) where T: Trait", "(T) where T: Trait"},
		{"tuple_and_unit", "(T) | ()", "(T) | ()"},
		{"empty_struct_is_unit", "{}", "()"},
		{"variadic", "(T, ..)", "(T, ..)"},
		{"placeholder", "(_, T)", "(_, T)"},
		{"dollar_prefix", "$(T) | $()", "(T) | ()"},
		{"struct", "{ name: T, id: u64, .. }", "{ name: T, id: u64, .. }"},
		{"impl_field", "(impl Copy + Clone, T)", "(impl Copy + Clone, T)"},
		{"concrete_types", "(&'a mut str, Vec<u8>, (i32, bool), [u8; 4])", "(&mut str, Vec<u8>, (i32, bool), [u8; 4])"},
		{"wildcard", "_", "() | (..) | { .. }"},
		{"named_fragments", "Foo(T) | Bar { x: T } | Baz", "Foo(T) | Bar{ x: T } | Baz"},
		{"dispatch", "(T) where T: ^AsRef<str>", "(T) where T: ^AsRef<str>"},
		{"assoc", "(T) where T: ^Add<i32, Output = i32>", "(T) where T: ^Add<i32, Output = i32>"},
		{"multi_predicate", "(T, U) where T: Copy, U: Clone + Default,", "(T, U) where T: Copy, U: Clone + Default"},
		{"concrete_subject", "(T) where String: ^AsRef<str>, T: Trait", "(T) where String: ^AsRef<str>, T: Trait"},
		{"go_qualified", "{ Name: T } where T: ^fmt.Stringer", "{ Name: T } where T: ^fmt.Stringer"},
		{"path_bound", "(T) where T: std::ops::Neg<Output = T>", "(T) where T: std::ops::Neg<Output = T>"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			set, diags := ParsePattern(tc.input)
			if diags.Len() != 0 {
				t.Fatalf("ParsePattern(%q) errors: %v", tc.input, diags.Items())
			}
			if got := set.String(); got != tc.want {
				t.Errorf("String() = %q; want %q", got, tc.want)
			}
		})
	}
}

func TestParsePatternFieldKinds(t *testing.T) {
	set, diags := ParsePattern("(T, _, i32, impl Copy, ..)")
	if diags.Len() != 0 {
		t.Fatalf("errors: %v", diags.Items())
	}
	want := []shape.FieldKind{shape.FieldGeneric, shape.FieldPlaceholder, shape.FieldConcrete, shape.FieldImpl, shape.FieldVariadic}
	fields := set.Fragments[0].Fields
	if len(fields) != len(want) {
		t.Fatalf("got %d fields; want %d", len(fields), len(want))
	}
	for i, k := range want {
		if fields[i].Kind != k {
			t.Errorf("field %d kind = %v; want %v", i, fields[i].Kind, k)
		}
	}
}

func TestParsePatternErrors(t *testing.T) {
	testCases := []struct {
		name  string
		input string
	}{
		{"range", "(T, ..3)"},
		{"lifetime_bound", "(T) where 'a: Copy"},
		{"maybe_sized", "(T) where T: ?Sized"},
		{"dispatch_in_impl", "(impl ^Copy)"},
		{"named_variadic", "{ rest: .. }"},
		{"unclosed", "(T"},
		{"trailing_garbage", "(T) )"},
		{"empty_where", "(T) where"},
		{"assoc_before_arg", "(T) where T: Add<Output = i32, i32>"},
		{"underscore_type", "(Vec<_>)"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			set, diags := ParsePattern(tc.input)
			if set != nil {
				t.Errorf("ParsePattern(%q) = %s; want nil", tc.input, set)
			}
			if diags.Len() != 1 {
				t.Fatalf("got %d diagnostics; want 1", diags.Len())
			}
			if code := diags.Items()[0].Code; code != diagnostics.ErrS010 {
				t.Errorf("code = %s; want S010", code)
			}
		})
	}
}

func TestParseType(t *testing.T) {
	testCases := []struct {
		input string
		want  typesystem.Type
	}{
		{"i32", typesystem.Named("i32")},
		{"std::string::String", typesystem.Named("std::string::String")},
		{"Option<Box<T>>", typesystem.App("Option", typesystem.App("Box", typesystem.Named("T")))},
		{"Cow<'a, str>", typesystem.App("Cow", typesystem.Named("str"))},
		{"&'static [u8]", typesystem.TRef{Elem: typesystem.TSlice{Elem: typesystem.Named("u8")}}},
		{"()", typesystem.Unit},
		{"(i32)", typesystem.Named("i32")},
		{"(i32,)", typesystem.TTuple{Elements: []typesystem.Type{typesystem.Named("i32")}}},
		{"Self::Output", typesystem.TAssoc{Base: typesystem.Named("Self"), Name: "Output"}},
		{"*time.Time", typesystem.TRef{Elem: typesystem.TCon{Name: "Time", Module: "time"}}},
		{"[]byte", typesystem.TSlice{Elem: typesystem.Named("byte")}},
		{"Box<dyn Error + Send>", typesystem.App("Box", typesystem.TDyn{Bounds: []typesystem.Bound{{Trait: "Error"}, {Trait: "Send"}}})},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := ParseType(tc.input)
			if err != nil {
				t.Fatalf("ParseType(%q) error: %v", tc.input, err)
			}
			if !typesystem.Equal(got, tc.want) {
				t.Errorf("ParseType(%q) = %s; want %s", tc.input, got, tc.want)
			}
		})
	}
}

func TestParseBound(t *testing.T) {
	b, err := ParseBound("^Add<i32, Output = i64>")
	if err != nil {
		t.Fatalf("ParseBound error: %v", err)
	}
	if !b.Dispatch || b.Trait != "Add" || len(b.Args) != 1 || len(b.Assoc) != 1 {
		t.Errorf("ParseBound = %+v", b)
	}

	if _, err := ParseBound("Add<"); err == nil {
		t.Errorf("ParseBound(\"Add<\") = nil error")
	}

	bs, err := ParseBounds("Copy + Clone")
	if err != nil || len(bs) != 2 {
		t.Errorf("ParseBounds = %v, %v", bs, err)
	}
}

func TestParseTrait(t *testing.T) {
	src := `
/// Shifts right.
#[doc(alias = ">>")]
pub trait Shr<Rhs = Self> {
    type Output;
    #[must_use]
    fn shr(self, rhs: Rhs) -> Self::Output;
}`
	bp, err := ParseTrait(src)
	if err != nil {
		t.Fatalf("ParseTrait error: %v", err)
	}
	if bp.Name != "Shr" {
		t.Errorf("Name = %q; want Shr", bp.Name)
	}
	if len(bp.Params) != 1 || bp.Params[0].Name != "Rhs" || bp.Params[0].Default.String() != "Self" {
		t.Errorf("Params = %+v", bp.Params)
	}
	if len(bp.AssocTypes) != 1 || bp.AssocTypes[0] != "Output" {
		t.Errorf("AssocTypes = %v", bp.AssocTypes)
	}
	if len(bp.Methods) != 1 {
		t.Fatalf("Methods = %v", bp.Methods)
	}
	if got, want := bp.Methods[0].Signature(), "fn shr(self, rhs: Rhs) -> Self::Output"; got != want {
		t.Errorf("Signature() = %q; want %q", got, want)
	}
}

func TestParseTraitReceiversAndBodies(t *testing.T) {
	src := `trait Store<'a>: Clone where Self: Sized {
    const LIMIT: usize = 4;
    fn get(&self, key: &str) -> Option<&'a [u8]>;
    fn put(&mut self, key: String, value: Vec<u8>) { let _ = "{"; }
    fn take(mut self) -> Self;
    fn typed(self: &Self) -> bool { true }
    fn new() -> Self;
}`
	bp, err := ParseTrait(src)
	if err != nil {
		t.Fatalf("ParseTrait error: %v", err)
	}
	want := []traits.Receiver{traits.ByRef, traits.ByMutRef, traits.ByValue, traits.ByRef, traits.NoReceiver}
	if len(bp.Methods) != len(want) {
		t.Fatalf("got %d methods; want %d", len(bp.Methods), len(want))
	}
	for i, r := range want {
		if bp.Methods[i].Receiver != r {
			t.Errorf("method %s receiver = %v; want %v", bp.Methods[i].Name, bp.Methods[i].Receiver, r)
		}
	}
	if got := bp.Methods[0].Return.String(); got != "Option<&[u8]>" {
		t.Errorf("get return = %q", got)
	}
}

func TestParseTraits(t *testing.T) {
	bps, err := ParseTraits("trait A { fn a(&self); }\ntrait B<T> { fn b(&self) -> T; }")
	if err != nil {
		t.Fatalf("ParseTraits error: %v", err)
	}
	if len(bps) != 2 || bps[0].Name != "A" || bps[1].Name != "B" {
		t.Errorf("ParseTraits = %v", bps)
	}
}

func TestIsGenericName(t *testing.T) {
	for _, s := range []string{"T", "U1", "ID"} {
		if !IsGenericName(s) {
			t.Errorf("IsGenericName(%q) = false", s)
		}
	}
	for _, s := range []string{"String", "i32", "_", "Tx"} {
		if IsGenericName(s) {
			t.Errorf("IsGenericName(%q) = true", s)
		}
	}
}
