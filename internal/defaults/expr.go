package defaults

import (
	"strings"

	"github.com/funvibe/sumshape/internal/oracle"
	"github.com/funvibe/sumshape/internal/typesystem"
)

type ExprKind int

const (
	EmptyOptional   ExprKind = iota // None
	EmptyString                     // String::new()
	EmptyStr                        // ""
	EmptySlice                      // &[]
	EmptyCollection                 // Vec::new(), HashMap::new(), ...
	Zero                            // 0
	ZeroFloat                       // 0.0
	False                           // false
	NulChar                         // '\0'
	UnitValue                       // ()
	TupleValue                      // (a, b)
	OkValue                         // Ok(inner)
	StaticRef                       // reference to a process-wide static holding inner
	CtorCall                        // oracle-provided constructor
	NilValue                        // nil, Go only
)

// Expr is an inferred default value. It is dialect-neutral; renderers
// decide the concrete syntax.
type Expr struct {
	Kind ExprKind
	// Type is the type the default was inferred for.
	Type typesystem.Type
	// Collection is the container name for EmptyCollection.
	Collection string
	// Elems holds tuple elements, or the single inner value of OkValue and
	// StaticRef.
	Elems []Expr
	Ctor  oracle.Constructor
}

// Inner returns the wrapped value of OkValue and StaticRef.
func (e Expr) Inner() Expr {
	return e.Elems[0]
}

// String renders the expression in Rust syntax. StaticRef renders as a
// lazily initialised static.
func (e Expr) String() string {
	switch e.Kind {
	case EmptyOptional:
		return "None"
	case EmptyString:
		return "String::new()"
	case EmptyStr:
		return `""`
	case EmptySlice:
		return "&[]"
	case EmptyCollection:
		return e.Collection + "::new()"
	case Zero:
		return "0"
	case ZeroFloat:
		return "0.0"
	case False:
		return "false"
	case NulChar:
		return `'\0'`
	case UnitValue:
		return "()"
	case TupleValue:
		parts := make([]string, len(e.Elems))
		for i, el := range e.Elems {
			parts[i] = el.String()
		}
		if len(parts) == 1 {
			return "(" + parts[0] + ",)"
		}
		return "(" + strings.Join(parts, ", ") + ")"
	case OkValue:
		return "Ok(" + e.Inner().String() + ")"
	case StaticRef:
		inner := e.Inner()
		ref := e.Type.(typesystem.TRef)
		return "{ static DEFAULT: ::std::sync::OnceLock<" + ref.Elem.String() + "> = ::std::sync::OnceLock::new(); DEFAULT.get_or_init(|| " + inner.String() + ") }"
	case CtorCall:
		return e.Ctor.Expr
	case NilValue:
		return "nil"
	default:
		return "<invalid>"
	}
}

// Walk visits e and every nested expression, depth first.
func (e Expr) Walk(visit func(Expr)) {
	visit(e)
	for _, el := range e.Elems {
		el.Walk(visit)
	}
}
