package diagnostics

import (
	"fmt"
	"strings"

	"github.com/funvibe/sumshape/internal/token"
)

type ErrorCode string

const (
	ErrS001 ErrorCode = "S001" // variant matches no shape fragment
	ErrS002 ErrorCode = "S002" // predicate bound not satisfied
	ErrS003 ErrorCode = "S003" // predicate on a symbol no fragment introduces
	ErrS004 ErrorCode = "S004" // generic symbol without predicates
	ErrS005 ErrorCode = "S005" // dispatch bound leaves an associated type unpinned
	ErrS006 ErrorCode = "S006" // no default for a non-forwarding arm
	ErrS007 ErrorCode = "S007" // dispatch on an unknown trait
	ErrS008 ErrorCode = "S008" // enum has no variants
	ErrS009 ErrorCode = "S009" // variant accepted by more than one fragment
	ErrS010 ErrorCode = "S010" // malformed pattern
	ErrS011 ErrorCode = "S011" // trait method cannot be forwarded
)

var codeTitles = map[ErrorCode]string{
	ErrS001: "shape mismatch",
	ErrS002: "unsatisfied bound",
	ErrS003: "dangling predicate",
	ErrS004: "unbound symbol",
	ErrS005: "ambiguous associated type",
	ErrS006: "unsatisfiable dispatch",
	ErrS007: "unknown trait",
	ErrS008: "empty subject",
	ErrS009: "overlapping fragments",
	ErrS010: "malformed pattern",
	ErrS011: "undispatchable method",
}

// Title is the short human name of a code.
func (c ErrorCode) Title() string {
	return codeTitles[c]
}

type Severity int

const (
	SeverityNote Severity = iota
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeverityNote:
		return "note"
	case SeverityWarning:
		return "warning"
	default:
		return "error"
	}
}

var codeSeverity = map[ErrorCode]Severity{
	ErrS004: SeverityNote,
	ErrS009: SeverityWarning,
}

// fatal codes stop the run at the stage that raised them.
var fatalCodes = map[ErrorCode]bool{
	ErrS003: true,
	ErrS005: true,
	ErrS006: true,
	ErrS007: true,
	ErrS008: true,
	ErrS010: true,
	ErrS011: true,
}

// Attempt records why one fragment rejected a variant.
type Attempt struct {
	Fragment int
	Reason   string
}

// DiagnosticError is a single attributed finding. Fields that do not apply
// to a code keep their zero value; Fragment and Field use -1 for "none".
type DiagnosticError struct {
	Code     ErrorCode
	Severity Severity
	Message  string

	Enum      string
	Variant   string
	Fragment  int
	Field     int
	FieldName string
	Symbol    string
	Bound     string
	Method    string
	Attempts  []Attempt

	File   string
	Line   int
	Column int
}

func (e *DiagnosticError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%s]", e.Severity, e.Code)
	if loc := e.Location(); loc != "" {
		b.WriteString(" ")
		b.WriteString(loc)
	}
	b.WriteString(": ")
	b.WriteString(e.Message)
	for _, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  fragment %d: %s", a.Fragment, a.Reason)
	}
	return b.String()
}

// Location renders the most specific position known for the finding.
func (e *DiagnosticError) Location() string {
	var parts []string
	if e.File != "" {
		switch {
		case e.Line > 0 && e.Column > 0:
			parts = append(parts, fmt.Sprintf("%s:%d:%d", e.File, e.Line, e.Column))
		case e.Line > 0:
			parts = append(parts, fmt.Sprintf("%s:%d", e.File, e.Line))
		default:
			parts = append(parts, e.File)
		}
	}
	switch {
	case e.Enum != "" && e.Variant != "":
		parts = append(parts, e.Enum+"::"+e.Variant)
	case e.Enum != "":
		parts = append(parts, e.Enum)
	case e.Line > 0 && e.File == "":
		parts = append(parts, fmt.Sprintf("%d:%d", e.Line, e.Column))
	}
	return strings.Join(parts, " ")
}

// Fatal reports whether the finding aborts the run.
func (e *DiagnosticError) Fatal() bool {
	return fatalCodes[e.Code]
}

func New(code ErrorCode, msg string) *DiagnosticError {
	sev, ok := codeSeverity[code]
	if !ok {
		sev = SeverityError
	}
	return &DiagnosticError{Code: code, Severity: sev, Message: msg, Fragment: -1, Field: -1}
}

func NewError(code ErrorCode, tok token.Token, msg string) *DiagnosticError {
	d := New(code, msg)
	d.Line = tok.Line
	d.Column = tok.Column
	return d
}

func NewShapeMismatch(enum, variant string, attempts []Attempt) *DiagnosticError {
	d := New(ErrS001, fmt.Sprintf("variant `%s` matches no shape fragment", variant))
	d.Enum = enum
	d.Variant = variant
	d.Attempts = attempts
	return d
}

func NewUnsatisfiedBound(enum, variant, symbol, typ, bound string, field int, fieldName string) *DiagnosticError {
	d := New(ErrS002, fmt.Sprintf("`%s` bound to %s does not implement `%s`", typ, symbol, bound))
	d.Enum = enum
	d.Variant = variant
	d.Symbol = symbol
	d.Bound = bound
	d.Field = field
	d.FieldName = fieldName
	return d
}

func NewDanglingPredicate(symbol string) *DiagnosticError {
	d := New(ErrS003, fmt.Sprintf("predicate on `%s` but no fragment introduces it", symbol))
	d.Symbol = symbol
	return d
}

func NewUnboundSymbol(symbol string) *DiagnosticError {
	d := New(ErrS004, fmt.Sprintf("generic `%s` has no predicates; any type is accepted", symbol))
	d.Symbol = symbol
	return d
}

func NewAmbiguousAssociatedType(bound string, missing []string) *DiagnosticError {
	d := New(ErrS005, fmt.Sprintf("dispatch of `%s` needs associated types pinned: %s", bound, strings.Join(missing, ", ")))
	d.Bound = bound
	return d
}

func NewUnsatisfiable(enum, variant, method, bound, ret string) *DiagnosticError {
	d := New(ErrS006, fmt.Sprintf("cannot dispatch `%s::%s` for variant `%s`: no default for return type `%s`", bound, method, variant, ret))
	d.Enum = enum
	d.Variant = variant
	d.Method = method
	d.Bound = bound
	return d
}

func NewUnknownTrait(bound string) *DiagnosticError {
	d := New(ErrS007, fmt.Sprintf("`%s` is not a registered trait", bound))
	d.Bound = bound
	return d
}

func NewEmptySubject(enum string) *DiagnosticError {
	d := New(ErrS008, "enum has no variants")
	d.Enum = enum
	return d
}

func NewOverlap(enum, variant string, first, other int) *DiagnosticError {
	d := New(ErrS009, fmt.Sprintf("variant `%s` matched fragment %d but fragment %d also accepts it", variant, first, other))
	d.Enum = enum
	d.Variant = variant
	d.Fragment = first
	return d
}

func NewUndispatchable(bound, method, reason string) *DiagnosticError {
	d := New(ErrS011, fmt.Sprintf("cannot forward `%s::%s`: %s", bound, method, reason))
	d.Bound = bound
	d.Method = method
	return d
}
