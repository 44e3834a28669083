// Package render prints synthesized impls and derivations as source code.
package render

import (
	"fmt"
	"strings"

	"github.com/funvibe/sumshape/internal/derive"
	"github.com/funvibe/sumshape/internal/dispatch"
	"github.com/funvibe/sumshape/internal/subject"
	"github.com/funvibe/sumshape/internal/verify"
)

// Item is everything generated for one enum.
type Item struct {
	Enum *subject.Enum
	// EmitEnum prints the enum definition itself (enums declared in the
	// project file rather than in source).
	EmitEnum    bool
	Assertions  []verify.Assertion
	Impls       []*dispatch.Impl
	Derivations []*derive.Derivation
	// PointerVariants names Go variants whose methods need a pointer
	// receiver, so only '*V' implements the sum type.
	PointerVariants map[string]bool
}

// uniqueAssertions drops repeats of the same 'Type: Bound' pair.
func uniqueAssertions(as []verify.Assertion) []verify.Assertion {
	seen := make(map[string]bool, len(as))
	var out []verify.Assertion
	for _, a := range as {
		key := a.String()
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, a)
	}
	return out
}

func paramNames(m dispatch.Method) string {
	names := make([]string, len(m.Params))
	for i, p := range m.Params {
		names[i] = p.Name
	}
	return strings.Join(names, ", ")
}

func unsupported(dialect string, what any) error {
	return fmt.Errorf("render %s: %v is not supported", dialect, what)
}
