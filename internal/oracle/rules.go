package oracle

import (
	"fmt"
	"strings"

	"github.com/google/mangle/analysis"
	"github.com/google/mangle/ast"
	_ "github.com/google/mangle/builtin"
	"github.com/google/mangle/engine"
	"github.com/google/mangle/factstore"
	"github.com/google/mangle/parse"
)

// Predicates a rules program derives.
const (
	ImplementsPredicate  = "implements"   // implements(Type, Bound)
	DefaultCtorPredicate = "default_ctor" // default_ctor(Type, Expr)
)

// LoadRules evaluates a Datalog program and collects the derived
// implements/2 and default_ctor/2 facts. Types and bounds are strings in
// pattern syntax:
//
//	copy("i32"). copy("u8").
//	implements(T, "Clone") :- copy(T).
//	implements("Storage", "Trait").
//	default_ctor("Storage", "Storage::empty()").
func LoadRules(source string) (*Facts, error) {
	unit, err := parse.Unit(strings.NewReader(source))
	if err != nil {
		return nil, fmt.Errorf("rules: parse error: %w", err)
	}
	programInfo, err := analysis.AnalyzeOneUnit(unit, nil)
	if err != nil {
		return nil, fmt.Errorf("rules: analysis error: %w", err)
	}
	store := factstore.NewSimpleInMemoryStore()
	if _, err := engine.EvalProgramWithStats(programInfo, store); err != nil {
		return nil, fmt.Errorf("rules: evaluation error: %w", err)
	}

	ff := FactsFile{Facts: map[string][]string{}, Defaults: map[string]string{}}
	err = store.GetFacts(ast.NewQuery(ast.PredicateSym{Symbol: ImplementsPredicate, Arity: 2}), func(a ast.Atom) error {
		typ, bound, err := stringArgs(a)
		if err != nil {
			return err
		}
		ff.Facts[typ] = append(ff.Facts[typ], bound)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	err = store.GetFacts(ast.NewQuery(ast.PredicateSym{Symbol: DefaultCtorPredicate, Arity: 2}), func(a ast.Atom) error {
		typ, expr, err := stringArgs(a)
		if err != nil {
			return err
		}
		ff.Defaults[typ] = expr
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}

	facts := NewFacts()
	if err := facts.Load(ff); err != nil {
		return nil, fmt.Errorf("rules: %w", err)
	}
	return facts, nil
}

func stringArgs(a ast.Atom) (string, string, error) {
	out := make([]string, 2)
	for i, arg := range a.Args[:2] {
		c, ok := arg.(ast.Constant)
		if !ok || c.Type != ast.StringType {
			return "", "", fmt.Errorf("%s: argument %d must be a string, got %v", a.Predicate.Symbol, i, arg)
		}
		out[i] = c.Symbol
	}
	return out[0], out[1], nil
}
