// Package callable implements compiled callables (spec §4.F): an opaque
// closure taking a scope and returning a Value, plus an optional boolean
// selector paired with a handler body. Grounded on the teacher's
// UserFunction.Call shape (internal/interp/functions.go) and the
// Go-closure-as-callable bridge in internal/interp/ffi_callback.go, reduced
// here to plain Go function types since the compiler/parser that would
// produce these closures from source text is out of scope (§1).
package callable

import "github.com/joshsim/joshcore/internal/values"

// Scope supplies attribute lookup to a running callable. The shadow entity
// (package evaluator) is always the scope passed to apply (§4.F); Scope is
// declared here, not in package evaluator, to avoid an import cycle between
// callable and evaluator.
type Scope interface {
	// GetAttributeValue resolves name against the scope, triggering
	// on-demand evaluator resolution when the scope is a shadow entity.
	GetAttributeValue(name string) (values.Value, error)
	// Has reports whether name is a declared attribute of the scope
	// (§6 "has(name) -> bool").
	Has(name string) bool
	// GetAttributes lists the scope's declared attribute names (§6
	// "getAttributes() -> iterable<string>").
	GetAttributes() []string
	// GetSynthetic resolves one of the evaluator's synthetic scope names
	// (current, prior, here, meta) to a nested Scope.
	GetSynthetic(name string) (Scope, error)
}

// Callable is a compiled body: apply(scope) -> Value (§4.F).
type Callable func(scope Scope) (values.Value, error)

// Selector is a compiled callable that must evaluate to a boolean (§4.F "a
// selector is a callable returning a boolean").
type Selector func(scope Scope) (bool, error)

// Apply runs c against scope.
func (c Callable) Apply(scope Scope) (values.Value, error) { return c(scope) }

// Evaluate runs s against scope.
func (s Selector) Evaluate(scope Scope) (bool, error) { return s(scope) }

// HandlerPair is (optional selector, body) — an entry in a handler group
// (§4.E, §4.G step 4). A nil Selector is the absent-selector case, which
// the evaluator treats as always-true.
type HandlerPair struct {
	Selector Selector // nil means "absent selector ≡ true"
	Body     Callable
}

// Matches evaluates p's selector against scope, per §4.G step 4: "absent
// selector ≡ true".
func (p HandlerPair) Matches(scope Scope) (bool, error) {
	if p.Selector == nil {
		return true, nil
	}
	return p.Selector(scope)
}
