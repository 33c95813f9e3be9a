// Package errkind defines the engine's error taxonomy (spec §7): a small set
// of named error kinds plus a structured EngineError carrying entity,
// attribute and phase context. Errors raised inside a handler propagate as
// Go errors and are never used for control flow inside the evaluator.
package errkind

import "fmt"

// Kind enumerates the fatal error categories the core can raise.
type Kind string

const (
	UnitMismatch        Kind = "unit-mismatch"
	NoConversion        Kind = "no-conversion"
	UnsupportedOp       Kind = "unsupported-op"
	EmptyDistribution   Kind = "empty-distribution"
	SizeMismatch        Kind = "size-mismatch"
	BadExponent         Kind = "bad-exponent"
	UnknownAttribute    Kind = "unknown-attribute"
	UnknownSimulation   Kind = "unknown-simulation"
	CircularDependency  Kind = "circular-dependency"
	IllegalSubstepState Kind = "illegal-substep-state"
	HandlerError        Kind = "handler-error"
	ExportError         Kind = "export-error"
)

// EngineError is the structured report every error kind maps to (§7):
// entity name, attribute name and phase, plus the underlying cause.
type EngineError struct {
	Kind      Kind
	Entity    string
	Attribute string
	Phase     string
	Message   string
	Err       error
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	loc := e.Entity
	if e.Attribute != "" {
		loc += "." + e.Attribute
	}
	if e.Phase != "" {
		loc += "@" + e.Phase
	}
	if loc == "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("%s error at %s: %s", e.Kind, loc, e.Message)
}

// Unwrap implements error unwrapping for error chains.
func (e *EngineError) Unwrap() error {
	return e.Err
}

// New creates an EngineError with no entity/attribute/phase context. Callers
// that have that context should use WithLocation to attach it.
func New(kind Kind, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message}
}

// Newf creates an EngineError with a formatted message.
func Newf(kind Kind, format string, args ...any) *EngineError {
	return &EngineError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap creates an EngineError that preserves cause via Unwrap, used for
// HandlerError where the underlying callable failure must remain inspectable.
func Wrap(kind Kind, cause error, message string) *EngineError {
	return &EngineError{Kind: kind, Message: message, Err: cause}
}

// WithLocation returns a copy of e annotated with entity/attribute/phase
// context, matching the way the stepper and evaluator attach location
// information as an error propagates upward.
func (e *EngineError) WithLocation(entity, attribute, phase string) *EngineError {
	cp := *e
	cp.Entity = entity
	cp.Attribute = attribute
	cp.Phase = phase
	return &cp
}

// Is allows errors.Is(err, errkind.New(errkind.UnitMismatch, ""))-style
// checks by kind: any *EngineError target with the same Kind matches,
// whatever its message or location. Kind itself is a plain string type and
// not an error, so it cannot be passed to errors.Is directly; callers can
// also compare via errors.As + (*EngineError).Kind.
func (e *EngineError) Is(target error) bool {
	other, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Kind == other.Kind
}
