// Package evaluator implements the shadow entity (spec §4.G) — the hardest
// subsystem: it decorates a mutable entity.Entity step by step, providing
// lazy, memoized, phase-aware attribute resolution with a strict
// prior/current dualism within each step. Grounded on the teacher's ControlFlow pattern
// (internal/interp/evaluator/context.go, an explicit state enum replacing
// scattered booleans — repurposed here for Idle/InSubstep(phase)) and its
// CallStack recursion guard (internal/interp/evaluator/callstack.go,
// repurposed as the per-attribute "being-resolved" marker).
package evaluator

import (
	"sync"

	"github.com/joshsim/joshcore/internal/callable"
	"github.com/joshsim/joshcore/internal/entity"
	"github.com/joshsim/joshcore/internal/errkind"
	"github.com/joshsim/joshcore/internal/values"
)

// substepState is the shadow's state machine (§4.G): Idle or InSubstep(phase).
type substepState int

const (
	idle substepState = iota
	inSubstep
)

// Shadow decorates a mutable entity during one step. A Shadow is created
// once per patch/organism per replicate and reused across every step's
// substeps; StartSubstep/EndSubstep bracket each phase.
type Shadow struct {
	mu    sync.Mutex
	ent   *entity.Entity
	st    substepState
	phase string

	resolved      map[string]bool
	cache         map[string]values.Value
	beingResolved map[string]bool

	priorValues   map[string]values.Value
	priorCaptured bool

	here *Shadow // the patch shadow, for organism shadows; nil otherwise
	meta *Shadow // the simulation shadow, shared by every entity
}

// New constructs a shadow decorating ent. here is the owning patch's shadow
// (nil for a patch or the simulation root); meta is the simulation-wide
// shadow shared by every entity in the replicate.
func New(ent *entity.Entity, here, meta *Shadow) *Shadow {
	return &Shadow{ent: ent, here: here, meta: meta}
}

// Entity returns the underlying decorated entity.
func (s *Shadow) Entity() *entity.Entity { return s.ent }

// Has implements callable.Scope's "has(name) -> bool" (§6): whether name is
// one of the decorated entity's declared attributes.
func (s *Shadow) Has(name string) bool {
	return s.ent.HasAttribute(name)
}

// GetAttributes implements callable.Scope's "getAttributes() ->
// iterable<string>" (§6): the decorated entity's declared attribute names.
func (s *Shadow) GetAttributes() []string {
	return s.ent.GetAttributeNames()
}

// StartSubstep transitions Idle→InSubstep(phase), per-attribute resolution
// caches are cleared, and — on the very first substep of the step — the
// prior snapshot is captured. Starting a substep while already InSubstep is
// a fatal programming error (§4.G).
func (s *Shadow) StartSubstep(phase string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st == inSubstep {
		return errkind.Newf(errkind.IllegalSubstepState,
			"startSubstep(%s) called while already InSubstep(%s)", phase, s.phase)
	}
	if !s.priorCaptured {
		s.priorValues = s.ent.SnapshotValues()
		s.priorCaptured = true
	}
	s.st = inSubstep
	s.phase = phase
	s.resolved = make(map[string]bool)
	s.cache = make(map[string]values.Value)
	s.beingResolved = make(map[string]bool)
	return nil
}

// EndSubstep transitions InSubstep(phase)→Idle. Calling it while Idle is a
// fatal programming error.
func (s *Shadow) EndSubstep() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.st != inSubstep {
		return errkind.New(errkind.IllegalSubstepState, "endSubstep() called while Idle")
	}
	s.st = idle
	s.phase = ""
	return nil
}

// BeginNextStep clears the captured prior snapshot so the next step's first
// substep re-captures it from the (now previous step's) current values.
// Called by the stepper between steps, never mid-step.
func (s *Shadow) BeginNextStep() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.priorCaptured = false
}

// GetAttributeValue implements callable.Scope and §4.G's resolution
// algorithm: unknown-attribute check, substep-cache fast path, no-handlers
// fast path, then the handler-group slow path with circular-dependency
// detection.
func (s *Shadow) GetAttributeValue(name string) (values.Value, error) {
	s.mu.Lock()

	if !s.ent.HasAttribute(name) {
		s.mu.Unlock()
		return values.Value{}, errkind.Newf(errkind.UnknownAttribute, "unknown attribute %q", name)
	}
	if s.st != inSubstep {
		s.mu.Unlock()
		return values.Value{}, errkind.New(errkind.IllegalSubstepState, "getAttributeValue called while Idle")
	}
	if s.resolved[name] {
		v := s.cache[name]
		s.mu.Unlock()
		return v, nil
	}
	if s.beingResolved[name] {
		s.mu.Unlock()
		return values.Value{}, errkind.Newf(errkind.CircularDependency, "circular dependency resolving %q", name)
	}

	if s.ent.HasNoHandlers(name, s.phase) {
		prior := s.priorValues[name]
		s.resolved[name] = true
		s.cache[name] = prior
		s.mu.Unlock()
		return prior, nil
	}

	handlers, ok := s.ent.GetEventHandlers(name, s.phase)
	s.beingResolved[name] = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		delete(s.beingResolved, name)
		s.mu.Unlock()
	}()

	var result values.Value
	var matched bool
	var err error
	if ok {
		result, matched, err = s.runHandlers(handlers)
		if err != nil {
			return values.Value{}, err
		}
	}
	if !matched {
		// No group registered, or none of its handlers' selectors matched:
		// carry the prior value forward (§4.G step 4 "else carry prior
		// forward").
		s.mu.Lock()
		result = s.priorValues[name]
		s.mu.Unlock()
	} else {
		if err := s.ent.SetAttributeValue(name, result); err != nil {
			return values.Value{}, err
		}
	}

	s.mu.Lock()
	s.resolved[name] = true
	s.cache[name] = result
	s.mu.Unlock()
	return result, nil
}

// runHandlers evaluates a handler group's pairs in registration order,
// returning the first whose selector matches (absent selector ≡ true).
func (s *Shadow) runHandlers(handlers []callable.HandlerPair) (values.Value, bool, error) {
	for _, h := range handlers {
		matched, err := h.Matches(s)
		if err != nil {
			return values.Value{}, false, errkind.Wrap(errkind.HandlerError, err, "selector evaluation failed")
		}
		if !matched {
			continue
		}
		result, err := h.Body(s)
		if err != nil {
			return values.Value{}, false, errkind.Wrap(errkind.HandlerError, err, "handler body evaluation failed")
		}
		return result, true, nil
	}
	return values.Value{}, false, nil
}

// GetPriorAttribute returns the underlying entity's pre-substep value for
// name, captured once at the start of the step's first substep and stable
// for the whole step, independent of any in-substep writes (§4.G).
func (s *Shadow) GetPriorAttribute(name string) (values.Value, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.ent.HasAttribute(name) {
		return values.Value{}, errkind.Newf(errkind.UnknownAttribute, "unknown attribute %q", name)
	}
	return s.priorValues[name], nil
}

// GetSynthetic implements callable.Scope's synthetic name resolution:
// current (this shadow), prior (a decorator over this shadow's prior
// values), here (the patch shadow), meta (the simulation shadow).
func (s *Shadow) GetSynthetic(name string) (callable.Scope, error) {
	switch name {
	case "current":
		return s, nil
	case "prior":
		return priorScope{s}, nil
	case "here":
		if s.here == nil {
			return nil, errkind.New(errkind.UnsupportedOp, `"here" is not available outside an organism's scope`)
		}
		return s.here, nil
	case "meta":
		if s.meta == nil {
			return nil, errkind.New(errkind.UnsupportedOp, `"meta" is not available`)
		}
		return s.meta, nil
	default:
		return nil, errkind.Newf(errkind.UnsupportedOp, "unknown synthetic scope name %q", name)
	}
}

// priorScope is the "prior" synthetic name's decorator: attribute lookups
// route to the shadow's pre-substep snapshot instead of triggering
// resolution (§4.G "prior ... a decorator returning prior values").
type priorScope struct{ s *Shadow }

func (p priorScope) GetAttributeValue(name string) (values.Value, error) {
	return p.s.GetPriorAttribute(name)
}

func (p priorScope) Has(name string) bool {
	return p.s.Has(name)
}

func (p priorScope) GetAttributes() []string {
	return p.s.GetAttributes()
}

func (p priorScope) GetSynthetic(name string) (callable.Scope, error) {
	return p.s.GetSynthetic(name)
}
