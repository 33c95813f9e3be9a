// Package entity implements the entity model (spec §3, §4.E): a named,
// typed record holding a mutable attribute map and a registry of
// event-handler groups keyed by (attribute, phase), plus parent/child
// (organism→patch) relationships. Grounded on the teacher's ObjectInstance
// (internal/interp/runtime/object.go) for the field-map/registry shape and
// method_registry.go's map[string][]*MethodInfo overload-list pattern,
// generalized from method names to (attribute, phase) handler groups.
package entity

import (
	"fmt"
	"sync"

	"github.com/joshsim/joshcore/internal/callable"
	"github.com/joshsim/joshcore/internal/errkind"
	"github.com/joshsim/joshcore/internal/values"
)

// HandlerKey identifies one event-handler group.
type HandlerKey struct {
	Attribute string
	Phase     string
}

// basePhase names the phase-independent fallback bucket the slow path
// falls back to when no phase-specific handler group exists (§4.G step 4).
const basePhase = ""

// Entity is a named, typed record (§3 Entity). Attribute names are fixed at
// construction; writing an unregistered name raises unknown-attribute.
type Entity struct {
	typeName string
	mu       sync.RWMutex

	attrNames map[string]bool
	values    map[string]values.Value
	handlers  map[HandlerKey][]callable.HandlerPair

	geoKey *GeoKey
	parent *Entity // organism's owning patch; nil for a patch or the simulation root

	frozen bool
}

// GeoKey is the dense-integer-grid geographic key shape decided for the
// Open Question in SPEC_FULL.md §9.
type GeoKey struct {
	Row, Col int
}

// New constructs a live (unfrozen) entity with the given type name and a
// fixed set of declared attribute names, each initialized to initial.
func New(typeName string, attrNames []string, initial map[string]values.Value) *Entity {
	e := &Entity{
		typeName:  typeName,
		attrNames: make(map[string]bool, len(attrNames)),
		values:    make(map[string]values.Value, len(attrNames)),
		handlers:  make(map[HandlerKey][]callable.HandlerPair),
	}
	for _, n := range attrNames {
		e.attrNames[n] = true
		if v, ok := initial[n]; ok {
			e.values[n] = v
		}
	}
	return e
}

// EntityTypeName implements values.EntityRef.
func (e *Entity) EntityTypeName() string { return e.typeName }

// IsMutableRef implements values.EntityRef.
func (e *Entity) IsMutableRef() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return !e.frozen
}

// RefKey implements values.EntityRef, using the geographic key if the
// entity has one, else a pointer-derived identity.
func (e *Entity) RefKey() string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.geoKey != nil {
		return e.typeName + fmtGeoKey(*e.geoKey)
	}
	return fmt.Sprintf("%s#%p", e.typeName, e)
}

func fmtGeoKey(k GeoKey) string {
	return "@" + itoa(k.Row) + "," + itoa(k.Col)
}

func itoa(n int) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}

// SetGeoKey attaches a geographic key to a patch entity.
func (e *Entity) SetGeoKey(k GeoKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.geoKey = &k
}

// GeoKeyOf returns the entity's geographic key, if any.
func (e *Entity) GeoKeyOf() (GeoKey, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.geoKey == nil {
		return GeoKey{}, false
	}
	return *e.geoKey, true
}

// SetParent establishes an organism→patch relationship.
func (e *Entity) SetParent(parent *Entity) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.parent = parent
}

// Parent returns the owning patch, or nil.
func (e *Entity) Parent() *Entity {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.parent
}

// GetAttributeValue returns the current value of name, or unknown-attribute
// if name was never declared.
func (e *Entity) GetAttributeValue(name string) (values.Value, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if !e.attrNames[name] {
		return values.Value{}, errkind.Newf(errkind.UnknownAttribute, "unknown attribute %q on %s", name, e.typeName)
	}
	return e.values[name], nil
}

// SetAttributeValue overwrites the current value of name. Raises
// unknown-attribute if name is not one of the entity's declared attributes,
// or illegal-substep-state if the entity has been frozen.
func (e *Entity) SetAttributeValue(name string, v values.Value) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.frozen {
		return errkind.Newf(errkind.IllegalSubstepState, "cannot write attribute %q on a frozen entity", name)
	}
	if !e.attrNames[name] {
		return errkind.Newf(errkind.UnknownAttribute, "unknown attribute %q on %s", name, e.typeName)
	}
	e.values[name] = v
	return nil
}

// HasAttribute reports whether name is one of the entity's fixed declared
// attribute names.
func (e *Entity) HasAttribute(name string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.attrNames[name]
}

// SnapshotValues returns a copy of the entity's current attribute map,
// used by the evaluator to capture the pre-substep "prior" snapshot once
// per step (§4.G: "stored once at the start of the step's first substep").
func (e *Entity) SnapshotValues() map[string]values.Value {
	e.mu.RLock()
	defer e.mu.RUnlock()
	cp := make(map[string]values.Value, len(e.values))
	for k, v := range e.values {
		cp[k] = v
	}
	return cp
}

// GetAttributeNames returns the entity's fixed set of declared attribute
// names, in no particular order.
func (e *Entity) GetAttributeNames() []string {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]string, 0, len(e.attrNames))
	for n := range e.attrNames {
		out = append(out, n)
	}
	return out
}

// RegisterHandlerGroup installs the ordered handler list for (attribute,
// phase). Handlers are registered at program-build time and never change at
// runtime (§3 Lifecycle); callers should finish all registration before the
// stepper begins executing substeps against this entity.
func (e *Entity) RegisterHandlerGroup(attribute, phase string, handlers []callable.HandlerPair) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.handlers[HandlerKey{Attribute: attribute, Phase: phase}] = handlers
}

// RegisterBaseHandlerGroup installs a phase-independent fallback group for
// attribute, used when no phase-specific group exists (§4.G step 4).
func (e *Entity) RegisterBaseHandlerGroup(attribute string, handlers []callable.HandlerPair) {
	e.RegisterHandlerGroup(attribute, basePhase, handlers)
}

// GetEventHandlers returns at most one handler group for (attribute, phase),
// falling back to the base (phase-independent) group if no phase-specific
// group is registered. ok is false if neither exists.
func (e *Entity) GetEventHandlers(attribute, phase string) (handlers []callable.HandlerPair, ok bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if hs, exists := e.handlers[HandlerKey{Attribute: attribute, Phase: phase}]; exists {
		return hs, true
	}
	if hs, exists := e.handlers[HandlerKey{Attribute: attribute, Phase: basePhase}]; exists {
		return hs, true
	}
	return nil, false
}

// HasNoHandlers is the fast-path hint used by the evaluator (§4.G step 3):
// true iff neither a phase-specific nor a base handler group is registered
// for attribute.
func (e *Entity) HasNoHandlers(attribute, phase string) bool {
	_, ok := e.GetEventHandlers(attribute, phase)
	return !ok
}

// Frozen is an immutable snapshot of an entity's attribute map (§3: "A
// frozen entity is an immutable snapshot of the map; it has no handlers and
// cannot participate in step execution").
type Frozen struct {
	TypeName string
	GeoKey   *GeoKey
	Values   map[string]values.Value
}

// Freeze snapshots the entity's current attribute map into an immutable
// Frozen value and marks the live entity itself as frozen, refusing further
// writes (mirrors the teacher's record.go value-type copy/freeze semantics).
func (e *Entity) Freeze() Frozen {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.frozen = true

	cp := make(map[string]values.Value, len(e.values))
	for k, v := range e.values {
		cp[k] = v
	}
	var gk *GeoKey
	if e.geoKey != nil {
		k := *e.geoKey
		gk = &k
	}
	return Frozen{TypeName: e.typeName, GeoKey: gk, Values: cp}
}

// IsFrozen reports whether the entity has been frozen.
func (e *Entity) IsFrozen() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.frozen
}
