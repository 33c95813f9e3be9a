package values

// EntityRef is the minimal view of an entity that the value system needs in
// order to carry an entity reference as a scalar Value (§3: "Entity-ref
// values synthesize units from the entity's type name"). The full Entity
// model lives in package entity; this interface exists purely to avoid an
// import cycle between values and entity, mirroring the teacher's
// IClassInfo-via-interface technique for the same problem
// (internal/interp/runtime/object.go).
type EntityRef interface {
	// EntityTypeName returns the name used both for language-type dispatch
	// and for synthesizing this reference's Units.
	EntityTypeName() string
	// IsMutableRef reports whether this reference points at a live, mutable
	// entity (true) or a frozen snapshot (false).
	IsMutableRef() bool
	// RefKey returns a stable identity key for equality/comparison.
	RefKey() string
}
