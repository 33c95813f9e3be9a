package values

import "strings"

// RootKind is the primitive kind underlying a scalar or, for an entity
// language type, the fact that the value is an entity reference.
type RootKind int

const (
	IntKind RootKind = iota
	DecimalKind
	DoubleKind
	BooleanKind
	StringKind
	EntityRefKind
)

// String names a RootKind the way the engine's error messages refer to it.
func (k RootKind) String() string {
	switch k {
	case IntKind:
		return "int"
	case DecimalKind:
		return "decimal"
	case DoubleKind:
		return "double"
	case BooleanKind:
		return "boolean"
	case StringKind:
		return "string"
	case EntityRefKind:
		return "entity"
	default:
		return "unknown"
	}
}

// LangType is the evaluator-facing type descriptor (§3 "Language type"): a
// root kind plus an ordered chain of distribution wrappers (outer→inner) and
// a contains-attributes flag. Two language types are equal iff their
// serialized forms match.
type LangType struct {
	Root               RootKind
	EntityName         string // set iff Root == EntityRefKind
	DistributionDepth  int    // 0 = scalar; >0 = N nested distribution wrappers
	ContainsAttributes bool   // true iff Root == EntityRefKind
}

// ScalarType builds the language type for a bare scalar of the given kind.
func ScalarType(root RootKind) *LangType {
	return &LangType{Root: root}
}

// EntityType builds the language type for an entity reference, which
// synthesizes its "attributes" flag from being an entity (§3).
func EntityType(name string) *LangType {
	return &LangType{Root: EntityRefKind, EntityName: name, ContainsAttributes: true}
}

// WrapDistribution returns a language type one distribution-layer deeper
// than t, used when a Value becomes a (possibly nested) distribution of t.
func (t *LangType) WrapDistribution() *LangType {
	cp := *t
	cp.DistributionDepth++
	return &cp
}

// UnwrapDistribution returns the language type one distribution-layer
// shallower than t; it is a programming error to call this on a scalar type.
func (t *LangType) UnwrapDistribution() *LangType {
	cp := *t
	if cp.DistributionDepth > 0 {
		cp.DistributionDepth--
	}
	return &cp
}

// IsDistribution reports whether t describes a distribution-wrapped value.
func (t *LangType) IsDistribution() bool {
	return t.DistributionDepth > 0
}

// String serializes the language type; two language types are equal iff
// their serialized forms match (§3).
func (t *LangType) String() string {
	var b strings.Builder
	for i := 0; i < t.DistributionDepth; i++ {
		b.WriteString("Distribution<")
	}
	if t.Root == EntityRefKind {
		b.WriteString("Entity:")
		b.WriteString(t.EntityName)
	} else {
		b.WriteString(t.Root.String())
	}
	for i := 0; i < t.DistributionDepth; i++ {
		b.WriteString(">")
	}
	return b.String()
}

// Equal reports whether t and other have identical serialized forms.
func (t *LangType) Equal(other *LangType) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.String() == other.String()
}
