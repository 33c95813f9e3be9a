// Package values implements the engine's typed value system (spec §4.B):
// a tagged union over scalars and distributions, every value carrying a
// Units and a LangType used for evaluator dispatch. Values are immutable;
// arithmetic always returns a fresh Value.
package values

import (
	"fmt"
	"strconv"

	"github.com/joshsim/joshcore/internal/errkind"
	"github.com/joshsim/joshcore/internal/units"
	"github.com/shopspring/decimal"
)

// scalar holds exactly one of the primitive payloads, selected by Kind.
// Grounded on the teacher's per-kind Value structs
// (internal/interp/runtime/primitives.go), collapsed into one tagged struct
// per the spec §9 "one tagged enum" re-architecture note.
type scalar struct {
	kind RootKind
	i    int64
	dec  decimal.Decimal
	f    float64
	b    bool
	s    string
	ref  EntityRef
}

// Value is a tagged union over scalars and distributions (§3). The zero
// Value is not meaningful; use one of the constructors below.
type Value struct {
	lt   *LangType
	u    *units.Units
	sc   scalar        // meaningful iff dist == nil
	dist *distribution // meaningful iff non-nil
}

// --- scalar constructors -----------------------------------------------

// Int constructs a dimensionless-by-default integer scalar.
func Int(i int64) Value { return IntWithUnits(i, units.Empty()) }

// IntWithUnits constructs an integer scalar carrying the given units.
func IntWithUnits(i int64, u *units.Units) Value {
	return Value{lt: ScalarType(IntKind), u: u, sc: scalar{kind: IntKind, i: i}}
}

// Decimal constructs a dimensionless arbitrary-precision decimal scalar.
func Decimal(d decimal.Decimal) Value { return DecimalWithUnits(d, units.Empty()) }

// DecimalWithUnits constructs a decimal scalar carrying the given units.
func DecimalWithUnits(d decimal.Decimal, u *units.Units) Value {
	return Value{lt: ScalarType(DecimalKind), u: u, sc: scalar{kind: DecimalKind, dec: d}}
}

// Double constructs a dimensionless native float64 scalar.
func Double(f float64) Value { return DoubleWithUnits(f, units.Empty()) }

// DoubleWithUnits constructs a float64 scalar carrying the given units.
func DoubleWithUnits(f float64, u *units.Units) Value {
	return Value{lt: ScalarType(DoubleKind), u: u, sc: scalar{kind: DoubleKind, f: f}}
}

// Bool constructs a boolean scalar. Booleans are always dimensionless.
func Bool(b bool) Value {
	return Value{lt: ScalarType(BooleanKind), u: units.Empty(), sc: scalar{kind: BooleanKind, b: b}}
}

// String constructs a string scalar. Strings are always dimensionless.
func String(s string) Value {
	return Value{lt: ScalarType(StringKind), u: units.Empty(), sc: scalar{kind: StringKind, s: s}}
}

// Entity constructs an entity-reference scalar. Its Units are synthesized
// from the entity's type name (§3).
func Entity(ref EntityRef) Value {
	return Value{
		lt: EntityType(ref.EntityTypeName()),
		u:  units.Single("entity:" + ref.EntityTypeName()),
		sc: scalar{kind: EntityRefKind, ref: ref},
	}
}

// --- descriptors ---------------------------------------------------------

// Type returns the language type used by the evaluator for dispatch.
func (v Value) Type() *LangType { return v.lt }

// Units returns the value's units.
func (v Value) Units() *units.Units { return v.u }

// IsDistribution reports whether v is a distribution value.
func (v Value) IsDistribution() bool { return v.dist != nil }

// String renders a human-readable form, used for error messages and
// logging and also as the result of AsString for scalars.
func (v Value) String() string {
	if v.IsDistribution() {
		return v.dist.String()
	}
	switch v.sc.kind {
	case IntKind:
		return strconv.FormatInt(v.sc.i, 10)
	case DecimalKind:
		return v.sc.dec.String()
	case DoubleKind:
		return strconv.FormatFloat(v.sc.f, 'g', -1, 64)
	case BooleanKind:
		return strconv.FormatBool(v.sc.b)
	case StringKind:
		return v.sc.s
	case EntityRefKind:
		return fmt.Sprintf("<%s:%s>", v.sc.ref.EntityTypeName(), v.sc.ref.RefKey())
	default:
		return "<invalid>"
	}
}

// --- accessors (§4.B) -----------------------------------------------------

// AsScalar returns v unchanged if it is a scalar, or an error if it is a
// distribution.
func (v Value) AsScalar() (Value, error) {
	if v.IsDistribution() {
		return Value{}, errkind.Newf(errkind.UnsupportedOp, "value is a distribution, not a scalar")
	}
	return v, nil
}

// AsDistribution returns v unchanged if it is a distribution, or an error
// if it is a scalar.
func (v Value) AsDistribution() (Value, error) {
	if !v.IsDistribution() {
		return Value{}, errkind.Newf(errkind.UnsupportedOp, "value is a scalar, not a distribution")
	}
	return v, nil
}

// AsInt converts v to an int64. Distributions are rejected; use a reduction
// (see distribution.go) before requesting a scalar conversion.
func (v Value) AsInt() (int64, error) {
	if v.IsDistribution() {
		return 0, errkind.Newf(errkind.UnsupportedOp, "cannot convert distribution to int directly")
	}
	switch v.sc.kind {
	case IntKind:
		return v.sc.i, nil
	case DecimalKind:
		return v.sc.dec.IntPart(), nil
	case DoubleKind:
		return int64(v.sc.f), nil
	case BooleanKind:
		if v.sc.b {
			return 1, nil
		}
		return 0, nil
	case StringKind:
		n, err := strconv.ParseInt(v.sc.s, 10, 64)
		if err != nil {
			return 0, errkind.Newf(errkind.UnsupportedOp, "cannot parse %q as int", v.sc.s)
		}
		return n, nil
	default:
		return 0, errkind.Newf(errkind.UnsupportedOp, "cannot convert %s to int", v.lt)
	}
}

// AsDouble converts v to a float64.
func (v Value) AsDouble() (float64, error) {
	if v.IsDistribution() {
		return 0, errkind.Newf(errkind.UnsupportedOp, "cannot convert distribution to double directly")
	}
	switch v.sc.kind {
	case IntKind:
		return float64(v.sc.i), nil
	case DecimalKind:
		f, _ := v.sc.dec.Float64()
		return f, nil
	case DoubleKind:
		return v.sc.f, nil
	case BooleanKind:
		if v.sc.b {
			return 1, nil
		}
		return 0, nil
	case StringKind:
		f, err := strconv.ParseFloat(v.sc.s, 64)
		if err != nil {
			return 0, errkind.Newf(errkind.UnsupportedOp, "cannot parse %q as double", v.sc.s)
		}
		return f, nil
	default:
		return 0, errkind.Newf(errkind.UnsupportedOp, "cannot convert %s to double", v.lt)
	}
}

// AsDecimal converts v to an arbitrary-precision decimal.
func (v Value) AsDecimal() (decimal.Decimal, error) {
	if v.IsDistribution() {
		return decimal.Zero, errkind.Newf(errkind.UnsupportedOp, "cannot convert distribution to decimal directly")
	}
	switch v.sc.kind {
	case IntKind:
		return decimal.NewFromInt(v.sc.i), nil
	case DecimalKind:
		return v.sc.dec, nil
	case DoubleKind:
		return decimal.NewFromFloat(v.sc.f), nil
	case BooleanKind:
		if v.sc.b {
			return decimal.NewFromInt(1), nil
		}
		return decimal.Zero, nil
	case StringKind:
		d, err := decimal.NewFromString(v.sc.s)
		if err != nil {
			return decimal.Zero, errkind.Newf(errkind.UnsupportedOp, "cannot parse %q as decimal", v.sc.s)
		}
		return d, nil
	default:
		return decimal.Zero, errkind.Newf(errkind.UnsupportedOp, "cannot convert %s to decimal", v.lt)
	}
}

// AsBoolean converts v to a boolean. Only boolean scalars convert; other
// kinds raise unsupported-op, matching §4.B's "boolean logic requires
// boolean operands" rule.
func (v Value) AsBoolean() (bool, error) {
	if v.IsDistribution() || v.sc.kind != BooleanKind {
		return false, errkind.Newf(errkind.UnsupportedOp, "%s is not boolean", v.lt)
	}
	return v.sc.b, nil
}

// AsString converts v to its string representation. Every scalar kind
// converts; distributions do not.
func (v Value) AsString() (string, error) {
	if v.IsDistribution() {
		return "", errkind.Newf(errkind.UnsupportedOp, "cannot convert distribution to string directly")
	}
	return v.String(), nil
}

// AsEntity returns the underlying entity reference, or an error if v does
// not carry one.
func (v Value) AsEntity() (EntityRef, error) {
	if v.IsDistribution() || v.sc.kind != EntityRefKind {
		return nil, errkind.Newf(errkind.UnsupportedOp, "%s is not an entity reference", v.lt)
	}
	return v.sc.ref, nil
}

// GetSize returns 1 for a scalar, the known cardinality for a realized
// distribution, or 0 (∅, "unknown") for a virtual distribution (§4.B).
func (v Value) GetSize() int {
	if !v.IsDistribution() {
		return 1
	}
	return v.dist.size()
}

// Freeze snapshots distribution contents if needed; scalars are already
// immutable and are returned unchanged (§4.B).
func (v Value) Freeze() (Value, error) {
	if !v.IsDistribution() {
		return v, nil
	}
	frozen, err := v.dist.freeze()
	if err != nil {
		return Value{}, err
	}
	return Value{lt: v.lt, u: v.u, dist: frozen}, nil
}

// ReplaceUnits returns a copy of v with the same inner data but a new unit
// label (§4.B) — used by the unit converter to relabel a value after a
// registered conversion callable has produced the converted magnitude.
func (v Value) ReplaceUnits(newUnits *units.Units) Value {
	cp := v
	cp.u = newUnits
	if cp.dist != nil {
		cp.dist = cp.dist.withUnits(newUnits)
	}
	return cp
}

// scalarKind returns the scalar payload's root kind for dispatch purposes.
// It does not check for distributions: on a distribution it returns the
// zero RootKind (IntKind), so callers must check IsDistribution first.
func (v Value) scalarKind() RootKind {
	return v.sc.kind
}
