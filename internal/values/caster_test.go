package values

import (
	"testing"

	"github.com/joshsim/joshcore/internal/units"
)

func TestCoercePromotesToHigherRank(t *testing.T) {
	a := Int(3)
	b := Double(1.5)
	ca, cb, err := coerce(a, b)
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	if ca.scalarKind() != DoubleKind || cb.scalarKind() != DoubleKind {
		t.Fatalf("expected both promoted to double, got %s and %s", ca.Type(), cb.Type())
	}
	if f, _ := ca.AsDouble(); f != 3 {
		t.Errorf("promoted int value = %v, want 3", f)
	}
}

func TestCoerceBooleanPromotesToInt(t *testing.T) {
	a := Bool(true)
	b := Int(4)
	ca, cb, err := coerce(a, b)
	if err != nil {
		t.Fatalf("coerce: %v", err)
	}
	if ca.scalarKind() != IntKind || cb.scalarKind() != IntKind {
		t.Fatalf("expected both int, got %s and %s", ca.Type(), cb.Type())
	}
	if got, _ := ca.AsInt(); got != 1 {
		t.Errorf("bool->int promotion = %d, want 1", got)
	}
}

func TestCoerceRejectsStringAndInt(t *testing.T) {
	if _, _, err := coerce(String("x"), Int(1)); err == nil {
		t.Error("expected unsupported-op coercing string against int")
	}
}

func TestCanAlignUnits(t *testing.T) {
	meter := units.Single("meter")
	second := units.Single("second")
	if !CanAlignUnits(IntWithUnits(1, meter), IntWithUnits(2, meter)) {
		t.Error("expected matching units to align")
	}
	if CanAlignUnits(IntWithUnits(1, meter), IntWithUnits(2, second)) {
		t.Error("expected mismatched units to not align")
	}
}
