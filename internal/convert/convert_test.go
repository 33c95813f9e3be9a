package convert

import (
	"testing"

	"github.com/joshsim/joshcore/internal/units"
	"github.com/joshsim/joshcore/internal/values"
)

func scale(factor float64) Conversion {
	return func(v values.Value) (values.Value, error) {
		f, err := v.AsDouble()
		if err != nil {
			return values.Value{}, err
		}
		return values.Double(f * factor), nil
	}
}

func TestIdentityConversion(t *testing.T) {
	r := New()
	meter := units.Single("meter")
	v := values.DoubleWithUnits(5, meter)
	out, err := r.Convert(v, meter)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if f, _ := out.AsDouble(); f != 5 {
		t.Errorf("identity conversion changed magnitude: got %v", f)
	}
}

func TestDirectConversion(t *testing.T) {
	r := New()
	meter := units.Single("meter")
	foot := units.Single("foot")
	r.Register(meter, foot, scale(3.28084))

	v := values.DoubleWithUnits(1, meter)
	out, err := r.Convert(v, foot)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	if f, _ := out.AsDouble(); f < 3.28 || f > 3.29 {
		t.Errorf("1 meter -> foot = %v, want ~3.28084", f)
	}
	if !out.Units().Equal(foot) {
		t.Errorf("expected result relabeled to foot, got %s", out.Units())
	}
}

func TestComposedConversionShortestPath(t *testing.T) {
	r := New()
	meter := units.Single("meter")
	centimeter := units.Single("centimeter")
	kilometer := units.Single("kilometer")

	r.Register(meter, centimeter, scale(100))
	r.Register(centimeter, kilometer, scale(1e-5))

	v := values.DoubleWithUnits(2, meter)
	out, err := r.Convert(v, kilometer)
	if err != nil {
		t.Fatalf("Convert: %v", err)
	}
	f, _ := out.AsDouble()
	if f != 0.002 {
		t.Errorf("2 meter -> kilometer via centimeter = %v, want 0.002", f)
	}
}

func TestNoConversionUnreachable(t *testing.T) {
	r := New()
	meter := units.Single("meter")
	second := units.Single("second")
	if _, err := r.Convert(values.DoubleWithUnits(1, meter), second); err == nil {
		t.Error("expected no-conversion error for an unregistered, unreachable pair")
	}
}

func TestConversionMemoized(t *testing.T) {
	r := New()
	meter := units.Single("meter")
	foot := units.Single("foot")
	calls := 0
	r.Register(meter, foot, func(v values.Value) (values.Value, error) {
		calls++
		f, _ := v.AsDouble()
		return values.Double(f * 3.28084), nil
	})

	if _, err := r.getConversion(meter, foot); err != nil {
		t.Fatalf("getConversion: %v", err)
	}
	if _, err := r.getConversion(meter, foot); err != nil {
		t.Fatalf("getConversion: %v", err)
	}
	if _, ok := r.memo[pairKey{meter, foot}]; !ok {
		t.Error("expected composed conversion to be memoized")
	}
}
