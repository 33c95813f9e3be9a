package units

import "testing"

func TestMonoidLaws(t *testing.T) {
	meter := Single("meter")
	second := Single("second")
	empty := Empty()

	tests := []struct {
		name string
		got  *Units
		want *Units
	}{
		{"associativity", meter.Multiply(second).Multiply(meter), meter.Multiply(second.Multiply(meter))},
		{"identity", meter.Multiply(empty), meter},
		{"self-inverse", meter.Divide(meter), empty},
		{"power-additivity", meter.RaiseToPower(2).Multiply(meter.RaiseToPower(3)), meter.RaiseToPower(5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !tt.got.Equal(tt.want) {
				t.Errorf("got %q, want %q", tt.got.String(), tt.want.String())
			}
		})
	}
}

func TestCanonicalForm(t *testing.T) {
	a := New(map[string]int{"second": -1, "meter": 1})
	b := New(map[string]int{"meter": 1, "second": -1})

	if a.String() != b.String() {
		t.Errorf("expected stable canonical form, got %q and %q", a.String(), b.String())
	}
	if a.String() != "meter*second^-1" {
		t.Errorf("unexpected canonical string: %q", a.String())
	}
}

func TestInterning(t *testing.T) {
	a := Single("meter")
	b := Single("meter")
	if a != b {
		t.Errorf("expected interned Units to share an identity")
	}
}

func TestCanBeExponent(t *testing.T) {
	tests := []struct {
		name string
		u    *Units
		want bool
	}{
		{"empty", Empty(), true},
		{"count", Single("count"), true},
		{"meter", Single("meter"), false},
		{"count squared", New(map[string]int{"count": 2}), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.u.CanBeExponent(); got != tt.want {
				t.Errorf("CanBeExponent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestZeroExponentDropped(t *testing.T) {
	u := New(map[string]int{"meter": 1, "second": 0})
	if u.String() != "meter" {
		t.Errorf("expected zero-exponent factor to be dropped, got %q", u.String())
	}
}
