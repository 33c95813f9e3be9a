package values

import (
	"math/rand"
	"testing"

	"github.com/joshsim/joshcore/internal/units"
)

func TestDistributionStats(t *testing.T) {
	meter := units.Single("meter")
	elems := []Value{
		DoubleWithUnits(1, meter),
		DoubleWithUnits(2, meter),
		DoubleWithUnits(3, meter),
		DoubleWithUnits(4, meter),
	}
	dist, err := NewRealized(elems)
	if err != nil {
		t.Fatalf("NewRealized: %v", err)
	}

	mean, err := dist.GetMean()
	if err != nil {
		t.Fatalf("GetMean: %v", err)
	}
	if f, _ := mean.AsDouble(); f != 2.5 {
		t.Errorf("mean = %v, want 2.5", f)
	}

	min, err := dist.GetMin()
	if err != nil {
		t.Fatalf("GetMin: %v", err)
	}
	if f, _ := min.AsDouble(); f != 1 {
		t.Errorf("min = %v, want 1", f)
	}

	max, err := dist.GetMax()
	if err != nil {
		t.Fatalf("GetMax: %v", err)
	}
	if f, _ := max.AsDouble(); f != 4 {
		t.Errorf("max = %v, want 4", f)
	}

	sum, err := dist.GetSum()
	if err != nil {
		t.Fatalf("GetSum: %v", err)
	}
	if f, _ := sum.AsDouble(); f != 10 {
		t.Errorf("sum = %v, want 10", f)
	}

	std, err := dist.GetStd()
	if err != nil {
		t.Fatalf("GetStd: %v", err)
	}
	if f, _ := std.AsDouble(); f < 1.290 || f > 1.291 {
		t.Errorf("std = %v, want ~1.2910 (n-1 denominator)", f)
	}

	if mean.Units().String() != meter.String() {
		t.Errorf("reduction dropped units: got %s", mean.Units())
	}
}

func TestMaterializeVirtualDistribution(t *testing.T) {
	meter := units.Single("meter")
	sampler := func(rnd *rand.Rand) float64 { return 42 }
	virtual := NewVirtual(DoubleKind, meter, sampler, nil)

	if virtual.GetSize() != 0 {
		t.Errorf("virtual distribution GetSize() = %d, want 0 (unknown)", virtual.GetSize())
	}
	if _, err := virtual.Elements(); err == nil {
		t.Error("expected error calling Elements() on a virtual distribution")
	}

	realized, err := virtual.Materialize(5, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	elems, err := realized.Elements()
	if err != nil {
		t.Fatalf("Elements after materialize: %v", err)
	}
	if len(elems) != 5 {
		t.Fatalf("materialized to %d elements, want 5", len(elems))
	}
	for i, e := range elems {
		if f, _ := e.AsDouble(); f != 42 {
			t.Errorf("element %d = %v, want 42", i, f)
		}
	}
}

func TestNormalVirtualMaterializesWithStatedMoments(t *testing.T) {
	meter := units.Single("meter")
	v := NormalVirtual(10, 2, meter)

	realized, err := v.Materialize(2000, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	mean, err := realized.GetMean()
	if err != nil {
		t.Fatalf("GetMean: %v", err)
	}
	if f, _ := mean.AsDouble(); f < 9.5 || f > 10.5 {
		t.Errorf("sample mean = %v, want ~10", f)
	}
}

func TestUniformVirtualMaterializesWithinBounds(t *testing.T) {
	meter := units.Single("meter")
	v := UniformVirtual(5, 15, meter)

	realized, err := v.Materialize(500, rand.New(rand.NewSource(2)))
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	elems, err := realized.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	for i, e := range elems {
		f, _ := e.AsDouble()
		if f < 5 || f >= 15 {
			t.Fatalf("element %d = %v, outside [5, 15)", i, f)
		}
	}
}

func TestPoissonVirtualMaterializesNonNegativeCounts(t *testing.T) {
	v := PoissonVirtual(4, units.Empty())

	realized, err := v.Materialize(500, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatalf("Materialize: %v", err)
	}
	elems, err := realized.Elements()
	if err != nil {
		t.Fatalf("Elements: %v", err)
	}
	for i, e := range elems {
		f, err := e.AsInt()
		if err != nil {
			t.Fatalf("element %d AsInt: %v", i, err)
		}
		if f < 0 {
			t.Errorf("element %d = %d, want non-negative Poisson count", i, f)
		}
	}
}

func TestRealizedDistributionRequiresHomogeneousUnits(t *testing.T) {
	meter := units.Single("meter")
	second := units.Single("second")
	_, err := NewRealized([]Value{
		DoubleWithUnits(1, meter),
		DoubleWithUnits(2, second),
	})
	if err == nil {
		t.Error("expected unit-mismatch constructing a realized distribution with mixed units")
	}
}

func TestBroadcastPairSizeMismatch(t *testing.T) {
	a, _ := NewRealized([]Value{Int(1), Int(2)})
	b, _ := NewRealized([]Value{Int(1), Int(2), Int(3)})
	if _, err := a.Add(b); err == nil {
		t.Error("expected size-mismatch adding two realized distributions of different lengths")
	}
}
