package values

import (
	"fmt"
	"math"
	"math/rand"
	"strings"

	"github.com/joshsim/joshcore/internal/errkind"
	"github.com/joshsim/joshcore/internal/units"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// distKind tags which of the two distribution shapes a distribution value
// holds, modeled on the spec §9 design note "one tagged enum
// Distribution = Realized{...} | Virtual{...}".
type distKind int

const (
	realizedKind distKind = iota
	virtualKind
)

// Moments holds optional closed-form statistics for a virtual distribution,
// used when the distribution's parametric family makes them cheap to state
// directly rather than estimate from samples.
type Moments struct {
	Mean    float64
	StdDev  float64
	HasMean bool
	HasStd  bool
}

// Sampler draws one raw magnitude from a virtual distribution's parametric
// family, given the replicate's seeded random source (§5 Randomness).
type Sampler func(rnd *rand.Rand) float64

// distribution is the shared representation behind Value when
// Value.IsDistribution() is true.
type distribution struct {
	kind     distKind
	elemKind RootKind
	elemUnit *units.Units // units shared by every element (outer units)

	realized []Value // non-empty for realizedKind (I4)

	sampler Sampler
	moments *Moments
}

// NewRealized builds a realized-distribution Value from a non-empty,
// unit-homogeneous slice of elements (§3, I4: construction fails fast on an
// empty slice).
func NewRealized(elems []Value) (Value, error) {
	if len(elems) == 0 {
		return Value{}, errkind.New(errkind.EmptyDistribution, "realized distribution must be non-empty")
	}
	elemType := elems[0].Type()
	elemUnits := elems[0].Units()
	for i, e := range elems[1:] {
		if !e.Type().Equal(elemType) {
			return Value{}, errkind.Newf(errkind.SizeMismatch, "element %d has type %s, expected %s", i+1, e.Type(), elemType)
		}
		if !e.Units().Equal(elemUnits) {
			return Value{}, errkind.Newf(errkind.UnitMismatch, "element %d has units %q, expected %q", i+1, e.Units(), elemUnits)
		}
	}
	cp := make([]Value, len(elems))
	copy(cp, elems)
	return Value{
		lt: elemType.WrapDistribution(),
		u:  elemUnits,
		dist: &distribution{
			kind:     realizedKind,
			elemKind: elemType.Root,
			elemUnit: elemUnits,
			realized: cp,
		},
	}, nil
}

// NewVirtual builds a virtual (parametric) distribution Value: no listable
// elements, unknown size, a sampler and optional moments (§3).
func NewVirtual(elemKind RootKind, elemUnits *units.Units, sampler Sampler, moments *Moments) Value {
	return Value{
		lt: ScalarType(elemKind).WrapDistribution(),
		u:  elemUnits,
		dist: &distribution{
			kind:     virtualKind,
			elemKind: elemKind,
			elemUnit: elemUnits,
			sampler:  sampler,
			moments:  moments,
		},
	}
}

// NormalVirtual builds a virtual distribution sampling from a Normal(mu,
// sigma) family via gonum's distuv (SPEC_FULL.md §3 domain-stack wiring for
// closed-form parametric families). Mean/stddev are reported directly
// rather than estimated, since the family gives them for free.
func NormalVirtual(mu, sigma float64, elemUnits *units.Units) Value {
	sampler := func(rnd *rand.Rand) float64 {
		return distuv.Normal{Mu: mu, Sigma: sigma, Src: rnd}.Rand()
	}
	return NewVirtual(DoubleKind, elemUnits, sampler, &Moments{Mean: mu, StdDev: sigma, HasMean: true, HasStd: true})
}

// UniformVirtual builds a virtual distribution sampling uniformly from
// [min, max) via gonum's distuv.
func UniformVirtual(min, max float64, elemUnits *units.Units) Value {
	sampler := func(rnd *rand.Rand) float64 {
		return distuv.Uniform{Min: min, Max: max, Src: rnd}.Rand()
	}
	mean := (min + max) / 2
	std := (max - min) / math.Sqrt(12)
	return NewVirtual(DoubleKind, elemUnits, sampler, &Moments{Mean: mean, StdDev: std, HasMean: true, HasStd: true})
}

// PoissonVirtual builds a virtual distribution sampling from a Poisson(lambda)
// family via gonum's distuv. Elements are reported as IntKind since Poisson
// is a discrete counting distribution.
func PoissonVirtual(lambda float64, elemUnits *units.Units) Value {
	sampler := func(rnd *rand.Rand) float64 {
		return distuv.Poisson{Lambda: lambda, Src: rnd}.Rand()
	}
	return NewVirtual(IntKind, elemUnits, sampler, &Moments{Mean: lambda, StdDev: math.Sqrt(lambda), HasMean: true, HasStd: true})
}

// isRealized reports whether the distribution has listable elements.
func (d *distribution) isRealized() bool { return d.kind == realizedKind }

func (d *distribution) size() int {
	if d.kind == realizedKind {
		return len(d.realized)
	}
	return 0 // unknown (∅)
}

func (d *distribution) withUnits(u *units.Units) *distribution {
	cp := *d
	cp.elemUnit = u
	if d.kind == realizedKind {
		relabeled := make([]Value, len(d.realized))
		for i, e := range d.realized {
			relabeled[i] = e.ReplaceUnits(u)
		}
		cp.realized = relabeled
	}
	return &cp
}

func (d *distribution) String() string {
	if d.kind == virtualKind {
		return "<virtual distribution>"
	}
	parts := make([]string, len(d.realized))
	for i, e := range d.realized {
		parts[i] = e.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

// freeze snapshots a virtual distribution's current sampler/moments into an
// immutable copy; realized distributions are already immutable and are
// returned as-is (§4.B freeze()).
func (d *distribution) freeze() (*distribution, error) {
	cp := *d
	return &cp, nil
}

// Elements returns the realized elements, or an error if the distribution
// is virtual (callers must materialize first — see Materialize).
func (v Value) Elements() ([]Value, error) {
	if !v.IsDistribution() || !v.dist.isRealized() {
		return nil, errkind.New(errkind.UnsupportedOp, "value is not a realized distribution")
	}
	return v.dist.realized, nil
}

// Materialize realizes a virtual distribution to the requested size by
// sampling size times from rnd, per §4.B step 3 ("for virtual, materialize
// to the other operand's size using sampling, then proceed as realized").
func (v Value) Materialize(size int, rnd *rand.Rand) (Value, error) {
	if !v.IsDistribution() {
		return Value{}, errkind.New(errkind.UnsupportedOp, "cannot materialize a scalar")
	}
	if v.dist.isRealized() {
		return v, nil
	}
	if size <= 0 {
		return Value{}, errkind.New(errkind.SizeMismatch, "cannot materialize a virtual distribution to a non-positive size")
	}
	elems := make([]Value, size)
	for i := 0; i < size; i++ {
		raw := v.dist.sampler(rnd)
		elems[i] = sampledScalar(v.dist.elemKind, raw, v.dist.elemUnit)
	}
	return NewRealized(elems)
}

func sampledScalar(kind RootKind, raw float64, u *units.Units) Value {
	switch kind {
	case IntKind:
		return IntWithUnits(int64(raw), u)
	case DoubleKind:
		return DoubleWithUnits(raw, u)
	default:
		return DoubleWithUnits(raw, u)
	}
}

// --- reductions (§4.B, §8 scenario 4 distribution stats) ------------------
//
// Always sequential (deterministic fold, §5; there is no parallel mode);
// GetMean/GetStd/GetMin/
// GetMax/GetSum are computed with gonum/stat and gonum/floats rather than
// hand-rolled loops, per SPEC_FULL.md's domain-stack wiring.

func (v Value) floats() ([]float64, error) {
	elems, err := v.Elements()
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(elems))
	for i, e := range elems {
		f, err := e.AsDouble()
		if err != nil {
			return nil, err
		}
		out[i] = f
	}
	return out, nil
}

// GetMean returns the arithmetic mean of a realized distribution's elements,
// carrying the distribution's element units.
func (v Value) GetMean() (Value, error) {
	fs, err := v.floats()
	if err != nil {
		return Value{}, err
	}
	return DoubleWithUnits(stat.Mean(fs, nil), v.dist.elemUnit), nil
}

// GetStd returns the sample standard deviation using an n-1 denominator
// (§8 scenario 4), matching gonum/stat.StdDev's default Bessel correction.
func (v Value) GetStd() (Value, error) {
	fs, err := v.floats()
	if err != nil {
		return Value{}, err
	}
	if len(fs) < 2 {
		return Value{}, errkind.New(errkind.SizeMismatch, "standard deviation requires at least two elements")
	}
	return DoubleWithUnits(stat.StdDev(fs, nil), v.dist.elemUnit), nil
}

// GetMin returns the minimum element.
func (v Value) GetMin() (Value, error) {
	fs, err := v.floats()
	if err != nil {
		return Value{}, err
	}
	return DoubleWithUnits(floats.Min(fs), v.dist.elemUnit), nil
}

// GetMax returns the maximum element.
func (v Value) GetMax() (Value, error) {
	fs, err := v.floats()
	if err != nil {
		return Value{}, err
	}
	return DoubleWithUnits(floats.Max(fs), v.dist.elemUnit), nil
}

// GetSum returns the sum of all elements.
func (v Value) GetSum() (Value, error) {
	fs, err := v.floats()
	if err != nil {
		return Value{}, err
	}
	return DoubleWithUnits(floats.Sum(fs), v.dist.elemUnit), nil
}

// broadcast applies fn element-wise across a realized distribution against
// a scalar operand, in order (P9 distribution broadcast). Used by the
// arithmetic dispatcher in arithmetic.go.
func broadcast(d Value, s Value, fn func(a, b Value) (Value, error), distFirst bool) (Value, error) {
	elems, err := d.Elements()
	if err != nil {
		return Value{}, err
	}
	out := make([]Value, len(elems))
	for i, e := range elems {
		if distFirst {
			r, err := fn(e, s)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = r
		} else {
			r, err := fn(s, e)
			if err != nil {
				return Value{}, fmt.Errorf("element %d: %w", i, err)
			}
			out[i] = r
		}
	}
	return NewRealized(out)
}

// broadcastPair applies fn element-wise across two realized distributions of
// equal size, in order.
func broadcastPair(a, b Value, fn func(a, b Value) (Value, error)) (Value, error) {
	ae, err := a.Elements()
	if err != nil {
		return Value{}, err
	}
	be, err := b.Elements()
	if err != nil {
		return Value{}, err
	}
	if len(ae) != len(be) {
		return Value{}, errkind.Newf(errkind.SizeMismatch, "distribution sizes differ: %d vs %d", len(ae), len(be))
	}
	out := make([]Value, len(ae))
	for i := range ae {
		r, err := fn(ae[i], be[i])
		if err != nil {
			return Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		out[i] = r
	}
	return NewRealized(out)
}
