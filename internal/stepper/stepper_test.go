package stepper

import (
	"testing"

	"github.com/joshsim/joshcore/internal/callable"
	"github.com/joshsim/joshcore/internal/entity"
	"github.com/joshsim/joshcore/internal/evaluator"
	"github.com/joshsim/joshcore/internal/external"
	"github.com/joshsim/joshcore/internal/replicate"
	"github.com/joshsim/joshcore/internal/values"
)

// recordingExporter collects every call it receives, for asserting the
// stepper notifies exporters after recording each step's snapshot.
type recordingExporter struct {
	steps []int
	vars  [][]string
	err   error
}

func (r *recordingExporter) Export(step int, _ map[entity.GeoKey]entity.Frozen, variables []string) error {
	r.steps = append(r.steps, step)
	r.vars = append(r.vars, variables)
	return r.err
}

func TestPerformNotifiesExportersAfterRecording(t *testing.T) {
	sh := newPatch(0, 0, 0.25)
	store := replicate.New()
	exp := &recordingExporter{}
	prog := &Program{
		Patches:   []*PatchState{{Shadow: sh}},
		Exporters: []external.Exporter{exp},
		Variables: []string{"moisture"},
	}
	sim := New(prog, store, nil)

	for i := 0; i < 2; i++ {
		if _, err := sim.Perform(); err != nil {
			t.Fatalf("Perform step %d: %v", i, err)
		}
	}
	if len(exp.steps) != 2 || exp.steps[0] != 0 || exp.steps[1] != 1 {
		t.Errorf("exporter steps = %v, want [0 1]", exp.steps)
	}
	for _, vars := range exp.vars {
		if len(vars) != 1 || vars[0] != "moisture" {
			t.Errorf("exporter variables = %v, want [moisture]", vars)
		}
	}
}

func TestPerformReturnsExportError(t *testing.T) {
	sh := newPatch(0, 0, 0.25)
	store := replicate.New()
	exp := &recordingExporter{err: errTest}
	prog := &Program{
		Patches:   []*PatchState{{Shadow: sh}},
		Exporters: []external.Exporter{exp},
	}
	sim := New(prog, store, nil)

	if _, err := sim.Perform(); err == nil {
		t.Fatal("expected Perform to return the exporter's error")
	}
	if store.LatestStep() != 0 {
		t.Errorf("LatestStep() = %d, want 0 (snapshot still recorded despite export failure)", store.LatestStep())
	}
}

func newPatch(row, col int, moisture float64) *evaluator.Shadow {
	e := entity.New("Patch", []string{"moisture"}, map[string]values.Value{"moisture": values.Double(moisture)})
	e.SetGeoKey(entity.GeoKey{Row: row, Col: col})
	return evaluator.New(e, nil, nil)
}

func TestPerformRunsInitOnlyOnFirstStep(t *testing.T) {
	calls := 0
	patchEnt := entity.New("Patch", []string{"counter"}, map[string]values.Value{"counter": values.Int(0)})
	patchEnt.RegisterHandlerGroup("counter", "init", []callable.HandlerPair{{
		Body: callable.Callable(func(s callable.Scope) (values.Value, error) {
			calls++
			return values.Int(1), nil
		}),
	}})
	sh := evaluator.New(patchEnt, nil, nil)
	prog := &Program{Patches: []*PatchState{{Shadow: sh}}}
	sim := New(prog, replicate.New(), nil)

	if _, err := sim.Perform(); err != nil {
		t.Fatalf("Perform (step 0): %v", err)
	}
	if _, err := sim.Perform(); err != nil {
		t.Fatalf("Perform (step 1): %v", err)
	}
	if calls != 1 {
		t.Errorf("init handler invoked %d times across two steps, want 1", calls)
	}
}

func TestPerformRecordsSnapshotEachStep(t *testing.T) {
	sh := newPatch(0, 0, 0.25)
	store := replicate.New()
	prog := &Program{Patches: []*PatchState{{Shadow: sh}}}
	sim := New(prog, store, nil)

	step, err := sim.Perform()
	if err != nil {
		t.Fatalf("Perform: %v", err)
	}
	if step != 0 {
		t.Errorf("step = %d, want 0", step)
	}
	snap, err := store.GetPatchByKey(entity.GeoKey{Row: 0, Col: 0}, 0)
	if err != nil {
		t.Fatalf("GetPatchByKey: %v", err)
	}
	if m, _ := snap.Values["moisture"].AsDouble(); m != 0.25 {
		t.Errorf("snapshot moisture = %v, want 0.25", m)
	}
}

func TestPerformAbortsWithoutSnapshotOnHandlerError(t *testing.T) {
	patchEnt := entity.New("Patch", []string{"bad"}, map[string]values.Value{"bad": values.Int(0)})
	patchEnt.RegisterHandlerGroup("bad", "start", []callable.HandlerPair{{
		Body: callable.Callable(func(s callable.Scope) (values.Value, error) {
			return values.Value{}, errTest
		}),
	}})
	sh := evaluator.New(patchEnt, nil, nil)
	store := replicate.New()
	prog := &Program{Patches: []*PatchState{{Shadow: sh}}}
	sim := New(prog, store, nil)

	if _, err := sim.Perform(); err == nil {
		t.Fatal("expected Perform to return an error")
	}
	if store.LatestStep() != -1 {
		t.Errorf("LatestStep() = %d, want -1 (no snapshot recorded)", store.LatestStep())
	}
}

func TestOrganismDiscoveryTracksArrivalsAndDepartures(t *testing.T) {
	residentEnt := entity.New("Organism", []string{"age"}, map[string]values.Value{"age": values.Int(1)})
	residentEnt.SetGeoKey(entity.GeoKey{Row: 0, Col: 0})

	patchEnt := entity.New("Patch", []string{"residents"}, nil)
	patchEnt.SetGeoKey(entity.GeoKey{Row: 0, Col: 0})
	if err := patchEnt.SetAttributeValue("residents", values.Entity(residentEnt)); err != nil {
		t.Fatalf("SetAttributeValue: %v", err)
	}

	patchShadow := evaluator.New(patchEnt, nil, nil)
	prog := &Program{Patches: []*PatchState{{Shadow: patchShadow}}}
	sim := New(prog, replicate.New(), nil)

	if _, err := sim.Perform(); err != nil {
		t.Fatalf("Perform: %v", err)
	}
	ps := prog.Patches[0]
	if len(ps.Organisms) != 1 {
		t.Fatalf("len(Organisms) = %d, want 1 after first discovery", len(ps.Organisms))
	}
	if ps.Organisms[0].Entity() != residentEnt {
		t.Error("discovered organism shadow does not wrap the resident entity")
	}

	if err := patchEnt.SetAttributeValue("residents", values.Int(0)); err != nil {
		t.Fatalf("SetAttributeValue (departure): %v", err)
	}
	if _, err := sim.Perform(); err != nil {
		t.Fatalf("Perform (second step): %v", err)
	}
	if len(ps.Organisms) != 0 {
		t.Errorf("len(Organisms) = %d, want 0 after departure", len(ps.Organisms))
	}
}

type testError string

func (e testError) Error() string { return string(e) }

var errTest = testError("handler failure")
