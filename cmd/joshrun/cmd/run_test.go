package cmd

import (
	"testing"

	"github.com/joshsim/joshcore/internal/entity"
	"github.com/joshsim/joshcore/internal/replicate"
	"github.com/joshsim/joshcore/internal/stepper"
)

func TestBuildDemoProgramStepsWithoutError(t *testing.T) {
	prog := buildDemoProgram(2, 42)
	if len(prog.Patches) != 4 {
		t.Fatalf("len(Patches) = %d, want 4 (2x2 grid)", len(prog.Patches))
	}

	store := replicate.New()
	sim := stepper.New(prog, store, nil)
	for i := 0; i < 3; i++ {
		if _, err := sim.Perform(); err != nil {
			t.Fatalf("Perform step %d: %v", i, err)
		}
	}

	p, err := store.GetPatchByKey(entity.GeoKey{Row: 0, Col: 0}, 0)
	if err != nil {
		t.Fatalf("GetPatchByKey: %v", err)
	}
	if _, ok := p.Values["moisture"]; !ok {
		t.Error("expected patch snapshot to carry a moisture attribute")
	}
}

func TestDemoOrganismAgesOncePerStep(t *testing.T) {
	prog := buildDemoProgram(1, 7)
	store := replicate.New()
	sim := stepper.New(prog, store, nil)

	for i := 0; i < 3; i++ {
		if _, err := sim.Perform(); err != nil {
			t.Fatalf("Perform step %d: %v", i, err)
		}
	}
	org := prog.Patches[0].Organisms[0]
	v, err := org.GetPriorAttribute("age")
	if err != nil {
		t.Fatalf("GetPriorAttribute: %v", err)
	}
	age, _ := v.AsInt()
	if age != 2 {
		t.Errorf("age after 3 steps (prior snapshot) = %d, want 2", age)
	}
}
