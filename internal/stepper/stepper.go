// Package stepper implements the simulation stepper (spec §4.H): the driver
// that advances a replicate through the init/start/step/end phase cycle,
// running each entity's substeps in turn and performing organism discovery
// as a strictly separate pass after a patch's end phase. Grounded on the
// teacher's top-level Interpreter run loop (internal/interp/interpreter.go)
// for the "drive a fixed sequence, abort cleanly on error" shape, and its
// program-wiring harness (internal/interp/runner/runner.go) for how a
// driver is handed its fully-built dependencies rather than constructing
// them itself.
package stepper

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/joshsim/joshcore/internal/entity"
	"github.com/joshsim/joshcore/internal/errkind"
	"github.com/joshsim/joshcore/internal/evaluator"
	"github.com/joshsim/joshcore/internal/external"
	"github.com/joshsim/joshcore/internal/replicate"
	"github.com/joshsim/joshcore/internal/values"
)

// Phase names one of the four substep phases (§4.H).
type Phase string

const (
	PhaseInit  Phase = "init"
	PhaseStart Phase = "start"
	PhaseStep  Phase = "step"
	PhaseEnd   Phase = "end"
)

var everyStepPhases = []Phase{PhaseStart, PhaseStep, PhaseEnd}

// PatchState pairs a patch's shadow with the shadows of the organisms
// currently resident on it. Organisms is refreshed by organism discovery
// after every end phase and is the authoritative working set for the next
// step.
type PatchState struct {
	Shadow    *evaluator.Shadow
	Organisms []*evaluator.Shadow
}

// Program is the compiled input the stepper drives (§6): the simulation's
// patch geography and its simulation-wide shadow, reachable from any entity
// via the "meta" synthetic name. Compiling Josh source into a Program is out
// of scope (§1); callers (the CLI or a test fixture) assemble one directly.
//
// Exporters lists the registered export collaborators notified after every
// step (§2 "freezes the new snapshot into the replicate, and notifies
// exporters"; §6 "Exporter contract"). Variables is the ordered variable
// list passed to each exporter call; the core only guarantees this ordering
// is deterministic, never the export format itself.
type Program struct {
	Patches    []*PatchState
	Simulation *evaluator.Shadow
	Exporters  []external.Exporter
	Variables  []string
}

// Simulation drives one replicate's Program through successive steps,
// recording a snapshot into store after each step that completes without
// error.
type Simulation struct {
	prog  *Program
	store *replicate.Store
	log   *logrus.Logger

	absStep int // index of the last step completed; -1 before the first Perform
}

// New constructs a Simulation. log may be nil, in which case a default
// logrus.Logger is used (mirroring the teacher's io.Writer-or-stdout
// fallback in interp.New).
func New(prog *Program, store *replicate.Store, log *logrus.Logger) *Simulation {
	if log == nil {
		log = logrus.New()
	}
	sortPatchesByGeoKey(prog.Patches)
	return &Simulation{prog: prog, store: store, log: log, absStep: -1}
}

func sortPatchesByGeoKey(patches []*PatchState) {
	sort.Slice(patches, func(i, j int) bool {
		ki, _ := patches[i].Shadow.Entity().GeoKeyOf()
		kj, _ := patches[j].Shadow.Entity().GeoKeyOf()
		if ki.Row != kj.Row {
			return ki.Row < kj.Row
		}
		return ki.Col < kj.Col
	})
}

// Perform executes exactly one absolute step (§4.H "perform() -> absoluteStep"):
// init only on the very first call, then start/step/end, with organism
// discovery run as a separate pass immediately after each patch's end phase.
// An error from any handler aborts the step before any snapshot is recorded
// — the replicate store is left exactly as it was before Perform was called
// — and is returned to the caller annotated with entity/attribute/phase. Once
// the step's snapshot is recorded, every registered exporter is notified in
// order (§2, §6 "Exporter contract"); an exporter error is returned to the
// caller but does not unwind the already-recorded snapshot.
func (s *Simulation) Perform() (int, error) {
	phases := everyStepPhases
	if s.absStep < 0 {
		phases = append([]Phase{PhaseInit}, everyStepPhases...)
	}

	for _, phase := range phases {
		for _, ps := range s.prog.Patches {
			if err := s.runEntitySubstep(ps.Shadow, phase); err != nil {
				return 0, err
			}
			for _, org := range ps.Organisms {
				if err := s.runEntitySubstep(org, phase); err != nil {
					return 0, err
				}
			}
			if phase == PhaseEnd {
				s.discoverOrganisms(ps)
			}
		}
	}

	for _, ps := range s.prog.Patches {
		ps.Shadow.BeginNextStep()
		for _, org := range ps.Organisms {
			org.BeginNextStep()
		}
	}

	s.absStep++
	snapshot := s.snapshotPatches()
	s.store.Record(snapshot)

	for _, exp := range s.prog.Exporters {
		if err := exp.Export(s.absStep, snapshot, s.prog.Variables); err != nil {
			return s.absStep, errkind.Wrap(errkind.ExportError, err,
				fmt.Sprintf("exporter failed at step %d", s.absStep))
		}
	}

	return s.absStep, nil
}

// runEntitySubstep brackets one entity's one-phase substep: startSubstep,
// resolve every declared attribute on demand, endSubstep (§4.H step 2).
func (s *Simulation) runEntitySubstep(sh *evaluator.Shadow, phase Phase) error {
	ent := sh.Entity()
	if err := sh.StartSubstep(string(phase)); err != nil {
		return err
	}
	names := ent.GetAttributeNames()
	sort.Strings(names)
	for _, name := range names {
		if _, err := sh.GetAttributeValue(name); err != nil {
			if ee, ok := err.(*errkind.EngineError); ok {
				return ee.WithLocation(ent.EntityTypeName(), name, string(phase))
			}
			return err
		}
	}
	if err := sh.EndSubstep(); err != nil {
		return err
	}
	return nil
}

// discoverOrganisms recomputes a patch's resident-organism working set from
// the entity-refs currently reachable from its attributes (§4.H step 3,
// §9's normative fix: this pass runs strictly after the end phase, never
// interleaved into handler evaluation). Organisms present in both the old
// and new set keep their existing Shadow (and its resolution history);
// arrivals get a fresh Shadow parented to the patch.
func (s *Simulation) discoverOrganisms(ps *PatchState) {
	refs := collectEntityRefs(ps.Shadow.Entity(), make(map[*entity.Entity]bool))

	prevByKey := make(map[string]*evaluator.Shadow, len(ps.Organisms))
	for _, o := range ps.Organisms {
		prevByKey[o.Entity().RefKey()] = o
	}

	seen := make(map[string]bool, len(refs))
	next := make([]*evaluator.Shadow, 0, len(refs))
	for _, ref := range refs {
		ent, ok := ref.(*entity.Entity)
		if !ok {
			continue
		}
		key := ent.RefKey()
		if seen[key] {
			continue
		}
		seen[key] = true

		if prior, ok := prevByKey[key]; ok {
			next = append(next, prior)
			continue
		}
		sh := evaluator.New(ent, ps.Shadow, s.prog.Simulation)
		next = append(next, sh)
		s.log.WithFields(logrus.Fields{"patch": ps.Shadow.Entity().RefKey(), "organism": key}).
			Debug("organism arrival")
	}
	for key := range prevByKey {
		if !seen[key] {
			s.log.WithFields(logrus.Fields{"patch": ps.Shadow.Entity().RefKey(), "organism": key}).
				Debug("organism departure")
		}
	}
	ps.Organisms = next
}

// collectEntityRefs walks every attribute of ent, gathering entity-refs held
// either directly (a scalar entity-ref value) or within a distribution of
// them, and recurses into each discovered entity's own attributes in turn
// (§4.H "collect all entity-refs currently held by patch attributes,
// recursively"). visited guards against cycles.
func collectEntityRefs(ent *entity.Entity, visited map[*entity.Entity]bool) []values.EntityRef {
	if visited[ent] {
		return nil
	}
	visited[ent] = true

	names := ent.GetAttributeNames()
	sort.Strings(names)

	var out []values.EntityRef
	for _, name := range names {
		v, err := ent.GetAttributeValue(name)
		if err != nil {
			continue
		}
		out = append(out, entityRefsIn(v)...)
	}
	for _, ref := range out {
		if child, ok := ref.(*entity.Entity); ok {
			out = append(out, collectEntityRefs(child, visited)...)
		}
	}
	return out
}

func entityRefsIn(v values.Value) []values.EntityRef {
	if v.Type() == nil || v.Type().Root != values.EntityRefKind {
		return nil
	}
	if v.IsDistribution() {
		elems, err := v.Elements()
		if err != nil {
			return nil
		}
		var refs []values.EntityRef
		for _, e := range elems {
			refs = append(refs, entityRefsIn(e)...)
		}
		return refs
	}
	ref, err := v.AsEntity()
	if err != nil {
		return nil
	}
	return []values.EntityRef{ref}
}

// snapshotPatches freezes every patch (and, implicitly via its attribute
// values, its organisms' refs) into the form the replicate store records.
func (s *Simulation) snapshotPatches() map[entity.GeoKey]entity.Frozen {
	out := make(map[entity.GeoKey]entity.Frozen, len(s.prog.Patches))
	for _, ps := range s.prog.Patches {
		ent := ps.Shadow.Entity()
		key, ok := ent.GeoKeyOf()
		if !ok {
			continue
		}
		out[key] = snapshotWithoutFreezing(ent)
	}
	return out
}

// snapshotWithoutFreezing copies an entity's current attribute map without
// marking the live entity frozen, since the patch keeps participating in
// subsequent steps (only entity.Entity.Freeze itself locks writes).
func snapshotWithoutFreezing(ent *entity.Entity) entity.Frozen {
	vals := ent.SnapshotValues()
	geoKey, hasGeo := ent.GeoKeyOf()
	f := entity.Frozen{TypeName: ent.EntityTypeName(), Values: vals}
	if hasGeo {
		f.GeoKey = &geoKey
	}
	return f
}
