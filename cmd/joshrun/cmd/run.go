package cmd

import (
	"fmt"
	"math/rand"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/joshsim/joshcore/internal/callable"
	"github.com/joshsim/joshcore/internal/entity"
	"github.com/joshsim/joshcore/internal/evaluator"
	"github.com/joshsim/joshcore/internal/replicate"
	"github.com/joshsim/joshcore/internal/stepper"
	"github.com/joshsim/joshcore/internal/units"
	"github.com/joshsim/joshcore/internal/values"
)

var (
	steps    int
	gridSize int
	seed     int64
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Drive an in-memory demonstration Program through N steps",
	Long: `Builds a small grid-of-patches Program in memory and steps it forward,
printing each step's replicate snapshot.

Compiling Josh source text into a Program is out of scope for this core —
run always drives the built-in demonstration fixture.`,
	RunE: runSimulation,
}

func init() {
	rootCmd.AddCommand(runCmd)
	runCmd.Flags().IntVar(&steps, "steps", 5, "number of steps to perform")
	runCmd.Flags().IntVar(&gridSize, "grid", 2, "side length of the square patch grid")
	runCmd.Flags().Int64Var(&seed, "seed", 1, "random seed for the replicate")
}

func runSimulation(c *cobra.Command, _ []string) error {
	verbose, _ := c.Flags().GetBool("verbose")
	log := logrus.New()
	if verbose {
		log.SetLevel(logrus.DebugLevel)
	}

	prog := buildDemoProgram(gridSize, seed)
	store := replicate.New()
	sim := stepper.New(prog, store, log)

	for i := 0; i < steps; i++ {
		n, err := sim.Perform()
		if err != nil {
			return fmt.Errorf("step %d: %w", i, err)
		}
		log.WithField("step", n).Info("step complete")
		printSnapshot(n, store)
	}
	return nil
}

// buildDemoProgram assembles a gridSize x gridSize patch grid, each patch
// holding one organism, exercising the full entity/evaluator/stepper chain:
// a patch "moisture" attribute that drifts each step phase, and an organism
// "age" attribute that increments once per step. This is the in-memory
// fixture the spec's Program contract stands in for (§6): compiling Josh
// source into one is explicitly out of scope (§1).
func buildDemoProgram(n int, seed int64) *stepper.Program {
	rnd := rand.New(rand.NewSource(seed))
	meter := units.Single("meter")

	prog := &stepper.Program{}
	for row := 0; row < n; row++ {
		for col := 0; col < n; col++ {
			patchEnt := entity.New("Patch", []string{"moisture", "residents"}, map[string]values.Value{
				"moisture": values.DoubleWithUnits(0.5, meter),
			})
			patchEnt.SetGeoKey(entity.GeoKey{Row: row, Col: col})
			patchEnt.RegisterHandlerGroup("moisture", "step", []callable.HandlerPair{{
				Body: callable.Callable(func(s callable.Scope) (values.Value, error) {
					priorScope, err := s.GetSynthetic("prior")
					if err != nil {
						return values.Value{}, err
					}
					prior, err := priorScope.GetAttributeValue("moisture")
					if err != nil {
						return values.Value{}, err
					}
					f, err := prior.AsDouble()
					if err != nil {
						return values.Value{}, err
					}
					return values.DoubleWithUnits(f+0.01*rnd.Float64(), meter), nil
				}),
			}})

			orgEnt := entity.New("Organism", []string{"age"}, map[string]values.Value{
				"age": values.Int(0),
			})
			orgEnt.SetGeoKey(entity.GeoKey{Row: row, Col: col})
			orgEnt.RegisterHandlerGroup("age", "step", []callable.HandlerPair{{
				Body: callable.Callable(func(s callable.Scope) (values.Value, error) {
					prior, err := s.GetSynthetic("prior")
					if err != nil {
						return values.Value{}, err
					}
					p, err := prior.GetAttributeValue("age")
					if err != nil {
						return values.Value{}, err
					}
					i, err := p.AsInt()
					if err != nil {
						return values.Value{}, err
					}
					return values.Int(i + 1), nil
				}),
			}})
			if err := patchEnt.SetAttributeValue("residents", values.Entity(orgEnt)); err != nil {
				panic(err)
			}
			orgEnt.SetParent(patchEnt)

			patchShadow := evaluator.New(patchEnt, nil, nil)
			orgShadow := evaluator.New(orgEnt, patchShadow, nil)
			prog.Patches = append(prog.Patches, &stepper.PatchState{
				Shadow:    patchShadow,
				Organisms: []*evaluator.Shadow{orgShadow},
			})
		}
	}
	return prog
}

func printSnapshot(step int, store *replicate.Store) {
	for row := 0; row < gridSize; row++ {
		for col := 0; col < gridSize; col++ {
			key := entity.GeoKey{Row: row, Col: col}
			p, err := store.GetPatchByKey(key, 0)
			if err != nil {
				continue
			}
			fmt.Printf("step=%d patch=%v moisture=%s\n", step, key, p.Values["moisture"])
		}
	}
}
