// Package convert implements the unit converter (spec §4.D): a directed
// graph of registered conversions between Units, composed by shortest path
// and memoized. Grounded on the teacher's ConversionRegistry
// (internal/interp/types/type_system.go), whose FindConversionPath BFS is
// adapted here from type-name nodes to Units nodes, and whose edges become
// Value→Value callables instead of bare "implicit conversion exists" facts.
package convert

import (
	"github.com/joshsim/joshcore/internal/errkind"
	"github.com/joshsim/joshcore/internal/units"
	"github.com/joshsim/joshcore/internal/values"
)

// Conversion is a registered edge: a callable that rescales a Value from
// one Units to an adjacent Units. Registered edges are assumed invertible
// only if both directions are explicitly registered; the graph is directed.
type Conversion func(v values.Value) (values.Value, error)

type edge struct {
	fn   Conversion
	dest *units.Units
}

// Registry is the directed graph of registered conversions, plus a memo of
// composed paths already discovered (§4.D "finds a composition by shortest
// path and memoizes").
type Registry struct {
	edges map[*units.Units][]edge
	memo  map[pairKey]Conversion
}

type pairKey struct {
	from, to *units.Units
}

// New returns an empty conversion registry.
func New() *Registry {
	return &Registry{
		edges: make(map[*units.Units][]edge),
		memo:  make(map[pairKey]Conversion),
	}
}

// Register adds a directed conversion edge from → to. Registering the same
// (from, to) pair twice overwrites the earlier edge, mirroring the
// teacher's last-registration-wins RegisterRecord/RegisterClass pattern.
func (r *Registry) Register(from, to *units.Units, fn Conversion) {
	replaced := false
	for i, e := range r.edges[from] {
		if e.dest.Equal(to) {
			r.edges[from][i] = edge{fn: fn, dest: to}
			replaced = true
			break
		}
	}
	if !replaced {
		r.edges[from] = append(r.edges[from], edge{fn: fn, dest: to})
	}
	r.memo = make(map[pairKey]Conversion) // invalidate any stale composed path
}

// getConversion returns the conversion callable to use for from → to: the
// identity function if the units already match, a direct or composed edge
// if reachable, or a no-conversion error otherwise. Results are memoized.
func (r *Registry) getConversion(from, to *units.Units) (Conversion, error) {
	if from.Equal(to) {
		return identity, nil
	}

	key := pairKey{from, to}
	if fn, ok := r.memo[key]; ok {
		return fn, nil
	}

	path, ok := r.shortestPath(from, to)
	if !ok {
		return nil, errkind.Newf(errkind.NoConversion, "no registered conversion from %q to %q", from, to)
	}

	composed := composePath(path)
	r.memo[key] = composed
	return composed, nil
}

// Convert applies the registered (possibly composed) conversion from v's
// units to target, returning a new Value relabeled with target's units.
func (r *Registry) Convert(v values.Value, target *units.Units) (values.Value, error) {
	fn, err := r.getConversion(v.Units(), target)
	if err != nil {
		return values.Value{}, err
	}
	return fn(v)
}

func identity(v values.Value) (values.Value, error) { return v, nil }

// pathStep is one hop of a discovered conversion path: the edge callable
// plus the units it lands on, used so composePath can chain application.
type pathStep struct {
	fn   Conversion
	dest *units.Units
}

// shortestPath runs a breadth-first search over the registered edges,
// generalizing the teacher's FindConversionPath from type-name string nodes
// to Units-pointer nodes (Units values are interned, so pointer identity is
// a valid map key — see package units).
func (r *Registry) shortestPath(from, to *units.Units) ([]pathStep, bool) {
	type queueItem struct {
		node *units.Units
		path []pathStep
	}

	visited := map[*units.Units]bool{from: true}
	queue := []queueItem{{node: from, path: nil}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]

		for _, e := range r.edges[cur.node] {
			if visited[e.dest] {
				continue
			}
			nextPath := make([]pathStep, len(cur.path)+1)
			copy(nextPath, cur.path)
			nextPath[len(cur.path)] = pathStep{fn: e.fn, dest: e.dest}

			if e.dest.Equal(to) {
				return nextPath, true
			}
			visited[e.dest] = true
			queue = append(queue, queueItem{node: e.dest, path: nextPath})
		}
	}
	return nil, false
}

// composePath chains a discovered path of edges into a single callable,
// applying each hop's conversion and relabeling units as it goes.
func composePath(path []pathStep) Conversion {
	return func(v values.Value) (values.Value, error) {
		cur := v
		for _, step := range path {
			next, err := step.fn(cur)
			if err != nil {
				return values.Value{}, err
			}
			cur = next.ReplaceUnits(step.dest)
		}
		return cur, nil
	}
}
