// Package replicate implements the replicate store (spec §4.I): an
// in-memory, per-step history of frozen patch snapshots, queryable by point,
// bounding geometry, or key, at a step offset (0 = current, negative =
// prior). Grounded on the teacher's object pool
// (internal/interp/runtime/pool.go): a map-based cache plus simple counter
// stats, invalidated on a boundary event — there the pool's reset, here the
// start of a new step.
package replicate

import (
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/joshsim/joshcore/internal/entity"
	"github.com/joshsim/joshcore/internal/errkind"
)

// Snapshot is one step's frozen patch set, keyed by geographic key.
type Snapshot struct {
	Step    int
	Patches map[entity.GeoKey]entity.Frozen
}

// Bounds is the rectangular bounding box used for geometry queries. Full
// geospatial geometry parsing is out of scope (§1); a closed integer-grid
// rectangle is the one geometry shape the core itself needs to express.
type Bounds struct {
	MinRow, MinCol, MaxRow, MaxCol int
}

// Contains reports whether k falls within b, inclusive.
func (b Bounds) Contains(k entity.GeoKey) bool {
	return k.Row >= b.MinRow && k.Row <= b.MaxRow && k.Col >= b.MinCol && k.Col <= b.MaxCol
}

// GeometryToken is the interned identity of a geometry query, used as the
// query cache's key (§4.I "a wrapper cache may memoize geometry→patch-set
// lookups keyed by an interned geometry token").
type GeometryToken uuid.UUID

// Query selects patches at a step offset, either by a single point or by a
// bounding geometry. A non-nil Point makes it a point query; otherwise
// Bounds is searched, and a non-zero Token keys the query cache.
type Query struct {
	Step   int // 0 = current, negative = prior
	Point  *entity.GeoKey
	Token  GeometryToken
	Bounds Bounds
}

// geoCacheEntry memoizes one geometry token's patch-set result for the step
// it was computed against; it is invalidated whenever a new step is
// recorded, since the underlying patch set may have changed (organism
// discovery, handler writes).
type geoCacheEntry struct {
	step    int
	results []entity.Frozen
}

// Store holds every step's frozen patch snapshot, ordered by step number
// starting at 0.
type Store struct {
	mu        sync.RWMutex
	snapshots []Snapshot

	geoCache map[GeometryToken]geoCacheEntry

	cacheHits   atomic.Uint64
	cacheMisses atomic.Uint64
}

// New constructs an empty replicate store.
func New() *Store {
	return &Store{geoCache: make(map[GeometryToken]geoCacheEntry)}
}

// Record appends the step's frozen patch set as the next snapshot. Step
// numbers must be recorded in order starting at 0; Record also invalidates
// the geometry query cache (§4.I "cache invalidation is per-step").
func (s *Store) Record(patches map[entity.GeoKey]entity.Frozen) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	step := len(s.snapshots)
	s.snapshots = append(s.snapshots, Snapshot{Step: step, Patches: patches})
	s.geoCache = make(map[GeometryToken]geoCacheEntry)
	return step
}

// LatestStep returns the index of the most recently recorded step, or -1 if
// no step has been recorded yet.
func (s *Store) LatestStep() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.snapshots) - 1
}

// resolve converts a step offset (0 = current, negative = prior) into an
// absolute step index. Must be called with s.mu held.
func (s *Store) resolve(offset int) (int, bool) {
	latest := len(s.snapshots) - 1
	if latest < 0 {
		return 0, false
	}
	abs := latest + offset
	if abs < 0 || abs > latest {
		return 0, false
	}
	return abs, true
}

// GetPatchByKey returns the patch at key at the given step offset.
func (s *Store) GetPatchByKey(key entity.GeoKey, stepOffset int) (entity.Frozen, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	abs, ok := s.resolve(stepOffset)
	if !ok {
		return entity.Frozen{}, errkind.Newf(errkind.UnknownSimulation, "no snapshot at step offset %d", stepOffset)
	}
	p, ok := s.snapshots[abs].Patches[key]
	if !ok {
		return entity.Frozen{}, errkind.Newf(errkind.UnknownAttribute, "no patch at key %v in step %d", key, abs)
	}
	return p, nil
}

// Query returns the set of patches matching q. A point query returns at
// most one patch; a bounding-geometry query returns every patch whose key
// falls within q.Bounds, and — if q.Token is non-zero — memoizes the result
// against that token until the next Record.
func (s *Store) Query(q Query) ([]entity.Frozen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	abs, ok := s.resolve(q.Step)
	if !ok {
		return nil, errkind.Newf(errkind.UnknownSimulation, "no snapshot at step offset %d", q.Step)
	}
	snap := s.snapshots[abs]

	if q.Point != nil {
		p, ok := snap.Patches[*q.Point]
		if !ok {
			return nil, nil
		}
		return []entity.Frozen{p}, nil
	}

	var zero GeometryToken
	if q.Token != zero {
		if e, ok := s.geoCache[q.Token]; ok && e.step == abs {
			s.cacheHits.Add(1)
			return e.results, nil
		}
	}
	s.cacheMisses.Add(1)

	var results []entity.Frozen
	for k, p := range snap.Patches {
		if q.Bounds.Contains(k) {
			results = append(results, p)
		}
	}
	if q.Token != zero {
		s.geoCache[q.Token] = geoCacheEntry{step: abs, results: results}
	}
	return results, nil
}

// CacheStats reports the geometry query cache's hit/miss counters, mirroring
// the teacher's pool allocation counters.
func (s *Store) CacheStats() (hits, misses uint64) {
	return s.cacheHits.Load(), s.cacheMisses.Load()
}
