// Package external declares the core's three host-collaborator boundaries
// (§6, §4.J): external data resources, configuration, and export. The core
// never implements these — parsers, geospatial formats, transport, and
// on-disk layout are explicitly out of scope (§1) — it only calls through
// them. Grounded on the teacher's callback boundary
// (internal/interp/ffi_callback.go: "Go function as external collaborator
// the interpreter calls back into"), generalized from a single function
// pointer to three named collaborator interfaces.
package external

import (
	"github.com/joshsim/joshcore/internal/entity"
	"github.com/joshsim/joshcore/internal/values"
)

// ExternalDataAdapter resolves a named external resource at a spatial key
// and step (§6 "getExternal(geoKey, resourceName, step) -> Value"). No
// package in this module calls GetExternal, and none appends a file-type
// suffix (such as ".jshd") to resourceName; an adapter receives the name
// exactly as its caller passes it.
type ExternalDataAdapter interface {
	GetExternal(geoKey entity.GeoKey, resourceName string, step int) (values.Value, error)
}

// ConfigAdapter resolves a named configuration value (§6
// "getConfig(name) -> Optional<Value>"). A missing name is not an error: ok
// is false and the returned Value is meaningless.
type ConfigAdapter interface {
	GetConfig(name string) (v values.Value, ok bool)
}

// Exporter is invoked by the stepper after each step with the step number,
// the step's snapshot, and the ordered list of variables to emit (§6
// "Exporter contract"). An exporter chooses between consolidated
// (single-file) and parameterized (templated path with
// {replicate}/{step}/{variable} tokens) emission; the core only guarantees
// the variable list's ordering is deterministic, never the output format.
type Exporter interface {
	Export(step int, snapshot map[entity.GeoKey]entity.Frozen, variables []string) error
}
