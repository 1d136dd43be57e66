// Package core contains canonical autohub domain contracts, entities, and
// orchestration logic. Lower-level adapters must depend on this package; core
// must not depend on integration-specific or transport-specific adapters.
package core
