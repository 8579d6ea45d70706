// Package core provides the generic pipeline stages every template can use:
// identity, composition, mapping, filtering, limiting and branching. The
// lazy stages (map, filter, take) suspend until the job drain asks for the
// next item.
package core

import (
	"github.com/vk/taskweave/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers all of the package's stage factories with the central
// registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterStage("core.identity", newIdentity)
	r.RegisterStage("core.compose", newCompose)
	r.RegisterStage("core.map", newMap)
	r.RegisterStage("core.filter", newFilter)
	r.RegisterStage("core.take", newTake)
	r.RegisterStage("core.when", newWhen)
	r.RegisterStage("core.fork_join", newForkJoin)
	r.RegisterStage("core.terminate", newTerminate)
	r.RegisterStage("core.print", newPrint)
}
