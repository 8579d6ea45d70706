package app

import (
	"github.com/vk/taskweave/internal/registry"
	"github.com/vk/taskweave/modules/core"
	"github.com/vk/taskweave/modules/github"
	"github.com/vk/taskweave/modules/gitlab"
	"github.com/vk/taskweave/modules/helpscout"
	"github.com/vk/taskweave/modules/socketio"
	"github.com/vk/taskweave/modules/tmpl"
	"github.com/vk/taskweave/modules/trello"
)

// coreModules is the definitive list of all modules that are compiled into
// the taskweave binary.
var coreModules = []registry.Module{
	&core.Module{},
	&tmpl.Module{},
	&github.Module{},
	&gitlab.Module{},
	&helpscout.Module{},
	&trello.Module{},
	&socketio.Module{},
}
