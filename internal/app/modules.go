package app

import (
	"github.com/vk/taskgrid/internal/runner"
	"github.com/vk/taskgrid/modules/shell"
	"github.com/vk/taskgrid/modules/sleep"
)

// coreModules are the runner modules registered when the caller does not
// supply its own set.
var coreModules = []runner.Module{
	&shell.Module{},
	&sleep.Module{},
}
