package app

import (
	"github.com/vk/shimloader/internal/engine"
	"github.com/vk/shimloader/modules/lua"
	"github.com/vk/shimloader/modules/starlark"
)

// coreEngines is the definitive list of script engines compiled into the
// shimloader binary.
var coreEngines = []engine.Module{
	&lua.Module{},
	&starlark.Module{},
}
