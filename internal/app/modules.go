package app

import (
	"github.com/specialistvlad/ctybind/internal/registry"
	"github.com/specialistvlad/ctybind/modules/env_vars"
	"github.com/specialistvlad/ctybind/modules/example"
	"github.com/specialistvlad/ctybind/modules/example2"
	"github.com/specialistvlad/ctybind/modules/example3"
	"github.com/specialistvlad/ctybind/modules/print"
)

// coreModules is the definitive list of all modules that are compiled into
// the ctybind binary.
var coreModules = []registry.Module{
	&example.Module{},
	&example2.Module{},
	&example3.Module{},
	&env_vars.Module{},
	&print.Module{},
}
