// Package env_vars binds read access to the process environment.
package env_vars

import (
	"os"
	"strings"

	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/specialistvlad/ctybind/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the bound module with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Add(Bind())
}

// All returns every environment variable.
func All() map[string]string {
	envMap := make(map[string]string)
	for _, e := range os.Environ() {
		pair := strings.SplitN(e, "=", 2)
		if len(pair) == 2 {
			envMap[pair[0]] = pair[1]
		}
	}
	return envMap
}

// Get returns the value of name, or fallback when it is unset.
func Get(name, fallback string) string {
	if v, ok := os.LookupEnv(name); ok {
		return v
	}
	return fallback
}

// Bind declares the "env_vars" module.
func Bind() *bind.Module {
	m := bind.NewModule("env_vars", "Reads the process environment.")
	m.Def("all", All, bind.Doc("Returns every environment variable as a map."))
	m.Def("get", Get, bind.Doc("Returns a variable or the fallback when unset."),
		bind.Arg("name"), bind.Arg("fallback").Default(""))
	return m
}
