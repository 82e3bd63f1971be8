// Package registry collects the bound modules of one application
// instance.
//
// Modules register themselves through the Module interface. Once every
// module is in, the registry indexes their classes by Go type and by
// qualified name, which is the lookup the bind.Converter needs to pick
// the class a Go value is exposed as. ValidateRegistry then checks that
// the declarations agree with each other, so a broken binding fails at
// startup rather than in the middle of a script.
package registry
