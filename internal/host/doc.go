// Package host builds the HCL evaluation context scripts run in.
//
// Every bound function and class constructor becomes a namespaced HCL
// function named after its module ("example::add",
// "example::EnumPet::Attributes"). Every module becomes a variable of
// the same name holding its attributes, enum members and nested enum
// namespaces. A fixed set of builtins covers what HCL has no syntax for:
// method calls, attribute access, keyword arguments, operators, pickling
// and the optional shelf.
package host
