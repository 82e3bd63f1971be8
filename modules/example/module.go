// Package example binds the introductory tutorial types: free functions
// with named and defaulted arguments, module attributes, a class with
// dynamic attributes, inheritance with and without automatic
// downcasting, overloaded methods and a class with a nested enum.
package example

import (
	"github.com/specialistvlad/ctybind/internal/bind"
	"github.com/specialistvlad/ctybind/internal/registry"
)

// Module implements the registry.Module interface for this package.
type Module struct{}

// Register registers the bound module with the engine.
func (m *Module) Register(r *registry.Registry) {
	r.Add(Bind())
}

// Bind declares the "example" module.
func Bind() *bind.Module {
	m := bind.NewModule("example", "TestPybind plugin")

	m.Def("add", Add, bind.Doc("A function that adds two integers"))
	m.Def("add1", Add, bind.Doc("A function that adds two integers"),
		bind.Arg("i"), bind.Arg("j"))
	m.Def("add2", Add, bind.Doc("A function that adds two integers"),
		bind.Arg("i"), bind.Arg("j"))
	m.Def("add3", Add, bind.Doc("A function that adds two integers"),
		bind.Arg("i").Default(1), bind.Arg("j").Default(2))

	m.Attr("the_answer", 42)
	m.Attr("what", "World")

	pet := bind.NewClass[*Pet](m, "Pet", bind.DynamicAttr()).
		Init(NewPet).
		Def("setName", (*Pet).SetName).
		Def("getName", (*Pet).GetName).
		Repr(func(p *Pet) string { return "<example.Pet named '" + p.Name + "'>" }).
		DefReadwrite("name", "Name").
		DefProperty("name", (*Pet).GetName, (*Pet).SetName)

	dog := bind.NewClass[*Dog](m, "Dog").
		Init(NewDog).
		Def("bark", (*Dog).Bark)
	bind.Inherit(dog, pet, func(d *Dog) *Pet { return &d.Pet })

	m.Def("pet_store", PetStore)

	polyPet := bind.NewClass[PolymorphicPet](m, "PolymorphicPet")
	polyDog := bind.NewClass[*PolymorphicDog](m, "PolymorphicDog").
		Init(func() *PolymorphicDog { return &PolymorphicDog{} }).
		Def("bark", (*PolymorphicDog).Bark)
	bind.Inherit(polyDog, polyPet, nil)

	m.Def("pet_store2", PetStore2)

	bind.NewClass[*Widget](m, "Widget").
		Init(func() *Widget { return &Widget{} }).
		Def("add", (*Widget).AddInts, bind.Doc("Sum of two integers")).
		Def("add", (*Widget).AddFloats, bind.Doc("Sum of two floats")).
		Def("foo_mutable", (*Widget).Foo).
		Def("foo_const", Widget.FooConst)

	enumPet := bind.NewClass[*EnumPet](m, "EnumPet").
		Init(NewEnumPet).
		DefReadwrite("name", "Name").
		DefReadwrite("type", "Type").
		DefReadwrite("attr", "Attr")

	bind.NewEnum[Kind](enumPet, "Kind").
		Value("Dog", KindDog).
		Value("Cat", KindCat).
		ExportValues()

	bind.NewClass[*Attributes](enumPet, "Attributes").
		Init(func() *Attributes { return &Attributes{} }).
		DefReadwrite("age", "Age")

	return m
}
