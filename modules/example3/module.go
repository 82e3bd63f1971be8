// Package example3 binds the advanced tutorial: trampolines that let
// scripts override virtual methods, custom constructors, operators,
// pickling, access to unexported methods and a tag-based downcast hook.
package example3

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

// Bind declares the "example3" module.
func Bind() *bind.Module {
	m := bind.NewModule("example3", "")

	animal := bind.NewClass[Animal](m, "Animal").
		Init(func() Animal { return &animalTrampoline{} }).
		Def("go", Animal.Go).
		Trampoline(func(o *bind.Overrides) Animal { return &animalTrampoline{Overrides: o} })

	dog := bind.NewClass[Barker](m, "Dog").
		Init(func() Barker { return &Dog{} }).
		Def("go", Barker.Go).
		Def("bark", Barker.Bark).
		Trampoline(func(o *bind.Overrides) Barker { return &dogTrampoline{Overrides: o} })
	bind.Inherit(dog, animal, nil)

	m.Def("call_go", CallGo)

	bind.NewClass[*Example](m, "Example").
		Init(CreateExample).
		Init(NewExampleString).
		Init(NewExamplePair).
		Init(NewExampleFloat).
		Def("source", (*Example).Source)

	bind.NewClass[*MyVector](m, "MyVector").
		Init(NewMyVector).
		Operator(bind.OpAdd, (*MyVector).Add).
		Operator(bind.OpIAdd, (*MyVector).IAdd).
		Operator(bind.OpIMul, (*MyVector).IScale).
		ROperator(bind.OpMul, func(f float32, v *MyVector) *MyVector { return v.Scale(f) }).
		Operator(bind.OpMul, (*MyVector).Scale).
		Repr((*MyVector).String)

	bind.NewClass[*Pickleable](m, "Pickleable").
		Init(NewPickleable).
		Def("value", (*Pickleable).Value).
		Def("extra", (*Pickleable).Extra).
		Def("setExtra", (*Pickleable).SetExtra).
		Pickle(PickleableState, PickleableFromState)

	bind.NewClass[*A](m, "A").
		Def("foo", func(a *A) int { return (*publicist)(a).Foo() }).
		Def("foo2", func(a *A) int { return (*publicist)(a).Foo2() }).
		Trampoline(func(o *bind.Overrides) *A { return &A{ov: o} })

	pet := bind.NewClass[*Pet](m, "Pet").
		DefProperty("kind", func(p *Pet) string { return p.Kind().String() }, nil).
		DefReadwrite("age", "Age").
		Downcast(PetResolver)
	zembra := bind.NewClass[*Zembra](m, "Zembra").
		Init(NewZembra).
		Def("bark", (*Zembra).Bark).
		DefReadwrite("sound", "Sound")
	bind.Inherit(zembra, pet, (*Zembra).AsPet)

	m.Def("make_cat", NewCat)
	m.Def("make_dog", NewPetDog)
	m.Def("pet_zoo", PetZoo)

	return m
}
