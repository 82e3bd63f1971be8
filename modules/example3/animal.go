package example3

import (
	"strings"

	"github.com/specialistvlad/ctybind/internal/bind"
)

// Animal is the virtual interface scripts may implement.
type Animal interface {
	Go(nTimes int) string
	Name() string
}

// animalTrampoline sends every Animal method to the script. Both are
// pure: an Animal built from Go has nothing to fall back to.
type animalTrampoline struct {
	*bind.Overrides
}

func (t *animalTrampoline) Go(nTimes int) string {
	return bind.OverridePure[string](t.Overrides, "Animal", "go", nTimes)
}

func (t *animalTrampoline) Name() string {
	return bind.OverridePure[string](t.Overrides, "Animal", "name")
}

// Barker is an Animal that barks.
type Barker interface {
	Animal
	Bark() string
}

type Dog struct{}

func (d *Dog) Go(nTimes int) string { return d.goWith(nTimes, d.Bark) }

func (d *Dog) Bark() string { return "woof!" }

func (d *Dog) Name() string { return "unknown" }

// goWith takes bark as a parameter so a trampoline can route it through
// its own, overridable Bark.
func (d *Dog) goWith(nTimes int, bark func() string) string {
	var b strings.Builder
	for i := 0; i < nTimes; i++ {
		b.WriteString(bark())
		b.WriteString(" ")
	}
	return b.String()
}

// dogTrampoline consults script overrides and falls back to Dog.
type dogTrampoline struct {
	*bind.Overrides
	dog Dog
}

func (t *dogTrampoline) Go(nTimes int) string {
	if r, ok := bind.Override[string](t.Overrides, "go", nTimes); ok {
		return r
	}
	return t.dog.goWith(nTimes, t.Bark)
}

func (t *dogTrampoline) Bark() string {
	if r, ok := bind.Override[string](t.Overrides, "bark"); ok {
		return r
	}
	return t.dog.Bark()
}

func (t *dogTrampoline) Name() string {
	return bind.OverridePure[string](t.Overrides, "Dog", "name")
}

// CallGo calls the virtual Go method, whatever implements it.
func CallGo(animal Animal) string {
	return animal.Go(3)
}
