package example

// Add adds two integers.
func Add(i, j int) int {
	return i + j
}

// Pet is a plain struct exposed with dynamic attributes.
type Pet struct {
	Name string
}

func NewPet(name string) *Pet { return &Pet{Name: name} }

func (p *Pet) SetName(name string) { p.Name = name }

func (p *Pet) GetName() string { return p.Name }

// Dog extends Pet by embedding. Nothing in a *Pet says it is part of a
// Dog, so a Dog handed out as *Pet is seen by scripts as a Pet.
type Dog struct {
	Pet
}

func NewDog(name string) *Dog { return &Dog{Pet: Pet{Name: name}} }

func (d *Dog) Bark() string { return "woof!" }

// PetStore returns a Dog behind a *Pet.
func PetStore() *Pet {
	return &NewDog("Molly").Pet
}

// PolymorphicPet is an interface, so the dynamic type of a value is
// available and scripts get the most-derived class.
type PolymorphicPet interface {
	isPolymorphicPet()
}

type PolymorphicDog struct{}

func (*PolymorphicDog) isPolymorphicPet() {}

func (*PolymorphicDog) Bark() string { return "bark" }

// PetStore2 returns a PolymorphicDog behind the PolymorphicPet interface.
func PetStore2() PolymorphicPet {
	return &PolymorphicDog{}
}

// Widget has overloaded methods.
type Widget struct{}

func (w *Widget) AddInts(x, y int) int { return x + y }

func (w *Widget) AddFloats(x, y float32) int { return int(x + y) }

func (w *Widget) Foo(x int, y float32) int { return int(float32(x) + y) }

// FooConst has a value receiver, so it cannot modify the widget.
func (w Widget) FooConst(x int, y float32) int { return int(float32(x) + y) }

// Kind is the EnumPet enumeration.
type Kind int

const (
	KindDog Kind = iota
	KindCat
)

// Attributes is nested inside EnumPet on the script side.
type Attributes struct {
	Age int
}

type EnumPet struct {
	Name string
	Type Kind
	Attr Attributes
}

func NewEnumPet(name string, kind Kind) *EnumPet {
	return &EnumPet{Name: name, Type: kind}
}
