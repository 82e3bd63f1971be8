package example3

import (
	"github.com/specialistvlad/ctybind/internal/downcast"
)

// PetKind tags the concrete variant of a Pet.
type PetKind int

const (
	PetKindCat PetKind = iota
	PetKindDog
	PetKindZembra
)

func (k PetKind) String() string {
	switch k {
	case PetKindCat:
		return "Cat"
	case PetKindDog:
		return "Dog"
	case PetKindZembra:
		return "Zembra"
	}
	return "PetKind(?)"
}

// Pet has no methods that could tell variants apart; the kind tag does.
// Sound is only set for zembras.
type Pet struct {
	kind  PetKind
	Age   int
	Sound string
}

// newPet is only called by the variant constructors, so the tag always
// matches the variant.
func newPet(kind PetKind) *Pet { return &Pet{kind: kind} }

// Kind implements downcast.Tagged.
func (p *Pet) Kind() PetKind { return p.kind }

func NewCat() *Pet { return newPet(PetKindCat) }

func NewPetDog() *Pet { return newPet(PetKindDog) }

// Zembra shares Pet's layout, so a *Pet tagged PetKindZembra converts to
// *Zembra directly.
type Zembra Pet

func NewZembra() *Zembra {
	p := newPet(PetKindZembra)
	p.Sound = "woof!"
	return (*Zembra)(p)
}

func (z *Zembra) Bark() string { return z.Sound }

// AsPet is the base view of z.
func (z *Zembra) AsPet() *Pet { return (*Pet)(z) }

// PetResolver maps a *Pet to the class of its variant. Cats and dogs have
// no class of their own.
var PetResolver = downcast.New[PetKind, *Pet]("example3::Pet", PetKindCat,
	downcast.Variant[PetKind, *Pet]{
		Tag:      PetKindDog,
		Identity: "example3::Pet",
		Cast:     func(p *Pet) any { return p },
	},
	downcast.Variant[PetKind, *Pet]{
		Tag:      PetKindZembra,
		Identity: "example3::Zembra",
		Cast:     func(p *Pet) any { return (*Zembra)(p) },
	},
)

// PetZoo returns one pet of each bound kind, typed as the base.
func PetZoo() []*Pet {
	return []*Pet{NewCat(), NewZembra().AsPet()}
}
