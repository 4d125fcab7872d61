package deck

import "strconv"

// Kind identifies what a card is. The set is closed: every card in play is
// minted by this package, so a switch over Kind is exhaustive.
type Kind int

const (
	Money Kind = iota
	Luxury
	Prestige
	FauxPas
	Passe
	Scandale
)

// String returns the wire token for a kind
func (k Kind) String() string {
	switch k {
	case Money:
		return "money"
	case Luxury:
		return "luxury"
	case Prestige:
		return "prestige"
	case FauxPas:
		return "faux-pas"
	case Passe:
		return "passe"
	case Scandale:
		return "scandale"
	default:
		return "?"
	}
}

// Card is an immutable game card. Value is the franc amount for money cards
// and the face value 1-10 for luxury cards; it is zero for everything else.
type Card struct {
	ID    string
	Kind  Kind
	Value int
	Name  string
}

// Contribution folds the card into a running base status total. Only luxury
// and passé cards touch the base; prestige doubling and the scandale halving
// happen in a later scoring stage.
func (c Card) Contribution(base int) int {
	switch c.Kind {
	case Luxury:
		return base + c.Value
	case Passe:
		return base - 5
	default:
		return base
	}
}

// DisplayValue returns the short label printed on the card face.
func (c Card) DisplayValue() string {
	switch c.Kind {
	case Money, Luxury:
		return strconv.Itoa(c.Value)
	case Prestige:
		return "×2"
	case FauxPas:
		return "-1 luxe"
	case Passe:
		return "-5"
	case Scandale:
		return "÷2"
	default:
		return "?"
	}
}

// IsEndTrigger reports whether drawing this card advances the game-end
// counter. There are four: the three prestige cards and the scandale.
func (c Card) IsEndTrigger() bool {
	return c.Kind == Prestige || c.Kind == Scandale
}

// IsDisgrace reports whether this is one of the three disgrace cards.
func (c Card) IsDisgrace() bool {
	return c.Kind == FauxPas || c.Kind == Passe || c.Kind == Scandale
}

// String returns a readable representation (e.g. "Luxe 7", "Scandale")
func (c Card) String() string {
	if c.Name != "" {
		return c.Name
	}
	return c.Kind.String() + " " + c.DisplayValue()
}
