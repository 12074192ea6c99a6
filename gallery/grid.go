package gallery

// Card is one thumbnail tile in the grid.
type Card struct {
	Index int
	Alt   string
	Chain *ImageChain
}

func newCard(i int, p Photo) *Card {
	return &Card{
		Index: i,
		Alt:   p.AltText(),
		Chain: NewCardChain(p),
	}
}

// Src is the url the card image should currently load.
func (c *Card) Src() string { return c.Chain.Current() }

// Loaded is true once the image loaded or every fallback failed.
func (c *Card) Loaded() bool { return c.Chain.Loaded() }

// Hidden is true once every fallback failed.
func (c *Card) Hidden() bool { return c.Chain.Hidden() }

// activationKey reports whether a key pressed on a focused card opens it.
func activationKey(key string) bool {
	return key == "Enter" || key == " " || key == "Space"
}
