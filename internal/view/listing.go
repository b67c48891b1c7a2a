package view

import (
	"github.com/xenking/instrument-catalog/internal/domain/instrument"
)

// Card is one instrument on the listing and comparison pages.
type Card struct {
	ID          string
	Name        string
	Brand       string
	ImageURL    string
	Price       string
	Rating      string
	ReleaseYear int
	Compare     CompareButton
}

// Cards builds listing cards in catalog order.
func Cards(list []instrument.Instrument, inCompare func(id string) bool, f Formatter) []Card {
	cards := make([]Card, 0, len(list))
	for _, i := range list {
		cards = append(cards, Card{
			ID:          i.ID,
			Name:        i.Name,
			Brand:       i.Brand,
			ImageURL:    f.Image(i),
			Price:       f.Price(i.Price),
			Rating:      f.Rating(i.Rating),
			ReleaseYear: i.ReleaseYear,
			Compare:     compareButton(inCompare(i.ID)),
		})
	}
	return cards
}

// Compared resolves the comparison set against r in insertion order. IDs
// that no longer resolve are skipped.
func Compared(ids []string, r Resolver) []instrument.Instrument {
	out := make([]instrument.Instrument, 0, len(ids))
	for _, id := range ids {
		if i, ok := r.Resolve(id); ok {
			out = append(out, i)
		}
	}
	return out
}
