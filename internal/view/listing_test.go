package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/instrument-catalog/internal/domain/instrument"
)

func TestCards(t *testing.T) {
	list := []instrument.Instrument{
		*guitarX(),
		{ID: "p45", Name: "Yamaha P-45", Brand: "Yamaha"},
	}
	inCompare := func(id string) bool { return id == "p45" }

	cards := Cards(list, inCompare, usFormatter())
	require.Len(t, cards, 2)

	assert.Equal(t, "abc123", cards[0].ID)
	assert.Equal(t, "₹45,000", cards[0].Price)
	assert.Equal(t, "N/A", cards[0].Rating)
	assert.Equal(t, "/static/placeholder.svg", cards[0].ImageURL)
	assert.Equal(t, "Add to Compare", cards[0].Compare.Label)

	assert.Empty(t, cards[1].Price)
	assert.True(t, cards[1].Compare.Selected)
	assert.Equal(t, "Remove from Compare", cards[1].Compare.Label)
}

func TestCompared(t *testing.T) {
	r := fakeResolver{
		"abc123": *guitarX(),
		"p45":    {ID: "p45", Name: "Yamaha P-45"},
	}

	got := Compared([]string{"p45", "gone", "abc123"}, r)
	require.Len(t, got, 2)
	assert.Equal(t, "p45", got[0].ID)
	assert.Equal(t, "abc123", got[1].ID)

	assert.Empty(t, Compared(nil, r))
}
