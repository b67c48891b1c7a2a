package instrument

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested instrument does not exist.
var ErrNotFound = errors.New("instrument not found")

// Instrument is the base catalog record of a musical instrument.
//
// Optional fields are explicit: Price is invalid when unknown, Rating is nil
// when the instrument has not been rated, ReleaseYear is zero when unknown and
// Image is empty when no picture is available.
type Instrument struct {
	ID          string
	Name        string
	Brand       string
	Price       decimal.NullDecimal
	Rating      *float64
	ReleaseYear int
	Description string
	Image       string
}

// ImageOr returns the instrument image, or fallback when it has none.
func (i Instrument) ImageOr(fallback string) string {
	if i.Image == "" {
		return fallback
	}
	return i.Image
}

// Repository defines read operations for the instrument catalog.
type Repository interface {
	List(ctx context.Context) ([]Instrument, error)
	GetByID(ctx context.Context, id string) (*Instrument, error)
}
