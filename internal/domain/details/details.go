// Package details holds the supplementary product data shown on the detail
// page (specifications, FAQ and buy links) and the asynchronous fetcher that
// retrieves it.
package details

import (
	"context"

	"github.com/go-faster/errors"
)

// ErrNotFound is returned when an instrument has no supplementary details.
var ErrNotFound = errors.New("details not found")

// Details is the supplementary bundle for one instrument.
type Details struct {
	InstrumentID   string
	Specifications []Spec
	FAQ            []FAQ
	BuyLinks       []BuyLink
}

// FAQ is a single question and answer pair. Answers may contain markdown.
type FAQ struct {
	Question string
	Answer   string
}

// BuyLink points to a retailer selling the instrument.
type BuyLink struct {
	Retailer string
	URL      string
}

// HasSpecifications reports whether d carries at least one specification.
func (d *Details) HasSpecifications() bool {
	return d != nil && len(d.Specifications) > 0
}

// HasFAQ reports whether d carries at least one FAQ entry.
func (d *Details) HasFAQ() bool {
	return d != nil && len(d.FAQ) > 0
}

// HasBuyLinks reports whether d carries at least one buy link.
func (d *Details) HasBuyLinks() bool {
	return d != nil && len(d.BuyLinks) > 0
}

// Links returns the buy links of d, or an empty slice when d is nil.
func (d *Details) Links() []BuyLink {
	if d == nil || d.BuyLinks == nil {
		return []BuyLink{}
	}
	return d.BuyLinks
}

// Repository defines read operations for instrument details.
type Repository interface {
	GetByInstrumentID(ctx context.Context, id string) (*Details, error)
	ListInstrumentIDs(ctx context.Context) ([]string, error)
}
