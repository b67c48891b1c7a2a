// Package view decides what the instrument pages show. Compose is a pure
// function from the resolved record, the details result and the comparison
// membership to a render plan; ProductView holds the per-page state around it.
package view

import (
	"github.com/xenking/instrument-catalog/internal/domain/details"
	"github.com/xenking/instrument-catalog/internal/domain/instrument"
)

// CatalogPath is the full listing page the not-found view links back to.
const CatalogPath = "/all-instruments"

// State is the render state of a product page.
type State int

const (
	// StateNotFound means the identifier did not resolve.
	StateNotFound State = iota
	// StateLoading means the record resolved and details are pending.
	StateLoading
	// StateReady means the record resolved and details are known.
	StateReady
)

func (s State) String() string {
	switch s {
	case StateNotFound:
		return "not_found"
	case StateLoading:
		return "loading"
	case StateReady:
		return "ready"
	default:
		return "unknown"
	}
}

// Plan is everything a template needs to draw a product page.
type Plan struct {
	State       State
	RequestedID string

	// NotFound is set only in StateNotFound.
	NotFound *NotFoundSection
	// Product is set in StateLoading and StateReady.
	Product *ProductSection

	BuyNow         bool
	Compare        CompareButton
	Specifications []details.Spec
	FAQ            []details.FAQ
	Dialog         PurchaseDialog

	// DetailsUnavailable marks a failed details fetch. The page renders as if
	// there were no supplementary data.
	DetailsUnavailable bool
}

// ShowSpecifications reports whether the specifications section is drawn.
func (p Plan) ShowSpecifications() bool { return len(p.Specifications) > 0 }

// ShowFAQ reports whether the FAQ section is drawn.
func (p Plan) ShowFAQ() bool { return len(p.FAQ) > 0 }

// Loading reports whether details are still pending.
func (p Plan) Loading() bool { return p.State == StateLoading }

// NotFoundSection is the terminal message for unknown identifiers.
type NotFoundSection struct {
	Title    string
	Message  string
	LinkText string
	LinkURL  string
}

// ProductSection is the core record info, always drawn for resolved records.
type ProductSection struct {
	ID          string
	Name        string
	Brand       string
	ImageURL    string
	Rating      string
	ReleaseYear int
	Price       string
	Description string
}

// CompareButton is the comparison toggle affordance.
type CompareButton struct {
	Label    string
	Icon     string
	Selected bool
}

// PurchaseDialog is always mounted; Open controls its visibility.
type PurchaseDialog struct {
	Open           bool
	InstrumentName string
	Links          []details.BuyLink
}

// Input collects what Compose decides from.
type Input struct {
	RequestedID string
	// Record is nil when the identifier did not resolve.
	Record     *instrument.Instrument
	Details    details.Result
	InCompare  bool
	DialogOpen bool
}

// Compose builds the render plan for in.
func Compose(in Input, f Formatter) Plan {
	if in.Record == nil {
		return Plan{
			State:       StateNotFound,
			RequestedID: in.RequestedID,
			NotFound: &NotFoundSection{
				Title:    "Instrument not found",
				Message:  "Sorry, we couldn't find the instrument you were looking for.",
				LinkText: "Browse All Instruments",
				LinkURL:  CatalogPath,
			},
		}
	}

	rec := in.Record
	p := Plan{
		State:       StateLoading,
		RequestedID: in.RequestedID,
		Product: &ProductSection{
			ID:          rec.ID,
			Name:        rec.Name,
			Brand:       rec.Brand,
			ImageURL:    f.Image(*rec),
			Rating:      f.Rating(rec.Rating),
			ReleaseYear: rec.ReleaseYear,
			Price:       f.Price(rec.Price),
			Description: rec.Description,
		},
		Compare: compareButton(in.InCompare),
	}

	var d *details.Details
	if in.Details.Done() && in.Details.InstrumentID == rec.ID {
		p.State = StateReady
		switch in.Details.Status {
		case details.StatusResolved:
			d = in.Details.Details
		case details.StatusFailed:
			p.DetailsUnavailable = true
		}
	}

	p.BuyNow = d.HasBuyLinks()
	if d.HasSpecifications() {
		p.Specifications = d.Specifications
	}
	if d.HasFAQ() {
		p.FAQ = d.FAQ
	}
	p.Dialog = PurchaseDialog{
		Open:           in.DialogOpen,
		InstrumentName: rec.Name,
		Links:          d.Links(),
	}
	return p
}

func compareButton(inCompare bool) CompareButton {
	if inCompare {
		return CompareButton{Label: "Remove from Compare", Icon: "minus-circle", Selected: true}
	}
	return CompareButton{Label: "Add to Compare", Icon: "plus-circle"}
}
