package view

import (
	"testing"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/xenking/instrument-catalog/internal/domain/details"
	"github.com/xenking/instrument-catalog/internal/domain/instrument"
)

func guitarX() *instrument.Instrument {
	return &instrument.Instrument{
		ID:          "abc123",
		Name:        "Guitar X",
		Brand:       "Fender",
		Price:       decimal.NewNullDecimal(decimal.NewFromInt(45000)),
		ReleaseYear: 2021,
		Description: "Alder body.",
	}
}

func resolved(id string, d *details.Details) details.Result {
	return details.Result{InstrumentID: id, Status: details.StatusResolved, Details: d}
}

func TestCompose_NotFound(t *testing.T) {
	p := Compose(Input{RequestedID: "zzz"}, usFormatter())

	assert.Equal(t, StateNotFound, p.State)
	require.NotNil(t, p.NotFound)
	assert.Equal(t, "Instrument not found", p.NotFound.Title)
	assert.Equal(t, CatalogPath, p.NotFound.LinkURL)
	assert.Nil(t, p.Product)
	assert.False(t, p.BuyNow)
	assert.False(t, p.ShowSpecifications())
	assert.False(t, p.ShowFAQ())
}

func TestCompose_LoadingRendersCoreInfo(t *testing.T) {
	p := Compose(Input{
		RequestedID: "abc123",
		Record:      guitarX(),
		Details:     details.Result{InstrumentID: "abc123", Status: details.StatusPending},
	}, usFormatter())

	assert.Equal(t, StateLoading, p.State)
	require.NotNil(t, p.Product)
	assert.Equal(t, "Guitar X", p.Product.Name)
	assert.Equal(t, "Fender", p.Product.Brand)
	assert.Equal(t, "₹45,000", p.Product.Price)
	assert.Equal(t, "N/A", p.Product.Rating)
	assert.Equal(t, "/static/placeholder.svg", p.Product.ImageURL)
	assert.Equal(t, 2021, p.Product.ReleaseYear)
	assert.False(t, p.BuyNow)
	assert.Equal(t, "Add to Compare", p.Compare.Label)
	assert.NotNil(t, p.Dialog.Links)
	assert.Empty(t, p.Dialog.Links)
}

func TestCompose_GuitarXWithoutBuyLinks(t *testing.T) {
	p := Compose(Input{
		RequestedID: "abc123",
		Record:      guitarX(),
		Details:     resolved("abc123", &details.Details{InstrumentID: "abc123", BuyLinks: []details.BuyLink{}}),
	}, usFormatter())

	assert.Equal(t, StateReady, p.State)
	assert.Equal(t, "Guitar X", p.Product.Name)
	assert.NotEmpty(t, p.Product.Price)
	assert.False(t, p.BuyNow)
	assert.Equal(t, "Add to Compare", p.Compare.Label)
	assert.False(t, p.Compare.Selected)
}

func TestCompose_InCompare(t *testing.T) {
	p := Compose(Input{
		RequestedID: "abc123",
		Record:      guitarX(),
		Details:     resolved("abc123", nil),
		InCompare:   true,
	}, usFormatter())

	assert.Equal(t, "Remove from Compare", p.Compare.Label)
	assert.Equal(t, "minus-circle", p.Compare.Icon)
	assert.True(t, p.Compare.Selected)
}

func TestCompose_Subsections(t *testing.T) {
	specs := []details.Spec{{Name: "Keys", Value: "88"}}
	faq := []details.FAQ{{Question: "Pedal?", Answer: "Yes"}}
	links := []details.BuyLink{{Retailer: "Amazon", URL: "https://amazon.example"}}

	tests := []struct {
		name      string
		details   *details.Details
		wantSpecs bool
		wantFAQ   bool
		wantBuy   bool
	}{
		{name: "no details", details: nil},
		{name: "empty details", details: &details.Details{}},
		{name: "specs only", details: &details.Details{Specifications: specs}, wantSpecs: true},
		{name: "faq only", details: &details.Details{FAQ: faq}, wantFAQ: true},
		{name: "links only", details: &details.Details{BuyLinks: links}, wantBuy: true},
		{
			name:      "everything",
			details:   &details.Details{Specifications: specs, FAQ: faq, BuyLinks: links},
			wantSpecs: true,
			wantFAQ:   true,
			wantBuy:   true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Compose(Input{
				RequestedID: "abc123",
				Record:      guitarX(),
				Details:     resolved("abc123", tt.details),
			}, usFormatter())

			assert.Equal(t, StateReady, p.State)
			assert.Equal(t, tt.wantSpecs, p.ShowSpecifications())
			assert.Equal(t, tt.wantFAQ, p.ShowFAQ())
			assert.Equal(t, tt.wantBuy, p.BuyNow)
			assert.Equal(t, "Guitar X", p.Dialog.InstrumentName)
			if tt.wantBuy {
				assert.Equal(t, links, p.Dialog.Links)
			} else {
				assert.Empty(t, p.Dialog.Links)
			}
		})
	}
}

func TestCompose_FailedDetailsDegrade(t *testing.T) {
	p := Compose(Input{
		RequestedID: "abc123",
		Record:      guitarX(),
		Details: details.Result{
			InstrumentID: "abc123",
			Status:       details.StatusFailed,
			Err:          errors.New("timeout"),
		},
	}, usFormatter())

	assert.Equal(t, StateReady, p.State)
	assert.True(t, p.DetailsUnavailable)
	assert.NotNil(t, p.Product)
	assert.False(t, p.BuyNow)
	assert.False(t, p.ShowSpecifications())
	assert.False(t, p.ShowFAQ())
}

func TestCompose_ResultForOtherInstrumentIsIgnored(t *testing.T) {
	p := Compose(Input{
		RequestedID: "abc123",
		Record:      guitarX(),
		Details: resolved("other", &details.Details{
			BuyLinks: []details.BuyLink{{Retailer: "A", URL: "https://a.example"}},
		}),
	}, usFormatter())

	assert.Equal(t, StateLoading, p.State)
	assert.False(t, p.BuyNow)
}

func TestCompose_DialogFlag(t *testing.T) {
	in := Input{
		RequestedID: "abc123",
		Record:      guitarX(),
		Details: resolved("abc123", &details.Details{
			BuyLinks: []details.BuyLink{{Retailer: "A", URL: "https://a.example"}},
		}),
	}
	assert.False(t, Compose(in, usFormatter()).Dialog.Open)

	in.DialogOpen = true
	assert.True(t, Compose(in, usFormatter()).Dialog.Open)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "not_found", StateNotFound.String())
	assert.Equal(t, "loading", StateLoading.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "unknown", State(9).String())
}
