//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestListInstruments(t *testing.T) {
	resp := doGet(t, "/api/instruments")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	list := decodeJSON[[]instrumentResponse](t, resp)
	if len(list) != seededInstruments {
		t.Fatalf("expected %d instruments, got %d", seededInstruments, len(list))
	}
}

func TestGetInstrument(t *testing.T) {
	resp := doGet(t, "/api/instruments/abc123")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	got := decodeJSON[instrumentResponse](t, resp)
	if got.Name != "Guitar X" {
		t.Errorf("name: got %q, want %q", got.Name, "Guitar X")
	}
	if got.Price == nil || *got.Price != "45000" {
		t.Errorf("price: got %v, want 45000", got.Price)
	}
	if got.PriceDisplay != "₹45,000" {
		t.Errorf("priceDisplay: got %q, want %q", got.PriceDisplay, "₹45,000")
	}
	if got.InCompare {
		t.Error("fresh visitor has the instrument in compare")
	}
}

func TestGetInstrument_OptionalFields(t *testing.T) {
	resp := doGet(t, "/api/instruments/korg-minilogue")
	defer resp.Body.Close()

	got := decodeJSON[instrumentResponse](t, resp)
	if got.Price != nil {
		t.Errorf("price: got %q, want null", *got.Price)
	}
	if got.Rating != nil {
		t.Errorf("rating: got %v, want null", *got.Rating)
	}
	if got.RatingDisplay != "N/A" {
		t.Errorf("ratingDisplay: got %q, want N/A", got.RatingDisplay)
	}
	if got.Image != "/static/placeholder.svg" {
		t.Errorf("image: got %q, want placeholder", got.Image)
	}
}

func TestGetInstrument_NotFound(t *testing.T) {
	resp := doGet(t, "/api/instruments/zzz")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := decodeJSON[errorResponse](t, resp)
	if body.Code != http.StatusNotFound {
		t.Errorf("code: got %d, want 404", body.Code)
	}
}

func TestGetDetails(t *testing.T) {
	resp := doGet(t, "/api/instruments/yamaha-p45/details")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	got := decodeJSON[detailsResponse](t, resp)
	if got.InstrumentID != "yamaha-p45" {
		t.Errorf("instrumentId: got %q", got.InstrumentID)
	}
	if len(got.BuyLinks) != 2 {
		t.Errorf("buyLinks: got %d, want 2", len(got.BuyLinks))
	}
	if len(got.FAQ) != 1 {
		t.Errorf("faq: got %d, want 1", len(got.FAQ))
	}
	if !strings.Contains(string(got.Specifications), "Graded Hammer Standard") {
		t.Errorf("specifications missing nested value: %s", got.Specifications)
	}
}

func TestGetDetails_Empty(t *testing.T) {
	resp := doGet(t, "/api/instruments/abc123/details")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	got := decodeJSON[detailsResponse](t, resp)
	if len(got.BuyLinks) != 0 || len(got.FAQ) != 0 {
		t.Errorf("expected empty details, got %+v", got)
	}
}
