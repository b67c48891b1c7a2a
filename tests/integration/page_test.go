//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestProductPage(t *testing.T) {
	resp := doGet(t, "/instruments/abc123")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp)
	for _, want := range []string{"Guitar X", "Fender", "₹45,000", "Add to Compare", "Back to instruments"} {
		if !strings.Contains(body, want) {
			t.Errorf("page does not contain %q", want)
		}
	}
	// No buy links are seeded for this instrument.
	if strings.Contains(body, "Buy Now") {
		t.Error("Buy Now rendered without buy links")
	}
}

func TestProductPage_Details(t *testing.T) {
	resp := doGet(t, "/instruments/yamaha-p45")
	defer resp.Body.Close()

	body := readBody(t, resp)
	for _, want := range []string{"Buy Now", "Full Specifications", "Graded Hammer Standard", "<strong>footswitch</strong>"} {
		if !strings.Contains(body, want) {
			t.Errorf("page does not contain %q", want)
		}
	}
}

func TestProductPage_PurchaseDialog(t *testing.T) {
	resp := doGet(t, "/instruments/yamaha-p45?buy=1")
	defer resp.Body.Close()

	body := readBody(t, resp)
	if !strings.Contains(body, "https://www.amazon.in/dp/B00QU9LZMC") {
		t.Error("purchase dialog does not list the retailer link")
	}
}

func TestProductPage_NotFound(t *testing.T) {
	resp := doGet(t, "/instruments/zzz")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}

	body := readBody(t, resp)
	if !strings.Contains(body, "Instrument not found") {
		t.Error("not found title missing")
	}
	if !strings.Contains(body, `href="/all-instruments"`) {
		t.Error("browse link missing")
	}
	if strings.Contains(body, "Add to Compare") {
		t.Error("not found page renders a compare button")
	}
}

func TestHome_Redirect(t *testing.T) {
	resp := doGet(t, "/")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusFound {
		t.Fatalf("expected 302, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/all-instruments" {
		t.Errorf("location: got %q", loc)
	}
}

func TestCatalogPage(t *testing.T) {
	resp := doGet(t, "/all-instruments")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	body := readBody(t, resp)
	for _, want := range []string{"Guitar X", "Yamaha P-45", "Roland TD-07KV", "Korg Minilogue XD"} {
		if !strings.Contains(body, want) {
			t.Errorf("catalog does not list %q", want)
		}
	}
}

func TestStaticAssets(t *testing.T) {
	resp := doGet(t, "/static/app.css")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
}
