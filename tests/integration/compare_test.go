//go:build integration

package integration

import (
	"net/http"
	"strings"
	"testing"
)

func TestToggleCompare_Form(t *testing.T) {
	visitor := newVisitor(t)

	resp := do(t, visitor, http.MethodPost, "/instruments/abc123/compare")
	resp.Body.Close()

	if resp.StatusCode != http.StatusSeeOther {
		t.Fatalf("expected 303, got %d", resp.StatusCode)
	}
	if loc := resp.Header.Get("Location"); loc != "/instruments/abc123" {
		t.Errorf("location: got %q", loc)
	}

	page := do(t, visitor, http.MethodGet, "/instruments/abc123")
	body := readBody(t, page)
	page.Body.Close()
	if !strings.Contains(body, "Remove from Compare") {
		t.Error("toggle did not add the instrument")
	}

	resp = do(t, visitor, http.MethodPost, "/instruments/abc123/compare")
	resp.Body.Close()

	page = do(t, visitor, http.MethodGet, "/instruments/abc123")
	body = readBody(t, page)
	page.Body.Close()
	if !strings.Contains(body, "Add to Compare") {
		t.Error("second toggle did not restore membership")
	}
}

func TestToggleCompare_Unknown(t *testing.T) {
	resp := do(t, newVisitor(t), http.MethodPost, "/instruments/zzz/compare")
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", resp.StatusCode)
	}
}

func TestCompareAPI(t *testing.T) {
	visitor := newVisitor(t)

	resp := do(t, visitor, http.MethodPut, "/api/compare/abc123")
	added := decodeJSON[toggleResponse](t, resp)
	resp.Body.Close()
	if !added.InCompare || !added.Changed {
		t.Errorf("add: got %+v", added)
	}

	resp = do(t, visitor, http.MethodPut, "/api/compare/yamaha-p45")
	resp.Body.Close()

	resp = do(t, visitor, http.MethodGet, "/api/compare")
	got := decodeJSON[comparisonResponse](t, resp)
	resp.Body.Close()
	if len(got.IDs) != 2 || got.IDs[0] != "abc123" || got.IDs[1] != "yamaha-p45" {
		t.Errorf("ids: got %v", got.IDs)
	}

	resp = do(t, visitor, http.MethodDelete, "/api/compare/abc123")
	removed := decodeJSON[toggleResponse](t, resp)
	resp.Body.Close()
	if removed.InCompare || !removed.Changed {
		t.Errorf("remove: got %+v", removed)
	}

	// Another visitor does not see this comparison.
	resp = doGet(t, "/api/compare")
	other := decodeJSON[comparisonResponse](t, resp)
	resp.Body.Close()
	if len(other.IDs) != 0 {
		t.Errorf("comparison leaked across sessions: %v", other.IDs)
	}
}

func TestComparePage(t *testing.T) {
	visitor := newVisitor(t)

	resp := do(t, visitor, http.MethodGet, "/compare")
	body := readBody(t, resp)
	resp.Body.Close()
	if !strings.Contains(body, "Nothing to compare yet.") {
		t.Error("empty comparison state missing")
	}

	resp = do(t, visitor, http.MethodPut, "/api/compare/roland-td07")
	resp.Body.Close()

	resp = do(t, visitor, http.MethodGet, "/compare")
	body = readBody(t, resp)
	resp.Body.Close()
	if !strings.Contains(body, "Roland TD-07KV") {
		t.Error("compare page does not list the added instrument")
	}
}
