package handler

import (
	"io"
	"net/http"
	"strings"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/instrument-catalog/internal/render"
	"github.com/xenking/instrument-catalog/internal/view"
)

// Home redirects to the catalog listing.
func (h *Handler) Home(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, view.CatalogPath, http.StatusFound)
}

// ProductPage renders the detail page of one instrument. Unknown ids get the
// not-found page with status 404. Details that are not known within
// RenderWait are left to the details fragment.
func (h *Handler) ProductPage(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := h.newView(r, h.details)
	v.Navigate(ctx, r.PathValue("id"))
	if v.State() == view.StateNotFound {
		h.page(w, r, http.StatusNotFound, render.PageNotFound, render.ProductPage{Plan: v.Plan()})
		return
	}

	awaitFor(ctx, v, h.cfg.RenderWait)
	if r.URL.Query().Get("buy") == "1" {
		v.OpenPurchaseDialog()
	}
	h.page(w, r, http.StatusOK, render.PageProduct, render.ProductPage{Plan: v.Plan()})
}

// DetailsFragment renders the details section of a product page on its own.
func (h *Handler) DetailsFragment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := h.newView(r, h.details)
	v.Navigate(ctx, r.PathValue("id"))
	if v.State() == view.StateNotFound {
		http.NotFound(w, r)
		return
	}
	awaitFor(ctx, v, h.cfg.FragmentWait)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	if err := h.renderer.Details(w, v.Plan()); err != nil {
		zctx.From(ctx).Error("Render details fragment", zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}

// ToggleCompare flips the instrument's membership in the visitor's
// comparison set and redirects back to the page the form was posted from.
func (h *Handler) ToggleCompare(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	v := h.newView(r, noDetails{})
	v.Navigate(ctx, r.PathValue("id"))

	inCompare, ok := v.ToggleCompare()
	if !ok {
		h.page(w, r, http.StatusNotFound, render.PageNotFound, render.ProductPage{Plan: v.Plan()})
		return
	}
	h.recordToggle(ctx, inCompare)

	rec, _ := v.Record()
	http.Redirect(w, r, returnPath(r.PostFormValue("return"), "/instruments/"+rec.ID), http.StatusSeeOther)
}

// CatalogPage lists every instrument.
func (h *Handler) CatalogPage(w http.ResponseWriter, r *http.Request) {
	set := h.comparison(r)
	h.page(w, r, http.StatusOK, render.PageCatalog, render.CatalogPage{
		Cards: view.Cards(h.catalog.All(), set.Contains, h.format),
	})
}

// ComparePage lists the visitor's comparison set in the order it was built.
func (h *Handler) ComparePage(w http.ResponseWriter, r *http.Request) {
	set := h.comparison(r)
	h.page(w, r, http.StatusOK, render.PageCompare, render.ComparePage{
		Cards: view.Cards(view.Compared(set.IDs(), h.catalog), set.Contains, h.format),
	})
}

func (h *Handler) page(w http.ResponseWriter, r *http.Request, status int, name string, data any) {
	var buf strings.Builder
	if err := h.renderer.Page(&buf, name, data); err != nil {
		zctx.From(r.Context()).Error("Render page", zap.String("page", name), zap.Error(err))
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, buf.String())
}

// returnPath accepts only same-site absolute paths.
func returnPath(candidate, fallback string) string {
	if !strings.HasPrefix(candidate, "/") || strings.HasPrefix(candidate, "//") || strings.HasPrefix(candidate, "/\\") {
		return fallback
	}
	return candidate
}
