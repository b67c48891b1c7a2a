// Package handler serves the catalog pages and the JSON API.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-faster/errors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"github.com/xenking/instrument-catalog/internal/domain/compare"
	"github.com/xenking/instrument-catalog/internal/domain/details"
	"github.com/xenking/instrument-catalog/internal/domain/instrument"
	"github.com/xenking/instrument-catalog/internal/render"
	"github.com/xenking/instrument-catalog/internal/view"
	"github.com/xenking/instrument-catalog/pkg/httpmiddleware"
)

// Catalog is the in-memory instrument catalog.
type Catalog interface {
	view.Resolver
	All() []instrument.Instrument
}

// Comparisons hands out per-visitor comparison sets.
type Comparisons interface {
	Set(sessionID string) *compare.Set
}

// Config holds non-dependency configuration for the Handler.
type Config struct {
	// RenderWait bounds how long a page waits for details before it is
	// rendered in the loading state.
	RenderWait time.Duration
	// FragmentWait bounds the wait of the details fragment and the details
	// API.
	FragmentWait time.Duration
	// MeterProvider defaults to a no-op provider.
	MeterProvider metric.MeterProvider
}

// Handler serves pages and the JSON API over the catalog, the details
// augmenter and the comparison store.
type Handler struct {
	catalog  Catalog
	details  view.DetailSource
	compare  Comparisons
	renderer *render.Renderer
	format   view.Formatter
	cfg      Config

	toggles metric.Int64Counter
}

// New constructs a Handler.
func New(
	cfg Config,
	catalog Catalog,
	source view.DetailSource,
	comparisons Comparisons,
	renderer *render.Renderer,
	format view.Formatter,
) (*Handler, error) {
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = noop.NewMeterProvider()
	}
	toggles, err := cfg.MeterProvider.Meter("catalog/handler").Int64Counter("catalog.compare.toggles",
		metric.WithDescription("Comparison set changes by action"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create toggles counter")
	}
	return &Handler{
		catalog:  catalog,
		details:  source,
		compare:  comparisons,
		renderer: renderer,
		format:   format,
		cfg:      cfg,
		toggles:  toggles,
	}, nil
}

// Register mounts all routes on mux. limit guards the routes that change a
// comparison set.
func (h *Handler) Register(mux *http.ServeMux, limit httpmiddleware.Middleware) {
	mux.HandleFunc("GET /{$}", h.Home)
	mux.HandleFunc("GET /all-instruments", h.CatalogPage)
	mux.HandleFunc("GET /compare", h.ComparePage)
	mux.HandleFunc("GET /instruments/{id}", h.ProductPage)
	mux.HandleFunc("GET /instruments/{id}/details", h.DetailsFragment)
	mux.Handle("POST /instruments/{id}/compare", limit(http.HandlerFunc(h.ToggleCompare)))

	mux.HandleFunc("GET /api/instruments", h.ListInstruments)
	mux.HandleFunc("GET /api/instruments/{id}", h.GetInstrument)
	mux.HandleFunc("GET /api/instruments/{id}/details", h.GetDetails)
	mux.HandleFunc("GET /api/compare", h.GetComparison)
	mux.Handle("PUT /api/compare/{id}", limit(http.HandlerFunc(h.AddToComparison)))
	mux.Handle("DELETE /api/compare/{id}", limit(http.HandlerFunc(h.RemoveFromComparison)))

	mux.Handle("GET /static/", render.Static())
}

// comparison returns the comparison set of the requesting visitor.
func (h *Handler) comparison(r *http.Request) *compare.Set {
	return h.compare.Set(httpmiddleware.SessionFromContext(r.Context()))
}

func (h *Handler) newView(r *http.Request, source view.DetailSource) *view.ProductView {
	return view.NewProductView(h.catalog, source, h.comparison(r), h.format)
}

func (h *Handler) recordToggle(ctx context.Context, inCompare bool) {
	action := "remove"
	if inCompare {
		action = "add"
	}
	h.toggles.Add(ctx, 1, metric.WithAttributes(attribute.String("action", action)))
}

// awaitFor lets v wait for its details at most d.
func awaitFor(ctx context.Context, v *view.ProductView, d time.Duration) {
	if d <= 0 {
		return
	}
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()
	v.Await(ctx)
}

// noDetails satisfies view.DetailSource for requests that never show
// details, such as comparison toggles.
type noDetails struct{}

func (noDetails) Fetch(_ context.Context, id string) *details.Request {
	return details.CompletedRequest(details.Result{InstrumentID: id, Status: details.StatusResolved})
}
