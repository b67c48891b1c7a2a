package handler

import (
	"context"
	"net/http"

	"github.com/go-faster/jx"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/xenking/instrument-catalog/internal/domain/details"
	"github.com/xenking/instrument-catalog/internal/domain/instrument"
	"github.com/xenking/instrument-catalog/pkg/httpmiddleware"
)

const msgInstrumentNotFound = "instrument not found"

// ListInstruments returns every instrument in catalog order.
func (h *Handler) ListInstruments(w http.ResponseWriter, r *http.Request) {
	set := h.comparison(r)
	list := h.catalog.All()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Arr(func(e *jx.Encoder) {
			for _, i := range list {
				h.encodeInstrument(e, i, set.Contains(i.ID))
			}
		})
	})
}

// GetInstrument returns a single instrument.
func (h *Handler) GetInstrument(w http.ResponseWriter, r *http.Request) {
	i, ok := h.catalog.Resolve(r.PathValue("id"))
	if !ok {
		httpmiddleware.WriteError(w, http.StatusNotFound, msgInstrumentNotFound)
		return
	}
	inCompare := h.comparison(r).Contains(i.ID)
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		h.encodeInstrument(e, i, inCompare)
	})
}

// GetDetails returns the supplementary details of an instrument. Details
// still pending after FragmentWait yield 504, failed fetches 503.
func (h *Handler) GetDetails(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	i, ok := h.catalog.Resolve(r.PathValue("id"))
	if !ok {
		httpmiddleware.WriteError(w, http.StatusNotFound, msgInstrumentNotFound)
		return
	}

	waitCtx, cancel := context.WithTimeout(ctx, h.cfg.FragmentWait)
	defer cancel()
	res := h.details.Fetch(ctx, i.ID).Wait(waitCtx)

	switch res.Status {
	case details.StatusPending:
		httpmiddleware.WriteError(w, http.StatusGatewayTimeout, "details not available yet")
	case details.StatusFailed:
		zctx.From(ctx).Warn("Details unavailable", zap.String("instrument_id", i.ID), zap.Error(res.Err))
		httpmiddleware.WriteError(w, http.StatusServiceUnavailable, "details unavailable")
	default:
		d := res.Details
		writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
			e.Obj(func(e *jx.Encoder) {
				e.Field("instrumentId", func(e *jx.Encoder) { e.Str(i.ID) })
				e.Field("specifications", func(e *jx.Encoder) {
					if !d.HasSpecifications() {
						e.ObjEmpty()
						return
					}
					details.EncodeSpecifications(e, d.Specifications)
				})
				e.Field("faq", func(e *jx.Encoder) {
					if !d.HasFAQ() {
						e.ArrEmpty()
						return
					}
					details.EncodeFAQ(e, d.FAQ)
				})
				e.Field("buyLinks", func(e *jx.Encoder) { details.EncodeBuyLinks(e, d.Links()) })
			})
		})
	}
}

// GetComparison returns the visitor's comparison set in insertion order.
func (h *Handler) GetComparison(w http.ResponseWriter, r *http.Request) {
	ids := h.comparison(r).IDs()
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("ids", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, id := range ids {
						e.Str(id)
					}
				})
			})
			e.Field("instruments", func(e *jx.Encoder) {
				e.Arr(func(e *jx.Encoder) {
					for _, id := range ids {
						if i, ok := h.catalog.Resolve(id); ok {
							h.encodeInstrument(e, i, true)
						}
					}
				})
			})
		})
	})
}

// AddToComparison adds an instrument to the visitor's comparison set.
func (h *Handler) AddToComparison(w http.ResponseWriter, r *http.Request) {
	h.changeComparison(w, r, true)
}

// RemoveFromComparison removes an instrument from the visitor's comparison
// set.
func (h *Handler) RemoveFromComparison(w http.ResponseWriter, r *http.Request) {
	h.changeComparison(w, r, false)
}

func (h *Handler) changeComparison(w http.ResponseWriter, r *http.Request, add bool) {
	i, ok := h.catalog.Resolve(r.PathValue("id"))
	if !ok {
		httpmiddleware.WriteError(w, http.StatusNotFound, msgInstrumentNotFound)
		return
	}
	set := h.comparison(r)
	var changed bool
	if add {
		changed = set.Add(i.ID)
	} else {
		changed = set.Remove(i.ID)
	}
	if changed {
		h.recordToggle(r.Context(), add)
	}
	writeJSON(w, http.StatusOK, func(e *jx.Encoder) {
		e.Obj(func(e *jx.Encoder) {
			e.Field("id", func(e *jx.Encoder) { e.Str(i.ID) })
			e.Field("inCompare", func(e *jx.Encoder) { e.Bool(add) })
			e.Field("changed", func(e *jx.Encoder) { e.Bool(changed) })
		})
	})
}

// encodeInstrument writes i with both raw and display values. Unknown price
// and rating are null.
func (h *Handler) encodeInstrument(e *jx.Encoder, i instrument.Instrument, inCompare bool) {
	e.Obj(func(e *jx.Encoder) {
		e.Field("id", func(e *jx.Encoder) { e.Str(i.ID) })
		e.Field("name", func(e *jx.Encoder) { e.Str(i.Name) })
		e.Field("brand", func(e *jx.Encoder) { e.Str(i.Brand) })
		e.Field("price", func(e *jx.Encoder) {
			if !i.Price.Valid {
				e.Null()
				return
			}
			e.Str(i.Price.Decimal.String())
		})
		e.Field("priceDisplay", func(e *jx.Encoder) { e.Str(h.format.Price(i.Price)) })
		e.Field("rating", func(e *jx.Encoder) {
			if i.Rating == nil {
				e.Null()
				return
			}
			e.Float64(*i.Rating)
		})
		e.Field("ratingDisplay", func(e *jx.Encoder) { e.Str(h.format.Rating(i.Rating)) })
		if i.ReleaseYear > 0 {
			e.Field("releaseYear", func(e *jx.Encoder) { e.Int(i.ReleaseYear) })
		}
		e.Field("description", func(e *jx.Encoder) { e.Str(i.Description) })
		e.Field("image", func(e *jx.Encoder) { e.Str(h.format.Image(i)) })
		e.Field("inCompare", func(e *jx.Encoder) { e.Bool(inCompare) })
	})
}

func writeJSON(w http.ResponseWriter, status int, fn func(e *jx.Encoder)) {
	e := jx.GetEncoder()
	defer jx.PutEncoder(e)
	fn(e)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(e.Bytes())
}
