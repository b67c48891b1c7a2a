package view

import (
	"context"

	"github.com/xenking/instrument-catalog/internal/domain/details"
	"github.com/xenking/instrument-catalog/internal/domain/instrument"
)

// Resolver looks instruments up in the in-memory catalog.
type Resolver interface {
	Resolve(id string) (instrument.Instrument, bool)
}

// DetailSource starts asynchronous details fetches.
type DetailSource interface {
	Fetch(ctx context.Context, id string) *details.Request
}

// Membership is the visitor's comparison set.
type Membership interface {
	Add(id string) bool
	Remove(id string) bool
	Contains(id string) bool
}

// ProductView is the state of one product page instance. It is not safe for
// concurrent use; each request builds its own.
type ProductView struct {
	resolver Resolver
	source   DetailSource
	compare  Membership
	format   Formatter

	id         string
	record     *instrument.Instrument
	pending    *details.Request
	result     details.Result
	dialogOpen bool
}

// NewProductView creates a view with nothing resolved yet.
func NewProductView(r Resolver, s DetailSource, m Membership, f Formatter) *ProductView {
	return &ProductView{resolver: r, source: s, compare: m, format: f}
}

// Navigate points the view at id, discarding all previous state. A resolved
// record starts a details fetch; an unresolved one fetches nothing.
func (v *ProductView) Navigate(ctx context.Context, id string) {
	v.id = id
	v.record = nil
	v.pending = nil
	v.result = details.Result{InstrumentID: id, Status: details.StatusPending}
	v.dialogOpen = false

	rec, ok := v.resolver.Resolve(id)
	if !ok {
		return
	}
	v.record = &rec
	v.pending = v.source.Fetch(ctx, rec.ID)
}

// Receive applies a completed details result. Results issued for another
// identifier than the current one are stale and dropped; it reports whether
// res was applied.
func (v *ProductView) Receive(res details.Result) bool {
	if v.record == nil || !res.Done() || res.InstrumentID != v.record.ID {
		return false
	}
	v.result = res
	v.pending = nil
	return true
}

// Await waits for the pending fetch until ctx is done and applies its result
// when it completed in time.
func (v *ProductView) Await(ctx context.Context) {
	if v.pending == nil {
		return
	}
	if res := v.pending.Wait(ctx); res.Done() {
		v.Receive(res)
	}
}

// State returns the current render state.
func (v *ProductView) State() State {
	switch {
	case v.record == nil:
		return StateNotFound
	case v.result.Done():
		return StateReady
	default:
		return StateLoading
	}
}

// Record returns the resolved instrument.
func (v *ProductView) Record() (instrument.Instrument, bool) {
	if v.record == nil {
		return instrument.Instrument{}, false
	}
	return *v.record, true
}

// IsInCompare reports whether the resolved instrument is selected for
// comparison. It is false, without a lookup, when nothing is resolved.
func (v *ProductView) IsInCompare() bool {
	if v.record == nil {
		return false
	}
	return v.compare.Contains(v.record.ID)
}

// ToggleCompare adds the resolved instrument to the comparison set or removes
// it when already present. It returns the new membership and false as the
// second value when there is no resolved instrument.
func (v *ProductView) ToggleCompare() (inCompare, ok bool) {
	if v.record == nil {
		return false, false
	}
	if v.compare.Contains(v.record.ID) {
		v.compare.Remove(v.record.ID)
		return false, true
	}
	v.compare.Add(v.record.ID)
	return true, true
}

// OpenPurchaseDialog shows the purchase dialog. It only opens when buy links
// are known, matching the visibility of the "Buy Now" affordance.
func (v *ProductView) OpenPurchaseDialog() bool {
	if v.State() != StateReady || v.result.Status != details.StatusResolved || !v.result.Details.HasBuyLinks() {
		return false
	}
	v.dialogOpen = true
	return true
}

// ClosePurchaseDialog hides the purchase dialog.
func (v *ProductView) ClosePurchaseDialog() {
	v.dialogOpen = false
}

// DialogOpen reports the purchase dialog visibility flag.
func (v *ProductView) DialogOpen() bool {
	return v.dialogOpen
}

// Plan composes the render plan for the current state.
func (v *ProductView) Plan() Plan {
	return Compose(Input{
		RequestedID: v.id,
		Record:      v.record,
		Details:     v.result,
		InCompare:   v.IsInCompare(),
		DialogOpen:  v.dialogOpen,
	}, v.format)
}
