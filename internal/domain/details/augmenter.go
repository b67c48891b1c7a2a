package details

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Status is the lifecycle state of a details request.
type Status int

const (
	// StatusPending means the fetch has not completed yet.
	StatusPending Status = iota
	// StatusResolved means the fetch completed; Details may still be nil when
	// the instrument has no supplementary data.
	StatusResolved
	// StatusFailed means the fetch returned an error.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Result is the outcome of a details request, tagged with the instrument id
// it was issued for.
type Result struct {
	InstrumentID string
	Status       Status
	Details      *Details
	Err          error
}

// Done reports whether the request is no longer pending.
func (r Result) Done() bool {
	return r.Status != StatusPending
}

// Request is an in-flight details fetch.
type Request struct {
	id   string
	done chan struct{}
	res  Result
}

func newRequest(id string) *Request {
	return &Request{id: id, done: make(chan struct{})}
}

// CompletedRequest returns a request that is already done with res.
func CompletedRequest(res Result) *Request {
	r := newRequest(res.InstrumentID)
	r.finish(res)
	return r
}

func (r *Request) finish(res Result) {
	r.res = res
	close(r.done)
}

// ID returns the instrument id the request was issued for.
func (r *Request) ID() string { return r.id }

// Done is closed once the request completes.
func (r *Request) Done() <-chan struct{} { return r.done }

// Result returns the outcome, or a pending result if the fetch is still
// running.
func (r *Request) Result() Result {
	select {
	case <-r.done:
		return r.res
	default:
		return Result{InstrumentID: r.id, Status: StatusPending}
	}
}

// Wait blocks until the request completes or ctx is done, then returns the
// current result.
func (r *Request) Wait(ctx context.Context) Result {
	select {
	case <-r.done:
	case <-ctx.Done():
	}
	return r.Result()
}

// AugmenterConfig configures an Augmenter.
type AugmenterConfig struct {
	// FetchTimeout bounds a single repository fetch. Zero means 3s.
	FetchTimeout time.Duration
	// BloomFPR is the false positive rate of the index of instruments that
	// have details. Zero means 0.01.
	BloomFPR float64

	TracerProvider trace.TracerProvider
	MeterProvider  metric.MeterProvider
}

// Augmenter fetches supplementary details without blocking the caller.
//
// Concurrent fetches for the same instrument share one repository call. Once
// RebuildIndex has run, instruments that are definitely absent from the
// details table resolve empty without touching the repository.
type Augmenter struct {
	repo    Repository
	timeout time.Duration
	fpr     float64

	index atomic.Pointer[bloom.BloomFilter]
	group singleflight.Group

	tracer  trace.Tracer
	fetches metric.Int64Counter
}

// NewAugmenter creates an Augmenter backed by repo.
func NewAugmenter(repo Repository, cfg AugmenterConfig) (*Augmenter, error) {
	if cfg.FetchTimeout <= 0 {
		cfg.FetchTimeout = 3 * time.Second
	}
	if cfg.BloomFPR <= 0 || cfg.BloomFPR >= 1 {
		cfg.BloomFPR = 0.01
	}
	if cfg.TracerProvider == nil {
		cfg.TracerProvider = tracenoop.NewTracerProvider()
	}
	if cfg.MeterProvider == nil {
		cfg.MeterProvider = metricnoop.NewMeterProvider()
	}

	fetches, err := cfg.MeterProvider.Meter("catalog/details").Int64Counter(
		"catalog.details.fetches",
		metric.WithDescription("Details fetches by outcome"),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create fetch counter")
	}

	return &Augmenter{
		repo:    repo,
		timeout: cfg.FetchTimeout,
		fpr:     cfg.BloomFPR,
		tracer:  cfg.TracerProvider.Tracer("catalog/details"),
		fetches: fetches,
	}, nil
}

// RebuildIndex loads the ids of every instrument with details and replaces
// the negative lookup index.
func (a *Augmenter) RebuildIndex(ctx context.Context) error {
	ids, err := a.repo.ListInstrumentIDs(ctx)
	if err != nil {
		return errors.Wrap(err, "list instrument ids")
	}
	filter := bloom.NewWithEstimates(uint(max(len(ids), 1)), a.fpr)
	for _, id := range ids {
		filter.AddString(id)
	}
	a.index.Store(filter)
	zctx.From(ctx).Debug("Details index rebuilt", zap.Int("ids", len(ids)))
	return nil
}

// StartIndexRefresh rebuilds the index every interval until ctx is cancelled,
// so details written by the import tools become visible without waiting for
// a catalog reload. Failed rebuilds keep the previous index.
func (a *Augmenter) StartIndexRefresh(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := a.RebuildIndex(ctx); err != nil {
					zctx.From(ctx).Warn("Details index refresh failed", zap.Error(err))
				}
			}
		}
	}()
}

// Fetch starts retrieving details for id and returns immediately. An empty id
// resolves empty at once.
func (a *Augmenter) Fetch(ctx context.Context, id string) *Request {
	if id == "" {
		return CompletedRequest(Result{Status: StatusResolved})
	}
	if filter := a.index.Load(); filter != nil && !filter.TestString(id) {
		a.record(ctx, "skipped")
		return CompletedRequest(Result{InstrumentID: id, Status: StatusResolved})
	}

	req := newRequest(id)
	// The fetch outlives the caller's cancellation; it is bounded by the
	// fetch timeout and may be shared with other callers.
	fetchCtx := context.WithoutCancel(ctx)
	go func() {
		req.finish(a.fetch(fetchCtx, id))
	}()
	return req
}

func (a *Augmenter) fetch(ctx context.Context, id string) Result {
	v, err, shared := a.group.Do(id, func() (any, error) {
		ctx, cancel := context.WithTimeout(ctx, a.timeout)
		defer cancel()

		ctx, span := a.tracer.Start(ctx, "details.Fetch",
			trace.WithAttributes(attribute.String("instrument.id", id)),
		)
		defer span.End()

		d, err := a.repo.GetByInstrumentID(ctx, id)
		if err != nil && !errors.Is(err, ErrNotFound) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "fetch details")
		}
		return d, err
	})

	switch {
	case errors.Is(err, ErrNotFound):
		a.record(ctx, "empty")
		return Result{InstrumentID: id, Status: StatusResolved}
	case err != nil:
		a.record(ctx, "failed")
		zctx.From(ctx).Warn("Details fetch failed",
			zap.String("instrument_id", id),
			zap.Bool("shared", shared),
			zap.Error(err),
		)
		return Result{InstrumentID: id, Status: StatusFailed, Err: err}
	}

	d, _ := v.(*Details)
	if d == nil {
		a.record(ctx, "empty")
	} else {
		a.record(ctx, "resolved")
	}
	return Result{InstrumentID: id, Status: StatusResolved, Details: d}
}

func (a *Augmenter) record(ctx context.Context, outcome string) {
	a.fetches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
