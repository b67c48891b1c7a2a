package instrument

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"
)

// snapshot is an immutable view of the catalog.
type snapshot struct {
	byID     map[string]*Instrument
	ordered  []Instrument
	loadedAt time.Time
}

// Catalog is the in-memory instrument catalog. Lookups never touch the
// repository; Load replaces the whole snapshot atomically.
type Catalog struct {
	repo Repository
	now  func() time.Time
	snap atomic.Pointer[snapshot]
}

// NewCatalog creates an empty catalog backed by repo. Call Load before
// serving lookups.
func NewCatalog(repo Repository) *Catalog {
	c := &Catalog{repo: repo, now: time.Now}
	c.snap.Store(&snapshot{byID: map[string]*Instrument{}})
	return c
}

// Load fetches every instrument from the repository and swaps the snapshot.
func (c *Catalog) Load(ctx context.Context) error {
	list, err := c.repo.List(ctx)
	if err != nil {
		return errors.Wrap(err, "list instruments")
	}
	c.Replace(list)
	return nil
}

// Replace installs list as the current catalog contents.
func (c *Catalog) Replace(list []Instrument) {
	s := &snapshot{
		byID:     make(map[string]*Instrument, len(list)),
		ordered:  make([]Instrument, len(list)),
		loadedAt: c.now(),
	}
	copy(s.ordered, list)
	for i := range s.ordered {
		s.byID[s.ordered[i].ID] = &s.ordered[i]
	}
	c.snap.Store(s)
}

// Resolve returns the instrument with the given id. An empty or unknown id
// reports false.
func (c *Catalog) Resolve(id string) (Instrument, bool) {
	if id == "" {
		return Instrument{}, false
	}
	p, ok := c.snap.Load().byID[id]
	if !ok {
		return Instrument{}, false
	}
	return *p, true
}

// All returns a copy of the catalog in repository order.
func (c *Catalog) All() []Instrument {
	s := c.snap.Load()
	out := make([]Instrument, len(s.ordered))
	copy(out, s.ordered)
	return out
}

// Len reports the number of instruments in the current snapshot.
func (c *Catalog) Len() int {
	return len(c.snap.Load().ordered)
}

// Loaded reports whether at least one successful Load or Replace happened.
func (c *Catalog) Loaded() bool {
	return !c.snap.Load().loadedAt.IsZero()
}

// StartRefresh reloads the catalog every interval until ctx is cancelled.
// Failed reloads keep the previous snapshot.
func (c *Catalog) StartRefresh(ctx context.Context, interval time.Duration, onLoad func(context.Context)) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := c.Load(ctx); err != nil {
					zctx.From(ctx).Warn("Catalog refresh failed", zap.Error(err))
					continue
				}
				if onLoad != nil {
					onLoad(ctx)
				}
			}
		}
	}()
}
