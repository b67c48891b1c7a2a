package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
)

// GoroutineCountCheck fails when more than threshold goroutines are running.
func GoroutineCountCheck(threshold int) CheckFunc {
	return func(context.Context) error {
		if n := runtime.NumGoroutine(); n > threshold {
			return errors.Errorf("goroutine count %d exceeds threshold %d", n, threshold)
		}
		return nil
	}
}

// Pinger is implemented by *pgxpool.Pool.
type Pinger interface {
	Ping(ctx context.Context) error
}

// PingCheck fails when p cannot be reached.
func PingCheck(p Pinger) CheckFunc {
	return func(ctx context.Context) error {
		if err := p.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping")
		}
		return nil
	}
}

// Loader reports whether an in-memory dataset has been loaded.
type Loader interface {
	Loaded() bool
}

// LoadedCheck fails until l reports a loaded dataset.
func LoadedCheck(what string, l Loader) CheckFunc {
	return func(context.Context) error {
		if !l.Loaded() {
			return errors.Errorf("%s not loaded", what)
		}
		return nil
	}
}
