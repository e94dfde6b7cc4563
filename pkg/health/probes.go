package health

import (
	"context"
	"runtime"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5/pgxpool"
)

// GoroutineProbe trips when the process exceeds max goroutines, which
// usually means a leak.
func GoroutineProbe(max int) Probe {
	return func(_ context.Context) error {
		if n := runtime.NumGoroutine(); n > max {
			return errors.Errorf("%d goroutines, limit %d", n, max)
		}
		return nil
	}
}

// DatabaseProbe pings the connection pool.
func DatabaseProbe(pool *pgxpool.Pool) Probe {
	return func(ctx context.Context) error {
		if err := pool.Ping(ctx); err != nil {
			return errors.Wrap(err, "ping database")
		}
		return nil
	}
}
