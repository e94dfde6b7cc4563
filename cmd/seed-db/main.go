// Command seed-db loads a catalog JSON file, a few starter coupons, and an
// admin API key into the database. Safe to re-run: everything is upserted.
package main

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/evermart/storefront/internal/domain/product"
	"github.com/evermart/storefront/internal/repository"
)

type productJSON struct {
	ID          string          `json:"id"`
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Brand       string          `json:"brand"`
	Color       string          `json:"color"`
	Count       int             `json:"count"`
}

const upsertProductSQL = `INSERT INTO products (id, title, slug, description, price, category, brand, color, count)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	ON CONFLICT (id) DO UPDATE SET
		title = EXCLUDED.title,
		slug = EXCLUDED.slug,
		description = EXCLUDED.description,
		price = EXCLUDED.price,
		category = EXCLUDED.category,
		brand = EXCLUDED.brand,
		color = EXCLUDED.color,
		count = EXCLUDED.count,
		updated_at = now()`

const upsertCouponSQL = `INSERT INTO coupons (name, discount, expiry)
	VALUES ($1, $2, $3)
	ON CONFLICT (name) DO UPDATE SET
		discount = EXCLUDED.discount,
		expiry = EXCLUDED.expiry,
		updated_at = now()`

const upsertAPIKeySQL = `INSERT INTO api_keys (id, key_hash, name, active)
	VALUES ($1, $2, $3, TRUE)
	ON CONFLICT (id) DO UPDATE SET
		key_hash = EXCLUDED.key_hash,
		name = EXCLUDED.name,
		active = TRUE`

func main() {
	var (
		databaseURL  string
		productsFile string
		apiKey       string
		apiKeyPepper string
	)

	flag.StringVar(&databaseURL, "database-url", "", "PostgreSQL connection URL (or DATABASE_URL env)")
	flag.StringVar(&productsFile, "products-file", "db/seed/products.json", "path to products JSON file")
	flag.StringVar(&apiKey, "api-key", "", "admin API key to seed (or STORE_SEED_API_KEY env)")
	flag.StringVar(&apiKeyPepper, "api-key-pepper", "", "HMAC pepper for API key hashing (or STORE_API_KEY_PEPPER env)")
	flag.Parse()

	if databaseURL == "" {
		databaseURL = os.Getenv("DATABASE_URL")
	}
	if databaseURL == "" {
		slog.Error("database URL is required: set --database-url or DATABASE_URL")
		os.Exit(1)
	}
	if apiKey == "" {
		apiKey = os.Getenv("STORE_SEED_API_KEY")
	}
	if apiKey == "" {
		slog.Error("API key is required: set --api-key or STORE_SEED_API_KEY")
		os.Exit(1)
	}
	if apiKeyPepper == "" {
		apiKeyPepper = os.Getenv("STORE_API_KEY_PEPPER")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	if err := run(ctx, databaseURL, productsFile, apiKey, apiKeyPepper); err != nil {
		slog.Error("seed failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	slog.Info("seed completed successfully")
}

func run(ctx context.Context, databaseURL, productsFile, apiKey, pepper string) error {
	slog.Info("connecting to database")

	pool, err := repository.NewPool(ctx, databaseURL)
	if err != nil {
		return errors.Wrap(err, "connect to database")
	}
	defer pool.Close()

	slog.Info("running migrations")

	if err := repository.RunMigrations(ctx, pool); err != nil {
		return errors.Wrap(err, "run migrations")
	}

	if err := seedProducts(ctx, pool, productsFile); err != nil {
		return errors.Wrap(err, "seed products")
	}
	if err := seedCoupons(ctx, pool); err != nil {
		return errors.Wrap(err, "seed coupons")
	}
	if err := seedAPIKey(ctx, pool, apiKey, pepper); err != nil {
		return errors.Wrap(err, "seed api key")
	}

	return nil
}

func seedProducts(ctx context.Context, pool *pgxpool.Pool, productsFile string) error {
	slog.Info("reading products file", slog.String("path", productsFile))

	data, err := os.ReadFile(productsFile)
	if err != nil {
		return errors.Wrap(err, "read products file")
	}

	var products []productJSON
	if err := json.Unmarshal(data, &products); err != nil {
		return errors.Wrap(err, "parse products JSON")
	}

	slog.Info("upserting products", slog.Int("count", len(products)))

	for _, p := range products {
		if p.ID == "" {
			p.ID = uuid.New().String()
		}
		slug := product.Slugify(p.Title)
		if _, err := pool.Exec(ctx, upsertProductSQL,
			p.ID, p.Title, slug, p.Description, p.Price, p.Category, p.Brand, p.Color, p.Count,
		); err != nil {
			return errors.Wrapf(err, "upsert product %s", p.ID)
		}

		slog.Info("upserted product", slog.String("id", p.ID), slog.String("title", p.Title))
	}

	return nil
}

func seedCoupons(ctx context.Context, pool *pgxpool.Pool) error {
	slog.Info("seeding starter coupons")

	now := time.Now()
	coupons := []struct {
		name     string
		discount decimal.Decimal
		expiry   time.Time
	}{
		{name: "WELCOME10", discount: decimal.NewFromInt(10), expiry: now.AddDate(1, 0, 0)},
		{name: "SUMMER25", discount: decimal.NewFromInt(25), expiry: now.AddDate(0, 3, 0)},
		{name: "FLASH50", discount: decimal.NewFromInt(50), expiry: now.AddDate(0, 0, 7)},
	}

	for _, c := range coupons {
		if _, err := pool.Exec(ctx, upsertCouponSQL, c.name, c.discount, c.expiry); err != nil {
			return errors.Wrapf(err, "upsert coupon %s", c.name)
		}

		slog.Info("upserted coupon", slog.String("name", c.name), slog.String("discount", c.discount.String()))
	}

	return nil
}

func seedAPIKey(ctx context.Context, pool *pgxpool.Pool, apiKey, pepper string) error {
	slog.Info("seeding admin API key")

	mac := hmac.New(sha256.New, []byte(pepper))
	mac.Write([]byte(apiKey))
	keyHash := hex.EncodeToString(mac.Sum(nil))

	if _, err := pool.Exec(ctx, upsertAPIKeySQL, "default", keyHash, "Default admin key"); err != nil {
		return errors.Wrap(err, "upsert admin API key")
	}

	slog.Info("upserted API key", slog.String("id", "default"))

	return nil
}
