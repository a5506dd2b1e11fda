package rates

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	"github.com/Ayushchauha111/jewelpos/internal/platform/db"
)

// Repository persists daily rate snapshots and the category making-charge table.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	Snapshot(ctx context.Context, date time.Time) (billing.RateSnapshot, error)
	SaveSnapshot(ctx context.Context, snap billing.RateSnapshot) error
	MakingRates(ctx context.Context) ([]billing.MakingRate, error)
}

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a Postgres-backed repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
}

// Snapshot loads the snapshot recorded for date. A missing day is billing.ErrRatesMissing.
func (r *repository) Snapshot(ctx context.Context, date time.Time) (billing.RateSnapshot, error) {
	snap := billing.RateSnapshot{Date: date, GoldPerGram: make(map[int]decimal.Decimal)}
	err := r.db.QueryRow(ctx, `
		SELECT silver_per_gram, diamond_per_carat, default_making_per_gram
		FROM rate_snapshots
		WHERE rate_date = $1`, date).Scan(&snap.SilverPerGram, &snap.DiamondPerCarat, &snap.DefaultMakingPerGram)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billing.RateSnapshot{}, fmt.Errorf("%w: %s", billing.ErrRatesMissing, date.Format(time.DateOnly))
		}
		return billing.RateSnapshot{}, fmt.Errorf("rates: load snapshot: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT karat, per_gram
		FROM gold_rates
		WHERE rate_date = $1
		ORDER BY karat`, date)
	if err != nil {
		return billing.RateSnapshot{}, fmt.Errorf("rates: load gold rates: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			karat   int
			perGram decimal.Decimal
		)
		if err := rows.Scan(&karat, &perGram); err != nil {
			return billing.RateSnapshot{}, fmt.Errorf("rates: scan gold rate: %w", err)
		}
		snap.GoldPerGram[karat] = perGram
	}
	if err := rows.Err(); err != nil {
		return billing.RateSnapshot{}, fmt.Errorf("rates: iterate gold rates: %w", err)
	}
	return snap, nil
}

// SaveSnapshot replaces the day's header and karat rows. Call it inside WithTx so
// readers never observe a half-written day.
func (r *repository) SaveSnapshot(ctx context.Context, snap billing.RateSnapshot) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO rate_snapshots (rate_date, silver_per_gram, diamond_per_carat, default_making_per_gram, updated_at)
		VALUES ($1, $2, $3, $4, NOW())
		ON CONFLICT (rate_date) DO UPDATE SET
			silver_per_gram = EXCLUDED.silver_per_gram,
			diamond_per_carat = EXCLUDED.diamond_per_carat,
			default_making_per_gram = EXCLUDED.default_making_per_gram,
			updated_at = NOW()`,
		snap.Date, snap.SilverPerGram, snap.DiamondPerCarat, snap.DefaultMakingPerGram)
	if err != nil {
		return fmt.Errorf("rates: upsert snapshot: %w", err)
	}
	if _, err := r.db.Exec(ctx, `DELETE FROM gold_rates WHERE rate_date = $1`, snap.Date); err != nil {
		return fmt.Errorf("rates: clear gold rates: %w", err)
	}
	for _, karat := range billing.StandardKarats {
		perGram, ok := snap.GoldPerGram[karat]
		if !ok {
			continue
		}
		if _, err := r.db.Exec(ctx, `
			INSERT INTO gold_rates (rate_date, karat, per_gram)
			VALUES ($1, $2, $3)`, snap.Date, karat, perGram); err != nil {
			return fmt.Errorf("rates: insert %dK rate: %w", karat, err)
		}
	}
	return nil
}

// MakingRates loads every configured (category, material) rate. A NULL material is
// the category default.
func (r *repository) MakingRates(ctx context.Context) ([]billing.MakingRate, error) {
	rows, err := r.db.Query(ctx, `
		SELECT category, COALESCE(material, ''), per_gram
		FROM category_making_charges
		ORDER BY category, material NULLS FIRST`)
	if err != nil {
		return nil, fmt.Errorf("rates: load making rates: %w", err)
	}
	defer rows.Close()

	var out []billing.MakingRate
	for rows.Next() {
		var mr billing.MakingRate
		if err := rows.Scan(&mr.Category, &mr.Material, &mr.PerGram); err != nil {
			return nil, fmt.Errorf("rates: scan making rate: %w", err)
		}
		out = append(out, mr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rates: iterate making rates: %w", err)
	}
	return out, nil
}
