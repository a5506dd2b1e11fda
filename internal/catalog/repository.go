// Package catalog reads stock records for the pricing engine.
package catalog

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	"github.com/Ayushchauha111/jewelpos/internal/platform/db"
)

// StockStatusAvailable marks items that can be billed.
const StockStatusAvailable = "AVAILABLE"

// Repository is the stock source.
type Repository interface {
	StockByIDs(ctx context.Context, ids []int64) (map[int64]billing.StockItem, error)
}

type repository struct {
	db db.DBTX
}

// NewRepository constructs a Postgres-backed stock source.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool}
}

// StockByIDs returns the requested items keyed by id. Unknown ids are absent from the map;
// items that are not AVAILABLE report zero quantity so they fail the stock check.
func (r *repository) StockByIDs(ctx context.Context, ids []int64) (map[int64]billing.StockItem, error) {
	out := make(map[int64]billing.StockItem, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, article_name, COALESCE(article_code, ''), COALESCE(category, ''), COALESCE(material, ''),
		       weight_grams, carat, diamond_carat, selling_price, quantity, status
		FROM stock_items
		WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("catalog: query stock: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item billing.StockItem
		if err := rows.Scan(
			&item.ID,
			&item.ArticleName,
			&item.ArticleCode,
			&item.Category,
			&item.Material,
			&item.WeightGrams,
			&item.Carat,
			&item.DiamondCarat,
			&item.SellingPrice,
			&item.Quantity,
			&item.Status,
		); err != nil {
			return nil, fmt.Errorf("catalog: scan stock: %w", err)
		}
		out[item.ID] = availableOnly(item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("catalog: iterate stock: %w", err)
	}
	return out, nil
}

func availableOnly(item billing.StockItem) billing.StockItem {
	if item.Status != "" && item.Status != StockStatusAvailable {
		item.Quantity = 0
	}
	return item
}
