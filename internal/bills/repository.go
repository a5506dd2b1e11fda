package bills

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	"github.com/Ayushchauha111/jewelpos/internal/catalog"
	"github.com/Ayushchauha111/jewelpos/internal/platform/db"
)

// Repository persists bills and consumes sold stock.
type Repository interface {
	WithTx(ctx context.Context, fn func(context.Context, Repository) error) error
	NextSequence(ctx context.Context, date time.Time) (int, error)
	ConsumeStock(ctx context.Context, stockID int64, quantity int) error
	InsertBill(ctx context.Context, bill Bill) error
	GetBill(ctx context.Context, id uuid.UUID) (Bill, error)
	BillIDByKey(ctx context.Context, key string) (uuid.UUID, error)
	ListBills(ctx context.Context, filter ListFilter, limit, offset int) ([]Summary, int, error)
}

const idempotencyConstraint = "bills_idempotency_key_key"

type repository struct {
	db   db.DBTX
	pool *pgxpool.Pool
}

// NewRepository constructs a Postgres-backed bill repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{db: pool, pool: pool}
}

func (r *repository) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		return fn(ctx, &repository{db: tx, pool: r.pool})
	})
	if db.IsSerializationFailure(err) && !errors.Is(err, ErrStockChanged) {
		return fmt.Errorf("%w: %v", ErrStockChanged, err)
	}
	return err
}

// NextSequence returns the next per-day bill sequence. Concurrent callers may see the
// same value; the unique bill number constraint rejects the loser.
func (r *repository) NextSequence(ctx context.Context, date time.Time) (int, error) {
	var seq int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) + 1 FROM bills WHERE bill_date = $1`, date).Scan(&seq); err != nil {
		return 0, fmt.Errorf("bills: next sequence: %w", err)
	}
	return seq, nil
}

// ConsumeStock decrements an item's quantity, marking it SOLD at zero.
func (r *repository) ConsumeStock(ctx context.Context, stockID int64, quantity int) error {
	tag, err := r.db.Exec(ctx, `
		UPDATE stock_items
		SET quantity = quantity - $2,
		    status = CASE WHEN quantity - $2 = 0 THEN 'SOLD' ELSE status END,
		    updated_at = NOW()
		WHERE id = $1 AND status = $3 AND quantity >= $2`, stockID, quantity, catalog.StockStatusAvailable)
	if err != nil {
		if db.IsSerializationFailure(err) {
			return fmt.Errorf("%w: item %d", ErrStockChanged, stockID)
		}
		return fmt.Errorf("bills: consume stock %d: %w", stockID, err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var (
		available int
		status    string
	)
	err = r.db.QueryRow(ctx, `SELECT quantity, status FROM stock_items WHERE id = $1`, stockID).Scan(&available, &status)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%w: %d", billing.ErrStockNotFound, stockID)
	}
	if err != nil {
		return fmt.Errorf("bills: read stock %d: %w", stockID, err)
	}
	if status != catalog.StockStatusAvailable {
		available = 0
	}
	return &billing.InsufficientStockError{StockID: stockID, Requested: quantity, Available: available}
}

// InsertBill writes the bill header and its priced lines.
func (r *repository) InsertBill(ctx context.Context, bill Bill) error {
	totals, err := json.Marshal(bill.Totals)
	if err != nil {
		return fmt.Errorf("bills: encode totals: %w", err)
	}
	_, err = r.db.Exec(ctx, `
		INSERT INTO bills (id, bill_number, idempotency_key, bill_date, customer_name, customer_phone, status,
		                   final_amount, paid_amount, remaining_amount, totals, created_at)
		VALUES ($1, $2, NULLIF($3, ''), $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9, $10, $11, $12)`,
		bill.ID, bill.Number, bill.IdempotencyKey, bill.Date, bill.CustomerName, bill.CustomerPhone, string(bill.Status),
		bill.Totals.FinalAmount, bill.Totals.PaidAmount, bill.Totals.RemainingAmount, totals, bill.CreatedAt)
	if err != nil {
		if constraint, ok := db.UniqueConstraint(err); ok {
			if constraint == idempotencyConstraint {
				return fmt.Errorf("%w: %s", ErrIdempotencyConflict, bill.IdempotencyKey)
			}
			return fmt.Errorf("%w: %s", ErrDuplicateNumber, bill.Number)
		}
		if db.IsSerializationFailure(err) {
			return fmt.Errorf("%w: %v", ErrStockChanged, err)
		}
		return fmt.Errorf("bills: insert bill: %w", err)
	}

	batch := &pgx.Batch{}
	for i, line := range bill.Lines {
		detail, err := json.Marshal(line)
		if err != nil {
			return fmt.Errorf("bills: encode line %d: %w", i+1, err)
		}
		var stockID *int64
		if line.Kind == billing.KindStock {
			id := line.StockID
			stockID = &id
		}
		batch.Queue(`
			INSERT INTO bill_lines (bill_id, line_no, kind, stock_id, item_name, quantity, total_price, detail)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
			bill.ID, i+1, string(line.Kind), stockID, line.ItemName, line.Quantity, line.TotalPrice, detail)
	}
	results := r.db.SendBatch(ctx, batch)
	for i := range bill.Lines {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return fmt.Errorf("bills: insert line %d: %w", i+1, err)
		}
	}
	if err := results.Close(); err != nil {
		return fmt.Errorf("bills: insert lines: %w", err)
	}
	return nil
}

// GetBill loads a stored bill with its lines in entry order.
func (r *repository) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	var (
		bill          Bill
		status        string
		customerName  *string
		customerPhone *string
		totals        []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, bill_number, bill_date, customer_name, customer_phone, status, totals, created_at
		FROM bills
		WHERE id = $1`, id).Scan(&bill.ID, &bill.Number, &bill.Date, &customerName, &customerPhone, &status, &totals, &bill.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Bill{}, fmt.Errorf("%w: %s", ErrBillNotFound, id)
		}
		return Bill{}, fmt.Errorf("bills: load bill: %w", err)
	}
	bill.Status = Status(status)
	if customerName != nil {
		bill.CustomerName = *customerName
	}
	if customerPhone != nil {
		bill.CustomerPhone = *customerPhone
	}
	if err := json.Unmarshal(totals, &bill.Totals); err != nil {
		return Bill{}, fmt.Errorf("bills: decode totals: %w", err)
	}

	rows, err := r.db.Query(ctx, `SELECT detail FROM bill_lines WHERE bill_id = $1 ORDER BY line_no`, id)
	if err != nil {
		return Bill{}, fmt.Errorf("bills: load lines: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var detail []byte
		if err := rows.Scan(&detail); err != nil {
			return Bill{}, fmt.Errorf("bills: scan line: %w", err)
		}
		var line billing.PricedLine
		if err := json.Unmarshal(detail, &line); err != nil {
			return Bill{}, fmt.Errorf("bills: decode line: %w", err)
		}
		bill.Lines = append(bill.Lines, line)
	}
	if err := rows.Err(); err != nil {
		return Bill{}, fmt.Errorf("bills: iterate lines: %w", err)
	}
	return bill, nil
}

// BillIDByKey finds the bill created under an idempotency key.
func (r *repository) BillIDByKey(ctx context.Context, key string) (uuid.UUID, error) {
	var id uuid.UUID
	err := r.db.QueryRow(ctx, `SELECT id FROM bills WHERE idempotency_key = $1`, key).Scan(&id)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, fmt.Errorf("%w: idempotency key %s", ErrBillNotFound, key)
	}
	if err != nil {
		return uuid.Nil, fmt.Errorf("bills: lookup idempotency key: %w", err)
	}
	return id, nil
}

// ListBills returns one page of bill summaries, newest first, with the unpaged total.
func (r *repository) ListBills(ctx context.Context, filter ListFilter, limit, offset int) ([]Summary, int, error) {
	var date *time.Time
	if !filter.Date.IsZero() {
		date = &filter.Date
	}
	const where = `WHERE ($1::date IS NULL OR bill_date = $1) AND ($2 = '' OR status = $2)`

	var total int
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM bills `+where, date, string(filter.Status)).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("bills: count bills: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT id, bill_number, bill_date, COALESCE(customer_name, ''), COALESCE(customer_phone, ''),
		       status, final_amount, remaining_amount
		FROM bills `+where+`
		ORDER BY created_at DESC, bill_number DESC
		LIMIT $3 OFFSET $4`, date, string(filter.Status), limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("bills: list bills: %w", err)
	}
	defer rows.Close()

	items := make([]Summary, 0, limit)
	for rows.Next() {
		var (
			s      Summary
			status string
		)
		if err := rows.Scan(&s.ID, &s.Number, &s.Date, &s.CustomerName, &s.CustomerPhone,
			&status, &s.FinalAmount, &s.RemainingAmount); err != nil {
			return nil, 0, fmt.Errorf("bills: scan summary: %w", err)
		}
		s.Status = Status(status)
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("bills: iterate bills: %w", err)
	}
	return items, total, nil
}
