package bills

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	"github.com/Ayushchauha111/jewelpos/internal/invoice"
	"github.com/Ayushchauha111/jewelpos/internal/observability"
	"github.com/Ayushchauha111/jewelpos/internal/platform/httpx"
	"github.com/Ayushchauha111/jewelpos/internal/rates"
)

const (
	opQuote  = "quote"
	opCreate = "create"

	maxSaveAttempts = 3
)

// RateResolver supplies the day's snapshot and the making-charge table.
type RateResolver interface {
	Resolve(ctx context.Context, date time.Time) (billing.RateSnapshot, error)
	MakingConfig(ctx context.Context) (billing.MakingConfig, error)
}

// StockSource supplies stock records by id.
type StockSource interface {
	StockByIDs(ctx context.Context, ids []int64) (map[int64]billing.StockItem, error)
}

// MemoStore keeps the per-session price memo.
type MemoStore interface {
	Load(ctx context.Context, sessionID string) (*billing.PriceMemo, error)
	Save(ctx context.Context, sessionID string, lines []billing.PricedLine) error
	Clear(ctx context.Context, sessionID string) error
}

// Shop is printed on every invoice header.
type Shop struct {
	Name    string
	GSTIN   string
	Address string
}

// Deps wires the service.
type Deps struct {
	Repo    Repository
	Rates   RateResolver
	Stock   StockSource
	Memo    MemoStore
	Shop    Shop
	Metrics *observability.BillingMetrics
	Logger  *slog.Logger
}

// Service prices, stores and renders bills.
type Service struct {
	repo    Repository
	rates   RateResolver
	stock   StockSource
	memo    MemoStore
	shop    Shop
	metrics *observability.BillingMetrics
	logger  *slog.Logger
	now     func() time.Time
	newID   func() uuid.UUID
}

// NewService constructs the bill service. Memo, Metrics and Logger are optional.
func NewService(d Deps) *Service {
	s := &Service{
		repo:    d.Repo,
		rates:   d.Rates,
		stock:   d.Stock,
		memo:    d.Memo,
		shop:    d.Shop,
		metrics: d.Metrics,
		logger:  d.Logger,
		now:     time.Now,
		newID:   uuid.New,
	}
	if s.memo == nil {
		s.memo = noMemo{}
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	return s
}

// Quote prices a bill without storing it.
func (s *Service) Quote(ctx context.Context, req BillRequest) (billing.Bill, error) {
	bill, _, err := s.price(ctx, req)
	if err != nil {
		s.metrics.Failed(opQuote, err)
		return billing.Bill{}, err
	}
	s.metrics.Priced(opQuote)
	return bill, nil
}

// Create prices a bill, consumes its stock and stores it in one transaction.
// created is false when the idempotency key names an existing bill, which is
// returned unchanged.
func (s *Service) Create(ctx context.Context, req CreateBillRequest) (bill Bill, created bool, err error) {
	if req.IdempotencyKey != "" {
		if existing, ok, err := s.byKey(ctx, req.IdempotencyKey); err != nil || ok {
			return existing, false, err
		}
	}

	priced, day, err := s.price(ctx, req.BillRequest)
	if err != nil {
		s.metrics.Failed(opCreate, err)
		return Bill{}, false, err
	}

	bill = Bill{
		ID:             s.newID(),
		Date:           day,
		CustomerName:   req.CustomerName,
		CustomerPhone:  req.CustomerPhone,
		Status:         StatusFor(priced.Totals),
		Lines:          priced.Lines,
		Totals:         priced.Totals,
		CreatedAt:      s.now().UTC(),
		IdempotencyKey: req.IdempotencyKey,
	}
	consumed := stockConsumption(bill.Lines)
	ids := make([]int64, 0, len(consumed))
	for id := range consumed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for attempt := 1; ; attempt++ {
		err = s.repo.WithTx(ctx, func(ctx context.Context, repo Repository) error {
			seq, err := repo.NextSequence(ctx, day)
			if err != nil {
				return err
			}
			bill.Number = BillNumber(day, seq)
			for _, id := range ids {
				if err := repo.ConsumeStock(ctx, id, consumed[id]); err != nil {
					return err
				}
			}
			return repo.InsertBill(ctx, bill)
		})
		if attempt < maxSaveAttempts && (errors.Is(err, ErrDuplicateNumber) || errors.Is(err, ErrStockChanged)) {
			s.logger.Warn("retrying bill save", slog.Int("attempt", attempt), slog.Any("error", err))
			continue
		}
		break
	}
	if errors.Is(err, ErrIdempotencyConflict) {
		if existing, ok, lookupErr := s.byKey(ctx, req.IdempotencyKey); lookupErr == nil && ok {
			return existing, false, nil
		}
	}
	if err != nil {
		s.metrics.Failed(opCreate, err)
		if !isBillingError(err) {
			s.logger.Error("save bill", slog.Any("error", err))
		}
		return Bill{}, false, err
	}

	s.metrics.Priced(opCreate)
	s.metrics.Created(bill.Totals.FinalAmount.InexactFloat64())
	if err := s.memo.Clear(ctx, req.SessionID); err != nil {
		s.logger.Warn("clear price memo", slog.String("session", req.SessionID), slog.Any("error", err))
	}
	s.logger.Info("bill created",
		slog.String("bill_id", bill.ID.String()),
		slog.String("number", bill.Number),
		slog.String("final_amount", bill.Totals.FinalAmount.StringFixed(2)),
		slog.String("status", string(bill.Status)))
	return bill, true, nil
}

// byKey loads the bill stored under an idempotency key; ok is false when none exists.
func (s *Service) byKey(ctx context.Context, key string) (Bill, bool, error) {
	id, err := s.repo.BillIDByKey(ctx, key)
	if errors.Is(err, ErrBillNotFound) {
		return Bill{}, false, nil
	}
	if err != nil {
		return Bill{}, false, err
	}
	bill, err := s.repo.GetBill(ctx, id)
	if err != nil {
		return Bill{}, false, err
	}
	s.logger.Info("replayed bill for idempotency key", slog.String("bill_id", id.String()))
	return bill, true, nil
}

// Get loads a stored bill.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (Bill, error) {
	return s.repo.GetBill(ctx, id)
}

// List pages through stored bills.
func (s *Service) List(ctx context.Context, filter ListFilter) (BillPage, error) {
	if _, err := ParseStatus(string(filter.Status)); err != nil {
		return BillPage{}, err
	}
	if !filter.Date.IsZero() {
		filter.Date = rates.DateOf(filter.Date)
	}
	page := httpx.NewPagination(filter.Page, filter.PerPage, 0)
	items, total, err := s.repo.ListBills(ctx, filter, page.PerPage, page.Offset())
	if err != nil {
		return BillPage{}, err
	}
	return BillPage{Items: items, Pagination: httpx.NewPagination(page.Page, page.PerPage, total)}, nil
}

// Invoice renders a stored bill as the requested document.
func (s *Service) Invoice(ctx context.Context, id uuid.UUID, kind InvoiceKind) (InvoiceDocument, error) {
	bill, err := s.repo.GetBill(ctx, id)
	if err != nil {
		return InvoiceDocument{}, err
	}
	header := s.header(bill)
	switch kind {
	case InvoiceGST:
		doc := invoice.RenderTaxInvoice(header, bill.Priced())
		return InvoiceDocument{Kind: InvoiceGST, TaxInvoice: &doc}, nil
	case InvoiceNormal:
		doc := invoice.RenderEstimate(header, bill.Priced())
		return InvoiceDocument{Kind: InvoiceNormal, Estimate: &doc}, nil
	default:
		return InvoiceDocument{}, ErrUnknownInvoiceKind
	}
}

func (s *Service) header(bill Bill) invoice.Header {
	return invoice.Header{
		ShopName:      s.shop.Name,
		ShopAddress:   s.shop.Address,
		GSTIN:         s.shop.GSTIN,
		BillNumber:    bill.Number,
		Date:          bill.Date,
		CustomerName:  bill.CustomerName,
		CustomerPhone: bill.CustomerPhone,
	}
}

// price gathers collaborator data and runs the engine. The memo is best-effort:
// a cache outage degrades to no fallback rates rather than failing the bill.
func (s *Service) price(ctx context.Context, req BillRequest) (billing.Bill, time.Time, error) {
	date, err := req.Date(s.now())
	if err != nil {
		return billing.Bill{}, time.Time{}, err
	}
	day := rates.DateOf(date)

	snap, err := s.rates.Resolve(ctx, day)
	if err != nil {
		return billing.Bill{}, time.Time{}, err
	}
	making, err := s.rates.MakingConfig(ctx)
	if err != nil {
		return billing.Bill{}, time.Time{}, err
	}
	input := req.Input()
	stock, err := s.stock.StockByIDs(ctx, billing.StockIDs(input.Lines))
	if err != nil {
		return billing.Bill{}, time.Time{}, err
	}
	memo, err := s.memo.Load(ctx, req.SessionID)
	if err != nil {
		s.logger.Warn("load price memo", slog.String("session", req.SessionID), slog.Any("error", err))
		memo = nil
	}

	bill, err := billing.Compute(input, billing.Sources{
		Rates:  snap,
		Making: making,
		Stock:  stock,
		Memo:   memo,
	})
	if err != nil {
		return billing.Bill{}, time.Time{}, err
	}
	if err := s.memo.Save(ctx, req.SessionID, bill.Lines); err != nil {
		s.logger.Warn("save price memo", slog.String("session", req.SessionID), slog.Any("error", err))
	}
	return bill, day, nil
}

// isBillingError reports whether err is an expected client-facing failure
// rather than an infrastructure fault worth an error log.
func isBillingError(err error) bool {
	if observability.FailureReason(err) != "internal" {
		return true
	}
	for _, target := range []error{httpx.ErrNotFound, httpx.ErrValidation, httpx.ErrDuplicate, httpx.ErrConflict} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

type noMemo struct{}

func (noMemo) Load(context.Context, string) (*billing.PriceMemo, error) { return nil, nil }
func (noMemo) Save(context.Context, string, []billing.PricedLine) error { return nil }
func (noMemo) Clear(context.Context, string) error                      { return nil }
