package bills

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	"github.com/Ayushchauha111/jewelpos/internal/observability"
	"github.com/Ayushchauha111/jewelpos/internal/platform/httpx"
	"github.com/Ayushchauha111/jewelpos/internal/pricecache"
)

var billDay = time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)

type fakeRepo struct {
	mu         sync.Mutex
	bills      map[uuid.UUID]Bill
	stock      map[int64]int
	seq        map[string]int
	duplicates int
	txCalls    int
	keys       map[string]uuid.UUID
	// keyRace stores a competing bill under the key just before the next insert.
	keyRace *Bill
}

func newFakeRepo(stock map[int64]int) *fakeRepo {
	return &fakeRepo{bills: make(map[uuid.UUID]Bill), stock: stock, seq: make(map[string]int), keys: make(map[string]uuid.UUID)}
}

// WithTx applies fn against a copy of the stock table and keeps it only on success.
func (f *fakeRepo) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	f.mu.Lock()
	f.txCalls++
	snapshot := make(map[int64]int, len(f.stock))
	for k, v := range f.stock {
		snapshot[k] = v
	}
	f.mu.Unlock()

	tx := &fakeTx{parent: f, stock: snapshot}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stock = tx.stock
	if tx.bill != nil {
		f.bills[tx.bill.ID] = *tx.bill
		f.seq[tx.bill.Date.Format(time.DateOnly)]++
		if tx.bill.IdempotencyKey != "" {
			f.keys[tx.bill.IdempotencyKey] = tx.bill.ID
		}
	}
	return nil
}

func (f *fakeRepo) ListBills(ctx context.Context, filter ListFilter, limit, offset int) ([]Summary, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	all := make([]Summary, 0, len(f.bills))
	for _, b := range f.bills {
		if !filter.Date.IsZero() && !b.Date.Equal(filter.Date) {
			continue
		}
		if filter.Status != "" && b.Status != filter.Status {
			continue
		}
		all = append(all, Summary{ID: b.ID, Number: b.Number, Date: b.Date, Status: b.Status,
			FinalAmount: b.Totals.FinalAmount, RemainingAmount: b.Totals.RemainingAmount})
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Number > all[j].Number })
	total := len(all)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakeRepo) BillIDByKey(ctx context.Context, key string) (uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	id, ok := f.keys[key]
	if !ok {
		return uuid.Nil, ErrBillNotFound
	}
	return id, nil
}

func (f *fakeRepo) NextSequence(ctx context.Context, date time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seq[date.Format(time.DateOnly)] + 1, nil
}

func (f *fakeRepo) ConsumeStock(ctx context.Context, stockID int64, quantity int) error {
	return errors.New("ConsumeStock outside transaction")
}

func (f *fakeRepo) InsertBill(ctx context.Context, bill Bill) error {
	return errors.New("InsertBill outside transaction")
}

func (f *fakeRepo) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	bill, ok := f.bills[id]
	if !ok {
		return Bill{}, ErrBillNotFound
	}
	return bill, nil
}

type fakeTx struct {
	parent *fakeRepo
	stock  map[int64]int
	bill   *Bill
}

func (t *fakeTx) WithTx(ctx context.Context, fn func(context.Context, Repository) error) error {
	return fn(ctx, t)
}

func (t *fakeTx) NextSequence(ctx context.Context, date time.Time) (int, error) {
	return t.parent.NextSequence(ctx, date)
}

func (t *fakeTx) ConsumeStock(ctx context.Context, stockID int64, quantity int) error {
	available, ok := t.stock[stockID]
	if !ok {
		return fmt.Errorf("%w: %d", billing.ErrStockNotFound, stockID)
	}
	if available < quantity {
		return &billing.InsufficientStockError{StockID: stockID, Requested: quantity, Available: available}
	}
	t.stock[stockID] = available - quantity
	return nil
}

func (t *fakeTx) InsertBill(ctx context.Context, bill Bill) error {
	t.parent.mu.Lock()
	defer t.parent.mu.Unlock()
	if race := t.parent.keyRace; race != nil && bill.IdempotencyKey != "" {
		t.parent.keyRace = nil
		race.IdempotencyKey = bill.IdempotencyKey
		t.parent.bills[race.ID] = *race
		t.parent.keys[race.IdempotencyKey] = race.ID
		return ErrIdempotencyConflict
	}
	if _, taken := t.parent.keys[bill.IdempotencyKey]; taken && bill.IdempotencyKey != "" {
		return ErrIdempotencyConflict
	}
	if t.parent.duplicates > 0 {
		t.parent.duplicates--
		t.parent.seq[bill.Date.Format(time.DateOnly)]++
		return ErrDuplicateNumber
	}
	t.bill = &bill
	return nil
}

func (t *fakeTx) GetBill(ctx context.Context, id uuid.UUID) (Bill, error) {
	return t.parent.GetBill(ctx, id)
}

func (t *fakeTx) ListBills(ctx context.Context, filter ListFilter, limit, offset int) ([]Summary, int, error) {
	return t.parent.ListBills(ctx, filter, limit, offset)
}

func (t *fakeTx) BillIDByKey(ctx context.Context, key string) (uuid.UUID, error) {
	return t.parent.BillIDByKey(ctx, key)
}

type fakeRates struct {
	snapshots map[string]billing.RateSnapshot
	making    []billing.MakingRate
}

func (f *fakeRates) Resolve(ctx context.Context, date time.Time) (billing.RateSnapshot, error) {
	snap, ok := f.snapshots[date.Format(time.DateOnly)]
	if !ok {
		return billing.RateSnapshot{}, fmt.Errorf("%w for %s", billing.ErrRatesMissing, date.Format(time.DateOnly))
	}
	return snap, nil
}

func (f *fakeRates) MakingConfig(ctx context.Context) (billing.MakingConfig, error) {
	return billing.NewMakingConfig(f.making), nil
}

type fakeStock map[int64]billing.StockItem

func (f fakeStock) StockByIDs(ctx context.Context, ids []int64) (map[int64]billing.StockItem, error) {
	out := make(map[int64]billing.StockItem, len(ids))
	for _, id := range ids {
		if item, ok := f[id]; ok {
			out[id] = item
		}
	}
	return out, nil
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func ptr(v float64) *float64 {
	return &v
}

func goldRing() billing.StockItem {
	return billing.StockItem{
		ID:          1,
		ArticleName: "Gold Ring",
		ArticleCode: "GR-001",
		Category:    "Ring",
		Material:    "Gold",
		WeightGrams: decimal.NewNullDecimal(dec("10")),
		Carat:       decimal.NewNullDecimal(dec("22")),
		Quantity:    2,
	}
}

func testRates() *fakeRates {
	return &fakeRates{snapshots: map[string]billing.RateSnapshot{
		"2026-10-19": {
			Date:            billDay,
			GoldPerGram:     map[int]decimal.Decimal{18: dec("6000"), 22: dec("6000"), 24: dec("6500")},
			SilverPerGram:   dec("80"),
			DiamondPerCarat: dec("40000"),
		},
	}}
}

type testEnv struct {
	svc     *Service
	repo    *fakeRepo
	reg     *prometheus.Registry
	mr      *miniredis.Miniredis
	memo    *pricecache.Store
	nextIDs []uuid.UUID
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		repo: newFakeRepo(map[int64]int{1: 2}),
		reg:  prometheus.NewRegistry(),
		mr:   mr,
		memo: pricecache.NewStore(client, time.Hour),
	}
	env.svc = NewService(Deps{
		Repo:    env.repo,
		Rates:   testRates(),
		Stock:   fakeStock{1: goldRing()},
		Memo:    env.memo,
		Shop:    Shop{Name: "Shree Jewellers", GSTIN: "27ABCDE1234F1Z5", Address: "MG Road, Pune"},
		Metrics: observability.NewBillingMetrics(env.reg),
	})
	env.svc.now = func() time.Time { return time.Date(2026, 10, 19, 11, 30, 0, 0, time.UTC) }
	return env
}

func ringRequest(qty int) BillRequest {
	return BillRequest{
		SessionID: "counter-1",
		Lines:     []LineRequest{{Kind: "STOCK", StockID: 1, Quantity: qty}},
	}
}

func counterValue(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	var total float64
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if want, ok := labels[lp.GetName()]; ok && want != lp.GetValue() {
					continue metrics
				}
			}
			total += m.GetCounter().GetValue()
		}
	}
	return total
}

func TestQuotePricesWithoutPersisting(t *testing.T) {
	env := newTestEnv(t)

	bill, err := env.svc.Quote(context.Background(), ringRequest(1))
	require.NoError(t, err)
	assert.True(t, dec("71500").Equal(bill.Totals.FinalAmount), bill.Totals.FinalAmount.String())
	assert.Zero(t, env.repo.txCalls)
	assert.True(t, env.mr.Exists("jewelpos:pricememo:counter-1"))
	assert.Equal(t, 1.0, counterValue(t, env.reg, "jewelpos_bills_priced_total", map[string]string{"operation": opQuote}))
}

func TestQuoteUsesMemoWhenKaratRateMissing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.svc.Quote(ctx, ringRequest(1))
	require.NoError(t, err)

	rates := testRates()
	snap := rates.snapshots["2026-10-19"]
	snap.GoldPerGram = map[int]decimal.Decimal{24: dec("6500")}
	rates.snapshots["2026-10-19"] = snap
	env.svc.rates = rates

	bill, err := env.svc.Quote(ctx, ringRequest(1))
	require.NoError(t, err)
	assert.True(t, dec("6000").Equal(bill.Lines[0].RatePerGram), bill.Lines[0].RatePerGram.String())
}

func TestQuoteSurvivesMemoOutage(t *testing.T) {
	env := newTestEnv(t)
	env.mr.Close()

	bill, err := env.svc.Quote(context.Background(), ringRequest(1))
	require.NoError(t, err)
	assert.True(t, dec("71500").Equal(bill.Totals.FinalAmount))
}

func TestQuoteRatesMissingRecordsFailure(t *testing.T) {
	env := newTestEnv(t)
	req := ringRequest(1)
	req.BillDate = "2026-10-18"

	_, err := env.svc.Quote(context.Background(), req)
	require.ErrorIs(t, err, billing.ErrRatesMissing)
	assert.Equal(t, 1.0, counterValue(t, env.reg, "jewelpos_pricing_failures_total", map[string]string{"reason": "rates_missing"}))
}

func TestCreatePersistsAndConsumesStock(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	req := CreateBillRequest{BillRequest: ringRequest(1), CustomerName: "Asha"}
	req.PaidAmount = ptr(70000)
	bill, created, err := env.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.True(t, created)

	assert.Equal(t, "JP-20261019-0001", bill.Number)
	assert.Equal(t, billDay, bill.Date)
	assert.Equal(t, StatusUdhari, bill.Status)
	assert.True(t, dec("1500").Equal(bill.Totals.Udhari()))
	assert.Equal(t, 1, env.repo.stock[1])
	assert.False(t, env.mr.Exists("jewelpos:pricememo:counter-1"), "memo cleared after save")

	stored, err := env.svc.Get(ctx, bill.ID)
	require.NoError(t, err)
	assert.Equal(t, bill.Number, stored.Number)

	second, _, err := env.svc.Create(ctx, CreateBillRequest{BillRequest: ringRequest(1)})
	require.NoError(t, err)
	assert.Equal(t, "JP-20261019-0002", second.Number)
	assert.Equal(t, StatusPaid, second.Status)
	assert.Equal(t, 0, env.repo.stock[1])
}

func TestCreateRetriesDuplicateNumber(t *testing.T) {
	env := newTestEnv(t)
	env.repo.duplicates = 1

	bill, _, err := env.svc.Create(context.Background(), CreateBillRequest{BillRequest: ringRequest(1)})
	require.NoError(t, err)
	assert.Equal(t, 2, env.repo.txCalls)
	assert.Equal(t, "JP-20261019-0002", bill.Number)
	assert.Equal(t, 1, env.repo.stock[1], "failed attempt rolled back")
}

func TestCreateGivesUpAfterRepeatedDuplicates(t *testing.T) {
	env := newTestEnv(t)
	env.repo.duplicates = maxSaveAttempts

	_, _, err := env.svc.Create(context.Background(), CreateBillRequest{BillRequest: ringRequest(1)})
	require.ErrorIs(t, err, ErrDuplicateNumber)
	assert.Equal(t, maxSaveAttempts, env.repo.txCalls)
	assert.Equal(t, 2, env.repo.stock[1])
}

func TestCreateRejectsStockSoldSincePricing(t *testing.T) {
	env := newTestEnv(t)
	env.repo.stock[1] = 0

	_, _, err := env.svc.Create(context.Background(), CreateBillRequest{BillRequest: ringRequest(1)})
	var insufficient *billing.InsufficientStockError
	require.ErrorAs(t, err, &insufficient)
	assert.Equal(t, 0, insufficient.Available)
	assert.Equal(t, 1, env.repo.txCalls)
}

func TestCreateRejectsOverQuantityBeforeSaving(t *testing.T) {
	env := newTestEnv(t)

	_, _, err := env.svc.Create(context.Background(), CreateBillRequest{BillRequest: ringRequest(3)})
	require.ErrorIs(t, err, billing.ErrInsufficientStock)
	assert.Zero(t, env.repo.txCalls)
}

func TestCreateReplaysIdempotencyKey(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	req := CreateBillRequest{BillRequest: ringRequest(1), IdempotencyKey: "till-7-0042"}

	first, created, err := env.svc.Create(ctx, req)
	require.NoError(t, err)
	require.True(t, created)

	again, created, err := env.svc.Create(ctx, req)
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, first.ID, again.ID)
	assert.Equal(t, 1, env.repo.txCalls)
	assert.Equal(t, 1, env.repo.stock[1], "stock consumed once")
}

func TestCreateReturnsWinnerOfIdempotencyRace(t *testing.T) {
	env := newTestEnv(t)
	winner := Bill{ID: uuid.New(), Number: "JP-20261019-0001", Date: billDay, Status: StatusPaid}
	env.repo.keyRace = &winner

	bill, created, err := env.svc.Create(context.Background(), CreateBillRequest{BillRequest: ringRequest(1), IdempotencyKey: "k1"})
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, winner.ID, bill.ID)
	assert.Equal(t, 2, env.repo.stock[1], "losing attempt rolled back")
}

func TestListFiltersAndPages(t *testing.T) {
	env := newTestEnv(t)
	env.repo.stock[1] = 10
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		req := CreateBillRequest{BillRequest: ringRequest(1)}
		if i == 0 {
			req.PaidAmount = ptr(50000)
		}
		_, _, err := env.svc.Create(ctx, req)
		require.NoError(t, err)
	}

	page, err := env.svc.List(ctx, ListFilter{Date: time.Date(2026, 10, 19, 15, 0, 0, 0, time.UTC), PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.TotalPages)
	assert.Equal(t, "JP-20261019-0003", page.Items[0].Number)

	page, err = env.svc.List(ctx, ListFilter{Status: StatusUdhari})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.True(t, dec("21500").Equal(page.Items[0].RemainingAmount))

	_, err = env.svc.List(ctx, ListFilter{Status: "VOID"})
	require.ErrorIs(t, err, httpx.ErrValidation)
}

func TestInvoiceRendersBothKinds(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	bill, _, err := env.svc.Create(ctx, CreateBillRequest{BillRequest: ringRequest(1), CustomerName: "Asha"})
	require.NoError(t, err)

	doc, err := env.svc.Invoice(ctx, bill.ID, InvoiceNormal)
	require.NoError(t, err)
	require.NotNil(t, doc.Estimate)
	assert.Nil(t, doc.TaxInvoice)
	assert.Equal(t, "Shree Jewellers", doc.Estimate.Header.ShopName)
	assert.Equal(t, bill.Number, doc.Estimate.Header.BillNumber)

	doc, err = env.svc.Invoice(ctx, bill.ID, InvoiceGST)
	require.NoError(t, err)
	require.NotNil(t, doc.TaxInvoice)
	assert.Equal(t, "27ABCDE1234F1Z5", doc.TaxInvoice.Header.GSTIN)
	assert.True(t, dec("71500").Equal(doc.TaxInvoice.Tax.Taxable), doc.TaxInvoice.Tax.Taxable.String())

	_, err = env.svc.Invoice(ctx, bill.ID, InvoiceKind("pdf"))
	require.ErrorIs(t, err, ErrUnknownInvoiceKind)
}

func TestInvoiceUnknownBill(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.svc.Invoice(context.Background(), uuid.New(), InvoiceNormal)
	require.ErrorIs(t, err, ErrBillNotFound)
}

func TestBillNumberAndKindParsing(t *testing.T) {
	assert.Equal(t, "JP-20261019-0042", BillNumber(billDay, 42))

	kind, err := ParseInvoiceKind("")
	require.NoError(t, err)
	assert.Equal(t, InvoiceNormal, kind)

	kind, err = ParseInvoiceKind("gst")
	require.NoError(t, err)
	assert.Equal(t, InvoiceGST, kind)

	_, err = ParseInvoiceKind("GST")
	require.ErrorIs(t, err, ErrUnknownInvoiceKind)
}
