package rates

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	"github.com/Ayushchauha111/jewelpos/internal/platform/httpx"
)

var rateProblems = []httpx.ProblemKind{
	{Err: billing.ErrRatesMissing, Status: http.StatusConflict, Title: "Rates Missing", Code: "rates_missing"},
	{Err: ErrInvalidSnapshot, Status: http.StatusUnprocessableEntity, Title: "Invalid Snapshot", Code: "invalid_snapshot"},
}

// RateService is the subset of Service the HTTP layer needs.
type RateService interface {
	Resolve(ctx context.Context, date time.Time) (billing.RateSnapshot, error)
	Save(ctx context.Context, snap billing.RateSnapshot) (billing.RateSnapshot, error)
}

// GoldRateRequest is one karat bucket of a snapshot write.
type GoldRateRequest struct {
	Karat   int     `json:"karat" validate:"oneof=10 12 14 18 20 21 22 24"`
	PerGram float64 `json:"per_gram" validate:"gt=0"`
}

// SnapshotRequest is the body of PUT /rates/{date}.
type SnapshotRequest struct {
	Gold                 []GoldRateRequest `json:"gold" validate:"required,min=1,unique=Karat,dive"`
	SilverPerGram        float64           `json:"silver_per_gram" validate:"gte=0"`
	DiamondPerCarat      float64           `json:"diamond_per_carat" validate:"gte=0"`
	DefaultMakingPerGram float64           `json:"default_making_per_gram" validate:"gte=0"`
}

func (req SnapshotRequest) snapshot(date time.Time) billing.RateSnapshot {
	gold := make(map[int]decimal.Decimal, len(req.Gold))
	for _, g := range req.Gold {
		gold[g.Karat] = decimal.NewFromFloat(g.PerGram)
	}
	return billing.RateSnapshot{
		Date:                 date,
		GoldPerGram:          gold,
		SilverPerGram:        decimal.NewFromFloat(req.SilverPerGram),
		DiamondPerCarat:      decimal.NewFromFloat(req.DiamondPerCarat),
		DefaultMakingPerGram: decimal.NewFromFloat(req.DefaultMakingPerGram),
	}
}

// Handler exposes the daily rate snapshot over HTTP.
type Handler struct {
	svc    RateService
	logger *slog.Logger
	now    func() time.Time
}

// NewHandler constructs the rates handler.
func NewHandler(svc RateService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger, now: time.Now}
}

// MountRoutes attaches rate routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/{date}", h.get)
	r.Put("/{date}", h.put)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(chi.URLParam(r, "date"))
	if err != nil {
		httpx.RespondErrorWith(w, err, rateProblems)
		return
	}
	snap, err := h.svc.Resolve(r.Context(), date)
	if err != nil {
		httpx.RespondErrorWith(w, err, rateProblems)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) put(w http.ResponseWriter, r *http.Request) {
	date, err := h.parseDate(chi.URLParam(r, "date"))
	if err != nil {
		httpx.RespondErrorWith(w, err, rateProblems)
		return
	}
	var req SnapshotRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		httpx.RespondErrorWith(w, err, rateProblems)
		return
	}
	snap, err := h.svc.Save(r.Context(), req.snapshot(date))
	if err != nil {
		if !errors.Is(err, ErrInvalidSnapshot) {
			h.logger.Error("save rates", slog.Any("error", err))
		}
		httpx.RespondErrorWith(w, err, rateProblems)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

// parseDate accepts YYYY-MM-DD or "today".
func (h *Handler) parseDate(raw string) (time.Time, error) {
	if raw == "today" {
		return DateOf(h.now()), nil
	}
	date, err := time.Parse(time.DateOnly, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date must be YYYY-MM-DD", httpx.ErrValidation)
	}
	return date, nil
}
