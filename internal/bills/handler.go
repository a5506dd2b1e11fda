package bills

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Ayushchauha111/jewelpos/internal/billing"
	"github.com/Ayushchauha111/jewelpos/internal/platform/httpx"
)

// IdempotencyHeader lets a client retry POST /bills without billing twice.
const IdempotencyHeader = "Idempotency-Key"

// BillService is the subset of Service the HTTP layer needs.
type BillService interface {
	Quote(ctx context.Context, req BillRequest) (billing.Bill, error)
	Create(ctx context.Context, req CreateBillRequest) (Bill, bool, error)
	Get(ctx context.Context, id uuid.UUID) (Bill, error)
	List(ctx context.Context, filter ListFilter) (BillPage, error)
	Invoice(ctx context.Context, id uuid.UUID, kind InvoiceKind) (InvoiceDocument, error)
}

// Handler exposes billing over HTTP.
type Handler struct {
	svc    BillService
	logger *slog.Logger
}

// NewHandler constructs the bills handler.
func NewHandler(svc BillService, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{svc: svc, logger: logger}
}

// MountRoutes attaches bill routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/quote", h.quote)
	r.Post("/", h.create)
	r.Get("/", h.list)
	r.Get("/{id}", h.get)
	r.Get("/{id}/invoice", h.invoice)
}

func (h *Handler) quote(w http.ResponseWriter, r *http.Request) {
	var req BillRequest
	if err := httpx.DecodeAndValidate(r, &req); err != nil {
		respondProblem(w, err)
		return
	}
	bill, err := h.svc.Quote(r.Context(), req)
	if err != nil {
		h.respondError(w, "quote bill", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req CreateBillRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		respondProblem(w, err)
		return
	}
	req.IdempotencyKey = r.Header.Get(IdempotencyHeader)
	if err := httpx.Validate(req); err != nil {
		respondProblem(w, err)
		return
	}
	bill, created, err := h.svc.Create(r.Context(), req)
	if err != nil {
		h.respondError(w, "create bill", err)
		return
	}
	if !created {
		w.Header().Set("Location", "/bills/"+bill.ID.String())
		httpx.JSON(w, http.StatusOK, bill)
		return
	}
	httpx.Created(w, "/bills/"+bill.ID.String(), bill)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	page, perPage, err := httpx.PageParams(r)
	if err != nil {
		respondProblem(w, err)
		return
	}
	filter := ListFilter{Page: page, PerPage: perPage}
	if raw := r.URL.Query().Get("date"); raw != "" {
		filter.Date, err = time.Parse(time.DateOnly, raw)
		if err != nil {
			respondProblem(w, fmt.Errorf("%w: date must be YYYY-MM-DD", httpx.ErrValidation))
			return
		}
	}
	if filter.Status, err = ParseStatus(r.URL.Query().Get("status")); err != nil {
		respondProblem(w, err)
		return
	}
	out, err := h.svc.List(r.Context(), filter)
	if err != nil {
		h.respondError(w, "list bills", err)
		return
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, err := billID(r)
	if err != nil {
		respondProblem(w, err)
		return
	}
	bill, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.respondError(w, "get bill", err)
		return
	}
	httpx.JSON(w, http.StatusOK, bill)
}

func (h *Handler) invoice(w http.ResponseWriter, r *http.Request) {
	id, err := billID(r)
	if err != nil {
		respondProblem(w, err)
		return
	}
	kind, err := ParseInvoiceKind(r.URL.Query().Get("type"))
	if err != nil {
		respondProblem(w, err)
		return
	}
	doc, err := h.svc.Invoice(r.Context(), id, kind)
	if err != nil {
		h.respondError(w, "render invoice", err)
		return
	}
	httpx.JSON(w, http.StatusOK, doc)
}

func (h *Handler) respondError(w http.ResponseWriter, op string, err error) {
	if !isBillingError(err) {
		h.logger.Error(op, slog.Any("error", err))
	}
	respondProblem(w, err)
}

func billID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bill id must be a UUID", httpx.ErrValidation)
	}
	return id, nil
}
