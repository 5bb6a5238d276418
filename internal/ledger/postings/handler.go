package postings

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/platform/httpx"
)

// Handler exposes the posting engine over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers posting routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/transactions", h.list)
	r.Get("/transactions/{id}", h.show)
	r.Post("/transactions", h.post)
	r.Post("/transactions/{id}/reverse", h.reverse)
}

type postRequest struct {
	DebitCode        string `json:"debit_code" validate:"required,len=5,numeric"`
	CreditCode       string `json:"credit_code" validate:"required,len=5,numeric"`
	Amount           string `json:"amount" validate:"required"`
	Description      string `json:"description" validate:"max=255"`
	ShiftID          *int64 `json:"shift_id,omitempty"`
	SupplierID       *int64 `json:"supplier_id,omitempty"`
	PaymentAccountID *int64 `json:"payment_account_id,omitempty"`
	Ref              string `json:"ref,omitempty" validate:"omitempty,uuid4"`
	IdempotencyKey   string `json:"idempotency_key,omitempty" validate:"max=64"`
}

type reverseRequest struct {
	Reason string `json:"reason" validate:"max=255"`
}

type transactionResponse struct {
	ID               int64  `json:"id"`
	Ref              string `json:"ref"`
	DebitAccountID   int64  `json:"debit_account_id"`
	CreditAccountID  int64  `json:"credit_account_id"`
	Amount           string `json:"amount"`
	Description      string `json:"description,omitempty"`
	ShiftID          *int64 `json:"shift_id,omitempty"`
	SupplierID       *int64 `json:"supplier_id,omitempty"`
	PaymentAccountID *int64 `json:"payment_account_id,omitempty"`
	CreatedAt        string `json:"created_at"`
}

func toTransactionResponse(t Transaction) transactionResponse {
	return transactionResponse{
		ID:               t.ID,
		Ref:              t.Ref.String(),
		DebitAccountID:   t.DebitAccountID,
		CreditAccountID:  t.CreditAccountID,
		Amount:           t.Amount.StringFixed(2),
		Description:      t.Description,
		ShiftID:          t.ShiftID,
		SupplierID:       t.SupplierID,
		PaymentAccountID: t.PaymentAccountID,
		CreatedAt:        t.CreatedAt.Format(time.RFC3339),
	}
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	filter := Filter{Limit: 100}
	q := r.URL.Query()
	if v := q.Get("account_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account_id")
			return
		}
		filter.AccountID = id
	}
	if v := q.Get("from"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			filter.From = &parsed
		}
	}
	if v := q.Get("to"); v != "" {
		if parsed, err := time.Parse("2006-01-02", v); err == nil {
			filter.To = &parsed
		}
	}
	if v := q.Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 1000 {
			filter.Limit = parsed
		}
	}
	entries, err := h.service.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("list transactions failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	out := make([]transactionResponse, 0, len(entries))
	for _, t := range entries {
		out = append(out, toTransactionResponse(t))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"transactions": out})
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	entry, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toTransactionResponse(entry))
}

func (h *Handler) post(w http.ResponseWriter, r *http.Request) {
	var req postRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount is not a valid number")
		return
	}
	input := PostingInput{
		DebitCode:        req.DebitCode,
		CreditCode:       req.CreditCode,
		Amount:           amount,
		Description:      req.Description,
		ShiftID:          req.ShiftID,
		SupplierID:       req.SupplierID,
		PaymentAccountID: req.PaymentAccountID,
		IdempotencyKey:   req.IdempotencyKey,
	}
	if req.Ref != "" {
		input.Ref, err = uuid.Parse(req.Ref)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "ref is not a valid uuid")
			return
		}
	}
	entry, err := h.service.Post(r.Context(), input)
	if err != nil {
		h.logger.Error("post transaction failed", "error", err,
			"debit", req.DebitCode, "credit", req.CreditCode)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toTransactionResponse(entry))
}

func (h *Handler) reverse(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid transaction id")
		return
	}
	var req reverseRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return
	}
	if err := h.service.Reverse(r.Context(), ReverseInput{TransactionID: id, Reason: req.Reason}); err != nil {
		h.logger.Error("reverse transaction failed", "error", err, "id", id)
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
