package ap

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/forecourt-hq/forecourt/internal/platform/httpx"
)

// Handler exposes suppliers, purchases and settlements over HTTP.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers accounts-payable routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/suppliers", h.listSuppliers)
	r.Post("/suppliers", h.createSupplier)
	r.Get("/suppliers/{id}", h.showSupplier)
	r.Get("/suppliers/{id}/purchases", h.listPurchases)
	r.Post("/suppliers/{id}/purchases", h.recordPurchase)
	r.Post("/suppliers/{id}/payments", h.paySupplier)
	r.Get("/suppliers/aging", h.aging)
	r.Get("/purchases/{id}", h.showPurchase)
}

type createSupplierRequest struct {
	Name  string `json:"name" validate:"required,max=120"`
	Phone string `json:"phone" validate:"omitempty,max=20"`
}

type recordPurchaseRequest struct {
	TotalCost string `json:"total_cost" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Note      string `json:"note" validate:"max=255"`
}

type paySupplierRequest struct {
	Amount           string `json:"amount" validate:"required"`
	Method           string `json:"method" validate:"omitempty,oneof=CASH BANK TRANSFER CARD CHEQUE"`
	PaymentAccountID *int64 `json:"payment_account_id,omitempty"`
	Note             string `json:"note" validate:"max=255"`
	IdempotencyKey   string `json:"idempotency_key,omitempty" validate:"max=64"`
}

type supplierResponse struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Phone   string `json:"phone,omitempty"`
	Balance string `json:"balance"`
}

type purchaseResponse struct {
	ID         int64  `json:"id"`
	SupplierID int64  `json:"supplier_id"`
	TotalCost  string `json:"total_cost"`
	PaidAmount string `json:"paid_amount"`
	Status     string `json:"status"`
	Date       string `json:"date"`
	Note       string `json:"note,omitempty"`
}

type allocationResponse struct {
	PurchaseID int64  `json:"purchase_id"`
	Amount     string `json:"amount"`
	Status     string `json:"status"`
}

type settlementResponse struct {
	TransactionID int64                `json:"transaction_id"`
	SupplierID    int64                `json:"supplier_id"`
	Amount        string               `json:"amount"`
	Allocations   []allocationResponse `json:"allocations"`
	Unallocated   string               `json:"unallocated"`
}

func toSupplierResponse(s Supplier) supplierResponse {
	return supplierResponse{
		ID:      s.ID,
		Name:    s.Name,
		Phone:   s.Phone,
		Balance: s.Balance.StringFixed(2),
	}
}

func toPurchaseResponse(p Purchase) purchaseResponse {
	return purchaseResponse{
		ID:         p.ID,
		SupplierID: p.SupplierID,
		TotalCost:  p.TotalCost.StringFixed(2),
		PaidAmount: p.PaidAmount.StringFixed(2),
		Status:     string(p.Status),
		Date:       p.Date.Format("2006-01-02"),
		Note:       p.Note,
	}
}

func (h *Handler) listSuppliers(w http.ResponseWriter, r *http.Request) {
	suppliers, err := h.service.ListSuppliers(r.Context())
	if err != nil {
		h.logger.Error("list suppliers failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	out := make([]supplierResponse, 0, len(suppliers))
	for _, s := range suppliers {
		out = append(out, toSupplierResponse(s))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"suppliers": out})
}

func (h *Handler) showSupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.supplierID(w, r)
	if !ok {
		return
	}
	supplier, err := h.service.GetSupplier(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toSupplierResponse(supplier))
}

func (h *Handler) createSupplier(w http.ResponseWriter, r *http.Request) {
	var req createSupplierRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return
	}
	supplier, err := h.service.CreateSupplier(r.Context(), req.Name, req.Phone)
	if err != nil {
		h.logger.Error("create supplier failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toSupplierResponse(supplier))
}

func (h *Handler) listPurchases(w http.ResponseWriter, r *http.Request) {
	id, ok := h.supplierID(w, r)
	if !ok {
		return
	}
	purchases, err := h.service.ListPurchases(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	out := make([]purchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, toPurchaseResponse(p))
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"purchases": out})
}

func (h *Handler) showPurchase(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid purchase id")
		return
	}
	purchase, err := h.service.GetPurchase(r.Context(), id)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, toPurchaseResponse(purchase))
}

func (h *Handler) recordPurchase(w http.ResponseWriter, r *http.Request) {
	id, ok := h.supplierID(w, r)
	if !ok {
		return
	}
	var req recordPurchaseRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return
	}
	total, err := decimal.NewFromString(req.TotalCost)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "total_cost is not a valid amount")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "date must be YYYY-MM-DD")
		return
	}
	purchase, err := h.service.RecordPurchase(r.Context(), RecordPurchaseInput{
		SupplierID: id,
		TotalCost:  total,
		Date:       date,
		Note:       req.Note,
	})
	if err != nil {
		h.logger.Error("record purchase failed", "error", err, "supplier_id", id)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, toPurchaseResponse(purchase))
}

func (h *Handler) paySupplier(w http.ResponseWriter, r *http.Request) {
	id, ok := h.supplierID(w, r)
	if !ok {
		return
	}
	var req paySupplierRequest
	if err := httpx.DecodeJSON(w, r, &req); err != nil {
		return
	}
	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "amount is not a valid number")
		return
	}
	result, err := h.service.PaySupplier(r.Context(), PaySupplierInput{
		SupplierID:       id,
		Amount:           amount,
		PaymentAccountID: req.PaymentAccountID,
		Method:           req.Method,
		Note:             req.Note,
		IdempotencyKey:   req.IdempotencyKey,
	})
	if err != nil {
		h.logger.Error("pay supplier failed", "error", err, "supplier_id", id)
		httpx.RespondError(w, err)
		return
	}
	allocations := make([]allocationResponse, 0, len(result.Allocations))
	for _, a := range result.Allocations {
		allocations = append(allocations, allocationResponse{
			PurchaseID: a.PurchaseID,
			Amount:     a.Amount.StringFixed(2),
			Status:     string(a.Status),
		})
	}
	httpx.JSON(w, http.StatusCreated, settlementResponse{
		TransactionID: result.Transaction.ID,
		SupplierID:    result.SupplierID,
		Amount:        result.Amount.StringFixed(2),
		Allocations:   allocations,
		Unallocated:   result.Unallocated.StringFixed(2),
	})
}

func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	asOf := time.Now()
	if v := r.URL.Query().Get("as_of"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "as_of must be YYYY-MM-DD")
			return
		}
		asOf = parsed
	}
	bucket, err := h.service.Aging(r.Context(), asOf)
	if err != nil {
		h.logger.Error("aging report failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]string{
		"current":  bucket.Current.StringFixed(2),
		"1_30":     bucket.Bucket30.StringFixed(2),
		"31_60":    bucket.Bucket60.StringFixed(2),
		"61_90":    bucket.Bucket90.StringFixed(2),
		"over_90":  bucket.Bucket120.StringFixed(2),
		"as_of":    asOf.Format("2006-01-02"),
	})
}

func (h *Handler) supplierID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid supplier id")
		return 0, false
	}
	return id, true
}
