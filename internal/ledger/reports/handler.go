package reports

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/forecourt-hq/forecourt/internal/platform/httpx"
)

// Handler exposes the report views over HTTP. All endpoints are read-only.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers reporting routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/reports/trial-balance", h.trialBalance)
	r.Get("/reports/balance-sheet", h.balanceSheet)
	r.Get("/reports/profit-loss", h.profitAndLoss)
	r.Get("/reports/ledger/{accountID}", h.ledger)
}

func (h *Handler) trialBalance(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	tb, err := h.service.TrialBalance(r.Context(), rng)
	if err != nil {
		h.logger.Error("trial balance failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewTrialBalanceView(tb))
}

func (h *Handler) balanceSheet(w http.ResponseWriter, r *http.Request) {
	bs, err := h.service.BalanceSheet(r.Context())
	if err != nil {
		h.logger.Error("balance sheet failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewBalanceSheetView(bs))
}

func (h *Handler) profitAndLoss(w http.ResponseWriter, r *http.Request) {
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	pl, err := h.service.ProfitAndLoss(r.Context(), rng)
	if err != nil {
		h.logger.Error("profit and loss failed", "error", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewProfitAndLossView(pl))
}

func (h *Handler) ledger(w http.ResponseWriter, r *http.Request) {
	accountID, err := strconv.ParseInt(chi.URLParam(r, "accountID"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid account id")
		return
	}
	rng, ok := parseRange(w, r)
	if !ok {
		return
	}
	ledger, err := h.service.Ledger(r.Context(), accountID, rng)
	if err != nil {
		h.logger.Error("account ledger failed", "error", err, "account_id", accountID)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, NewAccountLedgerView(ledger))
}

// parseRange reads optional from/to query params as YYYY-MM-DD dates. The to
// bound is stretched to the end of its day so the named date is included.
func parseRange(w http.ResponseWriter, r *http.Request) (Range, bool) {
	var rng Range
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "from must be YYYY-MM-DD")
			return Range{}, false
		}
		rng.From = &parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "to must be YYYY-MM-DD")
			return Range{}, false
		}
		end := parsed.Add(24*time.Hour - time.Nanosecond)
		rng.To = &end
	}
	return rng, true
}
