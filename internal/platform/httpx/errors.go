package httpx

import (
	"errors"
	"net/http"

	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
)

// RespondError maps ledger domain errors to RFC7807 responses. Unknown errors
// collapse to a bare 500 so internals never leak to clients.
func RespondError(w http.ResponseWriter, err error) {
	var exceeds *shared.ExceedsOutstandingBalanceError
	switch {
	case errors.Is(err, shared.ErrUnknownAccount),
		errors.Is(err, shared.ErrTransactionNotFound),
		errors.Is(err, shared.ErrSupplierNotFound),
		errors.Is(err, shared.ErrPurchaseNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrDuplicateCode),
		errors.Is(err, shared.ErrDuplicatePosting):
		Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, shared.ErrAccountInUse):
		Problem(w, http.StatusConflict, "Account In Use", err.Error())
	case errors.As(err, &exceeds):
		Problem(w, http.StatusUnprocessableEntity, "Exceeds Outstanding Balance", err.Error())
	case errors.Is(err, shared.ErrInvalidAmount),
		errors.Is(err, shared.ErrSameAccount),
		errors.Is(err, shared.ErrInvalidCode):
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
