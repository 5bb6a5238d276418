package httpx

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/forecourt-hq/forecourt/internal/ledger/shared"
)

func TestRespondErrorStatusMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"unknown account", &shared.UnknownAccountError{Code: "99999"}, http.StatusNotFound},
		{"transaction missing", shared.ErrTransactionNotFound, http.StatusNotFound},
		{"supplier missing", shared.ErrSupplierNotFound, http.StatusNotFound},
		{"duplicate code", shared.ErrDuplicateCode, http.StatusConflict},
		{"duplicate posting", shared.ErrDuplicatePosting, http.StatusConflict},
		{"account in use", shared.ErrAccountInUse, http.StatusConflict},
		{"overpayment", &shared.ExceedsOutstandingBalanceError{
			SupplierID:  1,
			Outstanding: decimal.NewFromInt(100),
			Requested:   decimal.NewFromInt(150),
		}, http.StatusUnprocessableEntity},
		{"bad amount", shared.ErrInvalidAmount, http.StatusBadRequest},
		{"same account", shared.ErrSameAccount, http.StatusBadRequest},
		{"bad code", shared.ErrInvalidCode, http.StatusBadRequest},
		{"anything else", errors.New("pg connection refused"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			RespondError(rec, tc.err)
			require.Equal(t, tc.status, rec.Code)

			var problem ProblemDetail
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			require.Equal(t, tc.status, problem.Status)
		})
	}
}

func TestRespondErrorHidesInternalDetail(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondError(rec, errors.New("dial tcp 10.0.0.3:5432: connect refused"))

	var problem ProblemDetail
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	require.Empty(t, problem.Detail)
	require.NotContains(t, rec.Body.String(), "10.0.0.3")
}

func TestDecodeJSONValidates(t *testing.T) {
	type payload struct {
		Code string `json:"code" validate:"required,len=5,numeric"`
	}

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"10101"}`))
	var p payload
	require.NoError(t, DecodeJSON(rec, req, &p))
	require.Equal(t, "10101", p.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"code":"1x1"}`))
	require.Error(t, DecodeJSON(rec, req, &p))
	require.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{`))
	require.Error(t, DecodeJSON(rec, req, &p))
	require.Equal(t, http.StatusBadRequest, rec.Code)
}
