// Package httpx provides HTTP response utilities following RFC7807 problem details.
package httpx

import (
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// ProblemDetail represents RFC7807 problem details.
type ProblemDetail struct {
	Type   string `json:"type,omitempty"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

// JSON sends a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// Problem sends an RFC7807 problem details response.
func Problem(w http.ResponseWriter, status int, title, detail string) {
	JSON(w, status, ProblemDetail{
		Title:  title,
		Status: status,
		Detail: detail,
	})
}

// DecodeJSON decodes the request body into target and runs struct validation.
// A decode or validation failure is reported to the client; the caller only
// proceeds on a nil return.
func DecodeJSON(w http.ResponseWriter, r *http.Request, target any) error {
	if err := json.NewDecoder(r.Body).Decode(target); err != nil {
		Problem(w, http.StatusBadRequest, "Malformed Body", err.Error())
		return err
	}
	if err := validate.Struct(target); err != nil {
		Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return err
	}
	return nil
}
