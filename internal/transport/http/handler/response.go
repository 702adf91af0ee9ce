package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/shefaa-icu/internal/domain"
	"github.com/shefaa-icu/internal/pkg/validate"
)

// Envelope is the wrapper of every JSON response.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeData(w http.ResponseWriter, status int, msg string, data any) {
	writeJSON(w, status, Envelope{Success: true, Message: msg, Data: data})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, Envelope{Success: false, Message: msg})
}

var errorStatus = []struct {
	err    error
	status int
}{
	{domain.ErrBadRequest, http.StatusBadRequest},
	{domain.ErrUnauthorized, http.StatusUnauthorized},
	{domain.ErrForbidden, http.StatusForbidden},
	{domain.ErrNotFound, http.StatusNotFound},
	{domain.ErrConflict, http.StatusConflict},
	{domain.ErrTooManyRequests, http.StatusTooManyRequests},
	{domain.ErrUnavailable, http.StatusServiceUnavailable},
}

// httpError maps a service error to its status. Unknown errors are logged and
// reported as a generic 500 so infrastructure details never reach the client.
func httpError(w http.ResponseWriter, err error) {
	for _, m := range errorStatus {
		if errors.Is(err, m.err) {
			writeError(w, m.status, strings.TrimSuffix(err.Error(), ": "+m.err.Error()))
			return
		}
	}
	slog.Error("unhandled error", "err", err)
	writeError(w, http.StatusInternalServerError, "Error: internal error")
}

// decode reads a JSON body into dst and validates it, writing the failure
// response itself. It reports whether the handler should continue.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	if err := validate.Struct(dst); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return false
	}
	return true
}

func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}
