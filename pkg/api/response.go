package api

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"

	"github.com/dmitrymomot/sheetpool/pkg/coordinator"
)

// Response renders itself to w.
type Response interface {
	Render(w http.ResponseWriter, r *http.Request) error
}

type jsonResponse struct {
	status int
	body   any
}

// JSON renders body with status 200.
func JSON(body any) Response { return jsonResponse{status: http.StatusOK, body: body} }

func (j jsonResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(j.status)
	return json.NewEncoder(w).Encode(j.body)
}

type rawResponse []byte

// Raw renders an already encoded JSON document.
func Raw(body []byte) Response { return rawResponse(body) }

func (b rawResponse) Render(w http.ResponseWriter, r *http.Request) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, err := w.Write(b)
	return err
}

type errorResponse struct{ err error }

// Error renders err as {"error":reason}.
func Error(err error) Response { return errorResponse{err: err} }

func (e errorResponse) Render(w http.ResponseWriter, r *http.Request) error {
	status, reason := statusOf(e.err)
	var cerr *coordinator.Error
	if errors.As(e.err, &cerr) && cerr.RetryAfter > 0 {
		w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(cerr.RetryAfter.Seconds()))))
	}
	return jsonResponse{status: status, body: map[string]string{"error": reason}}.Render(w, r)
}

// Status renders {"status":s}.
func Status(s string) Response { return JSON(map[string]string{"status": s}) }
