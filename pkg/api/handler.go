package api

import (
	"log/slog"
	"net/http"

	"github.com/dmitrymomot/sheetpool/pkg/coordinator"
	"github.com/dmitrymomot/sheetpool/pkg/logger"
)

// HandlerFunc serves a request whose body was bound into req.
type HandlerFunc[R any] func(r *http.Request, req R) Response

type bindFunc func(r *http.Request, v any) error

// wrap binds the request, runs h and renders its Response. Internal failures
// are logged with their cause; clients only see the reason.
func wrap[R any](log *slog.Logger, bind bindFunc, h HandlerFunc[R]) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req R
		var resp Response
		if err := bind(r, &req); err != nil {
			resp = Error(err)
		} else {
			resp = h(r, req)
		}

		if e, ok := resp.(errorResponse); ok {
			logFailure(log, r, e.err)
		}
		if err := resp.Render(w, r); err != nil {
			log.DebugContext(r.Context(), "response not written", logger.Error(err))
		}
	}
}

func logFailure(log *slog.Logger, r *http.Request, err error) {
	status, _ := statusOf(err)
	attrs := []any{
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("kind", coordinator.KindOf(err).String()),
		logger.Error(err),
	}
	if status >= http.StatusInternalServerError {
		log.ErrorContext(r.Context(), "request failed", attrs...)
		return
	}
	log.DebugContext(r.Context(), "request rejected", attrs...)
}
