package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/sheetpool/pkg/clientip"
	"github.com/dmitrymomot/sheetpool/pkg/coordinator"
	"github.com/dmitrymomot/sheetpool/pkg/httpserver"
	"github.com/dmitrymomot/sheetpool/pkg/logger"
	"github.com/dmitrymomot/sheetpool/pkg/requestid"
	"github.com/dmitrymomot/sheetpool/pkg/session"
	"github.com/dmitrymomot/sheetpool/pkg/value"
)

// Service is the coordinator as used by the handlers.
type Service interface {
	Login(ctx context.Context, clientKey, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
	LoadWorkbook(ctx context.Context, token, owner, name string, version int) (int, error)
	Query(ctx context.Context, token, sheet, addr string) (value.Value, error)
	Set(ctx context.Context, token, sheet, addr string, payload value.Payload) error
	Sheets(ctx context.Context, token, owner, name string) ([]string, error)
	Close(ctx context.Context, token string, restart bool) error
	PoolStatus(ctx context.Context, token string) (coordinator.PoolStatus, error)
	ListApps(ctx context.Context, token string) ([]coordinator.AppView, error)
	CreateApp(ctx context.Context, token string, in coordinator.CreateAppInput) (int, error)
	UpdateApp(ctx context.Context, token, name string, in coordinator.UpdateAppInput) (int, error)
	PublishVersion(ctx context.Context, token string, in coordinator.PublishInput) (int, error)
	DeleteApp(ctx context.Context, token, name string) error
	GetUI(ctx context.Context, token, owner, name string) (coordinator.UIView, error)
	SaveUI(ctx context.Context, token, owner, name, schema string) error
	ListUsers(ctx context.Context, token string) ([]coordinator.UserView, error)
	UpsertUser(ctx context.Context, token string, in coordinator.UpsertUserInput) error
}

// New returns the HTTP handler of the service.
func New(svc Service, opts ...Option) http.Handler {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	log := o.logger
	if log == nil {
		log = logger.Discard()
	}
	log = log.With(logger.Component("api"))
	h := &handlers{svc: svc}

	r := chi.NewRouter()
	r.Use(
		requestid.Middleware,
		clientip.Middleware(o.trustProxy),
		middleware.Recoverer,
		cors(o.allowOrigin),
		accessLog(log),
	)
	if o.registerer != nil {
		r.Use(newHTTPMetrics(o.registerer).middleware)
	}

	r.Get("/health", httpserver.LivenessHandler())
	r.Get("/ready", httpserver.ReadinessHandler(log, o.checks...))
	if o.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(o.gatherer, promhttp.HandlerOpts{}))
	}

	r.Group(func(r chi.Router) {
		r.Use(
			middleware.ThrottleWithOpts(middleware.ThrottleOpts{
				Limit:          o.maxInFlight,
				BacklogLimit:   o.backlog,
				BacklogTimeout: o.backlogTimeout,
			}),
			middleware.Timeout(o.requestTimeout),
			limitBody(o.maxBodyBytes),
			session.Middleware,
		)

		r.Post("/login", wrap(log, bindJSON, h.login))
		r.Post("/logout", wrap(log, noBody, h.logout))

		r.Route("/excel", func(r chi.Router) {
			r.Post("/load", wrap(log, bindJSON, h.load))
			r.Post("/query", wrap(log, bindJSON, h.query))
			r.Post("/set", wrap(log, bindJSON, h.set))
			r.Post("/sheets", wrap(log, bindJSON, h.sheets))
			r.Post("/close", wrap(log, bindJSON, h.close))
			r.Get("/status", wrap(log, noBody, h.status))
		})

		r.Route("/apps", func(r chi.Router) {
			r.Get("/", wrap(log, noBody, h.listApps))
			r.Post("/", wrap(log, bindJSON, h.createApp))
			r.Post("/version", wrap(log, bindJSON, h.publish))
			r.Post("/ui/get", wrap(log, bindJSON, h.getUI))
			r.Post("/ui/save", wrap(log, bindJSON, h.saveUI))
			r.Put("/{name}", wrap(log, bindJSON, h.updateApp))
			r.Delete("/{name}", wrap(log, noBody, h.deleteApp))
		})

		r.Get("/users", wrap(log, noBody, h.listUsers))
		r.Post("/users", wrap(log, bindJSON, h.upsertUser))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = jsonResponse{status: http.StatusNotFound, body: map[string]string{"error": "not found"}}.Render(w, r)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = jsonResponse{status: http.StatusNotFound, body: map[string]string{"error": "not found"}}.Render(w, r)
	})
	return r
}
