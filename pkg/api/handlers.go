package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/sheetpool/pkg/clientip"
	"github.com/dmitrymomot/sheetpool/pkg/coordinator"
	"github.com/dmitrymomot/sheetpool/pkg/session"
	"github.com/dmitrymomot/sheetpool/pkg/value"
)

type handlers struct {
	svc Service
}

func token(r *http.Request) string { return session.TokenFromContext(r.Context()) }

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *handlers) login(r *http.Request, req loginRequest) Response {
	tok, err := h.svc.Login(r.Context(), clientip.FromContext(r.Context()), req.Username, req.Password)
	if err != nil {
		return Error(err)
	}
	return JSON(map[string]string{"token": tok})
}

func (h *handlers) logout(r *http.Request, _ struct{}) Response {
	if err := h.svc.Logout(r.Context(), token(r)); err != nil {
		return Error(err)
	}
	return Status("ok")
}

type appRef struct {
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

type loadRequest struct {
	appRef
	Version int `json:"version"`
}

func (h *handlers) load(r *http.Request, req loadRequest) Response {
	version, err := h.svc.LoadWorkbook(r.Context(), token(r), req.Owner, req.Name, req.Version)
	if err != nil {
		return Error(err)
	}
	return JSON(map[string]any{"status": "loaded", "version": version})
}

type rangeRequest struct {
	Sheet string `json:"sheet"`
	Range string `json:"range"`
}

func (h *handlers) query(r *http.Request, req rangeRequest) Response {
	v, err := h.svc.Query(r.Context(), token(r), req.Sheet, req.Range)
	if err != nil {
		return Error(err)
	}
	return Raw([]byte(`{"value":` + value.Encode(v) + "}\n"))
}

type setRequest struct {
	rangeRequest
	value.Payload
}

func (h *handlers) set(r *http.Request, req setRequest) Response {
	if err := h.svc.Set(r.Context(), token(r), req.Sheet, req.Range, req.Payload); err != nil {
		return Error(err)
	}
	return Status("updated")
}

func (h *handlers) sheets(r *http.Request, req appRef) Response {
	names, err := h.svc.Sheets(r.Context(), token(r), req.Owner, req.Name)
	if err != nil {
		return Error(err)
	}
	return JSON(map[string][]string{"sheets": names})
}

type closeRequest struct {
	Restart *bool `json:"restart"`
}

func (h *handlers) close(r *http.Request, req closeRequest) Response {
	restart := req.Restart == nil || *req.Restart
	if err := h.svc.Close(r.Context(), token(r), restart); err != nil {
		return Error(err)
	}
	outcome := "released"
	if restart {
		outcome = "restarted"
	}
	return JSON(map[string]string{"status": "closed", "session": outcome})
}

func (h *handlers) status(r *http.Request, _ struct{}) Response {
	st, err := h.svc.PoolStatus(r.Context(), token(r))
	if err != nil {
		return Error(err)
	}
	return JSON(st)
}

func (h *handlers) listApps(r *http.Request, _ struct{}) Response {
	apps, err := h.svc.ListApps(r.Context(), token(r))
	if err != nil {
		return Error(err)
	}
	return JSON(apps)
}

func (h *handlers) createApp(r *http.Request, req coordinator.CreateAppInput) Response {
	version, err := h.svc.CreateApp(r.Context(), token(r), req)
	if err != nil {
		return Error(err)
	}
	return JSON(map[string]any{"status": "created", "version": version})
}

func (h *handlers) updateApp(r *http.Request, req coordinator.UpdateAppInput) Response {
	version, err := h.svc.UpdateApp(r.Context(), token(r), chi.URLParam(r, "name"), req)
	if err != nil {
		return Error(err)
	}
	return JSON(map[string]any{"status": "updated", "version": version})
}

func (h *handlers) publish(r *http.Request, req coordinator.PublishInput) Response {
	version, err := h.svc.PublishVersion(r.Context(), token(r), req)
	if err != nil {
		return Error(err)
	}
	return JSON(map[string]any{"status": "version_created", "version": version})
}

func (h *handlers) deleteApp(r *http.Request, _ struct{}) Response {
	if err := h.svc.DeleteApp(r.Context(), token(r), chi.URLParam(r, "name")); err != nil {
		return Error(err)
	}
	return Status("deleted")
}

func (h *handlers) getUI(r *http.Request, req appRef) Response {
	view, err := h.svc.GetUI(r.Context(), token(r), req.Owner, req.Name)
	if err != nil {
		return Error(err)
	}
	return JSON(uiResponse{Owner: view.Owner, Name: view.Name, Schema: json.RawMessage(view.Schema)})
}

type uiResponse struct {
	Owner  string          `json:"owner"`
	Name   string          `json:"name"`
	Schema json.RawMessage `json:"schema"`
}

type saveUIRequest struct {
	appRef
	SchemaJSON string `json:"schema_json"`
}

func (h *handlers) saveUI(r *http.Request, req saveUIRequest) Response {
	if err := h.svc.SaveUI(r.Context(), token(r), req.Owner, req.Name, req.SchemaJSON); err != nil {
		return Error(err)
	}
	return Status("saved")
}

func (h *handlers) listUsers(r *http.Request, _ struct{}) Response {
	users, err := h.svc.ListUsers(r.Context(), token(r))
	if err != nil {
		return Error(err)
	}
	return JSON(users)
}

func (h *handlers) upsertUser(r *http.Request, req coordinator.UpsertUserInput) Response {
	if err := h.svc.UpsertUser(r.Context(), token(r), req); err != nil {
		return Error(err)
	}
	return Status("ok")
}
