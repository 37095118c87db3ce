package library

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-journal-go/internal/session"
)

// Handler exposes the dashboard and journal read endpoints.
type Handler struct {
	svc      *Service
	sessions session.Provider
	logger   *zap.SugaredLogger
}

func NewHandler(svc *Service, sessions session.Provider, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, sessions: sessions, logger: logger}
}

// SteamOverview handles GET .../dashboard/steam.
func (h *Handler) SteamOverview(w http.ResponseWriter, r *http.Request) {
	ov, err := h.svc.Overview(r.Context(), h.sessions.GetSession(r.Header))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, ov)
}

// Journal handles GET .../journal?q=.
func (h *Handler) Journal(w http.ResponseWriter, r *http.Request) {
	j, err := h.svc.Journal(r.Context(), h.sessions.GetSession(r.Header), r.URL.Query().Get("q"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, j)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrUnauthorized) {
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
		return
	}
	h.logger.Warnw("library request failed", "err", err)
	h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "request failed"})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
