package connection

import (
	"encoding/json"
	"errors"
	"mime"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-journal-go/internal/connection/entity"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/credential"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/session"
)

// Handler exposes the connection endpoints of the dashboard.
type Handler struct {
	svc      *Service
	sessions session.Provider
	logger   *zap.SugaredLogger
}

func NewHandler(svc *Service, sessions session.Provider, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, sessions: sessions, logger: logger}
}

// ListResponse carries the connections plus the parsed family list.
type ListResponse struct {
	Connections []entity.View `json:"connections"`
	FamilyIDs   []string      `json:"family_ids"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.List(r.Context(), h.sessions.GetSession(r.Header))
	if err != nil {
		h.fail(w, err)
		return
	}
	family := []string{}
	for _, v := range views {
		if v.Type == entity.TypeSteamFamily {
			family = ParseFamilyIDs(v.Value)
		}
	}
	h.writeJSON(w, http.StatusOK, ListResponse{Connections: views, FamilyIDs: family})
}

// ConnectSteam accepts {"steam_id": "..."} or a steamId form field.
func (h *Handler) ConnectSteam(w http.ResponseWriter, r *http.Request) {
	steamID, err := readField(r, "steam_id", "steamId")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.svc.LinkSteam(r.Context(), h.sessions.GetSession(r.Header), steamID); err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// ConnectPSN accepts {"psn_token": "..."} or a psnToken form field.
func (h *Handler) ConnectPSN(w http.ResponseWriter, r *http.Request) {
	token, err := readField(r, "psn_token", "psnToken")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if err := h.svc.LinkPSN(r.Context(), h.sessions.GetSession(r.Header), token); err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// Disconnect handles DELETE .../connections/{type}.
func (h *Handler) Disconnect(w http.ResponseWriter, r *http.Request) {
	sess := h.sessions.GetSession(r.Header)
	t, ok := entity.ParseType(r.PathValue("type"))
	if !ok {
		h.fail(w, ErrUnknownType)
		return
	}
	if err := h.svc.Disconnect(r.Context(), sess, t); err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

// AddFamilyMembers accepts {"steam_ids": "id1,id2"}.
func (h *Handler) AddFamilyMembers(w http.ResponseWriter, r *http.Request) {
	csv, err := readField(r, "steam_ids", "steamIds")
	if err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	ids, err := h.svc.UpdateSteamFamilyIDs(r.Context(), h.sessions.GetSession(r.Header), csv)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"family_ids": ids})
}

// RemoveFamilyMember handles DELETE .../steam-family/{steamID}.
func (h *Handler) RemoveFamilyMember(w http.ResponseWriter, r *http.Request) {
	ids, err := h.svc.RemoveSteamFamilyMember(r.Context(), h.sessions.GetSession(r.Header), r.PathValue("steamID"))
	if err != nil {
		h.fail(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"family_ids": ids})
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrUnauthorized):
		h.writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "unauthorized"})
	case errors.Is(err, ErrSteamIDRequired), errors.Is(err, ErrPSNTokenRequired),
		errors.Is(err, ErrFamilyIDsRequired), errors.Is(err, ErrUnknownType):
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, credential.ErrMissingKey):
		h.logger.Errorw("connection credentials cannot be encrypted", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "encryption not configured"})
	default:
		h.logger.Warnw("connection request failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "request failed"})
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// readField reads one string field from a JSON body, or from form values
// under formName for urlencoded and multipart posts.
func readField(r *http.Request, jsonName, formName string) (string, error) {
	ct, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch ct {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		return r.FormValue(formName), nil
	}
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		return "", err
	}
	return body[jsonName], nil
}
