package connection

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-journal-go/internal/connection/entity"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/credential"
	"github.com/ovaphlow/pitchfork/service-journal-go/internal/session"
)

// headerSessions authenticates any request carrying X-User.
type headerSessions struct{}

func (headerSessions) GetSession(h http.Header) *session.Session {
	if id := h.Get("X-User"); id != "" {
		return &session.Session{User: session.User{ID: id}}
	}
	return nil
}

func newTestMux(t *testing.T, codec Codec) (*http.ServeMux, *memStore) {
	t.Helper()
	store := newMemStore()
	svc := NewService(store, codec, &seqIDs{}, nil)
	h := NewHandler(svc, headerSessions{}, zap.NewNop().Sugar())

	mux := http.NewServeMux()
	mux.HandleFunc("GET /connections", h.List)
	mux.HandleFunc("POST /connections/steam", h.ConnectSteam)
	mux.HandleFunc("POST /connections/psn", h.ConnectPSN)
	mux.HandleFunc("POST /connections/steam-family", h.AddFamilyMembers)
	mux.HandleFunc("DELETE /connections/steam-family/{steamID}", h.RemoveFamilyMember)
	mux.HandleFunc("DELETE /connections/{type}", h.Disconnect)
	return mux, store
}

func do(mux http.Handler, method, path, user, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User", user)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func testCodec(t *testing.T) *credential.Codec {
	c, err := credential.New(testKey, nil)
	require.NoError(t, err)
	return c
}

func TestHandler_ConnectAndList(t *testing.T) {
	mux, _ := newTestMux(t, testCodec(t))

	rec := do(mux, http.MethodPost, "/connections/steam", "42", `{"steam_id":"76561197960287930"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(mux, http.MethodPost, "/connections/steam-family", "42", `{"steam_ids":"1,2,3,4"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = do(mux, http.MethodGet, "/connections", "42", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp ListResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"1", "2", "3"}, resp.FamilyIDs)
	require.Len(t, resp.Connections, 2)
	assert.Equal(t, entity.TypeSteam, resp.Connections[0].Type)
	assert.Equal(t, "76561197960287930", resp.Connections[0].Value)
}

func TestHandler_ConnectPSN_Form(t *testing.T) {
	mux, store := newTestMux(t, testCodec(t))

	form := url.Values{"psnToken": {"npsso"}}
	req := httptest.NewRequest(http.MethodPost, "/connections/psn", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("X-User", "42")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, store.rows, key("42", entity.TypePSN))
}

func TestHandler_Unauthorized(t *testing.T) {
	mux, store := newTestMux(t, testCodec(t))

	rec := do(mux, http.MethodPost, "/connections/steam", "", `{"steam_id":"1"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = do(mux, http.MethodDelete, "/connections/steam", "", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Zero(t, store.writes)

	// listing without a session is an empty result, not an error
	rec = do(mux, http.MethodGet, "/connections", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"connections":[],"family_ids":[]}`, rec.Body.String())
}

func TestHandler_BadRequests(t *testing.T) {
	mux, _ := newTestMux(t, testCodec(t))

	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/connections/steam", "42", `{`).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/connections/steam", "42", `{"steam_id":""}`).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodDelete, "/connections/xbox", "42", "").Code)
}

func TestHandler_MissingKey(t *testing.T) {
	var codec *credential.Codec
	mux, _ := newTestMux(t, codec)

	rec := do(mux, http.MethodPost, "/connections/psn", "42", `{"psn_token":"npsso"}`)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"encryption not configured"}`, rec.Body.String())
}

func TestHandler_DisconnectAndRemoveFamily(t *testing.T) {
	mux, store := newTestMux(t, testCodec(t))

	require.Equal(t, http.StatusOK, do(mux, http.MethodPost, "/connections/steam-family", "42", `{"steam_ids":"1,2"}`).Code)

	rec := do(mux, http.MethodDelete, "/connections/steam-family/1", "42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"family_ids":["2"]}`, rec.Body.String())

	rec = do(mux, http.MethodDelete, "/connections/steam_family", "42", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, store.rows)
}
