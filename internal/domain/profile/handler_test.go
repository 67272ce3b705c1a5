package profile

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bankprofile/internal/domain/identity"
)

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func setupTestRouter(t *testing.T, store Store) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sessions := NewSessions(store, NewHub(nil), SessionsConfig{SavedFlagDelay: time.Hour}, nil)
	t.Cleanup(sessions.CloseAll)
	h := NewHandler(NewService(store), sessions, nil)

	r := gin.New()
	r.Use(func(c *gin.Context) {
		if userID := c.GetHeader("X-Test-User-ID"); userID != "" {
			ctx := identity.WithIdentity(c.Request.Context(), identity.Identity{ID: userID, Email: userID + "@example.com"})
			c.Request = c.Request.WithContext(ctx)
		}
		c.Next()
	})
	RegisterRoutes(r.Group("/api/v1"), h)
	return r
}

func doJSONRequest(r http.Handler, method, path string, body any, userID string) (*httptest.ResponseRecorder, envelope) {
	var reader *bytes.Reader
	if body == nil {
		reader = bytes.NewReader(nil)
	} else {
		b, _ := json.Marshal(body)
		reader = bytes.NewReader(b)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != "" {
		req.Header.Set("X-Test-User-ID", userID)
	}

	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)

	var env envelope
	_ = json.Unmarshal(rr.Body.Bytes(), &env)
	return rr, env
}

func decodeView(t *testing.T, env envelope) EditorView {
	t.Helper()
	var v EditorView
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func openSession(t *testing.T, r http.Handler, userID string) string {
	t.Helper()
	rr, env := doJSONRequest(r, http.MethodPost, "/api/v1/profile/editor/sessions", nil, userID)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var resp SessionResponse
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	require.NotEmpty(t, resp.SessionID)
	return resp.SessionID
}

func TestProfileEndpoints_Unauthorized(t *testing.T) {
	r := setupTestRouter(t, newFakeStore())

	cases := []struct {
		method string
		path   string
	}{
		{http.MethodGet, "/api/v1/profile"},
		{http.MethodPut, "/api/v1/profile"},
		{http.MethodPost, "/api/v1/profile/editor/sessions"},
		{http.MethodGet, "/api/v1/profile/editor/sessions/x"},
		{http.MethodPost, "/api/v1/profile/editor/sessions/x/save"},
		{http.MethodDelete, "/api/v1/profile/editor/sessions/x"},
	}
	for _, tc := range cases {
		rr, env := doJSONRequest(r, tc.method, tc.path, map[string]any{}, "")
		assert.Equal(t, http.StatusUnauthorized, rr.Code, tc.path)
		assert.Equal(t, "UNAUTHORIZED", env.Error.Code, tc.path)
	}
}

func TestGetAndPutProfile(t *testing.T) {
	store := newFakeStore()
	r := setupTestRouter(t, store)

	rr, env := doJSONRequest(r, http.MethodGet, "/api/v1/profile", nil, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	var rec Record
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, "u1@example.com", rec.Email)

	rr, env = doJSONRequest(r, http.MethodPut, "/api/v1/profile", map[string]any{
		"full_name":     "Ann Lee",
		"date_of_birth": "1988-03-14",
		"email":         "evil@example.com",
	}, "u1")
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	require.NoError(t, json.Unmarshal(env.Data, &rec))
	assert.Equal(t, "Ann Lee", rec.FullName)
	assert.Equal(t, "u1@example.com", rec.Email)

	rr, env = doJSONRequest(r, http.MethodPut, "/api/v1/profile", map[string]any{"date_of_birth": "soon"}, "u1")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "INVALID_DATE", env.Error.Code)
}

func TestGetProfileStoreUnavailable(t *testing.T) {
	store := newFakeStore()
	store.setReadErr(ErrStoreUnavailable)
	r := setupTestRouter(t, store)

	rr, env := doJSONRequest(r, http.MethodGet, "/api/v1/profile", nil, "u1")
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Equal(t, "STORE_UNAVAILABLE", env.Error.Code)
}

func TestEditorSessionFlow(t *testing.T) {
	store := newFakeStore()
	store.put(Record{ID: "u1", Email: "ann@example.com", FullName: "Ann", Phone: "555-0100"})
	r := setupTestRouter(t, store)
	id := openSession(t, r, "u1")
	base := "/api/v1/profile/editor/sessions/" + id

	rr, env := doJSONRequest(r, http.MethodGet, base, nil, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, StateViewing, decodeView(t, env).State)

	rr, env = doJSONRequest(r, http.MethodPatch, base+"/fields", map[string]any{"field": "phone", "value": "1"}, "u1")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "NOT_EDITING", env.Error.Code)

	rr, env = doJSONRequest(r, http.MethodPost, base+"/edit", nil, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decodeView(t, env).Editing)

	rr, env = doJSONRequest(r, http.MethodPatch, base+"/fields", map[string]any{"field": "phone", "value": "555-0199"}, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "555-0199", decodeView(t, env).Draft.Phone)

	rr, env = doJSONRequest(r, http.MethodPatch, base+"/fields", map[string]any{"field": "email", "value": "x@y.z"}, "u1")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "EMAIL_READ_ONLY", env.Error.Code)

	rr, env = doJSONRequest(r, http.MethodPatch, base+"/fields", map[string]any{"field": "ssn", "value": "1"}, "u1")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "UNKNOWN_FIELD", env.Error.Code)

	rr, env = doJSONRequest(r, http.MethodPatch, base+"/fields", map[string]any{"value": "1"}, "u1")
	assert.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	rr, env = doJSONRequest(r, http.MethodPost, base+"/save", nil, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	v := decodeView(t, env)
	assert.Equal(t, StateViewing, v.State)
	assert.True(t, v.Saved)
	assert.Equal(t, "555-0199", v.Record.Phone)
	assert.Equal(t, "ann@example.com", v.Record.Email)

	rr, env = doJSONRequest(r, http.MethodPost, base+"/saved/dismiss", nil, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.False(t, decodeView(t, env).Saved)

	rr, _ = doJSONRequest(r, http.MethodPost, base+"/reload", nil, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 2, store.readCount())

	rr, _ = doJSONRequest(r, http.MethodDelete, base, nil, "u1")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr, env = doJSONRequest(r, http.MethodGet, base, nil, "u1")
	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Equal(t, "SESSION_NOT_FOUND", env.Error.Code)
}

func TestEditorCancelViaHTTP(t *testing.T) {
	store := newFakeStore()
	store.put(Record{ID: "u1", City: "Salem"})
	r := setupTestRouter(t, store)
	base := "/api/v1/profile/editor/sessions/" + openSession(t, r, "u1")

	rr, env := doJSONRequest(r, http.MethodPost, base+"/cancel", nil, "u1")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "NOT_EDITING", env.Error.Code)

	doJSONRequest(r, http.MethodPost, base+"/edit", nil, "u1")
	doJSONRequest(r, http.MethodPatch, base+"/fields", map[string]any{"field": "city", "value": "Bend"}, "u1")

	rr, env = doJSONRequest(r, http.MethodPost, base+"/cancel", nil, "u1")
	require.Equal(t, http.StatusOK, rr.Code)
	v := decodeView(t, env)
	assert.Equal(t, "Salem", v.Record.City)
	assert.Nil(t, v.Draft)
	assert.Equal(t, 0, store.writeCount())
}

func TestEditorSaveFailureViaHTTP(t *testing.T) {
	store := newFakeStore()
	r := setupTestRouter(t, store)
	base := "/api/v1/profile/editor/sessions/" + openSession(t, r, "u1")

	doJSONRequest(r, http.MethodPost, base+"/edit", nil, "u1")
	doJSONRequest(r, http.MethodPatch, base+"/fields", map[string]any{"field": "fullName", "value": "Ann Lee"}, "u1")

	store.setWriteErr(ErrStoreUnavailable)
	rr, env := doJSONRequest(r, http.MethodPost, base+"/save", nil, "u1")
	require.Equal(t, http.StatusOK, rr.Code, "store failures are reported in the view")
	v := decodeView(t, env)
	assert.Equal(t, StateSaveError, v.State)
	assert.True(t, v.Retryable)
	assert.Equal(t, "Ann Lee", v.Draft.FullName)

	rr, env = doJSONRequest(r, http.MethodPost, base+"/reload", nil, "u1")
	assert.Equal(t, http.StatusConflict, rr.Code)
	assert.Equal(t, "INVALID_TRANSITION", env.Error.Code)
}

func TestEditorSessionOwnership(t *testing.T) {
	r := setupTestRouter(t, newFakeStore())
	base := "/api/v1/profile/editor/sessions/" + openSession(t, r, "u1")

	rr, env := doJSONRequest(r, http.MethodGet, base, nil, "u2")
	assert.Equal(t, http.StatusForbidden, rr.Code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	rr, _ = doJSONRequest(r, http.MethodDelete, base, nil, "u2")
	assert.Equal(t, http.StatusForbidden, rr.Code)

	rr, _ = doJSONRequest(r, http.MethodGet, base, nil, "u1")
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestUpdateFieldInvalidJSON(t *testing.T) {
	r := setupTestRouter(t, newFakeStore())
	base := "/api/v1/profile/editor/sessions/" + openSession(t, r, "u1")

	req := httptest.NewRequest(http.MethodPatch, base+"/fields", bytes.NewBufferString("{"))
	req.Header.Set("X-Test-User-ID", "u1")
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, req)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestOpenSessionLimitReturns429(t *testing.T) {
	r := setupTestRouter(t, newFakeStore())
	for i := 0; i < DefaultMaxSessionsPerUser; i++ {
		openSession(t, r, "u1")
	}

	rr, env := doJSONRequest(r, http.MethodPost, "/api/v1/profile/editor/sessions", nil, "u1")
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "TOO_MANY_SESSIONS", env.Error.Code)
}
