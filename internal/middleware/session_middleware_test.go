package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSessionSecret = "test-session-secret-for-middleware"

func setupSessionTest() *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	sessions := NewSessionMiddleware(testSessionSecret, time.Hour, "", false)
	router.Use(LoggingMiddleware(), sessions.Attach())
	router.GET("/whoami", func(c *gin.Context) {
		sessionID, ok := GetSessionID(c)
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, sessionID)
	})
	return router
}

func issueTestToken(t *testing.T, sessionID string) string {
	token, err := util.IssueGuestToken(sessionID, testSessionSecret, time.Hour)
	require.NoError(t, err)
	return token
}

func TestSessionMiddleware_IssuesNewSession(t *testing.T) {
	router := setupSessionTest()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "guest_")

	token := w.Header().Get(SessionTokenHeader)
	require.NotEmpty(t, token)
	claims, err := util.ValidateGuestToken(token, testSessionSecret)
	require.NoError(t, err)
	assert.Equal(t, w.Body.String(), claims.SessionID)

	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, defaultCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, w.Header().Get(RequestIDHeader))
}

func TestSessionMiddleware_ReusesSession(t *testing.T) {
	router := setupSessionTest()
	token := issueTestToken(t, "guest_known")

	tests := []struct {
		name  string
		build func(r *http.Request)
		path  string
	}{
		{
			name:  "Bearer header",
			path:  "/whoami",
			build: func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) },
		},
		{
			name:  "Session header",
			path:  "/whoami",
			build: func(r *http.Request) { r.Header.Set(SessionTokenHeader, token) },
		},
		{
			name:  "Query parameter",
			path:  "/whoami?token=" + token,
			build: func(r *http.Request) {},
		},
		{
			name: "Cookie",
			path: "/whoami",
			build: func(r *http.Request) {
				r.AddCookie(&http.Cookie{Name: defaultCookieName, Value: token})
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			tt.build(req)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "guest_known", w.Body.String())
			assert.Empty(t, w.Result().Cookies())
		})
	}
}

func TestSessionMiddleware_InvalidTokenStartsNewSession(t *testing.T) {
	router := setupSessionTest()

	forged, err := util.IssueGuestToken("guest_forged", "another-secret", time.Hour)
	require.NoError(t, err)
	expired, err := util.IssueGuestToken("guest_old", testSessionSecret, -time.Minute)
	require.NoError(t, err)

	for _, token := range []string{forged, expired, "garbage"} {
		req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotEqual(t, "guest_forged", w.Body.String())
		assert.NotEqual(t, "guest_old", w.Body.String())
		assert.Contains(t, w.Body.String(), "guest_")
		assert.NotEqual(t, token, w.Header().Get(SessionTokenHeader))
	}
}

func TestGetSessionID_Missing(t *testing.T) {
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())

	id, ok := GetSessionID(c)
	assert.False(t, ok)
	assert.Empty(t, id)
}

func TestLoggingMiddleware_KeepsIncomingRequestID(t *testing.T) {
	router := setupSessionTest()

	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(RequestIDHeader, "req-123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "req-123", w.Header().Get(RequestIDHeader))
}
