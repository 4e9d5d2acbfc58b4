package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/storefront/pkg/util"
)

const (
	SessionIDKey       = "session_id"
	SessionTokenHeader = "X-Session-Token"
	defaultCookieName  = "storefront_session"
)

// SessionMiddleware ties each request to an anonymous cart session carried
// in a signed guest token. It never rejects a request: a missing, expired or
// forged token just starts a new session.
type SessionMiddleware struct {
	secret     string
	expiry     time.Duration
	cookieName string
	secure     bool
}

func NewSessionMiddleware(secret string, expiry time.Duration, cookieName string, secure bool) *SessionMiddleware {
	if cookieName == "" {
		cookieName = defaultCookieName
	}
	if expiry <= 0 {
		expiry = 30 * 24 * time.Hour
	}
	return &SessionMiddleware{
		secret:     secret,
		expiry:     expiry,
		cookieName: cookieName,
		secure:     secure,
	}
}

// Attach resolves or issues the session and stores its id in the context
func (m *SessionMiddleware) Attach() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		token := m.tokenFromRequest(c)
		if token != "" {
			claims, err := util.ValidateGuestToken(token, m.secret)
			if err == nil {
				c.Set(SessionIDKey, claims.SessionID)
				c.Header(SessionTokenHeader, token)
				c.Next()
				return
			}
			log.Debug("Session token rejected, starting new session", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
		}

		sessionID := util.NewSessionID()
		issued, err := util.IssueGuestToken(sessionID, m.secret, m.expiry)
		if err != nil {
			// the cart still works for this request, only continuity is lost
			log.Error("Failed to issue session token", err, map[string]interface{}{
				"path": c.Request.URL.Path,
			})
			c.Set(SessionIDKey, sessionID)
			c.Next()
			return
		}

		c.Set(SessionIDKey, sessionID)
		c.Header(SessionTokenHeader, issued)
		http.SetCookie(c.Writer, &http.Cookie{
			Name:     m.cookieName,
			Value:    issued,
			Path:     "/",
			MaxAge:   int(m.expiry.Seconds()),
			HttpOnly: true,
			Secure:   m.secure,
			SameSite: http.SameSiteLaxMode,
		})

		log.Debug("Issued new cart session", map[string]interface{}{
			"session_id": sessionID,
		})
		c.Next()
	}
}

// tokenFromRequest checks the Authorization header, then the token query
// parameter (used by WebSocket clients), then the session cookie.
func (m *SessionMiddleware) tokenFromRequest(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && parts[0] == "Bearer" {
			return strings.TrimSpace(parts[1])
		}
	}
	if token := c.GetHeader(SessionTokenHeader); token != "" {
		return token
	}
	if token := c.Query("token"); token != "" {
		return token
	}
	if cookie, err := c.Cookie(m.cookieName); err == nil {
		return cookie
	}
	return ""
}

// GetSessionID extracts the session id from context
func GetSessionID(c *gin.Context) (string, bool) {
	sessionID, exists := c.Get(SessionIDKey)
	if !exists {
		return "", false
	}
	id, ok := sessionID.(string)
	return id, ok && id != ""
}
