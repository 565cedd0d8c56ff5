package httpserver

import (
	"context"
	"net/http"
	"strings"
	"time"

	"farmisian/internal/domain"
	customersvc "farmisian/internal/service/customer"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	sessionHeader   = "X-Session-ID"
	sessionCookie   = "farmisian_sid"
	requestIDHeader = "X-Request-ID"

	sessionKey = "farmisian.session"
	statusKey  = "farmisian.auth"
	tokenKey   = "farmisian.token"

	sessionCookieMaxAge = 30 * 24 * 60 * 60
)

// requestLogger logs one line per request and tags it with a request id.
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("request_id", requestID),
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.String("errors", c.Errors.String()))
		}
		switch status := c.Writer.Status(); {
		case status >= http.StatusInternalServerError:
			logger.Error("request", fields...)
		case status >= http.StatusBadRequest:
			logger.Warn("request", fields...)
		default:
			logger.Debug("request", fields...)
		}
	}
}

// sessionMiddleware resolves the anonymous session id that keys the cart and
// the chat. A missing or malformed id is replaced with a fresh one.
func sessionMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		sid := strings.TrimSpace(c.GetHeader(sessionHeader))
		if sid == "" {
			sid, _ = c.Cookie(sessionCookie)
		}
		if _, err := uuid.Parse(sid); err != nil {
			sid = uuid.NewString()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, sid, sessionCookieMaxAge, "/", "", false, true)
		}
		c.Header(sessionHeader, sid)
		c.Set(sessionKey, sid)
		c.Next()
	}
}

type statusResolver interface {
	StatusFor(ctx context.Context, token string) (customersvc.Status, error)
}

// authMiddleware attaches the authentication status for the bearer token.
// Requests without a valid token continue as anonymous visitors.
func authMiddleware(svc statusResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		status, err := svc.StatusFor(c.Request.Context(), token)
		if err != nil {
			respondError(c, err)
			c.Abort()
			return
		}
		if status.IsAuthenticated {
			c.Set(tokenKey, token)
		}
		c.Set(statusKey, status)
		c.Next()
	}
}

func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentUser(c) == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, errorResponse{Error: "authentication required"})
			return
		}
		c.Next()
	}
}

func requireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if u := currentUser(c); u == nil || !u.IsAdmin() {
			c.AbortWithStatusJSON(http.StatusForbidden, errorResponse{Error: "admin access required"})
			return
		}
		c.Next()
	}
}

func bearerToken(header string) string {
	scheme, token, ok := strings.Cut(strings.TrimSpace(header), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func sessionID(c *gin.Context) string {
	return c.GetString(sessionKey)
}

func authStatus(c *gin.Context) customersvc.Status {
	v, ok := c.Get(statusKey)
	if !ok {
		return customersvc.Status{}
	}
	status, _ := v.(customersvc.Status)
	return status
}

func currentUser(c *gin.Context) *domain.Customer {
	status := authStatus(c)
	if !status.IsAuthenticated {
		return nil
	}
	return status.User
}
