package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/dietoteka/dietoteka-backend/internal/http/response"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/apierr"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/ctxutil"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/services"
)

// SessionCookieName is the httponly cookie carrying the opaque session token.
const SessionCookieName = "dietoteka_session"

type AuthMiddleware struct {
	log         *logger.Logger
	authService services.AuthService
}

func NewAuthMiddleware(log *logger.Logger, authService services.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		log:         log.With("Middleware", "AuthMiddleware"),
		authService: authService,
	}
}

func (am *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractSessionToken(c)
		if token == "" {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", "missing session")
			return
		}

		session, user, err := am.authService.ValidateSession(c.Request.Context(), token)
		if err != nil {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", "invalid or expired session")
			return
		}

		rd := &ctxutil.RequestData{
			UserID:       user.ID,
			SessionID:    session.ID,
			Role:         user.Role,
			SessionToken: token,
		}
		c.Request = c.Request.WithContext(ctxutil.WithRequestData(c.Request.Context(), rd))
		c.Next()
	}
}

// RequireRole gates a route group on top of RequireAuth.
func (am *AuthMiddleware) RequireRole(role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		rd := ctxutil.GetRequestData(c.Request.Context())
		if rd == nil || rd.UserID == uuid.Nil {
			response.AbortError(c, http.StatusUnauthorized, "unauthorized", "missing session")
			return
		}
		if rd.Role != role {
			response.AbortAPIError(c, apierr.Forbidden("forbidden_patient_role", fmt.Errorf("role %q cannot access this resource", rd.Role)))
			return
		}
		c.Next()
	}
}

// ExtractSessionToken prefers the cookie; a Bearer header serves non-browser
// clients like the mobile app.
func ExtractSessionToken(c *gin.Context) string {
	if cookie, err := c.Cookie(SessionCookieName); err == nil && cookie != "" {
		return cookie
	}
	authHeader := c.GetHeader("Authorization")
	if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
		return authHeader[7:]
	}
	return ""
}
