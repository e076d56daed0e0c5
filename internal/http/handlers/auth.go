package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dietoteka/dietoteka-backend/internal/http/middleware"
	"github.com/dietoteka/dietoteka-backend/internal/http/response"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/ctxutil"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
	"github.com/dietoteka/dietoteka-backend/internal/platform/envutil"
	"github.com/dietoteka/dietoteka-backend/internal/services"
)

type AuthHandler struct {
	log          *logger.Logger
	authService  services.AuthService
	secureCookie bool
}

func NewAuthHandler(log *logger.Logger, authService services.AuthService) *AuthHandler {
	return &AuthHandler{
		log:          log.With("handler", "AuthHandler"),
		authService:  authService,
		secureCookie: envutil.String("APP_ENV", "development") == "production",
	}
}

// POST /auth/signup
// body: { "token": "...", "password": "...", "first_name": "...", "last_name": "...", "captcha_token": "..." }
func (ah *AuthHandler) Signup(c *gin.Context) {
	var req struct {
		Token        string `json:"token"`
		Password     string `json:"password"`
		FirstName    string `json:"first_name"`
		LastName     string `json:"last_name"`
		CaptchaToken string `json:"captcha_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}

	result, err := ah.authService.SignupWithInvitation(c.Request.Context(), services.SignupInput{
		InvitationToken: req.Token,
		Password:        req.Password,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
		CaptchaToken:    req.CaptchaToken,
		RemoteIP:        c.ClientIP(),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	ah.setSessionCookie(c, result)
	response.RespondCreated(c, gin.H{"user": result.User})
}

// POST /auth/login
// body: { "email": "...", "password": "...", "captcha_token": "..." }
func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email        string `json:"email"`
		Password     string `json:"password"`
		CaptchaToken string `json:"captcha_token"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusUnprocessableEntity, "validation_error", err)
		return
	}

	result, err := ah.authService.Login(c.Request.Context(), services.LoginInput{
		Email:        req.Email,
		Password:     req.Password,
		CaptchaToken: req.CaptchaToken,
		RemoteIP:     c.ClientIP(),
	})
	if err != nil {
		response.RespondAPIError(c, err)
		return
	}

	ah.setSessionCookie(c, result)
	response.RespondOK(c, gin.H{"user": result.User})
}

// POST /auth/logout
// The cookie is cleared no matter what happened server-side.
func (ah *AuthHandler) Logout(c *gin.Context) {
	token := middleware.ExtractSessionToken(c)
	if rd := ctxutil.GetRequestData(c.Request.Context()); rd != nil && rd.SessionToken != "" {
		token = rd.SessionToken
	}
	_ = ah.authService.Logout(c.Request.Context(), token)

	ah.clearSessionCookie(c)
	response.RespondNoContent(c)
}

// POST /auth/password-reset/request
// body: { "email": "..." } — always 204 so addresses cannot be probed
func (ah *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req struct {
		Email string `json:"email"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if err := ah.authService.RequestPasswordReset(c.Request.Context(), req.Email); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondNoContent(c)
}

// POST /auth/password-reset/confirm
// body: { "token": "...", "password": "..." }
func (ah *AuthHandler) ResetPassword(c *gin.Context) {
	var req struct {
		Token    string `json:"token"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "validation_error", err)
		return
	}
	if err := ah.authService.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		response.RespondAPIError(c, err)
		return
	}
	response.RespondNoContent(c)
}

func (ah *AuthHandler) setSessionCookie(c *gin.Context, result *services.AuthResult) {
	c.SetSameSite(http.SameSiteLaxMode)
	maxAge := int(result.ExpiresAt.Sub(nowUTC()).Seconds())
	c.SetCookie(middleware.SessionCookieName, result.SessionToken, maxAge, "/", "", ah.secureCookie, true)
}

func (ah *AuthHandler) clearSessionCookie(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(middleware.SessionCookieName, "", -1, "/", "", ah.secureCookie, true)
}
