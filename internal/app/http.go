package app

import (
	"github.com/gin-gonic/gin"

	apphttp "github.com/dietoteka/dietoteka-backend/internal/http"
	httpH "github.com/dietoteka/dietoteka-backend/internal/http/handlers"
	httpMW "github.com/dietoteka/dietoteka-backend/internal/http/middleware"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type Middleware struct {
	Auth      *httpMW.AuthMiddleware
	RateLimit gin.HandlerFunc
}

type Handlers struct {
	Health     *httpH.HealthHandler
	Auth       *httpH.AuthHandler
	User       *httpH.UserHandler
	Weight     *httpH.WeightHandler
	Access     *httpH.AccessHandler
	Material   *httpH.MaterialHandler
	Note       *httpH.NoteHandler
	Purchase   *httpH.PurchaseHandler
	Review     *httpH.ReviewHandler
	Invitation *httpH.InvitationHandler
	Webhook    *httpH.WebhookHandler
	Audit      *httpH.AuditHandler
}

func wireHandlers(log *logger.Logger, services Services) Handlers {
	log.Info("Wiring handlers...")
	return Handlers{
		Health:     httpH.NewHealthHandler(),
		Auth:       httpH.NewAuthHandler(log, services.Auth),
		User:       httpH.NewUserHandler(log, services.User),
		Weight:     httpH.NewWeightHandler(log, services.Weight),
		Access:     httpH.NewAccessHandler(log, services.Access),
		Material:   httpH.NewMaterialHandler(log, services.Material, services.Download),
		Note:       httpH.NewNoteHandler(log, services.Note),
		Purchase:   httpH.NewPurchaseHandler(log, services.Purchase),
		Review:     httpH.NewReviewHandler(log, services.Review),
		Invitation: httpH.NewInvitationHandler(log, services.Invitation),
		Webhook:    httpH.NewWebhookHandler(log, services.Purchase),
		Audit:      httpH.NewAuditHandler(log, services.Audit),
	}
}

func wireMiddleware(log *logger.Logger, services Services, clients Clients) Middleware {
	log.Info("Wiring middleware...")
	return Middleware{
		Auth:      httpMW.NewAuthMiddleware(log, services.Auth),
		RateLimit: httpMW.RateLimit(clients.RateLimiter),
	}
}

func wireServer(log *logger.Logger, handlers Handlers, middleware Middleware) *apphttp.Server {
	return apphttp.NewServer(apphttp.RouterConfig{
		Log: log,

		AuthMiddleware:      middleware.Auth,
		RateLimitMiddleware: middleware.RateLimit,

		HealthHandler:     handlers.Health,
		AuthHandler:       handlers.Auth,
		UserHandler:       handlers.User,
		WeightHandler:     handlers.Weight,
		AccessHandler:     handlers.Access,
		MaterialHandler:   handlers.Material,
		NoteHandler:       handlers.Note,
		PurchaseHandler:   handlers.Purchase,
		ReviewHandler:     handlers.Review,
		InvitationHandler: handlers.Invitation,
		WebhookHandler:    handlers.Webhook,
		AuditHandler:      handlers.Audit,
	})
}
