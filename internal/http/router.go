package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	types "github.com/dietoteka/dietoteka-backend/internal/domain"
	httpH "github.com/dietoteka/dietoteka-backend/internal/http/handlers"
	httpMW "github.com/dietoteka/dietoteka-backend/internal/http/middleware"
	"github.com/dietoteka/dietoteka-backend/internal/pkg/logger"
)

type RouterConfig struct {
	Log *logger.Logger

	AuthMiddleware      *httpMW.AuthMiddleware
	RateLimitMiddleware gin.HandlerFunc

	HealthHandler     *httpH.HealthHandler
	AuthHandler       *httpH.AuthHandler
	UserHandler       *httpH.UserHandler
	WeightHandler     *httpH.WeightHandler
	AccessHandler     *httpH.AccessHandler
	MaterialHandler   *httpH.MaterialHandler
	NoteHandler       *httpH.NoteHandler
	PurchaseHandler   *httpH.PurchaseHandler
	ReviewHandler     *httpH.ReviewHandler
	InvitationHandler *httpH.InvitationHandler
	WebhookHandler    *httpH.WebhookHandler
	AuditHandler      *httpH.AuditHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(otelgin.Middleware("dietoteka-backend"))
	r.Use(httpMW.AttachRequestContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.CORS())

	if cfg.HealthHandler != nil {
		r.GET("/healthz", cfg.HealthHandler.HealthCheck)
	}

	api := r.Group("/api/v1")

	// Gateway callback: no session, no envelope, bare TRUE/FALSE body.
	if cfg.WebhookHandler != nil {
		webhook := api.Group("/pzk/payments")
		if cfg.RateLimitMiddleware != nil {
			webhook.Use(cfg.RateLimitMiddleware)
		}
		webhook.POST("/webhook", cfg.WebhookHandler.TpayNotification)
	}

	// Auth (public). Rate limited: these are the brute-forceable routes.
	if cfg.AuthHandler != nil {
		authGroup := api.Group("/auth")
		if cfg.RateLimitMiddleware != nil {
			authGroup.Use(cfg.RateLimitMiddleware)
		}
		authGroup.POST("/signup", cfg.AuthHandler.Signup)
		authGroup.POST("/login", cfg.AuthHandler.Login)
		authGroup.POST("/password-reset/request", cfg.AuthHandler.RequestPasswordReset)
		authGroup.POST("/password-reset/confirm", cfg.AuthHandler.ResetPassword)
	}

	protected := api.Group("/")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	if cfg.AuthHandler != nil {
		protected.POST("/auth/logout", cfg.AuthHandler.Logout)
	}

	if cfg.UserHandler != nil {
		protected.GET("/me", cfg.UserHandler.GetMe)
		protected.POST("/me/password", cfg.UserHandler.ChangePassword)
		protected.PUT("/me/avatar", cfg.UserHandler.UploadAvatar)
	}

	if cfg.WeightHandler != nil {
		protected.POST("/weights", cfg.WeightHandler.Create)
		protected.GET("/weights", cfg.WeightHandler.List)
		protected.PATCH("/weights/:entryID", cfg.WeightHandler.Update)
		protected.DELETE("/weights/:entryID", cfg.WeightHandler.Delete)
	}

	// Paid zone. The flag flips the whole surface to 404.
	pzk := protected.Group("/pzk")
	pzk.Use(httpMW.RequireFeature(httpMW.FeaturePZK))
	{
		if cfg.AccessHandler != nil {
			pzk.GET("/access", cfg.AccessHandler.ListMine)
		}
		if cfg.MaterialHandler != nil {
			pzk.GET("/materials", cfg.MaterialHandler.ListByModule)
			pzk.GET("/categories", cfg.MaterialHandler.ListCategories)
			pzk.GET("/materials/:materialID", cfg.MaterialHandler.Get)
			pzk.GET("/materials/:materialID/pdfs/:pdfID/download", cfg.MaterialHandler.DownloadPdf)
		}
		if cfg.NoteHandler != nil {
			pzk.GET("/materials/:materialID/note", cfg.NoteHandler.Get)
			pzk.PUT("/materials/:materialID/note", cfg.NoteHandler.Upsert)
		}
		if cfg.PurchaseHandler != nil {
			pzk.POST("/purchase", cfg.PurchaseHandler.Initiate)
		}

		if cfg.ReviewHandler != nil {
			reviews := pzk.Group("/reviews")
			reviews.Use(httpMW.RequireFeature(httpMW.FeatureReviews))
			reviews.GET("", cfg.ReviewHandler.List)
			reviews.POST("", cfg.ReviewHandler.Upsert)
			reviews.GET("/mine", cfg.ReviewHandler.GetMine)
		}
	}

	// Dietitian-only administration.
	admin := protected.Group("/")
	if cfg.AuthMiddleware != nil {
		admin.Use(cfg.AuthMiddleware.RequireRole(types.RoleDietitian))
	}
	{
		if cfg.InvitationHandler != nil {
			admin.POST("/invitations", cfg.InvitationHandler.Invite)
		}
		if cfg.AccessHandler != nil {
			admin.POST("/access-grants", cfg.AccessHandler.Grant)
			admin.DELETE("/access-grants/:grantID", cfg.AccessHandler.Revoke)
		}
		if cfg.AuditHandler != nil {
			admin.GET("/users/:userID/audit-events", cfg.AuditHandler.ListForUser)
		}
	}

	return r
}
