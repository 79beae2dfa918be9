// internal/router/router.go
package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"gorm.io/gorm"

	"github.com/javajoker/ideamarket-backend/internal/config"
	"github.com/javajoker/ideamarket-backend/internal/handlers"
	"github.com/javajoker/ideamarket-backend/internal/metrics"
	"github.com/javajoker/ideamarket-backend/internal/middleware"
	"github.com/javajoker/ideamarket-backend/internal/realtime"
	"github.com/javajoker/ideamarket-backend/internal/services"
)

const version = "1.0.0"

func Initialize(db *gorm.DB, cfg *config.Config, broker realtime.Broker, registry *prometheus.Registry) (*gin.Engine, error) {
	collector := metrics.NewCollector(registry)

	// Initialize services
	storageService, err := services.NewStorageService(cfg)
	if err != nil {
		return nil, err
	}
	mailService := services.NewMailService(cfg)
	accessService := services.NewAccessService(db)
	notificationService := services.NewNotificationService(db, broker, collector)
	userService := services.NewUserService(db)

	authService := services.NewAuthService(db, cfg, mailService)
	ideaService := services.NewIdeaService(db, storageService, broker, accessService)
	purchaseService := services.NewPurchaseService(db, notificationService, userService, broker, collector, cfg.I18n.DefaultLocale)
	commentService := services.NewCommentService(db, broker)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService)
	ideaHandler := handlers.NewIdeaHandler(ideaService, purchaseService, commentService)
	purchaseHandler := handlers.NewPurchaseHandler(purchaseService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	realtimeHandler := handlers.NewRealtimeHandler(broker, purchaseService, cfg.Realtime.Heartbeat)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics(collector))
	r.Use(middleware.CORS(cfg.Server.AllowedOrigins))
	r.Use(middleware.I18nMiddleware())
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		status := http.StatusOK
		state := "healthy"
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status = http.StatusServiceUnavailable
			state = "degraded"
		}
		c.JSON(status, gin.H{
			"status":  state,
			"version": version,
		})
	})

	r.GET("/metrics", gin.WrapH(metrics.Handler(registry)))

	if cfg.Server.ServeUploads && cfg.AWS.AccessKeyID == "" {
		r.Static("/uploads", cfg.Server.UploadsDir)
	}

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/signup", authHandler.SignUp)
			auth.POST("/signin", authHandler.SignIn)
			auth.POST("/signout", middleware.AuthRequired(), authHandler.SignOut)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/otp/send", authHandler.SendOneTimeCode)
			auth.POST("/otp/verify", authHandler.VerifyOneTimeCode)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// User routes
		users := v1.Group("/users")
		{
			protected := users.Group("/me")
			protected.Use(middleware.AuthRequired())
			{
				protected.PUT("/display-name", userHandler.UpdateDisplayName)
				protected.GET("/terms", userHandler.GetTermsAgreement)
				protected.POST("/terms", userHandler.SaveTermsAgreement)
			}

			users.GET("/:id", middleware.OptionalAuth(), userHandler.GetUser)
		}

		// Idea routes
		ideas := v1.Group("/ideas")
		{
			ideas.GET("", middleware.OptionalAuth(), ideaHandler.ListIdeas)
			ideas.GET("/categories", middleware.OptionalAuth(), ideaHandler.Categories)
			ideas.GET("/:id", middleware.OptionalAuth(), ideaHandler.GetIdea)
			ideas.GET("/:id/purchase-requests/count", ideaHandler.CountPendingRequests)
			ideas.GET("/:id/comments", middleware.OptionalAuth(), ideaHandler.ListComments)

			// Authenticated routes
			protected := ideas.Group("")
			protected.Use(middleware.AuthRequired())
			{
				protected.GET("/mine", ideaHandler.ListMyIdeas)
				protected.POST("", middleware.WriteRateLimit(), ideaHandler.CreateIdea)
				protected.PUT("/:id", middleware.WriteRateLimit(), ideaHandler.UpdateIdea)
				protected.DELETE("/:id", ideaHandler.DeleteIdea)
				protected.GET("/:id/purchase-requests/mine", ideaHandler.MyRequestStatus)
				protected.POST("/:id/comments", middleware.WriteRateLimit(), ideaHandler.CreateComment)
			}
		}

		// Purchase request routes
		purchases := v1.Group("/purchase-requests")
		purchases.Use(middleware.AuthRequired())
		{
			purchases.POST("", middleware.WriteRateLimit(), purchaseHandler.CreateRequest)
			purchases.GET("/sent", purchaseHandler.ListSent)
			purchases.GET("/received", purchaseHandler.ListReceived)
			purchases.GET("/purchased", purchaseHandler.ListPurchased)
			purchases.GET("/:id", purchaseHandler.GetRequest)
			purchases.PUT("/:id/confirm-payment", purchaseHandler.ConfirmPayment)
			purchases.PUT("/:id/approve", purchaseHandler.Approve)
			purchases.PUT("/:id/reject", purchaseHandler.Reject)
		}

		// Notification routes
		notifications := v1.Group("/notifications")
		notifications.Use(middleware.AuthRequired())
		{
			notifications.GET("", notificationHandler.List)
			notifications.GET("/unread-count", notificationHandler.UnreadCount)
			notifications.PUT("/read-all", notificationHandler.MarkAllRead)
			notifications.PUT("/:id/read", notificationHandler.MarkRead)
		}

		// Realtime routes
		v1.GET("/realtime/:table", middleware.AuthRequired(), realtimeHandler.Stream)
	}

	return r, nil
}
