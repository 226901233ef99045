// internal/router/router.go
package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/tradebridge/ptt-backend/internal/config"
	"github.com/tradebridge/ptt-backend/internal/handlers"
	"github.com/tradebridge/ptt-backend/internal/middleware"
	"github.com/tradebridge/ptt-backend/internal/services"
	"github.com/tradebridge/ptt-backend/internal/utils"
)

func Initialize(db *gorm.DB, cfg *config.Config) *gin.Engine {
	// Initialize services
	notificationService := services.NewNotificationService(db, cfg)
	storageService := services.NewStorageService(cfg)

	roleAuthority := services.NewRoleAuthority(db)
	numberingService := services.NewNumberingService(db)
	lifecycleService := services.NewLifecycleService(db, roleAuthority, numberingService, notificationService)
	authService := services.NewAuthService(db, cfg)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	pttHandler := handlers.NewPTTHandler(lifecycleService)
	documentHandler := handlers.NewDocumentHandler(storageService)

	// Set JWT secret
	utils.SetJWTSecret(cfg.JWT.SecretKey)

	// Idempotent replay for lifecycle commands, enabled when Redis is configured
	idempotency := middleware.Idempotency(newRedisClient(cfg), time.Duration(cfg.Redis.IdempotencyTTL)*time.Minute)

	// Initialize Gin router
	r := gin.New()

	// Global middleware
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.CORS(cfg))
	r.Use(middleware.GeneralRateLimit())
	r.Use(middleware.AuditLogMiddleware(db))

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"version": "1.0.0",
		})
	})

	// API v1 routes
	v1 := r.Group("/api/v1")
	{
		// Authentication routes
		auth := v1.Group("/auth")
		auth.Use(middleware.AuthRateLimit())
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.GET("/me", middleware.AuthRequired(), authHandler.Me)
		}

		// Document upload
		documents := v1.Group("/documents")
		documents.Use(middleware.AuthRequired())
		{
			documents.POST("", documentHandler.Upload)
		}

		// PTT lifecycle routes
		ptt := v1.Group("/ptt")
		ptt.Use(middleware.AuthRequired())
		{
			ptt.GET("", pttHandler.List)
			ptt.GET("/:id", pttHandler.Get)

			commands := ptt.Group("")
			commands.Use(middleware.LifecycleRateLimit(), idempotency)
			{
				commands.POST("", pttHandler.Create)
				commands.POST("/:id/approve", pttHandler.Approve)
				commands.POST("/:id/transfer", pttHandler.Transfer)
				commands.POST("/:id/upload-documents", pttHandler.UploadDocuments)
				commands.POST("/:id/review-documents", pttHandler.ReviewDocuments)
				commands.POST("/:id/offer-discount", pttHandler.OfferDiscount)
				commands.POST("/:id/accept-discount", pttHandler.AcceptDiscount)
				commands.POST("/:id/settle", pttHandler.Settle)
			}
		}
	}

	return r
}

func newRedisClient(cfg *config.Config) *redis.Client {
	if cfg.Redis.Host == "" {
		return nil
	}
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Host + ":" + cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}
