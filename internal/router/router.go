package router

import (
	"fmt"
	"strings"

	"github.com/orderdesk/orderdesk/internal/cache"
	"github.com/orderdesk/orderdesk/internal/config"
	"github.com/orderdesk/orderdesk/internal/constants"
	opshandlers "github.com/orderdesk/orderdesk/internal/http/handlers/ops"
	"github.com/orderdesk/orderdesk/internal/logger"
	"github.com/orderdesk/orderdesk/internal/provider"

	"github.com/gin-gonic/gin"
)

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	opsHandler := opshandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "od"
	}
	redisClient := cache.Client()
	apiRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:api", redisPrefix),
		WindowSeconds: cfg.Security.APIRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.APIRateLimit.MaxRequests,
	}
	loginRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:login", redisPrefix),
		WindowSeconds: cfg.Security.LoginRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.LoginRateLimit.MaxRequests,
	}

	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group("/api/v1")
	{
		ops := apiV1.Group("/ops")
		{
			ops.POST("/login", RateLimitMiddleware(redisClient, loginRule, KeyByIPAndJSONField("username")), opsHandler.Login)

			authorized := ops.Group("")
			authorized.Use(
				StaffJWTMiddleware(c.AuthService, c.UserRepo),
				RateLimitMiddleware(redisClient, apiRule, KeyByIP),
			)
			{
				agent := authorized.Group("")
				agent.Use(RequireRole(constants.StaffRoleAgent))
				{
					agent.POST("/orders", opsHandler.CreateOrder)
					agent.GET("/orders", opsHandler.ListOrders)
					agent.GET("/orders/:id", opsHandler.GetOrder)
					agent.POST("/orders/:id/status", opsHandler.TransitionOrder)
					agent.POST("/orders/:id/confirm", opsHandler.ConfirmOrder)
					agent.POST("/orders/:id/attempts", opsHandler.LogAttempt)
					agent.GET("/pricing/:wilaya", opsHandler.GetPricing)
				}

				// 手动补同步仅限 manager
				manager := authorized.Group("")
				manager.Use(RequireRole())
				{
					manager.POST("/orders/:id/sync", opsHandler.SyncOrder)
				}
			}
		}
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
