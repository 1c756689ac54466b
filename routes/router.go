package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wisesobriety/wisesober/articles"
	"github.com/wisesobriety/wisesober/config"
	"github.com/wisesobriety/wisesober/controllers"
	"github.com/wisesobriety/wisesober/middleware"
	"github.com/wisesobriety/wisesober/storage"
	"github.com/wisesobriety/wisesober/utils"
)

// SetupRouter wires routes, middlewares, and controllers.
func SetupRouter(store *storage.CheckInStore, queue *storage.EnrichmentQueue, articleSvc *articles.Service) *gin.Engine {
	cfg := config.Get()
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", func(ctx *gin.Context) {
		utils.Success(ctx, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	checkInController := controllers.NewCheckInController(store, queue)
	achievementController := controllers.NewAchievementController(store)
	articleController := controllers.NewArticleController(articleSvc)

	api := r.Group("/api/v1")
	api.Use(middleware.RateLimit())

	// The mobile client may check in before sign-in completes; anonymous
	// submissions land under the sentinel user.
	checkins := api.Group("/checkins")
	checkins.Use(middleware.AuthOptional())
	checkins.POST("", checkInController.Create)
	checkins.GET("", checkInController.List)
	checkins.GET("/stats", checkInController.Stats)
	checkins.GET("/export", checkInController.Export)
	checkins.POST("/import", checkInController.Import)
	checkins.POST("/regenerate-summaries", checkInController.RegenerateSummaries)
	checkins.DELETE("/:id", checkInController.Delete)

	api.GET("/achievements", middleware.AuthOptional(), achievementController.List)
	api.GET("/articles", articleController.List)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r
}
