package routes

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/cppla/htmlsanitizer/config"
	"github.com/cppla/htmlsanitizer/controllers"
	"github.com/cppla/htmlsanitizer/middleware"
	"github.com/cppla/htmlsanitizer/templates"
	"github.com/cppla/htmlsanitizer/templatetags"
	"github.com/cppla/htmlsanitizer/utils"
)

// SetupRouter wires routes, middlewares, and controllers. rc may be nil to
// run without caching.
func SetupRouter(cfg config.AppConfig, db *gorm.DB, rc *redis.Client) (*gin.Engine, error) {
	switch strings.ToLower(cfg.GinMode) {
	case "debug":
		gin.SetMode(gin.DebugMode)
	case "test":
		gin.SetMode(gin.TestMode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	cleaner, err := cfg.Sanitizer.Cleaner()
	if err != nil {
		return nil, err
	}
	lib := templatetags.New(cfg.Sanitizer, cleaner)
	tpl, err := templates.Parse(lib.FuncMap())
	if err != nil {
		return nil, err
	}

	r := gin.New()
	r.SetHTMLTemplate(tpl)
	r.Use(middleware.RequestID())
	// Access logs go to their own rolling file
	gl, err := utils.NewRollingFileLogger(cfg.GinPath, cfg.LogLevel, utils.RotateOptions{
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
		Compress:   cfg.LogCompress,
	})
	if err == nil {
		r.Use(utils.Ginzap(gl, time.RFC3339, true))
		r.Use(utils.RecoveryWithZap(gl, false))
	} else {
		utils.Sugar.Warnf("gin access log disabled: %v", err)
		r.Use(utils.RecoveryWithZap(utils.Logger, false))
	}

	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Content-Type", middleware.RequestIDHeader},
		ExposeHeaders: []string{"Content-Length", middleware.RequestIDHeader},
		MaxAge:        12 * time.Hour,
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

	postController := controllers.NewPostController(db, lib, cleaner,
		utils.NewCache(rc, "cache:post:", time.Hour),
		utils.NewCache(rc, "cache:preview:", time.Hour),
	)
	limiter := middleware.NewIPRateLimiter(cfg.RateLimitPerMinute)

	r.GET("/posts/:id", postController.ShowPost)

	api := r.Group("/api/v1")
	api.GET("/posts", postController.ListPosts)
	api.GET("/posts/:id", postController.GetPost)

	writes := api.Group("")
	writes.Use(middleware.RateLimit(limiter))
	writes.POST("/posts", postController.CreatePost)
	writes.POST("/posts/:id/comments", postController.CreateComment)
	writes.POST("/preview", postController.Preview)

	r.NoRoute(func(ctx *gin.Context) {
		utils.Error(ctx, http.StatusNotFound, 40400, "route not found")
	})

	return r, nil
}
