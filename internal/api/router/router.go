package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"matriz-curricular/backend/config"
	"matriz-curricular/backend/internal/api/handler"
	"matriz-curricular/backend/internal/api/middleware"
	"matriz-curricular/backend/pkg/jwt"
	"matriz-curricular/backend/pkg/redis"
)

// multipartOverhead leaves room for the form boundary and fields around the file.
const multipartOverhead = 1 << 20

// Setup builds the Gin engine.
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── global middleware ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))

	// ── health ──
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK
		if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
			status["status"], status["database"] = "degraded", "unreachable"
			code = http.StatusServiceUnavailable
		}
		if rdb != nil {
			status["redis"] = "ok"
			if err := rdb.Ping(c.Request.Context()); err != nil {
				status["redis"] = "unreachable"
			}
		}
		c.JSON(code, status)
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		matrices := v1.Group("/matrices/:id")
		{
			matrices.GET("", h.Matrix.GetMatrix)
			matrices.GET("/entries", h.Matrix.ListEntries)
			matrices.GET("/export", h.Matrix.ExportMatrix)
			matrices.GET("/calendar.ics", h.Matrix.CalendarFeed)

			imports := matrices.Group("/import")
			imports.Use(
				middleware.BodyLimit(cfg.Import.MaxUploadBytes+multipartOverhead),
				middleware.RateLimit(rdb, cfg.Server.RateLimit.ImportRequests, cfg.Server.RateLimit.Window),
			)
			{
				imports.POST("/dry-run", h.MatrixImport.DryRun)
				imports.POST("/apply", h.MatrixImport.Apply)
			}
		}
	}

	return r
}
