package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/JangWoody/woody-service-back/config"
	"github.com/JangWoody/woody-service-back/internal/api/handler"
	"github.com/JangWoody/woody-service-back/internal/api/middleware"
	"github.com/JangWoody/woody-service-back/internal/service"
	"github.com/JangWoody/woody-service-back/pkg/jwt"
)

// Setup 初始化并返回 Gin 路由引擎
// blacklist 与 limiter 可为 nil（未启用 Redis）
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, blacklist middleware.Blacklist, limiter middleware.RateLimiter, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	tutorOnly := []gin.HandlerFunc{middleware.JWTAuth(jwtMgr, blacklist), middleware.RoleAuth(service.TutorRole)}
	optional := middleware.OptionalJWTAuth(jwtMgr, blacklist)

	api := r.Group("/api/reservation")
	{
		// 预约模块（学生按姓名操作，老师 Token 可选）
		schedules := api.Group("/schedules")
		{
			schedules.GET("", optional, h.Reservation.List)
			schedules.GET("/board", h.Reservation.Board)
			schedules.GET("/slots", h.Reservation.Slots)
			schedules.POST("", h.Reservation.Create)
			schedules.POST("/toggle", h.Reservation.Toggle)
			schedules.DELETE("/:id", optional, h.Reservation.Delete)
			schedules.POST("/:id/confirm", append(tutorOnly, h.Reservation.Confirm)...)
		}

		// 学生名单（仅老师）
		students := api.Group("/students", tutorOnly...)
		{
			students.GET("", h.Student.List)
			students.POST("", h.Student.Create)
			students.DELETE("/:id", h.Student.Delete)
		}

		// 老师认证
		api.POST("/login", middleware.RateLimit(limiter, cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow), h.Auth.Login)
		api.POST("/password", append(tutorOnly, h.Auth.ChangePassword)...)
		api.POST("/logout", append(tutorOnly, h.Auth.Logout)...)

		// 导出
		api.GET("/export/schedules.xlsx", append(tutorOnly, h.Export.ExportWorkbook)...)
		api.GET("/calendar.ics", optional, h.Export.CalendarFeed)
	}

	return r
}
