package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/config"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/api/handler"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/internal/api/middleware"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/jwt"
	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// db 仅用于健康检查，可为 nil
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, db *gorm.DB, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(middleware.DefaultBodyLimit))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		status := gin.H{"status": "ok", "database": "ok", "redis": "disabled"}
		code := http.StatusOK

		if db != nil {
			if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.Request.Context()) != nil {
				status["status"] = "degraded"
				status["database"] = "unreachable"
				code = http.StatusServiceUnavailable
			}
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
	v1.Use(middleware.JWTAuth(jwtMgr, rdb))
	v1.Use(middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window))
	{
		// 活动模块
		activities := v1.Group("/activities")
		{
			activities.POST("", h.Activity.CreateActivity)
			activities.GET("", h.Activity.ListActivities)
			activities.POST("/complete-expired", middleware.RoleAuth("admin"), h.Activity.CompleteExpired)
			activities.GET("/:id", h.Activity.GetActivity)
			activities.PUT("/:id", h.Activity.UpdateActivity)
			activities.DELETE("/:id", h.Activity.DeleteActivity)
			activities.POST("/:id/cancel", h.Activity.CancelActivity)
			activities.POST("/:id/complete", h.Activity.CompleteActivity)
			activities.GET("/:id/calendar.ics", h.Activity.ExportCalendar)
		}

		// 预约模块
		appointments := v1.Group("/appointments")
		{
			appointments.POST("", h.Appointment.CreateAppointment)
			appointments.GET("", h.Appointment.ListAppointments)
			appointments.GET("/:id", h.Appointment.GetAppointment)
			appointments.PUT("/:id", h.Appointment.UpdateAppointment)
			appointments.DELETE("/:id", h.Appointment.DeleteAppointment)
			appointments.POST("/:id/cancel", h.Appointment.CancelAppointment)
		}

		// 场地模块（只读）
		places := v1.Group("/places")
		{
			places.GET("", h.Place.ListPlaces)
			places.GET("/:id", h.Place.GetPlace)
			places.GET("/:id/availability", h.Place.GetAvailability)
		}
	}

	return r
}
