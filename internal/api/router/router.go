package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mrbenboyy/gestion-pointage-backend/config"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/api/handler"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/api/middleware"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/jwt"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/redis"
)

// allow 按操作生成角色中间件，角色表由 access 包统一维护
func allow(action access.Action) gin.HandlerFunc {
	return middleware.RoleAuth(access.RolesFor(action)...)
}

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时黑名单与限流降级关闭；identities 为 nil 时角色与部门取自 Token
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, identities middleware.IdentityResolver, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	// 避免把 nil *redis.Client 装进接口
	var (
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if rdb != nil {
		blacklist = rdb
		limiter = rdb
	}

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger, "/health"))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "redis": rdb != nil})
	})

	rateLimit := middleware.RateLimit(limiter, cfg.Auth.RateLimit.Limit, cfg.Auth.RateLimit.Window)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", rateLimit, h.Auth.Login)
			auth.POST("/refresh", rateLimit, h.Auth.RefreshToken)
			auth.POST("/forgot-password", rateLimit, h.Auth.ForgotPassword)
			auth.POST("/reset-password/:token", rateLimit, h.Auth.ResetPassword)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, blacklist, identities))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.Me)
			authorized.PUT("/auth/password", h.Auth.ChangePassword)

			// 用户模块（仅 admin）
			users := authorized.Group("/users", allow(access.ActionUserManage))
			{
				users.GET("", h.User.ListUsers)
				users.GET("/:id", h.User.GetUser)
				users.POST("", h.User.CreateUser)
				users.PUT("/:id", h.User.UpdateUser)
				users.DELETE("/:id", h.User.DeleteUser)
			}

			// 部门模块
			departments := authorized.Group("/departments")
			{
				departments.GET("", allow(access.ActionDepartmentRead), h.Department.ListDepartments)
				departments.GET("/:id", allow(access.ActionDepartmentRead), h.Department.GetDepartment)
				departments.POST("", allow(access.ActionDepartmentManage), h.Department.CreateDepartment)
				departments.PUT("/:id", allow(access.ActionDepartmentManage), h.Department.UpdateDepartment)
				departments.PUT("/:id/manager", allow(access.ActionDepartmentManage), h.Department.AssignManager)
				departments.DELETE("/:id", allow(access.ActionDepartmentManage), h.Department.DeleteDepartment)
			}

			// 员工模块（部门范围在 Service 层校验）
			employees := authorized.Group("/employees")
			{
				employees.GET("", allow(access.ActionEmployeeRead), h.Employee.ListEmployees)
				employees.GET("/:id", allow(access.ActionEmployeeRead), h.Employee.GetEmployee)
				employees.POST("", allow(access.ActionEmployeeWrite), h.Employee.CreateEmployee)
				employees.PUT("/:id", allow(access.ActionEmployeeWrite), h.Employee.UpdateEmployee)
				employees.DELETE("/:id", allow(access.ActionEmployeeWrite), h.Employee.DeleteEmployee)
			}

			// 缺勤原因模块
			reasons := authorized.Group("/absence-reasons")
			{
				reasons.GET("", allow(access.ActionReasonRead), h.AbsenceReason.ListReasons)
				reasons.GET("/:id", allow(access.ActionReasonRead), h.AbsenceReason.GetReason)
				reasons.POST("", allow(access.ActionReasonWrite), h.AbsenceReason.CreateReason)
				reasons.PUT("/:id", allow(access.ActionReasonWrite), h.AbsenceReason.UpdateReason)
				reasons.DELETE("/:id", allow(access.ActionReasonWrite), h.AbsenceReason.DeleteReason)
			}

			// 考勤模块
			attendances := authorized.Group("/attendances")
			{
				attendances.GET("", allow(access.ActionAttendanceRead), h.Attendance.ListAttendances)
				attendances.POST("", allow(access.ActionAttendanceRecord), h.Attendance.RecordAttendance)
			}

			// 请假模块
			leaves := authorized.Group("/leaves")
			{
				leaves.GET("", allow(access.ActionLeaveRead), h.Leave.ListLeaves)
				leaves.GET("/:id", allow(access.ActionLeaveRead), h.Leave.GetLeave)
				leaves.POST("", allow(access.ActionLeaveRequest), h.Leave.CreateLeave)
				leaves.PUT("/:id", allow(access.ActionLeaveRequest), h.Leave.UpdateLeave)
				leaves.DELETE("/:id", allow(access.ActionLeaveRequest), h.Leave.DeleteLeave)
				leaves.PUT("/:id/approval", allow(access.ActionLeaveApprove), h.Leave.ApproveLeave)
			}

			// 统计模块
			stats := authorized.Group("/stats")
			{
				stats.GET("/admin", allow(access.ActionStatsAdmin), h.Stats.AdminStats)
				stats.GET("/manager", allow(access.ActionStatsManager), h.Stats.ManagerStats)
				stats.GET("/supervisor", allow(access.ActionStatsSupervisor), h.Stats.SupervisorStats)
			}

			// 导出模块
			export := authorized.Group("/export", allow(access.ActionExport))
			{
				export.GET("/attendances", h.Export.ExportAttendance)
				export.GET("/leaves", h.Export.ExportLeaves)
			}
		}
	}

	return r
}
