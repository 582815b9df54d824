package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/internal/api/middleware"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/response"
)

// codeInvalidParams 请求参数绑定 / 校验失败
const codeInvalidParams = 10000

// MustGetCaller 从 Gin 上下文中提取调用方身份。
// 如果 JWT 中间件未正确注入 user_id / role，返回 false 并写入 401 响应。
// 调用方应在 ok=false 时直接 return。
func MustGetCaller(c *gin.Context) (access.Caller, bool) {
	userID := c.GetString(middleware.CtxUserID)
	role := c.GetString(middleware.CtxRole)
	if userID == "" || role == "" {
		response.Unauthorized(c, 20000, "未认证")
		return access.Caller{}, false
	}
	return access.Caller{
		UserID:       userID,
		Role:         role,
		DepartmentID: c.GetString(middleware.CtxDepartmentID),
	}, true
}

// tokenIdentity 当前 Access Token 的 JTI 与过期时间
func tokenIdentity(c *gin.Context) (string, time.Time) {
	return c.GetString(middleware.CtxTokenJTI), c.GetTime(middleware.CtxTokenExp)
}

func badRequest(c *gin.Context) {
	response.BadRequest(c, codeInvalidParams, "参数校验失败")
}
