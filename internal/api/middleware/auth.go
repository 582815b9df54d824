package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/mrbenboyy/gestion-pointage-backend/internal/access"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/jwt"
	"github.com/mrbenboyy/gestion-pointage-backend/pkg/response"
)

// 上下文键
const (
	CtxUserID       = "user_id"
	CtxRole         = "role"
	CtxDepartmentID = "department_id"
	CtxTokenJTI     = "token_jti"
	CtxTokenExp     = "token_exp"
)

const codeUnauthenticated = 20000

// TokenBlacklist 已注销 Token 查询，由 pkg/redis.Client 实现
type TokenBlacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// IdentityResolver 按用户 ID 读取当前角色与部门，由 service.AuthService 实现
type IdentityResolver interface {
	Identify(ctx context.Context, userID string) (access.Caller, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token。
// blacklist 为 nil 时（Redis 不可用）跳过黑名单检查。
// identities 非 nil 时角色与部门以数据库为准，Token 内的声明只用于定位用户。
func JWTAuth(jwtMgr *jwt.Manager, blacklist TokenBlacklist, identities IdentityResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, codeUnauthenticated, "缺少认证头")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.Unauthorized(c, codeUnauthenticated, "认证头格式无效")
			c.Abort()
			return
		}

		claims, err := jwtMgr.ParseToken(parts[1])
		if err != nil {
			response.Unauthorized(c, codeUnauthenticated, "Token 无效或已过期")
			c.Abort()
			return
		}

		if claims.TokenType != jwt.TokenTypeAccess {
			response.Unauthorized(c, codeUnauthenticated, "Token 类型无效")
			c.Abort()
			return
		}

		if blacklist != nil {
			revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
			// Redis 出错时降级放行
			if err == nil && revoked {
				response.Unauthorized(c, codeUnauthenticated, "Token 已注销")
				c.Abort()
				return
			}
		}

		caller := access.Caller{UserID: claims.UserID, Role: claims.Role, DepartmentID: claims.DepartmentID}
		if identities != nil {
			caller, err = identities.Identify(c.Request.Context(), claims.UserID)
			if err != nil {
				response.FromError(c, err)
				c.Abort()
				return
			}
		}

		// 将用户信息注入上下文
		c.Set(CtxUserID, caller.UserID)
		c.Set(CtxRole, caller.Role)
		c.Set(CtxDepartmentID, caller.DepartmentID)
		c.Set(CtxTokenJTI, claims.ID)
		if claims.ExpiresAt != nil {
			c.Set(CtxTokenExp, claims.ExpiresAt.Time)
		}

		c.Next()
	}
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(CtxRole)
		if userRole == "" {
			response.Unauthorized(c, codeUnauthenticated, "未认证")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, 10003, "无权限访问")
		c.Abort()
	}
}
