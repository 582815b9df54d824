package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	headerRequestID = "X-Request-ID"
	// CtxRequestID 当前请求的追踪 ID
	CtxRequestID = "request_id"
)

const requestIDMaxLen = 64

// RequestID 请求追踪 ID 中间件
// 沿用上游网关传入的 X-Request-ID，格式不合法时改用新的 UUID
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		rid := c.GetHeader(headerRequestID)
		if !validRequestID(rid) {
			rid = uuid.NewString()
		}

		c.Set(CtxRequestID, rid)
		c.Header(headerRequestID, rid)
		c.Next()
	}
}

// validRequestID 只接受字母、数字与 - _ . :，其余字符会污染日志
func validRequestID(rid string) bool {
	if rid == "" || len(rid) > requestIDMaxLen {
		return false
	}
	for i := 0; i < len(rid); i++ {
		ch := rid[i]
		switch {
		case ch >= 'a' && ch <= 'z', ch >= 'A' && ch <= 'Z', ch >= '0' && ch <= '9':
		case ch == '-' || ch == '_' || ch == '.' || ch == ':':
		default:
			return false
		}
	}
	return true
}
