package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/benimilla/Proyecto-Backend-centro-vinculacion-backend/pkg/response"
)

// DefaultBodyLimit 请求体默认上限 1MB
const DefaultBodyLimit int64 = 1 << 20

// BodyLimit 请求体大小限制
// Content-Length 已知且超限时直接拒绝；未知长度时由 MaxBytesReader 在读取时截断，
// 绑定失败会在 handler 中按参数错误返回
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}
		c.Next()
	}
}
