package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JangWoody/woody-service-back/pkg/response"
)

// BodyLimit 请求体大小限制
// 声明长度超限直接返回 413；未声明长度的请求在读取时由 MaxBytesReader 截断
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if maxBytes <= 0 {
			c.Next()
			return
		}

		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "요청 본문이 너무 큽니다")
			c.Abort()
			return
		}

		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
