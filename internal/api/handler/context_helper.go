package handler

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/JangWoody/woody-service-back/internal/api/middleware"
	"github.com/JangWoody/woody-service-back/internal/service"
	apperrors "github.com/JangWoody/woody-service-back/pkg/errors"
	"github.com/JangWoody/woody-service-back/pkg/response"
)

// IsTutor 当前请求是否携带了有效的老师 Token
func IsTutor(c *gin.Context) bool {
	return c.GetString(middleware.ContextKeyRole) == service.TutorRole
}

// CurrentViewer 老师 Token 优先，否则按 studentName 识别学生
func CurrentViewer(c *gin.Context, studentName string) service.Viewer {
	if IsTutor(c) {
		return service.Viewer{Tutor: true}
	}
	return service.Viewer{StudentName: strings.TrimSpace(studentName)}
}

// MustGetTokenInfo 从 Gin 上下文中提取 jti 与过期时间
func MustGetTokenInfo(c *gin.Context) (string, time.Time, bool) {
	jti := c.GetString(middleware.ContextKeyJTI)
	if jti == "" {
		response.Unauthorized(c, response.CodeUnauthorized, "로그인이 필요합니다")
		return "", time.Time{}, false
	}
	exp := c.GetTime(middleware.ContextKeyExpiresAt)
	return jti, exp, true
}

// bindJSON 绑定请求体，失败时写入 400/413 响应
func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			response.Error(c, http.StatusRequestEntityTooLarge, response.CodeBodyTooLarge, "요청 본문이 너무 큽니다")
			return false
		}
		response.ErrorWithDetails(c, http.StatusBadRequest, response.CodeValidation, "요청 값이 올바르지 않습니다", err.Error())
		return false
	}
	return true
}

// handleCommonError 各模块共用的兜底错误映射
func handleCommonError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrValidation):
		response.BadRequest(c, response.CodeValidation, strings.TrimPrefix(err.Error(), service.ErrValidation.Error()+": "))
	case errors.Is(err, apperrors.ErrLockTimeout):
		response.ServiceBusy(c, "요청이 몰리고 있습니다. 잠시 후 다시 시도하세요")
	default:
		_ = c.Error(err)
		response.InternalError(c)
	}
}
