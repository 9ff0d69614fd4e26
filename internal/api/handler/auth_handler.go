package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JangWoody/woody-service-back/internal/dto"
	"github.com/JangWoody/woody-service-back/internal/service"
	"github.com/JangWoody/woody-service-back/pkg/response"
)

// AuthHandler 老师认证 HTTP 处理器
type AuthHandler struct {
	authSvc service.AuthService
}

// NewAuthHandler 创建 AuthHandler
func NewAuthHandler(authSvc service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// Login 老师登录
// POST /api/reservation/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.authSvc.Login(c.Request.Context(), &req)
	if err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, result)
}

// ChangePassword 修改老师密码
// POST /api/reservation/password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req dto.ChangePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.authSvc.ChangePassword(c.Request.Context(), &req); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.OK(c, nil)
}

// Logout 吊销当前 Token
// POST /api/reservation/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	jti, exp, ok := MustGetTokenInfo(c)
	if !ok {
		return
	}

	if err := h.authSvc.Logout(c.Request.Context(), jti, exp); err != nil {
		h.handleAuthError(c, err)
		return
	}

	response.NoContent(c)
}

func (h *AuthHandler) handleAuthError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidPassword):
		response.Error(c, http.StatusUnauthorized, 11001, "비밀번호가 올바르지 않습니다")
	case errors.Is(err, service.ErrWeakPassword):
		response.BadRequest(c, 11002, "새 비밀번호는 4자 이상이어야 합니다")
	default:
		handleCommonError(c, err)
	}
}
