package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/JangWoody/woody-service-back/pkg/jwt"
	"github.com/JangWoody/woody-service-back/pkg/response"
)

// 注入 gin.Context 的认证信息
const (
	ContextKeyRole      = "role"
	ContextKeyJTI       = "jti"
	ContextKeyExpiresAt = "token_expires_at"
)

// Blacklist Token 黑名单查询
type Blacklist interface {
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// JWTAuth JWT 认证中间件
// 从 Authorization: Bearer <token> 中提取并验证 Access Token
// blacklist 为 nil 或查询出错时跳过黑名单检查
func JWTAuth(jwtMgr *jwt.Manager, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.Unauthorized(c, response.CodeUnauthorized, "인증 헤더가 없습니다")
			c.Abort()
			return
		}

		if !authenticate(c, jwtMgr, blacklist, authHeader) {
			c.Abort()
			return
		}

		c.Next()
	}
}

// OptionalJWTAuth 可选认证：无认证头时按匿名学生放行，带了无效 Token 则拒绝
func OptionalJWTAuth(jwtMgr *jwt.Manager, blacklist Blacklist) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.Next()
			return
		}

		if !authenticate(c, jwtMgr, blacklist, authHeader) {
			c.Abort()
			return
		}

		c.Next()
	}
}

func authenticate(c *gin.Context, jwtMgr *jwt.Manager, blacklist Blacklist, authHeader string) bool {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		response.Unauthorized(c, response.CodeUnauthorized, "인증 헤더 형식이 올바르지 않습니다")
		return false
	}

	claims, err := jwtMgr.ParseToken(parts[1])
	if err != nil {
		response.Unauthorized(c, response.CodeUnauthorized, "토큰이 유효하지 않거나 만료되었습니다")
		return false
	}

	if blacklist != nil {
		revoked, err := blacklist.IsBlacklisted(c.Request.Context(), claims.ID)
		if err == nil && revoked {
			response.Unauthorized(c, response.CodeUnauthorized, "로그아웃된 토큰입니다")
			return false
		}
	}

	c.Set(ContextKeyRole, claims.Role)
	c.Set(ContextKeyJTI, claims.ID)
	if claims.ExpiresAt != nil {
		c.Set(ContextKeyExpiresAt, claims.ExpiresAt.Time)
	}
	return true
}

// RoleAuth 角色权限中间件
// 检查当前用户是否具有指定角色之一
func RoleAuth(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole := c.GetString(ContextKeyRole)
		if userRole == "" {
			response.Unauthorized(c, response.CodeUnauthorized, "로그인이 필요합니다")
			c.Abort()
			return
		}

		for _, r := range allowedRoles {
			if userRole == r {
				c.Next()
				return
			}
		}

		response.Forbidden(c, response.CodeForbidden, "접근 권한이 없습니다")
		c.Abort()
	}
}
