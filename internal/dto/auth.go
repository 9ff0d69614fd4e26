package dto

// ── 老师认证 DTO ──

// LoginRequest 老师登录
type LoginRequest struct {
	Password string `json:"password" binding:"required"`
}

// LoginResponse 登录成功
type LoginResponse struct {
	Authenticated bool   `json:"authenticated"`
	AccessToken   string `json:"access_token"`
	ExpiresIn     int64  `json:"expires_in"` // 秒
}

// ChangePasswordRequest 修改老师密码
type ChangePasswordRequest struct {
	NewPassword string `json:"newPassword" binding:"required"`
}
