package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/JangWoody/woody-service-back/config"
	"github.com/JangWoody/woody-service-back/internal/dto"
	"github.com/JangWoody/woody-service-back/pkg/jwt"
)

func newTestAuthService(t *testing.T) (*authService, *mockAdminCredentialRepo, *mockTokenStore, *jwt.Manager) {
	t.Helper()
	repo, _, _, creds := newMockRepository()
	jwtMgr := jwt.NewManager(&config.AuthConfig{
		JWTSecret:      "test-secret-key-for-unit-testing-2026",
		AccessTokenTTL: time.Hour,
	})
	tokens := newMockTokenStore()

	svc := NewAuthService(repo, jwtMgr, tokens, zap.NewNop()).(*authService)
	svc.hashCost = bcrypt.MinCost

	if err := svc.EnsureCredential(context.Background(), "1234"); err != nil {
		t.Fatalf("初始化密码失败: %v", err)
	}
	return svc, creds, tokens, jwtMgr
}

func TestLogin_Success(t *testing.T) {
	svc, _, _, jwtMgr := newTestAuthService(t)

	resp, err := svc.Login(context.Background(), &dto.LoginRequest{Password: "1234"})
	if err != nil {
		t.Fatalf("Login 失败: %v", err)
	}
	if !resp.Authenticated || resp.AccessToken == "" {
		t.Fatalf("登录响应错误: %+v", resp)
	}
	if resp.ExpiresIn != 3600 {
		t.Errorf("期望 expires_in=3600，实际=%d", resp.ExpiresIn)
	}

	claims, err := jwtMgr.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("Token 无法解析: %v", err)
	}
	if claims.Role != TutorRole {
		t.Errorf("期望 role=%s，实际=%s", TutorRole, claims.Role)
	}
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)

	_, err := svc.Login(context.Background(), &dto.LoginRequest{Password: "nope"})
	if !errors.Is(err, ErrInvalidPassword) {
		t.Fatalf("期望 ErrInvalidPassword，实际: %v", err)
	}
}

func TestEnsureCredential_KeepsExisting(t *testing.T) {
	svc, creds, _, _ := newTestAuthService(t)
	before := creds.cred.PasswordHash

	if err := svc.EnsureCredential(context.Background(), "other-password"); err != nil {
		t.Fatal(err)
	}
	if creds.cred.PasswordHash != before {
		t.Error("已有密码时不应覆盖")
	}
}

func TestChangePassword(t *testing.T) {
	svc, _, _, _ := newTestAuthService(t)
	ctx := context.Background()

	if err := svc.ChangePassword(ctx, &dto.ChangePasswordRequest{NewPassword: "abc"}); !errors.Is(err, ErrWeakPassword) {
		t.Fatalf("期望 ErrWeakPassword，实际: %v", err)
	}

	if err := svc.ChangePassword(ctx, &dto.ChangePasswordRequest{NewPassword: "woody"}); err != nil {
		t.Fatalf("修改密码失败: %v", err)
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Password: "1234"}); !errors.Is(err, ErrInvalidPassword) {
		t.Error("旧密码应失效")
	}
	if _, err := svc.Login(ctx, &dto.LoginRequest{Password: "woody"}); err != nil {
		t.Errorf("新密码应可登录: %v", err)
	}
}

func TestLogout_Blacklists(t *testing.T) {
	svc, _, tokens, _ := newTestAuthService(t)
	ctx := context.Background()

	if err := svc.Logout(ctx, "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if ok, _ := tokens.IsBlacklisted(ctx, "jti-1"); !ok {
		t.Error("登出后 Token 应在黑名单中")
	}
}

func TestLogout_WithoutStore(t *testing.T) {
	repo, _, _, _ := newMockRepository()
	svc := NewAuthService(repo, nil, nil, zap.NewNop())

	if err := svc.Logout(context.Background(), "jti-1", time.Now().Add(time.Hour)); err != nil {
		t.Errorf("无黑名单存储时登出应静默成功: %v", err)
	}
}
