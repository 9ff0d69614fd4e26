package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/JangWoody/woody-service-back/internal/dto"
	"github.com/JangWoody/woody-service-back/internal/model"
	"github.com/JangWoody/woody-service-back/internal/repository"
	"github.com/JangWoody/woody-service-back/pkg/jwt"
)

var (
	ErrInvalidPassword     = errors.New("密码错误")
	ErrWeakPassword        = errors.New("新密码至少需要 4 个字符")
	ErrCredentialMissing   = errors.New("老师密码未初始化")
	ErrTokenRevokeDisabled = errors.New("Token 黑名单不可用")
)

const (
	// TutorRole 老师角色，写入 Token 的 role 声明
	TutorRole      = "tutor"
	tutorSubject   = "tutor"
	minPasswordLen = 4
)

// AuthService 老师认证业务接口
type AuthService interface {
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error)
	ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) error
	// Logout 将 Token 加入黑名单直到其自然过期
	Logout(ctx context.Context, jti string, expiresAt time.Time) error
	// EnsureCredential 首次启动时写入初始密码，已存在则不变
	EnsureCredential(ctx context.Context, initialPassword string) error
}

type authService struct {
	repo     *repository.Repository
	jwtMgr   *jwt.Manager
	tokens   TokenStore
	hashCost int
	logger   *zap.Logger
}

// NewAuthService 创建 AuthService 实例，tokens 为 nil 时登出不入黑名单
func NewAuthService(
	repo *repository.Repository,
	jwtMgr *jwt.Manager,
	tokens TokenStore,
	logger *zap.Logger,
) AuthService {
	return &authService{
		repo:     repo,
		jwtMgr:   jwtMgr,
		tokens:   tokens,
		hashCost: bcrypt.DefaultCost,
		logger:   logger,
	}
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.LoginResponse, error) {
	// 1. 读取密码哈希
	cred, err := s.repo.AdminCredential.Get(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("老师密码未初始化")
			return nil, ErrCredentialMissing
		}
		s.logger.Error("查询老师密码失败", zap.Error(err))
		return nil, err
	}

	// 2. 校验密码 (bcrypt)
	if err := bcrypt.CompareHashAndPassword([]byte(cred.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("老师登录失败：密码错误")
		return nil, ErrInvalidPassword
	}

	// 3. 签发 Token
	token, err := s.jwtMgr.GenerateAccessToken(tutorSubject, TutorRole)
	if err != nil {
		s.logger.Error("生成 AccessToken 失败", zap.Error(err))
		return nil, err
	}

	s.logger.Info("老师登录成功")
	return &dto.LoginResponse{
		Authenticated: true,
		AccessToken:   token,
		ExpiresIn:     int64(s.jwtMgr.AccessTokenTTL().Seconds()),
	}, nil
}

func (s *authService) ChangePassword(ctx context.Context, req *dto.ChangePasswordRequest) error {
	if len([]rune(req.NewPassword)) < minPasswordLen {
		return ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), s.hashCost)
	if err != nil {
		s.logger.Error("密码哈希失败", zap.Error(err))
		return err
	}

	if err := s.repo.AdminCredential.UpdatePasswordHash(ctx, string(hash)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCredentialMissing
		}
		s.logger.Error("更新老师密码失败", zap.Error(err))
		return err
	}

	s.logger.Info("老师密码已修改")
	return nil
}

func (s *authService) Logout(ctx context.Context, jti string, expiresAt time.Time) error {
	if s.tokens == nil {
		s.logger.Warn("Redis 不可用，Token 未加入黑名单", zap.String("jti", jti))
		return nil
	}
	if err := s.tokens.BlacklistToken(ctx, jti, time.Until(expiresAt)); err != nil {
		s.logger.Error("Token 加入黑名单失败", zap.String("jti", jti), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrTokenRevokeDisabled, err)
	}
	return nil
}

func (s *authService) EnsureCredential(ctx context.Context, initialPassword string) error {
	if len([]rune(initialPassword)) < minPasswordLen {
		return fmt.Errorf("初始密码无效: %w", ErrWeakPassword)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(initialPassword), s.hashCost)
	if err != nil {
		return err
	}

	created, err := s.repo.AdminCredential.CreateIfAbsent(ctx, &model.AdminCredential{PasswordHash: string(hash)})
	if err != nil {
		s.logger.Error("初始化老师密码失败", zap.Error(err))
		return err
	}
	if created {
		s.logger.Info("已写入初始老师密码")
	}
	return nil
}
