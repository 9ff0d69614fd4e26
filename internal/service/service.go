package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/JangWoody/woody-service-back/config"
	"github.com/JangWoody/woody-service-back/internal/model"
	"github.com/JangWoody/woody-service-back/internal/repository"
	"github.com/JangWoody/woody-service-back/pkg/jwt"
	"github.com/JangWoody/woody-service-back/pkg/lock"
)

// ErrValidation 输入校验失败的公共类别，具体错误以 %w 包装它
var ErrValidation = errors.New("요청 값이 올바르지 않습니다")

// TokenStore Token 黑名单存储（Redis 实现）
type TokenStore interface {
	BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error
	IsBlacklisted(ctx context.Context, jti string) (bool, error)
}

// Viewer 查询方身份：老师看到全部，学生只看到自己的预约
type Viewer struct {
	Tutor       bool
	StudentName string
}

// Deps Service 构造所需的外部依赖
type Deps struct {
	Config *config.Config
	Repo   *repository.Repository
	JWT    *jwt.Manager
	Locker lock.Locker
	Tokens TokenStore // 可为 nil，Redis 不可用时登出退化为客户端丢弃 Token
	Clock  func() time.Time
	Logger *zap.Logger
}

// Service 所有 Service 的聚合入口
type Service struct {
	Student     StudentService
	Reservation ReservationService
	Auth        AuthService
	Export      ExportService
	Cleanup     CleanupService
}

// NewService 创建 Service 聚合
func NewService(d Deps) (*Service, error) {
	loc, err := d.Config.Booking.Location()
	if err != nil {
		return nil, err
	}
	clock := d.Clock
	if clock == nil {
		clock = time.Now
	}

	guard := NewTimeGuard(loc, clock)
	hours := model.SlotHours{Open: d.Config.Booking.OpenHour, Close: d.Config.Booking.CloseHour}

	students := NewStudentService(d.Repo, d.Logger)
	reservations := NewReservationService(ReservationDeps{
		Repo:     d.Repo,
		Students: students,
		Guard:    guard,
		Hours:    hours,
		Locker:   d.Locker,
		LockWait: d.Config.Booking.LockWait,
		Logger:   d.Logger,
	})

	return &Service{
		Student:     students,
		Reservation: reservations,
		Auth:        NewAuthService(d.Repo, d.JWT, d.Tokens, d.Logger),
		Export:      NewExportService(d.Repo, guard, hours, d.Logger),
		Cleanup:     NewCleanupService(d.Repo, guard, d.Config.Cleanup.RetentionDays, d.Logger),
	}, nil
}
