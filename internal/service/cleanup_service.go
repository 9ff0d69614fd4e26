package service

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/JangWoody/woody-service-back/internal/model"
	"github.com/JangWoody/woody-service-back/internal/repository"
)

// CleanupService 清理已过去且始终未被确认的申请
type CleanupService interface {
	// PurgeStalePending 删除 retention 天之前仍为 pending 的申请，返回删除条数
	PurgeStalePending(ctx context.Context) (int64, error)
	// Schedule 按 cron 表达式注册定时清理
	Schedule(c *cron.Cron, spec string) (cron.EntryID, error)
}

type cleanupService struct {
	repo          *repository.Repository
	guard         *TimeGuard
	retentionDays int
	logger        *zap.Logger
}

// NewCleanupService 创建 CleanupService 实例
func NewCleanupService(repo *repository.Repository, guard *TimeGuard, retentionDays int, logger *zap.Logger) CleanupService {
	return &cleanupService{repo: repo, guard: guard, retentionDays: retentionDays, logger: logger}
}

func (s *cleanupService) PurgeStalePending(ctx context.Context) (int64, error) {
	cutoff := s.guard.Now().AddDate(0, 0, -s.retentionDays).Format(model.DateLayout)

	stale, err := s.repo.Reservation.ListPendingBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("查询过期申请失败", zap.String("cutoff", cutoff), zap.Error(err))
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	ids := make([]string, 0, len(stale))
	for i := range stale {
		ids = append(ids, stale[i].ID)
	}

	n, err := s.repo.Reservation.DeleteByIDs(ctx, ids)
	if err != nil {
		s.logger.Error("删除过期申请失败", zap.Int("count", len(ids)), zap.Error(err))
		return 0, err
	}

	s.logger.Info("已清理过期申请", zap.String("cutoff", cutoff), zap.Int64("deleted", n))
	return n, nil
}

func (s *cleanupService) Schedule(c *cron.Cron, spec string) (cron.EntryID, error) {
	id, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, _ = s.PurgeStalePending(ctx)
	})
	if err != nil {
		return 0, fmt.Errorf("注册清理任务失败: %w", err)
	}
	return id, nil
}
