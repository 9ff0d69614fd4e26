package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/JangWoody/woody-service-back/internal/dto"
	"github.com/JangWoody/woody-service-back/internal/model"
	"github.com/JangWoody/woody-service-back/internal/repository"
	"github.com/JangWoody/woody-service-back/pkg/lock"
)

// ── 预约模块业务错误 ──

var (
	ErrReservationNotFound = errors.New("预约不存在")
	ErrUnregisteredStudent = errors.New("学生未登记，请先联系老师")
	ErrDuplicateRequest    = errors.New("已申请过该时段")
	ErrPastSlot            = errors.New("该时段已过去")
	ErrSlotClosed          = errors.New("该时段已被确认，无法申请")
	ErrAlreadyClosed       = errors.New("该时段已确认了其他学生")
	ErrNotOwner            = errors.New("只能取消自己的预约")

	ErrInvalidDate     = fmt.Errorf("%w: 날짜는 YYYY-MM-DD 형식이어야 합니다", ErrValidation)
	ErrInvalidSlotTime = fmt.Errorf("%w: 예약 가능한 시간이 아닙니다", ErrValidation)
	ErrInvalidRange    = fmt.Errorf("%w: 시작일이 종료일보다 늦을 수 없습니다", ErrValidation)
)

// ReservationService 预约引擎与查询接口
type ReservationService interface {
	// CreateRequest 学生申请时段，成功后为 pending
	CreateRequest(ctx context.Context, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error)
	// CancelRequest 学生取消自己的预约（含已确认）
	CancelRequest(ctx context.Context, id, studentName string) error
	// Confirm 老师确认一条申请，同槽位其他申请全部移除
	Confirm(ctx context.Context, id string) (*dto.ConfirmReservationResponse, error)
	// AdminDelete 老师删除任意预约，不受时间限制
	AdminDelete(ctx context.Context, id string) error
	// ToggleRequest 已申请则取消，否则申请
	ToggleRequest(ctx context.Context, req *dto.CreateReservationRequest) (*dto.ToggleReservationResponse, error)

	ListForViewer(ctx context.Context, viewer Viewer, req *dto.ReservationListRequest) ([]dto.ReservationResponse, error)
	SlotBoard(ctx context.Context, req *dto.ReservationListRequest) ([]dto.SlotSummary, error)
	OpeningSlots() []model.SlotTime
}

// ReservationDeps 预约引擎依赖
type ReservationDeps struct {
	Repo     *repository.Repository
	Students StudentService
	Guard    *TimeGuard
	Hours    model.SlotHours
	Locker   lock.Locker
	LockWait time.Duration
	Logger   *zap.Logger
}

type reservationService struct {
	repo     *repository.Repository
	students StudentService
	guard    *TimeGuard
	hours    model.SlotHours
	locker   lock.Locker
	lockWait time.Duration
	logger   *zap.Logger
}

// NewReservationService 创建 ReservationService 实例
func NewReservationService(d ReservationDeps) ReservationService {
	locker := d.Locker
	if locker == nil {
		locker = lock.NewLocal()
	}
	return &reservationService{
		repo:     d.Repo,
		students: d.Students,
		guard:    d.Guard,
		hours:    d.Hours,
		locker:   locker,
		lockWait: d.LockWait,
		logger:   d.Logger,
	}
}

// slotRequest 校验后的申请参数
type slotRequest struct {
	studentName string
	slot        model.SlotKey
}

// ────────────────────── CreateRequest ──────────────────────

func (s *reservationService) CreateRequest(ctx context.Context, req *dto.CreateReservationRequest) (*dto.ReservationResponse, error) {
	in, err := s.parseSlotRequest(req)
	if err != nil {
		return nil, err
	}

	var created *model.Reservation
	err = s.withSlotLock(ctx, in.slot, func() error {
		created, err = s.createLocked(ctx, in)
		return err
	})
	if err != nil {
		return nil, err
	}

	return toReservationResponse(created), nil
}

func (s *reservationService) createLocked(ctx context.Context, in slotRequest) (*model.Reservation, error) {
	// 时间检查先于名册检查
	if s.guard.IsPast(in.slot.Date, in.slot.Time) {
		return nil, ErrPastSlot
	}

	registered, err := s.students.IsRegistered(ctx, in.studentName)
	if err != nil {
		s.logger.Error("查询学生名册失败", zap.String("student", in.studentName), zap.Error(err))
		return nil, err
	}
	if !registered {
		return nil, ErrUnregisteredStudent
	}

	onSlot, err := s.repo.Reservation.FindBySlot(ctx, in.slot.Date, in.slot.Time)
	if err != nil {
		s.logger.Error("查询槽位失败", zap.Stringer("slot", in.slot), zap.Error(err))
		return nil, err
	}
	if confirmedOf(onSlot) != nil {
		return nil, ErrSlotClosed
	}

	if _, err := s.repo.Reservation.FindByKey(ctx, in.slot.Date, in.slot.Time, in.studentName); err == nil {
		return nil, ErrDuplicateRequest
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询预约失败", zap.Stringer("slot", in.slot), zap.Error(err))
		return nil, err
	}

	res := &model.Reservation{
		StudentName: in.studentName,
		Date:        in.slot.Date,
		Time:        in.slot.Time,
	}
	if err := s.repo.Reservation.Insert(ctx, res); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateRequest
		}
		s.logger.Error("写入预约失败", zap.Stringer("slot", in.slot), zap.Error(err))
		return nil, err
	}

	s.logger.Info("预约已申请",
		zap.String("id", res.ID),
		zap.String("student", res.StudentName),
		zap.Stringer("slot", in.slot),
	)
	return res, nil
}

// ────────────────────── CancelRequest ──────────────────────

func (s *reservationService) CancelRequest(ctx context.Context, id, studentName string) error {
	name := strings.TrimSpace(studentName)
	if name == "" {
		return ErrEmptyName
	}

	slot, err := s.slotOf(ctx, id)
	if err != nil {
		return err
	}

	return s.withSlotLock(ctx, slot, func() error {
		res, err := s.findByID(ctx, id)
		if err != nil {
			return err
		}
		if res.StudentName != name {
			return ErrNotOwner
		}
		return s.cancelLocked(ctx, res)
	})
}

func (s *reservationService) cancelLocked(ctx context.Context, res *model.Reservation) error {
	if s.guard.IsPast(res.Date, res.Time) {
		return ErrPastSlot
	}

	if err := s.repo.Reservation.DeleteByID(ctx, res.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrReservationNotFound
		}
		s.logger.Error("取消预约失败", zap.String("id", res.ID), zap.Error(err))
		return err
	}

	s.logger.Info("预约已取消",
		zap.String("id", res.ID),
		zap.String("student", res.StudentName),
		zap.String("status", string(res.Status)),
	)
	return nil
}

// ────────────────────── Confirm ──────────────────────

func (s *reservationService) Confirm(ctx context.Context, id string) (*dto.ConfirmReservationResponse, error) {
	slot, err := s.slotOf(ctx, id)
	if err != nil {
		return nil, err
	}

	var (
		confirmed *model.Reservation
		evicted   int64
	)
	err = s.withSlotLock(ctx, slot, func() error {
		res, err := s.findByID(ctx, id)
		if err != nil {
			return err
		}
		if s.guard.IsPast(res.Date, res.Time) {
			return ErrPastSlot
		}

		onSlot, err := s.repo.Reservation.FindBySlot(ctx, res.Date, res.Time)
		if err != nil {
			s.logger.Error("查询槽位失败", zap.Stringer("slot", slot), zap.Error(err))
			return err
		}
		if winner := confirmedOf(onSlot); winner != nil {
			if winner.ID != res.ID {
				return ErrAlreadyClosed
			}
			confirmed = res
			return nil
		}

		err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
			if err := tx.Reservation.ConfirmByID(ctx, res.ID); err != nil {
				return err
			}
			n, err := tx.Reservation.DeleteSiblings(ctx, res.Date, res.Time, res.ID)
			if err != nil {
				return err
			}
			evicted = n
			return nil
		})
		if err != nil {
			switch {
			case errors.Is(err, gorm.ErrDuplicatedKey):
				return ErrAlreadyClosed
			case errors.Is(err, gorm.ErrRecordNotFound):
				return ErrReservationNotFound
			}
			s.logger.Error("确认预约失败", zap.String("id", res.ID), zap.Error(err))
			return err
		}

		res.Status = model.StatusConfirmed
		confirmed = res
		s.logger.Info("预约已确认",
			zap.String("id", res.ID),
			zap.String("student", res.StudentName),
			zap.Stringer("slot", slot),
			zap.Int64("evicted", evicted),
		)
		return nil
	})
	if err != nil {
		return nil, err
	}

	return &dto.ConfirmReservationResponse{
		Reservation: *toReservationResponse(confirmed),
		Evicted:     evicted,
	}, nil
}

// ────────────────────── AdminDelete ──────────────────────

func (s *reservationService) AdminDelete(ctx context.Context, id string) error {
	slot, err := s.slotOf(ctx, id)
	if err != nil {
		return err
	}

	return s.withSlotLock(ctx, slot, func() error {
		if err := s.repo.Reservation.DeleteByID(ctx, id); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrReservationNotFound
			}
			s.logger.Error("删除预约失败", zap.String("id", id), zap.Error(err))
			return err
		}
		s.logger.Info("老师已删除预约", zap.String("id", id), zap.Stringer("slot", slot))
		return nil
	})
}

// ────────────────────── ToggleRequest ──────────────────────

func (s *reservationService) ToggleRequest(ctx context.Context, req *dto.CreateReservationRequest) (*dto.ToggleReservationResponse, error) {
	in, err := s.parseSlotRequest(req)
	if err != nil {
		return nil, err
	}

	var resp *dto.ToggleReservationResponse
	err = s.withSlotLock(ctx, in.slot, func() error {
		existing, err := s.repo.Reservation.FindByKey(ctx, in.slot.Date, in.slot.Time, in.studentName)
		switch {
		case err == nil:
			if err := s.cancelLocked(ctx, existing); err != nil {
				return err
			}
			resp = &dto.ToggleReservationResponse{Cancelled: true}
			return nil
		case errors.Is(err, gorm.ErrRecordNotFound):
			created, err := s.createLocked(ctx, in)
			if err != nil {
				return err
			}
			resp = &dto.ToggleReservationResponse{Reservation: toReservationResponse(created)}
			return nil
		default:
			s.logger.Error("查询预约失败", zap.Stringer("slot", in.slot), zap.Error(err))
			return err
		}
	})
	if err != nil {
		return nil, err
	}
	return resp, nil
}

// ────────────────────── 查询 ──────────────────────

func (s *reservationService) ListForViewer(ctx context.Context, viewer Viewer, req *dto.ReservationListRequest) ([]dto.ReservationResponse, error) {
	filter, err := s.listFilter(req)
	if err != nil {
		return nil, err
	}

	if !viewer.Tutor {
		name := strings.TrimSpace(viewer.StudentName)
		if name == "" {
			return nil, ErrEmptyName
		}
		filter.StudentName = name
	} else if req != nil {
		filter.StudentName = strings.TrimSpace(req.StudentName)
	}

	list, err := s.repo.Reservation.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出预约失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.ReservationResponse, 0, len(list))
	for i := range list {
		result = append(result, *toReservationResponse(&list[i]))
	}
	return result, nil
}

// SlotBoard 按槽位汇总，已确认为 closed，其余为 open
func (s *reservationService) SlotBoard(ctx context.Context, req *dto.ReservationListRequest) ([]dto.SlotSummary, error) {
	filter, err := s.listFilter(req)
	if err != nil {
		return nil, err
	}

	list, err := s.repo.Reservation.List(ctx, filter)
	if err != nil {
		s.logger.Error("列出预约失败", zap.Error(err))
		return nil, err
	}

	result := make([]dto.SlotSummary, 0)
	index := make(map[model.SlotKey]int)
	for i := range list {
		key := list[i].Slot()
		pos, ok := index[key]
		if !ok {
			pos = len(result)
			index[key] = pos
			result = append(result, dto.SlotSummary{
				Date:  key.Date,
				Time:  string(key.Time),
				State: string(model.SlotOpen),
			})
		}
		switch list[i].Status {
		case model.StatusConfirmed:
			result[pos].State = string(model.SlotClosed)
		case model.StatusPending:
			result[pos].PendingCount++
		}
	}
	return result, nil
}

func (s *reservationService) OpeningSlots() []model.SlotTime {
	return s.hours.Slots()
}

// ── 内部辅助方法 ──

func (s *reservationService) parseSlotRequest(req *dto.CreateReservationRequest) (slotRequest, error) {
	name, err := normalizeName(req.StudentName)
	if err != nil {
		return slotRequest{}, err
	}
	date, err := model.ParseSlotDate(req.SlotDate())
	if err != nil {
		return slotRequest{}, ErrInvalidDate
	}
	t, err := model.ParseSlotTime(req.SlotTime())
	if err != nil || !s.hours.Contains(t) {
		return slotRequest{}, ErrInvalidSlotTime
	}
	return slotRequest{
		studentName: name,
		slot:        model.SlotKey{Date: date.Format(model.DateLayout), Time: t},
	}, nil
}

func (s *reservationService) listFilter(req *dto.ReservationListRequest) (repository.ReservationFilter, error) {
	var f repository.ReservationFilter
	if req == nil {
		return f, nil
	}
	if req.From != "" {
		d, err := model.ParseSlotDate(req.From)
		if err != nil {
			return f, ErrInvalidDate
		}
		f.From = d.Format(model.DateLayout)
	}
	if req.To != "" {
		d, err := model.ParseSlotDate(req.To)
		if err != nil {
			return f, ErrInvalidDate
		}
		f.To = d.Format(model.DateLayout)
	}
	if f.From != "" && f.To != "" && f.From > f.To {
		return f, ErrInvalidRange
	}
	return f, nil
}

// findByID 按 ID 查询，非法 UUID 与不存在同样处理
func (s *reservationService) findByID(ctx context.Context, id string) (*model.Reservation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrReservationNotFound
	}
	res, err := s.repo.Reservation.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		s.logger.Error("查询预约失败", zap.String("id", id), zap.Error(err))
		return nil, err
	}
	return res, nil
}

// slotOf 加锁前确定预约所在槽位，加锁后需重新读取
func (s *reservationService) slotOf(ctx context.Context, id string) (model.SlotKey, error) {
	res, err := s.findByID(ctx, id)
	if err != nil {
		return model.SlotKey{}, err
	}
	return res.Slot(), nil
}

func (s *reservationService) withSlotLock(ctx context.Context, slot model.SlotKey, fn func() error) error {
	lctx := ctx
	if s.lockWait > 0 {
		var cancel context.CancelFunc
		lctx, cancel = context.WithTimeout(ctx, s.lockWait)
		defer cancel()
	}

	unlock, err := s.locker.Lock(lctx, lock.SlotKey(slot.Date, string(slot.Time)))
	if err != nil {
		s.logger.Warn("获取槽位锁失败", zap.Stringer("slot", slot), zap.Error(err))
		return err
	}
	defer unlock()

	return fn()
}

func confirmedOf(list []model.Reservation) *model.Reservation {
	for i := range list {
		if list[i].IsConfirmed() {
			return &list[i]
		}
	}
	return nil
}

func toReservationResponse(r *model.Reservation) *dto.ReservationResponse {
	return &dto.ReservationResponse{
		ID:           r.ID,
		StudentName:  r.StudentName,
		Date:         r.Date,
		Time:         string(r.Time),
		ScheduleDate: r.Date,
		ScheduleTime: string(r.Time),
		Status:       string(r.Status),
		CreatedAt:    r.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		UpdatedAt:    r.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}
