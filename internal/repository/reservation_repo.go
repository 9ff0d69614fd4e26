package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/JangWoody/woody-service-back/internal/model"
)

// ReservationFilter 预约列表筛选条件，空字段表示不限
type ReservationFilter struct {
	StudentName string
	From        string // 含
	To          string // 含
	Status      model.ReservationStatus
}

// ReservationRepository 预约数据访问接口
type ReservationRepository interface {
	Insert(ctx context.Context, r *model.Reservation) error
	FindByID(ctx context.Context, id string) (*model.Reservation, error)
	FindByKey(ctx context.Context, date string, t model.SlotTime, studentName string) (*model.Reservation, error)
	FindBySlot(ctx context.Context, date string, t model.SlotTime) ([]model.Reservation, error)
	ConfirmByID(ctx context.Context, id string) error
	DeleteByID(ctx context.Context, id string) error
	DeleteSiblings(ctx context.Context, date string, t model.SlotTime, keepID string) (int64, error)
	List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error)
	ListPendingBefore(ctx context.Context, date string) ([]model.Reservation, error)
	DeleteByIDs(ctx context.Context, ids []string) (int64, error)
}

type reservationRepo struct {
	db *gorm.DB
}

// NewReservationRepo 创建 ReservationRepository 实例
func NewReservationRepo(db *gorm.DB) ReservationRepository {
	return &reservationRepo{db: db}
}

// Insert 分配新 ID 并以 pending 状态写入
func (r *reservationRepo) Insert(ctx context.Context, res *model.Reservation) error {
	res.ID = uuid.New().String()
	res.Status = model.StatusPending
	return r.db.WithContext(ctx).Create(res).Error
}

func (r *reservationRepo) FindByID(ctx context.Context, id string) (*model.Reservation, error) {
	var res model.Reservation
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepo) FindByKey(ctx context.Context, date string, t model.SlotTime, studentName string) (*model.Reservation, error) {
	var res model.Reservation
	err := r.db.WithContext(ctx).
		Where("schedule_date = ? AND schedule_time = ? AND student_name = ?", date, t, studentName).
		First(&res).Error
	if err != nil {
		return nil, err
	}
	return &res, nil
}

func (r *reservationRepo) FindBySlot(ctx context.Context, date string, t model.SlotTime) ([]model.Reservation, error) {
	var list []model.Reservation
	err := r.db.WithContext(ctx).
		Where("schedule_date = ? AND schedule_time = ?", date, t).
		Order("created_at ASC, id ASC").
		Find(&list).Error
	return list, err
}

func (r *reservationRepo) ConfirmByID(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("id = ?", id).
		Update("status", model.StatusConfirmed)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *reservationRepo) DeleteByID(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&model.Reservation{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// DeleteSiblings 删除同一槽位上除 keepID 外的所有预约，返回删除条数
func (r *reservationRepo) DeleteSiblings(ctx context.Context, date string, t model.SlotTime, keepID string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("schedule_date = ? AND schedule_time = ? AND id <> ?", date, t, keepID).
		Delete(&model.Reservation{})
	return result.RowsAffected, result.Error
}

func (r *reservationRepo) List(ctx context.Context, f ReservationFilter) ([]model.Reservation, error) {
	query := r.db.WithContext(ctx).Model(&model.Reservation{})
	if f.StudentName != "" {
		query = query.Where("student_name = ?", f.StudentName)
	}
	if f.From != "" {
		query = query.Where("schedule_date >= ?", f.From)
	}
	if f.To != "" {
		query = query.Where("schedule_date <= ?", f.To)
	}
	if f.Status != "" {
		query = query.Where("status = ?", f.Status)
	}

	var list []model.Reservation
	err := query.Order("schedule_date ASC, schedule_time ASC, created_at ASC, id ASC").Find(&list).Error
	return list, err
}

// ListPendingBefore 列出 date 之前（不含）仍处于 pending 的预约
func (r *reservationRepo) ListPendingBefore(ctx context.Context, date string) ([]model.Reservation, error) {
	var list []model.Reservation
	err := r.db.WithContext(ctx).
		Where("status = ? AND schedule_date < ?", model.StatusPending, date).
		Order("schedule_date ASC, schedule_time ASC").
		Find(&list).Error
	return list, err
}

func (r *reservationRepo) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := r.db.WithContext(ctx).Where("id IN ?", ids).Delete(&model.Reservation{})
	return result.RowsAffected, result.Error
}
