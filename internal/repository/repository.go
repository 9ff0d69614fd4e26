package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
type Repository struct {
	db *gorm.DB

	Student         StudentRepository
	Reservation     ReservationRepository
	AdminCredential AdminCredentialRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:              db,
		Student:         NewStudentRepo(db),
		Reservation:     NewReservationRepo(db),
		AdminCredential: NewAdminCredentialRepo(db),
	}
}

// Transaction 在同一事务内执行 fn，fn 内应只使用传入的 tx 聚合
// 未绑定数据库时（单元测试注入的 mock）直接以自身执行 fn
func (r *Repository) Transaction(ctx context.Context, fn func(tx *Repository) error) error {
	if r.db == nil {
		return fn(r)
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepository(tx))
	})
}
