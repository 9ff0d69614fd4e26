package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/JangWoody/woody-service-back/internal/model"
)

// AdminCredentialRepository 老师密码数据访问接口
type AdminCredentialRepository interface {
	Get(ctx context.Context) (*model.AdminCredential, error)
	// CreateIfAbsent 仅在单行记录不存在时写入，返回是否写入
	CreateIfAbsent(ctx context.Context, cred *model.AdminCredential) (bool, error)
	UpdatePasswordHash(ctx context.Context, hash string) error
}

type adminCredentialRepo struct {
	db *gorm.DB
}

// NewAdminCredentialRepo 创建 AdminCredentialRepository 实例
func NewAdminCredentialRepo(db *gorm.DB) AdminCredentialRepository {
	return &adminCredentialRepo{db: db}
}

func (r *adminCredentialRepo) Get(ctx context.Context) (*model.AdminCredential, error) {
	var cred model.AdminCredential
	err := r.db.WithContext(ctx).Where("id = ?", model.AdminCredentialID).First(&cred).Error
	if err != nil {
		return nil, err
	}
	return &cred, nil
}

func (r *adminCredentialRepo) CreateIfAbsent(ctx context.Context, cred *model.AdminCredential) (bool, error) {
	cred.ID = model.AdminCredentialID
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(cred)
	return result.RowsAffected > 0, result.Error
}

func (r *adminCredentialRepo) UpdatePasswordHash(ctx context.Context, hash string) error {
	result := r.db.WithContext(ctx).Model(&model.AdminCredential{}).
		Where("id = ?", model.AdminCredentialID).
		Update("password_hash", hash)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}
