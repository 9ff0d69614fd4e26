package model

// AdminCredentialID 老师密码单行表的固定主键
const AdminCredentialID = 1

// AdminCredential 老师共享密码，对应 admin_credentials（单行）
type AdminCredential struct {
	ID           int16  `gorm:"type:smallint;primaryKey;default:1" json:"-"`
	PasswordHash string `gorm:"type:varchar(255);not null"         json:"-"`
	BaseModel
}

// TableName 指定表名
func (AdminCredential) TableName() string { return "admin_credentials" }
