package model

// Student 学生名册，对应 students，name 唯一且区分大小写
type Student struct {
	ID   string `gorm:"type:uuid;primaryKey"             json:"id"`
	Name string `gorm:"type:varchar(64);not null;unique" json:"name"`
	BaseModel
}

// TableName 指定表名
func (Student) TableName() string { return "students" }
