package model

// ReservationStatus 预约状态
type ReservationStatus string

const (
	StatusPending   ReservationStatus = "pending"
	StatusConfirmed ReservationStatus = "confirmed"
)

// Valid 状态是否属于已知枚举
func (s ReservationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed:
		return true
	default:
		return false
	}
}

// Reservation 时段预约，对应 reservations
type Reservation struct {
	ID          string            `gorm:"type:uuid;primaryKey"                                json:"id"`
	StudentName string            `gorm:"type:varchar(64);not null"                           json:"student_name"`
	Date        string            `gorm:"column:schedule_date;type:char(10);not null"         json:"date"`
	Time        SlotTime          `gorm:"column:schedule_time;type:varchar(5);not null"       json:"time"`
	Status      ReservationStatus `gorm:"type:varchar(16);not null;default:'pending'"         json:"status"`
	BaseModel
}

// TableName 指定表名
func (Reservation) TableName() string { return "reservations" }

// Slot 返回所属槽位
func (r *Reservation) Slot() SlotKey {
	return SlotKey{Date: r.Date, Time: r.Time}
}

// IsConfirmed 是否已确认
func (r *Reservation) IsConfirmed() bool {
	return r.Status == StatusConfirmed
}
