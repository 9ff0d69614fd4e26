package dto

// ── 预约模块 DTO ──

// CreateReservationRequest 申请预约
// 兼容旧前端字段 scheduleDate / scheduleTime
type CreateReservationRequest struct {
	StudentName  string `json:"studentName"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	ScheduleDate string `json:"scheduleDate"`
	ScheduleTime string `json:"scheduleTime"`
}

// SlotDate 优先取 date，缺省时回退到 scheduleDate
func (r *CreateReservationRequest) SlotDate() string {
	if r.Date != "" {
		return r.Date
	}
	return r.ScheduleDate
}

// SlotTime 优先取 time，缺省时回退到 scheduleTime
func (r *CreateReservationRequest) SlotTime() string {
	if r.Time != "" {
		return r.Time
	}
	return r.ScheduleTime
}

// CancelReservationRequest 学生取消自己的预约
type CancelReservationRequest struct {
	StudentName string `json:"studentName" form:"studentName"`
}

// ReservationListRequest 预约查询参数，日期为含端点的 YYYY-MM-DD
type ReservationListRequest struct {
	StudentName string `form:"studentName"`
	From        string `form:"from"`
	To          string `form:"to"`
}

// ReservationResponse 预约信息
type ReservationResponse struct {
	ID           string `json:"id"`
	StudentName  string `json:"studentName"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	ScheduleDate string `json:"scheduleDate"`
	ScheduleTime string `json:"scheduleTime"`
	Status       string `json:"status"`
	CreatedAt    string `json:"createdAt"`
	UpdatedAt    string `json:"updatedAt"`
}

// ConfirmReservationResponse 确认结果，evicted 为被同时移除的其他申请数
type ConfirmReservationResponse struct {
	Reservation ReservationResponse `json:"reservation"`
	Evicted     int64               `json:"evicted"`
}

// ToggleReservationResponse 点击槽位的结果：新建的预约或已取消
type ToggleReservationResponse struct {
	Cancelled   bool                 `json:"cancelled"`
	Reservation *ReservationResponse `json:"reservation,omitempty"`
}

// SlotSummary 槽位概览，不含其他学生姓名
type SlotSummary struct {
	Date         string `json:"date"`
	Time         string `json:"time"`
	State        string `json:"state"`
	PendingCount int    `json:"pendingCount"`
}

// ExportRequest 导出参数
type ExportRequest struct {
	From string `form:"from"`
	To   string `form:"to"`
}
