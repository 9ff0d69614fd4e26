package handler

import "github.com/JangWoody/woody-service-back/internal/service"

// Handler 所有 Handler 的聚合入口
type Handler struct {
	Reservation *ReservationHandler
	Student     *StudentHandler
	Auth        *AuthHandler
	Export      *ExportHandler
}

// NewHandler 创建 Handler 聚合
func NewHandler(svc *service.Service) *Handler {
	return &Handler{
		Reservation: NewReservationHandler(svc.Reservation),
		Student:     NewStudentHandler(svc.Student),
		Auth:        NewAuthHandler(svc.Auth),
		Export:      NewExportHandler(svc.Export),
	}
}
