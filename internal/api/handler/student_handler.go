package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/JangWoody/woody-service-back/internal/dto"
	"github.com/JangWoody/woody-service-back/internal/service"
	"github.com/JangWoody/woody-service-back/pkg/response"
)

// StudentHandler 学生名单 HTTP 处理器
type StudentHandler struct {
	studentSvc service.StudentService
}

// NewStudentHandler 创建 StudentHandler
func NewStudentHandler(studentSvc service.StudentService) *StudentHandler {
	return &StudentHandler{studentSvc: studentSvc}
}

// List 学生名单
// GET /api/reservation/students
func (h *StudentHandler) List(c *gin.Context) {
	list, err := h.studentSvc.List(c.Request.Context())
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.OK(c, list)
}

// Create 登记学生
// POST /api/reservation/students
func (h *StudentHandler) Create(c *gin.Context) {
	var req dto.CreateStudentRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.studentSvc.Add(c.Request.Context(), &req)
	if err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.Created(c, created)
}

// Delete 移除学生，已有预约保留
// DELETE /api/reservation/students/:id
func (h *StudentHandler) Delete(c *gin.Context) {
	if err := h.studentSvc.Remove(c.Request.Context(), c.Param("id")); err != nil {
		h.handleStudentError(c, err)
		return
	}

	response.NoContent(c)
}

func (h *StudentHandler) handleStudentError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrStudentNotFound):
		response.NotFound(c, 12001, "학생을 찾을 수 없습니다")
	case errors.Is(err, service.ErrDuplicateName):
		response.Conflict(c, 12002, "이미 등록된 이름입니다")
	default:
		handleCommonError(c, err)
	}
}
