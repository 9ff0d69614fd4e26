package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/JangWoody/woody-service-back/internal/dto"
	"github.com/JangWoody/woody-service-back/internal/service"
	"github.com/JangWoody/woody-service-back/pkg/response"
)

// ReservationHandler 预约模块 HTTP 处理器
type ReservationHandler struct {
	svc service.ReservationService
}

// NewReservationHandler 创建 ReservationHandler
func NewReservationHandler(svc service.ReservationService) *ReservationHandler {
	return &ReservationHandler{svc: svc}
}

// List 预约列表：老师看全部，学生看自己的
// GET /api/reservation/schedules?studentName=&from=&to=
func (h *ReservationHandler) List(c *gin.Context) {
	var req dto.ReservationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, "요청 값이 올바르지 않습니다")
		return
	}

	list, err := h.svc.ListForViewer(c.Request.Context(), CurrentViewer(c, req.StudentName), &req)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, list)
}

// Board 槽位概览（不含学生姓名）
// GET /api/reservation/schedules/board?from=&to=
func (h *ReservationHandler) Board(c *gin.Context) {
	var req dto.ReservationListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, "요청 값이 올바르지 않습니다")
		return
	}

	board, err := h.svc.SlotBoard(c.Request.Context(), &req)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, board)
}

// Slots 可预约的整点时段
// GET /api/reservation/schedules/slots
func (h *ReservationHandler) Slots(c *gin.Context) {
	response.OK(c, h.svc.OpeningSlots())
}

// Create 学生申请时段
// POST /api/reservation/schedules
func (h *ReservationHandler) Create(c *gin.Context) {
	var req dto.CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}

	created, err := h.svc.CreateRequest(c.Request.Context(), &req)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.Created(c, created)
}

// Toggle 已申请则取消，否则申请
// POST /api/reservation/schedules/toggle
func (h *ReservationHandler) Toggle(c *gin.Context) {
	var req dto.CreateReservationRequest
	if !bindJSON(c, &req) {
		return
	}

	result, err := h.svc.ToggleRequest(c.Request.Context(), &req)
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	if result.Cancelled {
		response.OK(c, result)
		return
	}
	response.Created(c, result)
}

// Delete 老师 Token → 强制删除；否则按 studentName 取消本人预约
// DELETE /api/reservation/schedules/:id
func (h *ReservationHandler) Delete(c *gin.Context) {
	id := c.Param("id")

	if IsTutor(c) {
		if err := h.svc.AdminDelete(c.Request.Context(), id); err != nil {
			h.handleReservationError(c, err)
			return
		}
		response.NoContent(c)
		return
	}

	var req dto.CancelReservationRequest
	_ = c.ShouldBindQuery(&req)
	if req.StudentName == "" && c.Request.ContentLength > 0 {
		if !bindJSON(c, &req) {
			return
		}
	}

	if err := h.svc.CancelRequest(c.Request.Context(), id, req.StudentName); err != nil {
		h.handleReservationError(c, err)
		return
	}
	response.NoContent(c)
}

// Confirm 老师确认申请
// POST /api/reservation/schedules/:id/confirm
func (h *ReservationHandler) Confirm(c *gin.Context) {
	result, err := h.svc.Confirm(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.handleReservationError(c, err)
		return
	}

	response.OK(c, result)
}

func (h *ReservationHandler) handleReservationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrReservationNotFound):
		response.NotFound(c, 13001, "예약을 찾을 수 없습니다")
	case errors.Is(err, service.ErrUnregisteredStudent):
		response.Unprocessable(c, 13002, "학생 명단에 없는 이름입니다. 선생님께 문의하세요")
	case errors.Is(err, service.ErrDuplicateRequest):
		response.Conflict(c, 13003, "이미 신청한 시간입니다")
	case errors.Is(err, service.ErrPastSlot):
		response.Unprocessable(c, 13004, "지난 시간은 신청하거나 변경할 수 없습니다")
	case errors.Is(err, service.ErrSlotClosed):
		response.Conflict(c, 13005, "이미 확정된 시간입니다")
	case errors.Is(err, service.ErrAlreadyClosed):
		response.Conflict(c, 13006, "이 시간에는 이미 다른 학생이 확정되었습니다")
	case errors.Is(err, service.ErrNotOwner):
		response.Error(c, http.StatusForbidden, 13007, "본인의 예약만 취소할 수 있습니다")
	default:
		handleCommonError(c, err)
	}
}
