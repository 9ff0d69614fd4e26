package handler

import (
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"

	"github.com/JangWoody/woody-service-back/internal/dto"
	"github.com/JangWoody/woody-service-back/internal/service"
	"github.com/JangWoody/woody-service-back/pkg/response"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportHandler 导出模块 HTTP 处理器
type ExportHandler struct {
	exportSvc service.ExportService
}

// NewExportHandler 创建 ExportHandler
func NewExportHandler(exportSvc service.ExportService) *ExportHandler {
	return &ExportHandler{exportSvc: exportSvc}
}

// ExportWorkbook 导出预约表
// GET /api/reservation/export/schedules.xlsx?from=&to=
func (h *ExportHandler) ExportWorkbook(c *gin.Context) {
	var req dto.ExportRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, response.CodeValidation, "요청 값이 올바르지 않습니다")
		return
	}

	buf, filename, err := h.exportSvc.ExportWorkbook(c.Request.Context(), &req)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	// 设置下载响应头
	c.Header("Content-Description", "File Transfer")
	c.Header("Content-Disposition", "attachment; filename*=UTF-8''"+url.QueryEscape(filename))
	c.Data(http.StatusOK, xlsxMIME, buf.Bytes())
}

// CalendarFeed 已确认预约的日历订阅
// GET /api/reservation/calendar.ics?studentName=
func (h *ExportHandler) CalendarFeed(c *gin.Context) {
	viewer := CurrentViewer(c, c.Query("studentName"))

	feed, err := h.exportSvc.CalendarFeed(c.Request.Context(), viewer)
	if err != nil {
		handleCommonError(c, err)
		return
	}

	c.Header("Content-Disposition", `inline; filename="woody.ics"`)
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", []byte(feed))
}
