package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/JangWoody/woody-service-back/internal/dto"
	"github.com/JangWoody/woody-service-back/internal/model"
	"github.com/JangWoody/woody-service-back/internal/repository"
)

// ── 导出模块业务错误 ──

var (
	ErrExportRangeTooLong = fmt.Errorf("%w: 내보내기 기간은 %d일을 넘을 수 없습니다", ErrValidation, maxExportDays)
	ErrExportGenerateFail = errors.New("生成导出文件失败")
)

const (
	maxExportDays     = 62
	defaultExportDays = 7
	feedLookbackDays  = 30
	sheetName         = "예약표"
)

// ExportService 导出业务接口
//
//   - Excel：日期为列、槽位为行的周视图，单元格为已确认学生或待确认名单
//   - iCalendar：已确认预约的订阅源，学生只看到自己的
type ExportService interface {
	ExportWorkbook(ctx context.Context, req *dto.ExportRequest) (*bytes.Buffer, string, error)
	CalendarFeed(ctx context.Context, viewer Viewer) (string, error)
}

type exportService struct {
	repo   *repository.Repository
	guard  *TimeGuard
	hours  model.SlotHours
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, guard *TimeGuard, hours model.SlotHours, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, guard: guard, hours: hours, logger: logger}
}

// ═══════════════════════════════════════════════════════════
// ExportWorkbook 导出日期区间的预约表
// ═══════════════════════════════════════════════════════════
//
// 表头：| 시간 | 2030-05-10 (금) | ... |
// 单元格：已确认 → 学生姓名；仅待确认 → "대기: A, B"；空 → "-"

func (s *exportService) ExportWorkbook(ctx context.Context, req *dto.ExportRequest) (*bytes.Buffer, string, error) {
	from, to, err := s.exportRange(req)
	if err != nil {
		return nil, "", err
	}

	list, err := s.repo.Reservation.List(ctx, repository.ReservationFilter{
		From: from.Format(model.DateLayout),
		To:   to.Format(model.DateLayout),
	})
	if err != nil {
		s.logger.Error("查询导出数据失败", zap.Error(err))
		return nil, "", err
	}

	confirmed := make(map[model.SlotKey]string)
	pending := make(map[model.SlotKey][]string)
	for i := range list {
		key := list[i].Slot()
		switch list[i].Status {
		case model.StatusConfirmed:
			confirmed[key] = list[i].StudentName
		case model.StatusPending:
			pending[key] = append(pending[key], list[i].StudentName)
		}
	}

	var dates []time.Time
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, err := f.NewSheet(sheetName)
	if err != nil {
		s.logger.Error("创建工作表失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}
	f.SetActiveSheet(idx)
	_ = f.DeleteSheet("Sheet1")

	_ = f.SetColWidth(sheetName, "A", "A", 10)
	if len(dates) > 0 {
		last, _ := excelize.ColumnNumberToName(1 + len(dates))
		_ = f.SetColWidth(sheetName, "B", last, 18)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	confirmedStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#C6EFCE"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	// 表头
	_ = f.SetCellValue(sheetName, cellName(1, 1), "시간")
	for i, d := range dates {
		_ = f.SetCellValue(sheetName, cellName(2+i, 1), fmt.Sprintf("%s (%s)", d.Format(model.DateLayout), weekdayKo[d.Weekday()]))
	}
	_ = f.SetCellStyle(sheetName, cellName(1, 1), cellName(1+len(dates), 1), headerStyle)

	// 数据行
	for r, slot := range s.hours.Slots() {
		row := 2 + r
		_ = f.SetCellValue(sheetName, cellName(1, row), string(slot))
		for i, d := range dates {
			key := model.SlotKey{Date: d.Format(model.DateLayout), Time: slot}
			c := cellName(2+i, row)
			switch {
			case confirmed[key] != "":
				_ = f.SetCellValue(sheetName, c, confirmed[key])
				_ = f.SetCellStyle(sheetName, c, c, confirmedStyle)
			case len(pending[key]) > 0:
				_ = f.SetCellValue(sheetName, c, "대기: "+strings.Join(pending[key], ", "))
			default:
				_ = f.SetCellValue(sheetName, c, "-")
			}
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("reservations_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	return buf, filename, nil
}

// ═══════════════════════════════════════════════════════════
// CalendarFeed 已确认预约的 iCalendar 订阅源
// ═══════════════════════════════════════════════════════════

func (s *exportService) CalendarFeed(ctx context.Context, viewer Viewer) (string, error) {
	filter := repository.ReservationFilter{
		Status: model.StatusConfirmed,
		From:   s.guard.Now().AddDate(0, 0, -feedLookbackDays).Format(model.DateLayout),
	}
	if !viewer.Tutor {
		name := strings.TrimSpace(viewer.StudentName)
		if name == "" {
			return "", ErrEmptyName
		}
		filter.StudentName = name
	}

	list, err := s.repo.Reservation.List(ctx, filter)
	if err != nil {
		s.logger.Error("查询日历数据失败", zap.Error(err))
		return "", err
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//woody//reservation//KO")
	cal.SetXWRCalName("Woody 수업 예약")
	cal.SetXWRTimezone(s.guard.Location().String())

	stamp := s.guard.Now()
	for i := range list {
		res := &list[i]
		start, err := s.guard.SlotStart(res.Date, res.Time)
		if err != nil {
			s.logger.Warn("跳过无法解析的预约", zap.String("id", res.ID), zap.Error(err))
			continue
		}

		event := cal.AddEvent(res.ID + "@woody-reservation")
		event.SetDtStampTime(stamp)
		event.SetStartAt(start)
		event.SetEndAt(start.Add(time.Hour))
		event.SetSummary(fmt.Sprintf("수업: %s", res.StudentName))
		event.SetStatus(ics.ObjectStatusConfirmed)
		if !res.UpdatedAt.IsZero() {
			event.SetModifiedAt(res.UpdatedAt)
		}
	}

	return cal.Serialize(), nil
}

// exportRange 解析导出区间，缺省为今天起一周
func (s *exportService) exportRange(req *dto.ExportRequest) (time.Time, time.Time, error) {
	loc := s.guard.Location()
	today, _ := time.ParseInLocation(model.DateLayout, s.guard.Today(), loc)

	from, to := today, today.AddDate(0, 0, defaultExportDays-1)
	if req != nil && req.From != "" {
		d, err := time.ParseInLocation(model.DateLayout, req.From, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
		from = d
		to = d.AddDate(0, 0, defaultExportDays-1)
	}
	if req != nil && req.To != "" {
		d, err := time.ParseInLocation(model.DateLayout, req.To, loc)
		if err != nil {
			return time.Time{}, time.Time{}, ErrInvalidDate
		}
		to = d
	}

	if to.Before(from) {
		return time.Time{}, time.Time{}, ErrInvalidRange
	}
	if to.Sub(from) >= maxExportDays*24*time.Hour {
		return time.Time{}, time.Time{}, ErrExportRangeTooLong
	}
	return from, to, nil
}

var weekdayKo = map[time.Weekday]string{
	time.Sunday:    "일",
	time.Monday:    "월",
	time.Tuesday:   "화",
	time.Wednesday: "수",
	time.Thursday:  "목",
	time.Friday:    "금",
	time.Saturday:  "토",
}

func cellName(col, row int) string {
	name, _ := excelize.CoordinatesToCellName(col, row)
	return name
}
