package service

import (
	"time"

	"github.com/JangWoody/woody-service-back/internal/model"
)

// TimeGuard 判断槽位是否已过去，所有时间按日历所在时区解释
type TimeGuard struct {
	loc *time.Location
	now func() time.Time
}

// NewTimeGuard 创建 TimeGuard，now 可在测试中固定
func NewTimeGuard(loc *time.Location, now func() time.Time) *TimeGuard {
	return &TimeGuard{loc: loc, now: now}
}

// SlotStart 槽位开始时刻，按墙上时间构造，夏令时切换日同样成立
func (g *TimeGuard) SlotStart(date string, t model.SlotTime) (time.Time, error) {
	d, err := time.ParseInLocation(model.DateLayout, date, g.loc)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), t.Hour(), 0, 0, 0, g.loc), nil
}

// IsPast 槽位开始时刻严格早于当前时刻；无法解析的日期视为已过去
func (g *TimeGuard) IsPast(date string, t model.SlotTime) bool {
	if !t.Valid() {
		return true
	}
	start, err := g.SlotStart(date, t)
	if err != nil {
		return true
	}
	return start.Before(g.now())
}

// Now 当前时刻（日历时区）
func (g *TimeGuard) Now() time.Time {
	return g.now().In(g.loc)
}

// Today 日历时区的今天
func (g *TimeGuard) Today() string {
	return g.Now().Format(model.DateLayout)
}

// Location 日历时区
func (g *TimeGuard) Location() *time.Location {
	return g.loc
}
