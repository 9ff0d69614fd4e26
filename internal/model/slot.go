package model

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DateLayout 槽位日期格式
const DateLayout = "2006-01-02"

// SlotTime 一小时槽位的开始时间，统一为 "HH:00"
type SlotTime string

// NewSlotTime 由小时数构造 SlotTime
func NewSlotTime(hour int) SlotTime {
	return SlotTime(fmt.Sprintf("%02d:00", hour))
}

// ParseSlotTime 解析 "HH:00"，兼容旧前端的 "9:00"
func ParseSlotTime(s string) (SlotTime, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || m != "00" || len(h) == 0 || len(h) > 2 {
		return "", fmt.Errorf("invalid slot time %q", s)
	}
	hour, err := strconv.Atoi(h)
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid slot time %q", s)
	}
	return NewSlotTime(hour), nil
}

// Hour 返回小时数，非法值返回 -1
func (t SlotTime) Hour() int {
	if !t.Valid() {
		return -1
	}
	hour, _ := strconv.Atoi(string(t[:2]))
	return hour
}

// Valid 是否为规范形式 "HH:00"
func (t SlotTime) Valid() bool {
	if len(t) != 5 || t[2] != ':' || t[3:] != "00" {
		return false
	}
	hour, err := strconv.Atoi(string(t[:2]))
	return err == nil && hour >= 0 && hour <= 23
}

// SlotHours 日历的营业时段 [Open, Close]，两端都是可预约槽位
type SlotHours struct {
	Open  int
	Close int
}

// Slots 按时间顺序列出全部槽位
func (h SlotHours) Slots() []SlotTime {
	slots := make([]SlotTime, 0, h.Close-h.Open+1)
	for hour := h.Open; hour <= h.Close; hour++ {
		slots = append(slots, NewSlotTime(hour))
	}
	return slots
}

// Contains 槽位是否在营业时段内
func (h SlotHours) Contains(t SlotTime) bool {
	hour := t.Hour()
	return hour >= h.Open && hour <= h.Close
}

// ParseSlotDate 严格解析 YYYY-MM-DD
func ParseSlotDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, strings.TrimSpace(s))
}

// SlotKey 槽位标识 (date, time)
type SlotKey struct {
	Date string
	Time SlotTime
}

func (k SlotKey) String() string {
	return k.Date + " " + string(k.Time)
}

// SlotState 槽位状态
type SlotState string

const (
	SlotOpen   SlotState = "open"
	SlotClosed SlotState = "closed"
)
