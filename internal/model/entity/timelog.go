package entity

import (
	"errors"
	"time"
)

// 计时器状态错误
var (
	ErrTimerRunning    = errors.New("timer already running")
	ErrTimerNotRunning = errors.New("timer not running")
	ErrTimerEnded      = errors.New("timer already ended")
)

// TimeLog 工时记录，嵌入在人员/设备分配记录中。
// 累计时长只在每次会话关闭（暂停或结束）时累加，
// 不能用 EndTime - ActualStartTime 计算，否则会把暂停区间算进去。
type TimeLog struct {
	StartTime       *time.Time `json:"start_time"`
	EndTime         *time.Time `json:"end_time"`
	ActualStartTime *time.Time `json:"actual_start_time"`
	ActualDuration  int64      `json:"actual_duration" gorm:"not null;default:0"` // 秒
}

// Start 开始计时。首次开始时间一旦记录不再变更。
func (t *TimeLog) Start(now time.Time) error {
	if t.EndTime != nil {
		return ErrTimerEnded
	}
	if t.StartTime != nil {
		return ErrTimerRunning
	}
	t.StartTime = &now
	if t.ActualStartTime == nil {
		t.ActualStartTime = &now
	}
	return nil
}

// Pause 暂停计时，累加本次会话时长，可再次Start恢复
func (t *TimeLog) Pause(now time.Time) error {
	if t.StartTime == nil {
		return ErrTimerNotRunning
	}
	t.ActualDuration += int64(now.Sub(*t.StartTime).Seconds())
	t.StartTime = nil
	return nil
}

// End 结束计时，不可恢复、不可重复结束
func (t *TimeLog) End(now time.Time) error {
	if t.EndTime != nil {
		return ErrTimerEnded
	}
	if t.StartTime == nil {
		return ErrTimerNotRunning
	}
	t.ActualDuration += int64(now.Sub(*t.StartTime).Seconds())
	t.StartTime = nil
	t.EndTime = &now
	return nil
}

// Running 是否有进行中的会话
func (t *TimeLog) Running() bool {
	return t.StartTime != nil
}

// Finished 是否已结束
func (t *TimeLog) Finished() bool {
	return t.EndTime != nil
}

// Reopen 质检驳回后重开：清除开始/结束时间强制返工，已发生的时长保留
func (t *TimeLog) Reopen() {
	t.StartTime = nil
	t.EndTime = nil
}
