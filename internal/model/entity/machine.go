package entity

import (
	"time"
)

// Machine 设备资源。
// 不变式：IsAvailable 为 true 当且仅当 JobID 为空；
// 任意时刻一台设备最多被一个工单占用。
type Machine struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	ShopID      string    `json:"shop_id" gorm:"size:36;not null;index"`
	CategoryID  string    `json:"category_id" gorm:"size:36;not null;index"`
	Name        string    `json:"name" gorm:"size:128;not null"`
	SerialNo    string    `json:"serial_no" gorm:"size:64"`
	IsAvailable bool      `json:"is_available" gorm:"not null;default:true"`
	JobID       *string   `json:"job_id" gorm:"size:36;index"` // 当前占用该设备的工单
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (Machine) TableName() string {
	return "machines"
}

// MachineCategory 门店设备类目，含小时费率
type MachineCategory struct {
	ID         string    `json:"id" gorm:"primaryKey;size:36"`
	ShopID     string    `json:"shop_id" gorm:"size:36;not null;index"`
	Name       string    `json:"name" gorm:"size:128;not null"`
	HourlyRate float64   `json:"hourly_rate" gorm:"type:decimal(12,2);not null;default:0"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (MachineCategory) TableName() string {
	return "machine_categories"
}
