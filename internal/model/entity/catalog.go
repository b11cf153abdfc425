package entity

import (
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// JobTemplate 工单模板，Fields 定义 form_data 的字段结构
type JobTemplate struct {
	ID          string          `json:"id" gorm:"primaryKey;size:36"`
	Name        string          `json:"name" gorm:"size:128;not null"`
	Description string          `json:"description" gorm:"type:text"`
	Fields      json.RawMessage `json:"fields" gorm:"type:jsonb;not null;default:'[]'"`
	IsActive    bool            `json:"is_active" gorm:"default:true"`
	CreatedBy   string          `json:"created_by" gorm:"size:36;not null"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

func (JobTemplate) TableName() string {
	return "job_templates"
}

// Shop 门店
type Shop struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Address   string    `json:"address" gorm:"size:256"`
	Phone     string    `json:"phone" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Shop) TableName() string {
	return "shops"
}

// Customer 客户
type Customer struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Phone     string    `json:"phone" gorm:"size:32"`
	Email     string    `json:"email" gorm:"size:128"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Customer) TableName() string {
	return "customers"
}

// Worker 技师
type Worker struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	ShopID    string    `json:"shop_id" gorm:"size:36;not null;index"`
	Name      string    `json:"name" gorm:"size:128;not null"`
	Category  string    `json:"category" gorm:"size:50"`
	Status    string    `json:"status" gorm:"size:20;default:active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Worker) TableName() string {
	return "workers"
}

// AutoMigrate 自动迁移所有表
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		// 基础数据
		&Shop{},
		&Customer{},
		&Worker{},
		&JobTemplate{},

		// 设备资源
		&MachineCategory{},
		&Machine{},

		// 工单
		&JobCard{},
		&JobItem{},
		&AllowedWorker{},
		&WorkerAssignment{},
		&MachineAssignment{},
		&Consumable{},

		// 归档
		&RejectedJobArchive{},
	)
}
