package entity

import (
	"time"
)

// JobStatus 工单状态
const (
	JobStatusWaiting     = "waiting"
	JobStatusPending     = "pending"
	JobStatusInProgress  = "in_progress"
	JobStatusCompleted   = "completed"
	JobStatusSupApproved = "supapproved"
	JobStatusApproved    = "approved"
	JobStatusRejected    = "rejected"
)

// QualityStatus 质检结论
const (
	QualityGood      = "good"
	QualityNeedsWork = "needs_work"
)

// JobCard 维修工单（聚合根）
type JobCard struct {
	ID         string `json:"id" gorm:"primaryKey;size:36"`
	JobNumber  string `json:"job_number" gorm:"size:50;not null;uniqueIndex"`
	TemplateID string `json:"template_id" gorm:"size:36;not null"`
	ShopID     string `json:"shop_id" gorm:"size:36;not null;index"`
	CustomerID string `json:"customer_id" gorm:"size:36;not null;index"`
	FormData   JSONB  `json:"form_data" gorm:"type:jsonb;not null;default:'{}'"`
	Status     string `json:"status" gorm:"size:20;not null;default:waiting;index"`

	// 质检/验收
	QualityStatus    string `json:"quality_status" gorm:"size:20"`
	IsVerifiedByUser bool   `json:"is_verified_by_user" gorm:"default:false"`
	WorkVerified     string `json:"work_verified" gorm:"size:36"` // 验收人

	// 汇总金额与工时
	TotalEstimatedAmount float64 `json:"total_estimated_amount" gorm:"type:decimal(12,2);default:0"`
	ActualTotalAmount    float64 `json:"actual_total_amount" gorm:"type:decimal(12,2);default:0"`
	ActualManHours       int64   `json:"actual_man_hours" gorm:"not null;default:0"` // 秒

	Notes     string    `json:"notes" gorm:"type:text"`
	CreatedBy string    `json:"created_by" gorm:"size:36;not null"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	JobItems []JobItem `json:"job_items,omitempty" gorm:"foreignKey:JobCardID"`
}

func (JobCard) TableName() string {
	return "job_cards"
}

// AllItemsCompleted 全部工项是否完成
func (j *JobCard) AllItemsCompleted() bool {
	if len(j.JobItems) == 0 {
		return false
	}
	for i := range j.JobItems {
		if j.JobItems[i].Status != JobStatusCompleted {
			return false
		}
	}
	return true
}

// MachineIDs 工单引用的所有设备ID（去重）
func (j *JobCard) MachineIDs() []string {
	seen := make(map[string]bool)
	var ids []string
	for i := range j.JobItems {
		for _, ma := range j.JobItems[i].Machines {
			if !seen[ma.MachineID] {
				seen[ma.MachineID] = true
				ids = append(ids, ma.MachineID)
			}
		}
	}
	return ids
}

// JobItem 工项，归属于一个工单
type JobItem struct {
	ID             string  `json:"id" gorm:"primaryKey;size:36"`
	JobCardID      string  `json:"job_card_id" gorm:"size:36;not null;index"`
	ItemData       JSONB   `json:"item_data" gorm:"type:jsonb;not null;default:'{}'"`
	EstimatedPrice float64 `json:"estimated_price" gorm:"type:decimal(12,2);default:0"`
	Status         string  `json:"status" gorm:"size:20;not null;default:pending"`
	QualityStatus  string  `json:"quality_status" gorm:"size:20"`
	Notes          string  `json:"notes" gorm:"type:text"`

	// 返工前已发生、被废弃的工时（秒）
	WastedSeconds int64 `json:"wasted_seconds" gorm:"not null;default:0"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	AllowedWorkers []AllowedWorker     `json:"allowed_workers,omitempty" gorm:"foreignKey:JobItemID"`
	Workers        []WorkerAssignment  `json:"workers,omitempty" gorm:"foreignKey:JobItemID"`
	Machines       []MachineAssignment `json:"machines,omitempty" gorm:"foreignKey:JobItemID"`
	Consumables    []Consumable        `json:"consumables,omitempty" gorm:"foreignKey:JobItemID"`
}

func (JobItem) TableName() string {
	return "job_items"
}

// AllWorkersEnded 工项下所有人员计时是否都已结束。
// 暂停不算结束，完成工项必须每个人都有结束时间。
func (i *JobItem) AllWorkersEnded() bool {
	for idx := range i.Workers {
		if i.Workers[idx].EndTime == nil {
			return false
		}
	}
	return true
}

// WorkerSeconds 工项下人员累计工时合计（秒）
func (i *JobItem) WorkerSeconds() int64 {
	var total int64
	for idx := range i.Workers {
		total += i.Workers[idx].ActualDuration
	}
	return total
}

// AllowedWorker 计划用工（工种/工时/人数/费率），不是执行记录
type AllowedWorker struct {
	ID        string  `json:"id" gorm:"primaryKey;size:36"`
	JobItemID string  `json:"job_item_id" gorm:"size:36;not null;index"`
	Category  string  `json:"category" gorm:"size:50;not null"`
	Hours     float64 `json:"hours" gorm:"type:decimal(8,2);default:0"`
	Count     int     `json:"count" gorm:"default:1"`
	Rate      float64 `json:"rate" gorm:"type:decimal(12,2);default:0"`
}

func (AllowedWorker) TableName() string {
	return "job_item_allowed_workers"
}

// WorkerAssignment 人员分配（含工时记录）
type WorkerAssignment struct {
	ID        string `json:"id" gorm:"primaryKey;size:36"`
	JobItemID string `json:"job_item_id" gorm:"size:36;not null;index"`
	WorkerID  string `json:"worker_id" gorm:"size:36;not null;index"`
	TimeLog   `gorm:"embedded"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WorkerAssignment) TableName() string {
	return "job_item_workers"
}

// MachineAssignment 设备分配（含工时记录）。
// MachineRate 是建单时从门店设备类目快照的小时费率，不跟随类目变动。
type MachineAssignment struct {
	ID          string  `json:"id" gorm:"primaryKey;size:36"`
	JobItemID   string  `json:"job_item_id" gorm:"size:36;not null;index"`
	MachineID   string  `json:"machine_id" gorm:"size:36;not null;index"`
	MachineRate float64 `json:"machine_rate" gorm:"type:decimal(12,2);default:0"`
	TimeLog     `gorm:"embedded"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (MachineAssignment) TableName() string {
	return "job_item_machines"
}

// Consumable 耗材使用记录，只增不减
type Consumable struct {
	ID           string    `json:"id" gorm:"primaryKey;size:36"`
	JobItemID    string    `json:"job_item_id" gorm:"size:36;not null;index"`
	Name         string    `json:"name" gorm:"size:128;not null"`
	Price        float64   `json:"price" gorm:"type:decimal(12,2);not null"`
	Available    bool      `json:"available" gorm:"default:false"`
	NumberOfUsed int       `json:"number_of_used" gorm:"default:0"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (Consumable) TableName() string {
	return "job_item_consumables"
}
