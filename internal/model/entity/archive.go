package entity

import (
	"time"
)

// RejectedJobArchive 驳回工单归档。
// 驳回时对工单做一次完整快照，原工单随后删除；归档记录不可变更。
type RejectedJobArchive struct {
	ID          string    `json:"id" gorm:"primaryKey;size:36"`
	JobCardID   string    `json:"job_card_id" gorm:"size:36;not null;index"`
	JobNumber   string    `json:"job_number" gorm:"size:50;not null"`
	ShopID      string    `json:"shop_id" gorm:"size:36;not null;index"`
	Reason      string    `json:"reason" gorm:"type:text;not null"`
	RejectedBy  string    `json:"rejected_by" gorm:"size:36;not null"`
	JobSnapshot JSONB     `json:"job_snapshot" gorm:"type:jsonb;not null"`
	RejectedAt  time.Time `json:"rejected_at" gorm:"not null"`
	CreatedAt   time.Time `json:"created_at"`
}

func (RejectedJobArchive) TableName() string {
	return "rejected_job_archives"
}
