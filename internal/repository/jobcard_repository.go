package repository

import (
	"context"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type JobCardRepository struct {
	db *gorm.DB
}

func NewJobCardRepository(db *gorm.DB) *JobCardRepository {
	return &JobCardRepository{db: db}
}

func (r *JobCardRepository) Create(ctx context.Context, job *entity.JobCard) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *JobCardRepository) GetByID(ctx context.Context, id string) (*entity.JobCard, error) {
	var job entity.JobCard
	err := preloadItems(r.db.WithContext(ctx)).First(&job, "id = ?", id).Error
	return &job, err
}

// GetForUpdate 锁定工单行后再加载嵌套记录。
// 对同一工单的并发生命周期操作由父行锁串行化。
func (r *JobCardRepository) GetForUpdate(tx *gorm.DB, id string) (*entity.JobCard, error) {
	var job entity.JobCard
	if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	if err := preloadItems(tx).First(&job, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

func preloadItems(db *gorm.DB) *gorm.DB {
	return db.
		Preload("JobItems", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("JobItems.AllowedWorkers").
		Preload("JobItems.Workers").
		Preload("JobItems.Machines").
		Preload("JobItems.Consumables")
}

type JobCardListParams struct {
	Status     string
	ShopID     string
	CustomerID string
	Keyword    string
	Page       int
	Size       int
}

func (r *JobCardRepository) List(ctx context.Context, params JobCardListParams) ([]entity.JobCard, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.JobCard{})
	if params.Status != "" {
		query = query.Where("status = ?", params.Status)
	}
	if params.ShopID != "" {
		query = query.Where("shop_id = ?", params.ShopID)
	}
	if params.CustomerID != "" {
		query = query.Where("customer_id = ?", params.CustomerID)
	}
	if params.Keyword != "" {
		query = query.Where("job_number ILIKE ?", "%"+params.Keyword+"%")
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var jobs []entity.JobCard
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&jobs).Error
	return jobs, total, err
}

// DeleteTx 删除工单及其全部嵌套记录，调用方负责事务
func (r *JobCardRepository) DeleteTx(tx *gorm.DB, job *entity.JobCard) error {
	itemIDs := make([]string, 0, len(job.JobItems))
	for i := range job.JobItems {
		itemIDs = append(itemIDs, job.JobItems[i].ID)
	}
	if len(itemIDs) > 0 {
		for _, model := range []interface{}{
			&entity.AllowedWorker{},
			&entity.WorkerAssignment{},
			&entity.MachineAssignment{},
			&entity.Consumable{},
		} {
			if err := tx.Where("job_item_id IN ?", itemIDs).Delete(model).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("job_card_id = ?", job.ID).Delete(&entity.JobItem{}).Error; err != nil {
			return err
		}
	}
	return tx.Delete(&entity.JobCard{}, "id = ?", job.ID).Error
}

// Delete 管理删除（不归档）
func (r *JobCardRepository) Delete(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := r.GetForUpdate(tx, id)
		if err != nil {
			return err
		}
		return r.DeleteTx(tx, job)
	})
}

// DB 返回底层db用于事务
func (r *JobCardRepository) DB() *gorm.DB {
	return r.db
}
