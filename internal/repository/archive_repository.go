package repository

import (
	"context"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"gorm.io/gorm"
)

type ArchiveRepository struct {
	db *gorm.DB
}

func NewArchiveRepository(db *gorm.DB) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// CreateTx 在调用方事务内写入归档记录
func (r *ArchiveRepository) CreateTx(tx *gorm.DB, archive *entity.RejectedJobArchive) error {
	return tx.Create(archive).Error
}

func (r *ArchiveRepository) GetByID(ctx context.Context, id string) (*entity.RejectedJobArchive, error) {
	var archive entity.RejectedJobArchive
	err := r.db.WithContext(ctx).First(&archive, "id = ?", id).Error
	return &archive, err
}

func (r *ArchiveRepository) GetByJobCardID(ctx context.Context, jobCardID string) (*entity.RejectedJobArchive, error) {
	var archive entity.RejectedJobArchive
	err := r.db.WithContext(ctx).First(&archive, "job_card_id = ?", jobCardID).Error
	return &archive, err
}

type ArchiveListParams struct {
	ShopID  string
	Keyword string
	Page    int
	Size    int
}

func (r *ArchiveRepository) List(ctx context.Context, params ArchiveListParams) ([]entity.RejectedJobArchive, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.RejectedJobArchive{})
	if params.ShopID != "" {
		query = query.Where("shop_id = ?", params.ShopID)
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
	var archives []entity.RejectedJobArchive
	err := query.Order("rejected_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&archives).Error
	return archives, total, err
}
