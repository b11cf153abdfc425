package repository

import (
	"context"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"gorm.io/gorm"
)

type TemplateRepository struct {
	db *gorm.DB
}

func NewTemplateRepository(db *gorm.DB) *TemplateRepository {
	return &TemplateRepository{db: db}
}

func (r *TemplateRepository) Create(ctx context.Context, t *entity.JobTemplate) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TemplateRepository) GetByID(ctx context.Context, id string) (*entity.JobTemplate, error) {
	var t entity.JobTemplate
	err := r.db.WithContext(ctx).First(&t, "id = ?", id).Error
	return &t, err
}

func (r *TemplateRepository) List(ctx context.Context) ([]entity.JobTemplate, error) {
	var templates []entity.JobTemplate
	err := r.db.WithContext(ctx).Where("is_active = ?", true).
		Order("created_at DESC").Find(&templates).Error
	return templates, err
}
