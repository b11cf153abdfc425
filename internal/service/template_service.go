package service

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"github.com/bitfantasy/nimo-repair/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TemplateService 工单模板维护。表单字段结构在模板里定义，
// 工单的 form_data / item_data 按字段ID存开放键值，core不做字段校验。
type TemplateService struct {
	repo *repository.TemplateRepository
}

func NewTemplateService(repo *repository.TemplateRepository) *TemplateService {
	return &TemplateService{repo: repo}
}

type CreateTemplateRequest struct {
	Name        string          `json:"name" binding:"required"`
	Description string          `json:"description"`
	Fields      json.RawMessage `json:"fields"`
}

func (s *TemplateService) Create(ctx context.Context, req CreateTemplateRequest, userID string) (*entity.JobTemplate, error) {
	fields := req.Fields
	if len(fields) == 0 {
		fields = json.RawMessage("[]")
	}
	t := &entity.JobTemplate{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Fields:      fields,
		IsActive:    true,
		CreatedBy:   userID,
	}
	if err := s.repo.Create(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) GetByID(ctx context.Context, id string) (*entity.JobTemplate, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("模板不存在 %s", id)
		}
		return nil, err
	}
	return t, nil
}

func (s *TemplateService) List(ctx context.Context) ([]entity.JobTemplate, error) {
	return s.repo.List(ctx)
}
