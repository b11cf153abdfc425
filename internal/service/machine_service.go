package service

import (
	"context"
	"errors"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"github.com/bitfantasy/nimo-repair/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// MachineService 设备台账维护
type MachineService struct {
	repo *repository.MachineRepository
}

func NewMachineService(repo *repository.MachineRepository) *MachineService {
	return &MachineService{repo: repo}
}

type CreateMachineRequest struct {
	ShopID     string `json:"shop_id" binding:"required"`
	CategoryID string `json:"category_id" binding:"required"`
	Name       string `json:"name" binding:"required"`
	SerialNo   string `json:"serial_no"`
}

func (s *MachineService) Create(ctx context.Context, req CreateMachineRequest) (*entity.Machine, error) {
	if _, err := s.repo.GetShopCategory(ctx, req.ShopID, req.CategoryID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("门店 %s 下无设备类目 %s", req.ShopID, req.CategoryID)
		}
		return nil, err
	}
	m := &entity.Machine{
		ID:          uuid.New().String(),
		ShopID:      req.ShopID,
		CategoryID:  req.CategoryID,
		Name:        req.Name,
		SerialNo:    req.SerialNo,
		IsAvailable: true,
	}
	if err := s.repo.Create(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}

func (s *MachineService) GetByID(ctx context.Context, id string) (*entity.Machine, error) {
	m, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("设备不存在 %s", id)
		}
		return nil, err
	}
	return m, nil
}

func (s *MachineService) List(ctx context.Context, params repository.MachineListParams) ([]entity.Machine, int64, error) {
	return s.repo.List(ctx, params)
}

type CreateMachineCategoryRequest struct {
	ShopID     string  `json:"shop_id" binding:"required"`
	Name       string  `json:"name" binding:"required"`
	HourlyRate float64 `json:"hourly_rate" binding:"gte=0"`
}

func (s *MachineService) CreateCategory(ctx context.Context, req CreateMachineCategoryRequest) (*entity.MachineCategory, error) {
	cat := &entity.MachineCategory{
		ID:         uuid.New().String(),
		ShopID:     req.ShopID,
		Name:       req.Name,
		HourlyRate: req.HourlyRate,
	}
	if err := s.repo.CreateCategory(ctx, cat); err != nil {
		return nil, err
	}
	return cat, nil
}

func (s *MachineService) ListCategories(ctx context.Context, shopID string) ([]entity.MachineCategory, error) {
	return s.repo.ListCategories(ctx, shopID)
}
