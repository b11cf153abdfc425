package service

import (
	"context"
	"errors"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"github.com/bitfantasy/nimo-repair/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CatalogService 门店/客户/技师基础数据维护
type CatalogService struct {
	repo *repository.CatalogRepository
}

func NewCatalogService(repo *repository.CatalogRepository) *CatalogService {
	return &CatalogService{repo: repo}
}

type CreateShopRequest struct {
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

func (s *CatalogService) CreateShop(ctx context.Context, req CreateShopRequest) (*entity.Shop, error) {
	shop := &entity.Shop{
		ID:      uuid.New().String(),
		Name:    req.Name,
		Address: req.Address,
		Phone:   req.Phone,
	}
	if err := s.repo.CreateShop(ctx, shop); err != nil {
		return nil, err
	}
	return shop, nil
}

func (s *CatalogService) GetShop(ctx context.Context, id string) (*entity.Shop, error) {
	shop, err := s.repo.GetShop(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("门店不存在 %s", id)
		}
		return nil, err
	}
	return shop, nil
}

type CreateCustomerRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone"`
	Email string `json:"email"`
}

func (s *CatalogService) CreateCustomer(ctx context.Context, req CreateCustomerRequest) (*entity.Customer, error) {
	customer := &entity.Customer{
		ID:    uuid.New().String(),
		Name:  req.Name,
		Phone: req.Phone,
		Email: req.Email,
	}
	if err := s.repo.CreateCustomer(ctx, customer); err != nil {
		return nil, err
	}
	return customer, nil
}

func (s *CatalogService) GetCustomer(ctx context.Context, id string) (*entity.Customer, error) {
	customer, err := s.repo.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("客户不存在 %s", id)
		}
		return nil, err
	}
	return customer, nil
}

type CreateWorkerRequest struct {
	ShopID   string `json:"shop_id" binding:"required"`
	Name     string `json:"name" binding:"required"`
	Category string `json:"category"`
}

func (s *CatalogService) CreateWorker(ctx context.Context, req CreateWorkerRequest) (*entity.Worker, error) {
	worker := &entity.Worker{
		ID:       uuid.New().String(),
		ShopID:   req.ShopID,
		Name:     req.Name,
		Category: req.Category,
		Status:   "active",
	}
	if err := s.repo.CreateWorker(ctx, worker); err != nil {
		return nil, err
	}
	return worker, nil
}

func (s *CatalogService) ListWorkers(ctx context.Context, shopID string) ([]entity.Worker, error) {
	return s.repo.ListWorkers(ctx, shopID)
}
