package repository

import (
	"context"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"gorm.io/gorm"
)

// CatalogRepository 门店/客户/技师等基础数据
type CatalogRepository struct {
	db *gorm.DB
}

func NewCatalogRepository(db *gorm.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

func (r *CatalogRepository) GetShop(ctx context.Context, id string) (*entity.Shop, error) {
	var shop entity.Shop
	err := r.db.WithContext(ctx).First(&shop, "id = ?", id).Error
	return &shop, err
}

func (r *CatalogRepository) CreateShop(ctx context.Context, shop *entity.Shop) error {
	return r.db.WithContext(ctx).Create(shop).Error
}

func (r *CatalogRepository) GetCustomer(ctx context.Context, id string) (*entity.Customer, error) {
	var customer entity.Customer
	err := r.db.WithContext(ctx).First(&customer, "id = ?", id).Error
	return &customer, err
}

func (r *CatalogRepository) CreateCustomer(ctx context.Context, customer *entity.Customer) error {
	return r.db.WithContext(ctx).Create(customer).Error
}

func (r *CatalogRepository) GetWorker(ctx context.Context, id string) (*entity.Worker, error) {
	var worker entity.Worker
	err := r.db.WithContext(ctx).First(&worker, "id = ?", id).Error
	return &worker, err
}

func (r *CatalogRepository) CreateWorker(ctx context.Context, worker *entity.Worker) error {
	return r.db.WithContext(ctx).Create(worker).Error
}

func (r *CatalogRepository) ListWorkers(ctx context.Context, shopID string) ([]entity.Worker, error) {
	var workers []entity.Worker
	query := r.db.WithContext(ctx).Model(&entity.Worker{})
	if shopID != "" {
		query = query.Where("shop_id = ?", shopID)
	}
	err := query.Order("name ASC").Find(&workers).Error
	return workers, err
}
