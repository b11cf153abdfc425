package repository

import (
	"context"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type MachineRepository struct {
	db *gorm.DB
}

func NewMachineRepository(db *gorm.DB) *MachineRepository {
	return &MachineRepository{db: db}
}

func (r *MachineRepository) Create(ctx context.Context, m *entity.Machine) error {
	return r.db.WithContext(ctx).Create(m).Error
}

func (r *MachineRepository) GetByID(ctx context.Context, id string) (*entity.Machine, error) {
	var m entity.Machine
	err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error
	return &m, err
}

// GetForUpdate 锁定设备行，分配/释放必须在持锁状态下进行
func (r *MachineRepository) GetForUpdate(tx *gorm.DB, id string) (*entity.Machine, error) {
	var m entity.Machine
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&m, "id = ?", id).Error
	return &m, err
}

// SetHolderTx 占用设备：is_available=false, job_id=<jobID>
func (r *MachineRepository) SetHolderTx(tx *gorm.DB, machineID, jobID string) error {
	return tx.Model(&entity.Machine{}).Where("id = ?", machineID).
		Updates(map[string]interface{}{
			"is_available": false,
			"job_id":       jobID,
		}).Error
}

// ReleaseByJobTx 释放某工单占用的全部设备
func (r *MachineRepository) ReleaseByJobTx(tx *gorm.DB, jobID string) error {
	return tx.Model(&entity.Machine{}).Where("job_id = ?", jobID).
		Updates(map[string]interface{}{
			"is_available": true,
			"job_id":       nil,
		}).Error
}

// ReleaseMachinesTx 释放某工单占用的指定设备
func (r *MachineRepository) ReleaseMachinesTx(tx *gorm.DB, jobID string, machineIDs []string) error {
	if len(machineIDs) == 0 {
		return nil
	}
	return tx.Model(&entity.Machine{}).
		Where("job_id = ? AND id IN ?", jobID, machineIDs).
		Updates(map[string]interface{}{
			"is_available": true,
			"job_id":       nil,
		}).Error
}

type MachineListParams struct {
	ShopID     string
	CategoryID string
	Available  *bool
	Page       int
	Size       int
}

func (r *MachineRepository) List(ctx context.Context, params MachineListParams) ([]entity.Machine, int64, error) {
	query := r.db.WithContext(ctx).Model(&entity.Machine{})
	if params.ShopID != "" {
		query = query.Where("shop_id = ?", params.ShopID)
	}
	if params.CategoryID != "" {
		query = query.Where("category_id = ?", params.CategoryID)
	}
	if params.Available != nil {
		query = query.Where("is_available = ?", *params.Available)
	}
	var total int64
	query.Count(&total)
	if params.Page <= 0 {
		params.Page = 1
	}
	if params.Size <= 0 {
		params.Size = 20
	}
	var machines []entity.Machine
	err := query.Order("created_at DESC").
		Offset((params.Page - 1) * params.Size).Limit(params.Size).Find(&machines).Error
	return machines, total, err
}

// GetCategory 获取设备类目
func (r *MachineRepository) GetCategory(ctx context.Context, id string) (*entity.MachineCategory, error) {
	var cat entity.MachineCategory
	err := r.db.WithContext(ctx).First(&cat, "id = ?", id).Error
	return &cat, err
}

// GetShopCategory 获取门店下的设备类目（建单时快照小时费率用）
func (r *MachineRepository) GetShopCategory(ctx context.Context, shopID, categoryID string) (*entity.MachineCategory, error) {
	var cat entity.MachineCategory
	err := r.db.WithContext(ctx).
		First(&cat, "id = ? AND shop_id = ?", categoryID, shopID).Error
	return &cat, err
}

func (r *MachineRepository) CreateCategory(ctx context.Context, cat *entity.MachineCategory) error {
	return r.db.WithContext(ctx).Create(cat).Error
}

func (r *MachineRepository) ListCategories(ctx context.Context, shopID string) ([]entity.MachineCategory, error) {
	var cats []entity.MachineCategory
	query := r.db.WithContext(ctx).Model(&entity.MachineCategory{})
	if shopID != "" {
		query = query.Where("shop_id = ?", shopID)
	}
	err := query.Order("name ASC").Find(&cats).Error
	return cats, err
}

// DB 返回底层db用于事务
func (r *MachineRepository) DB() *gorm.DB {
	return r.db
}
