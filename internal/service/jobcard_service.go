package service

import (
	"context"
	"errors"
	"time"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"github.com/bitfantasy/nimo-repair/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type JobCardService struct {
	jobRepo     *repository.JobCardRepository
	machineRepo *repository.MachineRepository
	tmplRepo    *repository.TemplateRepository
	catalogRepo *repository.CatalogRepository
	numbers     *JobNumberGenerator
	db          *gorm.DB
}

func NewJobCardService(repos *repository.Repositories, numbers *JobNumberGenerator, db *gorm.DB) *JobCardService {
	return &JobCardService{
		jobRepo:     repos.JobCard,
		machineRepo: repos.Machine,
		tmplRepo:    repos.Template,
		catalogRepo: repos.Catalog,
		numbers:     numbers,
		db:          db,
	}
}

type AllowedWorkerRequest struct {
	Category string  `json:"category" binding:"required"`
	Hours    float64 `json:"hours"`
	Count    int     `json:"count"`
	Rate     float64 `json:"rate"`
}

type CreateJobItemRequest struct {
	ItemData       entity.JSONB           `json:"item_data"`
	EstimatedPrice float64                `json:"estimated_price"`
	Notes          string                 `json:"notes"`
	Machines       []string               `json:"machines"` // 设备ID列表
	AllowedWorkers []AllowedWorkerRequest `json:"allowed_workers"`
	Consumables    []ConsumableRequest    `json:"consumables"`
}

type ConsumableRequest struct {
	Name  string  `json:"name" binding:"required"`
	Price float64 `json:"price"`
}

type CreateJobCardRequest struct {
	TemplateID string                 `json:"template_id" binding:"required"`
	ShopID     string                 `json:"shop_id" binding:"required"`
	CustomerID string                 `json:"customer_id" binding:"required"`
	FormData   entity.JSONB           `json:"form_data"`
	Notes      string                 `json:"notes"`
	Items      []CreateJobItemRequest `json:"items" binding:"required,min=1,dive"`
}

// Create 创建工单。模板必须存在；每台引用设备的类目费率
// 在此刻快照，任一设备或类目解析失败则整单创建失败。
func (s *JobCardService) Create(ctx context.Context, req CreateJobCardRequest, userID string) (*entity.JobCard, error) {
	if _, err := s.tmplRepo.GetByID(ctx, req.TemplateID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("模板不存在 %s", req.TemplateID)
		}
		return nil, err
	}

	job := &entity.JobCard{
		ID:         uuid.New().String(),
		JobNumber:  s.numbers.Next(ctx),
		TemplateID: req.TemplateID,
		ShopID:     req.ShopID,
		CustomerID: req.CustomerID,
		FormData:   req.FormData,
		Status:     entity.JobStatusWaiting,
		Notes:      req.Notes,
		CreatedBy:  userID,
	}
	if job.FormData == nil {
		job.FormData = entity.JSONB{}
	}

	// 同一类目的费率只查一次
	rateCache := make(map[string]float64)

	for _, itemReq := range req.Items {
		item := entity.JobItem{
			ID:             uuid.New().String(),
			JobCardID:      job.ID,
			ItemData:       itemReq.ItemData,
			EstimatedPrice: itemReq.EstimatedPrice,
			Status:         entity.JobStatusPending,
			Notes:          itemReq.Notes,
		}
		if item.ItemData == nil {
			item.ItemData = entity.JSONB{}
		}
		job.TotalEstimatedAmount += itemReq.EstimatedPrice

		for _, aw := range itemReq.AllowedWorkers {
			count := aw.Count
			if count <= 0 {
				count = 1
			}
			item.AllowedWorkers = append(item.AllowedWorkers, entity.AllowedWorker{
				ID:        uuid.New().String(),
				JobItemID: item.ID,
				Category:  aw.Category,
				Hours:     aw.Hours,
				Count:     count,
				Rate:      aw.Rate,
			})
		}

		for _, machineID := range itemReq.Machines {
			machine, err := s.machineRepo.GetByID(ctx, machineID)
			if err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, notFound("设备不存在 %s", machineID)
				}
				return nil, err
			}
			rate, ok := rateCache[machine.CategoryID]
			if !ok {
				cat, err := s.machineRepo.GetShopCategory(ctx, req.ShopID, machine.CategoryID)
				if err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return nil, notFound("门店 %s 下无设备类目 %s", req.ShopID, machine.CategoryID)
					}
					return nil, err
				}
				rate = cat.HourlyRate
				rateCache[machine.CategoryID] = rate
			}
			item.Machines = append(item.Machines, entity.MachineAssignment{
				ID:          uuid.New().String(),
				JobItemID:   item.ID,
				MachineID:   machineID,
				MachineRate: rate,
			})
		}

		for _, c := range itemReq.Consumables {
			item.Consumables = append(item.Consumables, entity.Consumable{
				ID:        uuid.New().String(),
				JobItemID: item.ID,
				Name:      c.Name,
				Price:     c.Price,
			})
		}

		job.JobItems = append(job.JobItems, item)
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, err
	}
	return job, nil
}

func (s *JobCardService) GetByID(ctx context.Context, id string) (*entity.JobCard, error) {
	job, err := s.jobRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("工单不存在 %s", id)
		}
		return nil, err
	}
	return job, nil
}

func (s *JobCardService) List(ctx context.Context, params repository.JobCardListParams) ([]entity.JobCard, int64, error) {
	return s.jobRepo.List(ctx, params)
}

// Delete 管理删除，不走归档流程
func (s *JobCardService) Delete(ctx context.Context, id string) error {
	err := s.jobRepo.Delete(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound("工单不存在 %s", id)
	}
	return err
}

// AssignWorker 给工项分配技师。按技师ID做集合插入，重复分配是幂等空操作。
func (s *JobCardService) AssignWorker(ctx context.Context, jobID, itemID, workerID string) (*entity.JobItem, error) {
	if _, err := s.catalogRepo.GetWorker(ctx, workerID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("技师不存在 %s", workerID)
		}
		return nil, err
	}

	var result *entity.JobItem
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(s.jobRepo, tx, jobID)
		if err != nil {
			return err
		}
		item, err := findItem(job, itemID)
		if err != nil {
			return err
		}
		for i := range item.Workers {
			if item.Workers[i].WorkerID == workerID {
				result = item // 已分配，幂等返回
				return nil
			}
		}
		wa := entity.WorkerAssignment{
			ID:        uuid.New().String(),
			JobItemID: item.ID,
			WorkerID:  workerID,
		}
		if err := tx.Create(&wa).Error; err != nil {
			return err
		}
		item.Workers = append(item.Workers, wa)
		result = item
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CompleteJobItem 完成工项。要求每个技师计时都已结束（暂停不算），
// 人员工时汇总进工单只发生这一次；工项占用的设备同时释放。
func (s *JobCardService) CompleteJobItem(ctx context.Context, jobID, itemID string) (*entity.JobCard, error) {
	var result *entity.JobCard
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(s.jobRepo, tx, jobID)
		if err != nil {
			return err
		}
		item, err := findItem(job, itemID)
		if err != nil {
			return err
		}
		// rejected 允许返工后再次完成；completed/approved 不允许重复完成，
		// 否则工时会二次汇总进工单
		switch item.Status {
		case entity.JobStatusPending, entity.JobStatusInProgress, entity.JobStatusRejected:
		default:
			return stateConflict("工项状态 %s 不能完成", item.Status)
		}
		if !item.AllWorkersEnded() {
			return stateConflict("工项还有未结束的人员计时 %s", itemID)
		}

		now := time.Now()

		// 同一工单其他工项仍有进行中设备会话的设备不在此释放
		busyElsewhere := make(map[string]bool)
		for i := range job.JobItems {
			if job.JobItems[i].ID == item.ID {
				continue
			}
			for j := range job.JobItems[i].Machines {
				if job.JobItems[i].Machines[j].Running() {
					busyElsewhere[job.JobItems[i].Machines[j].MachineID] = true
				}
			}
		}

		// 关闭仍在计时的设备会话并释放设备
		var machineIDs []string
		for i := range item.Machines {
			ma := &item.Machines[i]
			if ma.Running() {
				if err := ma.End(now); err != nil {
					return stateConflict("结束设备计时失败: %v", err)
				}
				if err := tx.Save(ma).Error; err != nil {
					return err
				}
			}
			if !busyElsewhere[ma.MachineID] {
				machineIDs = append(machineIDs, ma.MachineID)
			}
		}
		if err := s.machineRepo.ReleaseMachinesTx(tx, job.ID, machineIDs); err != nil {
			return err
		}

		item.Status = entity.JobStatusCompleted
		if err := tx.Model(&entity.JobItem{}).Where("id = ?", item.ID).
			Update("status", entity.JobStatusCompleted).Error; err != nil {
			return err
		}

		updates := map[string]interface{}{
			"actual_man_hours": gorm.Expr("actual_man_hours + ?", item.WorkerSeconds()),
		}
		job.ActualManHours += item.WorkerSeconds()
		if job.AllItemsCompleted() {
			job.Status = entity.JobStatusCompleted
			updates["status"] = entity.JobStatusCompleted
		}
		if err := tx.Model(&entity.JobCard{}).Where("id = ?", job.ID).
			Updates(updates).Error; err != nil {
			return err
		}
		result = job
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// RecordConsumableUsage 记录耗材使用，只增不减
func (s *JobCardService) RecordConsumableUsage(ctx context.Context, jobID, itemID, consumableID string, qty int) (*entity.Consumable, error) {
	if qty <= 0 {
		return nil, validation("使用数量必须为正数，收到 %d", qty)
	}
	var result *entity.Consumable
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(s.jobRepo, tx, jobID)
		if err != nil {
			return err
		}
		item, err := findItem(job, itemID)
		if err != nil {
			return err
		}
		var consumable *entity.Consumable
		for i := range item.Consumables {
			if item.Consumables[i].ID == consumableID {
				consumable = &item.Consumables[i]
				break
			}
		}
		if consumable == nil {
			return notFound("耗材不存在 %s", consumableID)
		}

		consumable.NumberOfUsed += qty
		consumable.Available = true
		if err := tx.Model(&entity.Consumable{}).Where("id = ?", consumable.ID).
			Updates(map[string]interface{}{
				"number_of_used": consumable.NumberOfUsed,
				"available":      true,
			}).Error; err != nil {
			return err
		}

		cost := consumable.Price * float64(qty)
		if err := tx.Model(&entity.JobCard{}).Where("id = ?", job.ID).
			Update("actual_total_amount", gorm.Expr("actual_total_amount + ?", cost)).Error; err != nil {
			return err
		}
		result = consumable
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// lockJob 锁定工单行，gorm.ErrRecordNotFound 统一转成业务not-found
func lockJob(repo *repository.JobCardRepository, tx *gorm.DB, jobID string) (*entity.JobCard, error) {
	job, err := repo.GetForUpdate(tx, jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("工单不存在 %s", jobID)
		}
		return nil, err
	}
	return job, nil
}

func findItem(job *entity.JobCard, itemID string) (*entity.JobItem, error) {
	for i := range job.JobItems {
		if job.JobItems[i].ID == itemID {
			return &job.JobItems[i], nil
		}
	}
	return nil, notFound("工项不存在 %s", itemID)
}
