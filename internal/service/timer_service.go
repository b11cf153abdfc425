package service

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"github.com/bitfantasy/nimo-repair/internal/repository"
	"gorm.io/gorm"
)

// TimerService 人员/设备计时操作。
// 每个操作都是对工单行持锁的读-改-写事务；
// 设备的开始/结束与资源台账的占用/释放在同一事务内生效。
type TimerService struct {
	jobRepo     *repository.JobCardRepository
	machineRepo *repository.MachineRepository
	db          *gorm.DB
}

func NewTimerService(repos *repository.Repositories, db *gorm.DB) *TimerService {
	return &TimerService{
		jobRepo:     repos.JobCard,
		machineRepo: repos.Machine,
		db:          db,
	}
}

// StartWorkerTimer 开始人员计时。工单内首次开工把工项和工单推进到 in_progress。
func (s *TimerService) StartWorkerTimer(ctx context.Context, jobID, itemID, workerID string) (*entity.WorkerAssignment, error) {
	var result *entity.WorkerAssignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(s.jobRepo, tx, jobID)
		if err != nil {
			return err
		}
		item, err := findItem(job, itemID)
		if err != nil {
			return err
		}
		wa, err := findWorkerAssignment(item, workerID)
		if err != nil {
			return err
		}
		if err := wa.Start(time.Now()); err != nil {
			return stateConflict("开始计时失败: %v", err)
		}
		if err := tx.Save(wa).Error; err != nil {
			return err
		}
		if item.Status != entity.JobStatusInProgress {
			item.Status = entity.JobStatusInProgress
			if err := tx.Model(&entity.JobItem{}).Where("id = ?", item.ID).
				Update("status", entity.JobStatusInProgress).Error; err != nil {
				return err
			}
		}
		if job.Status == entity.JobStatusWaiting || job.Status == entity.JobStatusPending {
			job.Status = entity.JobStatusInProgress
			if err := tx.Model(&entity.JobCard{}).Where("id = ?", job.ID).
				Update("status", entity.JobStatusInProgress).Error; err != nil {
				return err
			}
		}
		result = wa
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// PauseWorkerTimer 暂停人员计时，本次会话时长累加后可再开始
func (s *TimerService) PauseWorkerTimer(ctx context.Context, jobID, itemID, workerID string) (*entity.WorkerAssignment, error) {
	var result *entity.WorkerAssignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(s.jobRepo, tx, jobID)
		if err != nil {
			return err
		}
		item, err := findItem(job, itemID)
		if err != nil {
			return err
		}
		wa, err := findWorkerAssignment(item, workerID)
		if err != nil {
			return err
		}
		if err := wa.Pause(time.Now()); err != nil {
			return stateConflict("暂停计时失败: %v", err)
		}
		if err := tx.Save(wa).Error; err != nil {
			return err
		}
		result = wa
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EndWorkerTimer 结束人员计时，不可恢复
func (s *TimerService) EndWorkerTimer(ctx context.Context, jobID, itemID, workerID string) (*entity.WorkerAssignment, error) {
	var result *entity.WorkerAssignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(s.jobRepo, tx, jobID)
		if err != nil {
			return err
		}
		item, err := findItem(job, itemID)
		if err != nil {
			return err
		}
		wa, err := findWorkerAssignment(item, workerID)
		if err != nil {
			return err
		}
		if err := wa.End(time.Now()); err != nil {
			return stateConflict("结束计时失败: %v", err)
		}
		if err := tx.Save(wa).Error; err != nil {
			return err
		}
		result = wa
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// StartMachineTimer 开始设备计时。锁设备行，占用台账与开启会话同事务提交；
// 设备被其他工单占用时返回资源冲突，不覆盖。
func (s *TimerService) StartMachineTimer(ctx context.Context, jobID, itemID, machineID string) (*entity.MachineAssignment, error) {
	var result *entity.MachineAssignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(s.jobRepo, tx, jobID)
		if err != nil {
			return err
		}
		item, err := findItem(job, itemID)
		if err != nil {
			return err
		}
		ma, err := findMachineAssignment(item, machineID)
		if err != nil {
			return err
		}
		machine, err := s.machineRepo.GetForUpdate(tx, machineID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFound("设备不存在 %s", machineID)
			}
			return err
		}
		if err := ma.Start(time.Now()); err != nil {
			return stateConflict("开始设备计时失败: %v", err)
		}
		if !machine.IsAvailable {
			return resourceConflict("设备 %s 已被工单 %s 占用", machineID, deref(machine.JobID))
		}
		if err := s.machineRepo.SetHolderTx(tx, machineID, job.ID); err != nil {
			return err
		}
		if err := tx.Save(ma).Error; err != nil {
			return err
		}
		result = ma
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// EndMachineTimer 结束设备计时并释放设备，同事务生效
func (s *TimerService) EndMachineTimer(ctx context.Context, jobID, itemID, machineID string) (*entity.MachineAssignment, error) {
	var result *entity.MachineAssignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(s.jobRepo, tx, jobID)
		if err != nil {
			return err
		}
		item, err := findItem(job, itemID)
		if err != nil {
			return err
		}
		ma, err := findMachineAssignment(item, machineID)
		if err != nil {
			return err
		}
		if _, err := s.machineRepo.GetForUpdate(tx, machineID); err != nil {
			if err == gorm.ErrRecordNotFound {
				return notFound("设备不存在 %s", machineID)
			}
			return err
		}
		if err := ma.End(time.Now()); err != nil {
			return stateConflict("结束设备计时失败: %v", err)
		}
		// 只释放本工单持有的占用，不清除其他工单的占用
		if err := s.machineRepo.ReleaseMachinesTx(tx, job.ID, []string{machineID}); err != nil {
			return err
		}
		if err := tx.Save(ma).Error; err != nil {
			return err
		}
		result = ma
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func findWorkerAssignment(item *entity.JobItem, workerID string) (*entity.WorkerAssignment, error) {
	for i := range item.Workers {
		if item.Workers[i].WorkerID == workerID {
			return &item.Workers[i], nil
		}
	}
	return nil, notFound("工项下无该技师分配 %s", workerID)
}

func findMachineAssignment(item *entity.JobItem, machineID string) (*entity.MachineAssignment, error) {
	for i := range item.Machines {
		if item.Machines[i].MachineID == machineID {
			return &item.Machines[i], nil
		}
	}
	return nil, notFound("工项下无该设备分配 %s", machineID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
