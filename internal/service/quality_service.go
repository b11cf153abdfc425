package service

import (
	"context"
	"time"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"github.com/bitfantasy/nimo-repair/internal/repository"
	"gorm.io/gorm"
)

// QualityService 质检与审批检查点
type QualityService struct {
	jobRepo     *repository.JobCardRepository
	machineRepo *repository.MachineRepository
	db          *gorm.DB
}

func NewQualityService(repos *repository.Repositories, db *gorm.DB) *QualityService {
	return &QualityService{
		jobRepo:     repos.JobCard,
		machineRepo: repos.Machine,
		db:          db,
	}
}

// Decide 工项质检。
// 合格：工项approved、工单approved。
// 不合格：工项rejected返工，人员/设备计时的开始/结束时间清空，
// 已发生的累计时长保留、同时计入 wasted_seconds；
// 已汇总进工单的该工项工时回退，避免返工完成后二次汇总时重复累计。
func (s *QualityService) Decide(ctx context.Context, jobID, itemID, userID string, good bool, notes string) (*entity.JobCard, error) {
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
		if item.Status != entity.JobStatusCompleted {
			return stateConflict("工项未完成，不能质检 %s", itemID)
		}

		if good {
			item.Status = entity.JobStatusApproved
			item.QualityStatus = entity.QualityGood
			itemUpdates := map[string]interface{}{
				"status":         entity.JobStatusApproved,
				"quality_status": entity.QualityGood,
			}
			if notes != "" {
				item.Notes = notes
				itemUpdates["notes"] = notes
			}
			if err := tx.Model(&entity.JobItem{}).Where("id = ?", item.ID).
				Updates(itemUpdates).Error; err != nil {
				return err
			}

			// 工单级approved要等全部工项质检合格，单项合格不提前放行
			allApproved := true
			for i := range job.JobItems {
				if job.JobItems[i].Status != entity.JobStatusApproved {
					allApproved = false
					break
				}
			}
			if allApproved {
				job.Status = entity.JobStatusApproved
				job.QualityStatus = entity.QualityGood
				job.WorkVerified = userID
				if err := tx.Model(&entity.JobCard{}).Where("id = ?", job.ID).
					Updates(map[string]interface{}{
						"status":         entity.JobStatusApproved,
						"quality_status": entity.QualityGood,
						"work_verified":  userID,
					}).Error; err != nil {
					return err
				}
			}
			result = job
			return nil
		}

		// 不合格返工
		wasted := item.WorkerSeconds()
		for i := range item.Workers {
			item.Workers[i].Reopen()
			if err := tx.Save(&item.Workers[i]).Error; err != nil {
				return err
			}
		}
		var machineIDs []string
		for i := range item.Machines {
			item.Machines[i].Reopen()
			if err := tx.Save(&item.Machines[i]).Error; err != nil {
				return err
			}
			machineIDs = append(machineIDs, item.Machines[i].MachineID)
		}
		// 返工工项不再占用设备
		if err := s.machineRepo.ReleaseMachinesTx(tx, job.ID, machineIDs); err != nil {
			return err
		}

		item.Status = entity.JobStatusRejected
		item.QualityStatus = entity.QualityNeedsWork
		item.WastedSeconds += wasted
		itemUpdates := map[string]interface{}{
			"status":         entity.JobStatusRejected,
			"quality_status": entity.QualityNeedsWork,
			"wasted_seconds": item.WastedSeconds,
		}
		if notes != "" {
			item.Notes = notes
			itemUpdates["notes"] = notes
		}
		if err := tx.Model(&entity.JobItem{}).Where("id = ?", item.ID).
			Updates(itemUpdates).Error; err != nil {
			return err
		}

		job.Status = entity.JobStatusRejected
		job.QualityStatus = entity.QualityNeedsWork
		job.WorkVerified = userID
		job.ActualManHours -= wasted
		if job.ActualManHours < 0 {
			job.ActualManHours = 0
		}
		if err := tx.Model(&entity.JobCard{}).Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":           entity.JobStatusRejected,
				"quality_status":   entity.QualityNeedsWork,
				"work_verified":    userID,
				"actual_man_hours": job.ActualManHours,
			}).Error; err != nil {
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

// SupervisorApprove 主管批准：completed → supapproved
func (s *QualityService) SupervisorApprove(ctx context.Context, jobID, userID, notes string) (*entity.JobCard, error) {
	return s.transition(ctx, jobID, userID, notes,
		[]string{entity.JobStatusCompleted}, entity.JobStatusSupApproved)
}

// SupervisorReject 主管驳回：completed/supapproved → rejected。
// 工单留在库中，归档由显式的驳回归档操作执行。
func (s *QualityService) SupervisorReject(ctx context.Context, jobID, userID, notes string) (*entity.JobCard, error) {
	return s.transition(ctx, jobID, userID, notes,
		[]string{entity.JobStatusCompleted, entity.JobStatusSupApproved}, entity.JobStatusRejected)
}

// CustomerVerify 客户验收：终态工单重置回pending再来一轮，
// 只能从质检/审批终态进入。
func (s *QualityService) CustomerVerify(ctx context.Context, jobID, userID string) (*entity.JobCard, error) {
	var result *entity.JobCard
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(s.jobRepo, tx, jobID)
		if err != nil {
			return err
		}
		switch job.Status {
		case entity.JobStatusApproved, entity.JobStatusRejected, entity.JobStatusSupApproved:
		default:
			return stateConflict("工单状态 %s 不能客户验收", job.Status)
		}
		job.Status = entity.JobStatusPending
		job.IsVerifiedByUser = true
		job.WorkVerified = userID
		if err := tx.Model(&entity.JobCard{}).Where("id = ?", job.ID).
			Updates(map[string]interface{}{
				"status":              entity.JobStatusPending,
				"is_verified_by_user": true,
				"work_verified":       userID,
				"updated_at":          time.Now(),
			}).Error; err != nil {
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

func (s *QualityService) transition(ctx context.Context, jobID, userID, notes string, from []string, to string) (*entity.JobCard, error) {
	var result *entity.JobCard
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(s.jobRepo, tx, jobID)
		if err != nil {
			return err
		}
		allowed := false
		for _, st := range from {
			if job.Status == st {
				allowed = true
				break
			}
		}
		if !allowed {
			return stateConflict("工单状态 %s 不允许该操作", job.Status)
		}
		job.Status = to
		updates := map[string]interface{}{"status": to}
		if notes != "" {
			job.Notes = notes
			updates["notes"] = notes
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
