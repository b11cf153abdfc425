package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/bitfantasy/nimo-repair/internal/model/entity"
	"github.com/bitfantasy/nimo-repair/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RejectionService 驳回归档工作流。
// 释放设备、写归档快照、删除原工单在同一个数据库事务内提交，
// 任一步失败整体回滚，不会出现设备已释放但工单未归档之类的中间态。
type RejectionService struct {
	jobRepo     *repository.JobCardRepository
	machineRepo *repository.MachineRepository
	archiveRepo *repository.ArchiveRepository
	db          *gorm.DB
}

func NewRejectionService(repos *repository.Repositories, db *gorm.DB) *RejectionService {
	return &RejectionService{
		jobRepo:     repos.JobCard,
		machineRepo: repos.Machine,
		archiveRepo: repos.Archive,
		db:          db,
	}
}

// RejectAndArchive 驳回并归档工单
func (s *RejectionService) RejectAndArchive(ctx context.Context, jobID, reason, userID string) (*entity.RejectedJobArchive, error) {
	if reason == "" {
		return nil, validation("驳回原因不能为空")
	}

	var archive *entity.RejectedJobArchive
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		job, err := lockJob(s.jobRepo, tx, jobID)
		if err != nil {
			return err
		}

		// 释放该工单占用的全部设备
		if err := s.machineRepo.ReleaseByJobTx(tx, job.ID); err != nil {
			return err
		}

		// 归档时固化工单全量快照
		job.Status = entity.JobStatusRejected
		raw, err := json.Marshal(job)
		if err != nil {
			return err
		}
		var snapshot entity.JSONB
		if err := json.Unmarshal(raw, &snapshot); err != nil {
			return err
		}

		archive = &entity.RejectedJobArchive{
			ID:          uuid.New().String(),
			JobCardID:   job.ID,
			JobNumber:   job.JobNumber,
			ShopID:      job.ShopID,
			Reason:      reason,
			RejectedBy:  userID,
			JobSnapshot: snapshot,
			RejectedAt:  time.Now(),
		}
		if err := s.archiveRepo.CreateTx(tx, archive); err != nil {
			return err
		}

		// 删除原工单及嵌套记录
		return s.jobRepo.DeleteTx(tx, job)
	})
	if err != nil {
		return nil, err
	}
	return archive, nil
}

func (s *RejectionService) GetArchive(ctx context.Context, id string) (*entity.RejectedJobArchive, error) {
	archive, err := s.archiveRepo.GetByID(ctx, id)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, notFound("归档记录不存在 %s", id)
		}
		return nil, err
	}
	return archive, nil
}

func (s *RejectionService) ListArchives(ctx context.Context, params repository.ArchiveListParams) ([]entity.RejectedJobArchive, int64, error) {
	return s.archiveRepo.List(ctx, params)
}
