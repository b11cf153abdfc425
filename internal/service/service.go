package service

import (
	"github.com/bitfantasy/nimo-repair/internal/repository"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services 服务集合
type Services struct {
	JobCard   *JobCardService
	Timer     *TimerService
	Quality   *QualityService
	Rejection *RejectionService
	Machine   *MachineService
	Template  *TemplateService
	Catalog   *CatalogService
	Export    *ExportService
}

func NewServices(repos *repository.Repositories, db *gorm.DB, rdb *redis.Client) *Services {
	numbers := NewJobNumberGenerator(rdb)
	return &Services{
		JobCard:   NewJobCardService(repos, numbers, db),
		Timer:     NewTimerService(repos, db),
		Quality:   NewQualityService(repos, db),
		Rejection: NewRejectionService(repos, db),
		Machine:   NewMachineService(repos.Machine),
		Template:  NewTemplateService(repos.Template),
		Catalog:   NewCatalogService(repos.Catalog),
		Export:    NewExportService(repos.JobCard),
	}
}
