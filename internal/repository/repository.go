package repository

import "gorm.io/gorm"

// Repositories 仓库集合
type Repositories struct {
	JobCard  *JobCardRepository
	Machine  *MachineRepository
	Archive  *ArchiveRepository
	Template *TemplateRepository
	Catalog  *CatalogRepository
}

func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		JobCard:  NewJobCardRepository(db),
		Machine:  NewMachineRepository(db),
		Archive:  NewArchiveRepository(db),
		Template: NewTemplateRepository(db),
		Catalog:  NewCatalogRepository(db),
	}
}
