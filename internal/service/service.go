package service

import (
	"go.uber.org/zap"

	"github.com/GCLiuShang/AcademyDBMS-sub001/config"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/repository"
)

// Service 所有 Service 的聚合入口
type Service struct {
	BusinessGate  BusinessGateService
	Catalog       CatalogService
	CourseArrange CourseArrangeService
	Enrollment    EnrollmentService
	Exam          ExamService
	StatusSweep   StatusSweepService
	Export        ExportService
}

// NewService 创建 Service 聚合
func NewService(
	cfg *config.Config,
	repo *repository.Repository,
	logger *zap.Logger,
) *Service {
	return &Service{
		BusinessGate:  NewBusinessGateService(repo, logger),
		Catalog:       NewCatalogService(repo, logger),
		CourseArrange: NewCourseArrangeService(repo, logger),
		Enrollment:    NewEnrollmentService(repo, logger),
		Exam:          NewExamService(repo, logger),
		StatusSweep:   NewStatusSweepService(repo, cfg.Scheduler, logger),
		Export:        NewExportService(repo, logger),
	}
}
