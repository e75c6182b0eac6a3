package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/dto"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/repository"
	"github.com/GCLiuShang/AcademyDBMS-sub001/pkg/apperrors"
)

// ── 业务开关模块业务错误 ──

var (
	ErrWrongPassword    = apperrors.Validation("密码错误")
	ErrNotAdmin         = apperrors.Validation("只有系管理员可以操作业务开关")
	ErrNoCurrentTerm    = apperrors.NotFound("当前学期不存在")
	ErrAccountNotFound  = apperrors.NotFound("账号不存在")
)

// BusinessGateService 业务开关接口
//
// 三个开关（课程提案 / 开课提案 / 选课）的读取与更新。
// 更新携带级联：关闭开关时在同一事务内裁决在途提案与课程实例，
// 任何一步失败整体回滚，开关与级联要么同时生效要么都不生效。
type BusinessGateService interface {
	Current(ctx context.Context) (*dto.FlagsResponse, error)
	Update(ctx context.Context, callerNo string, req *dto.UpdateFlagsRequest) error
}

type businessGateService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewBusinessGateService 创建 BusinessGateService 实例
func NewBusinessGateService(repo *repository.Repository, logger *zap.Logger) BusinessGateService {
	return &businessGateService{repo: repo, logger: logger}
}

// ────────────────────── Current ──────────────────────

func (s *businessGateService) Current(ctx context.Context) (*dto.FlagsResponse, error) {
	sem, err := s.repo.Semester.GetCurrent(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCurrentTerm
		}
		s.logger.Error("查询当前学期失败", zap.Error(err))
		return nil, err
	}

	flags, err := s.repo.Semester.GetFlags(ctx, sem.Code)
	if err != nil {
		s.logger.Error("查询业务开关失败", zap.Error(err))
		return nil, err
	}

	return &dto.FlagsResponse{
		SemesterCode: sem.Code,
		SemesterName: sem.Name,
		CatalogOpen:  flags.CatalogOpen,
		OfferingOpen: flags.OfferingOpen,
		EnrollOpen:   flags.EnrollOpen,
	}, nil
}

// ────────────────────── Update ──────────────────────

func (s *businessGateService) Update(ctx context.Context, callerNo string, req *dto.UpdateFlagsRequest) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	err = s.applyUpdate(ctx, txRepo, callerNo, req)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}

	return nil
}

// applyUpdate 在事务内执行凭据重验证、开关变更与级联。
// 锁序：学期/开关 → 提案/课程 → 课程号池 → 课时。
func (s *businessGateService) applyUpdate(ctx context.Context, r *repository.Repository, callerNo string, req *dto.UpdateFlagsRequest) error {
	// 1. 事务内重验证凭据：校验与提交之间密码不可能被换掉
	caller, err := r.Account.GetByNo(ctx, callerNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		s.logger.Error("查询账号失败", zap.String("user_no", callerNo), zap.Error(err))
		return err
	}
	if caller.Role != model.RoleDepartmentAdmin {
		return ErrNotAdmin
	}
	if bcrypt.CompareHashAndPassword([]byte(caller.PasswordHash), []byte(req.Password)) != nil {
		return ErrWrongPassword
	}

	// 2. 锁学期行与开关行
	sem, err := r.Semester.GetCurrentForUpdate(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoCurrentTerm
		}
		s.logger.Error("锁定当前学期失败", zap.Error(err))
		return err
	}

	old, err := r.Semester.GetFlagsForUpdate(ctx, sem.Code)
	if err != nil {
		s.logger.Error("锁定业务开关失败", zap.Error(err))
		return err
	}

	// 3. 选课 关→开：上一轮选课记录清空，新一轮从零开始
	if !old.EnrollOpen && req.EnrollOpen {
		if _, err := r.Enrollment.DeleteBySemester(ctx, sem.Code); err != nil {
			s.logger.Error("清空选课记录失败", zap.Error(err))
			return err
		}
		if err := r.Offering.ResetHeadcountsBySemester(ctx, sem.Code); err != nil {
			s.logger.Error("清零选课计数失败", zap.Error(err))
			return err
		}
	}

	// 4. 课程提案 开→关：撤销全部待审提案并归还号池槽位
	if old.CatalogOpen && !req.CatalogOpen {
		if err := s.cancelPendingCatalog(ctx, r); err != nil {
			return err
		}
	}

	// 5. 开课提案 开→关：撤销全部待审开课提案
	if old.OfferingOpen && !req.OfferingOpen {
		pending, err := r.Offering.ListProposalsByStatusForUpdate(ctx, model.OfferingPendingReview)
		if err != nil {
			s.logger.Error("锁定待审开课提案失败", zap.Error(err))
			return err
		}
		for i := range pending {
			if err := r.Offering.UpdateProposalStatus(ctx, pending[i].OfferingNo, model.OfferingCancelled); err != nil {
				s.logger.Error("撤销开课提案失败", zap.String("offering_no", pending[i].OfferingNo), zap.Error(err))
				return err
			}
		}
	}

	// 6. 选课 开→关：快照归档并逐课裁决开课结果
	if old.EnrollOpen && !req.EnrollOpen {
		if err := s.settleEnrollmentClose(ctx, r, sem.Code); err != nil {
			return err
		}
	}

	// 7. 落三个开关
	for name, open := range map[model.FlagName]bool{
		model.FlagCatalog:  req.CatalogOpen,
		model.FlagOffering: req.OfferingOpen,
		model.FlagEnroll:   req.EnrollOpen,
	} {
		if err := r.Semester.UpsertFlag(ctx, sem.Code, name, open); err != nil {
			s.logger.Error("写入业务开关失败", zap.String("flag", string(name)), zap.Error(err))
			return err
		}
	}

	return nil
}

func (s *businessGateService) cancelPendingCatalog(ctx context.Context, r *repository.Repository) error {
	pending, err := r.Catalog.ListProposalsByStatusForUpdate(ctx, model.CatalogPendingReview)
	if err != nil {
		s.logger.Error("锁定待审课程提案失败", zap.Error(err))
		return err
	}
	for i := range pending {
		p := &pending[i]
		if err := r.Catalog.UpdateProposalStatus(ctx, p.ID, model.CatalogCancelled); err != nil {
			s.logger.Error("撤销课程提案失败", zap.String("id", p.ID), zap.Error(err))
			return err
		}
		if err := r.Catalog.UpdatePoolStatus(ctx, p.CourseNo, model.PoolAvailable); err != nil {
			s.logger.Error("归还课程号槽位失败", zap.String("course_no", p.CourseNo), zap.Error(err))
			return err
		}
		if err := r.Catalog.DeleteStagedByProposal(ctx, p.ID); err != nil {
			s.logger.Error("丢弃暂存先修边失败", zap.String("id", p.ID), zap.Error(err))
			return err
		}
	}
	return nil
}

// settleEnrollmentClose 选课关闭级联：
// 快照 → 零人数课程整链关闭并通知 → 非零人数提案转正 →
// 仍在等待开课的课程提案按"是否有任一开课转正"裁决。
// 已关闭的课程直接跳过，重复执行不产生重复通知。
func (s *businessGateService) settleEnrollmentClose(ctx context.Context, r *repository.Repository, semesterCode string) error {
	if err := r.Enrollment.SnapshotBySemester(ctx, semesterCode, time.Now()); err != nil {
		s.logger.Error("归档选课快照失败", zap.Error(err))
		return err
	}

	courses, err := r.Offering.ListCoursesBySemesterForUpdate(ctx, semesterCode)
	if err != nil {
		s.logger.Error("锁定本学期课程失败", zap.Error(err))
		return err
	}

	for i := range courses {
		c := &courses[i]
		if c.Status == model.CourseClosed {
			continue
		}

		headcount, err := r.Enrollment.CountByOffering(ctx, c.OfferingNo)
		if err != nil {
			s.logger.Error("统计选课人数失败", zap.String("offering_no", c.OfferingNo), zap.Error(err))
			return err
		}

		proposal, err := r.Offering.GetProposalForUpdate(ctx, c.OfferingNo)
		if err != nil {
			s.logger.Error("锁定开课提案失败", zap.String("offering_no", c.OfferingNo), zap.Error(err))
			return err
		}

		if headcount == 0 {
			if err := r.Offering.UpdateProposalStatus(ctx, c.OfferingNo, model.OfferingFailedToOpen); err != nil {
				return err
			}
			if err := r.Offering.UpdateCourseStatus(ctx, c.OfferingNo, model.CourseClosed); err != nil {
				return err
			}
			if err := r.ScheduleSlot.MarkEndedByOffering(ctx, c.OfferingNo); err != nil {
				return err
			}
			content := fmt.Sprintf("您的开课 %s 因无人选课未能成功开设", c.OfferingNo)
			if err := r.Message.BatchCreate(ctx, []string{proposal.CreatorNo}, content,
				model.PriorityHigh, model.CategoryOfferingClosed, "offering_closed:"+c.OfferingNo); err != nil {
				s.logger.Error("写入开课失败通知失败", zap.Error(err))
				return err
			}
		} else if proposal.Status == model.OfferingWaitingForEnrollment {
			if err := r.Offering.UpdateProposalStatus(ctx, c.OfferingNo, model.OfferingApproved); err != nil {
				return err
			}
		}
	}

	// 等待开课的课程提案：任一开课转正即通过，否则开课失败并归还槽位
	waiting, err := r.Catalog.ListProposalsByStatusForUpdate(ctx, model.CatalogWaitingForOffering)
	if err != nil {
		s.logger.Error("锁定等待开课的课程提案失败", zap.Error(err))
		return err
	}
	for i := range waiting {
		p := &waiting[i]
		approved, err := r.Offering.CountProposalsByCourseStatus(ctx, p.CourseNo, semesterCode, model.OfferingApproved)
		if err != nil {
			s.logger.Error("统计转正开课数失败", zap.String("course_no", p.CourseNo), zap.Error(err))
			return err
		}
		if approved > 0 {
			if err := r.Catalog.UpdateProposalStatus(ctx, p.ID, model.CatalogApproved); err != nil {
				return err
			}
			continue
		}
		if err := r.Catalog.UpdateProposalStatus(ctx, p.ID, model.CatalogFailedToOpen); err != nil {
			return err
		}
		if err := r.Catalog.UpdatePoolStatus(ctx, p.CourseNo, model.PoolAvailable); err != nil {
			return err
		}
		content := fmt.Sprintf("课程提案 %s（%s）因本学期没有成功开课被标记为开课失败", p.Name, p.CourseNo)
		if err := r.Message.BatchCreate(ctx, []string{p.SubmitterNo}, content,
			model.PriorityHigh, model.CategoryCatalogFailed, "catalog_failed:"+p.ID); err != nil {
			s.logger.Error("写入课程开课失败通知失败", zap.Error(err))
			return err
		}
	}

	return nil
}
