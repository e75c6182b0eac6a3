package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/repository"
	"github.com/GCLiuShang/AcademyDBMS-sub001/pkg/apperrors"
)

// ── 选课模块业务错误 ──

var (
	ErrEnrollClosed       = apperrors.StateTransition("选课通道当前未开放")
	ErrCourseNotFound     = apperrors.NotFound("课程不存在")
	ErrCourseNotSelectable = apperrors.StateTransition("课程不在可选状态")
	ErrAlreadyEnrolled    = apperrors.Conflict("已选过该课程，不能重复选课")
	ErrCourseFull         = apperrors.Conflict("课程已满")
	ErrNotEnrolled        = apperrors.NotFound("未选该课程，无法退课")
	ErrNotStudentRole     = apperrors.Validation("只有学生可以选课")
)

// EnrollmentService 选课/退课接口
type EnrollmentService interface {
	Select(ctx context.Context, studentNo, offeringNo string) error
	Drop(ctx context.Context, studentNo, offeringNo string) error
}

type enrollmentService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewEnrollmentService 创建 EnrollmentService 实例
func NewEnrollmentService(repo *repository.Repository, logger *zap.Logger) EnrollmentService {
	return &enrollmentService{repo: repo, logger: logger}
}

// ────────────────────── Select ──────────────────────

func (s *enrollmentService) Select(ctx context.Context, studentNo, offeringNo string) error {
	student, err := s.repo.Account.GetByNo(ctx, studentNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		s.logger.Error("查询账号失败", zap.String("user_no", studentNo), zap.Error(err))
		return err
	}
	if student.Role != model.RoleStudent {
		return ErrNotStudentRole
	}

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

	if err := s.selectInTx(ctx, txRepo, studentNo, offeringNo); err != nil {
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

func (s *enrollmentService) selectInTx(ctx context.Context, r *repository.Repository, studentNo, offeringNo string) error {
	sem, err := r.Semester.GetCurrentForUpdate(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoCurrentTerm
		}
		s.logger.Error("锁定当前学期失败", zap.Error(err))
		return err
	}
	flags, err := r.Semester.GetFlagsForUpdate(ctx, sem.Code)
	if err != nil {
		s.logger.Error("锁定业务开关失败", zap.Error(err))
		return err
	}
	if !flags.EnrollOpen {
		return ErrEnrollClosed
	}

	course, err := r.Offering.GetCourseForUpdate(ctx, offeringNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCourseNotFound
		}
		s.logger.Error("锁定课程实例失败", zap.String("offering_no", offeringNo), zap.Error(err))
		return err
	}
	if course.SemesterCode != sem.Code {
		return ErrCourseNotSelectable
	}
	if course.Status != model.CourseNotStarted && course.Status != model.CourseInProgress {
		return ErrCourseNotSelectable
	}

	exists, err := r.Enrollment.Exists(ctx, offeringNo, studentNo)
	if err != nil {
		s.logger.Error("查询选课记录失败", zap.Error(err))
		return err
	}
	if exists {
		return ErrAlreadyEnrolled
	}

	// 时间冲突：候选课时的 (日期, 节次) 与已选课程任一课时相交即拒绝，
	// 错误里点名每一门冲突课程
	if err := s.checkTimeConflicts(ctx, r, studentNo, offeringNo, sem.Code); err != nil {
		return err
	}

	// 容量以 COUNT 现数为准，不信任缓存计数器
	headcount, err := r.Enrollment.CountByOffering(ctx, offeringNo)
	if err != nil {
		s.logger.Error("统计选课人数失败", zap.String("offering_no", offeringNo), zap.Error(err))
		return err
	}
	if headcount >= int64(course.MaxHeadcount) {
		return ErrCourseFull
	}

	if err := r.Enrollment.Create(ctx, &model.Enrollment{
		OfferingNo:   offeringNo,
		StudentNo:    studentNo,
		CourseNo:     course.CourseNo,
		SemesterCode: sem.Code,
		CreatedAt:    time.Now(),
	}); err != nil {
		s.logger.Error("写入选课记录失败", zap.Error(err))
		return err
	}
	if err := r.Offering.SetHeadcount(ctx, offeringNo, int(headcount)+1); err != nil {
		s.logger.Error("更新选课计数失败", zap.String("offering_no", offeringNo), zap.Error(err))
		return err
	}
	return nil
}

func (s *enrollmentService) checkTimeConflicts(ctx context.Context, r *repository.Repository,
	studentNo, offeringNo, semesterCode string) error {

	candidate, err := r.ScheduleSlot.ListByOffering(ctx, offeringNo)
	if err != nil {
		s.logger.Error("查询候选课时失败", zap.String("offering_no", offeringNo), zap.Error(err))
		return err
	}

	enrolled, err := r.Enrollment.ListByStudentSemester(ctx, studentNo, semesterCode)
	if err != nil {
		s.logger.Error("查询已选课程失败", zap.String("student_no", studentNo), zap.Error(err))
		return err
	}

	// 已占用的 (日期, 节次) → 占用课程号
	occupied := make(map[string]string)
	for _, e := range enrolled {
		slots, err := r.ScheduleSlot.ListByOffering(ctx, e.OfferingNo)
		if err != nil {
			s.logger.Error("查询已选课时失败", zap.String("offering_no", e.OfferingNo), zap.Error(err))
			return err
		}
		for _, sl := range slots {
			occupied[sl.CalendarDate.Format("2006-01-02")+"|"+sl.LessonPeriod] = e.CourseNo
		}
	}

	conflictCourses := make(map[string]bool)
	for _, sl := range candidate {
		if courseNo, ok := occupied[sl.CalendarDate.Format("2006-01-02")+"|"+sl.LessonPeriod]; ok {
			conflictCourses[courseNo] = true
		}
	}
	if len(conflictCourses) == 0 {
		return nil
	}

	names := make([]string, 0, len(conflictCourses))
	for courseNo := range conflictCourses {
		c, err := r.Catalog.GetCurricular(ctx, courseNo)
		if err != nil {
			names = append(names, courseNo)
			continue
		}
		names = append(names, c.Name)
	}
	sort.Strings(names)
	return apperrors.Conflict("上课时间与已选课程冲突：%s", strings.Join(names, "、"))
}

// ────────────────────── Drop ──────────────────────

func (s *enrollmentService) Drop(ctx context.Context, studentNo, offeringNo string) error {
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

	err = func() error {
		sem, err := txRepo.Semester.GetCurrentForUpdate(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrNoCurrentTerm
			}
			s.logger.Error("锁定当前学期失败", zap.Error(err))
			return err
		}
		flags, err := txRepo.Semester.GetFlagsForUpdate(ctx, sem.Code)
		if err != nil {
			s.logger.Error("锁定业务开关失败", zap.Error(err))
			return err
		}
		if !flags.EnrollOpen {
			return ErrEnrollClosed
		}

		if _, err := txRepo.Offering.GetCourseForUpdate(ctx, offeringNo); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCourseNotFound
			}
			s.logger.Error("锁定课程实例失败", zap.String("offering_no", offeringNo), zap.Error(err))
			return err
		}

		deleted, err := txRepo.Enrollment.Delete(ctx, offeringNo, studentNo)
		if err != nil {
			s.logger.Error("删除选课记录失败", zap.Error(err))
			return err
		}
		if deleted == 0 {
			return ErrNotEnrolled
		}

		// 计数重算并保底不为负
		headcount, err := txRepo.Enrollment.CountByOffering(ctx, offeringNo)
		if err != nil {
			s.logger.Error("统计选课人数失败", zap.String("offering_no", offeringNo), zap.Error(err))
			return err
		}
		if headcount < 0 {
			headcount = 0
		}
		if err := txRepo.Offering.SetHeadcount(ctx, offeringNo, int(headcount)); err != nil {
			s.logger.Error("更新选课计数失败", zap.String("offering_no", offeringNo), zap.Error(err))
			return err
		}
		return nil
	}()
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
