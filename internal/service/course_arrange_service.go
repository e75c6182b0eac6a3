package service

import (
	"context"
	"errors"
	"sort"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/dto"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/repository"
	"github.com/GCLiuShang/AcademyDBMS-sub001/pkg/apperrors"
)

// ── 排课模块业务错误 ──

var (
	ErrOfferingClosed         = apperrors.StateTransition("开课提案通道当前未开放")
	ErrOfferingNotFound       = apperrors.NotFound("开课提案不存在")
	ErrOfferingNotPending     = apperrors.StateTransition("开课提案不在待审状态")
	ErrNoProfessorAssigned    = apperrors.Validation("开课至少需要一名任课教师")
	ErrWeekdayNotDeclared     = apperrors.Validation("排课星期不在提案声明的意向星期内")
	ErrCurricularNotFound     = apperrors.NotFound("课程不在课程目录中")
	ErrUnknownLessonPeriod    = apperrors.Validation("未知的节次编号")
	ErrNotProfessorRole       = apperrors.Validation("只有教师可以提交开课提案")
)

// CourseArrangeService 开课提案提交与排课接口
type CourseArrangeService interface {
	// SubmitOffering 提交开课提案；课程号未发布时触发强制发布
	SubmitOffering(ctx context.Context, creatorNo string, req *dto.SubmitOfferingRequest) (*model.OfferingProposal, error)
	// Arrange 把待审开课提案落成具体课时；整批成功或整批失败
	Arrange(ctx context.Context, req *dto.ArrangeCourseRequest) error
}

type courseArrangeService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCourseArrangeService 创建 CourseArrangeService 实例
func NewCourseArrangeService(repo *repository.Repository, logger *zap.Logger) CourseArrangeService {
	return &courseArrangeService{repo: repo, logger: logger}
}

// ────────────────────── SubmitOffering ──────────────────────

func (s *courseArrangeService) SubmitOffering(ctx context.Context, creatorNo string, req *dto.SubmitOfferingRequest) (*model.OfferingProposal, error) {
	if req.MaxHeadcount <= 0 {
		return nil, apperrors.Validation("课容量必须为正数")
	}
	if len(req.Weekdays) == 0 {
		return nil, apperrors.Validation("至少声明一个意向星期")
	}
	for _, wd := range req.Weekdays {
		if wd < 1 || wd > 7 {
			return nil, apperrors.Validation("星期取值必须在 1~7 之间，收到 %d", wd)
		}
	}

	creator, err := s.repo.Account.GetByNo(ctx, creatorNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		s.logger.Error("查询账号失败", zap.String("user_no", creatorNo), zap.Error(err))
		return nil, err
	}
	if creator.Role != model.RoleProfessor {
		return nil, ErrNotProfessorRole
	}

	professorNos := req.ProfessorNos
	if len(professorNos) == 0 {
		professorNos = []string{creatorNo}
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
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

	proposal, err := s.submitOfferingInTx(ctx, txRepo, creatorNo, professorNos, req)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}
	return proposal, nil
}

func (s *courseArrangeService) submitOfferingInTx(ctx context.Context, r *repository.Repository,
	creatorNo string, professorNos []string, req *dto.SubmitOfferingRequest) (*model.OfferingProposal, error) {

	sem, err := r.Semester.GetCurrentForUpdate(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCurrentTerm
		}
		s.logger.Error("锁定当前学期失败", zap.Error(err))
		return nil, err
	}
	flags, err := r.Semester.GetFlagsForUpdate(ctx, sem.Code)
	if err != nil {
		s.logger.Error("锁定业务开关失败", zap.Error(err))
		return nil, err
	}
	if !flags.OfferingOpen {
		return nil, ErrOfferingClosed
	}

	// 课程目录里没有该课程号时走强制发布（失败即整体失败）
	if _, err := r.Catalog.GetCurricular(ctx, req.CourseNo); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询课程目录失败", zap.String("course_no", req.CourseNo), zap.Error(err))
			return nil, err
		}
		if err := forcePublishCatalog(ctx, r, s.logger, req.CourseNo); err != nil {
			return nil, err
		}
	}

	seq, err := r.Sequence.NextOfferingSeq(ctx, req.CourseNo, sem.Code)
	if err != nil {
		s.logger.Error("分配开课序号失败", zap.Error(err))
		return nil, err
	}
	offeringNo, err := model.ComposeOfferingNo(req.CourseNo, sem.Code, seq)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	proposal := &model.OfferingProposal{
		OfferingNo:   offeringNo,
		CourseNo:     req.CourseNo,
		SemesterCode: sem.Code,
		SeqNo:        seq,
		Campus:       req.Campus,
		MaxHeadcount: req.MaxHeadcount,
		Status:       model.OfferingPendingReview,
		CreatorNo:    creatorNo,
		Weekdays:     model.WeekdaysOf(req.Weekdays),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	professors := make([]model.OfferingProfessor, 0, len(professorNos))
	for _, no := range professorNos {
		professors = append(professors, model.OfferingProfessor{OfferingNo: offeringNo, ProfessorNo: no})
	}

	if err := r.Offering.CreateProposal(ctx, proposal, professors); err != nil {
		s.logger.Error("创建开课提案失败", zap.String("offering_no", offeringNo), zap.Error(err))
		return nil, err
	}
	return proposal, nil
}

// ────────────────────── Arrange ──────────────────────

// candidateSlot 一次排课提交里的候选课时
type candidateSlot struct {
	date   time.Time
	period string
	roomNo string
}

func (s *courseArrangeService) Arrange(ctx context.Context, req *dto.ArrangeCourseRequest) error {
	if req.Weekday < 1 || req.Weekday > 7 {
		return apperrors.Validation("星期取值必须在 1~7 之间，收到 %d", req.Weekday)
	}
	if len(req.WeekPlans) == 0 {
		return apperrors.Validation("至少安排一周")
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

	if err := s.arrangeInTx(ctx, txRepo, req); err != nil {
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

func (s *courseArrangeService) arrangeInTx(ctx context.Context, r *repository.Repository, req *dto.ArrangeCourseRequest) error {
	// 1. 提案必须待审且已指派教师；工号最小者为责任教师
	proposal, err := r.Offering.GetProposalForUpdate(ctx, req.OfferingNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrOfferingNotFound
		}
		s.logger.Error("锁定开课提案失败", zap.String("offering_no", req.OfferingNo), zap.Error(err))
		return err
	}
	if proposal.Status != model.OfferingPendingReview {
		return ErrOfferingNotPending
	}
	if !model.HasWeekday(proposal.Weekdays, req.Weekday) {
		return ErrWeekdayNotDeclared
	}

	professors, err := r.Offering.ListProfessors(ctx, req.OfferingNo)
	if err != nil {
		s.logger.Error("查询任课教师失败", zap.String("offering_no", req.OfferingNo), zap.Error(err))
		return err
	}
	if len(professors) == 0 {
		return ErrNoProfessorAssigned
	}
	instructor := professors[0].ProfessorNo

	curricular, err := r.Catalog.GetCurricular(ctx, proposal.CourseNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCurricularNotFound
		}
		s.logger.Error("查询课程目录失败", zap.String("course_no", proposal.CourseNo), zap.Error(err))
		return err
	}

	// 2+3. 逐周取日期并汇总候选课时；(日期, 教室) 在本次提交内不可重复占用
	claimed := make(map[string]bool)
	var candidates []candidateSlot
	for _, plan := range req.WeekPlans {
		date := model.DateOfISOWeek(plan.Year, plan.Week, req.Weekday)
		key := date.Format("2006-01-02") + "|" + plan.RoomNo
		if claimed[key] {
			return apperrors.Conflict("第 %d 周没有空闲日期：%s 在 %s 已被本次提交占用",
				plan.Week, plan.RoomNo, date.Format("2006-01-02"))
		}
		claimed[key] = true

		for _, period := range plan.Periods {
			if _, ok := model.PeriodWindowOf(period); !ok {
				return ErrUnknownLessonPeriod
			}
			candidates = append(candidates, candidateSlot{date: date, period: period, roomNo: plan.RoomNo})
		}
	}

	// 候选数必须与目录声明课时数严格相等，不允许排一半
	if len(candidates) != curricular.ClassHours {
		return apperrors.Validation("候选课时数 %d 与课程声明课时数 %d 不一致",
			len(candidates), curricular.ClassHours)
	}

	// 4. 全局冲突检查：任何一个候选与既有课时撞 (日期, 教室, 节次) 即整体失败
	for _, c := range candidates {
		count, err := r.ScheduleSlot.CountAt(ctx, c.date, c.roomNo, c.period)
		if err != nil {
			s.logger.Error("排课冲突检查失败", zap.Error(err))
			return err
		}
		if count > 0 {
			return apperrors.Conflict("%s 教室 %s 节次 %s 已被其他课程占用",
				c.date.Format("2006-01-02"), c.roomNo, c.period)
		}
	}

	// 5. 整批落库：课时、课程实例、提案状态
	sort.Slice(candidates, func(i, j int) bool {
		if !candidates[i].date.Equal(candidates[j].date) {
			return candidates[i].date.Before(candidates[j].date)
		}
		return candidates[i].period < candidates[j].period
	})

	slots := make([]model.ScheduleSlot, 0, len(candidates))
	for i, c := range candidates {
		w, _ := model.PeriodWindowOf(c.period)
		slots = append(slots, model.ScheduleSlot{
			OfferingNo:     req.OfferingNo,
			ClassHourIndex: i + 1,
			LessonPeriod:   c.period,
			CalendarDate:   c.date,
			RoomNo:         c.roomNo,
			ProfessorNo:    instructor,
			BeginAt:        w.Begin,
			EndAt:          w.End,
			Status:         model.SlotAwaitingClass,
		})
	}
	if err := r.ScheduleSlot.BatchCreate(ctx, slots); err != nil {
		s.logger.Error("写入课时失败", zap.String("offering_no", req.OfferingNo), zap.Error(err))
		return err
	}

	if _, err := r.Offering.GetCourse(ctx, req.OfferingNo); err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("查询课程实例失败", zap.String("offering_no", req.OfferingNo), zap.Error(err))
			return err
		}
		if err := r.Offering.CreateCourse(ctx, &model.CourseOffering{
			OfferingNo:       req.OfferingNo,
			CourseNo:         proposal.CourseNo,
			SemesterCode:     proposal.SemesterCode,
			SeqNo:            proposal.SeqNo,
			MaxHeadcount:     proposal.MaxHeadcount,
			CurrentHeadcount: 0,
			Status:           model.CourseNotStarted,
			UpdatedAt:        time.Now(),
		}); err != nil {
			s.logger.Error("创建课程实例失败", zap.String("offering_no", req.OfferingNo), zap.Error(err))
			return err
		}
	}

	if !model.CanTransitionOffering(proposal.Status, model.OfferingWaitingForEnrollment) {
		return apperrors.StateTransition("开课提案无法从 %s 进入 %s",
			proposal.Status, model.OfferingWaitingForEnrollment)
	}
	if err := r.Offering.UpdateProposalStatus(ctx, req.OfferingNo, model.OfferingWaitingForEnrollment); err != nil {
		s.logger.Error("更新开课提案状态失败", zap.String("offering_no", req.OfferingNo), zap.Error(err))
		return err
	}

	return nil
}
