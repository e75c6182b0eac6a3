package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/GCLiuShang/AcademyDBMS-sub001/config"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/repository"
)

// StatusSweepService 时间驱动的状态推进
//
// 课程/考试/座位/监考的时基状态只由扫描推进，请求处理器不越权改写
// （创建与撤销边界除外）。每一步失败只记日志不中断本轮其余步骤，
// 全部写操作是幂等的状态守卫 UPDATE，与请求事务并发交错无害。
type StatusSweepService interface {
	// RunShortSweep 短周期：课时与考试状态推进、上课/考试提醒
	RunShortSweep(ctx context.Context)
	// RunLongSweep 长周期：清理空闲在线账号
	RunLongSweep(ctx context.Context)
	// MarkAllOffline 进程退出前兜底下线
	MarkAllOffline(ctx context.Context)
}

type statusSweepService struct {
	repo   *repository.Repository
	cfg    config.SchedulerConfig
	logger *zap.Logger
	now    func() time.Time // 测试注入
}

// NewStatusSweepService 创建 StatusSweepService 实例
func NewStatusSweepService(repo *repository.Repository, cfg config.SchedulerConfig, logger *zap.Logger) StatusSweepService {
	return &statusSweepService{repo: repo, cfg: cfg, logger: logger, now: time.Now}
}

// ────────────────────── RunShortSweep ──────────────────────

func (s *statusSweepService) RunShortSweep(ctx context.Context) {
	now := s.now()
	date := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	hhmm := now.Format("15:04")

	s.advanceSlots(ctx, date, hhmm)
	s.advanceExams(ctx, now)
	s.sendClassReminders(ctx, date, now, hhmm)
	s.sendExamReminders(ctx, now)
}

func (s *statusSweepService) advanceSlots(ctx context.Context, date time.Time, hhmm string) {
	if _, err := s.repo.ScheduleSlot.MarkInClass(ctx, date, hhmm); err != nil {
		s.logger.Error("课时进入上课状态失败", zap.Error(err))
	}
	if _, err := s.repo.ScheduleSlot.MarkEnded(ctx, date, hhmm); err != nil {
		s.logger.Error("课时进入结束状态失败", zap.Error(err))
	}
	// 首个课时开始即课程进入进行中
	if _, err := s.repo.Offering.MarkCoursesInProgress(ctx); err != nil {
		s.logger.Error("课程进入进行状态失败", zap.Error(err))
	}
}

// advanceExams 按最新已批准提案的时间窗推进考试状态，
// 窗口结束时座位与监考一并置 completed
func (s *statusSweepService) advanceExams(ctx context.Context, now time.Time) {
	exams, err := s.repo.Exam.ListExamsNotEnded(ctx)
	if err != nil {
		s.logger.Error("查询未结束考试失败", zap.Error(err))
		return
	}

	for i := range exams {
		e := &exams[i]
		proposal, err := s.repo.Exam.LatestApprovedByExam(ctx, e.ExamNo)
		if err != nil {
			// 还没有批准的考场安排，不推进
			continue
		}

		switch {
		case !now.Before(proposal.EndTime):
			if !model.CanTransitionExam(e.Status, model.ExamEnded) {
				continue
			}
			if err := s.repo.Exam.UpdateExamStatus(ctx, e.ExamNo, model.ExamEnded); err != nil {
				s.logger.Error("考试进入结束状态失败", zap.String("exam_no", e.ExamNo), zap.Error(err))
				continue
			}
			if err := s.repo.Exam.MarkSeatsCompletedByExam(ctx, e.ExamNo); err != nil {
				s.logger.Error("座位状态收尾失败", zap.String("exam_no", e.ExamNo), zap.Error(err))
			}
			if err := s.repo.Exam.MarkInvigilationsCompletedByExam(ctx, e.ExamNo); err != nil {
				s.logger.Error("监考状态收尾失败", zap.String("exam_no", e.ExamNo), zap.Error(err))
			}
		case !now.Before(proposal.BeginTime):
			if e.Status != model.ExamNotStarted {
				continue
			}
			if err := s.repo.Exam.UpdateExamStatus(ctx, e.ExamNo, model.ExamInProgress); err != nil {
				s.logger.Error("考试进入进行状态失败", zap.String("exam_no", e.ExamNo), zap.Error(err))
			}
		}
	}
}

// sendClassReminders 上课前固定提前量给师生发一次性提醒，
// 用消息日志 related_key 查重，不另设标志位
func (s *statusSweepService) sendClassReminders(ctx context.Context, date, now time.Time, hhmm string) {
	until := now.Add(s.cfg.ClassReminderLead).Format("15:04")
	slots, err := s.repo.ScheduleSlot.ListStartingWithin(ctx, date, hhmm, until)
	if err != nil {
		s.logger.Error("查询将开始课时失败", zap.Error(err))
		return
	}

	for i := range slots {
		sl := &slots[i]
		relatedKey := fmt.Sprintf("class:%s:%d", sl.OfferingNo, sl.ClassHourIndex)

		recipients := []string{sl.ProfessorNo}
		enrollments, err := s.repo.Enrollment.ListByOffering(ctx, sl.OfferingNo)
		if err != nil {
			s.logger.Error("查询课程学生失败", zap.String("offering_no", sl.OfferingNo), zap.Error(err))
			continue
		}
		for _, e := range enrollments {
			recipients = append(recipients, e.StudentNo)
		}

		var fresh []string
		for _, no := range recipients {
			sent, err := s.repo.Message.ExistsRelated(ctx, no, relatedKey)
			if err != nil {
				s.logger.Error("提醒查重失败", zap.Error(err))
				continue
			}
			if !sent {
				fresh = append(fresh, no)
			}
		}
		if len(fresh) == 0 {
			continue
		}

		content := fmt.Sprintf("课程 %s 将于今天 %s 在 %s 开始上课", sl.OfferingNo, sl.BeginAt, sl.RoomNo)
		if err := s.repo.Message.BatchCreate(ctx, fresh, content,
			model.PriorityNormal, model.CategoryClassReminder, relatedKey); err != nil {
			s.logger.Error("写入上课提醒失败", zap.String("offering_no", sl.OfferingNo), zap.Error(err))
		}
	}
}

// sendExamReminders 考试前固定提前量提醒考生与监考
func (s *statusSweepService) sendExamReminders(ctx context.Context, now time.Time) {
	proposals, err := s.repo.Exam.ListApprovedBeginningBetween(ctx, now, now.Add(s.cfg.ExamReminderLead))
	if err != nil {
		s.logger.Error("查询将开始考试失败", zap.Error(err))
		return
	}

	for i := range proposals {
		p := &proposals[i]
		relatedKey := "exam:" + p.ExamNo

		var recipients []string
		arrangements, err := s.repo.Exam.ListArrangementsByExam(ctx, p.ExamNo)
		if err != nil {
			s.logger.Error("查询考场安排失败", zap.String("exam_no", p.ExamNo), zap.Error(err))
			continue
		}
		for j := range arrangements {
			seats, err := s.repo.Exam.ListSeatsByArrangement(ctx, arrangements[j].ArrangeID)
			if err != nil {
				s.logger.Error("查询考场座位失败", zap.Error(err))
				continue
			}
			for _, seat := range seats {
				recipients = append(recipients, seat.StudentNo)
			}
			duty, err := s.repo.Exam.ListInvigilationsByArrangement(ctx, arrangements[j].ArrangeID)
			if err != nil {
				s.logger.Error("查询监考名单失败", zap.Error(err))
				continue
			}
			for _, inv := range duty {
				recipients = append(recipients, inv.ProfessorNo)
			}
		}

		var fresh []string
		for _, no := range recipients {
			sent, err := s.repo.Message.ExistsRelated(ctx, no, relatedKey)
			if err != nil {
				s.logger.Error("提醒查重失败", zap.Error(err))
				continue
			}
			if !sent {
				fresh = append(fresh, no)
			}
		}
		if len(fresh) == 0 {
			continue
		}

		content := fmt.Sprintf("考试 %s 将于 %s 开始，请提前到场",
			p.ExamNo, p.BeginTime.Format("2006-01-02 15:04"))
		if err := s.repo.Message.BatchCreate(ctx, fresh, content,
			model.PriorityHigh, model.CategoryExamReminder, relatedKey); err != nil {
			s.logger.Error("写入考试提醒失败", zap.String("exam_no", p.ExamNo), zap.Error(err))
		}
	}
}

// ────────────────────── RunLongSweep ──────────────────────

func (s *statusSweepService) RunLongSweep(ctx context.Context) {
	cutoff := s.now().Add(-s.cfg.IdleThreshold)
	idle, err := s.repo.Account.ListOnlineIdleBefore(ctx, cutoff)
	if err != nil {
		s.logger.Error("查询空闲在线账号失败", zap.Error(err))
		return
	}
	if len(idle) == 0 {
		return
	}

	userNos := make([]string, 0, len(idle))
	for i := range idle {
		userNos = append(userNos, idle[i].UserNo)
	}

	if err := s.repo.Message.BatchCreate(ctx, userNos,
		"长时间未活动，已自动下线", model.PriorityNormal, model.CategoryForcedOffline, ""); err != nil {
		s.logger.Error("写入下线通知失败", zap.Error(err))
	}
	if err := s.repo.Account.MarkOffline(ctx, userNos); err != nil {
		s.logger.Error("标记账号离线失败", zap.Error(err))
		return
	}
	s.logger.Info("空闲账号已下线", zap.Int("count", len(userNos)))
}

// ────────────────────── MarkAllOffline ──────────────────────

func (s *statusSweepService) MarkAllOffline(ctx context.Context) {
	count, err := s.repo.Account.MarkAllOffline(ctx)
	if err != nil {
		s.logger.Error("退出前批量下线失败", zap.Error(err))
		return
	}
	if count > 0 {
		s.logger.Info("退出前批量下线", zap.Int64("count", count))
	}
}
