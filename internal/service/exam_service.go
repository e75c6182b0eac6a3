package service

import (
	"context"
	"errors"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/dto"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/repository"
	"github.com/GCLiuShang/AcademyDBMS-sub001/pkg/apperrors"
)

// ── 考试模块业务错误 ──

var (
	ErrExamProposalNotFound   = apperrors.NotFound("考试提案不存在")
	ErrExamProposalNotPending = apperrors.StateTransition("考试提案不在待审状态")
	ErrExamTimeInvalid        = apperrors.Validation("考试结束时间必须晚于开始时间")
	ErrClassroomNotFound      = apperrors.NotFound("教室不存在")
	ErrClassroomDisabled      = apperrors.Validation("教室已停用，不能安排考场")
	ErrExamNotFound           = apperrors.NotFound("考试不存在")
	ErrArrangementNotFound    = apperrors.NotFound("考场安排不存在")
	ErrExamMismatch           = apperrors.Conflict("考试号已存在且课程或属性不一致")
)

// maxSeatNo 座位号上限；编号到顶后静默停止分配
const maxSeatNo = 100

// ExamService 考试提案 / 考场安排 / 座位 / 监考接口
type ExamService interface {
	SubmitProposal(ctx context.Context, callerNo string, req *dto.SubmitExamProposalRequest) (*model.ExamProposal, error)
	// ArrangeRooms 把待审考试提案落到一组教室；容量之和必须 ≥ 3×预计考生数
	ArrangeRooms(ctx context.Context, req *dto.ArrangeExamRoomsRequest) error
	// AssignSeats 为单个考场随机排座；返回本次新增座位数
	AssignSeats(ctx context.Context, arrangeID string) (int, error)
	// AssignInvigilators 整体替换考试的监考名单，名单过滤到管理员本系教师
	AssignInvigilators(ctx context.Context, adminNo string, req *dto.AssignInvigilatorsRequest) error
}

type examService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewExamService 创建 ExamService 实例
func NewExamService(repo *repository.Repository, logger *zap.Logger) ExamService {
	return &examService{repo: repo, logger: logger}
}

// ────────────────────── SubmitProposal ──────────────────────

func (s *examService) SubmitProposal(ctx context.Context, callerNo string, req *dto.SubmitExamProposalRequest) (*model.ExamProposal, error) {
	attr := model.ExamAttribute(req.Attribute)
	if attr != model.ExamRegular && attr != model.ExamMakeup && attr != model.ExamOther {
		return nil, apperrors.Validation("未知的考试属性 %q", req.Attribute)
	}
	if !req.EndTime.After(req.BeginTime) {
		return nil, ErrExamTimeInvalid
	}

	if _, err := s.repo.Catalog.GetCurricular(ctx, req.CourseNo); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCurricularNotFound
		}
		s.logger.Error("查询课程目录失败", zap.String("course_no", req.CourseNo), zap.Error(err))
		return nil, err
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

	proposal, err := func() (*model.ExamProposal, error) {
		sem, err := txRepo.Semester.GetCurrentForUpdate(ctx)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, ErrNoCurrentTerm
			}
			s.logger.Error("锁定当前学期失败", zap.Error(err))
			return nil, err
		}

		seq, err := txRepo.Sequence.NextExamSeq(ctx, sem.Code)
		if err != nil {
			s.logger.Error("分配考试序号失败", zap.Error(err))
			return nil, err
		}
		examNo, err := model.ComposeExamNo(sem.Code, seq, attr)
		if err != nil {
			return nil, err
		}

		proposal := &model.ExamProposal{
			ID:           uuid.New().String(),
			CourseNo:     req.CourseNo,
			ExamNo:       examNo,
			SemesterCode: sem.Code,
			SeqNo:        seq,
			Attribute:    attr,
			BeginTime:    req.BeginTime,
			EndTime:      req.EndTime,
			Status:       model.ExamProposalPendingReview,
			CreatedAt:    time.Now(),
		}
		if err := txRepo.Exam.CreateProposal(ctx, proposal); err != nil {
			s.logger.Error("创建考试提案失败", zap.String("exam_no", examNo), zap.Error(err))
			return nil, err
		}
		return proposal, nil
	}()
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

// ────────────────────── ArrangeRooms ──────────────────────

func (s *examService) ArrangeRooms(ctx context.Context, req *dto.ArrangeExamRoomsRequest) error {
	if len(req.RoomNos) == 0 {
		return apperrors.Validation("至少指定一间教室")
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

	if err := s.arrangeRoomsInTx(ctx, txRepo, req); err != nil {
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

func (s *examService) arrangeRoomsInTx(ctx context.Context, r *repository.Repository, req *dto.ArrangeExamRoomsRequest) error {
	proposal, err := r.Exam.GetProposalForUpdate(ctx, req.ProposalID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrExamProposalNotFound
		}
		s.logger.Error("锁定考试提案失败", zap.String("id", req.ProposalID), zap.Error(err))
		return err
	}
	if proposal.Status != model.ExamProposalPendingReview {
		return ErrExamProposalNotPending
	}

	// 预计考生数 = 该课程本学期全部开课的选课人数之和
	courses, err := r.Offering.ListCoursesByCourse(ctx, proposal.CourseNo, proposal.SemesterCode)
	if err != nil {
		s.logger.Error("查询课程开课失败", zap.String("course_no", proposal.CourseNo), zap.Error(err))
		return err
	}
	headcount := 0
	for i := range courses {
		headcount += courses[i].CurrentHeadcount
	}

	// 重复提交的教室号只计一次，容量不重复累加
	roomNos := make([]string, 0, len(req.RoomNos))
	seen := make(map[string]struct{}, len(req.RoomNos))
	for _, roomNo := range req.RoomNos {
		if _, ok := seen[roomNo]; ok {
			continue
		}
		seen[roomNo] = struct{}{}
		roomNos = append(roomNos, roomNo)
	}

	// 锁定教室并合计容量；教室必须存在且状态正常
	capacitySum := 0
	for _, roomNo := range roomNos {
		room, err := r.Classroom.GetByNoForUpdate(ctx, roomNo)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrClassroomNotFound
			}
			s.logger.Error("锁定教室失败", zap.String("room_no", roomNo), zap.Error(err))
			return err
		}
		if room.Status != model.ClassroomNormal {
			return ErrClassroomDisabled
		}
		capacitySum += room.Capacity
	}
	if capacitySum < 3*headcount {
		return apperrors.Conflict("教室总容量 %d 不足，需至少为预计考生数 %d 的 3 倍（%d）",
			capacitySum, headcount, 3*headcount)
	}

	// 统一占用视图：上课与考试的 [begin, end) 任一重叠即拒绝
	for _, roomNo := range roomNos {
		busy, err := r.ScheduleSlot.ExistsRoomOverlap(ctx, roomNo, proposal.BeginTime, proposal.EndTime)
		if err != nil {
			s.logger.Error("检查课程占用失败", zap.String("room_no", roomNo), zap.Error(err))
			return err
		}
		if busy {
			return apperrors.Conflict("教室 %s 在该时段已有课程安排", roomNo)
		}
		busy, err = r.Exam.ExistsApprovedWindowOverlap(ctx, roomNo, proposal.BeginTime, proposal.EndTime, proposal.ExamNo)
		if err != nil {
			s.logger.Error("检查考试占用失败", zap.String("room_no", roomNo), zap.Error(err))
			return err
		}
		if busy {
			return apperrors.Conflict("教室 %s 在该时段已有其他考试", roomNo)
		}
	}

	// 考试 upsert：已存在则课程与属性必须一致
	exam, err := r.Exam.GetExamForUpdate(ctx, proposal.ExamNo)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Error("锁定考试失败", zap.String("exam_no", proposal.ExamNo), zap.Error(err))
			return err
		}
		if err := r.Exam.CreateExam(ctx, &model.Exam{
			ExamNo:    proposal.ExamNo,
			CourseNo:  proposal.CourseNo,
			Attribute: proposal.Attribute,
			Status:    model.ExamNotStarted,
		}); err != nil {
			s.logger.Error("创建考试失败", zap.String("exam_no", proposal.ExamNo), zap.Error(err))
			return err
		}
	} else if exam.CourseNo != proposal.CourseNo || exam.Attribute != proposal.Attribute {
		return ErrExamMismatch
	}

	for _, roomNo := range roomNos {
		seq, err := r.Sequence.NextArrangeSeq(ctx, proposal.ExamNo)
		if err != nil {
			s.logger.Error("分配考场序号失败", zap.Error(err))
			return err
		}
		arrangeID, err := model.ComposeArrangeID(proposal.ExamNo, seq)
		if err != nil {
			return err
		}
		if err := r.Exam.CreateArrangement(ctx, &model.ExamArrangement{
			ArrangeID: arrangeID,
			ExamNo:    proposal.ExamNo,
			SeqNo:     seq,
			RoomNo:    roomNo,
		}); err != nil {
			s.logger.Error("创建考场安排失败", zap.String("arrange_id", arrangeID), zap.Error(err))
			return err
		}
	}

	if err := r.Exam.UpdateProposalStatus(ctx, req.ProposalID, model.ExamProposalApproved); err != nil {
		s.logger.Error("更新考试提案状态失败", zap.String("id", req.ProposalID), zap.Error(err))
		return err
	}
	return nil
}

// ────────────────────── AssignSeats ──────────────────────

func (s *examService) AssignSeats(ctx context.Context, arrangeID string) (int, error) {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return 0, err
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

	added, err := s.assignSeatsInTx(ctx, txRepo, arrangeID)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return 0, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return 0, err
		}
	}
	return added, nil
}

func (s *examService) assignSeatsInTx(ctx context.Context, r *repository.Repository, arrangeID string) (int, error) {
	arr, err := r.Exam.GetArrangementForUpdate(ctx, arrangeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrArrangementNotFound
		}
		s.logger.Error("锁定考场安排失败", zap.String("arrange_id", arrangeID), zap.Error(err))
		return 0, err
	}

	room, err := r.Classroom.GetByNo(ctx, arr.RoomNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrClassroomNotFound
		}
		s.logger.Error("查询教室失败", zap.String("room_no", arr.RoomNo), zap.Error(err))
		return 0, err
	}

	// 目标座位数 = ceil(容量/3)
	target := (room.Capacity + 2) / 3
	seated, err := r.Exam.CountSeats(ctx, arrangeID)
	if err != nil {
		s.logger.Error("统计已排座位失败", zap.String("arrange_id", arrangeID), zap.Error(err))
		return 0, err
	}
	remaining := target - int(seated)
	if remaining <= 0 {
		return 0, nil
	}

	proposal, err := r.Exam.LatestApprovedByExam(ctx, arr.ExamNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrExamProposalNotFound
		}
		s.logger.Error("查询考试提案失败", zap.String("exam_no", arr.ExamNo), zap.Error(err))
		return 0, err
	}

	// 候选 = 该课程本学期所有选课学生 − 本考试下任何考场已有座位的学生
	enrollments, err := r.Enrollment.ListByCourseSemester(ctx, proposal.CourseNo, proposal.SemesterCode)
	if err != nil {
		s.logger.Error("查询选课学生失败", zap.String("course_no", proposal.CourseNo), zap.Error(err))
		return 0, err
	}
	seatedStudents, err := r.Exam.ListSeatedStudents(ctx, arr.ExamNo)
	if err != nil {
		s.logger.Error("查询已排座学生失败", zap.String("exam_no", arr.ExamNo), zap.Error(err))
		return 0, err
	}
	taken := make(map[string]bool, len(seatedStudents))
	for _, no := range seatedStudents {
		taken[no] = true
	}

	type candidate struct {
		studentNo  string
		offeringNo string
	}
	var candidates []candidate
	for _, e := range enrollments {
		if !taken[e.StudentNo] {
			candidates = append(candidates, candidate{studentNo: e.StudentNo, offeringNo: e.OfferingNo})
		}
	}

	rand.Shuffle(len(candidates), func(i, j int) {
		candidates[i], candidates[j] = candidates[j], candidates[i]
	})

	maxSeat, err := r.Exam.MaxSeatNo(ctx, arrangeID)
	if err != nil {
		s.logger.Error("查询最大座位号失败", zap.String("arrange_id", arrangeID), zap.Error(err))
		return 0, err
	}

	// 阅卷归属 = 学生所选开课的责任教师（按工号排序的第一位）
	ownerCache := make(map[string]string)
	gradingOwner := func(offeringNo string) string {
		if owner, ok := ownerCache[offeringNo]; ok {
			return owner
		}
		professors, err := r.Offering.ListProfessors(ctx, offeringNo)
		owner := ""
		if err == nil && len(professors) > 0 {
			owner = professors[0].ProfessorNo
		}
		ownerCache[offeringNo] = owner
		return owner
	}

	var seats []model.ExamSeat
	next := maxSeat + 1
	for _, c := range candidates {
		if len(seats) >= remaining {
			break
		}
		if next > maxSeatNo {
			// 座位号封顶即停，不报错
			break
		}
		seats = append(seats, model.ExamSeat{
			ArrangeID:      arrangeID,
			StudentNo:      c.studentNo,
			SeatNo:         next,
			ExamNo:         arr.ExamNo,
			GradingOwnerNo: gradingOwner(c.offeringNo),
			Status:         model.DutyWaiting,
		})
		next++
	}

	if err := r.Exam.BatchCreateSeats(ctx, seats); err != nil {
		s.logger.Error("写入座位失败", zap.String("arrange_id", arrangeID), zap.Error(err))
		return 0, err
	}
	return len(seats), nil
}

// ────────────────────── AssignInvigilators ──────────────────────

func (s *examService) AssignInvigilators(ctx context.Context, adminNo string, req *dto.AssignInvigilatorsRequest) error {
	admin, err := s.repo.Account.GetByNo(ctx, adminNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrAccountNotFound
		}
		s.logger.Error("查询账号失败", zap.String("user_no", adminNo), zap.Error(err))
		return err
	}
	if admin.Role != model.RoleDepartmentAdmin {
		return ErrNotAdmin
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

	err = func() error {
		if _, err := txRepo.Exam.GetExamForUpdate(ctx, req.ExamNo); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrExamNotFound
			}
			s.logger.Error("锁定考试失败", zap.String("exam_no", req.ExamNo), zap.Error(err))
			return err
		}

		// 名单过滤到管理员本系教师
		deptProfessors, err := txRepo.Account.ListProfessorsByDepartment(ctx, admin.DepartmentCode)
		if err != nil {
			s.logger.Error("查询本系教师失败", zap.String("department", admin.DepartmentCode), zap.Error(err))
			return err
		}
		inDept := make(map[string]bool, len(deptProfessors))
		for i := range deptProfessors {
			inDept[deptProfessors[i].UserNo] = true
		}
		var filtered []string
		for _, no := range req.ProfessorNos {
			if inDept[no] {
				filtered = append(filtered, no)
			}
		}

		arrangements, err := txRepo.Exam.ListArrangementsByExam(ctx, req.ExamNo)
		if err != nil {
			s.logger.Error("查询考场安排失败", zap.String("exam_no", req.ExamNo), zap.Error(err))
			return err
		}
		for i := range arrangements {
			rows := make([]model.Invigilation, 0, len(filtered))
			for _, no := range filtered {
				rows = append(rows, model.Invigilation{
					ArrangeID:   arrangements[i].ArrangeID,
					ProfessorNo: no,
					Status:      model.DutyWaiting,
				})
			}
			if err := txRepo.Exam.ReplaceInvigilations(ctx, arrangements[i].ArrangeID, rows); err != nil {
				s.logger.Error("替换监考名单失败", zap.String("arrange_id", arrangements[i].ArrangeID), zap.Error(err))
				return err
			}
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
