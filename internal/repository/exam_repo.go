package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
)

// ExamRepository 考试提案 / 考试 / 考场 / 座位 / 监考数据访问接口
type ExamRepository interface {
	// ── 考试提案 ──

	CreateProposal(ctx context.Context, p *model.ExamProposal) error
	GetProposalForUpdate(ctx context.Context, id string) (*model.ExamProposal, error)
	UpdateProposalStatus(ctx context.Context, id string, status model.ExamProposalStatus) error
	// LatestApprovedByExam 某考试号下最新已批准提案（时间窗口的权威来源）
	LatestApprovedByExam(ctx context.Context, examNo string) (*model.ExamProposal, error)
	// ListApprovedBeginningBetween 开考时间落在 (from, until] 的已批准提案（考试提醒）
	ListApprovedBeginningBetween(ctx context.Context, from, until time.Time) ([]model.ExamProposal, error)
	// ExistsApprovedWindowOverlap 某考试号之外是否有已批准提案占用同教室重叠窗口
	ExistsApprovedWindowOverlap(ctx context.Context, roomNo string, begin, end time.Time, excludeExamNo string) (bool, error)

	// ── 考试 ──

	GetExam(ctx context.Context, examNo string) (*model.Exam, error)
	GetExamForUpdate(ctx context.Context, examNo string) (*model.Exam, error)
	CreateExam(ctx context.Context, e *model.Exam) error
	UpdateExamStatus(ctx context.Context, examNo string, status model.ExamStatus) error
	// ListExamsNotEnded 未结束的考试（状态扫描）
	ListExamsNotEnded(ctx context.Context) ([]model.Exam, error)

	// ── 考场安排 ──

	CreateArrangement(ctx context.Context, a *model.ExamArrangement) error
	GetArrangementForUpdate(ctx context.Context, arrangeID string) (*model.ExamArrangement, error)
	ListArrangementsByExam(ctx context.Context, examNo string) ([]model.ExamArrangement, error)

	// ── 座位 ──

	BatchCreateSeats(ctx context.Context, seats []model.ExamSeat) error
	CountSeats(ctx context.Context, arrangeID string) (int64, error)
	// MaxSeatNo 考场内当前最大座位号；无座位返回 -1
	MaxSeatNo(ctx context.Context, arrangeID string) (int, error)
	// ListSeatedStudents 同一考试下已有座位的学生（跨考场去重）
	ListSeatedStudents(ctx context.Context, examNo string) ([]string, error)
	ListSeatsByArrangement(ctx context.Context, arrangeID string) ([]model.ExamSeat, error)
	MarkSeatsCompletedByExam(ctx context.Context, examNo string) error

	// ── 监考 ──

	// ReplaceInvigilations 覆盖式写入考场监考名单
	ReplaceInvigilations(ctx context.Context, arrangeID string, rows []model.Invigilation) error
	ListInvigilationsByArrangement(ctx context.Context, arrangeID string) ([]model.Invigilation, error)
	MarkInvigilationsCompletedByExam(ctx context.Context, examNo string) error
}

type examRepo struct {
	db *gorm.DB
}

// NewExamRepo 创建 ExamRepository 实例
func NewExamRepo(db *gorm.DB) ExamRepository {
	return &examRepo{db: db}
}

func (r *examRepo) CreateProposal(ctx context.Context, p *model.ExamProposal) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *examRepo) GetProposalForUpdate(ctx context.Context, id string) (*model.ExamProposal, error) {
	var p model.ExamProposal
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *examRepo) UpdateProposalStatus(ctx context.Context, id string, status model.ExamProposalStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.ExamProposal{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *examRepo) LatestApprovedByExam(ctx context.Context, examNo string) (*model.ExamProposal, error) {
	var p model.ExamProposal
	err := r.db.WithContext(ctx).
		Where("exam_no = ? AND status = ?", examNo, model.ExamProposalApproved).
		Order("created_at DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *examRepo) ListApprovedBeginningBetween(ctx context.Context, from, until time.Time) ([]model.ExamProposal, error) {
	var ps []model.ExamProposal
	err := r.db.WithContext(ctx).
		Where("status = ? AND begin_time > ? AND begin_time <= ?", model.ExamProposalApproved, from, until).
		Find(&ps).Error
	return ps, err
}

func (r *examRepo) ExistsApprovedWindowOverlap(ctx context.Context, roomNo string, begin, end time.Time, excludeExamNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM exam_proposals p
		JOIN exam_arrangements a ON a.exam_no = p.exam_no
		WHERE a.room_no = ? AND p.status = ? AND p.exam_no <> ?
		  AND p.begin_time < ? AND ? < p.end_time`,
		roomNo, model.ExamProposalApproved, excludeExamNo, end, begin,
	).Scan(&count).Error
	return count > 0, err
}

func (r *examRepo) GetExam(ctx context.Context, examNo string) (*model.Exam, error) {
	var e model.Exam
	err := r.db.WithContext(ctx).
		Where("exam_no = ?", examNo).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *examRepo) GetExamForUpdate(ctx context.Context, examNo string) (*model.Exam, error) {
	var e model.Exam
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("exam_no = ?", examNo).
		First(&e).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *examRepo) CreateExam(ctx context.Context, e *model.Exam) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *examRepo) UpdateExamStatus(ctx context.Context, examNo string, status model.ExamStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.Exam{}).
		Where("exam_no = ?", examNo).
		Update("status", status).Error
}

func (r *examRepo) ListExamsNotEnded(ctx context.Context) ([]model.Exam, error) {
	var es []model.Exam
	err := r.db.WithContext(ctx).
		Where("status <> ?", model.ExamEnded).
		Find(&es).Error
	return es, err
}

func (r *examRepo) CreateArrangement(ctx context.Context, a *model.ExamArrangement) error {
	return r.db.WithContext(ctx).Create(a).Error
}

func (r *examRepo) GetArrangementForUpdate(ctx context.Context, arrangeID string) (*model.ExamArrangement, error) {
	var a model.ExamArrangement
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("arrange_id = ?", arrangeID).
		First(&a).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *examRepo) ListArrangementsByExam(ctx context.Context, examNo string) ([]model.ExamArrangement, error) {
	var as []model.ExamArrangement
	err := r.db.WithContext(ctx).
		Where("exam_no = ?", examNo).
		Order("seq_no ASC").
		Find(&as).Error
	return as, err
}

func (r *examRepo) BatchCreateSeats(ctx context.Context, seats []model.ExamSeat) error {
	if len(seats) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&seats).Error
}

func (r *examRepo) CountSeats(ctx context.Context, arrangeID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ExamSeat{}).
		Where("arrange_id = ?", arrangeID).
		Count(&count).Error
	return count, err
}

func (r *examRepo) MaxSeatNo(ctx context.Context, arrangeID string) (int, error) {
	var max int
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(seat_no), -1) FROM exam_seats WHERE arrange_id = ?`,
		arrangeID,
	).Scan(&max).Error
	return max, err
}

func (r *examRepo) ListSeatedStudents(ctx context.Context, examNo string) ([]string, error) {
	var nos []string
	err := r.db.WithContext(ctx).
		Model(&model.ExamSeat{}).
		Where("exam_no = ?", examNo).
		Pluck("student_no", &nos).Error
	return nos, err
}

func (r *examRepo) ListSeatsByArrangement(ctx context.Context, arrangeID string) ([]model.ExamSeat, error) {
	var seats []model.ExamSeat
	err := r.db.WithContext(ctx).
		Where("arrange_id = ?", arrangeID).
		Order("seat_no ASC").
		Find(&seats).Error
	return seats, err
}

func (r *examRepo) MarkSeatsCompletedByExam(ctx context.Context, examNo string) error {
	return r.db.WithContext(ctx).
		Model(&model.ExamSeat{}).
		Where("exam_no = ? AND status = ?", examNo, model.DutyWaiting).
		Update("status", model.DutyCompleted).Error
}

func (r *examRepo) ReplaceInvigilations(ctx context.Context, arrangeID string, rows []model.Invigilation) error {
	if err := r.db.WithContext(ctx).
		Where("arrange_id = ?", arrangeID).
		Delete(&model.Invigilation{}).Error; err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

func (r *examRepo) ListInvigilationsByArrangement(ctx context.Context, arrangeID string) ([]model.Invigilation, error) {
	var rows []model.Invigilation
	err := r.db.WithContext(ctx).
		Where("arrange_id = ?", arrangeID).
		Order("professor_no ASC").
		Find(&rows).Error
	return rows, err
}

func (r *examRepo) MarkInvigilationsCompletedByExam(ctx context.Context, examNo string) error {
	return r.db.WithContext(ctx).Exec(`
		UPDATE invigilations SET status = ?
		WHERE status = ? AND arrange_id IN (
			SELECT arrange_id FROM exam_arrangements WHERE exam_no = ?
		)`,
		model.DutyCompleted, model.DutyWaiting, examNo,
	).Error
}
