package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
)

// OfferingRepository 开课提案与课程实例数据访问接口
type OfferingRepository interface {
	// ── 开课提案 ──

	CreateProposal(ctx context.Context, p *model.OfferingProposal, professors []model.OfferingProfessor) error
	GetProposal(ctx context.Context, offeringNo string) (*model.OfferingProposal, error)
	GetProposalForUpdate(ctx context.Context, offeringNo string) (*model.OfferingProposal, error)
	UpdateProposalStatus(ctx context.Context, offeringNo string, status model.OfferingProposalStatus) error
	ListProposalsByStatusForUpdate(ctx context.Context, status model.OfferingProposalStatus) ([]model.OfferingProposal, error)
	// ListProfessors 按工号升序；首位即该开课的责任教师
	ListProfessors(ctx context.Context, offeringNo string) ([]model.OfferingProfessor, error)
	ListOfferingsByProfessor(ctx context.Context, professorNo string) ([]model.OfferingProfessor, error)

	// ── 课程实例 ──

	CreateCourse(ctx context.Context, c *model.CourseOffering) error
	GetCourse(ctx context.Context, offeringNo string) (*model.CourseOffering, error)
	GetCourseForUpdate(ctx context.Context, offeringNo string) (*model.CourseOffering, error)
	UpdateCourseStatus(ctx context.Context, offeringNo string, status model.CourseStatus) error
	SetHeadcount(ctx context.Context, offeringNo string, headcount int) error
	ListCoursesBySemester(ctx context.Context, semesterCode string) ([]model.CourseOffering, error)
	// ListCoursesByCourse 某课程号在某学期的全部实例（考试报名人数汇总用）
	ListCoursesByCourse(ctx context.Context, courseNo, semesterCode string) ([]model.CourseOffering, error)
	// ListCoursesByStatusForUpdate 锁定某状态的课程实例（选课关闭级联用）
	ListCoursesByStatusForUpdate(ctx context.Context, semesterCode string, status model.CourseStatus) ([]model.CourseOffering, error)
	// ListCoursesBySemesterForUpdate 锁定本学期全部课程实例
	ListCoursesBySemesterForUpdate(ctx context.Context, semesterCode string) ([]model.CourseOffering, error)
	// CountProposalsByCourseStatus 某课程号在某学期处于某状态的开课提案数
	CountProposalsByCourseStatus(ctx context.Context, courseNo, semesterCode string, status model.OfferingProposalStatus) (int64, error)
	// ResetHeadcountsBySemester 本学期全部课程实例选课计数清零
	ResetHeadcountsBySemester(ctx context.Context, semesterCode string) error
	// MarkCoursesInProgress 已有课时开始上课的未开始课程置 in_progress，返回行数
	MarkCoursesInProgress(ctx context.Context) (int64, error)
}

type offeringRepo struct {
	db *gorm.DB
}

// NewOfferingRepo 创建 OfferingRepository 实例
func NewOfferingRepo(db *gorm.DB) OfferingRepository {
	return &offeringRepo{db: db}
}

func (r *offeringRepo) CreateProposal(ctx context.Context, p *model.OfferingProposal, professors []model.OfferingProfessor) error {
	if err := r.db.WithContext(ctx).Create(p).Error; err != nil {
		return err
	}
	if len(professors) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&professors).Error
}

func (r *offeringRepo) GetProposal(ctx context.Context, offeringNo string) (*model.OfferingProposal, error) {
	var p model.OfferingProposal
	err := r.db.WithContext(ctx).
		Where("offering_no = ?", offeringNo).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *offeringRepo) GetProposalForUpdate(ctx context.Context, offeringNo string) (*model.OfferingProposal, error) {
	var p model.OfferingProposal
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("offering_no = ?", offeringNo).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *offeringRepo) UpdateProposalStatus(ctx context.Context, offeringNo string, status model.OfferingProposalStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.OfferingProposal{}).
		Where("offering_no = ?", offeringNo).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

func (r *offeringRepo) ListProposalsByStatusForUpdate(ctx context.Context, status model.OfferingProposalStatus) ([]model.OfferingProposal, error) {
	var ps []model.OfferingProposal
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&ps).Error
	return ps, err
}

func (r *offeringRepo) ListProfessors(ctx context.Context, offeringNo string) ([]model.OfferingProfessor, error) {
	var profs []model.OfferingProfessor
	err := r.db.WithContext(ctx).
		Where("offering_no = ?", offeringNo).
		Order("professor_no ASC").
		Find(&profs).Error
	return profs, err
}

func (r *offeringRepo) ListOfferingsByProfessor(ctx context.Context, professorNo string) ([]model.OfferingProfessor, error) {
	var profs []model.OfferingProfessor
	err := r.db.WithContext(ctx).
		Where("professor_no = ?", professorNo).
		Find(&profs).Error
	return profs, err
}

func (r *offeringRepo) CreateCourse(ctx context.Context, c *model.CourseOffering) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *offeringRepo) GetCourse(ctx context.Context, offeringNo string) (*model.CourseOffering, error) {
	var c model.CourseOffering
	err := r.db.WithContext(ctx).
		Where("offering_no = ?", offeringNo).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *offeringRepo) GetCourseForUpdate(ctx context.Context, offeringNo string) (*model.CourseOffering, error) {
	var c model.CourseOffering
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("offering_no = ?", offeringNo).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *offeringRepo) UpdateCourseStatus(ctx context.Context, offeringNo string, status model.CourseStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.CourseOffering{}).
		Where("offering_no = ?", offeringNo).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

func (r *offeringRepo) SetHeadcount(ctx context.Context, offeringNo string, headcount int) error {
	return r.db.WithContext(ctx).
		Model(&model.CourseOffering{}).
		Where("offering_no = ?", offeringNo).
		Updates(map[string]interface{}{"current_headcount": headcount, "updated_at": time.Now()}).Error
}

func (r *offeringRepo) ListCoursesBySemester(ctx context.Context, semesterCode string) ([]model.CourseOffering, error) {
	var cs []model.CourseOffering
	err := r.db.WithContext(ctx).
		Where("semester_code = ?", semesterCode).
		Find(&cs).Error
	return cs, err
}

func (r *offeringRepo) ListCoursesByCourse(ctx context.Context, courseNo, semesterCode string) ([]model.CourseOffering, error) {
	var cs []model.CourseOffering
	err := r.db.WithContext(ctx).
		Where("course_no = ? AND semester_code = ?", courseNo, semesterCode).
		Find(&cs).Error
	return cs, err
}

func (r *offeringRepo) ListCoursesByStatusForUpdate(ctx context.Context, semesterCode string, status model.CourseStatus) ([]model.CourseOffering, error) {
	var cs []model.CourseOffering
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("semester_code = ? AND status = ?", semesterCode, status).
		Find(&cs).Error
	return cs, err
}

func (r *offeringRepo) ListCoursesBySemesterForUpdate(ctx context.Context, semesterCode string) ([]model.CourseOffering, error) {
	var cs []model.CourseOffering
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("semester_code = ?", semesterCode).
		Order("offering_no ASC").
		Find(&cs).Error
	return cs, err
}

func (r *offeringRepo) CountProposalsByCourseStatus(ctx context.Context, courseNo, semesterCode string, status model.OfferingProposalStatus) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.OfferingProposal{}).
		Where("course_no = ? AND semester_code = ? AND status = ?", courseNo, semesterCode, status).
		Count(&count).Error
	return count, err
}

func (r *offeringRepo) ResetHeadcountsBySemester(ctx context.Context, semesterCode string) error {
	return r.db.WithContext(ctx).
		Model(&model.CourseOffering{}).
		Where("semester_code = ?", semesterCode).
		Updates(map[string]interface{}{"current_headcount": 0, "updated_at": time.Now()}).Error
}

func (r *offeringRepo) MarkCoursesInProgress(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).Exec(`
		UPDATE course_offerings SET status = ?, updated_at = ?
		WHERE status = ? AND offering_no IN (
			SELECT DISTINCT offering_no FROM schedule_slots WHERE status <> ?
		)`,
		model.CourseInProgress, time.Now(), model.CourseNotStarted, model.SlotAwaitingClass,
	)
	return result.RowsAffected, result.Error
}
