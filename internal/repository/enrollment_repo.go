package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
)

// EnrollmentRepository 选课记录数据访问接口
type EnrollmentRepository interface {
	Create(ctx context.Context, e *model.Enrollment) error
	Delete(ctx context.Context, offeringNo, studentNo string) (int64, error)
	Exists(ctx context.Context, offeringNo, studentNo string) (bool, error)
	// CountByOffering 实时选课人数；容量判定以此为准，不信任冗余计数器
	CountByOffering(ctx context.Context, offeringNo string) (int64, error)
	ListByOffering(ctx context.Context, offeringNo string) ([]model.Enrollment, error)
	ListByStudentSemester(ctx context.Context, studentNo, semesterCode string) ([]model.Enrollment, error)
	// ListByCourseSemester 某课程号本学期全部选课（考试考生来源）
	ListByCourseSemester(ctx context.Context, courseNo, semesterCode string) ([]model.Enrollment, error)
	// SnapshotBySemester 选课关闭级联：本学期选课快照进历史表（不删除）
	SnapshotBySemester(ctx context.Context, semesterCode string, archivedAt time.Time) error
	// DeleteBySemester 选课重新开放时清空上一轮选课
	DeleteBySemester(ctx context.Context, semesterCode string) (int64, error)
}

type enrollmentRepo struct {
	db *gorm.DB
}

// NewEnrollmentRepo 创建 EnrollmentRepository 实例
func NewEnrollmentRepo(db *gorm.DB) EnrollmentRepository {
	return &enrollmentRepo{db: db}
}

func (r *enrollmentRepo) Create(ctx context.Context, e *model.Enrollment) error {
	return r.db.WithContext(ctx).Create(e).Error
}

func (r *enrollmentRepo) Delete(ctx context.Context, offeringNo, studentNo string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("offering_no = ? AND student_no = ?", offeringNo, studentNo).
		Delete(&model.Enrollment{})
	return result.RowsAffected, result.Error
}

func (r *enrollmentRepo) Exists(ctx context.Context, offeringNo, studentNo string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("offering_no = ? AND student_no = ?", offeringNo, studentNo).
		Count(&count).Error
	return count > 0, err
}

func (r *enrollmentRepo) CountByOffering(ctx context.Context, offeringNo string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.Enrollment{}).
		Where("offering_no = ?", offeringNo).
		Count(&count).Error
	return count, err
}

func (r *enrollmentRepo) ListByOffering(ctx context.Context, offeringNo string) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.db.WithContext(ctx).
		Where("offering_no = ?", offeringNo).
		Order("student_no ASC").
		Find(&es).Error
	return es, err
}

func (r *enrollmentRepo) ListByStudentSemester(ctx context.Context, studentNo, semesterCode string) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.db.WithContext(ctx).
		Where("student_no = ? AND semester_code = ?", studentNo, semesterCode).
		Find(&es).Error
	return es, err
}

func (r *enrollmentRepo) ListByCourseSemester(ctx context.Context, courseNo, semesterCode string) ([]model.Enrollment, error) {
	var es []model.Enrollment
	err := r.db.WithContext(ctx).
		Where("course_no = ? AND semester_code = ?", courseNo, semesterCode).
		Order("student_no ASC").
		Find(&es).Error
	return es, err
}

func (r *enrollmentRepo) SnapshotBySemester(ctx context.Context, semesterCode string, archivedAt time.Time) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO enrollment_archive (offering_no, student_no, course_no, semester_code, archived_at)
		SELECT offering_no, student_no, course_no, semester_code, ?
		FROM enrollments WHERE semester_code = ?`,
		archivedAt, semesterCode,
	).Error
}

func (r *enrollmentRepo) DeleteBySemester(ctx context.Context, semesterCode string) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("semester_code = ?", semesterCode).
		Delete(&model.Enrollment{})
	return result.RowsAffected, result.Error
}
