package repository

import (
	"context"

	"gorm.io/gorm"
)

// SequenceRepository 序号分配器
//
// 每个作用域一个固定 SQL 方法：在调用方已开启的写事务里，
// 对匹配行集做 FOR UPDATE 锁定读后取 MAX+1，并发分配在同一
// 作用域上串行化，不同作用域互不阻塞。空作用域返回 0。
// 表名与列名全部写死，不拼接任何调用方输入。
type SequenceRepository interface {
	// NextCnoSeq 课程号池作用域：(属性类别, 院系, 学期窗口)
	NextCnoSeq(ctx context.Context, attributeClass, departmentCode, semesterWindow string) (int, error)
	// NextOfferingSeq 开课提案作用域：(课程号, 学期)
	NextOfferingSeq(ctx context.Context, courseNo, semesterCode string) (int, error)
	// NextExamSeq 考试提案作用域：(学期)
	NextExamSeq(ctx context.Context, semesterCode string) (int, error)
	// NextArrangeSeq 考场安排作用域：(考试号)
	NextArrangeSeq(ctx context.Context, examNo string) (int, error)
}

type sequenceRepo struct {
	db *gorm.DB
}

// NewSequenceRepo 创建 SequenceRepository 实例
func NewSequenceRepo(db *gorm.DB) SequenceRepository {
	return &sequenceRepo{db: db}
}

func (r *sequenceRepo) NextCnoSeq(ctx context.Context, attributeClass, departmentCode, semesterWindow string) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(seq_no), -1) + 1 FROM (
			SELECT seq_no FROM cno_pool
			WHERE attribute_class = ? AND department_code = ? AND semester_window = ?
			FOR UPDATE
		) locked`,
		attributeClass, departmentCode, semesterWindow,
	).Scan(&next).Error
	return next, err
}

func (r *sequenceRepo) NextOfferingSeq(ctx context.Context, courseNo, semesterCode string) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(seq_no), -1) + 1 FROM (
			SELECT seq_no FROM offering_proposals
			WHERE course_no = ? AND semester_code = ?
			FOR UPDATE
		) locked`,
		courseNo, semesterCode,
	).Scan(&next).Error
	return next, err
}

func (r *sequenceRepo) NextExamSeq(ctx context.Context, semesterCode string) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(seq_no), -1) + 1 FROM (
			SELECT seq_no FROM exam_proposals
			WHERE semester_code = ?
			FOR UPDATE
		) locked`,
		semesterCode,
	).Scan(&next).Error
	return next, err
}

func (r *sequenceRepo) NextArrangeSeq(ctx context.Context, examNo string) (int, error) {
	var next int
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(MAX(seq_no), -1) + 1 FROM (
			SELECT seq_no FROM exam_arrangements
			WHERE exam_no = ?
			FOR UPDATE
		) locked`,
		examNo,
	).Scan(&next).Error
	return next, err
}
