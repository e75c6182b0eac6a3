package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
)

// SlotOccupant 占用查询结果：某时段占用教室的课时及其课程名
type SlotOccupant struct {
	OfferingNo string `gorm:"column:offering_no"`
	CourseName string `gorm:"column:course_name"`
}

// ScheduleSlotRepository 课时数据访问接口
type ScheduleSlotRepository interface {
	// BatchCreate 整批写入；任何一条违反唯一索引则整批失败
	BatchCreate(ctx context.Context, slots []model.ScheduleSlot) error
	// CountAt 某 (日期, 教室, 节次) 的已有课时数（排课冲突检查）
	CountAt(ctx context.Context, date time.Time, roomNo, lessonPeriod string) (int64, error)
	ListByOffering(ctx context.Context, offeringNo string) ([]model.ScheduleSlot, error)
	// ListByStudentSemesterDate 学生当日全部课时（选课时间冲突检查，带课程名）
	ListByStudentDate(ctx context.Context, studentNo string, date time.Time) ([]model.ScheduleSlot, error)
	// ExistsRoomOverlap 教室在 [begin, end) 窗口内是否被课时占用（考场占用统一判定）
	ExistsRoomOverlap(ctx context.Context, roomNo string, begin, end time.Time) (bool, error)
	// MarkEndedByOffering 课程关闭时其全部课时置 ended
	MarkEndedByOffering(ctx context.Context, offeringNo string) error
	// MarkInClass 当日已开始未结束的课时置 in_class，返回行数
	MarkInClass(ctx context.Context, date time.Time, nowHHMM string) (int64, error)
	// MarkEnded 截至当前时刻窗口已过的课时置 ended，返回行数。
	// 此前日期的遗留课时（跨夜停扫、延迟部署）无条件收尾。
	MarkEnded(ctx context.Context, date time.Time, nowHHMM string) (int64, error)
	// ListStartingWithin 当日 (nowHHMM, untilHHMM] 内开始且未上课的课时（上课提醒）
	ListStartingWithin(ctx context.Context, date time.Time, nowHHMM, untilHHMM string) ([]model.ScheduleSlot, error)
}

type scheduleSlotRepo struct {
	db *gorm.DB
}

// NewScheduleSlotRepo 创建 ScheduleSlotRepository 实例
func NewScheduleSlotRepo(db *gorm.DB) ScheduleSlotRepository {
	return &scheduleSlotRepo{db: db}
}

func (r *scheduleSlotRepo) BatchCreate(ctx context.Context, slots []model.ScheduleSlot) error {
	if len(slots) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&slots).Error
}

func (r *scheduleSlotRepo) CountAt(ctx context.Context, date time.Time, roomNo, lessonPeriod string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("calendar_date = ? AND room_no = ? AND lesson_period = ?", date, roomNo, lessonPeriod).
		Count(&count).Error
	return count, err
}

func (r *scheduleSlotRepo) ListByOffering(ctx context.Context, offeringNo string) ([]model.ScheduleSlot, error) {
	var slots []model.ScheduleSlot
	err := r.db.WithContext(ctx).
		Where("offering_no = ?", offeringNo).
		Order("class_hour_index ASC").
		Find(&slots).Error
	return slots, err
}

func (r *scheduleSlotRepo) ListByStudentDate(ctx context.Context, studentNo string, date time.Time) ([]model.ScheduleSlot, error) {
	var slots []model.ScheduleSlot
	err := r.db.WithContext(ctx).Raw(`
		SELECT s.* FROM schedule_slots s
		JOIN enrollments e ON e.offering_no = s.offering_no
		WHERE e.student_no = ? AND s.calendar_date = ?`,
		studentNo, date,
	).Scan(&slots).Error
	return slots, err
}

func (r *scheduleSlotRepo) ExistsRoomOverlap(ctx context.Context, roomNo string, begin, end time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Raw(`
		SELECT COUNT(*) FROM schedule_slots
		WHERE room_no = ?
		  AND (calendar_date + begin_at::time) < ?
		  AND ? < (calendar_date + end_at::time)`,
		roomNo, end, begin,
	).Scan(&count).Error
	return count > 0, err
}

func (r *scheduleSlotRepo) MarkEndedByOffering(ctx context.Context, offeringNo string) error {
	return r.db.WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("offering_no = ? AND status <> ?", offeringNo, model.SlotEnded).
		Update("status", model.SlotEnded).Error
}

func (r *scheduleSlotRepo) MarkInClass(ctx context.Context, date time.Time, nowHHMM string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("calendar_date = ? AND status = ? AND begin_at <= ? AND end_at > ?",
			date, model.SlotAwaitingClass, nowHHMM, nowHHMM).
		Update("status", model.SlotInClass)
	return result.RowsAffected, result.Error
}

func (r *scheduleSlotRepo) MarkEnded(ctx context.Context, date time.Time, nowHHMM string) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.ScheduleSlot{}).
		Where("status <> ? AND (calendar_date < ? OR (calendar_date = ? AND end_at <= ?))",
			model.SlotEnded, date, date, nowHHMM).
		Update("status", model.SlotEnded)
	return result.RowsAffected, result.Error
}

func (r *scheduleSlotRepo) ListStartingWithin(ctx context.Context, date time.Time, nowHHMM, untilHHMM string) ([]model.ScheduleSlot, error) {
	var slots []model.ScheduleSlot
	err := r.db.WithContext(ctx).
		Where("calendar_date = ? AND status = ? AND begin_at > ? AND begin_at <= ?",
			date, model.SlotAwaitingClass, nowHHMM, untilHHMM).
		Find(&slots).Error
	return slots, err
}
