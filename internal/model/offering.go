package model

import (
	"time"

	"github.com/lib/pq"
)

// OfferingProposal 开课提案 — 对应 offering_proposals
// 教师就某课程目录课程在本学期开课的申请
type OfferingProposal struct {
	OfferingNo   string                 `gorm:"column:offering_no;type:varchar(32);primaryKey" json:"offering_no"`
	CourseNo     string                 `gorm:"column:course_no;type:varchar(16);not null"     json:"course_no"`
	SemesterCode string                 `gorm:"column:semester_code;type:varchar(8);not null"  json:"semester_code"`
	SeqNo        int                    `gorm:"column:seq_no;not null"                         json:"seq_no"`
	Campus       string                 `gorm:"column:campus;type:varchar(32);not null"        json:"campus"`
	MaxHeadcount int                    `gorm:"column:max_headcount;not null"                  json:"max_headcount"`
	Status       OfferingProposalStatus `gorm:"column:status;type:varchar(24);not null"        json:"status"`
	CreatorNo    string                 `gorm:"column:creator_no;type:varchar(16);not null"    json:"creator_no"`
	Weekdays     pq.Int64Array          `gorm:"column:weekdays;type:int[];not null"           json:"weekdays"` // 1..7，ISO 周一为 1
	CreatedAt    time.Time              `gorm:"column:created_at;not null"                     json:"created_at"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;not null"                     json:"updated_at"`
}

// TableName 指定表名
func (OfferingProposal) TableName() string { return "offering_proposals" }

// OfferingProfessor 开课任课教师 — 对应 offering_professors
type OfferingProfessor struct {
	OfferingNo  string `gorm:"column:offering_no;type:varchar(32);primaryKey"  json:"offering_no"`
	ProfessorNo string `gorm:"column:professor_no;type:varchar(16);primaryKey" json:"professor_no"`
}

// TableName 指定表名
func (OfferingProfessor) TableName() string { return "offering_professors" }

// CourseOffering 课程实例 — 对应 course_offerings，首次排课时创建
type CourseOffering struct {
	OfferingNo       string       `gorm:"column:offering_no;type:varchar(32);primaryKey" json:"offering_no"`
	CourseNo         string       `gorm:"column:course_no;type:varchar(16);not null"     json:"course_no"`
	SemesterCode     string       `gorm:"column:semester_code;type:varchar(8);not null"  json:"semester_code"`
	SeqNo            int          `gorm:"column:seq_no;not null"                         json:"seq_no"`
	MaxHeadcount     int          `gorm:"column:max_headcount;not null"                  json:"max_headcount"`
	CurrentHeadcount int          `gorm:"column:current_headcount;not null;default:0"    json:"current_headcount"`
	Status           CourseStatus `gorm:"column:status;type:varchar(20);not null"        json:"status"`
	UpdatedAt        time.Time    `gorm:"column:updated_at;not null"                     json:"updated_at"`
}

// TableName 指定表名
func (CourseOffering) TableName() string { return "course_offerings" }

// ScheduleSlot 课时 — 对应 schedule_slots
// 不变式：同一 (calendar_date, room_no, lesson_period) 全系统至多一条（唯一索引兜底）
type ScheduleSlot struct {
	OfferingNo     string     `gorm:"column:offering_no;type:varchar(32);primaryKey" json:"offering_no"`
	ClassHourIndex int        `gorm:"column:class_hour_index;primaryKey"             json:"class_hour_index"` // 1 起
	LessonPeriod   string     `gorm:"column:lesson_period;type:varchar(2);not null"  json:"lesson_period"`
	CalendarDate   time.Time  `gorm:"column:calendar_date;type:date;not null"        json:"calendar_date"`
	RoomNo         string     `gorm:"column:room_no;type:varchar(16);not null"       json:"room_no"`
	ProfessorNo    string     `gorm:"column:professor_no;type:varchar(16);not null"  json:"professor_no"`
	BeginAt        string     `gorm:"column:begin_at;type:varchar(5);not null"       json:"begin_at"` // HH:MM
	EndAt          string     `gorm:"column:end_at;type:varchar(5);not null"         json:"end_at"`
	Status         SlotStatus `gorm:"column:status;type:varchar(20);not null"        json:"status"`
}

// TableName 指定表名
func (ScheduleSlot) TableName() string { return "schedule_slots" }

// Enrollment 选课记录 — 对应 enrollments
// 不变式：(offering_no, student_no) 唯一；存在即意味着 current_headcount 已累加
type Enrollment struct {
	OfferingNo   string    `gorm:"column:offering_no;type:varchar(32);primaryKey" json:"offering_no"`
	StudentNo    string    `gorm:"column:student_no;type:varchar(16);primaryKey"  json:"student_no"`
	CourseNo     string    `gorm:"column:course_no;type:varchar(16);not null"     json:"course_no"`
	SemesterCode string    `gorm:"column:semester_code;type:varchar(8);not null"  json:"semester_code"`
	CreatedAt    time.Time `gorm:"column:created_at;not null"                     json:"created_at"`
}

// TableName 指定表名
func (Enrollment) TableName() string { return "enrollments" }

// EnrollmentArchive 选课历史归档 — 对应 enrollment_archive，选课关闭时快照
type EnrollmentArchive struct {
	OfferingNo   string    `gorm:"column:offering_no;type:varchar(32);primaryKey" json:"offering_no"`
	StudentNo    string    `gorm:"column:student_no;type:varchar(16);primaryKey"  json:"student_no"`
	CourseNo     string    `gorm:"column:course_no;type:varchar(16);not null"     json:"course_no"`
	SemesterCode string    `gorm:"column:semester_code;type:varchar(8);not null"  json:"semester_code"`
	ArchivedAt   time.Time `gorm:"column:archived_at;primaryKey"                  json:"archived_at"`
}

// TableName 指定表名
func (EnrollmentArchive) TableName() string { return "enrollment_archive" }
