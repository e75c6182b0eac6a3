package model

import "time"

// ExamProposal 考试提案 — 对应 exam_proposals
type ExamProposal struct {
	ID           string             `gorm:"column:id;type:uuid;primaryKey"                json:"id"`
	CourseNo     string             `gorm:"column:course_no;type:varchar(16);not null"    json:"course_no"`
	ExamNo       string             `gorm:"column:exam_no;type:varchar(16);not null"      json:"exam_no"`
	SemesterCode string             `gorm:"column:semester_code;type:varchar(8);not null" json:"semester_code"`
	SeqNo        int                `gorm:"column:seq_no;not null"                        json:"seq_no"`
	Attribute    ExamAttribute      `gorm:"column:attribute;type:varchar(16);not null"    json:"attribute"`
	BeginTime    time.Time          `gorm:"column:begin_time;not null"                    json:"begin_time"`
	EndTime      time.Time          `gorm:"column:end_time;not null"                      json:"end_time"`
	Status       ExamProposalStatus `gorm:"column:status;type:varchar(20);not null"       json:"status"`
	CreatedAt    time.Time          `gorm:"column:created_at;not null"                    json:"created_at"`
}

// TableName 指定表名
func (ExamProposal) TableName() string { return "exam_proposals" }

// Exam 考试正式记录 — 对应 exams，首次考场安排时 upsert
type Exam struct {
	ExamNo    string        `gorm:"column:exam_no;type:varchar(16);primaryKey" json:"exam_no"`
	CourseNo  string        `gorm:"column:course_no;type:varchar(16);not null" json:"course_no"`
	Attribute ExamAttribute `gorm:"column:attribute;type:varchar(16);not null" json:"attribute"`
	Status    ExamStatus    `gorm:"column:status;type:varchar(20);not null"    json:"status"`
}

// TableName 指定表名
func (Exam) TableName() string { return "exams" }

// ExamArrangement 考场安排 — 对应 exam_arrangements
// 目标座位数 = ceil(教室容量 / 3)
type ExamArrangement struct {
	ArrangeID string `gorm:"column:arrange_id;type:varchar(24);primaryKey" json:"arrange_id"`
	ExamNo    string `gorm:"column:exam_no;type:varchar(16);not null"      json:"exam_no"`
	SeqNo     int    `gorm:"column:seq_no;not null"                        json:"seq_no"`
	RoomNo    string `gorm:"column:room_no;type:varchar(16);not null"      json:"room_no"`
}

// TableName 指定表名
func (ExamArrangement) TableName() string { return "exam_arrangements" }

// ExamSeat 考试座位 — 对应 exam_seats
// 不变式：座位号在考场内唯一且 ∈ [0,100]；同一考试下每个学生至多一个座位
type ExamSeat struct {
	ArrangeID      string     `gorm:"column:arrange_id;type:varchar(24);primaryKey" json:"arrange_id"`
	StudentNo      string     `gorm:"column:student_no;type:varchar(16);primaryKey" json:"student_no"`
	SeatNo         int        `gorm:"column:seat_no;not null"                       json:"seat_no"`
	ExamNo         string     `gorm:"column:exam_no;type:varchar(16);not null"      json:"exam_no"`
	GradingOwnerNo string     `gorm:"column:grading_owner_no;type:varchar(16);not null;default:''" json:"grading_owner_no"`
	Status         DutyStatus `gorm:"column:status;type:varchar(20);not null"       json:"status"`
}

// TableName 指定表名
func (ExamSeat) TableName() string { return "exam_seats" }

// Invigilation 监考 — 对应 invigilations
type Invigilation struct {
	ArrangeID   string     `gorm:"column:arrange_id;type:varchar(24);primaryKey"   json:"arrange_id"`
	ProfessorNo string     `gorm:"column:professor_no;type:varchar(16);primaryKey" json:"professor_no"`
	Status      DutyStatus `gorm:"column:status;type:varchar(20);not null"         json:"status"`
}

// TableName 指定表名
func (Invigilation) TableName() string { return "invigilations" }
