package model

import "time"

// CnoPoolEntry 课程号池 — 对应 cno_pool
// 提案提交时占用（复用 available 槽位或新铸一个），状态驱动目录可见性
type CnoPoolEntry struct {
	CourseNo       string         `gorm:"column:course_no;type:varchar(16);primaryKey"     json:"course_no"`
	AttributeClass AttributeClass `gorm:"column:attribute_class;type:varchar(32);not null" json:"attribute_class"`
	DepartmentCode string         `gorm:"column:department_code;type:varchar(8);not null"  json:"department_code"`
	SemesterWindow string         `gorm:"column:semester_window;type:varchar(2);not null"  json:"semester_window"`
	SeqNo          int            `gorm:"column:seq_no;not null"                           json:"seq_no"`
	Status         PoolStatus     `gorm:"column:status;type:varchar(20);not null"          json:"status"`
}

// TableName 指定表名
func (CnoPoolEntry) TableName() string { return "cno_pool" }

// ── 课程目录提案 ──

// ProposalVariant 提案来源：P 教师提交 / G 系管理员提交
type ProposalVariant string

const (
	VariantProfessor  ProposalVariant = "P"
	VariantDepartment ProposalVariant = "G"
)

// CatalogProposal 课程目录提案 — 对应 catalog_proposals
type CatalogProposal struct {
	ID            string                `gorm:"column:id;type:uuid;primaryKey"              json:"id"`
	Variant       ProposalVariant       `gorm:"column:variant;type:char(1);not null"        json:"variant"`
	CourseNo      string                `gorm:"column:course_no;type:varchar(16);not null"  json:"course_no"`
	Name          string                `gorm:"column:name;type:varchar(128);not null"      json:"name"`
	Credit        float64               `gorm:"column:credit;type:numeric(4,1);not null"    json:"credit"`
	ClassHours    int                   `gorm:"column:class_hours;not null"                 json:"class_hours"`
	ExamAttribute ExamAttribute         `gorm:"column:exam_attribute;type:varchar(16);not null" json:"exam_attribute"`
	Description   string                `gorm:"column:description;type:text;not null"       json:"description"`
	Status        CatalogProposalStatus `gorm:"column:status;type:varchar(24);not null"     json:"status"`
	SubmitterNo   string                `gorm:"column:submitter_no;type:varchar(16);not null" json:"submitter_no"`
	CreatedAt     time.Time             `gorm:"column:created_at;not null"                  json:"created_at"`
	UpdatedAt     time.Time             `gorm:"column:updated_at;not null"                  json:"updated_at"`
}

// TableName 指定表名
func (CatalogProposal) TableName() string { return "catalog_proposals" }

// Curricular 课程目录正式记录 — 对应 curriculars，审批通过时 upsert（后写覆盖）
type Curricular struct {
	CourseNo      string        `gorm:"column:course_no;type:varchar(16);primaryKey" json:"course_no"`
	Name          string        `gorm:"column:name;type:varchar(128);not null"       json:"name"`
	Credit        float64       `gorm:"column:credit;type:numeric(4,1);not null"     json:"credit"`
	ClassHours    int           `gorm:"column:class_hours;not null"                  json:"class_hours"`
	ExamAttribute ExamAttribute `gorm:"column:exam_attribute;type:varchar(16);not null" json:"exam_attribute"`
	Description   string        `gorm:"column:description;type:text;not null"        json:"description"`
	Status        string        `gorm:"column:status;type:varchar(24);not null"      json:"status"`
	UpdatedAt     time.Time     `gorm:"column:updated_at;not null"                   json:"updated_at"`
}

// TableName 指定表名
func (Curricular) TableName() string { return "curriculars" }

// Prerequisite 权威先修边 — 对应 prerequisites
type Prerequisite struct {
	CourseNo       string `gorm:"column:course_no;type:varchar(16);primaryKey"        json:"course_no"`
	PrereqCourseNo string `gorm:"column:prereq_course_no;type:varchar(16);primaryKey" json:"prereq_course_no"`
}

// TableName 指定表名
func (Prerequisite) TableName() string { return "prerequisites" }

// StagedPrerequisite 暂存先修边 — 对应 prerequisites_staged，审批通过前不具权威性
type StagedPrerequisite struct {
	ProposalID     string `gorm:"column:proposal_id;type:uuid;primaryKey"             json:"proposal_id"`
	CourseNo       string `gorm:"column:course_no;type:varchar(16);not null"          json:"course_no"`
	PrereqCourseNo string `gorm:"column:prereq_course_no;type:varchar(16);primaryKey" json:"prereq_course_no"`
}

// TableName 指定表名
func (StagedPrerequisite) TableName() string { return "prerequisites_staged" }
