package model

import "time"

// Semester 学期表 — 对应 semesters
// Code 形如 20251（2025学年第1学期），WindowCode 为课程号里的学期窗口两位码
type Semester struct {
	Code       string    `gorm:"column:code;type:varchar(8);primaryKey"    json:"code"`
	Name       string    `gorm:"column:name;type:varchar(64);not null"     json:"name"`
	StartDate  time.Time `gorm:"column:start_date;type:date;not null"      json:"start_date"`
	EndDate    time.Time `gorm:"column:end_date;type:date;not null"        json:"end_date"`
	WindowCode string    `gorm:"column:window_code;type:varchar(2);not null" json:"window_code"`
	IsCurrent  bool      `gorm:"column:is_current;not null;default:false"  json:"is_current"`
	CreatedAt  time.Time `gorm:"column:created_at;not null"                json:"created_at"`
	UpdatedAt  time.Time `gorm:"column:updated_at;not null"                json:"updated_at"`
}

// TableName 指定表名
func (Semester) TableName() string { return "semesters" }

// ── 业务开关 ──

// FlagName 业务开关名
type FlagName string

const (
	FlagCatalog  FlagName = "catalog"  // 课程目录提案开放
	FlagOffering FlagName = "offering" // 开课提案开放
	FlagEnroll   FlagName = "enroll"   // 选课开放
)

// BusinessFlag 业务开关表 — 对应 business_flags，每学期三行
type BusinessFlag struct {
	SemesterCode string    `gorm:"column:semester_code;type:varchar(8);primaryKey" json:"semester_code"`
	Name         FlagName  `gorm:"column:name;type:varchar(16);primaryKey"         json:"name"`
	Open         bool      `gorm:"column:open;not null;default:false"              json:"open"`
	UpdatedAt    time.Time `gorm:"column:updated_at;not null"                      json:"updated_at"`
}

// TableName 指定表名
func (BusinessFlag) TableName() string { return "business_flags" }

// FlagSet 一个学期三个开关的内存视图
type FlagSet struct {
	CatalogOpen  bool `json:"catalog_open"`
	OfferingOpen bool `json:"offering_open"`
	EnrollOpen   bool `json:"enroll_open"`
}

// Get 按开关名取值
func (f FlagSet) Get(name FlagName) bool {
	switch name {
	case FlagCatalog:
		return f.CatalogOpen
	case FlagOffering:
		return f.OfferingOpen
	case FlagEnroll:
		return f.EnrollOpen
	}
	return false
}
