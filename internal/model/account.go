package model

import "time"

// Role 账号角色
type Role string

const (
	RoleProfessor       Role = "professor"
	RoleStudent         Role = "student"
	RoleDepartmentAdmin Role = "department_admin"
)

// Account 账号表 — 对应 accounts
// 账号增删改由外部协作方负责，本引擎只读角色/凭据，并维护 online 状态
type Account struct {
	UserNo         string     `gorm:"column:user_no;type:varchar(16);primaryKey"      json:"user_no"`
	Role           Role       `gorm:"column:role;type:varchar(20);not null"           json:"role"`
	Name           string     `gorm:"column:name;type:varchar(64);not null"           json:"name"`
	DepartmentCode string     `gorm:"column:department_code;type:varchar(8);not null" json:"department_code"`
	PasswordHash   string     `gorm:"column:password_hash;type:varchar(128);not null" json:"-"`
	Online         bool       `gorm:"column:online;not null;default:false"            json:"online"`
	LastActiveAt   *time.Time `gorm:"column:last_active_at"                           json:"last_active_at,omitempty"`
	CreatedAt      time.Time  `gorm:"column:created_at;not null"                      json:"created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at;not null"                      json:"updated_at"`
}

// TableName 指定表名
func (Account) TableName() string { return "accounts" }

// Department 院系表 — 对应 departments
type Department struct {
	Code string `gorm:"column:code;type:varchar(8);primaryKey" json:"code"`
	Name string `gorm:"column:name;type:varchar(64);not null"  json:"name"`
}

// TableName 指定表名
func (Department) TableName() string { return "departments" }

// ── 教室 ──

// ClassroomStatus 教室状态
type ClassroomStatus string

const (
	ClassroomNormal   ClassroomStatus = "normal"
	ClassroomDisabled ClassroomStatus = "disabled"
)

// Classroom 教室表 — 对应 classrooms
type Classroom struct {
	RoomNo   string          `gorm:"column:room_no;type:varchar(16);primaryKey" json:"room_no"`
	Capacity int             `gorm:"column:capacity;not null"                   json:"capacity"`
	Status   ClassroomStatus `gorm:"column:status;type:varchar(16);not null"    json:"status"`
}

// TableName 指定表名
func (Classroom) TableName() string { return "classrooms" }
