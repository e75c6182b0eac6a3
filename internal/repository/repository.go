package repository

import (
	"context"

	"gorm.io/gorm"
)

// Repository 所有 Repository 的聚合入口
//
// 跨实体写事务的约定：服务层用 BeginTx 开启事务，WithTx 把事务
// 连接注入一份新的聚合，锁定读（ForUpdate 系列）必须经由该事务
// 聚合调用，提交/回滚由服务层统一控制。db 为空（测试里用 mock
// 字段直接构造聚合）时 BeginTx 返回 nil 事务，WithTx 原样返回。
type Repository struct {
	db *gorm.DB

	Sequence     SequenceRepository
	Semester     SemesterRepository
	Account      AccountRepository
	Classroom    ClassroomRepository
	Catalog      CatalogRepository
	Offering     OfferingRepository
	ScheduleSlot ScheduleSlotRepository
	Enrollment   EnrollmentRepository
	Exam         ExamRepository
	Message      MessageRepository
}

// NewRepository 创建 Repository 聚合
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{
		db:           db,
		Sequence:     NewSequenceRepo(db),
		Semester:     NewSemesterRepo(db),
		Account:      NewAccountRepo(db),
		Classroom:    NewClassroomRepo(db),
		Catalog:      NewCatalogRepo(db),
		Offering:     NewOfferingRepo(db),
		ScheduleSlot: NewScheduleSlotRepo(db),
		Enrollment:   NewEnrollmentRepo(db),
		Exam:         NewExamRepo(db),
		Message:      NewMessageRepo(db),
	}
}

// BeginTx 开启写事务
func (r *Repository) BeginTx(ctx context.Context) (*gorm.DB, error) {
	if r.db == nil {
		return nil, nil
	}
	tx := r.db.WithContext(ctx).Begin()
	return tx, tx.Error
}

// WithTx 返回绑定到事务连接的聚合副本
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	if tx == nil {
		return r
	}
	return NewRepository(tx)
}

// Ping 探活（就绪检查用）
func (r *Repository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
