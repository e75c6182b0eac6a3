package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
)

// SemesterRepository 学期与业务开关数据访问接口
type SemesterRepository interface {
	GetByCode(ctx context.Context, code string) (*model.Semester, error)
	// GetCurrent 返回当前学期（is_current 标记）
	GetCurrent(ctx context.Context) (*model.Semester, error)
	// GetCurrentForUpdate 锁定当前学期行（开关更新事务的首个锁）
	GetCurrentForUpdate(ctx context.Context) (*model.Semester, error)
	// GetFlags 读取学期三个业务开关；缺失的开关行按关闭处理
	GetFlags(ctx context.Context, semesterCode string) (model.FlagSet, error)
	// GetFlagsForUpdate 锁定开关行后读取
	GetFlagsForUpdate(ctx context.Context, semesterCode string) (model.FlagSet, error)
	// UpsertFlag 写入单个开关
	UpsertFlag(ctx context.Context, semesterCode string, name model.FlagName, open bool) error
}

type semesterRepo struct {
	db *gorm.DB
}

// NewSemesterRepo 创建 SemesterRepository 实例
func NewSemesterRepo(db *gorm.DB) SemesterRepository {
	return &semesterRepo{db: db}
}

func (r *semesterRepo) GetByCode(ctx context.Context, code string) (*model.Semester, error) {
	var sem model.Semester
	err := r.db.WithContext(ctx).
		Where("code = ?", code).
		First(&sem).Error
	if err != nil {
		return nil, err
	}
	return &sem, nil
}

func (r *semesterRepo) GetCurrent(ctx context.Context) (*model.Semester, error) {
	var sem model.Semester
	err := r.db.WithContext(ctx).
		Where("is_current").
		First(&sem).Error
	if err != nil {
		return nil, err
	}
	return &sem, nil
}

func (r *semesterRepo) GetCurrentForUpdate(ctx context.Context) (*model.Semester, error) {
	var sem model.Semester
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("is_current").
		First(&sem).Error
	if err != nil {
		return nil, err
	}
	return &sem, nil
}

func (r *semesterRepo) GetFlags(ctx context.Context, semesterCode string) (model.FlagSet, error) {
	return r.readFlags(ctx, r.db, semesterCode)
}

func (r *semesterRepo) GetFlagsForUpdate(ctx context.Context, semesterCode string) (model.FlagSet, error) {
	return r.readFlags(ctx, r.db.Set("gorm:query_option", "FOR UPDATE"), semesterCode)
}

func (r *semesterRepo) readFlags(ctx context.Context, db *gorm.DB, semesterCode string) (model.FlagSet, error) {
	var rows []model.BusinessFlag
	err := db.WithContext(ctx).
		Where("semester_code = ?", semesterCode).
		Find(&rows).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return model.FlagSet{}, err
	}

	var fs model.FlagSet
	for _, f := range rows {
		switch f.Name {
		case model.FlagCatalog:
			fs.CatalogOpen = f.Open
		case model.FlagOffering:
			fs.OfferingOpen = f.Open
		case model.FlagEnroll:
			fs.EnrollOpen = f.Open
		}
	}
	return fs, nil
}

func (r *semesterRepo) UpsertFlag(ctx context.Context, semesterCode string, name model.FlagName, open bool) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO business_flags (semester_code, name, open, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (semester_code, name)
		DO UPDATE SET open = EXCLUDED.open, updated_at = EXCLUDED.updated_at`,
		semesterCode, string(name), open, time.Now(),
	).Error
}
