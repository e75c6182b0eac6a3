package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
)

// ClassroomRepository 教室数据访问接口
type ClassroomRepository interface {
	GetByNo(ctx context.Context, roomNo string) (*model.Classroom, error)
	// GetByNoForUpdate 锁定教室容量行（考场安排事务内使用）
	GetByNoForUpdate(ctx context.Context, roomNo string) (*model.Classroom, error)
}

type classroomRepo struct {
	db *gorm.DB
}

// NewClassroomRepo 创建 ClassroomRepository 实例
func NewClassroomRepo(db *gorm.DB) ClassroomRepository {
	return &classroomRepo{db: db}
}

func (r *classroomRepo) GetByNo(ctx context.Context, roomNo string) (*model.Classroom, error) {
	var room model.Classroom
	err := r.db.WithContext(ctx).
		Where("room_no = ?", roomNo).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *classroomRepo) GetByNoForUpdate(ctx context.Context, roomNo string) (*model.Classroom, error) {
	var room model.Classroom
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("room_no = ?", roomNo).
		First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}
