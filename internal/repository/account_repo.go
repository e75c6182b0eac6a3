package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
)

// AccountRepository 账号数据访问接口
// 账号增删改由外部协作方负责，这里只提供引擎需要的读取与在线状态维护
type AccountRepository interface {
	GetByNo(ctx context.Context, userNo string) (*model.Account, error)
	// ListProfessorsByDepartment 某院系全部教师（监考名单过滤用）
	ListProfessorsByDepartment(ctx context.Context, departmentCode string) ([]model.Account, error)
	// ListOnlineIdleBefore 最后活跃早于 cutoff 的在线账号
	ListOnlineIdleBefore(ctx context.Context, cutoff time.Time) ([]model.Account, error)
	// MarkOffline 将指定账号标记离线
	MarkOffline(ctx context.Context, userNos []string) error
	// MarkAllOffline 进程退出前兜底：全部在线账号标记离线
	MarkAllOffline(ctx context.Context) (int64, error)
}

type accountRepo struct {
	db *gorm.DB
}

// NewAccountRepo 创建 AccountRepository 实例
func NewAccountRepo(db *gorm.DB) AccountRepository {
	return &accountRepo{db: db}
}

func (r *accountRepo) GetByNo(ctx context.Context, userNo string) (*model.Account, error) {
	var acc model.Account
	err := r.db.WithContext(ctx).
		Where("user_no = ?", userNo).
		First(&acc).Error
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (r *accountRepo) ListProfessorsByDepartment(ctx context.Context, departmentCode string) ([]model.Account, error) {
	var accs []model.Account
	err := r.db.WithContext(ctx).
		Where("role = ? AND department_code = ?", model.RoleProfessor, departmentCode).
		Order("user_no ASC").
		Find(&accs).Error
	return accs, err
}

func (r *accountRepo) ListOnlineIdleBefore(ctx context.Context, cutoff time.Time) ([]model.Account, error) {
	var accs []model.Account
	err := r.db.WithContext(ctx).
		Where("online AND (last_active_at IS NULL OR last_active_at < ?)", cutoff).
		Find(&accs).Error
	return accs, err
}

func (r *accountRepo) MarkOffline(ctx context.Context, userNos []string) error {
	if len(userNos) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("user_no IN ?", userNos).
		Updates(map[string]interface{}{"online": false, "updated_at": time.Now()}).Error
}

func (r *accountRepo) MarkAllOffline(ctx context.Context) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&model.Account{}).
		Where("online").
		Updates(map[string]interface{}{"online": false, "updated_at": time.Now()})
	return result.RowsAffected, result.Error
}
