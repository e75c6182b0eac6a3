package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
)

// CatalogRepository 课程号池 / 课程目录提案 / 课程目录数据访问接口
type CatalogRepository interface {
	// ── 课程号池 ──

	// FindAvailablePoolEntryForUpdate 锁定并返回一个匹配的 available 槽位
	FindAvailablePoolEntryForUpdate(ctx context.Context, attr model.AttributeClass, departmentCode, semesterWindow string) (*model.CnoPoolEntry, error)
	CreatePoolEntry(ctx context.Context, entry *model.CnoPoolEntry) error
	GetPoolEntryForUpdate(ctx context.Context, courseNo string) (*model.CnoPoolEntry, error)
	UpdatePoolStatus(ctx context.Context, courseNo string, status model.PoolStatus) error

	// ── 提案 ──

	CreateProposal(ctx context.Context, p *model.CatalogProposal) error
	GetProposal(ctx context.Context, id string) (*model.CatalogProposal, error)
	GetProposalForUpdate(ctx context.Context, id string) (*model.CatalogProposal, error)
	UpdateProposalStatus(ctx context.Context, id string, status model.CatalogProposalStatus) error
	// ListProposalsByStatusForUpdate 锁定某状态的全部提案（开关级联用）
	ListProposalsByStatusForUpdate(ctx context.Context, status model.CatalogProposalStatus) ([]model.CatalogProposal, error)
	// LatestProposalByCourseForUpdate 某课程号下创建时间最新的提案（强制发布的唯一裁决依据）
	LatestProposalByCourseForUpdate(ctx context.Context, courseNo string) (*model.CatalogProposal, error)

	// ── 课程目录 ──

	UpsertCurricular(ctx context.Context, c *model.Curricular) error
	GetCurricular(ctx context.Context, courseNo string) (*model.Curricular, error)

	// ── 先修边 ──

	StagePrerequisites(ctx context.Context, edges []model.StagedPrerequisite) error
	DeleteStagedByProposal(ctx context.Context, proposalID string) error
	// PromoteStagedByProposal 将暂存边转正并清空暂存
	PromoteStagedByProposal(ctx context.Context, proposalID string) error
}

type catalogRepo struct {
	db *gorm.DB
}

// NewCatalogRepo 创建 CatalogRepository 实例
func NewCatalogRepo(db *gorm.DB) CatalogRepository {
	return &catalogRepo{db: db}
}

func (r *catalogRepo) FindAvailablePoolEntryForUpdate(ctx context.Context, attr model.AttributeClass, departmentCode, semesterWindow string) (*model.CnoPoolEntry, error) {
	var entry model.CnoPoolEntry
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("attribute_class = ? AND department_code = ? AND semester_window = ? AND status = ?",
			attr, departmentCode, semesterWindow, model.PoolAvailable).
		Order("seq_no ASC").
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *catalogRepo) CreatePoolEntry(ctx context.Context, entry *model.CnoPoolEntry) error {
	return r.db.WithContext(ctx).Create(entry).Error
}

func (r *catalogRepo) GetPoolEntryForUpdate(ctx context.Context, courseNo string) (*model.CnoPoolEntry, error) {
	var entry model.CnoPoolEntry
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("course_no = ?", courseNo).
		First(&entry).Error
	if err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *catalogRepo) UpdatePoolStatus(ctx context.Context, courseNo string, status model.PoolStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.CnoPoolEntry{}).
		Where("course_no = ?", courseNo).
		Update("status", status).Error
}

func (r *catalogRepo) CreateProposal(ctx context.Context, p *model.CatalogProposal) error {
	return r.db.WithContext(ctx).Create(p).Error
}

func (r *catalogRepo) GetProposal(ctx context.Context, id string) (*model.CatalogProposal, error) {
	var p model.CatalogProposal
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepo) GetProposalForUpdate(ctx context.Context, id string) (*model.CatalogProposal, error) {
	var p model.CatalogProposal
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("id = ?", id).
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepo) UpdateProposalStatus(ctx context.Context, id string, status model.CatalogProposalStatus) error {
	return r.db.WithContext(ctx).
		Model(&model.CatalogProposal{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()}).Error
}

func (r *catalogRepo) ListProposalsByStatusForUpdate(ctx context.Context, status model.CatalogProposalStatus) ([]model.CatalogProposal, error) {
	var ps []model.CatalogProposal
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("status = ?", status).
		Order("created_at ASC").
		Find(&ps).Error
	return ps, err
}

func (r *catalogRepo) LatestProposalByCourseForUpdate(ctx context.Context, courseNo string) (*model.CatalogProposal, error) {
	var p model.CatalogProposal
	err := r.db.WithContext(ctx).
		Set("gorm:query_option", "FOR UPDATE").
		Where("course_no = ?", courseNo).
		Order("created_at DESC").
		First(&p).Error
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *catalogRepo) UpsertCurricular(ctx context.Context, c *model.Curricular) error {
	return r.db.WithContext(ctx).Exec(`
		INSERT INTO curriculars (course_no, name, credit, class_hours, exam_attribute, description, status, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (course_no) DO UPDATE SET
			name = EXCLUDED.name,
			credit = EXCLUDED.credit,
			class_hours = EXCLUDED.class_hours,
			exam_attribute = EXCLUDED.exam_attribute,
			description = EXCLUDED.description,
			status = EXCLUDED.status,
			updated_at = EXCLUDED.updated_at`,
		c.CourseNo, c.Name, c.Credit, c.ClassHours, string(c.ExamAttribute), c.Description, c.Status, time.Now(),
	).Error
}

func (r *catalogRepo) GetCurricular(ctx context.Context, courseNo string) (*model.Curricular, error) {
	var c model.Curricular
	err := r.db.WithContext(ctx).
		Where("course_no = ?", courseNo).
		First(&c).Error
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *catalogRepo) StagePrerequisites(ctx context.Context, edges []model.StagedPrerequisite) error {
	if len(edges) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&edges).Error
}

func (r *catalogRepo) DeleteStagedByProposal(ctx context.Context, proposalID string) error {
	return r.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Delete(&model.StagedPrerequisite{}).Error
}

func (r *catalogRepo) PromoteStagedByProposal(ctx context.Context, proposalID string) error {
	if err := r.db.WithContext(ctx).Exec(`
		INSERT INTO prerequisites (course_no, prereq_course_no)
		SELECT course_no, prereq_course_no FROM prerequisites_staged
		WHERE proposal_id = ?
		ON CONFLICT DO NOTHING`,
		proposalID,
	).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).
		Where("proposal_id = ?", proposalID).
		Delete(&model.StagedPrerequisite{}).Error
}
