package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/dto"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/model"
	"github.com/GCLiuShang/AcademyDBMS-sub001/internal/repository"
	"github.com/GCLiuShang/AcademyDBMS-sub001/pkg/apperrors"
)

// ── 课程目录模块业务错误 ──

var (
	ErrCatalogClosed          = apperrors.StateTransition("课程提案通道当前未开放")
	ErrAttributeNotAllowed    = apperrors.Validation("该角色不允许提交此属性类别的课程")
	ErrProposalNotFound       = apperrors.NotFound("课程提案不存在")
	ErrProposalNotPending     = apperrors.StateTransition("课程提案不在待审状态")
	ErrNotSubmitter           = apperrors.Validation("只有提交者本人可以撤销提案")
	ErrPrereqNotFound         = apperrors.NotFound("先修课程不在课程目录中")
	ErrNoPublishableProposal  = apperrors.NotFound("该课程号没有可发布的课程提案")
)

// professorAttrs / adminAttrs 角色允许提交的属性类别
var professorAttrs = map[model.AttributeClass]bool{
	model.AttrGeneralElective: true,
	model.AttrPersonalized:    true,
}

var adminAttrs = map[model.AttributeClass]bool{
	model.AttrRequiredCore:  true,
	model.AttrRequiredMajor: true,
}

// CatalogService 课程目录提案流水线接口
type CatalogService interface {
	Submit(ctx context.Context, submitterNo string, req *dto.SubmitCatalogProposalRequest) (*dto.CatalogProposalResponse, error)
	Cancel(ctx context.Context, proposalID, callerNo string) error
	Approve(ctx context.Context, proposalID string) error
}

type catalogService struct {
	repo   *repository.Repository
	logger *zap.Logger
}

// NewCatalogService 创建 CatalogService 实例
func NewCatalogService(repo *repository.Repository, logger *zap.Logger) CatalogService {
	return &catalogService{repo: repo, logger: logger}
}

// ────────────────────── Submit ──────────────────────

func (s *catalogService) Submit(ctx context.Context, submitterNo string, req *dto.SubmitCatalogProposalRequest) (*dto.CatalogProposalResponse, error) {
	attr := model.AttributeClass(req.AttributeClass)
	examAttr := model.ExamAttribute(req.ExamAttribute)
	if req.ClassHours <= 0 || req.Credit <= 0 {
		return nil, apperrors.Validation("学分与课时必须为正数")
	}

	submitter, err := s.repo.Account.GetByNo(ctx, submitterNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		s.logger.Error("查询账号失败", zap.String("user_no", submitterNo), zap.Error(err))
		return nil, err
	}

	var variant model.ProposalVariant
	switch submitter.Role {
	case model.RoleProfessor:
		if !professorAttrs[attr] {
			return nil, ErrAttributeNotAllowed
		}
		variant = model.VariantProfessor
	case model.RoleDepartmentAdmin:
		if !adminAttrs[attr] {
			return nil, ErrAttributeNotAllowed
		}
		variant = model.VariantDepartment
	default:
		return nil, ErrAttributeNotAllowed
	}

	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return nil, err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	proposal, err := s.submitInTx(ctx, txRepo, submitter, variant, attr, examAttr, req)
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return nil, err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return nil, err
		}
	}

	return toCatalogProposalResponse(proposal), nil
}

func (s *catalogService) submitInTx(ctx context.Context, r *repository.Repository, submitter *model.Account,
	variant model.ProposalVariant, attr model.AttributeClass, examAttr model.ExamAttribute,
	req *dto.SubmitCatalogProposalRequest) (*model.CatalogProposal, error) {

	sem, err := r.Semester.GetCurrentForUpdate(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNoCurrentTerm
		}
		s.logger.Error("锁定当前学期失败", zap.Error(err))
		return nil, err
	}
	flags, err := r.Semester.GetFlagsForUpdate(ctx, sem.Code)
	if err != nil {
		s.logger.Error("锁定业务开关失败", zap.Error(err))
		return nil, err
	}
	if !flags.CatalogOpen {
		return nil, ErrCatalogClosed
	}

	// 号池：先复用匹配的 available 槽位，没有再铸一个新号
	courseNo, err := s.claimCourseNo(ctx, r, attr, submitter.DepartmentCode, sem.WindowCode)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	proposal := &model.CatalogProposal{
		ID:            uuid.New().String(),
		Variant:       variant,
		CourseNo:      courseNo,
		Name:          req.Name,
		Credit:        req.Credit,
		ClassHours:    req.ClassHours,
		ExamAttribute: examAttr,
		Description:   req.Description,
		Status:        model.CatalogPendingReview,
		SubmitterNo:   submitter.UserNo,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := r.Catalog.CreateProposal(ctx, proposal); err != nil {
		s.logger.Error("创建课程提案失败", zap.Error(err))
		return nil, err
	}

	// 先修边只暂存，审批通过才具权威性
	if len(req.Prerequisites) > 0 {
		edges := make([]model.StagedPrerequisite, 0, len(req.Prerequisites))
		for _, prereq := range req.Prerequisites {
			if _, err := r.Catalog.GetCurricular(ctx, prereq); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return nil, ErrPrereqNotFound
				}
				s.logger.Error("查询先修课程失败", zap.String("course_no", prereq), zap.Error(err))
				return nil, err
			}
			edges = append(edges, model.StagedPrerequisite{
				ProposalID:     proposal.ID,
				CourseNo:       courseNo,
				PrereqCourseNo: prereq,
			})
		}
		if err := r.Catalog.StagePrerequisites(ctx, edges); err != nil {
			s.logger.Error("暂存先修边失败", zap.Error(err))
			return nil, err
		}
	}

	return proposal, nil
}

// claimCourseNo 占用一个课程号：复用或新铸，占用后槽位进入 being_adjusted
func (s *catalogService) claimCourseNo(ctx context.Context, r *repository.Repository,
	attr model.AttributeClass, departmentCode, window string) (string, error) {

	entry, err := r.Catalog.FindAvailablePoolEntryForUpdate(ctx, attr, departmentCode, window)
	if err == nil {
		if err := r.Catalog.UpdatePoolStatus(ctx, entry.CourseNo, model.PoolBeingAdjusted); err != nil {
			s.logger.Error("占用课程号槽位失败", zap.String("course_no", entry.CourseNo), zap.Error(err))
			return "", err
		}
		return entry.CourseNo, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查找可复用课程号失败", zap.Error(err))
		return "", err
	}

	seq, err := r.Sequence.NextCnoSeq(ctx, string(attr), departmentCode, window)
	if err != nil {
		s.logger.Error("分配课程号序号失败", zap.Error(err))
		return "", err
	}
	courseNo, err := model.ComposeCourseNo(attr, departmentCode, window, seq)
	if err != nil {
		return "", err
	}
	if err := r.Catalog.CreatePoolEntry(ctx, &model.CnoPoolEntry{
		CourseNo:       courseNo,
		AttributeClass: attr,
		DepartmentCode: departmentCode,
		SemesterWindow: window,
		SeqNo:          seq,
		Status:         model.PoolBeingAdjusted,
	}); err != nil {
		s.logger.Error("写入课程号池失败", zap.String("course_no", courseNo), zap.Error(err))
		return "", err
	}
	return courseNo, nil
}

// ────────────────────── Cancel ──────────────────────

func (s *catalogService) Cancel(ctx context.Context, proposalID, callerNo string) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	err = func() error {
		proposal, err := txRepo.Catalog.GetProposalForUpdate(ctx, proposalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProposalNotFound
			}
			s.logger.Error("锁定课程提案失败", zap.String("id", proposalID), zap.Error(err))
			return err
		}
		if proposal.SubmitterNo != callerNo {
			return ErrNotSubmitter
		}
		if proposal.Status != model.CatalogPendingReview {
			return ErrProposalNotPending
		}

		if err := txRepo.Catalog.UpdateProposalStatus(ctx, proposalID, model.CatalogCancelled); err != nil {
			s.logger.Error("撤销课程提案失败", zap.String("id", proposalID), zap.Error(err))
			return err
		}
		if err := txRepo.Catalog.UpdatePoolStatus(ctx, proposal.CourseNo, model.PoolAvailable); err != nil {
			s.logger.Error("归还课程号槽位失败", zap.String("course_no", proposal.CourseNo), zap.Error(err))
			return err
		}
		if err := txRepo.Catalog.DeleteStagedByProposal(ctx, proposalID); err != nil {
			s.logger.Error("丢弃暂存先修边失败", zap.String("id", proposalID), zap.Error(err))
			return err
		}
		return nil
	}()
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// ────────────────────── Approve ──────────────────────

func (s *catalogService) Approve(ctx context.Context, proposalID string) error {
	tx, err := s.repo.BeginTx(ctx)
	if err != nil {
		s.logger.Error("开启事务失败", zap.Error(err))
		return err
	}
	defer func() {
		if r := recover(); r != nil {
			if tx != nil {
				tx.Rollback()
			}
			panic(r)
		}
	}()

	txRepo := s.repo.WithTx(tx)

	err = func() error {
		proposal, err := txRepo.Catalog.GetProposalForUpdate(ctx, proposalID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProposalNotFound
			}
			s.logger.Error("锁定课程提案失败", zap.String("id", proposalID), zap.Error(err))
			return err
		}
		if proposal.Status != model.CatalogPendingReview {
			return ErrProposalNotPending
		}

		// 系管理员提案直达 approved；教师提案还要等至少一门开课成功
		next := model.CatalogWaitingForOffering
		if proposal.Variant == model.VariantDepartment {
			next = model.CatalogApproved
		}
		return publishProposal(ctx, txRepo, s.logger, proposal, next)
	}()
	if err != nil {
		if tx != nil {
			tx.Rollback()
		}
		return err
	}

	if tx != nil {
		if err := tx.Commit().Error; err != nil {
			s.logger.Error("提交事务失败", zap.Error(err))
			return err
		}
	}
	return nil
}

// publishProposal 提案发布的公共路径：目录 upsert（后写覆盖）、
// 暂存先修边转正、槽位置 unavailable、提案状态落位。
// 审批与强制发布共用。
func publishProposal(ctx context.Context, r *repository.Repository, logger *zap.Logger,
	proposal *model.CatalogProposal, next model.CatalogProposalStatus) error {

	if err := r.Catalog.UpsertCurricular(ctx, &model.Curricular{
		CourseNo:      proposal.CourseNo,
		Name:          proposal.Name,
		Credit:        proposal.Credit,
		ClassHours:    proposal.ClassHours,
		ExamAttribute: proposal.ExamAttribute,
		Description:   proposal.Description,
		Status:        "published",
		UpdatedAt:     time.Now(),
	}); err != nil {
		logger.Error("发布课程目录失败", zap.String("course_no", proposal.CourseNo), zap.Error(err))
		return err
	}
	if err := r.Catalog.PromoteStagedByProposal(ctx, proposal.ID); err != nil {
		logger.Error("先修边转正失败", zap.String("id", proposal.ID), zap.Error(err))
		return err
	}
	if err := r.Catalog.UpdatePoolStatus(ctx, proposal.CourseNo, model.PoolUnavailable); err != nil {
		logger.Error("更新课程号槽位失败", zap.String("course_no", proposal.CourseNo), zap.Error(err))
		return err
	}
	if err := r.Catalog.UpdateProposalStatus(ctx, proposal.ID, next); err != nil {
		logger.Error("更新课程提案状态失败", zap.String("id", proposal.ID), zap.Error(err))
		return err
	}
	return nil
}

// forcePublishCatalog 强制发布：开课提案引用了尚未发布的课程号时，
// 自动发布该课程号下创建时间最新的提案。没有可发布的提案是硬错误，
// 不允许静默吞掉。
func forcePublishCatalog(ctx context.Context, r *repository.Repository, logger *zap.Logger, courseNo string) error {
	proposal, err := r.Catalog.LatestProposalByCourseForUpdate(ctx, courseNo)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNoPublishableProposal
		}
		logger.Error("查找最新课程提案失败", zap.String("course_no", courseNo), zap.Error(err))
		return err
	}
	switch proposal.Status {
	case model.CatalogPendingReview, model.CatalogWaitingForOffering:
		return publishProposal(ctx, r, logger, proposal, model.CatalogApproved)
	default:
		return ErrNoPublishableProposal
	}
}

// ── 内部辅助方法 ──

func toCatalogProposalResponse(p *model.CatalogProposal) *dto.CatalogProposalResponse {
	return &dto.CatalogProposalResponse{
		ID:            p.ID,
		CourseNo:      p.CourseNo,
		Variant:       string(p.Variant),
		Name:          p.Name,
		Credit:        p.Credit,
		ClassHours:    p.ClassHours,
		ExamAttribute: string(p.ExamAttribute),
		Status:        string(p.Status),
		SubmitterNo:   p.SubmitterNo,
	}
}
