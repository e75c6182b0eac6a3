package model

// 各实体状态均为封闭枚举，允许的迁移集中在本文件声明，
// 服务层通过 CanTransition 校验，不在调用点散落判断。

// ── 课程号池 ──

type PoolStatus string

const (
	PoolAvailable     PoolStatus = "available"      // 可复用
	PoolBeingAdjusted PoolStatus = "being_adjusted" // 已被某提案占用，审批中
	PoolUnavailable   PoolStatus = "unavailable"    // 已发布进课程目录
)

// ── 课程目录提案 ──

type CatalogProposalStatus string

const (
	CatalogPendingReview      CatalogProposalStatus = "pending_review"
	CatalogCancelled          CatalogProposalStatus = "cancelled"
	CatalogWaitingForOffering CatalogProposalStatus = "waiting_for_offering"
	CatalogApproved           CatalogProposalStatus = "approved"
	CatalogFailedToOpen       CatalogProposalStatus = "failed_to_open"
)

// ── 开课提案 ──

type OfferingProposalStatus string

const (
	OfferingPendingReview        OfferingProposalStatus = "pending_review"
	OfferingWaitingForEnrollment OfferingProposalStatus = "waiting_for_enrollment"
	OfferingApproved             OfferingProposalStatus = "approved"
	OfferingCancelled            OfferingProposalStatus = "cancelled"
	OfferingFailedToOpen         OfferingProposalStatus = "failed_to_open"
)

// ── 课程实例 ──

type CourseStatus string

const (
	CourseNotStarted CourseStatus = "not_started"
	CourseInProgress CourseStatus = "in_progress"
	CourseClosed     CourseStatus = "closed"
)

// ── 课时 ──

type SlotStatus string

const (
	SlotAwaitingClass SlotStatus = "awaiting_class"
	SlotInClass       SlotStatus = "in_class"
	SlotEnded         SlotStatus = "ended"
)

// ── 考试提案 / 考试 ──

type ExamProposalStatus string

const (
	ExamProposalPendingReview ExamProposalStatus = "pending_review"
	ExamProposalApproved      ExamProposalStatus = "approved"
)

type ExamStatus string

const (
	ExamNotStarted ExamStatus = "not_started"
	ExamInProgress ExamStatus = "in_progress"
	ExamEnded      ExamStatus = "ended"
)

// ── 监考 / 座位 ──

type DutyStatus string

const (
	DutyWaiting   DutyStatus = "waiting"
	DutyCompleted DutyStatus = "completed"
)

// ── 迁移表 ──

var catalogTransitions = map[CatalogProposalStatus][]CatalogProposalStatus{
	CatalogPendingReview:      {CatalogCancelled, CatalogWaitingForOffering, CatalogApproved},
	CatalogWaitingForOffering: {CatalogApproved, CatalogFailedToOpen},
}

var offeringTransitions = map[OfferingProposalStatus][]OfferingProposalStatus{
	OfferingPendingReview:        {OfferingWaitingForEnrollment, OfferingCancelled},
	OfferingWaitingForEnrollment: {OfferingApproved, OfferingFailedToOpen},
}

var courseTransitions = map[CourseStatus][]CourseStatus{
	CourseNotStarted: {CourseInProgress, CourseClosed},
	CourseInProgress: {CourseClosed},
}

var slotTransitions = map[SlotStatus][]SlotStatus{
	SlotAwaitingClass: {SlotInClass, SlotEnded},
	SlotInClass:       {SlotEnded},
}

var examTransitions = map[ExamStatus][]ExamStatus{
	ExamNotStarted: {ExamInProgress, ExamEnded},
	ExamInProgress: {ExamEnded},
}

// CanTransitionCatalog 课程提案状态迁移是否合法
func CanTransitionCatalog(from, to CatalogProposalStatus) bool {
	for _, t := range catalogTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// CanTransitionOffering 开课提案状态迁移是否合法
func CanTransitionOffering(from, to OfferingProposalStatus) bool {
	for _, t := range offeringTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// CanTransitionCourse 课程实例状态迁移是否合法
func CanTransitionCourse(from, to CourseStatus) bool {
	for _, t := range courseTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// CanTransitionSlot 课时状态迁移是否合法
func CanTransitionSlot(from, to SlotStatus) bool {
	for _, t := range slotTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}

// CanTransitionExam 考试状态迁移是否合法
func CanTransitionExam(from, to ExamStatus) bool {
	for _, t := range examTransitions[from] {
		if t == to {
			return true
		}
	}
	return false
}
