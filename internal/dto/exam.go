package dto

import "time"

// SubmitExamProposalRequest 考试提案提交请求
type SubmitExamProposalRequest struct {
	CourseNo  string    `json:"course_no" binding:"required"`
	Attribute string    `json:"attribute" binding:"required"` // regular / makeup / other
	BeginTime time.Time `json:"begin_time" binding:"required"`
	EndTime   time.Time `json:"end_time" binding:"required"`
}

// ArrangeExamRoomsRequest 考场安排请求
type ArrangeExamRoomsRequest struct {
	ProposalID string   `json:"proposal_id" binding:"required"`
	RoomNos    []string `json:"room_nos" binding:"required"`
}

// AssignInvigilatorsRequest 监考分配请求；名单整体替换
type AssignInvigilatorsRequest struct {
	ExamNo       string   `json:"exam_no" binding:"required"`
	ProfessorNos []string `json:"professor_nos" binding:"required"`
}
