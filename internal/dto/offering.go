package dto

// SubmitOfferingRequest 开课提案提交请求
type SubmitOfferingRequest struct {
	CourseNo     string   `json:"course_no" binding:"required"`
	Campus       string   `json:"campus" binding:"required"`
	MaxHeadcount int      `json:"max_headcount" binding:"required"`
	ProfessorNos []string `json:"professor_nos"` // 为空时默认只有提交者本人
	Weekdays     []int    `json:"weekdays" binding:"required"` // 1(周一)~7(周日)
}

// WeekPlan 单周排课计划：该 ISO 周用哪间教室的哪些节次
type WeekPlan struct {
	Year    int      `json:"year" binding:"required"`
	Week    int      `json:"week" binding:"required"`
	RoomNo  string   `json:"room_no" binding:"required"`
	Periods []string `json:"periods" binding:"required"`
}

// ArrangeCourseRequest 排课请求
type ArrangeCourseRequest struct {
	OfferingNo string     `json:"offering_no" binding:"required"`
	Weekday    int        `json:"weekday" binding:"required"` // 必须在提案声明的意向星期内
	WeekPlans  []WeekPlan `json:"week_plans" binding:"required"`
}
