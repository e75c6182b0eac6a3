package dto

// SubmitCatalogProposalRequest 课程目录提案提交请求
type SubmitCatalogProposalRequest struct {
	AttributeClass string   `json:"attribute_class" binding:"required"`
	Name           string   `json:"name" binding:"required"`
	Credit         float64  `json:"credit" binding:"required"`
	ClassHours     int      `json:"class_hours" binding:"required"`
	ExamAttribute  string   `json:"exam_attribute" binding:"required"`
	Description    string   `json:"description"`
	Prerequisites  []string `json:"prerequisites"` // 先修课程号，审批通过前仅暂存
}

// CatalogProposalResponse 课程目录提案视图
type CatalogProposalResponse struct {
	ID            string  `json:"id"`
	CourseNo      string  `json:"course_no"`
	Variant       string  `json:"variant"`
	Name          string  `json:"name"`
	Credit        float64 `json:"credit"`
	ClassHours    int     `json:"class_hours"`
	ExamAttribute string  `json:"exam_attribute"`
	Status        string  `json:"status"`
	SubmitterNo   string  `json:"submitter_no"`
}
