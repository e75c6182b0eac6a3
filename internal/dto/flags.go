package dto

// UpdateFlagsRequest 业务开关更新请求；三个开关整体提交
type UpdateFlagsRequest struct {
	Password     string `json:"password" binding:"required"`
	CatalogOpen  bool   `json:"catalog_open"`
	OfferingOpen bool   `json:"offering_open"`
	EnrollOpen   bool   `json:"enroll_open"`
}

// FlagsResponse 当前学期开关视图
type FlagsResponse struct {
	SemesterCode string `json:"semester_code"`
	SemesterName string `json:"semester_name"`
	CatalogOpen  bool   `json:"catalog_open"`
	OfferingOpen bool   `json:"offering_open"`
	EnrollOpen   bool   `json:"enroll_open"`
}
