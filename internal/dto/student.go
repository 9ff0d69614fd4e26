package dto

// CreateStudentRequest 登记学生
type CreateStudentRequest struct {
	Name string `json:"name" binding:"required"`
}

// StudentResponse 学生信息
type StudentResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	CreatedAt string `json:"createdAt"`
}
