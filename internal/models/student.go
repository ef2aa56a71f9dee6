package models

// Student mirrors the institution's student directory. The fee subsystem
// only reads it; enrolment and profile changes happen elsewhere.
type Student struct {
	StudentNumber string `db:"student_number" json:"student_number"`
	FullName      string `db:"full_name" json:"full_name"`
	Program       string `db:"program" json:"program"`
	ClassName     string `db:"class_name" json:"class_name"`
	Active        bool   `db:"active" json:"active"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
