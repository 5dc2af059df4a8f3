package marks

import "time"

// Mark is a graded result for a student in a course.
type Mark struct {
	ID         string    `json:"id"`
	SchoolID   string    `json:"schoolId"`
	StudentID  string    `json:"studentId"`
	CourseID   string    `json:"courseId"`
	RecordedBy string    `json:"recordedBy"`
	Term       string    `json:"term"`
	Score      float64   `json:"score"`
	MaxScore   float64   `json:"maxScore"`
	Comment    string    `json:"comment,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// ListFilter restricts mark listings.
type ListFilter struct {
	AllSchools bool
	SchoolIDs  []string
	StudentID  string
	CourseID   string
	Term       string
}
