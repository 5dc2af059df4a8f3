package courses

import "time"

// Course is a taught unit inside a school.
type Course struct {
	ID        string    `json:"id"`
	SchoolID  string    `json:"schoolId"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	TeacherID string    `json:"teacherId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// ContentEntry is a piece of course material published by a teacher.
type ContentEntry struct {
	ID        string    `json:"id"`
	CourseID  string    `json:"courseId"`
	SchoolID  string    `json:"schoolId"`
	AuthorID  string    `json:"authorId"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"createdAt"`
}
