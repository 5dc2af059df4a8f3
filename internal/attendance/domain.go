package attendance

import "time"

// Status is the closed set of attendance states a record can carry.
type Status string

const (
	StatusPresent Status = "present"
	StatusAbsent  Status = "absent"
	StatusLate    Status = "late"
	StatusExcused Status = "excused"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPresent, StatusAbsent, StatusLate, StatusExcused:
		return true
	}
	return false
}

// Record is a single attendance entry for a student on a given day.
type Record struct {
	ID         string    `json:"id"`
	SchoolID   string    `json:"schoolId"`
	StudentID  string    `json:"studentId"`
	CourseID   string    `json:"courseId,omitempty"`
	RecordedBy string    `json:"recordedBy"`
	Date       time.Time `json:"date"`
	Status     Status    `json:"status"`
	Note       string    `json:"note,omitempty"`
	CreatedAt  time.Time `json:"createdAt"`
}

// ListFilter restricts attendance listings.
type ListFilter struct {
	AllSchools bool
	SchoolIDs  []string
	StudentID  string
	From       time.Time
	To         time.Time
}
