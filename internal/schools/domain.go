package schools

import "time"

// School is a tenant: the unit of data isolation for every role except
// super-admin.
type School struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Overview aggregates headline counts for one school.
type Overview struct {
	Students int `json:"students"`
	Teachers int `json:"teachers"`
	Courses  int `json:"courses"`
}
