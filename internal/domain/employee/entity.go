package employee

import (
	"time"
)

// Employee is the slice of the directory record the attendance core reads.
type Employee struct {
	ID               string
	FullName         string
	EmploymentStatus EmploymentStatus
	OfficeLocationID *string
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        *time.Time
}

// IsActive reports whether the employee may record attendance.
func (e Employee) IsActive() bool {
	return e.DeletedAt == nil && e.EmploymentStatus == EmploymentStatusActive
}

type EmploymentStatus string

const (
	EmploymentStatusActive     EmploymentStatus = "active"
	EmploymentStatusResigned   EmploymentStatus = "resigned"
	EmploymentStatusTerminated EmploymentStatus = "terminated"
)
