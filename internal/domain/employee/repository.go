package employee

import "context"

type EmployeeRepository interface {
	// GetByID returns ErrEmployeeNotFound for unknown ids.
	GetByID(ctx context.Context, id string) (Employee, error)
}
