package face

import "time"

// Descriptor is a face embedding produced by the recognition capability
// (typically 128 floats). Extraction happens outside this service.
type Descriptor []float64

// RegisteredFace is the reference descriptor enrolled for an employee.
type RegisteredFace struct {
	EmployeeID string
	Descriptor Descriptor
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
