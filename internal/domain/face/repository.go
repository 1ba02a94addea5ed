package face

import "context"

// DescriptorRepository reads enrolled face descriptors.
type DescriptorRepository interface {
	// GetByEmployeeID returns ErrDescriptorNotFound when nothing is enrolled.
	GetByEmployeeID(ctx context.Context, employeeID string) (RegisteredFace, error)
}

// Comparator scores how similar two descriptors are, as a percentage in
// [0, 100]. Implementations are pure functions of their inputs.
type Comparator interface {
	Compare(candidate, stored Descriptor) (float64, error)
}
