package face

import "errors"

var (
	ErrDescriptorNotFound = errors.New("face descriptor not registered")
	ErrDimensionMismatch  = errors.New("face descriptors have different dimensions")
	ErrEmptyDescriptor    = errors.New("face descriptor is empty")
)
