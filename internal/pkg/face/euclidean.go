package face

import (
	"math"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/face"
)

// DefaultMaxDistance is the Euclidean distance at which two face-api style
// 128-d descriptors are considered completely different.
const DefaultMaxDistance = 1.0

// EuclideanComparator converts the Euclidean distance between descriptors
// into a similarity percentage: 0 distance is 100%, MaxDistance or more
// is 0%.
type EuclideanComparator struct {
	MaxDistance float64
}

func NewEuclideanComparator(maxDistance float64) *EuclideanComparator {
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}
	return &EuclideanComparator{MaxDistance: maxDistance}
}

// Compare implements face.Comparator.
func (c *EuclideanComparator) Compare(candidate, stored face.Descriptor) (float64, error) {
	if len(candidate) == 0 || len(stored) == 0 {
		return 0, face.ErrEmptyDescriptor
	}
	if len(candidate) != len(stored) {
		return 0, face.ErrDimensionMismatch
	}

	var sum float64
	for i := range candidate {
		d := candidate[i] - stored[i]
		sum += d * d
	}
	distance := math.Sqrt(sum)

	maxDistance := c.MaxDistance
	if maxDistance <= 0 {
		maxDistance = DefaultMaxDistance
	}

	similarity := (1 - distance/maxDistance) * 100
	similarity = math.Max(0, math.Min(100, similarity))

	// Two decimals is what gets stored and shown.
	return math.Round(similarity*100) / 100, nil
}
