package attendance

import (
	"io"
	"log/slog"
	"time"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/face"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/utils"
)

// Office at Monas, Jakarta.
const (
	officeID  = "office-monas"
	officeLat = -6.175392
	officeLng = 106.827153
)

var jakarta = mustLoad("Asia/Jakarta")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// pointNorthOf returns a location the given number of meters due north of
// the office.
func pointNorthOf(meters float64) *attendance.Location {
	return &attendance.Location{
		Latitude:  officeLat + utils.MetersToLatitudeDegrees(meters),
		Longitude: officeLng,
	}
}

func ptr[T any](v T) *T {
	return &v
}

// fixedComparator scores every comparison the same.
type fixedComparator struct {
	score float64
}

func (c fixedComparator) Compare(candidate, stored face.Descriptor) (float64, error) {
	if len(candidate) != len(stored) {
		return 0, face.ErrDimensionMismatch
	}
	return c.score, nil
}

func descriptor(n int, v float64) face.Descriptor {
	d := make(face.Descriptor, n)
	for i := range d {
		d[i] = v
	}
	return d
}
