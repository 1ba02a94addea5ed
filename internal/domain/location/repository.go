package location

import "context"

type OfficeLocationRepository interface {
	GetByID(ctx context.Context, id string) (OfficeLocation, error)
}
