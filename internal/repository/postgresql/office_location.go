package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/location"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type officeLocationRepository struct {
	db *database.DB
}

func NewOfficeLocationRepository(db *database.DB) location.OfficeLocationRepository {
	return &officeLocationRepository{db: db}
}

// GetByID implements location.OfficeLocationRepository.
func (r *officeLocationRepository) GetByID(ctx context.Context, id string) (location.OfficeLocation, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT id, name, latitude, longitude, radius_meters, is_active,
			   created_at, updated_at
		FROM office_locations
		WHERE id = $1
	`

	var l location.OfficeLocation
	err := q.QueryRow(ctx, query, id).Scan(
		&l.ID, &l.Name, &l.Latitude, &l.Longitude, &l.RadiusMeters, &l.IsActive,
		&l.CreatedAt, &l.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return location.OfficeLocation{}, location.ErrOfficeLocationNotFound
		}
		return location.OfficeLocation{}, fmt.Errorf("failed to get office location: %w", classify(err))
	}

	return l, nil
}
