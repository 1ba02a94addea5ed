package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/face"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
	"github.com/jackc/pgx/v5"
)

type faceDescriptorRepository struct {
	db *database.DB
}

func NewFaceDescriptorRepository(db *database.DB) face.DescriptorRepository {
	return &faceDescriptorRepository{db: db}
}

// GetByEmployeeID implements face.DescriptorRepository.
func (r *faceDescriptorRepository) GetByEmployeeID(ctx context.Context, employeeID string) (face.RegisteredFace, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT employee_id, descriptor, created_at, updated_at
		FROM face_descriptors
		WHERE employee_id = $1
	`

	var (
		f          face.RegisteredFace
		descriptor []float64
	)
	err := q.QueryRow(ctx, query, employeeID).Scan(&f.EmployeeID, &descriptor, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return face.RegisteredFace{}, face.ErrDescriptorNotFound
		}
		return face.RegisteredFace{}, fmt.Errorf("failed to get face descriptor: %w", classify(err))
	}
	f.Descriptor = descriptor

	return f, nil
}
