package postgresql

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/setting"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/database"
)

type settingRepository struct {
	db     *database.DB
	logger *slog.Logger
}

func NewSettingRepository(db *database.DB, logger *slog.Logger) setting.SettingRepository {
	if logger == nil {
		logger = slog.Default()
	}
	return &settingRepository{db: db, logger: logger}
}

// GetThresholds implements setting.SettingRepository. Missing or malformed
// values fall back to the defaults.
func (r *settingRepository) GetThresholds(ctx context.Context) (setting.Thresholds, error) {
	q := GetQuerier(ctx, r.db)

	query := `
		SELECT key, value
		FROM system_settings
		WHERE key = ANY($1)
	`

	rows, err := q.Query(ctx, query, []string{setting.KeyFaceRecognitionThreshold, setting.KeyGPSAccuracyRadius})
	if err != nil {
		return setting.Thresholds{}, fmt.Errorf("failed to get system settings: %w", classify(err))
	}
	defer rows.Close()

	thresholds := setting.DefaultThresholds()
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return setting.Thresholds{}, fmt.Errorf("failed to scan system setting: %w", err)
		}

		n, err := strconv.Atoi(value)
		if err != nil {
			r.logger.Warn("Ignoring malformed system setting", slog.String("key", key), slog.String("value", value))
			continue
		}

		switch key {
		case setting.KeyFaceRecognitionThreshold:
			thresholds.FaceThreshold = n
		case setting.KeyGPSAccuracyRadius:
			thresholds.GPSRadius = n
		}
	}

	if err := rows.Err(); err != nil {
		return setting.Thresholds{}, fmt.Errorf("error iterating system settings: %w", classify(err))
	}

	return thresholds.Normalize(), nil
}
