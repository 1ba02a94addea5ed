package setting

import "context"

type SettingRepository interface {
	// GetThresholds returns normalized thresholds, filling missing keys
	// from DefaultThresholds.
	GetThresholds(ctx context.Context) (Thresholds, error)
}
