package setting

// Keys of the system_settings table read by the attendance core.
const (
	KeyFaceRecognitionThreshold = "face_recognition_threshold"
	KeyGPSAccuracyRadius        = "gps_accuracy_radius"
)

// Bounds and fallbacks for the thresholds.
const (
	MinFaceThreshold     = 50
	MaxFaceThreshold     = 100
	DefaultFaceThreshold = 80

	MinGPSRadius     = 10
	MaxGPSRadius     = 10000
	DefaultGPSRadius = 100
)

// Thresholds are the verification settings administrators can edit.
type Thresholds struct {
	FaceThreshold int // percent
	GPSRadius     int // meters
}

// DefaultThresholds is used when a key is missing from storage.
func DefaultThresholds() Thresholds {
	return Thresholds{
		FaceThreshold: DefaultFaceThreshold,
		GPSRadius:     DefaultGPSRadius,
	}
}

// Normalize clamps both values into their allowed ranges.
func (t Thresholds) Normalize() Thresholds {
	t.FaceThreshold = clamp(t.FaceThreshold, MinFaceThreshold, MaxFaceThreshold)
	t.GPSRadius = clamp(t.GPSRadius, MinGPSRadius, MaxGPSRadius)
	return t
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
