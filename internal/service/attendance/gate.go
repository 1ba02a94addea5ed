package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/cmlabs-hris/presence-backend-go/internal/domain/attendance"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/employee"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/face"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/location"
	"github.com/cmlabs-hris/presence-backend-go/internal/domain/setting"
	"github.com/cmlabs-hris/presence-backend-go/internal/pkg/utils"
)

// GateResult is the outcome of identity and location verification. A
// failed check is reported through FaceOK / LocationOK, never as an error.
type GateResult struct {
	FaceScore     *float64
	FaceOK        bool
	FaceThreshold int

	DistanceMeters  *float64
	LocationOK      bool
	LocationChecked bool    // false when the employee has no active geofence
	RadiusMeters    float64 // effective ceiling that was applied

	// Reasons explain every failed check.
	Reasons []string
}

// VerificationGate compares a candidate face and position with the
// employee's enrolled descriptor and assigned office.
type VerificationGate struct {
	settings    setting.SettingRepository
	locations   location.OfficeLocationRepository
	faces       face.DescriptorRepository
	comparator  face.Comparator
	requireFace bool
	logger      *slog.Logger
}

func NewVerificationGate(
	settingRepo setting.SettingRepository,
	locationRepo location.OfficeLocationRepository,
	faceRepo face.DescriptorRepository,
	comparator face.Comparator,
	requireFace bool,
	logger *slog.Logger,
) *VerificationGate {
	if logger == nil {
		logger = slog.Default()
	}
	return &VerificationGate{
		settings:    settingRepo,
		locations:   locationRepo,
		faces:       faceRepo,
		comparator:  comparator,
		requireFace: requireFace,
		logger:      logger,
	}
}

// Evaluate runs both the face and the location checks for a check-in.
func (g *VerificationGate) Evaluate(ctx context.Context, emp employee.Employee, candidate face.Descriptor, point *attendance.Location) (GateResult, error) {
	thresholds, err := g.settings.GetThresholds(ctx)
	if err != nil {
		return GateResult{}, fmt.Errorf("failed to get verification thresholds: %w", err)
	}

	result := GateResult{FaceThreshold: thresholds.FaceThreshold}

	if err := g.evaluateFace(ctx, &result, emp.ID, candidate); err != nil {
		return GateResult{}, err
	}

	if err := g.evaluateLocation(ctx, &result, emp.OfficeLocationID, point, thresholds); err != nil {
		return GateResult{}, err
	}

	return result, nil
}

// EvaluateLocation runs only the geofence check, as used on check-out.
func (g *VerificationGate) EvaluateLocation(ctx context.Context, officeLocationID *string, point *attendance.Location) (GateResult, error) {
	thresholds, err := g.settings.GetThresholds(ctx)
	if err != nil {
		return GateResult{}, fmt.Errorf("failed to get verification thresholds: %w", err)
	}

	result := GateResult{FaceOK: true, FaceThreshold: thresholds.FaceThreshold}
	if err := g.evaluateLocation(ctx, &result, officeLocationID, point, thresholds); err != nil {
		return GateResult{}, err
	}

	return result, nil
}

func (g *VerificationGate) evaluateFace(ctx context.Context, result *GateResult, employeeID string, candidate face.Descriptor) error {
	// Without a score the outcome depends only on whether face
	// verification is mandatory.
	noScore := func(reason string) {
		result.FaceOK = !g.requireFace
		if g.requireFace {
			result.Reasons = append(result.Reasons, reason)
		}
	}

	if len(candidate) == 0 {
		noScore(attendance.ReasonFaceMissing)
		return nil
	}

	registered, err := g.faces.GetByEmployeeID(ctx, employeeID)
	if err != nil {
		if errors.Is(err, face.ErrDescriptorNotFound) {
			g.logger.Info("No face descriptor registered", slog.String("employee_id", employeeID))
			noScore(attendance.ReasonFaceNotRegistered)
			return nil
		}
		return fmt.Errorf("failed to get registered face descriptor: %w", err)
	}

	score, err := g.comparator.Compare(candidate, registered.Descriptor)
	if err != nil {
		if errors.Is(err, face.ErrDimensionMismatch) || errors.Is(err, face.ErrEmptyDescriptor) {
			g.logger.Info("Face descriptor cannot be compared",
				slog.String("employee_id", employeeID),
				slog.Int("candidate_length", len(candidate)),
				slog.Int("registered_length", len(registered.Descriptor)),
			)
			noScore(attendance.ReasonFaceDescriptorMismatch)
			return nil
		}
		return fmt.Errorf("failed to compare face descriptors: %w", err)
	}

	score = math.Max(0, math.Min(100, score))
	result.FaceScore = &score
	result.FaceOK = score >= float64(result.FaceThreshold)
	if !result.FaceOK {
		result.Reasons = append(result.Reasons, attendance.ReasonFaceBelowThreshold)
	}

	return nil
}

func (g *VerificationGate) evaluateLocation(ctx context.Context, result *GateResult, officeLocationID *string, point *attendance.Location, thresholds setting.Thresholds) error {
	result.RadiusMeters = float64(thresholds.GPSRadius)

	office, ok, err := g.activeOffice(ctx, officeLocationID)
	if err != nil {
		return err
	}
	if !ok {
		// No geofence configured: the check is skipped, not failed.
		result.LocationOK = true
		result.LocationChecked = false
		return nil
	}

	result.LocationChecked = true
	result.RadiusMeters = math.Max(float64(office.RadiusMeters), float64(thresholds.GPSRadius))

	if point == nil {
		result.LocationOK = false
		result.Reasons = append(result.Reasons, attendance.ReasonLocationMissing)
		return nil
	}

	distance := utils.CalculateHaversineDistance(point.Latitude, point.Longitude, office.Latitude, office.Longitude)
	result.DistanceMeters = &distance
	result.LocationOK = WithinGeofence(distance, float64(office.RadiusMeters), float64(thresholds.GPSRadius))
	if !result.LocationOK {
		result.Reasons = append(result.Reasons, attendance.ReasonOutsideGeofence)
	}

	return nil
}

// activeOffice loads the office geofence. ok is false when the employee has
// no office, the office is inactive, or the reference is dangling.
func (g *VerificationGate) activeOffice(ctx context.Context, officeLocationID *string) (location.OfficeLocation, bool, error) {
	if officeLocationID == nil || *officeLocationID == "" {
		g.logger.Info("Geofence check skipped: no office location assigned",
			slog.String("reason", attendance.ReasonGeofenceNotConfigured))
		return location.OfficeLocation{}, false, nil
	}

	office, err := g.locations.GetByID(ctx, *officeLocationID)
	if err != nil {
		if errors.Is(err, location.ErrOfficeLocationNotFound) {
			g.logger.Warn("Geofence check skipped: assigned office location does not exist",
				slog.String("office_location_id", *officeLocationID),
				slog.String("reason", attendance.ReasonGeofenceNotConfigured))
			return location.OfficeLocation{}, false, nil
		}
		return location.OfficeLocation{}, false, fmt.Errorf("failed to get office location: %w", err)
	}

	if !office.IsActive {
		g.logger.Info("Geofence check skipped: office location inactive",
			slog.String("office_location_id", office.ID),
			slog.String("reason", attendance.ReasonGeofenceNotConfigured))
		return location.OfficeLocation{}, false, nil
	}

	return office, true, nil
}

// WithinGeofence accepts a distance up to the larger of the office radius
// and the global GPS accuracy radius. Either ceiling alone is sufficient.
func WithinGeofence(distanceMeters, officeRadiusMeters, gpsRadiusMeters float64) bool {
	return distanceMeters <= math.Max(officeRadiusMeters, gpsRadiusMeters)
}
