package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// policyFile is the YAML form of the attendance policy. Only keys present
// in the file override the environment.
type policyFile struct {
	Timezone               *string `yaml:"timezone"`
	StrictMode             *bool   `yaml:"strict_mode"`
	RequireFace            *bool   `yaml:"require_face"`
	VerifyCheckOutLocation *bool   `yaml:"verify_checkout_location"`
	DayOffStatus           *string `yaml:"day_off_status"`
	StoreTimeout           *string `yaml:"store_timeout"`
	StaleScanInterval      *string `yaml:"stale_scan_interval"`
}

// ApplyPolicyFile overlays the YAML policy at path onto a.
func (a *AttendanceConfig) ApplyPolicyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read attendance policy file: %w", err)
	}
	return a.applyPolicy(data)
}

func (a *AttendanceConfig) applyPolicy(data []byte) error {
	var p policyFile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("failed to parse attendance policy file: %w", err)
	}

	if p.Timezone != nil {
		a.Timezone = *p.Timezone
	}
	if p.StrictMode != nil {
		a.StrictMode = *p.StrictMode
	}
	if p.RequireFace != nil {
		a.RequireFace = *p.RequireFace
	}
	if p.VerifyCheckOutLocation != nil {
		a.VerifyCheckOutLocation = *p.VerifyCheckOutLocation
	}
	if p.DayOffStatus != nil {
		a.DayOffStatus = *p.DayOffStatus
	}
	if p.StoreTimeout != nil {
		d, err := time.ParseDuration(*p.StoreTimeout)
		if err != nil {
			return fmt.Errorf("invalid store_timeout in policy file: %w", err)
		}
		a.StoreTimeout = d
	}
	if p.StaleScanInterval != nil {
		d, err := time.ParseDuration(*p.StaleScanInterval)
		if err != nil {
			return fmt.Errorf("invalid stale_scan_interval in policy file: %w", err)
		}
		a.StaleScanInterval = d
	}

	return nil
}
