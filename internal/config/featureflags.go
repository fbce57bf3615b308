package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
)

// Feature flag names as persisted in the flags file.
const (
	FlagAnomalyDetection     = "enable_anomaly_detection"
	FlagAnomalyCorrection    = "enable_anomaly_correction"
	FlagAnomalyVisualization = "enable_anomaly_visualization"
)

// FeatureFlags holds the named toggles gating the anomaly pipeline.
type FeatureFlags struct {
	EnableAnomalyDetection     bool `json:"enable_anomaly_detection"`
	EnableAnomalyCorrection    bool `json:"enable_anomaly_correction"`
	EnableAnomalyVisualization bool `json:"enable_anomaly_visualization"`
}

// IsFeatureEnabled looks a flag up by its persisted name.
func (f FeatureFlags) IsFeatureEnabled(name string) bool {
	switch name {
	case FlagAnomalyDetection:
		return f.EnableAnomalyDetection
	case FlagAnomalyCorrection:
		return f.EnableAnomalyCorrection
	case FlagAnomalyVisualization:
		return f.EnableAnomalyVisualization
	}
	return false
}

// FlagSource yields the current feature flags. Callers read it on every
// invocation; flags can change between calls.
type FlagSource interface {
	Current() FeatureFlags
}

// StaticFlags is a fixed FlagSource, mainly for tests and one-shot tools.
type StaticFlags FeatureFlags

func (s StaticFlags) Current() FeatureFlags { return FeatureFlags(s) }

// FlagStore is a JSON-file-backed FlagSource. A missing or unreadable file
// yields all-false defaults rather than an error.
type FlagStore struct {
	Path string
}

func NewFlagStore(path string) *FlagStore { return &FlagStore{Path: path} }

// Current re-reads the file on every call.
func (s *FlagStore) Current() FeatureFlags {
	flags, err := s.load()
	if err != nil {
		if !os.IsNotExist(err) {
			log.Warn().Err(err).Str("path", s.Path).Msg("feature flags load failed, using defaults")
		}
		return FeatureFlags{}
	}
	return flags
}

func (s *FlagStore) load() (FeatureFlags, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return FeatureFlags{}, err
	}
	var flags FeatureFlags
	if err := json.Unmarshal(data, &flags); err != nil {
		return FeatureFlags{}, err
	}
	return flags, nil
}

// Save persists the flags, creating the parent directory if needed.
func (s *FlagStore) Save(flags FeatureFlags) error {
	if dir := filepath.Dir(s.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(flags, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(s.Path, data, 0o644)
}

// EnableFeature turns one flag on and persists the result.
func (s *FlagStore) EnableFeature(name string) error { return s.set(name, true) }

// DisableFeature turns one flag off and persists the result.
func (s *FlagStore) DisableFeature(name string) error { return s.set(name, false) }

func (s *FlagStore) set(name string, enabled bool) error {
	flags := s.Current()
	switch name {
	case FlagAnomalyDetection:
		flags.EnableAnomalyDetection = enabled
	case FlagAnomalyCorrection:
		flags.EnableAnomalyCorrection = enabled
	case FlagAnomalyVisualization:
		flags.EnableAnomalyVisualization = enabled
	default:
		return os.ErrInvalid
	}
	return s.Save(flags)
}
