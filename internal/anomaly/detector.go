package anomaly

import (
	"sort"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/repository"
)

// DefaultResetThreshold is the drop ratio treated as a counter reset: a
// reading below 80% of its predecessor is a reset, smaller dips are noise.
const DefaultResetThreshold = 0.8

// A drop this far below the previous value, when the previous value was
// already large, looks like a fresh sensor rather than a rolled-over counter.
const (
	sensorReplacementRatio = 0.05
	sensorReplacementFloor = 1000.0
)

// Detector scans a consumption series for counter resets.
type Detector struct {
	// Threshold is the reset drop ratio; defaults to DefaultResetThreshold.
	Threshold float64

	// DetectSensorReplacements opts into classifying extreme drops as
	// sensor_replacement instead of counter_reset.
	DetectSensorReplacements bool

	store repository.AnomalyStore
	now   func() time.Time
}

// NewDetector builds a detector. A non-nil store makes the detector persist
// each anomaly as it is found.
func NewDetector(store repository.AnomalyStore) *Detector {
	return &Detector{
		Threshold: DefaultResetThreshold,
		store:     store,
		now:       time.Now,
	}
}

// DetectCounterResets flags every point whose value drops below
// Threshold * previous value, comparing each reading to its immediate
// predecessor in date order. Input order does not matter; fewer than two
// readings yields no anomalies.
func (d *Detector) DetectCounterResets(readings []domain.Reading) []domain.Anomaly {
	if len(readings) < 2 {
		return nil
	}

	sorted := make([]domain.Reading, len(readings))
	copy(sorted, readings)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	var anomalies []domain.Anomaly
	for i := 1; i < len(sorted); i++ {
		previous, current := sorted[i-1], sorted[i]
		if current.Value >= previous.Value*d.Threshold {
			continue
		}

		anomalyType := domain.CounterReset
		if d.DetectSensorReplacements &&
			current.Value < previous.Value*sensorReplacementRatio &&
			previous.Value > sensorReplacementFloor {
			anomalyType = domain.SensorReplacement
		}

		a := domain.Anomaly{
			Type:            anomalyType,
			Date:            current.Date,
			PreviousValue:   previous.Value,
			CurrentValue:    current.Value,
			Offset:          previous.Value - current.Value,
			AssetID:         current.AssetID,
			ConsumptionType: current.ConsumptionType,
			DetectedAt:      d.now(),
		}
		anomalies = append(anomalies, a)

		if d.store != nil {
			if _, err := d.store.SaveAnomaly(a); err != nil {
				log.Warn().Err(err).
					Str("asset_id", a.AssetID).
					Time("date", a.Date).
					Msg("anomaly persist failed")
			}
		}
	}
	return anomalies
}

// Reclassify changes an anomaly's type, keeping the original type the first
// time, and persists the update when a store is configured.
func (d *Detector) Reclassify(a domain.Anomaly, newType domain.AnomalyType) (domain.Anomaly, error) {
	updated, err := a.Reclassify(newType, d.now())
	if err != nil {
		return domain.Anomaly{}, err
	}
	if d.store != nil {
		if err := d.store.UpdateAnomaly(updated); err != nil {
			return domain.Anomaly{}, err
		}
	}
	return updated, nil
}
