package domain

import (
	"fmt"
	"time"
)

// AnomalyType classifies a detected discontinuity in a consumption series.
type AnomalyType string

const (
	// CounterReset marks a drop caused by a meter counter rolling over or
	// being reset; corrected by re-basing all later readings.
	CounterReset AnomalyType = "counter_reset"

	// SensorReplacement marks a drop caused by swapping the physical sensor.
	// No offset is applied; the row is only flagged for visualization.
	SensorReplacement AnomalyType = "sensor_replacement"
)

// Valid reports whether t is one of the known anomaly types.
func (t AnomalyType) Valid() bool {
	return t == CounterReset || t == SensorReplacement
}

// Reading is one observation of a cumulative consumption counter.
type Reading struct {
	Date            time.Time `db:"date" json:"date"`
	Value           float64   `db:"consumption" json:"consumption"`
	AssetID         string    `db:"asset_id" json:"asset_id"`
	ConsumptionType string    `db:"consumption_type" json:"consumption_type"`
}

// Anomaly is the detection record for one discontinuity. Date is anchored
// to the first reading after the drop, not the one before it.
type Anomaly struct {
	ID              string      `db:"id" json:"id,omitempty"`
	Type            AnomalyType `db:"type" json:"type"`
	Date            time.Time   `db:"date" json:"date"`
	PreviousValue   float64     `db:"previous_value" json:"previous_value"`
	CurrentValue    float64     `db:"current_value" json:"current_value"`
	Offset          float64     `db:"offset" json:"offset"`
	AssetID         string      `db:"asset_id" json:"asset_id"`
	ConsumptionType string      `db:"consumption_type" json:"consumption_type"`
	DetectedAt      time.Time   `db:"detected_at" json:"detected_at"`

	// Reclassification provenance; zero-valued until Reclassify is applied.
	OriginalType   AnomalyType `db:"original_type" json:"original_type,omitempty"`
	Reclassified   bool        `db:"reclassified" json:"reclassified,omitempty"`
	ReclassifiedAt time.Time   `db:"reclassified_at" json:"reclassified_at,omitzero"`
}

// EffectiveOffset returns the shift to apply to post-anomaly readings,
// falling back to the bracketing values when the stored offset is absent.
func (a Anomaly) EffectiveOffset() float64 {
	if a.Offset != 0 {
		return a.Offset
	}
	return a.PreviousValue - a.CurrentValue
}

// Reclassify returns a copy of a with the type changed, preserving the
// original type the first time and stamping the change.
func (a Anomaly) Reclassify(newType AnomalyType, now time.Time) (Anomaly, error) {
	if !newType.Valid() {
		return Anomaly{}, fmt.Errorf("invalid anomaly type: %q", newType)
	}
	out := a
	if out.OriginalType == "" {
		out.OriginalType = out.Type
	}
	out.Type = newType
	out.Reclassified = true
	out.ReclassifiedAt = now
	return out, nil
}

// CorrectedReading is a Reading augmented with the corrector's output.
// Derived on demand, never persisted.
type CorrectedReading struct {
	Reading
	CorrectedValue          float64     `json:"corrected_value"`
	IsCorrected             bool        `json:"is_corrected"`
	CorrectionType          AnomalyType `json:"correction_type,omitempty"`
	IsSensorReplacement     bool        `json:"is_sensor_replacement,omitempty"`
	IsLastBeforeReplacement bool        `json:"is_last_before_replacement,omitempty"`
}

// ProcessResult bundles one series' processing output.
type ProcessResult struct {
	Original  []Reading          `json:"original"`
	Corrected []CorrectedReading `json:"corrected"`
	Anomalies []Anomaly          `json:"anomalies"`
}

// MetricRow is one row of the bulk table exchanged with the dashboard:
// possibly many (asset, consumption type) groups in a single slice.
type MetricRow struct {
	Date            time.Time `json:"date"`
	AssetID         string    `json:"asset_id"`
	ConsumptionType string    `json:"consumption_type"`
	Consumption     float64   `json:"consumption"`

	CorrectedValue      float64  `json:"corrected_value,omitempty"`
	IsCorrected         bool     `json:"is_corrected,omitempty"`
	OriginalConsumption *float64 `json:"original_consumption,omitempty"`
}

// Reading converts a bulk row to the canonical series representation.
func (m MetricRow) Reading() Reading {
	return Reading{
		Date:            m.Date,
		Value:           m.Consumption,
		AssetID:         m.AssetID,
		ConsumptionType: m.ConsumptionType,
	}
}
