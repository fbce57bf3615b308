package repository

import (
	"time"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
)

// AnomalyFilter narrows GetAnomalies results. Zero-valued fields are
// wildcards; set fields combine conjunctively.
type AnomalyFilter struct {
	AssetID         string
	ConsumptionType string
	StartDate       *time.Time
	EndDate         *time.Time
}

// Matches reports whether a passes every set filter field.
func (f AnomalyFilter) Matches(a domain.Anomaly) bool {
	if f.AssetID != "" && a.AssetID != f.AssetID {
		return false
	}
	if f.ConsumptionType != "" && a.ConsumptionType != f.ConsumptionType {
		return false
	}
	if f.StartDate != nil && a.Date.Before(*f.StartDate) {
		return false
	}
	if f.EndDate != nil && a.Date.After(*f.EndDate) {
		return false
	}
	return true
}

// ReadingStore supplies raw consumption series. An unknown asset or type
// yields an empty slice, never an error.
type ReadingStore interface {
	GetOriginalReadings(assetID, consumptionType string, start, end *time.Time) ([]domain.Reading, error)
	AppendReading(r domain.Reading) error
}

// AnomalyStore persists and retrieves anomaly records. Updates are keyed by
// (asset_id, date).
type AnomalyStore interface {
	SaveAnomaly(a domain.Anomaly) (string, error)
	GetAnomalies(filter AnomalyFilter) ([]domain.Anomaly, error)
	UpdateAnomaly(a domain.Anomaly) error
}

// Store is the full storage surface consumed by the anomaly service.
type Store interface {
	ReadingStore
	AnomalyStore
}

// SplitStore combines independent reading and anomaly backends into one
// Store, e.g. local CSV readings with cloud-hosted anomaly records.
type SplitStore struct {
	ReadingStore
	AnomalyStore
}
