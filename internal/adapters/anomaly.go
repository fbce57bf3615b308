// Package adapters bridges the dashboard's bulk metric tables to the
// anomaly pipeline, gated by feature flags.
package adapters

import (
	"time"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/anomaly"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/config"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
)

// AnomalyAdapter processes a multi-asset, multi-type table through the
// anomaly service when detection is enabled, and passes it through
// untouched otherwise. Flags are re-read on every call.
type AnomalyAdapter struct {
	service *anomaly.Service
	flags   config.FlagSource
}

func NewAnomalyAdapter(service *anomaly.Service, flags config.FlagSource) *AnomalyAdapter {
	return &AnomalyAdapter{service: service, flags: flags}
}

type groupKey struct {
	assetID         string
	consumptionType string
}

type rowKey struct {
	date time.Time
	groupKey
}

// ProcessReadings augments rows with corrected values per
// (asset, consumption type) group. With detection disabled or no input the
// rows come back unchanged.
func (a *AnomalyAdapter) ProcessReadings(rows []domain.MetricRow, detectOnly bool) []domain.MetricRow {
	if !a.flags.Current().EnableAnomalyDetection || len(rows) == 0 {
		return rows
	}

	processed := make([]domain.MetricRow, len(rows))
	copy(processed, rows)
	for i := range processed {
		processed[i].CorrectedValue = processed[i].Consumption
		processed[i].IsCorrected = false
	}

	groups := make(map[groupKey][]domain.Reading)
	var order []groupKey
	for _, row := range rows {
		key := groupKey{row.AssetID, row.ConsumptionType}
		if _, ok := groups[key]; !ok {
			order = append(order, key)
		}
		groups[key] = append(groups[key], row.Reading())
	}

	index := make(map[rowKey][]int, len(processed))
	for i, row := range processed {
		k := rowKey{row.Date, groupKey{row.AssetID, row.ConsumptionType}}
		index[k] = append(index[k], i)
	}

	for _, key := range order {
		result := a.service.ProcessSeries(groups[key], detectOnly)
		for _, corrected := range result.Corrected {
			k := rowKey{corrected.Date, groupKey{corrected.AssetID, corrected.ConsumptionType}}
			for _, i := range index[k] {
				processed[i].CorrectedValue = corrected.CorrectedValue
				processed[i].IsCorrected = corrected.IsCorrected
			}
		}
	}
	return processed
}
