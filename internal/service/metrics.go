package service

import (
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/adapters"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/config"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
)

// MetricsService prepares bulk metric tables for the dashboard. It runs the
// anomaly adapter and, when correction is also enabled, promotes corrected
// values into the visible consumption column.
type MetricsService struct {
	adapter *adapters.AnomalyAdapter
	flags   config.FlagSource
}

func NewMetricsService(adapter *adapters.AnomalyAdapter, flags config.FlagSource) *MetricsService {
	return &MetricsService{adapter: adapter, flags: flags}
}

// ProcessMetricsData augments rows through the adapter. With both detection
// and correction flags enabled the consumption column is overwritten with
// the corrected value and the raw value is kept as OriginalConsumption.
func (m *MetricsService) ProcessMetricsData(rows []domain.MetricRow, detectOnly bool) []domain.MetricRow {
	processed := m.adapter.ProcessReadings(rows, detectOnly)

	flags := m.flags.Current()
	if !flags.EnableAnomalyDetection || !flags.EnableAnomalyCorrection {
		return processed
	}

	for i := range processed {
		original := processed[i].Consumption
		processed[i].OriginalConsumption = &original
		processed[i].Consumption = processed[i].CorrectedValue
	}
	return processed
}
