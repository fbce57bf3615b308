package service

import (
	"github.com/rs/zerolog/log"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/adapters"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/anomaly"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/config"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/repository"
)

// Notifier publishes alerts for detected counter resets. Optional; a nil
// notifier means alerts are simply not sent.
type Notifier interface {
	SendCounterResetAlert(assetID, consumptionType string, anomalies []domain.Anomaly) error
}

type Services struct {
	Store   repository.Store
	Flags   config.FlagSource
	Anomaly *anomaly.Service
	Adapter *adapters.AnomalyAdapter
	Metrics *MetricsService
	Reports *ReportService

	Notifier Notifier
}

func New(store repository.Store, flags config.FlagSource) *Services {
	anomalySvc := anomaly.NewService(store, nil, nil)
	adapter := adapters.NewAnomalyAdapter(anomalySvc, flags)
	return &Services{
		Store:   store,
		Flags:   flags,
		Anomaly: anomalySvc,
		Adapter: adapter,
		Metrics: NewMetricsService(adapter, flags),
		Reports: NewReportService(anomalySvc, nil),
	}
}

// NotifyCounterResets sends an alert for freshly detected resets. Failures
// are logged, never surfaced: alerting must not break request handling.
func (s *Services) NotifyCounterResets(assetID, consumptionType string, anomalies []domain.Anomaly) {
	if s.Notifier == nil || len(anomalies) == 0 {
		return
	}
	if err := s.Notifier.SendCounterResetAlert(assetID, consumptionType, anomalies); err != nil {
		log.Warn().Err(err).Str("asset_id", assetID).Msg("counter reset alert failed")
	}
}
