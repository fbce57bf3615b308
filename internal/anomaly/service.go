package anomaly

import (
	"fmt"
	"time"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/repository"
)

// Service orchestrates detection and correction against a store.
type Service struct {
	store     repository.Store
	detector  *Detector
	corrector *Corrector
}

// NewService wires a service; nil detector/corrector default to ones
// sharing the store.
func NewService(store repository.Store, detector *Detector, corrector *Corrector) *Service {
	if detector == nil {
		detector = NewDetector(store)
	}
	if corrector == nil {
		corrector = NewCorrector(store)
	}
	return &Service{store: store, detector: detector, corrector: corrector}
}

// Detector exposes the service's detector, e.g. for reclassification.
func (s *Service) Detector() *Detector { return s.detector }

// ProcessReadings fetches one series by asset and consumption type, detects
// counter resets, and (unless detectOnly) corrects them. An empty fetch
// yields an all-empty result, not an error.
func (s *Service) ProcessReadings(assetID, consumptionType string, start, end *time.Time, detectOnly bool) (domain.ProcessResult, error) {
	readings, err := s.store.GetOriginalReadings(assetID, consumptionType, start, end)
	if err != nil {
		return domain.ProcessResult{}, fmt.Errorf("fetch readings for %s/%s: %w", assetID, consumptionType, err)
	}
	if len(readings) == 0 {
		return domain.ProcessResult{Anomalies: []domain.Anomaly{}}, nil
	}
	return s.ProcessSeries(readings, detectOnly), nil
}

// ProcessSeries runs the pipeline over an already-fetched series. With
// detectOnly the correction stage is skipped entirely and the corrected
// series mirrors the original values.
func (s *Service) ProcessSeries(readings []domain.Reading, detectOnly bool) domain.ProcessResult {
	anomalies := s.detector.DetectCounterResets(readings)
	if anomalies == nil {
		anomalies = []domain.Anomaly{}
	}

	result := domain.ProcessResult{Original: readings, Anomalies: anomalies}
	if detectOnly {
		result.Corrected = passthrough(readings)
		return result
	}
	result.Corrected = s.corrector.CorrectCounterResets(readings, anomalies)
	return result
}
