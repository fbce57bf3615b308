package service

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/anomaly"
)

// reportPrefix groups all exported reports under one storage namespace.
const reportPrefix = "reports/"

// ReportStorage holds exported reports: upload returning a download URL,
// plus listing and cleanup.
type ReportStorage interface {
	UploadReport(key string, data []byte, contentType string) (string, error)
	ListReports(prefix string) ([]string, error)
	DeleteReport(key string) error
}

// ReportService renders corrected-series CSV exports.
type ReportService struct {
	anomaly *anomaly.Service
	storage ReportStorage
}

func NewReportService(svc *anomaly.Service, storage ReportStorage) *ReportService {
	return &ReportService{anomaly: svc, storage: storage}
}

// SetStorage attaches cloud storage after construction.
func (r *ReportService) SetStorage(s ReportStorage) { r.storage = s }

// BuildConsumptionReport renders one series, fully corrected, as CSV.
func (r *ReportService) BuildConsumptionReport(assetID, consumptionType string, start, end *time.Time) ([]byte, error) {
	result, err := r.anomaly.ProcessReadings(assetID, consumptionType, start, end, false)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write([]string{"date", "consumption", "corrected_value", "is_corrected"}); err != nil {
		return nil, err
	}
	for _, row := range result.Corrected {
		rec := []string{
			row.Date.Format("2006-01-02"),
			strconv.FormatFloat(row.Value, 'f', -1, 64),
			strconv.FormatFloat(row.CorrectedValue, 'f', -1, 64),
			strconv.FormatBool(row.IsCorrected),
		}
		if err := w.Write(rec); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ExportConsumptionReport builds the CSV and uploads it, returning a
// download URL. Requires storage.
func (r *ReportService) ExportConsumptionReport(assetID, consumptionType string, start, end *time.Time) (string, error) {
	if r.storage == nil {
		return "", fmt.Errorf("report storage not configured")
	}
	data, err := r.BuildConsumptionReport(assetID, consumptionType, start, end)
	if err != nil {
		return "", err
	}
	key := fmt.Sprintf("%sconsumption_%s_%s_%s.csv",
		reportPrefix, assetID, consumptionType, time.Now().Format("20060102T150405"))
	return r.storage.UploadReport(key, data, "text/csv")
}

// ListReports returns the keys of all stored reports.
func (r *ReportService) ListReports() ([]string, error) {
	if r.storage == nil {
		return nil, fmt.Errorf("report storage not configured")
	}
	return r.storage.ListReports(reportPrefix)
}

// DeleteReport removes one stored report. Keys outside the report
// namespace are rejected rather than deleted.
func (r *ReportService) DeleteReport(key string) error {
	if r.storage == nil {
		return fmt.Errorf("report storage not configured")
	}
	if !strings.HasPrefix(key, reportPrefix) {
		return fmt.Errorf("not a report key: %q", key)
	}
	return r.storage.DeleteReport(key)
}
