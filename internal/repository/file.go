package repository

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
)

// FileStore keeps readings as one CSV file per (asset, consumption type)
// pair and anomalies as one JSON record per detection.
type FileStore struct {
	readingsDir  string
	anomaliesDir string
}

// NewFileStore roots the store at dataDir, creating the layout if needed.
func NewFileStore(dataDir string) (*FileStore, error) {
	s := &FileStore{
		readingsDir:  filepath.Join(dataDir, "readings"),
		anomaliesDir: filepath.Join(dataDir, "anomalies"),
	}
	for _, dir := range []string{s.readingsDir, s.anomaliesDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}
	return s, nil
}

var _ Store = (*FileStore)(nil)

func (s *FileStore) readingsPath(assetID, consumptionType string) string {
	return filepath.Join(s.readingsDir, fmt.Sprintf("%s_%s.csv", assetID, consumptionType))
}

// GetOriginalReadings loads the cached series for one asset and type,
// sorted by date ascending. Duplicate dates collapse last-wins; rows whose
// value cannot be parsed (upstream "Error" sentinels) are dropped.
func (s *FileStore) GetOriginalReadings(assetID, consumptionType string, start, end *time.Time) ([]domain.Reading, error) {
	f, err := os.Open(s.readingsPath(assetID, consumptionType))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open readings file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read readings csv: %w", err)
	}
	if len(records) < 2 {
		return nil, nil
	}

	dateCol, valueCol := -1, -1
	for i, name := range records[0] {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "date":
			dateCol = i
		case "consumption":
			valueCol = i
		case "value":
			// Legacy column name; "consumption" wins when both exist.
			if valueCol < 0 {
				valueCol = i
			}
		}
	}
	if dateCol < 0 || valueCol < 0 {
		return nil, fmt.Errorf("readings csv for %s/%s lacks date or value column", assetID, consumptionType)
	}

	byDate := make(map[time.Time]domain.Reading)
	for _, rec := range records[1:] {
		if len(rec) <= dateCol || len(rec) <= valueCol {
			continue
		}
		date, err := parseDate(rec[dateCol])
		if err != nil {
			log.Debug().Str("raw", rec[dateCol]).Msg("skipping reading with unparseable date")
			continue
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(rec[valueCol]), 64)
		if err != nil {
			log.Debug().Str("raw", rec[valueCol]).Msg("skipping reading with non-numeric value")
			continue
		}
		if start != nil && date.Before(*start) {
			continue
		}
		if end != nil && date.After(*end) {
			continue
		}
		byDate[date] = domain.Reading{
			Date:            date,
			Value:           value,
			AssetID:         assetID,
			ConsumptionType: consumptionType,
		}
	}

	out := make([]domain.Reading, 0, len(byDate))
	for _, rd := range byDate {
		out = append(out, rd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// AppendReading appends one row to the pair's CSV, writing the header first
// when the file is new.
func (s *FileStore) AppendReading(rd domain.Reading) error {
	path := s.readingsPath(rd.AssetID, rd.ConsumptionType)
	_, statErr := os.Stat(path)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open readings file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if os.IsNotExist(statErr) {
		if err := w.Write([]string{"date", "consumption"}); err != nil {
			return err
		}
	}
	if err := w.Write([]string{rd.Date.Format("2006-01-02"), strconv.FormatFloat(rd.Value, 'f', -1, 64)}); err != nil {
		return err
	}
	w.Flush()
	return w.Error()
}

func (s *FileStore) anomalyPath(assetID string, date time.Time) string {
	return filepath.Join(s.anomaliesDir, fmt.Sprintf("anomaly_%s_%s.json", assetID, date.Format("20060102")))
}

// anomalyRecord is the on-disk shape. Dates are kept as strings so records
// written by older tooling (bare YYYY-MM-DD) remain readable.
type anomalyRecord struct {
	ID              string  `json:"id,omitempty"`
	Type            string  `json:"type"`
	Date            string  `json:"date"`
	PreviousValue   float64 `json:"previous_value"`
	CurrentValue    float64 `json:"current_value"`
	Offset          float64 `json:"offset"`
	AssetID         string  `json:"asset_id"`
	ConsumptionType string  `json:"consumption_type"`
	DetectedAt      string  `json:"detected_at"`
	OriginalType    string  `json:"original_type,omitempty"`
	Reclassified    bool    `json:"reclassified,omitempty"`
	ReclassifiedAt  string  `json:"reclassified_at,omitempty"`
}

func toRecord(a domain.Anomaly) anomalyRecord {
	rec := anomalyRecord{
		ID:              a.ID,
		Type:            string(a.Type),
		Date:            a.Date.Format(time.RFC3339),
		PreviousValue:   a.PreviousValue,
		CurrentValue:    a.CurrentValue,
		Offset:          a.Offset,
		AssetID:         a.AssetID,
		ConsumptionType: a.ConsumptionType,
		DetectedAt:      a.DetectedAt.Format(time.RFC3339),
		OriginalType:    string(a.OriginalType),
		Reclassified:    a.Reclassified,
	}
	if !a.ReclassifiedAt.IsZero() {
		rec.ReclassifiedAt = a.ReclassifiedAt.Format(time.RFC3339)
	}
	return rec
}

func (rec anomalyRecord) toDomain() (domain.Anomaly, error) {
	date, err := parseDate(rec.Date)
	if err != nil {
		return domain.Anomaly{}, fmt.Errorf("anomaly date %q: %w", rec.Date, err)
	}
	a := domain.Anomaly{
		ID:              rec.ID,
		Type:            domain.AnomalyType(rec.Type),
		Date:            date,
		PreviousValue:   rec.PreviousValue,
		CurrentValue:    rec.CurrentValue,
		Offset:          rec.Offset,
		AssetID:         rec.AssetID,
		ConsumptionType: rec.ConsumptionType,
		OriginalType:    domain.AnomalyType(rec.OriginalType),
		Reclassified:    rec.Reclassified,
	}
	if rec.DetectedAt != "" {
		if ts, err := parseDate(rec.DetectedAt); err == nil {
			a.DetectedAt = ts
		}
	}
	if rec.ReclassifiedAt != "" {
		if ts, err := parseDate(rec.ReclassifiedAt); err == nil {
			a.ReclassifiedAt = ts
		}
	}
	return a, nil
}

// SaveAnomaly writes the record and returns its identifier, assigning one
// when the anomaly carries none.
func (s *FileStore) SaveAnomaly(a domain.Anomaly) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	data, err := json.MarshalIndent(toRecord(a), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal anomaly: %w", err)
	}
	path := s.anomalyPath(a.AssetID, a.Date)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write anomaly record: %w", err)
	}
	return a.ID, nil
}

// GetAnomalies lists stored anomalies matching the filter, sorted by date
// ascending. Records with unparseable dates are skipped, not fatal.
func (s *FileStore) GetAnomalies(filter AnomalyFilter) ([]domain.Anomaly, error) {
	paths, err := filepath.Glob(filepath.Join(s.anomaliesDir, "anomaly_*.json"))
	if err != nil {
		return nil, err
	}

	var out []domain.Anomaly
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping unreadable anomaly record")
			continue
		}
		var rec anomalyRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping malformed anomaly record")
			continue
		}
		a, err := rec.toDomain()
		if err != nil {
			log.Warn().Err(err).Str("path", path).Msg("skipping anomaly record")
			continue
		}
		if filter.Matches(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

// UpdateAnomaly rewrites the record stored under (asset_id, date),
// preserving the existing identifier when the update carries none.
func (s *FileStore) UpdateAnomaly(a domain.Anomaly) error {
	path := s.anomalyPath(a.AssetID, a.Date)
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("anomaly record for %s at %s: %w", a.AssetID, a.Date.Format("2006-01-02"), err)
	}
	if a.ID == "" {
		var existing anomalyRecord
		if err := json.Unmarshal(data, &existing); err == nil {
			a.ID = existing.ID
		}
	}
	_, err = s.SaveAnomaly(a)
	return err
}

// parseDate parses the date formats seen in stored records: RFC3339 (with
// or without Z), then a bare day, tolerating a trailing time segment.
func parseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if ts, err := time.Parse(time.RFC3339, raw); err == nil {
		return ts, nil
	}
	if ts, err := time.Parse("2006-01-02T15:04:05", raw); err == nil {
		return ts, nil
	}
	day := raw
	if i := strings.IndexByte(day, 'T'); i >= 0 {
		day = day[:i]
	}
	if ts, err := time.Parse("2006-01-02", day); err == nil {
		return ts, nil
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %q", raw)
}
