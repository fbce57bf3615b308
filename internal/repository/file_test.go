package repository

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	store, err := NewFileStore(t.TempDir())
	require.NoError(t, err)
	return store
}

func writeReadingsCSV(t *testing.T, store *FileStore, assetID, consumptionType, content string) {
	t.Helper()
	path := store.readingsPath(assetID, consumptionType)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGetOriginalReadingsParsesAndSorts(t *testing.T) {
	store := newTestStore(t)
	writeReadingsCSV(t, store, "asset-001", "electricity",
		"date,consumption\n2025-03-03,120\n2025-03-01,100\n2025-03-02,110\n")

	readings, err := store.GetOriginalReadings("asset-001", "electricity", nil, nil)
	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.Equal(t, 100.0, readings[0].Value)
	assert.Equal(t, 110.0, readings[1].Value)
	assert.Equal(t, 120.0, readings[2].Value)
	assert.Equal(t, "asset-001", readings[0].AssetID)
	assert.Equal(t, "electricity", readings[0].ConsumptionType)
}

func TestGetOriginalReadingsLegacyValueColumn(t *testing.T) {
	store := newTestStore(t)
	writeReadingsCSV(t, store, "asset-001", "water",
		"date,value\n2025-03-01,7.5\n")

	readings, err := store.GetOriginalReadings("asset-001", "water", nil, nil)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 7.5, readings[0].Value)
}

func TestGetOriginalReadingsDropsSentinelRows(t *testing.T) {
	store := newTestStore(t)
	writeReadingsCSV(t, store, "asset-001", "electricity",
		"date,consumption\n2025-03-01,100\n2025-03-02,Error\n2025-03-03,120\n")

	readings, err := store.GetOriginalReadings("asset-001", "electricity", nil, nil)
	require.NoError(t, err)
	require.Len(t, readings, 2)
	assert.Equal(t, 100.0, readings[0].Value)
	assert.Equal(t, 120.0, readings[1].Value)
}

func TestGetOriginalReadingsLastWinsOnDuplicateDates(t *testing.T) {
	store := newTestStore(t)
	writeReadingsCSV(t, store, "asset-001", "electricity",
		"date,consumption\n2025-03-01,100\n2025-03-01,105\n")

	readings, err := store.GetOriginalReadings("asset-001", "electricity", nil, nil)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 105.0, readings[0].Value)
}

func TestGetOriginalReadingsDateWindow(t *testing.T) {
	store := newTestStore(t)
	writeReadingsCSV(t, store, "asset-001", "electricity",
		"date,consumption\n2025-03-01,100\n2025-03-02,110\n2025-03-03,120\n")

	start := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	readings, err := store.GetOriginalReadings("asset-001", "electricity", &start, &end)
	require.NoError(t, err)
	require.Len(t, readings, 1)
	assert.Equal(t, 110.0, readings[0].Value)
}

func TestGetOriginalReadingsMissingFile(t *testing.T) {
	store := newTestStore(t)
	readings, err := store.GetOriginalReadings("nope", "electricity", nil, nil)
	require.NoError(t, err)
	assert.Empty(t, readings)
}

func TestAppendReadingRoundTrip(t *testing.T) {
	store := newTestStore(t)
	for i, v := range []float64{100, 110, 120} {
		require.NoError(t, store.AppendReading(domain.Reading{
			Date:            time.Date(2025, 3, 1+i, 0, 0, 0, 0, time.UTC),
			Value:           v,
			AssetID:         "asset-001",
			ConsumptionType: "electricity",
		}))
	}

	readings, err := store.GetOriginalReadings("asset-001", "electricity", nil, nil)
	require.NoError(t, err)
	require.Len(t, readings, 3)
	assert.Equal(t, 120.0, readings[2].Value)
}

func TestSaveAnomalyRoundTrip(t *testing.T) {
	store := newTestStore(t)
	a := domain.Anomaly{
		Type:            domain.CounterReset,
		Date:            time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC),
		PreviousValue:   140,
		CurrentValue:    50,
		Offset:          90,
		AssetID:         "asset-001",
		ConsumptionType: "electricity",
		DetectedAt:      time.Now().UTC().Truncate(time.Second),
	}

	id, err := store.SaveAnomaly(a)
	require.NoError(t, err)
	assert.NotEmpty(t, id)

	// filename layout is anomaly_{asset}_{YYYYMMDD}.json
	_, statErr := os.Stat(filepath.Join(store.anomaliesDir, "anomaly_asset-001_20250306.json"))
	assert.NoError(t, statErr)

	got, err := store.GetAnomalies(AnomalyFilter{AssetID: "asset-001"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, id, got[0].ID)
	assert.Equal(t, 90.0, got[0].Offset)
	assert.True(t, got[0].Date.Equal(a.Date))
}

func TestGetAnomaliesFilters(t *testing.T) {
	store := newTestStore(t)
	dates := []time.Time{
		time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
	}
	for i, d := range dates {
		_, err := store.SaveAnomaly(domain.Anomaly{
			Type:            domain.CounterReset,
			Date:            d,
			AssetID:         "asset-001",
			ConsumptionType: []string{"electricity", "water"}[i],
			Offset:          float64(i + 1),
		})
		require.NoError(t, err)
	}

	all, err := store.GetAnomalies(AnomalyFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	water, err := store.GetAnomalies(AnomalyFilter{ConsumptionType: "water"})
	require.NoError(t, err)
	require.Len(t, water, 1)
	assert.Equal(t, 2.0, water[0].Offset)

	end := time.Date(2025, 3, 5, 0, 0, 0, 0, time.UTC)
	early, err := store.GetAnomalies(AnomalyFilter{EndDate: &end})
	require.NoError(t, err)
	require.Len(t, early, 1)
	assert.Equal(t, 1.0, early[0].Offset)

	none, err := store.GetAnomalies(AnomalyFilter{AssetID: "asset-999"})
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestGetAnomaliesSkipsMalformedDates(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(store.anomaliesDir, "anomaly_asset-001_20250301.json"),
		[]byte(`{"type":"counter_reset","date":"not-a-date","asset_id":"asset-001"}`), 0o644))
	_, err := store.SaveAnomaly(domain.Anomaly{
		Type:    domain.CounterReset,
		Date:    time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC),
		AssetID: "asset-001",
	})
	require.NoError(t, err)

	got, err := store.GetAnomalies(AnomalyFilter{})
	require.NoError(t, err)
	assert.Len(t, got, 1, "bad record must not abort the listing")
}

func TestGetAnomaliesLegacyBareDate(t *testing.T) {
	store := newTestStore(t)
	require.NoError(t, os.WriteFile(
		filepath.Join(store.anomaliesDir, "anomaly_asset-001_20250301.json"),
		[]byte(`{"type":"counter_reset","date":"2025-03-01","asset_id":"asset-001","offset":12}`), 0o644))

	got, err := store.GetAnomalies(AnomalyFilter{AssetID: "asset-001"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC), got[0].Date)
}

func TestUpdateAnomalyInPlace(t *testing.T) {
	store := newTestStore(t)
	a := domain.Anomaly{
		Type:    domain.CounterReset,
		Date:    time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC),
		AssetID: "asset-001",
		Offset:  90,
	}
	id, err := store.SaveAnomaly(a)
	require.NoError(t, err)

	updated, err := a.Reclassify(domain.SensorReplacement, time.Now())
	require.NoError(t, err)
	require.NoError(t, store.UpdateAnomaly(updated))

	got, err := store.GetAnomalies(AnomalyFilter{AssetID: "asset-001"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.SensorReplacement, got[0].Type)
	assert.Equal(t, domain.CounterReset, got[0].OriginalType)
	assert.True(t, got[0].Reclassified)
	assert.Equal(t, id, got[0].ID, "identifier survives the update")
}

func TestUpdateAnomalyMissingRecord(t *testing.T) {
	store := newTestStore(t)
	err := store.UpdateAnomaly(domain.Anomaly{
		Type:    domain.CounterReset,
		Date:    time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC),
		AssetID: "asset-404",
	})
	assert.Error(t, err)
}

func TestParseDateFormats(t *testing.T) {
	cases := map[string]time.Time{
		"2025-03-06T00:00:00Z":      time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC),
		"2025-03-06T10:30:00+01:00": time.Date(2025, 3, 6, 10, 30, 0, 0, time.FixedZone("", 3600)),
		"2025-03-06T10:30:00":       time.Date(2025, 3, 6, 10, 30, 0, 0, time.UTC),
		"2025-03-06":                time.Date(2025, 3, 6, 0, 0, 0, 0, time.UTC),
	}
	for raw, want := range cases {
		got, err := parseDate(raw)
		require.NoError(t, err, raw)
		assert.True(t, got.Equal(want), raw)
	}

	_, err := parseDate("06/03/2025")
	assert.Error(t, err)
}
