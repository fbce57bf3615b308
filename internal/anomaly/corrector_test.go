package anomaly

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
)

func TestCorrectCounterResetsSingleReset(t *testing.T) {
	c := NewCorrector(nil)
	readings := series(100, 110, 120, 130, 140, 50, 60, 70, 80, 90)
	anomalies := NewDetector(nil).DetectCounterResets(readings)
	require.Len(t, anomalies, 1)

	corrected := c.CorrectCounterResets(readings, anomalies)
	require.Len(t, corrected, len(readings))

	want := []float64{100, 110, 120, 130, 140, 140, 150, 160, 170, 180}
	for i, row := range corrected {
		assert.Equal(t, want[i], row.CorrectedValue, "row %d", i)
		assert.Equal(t, readings[i].Value, row.Value, "original value must be preserved")
		assert.Equal(t, i >= 5, row.IsCorrected, "row %d", i)
		if row.IsCorrected {
			assert.Equal(t, domain.CounterReset, row.CorrectionType, "row %d", i)
		} else {
			assert.Empty(t, row.CorrectionType, "row %d", i)
		}
	}
}

func TestCorrectCounterResetsZeroOffsetLeavesNoMark(t *testing.T) {
	c := NewCorrector(nil)
	readings := series(100, 100)
	a := domain.Anomaly{
		Type:            domain.CounterReset,
		Date:            day0.AddDate(0, 0, 1),
		PreviousValue:   100,
		CurrentValue:    100,
		AssetID:         "asset-001",
		ConsumptionType: "electricity",
	}

	corrected := c.CorrectCounterResets(readings, []domain.Anomaly{a})
	for i, row := range corrected {
		assert.Equal(t, readings[i].Value, row.CorrectedValue)
		assert.False(t, row.IsCorrected, "row %d", i)
		assert.Empty(t, row.CorrectionType, "type and flag must agree on a zero-offset record")
	}
}

func TestCorrectCounterResetsCompounding(t *testing.T) {
	c := NewCorrector(nil)
	readings := series(100, 120, 30, 50, 10)
	anomalies := NewDetector(nil).DetectCounterResets(readings)
	require.Len(t, anomalies, 2)

	corrected := c.CorrectCounterResets(readings, anomalies)

	// o1=90 applies from d2 onward, o2=40 stacks on top from d4 onward
	want := []float64{100, 120, 120, 140, 140}
	for i, row := range corrected {
		assert.Equal(t, want[i], row.CorrectedValue, "row %d", i)
	}
	assert.False(t, corrected[0].IsCorrected)
	assert.False(t, corrected[1].IsCorrected)
	assert.True(t, corrected[2].IsCorrected)
	assert.True(t, corrected[4].IsCorrected)
}

func TestCorrectCounterResetsNoAnomalies(t *testing.T) {
	c := NewCorrector(nil)
	readings := series(100, 110, 120)

	corrected := c.CorrectCounterResets(readings, []domain.Anomaly{})
	require.Len(t, corrected, 3)
	for i, row := range corrected {
		assert.Equal(t, readings[i].Value, row.CorrectedValue)
		assert.False(t, row.IsCorrected)
	}
}

func TestCorrectCounterResetsEmptySeries(t *testing.T) {
	c := NewCorrector(nil)
	assert.Empty(t, c.CorrectCounterResets(nil, nil))
	assert.Empty(t, c.CorrectCounterResets([]domain.Reading{}, nil))
}

func TestCorrectCounterResetsFetchesFromStore(t *testing.T) {
	readings := series(100, 110, 20, 30)
	store := &fakeStore{}
	// detect through a persisting detector, then correct with nil anomalies
	NewDetector(store).DetectCounterResets(readings)
	require.Len(t, store.anomalies, 1)

	corrected := NewCorrector(store).CorrectCounterResets(readings, nil)
	want := []float64{100, 110, 110, 120}
	for i, row := range corrected {
		assert.Equal(t, want[i], row.CorrectedValue, "row %d", i)
	}
}

func TestCorrectCounterResetsRespectsSeriesKeys(t *testing.T) {
	c := NewCorrector(nil)
	readings := series(100, 110, 20)
	other := domain.Anomaly{
		Type:            domain.CounterReset,
		Date:            day0,
		Offset:          500,
		AssetID:         "asset-999",
		ConsumptionType: "water",
	}

	corrected := c.CorrectCounterResets(readings, []domain.Anomaly{other})
	for i, row := range corrected {
		assert.Equal(t, readings[i].Value, row.CorrectedValue, "foreign anomaly must not shift this series")
	}
}

func TestCorrectCounterResetsOffsetFallback(t *testing.T) {
	c := NewCorrector(nil)
	readings := series(100, 40)
	a := domain.Anomaly{
		Type:            domain.CounterReset,
		Date:            day0.AddDate(0, 0, 1),
		PreviousValue:   100,
		CurrentValue:    40,
		AssetID:         "asset-001",
		ConsumptionType: "electricity",
		// Offset left unset: previous_value - current_value applies
	}

	corrected := c.CorrectCounterResets(readings, []domain.Anomaly{a})
	assert.Equal(t, 100.0, corrected[0].CorrectedValue)
	assert.Equal(t, 100.0, corrected[1].CorrectedValue)
}

func TestCorrectCounterResetsSkipsZeroDateAnomaly(t *testing.T) {
	c := NewCorrector(nil)
	readings := series(100, 40)
	good := domain.Anomaly{
		Type:    domain.CounterReset,
		Date:    day0.AddDate(0, 0, 1),
		Offset:  60,
		AssetID: "asset-001",
	}
	bad := domain.Anomaly{Type: domain.CounterReset, Offset: 1000, AssetID: "asset-001"}

	corrected := c.CorrectCounterResets(readings, []domain.Anomaly{bad, good})
	assert.Equal(t, 100.0, corrected[1].CorrectedValue, "unusable anomaly must not abort the rest")
}

func TestCorrectSensorReplacementMarksWithoutOffset(t *testing.T) {
	c := NewCorrector(nil)
	readings := series(2000, 2100, 10, 20)
	a := domain.Anomaly{
		Type:            domain.SensorReplacement,
		Date:            day0.AddDate(0, 0, 2),
		PreviousValue:   2100,
		CurrentValue:    10,
		Offset:          2090,
		AssetID:         "asset-001",
		ConsumptionType: "electricity",
	}

	corrected := c.CorrectCounterResets(readings, []domain.Anomaly{a})
	for i, row := range corrected {
		assert.Equal(t, readings[i].Value, row.CorrectedValue, "row %d: replacements shift nothing", i)
		assert.False(t, row.IsCorrected)
	}
	assert.True(t, corrected[2].IsSensorReplacement)
	assert.Equal(t, domain.SensorReplacement, corrected[2].CorrectionType)
	assert.True(t, corrected[1].IsLastBeforeReplacement)
	assert.False(t, corrected[0].IsLastBeforeReplacement)
}
