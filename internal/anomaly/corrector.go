package anomaly

import (
	"sort"

	"github.com/rs/zerolog/log"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/repository"
)

// Corrector re-bases a series after counter resets so it reads as one
// continuous cumulative curve.
type Corrector struct {
	store repository.AnomalyStore
}

// NewCorrector builds a corrector. A non-nil store lets it resolve
// anomalies itself when the caller passes none.
func NewCorrector(store repository.AnomalyStore) *Corrector {
	return &Corrector{store: store}
}

// CorrectCounterResets returns readings augmented with corrected values.
// Each counter-reset anomaly's offset is added to every reading at or after
// the anomaly's date, restricted to the anomaly's asset and consumption
// type when it carries them. Offsets from multiple resets are additive.
//
// A nil anomalies slice with a configured store triggers a lookup per
// distinct (asset, consumption type) pair in the series. Sensor
// replacements mark rows but shift nothing.
func (c *Corrector) CorrectCounterResets(readings []domain.Reading, anomalies []domain.Anomaly) []domain.CorrectedReading {
	if len(readings) == 0 {
		return nil
	}

	out := passthrough(readings)

	if anomalies == nil && c.store != nil {
		anomalies = c.fetchAnomalies(readings)
	}
	if len(anomalies) == 0 {
		return out
	}

	sorted := make([]domain.Anomaly, len(anomalies))
	copy(sorted, anomalies)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

	for _, a := range sorted {
		if a.Date.IsZero() {
			log.Warn().Str("asset_id", a.AssetID).Msg("skipping anomaly without a usable date")
			continue
		}
		switch a.Type {
		case domain.SensorReplacement:
			c.markSensorReplacement(out, a)
		case domain.CounterReset, "":
			offset := a.EffectiveOffset()
			for i := range out {
				if matches(out[i].Reading, a) {
					out[i].CorrectedValue += offset
				}
			}
		default:
			log.Debug().Str("type", string(a.Type)).Msg("ignoring anomaly of unknown type")
		}
	}

	for i := range out {
		out[i].IsCorrected = out[i].CorrectedValue != out[i].Value
		if out[i].IsCorrected && out[i].CorrectionType == "" {
			out[i].CorrectionType = domain.CounterReset
		}
	}
	return out
}

// markSensorReplacement flags the anomaly's own row and the last matching
// row before it; no offset is applied for replacements.
func (c *Corrector) markSensorReplacement(out []domain.CorrectedReading, a domain.Anomaly) {
	lastBefore := -1
	for i := range out {
		if !sameGroup(out[i].Reading, a) {
			continue
		}
		if out[i].Date.Equal(a.Date) {
			out[i].IsSensorReplacement = true
			out[i].CorrectionType = domain.SensorReplacement
		} else if out[i].Date.Before(a.Date) {
			lastBefore = i
		}
	}
	if lastBefore >= 0 {
		out[lastBefore].IsLastBeforeReplacement = true
	}
}

func (c *Corrector) fetchAnomalies(readings []domain.Reading) []domain.Anomaly {
	type pair struct{ asset, consumptionType string }
	seen := make(map[pair]bool)
	var all []domain.Anomaly
	for _, rd := range readings {
		p := pair{rd.AssetID, rd.ConsumptionType}
		if seen[p] {
			continue
		}
		seen[p] = true
		found, err := c.store.GetAnomalies(repository.AnomalyFilter{
			AssetID:         p.asset,
			ConsumptionType: p.consumptionType,
		})
		if err != nil {
			log.Warn().Err(err).
				Str("asset_id", p.asset).
				Str("consumption_type", p.consumptionType).
				Msg("anomaly lookup failed, series left uncorrected for that pair")
			continue
		}
		all = append(all, found...)
	}
	return all
}

// matches applies the correction mask: date at or after the anomaly, same
// asset and consumption type when the anomaly names them.
func matches(rd domain.Reading, a domain.Anomaly) bool {
	return !rd.Date.Before(a.Date) && sameGroup(rd, a)
}

func sameGroup(rd domain.Reading, a domain.Anomaly) bool {
	if a.AssetID != "" && rd.AssetID != a.AssetID {
		return false
	}
	if a.ConsumptionType != "" && rd.ConsumptionType != a.ConsumptionType {
		return false
	}
	return true
}

// passthrough copies readings into corrected form with no changes applied.
func passthrough(readings []domain.Reading) []domain.CorrectedReading {
	out := make([]domain.CorrectedReading, len(readings))
	for i, rd := range readings {
		out[i] = domain.CorrectedReading{Reading: rd, CorrectedValue: rd.Value}
	}
	return out
}
