package repository

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/domain"
)

// PostgresStore backs readings and anomaly records with Postgres. Schema:
//
//	readings(asset_id, consumption_type, date, consumption)
//	anomalies(id, type, date, previous_value, current_value, "offset",
//	          asset_id, consumption_type, detected_at, original_type,
//	          reclassified, reclassified_at)
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore { return &PostgresStore{db: db} }

var _ Store = (*PostgresStore)(nil)

func (s *PostgresStore) GetOriginalReadings(assetID, consumptionType string, start, end *time.Time) ([]domain.Reading, error) {
	query := `SELECT date, consumption, asset_id, consumption_type
		FROM readings WHERE asset_id = $1 AND consumption_type = $2`
	args := []interface{}{assetID, consumptionType}
	if start != nil {
		args = append(args, *start)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if end != nil {
		args = append(args, *end)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date"

	var out []domain.Reading
	if err := s.db.Select(&out, query, args...); err != nil {
		return nil, fmt.Errorf("select readings: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) AppendReading(rd domain.Reading) error {
	_, err := s.db.Exec(`INSERT INTO readings(asset_id, consumption_type, date, consumption)
		VALUES ($1,$2,$3,$4)
		ON CONFLICT (asset_id, consumption_type, date) DO UPDATE SET consumption = EXCLUDED.consumption`,
		rd.AssetID, rd.ConsumptionType, rd.Date, rd.Value)
	if err != nil {
		return fmt.Errorf("insert reading: %w", err)
	}
	return nil
}

func (s *PostgresStore) SaveAnomaly(a domain.Anomaly) (string, error) {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := s.db.Exec(`INSERT INTO anomalies(id, type, date, previous_value, current_value, "offset",
			asset_id, consumption_type, detected_at, original_type, reclassified, reclassified_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,NULLIF($10,''),$11,$12)`,
		a.ID, a.Type, a.Date, a.PreviousValue, a.CurrentValue, a.Offset,
		a.AssetID, a.ConsumptionType, a.DetectedAt, string(a.OriginalType), a.Reclassified,
		nullableTime(a.ReclassifiedAt))
	if err != nil {
		return "", fmt.Errorf("insert anomaly: %w", err)
	}
	return a.ID, nil
}

func (s *PostgresStore) GetAnomalies(filter AnomalyFilter) ([]domain.Anomaly, error) {
	query := `SELECT id, type, date, previous_value, current_value, "offset",
			asset_id, consumption_type, detected_at,
			COALESCE(original_type, '') AS original_type, reclassified,
			COALESCE(reclassified_at, '0001-01-01'::timestamptz) AS reclassified_at
		FROM anomalies WHERE 1=1`
	var args []interface{}
	if filter.AssetID != "" {
		args = append(args, filter.AssetID)
		query += fmt.Sprintf(" AND asset_id = $%d", len(args))
	}
	if filter.ConsumptionType != "" {
		args = append(args, filter.ConsumptionType)
		query += fmt.Sprintf(" AND consumption_type = $%d", len(args))
	}
	if filter.StartDate != nil {
		args = append(args, *filter.StartDate)
		query += fmt.Sprintf(" AND date >= $%d", len(args))
	}
	if filter.EndDate != nil {
		args = append(args, *filter.EndDate)
		query += fmt.Sprintf(" AND date <= $%d", len(args))
	}
	query += " ORDER BY date"

	var out []domain.Anomaly
	if err := s.db.Select(&out, query, args...); err != nil {
		return nil, fmt.Errorf("select anomalies: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateAnomaly(a domain.Anomaly) error {
	res, err := s.db.Exec(`UPDATE anomalies SET type=$1, previous_value=$2, current_value=$3, "offset"=$4,
			detected_at=$5, original_type=NULLIF($6,''), reclassified=$7, reclassified_at=$8
		WHERE asset_id=$9 AND date=$10`,
		a.Type, a.PreviousValue, a.CurrentValue, a.Offset,
		a.DetectedAt, string(a.OriginalType), a.Reclassified, nullableTime(a.ReclassifiedAt),
		a.AssetID, a.Date)
	if err != nil {
		return fmt.Errorf("update anomaly: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("no anomaly for %s at %s", a.AssetID, a.Date.Format("2006-01-02"))
	}
	return nil
}

func nullableTime(t time.Time) interface{} {
	if t.IsZero() {
		return nil
	}
	return t
}
