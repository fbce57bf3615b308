package database

import (
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"github.com/dbatlle-23/alfred-dashboard-sub000/internal/config"
)

// Connect opens the Postgres store behind the configured DB_DSN.
func Connect() (*sqlx.DB, error) {
	return sqlx.Connect("pgx", config.DBDSN())
}
