package database

import (
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	_ "modernc.org/sqlite"
)

const (
	FamilyPostgres = "postgres"
	FamilySQLite   = "sqlite"
)

// Dialect captures what differs between the supported drivers.
type Dialect struct {
	// Name is the database/sql driver name.
	Name   string
	Family string
	// Migrations is the directory inside the embedded migrations FS.
	Migrations string
	// SecurityContext sets the row-level-security phone predicate for the
	// session. Empty when the database has no such mechanism.
	SecurityContext string
}

var (
	Postgres = Dialect{
		Name:            "postgres",
		Family:          FamilyPostgres,
		Migrations:      "migrations/postgres",
		SecurityContext: "SELECT set_customer_context(:phone)",
	}
	PGX = Dialect{
		Name:            "pgx",
		Family:          FamilyPostgres,
		Migrations:      "migrations/postgres",
		SecurityContext: "SELECT set_customer_context(:phone)",
	}
	SQLite = Dialect{
		Name:       "sqlite",
		Family:     FamilySQLite,
		Migrations: "migrations/sqlite",
	}
)

func init() {
	// modernc registers as "sqlite", which sqlx does not know by default.
	sqlx.BindDriver(SQLite.Name, sqlx.QUESTION)
}

// DialectFor resolves a driver name to its dialect.
func DialectFor(driver string) (Dialect, error) {
	switch driver {
	case "postgres", "postgresql":
		return Postgres, nil
	case "pgx":
		return PGX, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return Dialect{}, fmt.Errorf("unsupported database driver %q", driver)
	}
}

// SetTimeZone returns the session statement for the time zone, or "" when the
// dialect has no session time zone.
func (d Dialect) SetTimeZone(tz string) string {
	if d.Family != FamilyPostgres || tz == "" {
		return ""
	}
	return "SET TIME ZONE " + pq.QuoteLiteral(tz)
}
