package database

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/reflectx"
)

type Config struct {
	Dialect       Dialect
	URL           string
	Name          string
	AdminUser     string
	AdminPassword string
	MaxConns      int
	Timeout       time.Duration
	TimeZone      string
}

// ConfigFromEnv reads DB config from environment variables
func ConfigFromEnv() (Config, error) {
	driver := os.Getenv("DATABASE_DRIVER")
	if driver == "" {
		driver = "postgres"
	}
	d, err := DialectFor(driver)
	if err != nil {
		return Config{}, err
	}
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		// default local
		if d.Family == FamilySQLite {
			dsn = "./retail.db"
		} else {
			dsn = "postgres://localhost:5432/retail?sslmode=disable"
		}
	}
	name := os.Getenv("DATABASE_NAME")
	if name == "" && d.Family == FamilyPostgres {
		if u, err := url.Parse(dsn); err == nil {
			name = strings.TrimPrefix(u.Path, "/")
		}
	}
	timeout := 5 * time.Second
	if v := os.Getenv("DATABASE_TIMEOUT_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			timeout = time.Duration(n) * time.Second
		}
	}
	return Config{
		Dialect:       d,
		URL:           dsn,
		Name:          name,
		AdminUser:     os.Getenv("DB_ADMIN_USER"),
		AdminPassword: os.Getenv("DB_ADMIN_PASSWORD"),
		// each login owns exactly one connection
		MaxConns: 1,
		Timeout:  timeout,
		TimeZone: os.Getenv("DATABASE_TIMEZONE"),
	}, nil
}

// DSN returns the connection string for the given principal. Credentials are
// ignored by dialects that do not authenticate (sqlite).
func (c Config) DSN(username, password string) (string, error) {
	if c.Dialect.Family != FamilyPostgres || username == "" {
		return c.URL, nil
	}
	u, err := url.Parse(c.URL)
	if err != nil {
		return "", fmt.Errorf("parse database url: %w", err)
	}
	u.User = url.UserPassword(username, password)
	return u.String(), nil
}

// Connect opens a pool for one principal and verifies connectivity with a ping.
// Column names are matched to struct fields lower-cased.
func Connect(ctx context.Context, cfg Config, username, password string) (*sqlx.DB, error) {
	dsn, err := cfg.DSN(username, password)
	if err != nil {
		return nil, &Error{Kind: KindConnectivity, Op: "connect", Err: err}
	}
	db, err := sqlx.Open(cfg.Dialect.Name, dsn)
	if err != nil {
		return nil, &Error{Kind: KindConnectivity, Op: "open", Err: err}
	}
	db.Mapper = reflectx.NewMapperFunc("db", strings.ToLower)

	maxConns := cfg.MaxConns
	if maxConns <= 0 {
		maxConns = 1
	}
	db.SetMaxOpenConns(maxConns)
	db.SetMaxIdleConns(maxConns)
	db.SetConnMaxLifetime(0)

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()
		return nil, &Error{Kind: KindConnectivity, Op: "ping", Err: err}
	}
	return db, nil
}
