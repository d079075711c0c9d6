package employee

import (
	"context"
	"errors"
	"strings"

	"github.com/lib/pq"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/employee/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

// Provisioner manages the database login behind each employee. It runs with
// administrative rights, never as the acting user.
type Provisioner interface {
	CreateLogin(ctx context.Context, username, password string, role entity.Role) error
	SetLoginEnabled(ctx context.Context, username string, enabled bool) error
}

// ErrNoDatabaseName is returned when a login would be granted CONNECT on an
// unnamed database.
var ErrNoDatabaseName = errors.New("database name not configured, set DATABASE_NAME")

type execer interface {
	Execute(ctx context.Context, stmt string, params any) (int64, error)
}

// DBProvisioner issues role DDL through an admin executor. Role DDL cannot
// take bind parameters, so identifiers and literals are quoted instead.
type DBProvisioner struct {
	admin    execer
	dialect  database.Dialect
	database string
}

func NewDBProvisioner(admin execer, d database.Dialect, dbName string) *DBProvisioner {
	return &DBProvisioner{admin: admin, dialect: d, database: dbName}
}

// CreateLogin creates the login, lets it connect and grants the role's group.
// The statements run in one transaction.
func (p *DBProvisioner) CreateLogin(ctx context.Context, username, password string, role entity.Role) error {
	if p.dialect.Family != database.FamilyPostgres {
		return &database.Error{Kind: database.KindExecution, Entity: "login", Op: "create", Err: database.ErrUnsupported}
	}
	if p.database == "" {
		return &database.Error{Kind: database.KindExecution, Entity: "login", Op: "create", Err: ErrNoDatabaseName}
	}
	user := pq.QuoteIdentifier(username)
	stmts := []string{
		"CREATE ROLE " + user + " LOGIN PASSWORD " + pq.QuoteLiteral(password),
		"GRANT CONNECT ON DATABASE " + pq.QuoteIdentifier(p.database) + " TO " + user,
		"GRANT " + role.LoginRole() + " TO " + user,
	}
	_, err := p.admin.Execute(ctx, strings.Join(stmts, ";\n"), nil)
	return database.Wrap(err, "login", "create")
}

// SetLoginEnabled toggles LOGIN on the role; a disabled login keeps its grants.
func (p *DBProvisioner) SetLoginEnabled(ctx context.Context, username string, enabled bool) error {
	if p.dialect.Family != database.FamilyPostgres {
		return &database.Error{Kind: database.KindExecution, Entity: "login", Op: "alter", Err: database.ErrUnsupported}
	}
	option := "NOLOGIN"
	if enabled {
		option = "LOGIN"
	}
	_, err := p.admin.Execute(ctx, "ALTER ROLE "+pq.QuoteIdentifier(username)+" "+option, nil)
	return database.Wrap(err, "login", "alter")
}
