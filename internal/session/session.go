package session

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/utilities"
)

// ErrNoAdminCredentials is returned by OpenAdmin when DB_ADMIN_USER is unset.
var ErrNoAdminCredentials = errors.New("admin database credentials not configured")

// Session is one logged-in database principal. It owns a single pinned
// connection; every statement, and the row-level-security context, lives on
// that connection. Switching users means opening a new Session.
type Session struct {
	ID       string
	Username string

	dialect database.Dialect
	db      *sqlx.DB
	conn    *sqlx.Conn
	exec    *database.Executor
	logger  *zap.SugaredLogger
}

// Open logs in as username: it connects with those credentials and pins one
// connection for the lifetime of the session. Bad credentials and unreachable
// hosts come back as database.ErrConnectivity.
func Open(ctx context.Context, cfg database.Config, username, password string, logger *zap.SugaredLogger) (*Session, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	db, err := database.Connect(ctx, cfg, username, password)
	if err != nil {
		logger.Warnw("login failed", "username", username, "err", err)
		return nil, err
	}
	conn, err := db.Connx(ctx)
	if err != nil {
		db.Close()
		return nil, &database.Error{Kind: database.KindConnectivity, Op: "acquire connection", Err: err}
	}

	s := &Session{
		ID:       utilities.NewSnowflakeID(),
		Username: username,
		dialect:  cfg.Dialect,
		db:       db,
		conn:     conn,
	}
	s.logger = logger.With("session", s.ID)
	s.exec = database.NewExecutor(conn, cfg.Dialect.Name, s.logger)

	if stmt := cfg.Dialect.SetTimeZone(cfg.TimeZone); stmt != "" {
		if _, err := s.exec.Execute(ctx, stmt, nil); err != nil {
			s.Close()
			return nil, database.Wrap(err, "session", "set time zone")
		}
	}
	s.logger.Infow("session opened", "username", username, "driver", cfg.Dialect.Name)
	return s, nil
}

// OpenAdmin opens a session with the administrative credentials from the
// config. Dialects without authentication need none.
func OpenAdmin(ctx context.Context, cfg database.Config, logger *zap.SugaredLogger) (*Session, error) {
	if cfg.AdminUser == "" && cfg.Dialect.Family == database.FamilyPostgres {
		return nil, ErrNoAdminCredentials
	}
	return Open(ctx, cfg, cfg.AdminUser, cfg.AdminPassword, logger)
}

func (s *Session) Executor() *database.Executor { return s.exec }

func (s *Session) Dialect() database.Dialect { return s.dialect }

func (s *Session) Logger() *zap.SugaredLogger { return s.logger }

// SetSecurityContext sets the phone number the database's row-level-security
// policy filters customers by, for the rest of this session. It is a no-op on
// databases without such a policy.
func (s *Session) SetSecurityContext(ctx context.Context, phone string) error {
	stmt := s.dialect.SecurityContext
	if stmt == "" {
		return nil
	}
	if _, err := s.exec.Execute(ctx, stmt, map[string]any{"phone": phone}); err != nil {
		return database.Wrap(err, "session", "set security context")
	}
	s.logger.Debugw("security context set")
	return nil
}

// Close releases the pinned connection and the pool behind it.
func (s *Session) Close() error {
	connErr := s.conn.Close()
	dbErr := s.db.Close()
	s.logger.Infow("session closed", "username", s.Username)
	return errors.Join(connErr, dbErr)
}
