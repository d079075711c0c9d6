package employee

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/employee/entity"
	employeerepo "github.com/ovaphlow/pitchfork/service-retail-go/internal/employee/repo"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

const entityName = "employee"

var ErrInvalidRole = errors.New("role must be MANAGER or EMPLOYEE")

// Service exposes employee operations for one session. Creating and locking
// employees also changes their database logins through the provisioner.
type Service struct {
	repo   *employeerepo.EmployeeRepo
	prov   Provisioner
	logger *zap.SugaredLogger
}

func NewService(sess *session.Session, prov Provisioner, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = sess.Logger()
	}
	return &Service{repo: employeerepo.NewEmployeeRepo(sess.Executor()), prov: prov, logger: logger}
}

func (s *Service) List(ctx context.Context, keyword, filter string) ([]entity.Employee, error) {
	out, err := s.repo.List(ctx, keyword, filter)
	return out, database.Wrap(err, entityName, "list")
}

func (s *Service) GetByID(ctx context.Context, id int64) (*entity.Employee, error) {
	e, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, database.Wrap(err, entityName, "get")
	}
	if e == nil {
		return nil, database.NotFound(entityName, "get")
	}
	return e, nil
}

func (s *Service) GetByUsername(ctx context.Context, username string) (*entity.Employee, error) {
	e, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		return nil, database.Wrap(err, entityName, "get by username")
	}
	if e == nil {
		return nil, database.NotFound(entityName, "get by username")
	}
	return e, nil
}

// Create provisions the database login and then inserts the employee row,
// returning its id. The two steps are on different connections; when the
// insert fails after the login exists the error is of kind Partial and the
// login has to be dropped or reused by the operator.
func (s *Service) Create(ctx context.Context, e *entity.Employee, password string) (int64, error) {
	if !e.Role.Valid() {
		return 0, &database.Error{Kind: database.KindExecution, Entity: entityName, Op: "create", Err: fmt.Errorf("%w: %q", ErrInvalidRole, e.Role)}
	}
	if err := s.prov.CreateLogin(ctx, e.Username, password, e.Role); err != nil {
		return 0, database.Wrap(err, entityName, "create login")
	}
	id, err := s.repo.Create(ctx, e)
	if err != nil {
		s.logger.Errorw("employee row insert failed after login was provisioned", "username", e.Username, "err", err)
		return 0, &database.Error{Kind: database.KindPartial, Entity: entityName, Op: "create", Err: err}
	}
	e.ID = id
	s.logger.Infow("employee created", "id", id, "username", e.Username, "role", e.Role)
	return id, nil
}

// Update rewrites name, date of birth, gender, address, phone number and
// email. An unknown id updates nothing and returns 0.
func (s *Service) Update(ctx context.Context, e *entity.Employee) (int64, error) {
	n, err := s.repo.Update(ctx, e)
	if err != nil {
		return 0, database.Wrap(err, entityName, "update")
	}
	return n, nil
}

// Lock disables the employee's login and marks the row locked.
func (s *Service) Lock(ctx context.Context, username string) error {
	return s.setLocked(ctx, username, true)
}

// Unlock re-enables the login and clears the lock flag.
func (s *Service) Unlock(ctx context.Context, username string) error {
	return s.setLocked(ctx, username, false)
}

func (s *Service) setLocked(ctx context.Context, username string, locked bool) error {
	op := "unlock"
	if locked {
		op = "lock"
	}
	if _, err := s.GetByUsername(ctx, username); err != nil {
		return database.Wrap(err, entityName, op)
	}
	if err := s.prov.SetLoginEnabled(ctx, username, !locked); err != nil {
		return database.Wrap(err, entityName, op)
	}
	if _, err := s.repo.SetLocked(ctx, username, locked); err != nil {
		return &database.Error{Kind: database.KindPartial, Entity: entityName, Op: op, Err: err}
	}
	s.logger.Infow("employee "+op+"ed", "username", username)
	return nil
}
