package customer

import (
	"context"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/customer/entity"
	customerrepo "github.com/ovaphlow/pitchfork/service-retail-go/internal/customer/repo"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

const entityName = "customer"

// Service exposes customer operations for one session. Customers are never
// deleted.
type Service struct {
	sess   *session.Session
	repo   *customerrepo.CustomerRepo
	logger *zap.SugaredLogger
}

func NewService(sess *session.Session, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = sess.Logger()
	}
	return &Service{sess: sess, repo: customerrepo.NewCustomerRepo(sess.Executor()), logger: logger}
}

func (s *Service) List(ctx context.Context, keyword, filter string) ([]entity.Customer, error) {
	out, err := s.repo.List(ctx, keyword, filter)
	return out, database.Wrap(err, entityName, "list")
}

func (s *Service) Search(ctx context.Context, term string) ([]entity.Customer, error) {
	out, err := s.repo.Search(ctx, term)
	return out, database.Wrap(err, entityName, "search")
}

func (s *Service) GetByID(ctx context.Context, id int64) (*entity.Customer, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, database.Wrap(err, entityName, "get")
	}
	if c == nil {
		return nil, database.NotFound(entityName, "get")
	}
	return c, nil
}

// FindByPhone sets the session's security context to phone and then looks the
// customer up on the same connection. Which rows are visible is decided by the
// database policy for the logged-in role.
func (s *Service) FindByPhone(ctx context.Context, phone string) (*entity.Customer, error) {
	if err := s.sess.SetSecurityContext(ctx, phone); err != nil {
		return nil, database.Wrap(err, entityName, "find by phone")
	}
	c, err := s.repo.GetByPhone(ctx, phone)
	if err != nil {
		return nil, database.Wrap(err, entityName, "find by phone")
	}
	if c == nil {
		return nil, database.NotFound(entityName, "find by phone")
	}
	return c, nil
}

// Create inserts the customer and returns its generated id. The security
// context is set to the new phone number first so the inserted row is visible
// to the RETURNING clause under row-level security.
func (s *Service) Create(ctx context.Context, c *entity.Customer) (int64, error) {
	if err := s.sess.SetSecurityContext(ctx, c.PhoneNumber); err != nil {
		return 0, database.Wrap(err, entityName, "create")
	}
	id, err := s.repo.Create(ctx, c)
	if err != nil {
		return 0, database.Wrap(err, entityName, "create")
	}
	s.logger.Infow("customer created", "id", id)
	return id, nil
}

// Update rewrites name, email, date of birth and gender. The phone number is
// not written; when set, it becomes the security context first so a
// non-manager login can see the row under row-level security. An unknown or
// invisible id updates nothing and returns 0.
func (s *Service) Update(ctx context.Context, c *entity.Customer) (int64, error) {
	if c.PhoneNumber != "" {
		if err := s.sess.SetSecurityContext(ctx, c.PhoneNumber); err != nil {
			return 0, database.Wrap(err, entityName, "update")
		}
	}
	n, err := s.repo.Update(ctx, c)
	if err != nil {
		return 0, database.Wrap(err, entityName, "update")
	}
	return n, nil
}
