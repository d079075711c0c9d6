package audit

import (
	"context"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/audit/entity"
	auditrepo "github.com/ovaphlow/pitchfork/service-retail-go/internal/audit/repo"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

const entityName = "audit"

// Service reads the audit trail of order activity, newest first.
type Service struct {
	repo   *auditrepo.AuditRepo
	logger *zap.SugaredLogger
}

func NewService(sess *session.Session, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = sess.Logger()
	}
	return &Service{repo: auditrepo.NewAuditRepo(sess.Executor()), logger: logger}
}

func (s *Service) List(ctx context.Context) ([]entity.Record, error) {
	out, err := s.repo.List(ctx)
	return out, database.Wrap(err, entityName, "list")
}

// GetUserAudit returns one user's trail. An empty username lists everyone.
func (s *Service) GetUserAudit(ctx context.Context, username string) ([]entity.Record, error) {
	if username == "" {
		return s.List(ctx)
	}
	out, err := s.repo.ListByUser(ctx, username)
	if err != nil {
		return nil, database.Wrap(err, entityName, "get user audit")
	}
	s.logger.Debugw("audit trail read", "username", username, "records", len(out))
	return out, nil
}
