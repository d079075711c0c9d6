package product

import (
	"context"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/asset"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/product/entity"
	productrepo "github.com/ovaphlow/pitchfork/service-retail-go/internal/product/repo"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

const entityName = "product"

// Service exposes product operations for one session. Products are never
// deleted, only deactivated.
type Service struct {
	repo   *productrepo.ProductRepo
	images *asset.ImageStore
	logger *zap.SugaredLogger
}

// NewService builds the service. images may be nil when the caller never
// attaches images.
func NewService(sess *session.Session, images *asset.ImageStore, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = sess.Logger()
	}
	return &Service{repo: productrepo.NewProductRepo(sess.Executor()), images: images, logger: logger}
}

func (s *Service) List(ctx context.Context, keyword, filter string) ([]entity.Product, error) {
	out, err := s.repo.List(ctx, keyword, filter)
	return out, database.Wrap(err, entityName, "list")
}

func (s *Service) ListForOrder(ctx context.Context, keyword string) ([]entity.OrderProduct, error) {
	out, err := s.repo.ListForOrder(ctx, keyword)
	return out, database.Wrap(err, entityName, "list for order")
}

// GetByID returns the product even when it has been deactivated.
func (s *Service) GetByID(ctx context.Context, id int64) (*entity.Product, error) {
	p, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, database.Wrap(err, entityName, "get")
	}
	if p == nil {
		return nil, database.NotFound(entityName, "get")
	}
	return p, nil
}

func (s *Service) Create(ctx context.Context, p *entity.Product) (int64, error) {
	id, err := s.repo.Create(ctx, p)
	if err != nil {
		return 0, database.Wrap(err, entityName, "create")
	}
	s.logger.Infow("product created", "id", id, "name", p.Name)
	return id, nil
}

// Update rewrites the whole product row. An unknown id updates nothing and
// returns 0.
func (s *Service) Update(ctx context.Context, p *entity.Product) (int64, error) {
	n, err := s.repo.Update(ctx, p)
	if err != nil {
		return 0, database.Wrap(err, entityName, "update")
	}
	return n, nil
}

// Deactivate hides the product from listings. Repeating it is harmless.
func (s *Service) Deactivate(ctx context.Context, id int64) error {
	if _, err := s.repo.SetActive(ctx, id, false); err != nil {
		return database.Wrap(err, entityName, "deactivate")
	}
	s.logger.Infow("product deactivated", "id", id)
	return nil
}

// SetImage imports src into the image store and points the product at the
// stored file, returning its name.
func (s *Service) SetImage(ctx context.Context, id int64, src string) (string, error) {
	if s.images == nil {
		return "", &database.Error{Kind: database.KindExecution, Entity: entityName, Op: "set image", Err: database.ErrUnsupported}
	}
	if _, err := s.GetByID(ctx, id); err != nil {
		return "", database.Wrap(err, entityName, "set image")
	}
	name, err := s.images.Import(src)
	if err != nil {
		return "", err
	}
	if _, err := s.repo.SetImage(ctx, id, name); err != nil {
		return "", database.Wrap(err, entityName, "set image")
	}
	return name, nil
}
