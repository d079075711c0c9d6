package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/order/entity"
	orderrepo "github.com/ovaphlow/pitchfork/service-retail-go/internal/order/repo"
	productrepo "github.com/ovaphlow/pitchfork/service-retail-go/internal/product/repo"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/session"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

const entityName = "order"

var (
	// ErrInsufficientStock is wrapped in a constraint error when a line asks
	// for more units than the product holds.
	ErrInsufficientStock = errors.New("insufficient stock")
	// ErrProductUnavailable is wrapped in a constraint error when a line names
	// an unknown or deactivated product.
	ErrProductUnavailable = errors.New("product not available for sale")
)

// Service exposes order operations for one session.
type Service struct {
	exec   *database.Executor
	repo   *orderrepo.OrderRepo
	logger *zap.SugaredLogger
}

func NewService(sess *session.Session, logger *zap.SugaredLogger) *Service {
	if logger == nil {
		logger = sess.Logger()
	}
	exec := sess.Executor()
	return &Service{exec: exec, repo: orderrepo.NewOrderRepo(exec), logger: logger}
}

func (s *Service) List(ctx context.Context, keyword, filter string) ([]entity.Order, error) {
	out, err := s.repo.List(ctx, keyword, filter)
	return out, database.Wrap(err, entityName, "list")
}

func (s *Service) GetByID(ctx context.Context, id int64) (*entity.Order, error) {
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, database.Wrap(err, entityName, "get")
	}
	if o == nil {
		return nil, database.NotFound(entityName, "get")
	}
	return o, nil
}

func (s *Service) ListDetails(ctx context.Context, orderID int64) ([]entity.DetailView, error) {
	out, err := s.repo.ListDetails(ctx, orderID)
	return out, database.Wrap(err, entityName, "list details")
}

// Create inserts the header and every line, taking each line's quantity out of
// stock, in one transaction. Any failure leaves nothing behind and leaves o and
// lines untouched; on success they carry the stored ids, order id and prices.
func (s *Service) Create(ctx context.Context, o *entity.Order, lines []entity.Detail) (int64, error) {
	header := *o
	if header.OrderDateTime.IsZero() {
		header.OrderDateTime = time.Now().UTC()
	}
	stored := make([]entity.Detail, len(lines))
	err := s.exec.InTx(ctx, func(tx *database.Executor) error {
		var err error
		header.ID, err = orderrepo.NewOrderRepo(tx).Create(ctx, &header)
		if err != nil {
			return err
		}
		for i, line := range lines {
			line.OrderID = header.ID
			if stored[i], err = createDetail(ctx, tx, line); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, database.Wrap(err, entityName, "create")
	}
	*o = header
	copy(lines, stored)
	s.logger.Infow("order created", "id", header.ID, "customer_id", header.CustomerID, "lines", len(lines))
	return header.ID, nil
}

// CreateDetail adds one line to an existing order and takes its quantity out
// of stock in the same transaction. d is updated only when the line is stored.
func (s *Service) CreateDetail(ctx context.Context, d *entity.Detail) (int64, error) {
	var stored entity.Detail
	err := s.exec.InTx(ctx, func(tx *database.Executor) error {
		var err error
		stored, err = createDetail(ctx, tx, *d)
		return err
	})
	if err != nil {
		return 0, database.Wrap(err, entityName, "create detail")
	}
	*d = stored
	return stored.ID, nil
}

// createDetail checks the product is on sale, snapshots its current price when
// the line carries none, inserts the line and decrements stock. tx must be
// transaction-bound.
func createDetail(ctx context.Context, tx *database.Executor, d entity.Detail) (entity.Detail, error) {
	products := productrepo.NewProductRepo(tx)
	p, err := products.GetByID(ctx, d.ProductID)
	if err != nil {
		return d, err
	}
	if p == nil || !p.Active {
		return d, &database.Error{Kind: database.KindConstraint, Err: fmt.Errorf("%w: product %d", ErrProductUnavailable, d.ProductID)}
	}
	if d.UnitPrice <= 0 {
		d.UnitPrice = p.UnitPrice
	}
	if d.ID, err = orderrepo.NewOrderRepo(tx).CreateDetail(ctx, &d); err != nil {
		return d, err
	}
	n, err := products.DecrementStock(ctx, d.ProductID, d.Quantity)
	if err != nil {
		return d, err
	}
	if n == 0 {
		return d, &database.Error{Kind: database.KindConstraint, Err: fmt.Errorf("%w: product %d", ErrInsufficientStock, d.ProductID)}
	}
	return d, nil
}
