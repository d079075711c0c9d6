package repo

import (
	"context"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/audit/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

// Only the trail of the order tables is exposed.
const selectRecords = `SELECT id, username, event_timestamp, action_name, object_name, return_code
	FROM audit_trail WHERE object_name IN ('ORDERS', 'ORDER_DETAILS')`

const newestFirst = ` ORDER BY event_timestamp DESC, id DESC`

type AuditRepo struct {
	exec *database.Executor
}

func NewAuditRepo(exec *database.Executor) *AuditRepo { return &AuditRepo{exec: exec} }

func (r *AuditRepo) List(ctx context.Context) ([]entity.Record, error) {
	return database.Select[entity.Record](ctx, r.exec, selectRecords+newestFirst, nil)
}

// ListByUser matches the username case-insensitively; logins are stored as the
// server reports them.
func (r *AuditRepo) ListByUser(ctx context.Context, username string) ([]entity.Record, error) {
	q := selectRecords + ` AND LOWER(username) = LOWER(:username)` + newestFirst
	return database.Select[entity.Record](ctx, r.exec, q, map[string]any{"username": username})
}
