package product_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/asset"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/product"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/product/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/session/sessiontest"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

func int64Ptr(v int64) *int64 { return &v }

func newService(t *testing.T) *product.Service {
	t.Helper()
	sess := sessiontest.Open(t)
	ctx := context.Background()
	_, err := sess.Executor().Execute(ctx, `INSERT INTO categories (name) VALUES ('Shoes'), ('Bags')`, nil)
	require.NoError(t, err)
	_, err = sess.Executor().Execute(ctx, `INSERT INTO brands (name) VALUES ('Acme')`, nil)
	require.NoError(t, err)
	images := asset.NewImageStore(asset.Config{Dir: t.TempDir()}, sess.Logger())
	return product.NewService(sess, images, nil)
}

func TestCreateGetRoundTrip(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	in := entity.Product{Name: "Runner", Image: "runner.png", UnitPrice: 129900, StockQuantity: 10, CategoryID: int64Ptr(1), BrandID: int64Ptr(1), Active: true}
	id, err := svc.Create(ctx, &in)
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	in.ID = id
	assert.Equal(t, in, *got)
}

func TestGetByIDMissingIsNotFound(t *testing.T) {
	svc := newService(t)

	_, err := svc.GetByID(context.Background(), 99)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestDeactivateIsIdempotent(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, &entity.Product{Name: "Tote", UnitPrice: 5000, StockQuantity: 3, Active: true})
	require.NoError(t, err)

	for range 2 {
		require.NoError(t, svc.Deactivate(ctx, id))
		got, err := svc.GetByID(ctx, id)
		require.NoError(t, err)
		assert.False(t, got.Active)
	}

	listed, err := svc.List(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, listed)
}

func TestListSkipsInactiveAndFilters(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	for _, p := range []entity.Product{
		{Name: "Trail Runner", UnitPrice: 100, StockQuantity: 1, CategoryID: int64Ptr(1), Active: true},
		{Name: "City Runner", UnitPrice: 200, StockQuantity: 1, CategoryID: int64Ptr(1), Active: false},
		{Name: "Backpack", UnitPrice: 300, StockQuantity: 1, CategoryID: int64Ptr(2), Active: true},
	} {
		_, err := svc.Create(ctx, &p)
		require.NoError(t, err)
	}

	all, err := svc.List(ctx, "", "")
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Trail Runner", all[0].Name)
	assert.Equal(t, "Backpack", all[1].Name)

	byName, err := svc.List(ctx, "RUNNER", "name")
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "Trail Runner", byName[0].Name)

	byCategory, err := svc.List(ctx, "2", "category_id")
	require.NoError(t, err)
	require.Len(t, byCategory, 1)
	assert.Equal(t, "Backpack", byCategory[0].Name)

	_, err = svc.List(ctx, "two", "category_id")
	assert.ErrorIs(t, err, database.ErrInvalidFilter)
	_, err = svc.List(ctx, "x", "unit_price")
	assert.ErrorIs(t, err, database.ErrInvalidFilter)

	forOrder, err := svc.ListForOrder(ctx, "runner")
	require.NoError(t, err)
	require.Len(t, forOrder, 1)
	assert.Equal(t, entity.OrderProduct{ID: all[0].ID, Name: "Trail Runner", UnitPrice: 100, StockQuantity: 1}, forOrder[0])
}

func TestUpdate(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, &entity.Product{Name: "Cap", UnitPrice: 100, StockQuantity: 1, Active: true})
	require.NoError(t, err)
	_, err = svc.Create(ctx, &entity.Product{Name: "Scarf", UnitPrice: 100, StockQuantity: 1, Active: true})
	require.NoError(t, err)

	n, err := svc.Update(ctx, &entity.Product{ID: id, Name: "Cap v2", UnitPrice: 150, StockQuantity: 4, Active: true})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Cap v2", got.Name)
	assert.EqualValues(t, 150, got.UnitPrice)

	n, err = svc.Update(ctx, &entity.Product{ID: 12345, Name: "Ghost", Active: true})
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = svc.Update(ctx, &entity.Product{ID: id, Name: "Scarf", UnitPrice: 100, Active: true})
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrConstraint)
	assert.ErrorIs(t, err, database.ErrExecution)
}

func TestSetImage(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	id, err := svc.Create(ctx, &entity.Product{Name: "Boot", UnitPrice: 100, StockQuantity: 1, Active: true})
	require.NoError(t, err)

	src := filepath.Join(t.TempDir(), "boot.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg bytes"), 0o644))

	first, err := svc.SetImage(ctx, id, src)
	require.NoError(t, err)
	assert.Equal(t, "boot.jpg", first)
	second, err := svc.SetImage(ctx, id, src)
	require.NoError(t, err)
	assert.Equal(t, "boot_1.jpg", second)

	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "boot_1.jpg", got.Image)

	_, err = svc.SetImage(ctx, id+1, src)
	assert.ErrorIs(t, err, database.ErrNotFound)
}
