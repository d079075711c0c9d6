package employee

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ovaphlow/pitchfork/service-retail-go/internal/employee/entity"
	"github.com/ovaphlow/pitchfork/service-retail-go/internal/session/sessiontest"
	"github.com/ovaphlow/pitchfork/service-retail-go/pkg/database"
)

type fakeProvisioner struct {
	logins  map[string]entity.Role
	enabled map[string]bool
	err     error
}

func newFakeProvisioner() *fakeProvisioner {
	return &fakeProvisioner{logins: map[string]entity.Role{}, enabled: map[string]bool{}}
}

func (f *fakeProvisioner) CreateLogin(_ context.Context, username, _ string, role entity.Role) error {
	if f.err != nil {
		return f.err
	}
	f.logins[username] = role
	f.enabled[username] = true
	return nil
}

func (f *fakeProvisioner) SetLoginEnabled(_ context.Context, username string, enabled bool) error {
	if f.err != nil {
		return f.err
	}
	f.enabled[username] = enabled
	return nil
}

func strPtr(s string) *string { return &s }

func newService(t *testing.T) (*Service, *fakeProvisioner) {
	t.Helper()
	prov := newFakeProvisioner()
	return NewService(sessiontest.Open(t), prov, nil), prov
}

func TestCreateProvisionsLoginThenRow(t *testing.T) {
	svc, prov := newService(t)
	ctx := context.Background()

	e := entity.Employee{Name: "Alice", Username: "alice", Role: entity.RoleEmployee, Email: strPtr("alice@shop.vn")}
	id, err := svc.Create(ctx, &e, "s3cret")
	require.NoError(t, err)
	assert.Equal(t, entity.RoleEmployee, prov.logins["alice"])

	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)
	assert.Equal(t, entity.RoleEmployee, got.Role)
	assert.False(t, got.Locked)

	byName, err := svc.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, id, byName.ID)
}

func TestCreateRejectsUnknownRole(t *testing.T) {
	svc, prov := newService(t)

	_, err := svc.Create(context.Background(), &entity.Employee{Name: "X", Username: "x", Role: "OWNER"}, "pw")
	assert.ErrorIs(t, err, ErrInvalidRole)
	assert.Empty(t, prov.logins)
}

func TestCreateLoginFailureInsertsNothing(t *testing.T) {
	svc, prov := newService(t)
	prov.err = &database.Error{Kind: database.KindConstraint, Err: errors.New("role exists")}
	ctx := context.Background()

	_, err := svc.Create(ctx, &entity.Employee{Name: "Bob", Username: "bob", Role: entity.RoleManager}, "pw")
	assert.ErrorIs(t, err, database.ErrConstraint)
	assert.NotErrorIs(t, err, database.ErrPartial)

	all, err := svc.List(ctx, "", "")
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestCreateRowFailureIsPartial(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, &entity.Employee{Name: "Bob", Username: "bob", Role: entity.RoleManager}, "pw")
	require.NoError(t, err)
	_, err = svc.Create(ctx, &entity.Employee{Name: "Bobby", Username: "bob", Role: entity.RoleEmployee}, "pw")
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrPartial)

	var de *database.Error
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "employee", de.Entity)
	assert.Equal(t, "create", de.Op)
}

func TestListByUsername(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	for _, e := range []entity.Employee{
		{Name: "Alice", Username: "alice", Role: entity.RoleEmployee},
		{Name: "Bob", Username: "bob", Role: entity.RoleManager},
	} {
		_, err := svc.Create(ctx, &e, "pw")
		require.NoError(t, err)
	}

	got, err := svc.List(ctx, "ali", "username")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "alice", got[0].Username)

	got, err = svc.List(ctx, "manager", "role")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "bob", got[0].Username)

	_, err = svc.List(ctx, "x", "password")
	assert.ErrorIs(t, err, database.ErrInvalidFilter)
}

func TestUpdateContactFields(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()
	e := entity.Employee{Name: "Carol", Username: "carol", Role: entity.RoleEmployee}
	id, err := svc.Create(ctx, &e, "pw")
	require.NoError(t, err)

	n, err := svc.Update(ctx, &entity.Employee{ID: id, Name: "Carol Le", Address: strPtr("12 Le Loi"), PhoneNumber: strPtr("0903"), Username: "ignored", Role: entity.RoleManager})
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	got, err := svc.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Carol Le", got.Name)
	assert.Equal(t, "12 Le Loi", *got.Address)
	assert.Equal(t, "carol", got.Username)
	assert.Equal(t, entity.RoleEmployee, got.Role)
}

func TestLockAndUnlock(t *testing.T) {
	svc, prov := newService(t)
	ctx := context.Background()
	e := entity.Employee{Name: "Dan", Username: "dan", Role: entity.RoleEmployee}
	_, err := svc.Create(ctx, &e, "pw")
	require.NoError(t, err)

	require.NoError(t, svc.Lock(ctx, "dan"))
	assert.False(t, prov.enabled["dan"])
	got, err := svc.GetByUsername(ctx, "dan")
	require.NoError(t, err)
	assert.True(t, got.Locked)

	require.NoError(t, svc.Unlock(ctx, "dan"))
	assert.True(t, prov.enabled["dan"])
	got, err = svc.GetByUsername(ctx, "dan")
	require.NoError(t, err)
	assert.False(t, got.Locked)

	err = svc.Lock(ctx, "nobody")
	assert.ErrorIs(t, err, database.ErrNotFound)
	_, touched := prov.enabled["nobody"]
	assert.False(t, touched)
}
