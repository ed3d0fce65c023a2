package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/fleet-backoffice/internal/database"
	"github.com/iliyamo/fleet-backoffice/internal/database/dbtest"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

func newUnit(db *database.DB, opts ...repository.Option) *repository.UnitOfWork {
	return repository.NewUnitOfWork(db.SQL, db.Builder, opts...)
}

func addVehicle(t *testing.T, db *database.DB, reg string) *model.Vehicle {
	t.Helper()
	u := newUnit(db)
	v := &model.Vehicle{RegistrationNumber: reg, Make: "Isuzu", Model: "NPR", VehicleType: "Truck", CapacityKg: 3500}
	repository.Repo[model.Vehicle](u).Add(v)
	n, err := u.SaveChanges(context.Background())
	require.NoError(t, err)
	require.EqualValues(t, 1, n)
	return v
}

func TestRepository_AddAndGet(t *testing.T) {
	t.Parallel()
	db := dbtest.New(t)
	ctx := context.Background()

	v := addVehicle(t, db, "SBA1234A")

	got, err := repository.Repo[model.Vehicle](newUnit(db)).GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "SBA1234A", got.RegistrationNumber)
	require.Equal(t, "Isuzu", got.Make)
	require.True(t, got.IsActive)
	require.Nil(t, got.ModifiedOn)
	require.Nil(t, got.Latitude)
}

func TestRepository_GetByIDMissing(t *testing.T) {
	t.Parallel()
	db := dbtest.New(t)

	got, err := repository.Repo[model.Vehicle](newUnit(db)).GetByID(context.Background(), model.NewID())
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestRepository_GetByIDWrongKeyCount(t *testing.T) {
	t.Parallel()
	db := dbtest.New(t)

	_, err := repository.Repo[model.UserRole](newUnit(db)).GetByID(context.Background(), model.NewID())
	require.Error(t, err)
}

func TestRepository_FindAndQuery(t *testing.T) {
	t.Parallel()
	db := dbtest.New(t)
	ctx := context.Background()

	addVehicle(t, db, "SBA1A")
	addVehicle(t, db, "SBC3C")
	addVehicle(t, db, "SBB2B")

	repo := repository.Repo[model.Vehicle](newUnit(db))

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)

	found, err := repo.Find(ctx, sq.Eq{"registration_number": []string{"SBA1A", "SBB2B"}})
	require.NoError(t, err)
	require.Len(t, found, 2)

	ordered, err := repo.Select(ctx, repo.Query().OrderBy("registration_number DESC").Limit(2))
	require.NoError(t, err)
	require.Len(t, ordered, 2)
	require.Equal(t, "SBC3C", ordered[0].RegistrationNumber)
	require.Equal(t, "SBB2B", ordered[1].RegistrationNumber)

	ok, err := repo.Exists(ctx, sq.Eq{"registration_number": "SBX9X"})
	require.NoError(t, err)
	require.False(t, ok)
}

func TestUnitOfWork_RepoIsCached(t *testing.T) {
	t.Parallel()
	db := dbtest.New(t)
	u := newUnit(db)

	require.Same(t, repository.Repo[model.Vehicle](u), repository.Repo[model.Vehicle](u))
	require.NotSame(t, repository.Repo[model.Vehicle](u), repository.Repo[model.Vehicle](newUnit(db)))
}

func TestUnitOfWork_StampsAuditColumns(t *testing.T) {
	t.Parallel()
	db := dbtest.New(t)
	ctx := context.Background()
	created := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	u := newUnit(db, repository.WithActor("alice"), repository.WithClock(func() time.Time { return created }))
	c := &model.Customer{Code: "C001", Name: "Acme"}
	repository.Repo[model.Customer](u).Add(c)
	_, err := u.SaveChanges(ctx)
	require.NoError(t, err)

	modified := created.Add(time.Hour)
	u = newUnit(db, repository.WithActor("bob"), repository.WithClock(func() time.Time { return modified }))
	repo := repository.Repo[model.Customer](u)
	got, err := repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	got.Name = "Acme Pte Ltd"
	repo.Update(got)
	_, err = u.SaveChanges(ctx)
	require.NoError(t, err)

	got, err = repo.GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.Equal(t, "Acme Pte Ltd", got.Name)
	require.Equal(t, "alice", got.CreatedBy)
	require.True(t, created.Equal(got.CreatedOn))
	require.NotNil(t, got.ModifiedBy)
	require.Equal(t, "bob", *got.ModifiedBy)
	require.True(t, modified.Equal(*got.ModifiedOn))
}

func TestUnitOfWork_SaveIsAllOrNothing(t *testing.T) {
	t.Parallel()
	db := dbtest.New(t)
	ctx := context.Background()

	v := addVehicle(t, db, "SBA1234A")

	// a customer referenced by a user cannot be deleted
	setup := newUnit(db)
	c := &model.Customer{Code: "C001", Name: "Acme"}
	repository.Repo[model.Customer](setup).Add(c)
	repository.Repo[model.User](setup).Add(&model.User{Username: "portal", PasswordHash: "x", CustomerID: &c.ID})
	_, err := setup.SaveChanges(ctx)
	require.NoError(t, err)

	u := newUnit(db)
	vehicles := repository.Repo[model.Vehicle](u)
	got, err := vehicles.GetByID(ctx, v.ID)
	require.NoError(t, err)
	got.Make = "Hino"
	vehicles.Update(got)
	require.NoError(t, repository.Repo[model.Customer](u).DeleteByID(c.ID))
	require.Equal(t, 2, u.Pending())

	_, err = u.SaveChanges(ctx)
	require.Error(t, err)
	var pe *repository.PersistenceError
	require.True(t, errors.As(err, &pe))
	require.Equal(t, "delete customers", pe.Op)
	require.Equal(t, 2, u.Pending())

	check := newUnit(db)
	after, err := repository.Repo[model.Vehicle](check).GetByID(ctx, v.ID)
	require.NoError(t, err)
	require.Equal(t, "Isuzu", after.Make)
	cust, err := repository.Repo[model.Customer](check).GetByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, cust)
}

func TestUnitOfWork_UpdateOfMissingRowFails(t *testing.T) {
	t.Parallel()
	db := dbtest.New(t)
	u := newUnit(db)

	repository.Repo[model.Vehicle](u).Update(&model.Vehicle{Base: model.Base{ID: model.NewID()}, RegistrationNumber: "SBA1A"})
	_, err := u.SaveChanges(context.Background())
	require.ErrorIs(t, err, repository.ErrNoRecord)
	require.True(t, repository.IsPersistence(err))
}

func TestUnitOfWork_ClearsAfterSave(t *testing.T) {
	t.Parallel()
	db := dbtest.New(t)
	ctx := context.Background()
	u := newUnit(db)

	repository.Repo[model.Customer](u).Add(&model.Customer{Code: "C1", Name: "One"})
	repository.Repo[model.Customer](u).Add(&model.Customer{Code: "C2", Name: "Two"})
	n, err := u.SaveChanges(ctx)
	require.NoError(t, err)
	require.EqualValues(t, 2, n)
	require.Zero(t, u.Pending())

	n, err = u.SaveChanges(ctx)
	require.NoError(t, err)
	require.Zero(t, n)
}

func TestRepository_CompositeKeyDelete(t *testing.T) {
	t.Parallel()
	db := dbtest.New(t)
	ctx := context.Background()

	u := newUnit(db)
	user := &model.User{Username: "dispatch", PasswordHash: "x"}
	role := &model.Role{Code: "DISPATCHER", Name: "Dispatcher"}
	user.ID, role.ID = model.NewID(), model.NewID()
	repository.Repo[model.User](u).Add(user)
	repository.Repo[model.Role](u).Add(role)
	repository.Repo[model.UserRole](u).Add(&model.UserRole{UserID: user.ID, RoleID: role.ID})
	_, err := u.SaveChanges(ctx)
	require.NoError(t, err)

	links := repository.Repo[model.UserRole](u)
	got, err := links.GetByID(ctx, user.ID, role.ID)
	require.NoError(t, err)
	require.NotNil(t, got)

	require.Error(t, links.DeleteByID(user.ID))
	require.NoError(t, links.DeleteByID(user.ID, role.ID))
	_, err = u.SaveChanges(ctx)
	require.NoError(t, err)

	got, err = links.GetByID(ctx, user.ID, role.ID)
	require.NoError(t, err)
	require.Nil(t, got)
}
