package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/fleet-backoffice/internal/database"
	"github.com/iliyamo/fleet-backoffice/internal/database/dbtest"
	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/queue"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
	"github.com/iliyamo/fleet-backoffice/internal/service"
)

var testNow = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

type fixture struct {
	db   *database.DB
	deps service.Deps
}

func newFixture(t *testing.T, pub queue.Publisher) *fixture {
	t.Helper()
	if pub == nil {
		pub = queue.NopPublisher{}
	}
	db := dbtest.New(t)
	return &fixture{
		db: db,
		deps: service.Deps{
			Store:  db,
			Events: pub,
			Log:    logger.NewNop(),
			Now:    func() time.Time { return testNow },
		},
	}
}

func (f *fixture) save(t *testing.T, stage func(u *repository.UnitOfWork)) {
	t.Helper()
	uow := f.db.UnitOfWork(context.Background())
	stage(uow)
	_, err := uow.SaveChanges(context.Background())
	require.NoError(t, err)
}

func (f *fixture) vehicle(t *testing.T, reg string) *model.Vehicle {
	t.Helper()
	v := &model.Vehicle{RegistrationNumber: reg, Make: "Isuzu", Model: "NPR", VehicleType: "Truck", CapacityKg: 3000}
	f.save(t, func(u *repository.UnitOfWork) { repository.Repo[model.Vehicle](u).Add(v) })
	return v
}

func (f *fixture) driver(t *testing.T, license string, userID *uuid.UUID) *model.Driver {
	t.Helper()
	d := &model.Driver{Name: "Tan Ah Kow", LicenseNumber: license, Phone: "91234567", UserID: userID}
	f.save(t, func(u *repository.UnitOfWork) { repository.Repo[model.Driver](u).Add(d) })
	return d
}

func (f *fixture) customer(t *testing.T, code string) *model.Customer {
	t.Helper()
	c := &model.Customer{Code: code, Name: "Customer " + code}
	f.save(t, func(u *repository.UnitOfWork) { repository.Repo[model.Customer](u).Add(c) })
	return c
}

func (f *fixture) job(t *testing.T, ref string, status model.JobStatus) *model.Job {
	t.Helper()
	j := &model.Job{Reference: ref, PickupAddress: "1 Jurong Port Rd", DeliveryAddress: "10 Tampines Ave", WeightKg: 120, Status: status}
	f.save(t, func(u *repository.UnitOfWork) { repository.Repo[model.Job](u).Add(j) })
	return j
}

func (f *fixture) user(t *testing.T, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, PasswordHash: "x", Email: username + "@example.com", FirstName: username}
	f.save(t, func(w *repository.UnitOfWork) { repository.Repo[model.User](w).Add(u) })
	return u
}

// role creates a role granting the given permission codes (created on the
// fly) and menus, and assigns it to users.
func (f *fixture) role(t *testing.T, code string, perms []string, menus []*model.Menu, users ...*model.User) *model.Role {
	t.Helper()
	r := &model.Role{Code: code, Name: code}
	r.ID = model.NewID()
	f.save(t, func(u *repository.UnitOfWork) {
		repository.Repo[model.Role](u).Add(r)
		for _, c := range perms {
			p := &model.Permission{Code: c, Name: c, GroupName: "Test"}
			p.ID = model.NewID()
			repository.Repo[model.Permission](u).Add(p)
			repository.Repo[model.RolePermission](u).Add(&model.RolePermission{RoleID: r.ID, PermissionID: p.ID})
		}
		for _, m := range menus {
			repository.Repo[model.RoleMenu](u).Add(&model.RoleMenu{RoleID: r.ID, MenuID: m.ID})
		}
		for _, usr := range users {
			repository.Repo[model.UserRole](u).Add(&model.UserRole{UserID: usr.ID, RoleID: r.ID})
		}
	})
	return r
}

func (f *fixture) menu(t *testing.T, code string, order int, parent *model.Menu) *model.Menu {
	t.Helper()
	m := &model.Menu{Code: code, Title: code, URL: "/" + code, SortOrder: order}
	if parent != nil {
		m.ParentID = &parent.ID
	}
	f.save(t, func(u *repository.UnitOfWork) { repository.Repo[model.Menu](u).Add(m) })
	return m
}

func get[T any, P interface {
	*T
	repository.Record
}](t *testing.T, f *fixture, id uuid.UUID) *T {
	t.Helper()
	item, err := repository.Repo[T, P](f.db.UnitOfWork(context.Background())).GetByID(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, item)
	return item
}
