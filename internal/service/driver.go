package service

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

type DriverService struct {
	Deps
}

func NewDriverService(d Deps) *DriverService { return &DriverService{Deps: d} }

type DriverInput struct {
	Name          string     `json:"name"`
	LicenseNumber string     `json:"licenseNumber"`
	Phone         string     `json:"phone"`
	Email         string     `json:"email"`
	UserID        *uuid.UUID `json:"userId"`
}

func (in *DriverInput) validate() violations {
	in.LicenseNumber = normalizeKey(in.LicenseNumber)
	in.Phone = strings.ReplaceAll(strings.TrimSpace(in.Phone), " ", "")
	var v violations
	v.required(in.Name, "Name")
	v.match(licenseRegexp, in.LicenseNumber, "License number")
	v.phone(in.Phone, "Phone", true)
	v.email(in.Email, "Email", false)
	return v
}

func (s *DriverService) List(ctx context.Context) (Result[[]*model.Driver], error) {
	repo := repository.Repo[model.Driver](s.Store.UnitOfWork(ctx))
	items, err := repo.Select(ctx, repo.Query().OrderBy("name"))
	if err != nil {
		return Result[[]*model.Driver]{}, err
	}
	return ok(nonNil(items)), nil
}

func (s *DriverService) Get(ctx context.Context, id uuid.UUID) (Result[*model.Driver], error) {
	d, err := repository.Repo[model.Driver](s.Store.UnitOfWork(ctx)).GetByID(ctx, id)
	if err != nil {
		return Result[*model.Driver]{}, err
	}
	if d == nil {
		return notFound[*model.Driver]("Driver"), nil
	}
	return ok(d), nil
}

func (s *DriverService) Create(ctx context.Context, in DriverInput) (Result[*model.Driver], error) {
	return s.save(ctx, uuid.Nil, in)
}

func (s *DriverService) Update(ctx context.Context, id uuid.UUID, in DriverInput) (Result[*model.Driver], error) {
	return s.save(ctx, id, in)
}

func (s *DriverService) save(ctx context.Context, id uuid.UUID, in DriverInput) (Result[*model.Driver], error) {
	if v := in.validate(); !v.empty() {
		return fail[*model.Driver](ErrValidation, v...), nil
	}

	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Driver](uow)

	driver := &model.Driver{}
	if id != uuid.Nil {
		found, err := repo.GetByID(ctx, id)
		if err != nil {
			return Result[*model.Driver]{}, err
		}
		if found == nil {
			return notFound[*model.Driver]("Driver"), nil
		}
		driver = found
	}

	taken, err := repo.Exists(ctx, activeKeyTaken("license_number", in.LicenseNumber, id))
	if err != nil {
		return Result[*model.Driver]{}, err
	}
	if taken {
		return fail[*model.Driver](ErrDuplicate,
			"Driver with license number '"+in.LicenseNumber+"' already exists."), nil
	}

	if in.UserID != nil {
		u, err := repository.Repo[model.User](uow).GetByID(ctx, *in.UserID)
		if err != nil {
			return Result[*model.Driver]{}, err
		}
		if u == nil {
			return fail[*model.Driver](ErrValidation, "Linked user not found."), nil
		}
	}

	driver.Name = strings.TrimSpace(in.Name)
	driver.LicenseNumber = in.LicenseNumber
	driver.Phone = in.Phone
	driver.Email = strings.TrimSpace(in.Email)
	driver.UserID = in.UserID
	if id == uuid.Nil {
		repo.Add(driver)
	} else {
		repo.Update(driver)
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[*model.Driver]{}, err
	}
	return ok(driver), nil
}

// Delete deactivates the driver. The row and its trip history stay.
func (s *DriverService) Delete(ctx context.Context, id uuid.UUID) (Result[bool], error) {
	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Driver](uow)
	d, err := repo.GetByID(ctx, id)
	if err != nil {
		return Result[bool]{}, err
	}
	if d == nil {
		return notFound[bool]("Driver"), nil
	}
	d.IsActive = false
	repo.Update(d)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[bool]{}, err
	}
	return ok(true), nil
}

// ForUser returns the active driver linked to userID, or nil.
func (s *DriverService) ForUser(ctx context.Context, userID uuid.UUID) (*model.Driver, error) {
	return driverForUser(ctx, s.Store.UnitOfWork(ctx), userID)
}

func driverForUser(ctx context.Context, uow *repository.UnitOfWork, userID uuid.UUID) (*model.Driver, error) {
	repo := repository.Repo[model.Driver](uow)
	items, err := repo.Select(ctx, repo.Query().Where(sq.Eq{"user_id": userID, "is_active": true}).Limit(1))
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return items[0], nil
}
