package service

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

type VehicleService struct {
	Deps
}

func NewVehicleService(d Deps) *VehicleService { return &VehicleService{Deps: d} }

type VehicleInput struct {
	RegistrationNumber string  `json:"registrationNumber"`
	Make               string  `json:"make"`
	Model              string  `json:"model"`
	VehicleType        string  `json:"vehicleType"`
	CapacityKg         float64 `json:"capacityKg"`
	CapacityM3         float64 `json:"capacityM3"`
}

func (in *VehicleInput) validate() violations {
	in.RegistrationNumber = normalizeKey(in.RegistrationNumber)
	var v violations
	v.match(registrationRegexp, in.RegistrationNumber, "Registration number")
	v.required(in.Make, "Make")
	v.required(in.Model, "Model")
	v.nonNegative(in.CapacityKg, "Capacity (kg)")
	v.nonNegative(in.CapacityM3, "Capacity (m3)")
	return v
}

// activeKeyTaken matches active rows other than exclude whose column holds
// value.
func activeKeyTaken(column string, value any, exclude uuid.UUID) sq.Sqlizer {
	return sq.And{sq.Eq{column: value, "is_active": true}, sq.NotEq{"id": exclude}}
}

func (s *VehicleService) List(ctx context.Context) (Result[[]*model.Vehicle], error) {
	repo := repository.Repo[model.Vehicle](s.Store.UnitOfWork(ctx))
	items, err := repo.Select(ctx, repo.Query().OrderBy("registration_number"))
	if err != nil {
		return Result[[]*model.Vehicle]{}, err
	}
	return ok(nonNil(items)), nil
}

func (s *VehicleService) Get(ctx context.Context, id uuid.UUID) (Result[*model.Vehicle], error) {
	v, err := repository.Repo[model.Vehicle](s.Store.UnitOfWork(ctx)).GetByID(ctx, id)
	if err != nil {
		return Result[*model.Vehicle]{}, err
	}
	if v == nil {
		return notFound[*model.Vehicle]("Vehicle"), nil
	}
	return ok(v), nil
}

func (s *VehicleService) Create(ctx context.Context, in VehicleInput) (Result[*model.Vehicle], error) {
	return s.save(ctx, uuid.Nil, in)
}

func (s *VehicleService) Update(ctx context.Context, id uuid.UUID, in VehicleInput) (Result[*model.Vehicle], error) {
	return s.save(ctx, id, in)
}

func (s *VehicleService) save(ctx context.Context, id uuid.UUID, in VehicleInput) (Result[*model.Vehicle], error) {
	if v := in.validate(); !v.empty() {
		return fail[*model.Vehicle](ErrValidation, v...), nil
	}

	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Vehicle](uow)

	vehicle := &model.Vehicle{}
	if id != uuid.Nil {
		found, err := repo.GetByID(ctx, id)
		if err != nil {
			return Result[*model.Vehicle]{}, err
		}
		if found == nil {
			return notFound[*model.Vehicle]("Vehicle"), nil
		}
		vehicle = found
	}

	taken, err := repo.Exists(ctx, activeKeyTaken("registration_number", in.RegistrationNumber, id))
	if err != nil {
		return Result[*model.Vehicle]{}, err
	}
	if taken {
		return fail[*model.Vehicle](ErrDuplicate,
			"Vehicle with registration number '"+in.RegistrationNumber+"' already exists."), nil
	}

	vehicle.RegistrationNumber = in.RegistrationNumber
	vehicle.Make = strings.TrimSpace(in.Make)
	vehicle.Model = strings.TrimSpace(in.Model)
	vehicle.VehicleType = strings.TrimSpace(in.VehicleType)
	vehicle.CapacityKg = in.CapacityKg
	vehicle.CapacityM3 = in.CapacityM3
	if id == uuid.Nil {
		repo.Add(vehicle)
	} else {
		repo.Update(vehicle)
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[*model.Vehicle]{}, err
	}
	s.logger().Info("vehicle saved", logger.String("registration", vehicle.RegistrationNumber))
	return ok(vehicle), nil
}

// Delete removes the vehicle row. A vehicle still referenced by a trip is
// kept and a conflict is reported.
func (s *VehicleService) Delete(ctx context.Context, id uuid.UUID) (Result[bool], error) {
	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Vehicle](uow)
	v, err := repo.GetByID(ctx, id)
	if err != nil {
		return Result[bool]{}, err
	}
	if v == nil {
		return notFound[bool]("Vehicle"), nil
	}
	used, err := repository.Repo[model.Trip](uow).Exists(ctx, sq.Eq{"vehicle_id": id})
	if err != nil {
		return Result[bool]{}, err
	}
	if used {
		return fail[bool](ErrConflict, "Vehicle is assigned to one or more trips."), nil
	}
	repo.Delete(v)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[bool]{}, err
	}
	return ok(true), nil
}
