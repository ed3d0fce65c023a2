package service

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

type OrganizationService struct {
	Deps
}

func NewOrganizationService(d Deps) *OrganizationService { return &OrganizationService{Deps: d} }

type OrganizationInput struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	ContactName string `json:"contactName"`
	Phone       string `json:"phone"`
}

func (in *OrganizationInput) validate() violations {
	in.Code = normalizeKey(in.Code)
	in.Phone = strings.ReplaceAll(strings.TrimSpace(in.Phone), " ", "")
	var v violations
	v.match(codeRegexp, in.Code, "Code")
	v.required(in.Name, "Name")
	v.phone(in.Phone, "Phone", false)
	return v
}

func (s *OrganizationService) List(ctx context.Context) (Result[[]*model.Organization], error) {
	repo := repository.Repo[model.Organization](s.Store.UnitOfWork(ctx))
	items, err := repo.Select(ctx, repo.Query().OrderBy("code"))
	if err != nil {
		return Result[[]*model.Organization]{}, err
	}
	return ok(nonNil(items)), nil
}

func (s *OrganizationService) Get(ctx context.Context, id uuid.UUID) (Result[*model.Organization], error) {
	c, err := repository.Repo[model.Organization](s.Store.UnitOfWork(ctx)).GetByID(ctx, id)
	if err != nil {
		return Result[*model.Organization]{}, err
	}
	if c == nil {
		return notFound[*model.Organization]("Organization"), nil
	}
	return ok(c), nil
}

func (s *OrganizationService) Create(ctx context.Context, in OrganizationInput) (Result[*model.Organization], error) {
	return s.save(ctx, uuid.Nil, in)
}

func (s *OrganizationService) Update(ctx context.Context, id uuid.UUID, in OrganizationInput) (Result[*model.Organization], error) {
	return s.save(ctx, id, in)
}

func (s *OrganizationService) save(ctx context.Context, id uuid.UUID, in OrganizationInput) (Result[*model.Organization], error) {
	if v := in.validate(); !v.empty() {
		return fail[*model.Organization](ErrValidation, v...), nil
	}

	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Organization](uow)

	organization := &model.Organization{}
	if id != uuid.Nil {
		found, err := repo.GetByID(ctx, id)
		if err != nil {
			return Result[*model.Organization]{}, err
		}
		if found == nil {
			return notFound[*model.Organization]("Organization"), nil
		}
		organization = found
	}

	taken, err := repo.Exists(ctx, activeKeyTaken("code", in.Code, id))
	if err != nil {
		return Result[*model.Organization]{}, err
	}
	if taken {
		return fail[*model.Organization](ErrDuplicate, "Organization code '"+in.Code+"' already exists."), nil
	}

	organization.Code = in.Code
	organization.Name = strings.TrimSpace(in.Name)
	organization.ContactName = strings.TrimSpace(in.ContactName)
	organization.Phone = in.Phone
	organization.Address = strings.TrimSpace(in.Address)
	if id == uuid.Nil {
		repo.Add(organization)
	} else {
		repo.Update(organization)
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[*model.Organization]{}, err
	}
	return ok(organization), nil
}

// Delete removes an organization no trip runs under.
func (s *OrganizationService) Delete(ctx context.Context, id uuid.UUID) (Result[bool], error) {
	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Organization](uow)
	o, err := repo.GetByID(ctx, id)
	if err != nil {
		return Result[bool]{}, err
	}
	if o == nil {
		return notFound[bool]("Organization"), nil
	}
	used, err := repository.Repo[model.Trip](uow).Exists(ctx, sq.Eq{"organization_id": id})
	if err != nil {
		return Result[bool]{}, err
	}
	if used {
		return fail[bool](ErrConflict, "Organization is referenced by trips."), nil
	}
	repo.Delete(o)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[bool]{}, err
	}
	return ok(true), nil
}
