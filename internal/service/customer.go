package service

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

type CustomerService struct {
	Deps
}

func NewCustomerService(d Deps) *CustomerService { return &CustomerService{Deps: d} }

type CustomerInput struct {
	Code    string `json:"code"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

func (in *CustomerInput) validate() violations {
	in.Code = normalizeKey(in.Code)
	in.Phone = strings.ReplaceAll(strings.TrimSpace(in.Phone), " ", "")
	var v violations
	v.match(codeRegexp, in.Code, "Code")
	v.required(in.Name, "Name")
	v.email(in.Email, "Email", false)
	v.phone(in.Phone, "Phone", false)
	return v
}

func (s *CustomerService) List(ctx context.Context) (Result[[]*model.Customer], error) {
	repo := repository.Repo[model.Customer](s.Store.UnitOfWork(ctx))
	items, err := repo.Select(ctx, repo.Query().OrderBy("code"))
	if err != nil {
		return Result[[]*model.Customer]{}, err
	}
	return ok(nonNil(items)), nil
}

func (s *CustomerService) Get(ctx context.Context, id uuid.UUID) (Result[*model.Customer], error) {
	c, err := repository.Repo[model.Customer](s.Store.UnitOfWork(ctx)).GetByID(ctx, id)
	if err != nil {
		return Result[*model.Customer]{}, err
	}
	if c == nil {
		return notFound[*model.Customer]("Customer"), nil
	}
	return ok(c), nil
}

func (s *CustomerService) Create(ctx context.Context, in CustomerInput) (Result[*model.Customer], error) {
	return s.save(ctx, uuid.Nil, in)
}

func (s *CustomerService) Update(ctx context.Context, id uuid.UUID, in CustomerInput) (Result[*model.Customer], error) {
	return s.save(ctx, id, in)
}

func (s *CustomerService) save(ctx context.Context, id uuid.UUID, in CustomerInput) (Result[*model.Customer], error) {
	if v := in.validate(); !v.empty() {
		return fail[*model.Customer](ErrValidation, v...), nil
	}

	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Customer](uow)

	customer := &model.Customer{}
	if id != uuid.Nil {
		found, err := repo.GetByID(ctx, id)
		if err != nil {
			return Result[*model.Customer]{}, err
		}
		if found == nil {
			return notFound[*model.Customer]("Customer"), nil
		}
		customer = found
	}

	taken, err := repo.Exists(ctx, activeKeyTaken("code", in.Code, id))
	if err != nil {
		return Result[*model.Customer]{}, err
	}
	if taken {
		return fail[*model.Customer](ErrDuplicate, "Customer code '"+in.Code+"' already exists."), nil
	}

	customer.Code = in.Code
	customer.Name = strings.TrimSpace(in.Name)
	customer.Email = strings.TrimSpace(in.Email)
	customer.Phone = in.Phone
	customer.Address = strings.TrimSpace(in.Address)
	if id == uuid.Nil {
		repo.Add(customer)
	} else {
		repo.Update(customer)
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[*model.Customer]{}, err
	}
	return ok(customer), nil
}

// Delete removes a customer no trip, job, request or portal user points at.
func (s *CustomerService) Delete(ctx context.Context, id uuid.UUID) (Result[bool], error) {
	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Customer](uow)
	c, err := repo.GetByID(ctx, id)
	if err != nil {
		return Result[bool]{}, err
	}
	if c == nil {
		return notFound[bool]("Customer"), nil
	}

	ref := sq.Eq{"customer_id": id}
	checks := []struct {
		what   string
		exists func(context.Context, sq.Sqlizer) (bool, error)
	}{
		{"trips", repository.Repo[model.Trip](uow).Exists},
		{"jobs", repository.Repo[model.Job](uow).Exists},
		{"job requests", repository.Repo[model.JobRequest](uow).Exists},
		{"users", repository.Repo[model.User](uow).Exists},
	}
	for _, chk := range checks {
		used, err := chk.exists(ctx, ref)
		if err != nil {
			return Result[bool]{}, err
		}
		if used {
			return fail[bool](ErrConflict, "Customer is referenced by "+chk.what+"."), nil
		}
	}

	repo.Delete(c)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[bool]{}, err
	}
	return ok(true), nil
}
