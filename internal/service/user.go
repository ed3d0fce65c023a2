package service

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
	"github.com/iliyamo/fleet-backoffice/internal/utils"
)

type UserService struct {
	Deps
	Hasher utils.PasswordHasher
}

func NewUserService(d Deps, hasher utils.PasswordHasher) *UserService {
	return &UserService{Deps: d, Hasher: hasher}
}

// UserInput is the admin create/update payload. Password may be left empty
// on update to keep the current one.
type UserInput struct {
	Username   string     `json:"username"`
	Email      string     `json:"email"`
	FirstName  string     `json:"firstName"`
	LastName   string     `json:"lastName"`
	Password   string     `json:"password"`
	RoleCode   string     `json:"roleCode"`
	CustomerID *uuid.UUID `json:"customerId"`
}

// UserView is a user with its role codes.
type UserView struct {
	*model.User
	Roles []string `json:"roles"`
}

func (in *UserInput) validate(creating bool) violations {
	in.Username = strings.TrimSpace(in.Username)
	in.RoleCode = normalizeKey(in.RoleCode)
	var v violations
	if v.required(in.Username, "Username") && len(in.Username) < UsernameMinLen {
		v.add("Username must be at least %d characters.", UsernameMinLen)
	}
	v.email(in.Email, "Email", true)
	v.required(in.FirstName, "First name")
	v.required(in.RoleCode, "Role")
	switch {
	case creating && in.Password == "":
		v.add("Password is required.")
	case in.Password != "" && len(in.Password) < PasswordMinLen:
		v.add("Password must be at least %d characters.", PasswordMinLen)
	}
	return v
}

func (s *UserService) List(ctx context.Context) (Result[[]UserView], error) {
	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.User](uow)
	users, err := repo.Select(ctx, repo.Query().OrderBy("username"))
	if err != nil {
		return Result[[]UserView]{}, err
	}
	views := make([]UserView, 0, len(users))
	for _, u := range users {
		roles, err := activeRoles(ctx, uow, u.ID)
		if err != nil {
			return Result[[]UserView]{}, err
		}
		views = append(views, UserView{User: u, Roles: roleCodes(roles)})
	}
	return ok(views), nil
}

func (s *UserService) Get(ctx context.Context, id uuid.UUID) (Result[UserView], error) {
	uow := s.Store.UnitOfWork(ctx)
	u, err := repository.Repo[model.User](uow).GetByID(ctx, id)
	if err != nil {
		return Result[UserView]{}, err
	}
	if u == nil {
		return notFound[UserView]("User"), nil
	}
	roles, err := activeRoles(ctx, uow, id)
	if err != nil {
		return Result[UserView]{}, err
	}
	return ok(UserView{User: u, Roles: roleCodes(roles)}), nil
}

func (s *UserService) Create(ctx context.Context, in UserInput) (Result[UserView], error) {
	return s.save(ctx, uuid.Nil, in)
}

func (s *UserService) Update(ctx context.Context, id uuid.UUID, in UserInput) (Result[UserView], error) {
	return s.save(ctx, id, in)
}

func (s *UserService) save(ctx context.Context, id uuid.UUID, in UserInput) (Result[UserView], error) {
	if v := in.validate(id == uuid.Nil); !v.empty() {
		return fail[UserView](ErrValidation, v...), nil
	}

	uow := s.Store.UnitOfWork(ctx)
	users := repository.Repo[model.User](uow)

	user := &model.User{}
	if id != uuid.Nil {
		found, err := users.GetByID(ctx, id)
		if err != nil {
			return Result[UserView]{}, err
		}
		if found == nil {
			return notFound[UserView]("User"), nil
		}
		user = found
	}

	// usernames are unique across all rows, active or not
	taken, err := users.Exists(ctx, sq.And{sq.Eq{"username": in.Username}, sq.NotEq{"id": id}})
	if err != nil {
		return Result[UserView]{}, err
	}
	if taken {
		return fail[UserView](ErrDuplicate, "Username '"+in.Username+"' already exists."), nil
	}

	roles, err := repository.Repo[model.Role](uow).Find(ctx, sq.Eq{"code": in.RoleCode, "is_active": true})
	if err != nil {
		return Result[UserView]{}, err
	}
	if len(roles) == 0 {
		return fail[UserView](ErrValidation, "Role '"+in.RoleCode+"' does not exist."), nil
	}
	role := roles[0]

	if in.CustomerID != nil {
		c, err := repository.Repo[model.Customer](uow).GetByID(ctx, *in.CustomerID)
		if err != nil {
			return Result[UserView]{}, err
		}
		if c == nil {
			return fail[UserView](ErrValidation, "Customer not found."), nil
		}
	}

	if in.Password != "" {
		hash, err := s.Hasher.Hash(in.Password)
		if err != nil {
			return Result[UserView]{}, err
		}
		user.PasswordHash = hash
	}
	user.Username = in.Username
	user.Email = strings.TrimSpace(in.Email)
	user.FirstName = strings.TrimSpace(in.FirstName)
	user.LastName = strings.TrimSpace(in.LastName)
	user.CustomerID = in.CustomerID

	links := repository.Repo[model.UserRole](uow)
	if id == uuid.Nil {
		user.ID = model.NewID()
		users.Add(user)
	} else {
		users.Update(user)
		current, err := links.Find(ctx, sq.Eq{"user_id": id})
		if err != nil {
			return Result[UserView]{}, err
		}
		for _, l := range current {
			links.Delete(l)
		}
	}
	links.Add(&model.UserRole{UserID: user.ID, RoleID: role.ID})

	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[UserView]{}, err
	}
	return ok(UserView{User: user, Roles: []string{role.Code}}), nil
}

// Delete deactivates the account. Refresh tokens stop working on next use
// because login and refresh refuse inactive users.
func (s *UserService) Delete(ctx context.Context, id uuid.UUID) (Result[bool], error) {
	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.User](uow)
	u, err := repo.GetByID(ctx, id)
	if err != nil {
		return Result[bool]{}, err
	}
	if u == nil {
		return notFound[bool]("User"), nil
	}
	u.IsActive = false
	repo.Update(u)
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[bool]{}, err
	}
	return ok(true), nil
}
