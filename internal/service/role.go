package service

import (
	"context"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

type RoleService struct {
	Deps
}

func NewRoleService(d Deps) *RoleService { return &RoleService{Deps: d} }

// RoleView is a role with the codes and menu ids granted to it.
type RoleView struct {
	*model.Role
	Permissions []string    `json:"permissions"`
	MenuIDs     []uuid.UUID `json:"menuIds"`
}

func (s *RoleService) List(ctx context.Context) (Result[[]RoleView], error) {
	uow := s.Store.UnitOfWork(ctx)
	repo := repository.Repo[model.Role](uow)
	roles, err := repo.Select(ctx, repo.Query().OrderBy("code"))
	if err != nil {
		return Result[[]RoleView]{}, err
	}
	views := make([]RoleView, 0, len(roles))
	for _, r := range roles {
		v, err := s.view(ctx, uow, r)
		if err != nil {
			return Result[[]RoleView]{}, err
		}
		views = append(views, v)
	}
	return ok(views), nil
}

func (s *RoleService) view(ctx context.Context, uow *repository.UnitOfWork, r *model.Role) (RoleView, error) {
	perms, err := grantedPermissions(ctx, uow, []uuid.UUID{r.ID})
	if err != nil {
		return RoleView{}, err
	}
	menus, err := repository.Repo[model.RoleMenu](uow).Find(ctx, sq.Eq{"role_id": r.ID})
	if err != nil {
		return RoleView{}, err
	}
	v := RoleView{Role: r, Permissions: make([]string, len(perms)), MenuIDs: make([]uuid.UUID, len(menus))}
	for i, p := range perms {
		v.Permissions[i] = p.Code
	}
	for i, m := range menus {
		v.MenuIDs[i] = m.MenuID
	}
	return v, nil
}

// AssignPermissions replaces the role's permission grants with codes.
// Unknown codes fail the whole call.
func (s *RoleService) AssignPermissions(ctx context.Context, roleID uuid.UUID, codes []string) (Result[RoleView], error) {
	uow := s.Store.UnitOfWork(ctx)
	role, err := repository.Repo[model.Role](uow).GetByID(ctx, roleID)
	if err != nil {
		return Result[RoleView]{}, err
	}
	if role == nil {
		return notFound[RoleView]("Role"), nil
	}

	perms, err := repository.Repo[model.Permission](uow).Find(ctx, sq.Eq{"code": codes})
	if err != nil {
		return Result[RoleView]{}, err
	}
	known := make(map[string]uuid.UUID, len(perms))
	for _, p := range perms {
		known[p.Code] = p.ID
	}
	var v violations
	for _, c := range codes {
		if _, ok := known[c]; !ok {
			v.add("Permission '%s' does not exist.", c)
		}
	}
	if !v.empty() {
		return fail[RoleView](ErrValidation, v...), nil
	}

	grants := repository.Repo[model.RolePermission](uow)
	current, err := grants.Find(ctx, sq.Eq{"role_id": roleID})
	if err != nil {
		return Result[RoleView]{}, err
	}
	for _, g := range current {
		grants.Delete(g)
	}
	ids := make([]uuid.UUID, 0, len(known))
	for _, id := range known {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	for _, id := range ids {
		grants.Add(&model.RolePermission{RoleID: roleID, PermissionID: id})
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[RoleView]{}, err
	}

	view, err := s.view(ctx, uow, role)
	if err != nil {
		return Result[RoleView]{}, err
	}
	return ok(view), nil
}

// AssignMenus replaces the menus visible to the role.
func (s *RoleService) AssignMenus(ctx context.Context, roleID uuid.UUID, menuIDs []uuid.UUID) (Result[RoleView], error) {
	uow := s.Store.UnitOfWork(ctx)
	role, err := repository.Repo[model.Role](uow).GetByID(ctx, roleID)
	if err != nil {
		return Result[RoleView]{}, err
	}
	if role == nil {
		return notFound[RoleView]("Role"), nil
	}

	wanted := make([]uuid.UUID, 0, len(menuIDs))
	seen := make(map[uuid.UUID]bool, len(menuIDs))
	for _, id := range menuIDs {
		if !seen[id] {
			seen[id] = true
			wanted = append(wanted, id)
		}
	}
	menus, err := repository.Repo[model.Menu](uow).Find(ctx, sq.Eq{"id": wanted})
	if err != nil {
		return Result[RoleView]{}, err
	}
	if len(menus) != len(wanted) {
		return fail[RoleView](ErrValidation, "One or more menus do not exist."), nil
	}

	grants := repository.Repo[model.RoleMenu](uow)
	current, err := grants.Find(ctx, sq.Eq{"role_id": roleID})
	if err != nil {
		return Result[RoleView]{}, err
	}
	for _, g := range current {
		grants.Delete(g)
	}
	for _, id := range wanted {
		grants.Add(&model.RoleMenu{RoleID: roleID, MenuID: id})
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return Result[RoleView]{}, err
	}

	view, err := s.view(ctx, uow, role)
	if err != nil {
		return Result[RoleView]{}, err
	}
	return ok(view), nil
}
