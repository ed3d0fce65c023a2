package service

import (
	"context"
	"sort"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

// PermissionService answers "does user U hold permission code P".
type PermissionService struct {
	Deps
}

func NewPermissionService(d Deps) *PermissionService { return &PermissionService{Deps: d} }

// HasPermission resolves the user's roles, then the permissions granted to
// them, then looks for code among those. Matching is exact and case
// sensitive. A user without roles or grants simply does not hold code.
func (s *PermissionService) HasPermission(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	uow := s.Store.UnitOfWork(ctx)

	roles, err := activeRoles(ctx, uow, userID)
	if err != nil || len(roles) == 0 {
		return false, err
	}

	grants, err := repository.Repo[model.RolePermission](uow).Find(ctx, sq.Eq{"role_id": roleIDs(roles)})
	if err != nil || len(grants) == 0 {
		return false, err
	}
	permIDs := make([]uuid.UUID, len(grants))
	for i, g := range grants {
		permIDs[i] = g.PermissionID
	}

	return repository.Repo[model.Permission](uow).Exists(ctx, sq.Eq{
		"id":        permIDs,
		"code":      code,
		"is_active": true,
	})
}

// PermissionCodes returns every permission code the user holds, sorted.
func (s *PermissionService) PermissionCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	uow := s.Store.UnitOfWork(ctx)
	roles, err := activeRoles(ctx, uow, userID)
	if err != nil || len(roles) == 0 {
		return []string{}, err
	}
	perms, err := grantedPermissions(ctx, uow, roleIDs(roles))
	if err != nil {
		return nil, err
	}
	codes := make([]string, len(perms))
	for i, p := range perms {
		codes[i] = p.Code
	}
	sort.Strings(codes)
	return codes, nil
}

// PermissionGroup is the catalogue view used by the role editor.
type PermissionGroup struct {
	Group       string              `json:"group"`
	Permissions []*model.Permission `json:"permissions"`
}

// Grouped lists every active permission grouped by its group label.
func (s *PermissionService) Grouped(ctx context.Context) (Result[[]PermissionGroup], error) {
	repo := repository.Repo[model.Permission](s.Store.UnitOfWork(ctx))
	perms, err := repo.Select(ctx, repo.Query().Where(sq.Eq{"is_active": true}).OrderBy("group_name", "code"))
	if err != nil {
		return Result[[]PermissionGroup]{}, err
	}
	groups := []PermissionGroup{}
	for _, p := range perms {
		if n := len(groups); n == 0 || groups[n-1].Group != p.GroupName {
			groups = append(groups, PermissionGroup{Group: p.GroupName})
		}
		last := &groups[len(groups)-1]
		last.Permissions = append(last.Permissions, p)
	}
	return ok(groups), nil
}
