package service

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
)

// activeRoles returns the active roles assigned to userID.
func activeRoles(ctx context.Context, uow *repository.UnitOfWork, userID uuid.UUID) ([]*model.Role, error) {
	links, err := repository.Repo[model.UserRole](uow).Find(ctx, sq.Eq{"user_id": userID})
	if err != nil || len(links) == 0 {
		return nil, err
	}
	ids := make([]uuid.UUID, len(links))
	for i, l := range links {
		ids[i] = l.RoleID
	}
	roles := repository.Repo[model.Role](uow)
	return roles.Select(ctx, roles.Query().Where(sq.Eq{"id": ids, "is_active": true}).OrderBy("code"))
}

func roleIDs(roles []*model.Role) []uuid.UUID {
	ids := make([]uuid.UUID, len(roles))
	for i, r := range roles {
		ids[i] = r.ID
	}
	return ids
}

func roleCodes(roles []*model.Role) []string {
	codes := make([]string, len(roles))
	for i, r := range roles {
		codes[i] = r.Code
	}
	return codes
}

// grantedPermissions resolves the active permissions held through roleIDs.
func grantedPermissions(ctx context.Context, uow *repository.UnitOfWork, roleIDs []uuid.UUID) ([]*model.Permission, error) {
	grants, err := repository.Repo[model.RolePermission](uow).Find(ctx, sq.Eq{"role_id": roleIDs})
	if err != nil || len(grants) == 0 {
		return nil, err
	}
	ids := make([]uuid.UUID, 0, len(grants))
	seen := make(map[uuid.UUID]bool, len(grants))
	for _, g := range grants {
		if !seen[g.PermissionID] {
			seen[g.PermissionID] = true
			ids = append(ids, g.PermissionID)
		}
	}
	perms := repository.Repo[model.Permission](uow)
	return perms.Select(ctx, perms.Query().Where(sq.Eq{"id": ids, "is_active": true}).OrderBy("code"))
}
