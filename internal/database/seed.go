package database

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/gofrs/uuid/v5"

	"github.com/iliyamo/fleet-backoffice/internal/logger"
	"github.com/iliyamo/fleet-backoffice/internal/model"
	"github.com/iliyamo/fleet-backoffice/internal/repository"
	"github.com/iliyamo/fleet-backoffice/internal/utils"
)

// AdminSeed describes the bootstrap administrator. No user is created when
// Password is empty.
type AdminSeed struct {
	Username string
	Password string
	Email    string
}

// Seed makes sure the permission catalogue, the menu tree, the built-in
// roles with their grants and the bootstrap administrator exist. Existing
// rows (matched by code or username) are left alone, so Seed is safe to run
// on every start. A failing step is logged and the remaining steps still
// run; Seed never fails startup.
func (d *DB) Seed(ctx context.Context, admin AdminSeed, hasher utils.PasswordHasher, log logger.ILogger) {
	steps := []struct {
		name string
		run  func(context.Context) error
	}{
		{"permissions", d.seedPermissions},
		{"menus", d.seedMenus},
		{"roles", d.seedRoles},
		{"admin", func(ctx context.Context) error { return d.seedAdmin(ctx, admin, hasher, log) }},
	}
	for _, step := range steps {
		if err := step.run(ctx); err != nil {
			log.Error("seed step failed", logger.String("step", step.name), logger.Error(err))
			continue
		}
		log.Debug("seed step done", logger.String("step", step.name))
	}
}

func (d *DB) seedPermissions(ctx context.Context) error {
	uow := d.UnitOfWork(ctx)
	perms := repository.Repo[model.Permission](uow)
	existing, err := perms.GetAll(ctx)
	if err != nil {
		return err
	}
	have := make(map[string]bool, len(existing))
	for _, p := range existing {
		have[p.Code] = true
	}
	for _, p := range model.PermissionCatalog {
		if !have[p.Code] {
			perms.Add(&model.Permission{Code: p.Code, Name: p.Name, GroupName: p.Group})
		}
	}
	_, err = uow.SaveChanges(ctx)
	return err
}

func (d *DB) seedMenus(ctx context.Context) error {
	uow := d.UnitOfWork(ctx)
	menus := repository.Repo[model.Menu](uow)
	existing, err := menus.GetAll(ctx)
	if err != nil {
		return err
	}
	ids := make(map[string]uuid.UUID, len(existing))
	for _, m := range existing {
		ids[m.Code] = m.ID
	}
	for _, seed := range model.MenuCatalog {
		if _, ok := ids[seed.Code]; ok {
			continue
		}
		m := &model.Menu{Code: seed.Code, Title: seed.Title, URL: seed.URL, Icon: seed.Icon, SortOrder: seed.SortOrder}
		m.ID = model.NewID()
		if seed.Parent != "" {
			if pid, ok := ids[seed.Parent]; ok {
				m.ParentID = &pid
			}
		}
		ids[seed.Code] = m.ID
		menus.Add(m)
	}
	_, err = uow.SaveChanges(ctx)
	return err
}

func (d *DB) seedRoles(ctx context.Context) error {
	uow := d.UnitOfWork(ctx)
	roles := repository.Repo[model.Role](uow)
	perms, err := repository.Repo[model.Permission](uow).GetAll(ctx)
	if err != nil {
		return err
	}
	menus, err := repository.Repo[model.Menu](uow).GetAll(ctx)
	if err != nil {
		return err
	}
	permIDs := make(map[string]uuid.UUID, len(perms))
	for _, p := range perms {
		permIDs[p.Code] = p.ID
	}
	menuIDs := make(map[string]uuid.UUID, len(menus))
	for _, m := range menus {
		menuIDs[m.Code] = m.ID
	}

	for _, seed := range model.RoleCatalog {
		found, err := roles.Find(ctx, sq.Eq{"code": seed.Code})
		if err != nil {
			return err
		}
		var roleID uuid.UUID
		if len(found) > 0 {
			roleID = found[0].ID
		} else {
			r := &model.Role{Code: seed.Code, Name: seed.Name}
			r.ID = model.NewID()
			roles.Add(r)
			roleID = r.ID
		}

		permCodes, menuCodes := seed.Permissions, seed.Menus
		if seed.Code == model.RoleAdmin {
			permCodes, menuCodes = keys(permIDs), keys(menuIDs)
		}
		if err := grantMissing(ctx, uow, roleID, permCodes, permIDs, menuCodes, menuIDs); err != nil {
			return err
		}
	}
	_, err = uow.SaveChanges(ctx)
	return err
}

func grantMissing(ctx context.Context, uow *repository.UnitOfWork, roleID uuid.UUID,
	permCodes []string, permIDs map[string]uuid.UUID, menuCodes []string, menuIDs map[string]uuid.UUID) error {
	rp := repository.Repo[model.RolePermission](uow)
	granted, err := rp.Find(ctx, sq.Eq{"role_id": roleID})
	if err != nil {
		return err
	}
	has := make(map[uuid.UUID]bool, len(granted))
	for _, g := range granted {
		has[g.PermissionID] = true
	}
	for _, code := range permCodes {
		if id, ok := permIDs[code]; ok && !has[id] {
			rp.Add(&model.RolePermission{RoleID: roleID, PermissionID: id})
			has[id] = true
		}
	}

	rm := repository.Repo[model.RoleMenu](uow)
	visible, err := rm.Find(ctx, sq.Eq{"role_id": roleID})
	if err != nil {
		return err
	}
	shown := make(map[uuid.UUID]bool, len(visible))
	for _, v := range visible {
		shown[v.MenuID] = true
	}
	for _, code := range menuCodes {
		if id, ok := menuIDs[code]; ok && !shown[id] {
			rm.Add(&model.RoleMenu{RoleID: roleID, MenuID: id})
			shown[id] = true
		}
	}
	return nil
}

func (d *DB) seedAdmin(ctx context.Context, admin AdminSeed, hasher utils.PasswordHasher, log logger.ILogger) error {
	if admin.Username == "" || admin.Password == "" {
		log.Warning("SEED_ADMIN_PASSWORD not set, skipping admin user")
		return nil
	}
	uow := d.UnitOfWork(ctx)
	users := repository.Repo[model.User](uow)
	exists, err := users.Exists(ctx, sq.Eq{"username": admin.Username})
	if err != nil || exists {
		return err
	}
	role, err := repository.Repo[model.Role](uow).Find(ctx, sq.Eq{"code": model.RoleAdmin})
	if err != nil {
		return err
	}
	hash, err := hasher.Hash(admin.Password)
	if err != nil {
		return err
	}
	u := &model.User{Username: admin.Username, PasswordHash: hash, Email: admin.Email, FirstName: "System", LastName: "Administrator"}
	u.ID = model.NewID()
	users.Add(u)
	if len(role) > 0 {
		repository.Repo[model.UserRole](uow).Add(&model.UserRole{UserID: u.ID, RoleID: role[0].ID})
	}
	if _, err := uow.SaveChanges(ctx); err != nil {
		return err
	}
	log.Info("admin user created", logger.String("username", admin.Username))
	return nil
}

func keys(m map[string]uuid.UUID) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
