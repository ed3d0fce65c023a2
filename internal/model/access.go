package model

import "github.com/gofrs/uuid/v5"

// Role groups permissions and menus; users hold roles through UserRole.
type Role struct {
	Base
	Code string `json:"code"`
	Name string `json:"name"`
}

func (*Role) TableName() string { return "roles" }
func (*Role) Columns() []string { return withBase("code", "name") }
func (r *Role) Values() []any   { return append(r.baseValues(), r.Code, r.Name) }
func (r *Role) ScanDest() []any { return append(r.baseDest(), &r.Code, &r.Name) }

// Permission is a named capability, grouped for display by GroupName.
type Permission struct {
	Base
	Code      string `json:"code"`
	Name      string `json:"name"`
	GroupName string `json:"groupName"`
}

func (*Permission) TableName() string { return "permissions" }
func (*Permission) Columns() []string { return withBase("code", "name", "group_name") }

func (p *Permission) Values() []any {
	return append(p.baseValues(), p.Code, p.Name, p.GroupName)
}

func (p *Permission) ScanDest() []any {
	return append(p.baseDest(), &p.Code, &p.Name, &p.GroupName)
}

// Menu is a navigation entry. A nil ParentID makes it a root.
type Menu struct {
	Base
	Code      string     `json:"code"`
	Title     string     `json:"title"`
	URL       string     `json:"url"`
	Icon      string     `json:"icon"`
	SortOrder int        `json:"sortOrder"`
	ParentID  *uuid.UUID `json:"parentId,omitempty"`
}

func (*Menu) TableName() string { return "menus" }

func (*Menu) Columns() []string {
	return withBase("code", "title", "url", "icon", "sort_order", "parent_id")
}

func (m *Menu) Values() []any {
	return append(m.baseValues(), m.Code, m.Title, m.URL, m.Icon, m.SortOrder, m.ParentID)
}

func (m *Menu) ScanDest() []any {
	return append(m.baseDest(), &m.Code, &m.Title, &m.URL, &m.Icon, &m.SortOrder, &m.ParentID)
}

// UserRole assigns a role to a user.
type UserRole struct {
	UserID uuid.UUID `json:"userId"`
	RoleID uuid.UUID `json:"roleId"`
}

func (*UserRole) TableName() string    { return "user_roles" }
func (*UserRole) Columns() []string    { return []string{"user_id", "role_id"} }
func (*UserRole) KeyColumns() []string { return []string{"user_id", "role_id"} }
func (r *UserRole) KeyValues() []any   { return []any{r.UserID, r.RoleID} }
func (r *UserRole) Values() []any      { return []any{r.UserID, r.RoleID} }
func (r *UserRole) ScanDest() []any    { return []any{&r.UserID, &r.RoleID} }

// RolePermission grants a permission to a role.
type RolePermission struct {
	RoleID       uuid.UUID `json:"roleId"`
	PermissionID uuid.UUID `json:"permissionId"`
}

func (*RolePermission) TableName() string    { return "role_permissions" }
func (*RolePermission) Columns() []string    { return []string{"role_id", "permission_id"} }
func (*RolePermission) KeyColumns() []string { return []string{"role_id", "permission_id"} }
func (r *RolePermission) KeyValues() []any   { return []any{r.RoleID, r.PermissionID} }
func (r *RolePermission) Values() []any      { return []any{r.RoleID, r.PermissionID} }
func (r *RolePermission) ScanDest() []any    { return []any{&r.RoleID, &r.PermissionID} }

// RoleMenu makes a menu visible to a role.
type RoleMenu struct {
	RoleID uuid.UUID `json:"roleId"`
	MenuID uuid.UUID `json:"menuId"`
}

func (*RoleMenu) TableName() string    { return "role_menus" }
func (*RoleMenu) Columns() []string    { return []string{"role_id", "menu_id"} }
func (*RoleMenu) KeyColumns() []string { return []string{"role_id", "menu_id"} }
func (r *RoleMenu) KeyValues() []any   { return []any{r.RoleID, r.MenuID} }
func (r *RoleMenu) Values() []any      { return []any{r.RoleID, r.MenuID} }
func (r *RoleMenu) ScanDest() []any    { return []any{&r.RoleID, &r.MenuID} }
