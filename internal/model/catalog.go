package model

// Role codes seeded at startup.
const (
	RoleAdmin      = "ADMIN"
	RoleDispatcher = "DISPATCHER"
	RoleDriver     = "DRIVER"
	RoleCustomer   = "CUSTOMER"
)

// Permission codes checked by the HTTP layer.
const (
	PermUsersView           = "USERS_VIEW"
	PermUsersManage         = "USERS_MANAGE"
	PermRolesView           = "ROLES_VIEW"
	PermRolesManage         = "ROLES_MANAGE"
	PermMenusManage         = "MENUS_MANAGE"
	PermVehiclesView        = "VEHICLES_VIEW"
	PermVehiclesManage      = "VEHICLES_MANAGE"
	PermDriversView         = "DRIVERS_VIEW"
	PermDriversManage       = "DRIVERS_MANAGE"
	PermCustomersView       = "CUSTOMERS_VIEW"
	PermCustomersManage     = "CUSTOMERS_MANAGE"
	PermOrganizationsView   = "ORGANIZATIONS_VIEW"
	PermOrganizationsManage = "ORGANIZATIONS_MANAGE"
	PermJobsView            = "JOBS_VIEW"
	PermJobsManage          = "JOBS_MANAGE"
	PermTripsView           = "TRIPS_VIEW"
	PermTripsManage         = "TRIPS_MANAGE"
	PermJobRequestsView     = "JOB_REQUESTS_VIEW"
	PermJobRequestsSubmit   = "JOB_REQUESTS_SUBMIT"
	PermJobRequestsManage   = "JOB_REQUESTS_MANAGE"
	PermInvoicesView        = "INVOICES_VIEW"
	PermInvoicesManage      = "INVOICES_MANAGE"
	PermMobileDriver        = "MOBILE_DRIVER"
	PermAuditView           = "AUDIT_VIEW"
)

// PermissionSeed is one catalogue entry.
type PermissionSeed struct {
	Code, Name, Group string
}

// PermissionCatalog lists every permission the application knows about.
var PermissionCatalog = []PermissionSeed{
	{PermUsersView, "View users", "Administration"},
	{PermUsersManage, "Manage users", "Administration"},
	{PermRolesView, "View roles", "Administration"},
	{PermRolesManage, "Manage roles", "Administration"},
	{PermMenusManage, "Manage menus", "Administration"},
	{PermAuditView, "View audit log", "Administration"},
	{PermVehiclesView, "View vehicles", "Master data"},
	{PermVehiclesManage, "Manage vehicles", "Master data"},
	{PermDriversView, "View drivers", "Master data"},
	{PermDriversManage, "Manage drivers", "Master data"},
	{PermCustomersView, "View customers", "Master data"},
	{PermCustomersManage, "Manage customers", "Master data"},
	{PermOrganizationsView, "View organizations", "Master data"},
	{PermOrganizationsManage, "Manage organizations", "Master data"},
	{PermJobsView, "View jobs", "Operations"},
	{PermJobsManage, "Manage jobs", "Operations"},
	{PermTripsView, "View trips", "Operations"},
	{PermTripsManage, "Manage trips", "Operations"},
	{PermJobRequestsView, "View job requests", "Operations"},
	{PermJobRequestsSubmit, "Submit job requests", "Portal"},
	{PermJobRequestsManage, "Manage job requests", "Operations"},
	{PermInvoicesView, "View invoices", "Billing"},
	{PermInvoicesManage, "Manage invoices", "Billing"},
	{PermMobileDriver, "Use the driver app", "Mobile"},
}

// MenuSeed is one navigation entry; Parent is the parent's code.
type MenuSeed struct {
	Code, Title, URL, Icon, Parent string
	SortOrder                      int
}

// MenuCatalog is the default navigation tree. Parents precede children.
var MenuCatalog = []MenuSeed{
	{Code: "DASHBOARD", Title: "Dashboard", URL: "/", Icon: "home", SortOrder: 1},
	{Code: "MASTER", Title: "Master data", URL: "", Icon: "database", SortOrder: 2},
	{Code: "VEHICLES", Title: "Vehicles", URL: "/vehicles", Icon: "truck", Parent: "MASTER", SortOrder: 1},
	{Code: "DRIVERS", Title: "Drivers", URL: "/drivers", Icon: "user", Parent: "MASTER", SortOrder: 2},
	{Code: "CUSTOMERS", Title: "Customers", URL: "/customers", Icon: "users", Parent: "MASTER", SortOrder: 3},
	{Code: "ORGANIZATIONS", Title: "Organizations", URL: "/organizations", Icon: "building", Parent: "MASTER", SortOrder: 4},
	{Code: "OPERATIONS", Title: "Operations", URL: "", Icon: "route", SortOrder: 3},
	{Code: "JOBS", Title: "Jobs", URL: "/jobs", Icon: "package", Parent: "OPERATIONS", SortOrder: 1},
	{Code: "TRIPS", Title: "Trips", URL: "/trips", Icon: "map", Parent: "OPERATIONS", SortOrder: 2},
	{Code: "JOB_REQUESTS", Title: "Job requests", URL: "/job-requests", Icon: "inbox", Parent: "OPERATIONS", SortOrder: 3},
	{Code: "BILLING", Title: "Billing", URL: "", Icon: "receipt", SortOrder: 4},
	{Code: "INVOICES", Title: "Invoices", URL: "/invoices", Icon: "file", Parent: "BILLING", SortOrder: 1},
	{Code: "ADMIN", Title: "Administration", URL: "", Icon: "settings", SortOrder: 5},
	{Code: "USERS", Title: "Users", URL: "/users", Icon: "user-cog", Parent: "ADMIN", SortOrder: 1},
	{Code: "ROLES", Title: "Roles", URL: "/roles", Icon: "shield", Parent: "ADMIN", SortOrder: 2},
	{Code: "MENUS", Title: "Menus", URL: "/menus", Icon: "list", Parent: "ADMIN", SortOrder: 3},
}

// RoleSeed names a role and what it is granted. A nil Permissions or Menus
// slice on ADMIN means everything in the catalogue.
type RoleSeed struct {
	Code, Name  string
	Permissions []string
	Menus       []string
}

var RoleCatalog = []RoleSeed{
	{Code: RoleAdmin, Name: "Administrator"},
	{
		Code: RoleDispatcher, Name: "Dispatcher",
		Permissions: []string{
			PermVehiclesView, PermDriversView, PermCustomersView, PermOrganizationsView,
			PermJobsView, PermJobsManage, PermTripsView, PermTripsManage,
			PermJobRequestsView, PermJobRequestsManage, PermInvoicesView,
		},
		Menus: []string{
			"DASHBOARD", "MASTER", "VEHICLES", "DRIVERS", "CUSTOMERS", "ORGANIZATIONS",
			"OPERATIONS", "JOBS", "TRIPS", "JOB_REQUESTS", "BILLING", "INVOICES",
		},
	},
	{
		Code: RoleDriver, Name: "Driver",
		Permissions: []string{PermMobileDriver, PermTripsView},
		Menus:       []string{"DASHBOARD"},
	},
	{
		Code: RoleCustomer, Name: "Customer",
		Permissions: []string{PermJobRequestsView, PermJobRequestsSubmit, PermInvoicesView},
		Menus:       []string{"DASHBOARD", "OPERATIONS", "JOB_REQUESTS"},
	},
}
