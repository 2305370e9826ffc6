package shared

// Core platform permissions.
const (
	PermUsersView = "users.view"

	PermRolesView = "roles.view"
	PermRolesEdit = "roles.edit"

	PermAssignmentsView = "assignments.view"
	PermAssignmentsEdit = "assignments.edit"

	PermSeatsManage = "seats.manage"

	PermAuditView = "audit.view"

	PermPermissionsView = "permissions.view"
)

// CorePermissions lists all permissions related to the core platform.
func CorePermissions() []string {
	return []string{
		PermUsersView,
		PermRolesView,
		PermRolesEdit,
		PermAssignmentsView,
		PermAssignmentsEdit,
		PermSeatsManage,
		PermAuditView,
		PermPermissionsView,
	}
}
