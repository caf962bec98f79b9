package shared

// Permission codenames declared for RBAC. Codenames are stable identifiers:
// once referenced by a check they must never change.
const (
	PermViewUsers   = "view_users"
	PermAddUsers    = "add_users"
	PermEditUsers   = "edit_users"
	PermDeleteUsers = "delete_users"

	PermViewTransactions   = "view_transactions"
	PermAddTransactions    = "add_transactions"
	PermEditTransactions   = "edit_transactions"
	PermDeleteTransactions = "delete_transactions"

	PermViewBanks   = "view_banks"
	PermAddBanks    = "add_banks"
	PermEditBanks   = "edit_banks"
	PermDeleteBanks = "delete_banks"

	PermViewContractors   = "view_contractors"
	PermAddContractors    = "add_contractors"
	PermEditContractors   = "edit_contractors"
	PermDeleteContractors = "delete_contractors"

	PermViewSettings = "view_settings"
	PermEditSettings = "edit_settings"

	PermViewReports   = "view_reports"
	PermExportReports = "export_reports"

	PermBackupData  = "backup_data"
	PermRestoreData = "restore_data"
)

// Permission categories.
const (
	CategoryUser        = "user"
	CategoryBankAccount = "bank_account"
	CategoryContractor  = "contractor"
	CategoryTransaction = "transaction"
	CategorySettings    = "settings"
	CategoryReports     = "reports"
	CategoryBackup      = "backup"
)

// Role names.
const (
	RoleChiefOfficer      = "Chief Officer"
	RoleAccountantOfficer = "Accountant Officer"
	RoleAuditor           = "Auditor"
	RoleClerk             = "Clerk"
)

// LegacyRoleNames maps the legacy users.role integer to a canonical role
// name. This is the single source for the mapping; every fallback path goes
// through it.
var LegacyRoleNames = map[int]string{
	1: RoleChiefOfficer,
	2: RoleAccountantOfficer,
	3: RoleAuditor,
	4: RoleClerk,
}

// LegacyRoleName returns the canonical role name for a legacy role integer.
func LegacyRoleName(role int) (string, bool) {
	name, ok := LegacyRoleNames[role]
	return name, ok
}

// PermissionSpec describes one catalog entry for seeding.
type PermissionSpec struct {
	Codename    string
	Name        string
	Description string
	Category    string
}

// RoleSpec describes one role and its desired permission grants.
type RoleSpec struct {
	Name        string
	Description string
	Permissions []string
}

// PermissionCatalog returns the full seeded permission set.
func PermissionCatalog() []PermissionSpec {
	return []PermissionSpec{
		{PermViewUsers, "Can view users", "View user information", CategoryUser},
		{PermAddUsers, "Can add users", "Add new users", CategoryUser},
		{PermEditUsers, "Can edit users", "Edit existing users", CategoryUser},
		{PermDeleteUsers, "Can delete users", "Delete users", CategoryUser},

		{PermViewTransactions, "Can view transactions", "View transaction records", CategoryTransaction},
		{PermAddTransactions, "Can add transactions", "Add new transactions", CategoryTransaction},
		{PermEditTransactions, "Can edit transactions", "Edit existing transactions", CategoryTransaction},
		{PermDeleteTransactions, "Can delete transactions", "Delete transactions", CategoryTransaction},

		{PermViewBanks, "Can view bank accounts", "View bank account information", CategoryBankAccount},
		{PermAddBanks, "Can add bank accounts", "Add new bank accounts", CategoryBankAccount},
		{PermEditBanks, "Can edit bank accounts", "Edit existing bank accounts", CategoryBankAccount},
		{PermDeleteBanks, "Can delete bank accounts", "Delete bank accounts", CategoryBankAccount},

		{PermViewContractors, "Can view contractors", "View contractor information", CategoryContractor},
		{PermAddContractors, "Can add contractors", "Add new contractors", CategoryContractor},
		{PermEditContractors, "Can edit contractors", "Edit existing contractors", CategoryContractor},
		{PermDeleteContractors, "Can delete contractors", "Delete contractors", CategoryContractor},

		{PermViewSettings, "Can view settings", "View system settings", CategorySettings},
		{PermEditSettings, "Can edit settings", "Edit system settings", CategorySettings},

		{PermViewReports, "Can view reports", "View financial reports", CategoryReports},
		{PermExportReports, "Can export reports", "Export financial reports", CategoryReports},

		{PermBackupData, "Can backup data", "Create data backups", CategoryBackup},
		{PermRestoreData, "Can restore data", "Restore data from backups", CategoryBackup},
	}
}

// RoleCatalog returns the seeded roles with their desired grant sets.
func RoleCatalog() []RoleSpec {
	all := make([]string, 0, len(PermissionCatalog()))
	for _, p := range PermissionCatalog() {
		all = append(all, p.Codename)
	}
	return []RoleSpec{
		{
			Name:        RoleChiefOfficer,
			Description: "Master administrator with full access to all system features",
			Permissions: all,
		},
		{
			Name:        RoleAccountantOfficer,
			Description: "Financial operator with limited permissions",
			Permissions: []string{
				PermViewBanks, PermAddBanks, PermEditBanks,
				PermViewContractors,
				PermViewTransactions, PermAddTransactions, PermDeleteTransactions,
				PermViewReports, PermExportReports,
				PermBackupData,
			},
		},
		{
			Name:        RoleAuditor,
			Description: "Auditing access with limited create rights on contractors",
			Permissions: []string{
				PermViewBanks,
				PermViewContractors, PermAddContractors, PermEditContractors,
				PermViewTransactions,
				PermViewReports, PermExportReports,
				PermBackupData,
			},
		},
		{
			Name:        RoleClerk,
			Description: "Basic view and reporting access",
			Permissions: []string{
				PermViewTransactions,
				PermViewReports, PermExportReports,
			},
		},
	}
}
