package shared

// Treasury permissions declared for RBAC.
const (
	PermTreasuryAccountView       = "treasury.account.view"
	PermTreasuryAccountManage     = "treasury.account.manage"
	PermTreasuryTransactionCreate = "treasury.transaction.create"
)

// TreasuryScopes lists all permissions related to the treasury module.
func TreasuryScopes() []string {
	return []string{
		PermTreasuryAccountView,
		PermTreasuryAccountManage,
		PermTreasuryTransactionCreate,
	}
}
