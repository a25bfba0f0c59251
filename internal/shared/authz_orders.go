package shared

// Order document permissions declared for RBAC.
const (
	PermSalesOrderView   = "sales.order.view"
	PermSalesOrderCreate = "sales.order.create"
	PermSalesOrderEdit   = "sales.order.edit"
	PermSalesOrderDelete = "sales.order.delete"

	PermPurchaseOrderView   = "procurement.order.view"
	PermPurchaseOrderCreate = "procurement.order.create"
	PermPurchaseOrderEdit   = "procurement.order.edit"
	PermPurchaseOrderDelete = "procurement.order.delete"
)

// OrderScopes lists all permissions related to order documents.
func OrderScopes() []string {
	return []string{
		PermSalesOrderView,
		PermSalesOrderCreate,
		PermSalesOrderEdit,
		PermSalesOrderDelete,
		PermPurchaseOrderView,
		PermPurchaseOrderCreate,
		PermPurchaseOrderEdit,
		PermPurchaseOrderDelete,
	}
}
