package shared

// Master data permissions declared for RBAC.
const (
	PermCustomerView   = "masterdata.customer.view"
	PermCustomerManage = "masterdata.customer.manage"

	PermSupplierView   = "masterdata.supplier.view"
	PermSupplierManage = "masterdata.supplier.manage"

	PermProductView   = "masterdata.product.view"
	PermProductManage = "masterdata.product.manage"

	PermWarehouseView   = "masterdata.warehouse.view"
	PermWarehouseManage = "masterdata.warehouse.manage"
)

// MasterDataScopes lists all permissions related to the master data module.
func MasterDataScopes() []string {
	return []string{
		PermCustomerView,
		PermCustomerManage,
		PermSupplierView,
		PermSupplierManage,
		PermProductView,
		PermProductManage,
		PermWarehouseView,
		PermWarehouseManage,
	}
}
