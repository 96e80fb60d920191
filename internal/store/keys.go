package store

// Well-known keys of the persisted collections. Values are JSON documents
// except where noted.
const (
	KeyProducts = "products"
	KeyOrders   = "orders"
	KeyCart     = "cart"
	KeyClients  = "clients"

	// KeyProductNameVersion holds a plain dotted version string, not JSON.
	KeyProductNameVersion = "productNameMigrationVersion"
	KeyProductNameBackup  = "productNameMigrationBackup"

	KeyHierarchyVersion = "hierarchyMigrationVersion"
	KeyHierarchyBackup  = "hierarchyMigrationBackup"
)

// Collections lists the keys a migration backup snapshots, in snapshot order.
func Collections() []string {
	return []string{KeyProducts, KeyOrders, KeyCart, KeyClients}
}
