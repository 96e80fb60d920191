package migration

// MigrateProductsArray returns products with legacy names replaced by short
// codes, and the number of products renamed. Only the name member changes.
func MigrateProductsArray(products []Record) ([]Record, int) {
	out, n, _ := migrateRecords(products, renameProduct)
	return out, n
}

// MigrateOrdersProductNames returns orders with legacy item names replaced,
// and the number of items renamed.
func MigrateOrdersProductNames(orders []Record) ([]Record, int) {
	out, n, _ := migrateRecords(orders, renameOrderItems)
	return out, n
}

// MigrateCartItemProductNames returns items with legacy names replaced in
// both productName and the older product member, and the number of items
// changed.
func MigrateCartItemProductNames(items []Record) ([]Record, int) {
	out, n, _ := migrateRecords(items, renameCartItem)
	return out, n
}

func renameProduct(_ int, r Record) (int, error) {
	if renameMember(r, "name") {
		return 1, nil
	}
	return 0, nil
}

// renameOrderItems leaves an order whose items member is not an array of
// objects as it is.
func renameOrderItems(_ int, r Record) (int, error) {
	items, ok := r["items"]
	if !ok {
		return 0, nil
	}
	out, _, renamed, err := rewriteArray(items, func(_ int, item Record) (int, error) {
		if renameMember(item, "productName") {
			return 1, nil
		}
		return 0, nil
	})
	if err != nil || renamed == 0 {
		return 0, nil
	}
	r["items"] = out
	return renamed, nil
}

func renameCartItem(_ int, r Record) (int, error) {
	a := renameMember(r, "productName")
	b := renameMember(r, "product")
	if a || b {
		return 1, nil
	}
	return 0, nil
}
