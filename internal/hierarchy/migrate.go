package hierarchy

import "github.com/tillpoint/tillpoint-server/internal/domain"

// MigrateCartItem returns a copy of item with its hierarchy fields set.
// An item that already has both hierarchy fields only gets a missing display
// name filled in, so migrating twice changes nothing.
func (s *Service) MigrateCartItem(item domain.CartItem) domain.CartItem {
	out := item.Clone()

	if out.HasHierarchy() {
		if out.DisplayName == "" {
			out.DisplayName = s.CreateDisplayName(out.CategoryName, out.ProductTypeName, out.Type, out.Size.String())
		}
		return out
	}

	m := s.MapLegacyProductToCategory(cartItemName(out))
	out.CategoryName = m.Category
	out.ProductTypeName = m.ProductType
	if m.Type != "" {
		out.Type = m.Type
	}
	out.DisplayName = s.CreateDisplayName(out.CategoryName, out.ProductTypeName, out.Type, out.Size.String())
	return out
}

// cartItemName prefers ProductName and falls back to the older Product field.
func cartItemName(item domain.CartItem) string {
	if item.ProductName != "" {
		return item.ProductName
	}
	return item.Product
}

// MigrateOrderItem is MigrateCartItem for order lines, which carry no
// display name.
func (s *Service) MigrateOrderItem(item domain.OrderItem) domain.OrderItem {
	out := item.Clone()

	if out.HasHierarchy() {
		return out
	}

	m := s.MapLegacyProductToCategory(out.ProductName)
	out.CategoryName = m.Category
	out.ProductTypeName = m.ProductType
	if m.Type != "" {
		out.Type = m.Type
	}
	return out
}

// MigrateCartItems migrates every item, keeping order and length.
func (s *Service) MigrateCartItems(items []domain.CartItem) []domain.CartItem {
	if items == nil {
		return nil
	}
	out := make([]domain.CartItem, len(items))
	for i, item := range items {
		out[i] = s.MigrateCartItem(item)
	}
	return out
}

// MigrateOrder returns a copy of order with every item migrated.
func (s *Service) MigrateOrder(order domain.Order) domain.Order {
	out := order.Clone()
	for i, item := range out.Items {
		out.Items[i] = s.MigrateOrderItem(item)
	}
	return out
}

// MigrateOrders migrates every order, keeping order and length.
func (s *Service) MigrateOrders(orders []domain.Order) []domain.Order {
	if orders == nil {
		return nil
	}
	out := make([]domain.Order, len(orders))
	for i, o := range orders {
		out[i] = s.MigrateOrder(o)
	}
	return out
}
