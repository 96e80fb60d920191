package domain

import (
	"encoding/json"
	"reflect"
	"slices"
)

// OrderStatus is the payment state of an order.
type OrderStatus string

// Order statuses.
const (
	OrderStatusUnpaid    OrderStatus = "Unpaid"
	OrderStatusCompleted OrderStatus = "Completed"
)

// Valid returns true if the status is recognized.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusUnpaid, OrderStatusCompleted:
		return true
	default:
		return false
	}
}

// OrderItem is a line of a placed order.
type OrderItem struct {
	ProductID       Scalar  `json:"productId,omitzero"`
	ProductName     string  `json:"productName"`
	Size            Scalar  `json:"size,omitzero"`
	Unit            string  `json:"unit,omitempty"`
	Quantity        float64 `json:"quantity" validate:"gt=0"`
	Price           float64 `json:"price" validate:"gte=0"`
	CategoryName    string  `json:"categoryName,omitempty"`
	ProductTypeName string  `json:"productTypeName,omitempty"`
	Type            string  `json:"type,omitempty"`
	Extras          Extras  `json:"-"`
}

var orderItemKeys = jsonKeys(reflect.TypeFor[OrderItem]())

// HasHierarchy reports whether both hierarchy fields are set.
func (i OrderItem) HasHierarchy() bool {
	return i.CategoryName != "" && i.ProductTypeName != ""
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *OrderItem) UnmarshalJSON(data []byte) error {
	type plain OrderItem
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extras, err := splitExtras(data, orderItemKeys)
	if err != nil {
		return err
	}
	v.Extras = extras
	*i = OrderItem(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (i OrderItem) MarshalJSON() ([]byte, error) {
	type plain OrderItem
	base, err := json.Marshal(plain(i))
	if err != nil {
		return nil, err
	}
	return mergeExtras(base, i.Extras)
}

// Clone returns a deep copy of i.
func (i OrderItem) Clone() OrderItem {
	i.Extras = i.Extras.clone()
	return i
}

// Order is a placed order attached to a client.
//
// Status is Completed exactly when AmountPaid covers Total. The payment and
// editing screens maintain this; rewriting Items must leave it intact.
type Order struct {
	ID         Scalar      `json:"id,omitzero"`
	ClientID   Scalar      `json:"clientId,omitzero"`
	ClientName string      `json:"clientName"`
	Items      []OrderItem `json:"items" validate:"dive"`
	Total      float64     `json:"total" validate:"gte=0"`
	Status     OrderStatus `json:"status" validate:"oneof=Unpaid Completed"`
	Date       string      `json:"date"`
	Notes      string      `json:"notes,omitempty"`
	Shipping   *float64    `json:"shipping,omitempty"`
	Discount   *float64    `json:"discount,omitempty"`
	AmountPaid *float64    `json:"amountPaid,omitempty"`
	Extras     Extras      `json:"-"`
}

var orderKeys = jsonKeys(reflect.TypeFor[Order]())

// Paid returns the amount paid so far, zero when unset.
func (o Order) Paid() float64 {
	if o.AmountPaid == nil {
		return 0
	}
	return *o.AmountPaid
}

// StatusConsistent reports whether Status agrees with AmountPaid and Total.
func (o Order) StatusConsistent() bool {
	settled := o.Paid() >= o.Total
	return (o.Status == OrderStatusCompleted) == settled
}

// UnmarshalJSON implements json.Unmarshaler.
func (o *Order) UnmarshalJSON(data []byte) error {
	type plain Order
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extras, err := splitExtras(data, orderKeys)
	if err != nil {
		return err
	}
	v.Extras = extras
	*o = Order(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (o Order) MarshalJSON() ([]byte, error) {
	type plain Order
	base, err := json.Marshal(plain(o))
	if err != nil {
		return nil, err
	}
	return mergeExtras(base, o.Extras)
}

// Clone returns a deep copy of o.
func (o Order) Clone() Order {
	o.Extras = o.Extras.clone()
	if o.Items != nil {
		items := slices.Clone(o.Items)
		for i := range items {
			items[i] = items[i].Clone()
		}
		o.Items = items
	}
	o.Shipping = cloneFloat(o.Shipping)
	o.Discount = cloneFloat(o.Discount)
	o.AmountPaid = cloneFloat(o.AmountPaid)
	return o
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}
