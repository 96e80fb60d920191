package domain

import (
	"encoding/json"
	"reflect"
)

// LegacyCategory is the hierarchy bucket for products with no known mapping.
const LegacyCategory = "Legacy"

// CartItem is a line in the cashier's open cart.
//
// Price is the line total (unit price times quantity). Product duplicates
// ProductName for screens written before the field was renamed.
type CartItem struct {
	ProductID       Scalar  `json:"productId,omitzero"`
	ProductName     string  `json:"productName"`
	Product         string  `json:"product,omitempty"`
	Size            Scalar  `json:"size,omitzero"`
	Unit            string  `json:"unit,omitempty"`
	Quantity        float64 `json:"quantity" validate:"gt=0"`
	Price           float64 `json:"price" validate:"gte=0"`
	CategoryName    string  `json:"categoryName,omitempty"`
	ProductTypeName string  `json:"productTypeName,omitempty"`
	Type            string  `json:"type,omitempty"`
	DisplayName     string  `json:"displayName,omitempty"`
	Extras          Extras  `json:"-"`
}

var cartItemKeys = jsonKeys(reflect.TypeFor[CartItem]())

// HasHierarchy reports whether both hierarchy fields are set.
func (c CartItem) HasHierarchy() bool {
	return c.CategoryName != "" && c.ProductTypeName != ""
}

// UnmarshalJSON implements json.Unmarshaler.
func (c *CartItem) UnmarshalJSON(data []byte) error {
	type plain CartItem
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extras, err := splitExtras(data, cartItemKeys)
	if err != nil {
		return err
	}
	v.Extras = extras
	*c = CartItem(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c CartItem) MarshalJSON() ([]byte, error) {
	type plain CartItem
	base, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	return mergeExtras(base, c.Extras)
}

// Clone returns a deep copy of c.
func (c CartItem) Clone() CartItem {
	c.Extras = c.Extras.clone()
	return c
}
