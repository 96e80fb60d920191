// Package domain contains the records the point-of-sale front end persists:
// inventory products, cart items, orders and clients.
//
// Records are stored as JSON arrays under fixed keys. Every record type keeps
// the JSON members it does not model in Extras, so reading and rewriting a
// collection never loses fields written by other parts of the application.
package domain

import (
	"encoding/json"
	"reflect"
)

// Product is an inventory entry.
type Product struct {
	ID     Scalar  `json:"id,omitzero"`
	Name   string  `json:"name"`
	Type   string  `json:"type,omitempty"`
	Stock  float64 `json:"stock"`
	Price  float64 `json:"price"`
	Extras Extras  `json:"-"`
}

var productKeys = jsonKeys(reflect.TypeFor[Product]())

// UnmarshalJSON implements json.Unmarshaler.
func (p *Product) UnmarshalJSON(data []byte) error {
	type plain Product
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extras, err := splitExtras(data, productKeys)
	if err != nil {
		return err
	}
	v.Extras = extras
	*p = Product(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Product) MarshalJSON() ([]byte, error) {
	type plain Product
	base, err := json.Marshal(plain(p))
	if err != nil {
		return nil, err
	}
	return mergeExtras(base, p.Extras)
}
