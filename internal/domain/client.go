package domain

import (
	"encoding/json"
	"reflect"
)

// Client is a customer orders are attached to.
// Clients are backed up and restored by migrations but never renamed.
type Client struct {
	ID     Scalar `json:"id,omitzero"`
	Name   string `json:"name"`
	Phone  string `json:"phone,omitempty"`
	Email  string `json:"email,omitempty"`
	Extras Extras `json:"-"`
}

var clientKeys = jsonKeys(reflect.TypeFor[Client]())

// UnmarshalJSON implements json.Unmarshaler.
func (c *Client) UnmarshalJSON(data []byte) error {
	type plain Client
	var v plain
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	extras, err := splitExtras(data, clientKeys)
	if err != nil {
		return err
	}
	v.Extras = extras
	*c = Client(v)
	return nil
}

// MarshalJSON implements json.Marshaler.
func (c Client) MarshalJSON() ([]byte, error) {
	type plain Client
	base, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	return mergeExtras(base, c.Extras)
}
