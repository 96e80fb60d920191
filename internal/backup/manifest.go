package backup

import (
	"time"

	"github.com/tillpoint/tillpoint-server/internal/store"
)

// Data holds raw collection values as they were stored. A nil field means
// the key was absent when the snapshot was taken.
type Data struct {
	Products *string `json:"products"`
	Orders   *string `json:"orders"`
	Cart     *string `json:"cart"`
	Clients  *string `json:"clients"`
}

func (d *Data) field(key string) **string {
	switch key {
	case store.KeyProducts:
		return &d.Products
	case store.KeyOrders:
		return &d.Orders
	case store.KeyCart:
		return &d.Cart
	case store.KeyClients:
		return &d.Clients
	default:
		return nil
	}
}

// Present returns how many collections the snapshot holds.
func (d Data) Present() int {
	n := 0
	for _, key := range store.Collections() {
		if *d.field(key) != nil {
			n++
		}
	}
	return n
}

// Size returns the total length of the stored values in bytes.
func (d Data) Size() int {
	n := 0
	for _, key := range store.Collections() {
		if v := *d.field(key); v != nil {
			n += len(*v)
		}
	}
	return n
}

// Backup is one snapshot of the persisted collections.
type Backup struct {
	ID        string    `json:"id"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
	Data      Data      `json:"data"`
}

// Info describes an existing backup without its data.
type Info struct {
	ID          string    `json:"id"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Collections int       `json:"collections"`
	Size        int       `json:"size"`
	Latest      bool      `json:"latest"`
}

func (b *Backup) info() Info {
	return Info{
		ID:          b.ID,
		Timestamp:   b.Timestamp,
		Version:     b.Version,
		Collections: b.Data.Present(),
		Size:        b.Data.Size(),
	}
}
