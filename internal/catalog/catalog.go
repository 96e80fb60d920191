// Package catalog models the static product catalog the point-of-sale screens
// sell from. Each entry either lists sizes directly or groups sizes under
// named types; the two shapes are distinct variants of Entry.
//
// Key order is significant: the first type of a typed entry is its default,
// and size labels are listed in the order the catalog declares them.
package catalog

import (
	"fmt"

	domainerrors "github.com/tillpoint/tillpoint-server/internal/errors"
)

// Unit is the custom-quantity unit an entry accepts.
type Unit string

// Units accepted by AllowCustom.
const (
	UnitNone  Unit = ""
	UnitGram  Unit = "g"
	UnitML    Unit = "ml"
	UnitPiece Unit = "unit"
)

// Valid returns true if the unit is recognized.
func (u Unit) Valid() bool {
	switch u {
	case UnitNone, UnitGram, UnitML, UnitPiece:
		return true
	default:
		return false
	}
}

// SizePrice is one size label and its price.
type SizePrice struct {
	Label string
	Price float64
}

// Sizes is an ordered list of size labels and prices.
type Sizes []SizePrice

// Labels returns the size labels in catalog order.
func (s Sizes) Labels() []string {
	labels := make([]string, len(s))
	for i, sp := range s {
		labels[i] = sp.Label
	}
	return labels
}

// Price returns the price for label.
func (s Sizes) Price(label string) (float64, bool) {
	for _, sp := range s {
		if sp.Label == label {
			return sp.Price, true
		}
	}
	return 0, false
}

// Has reports whether label is one of the sizes.
func (s Sizes) Has(label string) bool {
	_, ok := s.Price(label)
	return ok
}

// Entry is a catalog product: either a *SizesEntry or a *TypedEntry.
type Entry interface {
	Name() string
	AllowCustom() Unit
	sealed()
}

// SizesEntry is a product priced directly by size.
type SizesEntry struct {
	name   string
	custom Unit
	Sizes  Sizes
}

// NewSizesEntry creates a size-priced entry.
func NewSizesEntry(name string, custom Unit, sizes ...SizePrice) *SizesEntry {
	return &SizesEntry{name: name, custom: custom, Sizes: sizes}
}

// Name returns the catalog key.
func (e *SizesEntry) Name() string { return e.name }

// AllowCustom returns the custom-quantity unit.
func (e *SizesEntry) AllowCustom() Unit { return e.custom }

func (*SizesEntry) sealed() {}

// TypeSizes is one named type of a typed entry.
type TypeSizes struct {
	Name  string
	Sizes Sizes
}

// TypedEntry is a product whose sizes are grouped by type.
type TypedEntry struct {
	name   string
	custom Unit
	Types  []TypeSizes
}

// NewTypedEntry creates a typed entry. The first type is the default.
func NewTypedEntry(name string, custom Unit, types ...TypeSizes) *TypedEntry {
	return &TypedEntry{name: name, custom: custom, Types: types}
}

// Name returns the catalog key.
func (e *TypedEntry) Name() string { return e.name }

// AllowCustom returns the custom-quantity unit.
func (e *TypedEntry) AllowCustom() Unit { return e.custom }

func (*TypedEntry) sealed() {}

// Type returns the named type.
func (e *TypedEntry) Type(name string) (TypeSizes, bool) {
	for _, t := range e.Types {
		if t.Name == name {
			return t, true
		}
	}
	return TypeSizes{}, false
}

// DefaultType returns the first declared type.
func (e *TypedEntry) DefaultType() TypeSizes {
	return e.Types[0]
}

// TypeNames returns the type names in catalog order.
func (e *TypedEntry) TypeNames() []string {
	names := make([]string, len(e.Types))
	for i, t := range e.Types {
		names[i] = t.Name
	}
	return names
}

// S is shorthand for a SizePrice literal.
func S(label string, price float64) SizePrice {
	return SizePrice{Label: label, Price: price}
}

// T is shorthand for a TypeSizes literal.
func T(name string, sizes ...SizePrice) TypeSizes {
	return TypeSizes{Name: name, Sizes: sizes}
}

// Catalog is an ordered, read-only set of entries keyed by name.
type Catalog struct {
	entries []Entry
	index   map[string]int
}

// New builds a catalog, rejecting duplicate names and empty entries.
func New(entries ...Entry) (*Catalog, error) {
	c := &Catalog{
		entries: make([]Entry, 0, len(entries)),
		index:   make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if err := validateEntry(e); err != nil {
			return nil, err
		}
		if _, dup := c.index[e.Name()]; dup {
			return nil, domainerrors.Validationf("duplicate catalog entry %q", e.Name())
		}
		c.index[e.Name()] = len(c.entries)
		c.entries = append(c.entries, e)
	}
	return c, nil
}

// MustNew is like New but panics on an invalid catalog.
func MustNew(entries ...Entry) *Catalog {
	c, err := New(entries...)
	if err != nil {
		panic(fmt.Sprintf("invalid catalog: %v", err))
	}
	return c
}

func validateEntry(e Entry) error {
	if e.Name() == "" {
		return domainerrors.Validation("catalog entry name must not be empty")
	}
	if !e.AllowCustom().Valid() {
		return domainerrors.Validationf("catalog entry %q: allowCustom must be g, ml or unit, got %q", e.Name(), e.AllowCustom())
	}
	switch v := e.(type) {
	case *SizesEntry:
		if len(v.Sizes) == 0 {
			return domainerrors.Validationf("catalog entry %q has no sizes", e.Name())
		}
	case *TypedEntry:
		if len(v.Types) == 0 {
			return domainerrors.Validationf("catalog entry %q has no types", e.Name())
		}
		for _, t := range v.Types {
			if len(t.Sizes) == 0 {
				return domainerrors.Validationf("catalog entry %q type %q has no sizes", e.Name(), t.Name)
			}
		}
	}
	return nil
}

// Lookup returns the entry stored under name.
func (c *Catalog) Lookup(name string) (Entry, bool) {
	i, ok := c.index[name]
	if !ok {
		return nil, false
	}
	return c.entries[i], true
}

// Entries returns all entries in catalog order.
func (c *Catalog) Entries() []Entry {
	out := make([]Entry, len(c.entries))
	copy(out, c.entries)
	return out
}

// Len returns the number of entries.
func (c *Catalog) Len() int {
	return len(c.entries)
}
