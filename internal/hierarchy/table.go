// Package hierarchy places flat product identifiers (legacy names, type
// names, short codes) into the {category, productType, type} hierarchy the
// ordering screens group products by, and enriches stored cart and order
// items with it.
package hierarchy

import (
	"golang.org/x/text/cases"

	"github.com/tillpoint/tillpoint-server/internal/catalog"
	"github.com/tillpoint/tillpoint-server/internal/naming"
)

// FallbackCategory is assigned to a short code that no other source mapped.
const FallbackCategory = "products"

// Mapping is a product's place in the hierarchy. Type is empty when the
// product has no type level.
type Mapping struct {
	Category    string `json:"category"`
	ProductType string `json:"productType"`
	Type        string `json:"type,omitempty"`
}

// Source identifies which build step produced a table entry.
type Source int

// Build steps, in the order they are applied.
const (
	SourceCatalog Source = iota
	SourceAlias
	SourceLegacyName
	SourceCode
)

func (s Source) String() string {
	switch s {
	case SourceCatalog:
		return "catalog"
	case SourceAlias:
		return "alias"
	case SourceLegacyName:
		return "legacy-name"
	case SourceCode:
		return "code"
	default:
		return "unknown"
	}
}

type alias struct {
	name    string
	mapping Mapping
}

// historicalAliases are names that appear in old orders and carts and do not
// follow the catalog's key pattern.
//
//nolint:gochecknoglobals // Static lookup table
var historicalAliases = []alias{
	{"V Blue", Mapping{Category: "Viagra", ProductType: "Viagra", Type: "Blue (100mg)"}},
	{"V Purple", Mapping{Category: "Viagra", ProductType: "Viagra", Type: "Purple (50mg)"}},
	{"Blue Pill", Mapping{Category: "Viagra", ProductType: "Viagra", Type: "Blue (100mg)"}},
	{"Cream Earl Grey", Mapping{Category: "EG", ProductType: "EG", Type: "Cream"}},
	{"Earl Grey Classic", Mapping{Category: "EG", ProductType: "EG", Type: "Classic"}},
	{"Jasmine Pearls", Mapping{Category: "Ja", ProductType: "Ja", Type: "Pearls"}},
	{"Silver Needle", Mapping{Category: "Ja", ProductType: "Ja", Type: "Silver Needle"}},
	{"Large Candle", Mapping{Category: "BC", ProductType: "BC", Type: "Large"}},
	{"Candle", Mapping{Category: "BC", ProductType: "BC", Type: "Small"}},
	{"Tina Crystal", Mapping{Category: "Ti", ProductType: "Ti"}},
	{"Herbal Mix", Mapping{Category: "Ch", ProductType: "Herbal Mix"}},
	{"Oil Blend", Mapping{Category: "LO", ProductType: "Oil Blend"}},
	{"Tea Sampler", Mapping{Category: "Gift Sets", ProductType: "Sampler Box"}},
}

// AliasStatus reports how a historical alias fared when the table was built.
type AliasStatus struct {
	Alias   string  `json:"alias"`
	Mapping Mapping `json:"mapping"`
	// Shadowed is set when an earlier build step already claimed the name,
	// so the alias entry is never consulted.
	Shadowed bool `json:"shadowed"`
	// Unresolved is set when the alias points at a product or type the
	// catalog does not contain, so sizes and prices cannot be looked up.
	Unresolved bool `json:"unresolved"`
}

// Table is an immutable lookup from product identifier to Mapping.
// Keys keep insertion order, which fuzzy lookups iterate in.
type Table struct {
	keys    []string
	folded  []string
	entries map[string]Mapping
	sources map[string]Source
	aliases []AliasStatus
}

// BuildTable derives the lookup table from a catalog. Each step only adds
// names no earlier step claimed:
//
//  1. catalog entries: a typed entry maps each type name and its own name
//     (with the first type as default); a sized entry maps its name
//  2. historical aliases
//  3. legacy names, copying their short code's category and productType
//  4. any short code still unmapped falls into FallbackCategory
func BuildTable(c *catalog.Catalog) *Table {
	t := &Table{
		entries: make(map[string]Mapping),
		sources: make(map[string]Source),
	}

	for _, e := range c.Entries() {
		switch v := e.(type) {
		case *catalog.TypedEntry:
			for _, typ := range v.Types {
				t.add(typ.Name, Mapping{Category: v.Name(), ProductType: v.Name(), Type: typ.Name}, SourceCatalog)
			}
			t.add(v.Name(), Mapping{Category: v.Name(), ProductType: v.Name(), Type: v.DefaultType().Name}, SourceCatalog)
		case *catalog.SizesEntry:
			t.add(v.Name(), Mapping{Category: v.Name(), ProductType: v.Name()}, SourceCatalog)
		}
	}

	for _, a := range historicalAliases {
		added := t.add(a.name, a.mapping, SourceAlias)
		t.aliases = append(t.aliases, AliasStatus{
			Alias:      a.name,
			Mapping:    a.mapping,
			Shadowed:   !added,
			Unresolved: !resolvable(c, a.mapping),
		})
	}

	for _, p := range naming.Pairs() {
		m, ok := t.entries[p.New]
		if !ok {
			m = Mapping{Category: FallbackCategory, ProductType: p.New}
		}
		t.add(p.Old, Mapping{Category: m.Category, ProductType: m.ProductType}, SourceLegacyName)
	}

	for _, code := range naming.NewNames() {
		t.add(code, Mapping{Category: FallbackCategory, ProductType: code}, SourceCode)
	}

	return t
}

func (t *Table) add(key string, m Mapping, src Source) bool {
	if _, exists := t.entries[key]; exists {
		return false
	}
	t.entries[key] = m
	t.sources[key] = src
	t.keys = append(t.keys, key)
	t.folded = append(t.folded, cases.Fold().String(key))
	return true
}

// resolvable reports whether a mapping's productType (or category) and type
// exist in the catalog, trying the short-code form first.
func resolvable(c *catalog.Catalog, m Mapping) bool {
	e, ok := resolveEntry(c, m.ProductType)
	if !ok {
		return false
	}
	if m.Type == "" {
		return true
	}
	typed, ok := e.(*catalog.TypedEntry)
	if !ok {
		return false
	}
	_, ok = typed.Type(m.Type)
	return ok
}

// Get returns the exact-match mapping for key.
func (t *Table) Get(key string) (Mapping, bool) {
	m, ok := t.entries[key]
	return m, ok
}

// SourceOf returns the build step that produced key.
func (t *Table) SourceOf(key string) (Source, bool) {
	s, ok := t.sources[key]
	return s, ok
}

// Keys returns the table keys in insertion order.
func (t *Table) Keys() []string {
	out := make([]string, len(t.keys))
	copy(out, t.keys)
	return out
}

// Len returns the number of keys.
func (t *Table) Len() int {
	return len(t.keys)
}

// Aliases returns the build status of every historical alias.
func (t *Table) Aliases() []AliasStatus {
	out := make([]AliasStatus, len(t.aliases))
	copy(out, t.aliases)
	return out
}

// UnreachableAliases returns aliases that are shadowed or unresolved. They
// are candidates for removal once no stored data refers to them.
func (t *Table) UnreachableAliases() []AliasStatus {
	var out []AliasStatus
	for _, a := range t.aliases {
		if a.Shadowed || a.Unresolved {
			out = append(out, a)
		}
	}
	return out
}
