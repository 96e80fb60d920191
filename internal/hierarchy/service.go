package hierarchy

import (
	"regexp"
	"strings"

	"golang.org/x/text/cases"

	"github.com/tillpoint/tillpoint-server/internal/catalog"
	"github.com/tillpoint/tillpoint-server/internal/domain"
	"github.com/tillpoint/tillpoint-server/internal/naming"
)

// parenthetical matches "Blue (100mg)" style type names.
var parenthetical = regexp.MustCompile(`^(.*?)\s*\(([^()]+)\)$`)

// Service answers hierarchy, size and price questions against one table and
// the catalog it was built from. It holds no mutable state.
type Service struct {
	table   *Table
	catalog *catalog.Catalog
}

// NewService creates a service over a previously built table.
func NewService(table *Table, c *catalog.Catalog) *Service {
	return &Service{table: table, catalog: c}
}

// NewServiceFromCatalog builds the table and the service in one step.
func NewServiceFromCatalog(c *catalog.Catalog) *Service {
	return NewService(BuildTable(c), c)
}

// Table returns the lookup table the service reads.
func (s *Service) Table() *Table {
	return s.table
}

// Catalog returns the catalog the service reads.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// MapLegacyProductToCategory places name in the hierarchy. It tries an exact
// match, then a case-insensitive containment match in either direction
// against every key in table order, so "Ti 1g" finds Ti. Names matching
// nothing land in the Legacy category so old data stays visible.
func (s *Service) MapLegacyProductToCategory(name string) Mapping {
	if m, ok := s.table.Get(name); ok {
		return m
	}

	needle := cases.Fold().String(strings.TrimSpace(name))
	if needle != "" {
		for i, key := range s.table.folded {
			if key != "" && (strings.Contains(needle, key) || strings.Contains(key, needle)) {
				m, _ := s.table.Get(s.table.keys[i])
				return m
			}
		}
	}

	return Mapping{Category: domain.LegacyCategory, ProductType: name}
}

// MigrateProductName returns the short-code form of a legacy name, or name
// unchanged.
func (s *Service) MigrateProductName(name string) string {
	return naming.SafeConvertOldToNewName(name)
}

// resolveEntry finds the catalog entry for productType, trying the
// short-code form before the raw name.
func resolveEntry(c *catalog.Catalog, productType string) (catalog.Entry, bool) {
	if e, ok := c.Lookup(naming.SafeConvertOldToNewName(productType)); ok {
		return e, true
	}
	return c.Lookup(productType)
}

func (s *Service) sizesFor(productType, typ string) (catalog.Sizes, bool) {
	e, ok := resolveEntry(s.catalog, productType)
	if !ok {
		return nil, false
	}
	switch v := e.(type) {
	case *catalog.SizesEntry:
		return v.Sizes, true
	case *catalog.TypedEntry:
		if typ == "" {
			return nil, false
		}
		t, ok := v.Type(typ)
		if !ok {
			return nil, false
		}
		return t.Sizes, true
	}
	return nil, false
}

// GetAvailableSizes returns the size labels for a product, or an empty list
// when the product or type is not in the catalog. A typed product needs typ.
func (s *Service) GetAvailableSizes(_, productType, typ string) []string {
	sizes, ok := s.sizesFor(productType, typ)
	if !ok {
		return []string{}
	}
	return sizes.Labels()
}

// GetPrice returns the catalog unit price for a product size.
func (s *Service) GetPrice(_, productType, size, typ string) (float64, bool) {
	sizes, ok := s.sizesFor(productType, typ)
	if !ok {
		return 0, false
	}
	return sizes.Price(size)
}

// CreateDisplayName formats a hierarchy for display. Rules, first match wins:
//
//	Legacy category      "Legacy" or "Legacy > productType"
//	distinct type        "category > productType > type"
//	aliased productType  "category > productType" (productType not a catalog key)
//	otherwise            "productType"
//
// A non-empty size is appended as " - size".
func (s *Service) CreateDisplayName(category, productType, typ, size string) string {
	var name string
	switch {
	case category == domain.LegacyCategory:
		name = domain.LegacyCategory
		if productType != category {
			name += " > " + productType
		}
	case typ != "" && typ != productType:
		name = category + " > " + productType + " > " + typ
	case productType != category && !s.isCatalogKey(productType):
		name = category + " > " + productType
	default:
		name = productType
	}
	if size != "" {
		name += " - " + size
	}
	return name
}

func (s *Service) isCatalogKey(name string) bool {
	_, ok := s.catalog.Lookup(name)
	return ok
}

// IsProductInNewStructure reports whether name resolves to a catalog entry
// and, when typ is given, whether the entry has that type or size key.
// "Blue (100mg)" is also tried as "Blue 100mg".
func (s *Service) IsProductInNewStructure(name, typ string) bool {
	e, ok := resolveEntry(s.catalog, name)
	if !ok {
		return false
	}
	if typ == "" {
		return true
	}
	candidates := []string{typ}
	if n := normalizeTypeKey(typ); n != typ {
		candidates = append(candidates, n)
	}
	for _, key := range candidates {
		switch v := e.(type) {
		case *catalog.TypedEntry:
			if _, ok := v.Type(key); ok {
				return true
			}
		case *catalog.SizesEntry:
			if v.Sizes.Has(key) {
				return true
			}
		}
	}
	return false
}

// normalizeTypeKey turns "Blue (100mg)" into "Blue 100mg".
func normalizeTypeKey(typ string) string {
	m := parenthetical.FindStringSubmatch(typ)
	if m == nil {
		return typ
	}
	return strings.TrimSpace(m[1] + " " + m[2])
}
