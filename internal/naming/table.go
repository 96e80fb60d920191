// Package naming converts product names between the legacy human-readable
// form ("Tina") and the short codes the catalog is keyed by ("Ti").
//
// Lookups trim surrounding whitespace but are case-sensitive: "tina" is not a
// legacy name. Callers that need case-insensitive matching normalise first.
package naming

import "slices"

// Pair is one legacy name and its short code.
type Pair struct {
	Old string
	New string
}

// pairs is the complete rename table. Order is the order reports list it in.
//
//nolint:gochecknoglobals // Static lookup table
var pairs = [...]Pair{
	{Old: "Tina", New: "Ti"},
	{Old: "Matcha", New: "Ma"},
	{Old: "Rooibos", New: "Ro"},
	{Old: "Chamomile", New: "Ch"},
	{Old: "Peppermint", New: "Pe"},
	{Old: "Earl Grey", New: "EG"},
	{Old: "Jasmine", New: "Ja"},
	{Old: "Hibiscus", New: "Hi"},
	{Old: "Sencha", New: "Se"},
	{Old: "Oolong", New: "Oo"},
	{Old: "Lavender Oil", New: "LO"},
	{Old: "Eucalyptus Oil", New: "EO"},
	{Old: "Rose Water", New: "RW"},
	{Old: "Honey Jar", New: "HJ"},
	{Old: "Beeswax Candle", New: "BC"},
	{Old: "Incense Sticks", New: "IS"},
}

//nolint:gochecknoglobals // Derived from pairs once at init
var (
	oldToNew = make(map[string]string, len(pairs))
	newToOld = make(map[string]string, len(pairs))
)

func init() {
	for _, p := range pairs {
		oldToNew[p.Old] = p.New
		newToOld[p.New] = p.Old
	}
}

// Pairs returns a copy of the rename table.
func Pairs() []Pair {
	return slices.Clone(pairs[:])
}

// OldNames returns every legacy name in table order.
func OldNames() []string {
	names := make([]string, len(pairs))
	for i, p := range pairs {
		names[i] = p.Old
	}
	return names
}

// NewNames returns every short code in table order.
func NewNames() []string {
	names := make([]string, len(pairs))
	for i, p := range pairs {
		names[i] = p.New
	}
	return names
}

// Stats describes the rename table.
type Stats struct {
	Total          int      `json:"total"`
	DuplicateCodes []string `json:"duplicate_codes,omitempty"`
	DuplicateNames []string `json:"duplicate_names,omitempty"`
	ShortestCode   int      `json:"shortest_code"`
	LongestCode    int      `json:"longest_code"`
}

// Bijective reports whether no code or name appears twice.
func (s Stats) Bijective() bool {
	return len(s.DuplicateCodes) == 0 && len(s.DuplicateNames) == 0
}

// Statistics inspects the rename table.
func Statistics() Stats {
	return statsFor(pairs[:])
}

func statsFor(table []Pair) Stats {
	st := Stats{Total: len(table)}
	seenCode := make(map[string]int, len(table))
	seenName := make(map[string]int, len(table))
	for i, p := range table {
		seenCode[p.New]++
		seenName[p.Old]++
		n := len([]rune(p.New))
		if i == 0 || n < st.ShortestCode {
			st.ShortestCode = n
		}
		if n > st.LongestCode {
			st.LongestCode = n
		}
	}
	for _, p := range table {
		if seenCode[p.New] > 1 && !slices.Contains(st.DuplicateCodes, p.New) {
			st.DuplicateCodes = append(st.DuplicateCodes, p.New)
		}
		if seenName[p.Old] > 1 && !slices.Contains(st.DuplicateNames, p.Old) {
			st.DuplicateNames = append(st.DuplicateNames, p.Old)
		}
	}
	return st
}
