package catalog

// Default returns the built-in shop catalog, keyed by short product codes.
func Default() *Catalog {
	return MustNew(
		NewSizesEntry("Ti", UnitGram, S("0.5g", 20), S("1g", 30), S("3.5g", 90), S("7g", 160)),
		NewSizesEntry("Ma", UnitGram, S("10g", 12), S("30g", 32), S("100g", 95)),
		NewSizesEntry("Ro", UnitGram, S("50g", 8), S("100g", 14), S("250g", 30)),
		NewSizesEntry("Ch", UnitGram, S("25g", 6), S("50g", 11), S("100g", 20)),
		NewSizesEntry("Pe", UnitGram, S("25g", 5), S("50g", 9), S("100g", 16)),
		NewTypedEntry("EG", UnitGram,
			T("Classic", S("50g", 9), S("100g", 16)),
			T("Cream", S("50g", 10), S("100g", 18)),
		),
		NewTypedEntry("Ja", UnitGram,
			T("Pearls", S("25g", 14), S("50g", 26)),
			T("Silver Needle", S("25g", 22), S("50g", 40)),
		),
		NewSizesEntry("Hi", UnitGram, S("50g", 7), S("100g", 12)),
		NewSizesEntry("Se", UnitGram, S("50g", 10), S("100g", 18)),
		NewSizesEntry("Oo", UnitGram, S("50g", 12), S("100g", 22)),
		NewSizesEntry("LO", UnitML, S("10ml", 9), S("30ml", 22), S("100ml", 60)),
		NewSizesEntry("EO", UnitML, S("10ml", 8), S("30ml", 20)),
		NewSizesEntry("RW", UnitML, S("100ml", 7), S("250ml", 15)),
		NewSizesEntry("HJ", UnitNone, S("250g jar", 9), S("500g jar", 16)),
		NewTypedEntry("BC", UnitPiece,
			T("Small", S("1 unit", 6), S("3 units", 15)),
			T("Large", S("1 unit", 12), S("3 units", 30)),
		),
		NewSizesEntry("IS", UnitPiece, S("10 pack", 4), S("20 pack", 7), S("50 pack", 15)),
		NewTypedEntry("Viagra", UnitPiece,
			T("Blue (100mg)", S("1 pill", 12), S("4 pills", 40), S("10 pills", 90)),
			T("Purple (50mg)", S("1 pill", 9), S("4 pills", 30)),
		),
	)
}
