package intent

// Catalogue is an ordered list of categories. It is built once and never mutated.
type Catalogue []Category

// DefaultCatalogue returns the built-in catalogue.
func DefaultCatalogue() Catalogue {
	return defaultCatalogue
}

// Classify returns the ID of the first category with a pattern matching normalized,
// or Unclassified. Callers pass text already run through Normalize.
func (c Catalogue) Classify(normalized string) CategoryID {
	for _, cat := range c {
		if cat.Matches(normalized) {
			return cat.ID
		}
	}
	return Unclassified
}

// Lookup finds a category by ID.
func (c Catalogue) Lookup(id CategoryID) (Category, bool) {
	for _, cat := range c {
		if cat.ID == id {
			return cat, true
		}
	}
	return Category{}, false
}

// IDs lists category IDs in declaration order.
func (c Catalogue) IDs() []CategoryID {
	ids := make([]CategoryID, len(c))
	for i, cat := range c {
		ids[i] = cat.ID
	}
	return ids
}

// IsTemporal reports whether id names a category answered from a date window.
func (c Catalogue) IsTemporal(id CategoryID) bool {
	cat, ok := c.Lookup(id)
	return ok && cat.Temporal
}
