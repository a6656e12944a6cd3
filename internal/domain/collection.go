package domain

// Collection is a set of quotes owned by one side of a sync.
// Order carries no meaning; helpers that compare collections ignore it.
type Collection []Quote

// Clone returns a copy that shares no backing array with c.
// Quote has only value fields, so a shallow element copy is a deep copy.
func (c Collection) Clone() Collection {
	if c == nil {
		return nil
	}

	out := make(Collection, len(c))
	copy(out, c)

	return out
}

// IDs returns the identifiers in collection order.
func (c Collection) IDs() []string {
	ids := make([]string, 0, len(c))
	for _, q := range c {
		ids = append(ids, q.ID)
	}

	return ids
}

// Index maps each id to its position. The first occurrence wins.
func (c Collection) Index() map[string]int {
	idx := make(map[string]int, len(c))
	for i, q := range c {
		if _, ok := idx[q.ID]; !ok {
			idx[q.ID] = i
		}
	}

	return idx
}

// Find returns the quote with the given id.
func (c Collection) Find(id string) (Quote, bool) {
	for _, q := range c {
		if q.ID == id {
			return q, true
		}
	}

	return Quote{}, false
}

// Contains reports whether a quote with the given id is present.
func (c Collection) Contains(id string) bool {
	_, ok := c.Find(id)
	return ok
}

// Equivalent reports whether both collections hold the same ids, each mapped
// to an identical record, regardless of order.
func (c Collection) Equivalent(other Collection) bool {
	if len(c) != len(other) {
		return false
	}

	byID := make(map[string]Quote, len(c))
	for _, q := range c {
		byID[q.ID] = q
	}

	if len(byID) != len(c) {
		// c holds duplicate ids; fall back to positional comparison.
		for i := range c {
			if c[i] != other[i] {
				return false
			}
		}

		return true
	}

	for _, q := range other {
		mine, ok := byID[q.ID]
		if !ok || mine != q {
			return false
		}

		delete(byID, q.ID)
	}

	return len(byID) == 0
}

// Categories returns distinct categories in first-seen order.
func (c Collection) Categories() []string {
	seen := make(map[string]struct{}, len(c))
	out := make([]string, 0, len(c))

	for _, q := range c {
		if _, ok := seen[q.Category]; ok {
			continue
		}

		seen[q.Category] = struct{}{}
		out = append(out, q.Category)
	}

	return out
}

// FilterByCategory returns the quotes in the given category.
// An empty category or "all" matches every quote.
func (c Collection) FilterByCategory(category string) Collection {
	if category == "" || category == AllCategories {
		return c.Clone()
	}

	out := make(Collection, 0, len(c))
	for _, q := range c {
		if q.Category == category {
			out = append(out, q)
		}
	}

	return out
}

// AllCategories is the category filter value that matches every quote.
const AllCategories = "all"
