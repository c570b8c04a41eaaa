package entities

import "sort"

// CodesTree is the full three level snapshot returned by the tree endpoint.
type CodesTree struct {
	MajorCategories []MajorCategory `json:"majorCategories"`
	MidCategories   []MidCategory   `json:"midCategories"`
	SubCategories   []SubCategory   `json:"subCategories"`
}

// NewCodesTree returns an empty tree with non-nil slices.
func NewCodesTree() *CodesTree {
	return &CodesTree{
		MajorCategories: []MajorCategory{},
		MidCategories:   []MidCategory{},
		SubCategories:   []SubCategory{},
	}
}

// Clone copies the tree, including the optional value pointers.
func (t *CodesTree) Clone() *CodesTree {
	out := &CodesTree{
		MajorCategories: append([]MajorCategory{}, t.MajorCategories...),
		MidCategories:   make([]MidCategory, len(t.MidCategories)),
		SubCategories:   append([]SubCategory{}, t.SubCategories...),
	}
	for i, m := range t.MidCategories {
		if m.Value1 != nil {
			m.Value1 = Float(*m.Value1)
		}
		if m.Value2 != nil {
			m.Value2 = Float(*m.Value2)
		}
		out.MidCategories[i] = m
	}
	return out
}

// Sort orders every level by surrogate id.
func (t *CodesTree) Sort() {
	sort.Slice(t.MajorCategories, func(i, j int) bool {
		return t.MajorCategories[i].MajorCatID < t.MajorCategories[j].MajorCatID
	})
	sort.Slice(t.MidCategories, func(i, j int) bool {
		return t.MidCategories[i].MidCatID < t.MidCategories[j].MidCatID
	})
	sort.Slice(t.SubCategories, func(i, j int) bool {
		return t.SubCategories[i].ID < t.SubCategories[j].ID
	})
}

// Size is the total number of rows.
func (t *CodesTree) Size() int {
	return len(t.MajorCategories) + len(t.MidCategories) + len(t.SubCategories)
}

func (t *CodesTree) MajorByID(id int) (MajorCategory, bool) {
	for _, m := range t.MajorCategories {
		if m.MajorCatID == id {
			return m, true
		}
	}
	return MajorCategory{}, false
}

func (t *CodesTree) MidByID(id int) (MidCategory, bool) {
	for _, m := range t.MidCategories {
		if m.MidCatID == id {
			return m, true
		}
	}
	return MidCategory{}, false
}

func (t *CodesTree) SubByID(id int) (SubCategory, bool) {
	for _, s := range t.SubCategories {
		if s.ID == id {
			return s, true
		}
	}
	return SubCategory{}, false
}
