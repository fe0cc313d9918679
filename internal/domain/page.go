package domain

import "fmt"

// SortOrder orders catalog pages by price.
type SortOrder string

const (
	SortNone SortOrder = ""
	SortAsc  SortOrder = "asc"
	SortDesc SortOrder = "desc"
)

func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(s) {
	case SortNone, SortAsc, SortDesc:
		return SortOrder(s), nil
	case "none":
		return SortNone, nil
	}
	return SortNone, fmt.Errorf("unknown sort order %q", s)
}

// PageRequest asks for one page of the catalog. Requests with the same
// Category, Query and Sort belong to the same feed; only Offset differs.
type PageRequest struct {
	Offset   int
	Limit    int
	Category Category
	Query    string
	Sort     SortOrder
}

// SameFilter reports whether r and o differ at most by offset.
func (r PageRequest) SameFilter(o PageRequest) bool {
	return r.Limit == o.Limit && r.Category == o.Category && r.Query == o.Query && r.Sort == o.Sort
}

// Page is one slice of a listing and the total number of matching products.
type Page struct {
	Items    []Product `json:"items"`
	Quantity int       `json:"quantity"`
}
