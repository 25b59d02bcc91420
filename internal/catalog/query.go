package catalog

import (
	"slices"
	"strings"

	"github.com/shopspring/decimal"
)

type SortKey string

const (
	SortDate  SortKey = "date"
	SortPrice SortKey = "price"
	SortName  SortKey = "name"
	SortBrand SortKey = "brand"
)

// ParseSortKey maps a client supplied sort key onto a known key. Matching is
// case-insensitive; anything unrecognized, including "", sorts by date.
func ParseSortKey(s string) SortKey {
	switch k := SortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case SortPrice, SortName, SortBrand:
		return k
	default:
		return SortDate
	}
}

// Filter constraints are optional and combined with AND. An empty Brand or
// Category and an invalid price bound impose no constraint.
type Filter struct {
	Brand    string
	Category string
	PriceMin decimal.NullDecimal
	PriceMax decimal.NullDecimal
}

type ListQuery struct {
	Filter Filter
	Sort   SortKey
	Page   int
	Size   int
}

func (f Filter) matches(p Product) bool {
	if f.Brand != "" && !strings.EqualFold(p.Brand, f.Brand) {
		return false
	}
	if f.Category != "" && !slices.Contains(p.Categories, f.Category) {
		return false
	}
	if f.PriceMin.Valid && p.Price.LessThan(f.PriceMin.Decimal) {
		return false
	}
	if f.PriceMax.Valid && p.Price.GreaterThan(f.PriceMax.Decimal) {
		return false
	}
	return true
}

func filterProducts(all []Product, f Filter) []Product {
	out := make([]Product, 0, len(all))
	for _, p := range all {
		if f.matches(p) {
			out = append(out, p)
		}
	}
	return out
}

func comparator(key SortKey) func(a, b Product) int {
	switch key {
	case SortPrice:
		return func(a, b Product) int { return a.Price.Cmp(b.Price) }
	case SortName:
		return func(a, b Product) int { return compareFold(a.Name, b.Name) }
	case SortBrand:
		return func(a, b Product) int { return compareFold(a.Brand, b.Brand) }
	default:
		// newest first
		return func(a, b Product) int { return b.CreatedAt.Compare(a.CreatedAt) }
	}
}

func compareFold(a, b string) int {
	return strings.Compare(strings.ToLower(a), strings.ToLower(b))
}

// sortProducts orders ps in place. The sort is stable so equal keys keep
// their snapshot order.
func sortProducts(ps []Product, key SortKey) {
	slices.SortStableFunc(ps, comparator(key))
}

// paginate returns the page-th window of size elements. Windows past the end,
// a negative page and a non-positive size all yield an empty page.
func paginate(ps []Product, page, size int) []Product {
	n := len(ps)
	if size <= 0 || page < 0 || page > n/size {
		return []Product{}
	}

	start := page * size
	if start >= n {
		return []Product{}
	}

	end := n
	if size < n-start {
		end = start + size
	}
	return slices.Clone(ps[start:end])
}
