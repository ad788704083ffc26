// Package catalog filters, sorts and summarizes adapted product views in memory.
package catalog

import (
	"cmp"
	"slices"
	"sort"
	"strings"

	"github.com/vasiliy-maslov/teashop/internal/product"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type Field string

const (
	FieldCategory Field = "category"
	FieldOrigin   Field = "origin"
	FieldFlavor   Field = "flavor"
	FieldCaffeine Field = "caffeine"
)

type SortKey string

const (
	SortPriceAsc  SortKey = "price-asc"
	SortPriceDesc SortKey = "price-desc"
	SortNameAsc   SortKey = "name-asc"
	SortNameDesc  SortKey = "name-desc"
)

// Filters holds the selected facet values. Empty slices and a false Organic are no-ops.
type Filters struct {
	Categories []string
	Origins    []string
	Flavors    []string
	Caffeines  []string
	Organic    bool
}

// Facets lists the distinct values available for each filterable field.
type Facets struct {
	Categories []string `json:"categories"`
	Origins    []string `json:"origins"`
	Flavors    []string `json:"flavors"`
	Caffeines  []string `json:"caffeines"`
}

// GetUniqueValues returns the distinct values of field across products in byte order.
// Multi-valued fields are flattened first. The empty string counts as a value.
func GetUniqueValues(products []product.View, field Field) []string {
	seen := make(map[string]struct{})
	for _, p := range products {
		for _, v := range fieldValues(p, field) {
			seen[v] = struct{}{}
		}
	}

	values := make([]string, 0, len(seen))
	for v := range seen {
		values = append(values, v)
	}
	sort.Strings(values)
	return values
}

func BuildFacets(products []product.View) Facets {
	return Facets{
		Categories: GetUniqueValues(products, FieldCategory),
		Origins:    GetUniqueValues(products, FieldOrigin),
		Flavors:    GetUniqueValues(products, FieldFlavor),
		Caffeines:  GetUniqueValues(products, FieldCaffeine),
	}
}

func fieldValues(p product.View, field Field) []string {
	switch field {
	case FieldCategory:
		return []string{p.Category}
	case FieldOrigin:
		return p.Origin
	case FieldFlavor:
		return p.Flavor
	case FieldCaffeine:
		return []string{p.Caffeine}
	}
	return nil
}

// FilterProducts keeps products matching every non-empty facet. Within a
// multi-valued facet any overlap is a match. The result preserves input order.
func FilterProducts(products []product.View, f Filters) []product.View {
	result := make([]product.View, 0, len(products))
	for _, p := range products {
		if len(f.Categories) > 0 && !slices.Contains(f.Categories, p.Category) {
			continue
		}
		if len(f.Origins) > 0 && !intersects(f.Origins, p.Origin) {
			continue
		}
		if len(f.Flavors) > 0 && !intersects(f.Flavors, p.Flavor) {
			continue
		}
		if len(f.Caffeines) > 0 && !slices.Contains(f.Caffeines, p.Caffeine) {
			continue
		}
		if f.Organic && !p.Organic {
			continue
		}
		result = append(result, p)
	}
	return result
}

func intersects(selected, values []string) bool {
	for _, v := range values {
		if slices.Contains(selected, v) {
			return true
		}
	}
	return false
}

// SortProducts returns a sorted copy of products. Unknown keys return the copy unsorted.
// Ties keep their input order.
func SortProducts(products []product.View, sortBy SortKey) []product.View {
	sorted := slices.Clone(products)
	if sorted == nil {
		sorted = []product.View{}
	}

	switch sortBy {
	case SortPriceAsc:
		slices.SortStableFunc(sorted, func(a, b product.View) int { return cmp.Compare(a.Price, b.Price) })
	case SortPriceDesc:
		slices.SortStableFunc(sorted, func(a, b product.View) int { return cmp.Compare(b.Price, a.Price) })
	case SortNameAsc:
		c := newNameCollator()
		slices.SortStableFunc(sorted, func(a, b product.View) int { return c.CompareString(a.Name, b.Name) })
	case SortNameDesc:
		c := newNameCollator()
		slices.SortStableFunc(sorted, func(a, b product.View) int { return c.CompareString(b.Name, a.Name) })
	}
	return sorted
}

// collate.Collator is not safe for concurrent use.
func newNameCollator() *collate.Collator {
	return collate.New(language.English)
}

// ParseFilters reads facet selections from query values. Each facet accepts
// repeated keys and comma separated lists.
func ParseFilters(query map[string][]string) Filters {
	return Filters{
		Categories: splitValues(query["category"]),
		Origins:    splitValues(query["origin"]),
		Flavors:    splitValues(query["flavor"]),
		Caffeines:  splitValues(query["caffeine"]),
		Organic:    len(query["organic"]) > 0 && strings.EqualFold(query["organic"][0], "true"),
	}
}

func splitValues(raw []string) []string {
	var values []string
	for _, r := range raw {
		for _, part := range strings.Split(r, ",") {
			if part = strings.TrimSpace(part); part != "" {
				values = append(values, part)
			}
		}
	}
	return values
}
