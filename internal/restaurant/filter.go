package restaurant

import (
	"sort"
	"strings"
)

// Apply filters the list with an AND across every active dimension, then
// orders it by the selected sort key. The input slice is never mutated and
// the sort is stable: entries with equal keys keep their prior relative
// order. An empty result is returned as an empty slice.
func Apply(list []Restaurant, filters FilterState, key SortKey) []Restaurant {
	out := make([]Restaurant, 0, len(list))
	for _, r := range list {
		if matches(r, filters) {
			out = append(out, r)
		}
	}

	less := comparator(key)
	if less != nil {
		sort.SliceStable(out, func(i, j int) bool {
			return less(out[i], out[j])
		})
	}
	return out
}

func matches(r Restaurant, f FilterState) bool {
	if f.SearchTerm != "" &&
		!strings.Contains(strings.ToLower(r.Name), strings.ToLower(f.SearchTerm)) {
		return false
	}
	if f.Cuisine != "" && !strings.EqualFold(f.Cuisine, CuisineAll) &&
		!strings.EqualFold(r.Cuisine, f.Cuisine) {
		return false
	}
	if r.Rating < f.MinRating {
		return false
	}
	if f.PriceLevel > 0 && r.PriceLevel != f.PriceLevel {
		return false
	}
	if f.OpenNow && !r.IsOpen {
		return false
	}
	if f.MaxDistanceKm > 0 && r.DistanceKm > f.MaxDistanceKm {
		return false
	}
	return true
}

// comparator returns the less function for a sort key, or nil when the key
// is unknown so the input order is preserved.
func comparator(key SortKey) func(a, b Restaurant) bool {
	switch key {
	case SortDistance:
		return func(a, b Restaurant) bool { return a.DistanceKm < b.DistanceKm }
	case SortRating:
		return func(a, b Restaurant) bool { return a.Rating > b.Rating }
	case SortReviews:
		return func(a, b Restaurant) bool { return a.ReviewCount > b.ReviewCount }
	case SortPriceLow:
		return func(a, b Restaurant) bool { return a.PriceLevel < b.PriceLevel }
	case SortPriceHigh:
		return func(a, b Restaurant) bool { return a.PriceLevel > b.PriceLevel }
	default:
		return nil
	}
}
