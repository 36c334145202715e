package ratetable

import (
	"math"
	"sort"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/dalfonso89/forex-rates/internal/models"
)

// Data is the fetched input of the derivation
type Data struct {
	Currencies []string
	Rates      models.RateSet
}

// Derived is the display list computed from a ViewState and Data
type Derived struct {
	Sorted     []string
	PageCodes  []string
	Page       int
	TotalPages int
	Loading    bool
}

// SortCurrencies returns a sorted copy of codes; the input is never modified.
// By rate, codes without a usable rate follow every priced code in their
// original relative order. Unknown options keep the input order.
func SortCurrencies(codes []string, option SortOption, rates models.RateSet) []string {
	sorted := make([]string, len(codes))
	copy(sorted, codes)

	switch option {
	case SortByName:
		// collators keep scratch buffers, so one per call
		collator := collate.New(language.English)
		sort.SliceStable(sorted, func(i, j int) bool {
			if cmp := collator.CompareString(sorted[i], sorted[j]); cmp != 0 {
				return cmp < 0
			}
			return sorted[i] < sorted[j]
		})
	case SortByRate:
		sort.SliceStable(sorted, func(i, j int) bool {
			left, leftOK := rateOf(rates, sorted[i])
			right, rightOK := rateOf(rates, sorted[j])
			switch {
			case leftOK && rightOK:
				return left < right
			default:
				return leftOK && !rightOK
			}
		})
	}
	return sorted
}

// TotalPages is ceil(count/pageSize)
func TotalPages(count, pageSize int) int {
	if pageSize < 1 {
		pageSize = 1
	}
	if count <= 0 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage forces page into [1, totalPages]; with no pages it is 1
func ClampPage(page, totalPages int) int {
	if page < 1 || totalPages < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Paginate returns a copy of the 1-indexed page of codes
func Paginate(codes []string, page, pageSize int) []string {
	if pageSize < 1 {
		pageSize = 1
	}
	if page < 1 {
		return []string{}
	}
	start := (page - 1) * pageSize
	if start >= len(codes) {
		return []string{}
	}
	end := start + pageSize
	if end > len(codes) {
		end = len(codes)
	}
	out := make([]string, end-start)
	copy(out, codes[start:end])
	return out
}

// Derive sorts and paginates data for state, clamping the page
func Derive(state ViewState, data Data) Derived {
	sorted := SortCurrencies(data.Currencies, state.Sort, data.Rates)
	total := TotalPages(len(sorted), state.PageSize)
	page := ClampPage(state.Page, total)

	return Derived{
		Sorted:     sorted,
		PageCodes:  Paginate(sorted, page, state.PageSize),
		Page:       page,
		TotalPages: total,
		Loading:    len(data.Currencies) == 0,
	}
}

func rateOf(rates models.RateSet, code string) (float64, bool) {
	rate, ok := rates[code]
	if !ok || math.IsNaN(rate) {
		return 0, false
	}
	return rate, true
}
