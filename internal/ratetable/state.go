// Package ratetable holds the rate table view: its state, the pure
// sort/paginate derivation, the data loader and the render model.
package ratetable

import (
	"fmt"
	"strings"
)

// SortOption selects the ordering of the currency list
type SortOption string

const (
	SortByName SortOption = "name"
	SortByRate SortOption = "rate"
)

// DefaultPageSize is used when no positive page size is configured
const DefaultPageSize = 20

// ParseSortOption validates a user supplied sort option
func ParseSortOption(value string) (SortOption, error) {
	switch option := SortOption(strings.ToLower(strings.TrimSpace(value))); option {
	case SortByName, SortByRate:
		return option, nil
	default:
		return "", fmt.Errorf("unknown sort option %q", value)
	}
}

// ViewState is everything the user controls on the page
type ViewState struct {
	Base     string
	Sort     SortOption
	Page     int
	PageSize int
	DarkMode bool
}

// NewViewState returns the state of a freshly mounted view
func NewViewState(base string, pageSize int) ViewState {
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	return ViewState{
		Base:     strings.ToUpper(base),
		Sort:     SortByName,
		Page:     1,
		PageSize: pageSize,
	}
}
