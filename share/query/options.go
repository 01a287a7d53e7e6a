// Package query turns list-endpoint request parameters (sort, filter,
// pagination) into SQL fragments.
package query

import (
	"net/http"
	"net/url"

	errors2 "github.com/nodewatch/nodewatch/server/api/errors"
)

type ListOptions struct {
	Sorts      []SortOption
	Filters    []FilterOption
	Pagination *Pagination
}

func NewListOptions(req *http.Request, sortsDefault map[string][]string) *ListOptions {
	return ParseListOptions(req.URL.Query(), sortsDefault)
}

func ParseListOptions(values url.Values, sortsDefault map[string][]string) *ListOptions {
	lo := &ListOptions{}

	sorts := ParseSortOptions(values)
	if len(sorts) > 0 {
		lo.Sorts = sorts
	} else {
		lo.Sorts = ParseSortOptions(url.Values(sortsDefault))
	}
	lo.Filters = ParseFilterOptions(values)
	lo.Pagination = ParsePagination(values)

	return lo
}

func ValidateListOptions(lo *ListOptions, supportedSortFields map[string]bool, supportedFilterFields map[string]bool, paginationConfig *PaginationConfig) error {
	errs := errors2.APIErrors{}
	errs = append(errs, ValidateSortOptions(lo.Sorts, supportedSortFields)...)
	errs = append(errs, ValidateFilterOptions(lo.Filters, supportedFilterFields)...)
	errs = append(errs, ValidatePagination(lo.Pagination, paginationConfig)...)

	if len(errs) > 0 {
		return errs
	}
	return nil
}
