package query

import (
	"fmt"
	"strings"
)

func ConvertListOptionsToQuery(lo *ListOptions, q string) (qOut string, params []interface{}) {
	q, params = AddWhere(lo.Filters, q, nil)
	q = AddOrderBy(lo.Sorts, q)
	q, params = addLimitOffset(lo.Pagination, q, params)

	return q, params
}

func AddWhere(filterOptions []FilterOption, q string, params []interface{}) (string, []interface{}) {
	if len(filterOptions) == 0 {
		return q, params
	}

	whereParts := make([]string, 0, len(filterOptions))
	for i := range filterOptions {
		orParts := make([]string, 0, len(filterOptions[i].Values))
		for y := range filterOptions[i].Values {
			orParts = append(orParts, fmt.Sprintf("%s %s ?", filterOptions[i].Column, filterOptions[i].Operator.Code()))
			params = append(params, filterOptions[i].Values[y])
		}

		if len(orParts) > 1 {
			whereParts = append(whereParts, fmt.Sprintf("(%s)", strings.Join(orParts, " OR ")))
		} else {
			whereParts = append(whereParts, orParts[0])
		}
	}

	concat := " WHERE "
	if strings.Contains(strings.ToUpper(q), " WHERE ") {
		concat = " AND "
	}
	q += concat + strings.Join(whereParts, " AND ")

	return q, params
}

func AddOrderBy(sortOptions []SortOption, q string) string {
	if len(sortOptions) == 0 {
		return q
	}

	orderParts := make([]string, 0, len(sortOptions))
	for i := range sortOptions {
		direction := "ASC"
		if !sortOptions[i].IsASC {
			direction = "DESC"
		}
		orderParts = append(orderParts, fmt.Sprintf("%s %s", sortOptions[i].Column, direction))
	}
	q += " ORDER BY " + strings.Join(orderParts, ", ")

	return q
}

func addLimitOffset(pagination *Pagination, q string, params []interface{}) (string, []interface{}) {
	if pagination == nil {
		return q, params
	}

	q += " LIMIT ? OFFSET ?"
	params = append(params, pagination.Limit, pagination.Offset)

	return q, params
}
