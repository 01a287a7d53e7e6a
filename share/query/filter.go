package query

import (
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	errors2 "github.com/nodewatch/nodewatch/server/api/errors"
)

var filterRegex = regexp.MustCompile(`^filter\[(\w+)](\[(\w+)])?$`)

type FilterOperatorType string

const (
	FilterOperatorTypeEQ    FilterOperatorType = "eq"
	FilterOperatorTypeGT    FilterOperatorType = "gt"
	FilterOperatorTypeLT    FilterOperatorType = "lt"
	FilterOperatorTypeSince FilterOperatorType = "since"
	FilterOperatorTypeUntil FilterOperatorType = "until"
)

func (fot FilterOperatorType) Code() string {
	code, ok := map[FilterOperatorType]string{
		FilterOperatorTypeEQ:    "=",
		FilterOperatorTypeGT:    ">",
		FilterOperatorTypeLT:    "<",
		FilterOperatorTypeSince: ">=",
		FilterOperatorTypeUntil: "<=",
	}[fot]
	if !ok {
		return "="
	}
	return code
}

type FilterOption struct {
	Column   string
	Operator FilterOperatorType
	Values   []string
}

func (fo FilterOption) String() string {
	s := fmt.Sprintf("filter[%s]", fo.Column)
	if fo.Operator != "" {
		s += fmt.Sprintf("[%s]", fo.Operator)
	}
	return s
}

func ParseFilterOptions(values url.Values) []FilterOption {
	res := make([]FilterOption, 0)

	for key, vals := range values {
		matches := filterRegex.FindStringSubmatch(key)
		if matches == nil || len(vals) == 0 {
			continue
		}

		fo := FilterOption{
			Column:   matches[1],
			Operator: FilterOperatorTypeEQ,
			Values:   vals,
		}
		if matches[3] != "" {
			fo.Operator = FilterOperatorType(matches[3])
		}

		res = append(res, fo)
	}

	return res
}

func ValidateFilterOptions(fo []FilterOption, supportedFields map[string]bool) errors2.APIErrors {
	errs := errors2.APIErrors{}
	for i := range fo {
		supported := supportedFields[fo[i].Column] ||
			supportedFields[fmt.Sprintf("%s[%s]", fo[i].Column, fo[i].Operator)]
		if !supported {
			errs = append(errs, errors2.APIError{
				Message:    fmt.Sprintf("unsupported filter field '%s'", fo[i]),
				HTTPStatus: http.StatusBadRequest,
			})
		}
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}
