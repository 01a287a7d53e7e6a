package monitoring

// Query option whitelists for the metrics list endpoint.

var MetricsSortFields = map[string]bool{
	"timestamp": true,
}

var MetricsFilterFields = map[string]bool{
	"timestamp[gt]":    true,
	"timestamp[lt]":    true,
	"timestamp[since]": true,
	"timestamp[until]": true,
}

var MetricsSortDefault = map[string][]string{"sort": {"-timestamp"}}
