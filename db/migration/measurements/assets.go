// Package measurements holds the schema migrations for the measurement store,
// exposed with the go-bindata Asset/AssetNames signatures the migration
// runner consumes.
package measurements

import (
	"fmt"
	"sort"
)

var assets = map[string][]byte{
	"001_init.up.sql": []byte(`
CREATE TABLE measurements (
    agent_id TEXT NOT NULL,
    timestamp INTEGER NOT NULL,
    total_memory_bytes INTEGER NOT NULL,
    used_memory_bytes INTEGER NOT NULL,
    average_cpu REAL NOT NULL
);

CREATE INDEX idx_measurements_agent_id_timestamp ON measurements (agent_id, timestamp);
`),
	"001_init.down.sql": []byte(`
DROP INDEX idx_measurements_agent_id_timestamp;
DROP TABLE measurements;
`),
}

func Asset(name string) ([]byte, error) {
	data, ok := assets[name]
	if !ok {
		return nil, fmt.Errorf("asset %s not found", name)
	}
	return data, nil
}

func AssetNames() []string {
	names := make([]string, 0, len(assets))
	for name := range assets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
