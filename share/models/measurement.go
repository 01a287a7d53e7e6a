package models

import (
	"github.com/google/uuid"
)

// MetricRecord is one resource-usage sample as it travels over the wire.
// AverageCPU is a fraction in [0.0, 1.0] and UsedMemoryBytes is expected to
// stay below TotalMemoryBytes, but neither is enforced here or by the codec;
// range validation is left to consumers.
type MetricRecord struct {
	AgentID          uuid.UUID
	TotalMemoryBytes uint64
	UsedMemoryBytes  uint64
	AverageCPU       float32
}

// Measurement is the stored form of a decoded MetricRecord.
type Measurement struct {
	AgentID          string  `json:"agent_id" db:"agent_id"`
	Timestamp        int64   `json:"timestamp" db:"timestamp"`
	TotalMemoryBytes uint64  `json:"total_memory_bytes" db:"total_memory_bytes"`
	UsedMemoryBytes  uint64  `json:"used_memory_bytes" db:"used_memory_bytes"`
	AverageCPU       float32 `json:"average_cpu" db:"average_cpu"`
}

// NewMeasurement converts a decoded record and its sender-stamped unix
// timestamp into the stored representation.
func NewMeasurement(timestamp uint32, record MetricRecord) *Measurement {
	return &Measurement{
		AgentID:          record.AgentID.String(),
		Timestamp:        int64(timestamp),
		TotalMemoryBytes: record.TotalMemoryBytes,
		UsedMemoryBytes:  record.UsedMemoryBytes,
		AverageCPU:       record.AverageCPU,
	}
}

// AgentSummary describes one agent known to the measurement store.
type AgentSummary struct {
	AgentID  string `json:"agent_id" db:"agent_id"`
	LastSeen int64  `json:"last_seen" db:"last_seen"`
}
