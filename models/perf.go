// ABOUTME: Performance sample records appended by the background collector
// ABOUTME: Includes aggregate statistics computed over a time range

package models

import "time"

// PerfSample is one collection interval's metrics for an entity
type PerfSample struct {
	Timestamp     time.Time `json:"timestamp" yaml:"timestamp"`
	Key           string    `json:"key" yaml:"key"`
	CPUPercent    float64   `json:"cpu_percent" yaml:"cpu_percent"`
	MemoryPercent float64   `json:"memory_percent" yaml:"memory_percent"`
	IOPS          float64   `json:"iops" yaml:"iops"`
	NetworkKBps   float64   `json:"network_kbps" yaml:"network_kbps"`
}

// MetricStats summarises one metric over a window
type MetricStats struct {
	Avg float64 `json:"avg" yaml:"avg"`
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
	P95 float64 `json:"p95" yaml:"p95"`
}

// PerfStats summarises every metric for an entity over a window
type PerfStats struct {
	Key     string      `json:"key" yaml:"key"`
	From    time.Time   `json:"from" yaml:"from"`
	To      time.Time   `json:"to" yaml:"to"`
	Samples int         `json:"samples" yaml:"samples"`
	CPU     MetricStats `json:"cpu" yaml:"cpu"`
	Memory  MetricStats `json:"memory" yaml:"memory"`
	IOPS    MetricStats `json:"iops" yaml:"iops"`
	Network MetricStats `json:"network" yaml:"network"`
}
