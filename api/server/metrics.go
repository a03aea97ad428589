package server

import (
	"log"
	"net/http"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
)

// NodeMetrics is what /metrics reports about the dev node.
type NodeMetrics struct {
	UptimeSeconds  int64   `json:"uptime_seconds"`
	BlockHeight    int     `json:"block_height"`
	PoolSize       int     `json:"pool_size"`
	CPULoadPercent float64 `json:"cpu_load_percent"`
	MemoryMB       float64 `json:"memory_mb"`
	LastBlockTime  string  `json:"last_block_time"`
}

// Metrics samples the node. CPU load is 0 when the host does not report it.
func (s *Server) Metrics() NodeMetrics {
	blocks := s.ledger.Blocks()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	cpuLoad := 0.0
	if percents, err := cpu.Percent(0, false); err != nil {
		log.Printf("[DEVNODE] CPU sample failed: %v", err)
	} else if len(percents) > 0 {
		cpuLoad = percents[0]
	}

	last := blocks[len(blocks)-1]
	return NodeMetrics{
		UptimeSeconds:  int64(time.Since(s.started).Seconds()),
		BlockHeight:    len(blocks),
		PoolSize:       s.pool.Len(),
		CPULoadPercent: cpuLoad,
		MemoryMB:       float64(m.Alloc) / (1024 * 1024),
		LastBlockTime:  time.Unix(0, last.Timestamp).UTC().Format(time.RFC3339),
	}
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.Metrics())
}
