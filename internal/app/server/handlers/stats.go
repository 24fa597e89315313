package handlers

import (
	"net/http"
	"os"
	"strconv"

	"github.com/shirou/gopsutil/v3/process"

	"github.com/jiyufengluo/taskly-kanban/internal/core/contracts"
)

// StatsHandler exposes operational visibility into the realtime layer:
// live connection totals per project plus coarse process usage.
type StatsHandler struct {
	registry contracts.Registry
}

func NewStatsHandler(registry contracts.Registry) *StatsHandler {
	return &StatsHandler{registry: registry}
}

func (h *StatsHandler) Get(w http.ResponseWriter, r *http.Request) {
	total, perProject := h.registry.Counts()
	byProject := make(map[string]int, len(perProject))
	for pid, n := range perProject {
		byProject[strconv.FormatInt(pid, 10)] = n
	}

	resp := map[string]any{
		"total_connections":   total,
		"project_connections": byProject,
	}

	if proc, err := process.NewProcess(int32(os.Getpid())); err == nil {
		if cpu, err := proc.CPUPercent(); err == nil {
			resp["cpu_percent"] = cpu
		}
		if mem, err := proc.MemoryInfo(); err == nil {
			resp["rss_bytes"] = mem.RSS
		}
	}

	writeJSON(w, http.StatusOK, resp)
}
