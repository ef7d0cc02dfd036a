package server

import (
	"net/http"
	"runtime"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// SystemHandlers serves process and host status endpoints.
type SystemHandlers struct {
	log     zerolog.Logger
	store   HistoryStore
	started time.Time
}

// NewSystemHandlers creates the system status handlers
func NewSystemHandlers(log zerolog.Logger, store HistoryStore) *SystemHandlers {
	return &SystemHandlers{
		log:     log.With().Str("component", "system_handlers").Logger(),
		store:   store,
		started: time.Now(),
	}
}

// HandleStatus handles GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := map[string]interface{}{
		"status":         "running",
		"uptime_seconds": int64(time.Since(h.started).Seconds()),
		"cpu_percent":    cpuPercent,
		"memory_percent": memPercent,
		"goroutines":     runtime.NumGoroutine(),
		"heap_alloc_mb":  m.Alloc / 1024 / 1024,
	}

	if h.store != nil {
		if count, err := h.store.Count(); err == nil {
			response["history_count"] = count
		} else {
			h.log.Warn().Err(err).Msg("Failed to count history records")
		}
	}

	writeJSON(h.log, w, http.StatusOK, response)
}

// getSystemStats returns host CPU and memory utilization. Failures
// degrade to zero rather than failing the status endpoint.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	var cpuPercent, memPercent float64

	if percents, err := cpu.Percent(100*time.Millisecond, false); err == nil && len(percents) > 0 {
		cpuPercent = percents[0]
	}
	if memStat, err := mem.VirtualMemory(); err == nil {
		memPercent = memStat.UsedPercent
	}

	return cpuPercent, memPercent
}
