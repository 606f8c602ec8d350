package workers

import (
	"context"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/process"
)

// HealthMonitoringWorker periodically samples the service's own process
// (CPU, resident memory, goroutine count) and logs the readings. It is the
// only observability surface of the service; there is no metrics endpoint.
type HealthMonitoringWorker struct {
	log            *slog.Logger
	metricInterval time.Duration
}

func NewHealthMonitoringWorker(log *slog.Logger, metricInterval time.Duration) *HealthMonitoringWorker {
	return &HealthMonitoringWorker{log: log, metricInterval: metricInterval}
}

func (w *HealthMonitoringWorker) Run(ctx context.Context) error {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		return err
	}

	ticker := time.NewTicker(w.metricInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping health monitoring")
			return nil
		case <-ticker.C:
			cpu, err := proc.CPUPercent()
			if err != nil {
				w.log.Error("Error while reading process cpu usage", "err", err)
				continue
			}
			mem, err := proc.MemoryInfo()
			if err != nil {
				w.log.Error("Error while reading process memory usage", "err", err)
				continue
			}
			w.log.Info("Service health",
				"cpu_percent", cpu,
				"rss_mb", mem.RSS/(1024*1024),
				"goroutines", runtime.NumGoroutine(),
			)
		}
	}
}
