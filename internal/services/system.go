package services

import (
	"context"
	"os"
	"runtime"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
	"go.uber.org/zap"
)

type SystemStatus struct {
	CapturedAt        time.Time `json:"capturedAt"`
	ProcessRSSBytes   int64     `json:"processRssBytes"`
	Goroutines        int       `json:"goroutines"`
	SystemMemoryTotal int64     `json:"systemMemoryTotalBytes"`
	SystemMemoryUsed  int64     `json:"systemMemoryUsedBytes"`
	StorageTotalBytes int64     `json:"storageTotalBytes"`
	StorageUsedBytes  int64     `json:"storageUsedBytes"`
	StorageFreeBytes  int64     `json:"storageFreeBytes"`
	ProcessCPULoad    float64   `json:"processCpuLoad"`
	SystemCPULoad     float64   `json:"systemCpuLoad"`
	DatabaseOK        bool      `json:"databaseOk"`
	CountsOK          bool      `json:"countsOk"`
	Counts            Counts    `json:"counts"`
}

type Counts struct {
	Users        int `db:"users" json:"users"`
	Assets       int `db:"assets" json:"assets"`
	Photos       int `db:"photos" json:"photos"`
	Documents    int `db:"documents" json:"documents"`
	TheftReports int `db:"theft_reports" json:"theftReports"`
}

// CaptureStatus samples host and storage usage for the admin status page.
// Counts are left zero with CountsOK false when the count query fails.
func CaptureStatus(ctx context.Context, db *sqlx.DB, storagePath string, logger *zap.Logger) SystemStatus {
	if logger == nil {
		logger = zap.NewNop()
	}
	proc, _ := process.NewProcessWithContext(ctx, int32(os.Getpid()))
	memStat, _ := mem.VirtualMemoryWithContext(ctx)
	diskStat, err := disk.UsageWithContext(ctx, storagePath)
	if err != nil {
		diskStat, _ = disk.UsageWithContext(ctx, "/")
	}
	status := SystemStatus{
		CapturedAt: time.Now().UTC(),
		Goroutines: runtime.NumGoroutine(),
	}
	if proc != nil {
		if rss, _ := proc.MemoryInfoWithContext(ctx); rss != nil {
			status.ProcessRSSBytes = int64(rss.RSS)
		}
		cpuPerc, _ := proc.CPUPercentWithContext(ctx)
		status.ProcessCPULoad = cpuPerc / 100.0
	}
	if memStat != nil {
		status.SystemMemoryTotal = int64(memStat.Total)
		status.SystemMemoryUsed = int64(memStat.Total - memStat.Available)
	}
	if diskStat != nil {
		status.StorageTotalBytes = int64(diskStat.Total)
		status.StorageUsedBytes = int64(diskStat.Used)
		status.StorageFreeBytes = int64(diskStat.Free)
	}
	if sysCPU, _ := cpu.PercentWithContext(ctx, 0, false); len(sysCPU) > 0 {
		status.SystemCPULoad = sysCPU[0] / 100.0
	}
	if db != nil {
		status.DatabaseOK = db.PingContext(ctx) == nil
		err := db.GetContext(ctx, &status.Counts, `
SELECT
  (SELECT COUNT(*) FROM users) AS users,
  (SELECT COUNT(*) FROM assets) AS assets,
  (SELECT COUNT(*) FROM asset_photos) AS photos,
  (SELECT COUNT(*) FROM asset_documents) AS documents,
  (SELECT COUNT(*) FROM theft_reports) AS theft_reports
`)
		if err != nil {
			logger.Warn("status counts query failed", zap.Error(err))
			status.Counts = Counts{}
		} else {
			status.CountsOK = true
		}
	}
	return status
}
