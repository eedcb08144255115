package system_healthcheck

import (
	"context"
	"log/slog"
	"time"

	"lunarcms/internal/cache"
	"lunarcms/internal/storage"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"
)

type ComponentStatus struct {
	IsHealthy bool   `json:"isHealthy"`
	Error     string `json:"error,omitempty"`
}

type ResourceReport struct {
	MemoryUsedPercent float64 `json:"memoryUsedPercent"`
	DiskUsedPercent   float64 `json:"diskUsedPercent"`
	DiskFreeBytes     uint64  `json:"diskFreeBytes"`
}

type HealthcheckResponse struct {
	IsHealthy bool            `json:"isHealthy"`
	Database  ComponentStatus `json:"database"`
	Cache     ComponentStatus `json:"cache"`
	Resources *ResourceReport `json:"resources,omitempty"`
}

type HealthcheckService struct {
	logger *slog.Logger
}

func (s *HealthcheckService) CheckHealth() *HealthcheckResponse {
	response := &HealthcheckResponse{
		Database:  s.checkDatabase(),
		Cache:     s.checkCache(),
		Resources: s.collectResources(),
	}

	response.IsHealthy = response.Database.IsHealthy && response.Cache.IsHealthy

	return response
}

func (s *HealthcheckService) checkDatabase() ComponentStatus {
	db, err := storage.GetDb().DB()
	if err != nil {
		return ComponentStatus{IsHealthy: false, Error: err.Error()}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return ComponentStatus{IsHealthy: false, Error: err.Error()}
	}

	return ComponentStatus{IsHealthy: true}
}

func (s *HealthcheckService) checkCache() ComponentStatus {
	client := cache.GetCache()

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		return ComponentStatus{IsHealthy: false, Error: err.Error()}
	}

	return ComponentStatus{IsHealthy: true}
}

func (s *HealthcheckService) collectResources() *ResourceReport {
	report := &ResourceReport{}

	memoryStat, err := mem.VirtualMemory()
	if err != nil {
		s.logger.Warn("failed to read memory stats", "error", err)
	} else {
		report.MemoryUsedPercent = memoryStat.UsedPercent
	}

	diskStat, err := disk.Usage("/")
	if err != nil {
		s.logger.Warn("failed to read disk stats", "error", err)
	} else {
		report.DiskUsedPercent = diskStat.UsedPercent
		report.DiskFreeBytes = diskStat.Free
	}

	return report
}
