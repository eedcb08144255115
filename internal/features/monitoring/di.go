package monitoring

import (
	"sync"

	"lunarcms/internal/cache"
	"lunarcms/internal/util/logger"
)

var (
	diOnce sync.Once

	monitoringService    *MonitoringService
	monitoringController *MonitoringController
)

// Wiring is deferred until first use so importing the package does not
// open a cache connection.
func setUpDependencies() {
	monitoringService = &MonitoringService{
		eventRepository: &SecurityEventRepository{},
		cacheClient:     cache.GetCache(),
		logger:          logger.GetLogger(),
	}
	monitoringController = &MonitoringController{
		monitoringService: monitoringService,
	}
}

func GetMonitoringService() *MonitoringService {
	diOnce.Do(setUpDependencies)
	return monitoringService
}

func GetMonitoringController() *MonitoringController {
	diOnce.Do(setUpDependencies)
	return monitoringController
}
