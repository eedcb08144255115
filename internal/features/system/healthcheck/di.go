package system_healthcheck

import (
	"lunarcms/internal/util/logger"
)

var healthcheckService = &HealthcheckService{
	logger: logger.GetLogger(),
}
var healthcheckController = &HealthcheckController{
	healthcheckService,
}

func GetHealthcheckController() *HealthcheckController {
	return healthcheckController
}
