package domain

import (
	"github.com/akeren/waitlist-service/config"
	"github.com/akeren/waitlist-service/domain/monitoring"
	"github.com/akeren/waitlist-service/domain/waitlist"
)

func SetupCoreDomain(appConfig *config.ApplicationConfig) {
	appConfig.RouterService.MountController(
		monitoring.NewMonitoringControllerFactory(appConfig.DB, appConfig.Logger, appConfig.Cache).CreateController(),
	)

	appConfig.RouterService.MountController(
		waitlist.NewWaitlistServiceFactory(appConfig.DB, appConfig.Logger, waitlist.ControllerConfig{
			RegistrationsPerMinute: appConfig.Config.WaitlistRateLimitRequests,
		}).CreateController(),
	)
}
