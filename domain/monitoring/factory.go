package monitoring

import (
	"github.com/akeren/waitlist-service/config/router"
	"github.com/akeren/waitlist-service/internal/log"
	"gorm.io/gorm"
)

type MonitoringControllerFactory interface {
	CreateController() *router.RESTController
}

// DefaultMonitoringControllerFactory builds the / and /health handlers. A nil
// cache means Redis is not configured and /health reports "cache": 0.
type DefaultMonitoringControllerFactory struct {
	db     *gorm.DB
	logger *log.Logger
	cache  Cache
}

func NewMonitoringControllerFactory(db *gorm.DB, logger *log.Logger, cache Cache) MonitoringControllerFactory {
	return &DefaultMonitoringControllerFactory{db: db, logger: logger, cache: cache}
}

func (f *DefaultMonitoringControllerFactory) CreateController() *router.RESTController {
	return NewMonitoringController(f.db, f.logger, f.cache)
}
