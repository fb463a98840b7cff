package waitlist

import (
	"github.com/akeren/waitlist-service/config/router"
	"github.com/akeren/waitlist-service/internal/log"
	"gorm.io/gorm"
)

// WaitlistServiceFactory assembles the waitlist stack on one database. The
// server mounts CreateController; the CLI only needs CreateService.
type WaitlistServiceFactory interface {
	CreateService() WaitlistService
	CreateController() *router.RESTController
}

type DefaultWaitlistServiceFactory struct {
	db     *gorm.DB
	logger *log.Logger
	cfg    ControllerConfig
}

func NewWaitlistServiceFactory(db *gorm.DB, logger *log.Logger, cfg ControllerConfig) WaitlistServiceFactory {
	return &DefaultWaitlistServiceFactory{db: db, logger: logger, cfg: cfg}
}

func (f *DefaultWaitlistServiceFactory) CreateService() WaitlistService {
	return NewWaitlistService(f.logger, NewWaitlistRepository(f.db))
}

func (f *DefaultWaitlistServiceFactory) CreateController() *router.RESTController {
	return NewWaitlistController(f.CreateService(), f.logger, f.cfg)
}
