package handlers

import (
	"github.com/eldergrove/eldergrove-server/internal/config"
	"github.com/eldergrove/eldergrove-server/internal/middleware"
	"github.com/eldergrove/eldergrove-server/internal/notify"
	"github.com/eldergrove/eldergrove-server/internal/realtime"
	"github.com/eldergrove/eldergrove-server/internal/repositories"
	"github.com/eldergrove/eldergrove-server/internal/services"
	"gorm.io/gorm"
)

type HandlerManager struct {
	Config        *config.Config
	DB            *gorm.DB
	PlayerRepo    *repositories.PlayerRepository
	CrystalRepo   *repositories.CrystalRepository
	CovenSvc      *services.CovenService
	RewardSvc     *services.RewardService
	ProductionSvc *services.ProductionService
	AdSvc         *services.AdService
	Hub           *realtime.Hub
	Notifier      *notify.Notifier
	Limiter       *middleware.RateLimiter
}

func NewHandlerManager(
	cfg *config.Config,
	db *gorm.DB,
	playerRepo *repositories.PlayerRepository,
	crystalRepo *repositories.CrystalRepository,
	covenSvc *services.CovenService,
	rewardSvc *services.RewardService,
	productionSvc *services.ProductionService,
	adSvc *services.AdService,
	hub *realtime.Hub,
	notifier *notify.Notifier,
	limiter *middleware.RateLimiter,
) *HandlerManager {
	return &HandlerManager{
		Config:        cfg,
		DB:            db,
		PlayerRepo:    playerRepo,
		CrystalRepo:   crystalRepo,
		CovenSvc:      covenSvc,
		RewardSvc:     rewardSvc,
		ProductionSvc: productionSvc,
		AdSvc:         adSvc,
		Hub:           hub,
		Notifier:      notifier,
		Limiter:       limiter,
	}
}
