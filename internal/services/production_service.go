package services

import (
	"time"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/internal/security"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"github.com/eldergrove/eldergrove-server/pkg/logger"
	"github.com/google/uuid"
)

// ProductionPlan holds the per-type costs and rewards. The four mini-games
// share one flow and differ only in these numbers (and the mine's tool).
type ProductionPlan struct {
	EnergyCost     int
	Duration       time.Duration
	RewardCrystals int64
	RewardXP       int64
	DurabilityCost int
}

var defaultPlans = map[string]ProductionPlan{
	models.ProductionTypeMine:    {EnergyCost: 15, Duration: 30 * time.Minute, RewardCrystals: 40, RewardXP: 25, DurabilityCost: 10},
	models.ProductionTypeFarm:    {EnergyCost: 10, Duration: 20 * time.Minute, RewardCrystals: 25, RewardXP: 15},
	models.ProductionTypeFactory: {EnergyCost: 20, Duration: 45 * time.Minute, RewardCrystals: 60, RewardXP: 35},
	models.ProductionTypeZoo:     {EnergyCost: 5, Duration: 15 * time.Minute, RewardCrystals: 15, RewardXP: 10},
}

type ProductionService struct {
	repo      ProductionStore
	players   PlayerStore
	crystals  CrystalLedger
	covens    *CovenService
	publisher ProfilePublisher

	plans          map[string]ProductionPlan
	toolRepairCost int64
	now            func() time.Time
}

func NewProductionService(
	repo ProductionStore,
	players PlayerStore,
	crystals CrystalLedger,
	covens *CovenService,
	publisher ProfilePublisher,
	toolRepairCost int64,
) *ProductionService {
	return &ProductionService{
		repo:           repo,
		players:        players,
		crystals:       crystals,
		covens:         covens,
		publisher:      publisher,
		plans:          defaultPlans,
		toolRepairCost: toolRepairCost,
		now:            time.Now,
	}
}

// PlanFor exposes the cost table for a production type.
func (s *ProductionService) PlanFor(productionType string) (ProductionPlan, bool) {
	plan, ok := s.plans[productionType]
	return plan, ok
}

// StartProduction spends energy (and pickaxe durability for the mine) and
// starts a timer for the requested resource.
func (s *ProductionService) StartProduction(playerID uint, productionType, resource string) (*models.Production, error) {
	if !models.ValidProductionType(productionType) {
		return nil, errors.New(errors.ErrCodeValidationFailed, "unknown production type")
	}

	resource = security.SanitizeString(security.SanitizeHTML(resource))
	if resource == "" || len(resource) > 40 {
		return nil, errors.New(errors.ErrCodeValidationFailed, "resource name must be 1-40 characters")
	}

	plan := s.plans[productionType]

	if productionType == models.ProductionTypeMine {
		// provisions the tool row at full durability on first use
		if _, err := s.repo.GetTool(playerID, models.ToolPickaxe); err != nil {
			return nil, err
		}
		if err := s.repo.SpendDurability(playerID, models.ToolPickaxe, plan.DurabilityCost); err != nil {
			return nil, err
		}
	}

	if err := s.players.SpendEnergy(playerID, plan.EnergyCost); err != nil {
		return nil, err
	}

	now := s.now()
	prod := &models.Production{
		ID:             uuid.NewString(),
		PlayerID:       playerID,
		ProductionType: productionType,
		Resource:       resource,
		RewardCrystals: plan.RewardCrystals,
		RewardXP:       plan.RewardXP,
		Status:         models.ProductionStatusRunning,
		FinishesAt:     now.Add(plan.Duration),
	}

	if err := s.repo.CreateProduction(prod); err != nil {
		return nil, err
	}

	s.publishProfile(playerID)
	return prod, nil
}

// CollectProduction grants the reward for a finished production exactly once.
func (s *ProductionService) CollectProduction(playerID uint, productionID string) (*models.Production, error) {
	if _, err := uuid.Parse(productionID); err != nil {
		return nil, errors.New(errors.ErrCodeValidationFailed, "invalid production id")
	}

	prod, err := s.repo.GetProductionByID(productionID)
	if err != nil {
		return nil, err
	}
	if prod.PlayerID != playerID {
		return nil, errors.New(errors.ErrCodeForbidden, "this production belongs to another player")
	}

	now := s.now()
	if !prod.IsFinished(now) {
		return nil, errors.New(errors.ErrCodeValidationFailed, "production is not finished yet")
	}

	// status flip, crystal credit and ledger entry commit together; a failed
	// grant leaves the production collectable
	if err := s.repo.CollectReward(prod.ID, now); err != nil {
		return nil, err
	}

	// Contribution is best-effort; a failed counter bump never voids the reward.
	if s.covens != nil {
		if err := s.covens.RecordContribution(playerID, prod.RewardCrystals); err != nil {
			logger.Warn("failed to record coven contribution", "player_id", playerID, "error", err)
		}
	}

	s.publishProfile(playerID)

	prod.Status = models.ProductionStatusCollected
	prod.CollectedAt = &now
	return prod, nil
}

// ReduceProductionTime shortens a running production's timer. Called by the
// ad gate after a completed presentation.
func (s *ProductionService) ReduceProductionTime(playerID uint, productionID string, by time.Duration) error {
	prod, err := s.repo.GetProductionByID(productionID)
	if err != nil {
		return err
	}
	if prod.PlayerID != playerID {
		return errors.New(errors.ErrCodeForbidden, "this production belongs to another player")
	}

	return s.repo.ReduceFinishTime(productionID, by)
}

// ListProductions returns the player's running and uncollected productions.
func (s *ProductionService) ListProductions(playerID uint) ([]models.Production, error) {
	return s.repo.GetActiveProductions(playerID)
}

// GetTool returns the player's pickaxe state.
func (s *ProductionService) GetTool(playerID uint) (*models.PlayerTool, error) {
	return s.repo.GetTool(playerID, models.ToolPickaxe)
}

// RepairTool restores the pickaxe to full durability for crystals.
func (s *ProductionService) RepairTool(playerID uint) error {
	if err := s.crystals.DeductCrystals(playerID, s.toolRepairCost,
		models.TxTypeToolRepair, "pickaxe repair"); err != nil {
		return err
	}
	if err := s.repo.RestoreDurability(playerID, models.ToolPickaxe); err != nil {
		return err
	}
	s.publishProfile(playerID)
	return nil
}

func (s *ProductionService) publishProfile(playerID uint) {
	if s.publisher == nil {
		return
	}
	if player, err := s.players.GetPlayerByID(playerID); err == nil {
		s.publisher.PublishProfile(player)
	}
}
