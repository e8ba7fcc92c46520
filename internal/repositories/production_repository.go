package repositories

import (
	"time"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ProductionRepository struct {
	db *gorm.DB
}

func NewProductionRepository(db *gorm.DB) *ProductionRepository {
	return &ProductionRepository{db: db}
}

// CreateProduction inserts a new running production
func (r *ProductionRepository) CreateProduction(prod *models.Production) error {
	if err := r.db.Create(prod).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create production")
	}
	return nil
}

// GetProductionByID retrieves a production
func (r *ProductionRepository) GetProductionByID(id string) (*models.Production, error) {
	var prod models.Production
	if err := r.db.Where("id = ?", id).First(&prod).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "production not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get production")
	}
	return &prod, nil
}

// GetActiveProductions lists the player's running and finished-but-uncollected
// productions, newest first.
func (r *ProductionRepository) GetActiveProductions(playerID uint) ([]models.Production, error) {
	var prods []models.Production
	err := r.db.Where("player_id = ? AND status != ?", playerID, models.ProductionStatusCollected).
		Order("started_at DESC").
		Find(&prods).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list productions")
	}
	return prods, nil
}

// CollectReward flips a production to collected and credits the reward in the
// same transaction, so a failed grant rolls the status back and the production
// stays collectable. The status guard inside the locked read makes a
// concurrent double collection the race loser.
func (r *ProductionRepository) CollectReward(id string, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var prod models.Production
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", id).
			First(&prod).Error
		if err == gorm.ErrRecordNotFound {
			return errors.New(errors.ErrCodeNotFound, "production not found")
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get production")
		}
		if prod.Status == models.ProductionStatusCollected {
			return errors.New(errors.ErrCodeConflict, "production already collected")
		}

		if err := tx.Model(&prod).Updates(map[string]interface{}{
			"status":       models.ProductionStatusCollected,
			"collected_at": at,
		}).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to mark production collected")
		}

		var player models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&player, prod.PlayerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.ErrCodeNotFound, "player not found")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get player")
		}

		player.XP += prod.RewardXP
		for player.XP >= player.GetXPRequired() {
			player.XP -= player.GetXPRequired()
			player.Level++
		}

		updates := map[string]interface{}{
			"crystals": player.Crystals + prod.RewardCrystals,
			"xp":       player.XP,
			"level":    player.Level,
			"version":  gorm.Expr("version + 1"),
		}
		if err := tx.Model(&player).Updates(updates).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to credit reward")
		}

		entry := &models.CrystalTransaction{
			PlayerID:        prod.PlayerID,
			Amount:          prod.RewardCrystals,
			TransactionType: models.TxTypeProductionReward,
			Description:     prod.ProductionType + ": " + prod.Resource,
		}
		if err := tx.Create(entry).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create transaction")
		}

		return nil
	})
}

// ReduceFinishTime moves the finish timestamp earlier by the given amount.
func (r *ProductionRepository) ReduceFinishTime(id string, by time.Duration) error {
	result := r.db.Model(&models.Production{}).
		Where("id = ? AND status = ?", id, models.ProductionStatusRunning).
		Update("finishes_at", gorm.Expr("finishes_at - ?::interval", by.String()))
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to speed up production")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeConflict, "production is not running")
	}
	return nil
}

// SweepFinished marks overdue running productions as finished.
func (r *ProductionRepository) SweepFinished(now time.Time) (int64, error) {
	result := r.db.Model(&models.Production{}).
		Where("status = ? AND finishes_at <= ?", models.ProductionStatusRunning, now).
		Update("status", models.ProductionStatusFinished)
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to sweep productions")
	}
	return result.RowsAffected, nil
}

// GetTool fetches a player's tool row, creating it at full durability on
// first use.
func (r *ProductionRepository) GetTool(playerID uint, tool string) (*models.PlayerTool, error) {
	var pt models.PlayerTool
	err := r.db.Where("player_id = ? AND tool = ?", playerID, tool).First(&pt).Error
	if err == gorm.ErrRecordNotFound {
		pt = models.PlayerTool{PlayerID: playerID, Tool: tool, Durability: 100}
		if err := r.db.Create(&pt).Error; err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create tool")
		}
		return &pt, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get tool")
	}
	return &pt, nil
}

// SpendDurability deducts tool durability, failing at zero.
func (r *ProductionRepository) SpendDurability(playerID uint, tool string, amount int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var pt models.PlayerTool
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("player_id = ? AND tool = ?", playerID, tool).
			First(&pt).Error
		if err == gorm.ErrRecordNotFound {
			return errors.New(errors.ErrCodeNotFound, "tool not found")
		}
		if err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get tool")
		}

		if pt.Durability < amount {
			return errors.New(errors.ErrCodeValidationFailed, "tool is broken and needs repair")
		}

		if err := tx.Model(&pt).Update("durability", pt.Durability-amount).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to spend durability")
		}
		return nil
	})
}

// RestoreDurability resets a tool to full durability.
func (r *ProductionRepository) RestoreDurability(playerID uint, tool string) error {
	result := r.db.Model(&models.PlayerTool{}).
		Where("player_id = ? AND tool = ?", playerID, tool).
		Update("durability", 100)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to repair tool")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "tool not found")
	}
	return nil
}
