package repositories

import (
	"time"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"github.com/eldergrove/eldergrove-server/pkg/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type PlayerRepository struct {
	db *gorm.DB
}

func NewPlayerRepository(db *gorm.DB) *PlayerRepository {
	return &PlayerRepository{db: db}
}

// CreatePlayer creates a new player
func (r *PlayerRepository) CreatePlayer(player *models.Player) error {
	if player.PublicID == "" {
		player.PublicID = utils.GenerateRandomID(8)
	}

	result := r.db.Create(player)
	if result.Error == gorm.ErrDuplicatedKey {
		return errors.New(errors.ErrCodeAlreadyExists, "username already taken")
	}
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to create player")
	}
	return nil
}

// GetPlayerByID retrieves a player by ID
func (r *PlayerRepository) GetPlayerByID(id uint) (*models.Player, error) {
	var player models.Player
	result := r.db.First(&player, id)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "player not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get player")
	}

	return &player, nil
}

// GetPlayerByUsername retrieves a player by username
func (r *PlayerRepository) GetPlayerByUsername(username string) (*models.Player, error) {
	var player models.Player
	result := r.db.Where("username = ?", username).First(&player)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "player not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get player")
	}

	return &player, nil
}

// GetPlayerByPublicID retrieves a player by public ID
func (r *PlayerRepository) GetPlayerByPublicID(publicID string) (*models.Player, error) {
	var player models.Player
	result := r.db.Where("public_id = ?", publicID).First(&player)

	if result.Error == gorm.ErrRecordNotFound {
		return nil, errors.New(errors.ErrCodeNotFound, "player not found")
	}
	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get player")
	}

	return &player, nil
}

// GetPlayersByIDs batch-resolves players for a set of ids in one query.
func (r *PlayerRepository) GetPlayersByIDs(ids []uint) ([]models.Player, error) {
	var players []models.Player
	if len(ids) == 0 {
		return players, nil
	}
	if err := r.db.Where("id IN ?", ids).Find(&players).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to resolve players")
	}
	return players, nil
}

// SpendEnergy deducts energy, failing when the budget is insufficient.
// Bumps the profile version so realtime subscribers see the change.
func (r *PlayerRepository) SpendEnergy(playerID uint, amount int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var player models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&player, playerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.ErrCodeNotFound, "player not found")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get player")
		}

		if player.Energy < amount {
			return errors.New(errors.ErrCodeValidationFailed, "not enough energy")
		}

		updates := map[string]interface{}{
			"energy":  player.Energy - amount,
			"version": gorm.Expr("version + 1"),
		}
		if err := tx.Model(&player).Updates(updates).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to spend energy")
		}
		return nil
	})
}

// RestoreEnergy adds energy, clamped to the player's maximum.
func (r *PlayerRepository) RestoreEnergy(playerID uint, amount int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var player models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&player, playerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.ErrCodeNotFound, "player not found")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get player")
		}

		energy := player.Energy + amount
		if energy > player.MaxEnergy {
			energy = player.MaxEnergy
		}

		updates := map[string]interface{}{
			"energy":  energy,
			"version": gorm.Expr("version + 1"),
		}
		if err := tx.Model(&player).Updates(updates).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to restore energy")
		}
		return nil
	})
}

// GrantDailyReward credits the daily crystals, advances the claim date and
// streak, and writes the ledger entry, all in one transaction. The claim-date
// guard inside the locked read keeps the grant idempotent per calendar day
// even under concurrent claims.
func (r *PlayerRepository) GrantDailyReward(playerID uint, amount int64, claimedAt time.Time, streak int) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var player models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&player, playerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.ErrCodeNotFound, "player not found")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get player")
		}

		if !player.CanClaimDaily(claimedAt) {
			return errors.New(errors.ErrCodeConflict, "daily reward already claimed today")
		}

		updates := map[string]interface{}{
			"crystals":          player.Crystals + amount,
			"last_claimed_date": claimedAt,
			"daily_streak":      streak,
			"version":           gorm.Expr("version + 1"),
		}
		if err := tx.Model(&player).Updates(updates).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to grant daily reward")
		}

		entry := &models.CrystalTransaction{
			PlayerID:        playerID,
			Amount:          amount,
			TransactionType: models.TxTypeDailyReward,
			Description:     "daily login reward",
		}
		if err := tx.Create(entry).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create transaction")
		}

		return nil
	})
}

// UpdateLastActivity updates the player's last activity timestamp
func (r *PlayerRepository) UpdateLastActivity(playerID uint) error {
	result := r.db.Model(&models.Player{}).Where("id = ?", playerID).
		Update("last_activity", gorm.Expr("CURRENT_TIMESTAMP"))
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update last activity")
	}
	return nil
}

// LinkTelegramChat stores the chat id used by the notification bridge.
func (r *PlayerRepository) LinkTelegramChat(playerID uint, chatID int64) error {
	result := r.db.Model(&models.Player{}).Where("id = ?", playerID).
		Update("telegram_chat_id", chatID)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to link telegram chat")
	}
	return nil
}

// GetDailyNotifiable returns players with a linked chat who have not yet
// claimed today's reward.
func (r *PlayerRepository) GetDailyNotifiable(today time.Time) ([]models.Player, error) {
	var players []models.Player
	err := r.db.Where("telegram_chat_id != 0").
		Where("last_claimed_date IS NULL OR last_claimed_date < ?", today).
		Find(&players).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list notifiable players")
	}
	return players, nil
}
