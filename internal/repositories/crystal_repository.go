package repositories

import (
	"fmt"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CrystalRepository struct {
	db *gorm.DB
}

func NewCrystalRepository(db *gorm.DB) *CrystalRepository {
	return &CrystalRepository{db: db}
}

// AddCrystals credits crystals with a ledger entry.
func (r *CrystalRepository) AddCrystals(playerID uint, amount int64, txType, description string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var player models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&player, playerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.ErrCodeNotFound, "player not found")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get player")
		}

		updates := map[string]interface{}{
			"crystals": player.Crystals + amount,
			"version":  gorm.Expr("version + 1"),
		}
		if err := tx.Model(&player).Updates(updates).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update balance")
		}

		entry := &models.CrystalTransaction{
			PlayerID:        playerID,
			Amount:          amount,
			TransactionType: txType,
			Description:     description,
		}
		if err := tx.Create(entry).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create transaction")
		}

		return nil
	})
}

// DeductCrystals debits crystals, failing on insufficient balance.
func (r *CrystalRepository) DeductCrystals(playerID uint, amount int64, txType, description string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var player models.Player
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&player, playerID).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return errors.New(errors.ErrCodeNotFound, "player not found")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get player")
		}

		if player.Crystals < amount {
			return errors.New(errors.ErrCodeInsufficientFunds,
				fmt.Sprintf("insufficient crystals: have %d, need %d", player.Crystals, amount))
		}

		updates := map[string]interface{}{
			"crystals": player.Crystals - amount,
			"version":  gorm.Expr("version + 1"),
		}
		if err := tx.Model(&player).Updates(updates).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update balance")
		}

		entry := &models.CrystalTransaction{
			PlayerID:        playerID,
			Amount:          -amount,
			TransactionType: txType,
			Description:     description,
		}
		if err := tx.Create(entry).Error; err != nil {
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create transaction")
		}

		return nil
	})
}

// GetTransactionHistory retrieves a player's recent ledger entries.
func (r *CrystalRepository) GetTransactionHistory(playerID uint, limit int) ([]models.CrystalTransaction, error) {
	var transactions []models.CrystalTransaction
	result := r.db.Where("player_id = ?", playerID).
		Order("created_at DESC").
		Limit(limit).
		Find(&transactions)

	if result.Error != nil {
		return nil, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to get transaction history")
	}

	return transactions, nil
}
