package repositories

import (
	"time"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"gorm.io/gorm"
)

type AdRepository struct {
	db *gorm.DB
}

func NewAdRepository(db *gorm.DB) *AdRepository {
	return &AdRepository{db: db}
}

// CountViewsSince counts the player's ad views inside the rolling window.
func (r *AdRepository) CountViewsSince(playerID uint, since time.Time) (int, error) {
	var count int64
	err := r.db.Model(&models.AdView{}).
		Where("player_id = ? AND watched_at > ?", playerID, since).
		Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count ad views")
	}
	return int(count), nil
}

// RecordView appends one row to the ad ledger.
func (r *AdRepository) RecordView(playerID uint, productionType string, watchedAt time.Time) error {
	view := &models.AdView{
		PlayerID:       playerID,
		ProductionType: productionType,
		WatchedAt:      watchedAt,
	}
	if err := r.db.Create(view).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to record ad view")
	}
	return nil
}

// PruneViewsBefore drops ledger rows that can no longer affect eligibility.
func (r *AdRepository) PruneViewsBefore(cutoff time.Time) (int64, error) {
	result := r.db.Where("watched_at < ?", cutoff).Delete(&models.AdView{})
	if result.Error != nil {
		return 0, errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to prune ad views")
	}
	return result.RowsAffected, nil
}
