package repositories

import (
	"time"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"gorm.io/gorm"
)

type CovenRepository struct {
	db *gorm.DB
}

func NewCovenRepository(db *gorm.DB) *CovenRepository {
	return &CovenRepository{db: db}
}

// CreateCoven inserts the coven and its leader membership atomically. If the
// membership insert fails the coven insert rolls back, so a leaderless coven
// can never be left behind.
func (r *CovenRepository) CreateCoven(coven *models.Coven, leaderID uint) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(coven).Error; err != nil {
			if err == gorm.ErrDuplicatedKey {
				return errors.New(errors.ErrCodeAlreadyExists, "a coven with that name already exists")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to create coven")
		}

		member := &models.CovenMember{
			CovenID:  coven.ID,
			PlayerID: leaderID,
			Role:     models.CovenRoleLeader,
		}

		if err := tx.Create(member).Error; err != nil {
			if err == gorm.ErrDuplicatedKey {
				return errors.New(errors.ErrCodeConflict, "already in a coven")
			}
			return errors.Wrap(err, errors.ErrCodeInternalError, "failed to add founder as leader")
		}

		return nil
	})
}

// GetCovenByID returns the coven whether or not it is tombstoned; callers
// decide how a tombstone is handled.
func (r *CovenRepository) GetCovenByID(id string) (*models.Coven, error) {
	var coven models.Coven
	if err := r.db.Where("id = ?", id).First(&coven).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.New(errors.ErrCodeNotFound, "coven not found")
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get coven")
	}
	return &coven, nil
}

// GetMembership returns the player's membership row with its coven, or
// (nil, nil) when the player is not in a coven.
func (r *CovenRepository) GetMembership(playerID uint) (*models.CovenMember, error) {
	var member models.CovenMember
	if err := r.db.Preload("Coven").Where("player_id = ?", playerID).First(&member).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get membership")
	}
	return &member, nil
}

// InsertMember adds a membership row. The unique index on player_id is the
// final arbiter for concurrent joins.
func (r *CovenRepository) InsertMember(covenID string, playerID uint, role string) error {
	member := &models.CovenMember{
		CovenID:  covenID,
		PlayerID: playerID,
		Role:     role,
	}
	if err := r.db.Create(member).Error; err != nil {
		if err == gorm.ErrDuplicatedKey {
			return errors.New(errors.ErrCodeConflict, "already in a coven")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to add member")
	}
	return nil
}

// DeleteMembershipByPlayer removes the player's membership row, if any.
func (r *CovenRepository) DeleteMembershipByPlayer(playerID uint) error {
	if err := r.db.Where("player_id = ?", playerID).Delete(&models.CovenMember{}).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to delete membership")
	}
	return nil
}

// RemoveMember deletes a membership scoped by both coven and player so a
// leader cannot reach across coven boundaries.
func (r *CovenRepository) RemoveMember(covenID string, playerID uint) error {
	result := r.db.Where("coven_id = ? AND player_id = ?", covenID, playerID).Delete(&models.CovenMember{})
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to remove member")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "member not found in this coven")
	}
	return nil
}

// UpdateMemberRole updates a member's role, scoped by coven and player.
func (r *CovenRepository) UpdateMemberRole(covenID string, playerID uint, role string) error {
	result := r.db.Model(&models.CovenMember{}).
		Where("coven_id = ? AND player_id = ?", covenID, playerID).
		Update("role", role)
	if result.Error != nil {
		return errors.Wrap(result.Error, errors.ErrCodeInternalError, "failed to update member role")
	}
	if result.RowsAffected == 0 {
		return errors.New(errors.ErrCodeNotFound, "member not found in this coven")
	}
	return nil
}

// GetMembers returns the roster ordered by join time. Display identifiers
// are resolved by the service in a single batch lookup.
func (r *CovenRepository) GetMembers(covenID string) ([]models.CovenMember, error) {
	var members []models.CovenMember
	if err := r.db.Where("coven_id = ?", covenID).Order("joined_at ASC").Find(&members).Error; err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to get coven members")
	}
	return members, nil
}

// SearchCovens matches live covens by case-insensitive substring, newest first.
func (r *CovenRepository) SearchCovens(query string, limit int) ([]models.Coven, error) {
	var covens []models.Coven
	err := r.db.Where("deleted_at IS NULL").
		Where("name ILIKE ?", "%"+query+"%").
		Order("created_at DESC").
		Limit(limit).
		Find(&covens).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to search covens")
	}
	return covens, nil
}

// ListCovens returns live covens, newest first.
func (r *CovenRepository) ListCovens(limit int) ([]models.Coven, error) {
	var covens []models.Coven
	err := r.db.Where("deleted_at IS NULL").
		Order("created_at DESC").
		Limit(limit).
		Find(&covens).Error
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to list covens")
	}
	return covens, nil
}

// SoftDeleteCoven tombstones the coven and frees its name for reuse.
func (r *CovenRepository) SoftDeleteCoven(covenID string) error {
	var coven models.Coven
	if err := r.db.Where("id = ?", covenID).First(&coven).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return errors.New(errors.ErrCodeNotFound, "coven not found")
		}
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to get coven")
	}

	updates := map[string]interface{}{
		"name":       models.TombstoneName(coven.Name, coven.ID),
		"deleted_at": time.Now().UTC(),
	}
	if err := r.db.Model(&coven).Updates(updates).Error; err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to disband coven")
	}
	return nil
}

// IncrementContribution credits a member's contribution counter.
func (r *CovenRepository) IncrementContribution(covenID string, playerID uint, amount int64) error {
	err := r.db.Model(&models.CovenMember{}).
		Where("coven_id = ? AND player_id = ?", covenID, playerID).
		Update("contribution", gorm.Expr("contribution + ?", amount)).Error
	if err != nil {
		return errors.Wrap(err, errors.ErrCodeInternalError, "failed to update contribution")
	}
	return nil
}

// CountMembers returns the roster size for a coven.
func (r *CovenRepository) CountMembers(covenID string) (int64, error) {
	var count int64
	err := r.db.Model(&models.CovenMember{}).Where("coven_id = ?", covenID).Count(&count).Error
	if err != nil {
		return 0, errors.Wrap(err, errors.ErrCodeInternalError, "failed to count members")
	}
	return count, nil
}
