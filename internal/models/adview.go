package models

import (
	"time"
)

// AdView is one row of the rewarded-ad ledger. Eligibility is recomputed
// from the ledger on every check, never cached in a counter column.
type AdView struct {
	ID             uint      `gorm:"primaryKey"`
	PlayerID       uint      `gorm:"not null;index:idx_ad_player_time"`
	ProductionType string    `gorm:"type:varchar(20);not null"`
	WatchedAt      time.Time `gorm:"not null;index:idx_ad_player_time"`
}

func (AdView) TableName() string {
	return "ad_views"
}
