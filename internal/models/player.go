package models

import (
	"time"

	"gorm.io/gorm"
)

type Player struct {
	ID              uint       `gorm:"primaryKey"`
	PublicID        string     `gorm:"uniqueIndex;type:varchar(8)"`
	Username        string     `gorm:"uniqueIndex;type:varchar(32);not null"`
	PasswordHash    string     `gorm:"type:varchar(128);not null"`
	DisplayName     string     `gorm:"type:varchar(64);not null"`
	Crystals        int64      `gorm:"default:100;not null"`
	Aether          int64      `gorm:"default:0;not null"`
	Energy          int        `gorm:"default:100;not null"`
	MaxEnergy       int        `gorm:"default:100;not null"`
	Level           int        `gorm:"default:1;not null"`
	XP              int64      `gorm:"default:0;not null"`
	LastClaimedDate *time.Time `gorm:"default:NULL"`
	DailyStreak     int        `gorm:"default:0;not null"`
	TelegramChatID  int64      `gorm:"default:0"` // optional push-notification link
	Version         int64      `gorm:"default:1;not null"`
	LastActivity    time.Time  `gorm:"default:CURRENT_TIMESTAMP"`
	CreatedAt       time.Time  `gorm:"autoCreateTime"`
	UpdatedAt       time.Time  `gorm:"autoUpdateTime"`
}

// Profile is the client-facing projection of a player. The version field
// lets realtime subscribers order updates that arrive out of order.
type Profile struct {
	PublicID    string `json:"public_id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
	Crystals    int64  `json:"crystals"`
	Aether      int64  `json:"aether"`
	Energy      int    `json:"energy"`
	MaxEnergy   int    `json:"max_energy"`
	Level       int    `json:"level"`
	XP          int64  `json:"xp"`
	DailyStreak int    `json:"daily_streak"`
	Version     int64  `json:"version"`
}

// Profile returns the serializable projection of the player.
func (p *Player) Profile() Profile {
	return Profile{
		PublicID:    p.PublicID,
		Username:    p.Username,
		DisplayName: p.DisplayName,
		Crystals:    p.Crystals,
		Aether:      p.Aether,
		Energy:      p.Energy,
		MaxEnergy:   p.MaxEnergy,
		Level:       p.Level,
		XP:          p.XP,
		DailyStreak: p.DailyStreak,
		Version:     p.Version,
	}
}

// GetXPRequired returns XP needed for the current level to reach the next
func (p *Player) GetXPRequired() int64 {
	return int64(p.Level * 100)
}

// CanClaimDaily reports whether the daily reward is still unclaimed for
// the UTC calendar day containing now.
func (p *Player) CanClaimDaily(now time.Time) bool {
	if p.LastClaimedDate == nil {
		return true
	}
	ly, lm, ld := p.LastClaimedDate.UTC().Date()
	ny, nm, nd := now.UTC().Date()
	return ly != ny || lm != nm || ld != nd
}

// BeforeSave hook for validation
func (p *Player) BeforeSave(tx *gorm.DB) error {
	if len(p.Username) < 3 || len(p.Username) > 32 {
		return gorm.ErrInvalidData
	}
	if p.Energy < 0 || p.Energy > p.MaxEnergy {
		return gorm.ErrInvalidData
	}
	if p.Level < 1 {
		return gorm.ErrInvalidData
	}
	return nil
}

// TableName specifies the table name
func (Player) TableName() string {
	return "players"
}
