package models

import (
	"time"
)

type Production struct {
	ID             string     `gorm:"primaryKey;type:uuid"`
	PlayerID       uint       `gorm:"not null;index"`
	Player         Player     `gorm:"foreignKey:PlayerID;constraint:OnDelete:CASCADE"`
	ProductionType string     `gorm:"type:varchar(20);not null;index"`
	Resource       string     `gorm:"type:varchar(40);not null"`
	RewardCrystals int64      `gorm:"not null"`
	RewardXP       int64      `gorm:"not null"`
	Status         string     `gorm:"type:varchar(20);default:'running';index"`
	StartedAt      time.Time  `gorm:"autoCreateTime"`
	FinishesAt     time.Time  `gorm:"not null"`
	CollectedAt    *time.Time `gorm:"default:NULL"`
}

type PlayerTool struct {
	ID         uint      `gorm:"primaryKey"`
	PlayerID   uint      `gorm:"not null;index:idx_player_tool,unique"`
	Tool       string    `gorm:"type:varchar(20);not null;index:idx_player_tool,unique"`
	Durability int       `gorm:"default:100;not null"`
	UpdatedAt  time.Time `gorm:"autoUpdateTime"`
}

// ProductionInfo is the client-facing projection of a production.
type ProductionInfo struct {
	ID             string     `json:"id"`
	ProductionType string     `json:"production_type"`
	Resource       string     `json:"resource"`
	RewardCrystals int64      `json:"reward_crystals"`
	RewardXP       int64      `json:"reward_xp"`
	Status         string     `json:"status"`
	StartedAt      time.Time  `json:"started_at"`
	FinishesAt     time.Time  `json:"finishes_at"`
	CollectedAt    *time.Time `json:"collected_at,omitempty"`
}

// Info returns the serializable projection of the production.
func (p *Production) Info() ProductionInfo {
	return ProductionInfo{
		ID:             p.ID,
		ProductionType: p.ProductionType,
		Resource:       p.Resource,
		RewardCrystals: p.RewardCrystals,
		RewardXP:       p.RewardXP,
		Status:         p.Status,
		StartedAt:      p.StartedAt,
		FinishesAt:     p.FinishesAt,
		CollectedAt:    p.CollectedAt,
	}
}

// ToolInfo is the client-facing projection of a player tool.
type ToolInfo struct {
	Tool       string `json:"tool"`
	Durability int    `json:"durability"`
}

// Info returns the serializable projection of the tool.
func (t *PlayerTool) Info() ToolInfo {
	return ToolInfo{Tool: t.Tool, Durability: t.Durability}
}

// Production type constants
const (
	ProductionTypeMine    = "mine"
	ProductionTypeFarm    = "farm"
	ProductionTypeFactory = "factory"
	ProductionTypeZoo     = "zoo"
)

// Production status constants
const (
	ProductionStatusRunning   = "running"
	ProductionStatusFinished  = "finished"
	ProductionStatusCollected = "collected"
)

const ToolPickaxe = "pickaxe"

var productionTypes = map[string]bool{
	ProductionTypeMine:    true,
	ProductionTypeFarm:    true,
	ProductionTypeFactory: true,
	ProductionTypeZoo:     true,
}

// ValidProductionType reports whether t names one of the four mini-games.
func ValidProductionType(t string) bool {
	return productionTypes[t]
}

// IsFinished reports whether the production timer has elapsed at now.
func (p *Production) IsFinished(now time.Time) bool {
	return p.Status == ProductionStatusFinished || !now.Before(p.FinishesAt)
}

func (Production) TableName() string {
	return "productions"
}

func (PlayerTool) TableName() string {
	return "player_tools"
}
