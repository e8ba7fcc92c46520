package models

import (
	"time"
)

type CrystalTransaction struct {
	ID              uint      `gorm:"primaryKey"`
	PlayerID        uint      `gorm:"not null;index"`
	Player          Player    `gorm:"foreignKey:PlayerID;constraint:OnDelete:CASCADE"`
	Amount          int64     `gorm:"not null"`
	TransactionType string    `gorm:"type:varchar(50);not null;index"`
	Description     string    `gorm:"type:text"`
	CreatedAt       time.Time `gorm:"autoCreateTime;index"`
}

// Transaction type constants
const (
	TxTypeDailyReward      = "daily_reward"
	TxTypeProductionReward = "production_reward"
	TxTypeToolRepair       = "tool_repair"
	TxTypeWelcomeBonus     = "welcome_bonus"
	TxTypeAdminAdjustment  = "admin_adjustment"
)

func (CrystalTransaction) TableName() string {
	return "crystal_transactions"
}

type TransactionInfo struct {
	ID              uint      `json:"id"`
	Amount          int64     `json:"amount"`
	TransactionType string    `json:"transaction_type"`
	Description     string    `json:"description,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
}

func (t *CrystalTransaction) Info() TransactionInfo {
	return TransactionInfo{
		ID:              t.ID,
		Amount:          t.Amount,
		TransactionType: t.TransactionType,
		Description:     t.Description,
		CreatedAt:       t.CreatedAt,
	}
}
