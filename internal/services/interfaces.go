package services

import (
	"time"

	"github.com/eldergrove/eldergrove-server/internal/models"
)

// CovenStore is the persistence surface the coven service works against.
type CovenStore interface {
	CreateCoven(coven *models.Coven, leaderID uint) error
	GetCovenByID(id string) (*models.Coven, error)
	GetMembership(playerID uint) (*models.CovenMember, error)
	InsertMember(covenID string, playerID uint, role string) error
	DeleteMembershipByPlayer(playerID uint) error
	RemoveMember(covenID string, playerID uint) error
	UpdateMemberRole(covenID string, playerID uint, role string) error
	GetMembers(covenID string) ([]models.CovenMember, error)
	SearchCovens(query string, limit int) ([]models.Coven, error)
	ListCovens(limit int) ([]models.Coven, error)
	SoftDeleteCoven(covenID string) error
	IncrementContribution(covenID string, playerID uint, amount int64) error
}

// PlayerStore covers the player reads and profile mutations the services need.
type PlayerStore interface {
	GetPlayerByID(id uint) (*models.Player, error)
	GetPlayersByIDs(ids []uint) ([]models.Player, error)
	SpendEnergy(playerID uint, amount int) error
	RestoreEnergy(playerID uint, amount int) error
	GrantDailyReward(playerID uint, amount int64, claimedAt time.Time, streak int) error
}

// CrystalLedger mutates crystal balances with ledger entries.
type CrystalLedger interface {
	AddCrystals(playerID uint, amount int64, txType, description string) error
	DeductCrystals(playerID uint, amount int64, txType, description string) error
}

// AdLedger is the rewarded-ad view ledger.
type AdLedger interface {
	CountViewsSince(playerID uint, since time.Time) (int, error)
	RecordView(playerID uint, productionType string, watchedAt time.Time) error
}

// ProductionStore is the persistence surface the production service works against.
type ProductionStore interface {
	CreateProduction(prod *models.Production) error
	GetProductionByID(id string) (*models.Production, error)
	GetActiveProductions(playerID uint) ([]models.Production, error)
	CollectReward(id string, at time.Time) error
	ReduceFinishTime(id string, by time.Duration) error
	GetTool(playerID uint, tool string) (*models.PlayerTool, error)
	SpendDurability(playerID uint, tool string, amount int) error
	RestoreDurability(playerID uint, tool string) error
}

// AdPresenter runs the externally provided ad-presentation step. In
// environments without the native capability a no-op stub is wired instead.
type AdPresenter interface {
	Present(playerID uint, productionType string) error
}

// StubPresenter satisfies AdPresenter where no ad SDK is available.
type StubPresenter struct{}

func (StubPresenter) Present(uint, string) error { return nil }

// ProfilePublisher pushes a profile snapshot to realtime subscribers.
// Publishing is fire-and-forget; it never fails the triggering operation.
type ProfilePublisher interface {
	PublishProfile(player *models.Player)
}
