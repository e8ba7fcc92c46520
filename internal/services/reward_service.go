package services

import (
	"fmt"
	"time"

	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"github.com/eldergrove/eldergrove-server/pkg/utils"
)

// ClaimResult mirrors the daily-reward endpoint payload.
type ClaimResult struct {
	Success         bool   `json:"success"`
	Message         string `json:"message"`
	CrystalsAwarded int64  `json:"crystalsAwarded,omitempty"`
	AlreadyClaimed  bool   `json:"alreadyClaimed,omitempty"`
}

type RewardService struct {
	players   PlayerStore
	publisher ProfilePublisher

	baseCrystals int64
	streakBonus  int64
	streakCap    int
	now          func() time.Time
}

func NewRewardService(players PlayerStore, publisher ProfilePublisher, baseCrystals, streakBonus int64, streakCap int) *RewardService {
	return &RewardService{
		players:      players,
		publisher:    publisher,
		baseCrystals: baseCrystals,
		streakBonus:  streakBonus,
		streakCap:    streakCap,
		now:          time.Now,
	}
}

// NextStreak computes the streak value a claim at now would set: one more
// than the current streak when yesterday was claimed, otherwise back to 1.
func NextStreak(lastClaimed *time.Time, currentStreak int, now time.Time) int {
	if lastClaimed != nil && utils.IsNextUTCDay(*lastClaimed, now) {
		return currentStreak + 1
	}
	return 1
}

// RewardForStreak returns base crystals plus the capped streak bonus.
func RewardForStreak(base, bonus int64, streak, cap int) int64 {
	effective := streak
	if effective > cap {
		effective = cap
	}
	if effective < 1 {
		effective = 1
	}
	return base + bonus*int64(effective-1)
}

// ClaimDaily grants the daily reward at most once per UTC calendar day.
// A repeat claim on the same day reports alreadyClaimed without touching
// the balance.
func (s *RewardService) ClaimDaily(playerID uint) (*ClaimResult, error) {
	player, err := s.players.GetPlayerByID(playerID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if !player.CanClaimDaily(now) {
		return &ClaimResult{
			Success:        true,
			Message:        "daily reward already claimed today",
			AlreadyClaimed: true,
		}, nil
	}

	streak := NextStreak(player.LastClaimedDate, player.DailyStreak, now)
	amount := RewardForStreak(s.baseCrystals, s.streakBonus, streak, s.streakCap)

	if err := s.players.GrantDailyReward(playerID, amount, now, streak); err != nil {
		// A concurrent claim that won the race inside the grant transaction
		// is the same outcome as a repeat call.
		if errors.CodeOf(err) == errors.ErrCodeConflict {
			return &ClaimResult{
				Success:        true,
				Message:        "daily reward already claimed today",
				AlreadyClaimed: true,
			}, nil
		}
		return nil, err
	}

	s.publishProfile(playerID)

	return &ClaimResult{
		Success:         true,
		Message:         fmt.Sprintf("claimed %d crystals (day %d streak)", amount, streak),
		CrystalsAwarded: amount,
	}, nil
}

func (s *RewardService) publishProfile(playerID uint) {
	if s.publisher == nil {
		return
	}
	if player, err := s.players.GetPlayerByID(playerID); err == nil {
		s.publisher.PublishProfile(player)
	}
}
