package services

import (
	"fmt"
	"time"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"github.com/google/uuid"
)

// Eligibility is the rewarded-ad quota snapshot, recomputed from the ledger
// on every check rather than trusted from a cached counter.
type Eligibility struct {
	AdsWatchedThisHour int  `json:"ads_watched_this_hour"`
	HourlyLimit        int  `json:"hourly_limit"`
	CanWatch           bool `json:"can_watch"`
	AdsRemaining       int  `json:"ads_remaining"`
}

// ComputeEligibility derives the quota snapshot from a window count.
func ComputeEligibility(watched, limit int) Eligibility {
	remaining := limit - watched
	if remaining < 0 {
		remaining = 0
	}
	return Eligibility{
		AdsWatchedThisHour: watched,
		HourlyLimit:        limit,
		CanWatch:           watched < limit,
		AdsRemaining:       remaining,
	}
}

type AdService struct {
	ledger      AdLedger
	productions *ProductionService
	players     PlayerStore
	presenter   AdPresenter
	publisher   ProfilePublisher

	hourlyLimit     int
	window          time.Duration
	maxSpeedUpMin   int
	energyRestore   int
	now             func() time.Time
}

func NewAdService(
	ledger AdLedger,
	productions *ProductionService,
	players PlayerStore,
	presenter AdPresenter,
	publisher ProfilePublisher,
	hourlyLimit int,
	window time.Duration,
	maxSpeedUpMinutes int,
	energyRestore int,
) *AdService {
	if presenter == nil {
		presenter = StubPresenter{}
	}
	return &AdService{
		ledger:        ledger,
		productions:   productions,
		players:       players,
		presenter:     presenter,
		publisher:     publisher,
		hourlyLimit:   hourlyLimit,
		window:        window,
		maxSpeedUpMin: maxSpeedUpMinutes,
		energyRestore: energyRestore,
		now:           time.Now,
	}
}

// CanWatchAd recomputes eligibility over the rolling window.
func (s *AdService) CanWatchAd(playerID uint) (Eligibility, error) {
	now := s.now()
	watched, err := s.ledger.CountViewsSince(playerID, now.Add(-s.window))
	if err != nil {
		return Eligibility{}, err
	}
	return ComputeEligibility(watched, s.hourlyLimit), nil
}

// WatchAdForSpeedUp runs the full rewarded-ad flow for a production timer:
// verify fresh, present, record, grant, refresh. The reward is only applied
// after the presentation step completes.
func (s *AdService) WatchAdForSpeedUp(playerID uint, productionType, productionID string, minutesReduced int) (Eligibility, error) {
	if !models.ValidProductionType(productionType) {
		return Eligibility{}, errors.New(errors.ErrCodeValidationFailed, "unknown production type")
	}
	if minutesReduced < 1 || minutesReduced > s.maxSpeedUpMin {
		return Eligibility{}, errors.New(errors.ErrCodeValidationFailed,
			fmt.Sprintf("minutes reduced must be between 1 and %d", s.maxSpeedUpMin))
	}
	if _, err := uuid.Parse(productionID); err != nil {
		return Eligibility{}, errors.New(errors.ErrCodeValidationFailed, "invalid production id")
	}

	grant := func() error {
		return s.productions.ReduceProductionTime(playerID, productionID,
			time.Duration(minutesReduced)*time.Minute)
	}
	return s.watchAd(playerID, productionType, grant)
}

// WatchAdForEnergy runs the rewarded-ad flow for an energy restore.
func (s *AdService) WatchAdForEnergy(playerID uint) (Eligibility, error) {
	grant := func() error {
		if err := s.players.RestoreEnergy(playerID, s.energyRestore); err != nil {
			return err
		}
		s.publishProfile(playerID)
		return nil
	}
	return s.watchAd(playerID, "energy", grant)
}

func (s *AdService) watchAd(playerID uint, productionType string, grant func() error) (Eligibility, error) {
	elig, err := s.CanWatchAd(playerID)
	if err != nil {
		return Eligibility{}, err
	}
	if !elig.CanWatch {
		return elig, errors.New(errors.ErrCodeRateLimitExceeded,
			fmt.Sprintf("hourly ad limit reached, %d ads remaining", elig.AdsRemaining))
	}

	if err := s.presenter.Present(playerID, productionType); err != nil {
		return elig, errors.Wrap(err, errors.ErrCodeInternalError, "ad presentation failed")
	}

	if err := s.ledger.RecordView(playerID, productionType, s.now()); err != nil {
		return elig, err
	}

	if err := grant(); err != nil {
		return elig, err
	}

	return s.CanWatchAd(playerID)
}

func (s *AdService) publishProfile(playerID uint) {
	if s.publisher == nil {
		return
	}
	if player, err := s.players.GetPlayerByID(playerID); err == nil {
		s.publisher.PublishProfile(player)
	}
}
