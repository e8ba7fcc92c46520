package jobs

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/internal/notify"
	"github.com/eldergrove/eldergrove-server/pkg/logger"
	"github.com/eldergrove/eldergrove-server/pkg/utils"
)

// AdPruner removes ad-ledger rows too old to affect eligibility.
type AdPruner interface {
	PruneViewsBefore(cutoff time.Time) (int64, error)
}

// ProductionSweeper marks overdue running productions as finished.
type ProductionSweeper interface {
	SweepFinished(now time.Time) (int64, error)
}

// DailyNotifiableLister finds players eligible for a daily-reward nudge.
type DailyNotifiableLister interface {
	GetDailyNotifiable(today time.Time) ([]models.Player, error)
}

// Scheduler runs the periodic maintenance jobs.
type Scheduler struct {
	cron     *cron.Cron
	ads      AdPruner
	prods    ProductionSweeper
	players  DailyNotifiableLister
	notifier *notify.Notifier
	adWindow time.Duration
}

func NewScheduler(
	ads AdPruner,
	prods ProductionSweeper,
	players DailyNotifiableLister,
	notifier *notify.Notifier,
	adWindow time.Duration,
) *Scheduler {
	return &Scheduler{
		cron:     cron.New(cron.WithLocation(time.UTC)),
		ads:      ads,
		prods:    prods,
		players:  players,
		notifier: notifier,
		adWindow: adWindow,
	}
}

// Start registers the jobs and begins the cron loop.
func (s *Scheduler) Start() error {
	// every 10 minutes: finish overdue production timers
	if _, err := s.cron.AddFunc("*/10 * * * *", s.sweepProductions); err != nil {
		return err
	}

	// hourly: drop ad-ledger rows that fell out of the eligibility window
	if _, err := s.cron.AddFunc("7 * * * *", s.pruneAdViews); err != nil {
		return err
	}

	// 18:00 UTC: nudge linked players who have not claimed today
	if _, err := s.cron.AddFunc("0 18 * * *", s.notifyDailyRewards); err != nil {
		return err
	}

	s.cron.Start()
	logger.Info("maintenance scheduler started")
	return nil
}

// Stop halts the cron loop and waits for running jobs to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("maintenance scheduler stopped")
}

func (s *Scheduler) sweepProductions() {
	swept, err := s.prods.SweepFinished(time.Now().UTC())
	if err != nil {
		logger.Error("production sweep failed", "error", err)
		return
	}
	if swept > 0 {
		logger.Info("swept finished productions", "count", swept)
	}
}

func (s *Scheduler) pruneAdViews() {
	// keep a day of margin beyond the window for debugging
	cutoff := time.Now().UTC().Add(-s.adWindow - 24*time.Hour)
	pruned, err := s.ads.PruneViewsBefore(cutoff)
	if err != nil {
		logger.Error("ad ledger prune failed", "error", err)
		return
	}
	if pruned > 0 {
		logger.Info("pruned ad views", "count", pruned)
	}
}

func (s *Scheduler) notifyDailyRewards() {
	if s.notifier == nil {
		return
	}

	today := utils.StartOfUTCDay(time.Now())
	players, err := s.players.GetDailyNotifiable(today)
	if err != nil {
		logger.Error("failed to list notifiable players", "error", err)
		return
	}

	for i := range players {
		s.notifier.DailyRewardReady(&players[i])
	}
	if len(players) > 0 {
		logger.Info("sent daily reward reminders", "count", len(players))
	}
}
