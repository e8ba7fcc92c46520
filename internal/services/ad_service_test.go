package services

import (
	"testing"
	"time"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeEligibility(t *testing.T) {
	tests := []struct {
		name      string
		watched   int
		limit     int
		canWatch  bool
		remaining int
	}{
		{name: "Fresh hour", watched: 0, limit: 5, canWatch: true, remaining: 5},
		{name: "One below limit", watched: 4, limit: 5, canWatch: true, remaining: 1},
		{name: "At limit", watched: 5, limit: 5, canWatch: false, remaining: 0},
		{name: "Over limit", watched: 7, limit: 5, canWatch: false, remaining: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			elig := ComputeEligibility(tt.watched, tt.limit)
			assert.Equal(t, tt.canWatch, elig.CanWatch)
			assert.Equal(t, tt.remaining, elig.AdsRemaining)
			assert.Equal(t, tt.watched, elig.AdsWatchedThisHour)
			assert.Equal(t, tt.limit, elig.HourlyLimit)
		})
	}
}

type adFixture struct {
	svc       *AdService
	ledger    *fakeAdLedger
	presenter *fakePresenter
	players   *fakePlayerStore
	prods     *fakeProductionStore
	now       time.Time
}

func newAdFixture(hourlyLimit int) *adFixture {
	players := newFakePlayerStore(
		&models.Player{ID: 1, Energy: 40, MaxEnergy: 100, Level: 1},
	)
	ledger := &fakeAdLedger{}
	presenter := &fakePresenter{}
	crystals := &fakeCrystalLedger{players: players}
	prodStore := newFakeProductionStore(players, crystals)
	prodSvc := NewProductionService(prodStore, players, crystals, nil, nil, 25)

	f := &adFixture{
		ledger:    ledger,
		presenter: presenter,
		players:   players,
		prods:     prodStore,
		now:       time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	f.svc = NewAdService(ledger, prodSvc, players, presenter, nil, hourlyLimit, time.Hour, 60, 25)
	f.svc.now = func() time.Time { return f.now }
	prodSvc.now = f.svc.now
	return f
}

func (f *adFixture) seedViews(n int, at time.Time) {
	for i := 0; i < n; i++ {
		f.ledger.views = append(f.ledger.views, models.AdView{PlayerID: 1, WatchedAt: at})
	}
}

func TestCanWatchAd_RollingWindow(t *testing.T) {
	f := newAdFixture(5)

	// views older than the window do not count against the quota
	f.seedViews(5, f.now.Add(-61*time.Minute))
	f.seedViews(2, f.now.Add(-30*time.Minute))

	elig, err := f.svc.CanWatchAd(1)
	require.NoError(t, err)
	assert.Equal(t, 2, elig.AdsWatchedThisHour)
	assert.True(t, elig.CanWatch)
	assert.Equal(t, 3, elig.AdsRemaining)
}

func TestWatchAd_AtLimitRejectsBeforePresenting(t *testing.T) {
	f := newAdFixture(5)
	f.seedViews(5, f.now.Add(-10*time.Minute))

	elig, err := f.svc.WatchAdForSpeedUp(1, models.ProductionTypeMine,
		"6f1d2c3b-4a5e-4f60-8b7c-9d0e1f2a3b4c", 10)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRateLimitExceeded, errors.CodeOf(err))
	assert.False(t, elig.CanWatch)

	// no presentation, no ledger write
	assert.Equal(t, 0, f.presenter.calls)
	assert.Len(t, f.ledger.views, 5)
}

func TestWatchAdForEnergy(t *testing.T) {
	f := newAdFixture(5)

	elig, err := f.svc.WatchAdForEnergy(1)
	require.NoError(t, err)

	// view recorded, reward granted, eligibility refreshed
	assert.Equal(t, 1, f.presenter.calls)
	require.Len(t, f.ledger.views, 1)
	assert.Equal(t, "energy", f.ledger.views[0].ProductionType)
	assert.Equal(t, 1, elig.AdsWatchedThisHour)
	assert.Equal(t, 4, elig.AdsRemaining)

	player, err := f.players.GetPlayerByID(1)
	require.NoError(t, err)
	assert.Equal(t, 65, player.Energy)
}

func TestWatchAdForEnergy_CappedAtMax(t *testing.T) {
	f := newAdFixture(5)
	f.players.players[1].Energy = 90

	_, err := f.svc.WatchAdForEnergy(1)
	require.NoError(t, err)

	player, err := f.players.GetPlayerByID(1)
	require.NoError(t, err)
	assert.Equal(t, 100, player.Energy)
}

func TestWatchAdForSpeedUp(t *testing.T) {
	f := newAdFixture(5)

	finishes := f.now.Add(30 * time.Minute)
	f.prods.productions["6f1d2c3b-4a5e-4f60-8b7c-9d0e1f2a3b4c"] = &models.Production{
		ID:             "6f1d2c3b-4a5e-4f60-8b7c-9d0e1f2a3b4c",
		PlayerID:       1,
		ProductionType: models.ProductionTypeMine,
		Status:         models.ProductionStatusRunning,
		FinishesAt:     finishes,
	}

	elig, err := f.svc.WatchAdForSpeedUp(1, models.ProductionTypeMine,
		"6f1d2c3b-4a5e-4f60-8b7c-9d0e1f2a3b4c", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, f.presenter.calls)
	assert.Equal(t, 1, elig.AdsWatchedThisHour)

	prod := f.prods.productions["6f1d2c3b-4a5e-4f60-8b7c-9d0e1f2a3b4c"]
	assert.Equal(t, finishes.Add(-10*time.Minute), prod.FinishesAt)
}

func TestWatchAdForSpeedUp_InvalidInput(t *testing.T) {
	f := newAdFixture(5)

	tests := []struct {
		name     string
		prodType string
		prodID   string
		minutes  int
	}{
		{name: "Unknown type", prodType: "casino", prodID: "6f1d2c3b-4a5e-4f60-8b7c-9d0e1f2a3b4c", minutes: 10},
		{name: "Zero minutes", prodType: models.ProductionTypeMine, prodID: "6f1d2c3b-4a5e-4f60-8b7c-9d0e1f2a3b4c", minutes: 0},
		{name: "Minutes over cap", prodType: models.ProductionTypeMine, prodID: "6f1d2c3b-4a5e-4f60-8b7c-9d0e1f2a3b4c", minutes: 61},
		{name: "Malformed id", prodType: models.ProductionTypeMine, prodID: "abc", minutes: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.WatchAdForSpeedUp(1, tt.prodType, tt.prodID, tt.minutes)
			require.Error(t, err)
			assert.Equal(t, errors.ErrCodeValidationFailed, errors.CodeOf(err))
		})
	}

	// none of the rejected calls reached the presenter or the ledger
	assert.Equal(t, 0, f.presenter.calls)
	assert.Empty(t, f.ledger.views)
}

func TestWatchAd_PresenterFailureSkipsGrant(t *testing.T) {
	f := newAdFixture(5)
	f.presenter.err = errors.New(errors.ErrCodeInternalError, "network down")

	_, err := f.svc.WatchAdForEnergy(1)
	require.Error(t, err)

	// a failed presentation burns no quota and grants nothing
	assert.Empty(t, f.ledger.views)
	player, perr := f.players.GetPlayerByID(1)
	require.NoError(t, perr)
	assert.Equal(t, 40, player.Energy)
}

func TestWatchAd_QuotaExhaustsAcrossCalls(t *testing.T) {
	f := newAdFixture(2)

	for i := 0; i < 2; i++ {
		_, err := f.svc.WatchAdForEnergy(1)
		require.NoError(t, err)
	}

	_, err := f.svc.WatchAdForEnergy(1)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeRateLimitExceeded, errors.CodeOf(err))
	assert.Equal(t, 2, f.presenter.calls)
}
