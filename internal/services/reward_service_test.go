package services

import (
	"testing"
	"time"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNextStreak(t *testing.T) {
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	yesterday := time.Date(2025, 6, 1, 23, 50, 0, 0, time.UTC)
	lastWeek := now.AddDate(0, 0, -7)

	tests := []struct {
		name        string
		lastClaimed *time.Time
		current     int
		want        int
	}{
		{name: "First ever claim", lastClaimed: nil, current: 0, want: 1},
		{name: "Claimed yesterday", lastClaimed: &yesterday, current: 3, want: 4},
		{name: "Streak broken", lastClaimed: &lastWeek, current: 6, want: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NextStreak(tt.lastClaimed, tt.current, now))
		})
	}
}

func TestRewardForStreak(t *testing.T) {
	tests := []struct {
		name   string
		streak int
		want   int64
	}{
		{name: "Day one", streak: 1, want: 50},
		{name: "Day three", streak: 3, want: 70},
		{name: "At cap", streak: 7, want: 110},
		{name: "Beyond cap", streak: 30, want: 110},
		{name: "Zero streak", streak: 0, want: 50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, RewardForStreak(50, 10, tt.streak, 7))
		})
	}
}

func newRewardFixture(player *models.Player) (*RewardService, *fakePlayerStore, *fakePublisher) {
	players := newFakePlayerStore(player)
	publisher := &fakePublisher{}
	svc := NewRewardService(players, publisher, 50, 10, 7)
	return svc, players, publisher
}

func TestClaimDaily(t *testing.T) {
	svc, players, publisher := newRewardFixture(&models.Player{ID: 1, Crystals: 100})
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	result, err := svc.ClaimDaily(1)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.False(t, result.AlreadyClaimed)
	assert.Equal(t, int64(50), result.CrystalsAwarded)

	player, err := players.GetPlayerByID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(150), player.Crystals)
	assert.Equal(t, 1, player.DailyStreak)
	require.NotNil(t, player.LastClaimedDate)

	// updated profile pushed to realtime subscribers
	require.Len(t, publisher.published, 1)
	assert.Equal(t, int64(150), publisher.published[0].Crystals)
}

func TestClaimDaily_SecondCallSameDay(t *testing.T) {
	svc, players, _ := newRewardFixture(&models.Player{ID: 1, Crystals: 100})
	now := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	first, err := svc.ClaimDaily(1)
	require.NoError(t, err)
	require.False(t, first.AlreadyClaimed)

	// later the same UTC day
	svc.now = func() time.Time { return now.Add(5 * time.Hour) }

	second, err := svc.ClaimDaily(1)
	require.NoError(t, err)
	assert.True(t, second.Success)
	assert.True(t, second.AlreadyClaimed)
	assert.Zero(t, second.CrystalsAwarded)

	// the balance moved exactly once
	player, err := players.GetPlayerByID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(150), player.Crystals)
	assert.Equal(t, 1, players.grants)
}

func TestClaimDaily_NextUTCDay(t *testing.T) {
	svc, players, _ := newRewardFixture(&models.Player{ID: 1, Crystals: 100})

	// late on day one, then just past midnight UTC
	svc.now = func() time.Time { return time.Date(2025, 6, 1, 23, 59, 0, 0, time.UTC) }
	_, err := svc.ClaimDaily(1)
	require.NoError(t, err)

	svc.now = func() time.Time { return time.Date(2025, 6, 2, 0, 1, 0, 0, time.UTC) }
	result, err := svc.ClaimDaily(1)
	require.NoError(t, err)
	assert.False(t, result.AlreadyClaimed)
	assert.Equal(t, int64(60), result.CrystalsAwarded, "consecutive day earns the streak bonus")

	player, err := players.GetPlayerByID(1)
	require.NoError(t, err)
	assert.Equal(t, 2, player.DailyStreak)
}

func TestClaimDaily_StreakResets(t *testing.T) {
	last := time.Date(2025, 5, 28, 12, 0, 0, 0, time.UTC)
	svc, players, _ := newRewardFixture(&models.Player{
		ID: 1, Crystals: 100, LastClaimedDate: &last, DailyStreak: 5,
	})
	svc.now = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) }

	result, err := svc.ClaimDaily(1)
	require.NoError(t, err)
	assert.Equal(t, int64(50), result.CrystalsAwarded)

	player, err := players.GetPlayerByID(1)
	require.NoError(t, err)
	assert.Equal(t, 1, player.DailyStreak)
}

func TestClaimDaily_ConcurrentLoserReportsAlreadyClaimed(t *testing.T) {
	svc, players, _ := newRewardFixture(&models.Player{ID: 1, Crystals: 100})
	svc.now = func() time.Time { return time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC) }

	// a racing claim wins the grant transaction between our read and our write
	players.grantErr = errors.New(errors.ErrCodeConflict, "daily reward already claimed today")

	result, err := svc.ClaimDaily(1)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.True(t, result.AlreadyClaimed)
	assert.Zero(t, result.CrystalsAwarded)

	player, err := players.GetPlayerByID(1)
	require.NoError(t, err)
	assert.Equal(t, int64(100), player.Crystals)
}
