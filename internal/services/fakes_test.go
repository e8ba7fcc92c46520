package services

import (
	"os"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"github.com/eldergrove/eldergrove-server/pkg/logger"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// In-memory stand-ins for the repositories. They enforce the same storage
// constraints the database does: unique live coven names and one membership
// row per player.

type fakeCovenStore struct {
	covens       map[string]*models.Coven
	members      map[uint]*models.CovenMember
	lastLimit    int
	joinSequence int
}

func newFakeCovenStore() *fakeCovenStore {
	return &fakeCovenStore{
		covens:  make(map[string]*models.Coven),
		members: make(map[uint]*models.CovenMember),
	}
}

func (f *fakeCovenStore) nextJoinTime() time.Time {
	f.joinSequence++
	return time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC).Add(time.Duration(f.joinSequence) * time.Minute)
}

func (f *fakeCovenStore) CreateCoven(coven *models.Coven, leaderID uint) error {
	for _, c := range f.covens {
		if c.Name == coven.Name && !c.IsDeleted() {
			return errors.New(errors.ErrCodeAlreadyExists, "a coven with that name already exists")
		}
	}
	stored := *coven
	f.covens[coven.ID] = &stored

	if err := f.InsertMember(coven.ID, leaderID, models.CovenRoleLeader); err != nil {
		// compensating delete, same as the transaction rollback
		delete(f.covens, coven.ID)
		return err
	}
	return nil
}

func (f *fakeCovenStore) GetCovenByID(id string) (*models.Coven, error) {
	c, ok := f.covens[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "coven not found")
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCovenStore) GetMembership(playerID uint) (*models.CovenMember, error) {
	m, ok := f.members[playerID]
	if !ok {
		return nil, nil
	}
	copied := *m
	if c, ok := f.covens[m.CovenID]; ok {
		copied.Coven = *c
	}
	return &copied, nil
}

func (f *fakeCovenStore) InsertMember(covenID string, playerID uint, role string) error {
	if _, exists := f.members[playerID]; exists {
		return errors.New(errors.ErrCodeConflict, "already in a coven")
	}
	f.members[playerID] = &models.CovenMember{
		CovenID:  covenID,
		PlayerID: playerID,
		Role:     role,
		JoinedAt: f.nextJoinTime(),
	}
	return nil
}

func (f *fakeCovenStore) DeleteMembershipByPlayer(playerID uint) error {
	delete(f.members, playerID)
	return nil
}

func (f *fakeCovenStore) RemoveMember(covenID string, playerID uint) error {
	m, ok := f.members[playerID]
	if !ok || m.CovenID != covenID {
		return errors.New(errors.ErrCodeNotFound, "member not found in this coven")
	}
	delete(f.members, playerID)
	return nil
}

func (f *fakeCovenStore) UpdateMemberRole(covenID string, playerID uint, role string) error {
	m, ok := f.members[playerID]
	if !ok || m.CovenID != covenID {
		return errors.New(errors.ErrCodeNotFound, "member not found in this coven")
	}
	m.Role = role
	return nil
}

func (f *fakeCovenStore) GetMembers(covenID string) ([]models.CovenMember, error) {
	var out []models.CovenMember
	for _, m := range f.members {
		if m.CovenID == covenID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (f *fakeCovenStore) SearchCovens(query string, limit int) ([]models.Coven, error) {
	f.lastLimit = limit
	var out []models.Coven
	for _, c := range f.covens {
		if c.IsDeleted() {
			continue
		}
		if strings.Contains(strings.ToLower(c.Name), strings.ToLower(query)) {
			out = append(out, *c)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCovenStore) ListCovens(limit int) ([]models.Coven, error) {
	f.lastLimit = limit
	var out []models.Coven
	for _, c := range f.covens {
		if !c.IsDeleted() {
			out = append(out, *c)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeCovenStore) SoftDeleteCoven(covenID string) error {
	c, ok := f.covens[covenID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "coven not found")
	}
	now := time.Now().UTC()
	c.Name = models.TombstoneName(c.Name, c.ID)
	c.DeletedAt = &now
	return nil
}

func (f *fakeCovenStore) IncrementContribution(covenID string, playerID uint, amount int64) error {
	m, ok := f.members[playerID]
	if !ok || m.CovenID != covenID {
		return errors.New(errors.ErrCodeNotFound, "member not found in this coven")
	}
	m.Contribution += amount
	return nil
}

type fakePlayerStore struct {
	players  map[uint]*models.Player
	grants   int
	grantErr error
}

func newFakePlayerStore(players ...*models.Player) *fakePlayerStore {
	f := &fakePlayerStore{players: make(map[uint]*models.Player)}
	for _, p := range players {
		f.players[p.ID] = p
	}
	return f
}

func (f *fakePlayerStore) GetPlayerByID(id uint) (*models.Player, error) {
	p, ok := f.players[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "player not found")
	}
	copied := *p
	return &copied, nil
}

func (f *fakePlayerStore) GetPlayersByIDs(ids []uint) ([]models.Player, error) {
	var out []models.Player
	for _, id := range ids {
		if p, ok := f.players[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePlayerStore) SpendEnergy(playerID uint, amount int) error {
	p, ok := f.players[playerID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "player not found")
	}
	if p.Energy < amount {
		return errors.New(errors.ErrCodeValidationFailed, "not enough energy")
	}
	p.Energy -= amount
	p.Version++
	return nil
}

func (f *fakePlayerStore) RestoreEnergy(playerID uint, amount int) error {
	p, ok := f.players[playerID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "player not found")
	}
	p.Energy += amount
	if p.Energy > p.MaxEnergy {
		p.Energy = p.MaxEnergy
	}
	p.Version++
	return nil
}

func (f *fakePlayerStore) GrantDailyReward(playerID uint, amount int64, claimedAt time.Time, streak int) error {
	if f.grantErr != nil {
		return f.grantErr
	}
	p, ok := f.players[playerID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "player not found")
	}
	if !p.CanClaimDaily(claimedAt) {
		return errors.New(errors.ErrCodeConflict, "daily reward already claimed today")
	}
	p.Crystals += amount
	t := claimedAt
	p.LastClaimedDate = &t
	p.DailyStreak = streak
	p.Version++
	f.grants++
	return nil
}

type fakeAdLedger struct {
	views []models.AdView
}

func (f *fakeAdLedger) CountViewsSince(playerID uint, since time.Time) (int, error) {
	count := 0
	for _, v := range f.views {
		if v.PlayerID == playerID && v.WatchedAt.After(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeAdLedger) RecordView(playerID uint, productionType string, watchedAt time.Time) error {
	f.views = append(f.views, models.AdView{
		PlayerID:       playerID,
		ProductionType: productionType,
		WatchedAt:      watchedAt,
	})
	return nil
}

type fakePresenter struct {
	calls int
	err   error
}

func (f *fakePresenter) Present(uint, string) error {
	f.calls++
	return f.err
}

type fakeProductionStore struct {
	productions map[string]*models.Production
	tools       map[uint]*models.PlayerTool
	players     *fakePlayerStore
	ledger      *fakeCrystalLedger
}

func newFakeProductionStore(players *fakePlayerStore, ledger *fakeCrystalLedger) *fakeProductionStore {
	return &fakeProductionStore{
		productions: make(map[string]*models.Production),
		tools:       make(map[uint]*models.PlayerTool),
		players:     players,
		ledger:      ledger,
	}
}

func (f *fakeProductionStore) CreateProduction(prod *models.Production) error {
	stored := *prod
	f.productions[prod.ID] = &stored
	return nil
}

func (f *fakeProductionStore) GetProductionByID(id string) (*models.Production, error) {
	p, ok := f.productions[id]
	if !ok {
		return nil, errors.New(errors.ErrCodeNotFound, "production not found")
	}
	copied := *p
	return &copied, nil
}

func (f *fakeProductionStore) GetActiveProductions(playerID uint) ([]models.Production, error) {
	var out []models.Production
	for _, p := range f.productions {
		if p.PlayerID == playerID && p.Status != models.ProductionStatusCollected {
			out = append(out, *p)
		}
	}
	return out, nil
}

// CollectReward mirrors the transactional repository method: the status flip
// and the grant succeed or fail as one unit.
func (f *fakeProductionStore) CollectReward(id string, at time.Time) error {
	p, ok := f.productions[id]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "production not found")
	}
	if p.Status == models.ProductionStatusCollected {
		return errors.New(errors.ErrCodeConflict, "production already collected")
	}

	if err := f.ledger.AddCrystals(p.PlayerID, p.RewardCrystals,
		models.TxTypeProductionReward, p.ProductionType+": "+p.Resource); err != nil {
		return err
	}

	player := f.players.players[p.PlayerID]
	player.XP += p.RewardXP
	for player.XP >= player.GetXPRequired() {
		player.XP -= player.GetXPRequired()
		player.Level++
	}

	p.Status = models.ProductionStatusCollected
	t := at
	p.CollectedAt = &t
	return nil
}

func (f *fakeProductionStore) ReduceFinishTime(id string, by time.Duration) error {
	p, ok := f.productions[id]
	if !ok || p.Status != models.ProductionStatusRunning {
		return errors.New(errors.ErrCodeConflict, "production is not running")
	}
	p.FinishesAt = p.FinishesAt.Add(-by)
	return nil
}

func (f *fakeProductionStore) GetTool(playerID uint, tool string) (*models.PlayerTool, error) {
	if t, ok := f.tools[playerID]; ok {
		copied := *t
		return &copied, nil
	}
	t := &models.PlayerTool{PlayerID: playerID, Tool: tool, Durability: 100}
	f.tools[playerID] = t
	copied := *t
	return &copied, nil
}

func (f *fakeProductionStore) SpendDurability(playerID uint, tool string, amount int) error {
	t, ok := f.tools[playerID]
	if !ok {
		t = &models.PlayerTool{PlayerID: playerID, Tool: tool, Durability: 100}
		f.tools[playerID] = t
	}
	if t.Durability < amount {
		return errors.New(errors.ErrCodeValidationFailed, "tool is broken and needs repair")
	}
	t.Durability -= amount
	return nil
}

func (f *fakeProductionStore) RestoreDurability(playerID uint, tool string) error {
	t, ok := f.tools[playerID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "tool not found")
	}
	t.Durability = 100
	return nil
}

type fakeCrystalLedger struct {
	players *fakePlayerStore
	entries []string
	err     error
}

func (f *fakeCrystalLedger) AddCrystals(playerID uint, amount int64, txType, description string) error {
	if f.err != nil {
		return f.err
	}
	p, ok := f.players.players[playerID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "player not found")
	}
	p.Crystals += amount
	p.Version++
	f.entries = append(f.entries, txType)
	return nil
}

func (f *fakeCrystalLedger) DeductCrystals(playerID uint, amount int64, txType, description string) error {
	p, ok := f.players.players[playerID]
	if !ok {
		return errors.New(errors.ErrCodeNotFound, "player not found")
	}
	if p.Crystals < amount {
		return errors.New(errors.ErrCodeInsufficientFunds, "insufficient crystals")
	}
	p.Crystals -= amount
	p.Version++
	f.entries = append(f.entries, txType)
	return nil
}

type fakePublisher struct {
	published []models.Player
}

func (f *fakePublisher) PublishProfile(player *models.Player) {
	f.published = append(f.published, *player)
}
