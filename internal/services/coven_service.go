package services

import (
	"time"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/internal/security"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"github.com/google/uuid"
)

const (
	searchLimitMin = 1
	searchLimitMax = 50
	listLimitMax   = 100
)

type CovenService struct {
	repo    CovenStore
	players PlayerStore
}

func NewCovenService(repo CovenStore, players PlayerStore) *CovenService {
	return &CovenService{
		repo:    repo,
		players: players,
	}
}

// RosterEntry is one member of a coven with display identifiers attached.
type RosterEntry struct {
	PlayerID     uint      `json:"player_id"`
	PublicID     string    `json:"public_id"`
	DisplayName  string    `json:"display_name"`
	Level        int       `json:"level"`
	Role         string    `json:"role"`
	Contribution int64     `json:"contribution"`
	JoinedAt     time.Time `json:"joined_at"`
}

// CreateCoven founds a new coven with the caller as leader. A stale
// membership pointing at a tombstoned coven is purged first; an active
// membership elsewhere rejects the creation.
func (s *CovenService) CreateCoven(playerID uint, name, emblem string) (*models.Coven, error) {
	name = security.SanitizeString(security.SanitizeHTML(name))
	if !models.ValidCovenName(name) {
		return nil, errors.New(errors.ErrCodeValidationFailed,
			"coven name must be 1-50 letters, digits, spaces, apostrophes or hyphens")
	}

	emblem = security.SanitizeString(security.SanitizeHTML(emblem))
	if !models.ValidCovenEmblem(emblem) {
		return nil, errors.New(errors.ErrCodeValidationFailed, "emblem must be at most 10 characters")
	}

	if err := s.ensureNoActiveMembership(playerID); err != nil {
		return nil, err
	}

	coven := &models.Coven{
		ID:       uuid.NewString(),
		Name:     name,
		Emblem:   emblem,
		LeaderID: playerID,
	}

	if err := s.repo.CreateCoven(coven, playerID); err != nil {
		return nil, err
	}

	return coven, nil
}

// JoinCoven adds the caller to an existing live coven as a plain member.
func (s *CovenService) JoinCoven(playerID uint, covenID string) error {
	if err := validateCovenID(covenID); err != nil {
		return err
	}

	coven, err := s.repo.GetCovenByID(covenID)
	if err != nil {
		return err
	}
	if coven.IsDeleted() {
		return errors.New(errors.ErrCodeGone, "this coven has been disbanded")
	}

	if err := s.ensureNoActiveMembership(playerID); err != nil {
		return err
	}

	// A concurrent join races here; the unique index on player_id decides,
	// and InsertMember reports the loss as "already in a coven".
	return s.repo.InsertMember(coven.ID, playerID, models.CovenRoleMember)
}

// LeaveCoven removes the caller's membership. The leader may not leave;
// leadership transfer is not supported, only disbanding.
func (s *CovenService) LeaveCoven(playerID uint) error {
	member, err := s.repo.GetMembership(playerID)
	if err != nil {
		return err
	}
	if member == nil {
		return errors.New(errors.ErrCodeNotFound, "you are not in a coven")
	}
	if member.Role == models.CovenRoleLeader {
		return errors.New(errors.ErrCodeForbidden, "the leader cannot leave the coven")
	}

	return s.repo.RemoveMember(member.CovenID, playerID)
}

// KickMember removes another member from the caller's coven. Leader only,
// and the leader cannot kick themselves.
func (s *CovenService) KickMember(callerID, targetID uint) error {
	if callerID == targetID {
		return errors.New(errors.ErrCodeValidationFailed, "the leader cannot kick themselves")
	}

	coven, err := s.callerLeaderCoven(callerID)
	if err != nil {
		return err
	}

	return s.repo.RemoveMember(coven.ID, targetID)
}

// UpdateMemberRole promotes or demotes a member between member and elder.
// The leader role is never assigned or removed through this path.
func (s *CovenService) UpdateMemberRole(callerID, targetID uint, role string) error {
	if role != models.CovenRoleMember && role != models.CovenRoleElder {
		return errors.New(errors.ErrCodeValidationFailed, "role must be member or elder")
	}
	if callerID == targetID {
		return errors.New(errors.ErrCodeValidationFailed, "the leader role cannot be changed")
	}

	coven, err := s.callerLeaderCoven(callerID)
	if err != nil {
		return err
	}

	return s.repo.UpdateMemberRole(coven.ID, targetID, role)
}

// DisbandCoven tombstones the caller's coven. Membership rows are purged
// lazily the next time each ex-member creates or joins.
func (s *CovenService) DisbandCoven(callerID uint) error {
	coven, err := s.callerLeaderCoven(callerID)
	if err != nil {
		return err
	}

	return s.repo.SoftDeleteCoven(coven.ID)
}

// GetCovenForPlayer returns the caller's live coven, or nil when the caller
// has no membership or the coven is tombstoned. Absence is not an error.
func (s *CovenService) GetCovenForPlayer(playerID uint) (*models.Coven, error) {
	member, err := s.repo.GetMembership(playerID)
	if err != nil {
		return nil, err
	}
	if member == nil || member.Coven.IsDeleted() {
		return nil, nil
	}
	return &member.Coven, nil
}

// GetRoster returns the coven's members ordered by join time, with display
// identifiers batch-resolved in a single follow-up lookup.
func (s *CovenService) GetRoster(covenID string) ([]RosterEntry, error) {
	if err := validateCovenID(covenID); err != nil {
		return nil, err
	}

	coven, err := s.repo.GetCovenByID(covenID)
	if err != nil {
		return nil, err
	}
	if coven.IsDeleted() {
		return nil, errors.New(errors.ErrCodeGone, "this coven has been disbanded")
	}

	members, err := s.repo.GetMembers(coven.ID)
	if err != nil {
		return nil, err
	}

	ids := make([]uint, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.PlayerID)
	}

	players, err := s.players.GetPlayersByIDs(ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[uint]models.Player, len(players))
	for _, p := range players {
		byID[p.ID] = p
	}

	roster := make([]RosterEntry, 0, len(members))
	for _, m := range members {
		entry := RosterEntry{
			PlayerID:     m.PlayerID,
			Role:         m.Role,
			Contribution: m.Contribution,
			JoinedAt:     m.JoinedAt,
		}
		if p, ok := byID[m.PlayerID]; ok {
			entry.PublicID = p.PublicID
			entry.DisplayName = p.DisplayName
			entry.Level = p.Level
		}
		roster = append(roster, entry)
	}

	return roster, nil
}

// SearchCovens finds live covens by case-insensitive substring match.
func (s *CovenService) SearchCovens(query string, limit int) ([]models.Coven, error) {
	query = security.SanitizeString(query)
	if limit < searchLimitMin {
		limit = searchLimitMin
	}
	if limit > searchLimitMax {
		limit = searchLimitMax
	}
	return s.repo.SearchCovens(query, limit)
}

// ListCovens returns live covens, newest first.
func (s *CovenService) ListCovens(limit int) ([]models.Coven, error) {
	if limit < 1 || limit > listLimitMax {
		limit = listLimitMax
	}
	return s.repo.ListCovens(limit)
}

// RecordContribution credits coven contribution for a player's collected
// production, if the player belongs to a live coven.
func (s *CovenService) RecordContribution(playerID uint, amount int64) error {
	member, err := s.repo.GetMembership(playerID)
	if err != nil {
		return err
	}
	if member == nil || member.Coven.IsDeleted() {
		return nil
	}
	return s.repo.IncrementContribution(member.CovenID, playerID, amount)
}

// ensureNoActiveMembership purges a stale membership pointing at a tombstoned
// coven and rejects an active one.
func (s *CovenService) ensureNoActiveMembership(playerID uint) error {
	member, err := s.repo.GetMembership(playerID)
	if err != nil {
		return err
	}
	if member == nil {
		return nil
	}
	if member.Coven.IsDeleted() {
		return s.repo.DeleteMembershipByPlayer(playerID)
	}
	return errors.New(errors.ErrCodeConflict, "already in a coven")
}

// callerLeaderCoven re-fetches the caller's coven and verifies leadership on
// every call; leader privilege is never trusted from cached state.
func (s *CovenService) callerLeaderCoven(callerID uint) (*models.Coven, error) {
	member, err := s.repo.GetMembership(callerID)
	if err != nil {
		return nil, err
	}
	if member == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "you are not in a coven")
	}

	coven, err := s.repo.GetCovenByID(member.CovenID)
	if err != nil {
		return nil, err
	}
	if coven.IsDeleted() {
		return nil, errors.New(errors.ErrCodeGone, "this coven has been disbanded")
	}
	if coven.LeaderID != callerID {
		return nil, errors.New(errors.ErrCodeForbidden, "only the coven leader can do that")
	}

	return coven, nil
}

// validateCovenID rejects malformed identifiers before any query is issued.
func validateCovenID(id string) error {
	u, err := uuid.Parse(id)
	if err != nil {
		return errors.New(errors.ErrCodeValidationFailed, "invalid coven id")
	}
	if v := u.Version(); v < 1 || v > 5 {
		return errors.New(errors.ErrCodeValidationFailed, "invalid coven id")
	}
	return nil
}
