package handlers

import (
	"net/http"
	"strings"

	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/internal/security"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"github.com/eldergrove/eldergrove-server/pkg/logger"
)

type registerRequest struct {
	Username    string `json:"username"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token   string         `json:"token"`
	Profile models.Profile `json:"profile"`
}

// Register creates a player account and returns a bearer token.
func (h *HandlerManager) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	username := strings.ToLower(security.SanitizeString(req.Username))
	if len(username) < 3 || len(username) > 32 {
		writeError(w, errors.New(errors.ErrCodeValidationFailed, "username must be 3-32 characters"))
		return
	}
	if err := security.ValidatePasswordStrength(req.Password); err != nil {
		writeError(w, errors.New(errors.ErrCodeValidationFailed, err.Error()))
		return
	}

	displayName := security.SanitizeString(security.SanitizeHTML(req.DisplayName))
	if displayName == "" {
		displayName = username
	}
	if len(displayName) > 64 {
		writeError(w, errors.New(errors.ErrCodeValidationFailed, "display name must be at most 64 characters"))
		return
	}

	hash, err := security.HashPassword(req.Password)
	if err != nil {
		writeError(w, errors.Wrap(err, errors.ErrCodeInternalError, "failed to create account"))
		return
	}

	player := &models.Player{
		Username:     username,
		PasswordHash: hash,
		DisplayName:  displayName,
		Crystals:     h.Config.DefaultCrystals,
		Energy:       100,
		MaxEnergy:    100,
		Level:        1,
	}
	if err := h.PlayerRepo.CreatePlayer(player); err != nil {
		writeError(w, err)
		return
	}

	token, err := security.GenerateJWT(player.ID, player.PublicID, h.Config.JWTSecret)
	if err != nil {
		writeError(w, errors.Wrap(err, errors.ErrCodeInternalError, "failed to issue token"))
		return
	}

	logger.Info("player registered", "player_id", player.ID, "username", username)
	writeJSON(w, http.StatusCreated, authResponse{Token: token, Profile: player.Profile()})
}

// Login verifies credentials and returns a fresh bearer token.
func (h *HandlerManager) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	username := strings.ToLower(security.SanitizeString(req.Username))

	player, err := h.PlayerRepo.GetPlayerByUsername(username)
	if err != nil || !security.VerifyPassword(player.PasswordHash, req.Password) {
		// identical response for unknown user and wrong password
		writeError(w, errors.New(errors.ErrCodeUnauthorized, "invalid username or password"))
		return
	}

	token, err := security.GenerateJWT(player.ID, player.PublicID, h.Config.JWTSecret)
	if err != nil {
		writeError(w, errors.Wrap(err, errors.ErrCodeInternalError, "failed to issue token"))
		return
	}

	if err := h.PlayerRepo.UpdateLastActivity(player.ID); err != nil {
		logger.Warn("failed to update last activity", "player_id", player.ID, "error", err)
	}

	writeJSON(w, http.StatusOK, authResponse{Token: token, Profile: player.Profile()})
}
