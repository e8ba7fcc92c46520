package handlers

import (
	"net/http"
	"strconv"

	"github.com/eldergrove/eldergrove-server/internal/middleware"
	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"github.com/eldergrove/eldergrove-server/pkg/logger"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// game clients connect from app webviews, not a fixed origin
	CheckOrigin: func(r *http.Request) bool { return true },
}

// GetProfile returns the authenticated player's profile.
func (h *HandlerManager) GetProfile(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	player, err := h.PlayerRepo.GetPlayerByID(claims.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, player.Profile())
}

// ClaimDailyReward grants the once-per-UTC-day login reward.
func (h *HandlerManager) ClaimDailyReward(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	result, err := h.RewardSvc.ClaimDaily(claims.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

type linkTelegramRequest struct {
	ChatID int64 `json:"chat_id"`
}

// LinkTelegram stores the chat id used for push notices.
func (h *HandlerManager) LinkTelegram(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	var req linkTelegramRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}
	if req.ChatID == 0 {
		writeError(w, errors.New(errors.ErrCodeValidationFailed, "chat_id is required"))
		return
	}

	if err := h.PlayerRepo.LinkTelegramChat(claims.PlayerID, req.ChatID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"linked": true})
}

// GetTransactions returns the player's recent crystal ledger entries.
func (h *HandlerManager) GetTransactions(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, errors.New(errors.ErrCodeValidationFailed, "limit must be a positive integer"))
			return
		}
		if n > 100 {
			n = 100
		}
		limit = n
	}

	transactions, err := h.CrystalRepo.GetTransactionHistory(claims.PlayerID, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	infos := make([]models.TransactionInfo, 0, len(transactions))
	for i := range transactions {
		infos = append(infos, transactions[i].Info())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"transactions": infos})
}

// ProfileSocket upgrades to a websocket that streams profile updates.
func (h *HandlerManager) ProfileSocket(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	player, err := h.PlayerRepo.GetPlayerByID(claims.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("websocket upgrade failed", "player_id", claims.PlayerID, "error", err)
		return
	}

	h.Hub.HandleConn(conn, player)
}
