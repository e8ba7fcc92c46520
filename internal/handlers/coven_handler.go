package handlers

import (
	"net/http"
	"strconv"

	"github.com/eldergrove/eldergrove-server/internal/middleware"
	"github.com/eldergrove/eldergrove-server/internal/models"
	"github.com/eldergrove/eldergrove-server/pkg/errors"
	"github.com/eldergrove/eldergrove-server/pkg/logger"
)

type createCovenRequest struct {
	Name   string `json:"name"`
	Emblem string `json:"emblem"`
}

// CreateCoven founds a coven with the caller as leader.
func (h *HandlerManager) CreateCoven(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	var req createCovenRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	coven, err := h.CovenSvc.CreateCoven(claims.PlayerID, req.Name, req.Emblem)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, coven.Info())
}

// JoinCoven adds the caller to the coven in the path.
func (h *HandlerManager) JoinCoven(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	if err := h.CovenSvc.JoinCoven(claims.PlayerID, r.PathValue("id")); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"joined": true})
}

// LeaveCoven removes the caller's membership.
func (h *HandlerManager) LeaveCoven(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	if err := h.CovenSvc.LeaveCoven(claims.PlayerID); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"left": true})
}

type kickRequest struct {
	PublicID string `json:"public_id"`
}

// KickMember removes another member from the caller's coven. The target is
// addressed by public id so numeric database ids never travel the wire.
func (h *HandlerManager) KickMember(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	var req kickRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	target, err := h.PlayerRepo.GetPlayerByPublicID(req.PublicID)
	if err != nil {
		writeError(w, err)
		return
	}

	coven, err := h.CovenSvc.GetCovenForPlayer(claims.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.CovenSvc.KickMember(claims.PlayerID, target.ID); err != nil {
		writeError(w, err)
		return
	}

	if coven != nil {
		h.Notifier.KickedFromCoven(target, coven.Name)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"kicked": true})
}

type roleRequest struct {
	PublicID string `json:"public_id"`
	Role     string `json:"role"`
}

// UpdateMemberRole promotes or demotes a member between member and elder.
func (h *HandlerManager) UpdateMemberRole(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	var req roleRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	target, err := h.PlayerRepo.GetPlayerByPublicID(req.PublicID)
	if err != nil {
		writeError(w, err)
		return
	}

	if err := h.CovenSvc.UpdateMemberRole(claims.PlayerID, target.ID, req.Role); err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"updated": true})
}

// DisbandCoven tombstones the caller's coven. Members still holding stale
// membership rows are notified best-effort; the rows purge themselves on
// their next create or join.
func (h *HandlerManager) DisbandCoven(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	coven, err := h.CovenSvc.GetCovenForPlayer(claims.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	var memberIDs []uint
	if coven != nil {
		roster, rosterErr := h.CovenSvc.GetRoster(coven.ID)
		if rosterErr == nil {
			for _, entry := range roster {
				if entry.PlayerID != claims.PlayerID {
					memberIDs = append(memberIDs, entry.PlayerID)
				}
			}
		}
	}

	if err := h.CovenSvc.DisbandCoven(claims.PlayerID); err != nil {
		writeError(w, err)
		return
	}

	if coven != nil && h.Notifier != nil {
		go func(name string, ids []uint) {
			players, err := h.PlayerRepo.GetPlayersByIDs(ids)
			if err != nil {
				logger.Warn("failed to notify disbanded members", "error", err)
				return
			}
			for i := range players {
				h.Notifier.CovenDisbanded(&players[i], name)
			}
		}(coven.Name, memberIDs)
	}

	writeJSON(w, http.StatusOK, map[string]bool{"disbanded": true})
}

// MyCoven returns the caller's coven, or an empty object when they have none.
func (h *HandlerManager) MyCoven(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	coven, err := h.CovenSvc.GetCovenForPlayer(claims.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}
	if coven == nil {
		writeJSON(w, http.StatusOK, map[string]interface{}{"coven": nil})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"coven": coven.Info()})
}

// GetRoster returns a coven's members ordered by join time.
func (h *HandlerManager) GetRoster(w http.ResponseWriter, r *http.Request) {
	roster, err := h.CovenSvc.GetRoster(r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"members": roster})
}

// SearchCovens finds live covens by name substring.
func (h *HandlerManager) SearchCovens(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if limit == 0 {
		limit = 20
	}

	if query == "" {
		writeError(w, errors.New(errors.ErrCodeValidationFailed, "query parameter q is required"))
		return
	}

	covens, err := h.CovenSvc.SearchCovens(query, limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"covens": covenInfos(covens)})
}

// ListCovens returns live covens, newest first.
func (h *HandlerManager) ListCovens(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	covens, err := h.CovenSvc.ListCovens(limit)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"covens": covenInfos(covens)})
}

func covenInfos(covens []models.Coven) []models.CovenInfo {
	infos := make([]models.CovenInfo, 0, len(covens))
	for i := range covens {
		infos = append(infos, covens[i].Info())
	}
	return infos
}
