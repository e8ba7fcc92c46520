package handlers

import (
	"net/http"

	"github.com/eldergrove/eldergrove-server/internal/middleware"
	"github.com/eldergrove/eldergrove-server/internal/models"
)

type startProductionRequest struct {
	ProductionType string `json:"production_type"`
	Resource       string `json:"resource"`
}

// StartProduction starts a mine/farm/factory/zoo timer.
func (h *HandlerManager) StartProduction(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	var req startProductionRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	prod, err := h.ProductionSvc.StartProduction(claims.PlayerID, req.ProductionType, req.Resource)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, prod.Info())
}

// CollectProduction pays out a finished production.
func (h *HandlerManager) CollectProduction(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	prod, err := h.ProductionSvc.CollectProduction(claims.PlayerID, r.PathValue("id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, prod.Info())
}

// ListProductions returns the caller's active productions.
func (h *HandlerManager) ListProductions(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	prods, err := h.ProductionSvc.ListProductions(claims.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	infos := make([]models.ProductionInfo, 0, len(prods))
	for i := range prods {
		infos = append(infos, prods[i].Info())
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"productions": infos})
}

// GetTool returns the caller's pickaxe state.
func (h *HandlerManager) GetTool(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	tool, err := h.ProductionSvc.GetTool(claims.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tool.Info())
}

// RepairTool restores the pickaxe for crystals.
func (h *HandlerManager) RepairTool(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	if err := h.ProductionSvc.RepairTool(claims.PlayerID); err != nil {
		writeError(w, err)
		return
	}

	tool, err := h.ProductionSvc.GetTool(claims.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tool.Info())
}

// AdEligibility reports the caller's rewarded-ad quota for the rolling hour.
func (h *HandlerManager) AdEligibility(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	elig, err := h.AdSvc.CanWatchAd(claims.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, elig)
}

type watchAdSpeedUpRequest struct {
	ProductionType string `json:"production_type"`
	ProductionID   string `json:"production_id"`
	MinutesReduced int    `json:"minutes_reduced"`
}

// WatchAdForSpeedUp runs the rewarded-ad flow and shortens a running timer.
func (h *HandlerManager) WatchAdForSpeedUp(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	var req watchAdSpeedUpRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, err)
		return
	}

	elig, err := h.AdSvc.WatchAdForSpeedUp(claims.PlayerID, req.ProductionType, req.ProductionID, req.MinutesReduced)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, elig)
}

// WatchAdForEnergy runs the rewarded-ad flow and restores energy.
func (h *HandlerManager) WatchAdForEnergy(w http.ResponseWriter, r *http.Request) {
	claims := middleware.ClaimsFrom(r.Context())

	elig, err := h.AdSvc.WatchAdForEnergy(claims.PlayerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, elig)
}
