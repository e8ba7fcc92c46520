package handlers

import (
	"net/http"

	"github.com/eldergrove/eldergrove-server/internal/middleware"
)

// Routes assembles the API surface. Everything under /api except register
// and login requires a bearer token; the whole tree is rate limited.
func (h *HandlerManager) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("POST /api/auth/register", h.Register)
	mux.HandleFunc("POST /api/auth/login", h.Login)

	authed := http.NewServeMux()

	authed.HandleFunc("GET /api/profile", h.GetProfile)
	authed.HandleFunc("POST /api/profile/daily-reward", h.ClaimDailyReward)
	authed.HandleFunc("POST /api/profile/telegram", h.LinkTelegram)
	authed.HandleFunc("GET /api/profile/transactions", h.GetTransactions)
	authed.HandleFunc("GET /api/profile/ws", h.ProfileSocket)

	authed.HandleFunc("POST /api/covens", h.CreateCoven)
	authed.HandleFunc("GET /api/covens", h.ListCovens)
	authed.HandleFunc("GET /api/covens/search", h.SearchCovens)
	authed.HandleFunc("GET /api/covens/mine", h.MyCoven)
	authed.HandleFunc("POST /api/covens/{id}/join", h.JoinCoven)
	authed.HandleFunc("GET /api/covens/{id}/members", h.GetRoster)
	authed.HandleFunc("POST /api/covens/leave", h.LeaveCoven)
	authed.HandleFunc("POST /api/covens/kick", h.KickMember)
	authed.HandleFunc("POST /api/covens/role", h.UpdateMemberRole)
	authed.HandleFunc("POST /api/covens/disband", h.DisbandCoven)

	authed.HandleFunc("POST /api/productions", h.StartProduction)
	authed.HandleFunc("GET /api/productions", h.ListProductions)
	authed.HandleFunc("POST /api/productions/{id}/collect", h.CollectProduction)
	authed.HandleFunc("GET /api/tool", h.GetTool)
	authed.HandleFunc("POST /api/tool/repair", h.RepairTool)

	authed.HandleFunc("GET /api/ads/eligibility", h.AdEligibility)
	authed.HandleFunc("POST /api/ads/speed-up", h.WatchAdForSpeedUp)
	authed.HandleFunc("POST /api/ads/energy", h.WatchAdForEnergy)

	// the player limiter sits inside Authenticate so the claims are on the
	// context by the time it counts the request
	mux.Handle("/api/", middleware.Authenticate(h.Config.JWTSecret,
		middleware.RateLimitPlayer(h.Limiter, authed)))

	return middleware.RateLimitIP(h.Limiter, h.Config.TrustProxyHeaders, mux)
}
