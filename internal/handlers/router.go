package handlers

import (
	"net/http"
	"strings"

	"github.com/raspadomilhao/raspay-sub003/internal/auth"
	"github.com/raspadomilhao/raspay-sub003/internal/config"
	"github.com/raspadomilhao/raspay-sub003/internal/middleware"
	"github.com/raspadomilhao/raspay-sub003/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

type Handler struct {
	cfg         config.Config
	vault       VaultService
	commissions CommissionService
	inventory   InventoryService
	feed        FeedService
	admin       AdminService
	verifier    middleware.AdminVerifier
	hub         *websocket.Hub
}

func New(cfg config.Config, vault VaultService, commissions CommissionService, inventory InventoryService, feed FeedService, admin AdminService, verifier middleware.AdminVerifier, hub *websocket.Hub) *Handler {
	return &Handler{
		cfg:         cfg,
		vault:       vault,
		commissions: commissions,
		inventory:   inventory,
		feed:        feed,
		admin:       admin,
		verifier:    verifier,
		hub:         hub,
	}
}

func (h *Handler) Routes() http.Handler {
	router := chi.NewRouter()
	router.Use(chimw.RequestID)
	router.Use(chimw.RealIP)
	router.Use(middleware.RequestLogger)
	router.Use(chimw.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   splitOrigins(h.cfg.AllowedOrigins),
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", middleware.AdminTokenHeader},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.Get("/cofre/status", h.CofreStatus)
	router.Get("/winners", h.GetWinners)
	router.Get("/ws/winners", h.WSWinners)
	router.Post("/payments/webhook", h.PaymentWebhook)

	router.Route("/affiliate", func(r chi.Router) {
		r.Use(middleware.Auth(h.cfg.JWTSecret, h.cfg.AuthCookieName))
		r.Use(middleware.RequireUserType(auth.UserTypeAffiliate))
		r.Post("/withdraw/process", h.AffiliateWithdraw)
		r.Get("/me", h.AffiliateMe)
		r.Get("/transactions", h.AffiliateTransactions)
	})

	full := middleware.RequireAdmin(h.verifier, auth.ScopeFull)
	managers := middleware.RequireAdmin(h.verifier, auth.ScopeManagers)
	gameplay := middleware.RequireAdmin(h.verifier, auth.ScopeGameplay)

	router.Route("/admin", func(r chi.Router) {
		r.Post("/auth/login", h.AdminLogin)
		r.With(middleware.RequireAdmin(h.verifier, "")).Post("/auth/revoke", h.AdminRevoke)

		r.With(full).Post("/cofre/adjust", h.AdminAdjustCofre)
		r.With(full).Get("/cofre/stats", h.AdminCofreStats)
		r.With(full).Get("/cofre/history", h.AdminCofreHistory)
		r.With(full).Post("/cofre/games", h.AdminCreateGame)
		r.With(full).Put("/cofre/{game}/settings", h.AdminUpdateCofreSettings)
		r.With(gameplay).Post("/cofre/prize", h.AdminRecordPrize)
		r.With(gameplay).Post("/cofre/contribution", h.AdminRecordContribution)

		r.With(full).Get("/physical-prizes", h.AdminListPrizes)
		r.With(full).Post("/physical-prizes", h.AdminCreatePrize)
		r.With(full).Get("/physical-prizes/stats", h.AdminPrizeStats)
		r.With(full).Get("/physical-prizes/winners", h.AdminListWinners)
		r.With(full).Put("/physical-prizes/winners/{id}/status", h.AdminUpdateWinnerStatus)
		r.With(gameplay).Post("/physical-prizes/draw", h.AdminDrawPrize)
		r.With(full).Get("/physical-prizes/{id}", h.AdminGetPrize)
		r.With(full).Put("/physical-prizes/{id}", h.AdminUpdatePrize)
		r.With(full).Post("/physical-prizes/{id}/stock", h.AdminAddStock)
		r.With(gameplay).Post("/physical-prizes/{id}/win", h.AdminAwardPrize)
		r.With(full).Delete("/physical-prizes/{id}/delete", h.AdminDeletePrize)
		r.With(full).Get("/physical-prizes/{id}/stock-logs", h.AdminStockLogs)

		r.With(managers).Post("/sync-manager-balances", h.AdminSyncManagerBalances)
		r.With(managers).Get("/managers", h.AdminListManagers)
		r.With(managers).Get("/managers/{id}/affiliates", h.AdminManagerAffiliates)
		r.With(managers).Post("/affiliates/{id}/assign", h.AdminAssignAffiliate)
		r.With(managers).Post("/affiliates/{id}/unassign", h.AdminUnassignAffiliate)
		r.With(full).Post("/affiliates/{id}/credit", h.AdminCreditAffiliate)
		r.With(full).Post("/withdrawals/{id}/complete", h.AdminCompleteWithdraw)
		r.With(full).Get("/audit", h.AdminAudit)
	})

	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	return router
}

func splitOrigins(raw string) []string {
	var origins []string
	for _, origin := range strings.Split(raw, ",") {
		if origin = strings.TrimSpace(origin); origin != "" {
			origins = append(origins, origin)
		}
	}
	if len(origins) == 0 {
		return []string{"*"}
	}
	return origins
}
