package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	campaignHandler "github.com/aidbridge/aidbridge/internal/http/campaign"
	claimHandler "github.com/aidbridge/aidbridge/internal/http/claim"
	merchantHandler "github.com/aidbridge/aidbridge/internal/http/merchant"
)

func New(
	claimsV1 *claimHandler.Handler,
	campaignsV1 *campaignHandler.Handler,
	merchantsV1 *merchantHandler.Handler,
	corsOrigin string,
) http.Handler {
	router := chi.NewRouter()

	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{corsOrigin},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
	}))

	router.Get("/health", health)

	router.Route("/api/v1", func(r chi.Router) {
		r.Route("/claims", func(r chi.Router) {
			r.Use(middleware.AllowContentType("application/json"))
			claimsV1.Routes(r)
		})

		r.Route("/campaigns", func(r chi.Router) {
			campaignsV1.Routes(r)
		})

		r.Route("/merchants", func(r chi.Router) {
			merchantsV1.Routes(r)
		})
	})

	return router
}

func health(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
