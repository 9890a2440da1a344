package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/webstepper/smart-cycle-discounts-sub018/internal/service"
	"github.com/webstepper/smart-cycle-discounts-sub018/pkg/health"
	"github.com/webstepper/smart-cycle-discounts-sub018/pkg/middleware"
)

// NewRouter creates a chi router with all discount engine routes registered.
func NewRouter(
	campaignService *service.CampaignService,
	engineService *service.EngineService,
	healthHandler *health.Handler,
	corsCfg CORSConfig,
	logger *slog.Logger,
) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(CORS(corsCfg))
	r.Use(middleware.Recovery(logger))
	r.Use(chimw.Compress(5))
	r.Use(chimw.Timeout(30 * time.Second))
	r.Use(middleware.RequestLogging(logger))
	r.Use(middleware.PrometheusMetrics("discounts"))

	// Health check endpoints
	r.Get("/health/live", healthHandler.LivenessHandler())
	r.Get("/health/ready", healthHandler.ReadinessHandler())
	r.Get("/metrics", func(w http.ResponseWriter, r *http.Request) {
		promhttp.Handler().ServeHTTP(w, r)
	})

	campaignHandler := NewCampaignHandler(campaignService, logger)
	engineHandler := NewEngineHandler(engineService, logger)

	r.Route("/api/v1/campaigns", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/", campaignHandler.CreateCampaign)
		r.Get("/", campaignHandler.ListCampaigns)

		// Draft preview takes a selection body, not an ID; register it
		// before /{id} to avoid the wildcard swallowing it.
		r.Post("/preview", engineHandler.PreviewCoverage)

		r.Get("/{id}", campaignHandler.GetCampaign)
		r.Put("/{id}", campaignHandler.UpdateCampaign)
		r.Delete("/{id}", campaignHandler.DeleteCampaign)
		r.Post("/{id}/status", campaignHandler.ChangeStatus)
		r.Get("/{id}/conflicts", engineHandler.FindConflicts)
		r.Get("/{id}/performance", engineHandler.CampaignPerformance)
	})

	r.Route("/api/v1/discounts", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/calculate", engineHandler.CalculateDiscount)
	})

	r.Route("/api/v1/conditions", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/validate", engineHandler.ValidateCondition)
		r.Post("/apply", engineHandler.ApplyConditions)
	})

	r.Route("/api/v1/selections", func(r chi.Router) {
		r.Use(ContentTypeJSON)

		r.Post("/resolve", engineHandler.ResolveSelection)
	})

	r.Get("/api/v1/products/{id}/discount", engineHandler.BestDiscount)

	return r
}
