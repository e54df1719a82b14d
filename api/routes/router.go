package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/hawthornlabs/salesdesk-backend/api/controllers"
	taskcontrollers "github.com/hawthornlabs/salesdesk-backend/api/controllers/tasks"
	"github.com/hawthornlabs/salesdesk-backend/api/middleware"
	"github.com/hawthornlabs/salesdesk-backend/internal/locations"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/cart"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/performance"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/purchase"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/repeatvisit"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/search"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/summary"
	"github.com/hawthornlabs/salesdesk-backend/internal/tasks/tracking"
	"github.com/hawthornlabs/salesdesk-backend/pkg/config"
	"github.com/hawthornlabs/salesdesk-backend/pkg/logger"
	"github.com/hawthornlabs/salesdesk-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	registry *prometheus.Registry,
	locationsService locations.Service,
	purchaseService purchase.Service,
	cartService cart.Service,
	searchService search.Service,
	repeatVisitService repeatvisit.Service,
	performanceService performance.Service,
	summaryService summary.Service,
	trackingService tracking.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	var redisP controllers.Pinger
	if redisClient != nil {
		redisP = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisP))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		if redisClient != nil {
			policy := middleware.NewTenantRateLimitPolicy(cfg.RateLimit.Window, cfg.RateLimit.TenantLimit)
			r.Use(middleware.TenantRateLimit(policy, redisClient, logg))
		}

		r.Get("/locations", controllers.ListLocations(locationsService, logg))

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/summary", taskcontrollers.Summary(summaryService, logg))
			r.Get("/purchases", taskcontrollers.ListPurchases(purchaseService, cfg.Tasks, logg))
			r.Get("/carts", taskcontrollers.ListCarts(cartService, cfg.Tasks, logg))
			r.Get("/searches", taskcontrollers.ListSearches(searchService, cfg.Tasks, logg))
			r.Get("/repeat-visits", taskcontrollers.ListRepeatVisits(repeatVisitService, cfg.Tasks, logg))
			r.Get("/performance", taskcontrollers.ListPerformance(performanceService, cfg.Tasks, logg))

			r.Route("/completion", func(r chi.Router) {
				r.Get("/", taskcontrollers.GetCompletion(trackingService, logg))
				r.Post("/", taskcontrollers.UpsertCompletion(trackingService, logg))
				r.Post("/batch", taskcontrollers.BatchUpsertCompletion(trackingService, logg))
			})
		})
	})

	return r
}
