package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/nexcartbd/nexcart/internal/analytics"
	"github.com/nexcartbd/nexcart/internal/catalog"
	"github.com/nexcartbd/nexcart/internal/orders"
	"github.com/nexcartbd/nexcart/internal/shared"
	"github.com/nexcartbd/nexcart/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger           *slog.Logger
	Config           *Config
	CatalogHandler   *catalog.Handler
	OrdersHandler    *orders.Handler
	AnalyticsHandler *analytics.Handler
	JobHandler       *jobs.Handler
}

// NewRouter constructs the chi.Router with NexCart defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger: params.Logger,
		Config: params.Config,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/products", params.CatalogHandler.MountPublicRoutes)
		api.Route("/track", params.OrdersHandler.MountTrackingRoutes)

		api.Group(func(customer chi.Router) {
			customer.Use(shared.RequireUser)
			customer.Route("/orders", params.OrdersHandler.MountCustomerRoutes)
		})

		api.Group(func(admin chi.Router) {
			admin.Use(shared.RequireAdmin(params.Config.AdminAPIToken))
			admin.Route("/admin/products", params.CatalogHandler.MountAdminRoutes)
			admin.Route("/admin/orders", params.OrdersHandler.MountAdminRoutes)
			admin.Route("/admin/analytics", params.AnalyticsHandler.MountAdminRoutes)
			if params.JobHandler != nil {
				admin.Route("/admin/jobs", params.JobHandler.MountRoutes)
			}
		})
	})

	return r
}
