package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/motorhive/workshop-backend/api/controllers"
	workordercontrollers "github.com/motorhive/workshop-backend/api/controllers/workorders"
	"github.com/motorhive/workshop-backend/api/middleware"
	"github.com/motorhive/workshop-backend/internal/catalog"
	"github.com/motorhive/workshop-backend/internal/workorders"
	"github.com/motorhive/workshop-backend/pkg/config"
	"github.com/motorhive/workshop-backend/pkg/db"
	"github.com/motorhive/workshop-backend/pkg/logger"
	"github.com/motorhive/workshop-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	workOrderService workorders.Service,
	catalogService catalog.Service,
) http.Handler {
	var idempotencyStore redis.IdempotencyStore
	var cachePinger redis.Pinger
	if redisClient != nil {
		idempotencyStore = redisClient
		cachePinger = redisClient
	}

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, dbP, cachePinger, logg))
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.TenantContext(logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Get("/ping", controllers.TenantPing())

		r.Route("/work-orders", func(r chi.Router) {
			r.Post("/", workordercontrollers.Create(workOrderService, logg))
			r.Post("/from-appointment/{appointmentId}", workordercontrollers.CreateFromAppointment(workOrderService, logg))
			r.Get("/", workordercontrollers.List(workOrderService, logg))

			r.Route("/{orderId}", func(r chi.Router) {
				r.Get("/", workordercontrollers.Detail(workOrderService, logg))
				r.Put("/", workordercontrollers.Update(workOrderService, logg))
				r.Delete("/", workordercontrollers.Delete(workOrderService, logg))
				r.Patch("/status", workordercontrollers.UpdateStatus(workOrderService, logg))
				r.Get("/activity", workordercontrollers.Activity(workOrderService, logg))
				r.Post("/work-logs", workordercontrollers.AddWorkLog(workOrderService, logg))

				r.Route("/items", func(r chi.Router) {
					r.Post("/", workordercontrollers.AddItem(workOrderService, logg))
					r.Route("/{itemId}", func(r chi.Router) {
						r.Put("/", workordercontrollers.UpdateItem(workOrderService, logg))
						r.Delete("/", workordercontrollers.DeleteItem(workOrderService, logg))
						r.Route("/mechanics", func(r chi.Router) {
							r.Post("/", workordercontrollers.AddItemMechanic(workOrderService, logg))
							r.Put("/{assignmentId}", workordercontrollers.UpdateItemMechanic(workOrderService, logg))
							r.Delete("/{assignmentId}", workordercontrollers.RemoveItemMechanic(workOrderService, logg))
						})
					})
				})
			})
		})

		r.Route("/catalog", func(r chi.Router) {
			r.Get("/parts", controllers.CatalogParts(catalogService, logg))
			r.Get("/services", controllers.CatalogServices(catalogService, logg))
		})
	})

	return r
}
