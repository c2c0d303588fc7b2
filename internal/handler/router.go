package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pwabucket/pwa-ai-earn/internal/observability"
)

// NewRouter creates the HTTP router with all routes and middleware.
func NewRouter(d *Dependencies) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.TracingMiddleware)
	r.Use(observability.ZapLoggerMiddleware(d.logger()))
	r.Use(middleware.Recoverer)

	if d.Metrics != nil {
		r.Handle("/metrics", promhttp.HandlerFor(d.Metrics.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("OK"))
		})

		r.Get("/accounts", d.HandleListAccounts)
		r.Post("/accounts", d.HandleSaveAccount)

		r.Route("/accounts/{accountID}", func(r chi.Router) {
			r.Get("/", d.HandleGetAccount)
			r.Delete("/", d.HandleDeleteAccount)

			r.Get("/transactions", d.HandleListTransactions)
			r.Post("/transactions", d.HandleCreateTransaction)
			r.Delete("/transactions/{txID}", d.HandleDeleteTransaction)
			r.Post("/transactions/{txID}/pin", d.HandlePinTransaction)

			r.Get("/portfolio", d.HandlePortfolio)
			r.Get("/activity", d.HandleActivity)
			r.Get("/simulation", d.HandleSimulation)
			r.Post("/simulation/fill", d.HandleFillSimulation)

			r.Post("/sync", d.HandleSync)
			r.Get("/interests", d.HandleInterests)
		})

		r.Post("/upload", d.HandleUpload)

		r.Post("/backup", d.HandleBackup)
		r.Get("/backup", d.HandleDownloadBackup)
		r.Post("/restore", d.HandleRestore)
	})

	// Azure Functions custom handler entry points.
	r.HandleFunc("/ProcessQueue", d.ProcessQueue)
	r.HandleFunc("/NightlyTrigger", d.HandleNightlyTrigger)
	r.HandleFunc("/HttpTrigger", d.HandleHttpTrigger(r))

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		d.logger().Warn("unmatched request", zap.String("method", req.Method), zap.String("path", req.URL.Path))
		WriteError(w, http.StatusNotFound, "Not found")
	})

	return r
}
