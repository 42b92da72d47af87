package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter creates a new router with all routes configured. The CORS
// middleware answers OPTIONS preflight requests for every mutating route.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware (all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(LoggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/", h.Health)

	// Bid documents
	r.Post("/create-bid", h.CreateBid)
	r.Post("/save-bid-data", h.SaveBidData)
	r.Get("/get-bid-data", h.GetBidData)
	r.Delete("/delete-bid-data", h.DeleteBidData)
	r.Get("/list-files", h.ListFiles)
	r.Post("/move-to-archive", h.MoveToArchive)
	r.Post("/save-activities", h.SaveActivities)
	r.Post("/finalize_bid", h.FinalizeBid)

	// Conversational intake
	r.Post("/chatbot", h.Chatbot)

	r.Route("/api", func(r chi.Router) {
		r.Get("/dashboard", h.Dashboard)
		r.Put("/bids/{bidID}/deliverables/{deliverable}/activities", h.UpdateActivity)

		r.Route("/action-trackers", func(r chi.Router) {
			r.Get("/", h.ListTrackers)
			r.Route("/{bidID}", func(r chi.Router) {
				r.Get("/", h.GetTracker)
				r.Post("/", h.CreateTracker)
				r.Delete("/", h.DeleteTracker)
				r.Route("/actions", func(r chi.Router) {
					r.Post("/", h.AddAction)
					r.Route("/{actionID}", func(r chi.Router) {
						r.Put("/", h.UpdateAction)
						r.Delete("/", h.DeleteAction)
						r.Get("/history", h.ActionHistory)
					})
				})
			})
		})
	})

	return r
}
