package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/tvkcanada/tvk-be/internal/api/handlers"
	"github.com/tvkcanada/tvk-be/internal/auth"
	"github.com/tvkcanada/tvk-be/internal/config"
	"github.com/tvkcanada/tvk-be/internal/services"
	"github.com/tvkcanada/tvk-be/internal/websocket"
)

// Deps holds everything the router wires into handlers.
type Deps struct {
	Config      *config.Config
	Tokens      *auth.Manager
	Hub         *websocket.Hub
	Users       services.UserServiceProvider
	OAuth       services.OAuthServiceProvider // nil when Google login is off
	Memberships services.MembershipServiceProvider
	Invoices    services.InvoiceServiceProvider
	Webhooks    services.WebhookServiceProvider
	Contacts    services.ContactServiceProvider
	Gallery     services.GalleryServiceProvider
	Events      services.EventServiceProvider
	Network     services.NetworkServiceProvider
	Activity    services.ActivityServiceProvider
	Stats       services.StatsServiceProvider
	Jobs        handlers.JobRunner
}

// NewRouter creates and configures a new Chi router.
func NewRouter(d Deps) *chi.Mux {
	cfg := d.Config
	r := chi.NewRouter()

	// Basic middleware stack
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	limiter := newIPLimiter(cfg.Server.RateLimit, cfg.Server.RateBurst)
	requireAuth := d.Tokens.Middleware()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(d.Users, d.OAuth, d.Tokens, cfg.IsProduction(), cfg.Server.FrontendURL)
	userHandler := handlers.NewUserHandler(d.Users)
	membershipHandler := handlers.NewMembershipHandler(d.Memberships)
	planHandler := handlers.NewPlanHandler(d.Memberships)
	exportHandler := handlers.NewExportHandler(d.Memberships)
	invoiceHandler := handlers.NewInvoiceHandler(d.Invoices)
	webhookHandler := handlers.NewWebhookHandler(d.Webhooks)
	contactHandler := handlers.NewContactHandler(d.Contacts)
	galleryHandler := handlers.NewGalleryHandler(d.Gallery)
	eventHandler := handlers.NewEventHandler(d.Events)
	networkHandler := handlers.NewNetworkHandler(d.Network)
	activityHandler := handlers.NewActivityHandler(d.Activity)
	statsHandler := handlers.NewStatsHandler(d.Stats)
	jobHandler := handlers.NewJobHandler(d.Jobs)
	wsHandler := handlers.NewWebSocketHandler(d.Hub, cfg.Server.AllowedOrigins)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte("{\"status\":\"ok\"}\n"))
	})

	// API versioning
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Use(limiter.Middleware)
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Get("/google", authHandler.GoogleLogin)
			r.Get("/google/callback", authHandler.GoogleCallback)
			r.With(requireAuth).Get("/me", authHandler.Me)
		})

		r.With(limiter.Middleware).Post("/contact", contactHandler.Submit)

		r.Route("/webhooks", func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Post("/stripe", webhookHandler.Stripe)
			r.Post("/joinit", webhookHandler.JoinIt)
		})

		// Public content
		r.Get("/plans", planHandler.GetAll)
		r.Get("/plans/{id}", planHandler.Get)
		r.Get("/gallery", galleryHandler.GetAll)
		r.Get("/gallery/{id}", galleryHandler.Get)
		r.Get("/events", eventHandler.GetPublished)
		r.Get("/events/{id}", eventHandler.Get)
		r.Get("/network", networkHandler.GetAll)
		r.Get("/network/{id}", networkHandler.Get)

		// Member routes
		r.Group(func(r chi.Router) {
			r.Use(requireAuth)

			r.Get("/ws", wsHandler.Serve)
			r.Get("/dashboard", membershipHandler.Dashboard)

			r.Route("/users/me", func(r chi.Router) {
				r.Put("/", userHandler.UpdateMe)
				r.Delete("/", userHandler.DeleteMe)
				r.Put("/password", userHandler.ChangePassword)
			})

			r.Route("/memberships", func(r chi.Router) {
				r.Post("/checkout", membershipHandler.Checkout)
				r.Get("/me", membershipHandler.Current)
				r.Get("/me/history", membershipHandler.History)
				r.Post("/me/cancel", membershipHandler.Cancel)
			})

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", invoiceHandler.ListMine)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", invoiceHandler.Get)
					r.Get("/html", invoiceHandler.HTML)
					r.Get("/pdf", invoiceHandler.PDF)
				})
			})
		})

		// Admin routes
		r.Route("/admin", func(r chi.Router) {
			r.Use(requireAuth)
			r.Use(auth.RequireAdmin)

			r.Get("/stats", statsHandler.Overview)
			r.Get("/system", statsHandler.System)
			r.Get("/activity", activityHandler.GetRecent)

			r.Route("/users", func(r chi.Router) {
				r.Get("/", userHandler.List)
				r.Get("/{id}", userHandler.Get)
				r.Put("/{id}/role", userHandler.SetRole)
				r.Delete("/{id}", userHandler.Delete)
			})

			r.Route("/memberships", func(r chi.Router) {
				r.Get("/", membershipHandler.List)
				r.Get("/export", exportHandler.MembershipsCSV)
				r.Get("/{id}", membershipHandler.Get)
				r.Put("/{id}/status", membershipHandler.SetStatus)
				r.Put("/{id}/card", membershipHandler.SetCardStatus)
			})

			r.Route("/contacts", func(r chi.Router) {
				r.Get("/", contactHandler.List)
				r.Put("/{id}/status", contactHandler.SetStatus)
				r.Delete("/{id}", contactHandler.Delete)
			})

			r.Route("/gallery", func(r chi.Router) {
				r.Post("/", galleryHandler.Create)
				r.Put("/{id}", galleryHandler.Update)
				r.Delete("/{id}", galleryHandler.Delete)
			})

			r.Route("/events", func(r chi.Router) {
				r.Get("/", eventHandler.GetAll)
				r.Post("/", eventHandler.Create)
				r.Get("/{id}", eventHandler.GetAny)
				r.Put("/{id}", eventHandler.Update)
				r.Delete("/{id}", eventHandler.Delete)
			})

			r.Route("/network", func(r chi.Router) {
				r.Post("/", networkHandler.Create)
				r.Put("/{id}", networkHandler.Update)
				r.Delete("/{id}", networkHandler.Delete)
			})

			r.Route("/jobs", func(r chi.Router) {
				r.Get("/", jobHandler.GetAll)
				r.Post("/{name}/run", jobHandler.Run)
			})
		})
	})

	return r
}
