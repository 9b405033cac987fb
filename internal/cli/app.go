package cli

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/tvkcanada/tvk-be/internal/config"
	"github.com/tvkcanada/tvk-be/internal/database"
	"github.com/tvkcanada/tvk-be/internal/jobs"
	"github.com/tvkcanada/tvk-be/internal/logger"
	"github.com/tvkcanada/tvk-be/internal/mail"
	"github.com/tvkcanada/tvk-be/internal/payments"
	"github.com/tvkcanada/tvk-be/internal/pdf"
	"github.com/tvkcanada/tvk-be/internal/repository"
	mongorepo "github.com/tvkcanada/tvk-be/internal/repository/mongo"
	"github.com/tvkcanada/tvk-be/internal/repository/sqlite"
	"github.com/tvkcanada/tvk-be/internal/services"
	"github.com/tvkcanada/tvk-be/internal/websocket"
)

// app is the fully wired backend shared by the subcommands.
type app struct {
	cfg    *config.Config
	store  repository.Store
	hub    *websocket.Hub
	redis  *redis.Client
	closer []func()

	activity    *services.ActivityService
	users       *services.UserService
	oauth       services.OAuthServiceProvider
	memberships *services.MembershipService
	invoices    *services.InvoiceService
	webhooks    *services.WebhookService
	contacts    *services.ContactService
	gallery     *services.GalleryService
	events      *services.EventService
	network     *services.NetworkService
	stats       *services.StatsService
	scheduler   *jobs.Scheduler
}

// loadConfig reads and validates configuration and sets up logging.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Init(cfg.Log)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// openStore connects to the configured database and applies its schema.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, func(), error) {
	switch cfg.Database.Driver {
	case "mongo":
		connectCtx, cancel := context.WithTimeout(ctx, cfg.Database.Timeout)
		defer cancel()
		client, db, err := database.NewMongo(connectCtx, cfg.Database.MongoURI, cfg.Database.MongoName)
		if err != nil {
			return repository.Store{}, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		if err := database.MigrateMongo(ctx, db); err != nil {
			closeFn()
			return repository.Store{}, nil, fmt.Errorf("failed to create MongoDB indexes: %w", err)
		}
		log.Info().Str("database", cfg.Database.MongoName).Msg("Connected to MongoDB")
		return mongorepo.NewStore(db), closeFn, nil
	default:
		db, err := database.New(cfg.Database.Path)
		if err != nil {
			return repository.Store{}, nil, fmt.Errorf("failed to initialize database: %w", err)
		}
		if err := database.Migrate(ctx, db); err != nil {
			db.Close()
			return repository.Store{}, nil, fmt.Errorf("failed to apply database migrations: %w", err)
		}
		log.Info().Str("path", cfg.Database.Path).Msg("Opened SQLite database")
		return sqlite.NewStore(db), func() { db.Close() }, nil
	}
}

// newApp wires every service. Call close when done.
func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{cfg: cfg, hub: websocket.NewHub()}

	// Activity is published through the hub, so it runs for every command.
	hubCtx, stopHub := context.WithCancel(context.Background())
	go a.hub.Run(hubCtx)
	a.closer = append(a.closer, stopHub)

	store, closeStore, err := openStore(ctx, cfg)
	if err != nil {
		a.close()
		return nil, err
	}
	a.store = store
	a.closer = append(a.closer, closeStore)

	a.redis, err = database.NewRedis(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		a.close()
		return nil, err
	}
	if a.redis != nil {
		a.closer = append(a.closer, func() { _ = a.redis.Close() })
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Connected to Redis")
	}

	plans, err := config.LoadPlans(cfg.PlansFile, cfg.Stripe.Prices)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to load plans: %w", err)
	}

	mailer, err := mail.New(cfg.SMTP)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to set up mailer: %w", err)
	}

	var gateway payments.Gateway
	if cfg.Stripe.Enabled() {
		gateway = payments.NewStripeGateway(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, nil)
	} else {
		log.Warn().Msg("STRIPE_SECRET_KEY not set, paid checkout is disabled")
	}

	var renderer pdf.Renderer
	if cfg.PDF.Enabled {
		renderer = pdf.NewChromeRenderer(cfg.PDF.ChromePath, cfg.PDF.NoSandbox, cfg.PDF.Timeout)
	}

	var dedup services.Deduper = services.NewLedgerDeduper(store.Webhooks)
	if a.redis != nil {
		dedup = services.NewRedisDeduper(a.redis, cfg.Jobs.WebhookRetention, dedup)
	}

	a.activity = services.NewActivityService(store.Activities, a.hub)
	a.users = services.NewUserService(store.Users, a.activity)
	if cfg.Google.Enabled() {
		a.oauth = services.NewOAuthService(cfg.Google, store.Users, a.activity)
	}
	a.memberships = services.NewMembershipService(services.MembershipDeps{
		Store:       store,
		Plans:       plans,
		Settings:    cfg.Membership,
		Gateway:     gateway,
		SuccessURL:  cfg.Stripe.SuccessURL,
		CancelURL:   cfg.Stripe.CancelURL,
		FrontendURL: cfg.Server.FrontendURL,
		Mailer:      mailer,
		Activity:    a.activity,
		Publisher:   a.hub,
	})
	a.invoices = services.NewInvoiceService(store.Invoices, store.Counters, renderer, a.redis, cfg.PDF.CacheTTL, a.activity)
	a.webhooks = services.NewWebhookService(gateway, cfg.JoinIt.WebhookSecret, dedup, a.memberships, a.invoices, a.activity)
	a.contacts = services.NewContactService(store.Contacts, mailer, cfg.SMTP.ContactInbox, a.activity)
	a.gallery = services.NewGalleryService(store.Gallery)
	a.events = services.NewEventService(store.Events)
	a.network = services.NewNetworkService(store.Network)
	a.stats = services.NewStatsService(store.Users, store.Contacts, a.memberships)

	a.scheduler = jobs.NewScheduler(a.activity)
	err = jobs.RegisterDefaults(a.scheduler, cfg.Jobs, jobs.Deps{
		Memberships: a.memberships,
		Webhooks:    store.Webhooks,
		Stats:       a.stats,
		Activity:    a.activity,
	})
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) close() {
	for i := len(a.closer) - 1; i >= 0; i-- {
		a.closer[i]()
	}
}
