package di

import (
	"context"
	"fmt"

	"github.com/venuehub/venue-booking/internal/booking"
	"github.com/venuehub/venue-booking/internal/config"
	"github.com/venuehub/venue-booking/internal/database"
	"github.com/venuehub/venue-booking/internal/domain"
	"github.com/venuehub/venue-booking/internal/gateway"
	"github.com/venuehub/venue-booking/internal/handler"
	"github.com/venuehub/venue-booking/internal/inventory"
	"github.com/venuehub/venue-booking/internal/logger"
	"github.com/venuehub/venue-booking/internal/redis"
	"github.com/venuehub/venue-booking/internal/sequence"
	"github.com/venuehub/venue-booking/internal/store"
	"github.com/venuehub/venue-booking/internal/sweeper"
	"github.com/venuehub/venue-booking/internal/syncer"
)

// Container holds all dependencies for the booking service
type Container struct {
	// Infrastructure
	DB    *database.PostgresDB
	Redis *redis.Client

	// Repositories and stores
	BookingRepo    booking.Repository
	PackageRepo    inventory.PackageRepository
	ReferenceStore *store.ReferenceStore
	VenueStore     *store.DocumentStore[*domain.Venue]
	EventStore     *store.DocumentStore[*domain.Event]

	// Engine components
	Inventory      inventory.Inventory
	Sequences      sequence.Generator
	Gateway        gateway.Gateway
	SyncRegistry   *syncer.Registry
	Repairer       *syncer.Repairer
	BookingService booking.Service
	Sweeper        *sweeper.Sweeper

	// Handlers
	HealthHandler  *handler.HealthHandler
	BookingHandler *handler.BookingHandler
	AdminHandler   *handler.AdminHandler
	CatalogHandler *handler.CatalogHandler
}

// NewContainer wires the full dependency graph from configuration. Redis is
// only dialed when a component is configured to use it.
func NewContainer(ctx context.Context, cfg *config.Config, db *database.PostgresDB, redisClient *redis.Client) (*Container, error) {
	c := &Container{DB: db, Redis: redisClient}
	log := logger.Get().Named("di")

	pool := db.Pool()

	// Repositories
	c.BookingRepo = booking.NewPostgresRepository(pool)
	pgInventory := inventory.NewPostgresInventory(pool)

	// Inventory backend. Package edits route through the same backend as
	// reservations so total edits are validated against the live counters.
	switch cfg.Inventory.Backend {
	case "redis":
		if redisClient == nil {
			return nil, fmt.Errorf("inventory backend is redis but no redis client configured")
		}
		redisInv := inventory.NewRedisInventory(redisClient, pgInventory)
		if err := redisInv.LoadScripts(ctx); err != nil {
			log.Warn("failed to pre-load inventory scripts, falling back to EVAL")
		}
		c.Inventory = redisInv
		c.PackageRepo = redisInv
	default:
		c.Inventory = pgInventory
		c.PackageRepo = pgInventory
	}

	// Sequence generator
	if cfg.Inventory.Backend == "redis" && redisClient != nil {
		c.Sequences = sequence.NewRedisGenerator(redisClient)
	} else {
		c.Sequences = sequence.NewLocalGenerator(sequence.NewPostgresCounterStore(pool))
	}

	// Payment gateway
	gw, err := gateway.New(&cfg.Gateway)
	if err != nil {
		return nil, fmt.Errorf("failed to build gateway: %w", err)
	}
	c.Gateway = gw

	// Denormalization sync registry. Each handler binds one reference kind
	// to the document field that embeds copies of it.
	c.SyncRegistry = syncer.NewRegistry()
	c.SyncRegistry.Register(syncer.NewObjectFieldHandler(pool, domain.ReferenceKindCity, "venues", "city"))
	c.SyncRegistry.Register(syncer.NewArrayFieldHandler(pool, domain.ReferenceKindCategory, "venues", "categories"))
	c.SyncRegistry.Register(syncer.NewArrayFieldHandler(pool, domain.ReferenceKindCategory, "events", "categories"))
	c.SyncRegistry.Register(syncer.NewArrayFieldHandler(pool, domain.ReferenceKindOfferType, "venues", "offer_types"))
	c.SyncRegistry.Register(syncer.NewArrayFieldHandler(pool, domain.ReferenceKindLoyaltyType, "events", "loyalty_types"))

	// Stores
	c.ReferenceStore = store.NewReferenceStore(pool, c.SyncRegistry)
	c.VenueStore = store.NewDocumentStore[*domain.Venue](pool, "venues")
	c.EventStore = store.NewDocumentStore[*domain.Event](pool, "events")

	c.Repairer = syncer.NewRepairer(c.SyncRegistry, c.ReferenceStore, 200)

	// Booking service
	c.BookingService = booking.NewService(
		c.BookingRepo,
		c.Inventory,
		c.PackageRepo,
		c.Sequences,
		c.Gateway,
		nil, // default log dispatcher
		nil, // no device-token directory yet
		nil,
	)

	// Reconciliation sweeper, with the denormalization repair piggybacked
	// on its slow tick.
	c.Sweeper = sweeper.New(c.BookingService, c.Gateway, c.Repairer.Repair, &sweeper.Config{
		MinInterval: cfg.Sweeper.MinInterval,
		MaxInterval: cfg.Sweeper.MaxInterval,
		Staleness:   cfg.Sweeper.Staleness,
		BatchSize:   cfg.Sweeper.BatchSize,
		RepairEvery: cfg.Sweeper.RepairEvery,
	})

	// Handlers
	c.HealthHandler = handler.NewHealthHandler(db, redisClient, c.Sweeper)
	c.BookingHandler = handler.NewBookingHandler(c.BookingService)
	c.AdminHandler = handler.NewAdminHandler(c.ReferenceStore, c.PackageRepo)
	c.CatalogHandler = handler.NewCatalogHandler(c.VenueStore, c.EventStore)

	return c, nil
}
