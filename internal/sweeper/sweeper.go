// Package sweeper is the safety net for bookings whose payment outcome the
// synchronous flow never learned: a perpetual loop that asks the gateway and
// drives stragglers through the booking state machine.
package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/venuehub/venue-booking/internal/booking"
	"github.com/venuehub/venue-booking/internal/domain"
	"github.com/venuehub/venue-booking/internal/gateway"
	"github.com/venuehub/venue-booking/internal/logger"
)

// Config contains configuration for the sweeper
type Config struct {
	// MinInterval is the sweep interval while stale bookings keep turning up
	MinInterval time.Duration
	// MaxInterval is the backed-off interval once sweeps come up empty
	MaxInterval time.Duration
	// Staleness is how old a Pending booking must be before it is swept
	Staleness time.Duration
	// BatchSize is the number of bookings to examine per sweep
	BatchSize int
	// RepairEvery runs the repair hook once per this many sweeps (0 = never)
	RepairEvery int
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		MinInterval: 15 * time.Second,
		MaxInterval: 2 * time.Minute,
		Staleness:   10 * time.Minute,
		BatchSize:   100,
		RepairEvery: 20,
	}
}

// RepairFunc is an idempotent maintenance pass piggybacked on the sweep
// cadence (the denormalization repair uses it).
type RepairFunc func(ctx context.Context) error

// Sweeper reconciles stale Pending bookings against the payment gateway.
type Sweeper struct {
	bookings booking.Service
	gw       gateway.Gateway
	repair   RepairFunc
	config   *Config
	log      *logger.Logger
	stopCh   chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	running  bool

	// Stats
	totalSwept     int64
	totalResolved  int64
	totalSkipped   int64
	lastSweepTime  time.Time
	lastFoundCount int
	interval       time.Duration
	sweepCount     int
}

// New creates a new Sweeper
func New(bookings booking.Service, gw gateway.Gateway, repair RepairFunc, config *Config) *Sweeper {
	if config == nil {
		config = DefaultConfig()
	}
	return &Sweeper{
		bookings: bookings,
		gw:       gw,
		repair:   repair,
		config:   config,
		log:      logger.Get().Named("sweeper"),
		stopCh:   make(chan struct{}),
		interval: config.MinInterval,
	}
}

// Start starts the sweeper loop
func (s *Sweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("sweeper already running")
	}
	s.running = true
	s.mu.Unlock()

	s.log.Info("starting reconciliation sweeper",
		zap.Duration("min_interval", s.config.MinInterval),
		zap.Duration("max_interval", s.config.MaxInterval),
		zap.Duration("staleness", s.config.Staleness),
	)

	s.wg.Add(1)
	go s.run(ctx)
	return nil
}

// Stop stops the sweeper and waits for the in-flight sweep to finish.
// In-flight gateway calls are not aborted; their results are discarded.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.mu.Unlock()

	s.log.Info("stopping reconciliation sweeper")
	close(s.stopCh)
	s.wg.Wait()
	s.log.Info("reconciliation sweeper stopped")
}

func (s *Sweeper) run(ctx context.Context) {
	defer s.wg.Done()

	for {
		// Cancellation is checked once per iteration and once more before
		// the inter-iteration delay.
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		s.sweepOnce(ctx)

		s.mu.Lock()
		delay := s.interval
		s.mu.Unlock()

		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-time.After(delay):
		}
	}
}

// sweepOnce runs one reconciliation pass. It must never panic out of the
// loop: individual booking failures are logged and skipped.
func (s *Sweeper) sweepOnce(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("sweep panicked", zap.Any("panic", r))
		}
	}()

	s.mu.Lock()
	s.lastSweepTime = time.Now()
	s.sweepCount++
	runRepair := s.repair != nil && s.config.RepairEvery > 0 && s.sweepCount%s.config.RepairEvery == 0
	s.mu.Unlock()

	stale, err := s.bookings.GetStalePendingBookings(ctx, s.config.Staleness, s.config.BatchSize)
	if err != nil {
		s.log.Error("failed to list stale pending bookings", zap.Error(err))
		s.backOff()
	} else {
		s.reconcile(ctx, stale)
	}

	if runRepair {
		if err := s.repair(ctx); err != nil {
			s.log.Error("repair pass failed", zap.Error(err))
		}
	}
}

func (s *Sweeper) reconcile(ctx context.Context, stale []*domain.Booking) {
	s.mu.Lock()
	s.lastFoundCount = len(stale)
	s.mu.Unlock()

	if len(stale) == 0 {
		s.backOff()
		return
	}
	s.speedUp()

	for _, b := range stale {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		default:
		}

		if err := s.reconcileBooking(ctx, b); err != nil {
			// Transient gateway errors wait for the next sweep; everything
			// is logged, nothing aborts the pass.
			s.log.Warn("failed to reconcile booking",
				zap.String("booking_id", b.ID),
				zap.Error(err),
			)
		}
	}
}

func (s *Sweeper) reconcileBooking(ctx context.Context, b *domain.Booking) error {
	s.mu.Lock()
	s.totalSwept++
	s.mu.Unlock()

	if b.GatewayOrderID == "" {
		// Never reached the gateway; the purchase flow died before handoff.
		_, err := s.bookings.Transition(ctx, b.ID, domain.BookingStatusAborted, nil)
		if err == nil {
			s.countResolved()
		}
		return err
	}

	snapshot, err := s.gw.CheckTransaction(ctx, b.GatewayOrderID)
	if err != nil {
		return err
	}

	target, ok := gateway.MapStatus(snapshot.OrderStatus)
	if !ok {
		// Still pending at the gateway, or a vocabulary we don't recognize.
		// Leave it for the next sweep.
		s.mu.Lock()
		s.totalSkipped++
		s.mu.Unlock()
		s.log.Debug("gateway status not actionable",
			zap.String("booking_id", b.ID),
			zap.String("gateway_status", string(snapshot.OrderStatus)),
		)
		return nil
	}

	if _, err := s.bookings.Transition(ctx, b.ID, target, snapshot); err != nil {
		return err
	}

	s.countResolved()
	s.log.Info("reconciled stale booking",
		zap.String("booking_id", b.ID),
		zap.String("status", target.String()),
	)
	return nil
}

func (s *Sweeper) countResolved() {
	s.mu.Lock()
	s.totalResolved++
	s.mu.Unlock()
}

// speedUp shortens the interval toward MinInterval after a productive sweep.
func (s *Sweeper) speedUp() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = s.config.MinInterval
}

// backOff doubles the interval up to MaxInterval after an empty sweep,
// bounding gateway call volume while the backlog is clear.
func (s *Sweeper) backOff() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval *= 2
	if s.interval > s.config.MaxInterval {
		s.interval = s.config.MaxInterval
	}
}

// Stats contains a snapshot of sweeper counters
type Stats struct {
	IsRunning      bool          `json:"is_running"`
	TotalSwept     int64         `json:"total_swept"`
	TotalResolved  int64         `json:"total_resolved"`
	TotalSkipped   int64         `json:"total_skipped"`
	LastSweepTime  time.Time     `json:"last_sweep_time"`
	LastFoundCount int           `json:"last_found_count"`
	Interval       time.Duration `json:"current_interval"`
}

// GetStats returns sweeper statistics
func (s *Sweeper) GetStats() *Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return &Stats{
		IsRunning:      s.running,
		TotalSwept:     s.totalSwept,
		TotalResolved:  s.totalResolved,
		TotalSkipped:   s.totalSkipped,
		LastSweepTime:  s.lastSweepTime,
		LastFoundCount: s.lastFoundCount,
		Interval:       s.interval,
	}
}
