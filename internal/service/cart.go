package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gupfee/greenhaus/internal/cart"
	"github.com/gupfee/greenhaus/internal/domain"
	"github.com/gupfee/greenhaus/internal/events"
	"github.com/gupfee/greenhaus/internal/pricing"
	"github.com/gupfee/greenhaus/internal/storage"
	"github.com/gupfee/greenhaus/internal/telemetry"
)

// ControllerConfig tunes a cart controller instance.
type ControllerConfig struct {
	// CartKey is the durable-storage key for this cart's snapshots.
	CartKey string

	// PersistTimeout bounds each durable-storage call. Writes exceeding it
	// are treated as failed per the persistence-failed policy.
	PersistTimeout time.Duration

	// QueueSize is the mutation queue capacity.
	QueueSize int
}

func (c *ControllerConfig) applyDefaults() {
	if c.CartKey == "" {
		c.CartKey = "cart:default"
	}
	if c.PersistTimeout <= 0 {
		c.PersistTimeout = 3 * time.Second
	}
	if c.QueueSize <= 0 {
		c.QueueSize = 16
	}
}

// Controller implements domain.CartController.
//
// Mutations run on a single-writer queue: a dedicated goroutine drains tasks
// in submission order, so two near-simultaneous increments can never both
// read the pre-increment quantity. Enqueueing honors context cancellation,
// but a task that has been admitted always runs to completion, so the line
// item store is never left mid-mutation.
//
// Persistence follows the optimistic policy: if the durable write fails
// after the in-memory mutation succeeded, the mutation is kept (the
// shopper's intent is not lost to a storage hiccup) and the caller receives
// the new snapshot together with an EPERSISTENCE-coded error.
type Controller struct {
	store     *cart.Store
	storage   storage.Store
	notifier  events.Notifier
	calc      *pricing.Calculator
	metrics   *telemetry.Metrics
	logger    *slog.Logger
	cfg       ControllerConfig

	tasks chan task
	quit  chan struct{}
	done  chan struct{}
}

type task struct {
	op    string
	apply func() (domain.CartSnapshot, error)
	reply chan taskResult
}

type taskResult struct {
	snap domain.CartSnapshot
	err  error
}

// NewCartController creates a controller with an empty cart and starts its
// writer goroutine. Call Close when the cart's session ends. metrics may be
// nil in tests.
func NewCartController(
	st storage.Store,
	notifier events.Notifier,
	calc *pricing.Calculator,
	metrics *telemetry.Metrics,
	logger *slog.Logger,
	cfg ControllerConfig,
) *Controller {
	cfg.applyDefaults()
	if logger == nil {
		logger = slog.Default()
	}

	c := &Controller{
		store:    cart.NewStore(),
		storage:  st,
		notifier: notifier,
		calc:     calc,
		metrics:  metrics,
		logger:   logger,
		cfg:      cfg,
		tasks:    make(chan task, cfg.QueueSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	if metrics != nil {
		c.store.Subscribe(func(snap domain.CartSnapshot) {
			metrics.CartItems.Set(float64(snap.ItemCount))
		})
	}

	go c.run()
	return c
}

// Close stops the writer goroutine after the current task finishes.
// Mutations submitted after Close fail with ErrControllerClosed.
func (c *Controller) Close() {
	select {
	case <-c.quit:
	default:
		close(c.quit)
	}
	<-c.done
}

// AddToCart implements domain.CartController.
func (c *Controller) AddToCart(ctx context.Context, product domain.ProductSnapshot, qty int) (*domain.CartSnapshot, error) {
	return c.submit(ctx, "add", func() (domain.CartSnapshot, error) {
		return c.store.Upsert(product, qty)
	})
}

// UpdateQuantity implements domain.CartController.
func (c *Controller) UpdateQuantity(ctx context.Context, productID string, qty int) (*domain.CartSnapshot, error) {
	return c.submit(ctx, "update", func() (domain.CartSnapshot, error) {
		return c.store.SetQuantity(productID, qty)
	})
}

// RemoveFromCart implements domain.CartController.
func (c *Controller) RemoveFromCart(ctx context.Context, productID string) (*domain.CartSnapshot, error) {
	return c.submit(ctx, "remove", func() (domain.CartSnapshot, error) {
		return c.store.Remove(productID)
	})
}

// ClearCart implements domain.CartController.
func (c *Controller) ClearCart(ctx context.Context) (*domain.CartSnapshot, error) {
	return c.submit(ctx, "clear", func() (domain.CartSnapshot, error) {
		return c.store.Clear(), nil
	})
}

// GetQuote implements domain.CartController. It reads the latest committed
// snapshot without entering the mutation queue, so quotes never block behind
// writes and repeated calls with identical inputs return identical results.
func (c *Controller) GetQuote(ctx context.Context, req domain.QuoteRequest) (*domain.OrderQuote, error) {
	start := time.Now()
	quote, err := c.calc.Quote(ctx, c.store.Snapshot(), req)

	if c.metrics != nil {
		c.metrics.QuoteDuration.Observe(time.Since(start).Seconds())
		status := "ok"
		if err != nil {
			status = domain.ErrorCode(err)
		}
		c.metrics.QuotesTotal.WithLabelValues(status).Inc()
	}

	if err != nil && domain.IsCode(err, domain.ESHIPPINGTIER) {
		// Config/caller bug, not a shopper-correctable condition.
		c.logger.Error("quote requested for unconfigured shipping tier",
			"tier", req.ShippingTier,
			"error", err,
		)
	}

	return quote, err
}

// IsInCart implements domain.CartController.
func (c *Controller) IsInCart(productID string) bool {
	return c.store.Contains(productID)
}

// Snapshot implements domain.CartController.
func (c *Controller) Snapshot() domain.CartSnapshot {
	return c.store.Snapshot()
}

// Resync implements domain.CartController. The load runs on the writer
// queue so it cannot interleave with a mutation. A missing snapshot yields
// an empty cart; a failed load also falls back to an empty cart but
// surfaces an EPERSISTENCE warning.
func (c *Controller) Resync(ctx context.Context) (*domain.CartSnapshot, error) {
	return c.submit(ctx, "resync", func() (domain.CartSnapshot, error) {
		lctx, cancel := context.WithTimeout(context.Background(), c.cfg.PersistTimeout)
		defer cancel()

		stored, err := c.storage.Load(lctx, c.cfg.CartKey)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return c.store.Clear(), nil
			}
			c.logger.Warn("cart restore failed, starting empty",
				"key", c.cfg.CartKey,
				"error", err,
			)
			snap := c.store.Clear()
			return snap, domain.WrapError(err, domain.EPERSISTENCE, "cart.resync", "failed to restore cart snapshot")
		}

		return c.store.Replace(stored.Items)
	})
}

// submit queues a mutation and waits for its result.
func (c *Controller) submit(ctx context.Context, op string, apply func() (domain.CartSnapshot, error)) (*domain.CartSnapshot, error) {
	t := task{
		op:    op,
		apply: apply,
		reply: make(chan taskResult, 1),
	}

	select {
	case c.tasks <- t:
	case <-c.quit:
		return nil, ErrControllerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	// Admitted tasks run to completion even if the caller gives up, so the
	// store never ends in a partial state; the caller just stops waiting.
	select {
	case res := <-t.reply:
		if res.err != nil && domain.IsCode(res.err, domain.EPERSISTENCE) {
			snap := res.snap
			return &snap, res.err
		}
		if res.err != nil {
			return nil, res.err
		}
		snap := res.snap
		return &snap, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// run is the single writer. Tasks execute strictly in submission order.
func (c *Controller) run() {
	defer close(c.done)

	for {
		select {
		case t := <-c.tasks:
			t.reply <- c.execute(t)
		case <-c.quit:
			return
		}
	}
}

func (c *Controller) execute(t task) taskResult {
	snap, err := t.apply()
	if err != nil {
		c.countMutation(t.op, domain.ErrorCode(err))
		return taskResult{err: err}
	}

	// Resync reads storage itself; everything else persists the new state.
	if t.op != "resync" {
		if perr := c.persist(snap); perr != nil {
			c.countMutation(t.op, domain.EPERSISTENCE)
			if c.metrics != nil {
				c.metrics.PersistenceFailures.Inc()
			}
			c.logger.Warn("cart snapshot not persisted, keeping in-memory state",
				"op", t.op,
				"key", c.cfg.CartKey,
				"error", perr,
			)
			c.publish(snap)
			return taskResult{snap: snap, err: domain.WrapError(perr, domain.EPERSISTENCE, "cart."+t.op, "cart saved in memory only")}
		}
	}

	c.countMutation(t.op, "ok")
	c.publish(snap)
	return taskResult{snap: snap}
}

func (c *Controller) persist(snap domain.CartSnapshot) error {
	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PersistTimeout)
	defer cancel()
	return c.storage.Save(ctx, c.cfg.CartKey, snap)
}

func (c *Controller) publish(snap domain.CartSnapshot) {
	if c.notifier == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.cfg.PersistTimeout)
	defer cancel()

	update := domain.CartUpdate{
		CartID:    c.cfg.CartKey,
		ItemCount: snap.ItemCount,
		Snapshot:  snap,
	}
	if err := c.notifier.CartUpdated(ctx, update); err != nil {
		c.logger.Warn("cart update notification failed", "key", c.cfg.CartKey, "error", err)
	}
}

func (c *Controller) countMutation(op, status string) {
	if c.metrics != nil {
		c.metrics.MutationsTotal.WithLabelValues(op, status).Inc()
	}
}
