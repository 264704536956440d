package catalog

import (
	"context"
	"fmt"
	"sync"

	"github.com/dukerupert/addressattr/internal/domain"
	"github.com/dukerupert/addressattr/internal/telemetry"
	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// DefaultChangeSubject is the NATS subject the platform publishes on after
// address attribute definitions change.
const DefaultChangeSubject = "address_attributes.changed"

// Subscriber is the part of *nats.Conn the cache needs.
type Subscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// Cached is a read-through cache over another catalog. Successful lookups
// are kept until Invalidate is called, either directly or by a change
// notification. Not-found results and errors are not cached, and a lookup
// that was in flight when Invalidate ran is returned but not stored.
type Cached struct {
	next    domain.AddressAttributeRepository
	metrics *telemetry.AttributeMetrics
	logger  zerolog.Logger

	mu         sync.RWMutex
	attributes map[int]domain.AddressAttribute
	values     map[int]domain.AddressAttributeValue
	all        []domain.AddressAttribute
	allLoaded  bool
	generation uint64

	sub *nats.Subscription
}

// NewCached wraps next. metrics may be nil.
func NewCached(next domain.AddressAttributeRepository, metrics *telemetry.AttributeMetrics, logger zerolog.Logger) *Cached {
	return &Cached{
		next:       next,
		metrics:    metrics,
		logger:     logger,
		attributes: make(map[int]domain.AddressAttribute),
		values:     make(map[int]domain.AddressAttributeValue),
	}
}

// GetAttributeByID returns the attribute with the given id.
func (c *Cached) GetAttributeByID(ctx context.Context, id int) (*domain.AddressAttribute, error) {
	c.mu.RLock()
	a, ok := c.attributes[id]
	gen := c.generation
	c.mu.RUnlock()
	c.metrics.CacheLookup(ok)
	if ok {
		return &a, nil
	}

	loaded, err := c.next.GetAttributeByID(ctx, id)
	if err != nil || loaded == nil {
		return loaded, err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.attributes[id] = *loaded
	}
	c.mu.Unlock()
	return loaded, nil
}

// GetAttributeValueByID returns the attribute value with the given id.
func (c *Cached) GetAttributeValueByID(ctx context.Context, id int) (*domain.AddressAttributeValue, error) {
	c.mu.RLock()
	v, ok := c.values[id]
	gen := c.generation
	c.mu.RUnlock()
	c.metrics.CacheLookup(ok)
	if ok {
		return &v, nil
	}

	loaded, err := c.next.GetAttributeValueByID(ctx, id)
	if err != nil || loaded == nil {
		return loaded, err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.values[id] = *loaded
	}
	c.mu.Unlock()
	return loaded, nil
}

// GetAllAttributes returns every attribute. The list also primes the
// by-ID cache.
func (c *Cached) GetAllAttributes(ctx context.Context) ([]domain.AddressAttribute, error) {
	c.mu.RLock()
	if c.allLoaded {
		out := append([]domain.AddressAttribute(nil), c.all...)
		c.mu.RUnlock()
		c.metrics.CacheLookup(true)
		return out, nil
	}
	gen := c.generation
	c.mu.RUnlock()
	c.metrics.CacheLookup(false)

	all, err := c.next.GetAllAttributes(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if c.generation == gen {
		c.all = append([]domain.AddressAttribute(nil), all...)
		c.allLoaded = true
		for _, a := range all {
			c.attributes[a.ID] = a
		}
	}
	c.mu.Unlock()
	return all, nil
}

// Invalidate drops every cached entry.
func (c *Cached) Invalidate() {
	c.mu.Lock()
	c.attributes = make(map[int]domain.AddressAttribute)
	c.values = make(map[int]domain.AddressAttributeValue)
	c.all = nil
	c.allLoaded = false
	c.generation++
	c.mu.Unlock()

	c.metrics.CacheInvalidated()
}

// Subscribe invalidates the cache whenever a message arrives on subject.
func (c *Cached) Subscribe(nc Subscriber, subject string) error {
	if subject == "" {
		subject = DefaultChangeSubject
	}
	sub, err := nc.Subscribe(subject, c.handleChange)
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", subject, err)
	}
	c.sub = sub
	c.logger.Info().Str("subject", subject).Msg("catalog cache listening for changes")
	return nil
}

// Close stops listening for change notifications.
func (c *Cached) Close() error {
	if c.sub == nil {
		return nil
	}
	return c.sub.Unsubscribe()
}

func (c *Cached) handleChange(msg *nats.Msg) {
	c.logger.Debug().Str("subject", msg.Subject).Msg("address attribute catalog changed, flushing cache")
	c.Invalidate()
}
