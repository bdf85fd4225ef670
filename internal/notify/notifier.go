package notify

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/MrSnakeDoc/registry/internal/domain"
	"github.com/MrSnakeDoc/registry/internal/logger"
	"github.com/MrSnakeDoc/registry/internal/utils"
)

// Source provides the snapshot a fan-out works from.
type Source interface {
	SubscribersOf(id string) ([]domain.Subscriber, domain.Service, bool)
}

// Publisher receives every event, callback-eligible or not.
type Publisher interface {
	Publish(ctx context.Context, event domain.Event) error
}

// Notifier delivers best-effort callbacks to subscribers and forwards every
// event to an optional Publisher. Delivery never blocks the caller of Notify.
type Notifier struct {
	source    Source
	publisher Publisher
	client    *http.Client
	timeout   time.Duration
	logger    logger.Logger
	now       func() time.Time

	mu       sync.Mutex // guards closed and inflight.Add
	closed   bool
	inflight sync.WaitGroup
}

// NewNotifier creates a notifier. publisher may be nil.
func NewNotifier(source Source, publisher Publisher, timeout time.Duration, log logger.Logger) *Notifier {
	return &Notifier{
		source:    source,
		publisher: publisher,
		client:    domain.NewHTTPClient(timeout),
		timeout:   timeout,
		logger:    log.With(logger.Component("notifier")),
		now:       time.Now,
	}
}

// Notify dispatches the event in the background and returns immediately.
func (n *Notifier) Notify(kind domain.EventKind, subject domain.Service) {
	event := domain.Event{Kind: kind, Service: subject, At: n.now()}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.closed {
		n.logger.Debug("notifier closed, event dropped",
			logger.String("identifier", subject.Identifier),
			logger.String("kind", string(kind)))
		return
	}
	n.inflight.Add(1)
	go func() {
		defer n.inflight.Done()
		n.dispatch(event)
	}()
}

// Close stops accepting events, then waits like Wait.
func (n *Notifier) Close(ctx context.Context) error {
	n.mu.Lock()
	n.closed = true
	n.mu.Unlock()

	return n.Wait(ctx)
}

// Wait blocks until every dispatched event has been handled or ctx is done.
func (n *Notifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *Notifier) dispatch(event domain.Event) {
	if !event.Kind.Callback() {
		n.publish(event)
		return
	}

	// Snapshot under the store lock, then do I/O without it
	subs, current, ok := n.source.SubscribersOf(event.Service.Identifier)
	if ok {
		event.Service = current
	}
	n.publish(event)

	var matched []domain.Subscriber
	for _, sub := range subs {
		if sub.Wants(event.Kind) {
			matched = append(matched, sub)
		}
	}
	if len(matched) == 0 {
		return
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	delivered := 0
	for _, sub := range matched {
		wg.Add(1)
		go func(sub domain.Subscriber) {
			defer wg.Done()
			if err := n.deliver(event.Service, sub); err != nil {
				n.logger.Debug("callback delivery failed",
					logger.String("identifier", event.Service.Identifier),
					logger.String("endpoint", sub.Endpoint),
					logger.String("kind", string(event.Kind)),
					logger.Error(err))
				return
			}
			mu.Lock()
			delivered++
			mu.Unlock()
		}(sub)
	}
	wg.Wait()

	n.logger.Debug("event delivered to subscribers",
		logger.String("identifier", event.Service.Identifier),
		logger.String("kind", string(event.Kind)),
		logger.Int("matched", len(matched)),
		logger.Int("delivered", delivered))
}

// deliver POSTs the service fields form-encoded to the subscriber endpoint.
func (n *Notifier) deliver(svc domain.Service, sub domain.Subscriber) error {
	target, err := sub.CallbackURL(svc)
	if err != nil {
		return fmt.Errorf("invalid callback url: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target,
		strings.NewReader(svc.FormValues().Encode()))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback failed: %w", err)
	}
	defer utils.DrainClose(resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}

func (n *Notifier) publish(event domain.Event) {
	if n.publisher == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), n.timeout)
	defer cancel()

	if err := n.publisher.Publish(ctx, event); err != nil {
		n.logger.Warn("failed to publish event",
			logger.String("identifier", event.Service.Identifier),
			logger.String("kind", string(event.Kind)),
			logger.Error(err))
	}
}
