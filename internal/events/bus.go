// Package events implements the change-notification fan-out: a
// publish/subscribe bus keyed by owning user with bounded, lossy delivery.
//
// Delivery is at-most-once. Each subscriber owns a bounded queue; when it is
// full the message is dropped and the subscriber is expected to reconcile by
// re-listing the affected folder. Publishing with no subscribers discards the
// message with only a log line.
package events

import (
	"log/slog"
	"sync"

	"playdrive/internal/domain/models"
)

// SubscriberQueueSize bounds each subscriber's outbound queue.
const SubscriberQueueSize = 16

// Subscriber receives the folder changes of a single owner. One subscriber
// exists per active real-time connection.
type Subscriber struct {
	ownerID string
	ch      chan models.FolderChange

	once sync.Once
}

// Changes returns the subscriber's receive channel. It is closed by
// Unsubscribe.
func (s *Subscriber) Changes() <-chan models.FolderChange {
	return s.ch
}

// OwnerID returns the owner this subscriber is filtered to.
func (s *Subscriber) OwnerID() string {
	return s.ownerID
}

// Bus broadcasts folder changes to subscribers filtered by owning user.
type Bus struct {
	mu     sync.RWMutex
	subs   map[*Subscriber]struct{}
	logger *slog.Logger
}

// NewBus creates a new notification bus
func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[*Subscriber]struct{}),
		logger: logger,
	}
}

// Subscribe registers a subscriber for the given owner's changes.
func (b *Bus) Subscribe(ownerID string) *Subscriber {
	sub := &Subscriber{
		ownerID: ownerID,
		ch:      make(chan models.FolderChange, SubscriberQueueSize),
	}

	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()

	b.logger.Debug("subscriber added", "owner_id", ownerID)
	return sub
}

// Unsubscribe removes the subscriber and closes its channel. Safe to call
// more than once.
func (b *Bus) Unsubscribe(sub *Subscriber) {
	b.mu.Lock()
	_, ok := b.subs[sub]
	delete(b.subs, sub)
	b.mu.Unlock()

	if ok {
		sub.once.Do(func() { close(sub.ch) })
		b.logger.Debug("subscriber removed", "owner_id", sub.ownerID)
	}
}

// Publish forwards the change to every subscriber whose owner matches.
// The send never blocks: a subscriber with a full queue misses the message.
func (b *Bus) Publish(change models.FolderChange) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	delivered := 0
	for sub := range b.subs {
		if sub.ownerID != change.OwnerID {
			continue
		}
		select {
		case sub.ch <- change:
			delivered++
		default:
			b.logger.Warn("subscriber queue full, dropping change",
				"owner_id", change.OwnerID,
				"folder_id", change.FolderID,
			)
		}
	}

	if delivered == 0 {
		b.logger.Debug("folder change had no listeners",
			"owner_id", change.OwnerID,
			"folder_id", change.FolderID,
		)
	}
}

// SubscriberCount reports how many subscribers are currently registered.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
