// Package events delivers sync notifications to the presentation layer.
package events

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jsamuelsen/quotesync/internal/ports"
)

// Notification is a published event as the presentation layer sees it.
type Notification struct {
	Type        string    `json:"type"`
	Payload     any       `json:"payload"`
	PublishedAt time.Time `json:"publishedAt"`
}

// Inbox implements ports.EventPublisher by keeping the most recent
// notification for polling and logging every event it receives.
type Inbox struct {
	mu     sync.RWMutex
	latest *Notification
	counts map[string]int

	logger *slog.Logger
	now    func() time.Time
}

// NewInbox creates an empty inbox.
func NewInbox(logger *slog.Logger) *Inbox {
	if logger == nil {
		logger = slog.Default()
	}

	return &Inbox{
		counts: make(map[string]int),
		logger: logger.With(slog.String("component", "inbox")),
		now:    time.Now,
	}
}

// Publish records event as the latest notification. It never fails.
func (i *Inbox) Publish(ctx context.Context, event ports.Event) error {
	n := Notification{
		Type:        event.EventType(),
		Payload:     event.Payload(),
		PublishedAt: i.now(),
	}

	i.mu.Lock()
	i.latest = &n
	i.counts[n.Type]++
	i.mu.Unlock()

	i.logger.Log(ctx, levelFor(n.Type), "notification", attrsFor(event)...)

	return nil
}

// Latest returns the most recent notification, if any.
func (i *Inbox) Latest() (Notification, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.latest == nil {
		return Notification{}, false
	}

	return *i.latest, true
}

// Count returns how many events of the given type have been published.
func (i *Inbox) Count(eventType string) int {
	i.mu.RLock()
	defer i.mu.RUnlock()

	return i.counts[eventType]
}

func levelFor(eventType string) slog.Level {
	switch eventType {
	case ports.EventSyncFailed:
		return slog.LevelWarn
	case ports.EventSyncCompletedNoChange:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}

func attrsFor(event ports.Event) []any {
	attrs := []any{slog.String("event", event.EventType())}

	switch e := event.(type) {
	case ports.ConflictDetected:
		attrs = append(attrs,
			slog.String("conflict_id", e.ConflictID),
			slog.Int("proposed", len(e.Proposed)),
			slog.Int("added", len(e.Added)),
			slog.Int("replaced", len(e.Replaced)))
	case ports.SyncFailed:
		attrs = append(attrs, slog.String("reason", e.Reason))
	case ports.ConflictResolved:
		attrs = append(attrs,
			slog.String("conflict_id", e.ConflictID),
			slog.String("decision", e.Decision))
	}

	return attrs
}
