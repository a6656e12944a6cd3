package ports

import (
	"time"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// Event type identifiers emitted by the sync coordinator.
const (
	EventConflictDetected      = "sync.conflict_detected"
	EventSyncFailed            = "sync.failed"
	EventSyncCompletedNoChange = "sync.no_change"
	EventConflictResolved      = "sync.conflict_resolved"
)

// ConflictDetected is published when a sync produced a merged collection that
// differs from local state and a decision is required.
type ConflictDetected struct {
	ConflictID string            `json:"conflictId"`
	Proposed   domain.Collection `json:"proposed"`
	Added      []string          `json:"added,omitempty"`
	Replaced   []string          `json:"replaced,omitempty"`
	DetectedAt time.Time         `json:"detectedAt"`
}

// EventType implements Event.
func (ConflictDetected) EventType() string { return EventConflictDetected }

// Payload implements Event.
func (e ConflictDetected) Payload() any { return e }

// SyncFailed is published when the remote fetch failed.
type SyncFailed struct {
	Reason string `json:"reason"`
}

// EventType implements Event.
func (SyncFailed) EventType() string { return EventSyncFailed }

// Payload implements Event.
func (e SyncFailed) Payload() any { return e }

// SyncCompletedNoChange is published when remote state added nothing new.
type SyncCompletedNoChange struct {
	CompletedAt time.Time `json:"completedAt"`
}

// EventType implements Event.
func (SyncCompletedNoChange) EventType() string { return EventSyncCompletedNoChange }

// Payload implements Event.
func (e SyncCompletedNoChange) Payload() any { return e }

// ConflictResolved is published once a pending conflict has been decided.
type ConflictResolved struct {
	ConflictID string `json:"conflictId"`
	Decision   string `json:"decision"`
}

// EventType implements Event.
func (ConflictResolved) EventType() string { return EventConflictResolved }

// Payload implements Event.
func (e ConflictResolved) Payload() any { return e }
