package dto

import "time"

// SyncResponse is the body of a successful POST /sync.
type SyncResponse struct {
	Outcome  string            `json:"outcome"`
	Conflict *ConflictResponse `json:"conflict,omitempty"`
}

// ConflictResponse describes a pending conflict.
type ConflictResponse struct {
	ID         string          `json:"id"`
	Proposed   []QuoteResponse `json:"proposed"`
	Previous   []QuoteResponse `json:"previous"`
	Added      []string        `json:"added,omitempty"`
	Replaced   []string        `json:"replaced,omitempty"`
	DetectedAt time.Time       `json:"detectedAt"`
}

// ResolveRequest is the body of POST /sync/resolve.
type ResolveRequest struct {
	Decision string `json:"decision" validate:"required,oneof=accept keep"`
}

// ResolveResponse is the body of a successful POST /sync/resolve.
type ResolveResponse struct {
	Decision string `json:"decision"`
	State    string `json:"state"`
}

// NotificationResponse is the latest event published by the sync subsystem.
type NotificationResponse struct {
	Type        string    `json:"type"`
	Payload     any       `json:"payload"`
	PublishedAt time.Time `json:"publishedAt"`
}

// SyncStatusResponse is the body of GET /sync/status.
type SyncStatusResponse struct {
	State        string                `json:"state"`
	Conflict     *ConflictResponse     `json:"conflict,omitempty"`
	LastSync     *time.Time            `json:"lastSync,omitempty"`
	LastError    string                `json:"lastError,omitempty"`
	Notification *NotificationResponse `json:"notification,omitempty"`
}
