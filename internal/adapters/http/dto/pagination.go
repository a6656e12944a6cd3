package dto

import (
	"encoding/base64"
	"encoding/json"
	"errors"
)

const (
	// DefaultLimit is the page size when none is requested.
	DefaultLimit = 20

	// MaxLimit caps the page size.
	MaxLimit = 100
)

// ErrInvalidCursor is returned when a cursor cannot be decoded.
var ErrInvalidCursor = errors.New("invalid cursor")

// PaginationRequest carries cursor-based paging parameters.
type PaginationRequest struct {
	// Cursor is the opaque NextCursor of a previous page.
	Cursor string `form:"cursor"`

	Limit int `form:"limit" validate:"omitempty,gte=1,lte=100"`
}

// PageSize returns the limit with the default applied.
func (p PaginationRequest) PageSize() int {
	if p.Limit <= 0 {
		return DefaultLimit
	}

	return min(p.Limit, MaxLimit)
}

// AfterID decodes the cursor into the id of the last item already seen.
// An empty cursor means the first page.
func (p PaginationRequest) AfterID() (string, error) {
	if p.Cursor == "" {
		return "", nil
	}

	data, err := DecodeCursor(p.Cursor)
	if err != nil {
		return "", err
	}

	return data.ID, nil
}

// PaginatedResponse is one page of items.
type PaginatedResponse[T any] struct {
	Items      []T    `json:"items"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

// NewPage builds a page. When hasMore is set the cursor points after the
// last item, as identified by idOf.
func NewPage[T any](items []T, hasMore bool, idOf func(T) string) *PaginatedResponse[T] {
	if items == nil {
		items = []T{}
	}

	page := &PaginatedResponse[T]{Items: items, HasMore: hasMore}

	if hasMore && len(items) > 0 {
		page.NextCursor = EncodeCursor(&CursorData{ID: idOf(items[len(items)-1])})
	}

	return page
}

// CursorData is the decoded content of a cursor.
type CursorData struct {
	ID string `json:"id"`
}

// EncodeCursor encodes data as URL-safe base64 JSON.
func EncodeCursor(data *CursorData) string {
	if data == nil {
		return ""
	}

	raw, err := json.Marshal(data)
	if err != nil {
		return ""
	}

	return base64.RawURLEncoding.EncodeToString(raw)
}

// DecodeCursor reverses EncodeCursor.
func DecodeCursor(encoded string) (*CursorData, error) {
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return nil, ErrInvalidCursor
	}

	var data CursorData
	if err := json.Unmarshal(raw, &data); err != nil || data.ID == "" {
		return nil, ErrInvalidCursor
	}

	return &data, nil
}
