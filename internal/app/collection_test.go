package app

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotesync/internal/domain"
	"github.com/jsamuelsen/quotesync/internal/mocks"
)

// discardLogger returns a logger that discards all output.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func quote(id, text string, lastModified int64) domain.Quote {
	return domain.Quote{ID: id, Text: text, Category: "General", LastModified: lastModified}
}

// loadedCollection returns a collection manager whose store initially holds quotes.
func loadedCollection(t *testing.T, store *mocks.MockQuoteStore, quotes domain.Collection) *Collection {
	t.Helper()

	store.EXPECT().Load(mock.Anything).Return(quotes, true, nil).Once()

	c := NewCollection(CollectionConfig{Store: store, Logger: discardLogger()})
	require.NoError(t, c.Load(context.Background()))

	return c
}

func TestNewCollection_PanicsWithoutStore(t *testing.T) {
	assert.Panics(t, func() {
		NewCollection(CollectionConfig{})
	})
}

func TestCollection_Load(t *testing.T) {
	t.Run("seeds when nothing is persisted", func(t *testing.T) {
		store := mocks.NewMockQuoteStore(t)
		store.EXPECT().Load(mock.Anything).Return(nil, false, nil)
		store.EXPECT().Save(mock.Anything, mock.MatchedBy(func(c domain.Collection) bool {
			return len(c) == 3
		})).Return(nil)

		c := NewCollection(CollectionConfig{Store: store, Logger: discardLogger()})
		require.NoError(t, c.Load(context.Background()))

		assert.Equal(t, 3, c.Len())
		assert.Equal(t, []string{"Motivation", "Inspiration", "Resilience"}, c.Snapshot().Categories())
	})

	t.Run("keeps an empty persisted collection", func(t *testing.T) {
		store := mocks.NewMockQuoteStore(t)
		c := loadedCollection(t, store, domain.Collection{})

		assert.Equal(t, 0, c.Len())
		assert.NotNil(t, c.Snapshot())
	})

	t.Run("propagates store errors", func(t *testing.T) {
		store := mocks.NewMockQuoteStore(t)
		store.EXPECT().Load(mock.Anything).Return(nil, false, errors.New("disk error"))

		c := NewCollection(CollectionConfig{Store: store, Logger: discardLogger()})
		err := c.Load(context.Background())

		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk error")
	})
}

func TestCollection_Add(t *testing.T) {
	existing := domain.Collection{quote("1", "a", 1)}

	tests := []struct {
		name        string
		quote       domain.Quote
		saveErr     error
		expectSave  bool
		errCheck    func(error) bool
		expectedLen int
	}{
		{
			name:        "appends and persists",
			quote:       quote("2", "b", 2),
			expectSave:  true,
			expectedLen: 2,
		},
		{
			name:        "duplicate id",
			quote:       quote("1", "other", 2),
			errCheck:    domain.IsConflict,
			expectedLen: 1,
		},
		{
			name:        "invalid quote",
			quote:       domain.Quote{ID: "3", Category: "General"},
			errCheck:    domain.IsValidation,
			expectedLen: 1,
		},
		{
			name:        "persist failure keeps previous state",
			quote:       quote("2", "b", 2),
			saveErr:     errors.New("disk full"),
			expectSave:  true,
			errCheck:    func(err error) bool { return err != nil },
			expectedLen: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := mocks.NewMockQuoteStore(t)
			c := loadedCollection(t, store, existing)

			if tt.expectSave {
				store.EXPECT().Save(mock.Anything, mock.Anything).Return(tt.saveErr).Once()
			}

			err := c.Add(context.Background(), tt.quote)

			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err))
			} else {
				require.NoError(t, err)
			}

			assert.Equal(t, tt.expectedLen, c.Len())
		})
	}
}

func TestCollection_BulkImport(t *testing.T) {
	store := mocks.NewMockQuoteStore(t)
	c := loadedCollection(t, store, domain.Collection{quote("1", "a", 1)})

	var saved domain.Collection

	store.EXPECT().Save(mock.Anything, mock.Anything).
		Run(func(_ context.Context, quotes domain.Collection) { saved = quotes }).
		Return(nil).Once()

	result, err := c.BulkImport(context.Background(), []domain.Quote{
		quote("2", "b", 1),
		quote("1", "clash with existing", 1),
		{ID: "3", Category: "General"},
		quote("4", "d", 1),
		quote("4", "clash within batch", 1),
	})

	require.NoError(t, err)
	assert.Equal(t, 2, result.Accepted)
	assert.Equal(t, 3, result.Rejected)
	assert.Len(t, result.Errors, 3)
	assert.Equal(t, []string{"1", "2", "4"}, saved.IDs())
	assert.Equal(t, []string{"1", "2", "4"}, c.Snapshot().IDs())
}

func TestCollection_BulkImport_NothingAcceptedSkipsSave(t *testing.T) {
	store := mocks.NewMockQuoteStore(t)
	c := loadedCollection(t, store, domain.Collection{quote("1", "a", 1)})

	result, err := c.BulkImport(context.Background(), []domain.Quote{quote("1", "dup", 1)})

	require.NoError(t, err)
	assert.Equal(t, 0, result.Accepted)
	assert.Equal(t, 1, result.Rejected)
}

func TestCollection_ReplaceAll(t *testing.T) {
	t.Run("swaps the collection", func(t *testing.T) {
		store := mocks.NewMockQuoteStore(t)
		c := loadedCollection(t, store, domain.Collection{quote("1", "a", 1)})

		next := domain.Collection{quote("2", "b", 2), quote("3", "c", 3)}
		store.EXPECT().Save(mock.Anything, next).Return(nil).Once()

		require.NoError(t, c.ReplaceAll(context.Background(), next))
		assert.Equal(t, next, c.Snapshot())
	})

	t.Run("rejects duplicate ids without persisting", func(t *testing.T) {
		store := mocks.NewMockQuoteStore(t)
		c := loadedCollection(t, store, domain.Collection{quote("1", "a", 1)})

		err := c.ReplaceAll(context.Background(), domain.Collection{quote("2", "b", 2), quote("2", "c", 3)})

		require.Error(t, err)
		assert.True(t, domain.IsConflict(err))
		assert.Equal(t, []string{"1"}, c.Snapshot().IDs())
	})

	t.Run("rejects invalid quotes", func(t *testing.T) {
		store := mocks.NewMockQuoteStore(t)
		c := loadedCollection(t, store, domain.Collection{})

		err := c.ReplaceAll(context.Background(), domain.Collection{{ID: "x"}})

		assert.True(t, domain.IsValidation(err))
	})
}

func TestCollection_SnapshotIsIsolated(t *testing.T) {
	store := mocks.NewMockQuoteStore(t)
	c := loadedCollection(t, store, domain.Collection{quote("1", "a", 1)})

	snap := c.Snapshot()
	snap[0].Text = "changed"

	assert.Equal(t, "a", c.Snapshot()[0].Text)
}
