package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// freeze pins the package clock and id generator for the duration of a test.
func freeze(t *testing.T, at time.Time, id string) {
	t.Helper()

	prevClock, prevID := clock, idSource
	clock = func() time.Time { return at }
	idSource = func() string { return id }

	t.Cleanup(func() {
		clock, idSource = prevClock, prevID
	})
}

func TestNewQuote(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	freeze(t, at, "fixed")

	tests := []struct {
		name        string
		text        string
		category    string
		expected    Quote
		expectedErr string
	}{
		{
			name:     "trims input",
			text:     "  Keep going.  ",
			category: " Motivation ",
			expected: Quote{ID: "q_fixed", Text: "Keep going.", Category: "Motivation", LastModified: at.UnixMilli()},
		},
		{
			name:        "blank text",
			text:        "   ",
			category:    "Motivation",
			expectedErr: "text",
		},
		{
			name:        "blank category",
			text:        "Keep going.",
			category:    "",
			expectedErr: "category",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewQuote(tt.text, tt.category)

			if tt.expectedErr != "" {
				require.Error(t, err)
				assert.True(t, IsValidation(err))

				var validation *ValidationError
				require.ErrorAs(t, err, &validation)
				assert.Equal(t, tt.expectedErr, validation.Field)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromRemote(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	freeze(t, at, "fixed")

	tests := []struct {
		name      string
		raw       RawQuote
		expected  Quote
		expectErr bool
	}{
		{
			name:     "namespaces id and defaults category and timestamp",
			raw:      RawQuote{ID: "7", Text: "sunt aut facere"},
			expected: Quote{ID: "server_7", Text: "sunt aut facere", Category: UncategorizedCategory, LastModified: at.UnixMilli()},
		},
		{
			name:     "keeps provided category and timestamp",
			raw:      RawQuote{ID: "8", Text: "qui est esse", Category: "Server", LastModified: 42},
			expected: Quote{ID: "server_8", Text: "qui est esse", Category: "Server", LastModified: 42},
		},
		{
			name:      "missing id",
			raw:       RawQuote{Text: "orphan"},
			expectErr: true,
		},
		{
			name:      "blank text",
			raw:       RawQuote{ID: "9", Text: " "},
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromRemote(tt.raw)

			if tt.expectErr {
				require.Error(t, err)
				assert.True(t, IsValidation(err))

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestFromImport(t *testing.T) {
	at := time.UnixMilli(1_700_000_000_000)
	freeze(t, at, "fixed")

	t.Run("keeps id and timestamp", func(t *testing.T) {
		got, err := FromImport(RawQuote{ID: "q_1", Text: "x", Category: "Life", LastModified: 5})

		require.NoError(t, err)
		assert.Equal(t, Quote{ID: "q_1", Text: "x", Category: "Life", LastModified: 5}, got)
	})

	t.Run("generates id when missing", func(t *testing.T) {
		got, err := FromImport(RawQuote{Text: "x"})

		require.NoError(t, err)
		assert.Equal(t, "q_imp_fixed", got.ID)
		assert.Equal(t, UncategorizedCategory, got.Category)
		assert.Equal(t, at.UnixMilli(), got.LastModified)
	})

	t.Run("rejects blank text", func(t *testing.T) {
		_, err := FromImport(RawQuote{ID: "q_1"})

		require.Error(t, err)
		assert.True(t, IsValidation(err))
	})
}

func TestQuote_Validate(t *testing.T) {
	valid := Quote{ID: "q_1", Text: "x", Category: "y"}
	require.NoError(t, valid.Validate())

	noID := valid
	noID.ID = ""
	assert.True(t, IsValidation(noID.Validate()))
}

func TestIDSource_DefaultIsUnique(t *testing.T) {
	a, err := NewQuote("a", "b")
	require.NoError(t, err)

	b, err := NewQuote("a", "b")
	require.NoError(t, err)

	assert.NotEqual(t, a.ID, b.ID)
	assert.Contains(t, a.ID, "q_")
}
