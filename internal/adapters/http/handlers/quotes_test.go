package handlers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotesync/internal/adapters/memory"
	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/domain"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func fixtureQuotes() domain.Collection {
	return domain.Collection{
		{ID: "q_1", Text: "Simplicity is prerequisite for reliability.", Category: "Engineering", LastModified: 1},
		{ID: "q_2", Text: "Make it work, make it right, make it fast.", Category: "Engineering", LastModified: 2},
		{ID: "q_3", Text: "Well begun is half done.", Category: "Wisdom", LastModified: 3},
	}
}

func newCollection(t *testing.T, quotes domain.Collection) *app.Collection {
	t.Helper()

	collection := app.NewCollection(app.CollectionConfig{Store: memory.NewStoreWith(quotes), Logger: discard})
	require.NoError(t, collection.Load(context.Background()))

	return collection
}

func newQuoteEngine(t *testing.T, collection *app.Collection) *gin.Engine {
	t.Helper()

	engine := gin.New()
	NewQuoteHandler(app.NewQuoteService(app.QuoteServiceConfig{Collection: collection, Logger: discard})).
		RegisterRoutes(engine.Group("/api/v1"))

	return engine
}

func do(engine *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)

	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()

	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())

	return v
}

func TestQuoteHandler_ListPaginates(t *testing.T) {
	engine := newQuoteEngine(t, newCollection(t, fixtureQuotes()))

	w := do(engine, http.MethodGet, "/api/v1/quotes?limit=2", "")
	require.Equal(t, http.StatusOK, w.Code)

	first := decode[dto.PaginatedResponse[dto.QuoteResponse]](t, w)
	assert.Len(t, first.Items, 2)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextCursor)

	w = do(engine, http.MethodGet, "/api/v1/quotes?limit=2&cursor="+first.NextCursor, "")
	require.Equal(t, http.StatusOK, w.Code)

	second := decode[dto.PaginatedResponse[dto.QuoteResponse]](t, w)
	require.Len(t, second.Items, 1)
	assert.Equal(t, "q_3", second.Items[0].ID)
	assert.False(t, second.HasMore)
	assert.Empty(t, second.NextCursor)
}

func TestQuoteHandler_ListErrors(t *testing.T) {
	engine := newQuoteEngine(t, newCollection(t, fixtureQuotes()))

	tests := []struct {
		name       string
		query      string
		wantStatus int
		wantCode   string
	}{
		{"limit too large", "?limit=101", http.StatusBadRequest, dto.ErrorCodeValidation},
		{"garbled cursor", "?cursor=!!", http.StatusBadRequest, dto.ErrorCodeBadRequest},
		{"cursor for unknown id", "?cursor=" + dto.EncodeCursor(&dto.CursorData{ID: "q_gone"}), http.StatusNotFound, dto.ErrorCodeNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(engine, http.MethodGet, "/api/v1/quotes"+tt.query, "")

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, tt.wantCode, decode[dto.ErrorResponse](t, w).Error.Code)
		})
	}
}

func TestQuoteHandler_ListByCategory(t *testing.T) {
	engine := newQuoteEngine(t, newCollection(t, fixtureQuotes()))

	page := decode[dto.PaginatedResponse[dto.QuoteResponse]](t, do(engine, http.MethodGet, "/api/v1/quotes?category=Wisdom", ""))

	require.Len(t, page.Items, 1)
	assert.Equal(t, "q_3", page.Items[0].ID)
}

func TestQuoteHandler_Random(t *testing.T) {
	engine := newQuoteEngine(t, newCollection(t, fixtureQuotes()))

	w := do(engine, http.MethodGet, "/api/v1/quotes/random?category=Wisdom", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "q_3", decode[dto.QuoteResponse](t, w).ID)

	w = do(engine, http.MethodGet, "/api/v1/quotes/random?category=Poetry", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestQuoteHandler_Create(t *testing.T) {
	collection := newCollection(t, fixtureQuotes())
	engine := newQuoteEngine(t, collection)

	w := do(engine, http.MethodPost, "/api/v1/quotes", `{"text":" Stay curious. ","category":"Wisdom"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	created := decode[dto.QuoteResponse](t, w)
	assert.True(t, strings.HasPrefix(created.ID, "q_"))
	assert.Equal(t, "Stay curious.", created.Text)
	assert.Equal(t, 4, collection.Len())

	w = do(engine, http.MethodPost, "/api/v1/quotes", `{"text":"","category":"Wisdom"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, decode[dto.ErrorResponse](t, w).Error.Details, "text")
	assert.Equal(t, 4, collection.Len())
}

func TestQuoteHandler_Import(t *testing.T) {
	collection := newCollection(t, fixtureQuotes())
	engine := newQuoteEngine(t, collection)

	body := `[
		{"text":"Imported one","category":"Import"},
		{"id":"q_1","text":"Duplicate id","category":"Import"},
		{"text":"","category":"Import"}
	]`

	w := do(engine, http.MethodPost, "/api/v1/quotes/import", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	resp := decode[dto.ImportResponse](t, w)
	assert.Equal(t, 1, resp.Accepted)
	assert.Equal(t, 2, resp.Rejected)
	assert.Len(t, resp.Errors, 2)
	assert.Equal(t, 4, collection.Len())

	w = do(engine, http.MethodPost, "/api/v1/quotes/import", `{"not":"an array"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestQuoteHandler_Export(t *testing.T) {
	engine := newQuoteEngine(t, newCollection(t, fixtureQuotes()))

	w := do(engine, http.MethodGet, "/api/v1/quotes/export", "")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, `attachment; filename="quotes.json"`, w.Header().Get("Content-Disposition"))

	var exported domain.Collection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &exported))
	assert.Equal(t, fixtureQuotes(), exported)
}

func TestQuoteHandler_Categories(t *testing.T) {
	engine := newQuoteEngine(t, newCollection(t, fixtureQuotes()))

	resp := decode[dto.CategoriesResponse](t, do(engine, http.MethodGet, "/api/v1/categories", ""))

	assert.Equal(t, []string{"Engineering", "Wisdom"}, resp.Categories)
}
