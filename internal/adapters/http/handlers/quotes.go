package handlers

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/quotesync/internal/adapters/http/dto"
	"github.com/jsamuelsen/quotesync/internal/app"
	"github.com/jsamuelsen/quotesync/internal/domain"
)

// maxReportedImportErrors caps the per-item errors echoed by an import.
const maxReportedImportErrors = 20

// QuoteService is the subset of app.QuoteService the handlers need.
type QuoteService interface {
	AddQuote(ctx context.Context, text, category string) (domain.Quote, error)
	ImportQuotes(ctx context.Context, r io.Reader) (app.ImportResult, error)
	ExportQuotes(ctx context.Context, w io.Writer) error
	RandomQuote(ctx context.Context, category string) (domain.Quote, error)
	Categories(ctx context.Context) []string
	ListQuotes(ctx context.Context, category, afterID string, limit int) (domain.Collection, bool, error)
}

// QuoteHandler serves the quote collection endpoints.
type QuoteHandler struct {
	service QuoteService
}

// NewQuoteHandler creates a quote handler.
func NewQuoteHandler(service QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// ListQuotes handles GET /api/v1/quotes.
//
// @Summary List quotes
// @Tags quotes
// @Produce json
// @Param category query string false "Category, or all"
// @Param cursor query string false "Cursor from a previous page"
// @Param limit query int false "Page size (1-100)"
// @Success 200 {object} dto.PaginatedResponse[dto.QuoteResponse]
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [get]
func (h *QuoteHandler) ListQuotes(c *gin.Context) {
	var req dto.ListQuotesRequest
	if err := dto.BindQuery(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	afterID, err := req.AfterID()
	if err != nil {
		dto.HandleErrorCode(c, dto.ErrorCodeBadRequest, err.Error())
		return
	}

	quotes, hasMore, err := h.service.ListQuotes(c.Request.Context(), req.Category, afterID, req.PageSize())
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewPage(dto.NewQuoteResponses(quotes), hasMore,
		func(q dto.QuoteResponse) string { return q.ID }))
}

// RandomQuote handles GET /api/v1/quotes/random.
//
// @Summary Pick a random quote
// @Tags quotes
// @Produce json
// @Param category query string false "Category, or all"
// @Success 200 {object} dto.QuoteResponse
// @Failure 404 {object} dto.ErrorResponse
// @Router /api/v1/quotes/random [get]
func (h *QuoteHandler) RandomQuote(c *gin.Context) {
	var req dto.RandomQuoteRequest
	if err := dto.BindQuery(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quote, err := h.service.RandomQuote(c.Request.Context(), req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewQuoteResponse(quote))
}

// CreateQuote handles POST /api/v1/quotes.
//
// @Summary Add a quote
// @Tags quotes
// @Accept json
// @Produce json
// @Param quote body dto.CreateQuoteRequest true "Quote"
// @Success 201 {object} dto.QuoteResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes [post]
func (h *QuoteHandler) CreateQuote(c *gin.Context) {
	var req dto.CreateQuoteRequest
	if err := dto.BindJSON(c, &req); err != nil {
		dto.HandleBindError(c, err)
		return
	}

	quote, err := h.service.AddQuote(c.Request.Context(), req.Text, req.Category)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.NewQuoteResponse(quote))
}

// ImportQuotes handles POST /api/v1/quotes/import. The body is a JSON array
// in the export format.
//
// @Summary Import quotes
// @Tags quotes
// @Accept json
// @Produce json
// @Success 200 {object} dto.ImportResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /api/v1/quotes/import [post]
func (h *QuoteHandler) ImportQuotes(c *gin.Context) {
	result, err := h.service.ImportQuotes(c.Request.Context(), c.Request.Body)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.NewImportResponse(result.Accepted, result.Rejected, result.Errors, maxReportedImportErrors))
}

// ExportQuotes handles GET /api/v1/quotes/export as a file download.
//
// @Summary Export quotes
// @Tags quotes
// @Produce json
// @Success 200 {array} dto.QuoteResponse
// @Router /api/v1/quotes/export [get]
func (h *QuoteHandler) ExportQuotes(c *gin.Context) {
	c.Header("Content-Disposition", `attachment; filename="quotes.json"`)
	c.Header("Content-Type", "application/json; charset=utf-8")
	c.Status(http.StatusOK)

	if err := h.service.ExportQuotes(c.Request.Context(), c.Writer); err != nil {
		_ = c.Error(err)
	}
}

// Categories handles GET /api/v1/categories.
//
// @Summary List categories
// @Tags quotes
// @Produce json
// @Success 200 {object} dto.CategoriesResponse
// @Router /api/v1/categories [get]
func (h *QuoteHandler) Categories(c *gin.Context) {
	categories := h.service.Categories(c.Request.Context())
	if categories == nil {
		categories = []string{}
	}

	c.JSON(http.StatusOK, dto.CategoriesResponse{Categories: categories})
}

// RegisterRoutes registers quote routes on rg.
func (h *QuoteHandler) RegisterRoutes(rg *gin.RouterGroup) {
	quotes := rg.Group("/quotes")
	quotes.GET("", h.ListQuotes)
	quotes.POST("", h.CreateQuote)
	quotes.GET("/random", h.RandomQuote)
	quotes.POST("/import", h.ImportQuotes)
	quotes.GET("/export", h.ExportQuotes)

	rg.GET("/categories", h.Categories)
}
