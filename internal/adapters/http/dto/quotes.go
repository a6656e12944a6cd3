package dto

import "github.com/jsamuelsen/quotesync/internal/domain"

// QuoteResponse is a quote on the wire.
type QuoteResponse struct {
	ID           string `json:"id"`
	Text         string `json:"text"`
	Category     string `json:"category"`
	LastModified int64  `json:"lastModified"`
}

// NewQuoteResponse converts a domain quote.
func NewQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse(q)
}

// NewQuoteResponses converts a collection.
func NewQuoteResponses(qs domain.Collection) []QuoteResponse {
	out := make([]QuoteResponse, len(qs))
	for i, q := range qs {
		out[i] = NewQuoteResponse(q)
	}

	return out
}

// CreateQuoteRequest is the body of POST /quotes.
type CreateQuoteRequest struct {
	Text     string `json:"text"     validate:"required,notblank,max=1000"`
	Category string `json:"category" validate:"required,notblank,max=100"`
}

// ListQuotesRequest is the query of GET /quotes.
type ListQuotesRequest struct {
	PaginationRequest

	Category string `form:"category" validate:"max=100"`
}

// RandomQuoteRequest is the query of GET /quotes/random.
type RandomQuoteRequest struct {
	Category string `form:"category" validate:"max=100"`
}

// ImportResponse summarizes POST /quotes/import.
type ImportResponse struct {
	Accepted int      `json:"accepted"`
	Rejected int      `json:"rejected"`
	Errors   []string `json:"errors,omitempty"`
}

// NewImportResponse reports counts and up to maxReported error messages.
func NewImportResponse(accepted, rejected int, errs []error, maxReported int) ImportResponse {
	resp := ImportResponse{Accepted: accepted, Rejected: rejected}

	for i, err := range errs {
		if i == maxReported {
			break
		}

		resp.Errors = append(resp.Errors, err.Error())
	}

	return resp
}

// CategoriesResponse is the body of GET /categories.
type CategoriesResponse struct {
	Categories []string `json:"categories"`
}
