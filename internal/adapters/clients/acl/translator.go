package acl

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jsamuelsen/quotesync/internal/domain"
)

// RemoteCategory is given to remote records that carry no category of their own.
const RemoteCategory = "Server"

// postID accepts both numeric and string identifiers.
type postID string

func (id *postID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	if bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}

	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}

		*id = postID(s)

		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("post id: %w", err)
	}

	*id = postID(n.String())

	return nil
}

// post is the remote DTO. Category and LastModified are only present on
// remotes that understand quotes natively.
type post struct {
	ID           postID `json:"id"`
	Title        string `json:"title"`
	Body         string `json:"body"`
	Category     string `json:"category,omitempty"`
	LastModified int64  `json:"lastModified,omitempty"`
}

// newPost is the submission payload.
type newPost struct {
	Title  string `json:"title"`
	Body   string `json:"body"`
	UserID int    `json:"userId"`
}

// toRaw picks the quote text from the title, falling back to the body.
func (p post) toRaw() domain.RawQuote {
	text := strings.TrimSpace(p.Title)
	if text == "" {
		text = strings.TrimSpace(p.Body)
	}

	category := strings.TrimSpace(p.Category)
	if category == "" {
		category = RemoteCategory
	}

	return domain.RawQuote{
		ID:           string(p.ID),
		Text:         text,
		Category:     category,
		LastModified: p.LastModified,
	}
}

func fromQuote(q domain.Quote) newPost {
	return newPost{Title: q.Text, Body: q.Text, UserID: 1}
}

// decodeJSON reads a JSON document of type T from body.
func decodeJSON[T any](body io.Reader) (T, error) {
	var out T

	if err := json.NewDecoder(body).Decode(&out); err != nil {
		return out, fmt.Errorf("decoding response: %w", err)
	}

	return out, nil
}

// translateAll converts items, handing every rejected item to drop instead of
// failing the batch.
func translateAll[E any](items []E, translate func(E) (domain.Quote, error), drop func(int, error)) domain.Collection {
	out := make(domain.Collection, 0, len(items))

	for i, item := range items {
		q, err := translate(item)
		if err != nil {
			if drop != nil {
				drop(i, err)
			}

			continue
		}

		out = append(out, q)
	}

	return out
}
