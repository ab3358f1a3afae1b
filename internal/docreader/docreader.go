// Package docreader fetches a web page and extracts its readable content,
// backing intentservice.DocReader for the doc_query intent. Grounded on
// app/services/doc_intelligence_service.py's URL-fetch-and-summarize flow,
// ported to Go's readability ecosystem library rather than the original's
// bespoke extraction.
package docreader

import (
	"context"
	"fmt"
	"time"

	readability "github.com/go-shiori/go-readability"

	"github.com/jarvis-brain/core/internal/intentservice"
)

const defaultTimeout = 10 * time.Second
const excerptLength = 500

// Reader implements intentservice.DocReader using go-readability's
// Mozilla-Readability-alike article extraction.
type Reader struct {
	Timeout time.Duration
}

// New builds a Reader with the default fetch timeout.
func New() *Reader {
	return &Reader{Timeout: defaultTimeout}
}

// FetchDoc downloads url and extracts its title and a plain-text excerpt.
func (r *Reader) FetchDoc(ctx context.Context, url string) (*intentservice.DocSummary, error) {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	article, err := readability.FromURL(url, timeout)
	if err != nil {
		return nil, fmt.Errorf("fetch doc %q: %w", url, err)
	}

	excerpt := article.Excerpt
	if excerpt == "" {
		excerpt = truncate(article.TextContent, excerptLength)
	}

	return &intentservice.DocSummary{
		Title:   article.Title,
		Excerpt: excerpt,
	}, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
