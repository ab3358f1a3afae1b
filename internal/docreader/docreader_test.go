package docreader_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jarvis-brain/core/internal/docreader"
)

const samplePage = `<!DOCTYPE html>
<html><head><title>World Capitals</title></head>
<body>
<article>
<h1>World Capitals</h1>
<p>Paris is the capital of France. It sits on the Seine river and has been
the country's capital since the twelfth century, serving as a center of
culture, politics, and commerce for most of that time.</p>
</article>
</body></html>`

func TestFetchDoc_ExtractsTitleAndExcerpt(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(samplePage))
	}))
	defer server.Close()

	r := &docreader.Reader{Timeout: 5 * time.Second}
	summary, err := r.FetchDoc(context.Background(), server.URL)

	require.NoError(t, err)
	assert.Equal(t, "World Capitals", summary.Title)
	assert.Contains(t, summary.Excerpt, "Paris")
}

func TestFetchDoc_UnreachableURLFails(t *testing.T) {
	r := docreader.New()
	_, err := r.FetchDoc(context.Background(), "http://127.0.0.1:1/does-not-exist")
	assert.Error(t, err)
}
