package enricher

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/karliky/turrero-pipeline/internal/config"
	"github.com/karliky/turrero-pipeline/internal/store"
	"github.com/karliky/turrero-pipeline/internal/types"
)

// rewriteTransport sends every request to the test server while preserving
// the request's apparent URL, so domain classification still sees the real
// hostname.
type rewriteTransport struct {
	serverHost string
	requests   int64
}

func (t *rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	atomic.AddInt64(&t.requests, 1)

	clone := req.Clone(req.Context())
	clone.URL.Scheme = "http"
	clone.URL.Host = t.serverHost

	resp, err := http.DefaultTransport.RoundTrip(clone)
	if err != nil {
		return nil, err
	}
	resp.Request = req
	return resp, nil
}

func newTestEnricher(t *testing.T, handler http.Handler) (*Enricher, *rewriteTransport, string) {
	t.Helper()

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	u, err := url.Parse(server.URL)
	require.NoError(t, err)

	imageDir := filepath.Join(t.TempDir(), "metadata")
	e := New(config.EnrichConfig{Concurrency: 2, TimeoutSeconds: 5}, imageDir, nil, zap.NewNop())

	transport := &rewriteTransport{serverHost: u.Host}
	e.client.Transport = transport

	return e, transport, imageDir
}

func cardThread(postID, pageURL, imageURL string) types.Thread {
	meta := map[string]string{"url": pageURL}
	if imageURL != "" {
		meta["img"] = imageURL
	}
	raw, _ := json.Marshal(meta)
	return types.Thread{{ID: postID, Metadata: raw}}
}

func openStore(t *testing.T) *store.EnrichedStore {
	t.Helper()
	st, err := store.OpenEnriched(filepath.Join(t.TempDir(), "enriched.json"))
	require.NoError(t, err)
	return st
}

const bookPage = `<html><head>
<meta property="og:title" content="Sample Book (Goodreads)">
<meta name="description" content="A sample book description.">
</head><body><h1>Sample Book Title</h1></body></html>`

func TestEnrichThreads_GoodreadsCard(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/book/show/999", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(bookPage))
	})
	mux.HandleFunc("/cover.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "image/jpeg")
		w.Write([]byte("jpegbytes"))
	})

	e, _, imageDir := newTestEnricher(t, mux)
	st := openStore(t)

	threads := []types.Thread{cardThread("1001",
		"https://www.goodreads.com/book/show/999",
		"https://www.goodreads.com/cover.jpg")}

	report, err := e.EnrichThreads(context.Background(), threads, st)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Enriched)

	recs := st.Records()
	require.Len(t, recs, 1)
	rec := recs[0]

	assert.Equal(t, "1001", rec.ID)
	assert.Equal(t, types.TypeCard, rec.Type)
	assert.Equal(t, types.MediaGoodreads, rec.Media)
	// The catalog page's h1 overrides the og:title.
	assert.Equal(t, "Sample Book Title", rec.Title)
	assert.Equal(t, "A sample book description.", rec.Description)
	assert.Equal(t, "metadata/1001.jpg", rec.Image)

	_, err = os.Stat(filepath.Join(imageDir, "1001.jpg"))
	assert.NoError(t, err)
}

func TestEnrichThreads_ResolvesShortLinks(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/short", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/final-destination", http.StatusFound)
	})
	mux.HandleFunc("/final-destination", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	e, _, _ := newTestEnricher(t, mux)
	st := openStore(t)

	threads := []types.Thread{cardThread("1001", "https://t.example/short", "")}

	_, err := e.EnrichThreads(context.Background(), threads, st)
	require.NoError(t, err)

	recs := st.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "https://t.example/final-destination", recs[0].URL)
	// Unrecognized domain: no media classification, no page fetch.
	assert.Empty(t, recs[0].Media)
	assert.Empty(t, recs[0].Title)
}

func TestEnrichThreads_ResolutionFailureKeepsOriginalURL(t *testing.T) {
	e := New(config.EnrichConfig{Concurrency: 1, TimeoutSeconds: 1}, t.TempDir(), nil, zap.NewNop())
	st := openStore(t)

	// Nothing listens here; resolution fails and the original URL survives.
	threads := []types.Thread{cardThread("1001", "http://127.0.0.1:1/short", "")}

	_, err := e.EnrichThreads(context.Background(), threads, st)
	require.NoError(t, err)

	recs := st.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, "http://127.0.0.1:1/short", recs[0].URL)
}

func TestEnrichThreads_EmbedMakesNoNetworkCalls(t *testing.T) {
	e, transport, _ := newTestEnricher(t, http.NotFoundHandler())
	st := openStore(t)

	threads := []types.Thread{{{
		ID:       "1001",
		Metadata: json.RawMessage(`{"embed": {"id": "2002", "author": "X", "tweet": "hello"}}`),
	}}}

	report, err := e.EnrichThreads(context.Background(), threads, st)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Enriched)
	assert.Equal(t, int64(0), atomic.LoadInt64(&transport.requests))

	recs := st.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, types.TypeEmbeddedReference, recs[0].Type)
	assert.Equal(t, "2002", recs[0].EmbeddedTweetID)
	assert.Equal(t, "X", recs[0].Author)
	assert.Equal(t, "hello", recs[0].Text)
}

func TestEnrichThreads_SecondRunSkipsAndIsByteIdentical(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	e, transport, _ := newTestEnricher(t, mux)
	st := openStore(t)

	threads := []types.Thread{
		cardThread("1001", "https://example.com/a", ""),
		{{ID: "2001", Metadata: json.RawMessage(`{"embed": {"id": "3003"}}`)}},
	}

	first, err := e.EnrichThreads(context.Background(), threads, st)
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.Enriched)

	raw1, err := json.Marshal(st.Records())
	require.NoError(t, err)

	requestsAfterFirst := atomic.LoadInt64(&transport.requests)

	second, err := e.EnrichThreads(context.Background(), threads, st)
	require.NoError(t, err)
	assert.Equal(t, int64(2), second.Skipped)
	assert.Equal(t, int64(0), second.Enriched)
	assert.Equal(t, requestsAfterFirst, atomic.LoadInt64(&transport.requests),
		"second run must not touch the network")

	raw2, err := json.Marshal(st.Records())
	require.NoError(t, err)
	assert.Equal(t, raw1, raw2)
}

func TestEnrichThreads_TransientFailureLeavesRecordUnmarked(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/book/show/1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	e, _, _ := newTestEnricher(t, mux)
	st := openStore(t)

	threads := []types.Thread{cardThread("1001", "https://goodreads.com/book/show/1", "")}

	report, err := e.EnrichThreads(context.Background(), threads, st)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Failed)
	// No idempotence marker: the next run retries this post.
	assert.False(t, st.Has("1001"))
}

func TestEnrichThreads_PageFailureDegradesToEmptyMeta(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/book/show/1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodHead {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	})

	e, _, _ := newTestEnricher(t, mux)
	st := openStore(t)

	threads := []types.Thread{cardThread("1001", "https://goodreads.com/book/show/1", "")}

	report, err := e.EnrichThreads(context.Background(), threads, st)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Enriched)

	recs := st.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, types.MediaGoodreads, recs[0].Media)
	assert.Empty(t, recs[0].Title)
	assert.Empty(t, recs[0].Description)
}

func TestEnrichThreads_ImageFailureKeepsRecord(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/page", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/broken.jpg", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	e, _, _ := newTestEnricher(t, mux)
	st := openStore(t)

	threads := []types.Thread{cardThread("1001", "https://example.com/page", "https://example.com/broken.jpg")}

	report, err := e.EnrichThreads(context.Background(), threads, st)
	require.NoError(t, err)
	assert.Equal(t, int64(1), report.Enriched)

	recs := st.Records()
	require.Len(t, recs, 1)
	assert.Empty(t, recs[0].Image)
}

func TestEnrichThreads_ConcurrentDisjointSetsMerge(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	e, _, _ := newTestEnricher(t, mux)
	st := openStore(t)

	setA := []types.Thread{
		cardThread("1001", "https://example.com/a", ""),
		cardThread("1002", "https://example.com/b", ""),
	}
	setB := []types.Thread{
		cardThread("2001", "https://example.com/c", ""),
		cardThread("2002", "https://example.com/d", ""),
	}

	done := make(chan error, 2)
	go func() {
		_, err := e.EnrichThreads(context.Background(), setA, st)
		done <- err
	}()
	go func() {
		_, err := e.EnrichThreads(context.Background(), setB, st)
		done <- err
	}()
	require.NoError(t, <-done)
	require.NoError(t, <-done)

	assert.Equal(t, 4, st.Len())
	for _, id := range []string{"1001", "1002", "2001", "2002"} {
		assert.True(t, st.Has(id), "missing record %s", id)
	}
}
