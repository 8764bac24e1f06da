package polygon

import (
	"context"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"testing"

	"github.com/dnaeon/go-vcr/cassette"
	"github.com/dnaeon/go-vcr/recorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Replays a real previous-session aggregate for SPY. Skipped unless the
// cassette exists or RECORD_CASSETTES=1 (recording needs POLYGON_API_KEY).
func TestFetch_Recorded(t *testing.T) {
	name := filepath.Join("testdata", "cassettes", "polygon_prev_spy")
	if _, err := os.Stat(name + ".yaml"); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s", name)
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
	}

	r, err := recorder.New(name)
	require.NoError(t, err)
	defer func() { _ = r.Stop() }()
	// apiKey travels in the query string; keep it out of the cassette and
	// match on path only.
	r.AddFilter(func(i *cassette.Interaction) error {
		if u, err := url.Parse(i.Request.URL); err == nil {
			q := u.Query()
			q.Del("apiKey")
			u.RawQuery = q.Encode()
			i.Request.URL = u.String()
		}
		return nil
	})
	r.SetMatcher(func(req *http.Request, i cassette.Request) bool {
		u, err := url.Parse(i.URL)
		return err == nil && req.Method == i.Method && req.URL.Path == u.Path
	})

	p := NewProvider(WithAPIKey(os.Getenv("POLYGON_API_KEY")), WithHTTPClient(&http.Client{Transport: r}))
	frag, err := p.Fetch(context.Background(), "SPY")
	require.NoError(t, err)
	assert.Equal(t, "SPY", frag.Ticker)
	assert.True(t, frag.Price.IsPositive())
	assert.True(t, frag.PreviousClose.Valid)
}
