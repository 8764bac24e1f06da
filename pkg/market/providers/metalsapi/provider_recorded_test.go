package metalsapi

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

// Replays a real /latest call for gold and silver. Skipped unless the
// cassette exists or RECORD_CASSETTES=1 (recording needs METALS_API_KEY).
func TestFetchBatch_Recorded(t *testing.T) {
	name := filepath.Join("testdata", "cassettes", "metals_latest")
	if _, err := os.Stat(name + ".yaml"); os.IsNotExist(err) {
		if os.Getenv("RECORD_CASSETTES") != "1" {
			t.Skipf("cassette missing; set RECORD_CASSETTES=1 to record: %s", name)
		}
		require.NoError(t, os.MkdirAll(filepath.Dir(name), 0o755))
	}

	r, err := recorder.New(name)
	require.NoError(t, err)
	defer func() { _ = r.Stop() }()
	r.AddFilter(func(i *cassette.Interaction) error {
		if u, err := url.Parse(i.Request.URL); err == nil {
			q := u.Query()
			q.Del("access_key")
			u.RawQuery = q.Encode()
			i.Request.URL = u.String()
		}
		return nil
	})
	r.SetMatcher(func(req *http.Request, i cassette.Request) bool {
		u, err := url.Parse(i.URL)
		return err == nil && req.Method == i.Method && req.URL.Path == u.Path
	})

	p := NewProvider(WithAPIKey(os.Getenv("METALS_API_KEY")), WithHTTPClient(&http.Client{Transport: r}))
	got, err := p.FetchBatch(context.Background(), []string{"GOLD", "SILVER"})
	require.NoError(t, err)
	require.Contains(t, got, "GOLD")
	require.Contains(t, got, "SILVER")
	assert.True(t, got["GOLD"].Price.GreaterThan(got["SILVER"].Price))
}
