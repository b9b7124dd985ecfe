package choropleth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/choropleth-cli/internal/dataset"
	"github.com/sells-group/choropleth-cli/internal/fetcher"
	"github.com/sells-group/choropleth-cli/internal/geo"
)

func newInputServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/gdp.csv":
			_, _ = w.Write([]byte("iso_a3,value\nUSA,10\nFRA,20\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

func testRemote() *fetcher.Remote {
	return &fetcher.Remote{
		HTTP: fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
			Timeout:     5 * time.Second,
			MaxRetries:  1,
			BackoffBase: time.Millisecond,
		}),
	}
}

func TestRun_RemoteData(t *testing.T) {
	srv := newInputServer(t)

	opts := baseOptions(t, srv.URL+"/gdp.csv", &fakeSource{codes: []string{"USA", "FRA", "DEU"}})
	opts.Remote = testRemote()

	res, err := Run(context.Background(), opts)
	require.NoError(t, err)
	require.Len(t, res.Joined, 3)
	assert.True(t, res.Joined[0].Present)
	assert.True(t, res.Joined[1].Present)
	assert.False(t, res.Joined[2].Present)
	assert.Empty(t, res.Unmatched)
	assert.FileExists(t, opts.OutPath)
}

func TestRun_RemoteDataMissing(t *testing.T) {
	srv := newInputServer(t)

	opts := baseOptions(t, srv.URL+"/nope.csv", &fakeSource{codes: []string{"USA"}})
	opts.Remote = testRemote()

	_, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, eris.Is(err, dataset.ErrInputFile), "got %v", err)
	assert.NoFileExists(t, opts.OutPath)
}

func TestRun_RemoteWorldRejected(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	opts := baseOptions(t, srv.URL+"/gdp.csv", nil)
	opts.WorldPath = srv.URL + "/world.geojson"
	opts.Remote = testRemote()

	_, err := Run(context.Background(), opts)
	require.Error(t, err)
	assert.True(t, eris.Is(err, geo.ErrGeometrySource))
	assert.Zero(t, hits.Load())
}
