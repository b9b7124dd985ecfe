package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRemote(t *testing.T) {
	tests := map[string]bool{
		"https://example.com/world.geojson": true,
		"HTTP://example.com/gdp.csv":        true,
		"ftp://ftp.example.com/pub/a.zip":   true,
		"s3://bucket/key.csv":               false,
		"data/gdp.csv":                      false,
		"/abs/gdp.xlsx":                     false,
		`C:\data\gdp.csv`:                   false,
		"":                                  false,
	}
	for ref, want := range tests {
		assert.Equal(t, want, IsRemote(ref), ref)
	}
}

func TestLocalName(t *testing.T) {
	assert.Equal(t, "world.zip", LocalName("https://example.com/maps/world.zip?token=abc"))
	assert.Equal(t, "gdp.csv", LocalName("ftp://ftp.example.com/pub/gdp.csv"))
	assert.Equal(t, "download", LocalName("https://example.com/"))
	assert.Equal(t, "download", LocalName("https://example.com"))
}

func TestRemote_LocalizeLocalPath(t *testing.T) {
	r := &Remote{}
	got, err := r.Localize(context.Background(), "data/gdp.csv", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "data/gdp.csv", got)
}

func TestRemote_LocalizeHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("iso_a3,value\nUSA,1\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	r := NewRemote(5 * time.Second)

	got, err := r.Localize(context.Background(), srv.URL+"/exports/gdp.csv?v=2", dir)
	require.NoError(t, err)
	assert.Equal(t, "gdp.csv", filepath.Base(got))
	rel, err := filepath.Rel(dir, got)
	require.NoError(t, err)
	assert.NotContains(t, rel, "..")

	data, err := os.ReadFile(got)
	require.NoError(t, err)
	assert.Equal(t, "iso_a3,value\nUSA,1\n", string(data))
}

func TestRemote_LocalizeFTP(t *testing.T) {
	srv := newMiniFTPServer(t, map[string]string{"/pub/gdp.csv": "iso_a3,value\n"})
	defer srv.close()

	r := NewRemote(5 * time.Second)
	got, err := r.Localize(context.Background(), fmt.Sprintf("ftp://%s/pub/gdp.csv", srv.addr()), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, "gdp.csv", filepath.Base(got))
}

func TestRemote_LocalizeErrors(t *testing.T) {
	_, err := (&Remote{}).Localize(context.Background(), "https://example.com/a.csv", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no fetcher")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err = NewRemote(5*time.Second).Localize(context.Background(), srv.URL+"/a.csv", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetcher: download")
}
