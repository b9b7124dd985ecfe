// Package fetcher reads tabular input files and retrieves remote inputs
// (http, https and ftp URLs) into local files.
package fetcher

import (
	"context"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Fetcher downloads a remote resource.
type Fetcher interface {
	// Download fetches the URL and returns the response body.
	Download(ctx context.Context, url string) (io.ReadCloser, error)

	// DownloadToFile fetches the URL and writes it to the given path. Returns bytes written.
	DownloadToFile(ctx context.Context, url string, path string) (int64, error)
}

// IsRemote reports whether ref is a URL this package can download.
func IsRemote(ref string) bool {
	switch scheme(ref) {
	case "http", "https", "ftp":
		return true
	}
	return false
}

// LocalName returns the file name a remote ref is saved under. It keeps the
// URL's base name so extension-based format detection still works.
func LocalName(ref string) string {
	u, err := url.Parse(ref)
	if err != nil {
		return "download"
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" {
		return "download"
	}
	return base
}

func scheme(ref string) string {
	i := strings.Index(ref, "://")
	if i <= 0 {
		return ""
	}
	return strings.ToLower(ref[:i])
}

// Remote dispatches downloads by URL scheme.
type Remote struct {
	HTTP Fetcher
	FTP  Fetcher
}

// NewRemote returns a Remote with default HTTP and FTP fetchers.
func NewRemote(timeout time.Duration) *Remote {
	return &Remote{
		HTTP: NewHTTPFetcher(HTTPOptions{Timeout: timeout}),
		FTP:  NewFTPFetcher(FTPOptions{Timeout: timeout}),
	}
}

// Localize returns a local path for ref. Local paths are returned unchanged;
// URLs are downloaded into dir first.
func (r *Remote) Localize(ctx context.Context, ref, dir string) (string, error) {
	if !IsRemote(ref) {
		return ref, nil
	}

	f := r.HTTP
	if scheme(ref) == "ftp" {
		f = r.FTP
	}
	if f == nil {
		return "", eris.Errorf("fetcher: no fetcher for %s", ref)
	}

	sub, err := os.MkdirTemp(dir, "fetch-*")
	if err != nil {
		return "", eris.Wrap(err, "fetcher: create download dir")
	}
	dest := filepath.Join(sub, LocalName(ref))

	n, err := f.DownloadToFile(ctx, ref, dest)
	if err != nil {
		return "", eris.Wrapf(err, "fetcher: download %s", ref)
	}

	zap.L().Info("downloaded remote input",
		zap.String("url", ref),
		zap.String("path", dest),
		zap.Int64("bytes", n),
	)
	return dest, nil
}
