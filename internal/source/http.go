package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/vk/shimloader/internal/ctxlog"
	"github.com/vk/shimloader/internal/moduleid"
)

// maxBodySize caps a single fetched script.
const maxBodySize = 8 << 20

// HTTPFetcher downloads module scripts. URLArgs is appended to every request
// as a query string.
type HTTPFetcher struct {
	Client  *http.Client
	URLArgs string
}

// NewHTTPFetcher returns a fetcher with its own pooled client. Per-module
// timeouts come from the request context, so the client sets none.
func NewHTTPFetcher(urlArgs string) *HTTPFetcher {
	client := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
	}
	return &HTTPFetcher{Client: client, URLArgs: urlArgs}
}

// Close releases idle connections.
func (f *HTTPFetcher) Close() error {
	f.Client.CloseIdleConnections()
	return nil
}

// Fetch implements Fetcher. A 404 moves on to the next candidate; any other
// non-2xx status is an error.
func (f *HTTPFetcher) Fetch(ctx context.Context, loc moduleid.Location, exts []string) (*Source, error) {
	var tried []string
	for _, c := range candidates(loc, exts) {
		url := f.withArgs(c.name)
		tried = append(tried, url)

		body, found, err := f.get(ctx, url)
		if err != nil {
			return nil, err
		}
		if !found {
			continue
		}
		ctxlog.FromContext(ctx).Debug("Fetched module source.", "origin", url, "bytes", len(body))
		return &Source{Origin: url, Ext: c.ext, Body: body}, nil
	}
	return nil, &NotFoundError{Location: loc.Path, Tried: tried}
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to create request for %s: %w", url, err)
	}
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, false, fmt.Errorf("request to %s failed: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, false, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, false, fmt.Errorf("unexpected status %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, false, fmt.Errorf("failed to read body of %s: %w", url, err)
	}
	if len(body) > maxBodySize {
		return nil, false, fmt.Errorf("%s exceeds %d bytes", url, maxBodySize)
	}
	return body, true, nil
}

func (f *HTTPFetcher) withArgs(url string) string {
	if f.URLArgs == "" {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + f.URLArgs
}
