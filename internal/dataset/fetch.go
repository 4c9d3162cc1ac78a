// Package dataset moves the country reference data in and out of the
// process: it fetches the raw world-plugs CSV and reads and writes the
// canonical JSON artifact consumed at presentation time.
package dataset

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/krazybird78/travel-plug-checker/internal/core"
)

// DefaultSourceURL is the upstream world-plugs dataset.
const DefaultSourceURL = "https://raw.githubusercontent.com/benjiao/world-plugs/master/world-plugs.csv"

// MaxSourceSize is the largest raw dataset accepted (8MB). Larger sources
// are rejected rather than truncated.
const MaxSourceSize = 8 << 20

// Fetch loads profiles from source. http and https URLs are downloaded with
// client; file:// URLs and plain paths are read from disk. Any transport
// failure is returned as an error wrapped with "fetch dataset".
func Fetch(ctx context.Context, client *http.Client, source string) ([]core.Profile, error) {
	return fetch(ctx, client, source, MaxSourceSize)
}

func fetch(ctx context.Context, client *http.Client, source string, limit int64) ([]core.Profile, error) {
	rc, err := open(ctx, client, source)
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	defer rc.Close()

	raw, err := io.ReadAll(io.LimitReader(rc, limit+1))
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}
	if int64(len(raw)) > limit {
		return nil, fmt.Errorf("fetch dataset: source exceeds %d bytes", limit)
	}

	profiles, err := core.LoadReader(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("fetch dataset: %w", err)
	}

	return profiles, nil
}

func open(ctx context.Context, client *http.Client, source string) (io.ReadCloser, error) {
	if source == "" {
		return nil, fmt.Errorf("empty source")
	}

	lower := strings.ToLower(source)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		return openHTTP(ctx, client, source)
	case strings.HasPrefix(lower, "file://"):
		u, err := url.Parse(source)
		if err != nil {
			return nil, fmt.Errorf("parse source %q: %w", source, err)
		}
		return os.Open(u.Path)
	default:
		return os.Open(source)
	}
}

func openHTTP(ctx context.Context, client *http.Client, source string) (io.ReadCloser, error) {
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "text/csv, text/plain;q=0.9, */*;q=0.1")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, source)
	}

	return resp.Body, nil
}
