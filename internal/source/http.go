package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/andresuchdata/shipment-priority/internal/domain"
	"github.com/andresuchdata/shipment-priority/internal/drive"
)

const maxDownloadBytes = 64 << 20

// HTTPLoader downloads a table over HTTP(S).
type HTTPLoader struct {
	original string
	url      string
	client   *http.Client
}

// NewHTTPLoader rewrites Drive/Sheets share links into CSV export links.
func NewHTTPLoader(url string, client *http.Client) *HTTPLoader {
	return &HTTPLoader{original: url, url: drive.ToCSVURL(url), client: client}
}

func (l *HTTPLoader) Name() string { return l.original }

// URL is the address actually fetched.
func (l *HTTPLoader) URL() string { return l.url }

func (l *HTTPLoader) Load(ctx context.Context) (domain.RawTable, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.url, nil)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("build request: %w", err)
	}

	resp, err := l.client.Do(req)
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("fetch %s: %w", l.url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return domain.RawTable{}, fmt.Errorf("fetch %s: unexpected status %s", l.url, resp.Status)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDownloadBytes))
	if err != nil {
		return domain.RawTable{}, fmt.Errorf("read %s: %w", l.url, err)
	}
	return Decode(l.url, resp.Header.Get("Content-Type"), data)
}
