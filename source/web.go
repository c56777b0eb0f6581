package source

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"

	"github.com/sirupsen/logrus"
)

// WebSource fetches the role document from a remote HTTP endpoint.
type WebSource struct {
	url *url.URL

	// APIKey, if set, is sent as an X-API-Key header on every fetch.
	APIKey string
}

// NewWebSource creates a WebSource for the given URL.
func NewWebSource(rawURL string) (*WebSource, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse url %q: %w", rawURL, err)
	}
	return &WebSource{url: u}, nil
}

// Fetch performs a GET against the endpoint. A 404 is reported as
// fs.ErrNotExist; any other non-200 status is an error.
func (w *WebSource) Fetch(ctx context.Context) ([]byte, error) {
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, w.url.String(), nil)
	if err != nil {
		logrus.Debug("error creating request")
		return nil, err
	}
	if w.APIKey != "" {
		request.Header.Set("X-API-Key", w.APIKey)
	}

	resp, err := http.DefaultClient.Do(request)
	if err != nil {
		logrus.Debug("error doing request")
		return nil, err
	}
	defer func(body io.ReadCloser) {
		if err := body.Close(); err != nil {
			logrus.WithError(err).Debug("error closing response body")
		}
	}(resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%s: %w", w.url, fs.ErrNotExist)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", w.url, resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func (w *WebSource) Path() string {
	return w.url.Path
}

func (w *WebSource) Name() string {
	return "http"
}
