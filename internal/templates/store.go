// Package templates fetches prompt template text from the external template
// store. Templates are opaque text to this service — wording lives in the
// store, not in code. The Store interface is injectable so tests substitute
// a fake without any network access.
package templates

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Store fetches one template body by id. Implementations must be safe for
// concurrent use.
type Store interface {
	Fetch(ctx context.Context, id string) (string, error)
}

// FetchError reports a failed template fetch with the upstream HTTP status
// (0 for transport-level failures).
type FetchError struct {
	ID     string
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("template fetch %q failed: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("template fetch %q failed with status %d", e.ID, e.Status)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ─── HTTP STORE ───────────────────────────────────────────────────────────────

// HTTPStore fetches templates over HTTP from
// {baseURL}/{source}/{version}/{id}. The body is returned verbatim.
type HTTPStore struct {
	baseURL string
	source  string
	version string
	client  *http.Client
}

// NewHTTPStore returns a Store backed by the template service.
func NewHTTPStore(baseURL, source, version string) *HTTPStore {
	return &HTTPStore{
		baseURL: strings.TrimRight(baseURL, "/"),
		source:  source,
		version: version,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// Fetch retrieves one template body. Any non-200 status or transport error
// surfaces as *FetchError.
func (s *HTTPStore) Fetch(ctx context.Context, id string) (string, error) {
	url := fmt.Sprintf("%s/%s/%s/%s", s.baseURL, s.source, s.version, id)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", &FetchError{ID: id, Err: err}
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", &FetchError{ID: id, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &FetchError{ID: id, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return "", &FetchError{ID: id, Status: resp.StatusCode}
	}

	return string(body), nil
}
