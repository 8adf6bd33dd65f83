// Package platform contains the music platform fetchers. Each fetcher turns
// an upstream API into validated entity.ContentItem records or a typed
// *platform.Error; nothing beyond this boundary touches the network or sees a
// raw upstream payload.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/observability/metrics"
	"release-radar/internal/resilience/retry"
)

// ArtistInfo is the resolved identity of an artist at tracking time.
type ArtistInfo struct {
	ID     string
	Name   string
	URL    string
	Genres []string
}

// Fetcher retrieves current platform state for one content kind of one
// tracked artist. Implementations must return typed *Error failures and
// validated items; they never panic and never throw rate limits as transport
// errors.
type Fetcher interface {
	// Platform identifies which platform this fetcher serves.
	Platform() entity.Platform

	// Fetch returns the current candidate items for the artist and kind:
	// the single latest item for release/playlist, the recent page for
	// repost/like. A kind the platform does not expose returns
	// ErrUnsupportedKind.
	Fetch(ctx context.Context, artist *entity.TrackedArtist, kind entity.ContentKind) ([]entity.ContentItem, error)

	// ResolveArtist resolves an external artist ID or permalink into the
	// identity stored at tracking time.
	ResolveArtist(ctx context.Context, externalID string) (*ArtistInfo, error)
}

// observeFetch records duration, item count, and classified errors for one
// completed fetch. Unsupported kinds never reach here.
func observeFetch(p entity.Platform, kind entity.ContentKind, start time.Time, count int, err error) {
	metrics.RecordPlatformFetch(string(p), string(kind), time.Since(start))
	if err != nil {
		if errKind := KindOf(err); errKind != "" {
			metrics.RecordPlatformFetchError(string(p), string(errKind))
		}
		return
	}
	metrics.RecordContentItemsFetched(string(p), string(kind), count)
}

// doJSON performs an HTTP GET through the retry policy and decodes the JSON
// body into out. Status codes are mapped to the typed error taxonomy; only
// transient failures are retried, rate limits surface immediately.
func doJSON(ctx context.Context, client *http.Client, p entity.Platform, req *http.Request, out any) error {
	fn := func() error {
		resp, err := client.Do(req)
		if err != nil {
			return NewError(ErrTransient, p, err)
		}
		defer func() { _ = resp.Body.Close() }()

		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			return NewError(ErrRateLimited, p, fmt.Errorf("HTTP 429"))
		case resp.StatusCode == http.StatusNotFound:
			return NewError(ErrNotFound, p, fmt.Errorf("HTTP 404"))
		case resp.StatusCode >= 500:
			return NewError(ErrTransient, p, &retry.HTTPError{
				StatusCode: resp.StatusCode,
				Message:    resp.Status,
			})
		case resp.StatusCode >= 400:
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
			return NewError(ErrTransient, p, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body)))
		}

		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return NewError(ErrTransient, p, fmt.Errorf("decode response: %w", err))
		}
		return nil
	}

	return retry.WithBackoff(ctx, retry.PlatformAPIConfig(), fn)
}

// parseUpstreamTime parses the timestamp formats the two platforms emit.
// A zero time (not an error) signals a malformed timestamp; the detector
// skips such items individually instead of failing the batch.
func parseUpstreamTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05Z",
		"2006/01/02 15:04:05 -0700",
		"2006-01-02",
		"2006-01",
		"2006",
	}
	for _, layout := range formats {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}
