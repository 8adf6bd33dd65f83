package platform

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/resilience/circuitbreaker"
	"release-radar/pkg/config"
)

// SpotifyConfig contains configuration for the Spotify Web API client.
type SpotifyConfig struct {
	// ClientID and ClientSecret authenticate the client-credentials flow.
	ClientID     string
	ClientSecret string

	// BaseURL is the Web API root, overridable for tests.
	BaseURL string

	// TokenURL is the OAuth token endpoint, overridable for tests.
	TokenURL string

	// Timeout is the HTTP request timeout.
	Timeout time.Duration
}

// LoadSpotifyConfigFromEnv reads Spotify client configuration from environment
// variables.
//
// Environment variables:
//   - SPOTIFY_CLIENT_ID: application client ID
//   - SPOTIFY_CLIENT_SECRET: application client secret
//   - SPOTIFY_API_URL: Web API root override (default: https://api.spotify.com/v1)
//   - SPOTIFY_TOKEN_URL: token endpoint override (default: https://accounts.spotify.com/api/token)
func LoadSpotifyConfigFromEnv() SpotifyConfig {
	return SpotifyConfig{
		ClientID:     config.GetEnvString("SPOTIFY_CLIENT_ID", ""),
		ClientSecret: config.GetEnvString("SPOTIFY_CLIENT_SECRET", ""),
		BaseURL:      config.GetEnvString("SPOTIFY_API_URL", "https://api.spotify.com/v1"),
		TokenURL:     config.GetEnvString("SPOTIFY_TOKEN_URL", "https://accounts.spotify.com/api/token"),
		Timeout:      config.GetEnvDuration("SPOTIFY_TIMEOUT", 10*time.Second),
	}
}

// SpotifyFetcher fetches album and single releases from the Spotify Web API
// using the client-credentials flow. Spotify exposes no repost, like, or
// user-playlist feed for an artist, so only KindRelease is supported.
type SpotifyFetcher struct {
	config     SpotifyConfig
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// NewSpotifyFetcher creates a Spotify fetcher. The access token is acquired
// lazily on the first call and refreshed before expiry.
func NewSpotifyFetcher(cfg SpotifyConfig) *SpotifyFetcher {
	return &SpotifyFetcher{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    circuitbreaker.New(circuitbreaker.SpotifyAPIConfig()),
	}
}

func (f *SpotifyFetcher) Platform() entity.Platform { return entity.PlatformSpotify }

type spotifyImage struct {
	URL string `json:"url"`
}

type spotifyArtistRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type spotifyAlbum struct {
	ID           string             `json:"id"`
	Name         string             `json:"name"`
	ReleaseDate  string             `json:"release_date"`
	TotalTracks  int                `json:"total_tracks"`
	Images       []spotifyImage     `json:"images"`
	Artists      []spotifyArtistRef `json:"artists"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

type spotifyAlbumPage struct {
	Items []spotifyAlbum `json:"items"`
}

type spotifyArtist struct {
	ID     string         `json:"id"`
	Name   string         `json:"name"`
	Genres []string       `json:"genres"`
	Images []spotifyImage `json:"images"`
	ExternalURLs struct {
		Spotify string `json:"spotify"`
	} `json:"external_urls"`
}

func (f *SpotifyFetcher) Fetch(ctx context.Context, artist *entity.TrackedArtist, kind entity.ContentKind) ([]entity.ContentItem, error) {
	if kind != entity.KindRelease {
		return nil, ErrUnsupportedKind
	}
	start := time.Now()
	items, err := f.fetchReleases(ctx, artist)
	observeFetch(entity.PlatformSpotify, kind, start, len(items), err)
	return items, err
}

func (f *SpotifyFetcher) fetchReleases(ctx context.Context, artist *entity.TrackedArtist) ([]entity.ContentItem, error) {
	var page spotifyAlbumPage
	endpoint := fmt.Sprintf("%s/artists/%s/albums?include_groups=album,single&limit=1",
		f.config.BaseURL, url.PathEscape(artist.ArtistID))
	if err := f.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	if len(page.Items) == 0 {
		return nil, nil
	}
	item := albumToItem(&page.Items[0])
	return []entity.ContentItem{item}, nil
}

func (f *SpotifyFetcher) ResolveArtist(ctx context.Context, externalID string) (*ArtistInfo, error) {
	id := spotifyArtistID(externalID)
	var artist spotifyArtist
	endpoint := fmt.Sprintf("%s/artists/%s", f.config.BaseURL, url.PathEscape(id))
	if err := f.get(ctx, endpoint, &artist); err != nil {
		return nil, err
	}
	artistURL := artist.ExternalURLs.Spotify
	if artistURL == "" {
		artistURL = "https://open.spotify.com/artist/" + artist.ID
	}
	return &ArtistInfo{
		ID:     artist.ID,
		Name:   artist.Name,
		URL:    artistURL,
		Genres: artist.Genres,
	}, nil
}

// spotifyArtistID extracts the bare artist ID from a raw ID, an
// open.spotify.com URL, or a spotify:artist: URI.
func spotifyArtistID(externalID string) string {
	if idx := strings.Index(externalID, "open.spotify.com/artist/"); idx >= 0 {
		id := externalID[idx+len("open.spotify.com/artist/"):]
		if q := strings.IndexByte(id, '?'); q >= 0 {
			id = id[:q]
		}
		return strings.TrimSuffix(id, "/")
	}
	if strings.HasPrefix(externalID, "spotify:artist:") {
		return strings.TrimPrefix(externalID, "spotify:artist:")
	}
	return externalID
}

// get runs one authenticated API call through the circuit breaker. A 401
// invalidates the cached token and retries once with a fresh one.
func (f *SpotifyFetcher) get(ctx context.Context, endpoint string, out any) error {
	_, err := f.breaker.Execute(func() (interface{}, error) {
		err := f.authorizedGet(ctx, endpoint, out)
		if KindOf(err) == ErrTransient && strings.Contains(err.Error(), "HTTP 401") {
			f.invalidateToken()
			err = f.authorizedGet(ctx, endpoint, out)
		}
		return nil, err
	})
	if err != nil {
		if KindOf(err) != "" {
			return err
		}
		return NewError(ErrTransient, entity.PlatformSpotify, err)
	}
	return nil
}

func (f *SpotifyFetcher) authorizedGet(ctx context.Context, endpoint string, out any) error {
	token, err := f.token(ctx)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return NewError(ErrTransient, entity.PlatformSpotify, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return doJSON(ctx, f.httpClient, entity.PlatformSpotify, req, out)
}

// token returns a valid access token, requesting a new one via the
// client-credentials flow when the cached token is missing or near expiry.
func (f *SpotifyFetcher) token(ctx context.Context) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.accessToken != "" && time.Now().Before(f.tokenExpiry.Add(-30*time.Second)) {
		return f.accessToken, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.config.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", NewError(ErrTransient, entity.PlatformSpotify, err)
	}
	basic := base64.StdEncoding.EncodeToString([]byte(f.config.ClientID + ":" + f.config.ClientSecret))
	req.Header.Set("Authorization", "Basic "+basic)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return "", NewError(ErrTransient, entity.PlatformSpotify, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode == http.StatusTooManyRequests {
		return "", NewError(ErrRateLimited, entity.PlatformSpotify, fmt.Errorf("token endpoint: HTTP 429"))
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", NewError(ErrTransient, entity.PlatformSpotify,
			fmt.Errorf("token endpoint: HTTP %d: %s", resp.StatusCode, string(body)))
	}

	var tokenResp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tokenResp); err != nil {
		return "", NewError(ErrTransient, entity.PlatformSpotify, fmt.Errorf("decode token response: %w", err))
	}
	if tokenResp.AccessToken == "" {
		return "", NewError(ErrTransient, entity.PlatformSpotify, fmt.Errorf("token endpoint returned empty token"))
	}

	f.accessToken = tokenResp.AccessToken
	f.tokenExpiry = time.Now().Add(time.Duration(tokenResp.ExpiresIn) * time.Second)
	return f.accessToken, nil
}

func (f *SpotifyFetcher) invalidateToken() {
	f.mu.Lock()
	f.accessToken = ""
	f.mu.Unlock()
}

func albumToItem(a *spotifyAlbum) entity.ContentItem {
	var artistName string
	features := make([]string, 0)
	for i, ref := range a.Artists {
		if i == 0 {
			artistName = ref.Name
			continue
		}
		features = append(features, ref.Name)
	}
	if len(features) == 0 {
		features = nil
	}

	albumURL := a.ExternalURLs.Spotify
	if albumURL == "" {
		albumURL = "https://open.spotify.com/album/" + a.ID
	}

	var cover string
	if len(a.Images) > 0 {
		cover = a.Images[0].URL
	}

	return entity.ContentItem{
		TrackID:    a.ID,
		Title:      a.Name,
		ArtistName: artistName,
		URL:        albumURL,
		Timestamp:  parseUpstreamTime(a.ReleaseDate),
		CoverURL:   cover,
		TrackCount: a.TotalTracks,
		Features:   features,
	}
}
