package platform

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/resilience/circuitbreaker"
	"release-radar/pkg/config"
)

// SoundCloudConfig contains configuration for the SoundCloud api-v2 client.
type SoundCloudConfig struct {
	// ClientID is the api-v2 client ID appended to every request.
	ClientID string

	// BaseURL is the API root, overridable for tests.
	BaseURL string

	// PageLimit is how many reposts/likes one fetch requests.
	PageLimit int

	// Timeout is the HTTP request timeout.
	Timeout time.Duration
}

// LoadSoundCloudConfigFromEnv reads SoundCloud client configuration from
// environment variables.
//
// Environment variables:
//   - SOUNDCLOUD_CLIENT_ID: api-v2 client ID (required for the fetcher to work)
//   - SOUNDCLOUD_API_URL: API root override (default: https://api-v2.soundcloud.com)
func LoadSoundCloudConfigFromEnv() SoundCloudConfig {
	return SoundCloudConfig{
		ClientID:  config.GetEnvString("SOUNDCLOUD_CLIENT_ID", ""),
		BaseURL:   config.GetEnvString("SOUNDCLOUD_API_URL", "https://api-v2.soundcloud.com"),
		PageLimit: config.GetEnvInt("SOUNDCLOUD_PAGE_LIMIT", 20),
		Timeout:   config.GetEnvDuration("SOUNDCLOUD_TIMEOUT", 10*time.Second),
	}
}

// SoundCloudFetcher fetches releases, playlists, reposts, and likes from the
// SoundCloud api-v2 endpoints.
type SoundCloudFetcher struct {
	config     SoundCloudConfig
	httpClient *http.Client
	breaker    *circuitbreaker.CircuitBreaker
}

// NewSoundCloudFetcher creates a SoundCloud fetcher with its own circuit
// breaker so a broken client ID cannot stall the whole poll cycle.
func NewSoundCloudFetcher(cfg SoundCloudConfig) *SoundCloudFetcher {
	return &SoundCloudFetcher{
		config:     cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		breaker:    circuitbreaker.New(circuitbreaker.SoundCloudAPIConfig()),
	}
}

func (f *SoundCloudFetcher) Platform() entity.Platform { return entity.PlatformSoundCloud }

// scUser is the api-v2 user shape (fields we read).
type scUser struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Permalink string `json:"permalink_url"`
	AvatarURL string `json:"avatar_url"`
	Genre     string `json:"genre"`
}

// scTrack is the api-v2 track shape (fields we read).
type scTrack struct {
	ID         int64  `json:"id"`
	Title      string `json:"title"`
	Permalink  string `json:"permalink_url"`
	CreatedAt  string `json:"created_at"`
	ArtworkURL string `json:"artwork_url"`
	DurationMS int64  `json:"duration"`
	Genre      string `json:"genre"`
	User       scUser `json:"user"`
}

// scPlaylist is the api-v2 playlist shape (fields we read).
type scPlaylist struct {
	ID         int64     `json:"id"`
	Title      string    `json:"title"`
	Permalink  string    `json:"permalink_url"`
	CreatedAt  string    `json:"created_at"`
	ArtworkURL string    `json:"artwork_url"`
	Tracks     []scTrack `json:"tracks"`
	User       scUser    `json:"user"`
}

// scStreamItem is one entry of the repost stream or the likes collection.
type scStreamItem struct {
	CreatedAt string      `json:"created_at"`
	Track     *scTrack    `json:"track"`
	Playlist  *scPlaylist `json:"playlist"`
}

// scCollection is the paginated envelope api-v2 wraps list responses in.
type scCollection struct {
	Collection []scStreamItem `json:"collection"`
}

func (f *SoundCloudFetcher) Fetch(ctx context.Context, artist *entity.TrackedArtist, kind entity.ContentKind) ([]entity.ContentItem, error) {
	start := time.Now()
	items, err := f.fetch(ctx, artist, kind)
	observeFetch(entity.PlatformSoundCloud, kind, start, len(items), err)
	return items, err
}

func (f *SoundCloudFetcher) fetch(ctx context.Context, artist *entity.TrackedArtist, kind entity.ContentKind) ([]entity.ContentItem, error) {
	switch kind {
	case entity.KindRelease:
		return f.latestTrack(ctx, artist)
	case entity.KindPlaylist:
		return f.latestPlaylist(ctx, artist)
	case entity.KindRepost:
		return f.recentReposts(ctx, artist)
	case entity.KindLike:
		return f.recentLikes(ctx, artist)
	}
	return nil, ErrUnsupportedKind
}

func (f *SoundCloudFetcher) latestTrack(ctx context.Context, artist *entity.TrackedArtist) ([]entity.ContentItem, error) {
	var tracks []scTrack
	endpoint := fmt.Sprintf("%s/users/%s/tracks?client_id=%s&limit=1&order=created_at",
		f.config.BaseURL, url.PathEscape(artist.ArtistID), url.QueryEscape(f.config.ClientID))
	if err := f.get(ctx, endpoint, &tracks); err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, nil
	}
	item := trackToItem(&tracks[0], false)
	return []entity.ContentItem{item}, nil
}

func (f *SoundCloudFetcher) latestPlaylist(ctx context.Context, artist *entity.TrackedArtist) ([]entity.ContentItem, error) {
	var playlists []scPlaylist
	endpoint := fmt.Sprintf("%s/users/%s/playlists?client_id=%s&limit=1&order=created_at",
		f.config.BaseURL, url.PathEscape(artist.ArtistID), url.QueryEscape(f.config.ClientID))
	if err := f.get(ctx, endpoint, &playlists); err != nil {
		return nil, err
	}
	if len(playlists) == 0 {
		return nil, nil
	}
	item := playlistToItem(&playlists[0])
	return []entity.ContentItem{item}, nil
}

func (f *SoundCloudFetcher) recentReposts(ctx context.Context, artist *entity.TrackedArtist) ([]entity.ContentItem, error) {
	var page scCollection
	endpoint := fmt.Sprintf("%s/stream/users/%s/reposts?client_id=%s&limit=%d",
		f.config.BaseURL, url.PathEscape(artist.ArtistID), url.QueryEscape(f.config.ClientID), f.config.PageLimit)
	if err := f.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return streamToItems(page.Collection, true), nil
}

func (f *SoundCloudFetcher) recentLikes(ctx context.Context, artist *entity.TrackedArtist) ([]entity.ContentItem, error) {
	var page scCollection
	endpoint := fmt.Sprintf("%s/users/%s/likes?client_id=%s&limit=%d",
		f.config.BaseURL, url.PathEscape(artist.ArtistID), url.QueryEscape(f.config.ClientID), f.config.PageLimit)
	if err := f.get(ctx, endpoint, &page); err != nil {
		return nil, err
	}
	return streamToItems(page.Collection, false), nil
}

func (f *SoundCloudFetcher) ResolveArtist(ctx context.Context, externalID string) (*ArtistInfo, error) {
	permalink := strings.TrimPrefix(externalID, "https://soundcloud.com/")
	var user scUser
	endpoint := fmt.Sprintf("%s/resolve?url=%s&client_id=%s",
		f.config.BaseURL,
		url.QueryEscape("https://soundcloud.com/"+permalink),
		url.QueryEscape(f.config.ClientID))
	if err := f.get(ctx, endpoint, &user); err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, NewError(ErrNotFound, entity.PlatformSoundCloud, fmt.Errorf("resolve returned no user for %q", externalID))
	}
	info := &ArtistInfo{
		ID:   strconv.FormatInt(user.ID, 10),
		Name: user.Username,
		URL:  user.Permalink,
	}
	if user.Genre != "" {
		info.Genres = []string{user.Genre}
	}
	return info, nil
}

// get runs one API call through the circuit breaker.
func (f *SoundCloudFetcher) get(ctx context.Context, endpoint string, out any) error {
	_, err := f.breaker.Execute(func() (interface{}, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, NewError(ErrTransient, entity.PlatformSoundCloud, err)
		}
		return nil, doJSON(ctx, f.httpClient, entity.PlatformSoundCloud, req, out)
	})
	if err != nil {
		if KindOf(err) != "" {
			return err
		}
		// Open breaker or other breaker-internal failure.
		return NewError(ErrTransient, entity.PlatformSoundCloud, err)
	}
	return nil
}

func trackToItem(t *scTrack, repost bool) entity.ContentItem {
	return entity.ContentItem{
		TrackID:    strconv.FormatInt(t.ID, 10),
		Title:      t.Title,
		ArtistName: t.User.Username,
		URL:        t.Permalink,
		Timestamp:  parseUpstreamTime(t.CreatedAt),
		CoverURL:   coverOrAvatar(t.ArtworkURL, t.User.AvatarURL),
		Duration:   time.Duration(t.DurationMS) * time.Millisecond,
		TrackCount: 1,
		Features:   extractFeatures(t.Title),
		Genres:     nonEmpty(t.Genre),
		Repost:     repost,
	}
}

func playlistToItem(p *scPlaylist) entity.ContentItem {
	var totalMS int64
	genres := map[string]struct{}{}
	features := map[string]struct{}{}
	for _, t := range p.Tracks {
		totalMS += t.DurationMS
		if t.Genre != "" {
			genres[t.Genre] = struct{}{}
		}
		for _, feat := range extractFeatures(t.Title) {
			features[feat] = struct{}{}
		}
	}
	return entity.ContentItem{
		TrackID:    strconv.FormatInt(p.ID, 10),
		Title:      p.Title,
		ArtistName: p.User.Username,
		URL:        p.Permalink,
		Timestamp:  parseUpstreamTime(p.CreatedAt),
		CoverURL:   coverOrAvatar(p.ArtworkURL, p.User.AvatarURL),
		Duration:   time.Duration(totalMS) * time.Millisecond,
		TrackCount: len(p.Tracks),
		Features:   sortedKeys(features),
		Genres:     sortedKeys(genres),
	}
}

// streamToItems flattens a repost stream or likes collection. The comparison
// timestamp is the stream entry time (when the repost/like happened), not the
// track's own release date. Entries without a track payload are dropped here
// at the boundary.
func streamToItems(items []scStreamItem, repost bool) []entity.ContentItem {
	out := make([]entity.ContentItem, 0, len(items))
	for _, entry := range items {
		if entry.Track == nil {
			continue
		}
		item := trackToItem(entry.Track, repost)
		item.Timestamp = parseUpstreamTime(entry.CreatedAt)
		out = append(out, item)
	}
	return out
}

func coverOrAvatar(artwork, avatar string) string {
	if artwork != "" {
		return artwork
	}
	return avatar
}

func nonEmpty(genre string) []string {
	if genre == "" {
		return nil
	}
	return []string{genre}
}

func sortedKeys(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var featurePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)\(feat\.?\s*([^)]+)\)`),
	regexp.MustCompile(`(?i)\[feat\.?\s*([^\]]+)\]`),
	regexp.MustCompile(`(?i)\bft\.?\s+([^\-–(\[]+)`),
	regexp.MustCompile(`(?i)\bw/\s*([^)\-–(\[]+)`),
}

// extractFeatures pulls featured artist names out of a track title.
func extractFeatures(title string) []string {
	set := map[string]struct{}{}
	for _, pattern := range featurePatterns {
		for _, match := range pattern.FindAllStringSubmatch(title, -1) {
			raw := match[1]
			for _, sep := range []string{"/", "&", " and "} {
				raw = strings.ReplaceAll(raw, sep, ",")
			}
			for _, name := range strings.Split(raw, ",") {
				if trimmed := strings.TrimSpace(name); trimmed != "" {
					set[trimmed] = struct{}{}
				}
			}
		}
	}
	return sortedKeys(set)
}
