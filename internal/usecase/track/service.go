// Package track provides the roster management use cases: registering users,
// tracking and untracking artists, and configuring per-guild notification
// channels.
package track

import (
	"context"
	"errors"
	"fmt"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/infra/platform"
	"release-radar/internal/repository"
)

// TrackInput represents the input parameters for tracking an artist.
type TrackInput struct {
	Platform   entity.Platform
	ArtistRef  string // permalink, profile URL, or platform-native ID
	OwnerID    string
	GuildID    string
}

// UntrackInput identifies one tracked artist to remove.
type UntrackInput struct {
	Platform entity.Platform
	ArtistID string
	OwnerID  string
	GuildID  string
}

// Service provides roster management use cases.
// It handles business logic for tracking operations and delegates persistence
// to the repositories.
type Service struct {
	artists  repository.ArtistRepository
	users    repository.UserRepository
	channels repository.ChannelRepository
	fetchers map[entity.Platform]platform.Fetcher

	now func() time.Time
}

// NewService creates a track service.
func NewService(
	artists repository.ArtistRepository,
	users repository.UserRepository,
	channels repository.ChannelRepository,
	fetchers []platform.Fetcher,
) *Service {
	byPlatform := make(map[entity.Platform]platform.Fetcher, len(fetchers))
	for _, f := range fetchers {
		byPlatform[f.Platform()] = f
	}
	return &Service{
		artists:  artists,
		users:    users,
		channels: channels,
		fetchers: byPlatform,
		now:      time.Now,
	}
}

// Track resolves the artist reference against the platform and adds the artist
// to the roster with all four watermarks seeded to the tracking timestamp, so
// content that existed before tracking is never notified.
//
// Returns:
//   - ErrUserNotRegistered if the owner has not registered
//   - ErrUnsupportedPlatform if no fetcher serves the platform
//   - ErrArtistNotFound if the reference does not resolve upstream
//   - entity.ErrAlreadyTracked if the artist is already on the roster
func (s *Service) Track(ctx context.Context, in TrackInput) (*entity.TrackedArtist, error) {
	if !in.Platform.Valid() {
		return nil, &entity.ValidationError{Field: "platform", Message: "must be soundcloud or spotify"}
	}
	if err := entity.ValidateArtistReference(in.ArtistRef); err != nil {
		return nil, err
	}
	if in.OwnerID == "" || in.GuildID == "" {
		return nil, &entity.ValidationError{Field: "owner", Message: "owner and guild are required"}
	}

	registered, err := s.users.Exists(ctx, in.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("check registration: %w", err)
	}
	if !registered {
		return nil, ErrUserNotRegistered
	}

	fetcher, ok := s.fetchers[in.Platform]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedPlatform, in.Platform)
	}

	info, err := fetcher.ResolveArtist(ctx, in.ArtistRef)
	if err != nil {
		if platform.IsNotFound(err) {
			return nil, fmt.Errorf("%w: %s", ErrArtistNotFound, in.ArtistRef)
		}
		return nil, fmt.Errorf("resolve artist: %w", err)
	}

	trackedAt := s.now().UTC()
	artist := &entity.TrackedArtist{
		Platform:  in.Platform,
		ArtistID:  info.ID,
		OwnerID:   in.OwnerID,
		GuildID:   in.GuildID,
		Name:      info.Name,
		URL:       info.URL,
		Genres:    info.Genres,
		CreatedAt: trackedAt,
	}
	// Seed every watermark to the tracking timestamp.
	for _, kind := range entity.Kinds {
		artist.SetWatermark(kind, trackedAt)
	}

	if err := artist.Validate(); err != nil {
		return nil, fmt.Errorf("validate artist: %w", err)
	}
	if err := s.artists.Create(ctx, artist); err != nil {
		return nil, fmt.Errorf("create artist: %w", err)
	}
	return artist, nil
}

// Untrack removes an artist from the roster.
// Returns ErrArtistNotFound if the artist is not tracked.
func (s *Service) Untrack(ctx context.Context, in UntrackInput) error {
	if !in.Platform.Valid() {
		return &entity.ValidationError{Field: "platform", Message: "must be soundcloud or spotify"}
	}
	if in.ArtistID == "" {
		return &entity.ValidationError{Field: "artist_id", Message: "is required"}
	}

	err := s.artists.Delete(ctx, in.Platform, in.ArtistID, in.OwnerID, in.GuildID)
	if err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return fmt.Errorf("%w: %s/%s", ErrArtistNotFound, in.Platform, in.ArtistID)
		}
		return fmt.Errorf("delete artist: %w", err)
	}
	return nil
}

// List retrieves tracked artists matching the filter.
func (s *Service) List(ctx context.Context, filter repository.ArtistFilter) ([]*entity.TrackedArtist, error) {
	artists, err := s.artists.ListTracked(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list artists: %w", err)
	}
	return artists, nil
}

// SetChannel configures the notification webhook for a guild and platform.
// The URL is validated before storing since the worker will POST to it.
func (s *Service) SetChannel(ctx context.Context, guildID string, p entity.Platform, webhookURL string) error {
	if guildID == "" {
		return &entity.ValidationError{Field: "guild_id", Message: "is required"}
	}
	if !p.Valid() {
		return &entity.ValidationError{Field: "platform", Message: "must be soundcloud or spotify"}
	}
	if err := entity.ValidateWebhookURL(webhookURL); err != nil {
		return err
	}

	channel := &repository.NotificationChannel{
		GuildID:    guildID,
		Platform:   p,
		WebhookURL: webhookURL,
	}
	if err := s.channels.Set(ctx, channel); err != nil {
		return fmt.Errorf("set channel: %w", err)
	}
	return nil
}

// RegisterUser registers a user so they can track artists. Registering an
// already-registered user is idempotent.
func (s *Service) RegisterUser(ctx context.Context, userID, username string) (*repository.User, error) {
	if userID == "" {
		return nil, &entity.ValidationError{Field: "user_id", Message: "is required"}
	}

	user := &repository.User{
		UserID:       userID,
		Username:     username,
		RegisteredAt: s.now().UTC(),
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("register user: %w", err)
	}
	return user, nil
}
