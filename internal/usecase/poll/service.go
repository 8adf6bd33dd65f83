package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"release-radar/internal/domain/entity"
	"release-radar/internal/infra/platform"
	"release-radar/internal/repository"
	"release-radar/internal/usecase/detect"
	"release-radar/internal/usecase/notify"
)

// Config holds poll cycle tuning.
type Config struct {
	// CooldownDuration is how long a platform stays suppressed after a
	// rate-limit signal.
	CooldownDuration time.Duration

	// FetchParallelism bounds concurrent fetches within one kind pass.
	FetchParallelism int
}

// DefaultConfig returns the default poll configuration.
func DefaultConfig() Config {
	return Config{
		CooldownDuration: 12 * time.Hour,
		FetchParallelism: 4,
	}
}

// CycleStats summarizes one poll cycle for logging and metrics.
type CycleStats struct {
	Artists          int
	Checks           int
	Notifications    int
	Bootstraps       int
	CooldownSkips    int
	RateLimitHits    int
	NotFound         int
	FetchErrors      int
	DeliveryFailures int
	NoChannelSkips   int
}

// Service runs poll cycles over the tracked artist roster.
//
// A cycle loads the roster once, then makes one pass per content kind in
// entity.Kinds order. Within a pass fetches run concurrently (bounded by
// FetchParallelism) while detection, delivery, and state commits run
// sequentially in roster order, so the commit rules stay easy to reason about.
//
// Commit rules:
//   - The ledger is marked and the watermark advanced only after a delivery
//     is confirmed. A failed delivery leaves both untouched; the item fires
//     again next cycle.
//   - No failure in one artist's processing stops the cycle. Only store
//     errors abort a cycle early; the next tick retries everything.
type Service struct {
	artists  repository.ArtistRepository
	ledger   repository.LedgerRepository
	delivery notify.Service
	fetchers map[entity.Platform]platform.Fetcher
	cooldown *Cooldown
	config   Config
	logger   *slog.Logger
}

// NewService creates a poll service.
func NewService(
	artists repository.ArtistRepository,
	ledger repository.LedgerRepository,
	delivery notify.Service,
	fetchers []platform.Fetcher,
	cooldown *Cooldown,
	config Config,
) *Service {
	byPlatform := make(map[entity.Platform]platform.Fetcher, len(fetchers))
	for _, f := range fetchers {
		byPlatform[f.Platform()] = f
	}
	return &Service{
		artists:  artists,
		ledger:   ledger,
		delivery: delivery,
		fetchers: byPlatform,
		cooldown: cooldown,
		config:   config,
		logger:   slog.Default(),
	}
}

// fetchResult pairs one artist with the outcome of its fetch.
type fetchResult struct {
	artist *entity.TrackedArtist
	items  []entity.ContentItem
	err    error
}

// RunCycle executes one full poll cycle. It returns an error only for store
// failures that aborted the cycle; per-artist fetch and delivery failures are
// reflected in the stats.
func (s *Service) RunCycle(ctx context.Context) (CycleStats, error) {
	var stats CycleStats

	roster, err := s.artists.ListTracked(ctx, repository.ArtistFilter{})
	if err != nil {
		return stats, fmt.Errorf("RunCycle: list tracked artists: %w", err)
	}
	stats.Artists = len(roster)
	if len(roster) == 0 {
		return stats, nil
	}

	for _, kind := range entity.Kinds {
		if err := s.runKindPass(ctx, kind, roster, &stats); err != nil {
			return stats, fmt.Errorf("RunCycle: %s pass: %w", kind, err)
		}
	}
	return stats, nil
}

// runKindPass checks every artist for one content kind.
func (s *Service) runKindPass(ctx context.Context, kind entity.ContentKind, roster []*entity.TrackedArtist, stats *CycleStats) error {
	results := s.fetchAll(ctx, kind, roster, stats)

	for _, res := range results {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := s.processArtist(ctx, kind, res, stats); err != nil {
			return err
		}
	}
	return nil
}

// fetchAll runs the fetch phase of one kind pass with bounded concurrency.
// Artists on a suppressed platform or without a fetcher are skipped up front.
func (s *Service) fetchAll(ctx context.Context, kind entity.ContentKind, roster []*entity.TrackedArtist, stats *CycleStats) []fetchResult {
	var eligible []*entity.TrackedArtist
	for _, artist := range roster {
		if _, ok := s.fetchers[artist.Platform]; !ok {
			continue
		}
		if s.cooldown.Active(artist.Platform) {
			stats.CooldownSkips++
			continue
		}
		eligible = append(eligible, artist)
	}

	results := make([]fetchResult, len(eligible))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.FetchParallelism)

	for i, artist := range eligible {
		i, artist := i, artist
		g.Go(func() error {
			items, err := s.fetchers[artist.Platform].Fetch(gctx, artist, kind)
			results[i] = fetchResult{artist: artist, items: items, err: err}
			return nil
		})
	}
	// Workers never return errors; failures live in the results.
	_ = g.Wait()
	return results
}

// processArtist runs detection, delivery, and state commits for one fetch
// result. Returns an error only on store failures.
func (s *Service) processArtist(ctx context.Context, kind entity.ContentKind, res fetchResult, stats *CycleStats) error {
	artist := res.artist
	stats.Checks++

	if res.err != nil {
		s.recordFetchFailure(kind, artist, res.err, stats)
		return nil
	}
	if len(res.items) == 0 && artist.Watermark(kind) != nil {
		return nil
	}

	contentIDs := make([]string, 0, len(res.items))
	for i := range res.items {
		if res.items[i].Validate() == nil {
			contentIDs = append(contentIDs, res.items[i].ContentID())
		}
	}

	scope := entity.DedupKey{
		ArtistID: artist.ArtistID,
		GuildID:  artist.GuildID,
		Platform: artist.Platform,
		Kind:     kind,
	}
	var hits map[string]bool
	if len(contentIDs) > 0 {
		var err error
		hits, err = s.ledger.IsNotifiedBatch(ctx, scope, contentIDs)
		if err != nil {
			return fmt.Errorf("ledger lookup for %s/%s: %w", artist.Platform, artist.ArtistID, err)
		}
	}

	result := detect.Evaluate(artist.Watermark(kind), res.items, hits)

	if result.Bootstrap {
		stats.Bootstraps++
		if result.Watermark == nil {
			return nil
		}
		if err := s.commitWatermark(ctx, artist, kind, *result.Watermark); err != nil {
			return err
		}
		s.logger.Info("watermark bootstrapped",
			slog.String("platform", string(artist.Platform)),
			slog.String("artist", artist.Name),
			slog.String("kind", string(kind)),
			slog.Time("watermark", *result.Watermark))
		return nil
	}

	delivered, err := s.deliverAll(ctx, kind, artist, result.Notify, scope, stats)
	if err != nil {
		return err
	}

	switch {
	case delivered == len(result.Notify):
		// Full success: advance past everything, including items the ledger
		// already covered.
		if result.Watermark != nil {
			return s.commitWatermark(ctx, artist, kind, *result.Watermark)
		}
	case delivered > 0:
		// Partial delivery: advance only to the newest confirmed item so the
		// failed tail fires again next cycle.
		return s.commitWatermark(ctx, artist, kind, result.Notify[delivered-1].Timestamp)
	}
	return nil
}

// deliverAll sends notifications oldest-first, marking the ledger after each
// confirmed send. It stops at the first delivery failure and reports how many
// items were delivered.
func (s *Service) deliverAll(ctx context.Context, kind entity.ContentKind, artist *entity.TrackedArtist, items []entity.ContentItem, scope entity.DedupKey, stats *CycleStats) (int, error) {
	for i, item := range items {
		err := s.delivery.Deliver(ctx, notify.Event{Artist: artist, Kind: kind, Item: item})
		if err != nil {
			if errors.Is(err, notify.ErrNoChannelConfigured) {
				// Retrying cannot succeed until an operator sets a channel, so
				// this is a skip, not a failure: no warn churn every cycle.
				// State stays untouched; the items deliver once a channel exists.
				stats.NoChannelSkips++
				s.logger.Debug("no notification channel configured, delivery pending",
					slog.String("platform", string(artist.Platform)),
					slog.String("guild", artist.GuildID),
					slog.String("artist", artist.Name),
					slog.String("kind", string(kind)))
				return i, nil
			}
			stats.DeliveryFailures++
			s.logger.Warn("notification delivery failed, will retry next cycle",
				slog.String("platform", string(artist.Platform)),
				slog.String("artist", artist.Name),
				slog.String("kind", string(kind)),
				slog.String("content_id", item.ContentID()),
				slog.Any("error", err))
			return i, nil
		}

		key := scope
		key.ContentID = item.ContentID()
		if err := s.ledger.MarkNotified(ctx, key); err != nil {
			// The send went out but the mark failed. Aborting here risks one
			// duplicate next cycle, which beats silently losing the ledger.
			return i, fmt.Errorf("mark notified %s: %w", key.ContentID, err)
		}
		stats.Notifications++
	}
	return len(items), nil
}

// commitWatermark persists a watermark advance and mirrors it in memory.
func (s *Service) commitWatermark(ctx context.Context, artist *entity.TrackedArtist, kind entity.ContentKind, t time.Time) error {
	if err := s.artists.SetWatermark(ctx, artist, kind, t); err != nil {
		return fmt.Errorf("set %s watermark for %s/%s: %w", kind, artist.Platform, artist.ArtistID, err)
	}
	artist.SetWatermark(kind, t)
	return nil
}

// recordFetchFailure classifies a fetch error per the error taxonomy.
func (s *Service) recordFetchFailure(kind entity.ContentKind, artist *entity.TrackedArtist, err error, stats *CycleStats) {
	switch {
	case errors.Is(err, platform.ErrUnsupportedKind):
		// The platform has no feed for this kind; nothing to report.
	case platform.IsRateLimited(err):
		stats.RateLimitHits++
		s.cooldown.Open(artist.Platform, s.config.CooldownDuration)
	case platform.IsNotFound(err):
		stats.NotFound++
		s.logger.Warn("artist not found upstream, watermark untouched",
			slog.String("platform", string(artist.Platform)),
			slog.String("artist", artist.Name),
			slog.String("artist_id", artist.ArtistID),
			slog.String("kind", string(kind)))
	default:
		stats.FetchErrors++
		s.logger.Warn("fetch failed, will retry next cycle",
			slog.String("platform", string(artist.Platform)),
			slog.String("artist", artist.Name),
			slog.String("kind", string(kind)),
			slog.Any("error", err))
	}
}
