package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"release-radar/internal/domain/entity"
	"release-radar/internal/repository"

	"github.com/google/uuid"
)

// contextKey is a custom type for context keys to avoid collisions
type contextKey string

const requestIDKey contextKey = "request_id"

// notificationTimeout bounds a single delivery attempt end to end, including
// channel-internal retries.
const notificationTimeout = 30 * time.Second

// Event is one notification to deliver: a content item detected as new for a
// tracked artist.
type Event struct {
	Artist *entity.TrackedArtist
	Kind   entity.ContentKind
	Item   entity.ContentItem
}

// Service delivers notification events synchronously.
//
// Delivery is deliberately blocking: the poll loop must know whether the send
// succeeded before it marks the dedup ledger or advances a watermark. An
// asynchronous fire-and-forget dispatch would break the exactly-once
// guarantee on process crash.
type Service interface {
	// Deliver resolves the configured webhook for the event's guild and
	// platform and sends through every enabled channel.
	//
	// Parameters:
	//   - ctx: Context for cancellation
	//   - event: The notification to deliver
	//
	// Returns:
	//   - nil: Every enabled channel confirmed the send
	//   - ErrNoChannelConfigured: The guild has no webhook for the platform
	//   - ErrChannelDisabled: No channel is enabled
	//   - error: A channel failed after its retries
	Deliver(ctx context.Context, event Event) error
}

// service is the concrete implementation of the Service interface.
type service struct {
	channels repository.ChannelRepository
	targets  []Channel
}

// NewService creates a notification service delivering through the given
// channels.
//
// Parameters:
//   - channels: Repository of per-guild webhook configuration
//   - targets: Delivery channels (Discord, test doubles)
//
// Returns:
//   - Service: Configured notification service
func NewService(channels repository.ChannelRepository, targets []Channel) Service {
	return &service{
		channels: channels,
		targets:  targets,
	}
}

// Deliver implements Service.Deliver.
func (s *service) Deliver(ctx context.Context, event Event) error {
	if event.Artist == nil {
		return ErrInvalidEvent
	}
	if err := event.Item.Validate(); err != nil {
		return fmt.Errorf("Deliver: %w: %v", ErrInvalidEvent, err)
	}

	// Inherit the request ID from the caller if present, otherwise mint one.
	requestID, ok := ctx.Value(requestIDKey).(string)
	if !ok || requestID == "" {
		requestID = uuid.New().String()
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}

	channel, err := s.channels.Get(ctx, event.Artist.GuildID, event.Artist.Platform)
	if err != nil {
		return fmt.Errorf("Deliver: %w", err)
	}
	if channel == nil {
		return fmt.Errorf("Deliver: guild %s, platform %s: %w",
			event.Artist.GuildID, event.Artist.Platform, ErrNoChannelConfigured)
	}

	enabled := 0
	for _, target := range s.targets {
		if !target.IsEnabled() {
			continue
		}
		enabled++

		sendCtx, cancel := context.WithTimeout(ctx, notificationTimeout)
		start := time.Now()
		RecordDispatch(target.Name())
		err := target.Send(sendCtx, channel.WebhookURL, event.Artist, event.Kind, &event.Item)
		cancel()
		duration := time.Since(start)

		if err != nil {
			RecordFailure(target.Name(), duration)
			slog.Warn("Channel notification failed",
				slog.String("request_id", requestID),
				slog.String("channel", target.Name()),
				slog.String("artist", event.Artist.Name),
				slog.String("kind", string(event.Kind)),
				slog.String("content_id", event.Item.ContentID()),
				slog.Duration("send_duration", duration),
				slog.Any("error", err))
			return fmt.Errorf("Deliver: channel %s: %w", target.Name(), err)
		}

		RecordSuccess(target.Name(), duration)
		slog.Info("Channel notification sent",
			slog.String("request_id", requestID),
			slog.String("channel", target.Name()),
			slog.String("artist", event.Artist.Name),
			slog.String("kind", string(event.Kind)),
			slog.String("content_id", event.Item.ContentID()),
			slog.Duration("send_duration", duration))
	}

	if enabled == 0 {
		return fmt.Errorf("Deliver: %w", ErrChannelDisabled)
	}
	return nil
}
