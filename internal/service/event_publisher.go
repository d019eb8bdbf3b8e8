package service

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"gorm.io/datatypes"

	"github.com/noah-isme/gema-assessment-api/internal/middleware"
	"github.com/noah-isme/gema-assessment-api/internal/observability"
)

// Domain events emitted by the grading engine.
const (
	EventSubmissionSubmitted   = "submission.submitted"
	EventSubmissionGraded      = "submission.graded"
	EventFinalScoresRecomputed = "final_scores.recomputed"
)

// DomainEvent is the envelope published on every transport.
type DomainEvent struct {
	ID            string            `json:"id"`
	Type          string            `json:"type"`
	Source        string            `json:"source"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	OccurredAt    time.Time         `json:"occurred_at"`
	Data          datatypes.JSONMap `json:"data"`
}

// EventPublisher fans domain events out to downstream consumers such as the
// notification and reporting services.
type EventPublisher interface {
	Publish(ctx context.Context, eventType string, data map[string]interface{}) error
}

type eventPublisher struct {
	redis        *redis.Client
	redisChannel string
	nats         *nats.Conn
	natsPrefix   string
	logger       zerolog.Logger
	nodeID       string
	now          func() time.Time
}

// NewEventPublisher publishes to Redis pub/sub and NATS, whichever is configured.
func NewEventPublisher(redisClient *redis.Client, natsConn *nats.Conn, channelBase string, logger zerolog.Logger) EventPublisher {
	channel := ""
	prefix := ""
	if channelBase != "" {
		channel = channelBase + ":events"
		prefix = strings.ReplaceAll(channelBase, ":", ".") + ".events"
	}

	return &eventPublisher{
		redis:        redisClient,
		redisChannel: channel,
		nats:         natsConn,
		natsPrefix:   prefix,
		logger:       logger.With().Str("component", "event_publisher").Logger(),
		nodeID:       uuid.NewString(),
		now:          time.Now,
	}
}

func (p *eventPublisher) Publish(ctx context.Context, eventType string, data map[string]interface{}) error {
	event := DomainEvent{
		ID:            uuid.NewString(),
		Type:          eventType,
		Source:        p.nodeID,
		CorrelationID: middleware.CorrelationIDFromContext(ctx),
		OccurredAt:    p.now().UTC(),
		Data:          datatypes.JSONMap(data),
	}

	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	var errs []error
	if p.redis != nil && p.redisChannel != "" {
		if err := p.redis.Publish(ctx, p.redisChannel, payload).Err(); err != nil {
			errs = append(errs, err)
		} else {
			observability.EventsPublished().WithLabelValues(eventType, "redis").Inc()
		}
	}

	if p.nats != nil && p.natsPrefix != "" {
		if err := p.nats.Publish(p.natsPrefix+"."+eventType, payload); err != nil {
			errs = append(errs, err)
		} else {
			observability.EventsPublished().WithLabelValues(eventType, "nats").Inc()
		}
	}

	p.logger.Debug().Str("event_id", event.ID).Str("event_type", eventType).Msg("domain event published")
	return errors.Join(errs...)
}

// publishEvent is the fire-and-forget helper used by services; delivery
// failures never fail the originating request.
func publishEvent(ctx context.Context, publisher EventPublisher, logger zerolog.Logger, eventType string, data map[string]interface{}) {
	if publisher == nil {
		return
	}
	if err := publisher.Publish(ctx, eventType, data); err != nil {
		logger.Warn().Err(err).Str("event_type", eventType).Msg("failed to publish domain event")
	}
}
