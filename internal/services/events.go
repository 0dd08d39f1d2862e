package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/sbilibin2017/recipe-share/internal/logger"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/repositories"
	"github.com/segmentio/kafka-go"
)

// KafkaWriter defines a Kafka writer abstraction.
type KafkaWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error // Writes messages to Kafka
	Close() error                                                   // Closes the Kafka writer
}

// EventPublisher emits domain events after successful mutations.
// Publishing is best effort: failures are logged and never returned.
type EventPublisher struct {
	writer KafkaWriter
}

// NewEventPublisher creates a publisher. A nil writer disables publishing.
func NewEventPublisher(writer KafkaWriter) *EventPublisher {
	return &EventPublisher{writer: writer}
}

func newEvent(eventType string, actor *models.Viewer, recipe models.RecipeDB) models.Event {
	return models.Event{
		EventID:   uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().Unix(),
		ActorID:   actor.ID().String(),
		RecipeID:  recipe.RecipeID.String(),
		Slug:      recipe.Slug,
	}
}

// Publish sends the event keyed by recipe id so a recipe's events stay ordered.
// Inside a transaction the event waits for the commit and is dropped on rollback.
func (p *EventPublisher) Publish(ctx context.Context, event models.Event) {
	sendCtx := context.WithoutCancel(ctx)
	repositories.AfterCommit(ctx, func() { p.send(sendCtx, event) })
}

func (p *EventPublisher) send(ctx context.Context, event models.Event) {
	if p == nil || p.writer == nil {
		logger.Log.Warnw("Kafka writer not configured, skipping publishing", "event_id", event.EventID, "type", event.Type)
		return
	}

	data, err := json.Marshal(event)
	if err != nil {
		logger.Log.Errorw("Failed to marshal event for Kafka", "event_id", event.EventID, "error", err)
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.RecipeID),
		Value: data,
		Headers: []kafka.Header{
			{Key: "type", Value: []byte(event.Type)},
		},
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		logger.Log.Errorw("Failed to publish event to Kafka", "event_id", event.EventID, "type", event.Type, "error", err)
	} else {
		logger.Log.Infow("Event published to Kafka", "event_id", event.EventID, "type", event.Type, "recipe_id", event.RecipeID)
	}
}
