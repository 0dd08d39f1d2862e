package services_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/sbilibin2017/recipe-share/internal/models"
	"github.com/sbilibin2017/recipe-share/internal/repositories"
	"github.com/sbilibin2017/recipe-share/internal/services"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventPublisher_Publish(t *testing.T) {
	event := models.Event{EventID: "e1", Type: models.EventRecipeLiked, RecipeID: "r1", Slug: "tomato-soup"}

	t.Run("keyed by recipe with type header", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		writer := services.NewMockKafkaWriter(ctrl)
		writer.EXPECT().
			WriteMessages(gomock.Any(), gomock.Any()).
			DoAndReturn(func(_ context.Context, msgs ...kafka.Message) error {
				require.Len(t, msgs, 1)
				assert.Equal(t, "r1", string(msgs[0].Key))
				require.Len(t, msgs[0].Headers, 1)
				assert.Equal(t, "type", msgs[0].Headers[0].Key)
				assert.Equal(t, models.EventRecipeLiked, string(msgs[0].Headers[0].Value))

				var got models.Event
				require.NoError(t, json.Unmarshal(msgs[0].Value, &got))
				assert.Equal(t, event, got)
				return nil
			})

		services.NewEventPublisher(writer).Publish(context.Background(), event)
	})

	t.Run("write error is swallowed", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		writer := services.NewMockKafkaWriter(ctrl)
		writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(errors.New("broker down"))

		assert.NotPanics(t, func() {
			services.NewEventPublisher(writer).Publish(context.Background(), event)
		})
	})

	t.Run("waits for commit", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		writer := services.NewMockKafkaWriter(ctrl)

		ctx, hooks := repositories.WithCommitHooks(context.Background())
		services.NewEventPublisher(writer).Publish(ctx, event)

		writer.EXPECT().WriteMessages(gomock.Any(), gomock.Any()).Return(nil)
		hooks.Run()
	})

	t.Run("write uses a context that outlives the request", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		writer := services.NewMockKafkaWriter(ctrl)
		writer.EXPECT().
			WriteMessages(gomock.Any(), gomock.Any()).
			DoAndReturn(func(ctx context.Context, _ ...kafka.Message) error {
				assert.NoError(t, ctx.Err())
				return nil
			})

		reqCtx, cancel := context.WithCancel(context.Background())
		ctx, hooks := repositories.WithCommitHooks(reqCtx)
		services.NewEventPublisher(writer).Publish(ctx, event)
		cancel()
		hooks.Run()
	})

	t.Run("nil writer skips", func(t *testing.T) {
		assert.NotPanics(t, func() {
			services.NewEventPublisher(nil).Publish(context.Background(), event)
			var p *services.EventPublisher
			p.Publish(context.Background(), event)
		})
	})
}
