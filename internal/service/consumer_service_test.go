package service

import (
	"context"
	"testing"
	"time"

	"ai-therapy-be/internal/dto"
	"ai-therapy-be/internal/repository/memory"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActivityConsumerUpdatesState(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	stateRepo := memory.NewStateRepository()
	consumer := NewActivityConsumerService(pubSub, stateRepo, testLogger{})
	require.NoError(t, consumer.Start(context.Background()))

	publisher := NewPublisherService(pubSub, testLogger{})

	require.NoError(t, publisher.PublishSessionActivity(&dto.SessionActivityMessage{
		SessionId: "tok-1",
		UserId:    "user-1",
		RiskLevel: 2,
	}))
	require.NoError(t, publisher.PublishSessionActivity(&dto.SessionActivityMessage{
		SessionId: "tok-1",
		UserId:    "user-1",
		RiskLevel: 6,
	}))

	assert.Eventually(t, func() bool {
		state, found := stateRepo.Get("tok-1")
		return found && state.MessageCount == 2 && state.LastRiskLevel == 6
	}, 2*time.Second, 10*time.Millisecond)
}

func TestActivityConsumerSkipsMalformedPayload(t *testing.T) {
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
	defer pubSub.Close()

	stateRepo := memory.NewStateRepository()
	consumer := NewActivityConsumerService(pubSub, stateRepo, testLogger{})
	require.NoError(t, consumer.Start(context.Background()))

	publisher := NewPublisherService(pubSub, testLogger{})

	// A broken message must not wedge the consumer.
	require.NoError(t, pubSub.Publish(SessionActivityTopic, message.NewMessage(watermill.NewUUID(), []byte("not json"))))
	require.NoError(t, publisher.PublishSessionActivity(&dto.SessionActivityMessage{
		SessionId: "tok-2",
		UserId:    "user-2",
		RiskLevel: 1,
	}))

	assert.Eventually(t, func() bool {
		_, found := stateRepo.Get("tok-2")
		return found
	}, 2*time.Second, 10*time.Millisecond)
}
