package service

import (
	"context"
	"encoding/json"

	"ai-tutoring-be/internal/constant"
	"ai-tutoring-be/internal/dto"
	"ai-tutoring-be/internal/pkg/logger"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
)

// IConsumerService drains the in-process event bus in the background.
type IConsumerService interface {
	Consume(ctx context.Context) error
}

// consumerService writes a usage trail from completed-turn events.
type consumerService struct {
	pubSub    *gochannel.GoChannel
	sysLogger logger.ILogger
}

func NewConsumerService(pubSub *gochannel.GoChannel, sysLogger logger.ILogger) IConsumerService {
	return &consumerService{
		pubSub:    pubSub,
		sysLogger: sysLogger,
	}
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, constant.TurnCompletedTopic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			cs.processMessage(msg)
		}
	}()

	return nil
}

func (cs *consumerService) processMessage(msg *message.Message) {
	var event dto.TurnCompletedEvent
	if err := json.Unmarshal(msg.Payload, &event); err != nil {
		cs.sysLogger.Error("consumer", "failed to unmarshal turn event", map[string]interface{}{
			"error": err.Error(),
		})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	cs.sysLogger.Info("usage", "turn completed", map[string]interface{}{
		"session_id":     event.SessionId,
		"answer_length":  event.AnswerLength,
		"retrieved_ids":  event.RetrievedIds,
		"guidance_count": event.GuidanceCount,
		"degraded":       event.Degraded,
		"streamed":       event.Streamed,
	})
	msg.Ack()
}
