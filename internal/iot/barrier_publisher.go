package iot

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iotdataplane"
	"github.com/rs/zerolog"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
)

const barrierTopicFormat = "plate_gate/command/barriers/%s"

// IoTDataAPI is the part of the IoT data plane client used for publishing.
type IoTDataAPI interface {
	Publish(ctx context.Context, params *iotdataplane.PublishInput, optFns ...func(*iotdataplane.Options)) (*iotdataplane.PublishOutput, error)
}

type BarrierPublisher struct {
	client IoTDataAPI
	logger zerolog.Logger
}

func NewBarrierPublisher(client IoTDataAPI, logger zerolog.Logger) *BarrierPublisher {
	return &BarrierPublisher{
		client: client,
		logger: logger.With().Str("component", "barrier_publisher").Logger(),
	}
}

func BarrierTopic(direction domain.GateDirection) string {
	return fmt.Sprintf(barrierTopicFormat, direction)
}

// PublishBarrierCommand sends payload with QoS 1 to the barrier of the given gate.
func (p *BarrierPublisher) PublishBarrierCommand(ctx context.Context, direction domain.GateDirection, payload domain.BarrierCommandPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal barrier command: %w", err)
	}

	topic := BarrierTopic(direction)
	_, err = p.client.Publish(ctx, &iotdataplane.PublishInput{
		Topic:   aws.String(topic),
		Qos:     1,
		Payload: body,
	})
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	p.logger.Info().
		Str("topic", topic).
		Str("command", payload.Command).
		Str("request_id", payload.RequestID).
		Str("event_id", payload.EventID).
		Msg("barrier command published")
	return nil
}
