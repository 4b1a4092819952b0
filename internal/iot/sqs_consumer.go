package iot

import (
	"context"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"
	"github.com/rs/zerolog"
)

// SQSAPI is the part of the SQS client the consumer needs.
type SQSAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// MessageHandler processes one message body. A nil error deletes the
// message; anything else leaves it for redelivery after the visibility timeout.
type MessageHandler interface {
	HandleDeviceMessage(ctx context.Context, body string) error
}

type SQSConsumer struct {
	sqsClient  SQSAPI
	queueURL   string
	handler    MessageHandler
	retryDelay time.Duration
	logger     zerolog.Logger
}

func NewSQSConsumer(client SQSAPI, queueURL string, handler MessageHandler, logger zerolog.Logger) *SQSConsumer {
	return &SQSConsumer{
		sqsClient:  client,
		queueURL:   queueURL,
		handler:    handler,
		retryDelay: 5 * time.Second,
		logger:     logger.With().Str("component", "sqs_consumer").Str("queue", queueURL).Logger(),
	}
}

// Start long-polls the queue until ctx is cancelled.
func (c *SQSConsumer) Start(ctx context.Context) {
	c.logger.Info().Msg("sqs consumer started")
	for {
		select {
		case <-ctx.Done():
			c.logger.Info().Msg("sqs consumer stopped")
			return
		default:
		}

		if err := c.poll(ctx); err != nil {
			if ctx.Err() != nil {
				c.logger.Info().Msg("sqs consumer stopped")
				return
			}
			c.logger.Error().Err(err).Dur("retry_in", c.retryDelay).Msg("receive failed")
			select {
			case <-time.After(c.retryDelay):
			case <-ctx.Done():
				c.logger.Info().Msg("sqs consumer stopped while waiting for retry")
				return
			}
		}
	}
}

// poll receives one batch and processes it.
func (c *SQSConsumer) poll(ctx context.Context) error {
	result, err := c.sqsClient.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(c.queueURL),
		MaxNumberOfMessages: 10,
		WaitTimeSeconds:     20,
		VisibilityTimeout:   60,
	})
	if err != nil {
		return err
	}
	if len(result.Messages) == 0 {
		return nil
	}

	c.logger.Debug().Int("count", len(result.Messages)).Msg("messages received")
	for _, message := range result.Messages {
		c.process(ctx, message)
	}
	return nil
}

func (c *SQSConsumer) process(ctx context.Context, message types.Message) {
	messageID := aws.ToString(message.MessageId)
	if message.Body == nil {
		c.logger.Warn().Str("message_id", messageID).Msg("empty message body, deleting")
		c.deleteMessage(ctx, message.ReceiptHandle)
		return
	}

	if err := c.handler.HandleDeviceMessage(ctx, *message.Body); err != nil {
		c.logger.Error().Err(err).Str("message_id", messageID).Msg("processing failed, message will be redelivered")
		return
	}
	c.deleteMessage(ctx, message.ReceiptHandle)
}

func (c *SQSConsumer) deleteMessage(ctx context.Context, receiptHandle *string) {
	if receiptHandle == nil {
		c.logger.Warn().Msg("missing receipt handle, cannot delete message")
		return
	}
	_, err := c.sqsClient.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(c.queueURL),
		ReceiptHandle: receiptHandle,
	})
	if err != nil {
		c.logger.Error().Err(err).Msg("delete message failed")
	}
}
