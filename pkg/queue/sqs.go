package queue

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/rs/zerolog"
)

// sqsAPI is the narrow slice of the SQS client used by SQSSource. Tests
// substitute a fake; production passes *sqs.Client.
type sqsAPI interface {
	ReceiveMessage(ctx context.Context, params *sqs.ReceiveMessageInput, optFns ...func(*sqs.Options)) (*sqs.ReceiveMessageOutput, error)
	DeleteMessage(ctx context.Context, params *sqs.DeleteMessageInput, optFns ...func(*sqs.Options)) (*sqs.DeleteMessageOutput, error)
}

// SQSConfig holds the configuration for an SQSSource.
type SQSConfig struct {
	QueueURL string

	// MaxMessages is the receive batch ceiling. SQS allows at most 10.
	MaxMessages int32

	// WaitSeconds is the long-poll wait. SQS allows at most 20.
	WaitSeconds int32

	// VisibilitySeconds is the exclusivity window on each received message.
	// Exceeding it without a delete causes redelivery; that redelivery is the
	// queue's only retry mechanism and this package adds no other.
	VisibilitySeconds int32
}

func (c *SQSConfig) validate() error {
	if c.QueueURL == "" {
		return fmt.Errorf("queue URL cannot be empty")
	}
	if c.MaxMessages < 1 || c.MaxMessages > 10 {
		return fmt.Errorf("max messages must be between 1 and 10, got %d", c.MaxMessages)
	}
	if c.WaitSeconds < 0 || c.WaitSeconds > 20 {
		return fmt.Errorf("wait seconds must be between 0 and 20, got %d", c.WaitSeconds)
	}
	if c.VisibilitySeconds <= 0 {
		return fmt.Errorf("visibility seconds must be positive, got %d", c.VisibilitySeconds)
	}
	return nil
}

// SQSSource implements Source on top of Amazon SQS. The underlying client is
// safe for concurrent use, so a single SQSSource may be shared by the poll
// loop and every worker issuing deletes.
type SQSSource struct {
	client sqsAPI
	cfg    SQSConfig
	logger zerolog.Logger
}

// NewSQSSource creates a Source bound to one queue.
func NewSQSSource(cfg SQSConfig, client sqsAPI, logger zerolog.Logger) (*SQSSource, error) {
	if client == nil {
		return nil, fmt.Errorf("sqs client cannot be nil")
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid sqs config: %w", err)
	}
	return &SQSSource{
		client: client,
		cfg:    cfg,
		logger: logger.With().Str("component", "SQSSource").Str("queue_url", cfg.QueueURL).Logger(),
	}, nil
}

// Receive long-polls the queue for up to WaitSeconds and returns at most
// MaxMessages messages, each leased for VisibilitySeconds.
func (s *SQSSource) Receive(ctx context.Context) ([]Message, error) {
	out, err := s.client.ReceiveMessage(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(s.cfg.QueueURL),
		MaxNumberOfMessages: s.cfg.MaxMessages,
		WaitTimeSeconds:     s.cfg.WaitSeconds,
		VisibilityTimeout:   s.cfg.VisibilitySeconds,
	})
	if err != nil {
		return nil, fmt.Errorf("sqs receive: %w", err)
	}

	messages := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		messages = append(messages, Message{
			ID:            aws.ToString(m.MessageId),
			ReceiptHandle: aws.ToString(m.ReceiptHandle),
			Body:          aws.ToString(m.Body),
		})
	}
	if len(messages) > 0 {
		s.logger.Debug().Int("count", len(messages)).Msg("Received messages from queue.")
	}
	return messages, nil
}

// Delete removes a delivery from the queue.
func (s *SQSSource) Delete(ctx context.Context, receiptHandle string) error {
	_, err := s.client.DeleteMessage(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(s.cfg.QueueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("sqs delete: %w", err)
	}
	return nil
}
