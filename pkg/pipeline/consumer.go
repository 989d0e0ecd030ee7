package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-ops-agent/pkg/queue"
)

// ConsumerConfig holds configuration for a Consumer.
type ConsumerConfig struct {
	// PollInterval is how long the loop sleeps after an empty batch or a
	// transient receive error. The long-poll wait inside Receive already
	// throttles the common case; this guards against hammering the queue
	// when it errors or returns immediately.
	PollInterval time.Duration
}

// Consumer runs the long-poll receive loop against a queue.Source and hands
// messages to the worker pool over an unbuffered channel. The unbuffered
// hand-off is what bounds intake: a full batch received while every worker is
// busy waits in the loop, invisible to other queue consumers because its
// visibility lease is already running.
type Consumer struct {
	cfg        ConsumerConfig
	source     queue.Source
	logger     zerolog.Logger
	outputChan chan queue.Message
	stopOnce   sync.Once
	cancelPoll context.CancelFunc
	doneChan   chan struct{}
}

// NewConsumer creates a Consumer for the given queue source.
func NewConsumer(cfg ConsumerConfig, source queue.Source, logger zerolog.Logger) (*Consumer, error) {
	if source == nil {
		return nil, fmt.Errorf("queue source cannot be nil")
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	return &Consumer{
		cfg:        cfg,
		source:     source,
		logger:     logger.With().Str("component", "Consumer").Logger(),
		outputChan: make(chan queue.Message),
		doneChan:   make(chan struct{}),
	}, nil
}

// Messages returns the channel workers receive from. It is closed once the
// poll loop has fully stopped.
func (c *Consumer) Messages() <-chan queue.Message { return c.outputChan }

// Done returns a channel that is closed when the poll loop has exited.
func (c *Consumer) Done() <-chan struct{} { return c.doneChan }

// Start launches the poll loop in a background goroutine.
func (c *Consumer) Start(ctx context.Context) error {
	pollCtx, cancel := context.WithCancel(ctx)
	c.cancelPoll = cancel

	go func() {
		defer close(c.doneChan)
		defer close(c.outputChan)
		defer c.logger.Info().Msg("Poll loop stopped.")

		c.logger.Info().Msg("Poll loop started.")
		for {
			if pollCtx.Err() != nil {
				return
			}

			messages, err := c.source.Receive(pollCtx)
			if err != nil {
				if pollCtx.Err() != nil {
					return
				}
				// Transient by policy: log, back off, retry. Never fatal.
				c.logger.Error().Err(err).Msg("Receive failed, backing off.")
				c.sleep(pollCtx)
				continue
			}

			if len(messages) == 0 {
				c.sleep(pollCtx)
				continue
			}

			c.logger.Info().Int("count", len(messages)).Msg("Received batch from queue.")
			for _, msg := range messages {
				select {
				case c.outputChan <- msg:
				case <-pollCtx.Done():
					// Undispatched messages stay leased and will be
					// redelivered once their visibility window expires.
					c.logger.Warn().Str("msg_id", msg.ID).Msg("Shutdown in progress, abandoning undispatched message.")
					return
				}
			}
		}
	}()
	return nil
}

// Stop halts the poll loop and waits for it to exit, bounded by ctx.
func (c *Consumer) Stop(ctx context.Context) error {
	var err error
	c.stopOnce.Do(func() {
		c.logger.Info().Msg("Stopping poll loop...")
		if c.cancelPoll != nil {
			c.cancelPoll()
		}
		select {
		case <-c.doneChan:
		case <-ctx.Done():
			err = ctx.Err()
		}
	})
	return err
}

func (c *Consumer) sleep(ctx context.Context) {
	select {
	case <-ctx.Done():
	case <-time.After(c.cfg.PollInterval):
	}
}
