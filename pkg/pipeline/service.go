package pipeline

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/illmade-knight/go-ops-agent/pkg/queue"
)

// MarkerStore records which message IDs have already been executed. It is a
// best-effort guard against re-executing side effects when a crash between
// execute and delete causes the queue to redeliver: store errors are logged
// and treated as "not seen".
type MarkerStore interface {
	Seen(ctx context.Context, id string) (bool, error)
	Mark(ctx context.Context, id string) error
}

// ServiceConfig holds configuration for a Service.
type ServiceConfig struct {
	// NumWorkers bounds the number of concurrently executing requests.
	NumWorkers int
}

// Service is the worker pool. It drives each message through decode,
// execute, delete, and routing, with at most NumWorkers requests in flight.
//
// Every message is deleted exactly once after its attempt, regardless of the
// processing outcome. The processor's work is not cheaply idempotent, so a
// redelivery-on-failure policy would risk duplicate side effects; the queue's
// visibility-expiry redelivery remains the only retry path and only matters
// if the process dies before the delete.
type Service struct {
	cfg       ServiceConfig
	consumer  *Consumer
	source    queue.Source
	processor Processor
	router    ResultRouter
	markers   MarkerStore
	logger    zerolog.Logger
	wg        sync.WaitGroup
	workCtx   context.Context
}

// NewService creates the worker pool. markers may be nil to disable the
// redelivery guard.
func NewService(
	cfg ServiceConfig,
	consumer *Consumer,
	source queue.Source,
	processor Processor,
	router ResultRouter,
	markers MarkerStore,
	logger zerolog.Logger,
) (*Service, error) {
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 5
	}
	if consumer == nil {
		return nil, fmt.Errorf("consumer cannot be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("queue source cannot be nil")
	}
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}
	if router == nil {
		return nil, fmt.Errorf("result router cannot be nil")
	}
	return &Service{
		cfg:       cfg,
		consumer:  consumer,
		source:    source,
		processor: processor,
		router:    router,
		markers:   markers,
		logger:    logger.With().Str("service", "Pipeline").Logger(),
	}, nil
}

// Start begins consumption and spawns the worker pool.
func (s *Service) Start(ctx context.Context) error {
	s.logger.Info().Msg("Starting pipeline service...")

	// Workers deliberately outlive ctx: a shutdown signal stops new intake
	// but never cancels an in-flight execute or sink call.
	s.workCtx = context.WithoutCancel(ctx)

	if err := s.consumer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start consumer: %w", err)
	}

	s.logger.Info().Int("worker_count", s.cfg.NumWorkers).Msg("Starting workers...")
	s.wg.Add(s.cfg.NumWorkers)
	for i := 0; i < s.cfg.NumWorkers; i++ {
		go s.worker(i)
	}

	s.logger.Info().Msg("Pipeline service started.")
	return nil
}

// Stop drains the pool: the consumer stops issuing receives, then Stop waits
// for every in-flight worker to finish, bounded only by ctx. Callers that
// want the drain to prioritize completion over shutdown speed pass an
// uncancellable context.
func (s *Service) Stop(ctx context.Context) error {
	s.logger.Info().Msg("Stopping pipeline service...")

	if err := s.consumer.Stop(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Error stopping consumer, continuing shutdown.")
	}

	workersDone := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(workersDone)
	}()

	select {
	case <-workersDone:
		s.logger.Info().Msg("All workers completed gracefully.")
	case <-ctx.Done():
		s.logger.Error().Err(ctx.Err()).Msg("Gave up waiting for workers to finish.")
		return ctx.Err()
	}

	s.logger.Info().Msg("Pipeline service stopped.")
	return nil
}

// worker owns one message end to end per iteration. It exits when the
// consumer channel closes, which only happens after the poll loop stops.
func (s *Service) worker(workerID int) {
	defer s.wg.Done()
	s.logger.Debug().Int("worker_id", workerID).Msg("Worker started.")
	for msg := range s.consumer.Messages() {
		s.handleMessage(s.workCtx, msg, workerID)
	}
	s.logger.Debug().Int("worker_id", workerID).Msg("Worker exiting.")
}

// handleMessage runs the per-message pipeline: dedupe check, decode, execute,
// delete, route. The delete happens before routing so a slow or failing sink
// can never extend the redelivery race window.
func (s *Service) handleMessage(ctx context.Context, msg queue.Message, workerID int) {
	log := s.logger.With().Int("worker_id", workerID).Str("msg_id", msg.ID).Logger()

	if s.alreadyProcessed(ctx, msg.ID, log) {
		log.Warn().Msg("Message already executed, deleting redelivered copy without reprocessing.")
		s.deleteMessage(ctx, msg, log)
		return
	}

	req, err := DecodeRequest(msg)
	if err != nil {
		// Poison: can never become valid, so no redelivery and no routing
		// because there is no reliable callback target.
		log.Error().Err(err).Msg("Undecodable message, deleting without processing.")
		s.deleteMessage(ctx, msg, log)
		return
	}

	log.Info().Str("source", string(req.Source)).Msg("Executing request.")
	res := s.execute(ctx, req, log)

	if s.markers != nil {
		if err := s.markers.Mark(ctx, msg.ID); err != nil {
			log.Warn().Err(err).Msg("Failed to mark message as processed.")
		}
	}

	s.deleteMessage(ctx, msg, log)
	s.router.Deliver(ctx, req, res)

	if res.Success {
		log.Info().Msg("Request completed.")
	} else {
		log.Error().Str("error", res.Err).Msg("Request failed.")
	}
}

// execute invokes the processor, converting a returned error or a panic into
// a failed Result so the message is still deleted and its outcome routed.
func (s *Service) execute(ctx context.Context, req *Request, log zerolog.Logger) (res Result) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Processor panicked.")
			res = Failure(fmt.Sprintf("processor panic: %v", r))
		}
	}()

	res, err := s.processor.Execute(ctx, req)
	if err != nil {
		return Failure(err.Error())
	}
	return res
}

func (s *Service) alreadyProcessed(ctx context.Context, id string, log zerolog.Logger) bool {
	if s.markers == nil || id == "" {
		return false
	}
	seen, err := s.markers.Seen(ctx, id)
	if err != nil {
		log.Warn().Err(err).Msg("Marker store lookup failed, treating message as unseen.")
		return false
	}
	return seen
}

// deleteMessage acknowledges the delivery. Failures are logged and swallowed:
// an expired receipt handle means the message may already be back in flight.
func (s *Service) deleteMessage(ctx context.Context, msg queue.Message, log zerolog.Logger) {
	if err := s.source.Delete(ctx, msg.ReceiptHandle); err != nil {
		log.Warn().Err(err).Msg("Failed to delete message from queue.")
		return
	}
	log.Debug().Msg("Message deleted from queue.")
}
