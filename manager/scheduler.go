package manager

import (
	"context"
	"errors"
	"time"

	"github.com/streamingfast/shutter"
	"go.uber.org/zap"

	"github.com/semiotic-ai/tap-core/eip712"
	"github.com/semiotic-ai/tap-core/receipt"
)

// AggregateClient is whatever transport a Scheduler uses to ship a RAV
// request to an Aggregator and get a countersigned RAV back. The Manager
// core never talks to an aggregator directly; transport wiring is left to
// whoever deploys it. Scheduler is the thin periodic-loop glue a real
// deployment provides an implementation of.
type AggregateClient[T receipt.Fields, R receipt.RAVFields] interface {
	Aggregate(ctx context.Context, request *RAVRequest[T, R]) (*eip712.SignedMessage[R], error)
}

// Scheduler periodically assembles a RAV request, ships it to an aggregator,
// verifies and stores the result, and evicts superseded receipts, folding a
// window of receipts into a single signed RAV on a timer. It embeds
// *shutter.Shutter for graceful stop.
type Scheduler[T receipt.Fields, R receipt.RAVFields] struct {
	*shutter.Shutter

	manager           *Manager[T, R]
	client            AggregateClient[T, R]
	interval          time.Duration
	timestampBufferNs uint64
	limit             uint64
	logger            *zap.Logger
}

// NewScheduler builds a Scheduler that runs CreateRAVRequest/VerifyAndStoreRAV
// every interval, using timestampBufferNs and limit as in CreateRAVRequest.
func NewScheduler[T receipt.Fields, R receipt.RAVFields](
	m *Manager[T, R],
	client AggregateClient[T, R],
	interval time.Duration,
	timestampBufferNs uint64,
	limit uint64,
	logger *zap.Logger,
) *Scheduler[T, R] {
	return &Scheduler[T, R]{
		Shutter:           shutter.New(),
		manager:           m,
		client:            client,
		interval:          interval,
		timestampBufferNs: timestampBufferNs,
		limit:             limit,
		logger:            logger,
	}
}

// Run starts the periodic assembly loop. It blocks until the Scheduler is
// shut down (via Shutdown or ctx cancellation).
func (s *Scheduler[T, R]) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Shutdown(ctx.Err())
			return
		case <-s.Terminating():
			return
		case <-ticker.C:
			if err := s.tick(ctx); err != nil && s.logger != nil {
				s.logger.Warn("RAV assembly tick failed", zap.Error(err))
			}
		}
	}
}

func (s *Scheduler[T, R]) tick(ctx context.Context) error {
	request, err := s.manager.CreateRAVRequest(ctx, nowUnixNano(), s.timestampBufferNs, s.limit)
	if err != nil {
		// A window with nothing in it is the normal idle case, not a
		// failure worth logging every interval.
		if errors.Is(err, receipt.ErrNoValidReceiptsForRAVRequest) {
			return nil
		}
		return err
	}

	signedRAV, err := s.client.Aggregate(ctx, request)
	if err != nil {
		return err
	}

	if err := s.manager.VerifyAndStoreRAV(ctx, request.ExpectedRAV, signedRAV); err != nil {
		return err
	}

	return s.manager.RemoveObsoleteReceipts(ctx)
}
