package events

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/memory"
	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type recordingPublisher struct {
	mu       sync.Mutex
	failType string
	sent     []string
}

func (p *recordingPublisher) Publish(_ context.Context, eventType string, _ []byte, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if eventType == p.failType {
		return errors.New("broker unavailable")
	}
	p.sent = append(p.sent, eventType)
	return nil
}

type recordingHandler struct {
	mu      sync.Mutex
	failOn  string
	handled []string
	keys    []string
}

func (h *recordingHandler) HandleDomainEvent(_ context.Context, eventType, partitionKey string, _ []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if eventType == h.failOn {
		return fmt.Errorf("%w: bad envelope", domain.ErrInvalidInput)
	}
	h.handled = append(h.handled, eventType)
	h.keys = append(h.keys, partitionKey)
	return nil
}

type sliceConsumer struct {
	mu   sync.Mutex
	msgs []Message
}

func (c *sliceConsumer) Poll(_ context.Context, max int) ([]Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := min(max, len(c.msgs))
	out := c.msgs[:n]
	c.msgs = c.msgs[n:]
	return out, nil
}

func enqueue(t *testing.T, outbox ports.OutboxRepository, eventType string) uuid.UUID {
	t.Helper()
	id := uuid.New()
	err := outbox.Enqueue(context.Background(), ports.OutboxEvent{
		EventID: id, EventType: eventType, PartitionKey: id.String(),
		Payload: []byte(`{}`), OccurredAt: time.Now().UTC(),
	})
	require.NoError(t, err)
	return id
}

func TestOutboxWorkerKeepsFailedRecordsForRetry(t *testing.T) {
	repos := memory.NewRepositories()
	failing := enqueue(t, repos.Outbox, domain.EventWithdrawalRequested)
	enqueue(t, repos.Outbox, domain.EventSessionApplied)

	pub := &recordingPublisher{failType: domain.EventWithdrawalRequested}
	worker := NewOutboxWorker(discardLogger(), repos.Outbox, pub, time.Millisecond, 10)

	published, err := worker.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Equal(t, []string{domain.EventSessionApplied}, pub.sent)

	pending, err := repos.Outbox.FetchUnpublished(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, failing, pending[0].OutboxID)
	assert.Equal(t, 1, pending[0].RetryCount)

	pub.failType = ""
	published, err = worker.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, published)
	assert.Zero(t, repos.Outbox.Pending())
}

func TestOutboxWorkerStopsOnCancelledContext(t *testing.T) {
	repos := memory.NewRepositories()
	enqueue(t, repos.Outbox, domain.EventSessionApplied)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	worker := NewOutboxWorker(discardLogger(), repos.Outbox, &recordingPublisher{}, time.Millisecond, 10)
	_, err := worker.ProcessOnce(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, repos.Outbox.Pending())
}

func TestConsumerWorkerSkipsPoisonMessages(t *testing.T) {
	consumer := &sliceConsumer{msgs: []Message{
		{Topic: domain.EventSessionApplied, Key: "a"},
		{Topic: "poison", Key: "b"},
		{Topic: domain.EventSessionAccepted, Key: "a"},
	}}
	handler := &recordingHandler{failOn: "poison"}
	worker := NewConsumerWorker(discardLogger(), consumer, handler, time.Millisecond)

	handled, err := worker.ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, handled)
	assert.Equal(t, []string{domain.EventSessionApplied, domain.EventSessionAccepted}, handler.handled)
	assert.Equal(t, []string{"a", "a"}, handler.keys, "message keys reach the handler")

	handled, err = NewConsumerWorker(discardLogger(), NewNoopConsumer(), handler, 0).ProcessOnce(context.Background())
	require.NoError(t, err)
	assert.Zero(t, handled)
}

func TestDispatchPublisherOnlyForwardsSubscribedTopics(t *testing.T) {
	handler := &recordingHandler{}
	pub := NewDispatchPublisher(discardLogger(), handler, []string{domain.EventDisputeOpened})

	require.NoError(t, pub.Publish(context.Background(), domain.EventDisputeOpened, []byte(`{}`), "k"))
	require.NoError(t, pub.Publish(context.Background(), domain.EventUserRegistered, []byte(`{}`), "k"))
	assert.Equal(t, []string{domain.EventDisputeOpened}, handler.handled)
	assert.Equal(t, []string{"k"}, handler.keys)

	require.NoError(t, NewLoggingPublisher(discardLogger()).Publish(context.Background(), domain.EventUserRegistered, nil, "k"))
}

type countingMaintainer struct {
	sweeps      atomic.Int32
	withdrawals atomic.Int32
}

func (m *countingMaintainer) Sweep(context.Context) (application.SweepReport, error) {
	m.sweeps.Add(1)
	return application.SweepReport{}, nil
}

func (m *countingMaintainer) ProcessPendingWithdrawals(context.Context, int) (application.WithdrawalBatchReport, error) {
	m.withdrawals.Add(1)
	return application.WithdrawalBatchReport{Processed: 1, Completed: 1}, nil
}

func TestSweepWorkerRunsPayoutsOnlyWhenEnabled(t *testing.T) {
	ctx := context.Background()

	manual := &countingMaintainer{}
	require.NoError(t, NewSweepWorker(discardLogger(), manual, 0, false, 0).processOnce(ctx))
	assert.EqualValues(t, 1, manual.sweeps.Load())
	assert.Zero(t, manual.withdrawals.Load())

	auto := &countingMaintainer{}
	require.NoError(t, NewSweepWorker(discardLogger(), auto, 0, true, 5).processOnce(ctx))
	assert.EqualValues(t, 1, auto.withdrawals.Load())
}

func TestWorkersShutDownCleanly(t *testing.T) {
	repos := memory.NewRepositories()
	enqueue(t, repos.Outbox, domain.EventSessionApplied)
	handler := &recordingHandler{}
	maintainer := &countingMaintainer{}
	logger := discardLogger()

	ctx, cancel := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return NewOutboxWorker(logger, repos.Outbox, NewDispatchPublisher(logger, handler, domain.NotifiableEvents), 5*time.Millisecond, 10).Run(gctx)
	})
	g.Go(func() error {
		return NewConsumerWorker(logger, NewNoopConsumer(), handler, 5*time.Millisecond).Run(gctx)
	})
	g.Go(func() error {
		return NewSweepWorker(logger, maintainer, 5*time.Millisecond, false, 0).Run(gctx)
	})

	require.Eventually(t, func() bool {
		return maintainer.sweeps.Load() >= 2 && repos.Outbox.Pending() == 0
	}, 2*time.Second, 5*time.Millisecond)
	cancel()
	assert.ErrorIs(t, g.Wait(), context.Canceled)
}
