package application_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adelipop59/super-try-api-sub002/internal/application"
	"github.com/Adelipop59/super-try-api-sub002/internal/domain"
	"github.com/Adelipop59/super-try-api-sub002/internal/ports"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// rendezvousSessions holds the first two armed GetByID callers until both
// have read, so their writes race on the same snapshot.
type rendezvousSessions struct {
	ports.SessionRepository
	armed   atomic.Bool
	arrived atomic.Int32
	both    sync.WaitGroup
}

func newRendezvousSessions(inner ports.SessionRepository) *rendezvousSessions {
	r := &rendezvousSessions{SessionRepository: inner}
	r.both.Add(2)
	return r
}

func (r *rendezvousSessions) GetByID(ctx context.Context, id uuid.UUID) (domain.Session, error) {
	session, err := r.SessionRepository.GetByID(ctx, id)
	if !r.armed.Load() || r.arrived.Add(1) > 2 {
		return session, err
	}
	r.both.Done()
	done := make(chan struct{})
	go func() {
		r.both.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}
	return session, err
}

func TestConcurrentAcceptReservesOneSlot(t *testing.T) {
	t.Parallel()

	var gate *rendezvousSessions
	f := newFixture(t, withSessions(func(inner ports.SessionRepository) ports.SessionRepository {
		gate = newRendezvousSessions(inner)
		return gate
	}))
	seller := f.seller(t)
	tester := f.tester(t)
	spec := defaultCampaignSpec()
	spec.slots = 3
	campaign := f.activeCampaign(t, seller, spec)

	session, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)
	require.Equal(t, domain.SessionStatusPending, session.Status)

	gate.armed.Store(true)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = f.service.AcceptSession(f.ctx, seller, session.SessionID)
		}(i)
	}
	wg.Wait()

	var accepted, conflicts int
	for _, err := range errs {
		switch {
		case err == nil:
			accepted++
		case errors.Is(err, domain.ErrConflict):
			conflicts++
		default:
			t.Fatalf("unexpected accept error: %v", err)
		}
	}
	assert.Equal(t, 1, accepted)
	assert.Equal(t, 1, conflicts)

	got, err := f.service.GetCampaign(f.ctx, seller, campaign.CampaignID)
	require.NoError(t, err)
	assert.Equal(t, 2, got.AvailableSlots, "the losing accept must release its slot")

	stored, err := f.repos.Sessions.GetByID(f.ctx, session.SessionID)
	require.NoError(t, err)
	assert.Equal(t, domain.SessionStatusAccepted, stored.Status)
}

func TestStaleSessionWriteIsConflict(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	seller := f.seller(t)
	tester := f.tester(t)
	campaign := f.activeCampaign(t, seller, defaultCampaignSpec())
	session, err := f.service.ApplyToCampaign(f.ctx, tester, campaign.CampaignID, application.ApplyInput{})
	require.NoError(t, err)

	stale := session
	_, err = f.service.RejectSession(f.ctx, seller, session.SessionID, application.ReasonInput{Reason: "not a fit"})
	require.NoError(t, err)

	stale.Status = domain.SessionStatusAccepted
	err = f.repos.Sessions.Update(f.ctx, stale, domain.SessionStatusPending)
	assert.ErrorIs(t, err, domain.ErrConflict)

	stale.SessionID = uuid.New()
	err = f.repos.Sessions.Update(f.ctx, stale, domain.SessionStatusPending)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
