package memory_test

import (
	"testing"

	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/memory"
	"github.com/Adelipop59/super-try-api-sub002/internal/adapters/storetest"
)

func TestMemoryStoreContract(t *testing.T) {
	repos := memory.NewRepositories()
	storetest.Run(t, storetest.Stores{
		Users:       repos.Users,
		Categories:  repos.Categories,
		Campaigns:   repos.Campaigns,
		Wallets:     repos.Wallets,
		Withdrawals: repos.Withdrawals,
		Outbox:      repos.Outbox,
		EventDedup:  repos.EventDedup,
		Idempotency: repos.Idempotency,
	})
	if n := repos.Outbox.Pending(); n != 1 {
		t.Fatalf("expected one unpublished outbox row, got %d", n)
	}
}
