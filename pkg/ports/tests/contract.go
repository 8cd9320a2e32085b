package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aretw0/lathe/pkg/ports"
)

// LockerContractTest is a reusable test suite that verifies if an adapter complies with ports.DistributedLocker.
func LockerContractTest(t *testing.T, locker ports.DistributedLocker) {
	t.Helper()

	t.Run("Lock_Unlock", func(t *testing.T) {
		unlock, err := locker.Lock(context.Background(), "contract-a", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error acquiring lock: %v", err)
		}
		if err := unlock(context.Background()); err != nil {
			t.Fatalf("unexpected error releasing lock: %v", err)
		}

		// Released locks can be taken again.
		unlock, err = locker.Lock(context.Background(), "contract-a", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error re-acquiring lock: %v", err)
		}
		_ = unlock(context.Background())
	})

	t.Run("Lock_BlocksUntilContextDone", func(t *testing.T) {
		unlock, err := locker.Lock(context.Background(), "contract-b", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error acquiring lock: %v", err)
		}
		defer func() { _ = unlock(context.Background()) }()

		ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
		defer cancel()
		if _, err := locker.Lock(ctx, "contract-b", time.Minute); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("expected context.DeadlineExceeded while held, got %v", err)
		}
	})

	t.Run("Lock_IndependentKeys", func(t *testing.T) {
		u1, err := locker.Lock(context.Background(), "contract-c1", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		defer func() { _ = u1(context.Background()) }()

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		u2, err := locker.Lock(ctx, "contract-c2", time.Minute)
		if err != nil {
			t.Fatalf("different key should not block: %v", err)
		}
		_ = u2(context.Background())
	})

	t.Run("Lock_WaiterAcquiresAfterRelease", func(t *testing.T) {
		unlock, err := locker.Lock(context.Background(), "contract-d", time.Minute)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		acquired := make(chan error, 1)
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			u, err := locker.Lock(ctx, "contract-d", time.Minute)
			if err == nil {
				_ = u(context.Background())
			}
			acquired <- err
		}()

		time.Sleep(50 * time.Millisecond)
		_ = unlock(context.Background())

		if err := <-acquired; err != nil {
			t.Errorf("waiter failed to acquire after release: %v", err)
		}
	})
}
