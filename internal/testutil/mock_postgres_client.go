package testutil

import (
	"context"
	"sync"

	"github.com/branchschool/installments/internal/logger"
	"github.com/branchschool/installments/internal/postgres"
)

var _ postgres.IClient = (*MockPostgresClient)(nil)

type mockTxKey struct{}

// MockPostgresClient stands in for the database transaction boundary.
// Transactions run one at a time, which gives callers the same exclusion a
// row lock would, and every registered store is rolled back when fn fails.
type MockPostgresClient struct {
	mu     sync.Mutex
	stores []Snapshotter
	logger *logger.Logger
}

// NewMockPostgresClient creates a client that rolls back the given stores
func NewMockPostgresClient(logger *logger.Logger, stores ...Snapshotter) *MockPostgresClient {
	return &MockPostgresClient{
		stores: stores,
		logger: logger,
	}
}

// WithTx executes fn within a transaction. Nested calls behave like
// savepoints: their failure rolls back only their own writes.
func (c *MockPostgresClient) WithTx(ctx context.Context, fn func(context.Context) error) error {
	if InMockTx(ctx) {
		return c.run(ctx, fn)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	return c.run(context.WithValue(ctx, mockTxKey{}, true), fn)
}

func (c *MockPostgresClient) run(ctx context.Context, fn func(context.Context) error) (err error) {
	snapshots := make([]any, len(c.stores))
	for i, store := range c.stores {
		snapshots[i] = store.Snapshot()
	}

	defer func() {
		if p := recover(); p != nil {
			c.rollback(snapshots)
			panic(p)
		}
		if err != nil {
			c.logger.Debugw("rolling back mock transaction", "error", err)
			c.rollback(snapshots)
		}
	}()

	return fn(ctx)
}

func (c *MockPostgresClient) rollback(snapshots []any) {
	for i, store := range c.stores {
		store.Restore(snapshots[i])
	}
}

// InMockTx reports whether ctx carries a MockPostgresClient transaction
func InMockTx(ctx context.Context) bool {
	inTx, _ := ctx.Value(mockTxKey{}).(bool)
	return inTx
}
