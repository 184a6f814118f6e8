package testutil

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/scharissis/coh3-replay-analyser/internal/archive"
)

func NewStore(t *testing.T) (*archive.Store, context.Context) {
	t.Helper()
	ctx := context.Background()
	store, err := archive.Open(ctx, filepath.Join(t.TempDir(), "coh3-test.db"))
	if err != nil {
		t.Fatalf("open test store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	if err := archive.ApplyMigrations(ctx, store.DB()); err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	return store, ctx
}
