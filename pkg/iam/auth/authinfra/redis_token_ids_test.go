package authinfra_test

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/roastery-dev/roastery/pkg/iam/auth/authinfra"
	"github.com/roastery-dev/roastery/pkg/kernel"
)

func newStorage(t *testing.T) (*authinfra.RedisRefreshTokenIDStorage, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return authinfra.NewRedisRefreshTokenIDStorage(client, time.Hour), mr
}

func TestInsertAndRotate(t *testing.T) {
	storage, _ := newStorage(t)
	ctx := context.Background()
	userID := kernel.NewUserID(1)

	if err := storage.Insert(ctx, userID, "id-1"); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	rotated, err := storage.Rotate(ctx, userID, "id-1", "id-2")
	if err != nil {
		t.Fatalf("Rotate() error: %v", err)
	}
	if !rotated {
		t.Fatal("Rotate() with the stored id reported no swap")
	}

	// The first id is spent now.
	rotated, err = storage.Rotate(ctx, userID, "id-1", "id-3")
	if err != nil {
		t.Fatalf("Rotate() error: %v", err)
	}
	if rotated {
		t.Fatal("Rotate() accepted a spent id")
	}

	// The current id still rotates.
	rotated, err = storage.Rotate(ctx, userID, "id-2", "id-3")
	if err != nil {
		t.Fatalf("Rotate() error: %v", err)
	}
	if !rotated {
		t.Fatal("Rotate() rejected the current id")
	}
}

func TestRotateLoserChangesNothing(t *testing.T) {
	storage, mr := newStorage(t)
	ctx := context.Background()
	userID := kernel.NewUserID(2)

	if err := storage.Insert(ctx, userID, "current"); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	rotated, err := storage.Rotate(ctx, userID, "stale", "should-not-land")
	if err != nil {
		t.Fatalf("Rotate() error: %v", err)
	}
	if rotated {
		t.Fatal("Rotate() with a stale id reported a swap")
	}

	stored, err := mr.Get("refresh-token:user-2")
	if err != nil {
		t.Fatalf("reading stored id: %v", err)
	}
	if stored != "current" {
		t.Errorf("stored id = %q, want %q after losing rotation", stored, "current")
	}
}

func TestInsertDisplacesPreviousID(t *testing.T) {
	storage, _ := newStorage(t)
	ctx := context.Background()
	userID := kernel.NewUserID(3)

	if err := storage.Insert(ctx, userID, "first"); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if err := storage.Insert(ctx, userID, "second"); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	rotated, err := storage.Rotate(ctx, userID, "first", "x")
	if err != nil {
		t.Fatalf("Rotate() error: %v", err)
	}
	if rotated {
		t.Fatal("an overwritten id still rotated")
	}
}

func TestRotateMissingKey(t *testing.T) {
	storage, _ := newStorage(t)

	rotated, err := storage.Rotate(context.Background(), kernel.NewUserID(404), "any", "next")
	if err != nil {
		t.Fatalf("Rotate() error: %v", err)
	}
	if rotated {
		t.Fatal("Rotate() swapped against a missing key")
	}
}

func TestInvalidate(t *testing.T) {
	storage, mr := newStorage(t)
	ctx := context.Background()
	userID := kernel.NewUserID(5)

	if err := storage.Insert(ctx, userID, "id"); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}
	if err := storage.Invalidate(ctx, userID); err != nil {
		t.Fatalf("Invalidate() error: %v", err)
	}
	if mr.Exists("refresh-token:user-5") {
		t.Fatal("Invalidate() left the key behind")
	}

	// Invalidating an absent key is not an error.
	if err := storage.Invalidate(ctx, userID); err != nil {
		t.Fatalf("Invalidate() on missing key error: %v", err)
	}
}

func TestStoredIDExpires(t *testing.T) {
	storage, mr := newStorage(t)
	ctx := context.Background()
	userID := kernel.NewUserID(6)

	if err := storage.Insert(ctx, userID, "id"); err != nil {
		t.Fatalf("Insert() error: %v", err)
	}

	mr.FastForward(2 * time.Hour)

	rotated, err := storage.Rotate(ctx, userID, "id", "next")
	if err != nil {
		t.Fatalf("Rotate() error: %v", err)
	}
	if rotated {
		t.Fatal("Rotate() accepted an expired id")
	}
}
