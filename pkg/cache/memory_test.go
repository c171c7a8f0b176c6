package cache

import (
	"context"
	"testing"
	"time"
)

type cachedTable struct {
	SellerID string `json:"seller_id"`
	Rows     int    `json:"rows"`
}

func TestMemoryRoundTrip(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := NewMemory()

	if err := mem.Put(ctx, "brackets:s1", cachedTable{SellerID: "s1", Rows: 3}, time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	var got cachedTable
	ok, err := mem.Get(ctx, "brackets:s1", &got)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if !ok || got.Rows != 3 {
		t.Fatalf("unexpected cached value: ok=%v got=%+v", ok, got)
	}
}

func TestMemoryMiss(t *testing.T) {
	t.Parallel()

	var got cachedTable
	ok, err := NewMemory().Get(context.Background(), "absent", &got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected miss for absent key")
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := NewMemory()
	current := time.Now()
	mem.now = func() time.Time { return current }

	if err := mem.Put(ctx, "rates:USD:MWK", "4000", time.Minute); err != nil {
		t.Fatalf("put failed: %v", err)
	}

	current = current.Add(2 * time.Minute)

	var got string
	ok, err := mem.Get(ctx, "rates:USD:MWK", &got)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Fatal("expected expired entry to miss")
	}
}

func TestMemoryInvalidatePrefix(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	mem := NewMemory()
	_ = mem.Put(ctx, "rates:USD:MWK", "4000", 0)
	_ = mem.Put(ctx, "rates:ZAR:MWK", "240", 0)
	_ = mem.Put(ctx, "brackets:s1", "[]", 0)

	if err := mem.InvalidatePrefix(ctx, "rates:"); err != nil {
		t.Fatalf("invalidate prefix failed: %v", err)
	}

	var got string
	if ok, _ := mem.Get(ctx, "rates:USD:MWK", &got); ok {
		t.Fatal("expected rates cleared")
	}
	if ok, _ := mem.Get(ctx, "brackets:s1", &got); !ok {
		t.Fatal("expected brackets to survive")
	}
}
