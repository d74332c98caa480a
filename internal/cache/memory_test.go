package cache

import (
	"context"
	"testing"
	"time"
)

func TestMemory_SetGetDelete(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	if err := c.Set(ctx, "events:list:v1:all", []byte(`[]`)); err != nil {
		t.Fatalf("set: %v", err)
	}

	got, ok, err := c.Get(ctx, "events:list:v1:all")
	if err != nil || !ok {
		t.Fatalf("expected hit, ok=%v err=%v", ok, err)
	}
	if string(got) != "[]" {
		t.Fatalf("got %q", got)
	}

	if err := c.Delete(ctx, "events:list:v1:all", "missing"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, ok, _ := c.Get(ctx, "events:list:v1:all"); ok {
		t.Fatalf("expected miss after delete")
	}
}

func TestMemory_Expires(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Second)

	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	_ = c.Set(ctx, "k", []byte("v"))

	now = now.Add(2 * time.Second)

	if _, ok, _ := c.Get(ctx, "k"); ok {
		t.Fatalf("expected entry to expire")
	}
}

func TestMemory_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemory(time.Minute)

	val := []byte("abc")
	_ = c.Set(ctx, "k", val)
	val[0] = 'x'

	got, _, _ := c.Get(ctx, "k")
	if string(got) != "abc" {
		t.Fatalf("cache must not alias caller buffers, got %q", got)
	}
}

func TestMemory_RejectsEmptyKey(t *testing.T) {
	if err := NewMemory(0).Set(context.Background(), "", nil); err != ErrEmptyKey {
		t.Fatalf("expected ErrEmptyKey, got %v", err)
	}
}
