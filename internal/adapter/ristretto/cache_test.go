package ristretto_test

import (
	"context"
	"testing"
	"time"

	"github.com/benchwise/toolrec/internal/adapter/ristretto"
)

func newCache(t *testing.T) *ristretto.Cache {
	t.Helper()
	c, err := ristretto.New(1 << 20)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)
	return c
}

func TestSetGetDelete(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), time.Minute); err != nil {
		t.Fatal(err)
	}
	val, found, err := c.Get(ctx, "k")
	if err != nil || !found {
		t.Fatalf("expected hit, got found=%v err=%v", found, err)
	}
	if string(val) != "v" {
		t.Fatalf("expected v, got %s", val)
	}

	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "k"); found {
		t.Fatal("expected miss after delete")
	}
}

func TestExpiredEntryIsAMiss(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	if err := c.Set(ctx, "k", []byte("v"), 10*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	time.Sleep(50 * time.Millisecond)

	if _, found, _ := c.Get(ctx, "k"); found {
		t.Fatal("expected miss after TTL expiry")
	}
}

func TestClearDropsAllEntries(t *testing.T) {
	c := newCache(t)
	ctx := context.Background()

	_ = c.Set(ctx, "a", []byte("1"), time.Minute)
	_ = c.Set(ctx, "b", []byte("2"), time.Minute)
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}
	if _, found, _ := c.Get(ctx, "a"); found {
		t.Fatal("expected miss after clear")
	}
	if _, found, _ := c.Get(ctx, "b"); found {
		t.Fatal("expected miss after clear")
	}
}
