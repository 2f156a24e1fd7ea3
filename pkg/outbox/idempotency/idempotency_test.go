package idempotency

import (
	"context"
	"errors"
	"testing"
	"time"
)

type fakeStore struct {
	setNXResult bool
	setNXError  error
	lastKey     string
	lastTTL     time.Duration
	lastDeleted string
}

func (f *fakeStore) Get(context.Context, string) (string, error) {
	return "", nil
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	f.lastKey = key
	f.lastTTL = ttl
	return f.setNXResult, f.setNXError
}

func (f *fakeStore) IdempotencyKey(scope, id string) string {
	return "ks:idempotency:" + scope + ":" + id
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	if len(keys) > 0 {
		f.lastDeleted = keys[0]
	}
	return nil
}

func TestCheckAndMarkProcessed_FirstTime(t *testing.T) {
	store := &fakeStore{setNXResult: true}
	manager, err := NewManager(store, 24*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}

	already, err := manager.CheckAndMarkProcessed(context.Background(), "notifications", "evt-1")
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if already {
		t.Fatal("expected first call to return false")
	}
	if store.lastKey != "ks:idempotency:evt:processed:notifications:evt-1" {
		t.Fatalf("unexpected key: %q", store.lastKey)
	}
	if store.lastTTL != 24*time.Hour {
		t.Fatalf("unexpected ttl: %v", store.lastTTL)
	}
}

func TestCheckAndMarkProcessed_AlreadyProcessed(t *testing.T) {
	manager, err := NewManager(&fakeStore{setNXResult: false}, 12*time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	already, err := manager.CheckAndMarkProcessed(context.Background(), "notifications", "evt-1")
	if err != nil {
		t.Fatalf("CheckAndMarkProcessed: %v", err)
	}
	if !already {
		t.Fatal("expected already processed")
	}
}

func TestCheckAndMarkProcessed_Errors(t *testing.T) {
	manager, err := NewManager(&fakeStore{setNXError: errors.New("boom")}, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "notifications", "evt-1"); err == nil {
		t.Fatal("expected store error")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "", "evt-1"); err == nil {
		t.Fatal("expected missing consumer error")
	}
	if _, err := manager.CheckAndMarkProcessed(context.Background(), "notifications", " "); err == nil {
		t.Fatal("expected missing event id error")
	}
}

func TestRelease(t *testing.T) {
	store := &fakeStore{}
	manager, err := NewManager(store, time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	if err := manager.Release(context.Background(), "analytics", "evt-9"); err != nil {
		t.Fatalf("Release: %v", err)
	}
	if store.lastDeleted != "ks:idempotency:evt:processed:analytics:evt-9" {
		t.Fatalf("unexpected deleted key %q", store.lastDeleted)
	}
}
