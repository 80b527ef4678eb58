package session

import (
	"context"
	"testing"
	"time"

	redislib "github.com/redis/go-redis/v9"
)

type fakeStore struct {
	values map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{values: map[string]string{}}
}

func (f *fakeStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	f.values[key] = value.(string)
	return nil
}

func (f *fakeStore) Get(_ context.Context, key string) (string, error) {
	v, ok := f.values[key]
	if !ok {
		return "", redislib.Nil
	}
	return v, nil
}

func (f *fakeStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.values, k)
	}
	return nil
}

type fakeKeyer struct{}

func (fakeKeyer) SessionKey(jti string) string { return "session:" + jti }

func TestRegisterHasRevoke(t *testing.T) {
	m := &Manager{store: newFakeStore(), keyer: fakeKeyer{}, ttl: time.Hour}
	ctx := context.Background()

	if err := m.Register(ctx, "jti-1"); err != nil {
		t.Fatalf("register: %v", err)
	}

	ok, err := m.Has(ctx, "jti-1")
	if err != nil || !ok {
		t.Fatalf("expected active session, got ok=%v err=%v", ok, err)
	}

	ok, err = m.Has(ctx, "jti-2")
	if err != nil || ok {
		t.Fatalf("expected unknown session to be inactive, got ok=%v err=%v", ok, err)
	}

	if err := m.Revoke(ctx, "jti-1"); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	ok, err = m.Has(ctx, "jti-1")
	if err != nil || ok {
		t.Fatalf("expected revoked session to be inactive, got ok=%v err=%v", ok, err)
	}
}

func TestRegisterRequiresJTI(t *testing.T) {
	m := &Manager{store: newFakeStore(), keyer: fakeKeyer{}, ttl: time.Hour}

	if err := m.Register(context.Background(), " "); err == nil {
		t.Fatalf("expected blank jti to be rejected")
	}
}
