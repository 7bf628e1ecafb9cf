package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"betdesk/internal/config"
)

func TestStoreWithoutPool(t *testing.T) {
	var s *Store
	if _, err := s.ListRecentBets(context.Background(), 10); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("nil store should report ErrNotConfigured, got %v", err)
	}

	s = NewStore(nil)
	if _, err := s.FetchOpportunities(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("store without pool should report ErrNotConfigured, got %v", err)
	}
	if _, err := s.ListBetsBetween(context.Background(), time.Now().Add(-time.Hour), time.Now()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if _, err := s.CountBets(context.Background()); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	s.Close()
}

func TestNewPoolRequiresDSN(t *testing.T) {
	if _, err := NewPool(context.Background(), config.DatabaseConfig{}); err == nil {
		t.Fatal("empty dsn should fail")
	}
	if _, err := NewPool(context.Background(), config.DatabaseConfig{DSN: "::not a dsn::"}); err == nil {
		t.Fatal("invalid dsn should fail")
	}
}
