package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSessionLifecycle(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	if _, _, err := repo.LoadSession(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("LoadSession(missing) err = %v, want ErrNotFound", err)
	}

	if err := repo.SaveSession(ctx, "s1", []byte(`{"cart":[]}`), now.Add(time.Hour)); err != nil {
		t.Fatalf("SaveSession: %v", err)
	}
	if err := repo.SaveSession(ctx, "s1", []byte(`{"couponCode":"SAVE10"}`), now.Add(2*time.Hour)); err != nil {
		t.Fatalf("SaveSession overwrite: %v", err)
	}

	data, exp, err := repo.LoadSession(ctx, "s1")
	if err != nil {
		t.Fatalf("LoadSession: %v", err)
	}
	if string(data) != `{"couponCode":"SAVE10"}` {
		t.Errorf("data = %s", data)
	}
	if !exp.Equal(now.Add(2 * time.Hour)) {
		t.Errorf("expiresAt = %v", exp)
	}

	if err := repo.DeleteSession(ctx, "s1"); err != nil {
		t.Fatalf("DeleteSession: %v", err)
	}
	if _, _, err := repo.LoadSession(ctx, "s1"); !errors.Is(err, ErrNotFound) {
		t.Errorf("after delete err = %v, want ErrNotFound", err)
	}
}

func TestSessionExpiry(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	repo.now = func() time.Time { return now }

	if err := repo.SaveSession(ctx, "old", []byte(`{}`), now.Add(time.Minute)); err != nil {
		t.Fatal(err)
	}
	if err := repo.SaveSession(ctx, "fresh", []byte(`{}`), now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}

	now = now.Add(10 * time.Minute)
	if _, _, err := repo.LoadSession(ctx, "old"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expired session err = %v, want ErrNotFound", err)
	}

	n, err := repo.PurgeExpiredSessions(ctx)
	if err != nil {
		t.Fatalf("PurgeExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("purged %d rows, want 1", n)
	}
	if _, _, err := repo.LoadSession(ctx, "fresh"); err != nil {
		t.Errorf("fresh session should survive purge: %v", err)
	}
}

func TestAuditEvents(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	for i, id := range []string{"01A", "01B", "01C"} {
		inserted, err := repo.InsertAuditEvent(ctx, AuditRecord{
			ID:         id,
			Action:     "create",
			Resource:   "coupon",
			ResourceID: id,
			Summary:    "created coupon",
			OccurredAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil || !inserted {
			t.Fatalf("InsertAuditEvent(%s) = %v, %v", id, inserted, err)
		}
	}

	inserted, err := repo.InsertAuditEvent(ctx, AuditRecord{ID: "01B", Action: "create", Resource: "coupon", OccurredAt: base})
	if err != nil {
		t.Fatalf("duplicate insert: %v", err)
	}
	if inserted {
		t.Error("duplicate id should be ignored")
	}

	got, err := repo.RecentAuditEvents(ctx, 2)
	if err != nil {
		t.Fatalf("RecentAuditEvents: %v", err)
	}
	if len(got) != 2 || got[0].ID != "01C" || got[1].ID != "01B" {
		t.Fatalf("RecentAuditEvents = %+v, want 01C then 01B", got)
	}
	if !got[0].OccurredAt.Equal(base.Add(2 * time.Minute)) {
		t.Errorf("OccurredAt = %v", got[0].OccurredAt)
	}
	if got[0].ReceivedAt.IsZero() {
		t.Error("ReceivedAt should default to now")
	}
}

func TestMigrationsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "twice.db")
	for i := 0; i < 2; i++ {
		repo, err := NewSQLiteRepository(path)
		if err != nil {
			t.Fatalf("open %d: %v", i, err)
		}
		if got := repo.SchemaVersion(); got != 2 {
			t.Errorf("open %d: schema version = %d, want 2", i, got)
		}
		repo.Close()
	}
}
