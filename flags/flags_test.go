// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package flags

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-vote/events"
	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/testutil"
)

func TestStore_Defaults(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	s := NewStore(conn, nil, time.Second)
	if err := s.Load(context.Background()); err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.AnonymousVoting() {
		t.Error("anonymous voting should default to off")
	}
	w := s.Window()
	if w.CurtainEnabled || w.StartDate != nil || w.Version != 0 {
		t.Errorf("unexpected default window %+v", w)
	}
}

func TestStore_SetAnonymousVotingBumpsVersion(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	s := NewStore(conn, nil, time.Second)

	f1, err := s.SetAnonymousVoting(ctx, true)
	if err != nil {
		t.Fatalf("SetAnonymousVoting() error = %v", err)
	}
	f2, err := s.SetAnonymousVoting(ctx, false)
	if err != nil {
		t.Fatalf("SetAnonymousVoting() error = %v", err)
	}

	if f1.Version != 1 || f2.Version != 2 {
		t.Errorf("versions = %d, %d; want 1, 2", f1.Version, f2.Version)
	}
	if s.AnonymousVoting() {
		t.Error("expected flag to be off after second write")
	}

	// A fresh store sees the persisted value
	fresh := NewStore(conn, nil, time.Second)
	if err := fresh.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := fresh.Flag(); got.Value || got.Version != 2 {
		t.Errorf("reloaded flag = %+v", got)
	}
}

func TestStore_SetAccessWindow(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	s := NewStore(conn, nil, time.Second)

	start := time.Date(2030, 1, 2, 15, 4, 5, 0, time.FixedZone("X", 3600))
	w, err := s.SetAccessWindow(ctx, &start, true)
	if err != nil {
		t.Fatalf("SetAccessWindow() error = %v", err)
	}
	if !w.StartDate.Equal(start) || w.StartDate.Location() != time.UTC {
		t.Errorf("start stored as %v", w.StartDate)
	}

	fresh := NewStore(conn, nil, time.Second)
	if err := fresh.Load(ctx); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	got := fresh.Window()
	if got.StartDate == nil || !got.StartDate.Equal(start) || !got.CurtainEnabled || got.Version != 1 {
		t.Errorf("reloaded window = %+v", got)
	}

	// Mutating the returned copy must not leak into the store
	*got.StartDate = time.Time{}
	if fresh.Window().StartDate.IsZero() {
		t.Error("Window() returned shared start date")
	}
}

func TestStore_SetAccessWindowRejectsBadDate(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	s := NewStore(conn, nil, time.Second)

	bad := time.Date(1500, 1, 1, 0, 0, 0, 0, time.UTC)
	if _, err := s.SetAccessWindow(ctx, &bad, true); !errors.Is(err, models.ErrInvalidConfig) {
		t.Errorf("SetAccessWindow() error = %v, want ErrInvalidConfig", err)
	}

	// Nothing was written
	var n int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM setting`).Scan(&n); err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("expected no setting rows, got %d", n)
	}
	if s.Window().Version != 0 {
		t.Error("rejected window was applied in memory")
	}
}

func TestStore_SubscribeCoalesces(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	s := NewStore(conn, nil, time.Second)

	ch, cancel := s.Subscribe()
	defer cancel()

	s.SetAnonymousVoting(ctx, true)
	s.SetAnonymousVoting(ctx, false)
	s.SetAnonymousVoting(ctx, true)

	select {
	case c := <-ch:
		if c.Key != models.FlagAnonymousVoting || c.Version != 3 {
			t.Errorf("got change %+v, want latest version 3", c)
		}
	case <-time.After(time.Second):
		t.Fatal("no change notification")
	}

	select {
	case c := <-ch:
		t.Errorf("unexpected extra change %+v", c)
	default:
	}

	cancel()
	if _, ok := <-ch; ok {
		t.Error("expected channel closed after cancel")
	}
}

func TestStore_WatchReloadsRemoteChanges(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := events.NewLocalBus()
	defer bus.Close()

	writer := NewStore(conn, bus, time.Second)
	reader := NewStore(conn, nil, time.Second)

	done := make(chan error, 1)
	ready, stopReady := reader.Subscribe()
	defer stopReady()

	go func() { done <- reader.Watch(ctx, bus) }()

	// Watch subscribes asynchronously; retry until the reader catches up.
	deadline := time.After(2 * time.Second)
	for !reader.AnonymousVoting() {
		if _, err := writer.SetAnonymousVoting(ctx, true); err != nil {
			t.Fatalf("SetAnonymousVoting() error = %v", err)
		}
		select {
		case <-ready:
		case <-time.After(50 * time.Millisecond):
		case <-deadline:
			t.Fatal("reader never observed remote change")
		}
	}

	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error = %v", err)
	}
}
