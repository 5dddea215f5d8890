package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/auth-service/internal/core/domain"
)

type stubEventRepo struct {
	mu       sync.Mutex
	inserted []domain.AuthEvent
	err      error
}

func (r *stubEventRepo) InsertEvent(_ context.Context, e *domain.AuthEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.inserted = append(r.inserted, *e)
	return nil
}

func (r *stubEventRepo) snapshot() []domain.AuthEvent {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]domain.AuthEvent(nil), r.inserted...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}

func TestDispatcher_PersistsInOrderPerAccount(t *testing.T) {
	repo := &stubEventRepo{}
	d := NewDispatcher(4, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	types := []domain.AuthEventType{
		domain.EventRegistered,
		domain.EventLoginFailed,
		domain.EventLoginSucceeded,
		domain.EventLogout,
	}
	for _, typ := range types {
		d.Record(context.Background(), domain.AuthEvent{Type: typ, Email: "a@b.com"})
	}

	waitFor(t, func() bool { return len(repo.snapshot()) == len(types) })
	cancel()
	d.Wait()

	got := repo.snapshot()
	for i, typ := range types {
		if got[i].Type != typ {
			t.Fatalf("event %d: expected %s, got %s", i, typ, got[i].Type)
		}
	}
}

func TestDispatcher_ShardIndexIsCaseInsensitive(t *testing.T) {
	d := NewDispatcher(8, &stubEventRepo{}, zerolog.Nop())

	if d.shardIndex("Alice@Example.com") != d.shardIndex("alice@example.com") {
		t.Fatalf("expected same shard for differently cased emails")
	}
	if idx := d.shardIndex("x@y.z"); idx < 0 || idx >= 8 {
		t.Fatalf("shard index %d out of range", idx)
	}
}

func TestDispatcher_DefaultWorkers(t *testing.T) {
	d := NewDispatcher(0, &stubEventRepo{}, zerolog.Nop())
	if len(d.workers) != defaultWorkers {
		t.Fatalf("expected %d workers, got %d", defaultWorkers, len(d.workers))
	}
}

func TestDispatcher_DropsWhenFull(t *testing.T) {
	// Workers are never started, so the single buffer fills up.
	d := NewDispatcher(1, &stubEventRepo{}, zerolog.Nop())

	for i := 0; i < channelBuffer+10; i++ {
		d.Record(context.Background(), domain.AuthEvent{Type: domain.EventLoginFailed, Email: "a@b.com"})
	}
	if got := len(d.workers[0]); got != channelBuffer {
		t.Fatalf("expected %d buffered events, got %d", channelBuffer, got)
	}
}

func TestDispatcher_InsertFailureIsNonFatal(t *testing.T) {
	repo := &stubEventRepo{err: errors.New("mongo unavailable")}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Record(context.Background(), domain.AuthEvent{Type: domain.EventLogout, Email: "a@b.com"})
	waitFor(t, func() bool { return len(d.workers[0]) == 0 })

	cancel()
	d.Wait()
	if len(repo.snapshot()) != 0 {
		t.Fatalf("expected nothing persisted")
	}
}

type slowEventRepo struct {
	stubEventRepo
	delay time.Duration
}

func (r *slowEventRepo) InsertEvent(ctx context.Context, e *domain.AuthEvent) error {
	select {
	case <-time.After(r.delay):
	case <-ctx.Done():
		return ctx.Err()
	}
	return r.stubEventRepo.InsertEvent(ctx, e)
}

func TestDispatcher_DrainPersistsQueuedEvents(t *testing.T) {
	repo := &slowEventRepo{delay: time.Millisecond}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	d.Start(ctx)

	const n = 50
	for i := 0; i < n; i++ {
		d.Record(context.Background(), domain.AuthEvent{Type: domain.EventLoginSucceeded, Email: "a@b.com"})
	}

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer drainCancel()
	if err := d.Drain(drainCtx); err != nil {
		t.Fatalf("drain: %v", err)
	}

	if got := len(repo.snapshot()); got != n {
		t.Fatalf("recorded %d events, persisted %d", n, got)
	}
}

func TestDispatcher_RecordAfterCloseIsDropped(t *testing.T) {
	repo := &stubEventRepo{}
	d := NewDispatcher(2, repo, zerolog.Nop())
	d.Start(context.Background())

	d.Close()
	d.Close()
	d.Record(context.Background(), domain.AuthEvent{Type: domain.EventLogout, Email: "a@b.com"})
	d.Wait()

	if len(repo.snapshot()) != 0 {
		t.Fatalf("expected no events after close")
	}
}

func TestDispatcher_DrainHonoursDeadline(t *testing.T) {
	repo := &slowEventRepo{delay: time.Hour}
	d := NewDispatcher(1, repo, zerolog.Nop())
	ctx, cancel := context.WithCancel(context.Background())
	d.Start(ctx)

	d.Record(context.Background(), domain.AuthEvent{Type: domain.EventRegistered, Email: "a@b.com"})

	drainCtx, drainCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer drainCancel()
	if err := d.Drain(drainCtx); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	cancel()
	d.Wait()
}
