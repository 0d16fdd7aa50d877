// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/danielhkuo/quickly-vote/events"
	"github.com/danielhkuo/quickly-vote/models"
)

const (
	retryBase = 100 * time.Millisecond
	retryMax  = 5 * time.Second
)

// ErrClosed is returned by Subscribe once the broadcaster has stopped.
var ErrClosed = errors.New("broadcaster closed")

// TallySource computes a fresh snapshot for a category.
type TallySource interface {
	GetTally(ctx context.Context, categoryID string) (models.TallySnapshot, error)
}

// Broadcaster pushes tally snapshots to subscribers after ledger mutations.
// All recomputation happens on the goroutine running Run.
type Broadcaster struct {
	source TallySource
	resync time.Duration

	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	dirty  map[string]struct{}
	closed bool

	wake chan struct{}
}

// NewBroadcaster creates a broadcaster. A positive resync interval makes Run
// recompute every subscribed category on that period, so a lost mutation
// event still produces a push.
func NewBroadcaster(source TallySource, resync time.Duration) *Broadcaster {
	return &Broadcaster{
		source: source,
		resync: resync,
		subs:   make(map[string]map[*Subscription]struct{}),
		dirty:  make(map[string]struct{}),
		wake:   make(chan struct{}, 1),
	}
}

// Subscription receives snapshots for one category. C is closed when the
// subscription is closed or the broadcaster stops.
type Subscription struct {
	C <-chan models.TallySnapshot

	categoryID string
	b          *Broadcaster
	ch         chan models.TallySnapshot

	mu     sync.Mutex
	last   map[string]int64
	closed bool
	once   sync.Once
}

// Subscribe registers interest in a category. The first snapshot is
// computed and pushed by the worker shortly after.
func (b *Broadcaster) Subscribe(categoryID string) (*Subscription, error) {
	if categoryID == "" {
		return nil, fmt.Errorf("%w: category id is required", models.ErrValidation)
	}

	ch := make(chan models.TallySnapshot, 1)
	s := &Subscription{
		C:          ch,
		categoryID: categoryID,
		b:          b,
		ch:         ch,
		last:       make(map[string]int64),
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return nil, ErrClosed
	}
	set, ok := b.subs[categoryID]
	if !ok {
		set = make(map[*Subscription]struct{})
		b.subs[categoryID] = set
	}
	set[s] = struct{}{}
	b.dirty[categoryID] = struct{}{}
	b.mu.Unlock()

	b.signal()
	return s, nil
}

// Close removes the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.b.remove(s)
		s.mu.Lock()
		s.closed = true
		close(s.ch)
		s.mu.Unlock()
	})
}

// offer delivers snap unless it would lower any nominee's count below what
// this subscriber has already been sent. An unread snapshot is replaced.
func (s *Subscription) offer(snap models.TallySnapshot) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	for id, n := range s.last {
		if snap.Count(id) < n {
			return false
		}
	}

	select {
	case s.ch <- snap:
	default:
		select {
		case <-s.ch:
		default:
		}
		s.ch <- snap
	}

	for _, n := range snap.Nominees {
		s.last[n.NomineeID] = n.VoteCount
	}
	return true
}

func (b *Broadcaster) remove(s *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	set := b.subs[s.categoryID]
	delete(set, s)
	if len(set) == 0 {
		delete(b.subs, s.categoryID)
		delete(b.dirty, s.categoryID)
	}
}

// Publish marks the event's category for recomputation. It never blocks;
// events for categories nobody watches are ignored.
func (b *Broadcaster) Publish(evt models.MutationEvent) {
	b.mu.Lock()
	if _, ok := b.subs[evt.CategoryID]; !ok || b.closed {
		b.mu.Unlock()
		return
	}
	b.dirty[evt.CategoryID] = struct{}{}
	b.mu.Unlock()
	b.signal()
}

func (b *Broadcaster) signal() {
	select {
	case b.wake <- struct{}{}:
	default:
	}
}

// Subscribers returns the number of open subscriptions for a category.
func (b *Broadcaster) Subscribers(categoryID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[categoryID])
}

// Run consumes mutation events from sub (which may be nil) and recomputes
// dirty categories until ctx is done. Every subscription is closed on
// return.
func (b *Broadcaster) Run(ctx context.Context, sub events.Subscriber) error {
	defer b.shutdown()

	var msgs <-chan []byte
	if sub != nil {
		ch, cancel, err := sub.Subscribe(events.TopicVoteCastAll)
		if err != nil {
			return fmt.Errorf("subscribe to vote events: %w", err)
		}
		defer cancel()
		msgs = ch
	}

	var tick <-chan time.Time
	if b.resync > 0 {
		ticker := time.NewTicker(b.resync)
		defer ticker.Stop()
		tick = ticker.C
	}

	var (
		retry    *time.Timer
		retryC   <-chan time.Time
		failures int
	)
	defer func() {
		if retry != nil {
			retry.Stop()
		}
	}()

	flush := func() {
		if b.flush(ctx) {
			failures = 0
			return
		}
		if retryC != nil {
			return
		}
		delay := backoff(failures)
		failures++
		slog.Warn("tally recompute failed, retrying", "delay", delay, "attempt", failures)
		retry = time.NewTimer(delay)
		retryC = retry.C
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-msgs:
			if !ok {
				msgs = nil
				continue
			}
			var evt models.MutationEvent
			if err := json.Unmarshal(msg, &evt); err != nil {
				slog.Warn("bad vote event payload", "error", err)
				continue
			}
			b.Publish(evt)
		case <-b.wake:
			flush()
		case <-tick:
			b.markAll()
			flush()
		case <-retryC:
			retryC = nil
			flush()
		}
	}
}

// flush recomputes every dirty category and reports whether all of them
// succeeded. Failed categories stay dirty.
func (b *Broadcaster) flush(ctx context.Context) bool {
	b.mu.Lock()
	pending := make([]string, 0, len(b.dirty))
	for id := range b.dirty {
		pending = append(pending, id)
	}
	b.dirty = make(map[string]struct{})
	b.mu.Unlock()

	ok := true
	for _, id := range pending {
		snap, err := b.source.GetTally(ctx, id)
		if err != nil {
			if ctx.Err() != nil {
				return true
			}
			if errors.Is(err, models.ErrValidation) {
				slog.Warn("dropping tally for unknown category", "category_id", id, "error", err)
				continue
			}
			slog.Error("failed to recompute tally", "category_id", id, "error", err)
			b.markDirty(id)
			ok = false
			continue
		}
		b.deliver(snap)
	}
	return ok
}

func (b *Broadcaster) deliver(snap models.TallySnapshot) {
	b.mu.Lock()
	targets := make([]*Subscription, 0, len(b.subs[snap.CategoryID]))
	for s := range b.subs[snap.CategoryID] {
		targets = append(targets, s)
	}
	b.mu.Unlock()

	for _, s := range targets {
		if !s.offer(snap) {
			slog.Debug("skipped stale snapshot", "category_id", snap.CategoryID)
		}
	}
}

func (b *Broadcaster) markDirty(categoryID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[categoryID]; ok {
		b.dirty[categoryID] = struct{}{}
	}
}

func (b *Broadcaster) markAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id := range b.subs {
		b.dirty[id] = struct{}{}
	}
}

func (b *Broadcaster) shutdown() {
	b.mu.Lock()
	b.closed = true
	var all []*Subscription
	for _, set := range b.subs {
		for s := range set {
			all = append(all, s)
		}
	}
	b.mu.Unlock()

	for _, s := range all {
		s.Close()
	}
}

func backoff(failures int) time.Duration {
	d := retryBase
	for i := 0; i < failures && d < retryMax; i++ {
		d *= 2
	}
	if d > retryMax {
		d = retryMax
	}
	return d
}
