// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package flags

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/danielhkuo/quickly-vote/events"
	"github.com/danielhkuo/quickly-vote/models"
)

// Change tells subscribers which setting moved to which version.
type Change struct {
	Key     string
	Version int64
}

// Store is the single versioned configuration store. Reads are served from
// memory; writes go to the setting table first and then notify subscribers.
type Store struct {
	db      *sql.DB
	pub     events.Publisher
	timeout time.Duration

	mu     sync.RWMutex
	anon   models.FeatureFlag
	window models.AccessWindow

	subMu  sync.Mutex
	subs   map[int]chan Change
	nextID int
}

// windowValue is the JSON stored in the access_window row.
type windowValue struct {
	StartDate      *time.Time `json:"start_date"`
	CurtainEnabled bool       `json:"curtain_enabled"`
}

// NewStore creates a store with defaults (anonymous voting off, curtain
// off). Call Load to read persisted values. pub may be nil.
func NewStore(db *sql.DB, pub events.Publisher, timeout time.Duration) *Store {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Store{
		db:      db,
		pub:     pub,
		timeout: timeout,
		anon:    models.FeatureFlag{Key: models.FlagAnonymousVoting},
		subs:    make(map[int]chan Change),
	}
}

// Load reads all settings from storage and notifies subscribers of any
// version change.
func (s *Store) Load(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value, version, updated_at FROM setting
	`)
	if err != nil {
		return fmt.Errorf("query settings: %w", err)
	}
	defer rows.Close()

	var changes []Change
	for rows.Next() {
		var (
			key, value string
			version    int64
			updatedAt  time.Time
		)
		if err := rows.Scan(&key, &value, &version, &updatedAt); err != nil {
			return fmt.Errorf("scan setting: %w", err)
		}

		switch key {
		case models.FlagAnonymousVoting:
			b, err := strconv.ParseBool(value)
			if err != nil {
				return fmt.Errorf("setting %s: %w", key, err)
			}
			if s.applyFlag(models.FeatureFlag{Key: key, Value: b, Version: version, UpdatedAt: updatedAt}) {
				changes = append(changes, Change{Key: key, Version: version})
			}
		case models.SettingAccessWindow:
			var wv windowValue
			if err := json.Unmarshal([]byte(value), &wv); err != nil {
				return fmt.Errorf("setting %s: %w", key, err)
			}
			w := models.AccessWindow{
				StartDate:      wv.StartDate,
				CurtainEnabled: wv.CurtainEnabled,
				Version:        version,
				UpdatedAt:      updatedAt,
			}
			if s.applyWindow(w) {
				changes = append(changes, Change{Key: key, Version: version})
			}
		default:
			slog.Warn("ignoring unknown setting", "key", key)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate settings: %w", err)
	}

	for _, c := range changes {
		s.notify(c)
	}
	return nil
}

// AnonymousVoting reports the current enable_anonymous_voting value.
func (s *Store) AnonymousVoting() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anon.Value
}

func (s *Store) Flag() models.FeatureFlag {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.anon
}

func (s *Store) Window() models.AccessWindow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w := s.window
	if w.StartDate != nil {
		start := *w.StartDate
		w.StartDate = &start
	}
	return w
}

// SetAnonymousVoting persists the flag and bumps its version.
func (s *Store) SetAnonymousVoting(ctx context.Context, value bool) (models.FeatureFlag, error) {
	version, updatedAt, err := s.write(ctx, models.FlagAnonymousVoting, strconv.FormatBool(value))
	if err != nil {
		return models.FeatureFlag{}, err
	}

	flag := models.FeatureFlag{Key: models.FlagAnonymousVoting, Value: value, Version: version, UpdatedAt: updatedAt}
	s.applyFlag(flag)
	s.changed(ctx, Change{Key: flag.Key, Version: version})

	slog.Info("feature flag updated", "key", flag.Key, "value", value, "version", version)
	return flag, nil
}

// SetAccessWindow validates and persists a new access window. Both fields
// are written in one row so a window is never partially applied.
func (s *Store) SetAccessWindow(ctx context.Context, start *time.Time, curtainEnabled bool) (models.AccessWindow, error) {
	if start != nil {
		if start.IsZero() || start.Year() < 2000 || start.Year() > 9999 {
			return models.AccessWindow{}, fmt.Errorf("%w: start_date out of range", models.ErrInvalidConfig)
		}
		utc := start.UTC()
		start = &utc
	}

	data, err := json.Marshal(windowValue{StartDate: start, CurtainEnabled: curtainEnabled})
	if err != nil {
		return models.AccessWindow{}, fmt.Errorf("encode access window: %w", err)
	}

	version, updatedAt, err := s.write(ctx, models.SettingAccessWindow, string(data))
	if err != nil {
		return models.AccessWindow{}, err
	}

	w := models.AccessWindow{StartDate: start, CurtainEnabled: curtainEnabled, Version: version, UpdatedAt: updatedAt}
	s.applyWindow(w)
	s.changed(ctx, Change{Key: models.SettingAccessWindow, Version: version})

	slog.Info("access window updated", "start_date", start, "curtain_enabled", curtainEnabled, "version", version)
	return w, nil
}

// write upserts one setting row and returns its new version. The version
// bump happens in the same statement as the write.
func (s *Store) write(ctx context.Context, key, value string) (int64, time.Time, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	now := time.Now().UTC()
	var version int64
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO setting (key, value, version, updated_at)
		VALUES ($1, $2, 1, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = excluded.value, version = setting.version + 1, updated_at = excluded.updated_at
		RETURNING version
	`, key, value, now).Scan(&version)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("%w: write setting %s: %v", models.ErrUnavailable, key, err)
	}
	return version, now, nil
}

// applyFlag stores f unless an equal or newer version is already held.
func (s *Store) applyFlag(f models.FeatureFlag) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Version <= s.anon.Version {
		return false
	}
	s.anon = f
	return true
}

func (s *Store) applyWindow(w models.AccessWindow) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w.Version <= s.window.Version {
		return false
	}
	s.window = w
	return true
}

// changed notifies local subscribers and other instances.
func (s *Store) changed(ctx context.Context, c Change) {
	s.notify(c)
	if s.pub == nil {
		return
	}
	evt := events.SettingsChanged{Key: c.Key, Version: c.Version}
	if err := s.pub.Publish(ctx, events.TopicSettingsChanged, evt); err != nil {
		slog.Warn("failed to publish settings change", "key", c.Key, "error", err)
	}
}

// Subscribe returns a channel that receives a Change after every applied
// update. The channel holds one pending change; a newer change replaces an
// unread one, so receivers should re-read the store rather than rely on
// the payload alone.
func (s *Store) Subscribe() (<-chan Change, func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Change, 1)
	s.subs[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.subMu.Lock()
			defer s.subMu.Unlock()
			delete(s.subs, id)
			close(ch)
		})
	}
	return ch, cancel
}

func (s *Store) notify(c Change) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- c:
		default:
			// Replace the unread change with the newer one.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- c:
			default:
			}
		}
	}
}

// Watch reloads settings whenever another instance reports a change.
// It returns when ctx is done or the subscription closes.
func (s *Store) Watch(ctx context.Context, sub events.Subscriber) error {
	ch, cancel, err := sub.Subscribe(events.TopicSettingsChanged)
	if err != nil {
		return fmt.Errorf("subscribe to settings changes: %w", err)
	}
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var evt events.SettingsChanged
			if err := json.Unmarshal(msg, &evt); err != nil {
				slog.Warn("bad settings change payload", "error", err)
				continue
			}
			if s.isCurrent(evt) {
				continue
			}
			if err := s.Load(ctx); err != nil && !errors.Is(err, context.Canceled) {
				slog.Error("failed to reload settings", "error", err)
			}
		}
	}
}

func (s *Store) isCurrent(evt events.SettingsChanged) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	switch evt.Key {
	case models.FlagAnonymousVoting:
		return evt.Version <= s.anon.Version
	case models.SettingAccessWindow:
		return evt.Version <= s.window.Version
	}
	return false
}
