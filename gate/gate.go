// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package gate

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/danielhkuo/quickly-vote/flags"
	"github.com/danielhkuo/quickly-vote/middleware"
	"github.com/danielhkuo/quickly-vote/models"
)

// State of the gate for the current access window
type State string

const (
	Locked State = "locked"
	Open   State = "open"
)

// privilegedPrefixes bypass the gate in either state.
var privilegedPrefixes = []string{"/admin/", "/auth/", "/health", "/gate"}

// WindowSource supplies the access window and change notifications.
// *flags.Store satisfies it.
type WindowSource interface {
	Window() models.AccessWindow
	Subscribe() (<-chan flags.Change, func())
}

// Gate decides whether non-privileged visitors may use the site.
type Gate struct {
	src     WindowSource
	maxWait time.Duration
	now     func() time.Time

	mu      sync.Mutex
	version int64
	opened  bool

	// test hooks
	armed func(time.Duration)
	woke  func(State)
}

// New creates a gate. maxWait caps how long Run sleeps before
// re-evaluating the window.
func New(src WindowSource, maxWait time.Duration) *Gate {
	if maxWait <= 0 {
		maxWait = time.Hour
	}
	return &Gate{src: src, maxWait: maxWait, now: time.Now}
}

// evaluate applies the window rules at the given time. Once a window
// version has opened it stays open; a new version starts over.
func (g *Gate) evaluate(w models.AccessWindow, now time.Time) State {
	g.mu.Lock()
	defer g.mu.Unlock()

	if w.Version != g.version {
		g.version = w.Version
		g.opened = false
	}
	if g.opened {
		return Open
	}
	if w.CurtainEnabled && (w.StartDate == nil || now.Before(*w.StartDate)) {
		return Locked
	}
	g.opened = true
	return Open
}

// State evaluates the gate against the wall clock.
func (g *Gate) State() State {
	return g.evaluate(g.src.Window(), g.now())
}

func (g *Gate) IsOpen() bool {
	return g.State() == Open
}

// Status describes the gate for clients, including a human countdown when
// locked with a known start date.
func (g *Gate) Status() models.GateStatusResponse {
	w := g.src.Window()
	now := g.now()
	st := g.evaluate(w, now)

	resp := models.GateStatusResponse{
		State:          string(st),
		CurtainEnabled: w.CurtainEnabled,
		Version:        w.Version,
	}
	if st == Locked && w.StartDate != nil {
		resp.OpensAt = w.StartDate
		resp.OpensIn = humanize.RelTime(*w.StartDate, now, "ago", "from now")
	}
	return resp
}

// Run re-evaluates the gate when the window start passes or the window
// changes, until ctx is done. Sleeps are capped at maxWait and re-armed.
func (g *Gate) Run(ctx context.Context) error {
	changes, cancel := g.src.Subscribe()
	defer cancel()

	var timer *time.Timer
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	last := State("")
	for {
		w := g.src.Window()
		now := g.now()
		st := g.evaluate(w, now)
		if st != last {
			slog.Info("access gate state", "state", st, "version", w.Version, "start_date", w.StartDate)
			last = st
		}
		if g.woke != nil {
			g.woke(st)
		}

		var fire <-chan time.Time
		if st == Locked && w.StartDate != nil {
			wait := w.StartDate.Sub(now)
			if wait > g.maxWait {
				wait = g.maxWait
			}
			if wait < 0 {
				wait = 0
			}
			if timer == nil {
				timer = time.NewTimer(wait)
			} else {
				timer.Reset(wait)
			}
			fire = timer.C
			if g.armed != nil {
				g.armed(wait)
			}
		}

		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-changes:
			if !ok {
				return nil
			}
			if timer != nil {
				timer.Stop()
			}
		case <-fire:
		}
	}
}

// Middleware rejects non-privileged requests with 503 while the gate is
// locked.
func (g *Gate) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if privileged(r.URL.Path) {
			next.ServeHTTP(w, r)
			return
		}

		status := g.Status()
		if status.State == string(Open) {
			next.ServeHTTP(w, r)
			return
		}

		if status.OpensAt != nil {
			secs := int(status.OpensAt.Sub(g.now()).Seconds())
			if secs > 0 {
				w.Header().Set("Retry-After", strconv.Itoa(secs))
			}
		}
		middleware.JSONResponse(w, http.StatusServiceUnavailable, status)
	})
}

func privileged(path string) bool {
	for _, p := range privilegedPrefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
