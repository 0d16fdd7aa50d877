// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/danielhkuo/quickly-vote/catalog"
	"github.com/danielhkuo/quickly-vote/db"
	"github.com/danielhkuo/quickly-vote/events"
	"github.com/danielhkuo/quickly-vote/models"
)

// Ledger is the append-only vote store. The only dedup mechanism is the
// unique (identity_kind, identity_value, category_id) constraint; there is
// no application lock.
type Ledger struct {
	db      *sql.DB
	catalog catalog.Reader
	pub     events.Publisher
	timeout time.Duration
	now     func() time.Time
}

func New(conn *sql.DB, cat catalog.Reader, pub events.Publisher, timeout time.Duration) *Ledger {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Ledger{db: conn, catalog: cat, pub: pub, timeout: timeout, now: time.Now}
}

// CastVote records one vote for identity in categoryID. A second vote for
// the same identity and category is reported as OutcomeAlreadyVoted, not
// as an error, so the call is safe to retry after a timeout.
func (l *Ledger) CastVote(ctx context.Context, identity models.Identity, categoryID, nomineeID string) (models.CastResult, error) {
	if (identity.Kind != models.IdentityAuthenticated && identity.Kind != models.IdentityAnonymous) || identity.Value == "" {
		return models.CastResult{}, models.ErrAuthRequired
	}
	if categoryID == "" || nomineeID == "" {
		return models.CastResult{}, fmt.Errorf("%w: category and nominee are required", models.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	nominee, err := l.catalog.Nominee(ctx, nomineeID)
	if errors.Is(err, catalog.ErrNotFound) {
		return models.CastResult{}, fmt.Errorf("%w: unknown nominee %s", models.ErrValidation, nomineeID)
	}
	if err != nil {
		return models.CastResult{}, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	if nominee.CategoryID != categoryID {
		return models.CastResult{}, fmt.Errorf("%w: nominee %s is not in category %s", models.ErrValidation, nomineeID, categoryID)
	}

	vote := models.Vote{
		ID:         uuid.NewString(),
		Identity:   identity,
		CategoryID: categoryID,
		NomineeID:  nomineeID,
		CreatedAt:  l.now().UTC(),
	}

	// Check and insert are one statement; a concurrent duplicate either
	// affects zero rows or fails the unique constraint.
	res, err := l.db.ExecContext(ctx, `
		INSERT INTO vote (id, identity_kind, identity_value, category_id, nominee_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (identity_kind, identity_value, category_id) DO NOTHING
	`, vote.ID, identity.Kind, identity.Value, categoryID, nomineeID, vote.CreatedAt)
	if err != nil {
		switch {
		case db.IsUniqueViolation(err):
			err = models.ErrStorageConflict
		case db.IsForeignKeyViolation(err):
			return models.CastResult{}, fmt.Errorf("%w: nominee %s is not in category %s", models.ErrValidation, nomineeID, categoryID)
		default:
			slog.Error("failed to insert vote", "error", err, "category_id", categoryID)
			return models.CastResult{}, fmt.Errorf("%w: insert vote: %v", models.ErrUnavailable, err)
		}
	}

	committed := err == nil
	if committed {
		n, rerr := res.RowsAffected()
		if rerr != nil {
			return models.CastResult{}, fmt.Errorf("%w: rows affected: %v", models.ErrUnavailable, rerr)
		}
		committed = n == 1
	}

	if !committed {
		existing, ferr := l.findVote(ctx, identity, categoryID)
		if ferr != nil {
			// The outcome is already decided by the constraint.
			slog.Warn("failed to read existing vote", "error", ferr, "category_id", categoryID)
			existing = nil
		}
		slog.Info("vote already recorded", "category_id", categoryID, "identity_kind", identity.Kind)
		return models.CastResult{Outcome: models.OutcomeAlreadyVoted, Vote: existing}, nil
	}

	slog.Info("vote committed", "vote_id", vote.ID, "category_id", categoryID, "nominee_id", nomineeID, "identity_kind", identity.Kind)

	l.publish(models.MutationEvent{
		CategoryID: categoryID,
		NomineeID:  nomineeID,
		VoteID:     vote.ID,
		At:         vote.CreatedAt,
	})

	return models.CastResult{Outcome: models.OutcomeCommitted, Vote: &vote}, nil
}

// publish runs after commit and off the caller's goroutine; a slow or
// broken bus never delays or fails the vote.
func (l *Ledger) publish(evt models.MutationEvent) {
	if l.pub == nil {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), l.timeout)
		defer cancel()
		if err := l.pub.Publish(ctx, events.VoteCastTopic(evt.CategoryID), evt); err != nil {
			slog.Warn("failed to publish vote event", "error", err, "category_id", evt.CategoryID)
		}
	}()
}

// VoteFor returns the identity's vote in a category, or nil when none.
func (l *Ledger) VoteFor(ctx context.Context, identity models.Identity, categoryID string) (*models.Vote, error) {
	ctx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	v, err := l.findVote(ctx, identity, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	return v, nil
}

func (l *Ledger) findVote(ctx context.Context, identity models.Identity, categoryID string) (*models.Vote, error) {
	v := models.Vote{Identity: identity}
	err := l.db.QueryRowContext(ctx, `
		SELECT id, category_id, nominee_id, created_at
		FROM vote
		WHERE identity_kind = $1 AND identity_value = $2 AND category_id = $3
	`, identity.Kind, identity.Value, categoryID).Scan(&v.ID, &v.CategoryID, &v.NomineeID, &v.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query vote: %w", err)
	}
	return &v, nil
}
