// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package tally

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/danielhkuo/quickly-vote/catalog"
	"github.com/danielhkuo/quickly-vote/models"
)

// Engine derives tallies and statistics from vote rows at read time.
// Nothing it computes is stored.
type Engine struct {
	db      *sql.DB
	catalog catalog.Reader
	timeout time.Duration
	now     func() time.Time
}

func NewEngine(conn *sql.DB, cat catalog.Reader, timeout time.Duration) *Engine {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Engine{db: conn, catalog: cat, timeout: timeout, now: time.Now}
}

// GetTally counts votes per nominee for a category. Nominees with no votes
// are included with a zero count.
func (e *Engine) GetTally(ctx context.Context, categoryID string) (models.TallySnapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.requireCategory(ctx, categoryID); err != nil {
		return models.TallySnapshot{}, err
	}

	nominees, err := e.catalog.Nominees(ctx, categoryID)
	if err != nil {
		return models.TallySnapshot{}, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}

	counts, err := e.countByNominee(ctx, categoryID)
	if err != nil {
		return models.TallySnapshot{}, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}

	return BuildSnapshot(categoryID, nominees, counts, e.now().UTC()), nil
}

func (e *Engine) countByNominee(ctx context.Context, categoryID string) (map[string]int64, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT nominee_id, COUNT(*)
		FROM vote
		WHERE category_id = $1
		GROUP BY nominee_id
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("count votes: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var (
			nomineeID string
			n         int64
		)
		if err := rows.Scan(&nomineeID, &n); err != nil {
			return nil, fmt.Errorf("scan count: %w", err)
		}
		counts[nomineeID] = n
	}
	return counts, rows.Err()
}

// BuildSnapshot combines a category's nominees with their vote counts.
// Nominee order is preserved.
func BuildSnapshot(categoryID string, nominees []models.Nominee, counts map[string]int64, at time.Time) models.TallySnapshot {
	snap := models.TallySnapshot{
		CategoryID: categoryID,
		Nominees:   make([]models.NomineeTally, 0, len(nominees)),
		ComputedAt: at,
	}
	for _, n := range nominees {
		c := counts[n.ID]
		snap.TotalVotes += c
		snap.Nominees = append(snap.Nominees, models.NomineeTally{
			NomineeID: n.ID,
			Name:      n.Name,
			VoteCount: c,
		})
	}
	for i := range snap.Nominees {
		snap.Nominees[i].Percentage = Percentage(snap.Nominees[i].VoteCount, snap.TotalVotes)
	}
	return snap
}

// Percentage is round(votes / total * 100), or 0 when total is 0.
func Percentage(votes, total int64) int {
	if total <= 0 {
		return 0
	}
	// Integer half-up rounding; counts are never negative.
	return int((votes*200 + total) / (total * 2))
}

// Winner returns the nominee with the most votes. Ties go to the nominee
// that reached the winning count first. Returns nil when the category has
// no votes.
func (e *Engine) Winner(ctx context.Context, categoryID string) (*models.Winner, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	if err := e.requireCategory(ctx, categoryID); err != nil {
		return nil, err
	}

	nominees, err := e.catalog.Nominees(ctx, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}

	rows, err := e.db.QueryContext(ctx, `
		SELECT nominee_id, created_at
		FROM vote
		WHERE category_id = $1
		ORDER BY created_at, id
	`, categoryID)
	if err != nil {
		return nil, fmt.Errorf("%w: query votes: %v", models.ErrUnavailable, err)
	}
	defer rows.Close()

	var cast []CastAt
	for rows.Next() {
		var c CastAt
		if err := rows.Scan(&c.NomineeID, &c.At); err != nil {
			return nil, fmt.Errorf("%w: scan vote: %v", models.ErrUnavailable, err)
		}
		cast = append(cast, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}

	w := PickWinner(cast)
	if w == nil {
		return nil, nil
	}
	w.CategoryID = categoryID
	for _, n := range nominees {
		if n.ID == w.NomineeID {
			w.Name = n.Name
			break
		}
	}
	return w, nil
}

// CastAt is one vote's nominee and timestamp.
type CastAt struct {
	NomineeID string
	At        time.Time
}

// PickWinner expects votes in ledger order (created_at, then id). The
// reached-at time for a nominee with k votes is the time of its k-th vote.
func PickWinner(votes []CastAt) *models.Winner {
	type state struct {
		count   int64
		reached time.Time
	}
	byNominee := make(map[string]*state)
	for _, v := range votes {
		s, ok := byNominee[v.NomineeID]
		if !ok {
			s = &state{}
			byNominee[v.NomineeID] = s
		}
		s.count++
		s.reached = v.At
	}

	var best *models.Winner
	for id, s := range byNominee {
		better := best == nil ||
			s.count > best.VoteCount ||
			(s.count == best.VoteCount && s.reached.Before(best.ReachedAt)) ||
			(s.count == best.VoteCount && s.reached.Equal(best.ReachedAt) && id < best.NomineeID)
		if better {
			best = &models.Winner{NomineeID: id, VoteCount: s.count, ReachedAt: s.reached}
		}
	}
	return best
}

// Stats summarizes the whole ledger for the administrative view. days is
// the length of the trailing per-day window, including today (UTC).
func (e *Engine) Stats(ctx context.Context, days int) (models.Stats, error) {
	if days <= 0 || days > 366 {
		return models.Stats{}, fmt.Errorf("%w: days must be between 1 and 366", models.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	var st models.Stats
	err := e.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COUNT(DISTINCT identity_kind || ':' || identity_value) FROM vote
	`).Scan(&st.TotalVotes, &st.UniqueVoters)
	if err != nil {
		return models.Stats{}, fmt.Errorf("%w: count votes: %v", models.ErrUnavailable, err)
	}
	if st.UniqueVoters > 0 {
		st.AvgVotesPerVoter = float64(st.TotalVotes) / float64(st.UniqueVoters)
	}

	today := truncateDay(e.now().UTC())
	since := today.AddDate(0, 0, -(days - 1))
	if st.Daily, err = e.daily(ctx, since, days); err != nil {
		return models.Stats{}, err
	}
	if st.Categories, err = e.categoryTotals(ctx); err != nil {
		return models.Stats{}, err
	}
	return st, nil
}

func (e *Engine) daily(ctx context.Context, since time.Time, days int) ([]models.DayCount, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT created_at FROM vote WHERE created_at >= $1
	`, since)
	if err != nil {
		return nil, fmt.Errorf("%w: query daily votes: %v", models.ErrUnavailable, err)
	}
	defer rows.Close()

	var times []time.Time
	for rows.Next() {
		var at time.Time
		if err := rows.Scan(&at); err != nil {
			return nil, fmt.Errorf("%w: scan vote time: %v", models.ErrUnavailable, err)
		}
		times = append(times, at)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	return BucketByDay(times, since, days), nil
}

// BucketByDay counts timestamps per UTC day for days consecutive days
// starting at since. Days without votes are reported with a zero count.
func BucketByDay(times []time.Time, since time.Time, days int) []models.DayCount {
	since = truncateDay(since.UTC())
	out := make([]models.DayCount, days)
	for i := range out {
		out[i].Date = since.AddDate(0, 0, i).Format("2006-01-02")
	}
	for _, t := range times {
		d := int(truncateDay(t.UTC()).Sub(since).Hours() / 24)
		if d >= 0 && d < days {
			out[d].Count++
		}
	}
	return out
}

func (e *Engine) categoryTotals(ctx context.Context) ([]models.CategoryTotal, error) {
	rows, err := e.db.QueryContext(ctx, `
		SELECT c.id, c.name, COUNT(v.id)
		FROM category c
		LEFT JOIN vote v ON v.category_id = c.id
		GROUP BY c.id, c.name
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: query category totals: %v", models.ErrUnavailable, err)
	}
	defer rows.Close()

	totals := []models.CategoryTotal{}
	for rows.Next() {
		var ct models.CategoryTotal
		if err := rows.Scan(&ct.CategoryID, &ct.Name, &ct.Total); err != nil {
			return nil, fmt.Errorf("%w: scan category total: %v", models.ErrUnavailable, err)
		}
		totals = append(totals, ct)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}

	sort.SliceStable(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].Name < totals[j].Name
	})
	return totals, nil
}

func (e *Engine) requireCategory(ctx context.Context, categoryID string) error {
	_, err := e.catalog.Category(ctx, categoryID)
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("%w: %w", models.ErrValidation, err)
	}
	if err != nil {
		return fmt.Errorf("%w: %v", models.ErrUnavailable, err)
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
