// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/danielhkuo/quickly-vote/testutil"
)

func TestSQLReader(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	r := NewSQLReader(conn)

	film := testutil.CreateTestCategory(t, conn, "Best Film")
	actor := testutil.CreateTestCategory(t, conn, "Best Actor")
	a := testutil.AddTestNominee(t, conn, film, "A")
	testutil.AddTestNominee(t, conn, film, "B")
	testutil.AddTestNominee(t, conn, actor, "C")

	c, err := r.Category(ctx, film)
	if err != nil {
		t.Fatalf("Category() error = %v", err)
	}
	if c.Name != "Best Film" {
		t.Errorf("Category().Name = %q", c.Name)
	}

	n, err := r.Nominee(ctx, a)
	if err != nil {
		t.Fatalf("Nominee() error = %v", err)
	}
	if n.CategoryID != film || n.Name != "A" {
		t.Errorf("Nominee() = %+v", n)
	}

	nominees, err := r.Nominees(ctx, film)
	if err != nil {
		t.Fatalf("Nominees() error = %v", err)
	}
	if len(nominees) != 2 {
		t.Errorf("Nominees() returned %d, want 2", len(nominees))
	}

	all, err := r.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories() error = %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("Categories() returned %d, want 2", len(all))
	}
	counts := map[string]int{}
	for _, cw := range all {
		counts[cw.Category.ID] = len(cw.Nominees)
	}
	if counts[film] != 2 || counts[actor] != 1 {
		t.Errorf("nominee counts = %v", counts)
	}
}

func TestSQLReader_NotFound(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	ctx := context.Background()
	r := NewSQLReader(conn)

	if _, err := r.Category(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Category() error = %v, want ErrNotFound", err)
	}
	if _, err := r.Nominee(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Nominee() error = %v, want ErrNotFound", err)
	}

	nominees, err := r.Nominees(ctx, "missing")
	if err != nil {
		t.Fatalf("Nominees() error = %v", err)
	}
	if len(nominees) != 0 {
		t.Errorf("Nominees() for unknown category returned %d rows", len(nominees))
	}
}
