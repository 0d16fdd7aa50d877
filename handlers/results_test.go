// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/danielhkuo/quickly-vote/models"
	"github.com/danielhkuo/quickly-vote/testutil"
)

func getCategory(env *testEnv, handler http.HandlerFunc, path, categoryID string) *httptest.ResponseRecorder {
	req := httptest.NewRequest("GET", path, nil)
	req.SetPathValue("id", categoryID)
	w := httptest.NewRecorder()
	handler(w, req)
	return w
}

func TestGetTally(t *testing.T) {
	env := newTestEnv(t)
	c := testutil.CreateTestCategory(t, env.db, "C")
	a := testutil.AddTestNominee(t, env.db, c, "A")
	b := testutil.AddTestNominee(t, env.db, c, "B")

	now := time.Now()
	for i := 0; i < 3; i++ {
		testutil.InsertTestVote(t, env.db, models.Authenticated(fmt.Sprintf("a%d", i)), c, a, now)
	}
	testutil.InsertTestVote(t, env.db, models.Anonymous("fp-hash"), c, b, now)

	w := getCategory(env, env.results.GetTally, "/categories/"+c+"/tally", c)
	testutil.AssertStatus(t, w, http.StatusOK)

	var snap models.TallySnapshot
	testutil.AssertJSON(t, w, &snap)
	pct := map[string]int{}
	for _, n := range snap.Nominees {
		pct[n.NomineeID] = n.Percentage
	}
	if snap.Count(a) != 3 || pct[a] != 75 || snap.Count(b) != 1 || pct[b] != 25 {
		t.Errorf("Unexpected tally %+v", snap)
	}
}

func TestGetTally_UnknownCategory(t *testing.T) {
	env := newTestEnv(t)
	w := getCategory(env, env.results.GetTally, "/categories/missing/tally", "missing")
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestGetWinner(t *testing.T) {
	env := newTestEnv(t)
	c := testutil.CreateTestCategory(t, env.db, "C")
	a := testutil.AddTestNominee(t, env.db, c, "A")
	b := testutil.AddTestNominee(t, env.db, c, "B")

	w := getCategory(env, env.results.GetWinner, "/categories/"+c+"/winner", c)
	testutil.AssertStatus(t, w, http.StatusNoContent)

	base := time.Now().Add(-time.Hour)
	testutil.InsertTestVote(t, env.db, models.Authenticated("1"), c, b, base)
	testutil.InsertTestVote(t, env.db, models.Authenticated("2"), c, a, base.Add(time.Minute))

	w = getCategory(env, env.results.GetWinner, "/categories/"+c+"/winner", c)
	testutil.AssertStatus(t, w, http.StatusOK)
	var winner models.Winner
	testutil.AssertJSON(t, w, &winner)
	if winner.NomineeID != b || winner.Name != "B" {
		t.Errorf("Expected B to win the tie by reaching 1 first, got %+v", winner)
	}

	w = getCategory(env, env.results.GetWinner, "/categories/missing/winner", "missing")
	testutil.AssertStatus(t, w, http.StatusNotFound)
}

func TestListCategories(t *testing.T) {
	env := newTestEnv(t)
	c := testutil.CreateTestCategory(t, env.db, "C")
	testutil.AddTestNominee(t, env.db, c, "A")

	req := httptest.NewRequest("GET", "/categories", nil)
	w := httptest.NewRecorder()
	env.results.ListCategories(w, req)
	testutil.AssertStatus(t, w, http.StatusOK)

	var got []models.CategoryWithNominees
	testutil.AssertJSON(t, w, &got)
	if len(got) != 1 || len(got[0].Nominees) != 1 {
		t.Errorf("Unexpected catalog %+v", got)
	}
}
