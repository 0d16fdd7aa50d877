// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"context"
	"database/sql"
	"testing"

	"github.com/danielhkuo/quickly-vote/auth"
	"github.com/danielhkuo/quickly-vote/catalog"
	"github.com/danielhkuo/quickly-vote/cliparse"
	"github.com/danielhkuo/quickly-vote/flags"
	"github.com/danielhkuo/quickly-vote/identity"
	"github.com/danielhkuo/quickly-vote/ledger"
	"github.com/danielhkuo/quickly-vote/tally"
	"github.com/danielhkuo/quickly-vote/testutil"
)

// testEnv wires real components over a SQLite test database
type testEnv struct {
	db      *sql.DB
	cfg     cliparse.Config
	flags   *flags.Store
	catalog *catalog.SQLReader

	voting  *VotingHandler
	results *ResultsHandler
	admin   *AdminHandler
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()

	store := flags.NewStore(conn, nil, cfg.StoreTimeout)
	if err := store.Load(context.Background()); err != nil {
		t.Fatalf("Failed to load settings: %v", err)
	}

	cat := catalog.NewSQLReader(conn)
	resolver := identity.NewResolver(auth.NewSessionVerifier(cfg.SessionSecret, auth.Issuer), store, cfg.FingerprintSalt)
	votes := ledger.New(conn, cat, nil, cfg.StoreTimeout)
	engine := tally.NewEngine(conn, cat, cfg.StoreTimeout)

	return &testEnv{
		db:      conn,
		cfg:     cfg,
		flags:   store,
		catalog: cat,
		voting:  NewVotingHandler(resolver, votes),
		results: NewResultsHandler(engine, cat),
		admin:   NewAdminHandler(store, engine),
	}
}

// anonHeaders identifies an anonymous client by fingerprint
func anonHeaders(fingerprint string) map[string]string {
	return map[string]string{identity.FingerprintHeader: fingerprint}
}
