// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"testing"

	"github.com/danielhkuo/attested-vote/cliparse"
	"github.com/danielhkuo/attested-vote/db"
	"github.com/danielhkuo/attested-vote/testutil"
	"github.com/danielhkuo/attested-vote/voting"
)

// testEnv bundles a fresh ledger with handlers wired the way the router
// wires them
type testEnv struct {
	conn       *sql.DB
	ledger     *db.Ledger
	cfg        cliparse.Config
	voting     *VotingHandler
	results    *ResultsHandler
	candidates *CandidateHandler
	devices    *DeviceHandler
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, ledger := testutil.SetupTestDB(t)
	cfg := testutil.GetTestConfig()
	admission := voting.NewAdmission(ledger, testutil.TestAttestor())

	return &testEnv{
		conn:       conn,
		ledger:     ledger,
		cfg:        cfg,
		voting:     NewVotingHandler(admission, cfg),
		results:    NewResultsHandler(voting.NewTally(ledger)),
		candidates: NewCandidateHandler(voting.NewAdmin(ledger, cfg.AdminKey)),
		devices:    NewDeviceHandler(admission),
	}
}
