// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package voting

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"sync/atomic"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/danielhkuo/attested-vote/attest"
	"github.com/danielhkuo/attested-vote/db"
	"github.com/danielhkuo/attested-vote/models"
	"github.com/danielhkuo/attested-vote/testutil"
)

const percentTolerance = 1e-6

type services struct {
	admission *Admission
	tally     *Tally
	admin     *Admin
	ledger    *db.Ledger
}

func newServices(t *testing.T) services {
	_, ledger := testutil.SetupTestDB(t)
	return services{
		admission: NewAdmission(ledger, testutil.TestAttestor()),
		tally:     NewTally(ledger),
		admin:     NewAdmin(ledger, testutil.TestAdminKey),
		ledger:    ledger,
	}
}

// countingAttestor records calls and answers with a fixed verdict.
type countingAttestor struct {
	calls atomic.Int32
	ok    bool
}

func (a *countingAttestor) Verify(context.Context, attest.OS, string) bool {
	a.calls.Add(1)
	return a.ok
}

func percentOf(c *qt.C, results []models.PercentageResult, name string) float64 {
	for _, r := range results {
		if r.Name == name {
			return r.Percent
		}
	}
	c.Fatalf("candidate %q not in results %v", name, results)
	return 0
}

func TestVotingScenario(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := newServices(t)

	vote, err := s.admission.CastVote(ctx, "device1", "Alice", "android", testutil.ValidAndroidToken)
	c.Assert(err, qt.IsNil)
	c.Assert(vote.Candidate, qt.Equals, "Alice")

	_, err = s.admission.CastVote(ctx, "device1", "Bob", "ios", testutil.ValidIOSToken)
	c.Assert(err, qt.ErrorIs, ErrConflict)
	c.Assert(Kind(err), qt.Equals, KindConflict)

	_, err = s.admission.CastVote(ctx, "device2", "Bob", "ios", testutil.ValidIOSToken)
	c.Assert(err, qt.IsNil)

	results, err := s.tally.Percentages(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.DeepEquals, []models.PercentageResult{
		{Name: "Alice", Percent: 50},
		{Name: "Bob", Percent: 50},
	})

	removed, err := s.admin.DeleteCandidate(ctx, testutil.TestAdminKey, "Alice")
	c.Assert(err, qt.IsNil)
	c.Assert(removed, qt.Equals, int64(1))

	results, err = s.tally.Percentages(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.DeepEquals, []models.PercentageResult{
		{Name: "Bob", Percent: 100},
	})

	// device1 was freed by the delete
	_, err = s.admission.CastVote(ctx, "device1", "Charlie", "android", testutil.ValidAndroidToken)
	c.Assert(err, qt.IsNil)
}

func TestInvalidTokenCreatesNothing(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	conn, ledger := testutil.SetupTestDB(t)
	admission := NewAdmission(ledger, testutil.TestAttestor())

	_, err := admission.CastVote(ctx, "device3", "Charlie", "android", "invalid_token")
	c.Assert(err, qt.ErrorIs, ErrUnauthorized)
	c.Assert(Kind(err), qt.Equals, KindUnauthorized)

	// token for the other OS is not valid either
	_, err = admission.CastVote(ctx, "device3", "Charlie", "android", testutil.ValidIOSToken)
	c.Assert(err, qt.ErrorIs, ErrUnauthorized)

	c.Assert(testutil.CountRows(t, conn, "candidate"), qt.Equals, 0)
	c.Assert(testutil.CountRows(t, conn, "vote"), qt.Equals, 0)
}

func TestCastVoteValidation(t *testing.T) {
	tests := []struct {
		name      string
		deviceID  string
		candidate string
		os        string
	}{
		{"missing device", "", "Alice", "android"},
		{"missing candidate", "device1", "", "android"},
		{"missing os", "device1", "Alice", ""},
		{"unknown os", "device1", "Alice", "windows"},
		{"os is case sensitive", "device1", "Alice", "Android"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)
			attestor := &countingAttestor{ok: true}
			_, ledger := testutil.SetupTestDB(t)
			admission := NewAdmission(ledger, attestor)

			_, err := admission.CastVote(context.Background(), tt.deviceID, tt.candidate, tt.os, "tok")
			c.Assert(err, qt.ErrorIs, ErrInvalidRequest)
			c.Assert(Kind(err), qt.Equals, KindInvalidRequest)
			// validation runs before attestation
			c.Assert(attestor.calls.Load(), qt.Equals, int32(0))
		})
	}
}

func TestAdmissionIncrementsOnlyResolvedCandidate(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := newServices(t)

	testutil.CastTestVote(t, s.ledger, "seed1", "Alice", "android")
	testutil.CastTestVote(t, s.ledger, "seed2", "Bob", "ios")

	before, err := s.ledger.Tally(ctx)
	c.Assert(err, qt.IsNil)

	_, err = s.admission.CastVote(ctx, "device9", "Bob", "ios", testutil.ValidIOSToken)
	c.Assert(err, qt.IsNil)

	after, err := s.ledger.Tally(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(after, qt.HasLen, len(before))
	for i := range before {
		want := before[i].Votes
		if before[i].Name == "Bob" {
			want++
		}
		c.Assert(after[i].Votes, qt.Equals, want, qt.Commentf("candidate %s", before[i].Name))
	}
}

func TestConcurrentCastVoteSameDevice(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := newServices(t)

	const attempts = 16
	var (
		wg        sync.WaitGroup
		successes atomic.Int32
		conflicts atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			candidate := []string{"Alice", "Bob", "Charlie", "Dana"}[i%4]
			_, err := s.admission.CastVote(ctx, "shared-device", candidate, "android", testutil.ValidAndroidToken)
			switch {
			case err == nil:
				successes.Add(1)
			case errors.Is(err, ErrConflict):
				conflicts.Add(1)
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	c.Assert(successes.Load(), qt.Equals, int32(1))
	c.Assert(conflicts.Load(), qt.Equals, int32(attempts-1))

	voted, err := s.admission.HasVoted(ctx, "shared-device")
	c.Assert(err, qt.IsNil)
	c.Assert(voted, qt.IsTrue)
}

func TestCastVoteCancelledLeavesNoRows(t *testing.T) {
	c := qt.New(t)
	conn, ledger := testutil.SetupTestDB(t)
	admission := NewAdmission(ledger, &countingAttestor{ok: true})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := admission.CastVote(ctx, "d1", "Zed", "android", testutil.ValidAndroidToken)
	c.Assert(err, qt.ErrorIs, ErrStoreUnavailable)
	c.Assert(err, qt.ErrorIs, context.Canceled)
	c.Assert(Kind(err), qt.Equals, KindStoreUnavailable)

	c.Assert(testutil.CountRows(t, conn, "candidate"), qt.Equals, 0)
	c.Assert(testutil.CountRows(t, conn, "vote"), qt.Equals, 0)
}

func TestTallyDuringConcurrentVotes(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := newServices(t)

	const voters = 40
	candidates := []string{"Alice", "Bob", "Charlie"}

	var writers sync.WaitGroup
	for i := 0; i < voters; i++ {
		writers.Add(1)
		go func(i int) {
			defer writers.Done()
			device := fmt.Sprintf("device-%d", i)
			_, err := s.admission.CastVote(ctx, device, candidates[i%len(candidates)], "ios", testutil.ValidIOSToken)
			c.Check(err, qt.IsNil)
		}(i)
	}

	done := make(chan struct{})
	go func() {
		writers.Wait()
		close(done)
	}()

	// Keep reading until every writer is finished. Each snapshot must be
	// whole: percentages sum to 100 and no count ever goes backwards.
	seen := make(map[string]int64)
	var lastTotal int64
	for reading := true; reading; {
		select {
		case <-done:
			reading = false
		default:
		}

		counts, err := s.ledger.Tally(ctx)
		c.Assert(err, qt.IsNil)
		var total int64
		for _, cc := range counts {
			c.Assert(cc.Votes >= seen[cc.Name], qt.IsTrue, qt.Commentf("%s went from %d to %d", cc.Name, seen[cc.Name], cc.Votes))
			seen[cc.Name] = cc.Votes
			total += cc.Votes
		}
		c.Assert(total >= lastTotal, qt.IsTrue, qt.Commentf("total went from %d to %d", lastTotal, total))
		lastTotal = total

		results, err := s.tally.Percentages(ctx)
		c.Assert(err, qt.IsNil)
		if len(results) > 0 {
			sum := 0.0
			for _, r := range results {
				c.Assert(r.Percent >= 0, qt.IsTrue)
				sum += r.Percent
			}
			c.Assert(math.Abs(sum-100), qt.Satisfies, func(d float64) bool { return d <= percentTolerance })
		}
	}

	c.Assert(lastTotal, qt.Equals, int64(voters))
}

func TestPercentages(t *testing.T) {
	tests := []struct {
		name   string
		counts []models.CandidateCount
		want   []float64
	}{
		{
			name: "no candidates",
		},
		{
			name:   "no votes",
			counts: []models.CandidateCount{{Name: "A"}, {Name: "B"}},
			want:   []float64{0, 0},
		},
		{
			name:   "thirds",
			counts: []models.CandidateCount{{Name: "A", Votes: 1}, {Name: "B", Votes: 1}, {Name: "C", Votes: 1}},
			want:   []float64{100.0 / 3, 100.0 / 3, 100.0 / 3},
		},
		{
			name:   "zero vote candidate included",
			counts: []models.CandidateCount{{Name: "A", Votes: 3}, {Name: "B", Votes: 0}, {Name: "C", Votes: 1}},
			want:   []float64{75, 0, 25},
		},
		{
			name:   "sevenths",
			counts: []models.CandidateCount{{Name: "A", Votes: 1}, {Name: "B", Votes: 2}, {Name: "C", Votes: 4}},
			want:   []float64{100.0 / 7, 200.0 / 7, 400.0 / 7},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := qt.New(t)

			got := Percentages(tt.counts)
			c.Assert(got, qt.HasLen, len(tt.counts))
			c.Assert(got, qt.Not(qt.IsNil))

			var sum float64
			var total int64
			for i, r := range got {
				c.Assert(r.Name, qt.Equals, tt.counts[i].Name)
				c.Assert(r.Percent >= 0, qt.IsTrue)
				c.Assert(math.IsNaN(r.Percent), qt.IsFalse)
				c.Assert(math.Abs(r.Percent-tt.want[i]) < percentTolerance, qt.IsTrue,
					qt.Commentf("%s: got %v want %v", r.Name, r.Percent, tt.want[i]))
				sum += r.Percent
				total += tt.counts[i].Votes
			}
			if total > 0 {
				c.Assert(math.Abs(sum-100) < percentTolerance, qt.IsTrue, qt.Commentf("sum %v", sum))
			} else {
				c.Assert(sum, qt.Equals, 0.0)
			}
		})
	}
}

func TestPercentagesIncludesZeroVoteCandidates(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := newServices(t)

	_, _, err := s.admin.CreateCandidate(ctx, testutil.TestAdminKey, "Quiet")
	c.Assert(err, qt.IsNil)

	results, err := s.tally.Percentages(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.DeepEquals, []models.PercentageResult{{Name: "Quiet", Percent: 0}})

	_, err = s.admission.CastVote(ctx, "device1", "Loud", "ios", testutil.ValidIOSToken)
	c.Assert(err, qt.IsNil)

	results, err = s.tally.Percentages(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(results, qt.HasLen, 2)
	c.Assert(percentOf(c, results, "Quiet"), qt.Equals, 0.0)
	c.Assert(percentOf(c, results, "Loud"), qt.Equals, 100.0)
}

func TestAdminWrongKeyNeverMutates(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := newServices(t)

	testutil.CastTestVote(t, s.ledger, "device1", "Alice", "android")
	before, err := s.ledger.Tally(ctx)
	c.Assert(err, qt.IsNil)

	for _, key := range []string{"", "wrong", testutil.TestAdminKey + " "} {
		_, err := s.admin.DeleteCandidate(ctx, key, "Alice")
		c.Assert(err, qt.ErrorIs, ErrUnauthorized)

		_, err = s.admin.DeleteCandidate(ctx, key, "Nobody")
		c.Assert(err, qt.ErrorIs, ErrUnauthorized)

		_, _, err = s.admin.CreateCandidate(ctx, key, "Mallory")
		c.Assert(err, qt.ErrorIs, ErrUnauthorized)
	}

	after, err := s.ledger.Tally(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(after, qt.DeepEquals, before)
}

func TestAdminDeleteUnknownCandidate(t *testing.T) {
	c := qt.New(t)
	s := newServices(t)

	_, err := s.admin.DeleteCandidate(context.Background(), testutil.TestAdminKey, "Ghost")
	c.Assert(err, qt.ErrorIs, ErrNotFound)
	c.Assert(Kind(err), qt.Equals, KindNotFound)

	_, err = s.admin.DeleteCandidate(context.Background(), testutil.TestAdminKey, "")
	c.Assert(err, qt.ErrorIs, ErrInvalidRequest)
}

func TestAdminCreateCandidateIdempotent(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	s := newServices(t)

	first, created, err := s.admin.CreateCandidate(ctx, testutil.TestAdminKey, "Alice")
	c.Assert(err, qt.IsNil)
	c.Assert(created, qt.IsTrue)

	second, created, err := s.admin.CreateCandidate(ctx, testutil.TestAdminKey, "Alice")
	c.Assert(err, qt.IsNil)
	c.Assert(created, qt.IsFalse)
	c.Assert(second.ID, qt.Equals, first.ID)

	// votes for a provisioned candidate attach to the same row
	vote, err := s.admission.CastVote(ctx, "device1", "Alice", "android", testutil.ValidAndroidToken)
	c.Assert(err, qt.IsNil)
	c.Assert(vote.CandidateID, qt.Equals, first.ID)
}

// failingLedger returns err from every method.
type failingLedger struct{ err error }

func (f failingLedger) CastVote(context.Context, string, string, string) (models.Vote, error) {
	return models.Vote{}, f.err
}
func (f failingLedger) EnsureCandidate(context.Context, string) (models.Candidate, bool, error) {
	return models.Candidate{}, false, f.err
}
func (f failingLedger) Tally(context.Context) ([]models.CandidateCount, error) { return nil, f.err }
func (f failingLedger) DeleteCandidate(context.Context, string) (int64, error) { return 0, f.err }
func (f failingLedger) HasVoted(context.Context, string) (bool, error)        { return false, f.err }

func TestStoreFailuresAreStoreUnavailable(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	ledger := failingLedger{err: errors.New("disk on fire")}

	_, err := NewAdmission(ledger, &countingAttestor{ok: true}).CastVote(ctx, "d", "A", "ios", "t")
	c.Assert(err, qt.ErrorIs, ErrStoreUnavailable)
	c.Assert(Kind(err), qt.Equals, KindStoreUnavailable)

	_, err = NewTally(ledger).Percentages(ctx)
	c.Assert(err, qt.ErrorIs, ErrStoreUnavailable)

	_, err = NewAdmin(ledger, "k").DeleteCandidate(ctx, "k", "A")
	c.Assert(err, qt.ErrorIs, ErrStoreUnavailable)

	_, err = NewAdmission(ledger, &countingAttestor{ok: true}).HasVoted(ctx, "d")
	c.Assert(err, qt.ErrorIs, ErrStoreUnavailable)
}

func TestRejectedAttestationSkipsLedger(t *testing.T) {
	c := qt.New(t)
	ledger := failingLedger{err: errors.New("ledger must not be called")}
	attestor := &countingAttestor{ok: false}

	_, err := NewAdmission(ledger, attestor).CastVote(context.Background(), "d", "A", "android", "t")
	c.Assert(err, qt.ErrorIs, ErrUnauthorized)
	c.Assert(attestor.calls.Load(), qt.Equals, int32(1))
}

func TestKind(t *testing.T) {
	c := qt.New(t)

	c.Assert(Kind(nil), qt.Equals, "")
	c.Assert(Kind(errors.New("other")), qt.Equals, "")
	c.Assert(Kind(storeError(db.ErrDuplicateVote)), qt.Equals, KindConflict)
	c.Assert(Kind(storeError(db.ErrCandidateNotFound)), qt.Equals, KindNotFound)
	c.Assert(Kind(storeError(db.ErrCandidateGone)), qt.Equals, KindStoreUnavailable)
	c.Assert(Kind(storeError(context.Canceled)), qt.Equals, KindStoreUnavailable)
}
