package models

import "time"

// Device OS constants (attestation path selector)
const (
	OSAndroid = "android"
	OSIOS     = "ios"
)

// Request types

type VoteRequest struct {
	DeviceID      string `json:"device_id"`
	CandidateName string `json:"candidate_name"`
	OS            string `json:"os"`
	Token         string `json:"token"`
}

type CandidateRequest struct {
	Name string `json:"name"`
}

// Response types

type VoteResponse struct {
	Candidate string `json:"candidate"`
	Message   string `json:"message"`
	Vote      Vote   `json:"vote"`
}

type PercentageResult struct {
	Name    string  `json:"name"`
	Percent float64 `json:"percent"`
}

type CreateCandidateResponse struct {
	Candidate Candidate `json:"candidate"`
	Created   bool      `json:"created"`
}

type DeleteCandidateResponse struct {
	Name         string `json:"name"`
	VotesRemoved int64  `json:"votes_removed"`
}

type VoteStatusResponse struct {
	DeviceID string `json:"device_id"`
	HasVoted bool   `json:"has_voted"`
}

// Domain types

type Candidate struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

type Vote struct {
	DeviceID    string    `json:"-"` // Never expose in JSON
	CandidateID int64     `json:"candidate_id"`
	Candidate   string    `json:"candidate"`
	OS          string    `json:"os"`
	CreatedAt   time.Time `json:"created_at"`
}

// CandidateCount is one row of a tally snapshot.
type CandidateCount struct {
	CandidateID int64
	Name        string
	Votes       int64
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}
