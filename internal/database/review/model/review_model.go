package model

import (
	"time"

	"github.com/google/uuid"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusRejected Status = "rejected"
)

const (
	minApprovals      = 2
	minRejectionVotes = 3
)

type Vote struct {
	VoterID string    `json:"voterId"`
	Approve bool      `json:"approve"`
	At      time.Time `json:"at"`
}

type ReviewWord struct {
	ID          string     `json:"id"`
	Word        string     `json:"word"`
	CategoryID  string     `json:"categoryId"`
	Letter      string     `json:"letter"`
	RoomCode    string     `json:"roomCode"`
	RoundNumber int        `json:"roundNumber"`
	PlayerID    string     `json:"playerId"`
	Votes       []Vote     `json:"votes"`
	Status      Status     `json:"status"`
	DecidedAt   *time.Time `json:"decidedAt,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
}

func NewReviewWord(roomCode string, roundNumber int, playerID, categoryID, letter, word string) ReviewWord {
	return ReviewWord{
		ID:          uuid.New().String(),
		Word:        word,
		CategoryID:  categoryID,
		Letter:      letter,
		RoomCode:    roomCode,
		RoundNumber: roundNumber,
		PlayerID:    playerID,
		Votes:       []Vote{},
		Status:      StatusPending,
		CreatedAt:   time.Now(),
	}
}

func (r *ReviewWord) Pending() bool {
	return r.Status == StatusPending
}

func (r *ReviewWord) HasVoted(voterID string) bool {
	for _, v := range r.Votes {
		if v.VoterID == voterID {
			return true
		}
	}

	return false
}

func (r *ReviewWord) Tally() (approvals, rejections int) {
	for _, v := range r.Votes {
		if v.Approve {
			approvals++
		} else {
			rejections++
		}
	}

	return approvals, rejections
}

// Decide returns the status implied by the votes cast so far: accepted once
// at least two approvals form a strict majority, rejected once three or more
// votes contain no approval.
func (r *ReviewWord) Decide() Status {
	approvals, rejections := r.Tally()
	total := approvals + rejections
	switch {
	case approvals >= minApprovals && approvals*2 > total:
		return StatusAccepted
	case total >= minRejectionVotes && approvals == 0:
		return StatusRejected
	default:
		return StatusPending
	}
}
