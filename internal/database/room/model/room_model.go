package model

import (
	"strings"
	"time"
)

type EndMode string

const (
	EndModeAllSubmit  EndMode = "ALL_SUBMIT"
	EndModePlayerStop EndMode = "PLAYER_STOP"
)

func (m EndMode) Valid() bool {
	return m == EndModeAllSubmit || m == EndModePlayerStop
}

type Room struct {
	Code          string        `json:"code"`
	HostID        string        `json:"hostId"`
	Players       []string      `json:"players"`
	Rounds        int           `json:"rounds"`
	RoundTime     time.Duration `json:"roundTime"`
	EndMode       EndMode       `json:"endMode"`
	Categories    []string      `json:"categories"`
	Started       bool          `json:"started"`
	CurrentRound  int           `json:"currentRound"`
	Letter        string        `json:"letter,omitempty"`
	RoundEndTime  *time.Time    `json:"roundEndTime,omitempty"`
	RoundsData    []RoundData   `json:"roundsData"`
	CurrentGameID string        `json:"currentGameId,omitempty"`
	CreatedAt     time.Time     `json:"createdAt"`
	LastActiveAt  time.Time     `json:"lastActiveAt"`
}

// NormalizeCode makes user typed codes comparable.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Active reports whether a round is currently collecting answers.
func (r *Room) Active() bool {
	return r.Letter != "" && r.RoundEndTime != nil
}

func (r *Room) HasMoreRounds() bool {
	return r.CurrentRound < r.Rounds
}

func (r *Room) HasPlayer(playerID string) bool {
	for _, p := range r.Players {
		if p == playerID {
			return true
		}
	}

	return false
}

func (r *Room) HasCategory(categoryID string) bool {
	for _, c := range r.Categories {
		if c == categoryID {
			return true
		}
	}

	return false
}

// Round returns the round with the given 1-based number.
func (r *Room) Round(number int) (*RoundData, bool) {
	for i := range r.RoundsData {
		if r.RoundsData[i].RoundNumber == number {
			return &r.RoundsData[i], true
		}
	}

	return nil, false
}

func (r *Room) CurrentRoundData() (*RoundData, bool) {
	return r.Round(r.CurrentRound)
}

// Reset puts the room back into the lobby, keeping players and settings.
func (r *Room) Reset() {
	r.Started = false
	r.CurrentRound = 0
	r.Letter = ""
	r.RoundEndTime = nil
	r.RoundsData = nil
	r.CurrentGameID = ""
}

type RoundData struct {
	RoundNumber int          `json:"roundNumber"`
	Letter      string       `json:"letter"`
	StartedAt   time.Time    `json:"startedAt"`
	EndedAt     *time.Time   `json:"endedAt,omitempty"`
	Submissions []Submission `json:"submissions"`
}

func (rd *RoundData) Scored() bool {
	return rd.EndedAt != nil
}

func (rd *RoundData) Submission(playerID string) (*Submission, bool) {
	for i := range rd.Submissions {
		if rd.Submissions[i].PlayerID == playerID {
			return &rd.Submissions[i], true
		}
	}

	return nil, false
}

// Upsert stores sub, replacing a previous submission of the same player.
func (rd *RoundData) Upsert(sub Submission) {
	if prev, ok := rd.Submission(sub.PlayerID); ok {
		sub.Adjustments = prev.Adjustments
		*prev = sub
		return
	}

	rd.Submissions = append(rd.Submissions, sub)
}

type AdjustmentKind string

const AdjustmentKindReview AdjustmentKind = "review"

// Adjustment is a delta applied on top of the scored base points.
type Adjustment struct {
	Kind       AdjustmentKind `json:"kind"`
	CategoryID string         `json:"categoryId"`
	ReviewID   string         `json:"reviewId,omitempty"`
	Points     int            `json:"points"`
	CreatedAt  time.Time      `json:"createdAt"`
}

type Submission struct {
	PlayerID    string            `json:"playerId"`
	Answers     map[string]string `json:"answers"`
	Forced      bool              `json:"forced"`
	SubmittedAt time.Time         `json:"submittedAt"`
	BasePoints  int               `json:"basePoints"`
	Adjustments []Adjustment      `json:"adjustments,omitempty"`
	Points      int               `json:"points"`
}

func (s *Submission) HasAdjustment(kind AdjustmentKind, categoryID string) bool {
	for _, a := range s.Adjustments {
		if a.Kind == kind && a.CategoryID == categoryID {
			return true
		}
	}

	return false
}

// Recalculate sets Points to the base score plus all adjustments.
func (s *Submission) Recalculate() {
	points := s.BasePoints
	for _, a := range s.Adjustments {
		points += a.Points
	}

	s.Points = points
}
