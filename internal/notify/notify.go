package notify

import (
	reviewModel "github.com/bloops-games/wordrounds/internal/database/review/model"
	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	"github.com/bloops-games/wordrounds/internal/scoring"
)

const (
	EventRoundStarted       = "round-started"
	EventRoundResults       = "round-results"
	EventGameEnded          = "game-ended"
	EventForceSubmit        = "force-submit"
	EventReviewWordsUpdated = "review-words-updated"
	EventReviewWordDecided  = "review-word-decided"
	EventError              = "error"
)

// Notifier pushes events to the clients subscribed to a room.
type Notifier interface {
	Broadcast(roomCode, event string, payload interface{})
	Send(roomCode, playerID, event string, payload interface{})
}

type CategoryMeta struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	DisplayName string `json:"displayName"`
}

type RoundStarted struct {
	CurrentRound int               `json:"currentRound"`
	TotalRounds  int               `json:"totalRounds"`
	Letter       string            `json:"letter"`
	Categories   []string          `json:"categories"`
	CategoryMeta []CategoryMeta    `json:"categoryMeta"`
	RoundEndTime int64             `json:"roundEndTime"`
	ServerNow    int64             `json:"serverNow"`
	HasSubmitted bool              `json:"hasSubmitted"`
	EndMode      roomModel.EndMode `json:"endMode"`
}

type RoundResults struct {
	Round        int                                  `json:"round"`
	Scores       map[string]int                       `json:"scores"`
	Answers      map[string]map[string]string         `json:"answers"`
	Details      map[string]map[string]scoring.Detail `json:"details"`
	BreakEndTime int64                                `json:"breakEndTime"`
	HasMore      bool                                 `json:"hasMore"`
}

type GameEnded struct {
	Totals  map[string]int `json:"totals"`
	Winners []string       `json:"winners"`
}

type ForceSubmit struct {
	RoomCode string `json:"roomCode"`
}

type ReviewWordsUpdated struct {
	Reviews []reviewModel.ReviewWord `json:"reviews"`
}

type ReviewWordDecided struct {
	ID     string             `json:"id"`
	Status reviewModel.Status `json:"status"`
	Word   string             `json:"word"`
	Player string             `json:"player"`
	Points int                `json:"points,omitempty"`
}

type Error struct {
	Message string `json:"message"`
}
