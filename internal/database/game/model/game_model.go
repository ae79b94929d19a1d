package model

import (
	"time"

	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	"github.com/google/uuid"
)

func NewGame(roomCode string, players []string, rounds int, categories []string) Game {
	g := Game{
		ID:         uuid.New().String(),
		RoomCode:   roomCode,
		Players:    make([]string, len(players)),
		Rounds:     rounds,
		Categories: make([]string, len(categories)),
		CreatedAt:  time.Now(),
	}

	copy(g.Players, players)
	copy(g.Categories, categories)
	return g
}

type Game struct {
	ID         string                `json:"id"`
	RoomCode   string                `json:"roomCode"`
	Players    []string              `json:"players"`
	Rounds     int                   `json:"rounds"`
	Categories []string              `json:"categories"`
	RoundsData []roomModel.RoundData `json:"roundsData,omitempty"`
	Totals     map[string]int        `json:"totals,omitempty"`
	Winners    []string              `json:"winners,omitempty"`
	CreatedAt  time.Time             `json:"createdAt"`
	FinishedAt *time.Time            `json:"finishedAt,omitempty"`
}

func (g *Game) Finished() bool {
	return g.FinishedAt != nil
}
