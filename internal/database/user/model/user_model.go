package model

import "time"

type Status uint8

const (
	StatusActive Status = iota + 1
	StatusBanned
)

type User struct {
	ID          string    `json:"id"`
	Name        string    `json:"name,omitempty"`
	Coins       int       `json:"coins"`
	GamesPlayed int       `json:"gamesPlayed"`
	Wins        int       `json:"wins"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}
