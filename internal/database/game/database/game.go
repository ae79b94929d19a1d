package database

import (
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/bloops-games/wordrounds/internal/database"
	"github.com/bloops-games/wordrounds/internal/database/game/model"
	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	bolt "go.etcd.io/bbolt"
)

var bucket = []byte("games")

var ErrNotFound = fmt.Errorf("game not found")

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) Add(g model.Game) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		return database.Put(tx, bucket, []byte(g.ID), g)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) Fetch(id string) (model.Game, error) {
	var g model.Game
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		ok, err := database.Get(tx, bucket, []byte(id), &g)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	}); err != nil {
		return g, fmt.Errorf("view transaction error: %w", err)
	}

	return g, nil
}

// Finish attaches the final snapshot to the game record.
func (db *DB) Finish(id string, rounds []roomModel.RoundData, totals map[string]int, winners []string) (model.Game, error) {
	var g model.Game
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		ok, err := database.Get(tx, bucket, []byte(id), &g)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}

		now := time.Now()
		g.RoundsData = rounds
		g.Totals = totals
		g.Winners = winners
		g.FinishedAt = &now
		return database.Put(tx, bucket, []byte(id), g)
	}); err != nil {
		return g, fmt.Errorf("update transaction error: %w", err)
	}

	return g, nil
}

// FetchByRoom returns the games played in the room, newest first.
func (db *DB) FetchByRoom(roomCode string) ([]model.Game, error) {
	var list []model.Game
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var g model.Game
			if err := json.Unmarshal(v, &g); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			if g.RoomCode == roomCode {
				list = append(list, g)
			}
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})

	return list, nil
}
