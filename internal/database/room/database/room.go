package database

import (
	"fmt"

	"github.com/bloops-games/wordrounds/internal/database"
	"github.com/bloops-games/wordrounds/internal/database/room/model"
	bolt "go.etcd.io/bbolt"
)

var bucket = []byte("rooms")

var (
	ErrNotFound      = fmt.Errorf("room not found")
	ErrRoundNotFound = fmt.Errorf("round not found")
	ErrRoundClosed   = fmt.Errorf("round already scored")
	ErrCodeTaken     = fmt.Errorf("room code taken")
)

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) Fetch(code string) (model.Room, error) {
	var room model.Room
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		ok, err := database.Get(tx, bucket, []byte(code), &room)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	}); err != nil {
		return room, fmt.Errorf("view transaction error: %w", err)
	}

	return room, nil
}

func (db *DB) Store(room model.Room) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		return database.Put(tx, bucket, []byte(room.Code), room)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

// Create stores a new room and fails when the code is already in use.
func (db *DB) Create(room model.Room) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		var existing model.Room
		ok, err := database.Get(tx, bucket, []byte(room.Code), &existing)
		if err != nil {
			return err
		}
		if ok {
			return ErrCodeTaken
		}
		return database.Put(tx, bucket, []byte(room.Code), room)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

// Update applies fn to the stored room inside one write transaction. The
// room is written back only if fn returns nil.
func (db *DB) Update(code string, fn func(room *model.Room) error) (model.Room, error) {
	var room model.Room
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		ok, err := database.Get(tx, bucket, []byte(code), &room)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}

		if err := fn(&room); err != nil {
			return err
		}

		return database.Put(tx, bucket, []byte(code), room)
	}); err != nil {
		return room, fmt.Errorf("update transaction error: %w", err)
	}

	return room, nil
}

// UpsertSubmission replaces the player's submission for the round, or
// appends it when the player has not submitted yet. Scored rounds are closed.
func (db *DB) UpsertSubmission(code string, roundNumber int, sub model.Submission) (model.Room, error) {
	return db.Update(code, func(room *model.Room) error {
		rd, ok := room.Round(roundNumber)
		if !ok {
			return ErrRoundNotFound
		}

		if rd.Scored() {
			return ErrRoundClosed
		}

		rd.Upsert(sub)
		return nil
	})
}

// ApplyAdjustment appends adj to the player's submission in a scored round
// and recalculates its points. It reports false when the round is not scored
// yet, the submission is missing or not eligible, or an adjustment of the
// same kind and category already exists.
func (db *DB) ApplyAdjustment(
	code string,
	roundNumber int,
	playerID string,
	adj model.Adjustment,
	eligible func(sub model.Submission) bool,
) (bool, error) {
	var applied bool
	if _, err := db.Update(code, func(room *model.Room) error {
		rd, ok := room.Round(roundNumber)
		if !ok {
			return ErrRoundNotFound
		}

		if !rd.Scored() {
			return nil
		}

		sub, ok := rd.Submission(playerID)
		if !ok || sub.HasAdjustment(adj.Kind, adj.CategoryID) {
			return nil
		}

		if eligible != nil && !eligible(*sub) {
			return nil
		}

		sub.Adjustments = append(sub.Adjustments, adj)
		sub.Recalculate()
		applied = true
		return nil
	}); err != nil {
		return false, err
	}

	return applied, nil
}
