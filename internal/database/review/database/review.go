package database

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/bloops-games/wordrounds/internal/database"
	"github.com/bloops-games/wordrounds/internal/database/review/model"
	bolt "go.etcd.io/bbolt"
)

var bucket = []byte("reviews")

var ErrNotFound = fmt.Errorf("review not found")

func New(db *database.DB) *DB {
	return &DB{sDB: db}
}

type DB struct {
	sDB *database.DB
}

func (db *DB) Add(r model.ReviewWord) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		return database.Put(tx, bucket, []byte(r.ID), r)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	return nil
}

func (db *DB) Fetch(id string) (model.ReviewWord, error) {
	var r model.ReviewWord
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		ok, err := database.Get(tx, bucket, []byte(id), &r)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	}); err != nil {
		return r, fmt.Errorf("view transaction error: %w", err)
	}

	return r, nil
}

// Update applies fn to the stored review inside one write transaction.
func (db *DB) Update(id string, fn func(r *model.ReviewWord) error) (model.ReviewWord, error) {
	var r model.ReviewWord
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		ok, err := database.Get(tx, bucket, []byte(id), &r)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}

		if err := fn(&r); err != nil {
			return err
		}

		return database.Put(tx, bucket, []byte(id), r)
	}); err != nil {
		return r, fmt.Errorf("update transaction error: %w", err)
	}

	return r, nil
}

func (db *DB) filter(fn func(r model.ReviewWord) bool) ([]model.ReviewWord, error) {
	var list []model.ReviewWord
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var r model.ReviewWord
			if err := json.Unmarshal(v, &r); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			if fn(r) {
				list = append(list, r)
			}
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	sort.Slice(list, func(i, j int) bool {
		return list[i].CreatedAt.Before(list[j].CreatedAt)
	})

	return list, nil
}

// FetchByRoom lists reviews of the room with the given status, oldest first.
func (db *DB) FetchByRoom(roomCode string, status model.Status) ([]model.ReviewWord, error) {
	return db.filter(func(r model.ReviewWord) bool {
		return r.RoomCode == roomCode && r.Status == status
	})
}
