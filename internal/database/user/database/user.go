package database

import (
	"fmt"
	"time"

	"github.com/bloops-games/wordrounds/internal/cache"
	"github.com/bloops-games/wordrounds/internal/database"
	"github.com/bloops-games/wordrounds/internal/database/user/model"
	bolt "go.etcd.io/bbolt"
)

var ErrNotFound = fmt.Errorf("not found")

var bucket = []byte("users")

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{sDB: db, cache: cache}
}

type DB struct {
	sDB *database.DB

	cache cache.Cache
}

func (db *DB) Fetch(userID string) (model.User, error) {
	if db.cache != nil {
		if v, ok := db.cache.Get(userID); ok {
			return v.(model.User), nil
		}
	}

	var u model.User
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		ok, err := database.Get(tx, bucket, []byte(userID), &u)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}
		return nil
	}); err != nil {
		return u, fmt.Errorf("view transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(userID, u)
	}

	return u, nil
}

func (db *DB) Store(u model.User) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		return database.Put(tx, bucket, []byte(u.ID), u)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(u.ID, u)
	}

	return nil
}

// Reward credits coins for a finished game, creating the profile if the
// player has none yet.
func (db *DB) Reward(userID string, coins int, won bool) (model.User, error) {
	var u model.User
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		ok, err := database.Get(tx, bucket, []byte(userID), &u)
		if err != nil {
			return err
		}

		now := time.Now()
		if !ok {
			u = model.User{ID: userID, Status: model.StatusActive, CreatedAt: now}
		}

		u.Coins += coins
		u.GamesPlayed++
		if won {
			u.Wins++
		}
		u.UpdatedAt = now
		return database.Put(tx, bucket, []byte(userID), u)
	}); err != nil {
		return u, fmt.Errorf("update transaction error: %w", err)
	}

	if db.cache != nil {
		db.cache.Add(userID, u)
	}

	return u, nil
}
