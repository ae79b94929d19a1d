package database

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/bloops-games/wordrounds/internal/cache"
	"github.com/bloops-games/wordrounds/internal/database"
	"github.com/bloops-games/wordrounds/internal/database/category/model"
	bolt "go.etcd.io/bbolt"
	"golang.org/x/sync/singleflight"
)

var bucket = []byte("categories")

var ErrNotFound = fmt.Errorf("category not found")

func New(db *database.DB, cache cache.Cache) *DB {
	return &DB{sDB: db, cache: cache, versions: make(map[string]uint64)}
}

type DB struct {
	sDB *database.DB

	cache cache.Cache
	group singleflight.Group

	// versions counts writes per category; a load only caches its result
	// when no write committed while it was reading.
	mtx      sync.Mutex
	versions map[string]uint64
}

func (db *DB) version(id string) uint64 {
	db.mtx.Lock()
	defer db.mtx.Unlock()
	return db.versions[id]
}

func (db *DB) cacheLoaded(id string, version uint64, c model.Category) {
	if db.cache == nil {
		return
	}

	db.mtx.Lock()
	defer db.mtx.Unlock()
	if db.versions[id] == version {
		db.cache.Add(id, c)
	}
}

func (db *DB) invalidate(id string) {
	db.mtx.Lock()
	db.versions[id]++
	if db.cache != nil {
		db.cache.Delete(id)
	}
	db.mtx.Unlock()

	db.group.Forget(id)
}

func (db *DB) Fetch(id string) (model.Category, error) {
	if db.cache != nil {
		if v, ok := db.cache.Get(id); ok {
			return v.(model.Category), nil
		}
	}

	v, err, _ := db.group.Do(id, func() (interface{}, error) {
		version := db.version(id)
		var c model.Category
		if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
			ok, err := database.Get(tx, bucket, []byte(id), &c)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotFound
			}
			return nil
		}); err != nil {
			return c, fmt.Errorf("view transaction error: %w", err)
		}

		db.cacheLoaded(id, version, c)
		return c, nil
	})
	if err != nil {
		return model.Category{}, err
	}

	return v.(model.Category), nil
}

// FetchMany loads categories in the order of ids. Missing ids are returned
// separately instead of failing the whole lookup.
func (db *DB) FetchMany(ids []string) ([]model.Category, []string, error) {
	list := make([]model.Category, 0, len(ids))
	var missing []string
	for _, id := range ids {
		c, err := db.Fetch(id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				missing = append(missing, id)
				continue
			}
			return nil, nil, fmt.Errorf("fetch %s: %w", id, err)
		}
		list = append(list, c)
	}

	return list, missing, nil
}

func (db *DB) FetchAll() ([]model.Category, error) {
	var list []model.Category
	if err := db.sDB.DB.View(func(tx *bolt.Tx) error {
		b := tx.Bucket(bucket)
		if b == nil {
			return nil
		}

		return b.ForEach(func(k, v []byte) error {
			var c model.Category
			if err := json.Unmarshal(v, &c); err != nil {
				return fmt.Errorf("json unmarshal error, %w", err)
			}
			list = append(list, c)
			return nil
		})
	}); err != nil {
		return nil, fmt.Errorf("view transaction error: %w", err)
	}

	return list, nil
}

func (db *DB) Store(c model.Category) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		return database.Put(tx, bucket, []byte(c.ID), c)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	db.invalidate(c.ID)
	return nil
}

// AppendWord adds word to the category dictionary unless it is already there.
func (db *DB) AppendWord(id, letter, word string) error {
	if err := db.sDB.DB.Update(func(tx *bolt.Tx) error {
		var c model.Category
		ok, err := database.Get(tx, bucket, []byte(id), &c)
		if err != nil {
			return err
		}
		if !ok {
			return ErrNotFound
		}

		if c.Contains(word) {
			return nil
		}

		c.AddWord(letter, word)
		return database.Put(tx, bucket, []byte(id), c)
	}); err != nil {
		return fmt.Errorf("update transaction error: %w", err)
	}

	db.invalidate(id)
	return nil
}
