package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/bloops-games/wordrounds/internal/logging"
	bolt "go.etcd.io/bbolt"
)

type Config struct {
	FilePath    string        `envconfig:"WR_DB_FILE_PATH" default:"wordrounds.db"`
	OpenTimeout time.Duration `envconfig:"WR_DB_OPEN_TIMEOUT" default:"5s"`
}

type DB struct {
	DB *bolt.DB
}

func NewFromEnv(ctx context.Context, config *Config) (*DB, error) {
	logger := logging.FromContext(ctx)
	logger.Infof("creating db connection, file: %s", config.FilePath)

	db, err := bolt.Open(config.FilePath, 0600, &bolt.Options{Timeout: config.OpenTimeout})
	if err != nil {
		return nil, fmt.Errorf("creating connection DB: %w", err)
	}

	return &DB{DB: db}, nil
}

func (db *DB) Close(ctx context.Context) error {
	logger := logging.FromContext(ctx)
	logger.Infof("closing DB connection")

	if err := db.DB.Close(); err != nil {
		return fmt.Errorf("error close DB connection: %w", err)
	}

	return nil
}

// Get decodes the JSON document stored under key into dst. It reports false
// when the bucket or the key does not exist.
func Get(tx *bolt.Tx, bucket, key []byte, dst interface{}) (bool, error) {
	b := tx.Bucket(bucket)
	if b == nil {
		return false, nil
	}

	v := b.Get(key)
	if v == nil {
		return false, nil
	}

	if err := json.Unmarshal(v, dst); err != nil {
		return false, fmt.Errorf("json unmarshal: %w", err)
	}

	return true, nil
}

// Put encodes src as JSON under key, creating the bucket when needed.
func Put(tx *bolt.Tx, bucket, key []byte, src interface{}) error {
	b, err := tx.CreateBucketIfNotExists(bucket)
	if err != nil {
		return fmt.Errorf("can not create bucket: %w", err)
	}

	bytes, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	if err := b.Put(key, bytes); err != nil {
		return fmt.Errorf("put to bucket error: %w", err)
	}

	return nil
}
