package database

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/bloops-games/wordrounds/internal/database/category/model"
)

//go:embed defaults.json
var defaultCategories []byte

// Defaults decodes the built-in category dictionaries.
func Defaults() ([]model.Category, error) {
	var list []model.Category
	if err := json.Unmarshal(defaultCategories, &list); err != nil {
		return nil, fmt.Errorf("json unmarshal defaults: %w", err)
	}

	for i := range list {
		list[i].IsDefault = true
	}

	return list, nil
}

// Seed stores the default categories that are not present yet and returns
// how many were added.
func (db *DB) Seed() (int, error) {
	defaults, err := Defaults()
	if err != nil {
		return 0, err
	}

	var n int
	for _, c := range defaults {
		if _, err := db.Fetch(c.ID); err == nil {
			continue
		} else if !errors.Is(err, ErrNotFound) {
			return n, fmt.Errorf("fetch %s: %w", c.ID, err)
		}

		if err := db.Store(c); err != nil {
			return n, fmt.Errorf("store %s: %w", c.ID, err)
		}
		n++
	}

	return n, nil
}
