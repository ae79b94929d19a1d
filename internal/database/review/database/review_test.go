package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/bloops-games/wordrounds/internal/database"
	"github.com/bloops-games/wordrounds/internal/database/review/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()

	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{FilePath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(ctx) })

	return New(db)
}

func TestAddFetchUpdate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	r := model.NewReviewWord("ROOM1", 2, "p1", "animals", "K", "kudu")
	require.NoError(t, db.Add(r))

	got, err := db.Fetch(r.ID)
	require.NoError(t, err)
	assert.Equal(t, "kudu", got.Word)

	updated, err := db.Update(r.ID, func(r *model.ReviewWord) error {
		r.Votes = append(r.Votes, model.Vote{VoterID: "p2", Approve: true})
		return nil
	})
	require.NoError(t, err)
	assert.Len(t, updated.Votes, 1)

	_, err = db.Update(r.ID, func(r *model.ReviewWord) error {
		r.Votes = nil
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err = db.Fetch(r.ID)
	require.NoError(t, err)
	assert.Len(t, got.Votes, 1)
}

func TestFetchMissing(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	_, err := db.Fetch("missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestFetchByRoom(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	base := time.Now()

	pending := model.NewReviewWord("ROOM1", 1, "p1", "animals", "K", "kudu")
	pending.CreatedAt = base
	accepted := model.NewReviewWord("ROOM1", 1, "p2", "animals", "K", "kakapo")
	accepted.Status = model.StatusAccepted
	accepted.CreatedAt = base.Add(time.Second)
	otherRound := model.NewReviewWord("ROOM1", 2, "p2", "animals", "L", "loris")
	otherRound.Status = model.StatusAccepted
	otherRound.CreatedAt = base.Add(3 * time.Second)
	otherRoom := model.NewReviewWord("ROOM2", 1, "p3", "animals", "K", "kiwi")
	otherRoom.CreatedAt = base.Add(2 * time.Second)

	for _, r := range []model.ReviewWord{pending, accepted, otherRound, otherRoom} {
		require.NoError(t, db.Add(r))
	}

	list, err := db.FetchByRoom("ROOM1", model.StatusPending)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, pending.ID, list[0].ID)

	list, err = db.FetchByRoom("ROOM1", model.StatusAccepted)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, accepted.ID, list[0].ID)
	assert.Equal(t, otherRound.ID, list[1].ID)
}
