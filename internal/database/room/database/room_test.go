package database

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/bloops-games/wordrounds/internal/database"
	"github.com/bloops-games/wordrounds/internal/database/room/model"
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

func testRoom() model.Room {
	return model.Room{
		Code:       "ROOM1",
		HostID:     "p1",
		Players:    []string{"p1", "p2"},
		Rounds:     2,
		RoundTime:  time.Minute,
		EndMode:    model.EndModeAllSubmit,
		Categories: []string{"animals"},
		RoundsData: []model.RoundData{{RoundNumber: 1, Letter: "K"}},
	}
}

func TestCreate(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	require.NoError(t, db.Create(testRoom()))
	assert.True(t, errors.Is(db.Create(testRoom()), ErrCodeTaken))

	_, err := db.Fetch("NOPE")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestUpsertSubmissionReplaces(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	require.NoError(t, db.Store(testRoom()))

	for _, answer := range []string{"koala", "kudu", "kiwi"} {
		_, err := db.UpsertSubmission("ROOM1", 1, model.Submission{
			PlayerID: "p1",
			Answers:  map[string]string{"animals": answer},
		})
		require.NoError(t, err)
	}

	room, err := db.Fetch("ROOM1")
	require.NoError(t, err)
	rd, ok := room.Round(1)
	require.True(t, ok)
	require.Len(t, rd.Submissions, 1)
	assert.Equal(t, "kiwi", rd.Submissions[0].Answers["animals"])

	_, err = db.UpsertSubmission("ROOM1", 5, model.Submission{PlayerID: "p1"})
	assert.True(t, errors.Is(err, ErrRoundNotFound))
}

func TestUpsertSubmissionClosedRound(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	room := testRoom()
	ended := time.Now()
	room.RoundsData[0].EndedAt = &ended
	require.NoError(t, db.Store(room))

	_, err := db.UpsertSubmission("ROOM1", 1, model.Submission{PlayerID: "p1"})
	assert.True(t, errors.Is(err, ErrRoundClosed))
}

func TestUpsertSubmissionConcurrent(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	require.NoError(t, db.Store(testRoom()))

	wg := &sync.WaitGroup{}
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			player := "p1"
			if i%2 == 0 {
				player = "p2"
			}
			_, err := db.UpsertSubmission("ROOM1", 1, model.Submission{PlayerID: player})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	room, err := db.Fetch("ROOM1")
	require.NoError(t, err)
	rd, _ := room.Round(1)
	assert.Len(t, rd.Submissions, 2)
}

func TestApplyAdjustmentOnce(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	room := testRoom()
	room.RoundsData[0].Submissions = []model.Submission{
		{PlayerID: "p1", BasePoints: 10, Points: 10, Answers: map[string]string{"animals": "kudu"}},
	}
	require.NoError(t, db.Store(room))

	adj := model.Adjustment{Kind: model.AdjustmentKindReview, CategoryID: "animals", Points: 5}
	applied, err := db.ApplyAdjustment("ROOM1", 1, "p1", adj, nil)
	require.NoError(t, err)
	assert.False(t, applied, "round is not scored yet")

	_, err = db.Update("ROOM1", func(r *model.Room) error {
		ended := time.Now()
		r.RoundsData[0].EndedAt = &ended
		return nil
	})
	require.NoError(t, err)

	notKudu := func(sub model.Submission) bool { return sub.Answers["animals"] != "kudu" }
	applied, err = db.ApplyAdjustment("ROOM1", 1, "p1", adj, notKudu)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = db.ApplyAdjustment("ROOM1", 1, "p1", adj, nil)
	require.NoError(t, err)
	assert.True(t, applied)

	applied, err = db.ApplyAdjustment("ROOM1", 1, "p1", adj, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = db.ApplyAdjustment("ROOM1", 1, "p2", adj, nil)
	require.NoError(t, err)
	assert.False(t, applied)

	got, err := db.Fetch("ROOM1")
	require.NoError(t, err)
	assert.Equal(t, 15, got.RoundsData[0].Submissions[0].Points)
	assert.Equal(t, 10, got.RoundsData[0].Submissions[0].BasePoints)
}

func TestUpdateAbortsOnError(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	require.NoError(t, db.Store(testRoom()))

	_, err := db.Update("ROOM1", func(room *model.Room) error {
		room.Started = true
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := db.Fetch("ROOM1")
	require.NoError(t, err)
	assert.False(t, got.Started)
}
