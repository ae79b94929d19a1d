package round

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/bloops-games/wordrounds/internal/cache"
	"github.com/bloops-games/wordrounds/internal/database"
	categoryDb "github.com/bloops-games/wordrounds/internal/database/category/database"
	categoryModel "github.com/bloops-games/wordrounds/internal/database/category/model"
	gameDb "github.com/bloops-games/wordrounds/internal/database/game/database"
	reviewDb "github.com/bloops-games/wordrounds/internal/database/review/database"
	roomDb "github.com/bloops-games/wordrounds/internal/database/room/database"
	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	userDb "github.com/bloops-games/wordrounds/internal/database/user/database"
	"github.com/bloops-games/wordrounds/internal/notify/notifytest"
	"github.com/stretchr/testify/require"
)

const waitFor = 3 * time.Second

type testEnv struct {
	s        *Scheduler
	recorder *notifytest.Recorder
	rooms    *roomDb.DB
	cats     *categoryDb.DB
	reviews  *reviewDb.DB
	games    *gameDb.DB
	users    *userDb.DB
}

func testConfig() Config {
	return Config{
		MinRoundTime:     time.Millisecond,
		MaxRoundTime:     time.Hour,
		DefaultRoundTime: time.Minute,
		MinRounds:        1,
		MaxRounds:        10,
		DefaultRounds:    3,
		BreakTime:        time.Hour,
		SubmitGrace:      200 * time.Millisecond,
		StopWindow:       20 * time.Millisecond,
		RuntimeIdleTTL:   time.Hour,
		JanitorInterval:  time.Minute,
	}
}

// Only K words exist, so every round gets the letter K. "colors" has no
// words at all.
var testCategories = []categoryModel.Category{
	{ID: "animals", Name: "animals", DisplayName: "Animals", Words: []string{"Koala", "Kangaroo", "Kudu"}},
	{ID: "fruits", Name: "fruits", DisplayName: "Fruits", WordsByLetter: map[string][]string{"K": {"Kiwi", "Kumquat"}}},
	{ID: "colors", Name: "colors", DisplayName: "Colors"},
}

func newTestEnv(t *testing.T, config Config) *testEnv {
	t.Helper()

	ctx := context.Background()
	db, err := database.NewFromEnv(ctx, &database.Config{FilePath: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close(ctx) })

	c, err := cache.NewLRU(16)
	require.NoError(t, err)

	env := &testEnv{
		recorder: &notifytest.Recorder{},
		rooms:    roomDb.New(db),
		cats:     categoryDb.New(db, c),
		reviews:  reviewDb.New(db),
		games:    gameDb.New(db),
		users:    userDb.New(db, nil),
	}

	for _, cat := range testCategories {
		require.NoError(t, env.cats.Store(cat))
	}

	env.s = NewScheduler(ctx, config, Stores{
		Rooms:      env.rooms,
		Categories: env.cats,
		Games:      env.games,
		Users:      env.users,
	}, env.recorder)
	t.Cleanup(env.s.Stop)

	return env
}

// newRoom creates a room hosted by p1 with p2 joined.
func (env *testEnv) newRoom(t *testing.T, settings Settings) string {
	t.Helper()

	ctx := context.Background()
	if len(settings.Categories) == 0 {
		settings.Categories = []string{"animals", "fruits", "colors"}
	}

	room, err := env.s.CreateRoom(ctx, "p1", settings)
	require.NoError(t, err)

	_, err = env.s.Join(ctx, room.Code, "p2")
	require.NoError(t, err)

	return room.Code
}

func (env *testEnv) room(t *testing.T, code string) roomModel.Room {
	t.Helper()

	room, err := env.rooms.Fetch(code)
	require.NoError(t, err)
	return room
}

func (env *testEnv) waitCount(t *testing.T, event string, n int) {
	t.Helper()

	require.Eventually(t, func() bool {
		return env.recorder.Count(event) >= n
	}, waitFor, 5*time.Millisecond, "waiting for %d %s events", n, event)
}

func lastPayload(t *testing.T, r *notifytest.Recorder, event string) interface{} {
	t.Helper()

	events := r.Events(event)
	require.NotEmpty(t, events, event)
	return events[len(events)-1].Payload
}
