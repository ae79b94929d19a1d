package wordrounds

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bloops-games/wordrounds/internal/database"
	"github.com/bloops-games/wordrounds/internal/gateway"
	"github.com/bloops-games/wordrounds/internal/notify"
	"github.com/bloops-games/wordrounds/internal/round"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()

	return &Config{
		CacheSize: 16,
		Port:      "0",
		DB:        database.Config{FilePath: filepath.Join(t.TempDir(), "test.db"), OpenTimeout: time.Second},
		Round: round.Config{
			MinRoundTime:     time.Millisecond,
			MaxRoundTime:     time.Hour,
			DefaultRoundTime: time.Minute,
			MinRounds:        1,
			MaxRounds:        5,
			DefaultRounds:    1,
			BreakTime:        20 * time.Millisecond,
			SubmitGrace:      100 * time.Millisecond,
			StopWindow:       20 * time.Millisecond,
			RuntimeIdleTTL:   time.Hour,
			JanitorInterval:  time.Minute,
		},
		Gateway: gateway.Config{
			WriteTimeout:   time.Second,
			PongTimeout:    time.Minute,
			PingInterval:   time.Minute,
			MaxMessageSize: 4096,
			SendBuffer:     32,
			RateLimit:      100,
			RateBurst:      100,
		},
	}
}

type player struct {
	conn *websocket.Conn
}

func (p *player) send(t *testing.T, event string, payload interface{}) {
	t.Helper()
	require.NoError(t, p.conn.WriteJSON(gateway.Envelope{Type: event, Payload: payload}))
}

// next reads frames until one of the given type arrives.
func (p *player) next(t *testing.T, event string, dst interface{}) {
	t.Helper()

	require.NoError(t, p.conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	for {
		var msg gateway.Inbound
		require.NoError(t, p.conn.ReadJSON(&msg))
		if msg.Type == event {
			if dst != nil {
				require.NoError(t, json.Unmarshal(msg.Payload, dst))
			}
			return
		}
	}
}

func TestGameOverWebsocket(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	config := testConfig(t)
	db, err := database.NewFromEnv(ctx, &config.DB)
	require.NoError(t, err)
	defer db.Close(ctx)

	a, err := NewManager(config, db).build(ctx)
	require.NoError(t, err)
	defer a.scheduler.Stop()

	srv := httptest.NewServer(a.handler)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/rooms", "application/json",
		strings.NewReader(`{"hostId":"p1","rounds":1,"timer":60,"categories":["animals","fruits"]}`))
	require.NoError(t, err)
	var created struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	dial := func(id string) *player {
		url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?room=" + created.Code + "&player=" + id
		conn, _, err := websocket.DefaultDialer.Dial(url, nil)
		require.NoError(t, err)
		t.Cleanup(func() { _ = conn.Close() })
		return &player{conn: conn}
	}

	p1, p2 := dial("p1"), dial("p2")
	require.Eventually(t, func() bool { return a.hub.Count(created.Code) == 2 }, 3*time.Second, 5*time.Millisecond)

	p2.send(t, gateway.EventStartGame, nil)
	p2.next(t, notify.EventError, nil)

	p1.send(t, gateway.EventStartGame, gateway.SettingsPayload{})

	var started notify.RoundStarted
	p2.next(t, notify.EventRoundStarted, &started)
	assert.Equal(t, 1, started.CurrentRound)
	assert.Equal(t, 1, started.TotalRounds)
	assert.NotEmpty(t, started.Letter)
	assert.Len(t, started.CategoryMeta, 2)

	answers := map[string]string{"animals": started.Letter + "zzz"}
	p1.send(t, gateway.EventSubmitAnswers, gateway.SubmitPayload{Answers: answers})
	p2.send(t, gateway.EventSubmitAnswers, gateway.SubmitPayload{Answers: answers})

	var results notify.RoundResults
	p1.next(t, notify.EventRoundResults, &results)
	assert.Equal(t, 1, results.Round)
	assert.False(t, results.HasMore)
	assert.Contains(t, results.Scores, "p1")
	assert.Contains(t, results.Scores, "p2")

	var ended notify.GameEnded
	p2.next(t, notify.EventGameEnded, &ended)
	assert.Len(t, ended.Totals, 2)
	assert.NotEmpty(t, ended.Winners)

	resp, err = http.Get(srv.URL + "/api/games?room=" + created.Code)
	require.NoError(t, err)
	defer resp.Body.Close()
	var games []struct {
		Winners    []string   `json:"winners"`
		FinishedAt *time.Time `json:"finishedAt"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&games))
	require.Len(t, games, 1)
	assert.Equal(t, ended.Winners, games[0].Winners)
	assert.NotNil(t, games[0].FinishedAt)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	config := testConfig(t)
	db, err := database.NewFromEnv(ctx, &config.DB)
	require.NoError(t, err)
	defer db.Close(ctx)

	a, err := NewManager(config, db).build(ctx)
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/categories", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var categories []struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&categories))
	assert.NotEmpty(t, categories)
}

func TestRunStopsWithContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	config := testConfig(t)
	db, err := database.NewFromEnv(ctx, &config.DB)
	require.NoError(t, err)
	defer db.Close(context.Background())

	errCh := make(chan error, 1)
	go func() { errCh <- NewManager(config, db).Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("manager did not stop")
	}
}
