package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	reviewModel "github.com/bloops-games/wordrounds/internal/database/review/model"
	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	"github.com/bloops-games/wordrounds/internal/notify"
	"github.com/bloops-games/wordrounds/internal/notify/notifytest"
	"github.com/bloops-games/wordrounds/internal/round"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func inbound(t *testing.T, event string, payload interface{}) Inbound {
	t.Helper()

	msg := Inbound{Type: event}
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		msg.Payload = raw
	}

	return msg
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	errBoom := errors.New("boom")

	testCases := []struct {
		name   string
		msg    func(t *testing.T) Inbound
		setup  func(rounds *MockRounds, reviews *MockReviews)
		expErr error
	}{
		{
			name: "start game",
			msg: func(t *testing.T) Inbound {
				return inbound(t, EventStartGame, SettingsPayload{Rounds: 3, Timer: 45, Categories: []string{"animals"}, EndMode: roomModel.EndModePlayerStop})
			},
			setup: func(rounds *MockRounds, _ *MockReviews) {
				rounds.On("StartGame", ctx, "ROOM1", "p1", round.Settings{
					Rounds:     3,
					RoundTime:  45 * time.Second,
					Categories: []string{"animals"},
					EndMode:    roomModel.EndModePlayerStop,
				}).Return(nil)
			},
		},
		{
			name: "start game without payload",
			msg:  func(t *testing.T) Inbound { return inbound(t, EventStartGame, nil) },
			setup: func(rounds *MockRounds, _ *MockReviews) {
				rounds.On("StartGame", ctx, "ROOM1", "p1", round.Settings{}).Return(round.ErrNotHost)
			},
			expErr: round.ErrNotHost,
		},
		{
			name: "submit answers",
			msg: func(t *testing.T) Inbound {
				return inbound(t, EventSubmitAnswers, SubmitPayload{Answers: map[string]string{"animals": "koala"}, Forced: true})
			},
			setup: func(rounds *MockRounds, _ *MockReviews) {
				rounds.On("Submit", ctx, "ROOM1", "p1", map[string]string{"animals": "koala"}, true).Return(true, nil)
			},
		},
		{
			name: "stop round",
			msg:  func(t *testing.T) Inbound { return inbound(t, EventStopRound, nil) },
			setup: func(rounds *MockRounds, _ *MockReviews) {
				rounds.On("StopRound", ctx, "ROOM1", "p1").Return(round.ErrStopNotAllowed)
			},
			expErr: round.ErrStopNotAllowed,
		},
		{
			name: "next round",
			msg:  func(t *testing.T) Inbound { return inbound(t, EventNextRound, nil) },
			setup: func(rounds *MockRounds, _ *MockReviews) {
				rounds.On("NextRound", ctx, "ROOM1", "p1").Return(nil)
			},
		},
		{
			name: "mark word",
			msg: func(t *testing.T) Inbound {
				return inbound(t, EventMarkWordForReview, MarkWordPayload{CategoryID: "animals", Word: "kakapo"})
			},
			setup: func(_ *MockRounds, reviews *MockReviews) {
				reviews.On("Propose", ctx, "ROOM1", "p1", "animals", "kakapo").Return(reviewModel.ReviewWord{}, nil)
			},
		},
		{
			name: "vote",
			msg: func(t *testing.T) Inbound {
				return inbound(t, EventVoteReviewWord, VotePayload{ReviewID: "r1", Approve: true})
			},
			setup: func(_ *MockRounds, reviews *MockReviews) {
				reviews.On("Vote", ctx, "r1", "p1", true).Return(reviewModel.ReviewWord{}, errBoom)
			},
			expErr: errBoom,
		},
		{
			name: "bad payload",
			msg: func(t *testing.T) Inbound {
				return Inbound{Type: EventSubmitAnswers, Payload: json.RawMessage(`[1,2]`)}
			},
			setup:  func(*MockRounds, *MockReviews) {},
			expErr: ErrBadPayload,
		},
		{
			name:   "unknown event",
			msg:    func(t *testing.T) Inbound { return inbound(t, "dance", nil) },
			setup:  func(*MockRounds, *MockReviews) {},
			expErr: ErrUnknownEvent,
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rounds, reviews := &MockRounds{}, &MockReviews{}
			tc.setup(rounds, reviews)

			d := NewDispatcher(rounds, reviews, &notifytest.Recorder{})
			err := d.Dispatch(ctx, "ROOM1", "p1", tc.msg(t))
			if tc.expErr != nil {
				assert.True(t, errors.Is(err, tc.expErr), "got %v", err)
			} else {
				assert.NoError(t, err)
			}

			rounds.AssertExpectations(t)
			reviews.AssertExpectations(t)
		})
	}
}

func TestDispatchJoinSendsPendingReviews(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rounds, reviews := &MockRounds{}, &MockReviews{}
	recorder := &notifytest.Recorder{}
	pending := []reviewModel.ReviewWord{{ID: "r1", Word: "kakapo"}}

	rounds.On("Join", ctx, "ROOM1", "p1").Return(roomModel.Room{Code: "ROOM1"}, nil)
	reviews.On("Pending", ctx, "ROOM1").Return(pending, nil)

	d := NewDispatcher(rounds, reviews, recorder)
	require.NoError(t, d.Dispatch(ctx, "ROOM1", "p1", Inbound{Type: EventJoin}))

	sent := recorder.Events(notify.EventReviewWordsUpdated)
	require.Len(t, sent, 1)
	assert.Equal(t, "p1", sent[0].PlayerID)
	assert.Equal(t, pending, sent[0].Payload.(notify.ReviewWordsUpdated).Reviews)
}

func TestDispatchJoinUnknownRoom(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	rounds, reviews := &MockRounds{}, &MockReviews{}
	rounds.On("Join", ctx, "NOPE", "p1").Return(roomModel.Room{}, round.ErrRoomNotFound)

	d := NewDispatcher(rounds, reviews, &notifytest.Recorder{})
	err := d.Dispatch(ctx, "NOPE", "p1", Inbound{Type: EventJoin})
	assert.True(t, errors.Is(err, round.ErrRoomNotFound))
	reviews.AssertNotCalled(t, "Pending", mock.Anything, mock.Anything)
}
