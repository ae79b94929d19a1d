package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	reviewModel "github.com/bloops-games/wordrounds/internal/database/review/model"
	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	"github.com/bloops-games/wordrounds/internal/notify"
	"github.com/bloops-games/wordrounds/internal/round"
)

const (
	EventJoin              = "join"
	EventStartGame         = "start-game"
	EventSubmitAnswers     = "submit-answers"
	EventStopRound         = "stop-round"
	EventNextRound         = "next-round"
	EventMarkWordForReview = "mark-word-for-review"
	EventVoteReviewWord    = "vote-review-word"
)

var (
	ErrUnknownEvent = fmt.Errorf("unknown event")
	ErrBadPayload   = fmt.Errorf("malformed payload")
	ErrRateLimited  = fmt.Errorf("too many messages")
)

type Rounds interface {
	CreateRoom(ctx context.Context, hostID string, settings round.Settings) (roomModel.Room, error)
	Join(ctx context.Context, code, playerID string) (roomModel.Room, error)
	StartGame(ctx context.Context, code, playerID string, settings round.Settings) error
	Submit(ctx context.Context, code, playerID string, answers map[string]string, forced bool) (bool, error)
	StopRound(ctx context.Context, code, playerID string) error
	NextRound(ctx context.Context, code, playerID string) error
}

type Reviews interface {
	Propose(ctx context.Context, code, playerID, categoryID, word string) (reviewModel.ReviewWord, error)
	Vote(ctx context.Context, reviewID, voterID string, approve bool) (reviewModel.ReviewWord, error)
	Pending(ctx context.Context, code string) ([]reviewModel.ReviewWord, error)
}

// Inbound is a client frame; Payload is decoded per event type.
type Inbound struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// SettingsPayload carries the host options of create and start requests.
// Timer is the round time in seconds.
type SettingsPayload struct {
	Rounds     int               `json:"rounds,omitempty"`
	Timer      int               `json:"timer,omitempty"`
	Categories []string          `json:"categories,omitempty"`
	EndMode    roomModel.EndMode `json:"endMode,omitempty"`
}

func (p SettingsPayload) Settings() round.Settings {
	return round.Settings{
		Rounds:     p.Rounds,
		RoundTime:  time.Duration(p.Timer) * time.Second,
		Categories: p.Categories,
		EndMode:    p.EndMode,
	}
}

type SubmitPayload struct {
	Answers map[string]string `json:"answers"`
	Forced  bool              `json:"forced,omitempty"`
}

type MarkWordPayload struct {
	CategoryID string `json:"categoryId"`
	Word       string `json:"word"`
}

type VotePayload struct {
	ReviewID string `json:"reviewId"`
	Approve  bool   `json:"approve"`
}

func NewDispatcher(rounds Rounds, reviews Reviews, notifier notify.Notifier) *Dispatcher {
	return &Dispatcher{rounds: rounds, reviews: reviews, notifier: notifier}
}

// Dispatcher maps inbound client events to the round scheduler and the
// review service.
type Dispatcher struct {
	rounds   Rounds
	reviews  Reviews
	notifier notify.Notifier
}

func decode(raw json.RawMessage, dst interface{}) error {
	if len(raw) == 0 {
		return nil
	}

	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", ErrBadPayload, err)
	}

	return nil
}

func (d *Dispatcher) Dispatch(ctx context.Context, room, player string, msg Inbound) error {
	switch msg.Type {
	case EventJoin:
		return d.join(ctx, room, player)
	case EventStartGame:
		var p SettingsPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		return d.rounds.StartGame(ctx, room, player, p.Settings())
	case EventSubmitAnswers:
		var p SubmitPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := d.rounds.Submit(ctx, room, player, p.Answers, p.Forced)
		return err
	case EventStopRound:
		return d.rounds.StopRound(ctx, room, player)
	case EventNextRound:
		return d.rounds.NextRound(ctx, room, player)
	case EventMarkWordForReview:
		var p MarkWordPayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := d.reviews.Propose(ctx, room, player, p.CategoryID, p.Word)
		return err
	case EventVoteReviewWord:
		var p VotePayload
		if err := decode(msg.Payload, &p); err != nil {
			return err
		}
		_, err := d.reviews.Vote(ctx, p.ReviewID, player, p.Approve)
		return err
	default:
		return fmt.Errorf("%w: %q", ErrUnknownEvent, msg.Type)
	}
}

// join registers the player in the room and sends the pending reviews.
func (d *Dispatcher) join(ctx context.Context, room, player string) error {
	if _, err := d.rounds.Join(ctx, room, player); err != nil {
		return err
	}

	pending, err := d.reviews.Pending(ctx, room)
	if err != nil {
		return err
	}

	if len(pending) > 0 {
		d.notifier.Send(room, player, notify.EventReviewWordsUpdated, notify.ReviewWordsUpdated{Reviews: pending})
	}

	return nil
}
