// Package review lets players propose missing dictionary words and decide on
// them by vote. Accepted words join the category dictionary and credit the
// proposer's scored answer once.
package review

import (
	"context"
	"errors"
	"fmt"
	"time"

	categoryDb "github.com/bloops-games/wordrounds/internal/database/category/database"
	categoryModel "github.com/bloops-games/wordrounds/internal/database/category/model"
	reviewDb "github.com/bloops-games/wordrounds/internal/database/review/database"
	"github.com/bloops-games/wordrounds/internal/database/review/model"
	roomDb "github.com/bloops-games/wordrounds/internal/database/room/database"
	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	"github.com/bloops-games/wordrounds/internal/logging"
	"github.com/bloops-games/wordrounds/internal/notify"
	"github.com/bloops-games/wordrounds/internal/scoring"
)

var (
	ErrRoomNotFound        = fmt.Errorf("room not found")
	ErrNotInRoom           = fmt.Errorf("player is not in the room")
	ErrUnknownCategory     = fmt.Errorf("category is not played in the room")
	ErrNoRound             = fmt.Errorf("no round played yet")
	ErrRoundNotScored      = fmt.Errorf("round is not scored yet")
	ErrNotAnswered         = fmt.Errorf("word is not the player's answer")
	ErrEmptyWord           = fmt.Errorf("empty word")
	ErrWrongLetter         = fmt.Errorf("word does not start with the round letter")
	ErrAlreadyInDictionary = fmt.Errorf("word is already in the dictionary")
	ErrReviewNotFound      = fmt.Errorf("review not found")
	ErrSelfVote            = fmt.Errorf("can not vote for own word")
	ErrAlreadyVoted        = fmt.Errorf("already voted")
	ErrAlreadyDecided      = fmt.Errorf("review already decided")
)

type RoomStore interface {
	Fetch(code string) (roomModel.Room, error)
	ApplyAdjustment(
		code string,
		roundNumber int,
		playerID string,
		adj roomModel.Adjustment,
		eligible func(sub roomModel.Submission) bool,
	) (bool, error)
}

type CategoryStore interface {
	Fetch(id string) (categoryModel.Category, error)
	AppendWord(id, letter, word string) error
}

type ReviewStore interface {
	Add(r model.ReviewWord) error
	Fetch(id string) (model.ReviewWord, error)
	Update(id string, fn func(r *model.ReviewWord) error) (model.ReviewWord, error)
	FetchByRoom(roomCode string, status model.Status) ([]model.ReviewWord, error)
}

func NewService(rooms RoomStore, cats CategoryStore, reviews ReviewStore, notifier notify.Notifier) *Service {
	return &Service{
		rooms:    rooms,
		cats:     cats,
		reviews:  reviews,
		notifier: notifier,
		now:      time.Now,
	}
}

type Service struct {
	rooms    RoomStore
	cats     CategoryStore
	reviews  ReviewStore
	notifier notify.Notifier

	now func() time.Time
}

func (s *Service) fetchRoom(code string) (roomModel.Room, error) {
	room, err := s.rooms.Fetch(roomModel.NormalizeCode(code))
	if err != nil {
		if errors.Is(err, roomDb.ErrNotFound) {
			return room, ErrRoomNotFound
		}
		return room, fmt.Errorf("fetch room: %w", err)
	}

	return room, nil
}

// Propose records a pending review of word for the category in the latest
// round of the room. The round must be scored and word must be the proposer's
// own answer that scoring found missing from the dictionary.
func (s *Service) Propose(ctx context.Context, code, playerID, categoryID, word string) (model.ReviewWord, error) {
	logger := logging.FromContext(ctx).Named("review.Propose")

	var review model.ReviewWord
	room, err := s.fetchRoom(code)
	if err != nil {
		return review, err
	}

	if !room.HasPlayer(playerID) {
		return review, ErrNotInRoom
	}

	if !room.HasCategory(categoryID) {
		return review, ErrUnknownCategory
	}

	rd, ok := room.CurrentRoundData()
	if !ok {
		return review, ErrNoRound
	}

	if !rd.Scored() {
		return review, ErrRoundNotScored
	}

	normalized := categoryModel.Normalize(word)
	if normalized == "" {
		return review, ErrEmptyWord
	}

	if categoryModel.FirstLetter(word) != rd.Letter {
		return review, ErrWrongLetter
	}

	sub, ok := rd.Submission(playerID)
	if !ok || categoryModel.Normalize(sub.Answers[categoryID]) != normalized {
		return review, ErrNotAnswered
	}

	cat, err := s.cats.Fetch(categoryID)
	if err != nil {
		if errors.Is(err, categoryDb.ErrNotFound) {
			return review, ErrUnknownCategory
		}
		return review, fmt.Errorf("fetch category: %w", err)
	}

	// answers in a category without words for the letter may be proposed too
	if _, ok := scoring.Dictionary(cat.WordsFor(rd.Letter), rd.Letter)[normalized]; ok {
		return review, ErrAlreadyInDictionary
	}

	review = model.NewReviewWord(room.Code, rd.RoundNumber, playerID, categoryID, rd.Letter, word)
	review.CreatedAt = s.now()
	if err := s.reviews.Add(review); err != nil {
		return review, fmt.Errorf("add review: %w", err)
	}

	logger.Infof("room %s: %s proposed %q for %s", room.Code, playerID, word, categoryID)
	s.broadcastPending(ctx, room.Code)
	return review, nil
}

// Vote casts one vote on a pending review and applies the decision once the
// votes settle it.
func (s *Service) Vote(ctx context.Context, reviewID, voterID string, approve bool) (model.ReviewWord, error) {
	logger := logging.FromContext(ctx).Named("review.Vote")

	review, err := s.reviews.Fetch(reviewID)
	if err != nil {
		if errors.Is(err, reviewDb.ErrNotFound) {
			return review, ErrReviewNotFound
		}
		return review, fmt.Errorf("fetch review: %w", err)
	}

	room, err := s.fetchRoom(review.RoomCode)
	if err != nil {
		return review, err
	}

	if !room.HasPlayer(voterID) {
		return review, ErrNotInRoom
	}

	now := s.now()
	review, err = s.reviews.Update(reviewID, func(r *model.ReviewWord) error {
		switch {
		case !r.Pending():
			return ErrAlreadyDecided
		case r.PlayerID == voterID:
			return ErrSelfVote
		case r.HasVoted(voterID):
			return ErrAlreadyVoted
		}

		r.Votes = append(r.Votes, model.Vote{VoterID: voterID, Approve: approve, At: now})
		if status := r.Decide(); status != model.StatusPending {
			r.Status = status
			r.DecidedAt = &now
		}
		return nil
	})
	if err != nil {
		for _, sentinel := range []error{ErrAlreadyDecided, ErrSelfVote, ErrAlreadyVoted} {
			if errors.Is(err, sentinel) {
				return review, sentinel
			}
		}
		if errors.Is(err, reviewDb.ErrNotFound) {
			return review, ErrReviewNotFound
		}
		return review, fmt.Errorf("update review: %w", err)
	}

	approvals, rejections := review.Tally()
	logger.Debugf("review %s: %d approvals, %d rejections", review.ID, approvals, rejections)

	if !review.Pending() {
		if err := s.decide(ctx, review); err != nil {
			return review, err
		}
	}

	s.broadcastPending(ctx, review.RoomCode)
	return review, nil
}

func (s *Service) decide(ctx context.Context, review model.ReviewWord) error {
	logger := logging.FromContext(ctx).Named("review.decide")

	decided := notify.ReviewWordDecided{
		ID:     review.ID,
		Status: review.Status,
		Word:   review.Word,
		Player: review.PlayerID,
	}

	if review.Status == model.StatusAccepted {
		if err := s.cats.AppendWord(review.CategoryID, review.Letter, review.Word); err != nil {
			if !errors.Is(err, categoryDb.ErrNotFound) {
				return fmt.Errorf("append word: %w", err)
			}
			logger.Warnf("review %s: category %s not found", review.ID, review.CategoryID)
		}

		word := categoryModel.Normalize(review.Word)
		applied, err := s.rooms.ApplyAdjustment(review.RoomCode, review.RoundNumber, review.PlayerID, roomModel.Adjustment{
			Kind:       roomModel.AdjustmentKindReview,
			CategoryID: review.CategoryID,
			ReviewID:   review.ID,
			Points:     scoring.PointsReviewAccepted,
			CreatedAt:  s.now(),
		}, func(sub roomModel.Submission) bool {
			return categoryModel.Normalize(sub.Answers[review.CategoryID]) == word
		})
		if err != nil {
			switch {
			case errors.Is(err, roomDb.ErrNotFound), errors.Is(err, roomDb.ErrRoundNotFound):
				logger.Warnf("review %s: round %d of room %s is gone", review.ID, review.RoundNumber, review.RoomCode)
			default:
				return fmt.Errorf("apply adjustment: %w", err)
			}
		}

		if applied {
			decided.Points = scoring.PointsReviewAccepted
		}
	}

	logger.Infof("review %s: %q for %s %s", review.ID, review.Word, review.CategoryID, review.Status)
	s.notifier.Broadcast(review.RoomCode, notify.EventReviewWordDecided, decided)
	return nil
}

// Pending lists the undecided reviews of the room, oldest first.
func (s *Service) Pending(ctx context.Context, code string) ([]model.ReviewWord, error) {
	list, err := s.reviews.FetchByRoom(roomModel.NormalizeCode(code), model.StatusPending)
	if err != nil {
		return nil, fmt.Errorf("fetch reviews: %w", err)
	}

	return list, nil
}

func (s *Service) broadcastPending(ctx context.Context, code string) {
	list, err := s.Pending(ctx, code)
	if err != nil {
		logging.FromContext(ctx).Named("review.broadcastPending").Errorf("room %s: %v", code, err)
		return
	}

	if list == nil {
		list = []model.ReviewWord{}
	}

	s.notifier.Broadcast(code, notify.EventReviewWordsUpdated, notify.ReviewWordsUpdated{Reviews: list})
}
