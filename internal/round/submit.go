package round

import (
	"context"
	"errors"
	"fmt"
	"strings"

	roomDb "github.com/bloops-games/wordrounds/internal/database/room/database"
	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	"github.com/bloops-games/wordrounds/internal/logging"
	"github.com/bloops-games/wordrounds/internal/notify"
)

// Submit records the player's answers for the active round, replacing an
// earlier submission. It reports whether the answers were recorded; late,
// empty or out of round submissions are ignored without error.
func (s *Scheduler) Submit(ctx context.Context, code, playerID string, answers map[string]string, forced bool) (bool, error) {
	logger := logging.FromContext(ctx).Named("round.Submit")

	room, err := s.fetchRoom(code)
	if err != nil {
		return false, err
	}
	code = room.Code

	if !room.HasPlayer(playerID) {
		return false, ErrNotInRoom
	}

	rt := s.registry.Get(code)
	phase, gen := rt.current()
	if phase != PhaseActive || !room.Active() {
		logger.Debugf("room %s: submit from %s outside an active round", code, playerID)
		return false, nil
	}

	now := s.now()
	if !forced && now.After(room.RoundEndTime.Add(s.config.SubmitGrace)) {
		logger.Debugf("room %s: late submit from %s", code, playerID)
		return false, nil
	}

	filtered := make(map[string]string, len(room.Categories))
	var filled bool
	for _, id := range room.Categories {
		v, ok := answers[id]
		if !ok {
			continue
		}
		filtered[id] = v
		if strings.TrimSpace(v) != "" {
			filled = true
		}
	}

	if !filled && !forced {
		logger.Debugf("room %s: empty submit from %s", code, playerID)
		return false, nil
	}

	room, err = s.rooms.UpsertSubmission(code, room.CurrentRound, roomModel.Submission{
		PlayerID:    playerID,
		Answers:     filtered,
		Forced:      forced,
		SubmittedAt: now,
	})
	if err != nil {
		switch {
		case errors.Is(err, roomDb.ErrRoundClosed), errors.Is(err, roomDb.ErrRoundNotFound):
			logger.Debugf("room %s: submit from %s after round closed", code, playerID)
			return false, nil
		case errors.Is(err, roomDb.ErrNotFound):
			return false, ErrRoomNotFound
		}
		return false, fmt.Errorf("upsert submission: %w", err)
	}

	if room.EndMode == roomModel.EndModeAllSubmit {
		if err := s.checkAllSubmitted(ctx, room, gen); err != nil {
			return true, err
		}
	}

	return true, nil
}

// checkAllSubmitted ends the active round once every player of the room has
// a submission for it.
func (s *Scheduler) checkAllSubmitted(ctx context.Context, room roomModel.Room, gen uint64) error {
	rd, ok := room.CurrentRoundData()
	if !ok || rd.Scored() || len(room.Players) == 0 {
		return nil
	}

	for _, p := range room.Players {
		if _, ok := rd.Submission(p); !ok {
			return nil
		}
	}

	logging.FromContext(ctx).Named("round.checkAllSubmitted").
		Infof("room %s: all %d players submitted round %d", room.Code, len(room.Players), rd.RoundNumber)
	return s.endRound(ctx, room.Code, gen)
}

// StopRound lets any player of a PLAYER_STOP room close the round early.
// Only the first request of a round takes effect.
func (s *Scheduler) StopRound(ctx context.Context, code, playerID string) error {
	logger := logging.FromContext(ctx).Named("round.StopRound")

	room, err := s.fetchRoom(code)
	if err != nil {
		return err
	}
	code = room.Code

	if !room.HasPlayer(playerID) {
		return ErrNotInRoom
	}

	if room.EndMode != roomModel.EndModePlayerStop {
		return ErrStopNotAllowed
	}

	rt := s.registry.Get(code)
	gen, ok := rt.requestStop()
	if !ok {
		logger.Debugf("room %s: stop from %s ignored", code, playerID)
		return nil
	}

	logger.Infof("room %s: round %d stopped by %s", code, room.CurrentRound, playerID)
	s.notifier.Broadcast(code, notify.EventForceSubmit, notify.ForceSubmit{RoomCode: code})
	rt.armRound(gen, s.config.StopWindow, func() { s.endRoundAsync(code, gen) })
	return nil
}

// Join adds the player to the room and brings the player up to date with
// the round in progress.
func (s *Scheduler) Join(ctx context.Context, code, playerID string) (roomModel.Room, error) {
	room, err := s.fetchRoom(code)
	if err != nil {
		return room, err
	}
	code = room.Code

	if !room.HasPlayer(playerID) {
		room, err = s.rooms.Update(code, func(r *roomModel.Room) error {
			if !r.HasPlayer(playerID) {
				r.Players = append(r.Players, playerID)
			}
			r.LastActiveAt = s.now()
			return nil
		})
		if err != nil {
			if errors.Is(err, roomDb.ErrNotFound) {
				return room, ErrRoomNotFound
			}
			return room, fmt.Errorf("update room: %w", err)
		}

		logging.FromContext(ctx).Named("round.Join").Infof("room %s: player %s joined", code, playerID)
	}

	if err := s.resume(ctx, room); err != nil {
		return room, err
	}

	return room, s.SyncLateJoiner(ctx, code, playerID)
}

// SyncLateJoiner sends the active round state to one player.
func (s *Scheduler) SyncLateJoiner(ctx context.Context, code, playerID string) error {
	room, err := s.fetchRoom(code)
	if err != nil {
		return err
	}

	if !room.Active() {
		return nil
	}

	cats, _, err := s.cats.FetchMany(room.Categories)
	if err != nil {
		return fmt.Errorf("fetch categories: %w", err)
	}

	var submitted bool
	if rd, ok := room.CurrentRoundData(); ok {
		_, submitted = rd.Submission(playerID)
	}

	s.notifier.Send(room.Code, playerID, notify.EventRoundStarted, s.roundStarted(room, cats, submitted))
	return nil
}

// resume rebuilds the runtime of a started room whose runtime was lost, e.g.
// after a restart or an eviction.
func (s *Scheduler) resume(ctx context.Context, room roomModel.Room) error {
	if !room.Started {
		return nil
	}

	rt := s.registry.Get(room.Code)
	rt.op.Lock()
	defer rt.op.Unlock()

	if phase, _ := rt.current(); phase != PhaseLobby && phase != PhaseGameEnded {
		return nil
	}

	logger := logging.FromContext(ctx).Named("round.resume")
	gen := rt.begin()
	if room.Active() {
		left := room.RoundEndTime.Sub(s.now())
		if left < 0 {
			left = 0
		}

		code := room.Code
		rt.markUsed(room.Letter)
		rt.activate(gen, room.CurrentRound, left, func() { s.onDeadline(code, gen) })
		logger.Infof("room %s: round %d resumed, %s left", code, room.CurrentRound, left)
		return nil
	}

	logger.Infof("room %s: resumed between rounds", room.Code)
	return s.advance(ctx, room.Code, gen)
}
