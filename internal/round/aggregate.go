package round

import (
	"context"
	"errors"
	"fmt"
	"sort"

	gameDb "github.com/bloops-games/wordrounds/internal/database/game/database"
	roomDb "github.com/bloops-games/wordrounds/internal/database/room/database"
	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	"github.com/bloops-games/wordrounds/internal/logging"
	"github.com/bloops-games/wordrounds/internal/notify"
)

// Totals sums the points of every player over all rounds. Players without
// any submission get zero.
func Totals(players []string, rounds []roomModel.RoundData) map[string]int {
	totals := make(map[string]int, len(players))
	for _, p := range players {
		totals[p] = 0
	}

	for _, rd := range rounds {
		for _, sub := range rd.Submissions {
			totals[sub.PlayerID] += sub.Points
		}
	}

	return totals
}

// Winners returns every player with the highest total, sorted by id.
func Winners(totals map[string]int) []string {
	var best int
	var winners []string
	for p, total := range totals {
		switch {
		case len(winners) == 0 || total > best:
			best = total
			winners = []string{p}
		case total == best:
			winners = append(winners, p)
		}
	}

	sort.Strings(winners)
	return winners
}

// Coins converts game points into the progression currency.
func Coins(total int) int {
	if total <= 0 {
		return 0
	}

	return total / 2
}

func (s *Scheduler) finishGame(ctx context.Context, code string, gen uint64) error {
	logger := logging.FromContext(ctx).Named("round.finishGame")

	rt := s.registry.Get(code)
	if !rt.beginGameEnd(gen) {
		logger.Debugf("room %s: game end superseded, gen %d", code, gen)
		return nil
	}

	var snapshot roomModel.Room
	if _, err := s.rooms.Update(code, func(r *roomModel.Room) error {
		snapshot = *r
		r.Reset()
		r.LastActiveAt = s.now()
		return nil
	}); err != nil {
		if errors.Is(err, roomDb.ErrNotFound) {
			logger.Warnf("room %s vanished before game end", code)
			rt.abort(gen)
			return nil
		}
		return fmt.Errorf("update room: %w", err)
	}

	totals := Totals(snapshot.Players, snapshot.RoundsData)
	winners := Winners(totals)

	if snapshot.CurrentGameID != "" {
		if _, err := s.games.Finish(snapshot.CurrentGameID, snapshot.RoundsData, totals, winners); err != nil {
			if !errors.Is(err, gameDb.ErrNotFound) {
				return fmt.Errorf("finish game: %w", err)
			}
			logger.Warnf("room %s: game %s not found", code, snapshot.CurrentGameID)
		}
	}

	won := make(map[string]struct{}, len(winners))
	for _, w := range winners {
		won[w] = struct{}{}
	}

	for p, total := range totals {
		_, isWinner := won[p]
		if _, err := s.users.Reward(p, Coins(total), isWinner); err != nil {
			logger.Errorf("room %s: reward %s: %v", code, p, err)
		}
	}

	rt.finish(gen)
	logger.Infof("room %s: game %s ended, winners: %v, totals: %v", code, snapshot.CurrentGameID, winners, totals)

	s.notifier.Broadcast(code, notify.EventGameEnded, notify.GameEnded{Totals: totals, Winners: winners})
	return nil
}
