package round

import (
	"context"
	"errors"
	"fmt"
	"time"

	categoryModel "github.com/bloops-games/wordrounds/internal/database/category/model"
	gameModel "github.com/bloops-games/wordrounds/internal/database/game/model"
	roomDb "github.com/bloops-games/wordrounds/internal/database/room/database"
	roomModel "github.com/bloops-games/wordrounds/internal/database/room/model"
	userModel "github.com/bloops-games/wordrounds/internal/database/user/model"
	"github.com/bloops-games/wordrounds/internal/logging"
	"github.com/bloops-games/wordrounds/internal/notify"
	"github.com/bloops-games/wordrounds/internal/scoring"
)

var (
	ErrRoomNotFound   = fmt.Errorf("room not found")
	ErrNotHost        = fmt.Errorf("only the host can do this")
	ErrNoCategories   = fmt.Errorf("no categories selected")
	ErrStopNotAllowed = fmt.Errorf("room does not allow players to stop the round")
	ErrNotInRoom      = fmt.Errorf("player is not in the room")
	ErrAlreadyStarted = fmt.Errorf("game already started")

	errNoMoreRounds = fmt.Errorf("no more rounds")
)

type RoomStore interface {
	Fetch(code string) (roomModel.Room, error)
	Create(room roomModel.Room) error
	Update(code string, fn func(room *roomModel.Room) error) (roomModel.Room, error)
	UpsertSubmission(code string, roundNumber int, sub roomModel.Submission) (roomModel.Room, error)
}

type CategoryStore interface {
	FetchMany(ids []string) ([]categoryModel.Category, []string, error)
}

type GameStore interface {
	Add(g gameModel.Game) error
	Finish(id string, rounds []roomModel.RoundData, totals map[string]int, winners []string) (gameModel.Game, error)
}

type UserStore interface {
	Reward(userID string, coins int, won bool) (userModel.User, error)
}

type Stores struct {
	Rooms      RoomStore
	Categories CategoryStore
	Games      GameStore
	Users      UserStore
}

// Settings are the host controlled game options. Zero values keep the
// current room setting.
type Settings struct {
	Rounds     int               `json:"rounds,omitempty"`
	RoundTime  time.Duration     `json:"roundTime,omitempty"`
	Categories []string          `json:"categories,omitempty"`
	EndMode    roomModel.EndMode `json:"endMode,omitempty"`
}

func (s Settings) apply(room *roomModel.Room, config Config) {
	if s.Rounds != 0 {
		room.Rounds = s.Rounds
	}
	room.Rounds = config.ClampRounds(room.Rounds)

	if s.RoundTime != 0 {
		room.RoundTime = s.RoundTime
	}
	room.RoundTime = config.ClampRoundTime(room.RoundTime)

	if len(s.Categories) > 0 {
		room.Categories = dedupe(s.Categories)
	}

	if s.EndMode.Valid() {
		room.EndMode = s.EndMode
	}

	if !room.EndMode.Valid() {
		room.EndMode = roomModel.EndModeAllSubmit
	}
}

func NewScheduler(ctx context.Context, config Config, stores Stores, notifier notify.Notifier) *Scheduler {
	return &Scheduler{
		ctx:      ctx,
		config:   config,
		registry: NewRegistry(),
		rooms:    stores.Rooms,
		cats:     stores.Categories,
		games:    stores.Games,
		users:    stores.Users,
		notifier: notifier,
		now:      time.Now,
	}
}

// Scheduler drives the rounds of every room hosted by this process.
type Scheduler struct {
	// base context of timer callbacks
	ctx      context.Context
	config   Config
	registry *Registry

	rooms    RoomStore
	cats     CategoryStore
	games    GameStore
	users    UserStore
	notifier notify.Notifier

	now func() time.Time
}

// Run evicts idle room runtimes until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	return s.registry.Run(ctx, s.config.JanitorInterval, s.config.RuntimeIdleTTL)
}

// Stop cancels every pending round and break timer.
func (s *Scheduler) Stop() {
	s.registry.ClearAll()
}

// State returns a snapshot of the room runtime.
func (s *Scheduler) State(code string) State {
	return s.registry.Get(roomModel.NormalizeCode(code)).State()
}

func (s *Scheduler) fetchRoom(code string) (roomModel.Room, error) {
	room, err := s.rooms.Fetch(roomModel.NormalizeCode(code))
	if err != nil {
		if errors.Is(err, roomDb.ErrNotFound) {
			return room, ErrRoomNotFound
		}
		return room, fmt.Errorf("fetch room: %w", err)
	}

	return room, nil
}

// StartGame starts the first round of the room. Only the host may start,
// and a game already in progress is left untouched.
func (s *Scheduler) StartGame(ctx context.Context, code, playerID string, settings Settings) error {
	logger := logging.FromContext(ctx).Named("round.StartGame")

	room, err := s.fetchRoom(code)
	if err != nil {
		return err
	}
	code = room.Code

	if room.HostID != playerID {
		return ErrNotHost
	}

	if room.Started {
		logger.Debugf("room %s already started", code)
		return nil
	}

	settings.apply(&room, s.config)
	cats, missing, err := s.cats.FetchMany(room.Categories)
	if err != nil {
		return fmt.Errorf("fetch categories: %w", err)
	}

	if len(missing) > 0 {
		logger.Warnf("room %s: unknown categories dropped: %v", code, missing)
	}

	if len(cats) == 0 {
		return ErrNoCategories
	}

	categories := make([]string, 0, len(cats))
	for _, c := range cats {
		categories = append(categories, c.ID)
	}

	rt := s.registry.Get(code)
	rt.op.Lock()
	defer rt.op.Unlock()

	game := gameModel.NewGame(code, room.Players, room.Rounds, categories)
	room, err = s.rooms.Update(code, func(r *roomModel.Room) error {
		if r.Started {
			return ErrAlreadyStarted
		}

		settings.apply(r, s.config)
		r.Categories = categories
		r.Reset()
		r.Started = true
		r.CurrentGameID = game.ID
		r.LastActiveAt = s.now()
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrAlreadyStarted) {
			logger.Debugf("room %s already started", code)
			return nil
		}
		if errors.Is(err, roomDb.ErrNotFound) {
			return ErrRoomNotFound
		}
		return fmt.Errorf("update room: %w", err)
	}

	game.Players = append([]string(nil), room.Players...)
	if err := s.games.Add(game); err != nil {
		return fmt.Errorf("add game: %w", err)
	}

	rt.resetLetters()
	logger.Infof("room %s: game %s started, rounds: %d, round time: %s, end mode: %s",
		code, game.ID, room.Rounds, room.RoundTime, room.EndMode)

	return s.startRound(ctx, code)
}

// startRound begins the next round of a started room. Any timer armed for
// an earlier round becomes a no-op. Callers hold the runtime op lock.
func (s *Scheduler) startRound(ctx context.Context, code string) error {
	logger := logging.FromContext(ctx).Named("round.startRound")

	rt := s.registry.Get(code)
	gen := rt.begin()

	room, err := s.rooms.Fetch(code)
	if err != nil {
		if errors.Is(err, roomDb.ErrNotFound) {
			logger.Warnf("room %s vanished before round start", code)
			rt.abort(gen)
			return nil
		}
		return fmt.Errorf("fetch room: %w", err)
	}

	if !room.Started {
		logger.Debugf("room %s is not started", code)
		rt.abort(gen)
		return nil
	}

	if !room.HasMoreRounds() {
		return s.finishGame(ctx, code, gen)
	}

	cats, missing, err := s.cats.FetchMany(room.Categories)
	if err != nil {
		return fmt.Errorf("fetch categories: %w", err)
	}

	if len(missing) > 0 {
		logger.Warnf("room %s: categories not found: %v", code, missing)
	}

	letter, ok := rt.chooseLetter(gen, EligibleLetters(cats))
	if !ok {
		logger.Debugf("room %s: round start superseded", code)
		return nil
	}

	roundTime := s.config.ClampRoundTime(room.RoundTime)
	now := s.now()
	endsAt := now.Add(roundTime)

	room, err = s.rooms.Update(code, func(r *roomModel.Room) error {
		if !r.HasMoreRounds() {
			return errNoMoreRounds
		}

		r.CurrentRound++
		r.Letter = letter
		r.RoundEndTime = &endsAt
		r.LastActiveAt = now
		r.RoundsData = append(r.RoundsData, roomModel.RoundData{
			RoundNumber: r.CurrentRound,
			Letter:      letter,
			StartedAt:   now,
			Submissions: []roomModel.Submission{},
		})
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, errNoMoreRounds):
			return s.finishGame(ctx, code, gen)
		case errors.Is(err, roomDb.ErrNotFound):
			logger.Warnf("room %s vanished before round start", code)
			rt.abort(gen)
			return nil
		}
		return fmt.Errorf("update room: %w", err)
	}

	if !rt.activate(gen, room.CurrentRound, roundTime, func() { s.onDeadline(code, gen) }) {
		logger.Debugf("room %s: round %d superseded", code, room.CurrentRound)
		return nil
	}

	logger.Infof("room %s: round %d/%d started, letter %s", code, room.CurrentRound, room.Rounds, letter)
	s.notifier.Broadcast(code, notify.EventRoundStarted, s.roundStarted(room, cats, false))
	return nil
}

func (s *Scheduler) roundStarted(room roomModel.Room, cats []categoryModel.Category, submitted bool) notify.RoundStarted {
	meta := make([]notify.CategoryMeta, 0, len(cats))
	for _, c := range cats {
		meta = append(meta, notify.CategoryMeta{ID: c.ID, Name: c.Name, DisplayName: c.DisplayName})
	}

	var endsAt int64
	if room.RoundEndTime != nil {
		endsAt = room.RoundEndTime.UnixMilli()
	}

	return notify.RoundStarted{
		CurrentRound: room.CurrentRound,
		TotalRounds:  room.Rounds,
		Letter:       room.Letter,
		Categories:   append([]string(nil), room.Categories...),
		CategoryMeta: meta,
		RoundEndTime: endsAt,
		ServerNow:    s.now().UnixMilli(),
		HasSubmitted: submitted,
		EndMode:      room.EndMode,
	}
}

// onDeadline asks clients for their answers and ends the round after the
// grace window.
func (s *Scheduler) onDeadline(code string, gen uint64) {
	logger := logging.FromContext(s.ctx).Named("round.onDeadline")

	rt := s.registry.Get(code)
	if phase, cur := rt.current(); cur != gen || phase != PhaseActive {
		logger.Debugf("room %s: stale deadline, gen %d, current %d, phase %s", code, gen, cur, phase)
		return
	}

	s.notifier.Broadcast(code, notify.EventForceSubmit, notify.ForceSubmit{RoomCode: code})
	if !rt.armRound(gen, s.config.SubmitGrace, func() { s.endRoundAsync(code, gen) }) {
		logger.Debugf("room %s: round ended before grace window", code)
	}
}

func (s *Scheduler) endRoundAsync(code string, gen uint64) {
	if err := s.endRound(s.ctx, code, gen); err != nil {
		logging.FromContext(s.ctx).Named("round.endRoundAsync").Errorf("room %s: end round: %v", code, err)
	}
}

// EndRound scores the active round of the room. Concurrent and repeated
// calls score the round at most once.
func (s *Scheduler) EndRound(ctx context.Context, code string) error {
	code = roomModel.NormalizeCode(code)
	_, gen := s.registry.Get(code).current()
	return s.endRound(ctx, code, gen)
}

func (s *Scheduler) endRound(ctx context.Context, code string, gen uint64) error {
	logger := logging.FromContext(ctx).Named("round.endRound")

	rt := s.registry.Get(code)
	rt.op.Lock()
	defer rt.op.Unlock()

	if !rt.beginEnding(gen) {
		logger.Debugf("room %s: round already ending or superseded, gen %d", code, gen)
		return nil
	}

	room, err := s.rooms.Fetch(code)
	if err != nil {
		if errors.Is(err, roomDb.ErrNotFound) {
			logger.Warnf("room %s vanished before scoring", code)
			rt.abort(gen)
			return nil
		}
		return fmt.Errorf("fetch room: %w", err)
	}

	roundNumber := room.CurrentRound
	cats, missing, err := s.cats.FetchMany(room.Categories)
	if err != nil {
		return fmt.Errorf("fetch categories: %w", err)
	}

	if len(missing) > 0 {
		logger.Warnf("room %s: categories not found, scored as empty: %v", code, missing)
	}

	var result scoring.Result
	var letter string
	now := s.now()
	room, err = s.rooms.Update(code, func(r *roomModel.Room) error {
		rd, ok := r.Round(roundNumber)
		if !ok {
			return roomDb.ErrRoundNotFound
		}

		if rd.Scored() {
			return roomDb.ErrRoundClosed
		}

		letter = rd.Letter
		result = scoring.Score(scoringInput(r, rd, cats))
		for i := range rd.Submissions {
			sub := &rd.Submissions[i]
			sub.BasePoints = result.Scores[sub.PlayerID]
			sub.Recalculate()
		}

		rd.EndedAt = &now
		r.Letter = ""
		r.RoundEndTime = nil
		r.LastActiveAt = now
		return nil
	})
	if err != nil {
		switch {
		case errors.Is(err, roomDb.ErrNotFound), errors.Is(err, roomDb.ErrRoundNotFound):
			logger.Warnf("room %s: round %d vanished before scoring", code, roundNumber)
			rt.abort(gen)
			return nil
		case errors.Is(err, roomDb.ErrRoundClosed):
			logger.Debugf("room %s: round %d already scored", code, roundNumber)
			rt.abort(gen)
			return nil
		}
		return fmt.Errorf("update room: %w", err)
	}

	breakEndsAt := now.Add(s.config.BreakTime)
	hasMore := room.HasMoreRounds()
	logger.Infof("room %s: round %d scored, letter %s, scores: %v", code, roundNumber, letter, result.Scores)

	s.notifier.Broadcast(code, notify.EventRoundResults, notify.RoundResults{
		Round:        roundNumber,
		Scores:       result.Scores,
		Answers:      result.Answers,
		Details:      result.Details,
		BreakEndTime: breakEndsAt.UnixMilli(),
		HasMore:      hasMore,
	})

	rt.enterBreak(gen, breakEndsAt, s.config.BreakTime, func() { s.afterBreak(code, gen) })
	return nil
}

// scoringInput builds the scoring input of a round. Review credit arrives
// later as adjustments, so no acceptances are passed.
func scoringInput(room *roomModel.Room, rd *roomModel.RoundData, cats []categoryModel.Category) scoring.Input {
	byID := make(map[string]categoryModel.Category, len(cats))
	for _, c := range cats {
		byID[c.ID] = c
	}

	in := scoring.Input{
		Letter:  rd.Letter,
		Players: room.Players,
	}

	for _, id := range room.Categories {
		// unknown categories score as empty dictionaries
		in.Categories = append(in.Categories, scoring.Category{ID: id, Words: byID[id].WordsFor(rd.Letter)})
	}

	for _, sub := range rd.Submissions {
		in.Entries = append(in.Entries, scoring.Entry{PlayerID: sub.PlayerID, Answers: sub.Answers})
	}

	return in
}

func (s *Scheduler) afterBreak(code string, gen uint64) {
	logger := logging.FromContext(s.ctx).Named("round.afterBreak")

	rt := s.registry.Get(code)
	rt.op.Lock()
	defer rt.op.Unlock()

	if !rt.leaveBreak(gen) {
		logger.Debugf("room %s: break already left, gen %d", code, gen)
		return
	}

	if err := s.advance(s.ctx, code, gen); err != nil {
		logger.Errorf("room %s: advance: %v", code, err)
	}
}

// NextRound lets the host skip the break after round results.
func (s *Scheduler) NextRound(ctx context.Context, code, playerID string) error {
	logger := logging.FromContext(ctx).Named("round.NextRound")

	room, err := s.fetchRoom(code)
	if err != nil {
		return err
	}
	code = room.Code

	if room.HostID != playerID {
		return ErrNotHost
	}

	rt := s.registry.Get(code)
	rt.op.Lock()
	defer rt.op.Unlock()

	phase, gen := rt.current()
	if phase != PhaseBreak || !rt.leaveBreak(gen) {
		logger.Debugf("room %s: not in break, phase %s", code, phase)
		return nil
	}

	return s.advance(ctx, code, gen)
}

func (s *Scheduler) advance(ctx context.Context, code string, gen uint64) error {
	room, err := s.rooms.Fetch(code)
	if err != nil {
		if errors.Is(err, roomDb.ErrNotFound) {
			logging.FromContext(ctx).Named("round.advance").Warnf("room %s vanished during break", code)
			s.registry.Get(code).abort(gen)
			return nil
		}
		return fmt.Errorf("fetch room: %w", err)
	}

	if room.HasMoreRounds() {
		return s.startRound(ctx, code)
	}

	return s.finishGame(ctx, code, gen)
}

func dedupe(list []string) []string {
	seen := make(map[string]struct{}, len(list))
	out := make([]string, 0, len(list))
	for _, v := range list {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}

	return out
}
