package round

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/bloops-games/wordrounds/internal/logging"
)

type Phase uint8

const (
	PhaseLobby Phase = iota + 1
	PhaseStarting
	PhaseActive
	PhaseEnding
	PhaseBreak
	PhaseGameEnding
	PhaseGameEnded
)

func (p Phase) String() string {
	switch p {
	case PhaseLobby:
		return "lobby"
	case PhaseStarting:
		return "starting"
	case PhaseActive:
		return "active"
	case PhaseEnding:
		return "ending"
	case PhaseBreak:
		return "break"
	case PhaseGameEnding:
		return "game-ending"
	case PhaseGameEnded:
		return "game-ended"
	default:
		return "unknown"
	}
}

// Runtime is the ephemeral per-room scheduling state. Every transition
// checks the expected phase and generation and switches under mtx.
type Runtime struct {
	mtx sync.Mutex
	// op serializes the persisted transitions of the room
	op sync.Mutex

	code          string
	phase         Phase
	gen           uint64
	round         int
	roundTimer    *time.Timer
	breakTimer    *time.Timer
	breakEndsAt   time.Time
	usedLetters   map[string]struct{}
	stopRequested bool
	lastActive    time.Time
}

type State struct {
	Phase       Phase
	Generation  uint64
	Round       int
	BreakEndsAt time.Time
	UsedLetters []string
}

func newRuntime(code string, now time.Time) *Runtime {
	return &Runtime{
		code:        code,
		phase:       PhaseLobby,
		usedLetters: map[string]struct{}{},
		lastActive:  now,
	}
}

func (rt *Runtime) State() State {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	letters := make([]string, 0, len(rt.usedLetters))
	for l := range rt.usedLetters {
		letters = append(letters, l)
	}
	sort.Strings(letters)

	return State{
		Phase:       rt.phase,
		Generation:  rt.gen,
		Round:       rt.round,
		BreakEndsAt: rt.breakEndsAt,
		UsedLetters: letters,
	}
}

func (rt *Runtime) current() (Phase, uint64) {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()
	return rt.phase, rt.gen
}

// ClearAllTimers cancels pending round-end and break-end timers.
func ClearAllTimers(rt *Runtime) {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()
	rt.clearAllTimers()
}

func (rt *Runtime) clearAllTimers() {
	if rt.roundTimer != nil {
		rt.roundTimer.Stop()
		rt.roundTimer = nil
	}

	if rt.breakTimer != nil {
		rt.breakTimer.Stop()
		rt.breakTimer = nil
	}
}

// begin opens a new generation, invalidating every callback armed before.
func (rt *Runtime) begin() uint64 {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	rt.gen++
	rt.clearAllTimers()
	rt.phase = PhaseStarting
	rt.stopRequested = false
	rt.breakEndsAt = time.Time{}
	return rt.gen
}

// chooseLetter picks a letter for the round from candidates, skipping the
// letters already used this game. An exhausted pool starts over.
func (rt *Runtime) chooseLetter(gen uint64, candidates []string) (string, bool) {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if rt.gen != gen || len(candidates) == 0 {
		return "", false
	}

	letter, reset := pickLetter(candidates, rt.usedLetters)
	if reset {
		rt.usedLetters = map[string]struct{}{}
	}

	rt.usedLetters[letter] = struct{}{}
	return letter, true
}

func (rt *Runtime) markUsed(letters ...string) {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	for _, l := range letters {
		if l != "" {
			rt.usedLetters[l] = struct{}{}
		}
	}
}

func (rt *Runtime) resetLetters() {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()
	rt.usedLetters = map[string]struct{}{}
}

func (rt *Runtime) activate(gen uint64, round int, d time.Duration, fire func()) bool {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if rt.gen != gen || rt.phase != PhaseStarting {
		return false
	}

	rt.phase = PhaseActive
	rt.round = round
	rt.roundTimer = time.AfterFunc(d, fire)
	return true
}

// armRound replaces the round timer while the round is active.
func (rt *Runtime) armRound(gen uint64, d time.Duration, fire func()) bool {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if rt.gen != gen || rt.phase != PhaseActive {
		return false
	}

	if rt.roundTimer != nil {
		rt.roundTimer.Stop()
	}

	rt.roundTimer = time.AfterFunc(d, fire)
	return true
}

func (rt *Runtime) requestStop() (uint64, bool) {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if rt.phase != PhaseActive || rt.stopRequested {
		return 0, false
	}

	rt.stopRequested = true
	return rt.gen, true
}

func (rt *Runtime) beginEnding(gen uint64) bool {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if rt.gen != gen || rt.phase != PhaseActive {
		return false
	}

	rt.clearAllTimers()
	rt.phase = PhaseEnding
	return true
}

func (rt *Runtime) enterBreak(gen uint64, endsAt time.Time, d time.Duration, fire func()) bool {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if rt.gen != gen || rt.phase != PhaseEnding {
		return false
	}

	rt.phase = PhaseBreak
	rt.breakEndsAt = endsAt
	rt.breakTimer = time.AfterFunc(d, fire)
	return true
}

// leaveBreak cancels the break timer, so the timer and a host skipping the
// break can not both advance the room.
func (rt *Runtime) leaveBreak(gen uint64) bool {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if rt.gen != gen || rt.phase != PhaseBreak {
		return false
	}

	rt.clearAllTimers()
	rt.phase = PhaseStarting
	rt.breakEndsAt = time.Time{}
	return true
}

func (rt *Runtime) beginGameEnd(gen uint64) bool {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if rt.gen != gen || rt.phase != PhaseStarting {
		return false
	}

	rt.phase = PhaseGameEnding
	return true
}

func (rt *Runtime) finish(gen uint64) {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if rt.gen != gen {
		return
	}

	rt.clearAllTimers()
	rt.phase = PhaseGameEnded
	rt.round = 0
	rt.usedLetters = map[string]struct{}{}
}

// abort drops the room back to the lobby when its data vanished.
func (rt *Runtime) abort(gen uint64) {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if rt.gen != gen {
		return
	}

	rt.clearAllTimers()
	rt.phase = PhaseLobby
	rt.round = 0
}

func (rt *Runtime) touch(now time.Time) {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()
	rt.lastActive = now
}

func (rt *Runtime) idle(now time.Time, ttl time.Duration) bool {
	rt.mtx.Lock()
	defer rt.mtx.Unlock()

	if rt.roundTimer != nil || rt.breakTimer != nil {
		return false
	}

	if rt.phase != PhaseLobby && rt.phase != PhaseGameEnded {
		return false
	}

	return now.Sub(rt.lastActive) > ttl
}

// Registry owns the runtimes of all rooms hosted by this process.
type Registry struct {
	mtx      sync.Mutex
	runtimes map[string]*Runtime
	now      func() time.Time
}

func NewRegistry() *Registry {
	return &Registry{runtimes: map[string]*Runtime{}, now: time.Now}
}

// Get returns the runtime of the room, creating a zero one on first use.
func (r *Registry) Get(code string) *Runtime {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	now := r.now()
	rt, ok := r.runtimes[code]
	if !ok {
		rt = newRuntime(code, now)
		r.runtimes[code] = rt
		return rt
	}

	rt.touch(now)
	return rt
}

func (r *Registry) Len() int {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	return len(r.runtimes)
}

// ClearAll cancels the timers of every runtime.
func (r *Registry) ClearAll() {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	for _, rt := range r.runtimes {
		ClearAllTimers(rt)
	}
}

// Evict removes idle runtimes and returns how many were dropped.
func (r *Registry) Evict(ttl time.Duration) int {
	r.mtx.Lock()
	defer r.mtx.Unlock()

	now := r.now()
	var n int
	for code, rt := range r.runtimes {
		if rt.idle(now, ttl) {
			delete(r.runtimes, code)
			n++
		}
	}

	return n
}

// Run evicts idle runtimes every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, ttl time.Duration) error {
	logger := logging.FromContext(ctx).Named("round.Registry.Run")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if n := r.Evict(ttl); n > 0 {
				logger.Infof("evicted %d idle room runtimes, left: %d", n, r.Len())
			}
		}
	}
}
