package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Game is the surface the transport layer drives. TKO and Ranker
// implement it via the embedded Core plus their own Input and
// Orchestrate.
type Game interface {
	Code() string
	Type() GameType
	AddPlayer(name string) *Player
	AddPresenter(isCreator bool) *Presenter
	HasPlayerID(id string) bool
	PlayerByName(name string) *Player
	Players() []*Player
	Input(cmd Command) (Instruction, error)
	Orchestrate(ctx context.Context) error
}

type entry struct {
	game       Game
	createdAt  time.Time
	lastActive time.Time
	started    bool
	done       bool
}

// Registry maps room codes to live game instances. It owns game
// lifecycle: creation, start, and removal of abandoned rooms. It is
// injected into the transport layer rather than held as package state.
type Registry struct {
	log zerolog.Logger

	mu    sync.Mutex
	games map[string]*entry
}

func NewRegistry(logger zerolog.Logger) *Registry {
	return &Registry{
		log:   logger,
		games: make(map[string]*entry),
	}
}

// Add registers a freshly created game under its room code.
func (r *Registry) Add(g Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.games[g.Code()]; ok {
		return ErrGameExists
	}
	now := time.Now()
	r.games[g.Code()] = &entry{game: g, createdAt: now, lastActive: now}
	return nil
}

// Get returns the game for a room code and refreshes its activity
// timestamp.
func (r *Registry) Get(code string) (Game, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.games[code]
	if !ok {
		return nil, ErrGameNotFound
	}
	e.lastActive = time.Now()
	return e.game, nil
}

// Start runs the game's orchestration script in its own goroutine.
// A second start for the same room is rejected.
func (r *Registry) Start(ctx context.Context, code string) error {
	r.mu.Lock()
	e, ok := r.games[code]
	if !ok {
		r.mu.Unlock()
		return ErrGameNotFound
	}
	if e.started {
		r.mu.Unlock()
		return ErrGameStarted
	}
	e.started = true
	r.mu.Unlock()

	go func() {
		err := e.game.Orchestrate(ctx)
		r.mu.Lock()
		e.done = true
		e.lastActive = time.Now()
		r.mu.Unlock()
		if err != nil {
			r.log.Error().Err(err).Str("room", code).Msg("orchestration aborted")
			return
		}
		r.log.Info().Str("room", code).Msg("orchestration finished")
	}()
	return nil
}

// Remove drops a game from the registry.
func (r *Registry) Remove(code string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.games, code)
}

// Len reports the number of registered games.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.games)
}

// Sweep removes abandoned rooms: lobbies that never started and games
// that finished, once they have seen no transport traffic within idle.
// A running game is never swept. Returns the removed room codes so the
// caller can drop per-room resources held elsewhere.
func (r *Registry) Sweep(idle time.Duration) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed []string
	cutoff := time.Now().Add(-idle)
	for code, e := range r.games {
		if e.lastActive.Before(cutoff) && (e.done || !e.started) {
			delete(r.games, code)
			removed = append(removed, code)
			r.log.Info().Str("room", code).Msg("room swept")
		}
	}
	return removed
}
