package game

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Communicator delivers a payload to a participant. Fire-and-forget:
// the core assumes no delivery guarantee and re-broadcasts state via
// its own phase-status pushes. Implementations must not call back into
// the game.
type Communicator interface {
	Send(participantID string, payload any)
}

// StatusFunc produces the current per-player standings shown while the
// presenter waits out a phase. It runs with the game lock held and
// receives the roster directly; it must not call locking game methods.
type StatusFunc func(players []*Player) []PlayerStatus

// Core carries the shared orchestration machinery of a game instance:
// roster, session registry, timers and the live-status channel.
// Concrete games embed it and drive it from their Orchestrate script.
//
// Two locks: rosterMu guards the player/presenter lists, mu serializes
// command dispatch, session bookkeeping and status recomputation.
// Dispatch may read the roster; roster operations never take mu.
type Core struct {
	roomCode    string
	gameType    GameType
	comm        Communicator
	clock       Clock
	turnSeconds int
	log         zerolog.Logger

	rosterMu   sync.RWMutex
	players    []*Player
	presenters []*Presenter

	mu       sync.Mutex
	sessions []*Session
	statusFn StatusFunc
}

func NewCore(gameType GameType, comm Communicator, logger zerolog.Logger) *Core {
	code := NewRoomCode()
	return &Core{
		roomCode:    code,
		gameType:    gameType,
		comm:        comm,
		clock:       systemClock{},
		turnSeconds: DefaultTurnSeconds,
		log:         logger.With().Str("room", code).Str("game", string(gameType)).Logger(),
	}
}

func (c *Core) Code() string   { return c.roomCode }
func (c *Core) Type() GameType { return c.gameType }

// SetClock swaps the time source. Tests install an instant clock so
// phase timers don't actually sleep. Must be called before the game
// starts.
func (c *Core) SetClock(clock Clock) { c.clock = clock }

// SetTurnSeconds overrides the default phase deadline. Must be called
// before the game starts; non-positive values are ignored.
func (c *Core) SetTurnSeconds(n int) {
	if n > 0 {
		c.turnSeconds = n
	}
}

// TurnSeconds returns the phase deadline scripts should hand to
// TurnTimer when they have no tighter pacing of their own.
func (c *Core) TurnSeconds() int { return c.turnSeconds }

// Sync runs fn while holding the game lock. Scripts use it whenever
// they touch round state that inbound command handlers also mutate.
func (c *Core) Sync(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn()
}

// AddPlayer creates a player, adds them to the roster and pushes the
// updated roster to all presenters.
func (c *Core) AddPlayer(name string) *Player {
	c.rosterMu.Lock()
	p := &Player{ID: NewPlayerID(c.roomCode), Name: name}
	c.players = append(c.players, p)
	roster := make([]*Player, len(c.players))
	copy(roster, c.players)
	c.rosterMu.Unlock()

	c.log.Info().Str("player", p.ID).Str("name", name).Msg("player joined")
	c.SendToAllPresenters(PresenterPayload{
		Type:     PresenterAllPlayers,
		Metadata: PresenterMetadata{Players: roster},
	})
	return p
}

func (c *Core) AddPresenter(isCreator bool) *Presenter {
	c.rosterMu.Lock()
	defer c.rosterMu.Unlock()
	p := &Presenter{ID: NewPresenterID(c.roomCode), IsCreator: isCreator}
	c.presenters = append(c.presenters, p)
	return p
}

func (c *Core) HasPlayerID(id string) bool {
	return c.PlayerByID(id) != nil
}

func (c *Core) PlayerByName(name string) *Player {
	c.rosterMu.RLock()
	defer c.rosterMu.RUnlock()
	for _, p := range c.players {
		if p.Name == name {
			return p
		}
	}
	return nil
}

func (c *Core) PlayerByID(id string) *Player {
	c.rosterMu.RLock()
	defer c.rosterMu.RUnlock()
	for _, p := range c.players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// Players returns a snapshot of the roster.
func (c *Core) Players() []*Player {
	c.rosterMu.RLock()
	defer c.rosterMu.RUnlock()
	out := make([]*Player, len(c.players))
	copy(out, c.players)
	return out
}

func (c *Core) presenterIDs() []string {
	c.rosterMu.RLock()
	defer c.rosterMu.RUnlock()
	ids := make([]string, len(c.presenters))
	for i, p := range c.presenters {
		ids[i] = p.ID
	}
	return ids
}

func (c *Core) SendToPlayer(playerID string, in Instruction) {
	c.comm.Send(playerID, in)
}

func (c *Core) SendToAllPlayers(in Instruction) {
	for _, p := range c.Players() {
		c.comm.Send(p.ID, in)
	}
}

func (c *Core) SendStepToAllPresenters(step StepType, meta PresenterMetadata) {
	c.SendToAllPresenters(PresenterPayload{Type: PresenterStep, Step: step, Metadata: meta})
}

func (c *Core) SendToAllPresenters(payload PresenterPayload) {
	for _, id := range c.presenterIDs() {
		c.comm.Send(id, payload)
	}
}

// EmitTimer pushes the remaining seconds of the current phase to all
// presenter timer displays.
func (c *Core) EmitTimer(remaining int) {
	c.SendToAllPresenters(PresenterPayload{
		Type:     PresenterTimer,
		Metadata: PresenterMetadata{Time: remaining},
	})
}

// NotifyScore pushes a granular "+N points" popup to presenters.
// Safe to call from command handlers.
func (c *Core) NotifyScore(n ScoreNotice) {
	c.SendToAllPresenters(PresenterPayload{
		Type:     PresenterPureMetadata,
		Metadata: PresenterMetadata{ScoreNotice: &n},
	})
}

// Announcement is a full-screen presenter interstitial.
type Announcement struct {
	Heading  string
	Subtext  string
	Artifact *Artifact
}

// AnnounceRound shows the round card for a moment.
func (c *Core) AnnounceRound(ctx context.Context, number int, name string) error {
	c.SendStepToAllPresenters(StepRound, PresenterMetadata{
		RoundNumber: number,
		RoundName:   name,
	})
	return c.WaitFor(ctx, 3*time.Second)
}

// MakeAnnouncement shows an announcement and optionally dwells on it.
func (c *Core) MakeAnnouncement(ctx context.Context, a Announcement, pause time.Duration) error {
	c.SendStepToAllPresenters(StepAnnouncement, PresenterMetadata{
		AnnouncementHeading:  a.Heading,
		AnnouncementSubtext:  a.Subtext,
		AnnouncementArtifact: a.Artifact,
	})
	if pause <= 0 {
		return nil
	}
	return c.WaitFor(ctx, pause)
}

// ShowScores displays a score board for ten seconds.
func (c *Core) ShowScores(ctx context.Context, category string, scores []ScoreInfo) error {
	c.SendStepToAllPresenters(StepShowScores, PresenterMetadata{
		ShowScoresCategory: category,
		ShowScoresScores:   scores,
	})
	return c.WaitFor(ctx, 10*time.Second)
}

// ExplainAndWait switches the presenter to the explain-and-wait scene
// and installs statusFn as the live-status producer. Only one producer
// is active at a time; a new call replaces the previous one. The first
// stats push happens immediately.
func (c *Core) ExplainAndWait(text ExplainText, statusFn StatusFunc) {
	c.SendStepToAllPresenters(StepExplainAndWait, PresenterMetadata{
		ExplainText:  &text,
		ExplainStats: []PlayerStatus{},
	})
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statusFn = statusFn
	c.updateExplainAndWaitLocked()
}

// UpdateExplainAndWait recomputes and pushes the live standings. Called
// after every state mutation that could change them; command dispatch
// does this automatically.
func (c *Core) UpdateExplainAndWait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.updateExplainAndWaitLocked()
}

func (c *Core) updateExplainAndWaitLocked() {
	if c.statusFn == nil {
		return
	}
	c.SendToAllPresenters(PresenterPayload{
		Type:     PresenterPureMetadata,
		Metadata: PresenterMetadata{ExplainStats: c.statusFn(c.Players())},
	})
}

// WaitFor suspends the script for d, or less if ctx is cancelled.
func (c *Core) WaitFor(ctx context.Context, d time.Duration) error {
	return c.clock.Wait(ctx, d)
}

// Log returns the room-scoped logger.
func (c *Core) Log() zerolog.Logger { return c.log }
