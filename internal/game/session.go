package game

import (
	"sync"
)

// SelectFunc picks the targets of a request-input session. It is
// evaluated exactly once, at call time. A nil SelectFunc targets all
// current players; a selector returning no players opens a session
// nobody can answer, which simply idles out its phase timer.
type SelectFunc func() []*Player

// InstructionFunc builds the initial instruction for one target.
// Instructions may differ per target, e.g. to exclude a player's own
// submission from their options.
type InstructionFunc func(p *Player) Instruction

// HandlerFunc handles one inbound command matched to a session. The
// command has already been appended to s.Responses. The returned
// instruction is delivered back to the sender: usually a wait, or a
// repeat of the same instruction type to ask for more submissions.
// Handlers run with the game lock held.
type HandlerFunc func(p *Player, cmd Command, s *Session) (Instruction, error)

// Session is one open request-input exchange: a set of targeted
// players, the ordered responses received so far, and the handler that
// consumes them. The per-session state lives here rather than in
// captured closures so handlers can be inspected and tested.
type Session struct {
	ID        string
	Targets   []*Player
	Responses []Command

	handler HandlerFunc

	mu     sync.Mutex
	active bool
}

// End deactivates the session. Idempotent; reports whether the session
// was still active.
func (s *Session) End() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.active
	s.active = false
	return prev
}

// Ended reports whether the session has been deactivated.
func (s *Session) Ended() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.active
}

func (s *Session) claims(playerID string) bool {
	for _, t := range s.Targets {
		if t.ID == playerID {
			return true
		}
	}
	return false
}

// RequestInput opens a session against the selected targets and sends
// each their initial instruction. The session stays open until End is
// called (by the handler, or by the phase timer on timeout).
//
// At most one active session should claim a given player at a time;
// dispatch routes a command to the first active session (in creation
// order) whose targets contain the sender, so overlapping target sets
// starve the later session.
func (c *Core) RequestInput(selectTargets SelectFunc, buildInstruction InstructionFunc, onResponse HandlerFunc) *Session {
	var targets []*Player
	if selectTargets == nil {
		targets = c.Players()
	} else {
		targets = selectTargets()
	}

	s := &Session{
		ID:      ShortID("session"),
		Targets: targets,
		handler: onResponse,
		active:  true,
	}

	c.mu.Lock()
	c.sessions = append(c.sessions, s)
	c.mu.Unlock()

	for _, t := range targets {
		c.comm.Send(t.ID, buildInstruction(t))
	}
	c.log.Debug().Str("session", s.ID).Int("targets", len(targets)).Msg("session opened")
	return s
}

// Input routes an inbound command to the matching active session and
// returns the next instruction for the sender. A command no active
// session claims is dropped with a no-op reply; that is a normal
// signal (stale client, ended phase), not an error. Handler execution
// is serialized per game instance.
func (c *Core) Input(cmd Command) (Instruction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var match *Session
	for _, s := range c.sessions {
		if !s.Ended() && s.claims(cmd.SourcePlayerID) {
			match = s
			break
		}
	}
	p := c.PlayerByID(cmd.SourcePlayerID)
	if match == nil || p == nil {
		c.log.Warn().
			Str("player", cmd.SourcePlayerID).
			Str("type", string(cmd.Type)).
			Msg("no active session for command")
		return Instruction{Type: InstructionNoOp, Metadata: Metadata{}}, nil
	}

	match.Responses = append(match.Responses, cmd)
	out, err := match.handler(p, cmd, match)
	if err != nil {
		return Instruction{}, err
	}
	c.updateExplainAndWaitLocked()
	return out, nil
}
