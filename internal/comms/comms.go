// Package comms binds participant identities to live push connections
// and replays missed payloads on reconnect.
package comms

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/shirtdown/shirtdown/internal/game"
)

// CommandEvent is the socket event name every payload is emitted on.
const CommandEvent = "command"

// Conn is the slice of a socket connection the communicator needs.
// socketio.Conn satisfies it.
type Conn interface {
	Emit(event string, args ...interface{})
}

// Communicator implements game.Communicator over a socket push
// channel. Delivery is fire-and-forget; for catch-up it remembers the
// last payload sent to each player and, per room, the last presenter
// payload of each type, replaying them when a client (re)registers.
type Communicator struct {
	log zerolog.Logger

	mu            sync.Mutex
	conns         map[string]Conn                              // clientID -> conn
	lastPlayer    map[string]any                               // playerID -> last payload
	lastPresenter map[string]map[game.PresenterPayloadType]any // roomCode -> payload type -> payload
}

func New(logger zerolog.Logger) *Communicator {
	return &Communicator{
		log:           logger,
		conns:         make(map[string]Conn),
		lastPlayer:    make(map[string]any),
		lastPresenter: make(map[string]map[game.PresenterPayloadType]any),
	}
}

// Register binds a client id to a connection, replacing any previous
// binding, and catches the client up on what it missed while away:
// players get their last instruction, presenters the last payload of
// every type for their room.
func (c *Communicator) Register(clientID string, conn Conn) {
	c.mu.Lock()
	c.conns[clientID] = conn
	var replay []any
	switch {
	case game.IsPlayerID(clientID):
		if payload, ok := c.lastPlayer[clientID]; ok {
			replay = append(replay, payload)
		}
	case game.IsPresenterID(clientID):
		for _, payload := range c.lastPresenter[game.RoomCodeFromID(clientID)] {
			replay = append(replay, payload)
		}
	}
	c.mu.Unlock()

	c.log.Info().Str("client", clientID).Int("replayed", len(replay)).Msg("client registered")
	for _, payload := range replay {
		conn.Emit(CommandEvent, payload)
	}
}

// Unregister drops the binding if it still points at conn. A stale
// unregister from an already-replaced connection is a no-op.
func (c *Communicator) Unregister(clientID string, conn Conn) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conns[clientID] == conn {
		delete(c.conns, clientID)
	}
}

// Send delivers a payload to a participant. Without a live connection
// the payload is only recorded for catch-up; that is not an error.
func (c *Communicator) Send(clientID string, payload any) {
	c.mu.Lock()
	c.remember(clientID, payload)
	conn, ok := c.conns[clientID]
	c.mu.Unlock()

	if !ok {
		c.log.Warn().Str("client", clientID).Msg("no socket for client")
		return
	}
	conn.Emit(CommandEvent, payload)
}

func (c *Communicator) remember(clientID string, payload any) {
	switch {
	case game.IsPlayerID(clientID):
		c.lastPlayer[clientID] = payload
	case game.IsPresenterID(clientID):
		pp, ok := payload.(game.PresenterPayload)
		if !ok {
			return
		}
		code := game.RoomCodeFromID(clientID)
		if c.lastPresenter[code] == nil {
			c.lastPresenter[code] = make(map[game.PresenterPayloadType]any)
		}
		c.lastPresenter[code][pp.Type] = payload
	}
}

// Forget drops the catch-up caches of a room, e.g. when the room is
// swept.
func (c *Communicator) Forget(roomCode string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.lastPresenter, roomCode)
	for id := range c.lastPlayer {
		if game.RoomCodeFromID(id) == roomCode {
			delete(c.lastPlayer, id)
		}
	}
}
