package comms

import (
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shirtdown/shirtdown/internal/game"
)

type fakeConn struct {
	mu     sync.Mutex
	events []any
}

func (c *fakeConn) Emit(event string, args ...interface{}) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, args...)
}

func (c *fakeConn) received() []any {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]any(nil), c.events...)
}

func TestSendReachesRegisteredConn(t *testing.T) {
	t.Parallel()
	c := New(zerolog.Nop())
	conn := &fakeConn{}
	playerID := game.NewPlayerID("KWPF")
	c.Register(playerID, conn)

	in := game.Instruction{Type: game.InstructionDesign}
	c.Send(playerID, in)

	got := conn.received()
	require.Len(t, got, 1)
	assert.Equal(t, in, got[0])
}

func TestSendWithoutConnIsRecordedForCatchUp(t *testing.T) {
	t.Parallel()
	c := New(zerolog.Nop())
	playerID := game.NewPlayerID("KWPF")

	// No connection yet; both payloads vanish into the cache, only the
	// latest survives.
	c.Send(playerID, game.Instruction{Type: game.InstructionDesign})
	c.Send(playerID, game.Instruction{Type: game.InstructionSlogan})

	conn := &fakeConn{}
	c.Register(playerID, conn)

	got := conn.received()
	require.Len(t, got, 1)
	assert.Equal(t, game.InstructionSlogan, got[0].(game.Instruction).Type)
}

func TestPresenterCatchUpReplaysLastPayloadPerType(t *testing.T) {
	t.Parallel()
	c := New(zerolog.Nop())
	presenterID := game.NewPresenterID("KWPF")

	older := game.PresenterPayload{Type: game.PresenterStep, Step: game.StepRound}
	newer := game.PresenterPayload{Type: game.PresenterStep, Step: game.StepExplainAndWait}
	timer := game.PresenterPayload{Type: game.PresenterTimer, Metadata: game.PresenterMetadata{Time: 30}}
	c.Send(presenterID, older)
	c.Send(presenterID, timer)
	c.Send(presenterID, newer)

	conn := &fakeConn{}
	c.Register(presenterID, conn)

	// Latest step payload plus the timer; the replaced step is gone.
	assert.ElementsMatch(t, []any{newer, timer}, conn.received())
}

func TestPresenterCatchUpIsRoomScoped(t *testing.T) {
	t.Parallel()
	c := New(zerolog.Nop())
	payload := game.PresenterPayload{Type: game.PresenterStep, Step: game.StepRound}
	c.Send(game.NewPresenterID("KWPF"), payload)

	// A second presenter of the same room gets the same catch-up.
	conn := &fakeConn{}
	c.Register(game.NewPresenterID("KWPF"), conn)
	assert.Len(t, conn.received(), 1)

	// A presenter of another room gets nothing.
	other := &fakeConn{}
	c.Register(game.NewPresenterID("ZZZZ"), other)
	assert.Empty(t, other.received())
}

func TestRegisterReplacesConnAndStaleUnregisterIsIgnored(t *testing.T) {
	t.Parallel()
	c := New(zerolog.Nop())
	playerID := game.NewPlayerID("KWPF")
	old := &fakeConn{}
	fresh := &fakeConn{}

	c.Register(playerID, old)
	c.Register(playerID, fresh)

	// The old connection disconnecting later must not unbind the new
	// one.
	c.Unregister(playerID, old)
	c.Send(playerID, game.Instruction{Type: game.InstructionWait})

	assert.Len(t, fresh.received(), 1)
	assert.Empty(t, old.received())

	c.Unregister(playerID, fresh)
	c.Send(playerID, game.Instruction{Type: game.InstructionWait})
	assert.Len(t, fresh.received(), 1)
}

func TestForgetDropsRoomCaches(t *testing.T) {
	t.Parallel()
	c := New(zerolog.Nop())
	playerID := game.NewPlayerID("KWPF")
	presenterID := game.NewPresenterID("KWPF")
	c.Send(playerID, game.Instruction{Type: game.InstructionDesign})
	c.Send(presenterID, game.PresenterPayload{Type: game.PresenterStep, Step: game.StepRound})

	c.Forget("KWPF")

	playerConn := &fakeConn{}
	c.Register(playerID, playerConn)
	assert.Empty(t, playerConn.received())

	presenterConn := &fakeConn{}
	c.Register(presenterID, presenterConn)
	assert.Empty(t, presenterConn.received())
}
