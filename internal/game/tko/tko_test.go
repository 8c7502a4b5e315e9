package tko

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shirtdown/shirtdown/internal/game"
)

// fastClock compresses every wait to a sliver so full game scripts run
// in test time.
type fastClock struct{}

func (fastClock) Wait(ctx context.Context, d time.Duration) error {
	select {
	case <-time.After(50 * time.Microsecond):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// autoComm records payloads and plays back scripted player behavior:
// whenever a player receives an instruction, respond decides their
// answer and feeds it straight into the game.
type autoComm struct {
	mu       sync.Mutex
	payloads map[string][]any
	respond  func(playerID string, in game.Instruction)
}

func newAutoComm() *autoComm {
	return &autoComm{payloads: make(map[string][]any)}
}

func (c *autoComm) Send(id string, payload any) {
	c.mu.Lock()
	c.payloads[id] = append(c.payloads[id], payload)
	respond := c.respond
	c.mu.Unlock()
	if in, ok := payload.(game.Instruction); ok && respond != nil {
		respond(id, in)
	}
}

func (c *autoComm) presenterPayloads(id string, t game.PresenterPayloadType) []game.PresenterPayload {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []game.PresenterPayload
	for _, payload := range c.payloads[id] {
		if pp, ok := payload.(game.PresenterPayload); ok && pp.Type == t {
			out = append(out, pp)
		}
	}
	return out
}

// obedientPlayer answers every instruction type with a plausible
// submission: designs and slogans on request, the first handed-out
// parts for shirts, the lowest menu score, the first votedown option.
func obedientPlayer(g *TKO) func(string, game.Instruction) {
	return func(playerID string, in game.Instruction) {
		cmd := game.Command{SourcePlayerID: playerID}
		switch in.Type {
		case game.InstructionDesign:
			cmd.Type = game.CommandDesign
			cmd.Metadata = game.Metadata{Base64: "drawing-by-" + playerID}
		case game.InstructionSlogan:
			cmd.Type = game.CommandSlogan
			cmd.Metadata = game.Metadata{Text: "slogan-by-" + playerID}
		case game.InstructionShirt:
			if len(in.Metadata.Designs) == 0 || len(in.Metadata.Slogans) == 0 {
				return
			}
			cmd.Type = game.CommandShirt
			cmd.Metadata = game.Metadata{
				DesignID: in.Metadata.Designs[0].ID,
				SloganID: in.Metadata.Slogans[0].ID,
			}
		case game.InstructionScore:
			cmd.Type = game.CommandScore
			cmd.Metadata = game.Metadata{
				ShirtID: in.Metadata.ShirtID,
				Value:   in.Metadata.PossibleScores[0],
			}
		case game.InstructionVote:
			if len(in.Metadata.Between) == 0 {
				return
			}
			cmd.Type = game.CommandVote
			cmd.Metadata = game.Metadata{TargetID: in.Metadata.Between[0].ID}
		default:
			return
		}
		if _, err := g.Input(cmd); err != nil {
			panic(err)
		}
	}
}

// Two obedient players play both rounds to the end. With two players
// the design and slogan handouts are fully determined, so the score
// sheet is exact: each round one shirt per player, rated once at the
// lowest menu value, with half-value author bonuses in round one only.
func TestOrchestrateFullGame(t *testing.T) {
	t.Parallel()
	comm := newAutoComm()
	g := New(comm, zerolog.Nop())
	g.SetClock(fastClock{})
	presenter := g.AddPresenter(true)
	ada := g.AddPlayer("Ada")
	bo := g.AddPlayer("Bo")
	comm.respond = obedientPlayer(g)

	done := make(chan error, 1)
	go func() { done <- g.Orchestrate(context.Background()) }()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(30 * time.Second):
		t.Fatal("orchestration never finished")
	}

	var rounds []*Round
	g.Sync(func() {
		rounds = append(rounds, g.prevRounds...)
		rounds = append(rounds, g.round)
	})
	require.Len(t, rounds, 2)

	for i, r := range rounds {
		require.Len(t, r.Shirts, 2, "round %d", i+1)
		require.Len(t, r.FinalScores, 2, "round %d", i+1)
	}

	// Round one: shirt 100 + design 50 + slogan 50 each.
	for _, fs := range rounds[0].FinalScores {
		assert.Equal(t, 200, fs.Score)
	}
	// Round two: shirt 200 each, no author bonuses.
	for _, fs := range rounds[1].FinalScores {
		assert.Equal(t, 200, fs.Score)
	}
	assert.Empty(t, rounds[1].AdhocScores)

	// The grand total board closes the game.
	steps := comm.presenterPayloads(presenter.ID, game.PresenterStep)
	require.NotEmpty(t, steps)
	final := steps[len(steps)-1]
	assert.Equal(t, game.StepShowScores, final.Step)
	assert.Equal(t, "Final tally", final.Metadata.ShowScoresCategory)
	require.Len(t, final.Metadata.ShowScoresScores, 2)
	for _, score := range final.Metadata.ShowScoresScores {
		assert.Equal(t, 400, score.Value)
		assert.Contains(t, []string{ada.Name, bo.Name}, score.Name)
	}
}

func TestVotedownScoresAndReveal(t *testing.T) {
	t.Parallel()
	comm := newAutoComm()
	g := New(comm, zerolog.Nop())
	g.SetClock(fastClock{})
	presenter := g.AddPresenter(true)
	ada := g.AddPlayer("Ada")
	bo := g.AddPlayer("Bo")
	cy := g.AddPlayer("Cy")

	shirtA := NewShirt(ada.ID, NewDesign(bo.ID, "d1"), NewSlogan(cy.ID, "s1"))
	shirtB := NewShirt(ada.ID, NewDesign(cy.ID, "d2"), NewSlogan(bo.ID, "s2"))
	g.Sync(func() { g.round.Shirts = []Shirt{shirtA, shirtB} })
	comm.respond = obedientPlayer(g)

	ctx := context.Background()
	require.NoError(t, g.collectVotesBetween(ctx, []Shirt{shirtA, shirtB}))
	require.NoError(t, g.revealVotes(ctx))

	// Ada authored both contenders and doesn't vote; Bo and Cy split
	// the 1000 point pot in her favor.
	g.Sync(func() {
		require.Len(t, g.round.CurrentVotes(), 2)
		assert.Equal(t, 1000, g.round.AdhocTotal(ada.ID, ReasonVote))
		assert.Zero(t, g.round.AdhocTotal(bo.ID, ReasonVote))
	})

	// Votes are revealed one at a time with a growing tally.
	var reveals []game.PresenterPayload
	for _, pp := range comm.presenterPayloads(presenter.ID, game.PresenterPureMetadata) {
		if len(pp.Metadata.VSVoteVotes) > 0 {
			reveals = append(reveals, pp)
		}
	}
	require.Len(t, reveals, 2)
	assert.Len(t, reveals[0].Metadata.VSVoteVotes, 1)
	assert.Len(t, reveals[1].Metadata.VSVoteVotes, 2)
	assert.Equal(t, 500, reveals[1].Metadata.VSVoteVotes[1].ScoreValue)
}

// When every player submits within the deadline the phase ends on the
// spot instead of idling out the countdown.
func TestAllSubmittedEndsPhaseEarly(t *testing.T) {
	t.Parallel()
	comm := newAutoComm()
	g := New(comm, zerolog.Nop())
	g.SetClock(fastClock{})
	presenter := g.AddPresenter(true)
	g.AddPlayer("Ada")
	g.AddPlayer("Bo")
	g.AddPlayer("Cy")
	comm.respond = obedientPlayer(g)

	require.NoError(t, g.collectDesigns(context.Background()))

	g.Sync(func() { assert.Len(t, g.designs, 3) })
	ticks := comm.presenterPayloads(presenter.ID, game.PresenterTimer)
	assert.Less(t, len(ticks), collectSeconds)
}

// A player who went silent must not stall the game: the phase timer
// force-ends the session, and their late submission lands in the void.
func TestSilentPlayerTimesOut(t *testing.T) {
	t.Parallel()
	comm := newAutoComm()
	g := New(comm, zerolog.Nop())
	g.SetClock(fastClock{})
	ada := g.AddPlayer("Ada")
	bo := g.AddPlayer("Bo")
	cy := g.AddPlayer("Cy")

	obey := obedientPlayer(g)
	comm.respond = func(playerID string, in game.Instruction) {
		if playerID == cy.ID {
			return
		}
		obey(playerID, in)
	}

	require.NoError(t, g.collectDesigns(context.Background()))

	g.Sync(func() {
		require.Len(t, g.designs, 2)
		for _, d := range g.designs {
			assert.Contains(t, []string{ada.ID, bo.ID}, d.CreatedBy)
		}
	})

	// The phase is over; the straggler gets a no-op.
	out, err := g.Input(game.Command{
		SourcePlayerID: cy.ID,
		Type:           game.CommandDesign,
		Metadata:       game.Metadata{Base64: "too-late"},
	})
	require.NoError(t, err)
	assert.Equal(t, game.InstructionNoOp, out.Type)
	g.Sync(func() { assert.Len(t, g.designs, 2) })
}
