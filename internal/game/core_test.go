package game

import (
	"context"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddPlayerBroadcastsRoster(t *testing.T) {
	t.Parallel()
	c, comm := newTestCore()
	presenter := c.AddPresenter(true)

	c.AddPlayer("Ada")
	c.AddPlayer("Bo")

	rosters := comm.presenterPayloads(presenter.ID, PresenterAllPlayers)
	require.Len(t, rosters, 2)
	assert.Len(t, rosters[0].Metadata.Players, 1)
	require.Len(t, rosters[1].Metadata.Players, 2)
	assert.Equal(t, "Ada", rosters[1].Metadata.Players[0].Name)
	assert.Equal(t, "Bo", rosters[1].Metadata.Players[1].Name)
}

func TestPlayerLookups(t *testing.T) {
	t.Parallel()
	c, _ := newTestCore()
	ada := c.AddPlayer("Ada")
	c.AddPlayer("Bo")

	assert.Equal(t, ada, c.PlayerByName("Ada"))
	assert.Nil(t, c.PlayerByName("Cy"))
	assert.Equal(t, ada, c.PlayerByID(ada.ID))
	assert.Nil(t, c.PlayerByID("player-XXXX-nope"))
	assert.True(t, c.HasPlayerID(ada.ID))
	assert.False(t, c.HasPlayerID("player-XXXX-nope"))

	// The snapshot is detached from the roster.
	snapshot := c.Players()
	require.Len(t, snapshot, 2)
	c.AddPlayer("Cy")
	assert.Len(t, snapshot, 2)
	assert.Len(t, c.Players(), 3)
}

func TestExplainAndWaitPushesLiveStatus(t *testing.T) {
	t.Parallel()
	c, comm := newTestCore()
	presenter := c.AddPresenter(true)
	c.AddPlayer("Ada")
	c.AddPlayer("Bo")

	submitted := 0
	c.ExplainAndWait(ExplainText{Heading: "Draw!"}, func(players []*Player) []PlayerStatus {
		out := make([]PlayerStatus, 0, len(players))
		for _, p := range players {
			out = append(out, PlayerStatus{Player: p, Status: strconv.Itoa(submitted)})
		}
		return out
	})

	steps := comm.presenterPayloads(presenter.ID, PresenterStep)
	require.Len(t, steps, 1)
	assert.Equal(t, StepExplainAndWait, steps[0].Step)
	require.NotNil(t, steps[0].Metadata.ExplainText)
	assert.Equal(t, "Draw!", steps[0].Metadata.ExplainText.Heading)

	// One immediate stats push, another per update.
	updates := comm.presenterPayloads(presenter.ID, PresenterPureMetadata)
	require.Len(t, updates, 1)
	assert.Equal(t, "0", updates[0].Metadata.ExplainStats[0].Status)

	submitted = 1
	c.UpdateExplainAndWait()
	updates = comm.presenterPayloads(presenter.ID, PresenterPureMetadata)
	require.Len(t, updates, 2)
	require.Len(t, updates[1].Metadata.ExplainStats, 2)
	assert.Equal(t, "1", updates[1].Metadata.ExplainStats[0].Status)
}

func TestAnnouncementsAndScores(t *testing.T) {
	t.Parallel()
	c, comm := newTestCore()
	presenter := c.AddPresenter(true)
	ctx := context.Background()

	require.NoError(t, c.AnnounceRound(ctx, 2, "Levelling up"))
	require.NoError(t, c.MakeAnnouncement(ctx, Announcement{Heading: "Hi", Subtext: "there"}, 0))
	require.NoError(t, c.ShowScores(ctx, "Final tally", []ScoreInfo{{Name: "Ada", Value: 400}}))

	steps := comm.presenterPayloads(presenter.ID, PresenterStep)
	require.Len(t, steps, 3)
	assert.Equal(t, StepRound, steps[0].Step)
	assert.Equal(t, 2, steps[0].Metadata.RoundNumber)
	assert.Equal(t, StepAnnouncement, steps[1].Step)
	assert.Equal(t, "Hi", steps[1].Metadata.AnnouncementHeading)
	assert.Equal(t, StepShowScores, steps[2].Step)
	assert.Equal(t, "Final tally", steps[2].Metadata.ShowScoresCategory)
	require.Len(t, steps[2].Metadata.ShowScoresScores, 1)
	assert.Equal(t, 400, steps[2].Metadata.ShowScoresScores[0].Value)
}

func TestNotifyScore(t *testing.T) {
	t.Parallel()
	c, comm := newTestCore()
	presenter := c.AddPresenter(true)

	c.NotifyScore(ScoreNotice{PlayerName: "Ada", Value: 50, Reason: "design"})

	notices := comm.presenterPayloads(presenter.ID, PresenterPureMetadata)
	require.Len(t, notices, 1)
	require.NotNil(t, notices[0].Metadata.ScoreNotice)
	assert.Equal(t, 50, notices[0].Metadata.ScoreNotice.Value)
}
