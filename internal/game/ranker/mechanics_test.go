package ranker

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shirtdown/shirtdown/internal/game"
)

func TestItemCollectionMergesDuplicates(t *testing.T) {
	t.Parallel()
	var c ItemCollection

	first := c.Add("Apples", "ada")
	assert.Len(t, c.Items, 1)

	// Same title, different case: credited, not duplicated.
	second := c.Add("apples", "bo")
	assert.Len(t, c.Items, 1)
	assert.Equal(t, first.ID, second.ID)
	assert.ElementsMatch(t, []string{"ada", "bo"}, c.Items[0].SubmittedBy)

	// Same submitter resubmitting changes nothing.
	c.Add("APPLES", "ada")
	assert.Len(t, c.Items[0].SubmittedBy, 2)

	c.Add("Bananas", "ada")
	require.Len(t, c.Items, 2)

	got, ok := c.ByID(first.ID)
	require.True(t, ok)
	assert.Equal(t, "Apples", got.Title)
	_, ok = c.ByID("item-nope")
	assert.False(t, ok)
}

func TestScoreRankings(t *testing.T) {
	t.Parallel()
	rankings := []ItemRanking{
		{TargetID: "beta", ScorerID: "ada", Position: 1},
		{TargetID: "alpha", ScorerID: "bo", Position: 1},
		{TargetID: "alpha", ScorerID: "cy", Position: 1},
		{TargetID: "beta", ScorerID: "cy", Position: 2},
		{TargetID: "gamma", ScorerID: "ada", Position: 2},
		{TargetID: "gamma", ScorerID: "bo", Position: 2},
	}

	scores := ScoreRankings(rankings)
	require.Len(t, scores, 3)
	assert.Equal(t, "alpha", scores[0].TargetID) // 10 + 10
	assert.Equal(t, 20.0, scores[0].Score)
	assert.Equal(t, "beta", scores[1].TargetID) // 10 + 5
	assert.Equal(t, 15.0, scores[1].Score)
	assert.Equal(t, "gamma", scores[2].TargetID) // 5 + 5
	assert.Equal(t, 10.0, scores[2].Score)
	assert.Len(t, scores[0].Rankings, 2)
}

func TestScoreRankingsTieBreaksByTargetID(t *testing.T) {
	t.Parallel()
	rankings := []ItemRanking{
		{TargetID: "zz", ScorerID: "ada", Position: 1},
		{TargetID: "aa", ScorerID: "bo", Position: 1},
	}

	scores := ScoreRankings(rankings)
	require.Len(t, scores, 2)
	assert.Equal(t, scores[0].Score, scores[1].Score)
	assert.Equal(t, "aa", scores[0].TargetID)
	assert.Equal(t, "zz", scores[1].TargetID)

	// Identical input, identical outcome.
	again := ScoreRankings(rankings)
	assert.Equal(t, scores, again)
}

func TestScoreRankingsEmpty(t *testing.T) {
	t.Parallel()
	assert.Empty(t, ScoreRankings(nil))
}

func TestEvaluateSets(t *testing.T) {
	t.Parallel()
	correct := []string{"a", "b", "c"}

	tests := []struct {
		name      string
		submitted []string
		score     int
		outcomes  []Outcome
	}{
		{
			name:      "perfect order",
			submitted: []string{"a", "b", "c"},
			score:     3 * (75 + 150),
			outcomes:  []Outcome{OutcomeCorrect, OutcomeCorrect, OutcomeCorrect},
		},
		{
			name:      "two swapped",
			submitted: []string{"b", "a", "c"},
			score:     75 + 75 + 225,
			outcomes:  []Outcome{OutcomeMisplaced, OutcomeMisplaced, OutcomeCorrect},
		},
		{
			name:      "full derangement",
			submitted: []string{"c", "a", "b"},
			score:     3 * 75,
			outcomes:  []Outcome{OutcomeMisplaced, OutcomeMisplaced, OutcomeMisplaced},
		},
		{
			name:      "nothing in common",
			submitted: []string{"x", "y", "z"},
			score:     0,
			outcomes:  []Outcome{OutcomeIncorrect, OutcomeIncorrect, OutcomeIncorrect},
		},
		{
			name:      "partial submission",
			submitted: []string{"a"},
			score:     225,
			outcomes:  []Outcome{OutcomeCorrect, OutcomeIncorrect, OutcomeIncorrect},
		},
		{
			name:      "empty submission",
			submitted: nil,
			score:     0,
			outcomes:  []Outcome{OutcomeIncorrect, OutcomeIncorrect, OutcomeIncorrect},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			score, outcomes := EvaluateSets(correct, tt.submitted)
			assert.Equal(t, tt.score, score)
			assert.Equal(t, tt.outcomes, outcomes)
		})
	}
}

func TestRoundScoreTotals(t *testing.T) {
	t.Parallel()
	r := NewRound()
	r.Scores = []Score{
		NewScore("ada", 500, "topic"),
		{ID: "1", ScorerID: "ada", TargetID: "ada", Value: 450, Reason: "order"},
		{ID: "2", ScorerID: "bo", TargetID: "bo", Value: 225, Reason: "order"},
	}

	assert.Equal(t, 950, r.ScoreTotal("ada"))
	assert.Equal(t, 225, r.ScoreTotal("bo"))
	assert.Equal(t, 0, r.ScoreTotal("cy"))

	players := []*game.Player{{ID: "ada", Name: "Ada"}, {ID: "bo", Name: "Bo"}, {ID: "cy", Name: "Cy"}}
	r.ComputeFinalScores(players)
	require.Len(t, r.FinalScores, 3)
	assert.Equal(t, 950, r.FinalScores[0].Score)
	assert.Equal(t, 225, r.FinalScores[1].Score)
	assert.Equal(t, 0, r.FinalScores[2].Score)
}
