package ranker

import (
	"sort"
	"strings"

	"github.com/shirtdown/shirtdown/internal/game"
)

// List is a list topic suggested by a player.
type List struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	SubmittedBy string `json:"submittedBy"`
}

func NewList(submittedBy, title string) List {
	return List{ID: game.ShortID("list"), Title: title, SubmittedBy: submittedBy}
}

// RankableItem is one entry of the chosen list. Multiple players may
// submit the same item; all of them are credited.
type RankableItem struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	SubmittedBy []string `json:"submittedBy"`
}

func NewRankableItem(title string, submittedBy ...string) RankableItem {
	return RankableItem{ID: game.ShortID("item"), Title: title, SubmittedBy: submittedBy}
}

// ItemCollection accumulates items, merging duplicate titles.
type ItemCollection struct {
	Items []RankableItem
}

// Add records an item submission. A title already present (compared
// case-insensitively) credits the submitter on the existing item
// instead of creating a duplicate.
func (c *ItemCollection) Add(title, submittedBy string) RankableItem {
	for i, item := range c.Items {
		if strings.EqualFold(item.Title, title) {
			for _, id := range item.SubmittedBy {
				if id == submittedBy {
					return item
				}
			}
			c.Items[i].SubmittedBy = append(c.Items[i].SubmittedBy, submittedBy)
			return c.Items[i]
		}
	}
	item := NewRankableItem(title, submittedBy)
	c.Items = append(c.Items, item)
	return item
}

func (c *ItemCollection) ByID(id string) (RankableItem, bool) {
	for _, item := range c.Items {
		if item.ID == id {
			return item, true
		}
	}
	return RankableItem{}, false
}

// ItemRanking is one slot of a player's submitted ranking.
// Position 1 is best. Within one player's submission positions form a
// contiguous 1..k sequence with no duplicate target.
type ItemRanking struct {
	ID       string `json:"id"`
	TargetID string `json:"targetId"`
	ScorerID string `json:"scorerId"`
	Position int    `json:"position"`
}

func NewItemRanking(targetID, scorerID string, position int) ItemRanking {
	return ItemRanking{ID: game.ShortID("ranking"), TargetID: targetID, ScorerID: scorerID, Position: position}
}

// TargetScore is the aggregated score of one ranked target.
type TargetScore struct {
	TargetID string        `json:"targetId"`
	Score    float64       `json:"score"`
	Rankings []ItemRanking `json:"rankings"`
}

const rankLambda = 10.0

// ScoreRankings aggregates ranking submissions by target using a
// reciprocal-rank sum: each submission contributes lambda divided by
// its position, so position 1 always outweighs any later position.
// Results are sorted best first; equal scores order by target id
// ascending, so the outcome is deterministic.
func ScoreRankings(rankings []ItemRanking) []TargetScore {
	byTarget := make(map[string][]ItemRanking)
	order := []string{}
	for _, r := range rankings {
		if _, ok := byTarget[r.TargetID]; !ok {
			order = append(order, r.TargetID)
		}
		byTarget[r.TargetID] = append(byTarget[r.TargetID], r)
	}

	scores := make([]TargetScore, 0, len(order))
	for _, id := range order {
		score := 0.0
		for _, r := range byTarget[id] {
			score += rankLambda / float64(r.Position)
		}
		scores = append(scores, TargetScore{TargetID: id, Score: score, Rankings: byTarget[id]})
	}

	sort.Slice(scores, func(i, j int) bool {
		if scores[i].Score != scores[j].Score {
			return scores[i].Score > scores[j].Score
		}
		return scores[i].TargetID < scores[j].TargetID
	})
	return scores
}

// Outcome tags one position of an evaluated ordering.
type Outcome string

const (
	OutcomeCorrect   Outcome = "correct"
	OutcomeMisplaced Outcome = "misplaced"
	OutcomeIncorrect Outcome = "incorrect"
)

const (
	scorePerInclusion = 75
	scorePerPosition  = 150
)

// EvaluateSets scores a submitted ordering against the correct one.
// Per position of the correct order: the same id at the same position
// earns inclusion plus position points; the id present elsewhere earns
// inclusion points only; an absent id earns nothing. The outcome tag
// sequence mirrors the correct order, for presenter rendering.
func EvaluateSets(correct, submitted []string) (int, []Outcome) {
	score := 0
	outcomes := make([]Outcome, len(correct))
	for i, id := range correct {
		at := -1
		for j, s := range submitted {
			if s == id {
				at = j
				break
			}
		}
		switch {
		case at == -1:
			outcomes[i] = OutcomeIncorrect
		case at == i:
			score += scorePerInclusion + scorePerPosition
			outcomes[i] = OutcomeCorrect
		default:
			score += scorePerInclusion
			outcomes[i] = OutcomeMisplaced
		}
	}
	return score, outcomes
}

// Score is a tagged round score entry; the target is the beneficiary.
type Score struct {
	ID       string `json:"id"`
	ScorerID string `json:"scorerId,omitempty"`
	TargetID string `json:"targetId"`
	Value    int    `json:"value"`
	Reason   string `json:"reason"`
}

func NewScore(targetID string, value int, reason string) Score {
	return Score{ID: game.ShortID("score"), TargetID: targetID, Value: value, Reason: reason}
}

// Round holds the phase-scoped state of one Ranker round.
type Round struct {
	Suggestions []List
	Winner      *List
	Items       ItemCollection
	Scores      []Score
	FinalScores []PlayerScore
}

type PlayerScore struct {
	Player *game.Player `json:"player"`
	Score  int          `json:"score"`
}

func NewRound() *Round {
	return &Round{}
}

// ScoreTotal sums every score entry benefitting the player.
func (r *Round) ScoreTotal(playerID string) int {
	total := 0
	for _, s := range r.Scores {
		if s.TargetID == playerID {
			total += s.Value
		}
	}
	return total
}

// ComputeFinalScores fixes each player's round total from the tagged
// score entries.
func (r *Round) ComputeFinalScores(players []*game.Player) {
	scores := make([]PlayerScore, 0, len(players))
	for _, p := range players {
		scores = append(scores, PlayerScore{Player: p, Score: r.ScoreTotal(p.ID)})
	}
	r.FinalScores = scores
}
