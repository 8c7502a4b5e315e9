package tko

import (
	"github.com/shirtdown/shirtdown/internal/game"
)

// Reason tags ad-hoc score entries by how they were earned.
type Reason string

const (
	ReasonDesign Reason = "design"
	ReasonSlogan Reason = "slogan"
	ReasonVote   Reason = "vote"
)

// Design is a drawing submitted by a player.
type Design struct {
	ID        string `json:"id"`
	CreatedBy string `json:"createdBy"`
	Base64    string `json:"base64"`
}

func NewDesign(createdBy, base64 string) Design {
	return Design{ID: game.ShortID("design"), CreatedBy: createdBy, Base64: base64}
}

// Slogan is a line of text submitted by a player.
type Slogan struct {
	ID        string `json:"id"`
	CreatedBy string `json:"createdBy"`
	Text      string `json:"text"`
}

func NewSlogan(createdBy, text string) Slogan {
	return Slogan{ID: game.ShortID("slogan"), CreatedBy: createdBy, Text: text}
}

// Shirt is a design and a slogan composed by a player, usually from
// other players' submissions.
type Shirt struct {
	ID        string `json:"id"`
	CreatedBy string `json:"createdBy"`
	Design    Design `json:"design"`
	Slogan    Slogan `json:"slogan"`
}

func NewShirt(createdBy string, design Design, slogan Slogan) Shirt {
	return Shirt{ID: game.ShortID("shirt"), CreatedBy: createdBy, Design: design, Slogan: slogan}
}

// Artifact converts the shirt to its presenter rendering.
func (s Shirt) Artifact() game.Artifact {
	return game.Artifact{
		ID:          s.ID,
		CreatedBy:   s.CreatedBy,
		ImageBase64: s.Design.Base64,
		Caption:     s.Slogan.Text,
	}
}

// ShirtScore is one player's rating of one shirt. The beneficiary is
// the shirt's creator.
type ShirtScore struct {
	ID       string `json:"id"`
	ScorerID string `json:"scorerId"`
	Shirt    Shirt  `json:"shirt"`
	Value    int    `json:"value"`
}

// AdhocScore is a bonus credited outside shirt ratings: design and
// slogan author bonuses, and votedown vote value.
type AdhocScore struct {
	ID       string `json:"id"`
	ScorerID string `json:"scorerId,omitempty"`
	TargetID string `json:"targetId"`
	Value    int    `json:"value"`
	Reason   Reason `json:"reason"`
}

// Vote is one ballot in a final votedown.
type Vote struct {
	ScorerID string `json:"scorerId"`
	ForShirt Shirt  `json:"forShirt"`
}

type PlayerScore struct {
	Player *game.Player `json:"player"`
	Score  int          `json:"score"`
}

// Round holds all phase-scoped state of one TKO round. A new round
// supersedes the previous one; old rounds are kept for cross-round
// totals.
type Round struct {
	Shirts       []Shirt
	ShirtScores  []ShirtScore
	AdhocScores  []AdhocScore
	VotingRounds [][]Vote
	FinalScores  []PlayerScore
}

func NewRound() *Round {
	return &Round{}
}

func (r *Round) ShirtByID(id string) (Shirt, bool) {
	for _, s := range r.Shirts {
		if s.ID == id {
			return s, true
		}
	}
	return Shirt{}, false
}

// ShirtTotal sums all ratings one shirt received.
func (r *Round) ShirtTotal(shirtID string) int {
	total := 0
	for _, s := range r.ShirtScores {
		if s.Shirt.ID == shirtID {
			total += s.Value
		}
	}
	return total
}

// PlayerShirtTotal sums the ratings of every shirt the player created.
func (r *Round) PlayerShirtTotal(playerID string) int {
	total := 0
	for _, s := range r.ShirtScores {
		if s.Shirt.CreatedBy == playerID {
			total += s.Value
		}
	}
	return total
}

// AdhocTotal sums the player's ad-hoc bonuses, optionally filtered by
// reason.
func (r *Round) AdhocTotal(playerID string, reasons ...Reason) int {
	total := 0
	for _, s := range r.AdhocScores {
		if s.TargetID != playerID {
			continue
		}
		if len(reasons) == 0 {
			total += s.Value
			continue
		}
		for _, reason := range reasons {
			if s.Reason == reason {
				total += s.Value
				break
			}
		}
	}
	return total
}

// OpenVotingRound appends a fresh empty voting round.
func (r *Round) OpenVotingRound() {
	r.VotingRounds = append(r.VotingRounds, []Vote{})
}

// AddVote records a ballot in the current voting round.
func (r *Round) AddVote(v Vote) {
	last := len(r.VotingRounds) - 1
	r.VotingRounds[last] = append(r.VotingRounds[last], v)
}

// CurrentVotes returns the ballots of the current voting round.
func (r *Round) CurrentVotes() []Vote {
	if len(r.VotingRounds) == 0 {
		return nil
	}
	return r.VotingRounds[len(r.VotingRounds)-1]
}

// ComputeFinalScores fixes each player's round total: the sum of every
// score record that benefits them, shirt ratings and ad-hoc bonuses
// alike.
func (r *Round) ComputeFinalScores(players []*game.Player) {
	scores := make([]PlayerScore, 0, len(players))
	for _, p := range players {
		scores = append(scores, PlayerScore{
			Player: p,
			Score:  r.PlayerShirtTotal(p.ID) + r.AdhocTotal(p.ID),
		})
	}
	r.FinalScores = scores
}
