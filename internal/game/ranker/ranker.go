package ranker

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/shirtdown/shirtdown/internal/game"
)

const topicWinnerBonus = 500

// Ranker is the list-and-rank game: players suggest list topics, rank
// each other's suggestions to pick a winner, fill the winning list with
// items and finally order them. The crowd's aggregated order is the
// truth each player's own order is scored against.
type Ranker struct {
	*game.Core

	round      *Round
	prevRounds []*Round
}

func New(comm game.Communicator, logger zerolog.Logger) *Ranker {
	return &Ranker{
		Core:  game.NewCore(game.GameTypeRanker, comm, logger),
		round: NewRound(),
	}
}

// Orchestrate runs the whole game script to completion.
func (r *Ranker) Orchestrate(ctx context.Context) error {
	return r.playRound(ctx, 1, game.Sample([]string{"The strike", "List lords", "Order, order!"}))
}

func (r *Ranker) playRound(ctx context.Context, number int, name string) error {
	if err := r.AnnounceRound(ctx, number, name); err != nil {
		return err
	}

	winner, err := r.pickTopic(ctx)
	if err != nil {
		return err
	}
	if winner == nil {
		// Timed out with zero suggestions; there is nothing to rank.
		return r.MakeAnnouncement(ctx, game.Announcement{
			Heading: "No list ideas at all?",
			Subtext: "Can't rank what doesn't exist. Round over.",
		}, 5*time.Second)
	}

	if err := r.collectItems(ctx, *winner); err != nil {
		return err
	}
	if err := r.orderShowdown(ctx, *winner); err != nil {
		return err
	}
	return r.showRoundScores(ctx)
}

// pickTopic collects one list suggestion per player, has everyone rank
// their favorites and returns the aggregate winner.
func (r *Ranker) pickTopic(ctx context.Context) (*List, error) {
	r.ExplainAndWait(game.ExplainText{
		Heading:   "Let's make a list of lists!",
		Explainer: "Name something you'd like to see a list of",
	}, r.suggestionCountStatus())

	s := r.RequestInput(nil,
		func(*game.Player) game.Instruction {
			return game.Instruction{Type: game.InstructionWrite}
		},
		func(p *game.Player, cmd game.Command, s *game.Session) (game.Instruction, error) {
			switch cmd.Type {
			case game.CommandWrite:
				r.round.Suggestions = append(r.round.Suggestions, NewList(p.ID, cmd.Metadata.Text))
				if len(s.Responses) == len(s.Targets) {
					s.End()
				}
				return game.Instruction{Type: game.InstructionWait}, nil
			default:
				return game.Instruction{}, fmt.Errorf("%w: %q while collecting list ideas", game.ErrUnknownCommand, cmd.Type)
			}
		})
	if err := r.TurnTimer(ctx, s, r.TurnSeconds()); err != nil {
		return nil, err
	}

	var suggestions []List
	r.Sync(func() { suggestions = append([]List(nil), r.round.Suggestions...) })
	if len(suggestions) == 0 {
		return nil, nil
	}

	numberToRank := min(3, len(r.Players())-1)
	r.ExplainAndWait(game.ExplainText{
		Heading:   "Let's pick our favorite list",
		Explainer: fmt.Sprintf("Rank your %d favorite list ideas", numberToRank),
	}, r.rankedCountStatus())

	var topicRanks []ItemRanking
	rankSession := r.RequestInput(nil,
		func(p *game.Player) game.Instruction {
			var options []game.Option
			for _, sug := range game.Shuffled(suggestions) {
				if sug.SubmittedBy != p.ID {
					options = append(options, game.Option{ID: sug.ID, Text: sug.Title})
				}
			}
			return game.Instruction{
				Type: game.InstructionRank,
				Metadata: game.Metadata{
					NumberToRank: min(numberToRank, len(options)),
					Options:      options,
				},
			}
		},
		func(p *game.Player, cmd game.Command, s *game.Session) (game.Instruction, error) {
			switch cmd.Type {
			case game.CommandRank:
				for i, id := range cmd.Metadata.Ranked {
					topicRanks = append(topicRanks, NewItemRanking(id, p.ID, i+1))
				}
				if len(s.Responses) == len(s.Targets) {
					s.End()
				}
				return game.Instruction{Type: game.InstructionWait}, nil
			default:
				return game.Instruction{}, fmt.Errorf("%w: %q while ranking list ideas", game.ErrUnknownCommand, cmd.Type)
			}
		})
	if err := r.TurnTimer(ctx, rankSession, r.TurnSeconds()); err != nil {
		return nil, err
	}

	var winner *List
	r.Sync(func() {
		scores := ScoreRankings(topicRanks)
		if len(scores) == 0 {
			// Nobody ranked; fall back to the first suggestion.
			winner = &suggestions[0]
		} else {
			for i := range suggestions {
				if suggestions[i].ID == scores[0].TargetID {
					winner = &suggestions[i]
					break
				}
			}
		}
		if winner != nil {
			r.round.Winner = winner
			r.round.Scores = append(r.round.Scores, NewScore(winner.SubmittedBy, topicWinnerBonus, "topic"))
		}
	})
	if winner == nil {
		return nil, fmt.Errorf("%w: winning list", game.ErrMissingReference)
	}

	if err := r.MakeAnnouncement(ctx, game.Announcement{Heading: "And the winner is..."}, 3*time.Second); err != nil {
		return nil, err
	}
	if err := r.MakeAnnouncement(ctx, game.Announcement{
		Heading: winner.Title,
		Subtext: fmt.Sprintf("Suggested by %s", r.playerName(winner.SubmittedBy)),
	}, 3*time.Second); err != nil {
		return nil, err
	}
	return winner, nil
}

// collectItems fills the winning list. Submitting is repeatable and
// duplicate titles merge, crediting every submitter.
func (r *Ranker) collectItems(ctx context.Context, winner List) error {
	r.ExplainAndWait(game.ExplainText{
		Heading:   winner.Title,
		Explainer: "Fill the list! What absolutely has to be on it?",
	}, r.itemCountStatus())

	s := r.RequestInput(nil,
		func(*game.Player) game.Instruction {
			return game.Instruction{Type: game.InstructionWrite, Metadata: game.Metadata{Description: winner.Title}}
		},
		func(p *game.Player, cmd game.Command, s *game.Session) (game.Instruction, error) {
			switch cmd.Type {
			case game.CommandWrite:
				r.round.Items.Add(cmd.Metadata.Text, p.ID)
				// Keep them coming until the timer cuts in.
				return game.Instruction{Type: game.InstructionWrite, Metadata: game.Metadata{Description: winner.Title}}, nil
			default:
				return game.Instruction{}, fmt.Errorf("%w: %q while collecting items", game.ErrUnknownCommand, cmd.Type)
			}
		})
	return r.TurnTimer(ctx, s, r.TurnSeconds())
}

// orderShowdown has every player order the collected items. The
// aggregated reciprocal-rank order over all submissions is taken as
// the correct order; each player's own order is then scored against
// it position by position.
func (r *Ranker) orderShowdown(ctx context.Context, winner List) error {
	var items []RankableItem
	r.Sync(func() { items = append([]RankableItem(nil), r.round.Items.Items...) })
	if len(items) < 2 {
		return r.MakeAnnouncement(ctx, game.Announcement{
			Heading: "That list is too short to argue about",
		}, 5*time.Second)
	}

	r.ExplainAndWait(game.ExplainText{
		Heading:   "Put them in order",
		Explainer: fmt.Sprintf("Best to worst: settle %q once and for all", winner.Title),
	}, r.orderedCountStatus())

	options := make([]game.Option, len(items))
	for i, item := range items {
		options[i] = game.Option{ID: item.ID, Text: item.Title}
	}

	orders := map[string][]string{}
	var allRanks []ItemRanking
	s := r.RequestInput(nil,
		func(*game.Player) game.Instruction {
			return game.Instruction{
				Type:     game.InstructionOrder,
				Metadata: game.Metadata{Options: game.Shuffled(options)},
			}
		},
		func(p *game.Player, cmd game.Command, s *game.Session) (game.Instruction, error) {
			switch cmd.Type {
			case game.CommandOrder:
				orders[p.ID] = cmd.Metadata.Ordered
				for i, id := range cmd.Metadata.Ordered {
					allRanks = append(allRanks, NewItemRanking(id, p.ID, i+1))
				}
				if len(s.Responses) == len(s.Targets) {
					s.End()
				}
				return game.Instruction{Type: game.InstructionWait}, nil
			default:
				return game.Instruction{}, fmt.Errorf("%w: %q during the order showdown", game.ErrUnknownCommand, cmd.Type)
			}
		})
	if err := r.TurnTimer(ctx, s, r.TurnSeconds()); err != nil {
		return err
	}

	var results []game.RankingOutcome
	r.Sync(func() {
		aggregated := ScoreRankings(allRanks)
		correct := make([]string, len(aggregated))
		for i, ts := range aggregated {
			correct[i] = ts.TargetID
		}
		for _, p := range r.Players() {
			submitted, ok := orders[p.ID]
			if !ok {
				// Never submitted: absent, not an error.
				continue
			}
			score, outcomes := EvaluateSets(correct, submitted)
			r.round.Scores = append(r.round.Scores, Score{
				ID:       game.ShortID("score"),
				ScorerID: p.ID,
				TargetID: p.ID,
				Value:    score,
				Reason:   "order",
			})
			tags := make([]string, len(outcomes))
			for i, o := range outcomes {
				tags[i] = string(o)
			}
			results = append(results, game.RankingOutcome{PlayerName: p.Name, Score: score, Outcomes: tags})
		}
	})
	sort.SliceStable(results, func(i, j int) bool { return results[i].Score > results[j].Score })

	r.SendStepToAllPresenters(game.StepRankingResults, game.PresenterMetadata{RankingResults: results})
	return r.WaitFor(ctx, 10*time.Second)
}

func (r *Ranker) showRoundScores(ctx context.Context) error {
	players := r.Players()
	var finals []game.ScoreInfo
	r.Sync(func() {
		r.round.ComputeFinalScores(players)
		for _, fs := range r.round.FinalScores {
			finals = append(finals, game.ScoreInfo{Name: fs.Player.Name, Value: fs.Score})
		}
	})
	sort.SliceStable(finals, func(i, j int) bool { return finals[i].Value > finals[j].Value })

	if err := r.MakeAnnouncement(ctx, game.Announcement{Heading: "Drum roll, please..."}, 3*time.Second); err != nil {
		return err
	}
	return r.ShowScores(ctx, "End of round", finals)
}

func (r *Ranker) playerName(id string) string {
	if p := r.PlayerByID(id); p != nil {
		return p.Name
	}
	return id
}

func (r *Ranker) suggestionCountStatus() game.StatusFunc {
	return func(players []*game.Player) []game.PlayerStatus {
		out := make([]game.PlayerStatus, 0, len(players))
		for _, p := range players {
			count := 0
			for _, s := range r.round.Suggestions {
				if s.SubmittedBy == p.ID {
					count++
				}
			}
			out = append(out, game.PlayerStatus{Player: p, Status: strconv.Itoa(count)})
		}
		return out
	}
}

func (r *Ranker) rankedCountStatus() game.StatusFunc {
	return func(players []*game.Player) []game.PlayerStatus {
		out := make([]game.PlayerStatus, 0, len(players))
		for _, p := range players {
			out = append(out, game.PlayerStatus{Player: p, Status: "?"})
		}
		return out
	}
}

func (r *Ranker) itemCountStatus() game.StatusFunc {
	return func(players []*game.Player) []game.PlayerStatus {
		out := make([]game.PlayerStatus, 0, len(players))
		for _, p := range players {
			count := 0
			for _, item := range r.round.Items.Items {
				for _, id := range item.SubmittedBy {
					if id == p.ID {
						count++
						break
					}
				}
			}
			out = append(out, game.PlayerStatus{Player: p, Status: strconv.Itoa(count)})
		}
		return out
	}
}

func (r *Ranker) orderedCountStatus() game.StatusFunc {
	return r.rankedCountStatus()
}
