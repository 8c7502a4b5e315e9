package tko

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/shirtdown/shirtdown/internal/game"
)

const collectSeconds = 45

var inspirations = []string{"Do it for glory!", "Go for gold!", "Be simply the best!"}

// TKO is the shirt-design-and-vote game: players draw designs, write
// slogans, compose shirts from each other's submissions, rate them and
// settle the top two in a final votedown.
type TKO struct {
	*game.Core

	// Round state below is mutated by command handlers (under the game
	// lock); the script synchronizes its own access through Sync.
	designs    []Design
	slogans    []Slogan
	round      *Round
	prevRounds []*Round

	bonusesEnabled bool
	repeatSlogans  bool

	feed *game.ScoreFeed
}

func New(comm game.Communicator, logger zerolog.Logger) *TKO {
	t := &TKO{
		Core:           game.NewCore(game.GameTypeTKO, comm, logger),
		round:          NewRound(),
		bonusesEnabled: true,
		repeatSlogans:  true,
	}
	t.feed = game.NewScoreFeed(t.NotifyScore)
	return t
}

// Orchestrate runs the whole game script to completion. Phase
// transitions are driven purely by session completion or timeout.
func (t *TKO) Orchestrate(ctx context.Context) error {
	if err := t.roundOne(ctx); err != nil {
		return err
	}
	if err := t.roundTwo(ctx); err != nil {
		return err
	}
	return t.finalTally(ctx)
}

func (t *TKO) roundOne(ctx context.Context) error {
	const roundDesigns = 2

	if err := t.AnnounceRound(ctx, 1, "The Drawening"); err != nil {
		return err
	}
	t.ExplainAndWait(game.ExplainText{
		Heading: "Let's draw some shirts!",
		Explainer: fmt.Sprintf(
			"Draw a total of %d shirts! %s You'll get bonus points if your design gets used on someone else's shirt.",
			roundDesigns, game.Sample(inspirations)),
	}, t.designCountStatus())
	for i := 0; i < roundDesigns; i++ {
		if err := t.collectDesigns(ctx); err != nil {
			return err
		}
	}

	t.ExplainAndWait(game.ExplainText{
		Heading: "Let's get writing!",
		Explainer: fmt.Sprintf(
			"Write as many slogans as you can! %s You'll get bonus points if your slogan gets used on someone else's shirt.",
			game.Sample(inspirations)),
	}, t.sloganCountStatus())
	if err := t.collectSlogans(ctx, 0); err != nil {
		return err
	}

	t.ExplainAndWait(game.ExplainText{
		Heading:   "We've got a shirt to build",
		Explainer: "Build a beautiful shirt! Be funny, witty or straight up weird.",
	}, t.shirtCountStatus())
	if err := t.composeShirts(ctx); err != nil {
		return err
	}

	return t.scoreAndVoteCeremonies(ctx, []int{100, 200, 300, 400, 500})
}

func (t *TKO) roundTwo(ctx context.Context) error {
	t.newRound()
	if err := t.AnnounceRound(ctx, 2, "Levelling up"); err != nil {
		return err
	}
	// No design/slogan author bonuses this round.
	t.Sync(func() { t.bonusesEnabled = false })

	if err := t.MakeAnnouncement(ctx, game.Announcement{
		Heading: "Give us a design!",
		Subtext: "We'll pick a random one, and everyone has to provide a slogan for it.",
	}, 5*time.Second); err != nil {
		return err
	}

	t.ExplainAndWait(game.ExplainText{
		Heading: "Let's draw some shirts!",
		Explainer: fmt.Sprintf(
			"Draw another shirt! %s We'll pick a random one, and everyone has to provide a slogan for it.",
			game.Sample(inspirations)),
	}, t.designCountStatus())
	if err := t.collectDesigns(ctx); err != nil {
		return err
	}

	var lucky Design
	var haveLucky bool
	t.Sync(func() {
		if len(t.designs) > 0 {
			lucky = game.Sample(t.designs)
			haveLucky = true
		}
	})
	if !haveLucky {
		// Timed out with zero submissions; nothing to build on.
		return t.MakeAnnouncement(ctx, game.Announcement{
			Heading: "Nobody drew anything?!",
			Subtext: "Round two is cancelled. Shame on all of you.",
		}, 5*time.Second)
	}

	luckyShirt := NewShirt("SYSTEM", lucky, Slogan{
		ID:        "SYSTEM",
		CreatedBy: "SYSTEM",
		Text:      "Your slogan here",
	})
	luckyArtifact := luckyShirt.Artifact()
	t.ExplainAndWait(game.ExplainText{
		Heading:   "Write a slogan for this shirt",
		Explainer: "Outwit your opponents, you can do it!",
		Artifact:  &luckyArtifact,
	}, t.sloganCountStatus())
	t.Sync(func() { t.repeatSlogans = false })
	if err := t.collectSlogans(ctx, len(t.Players())); err != nil {
		return err
	}

	// Shirts only for those who submitted a slogan.
	t.Sync(func() {
		shirts := make([]Shirt, 0, len(t.slogans))
		for _, slogan := range t.slogans {
			shirts = append(shirts, NewShirt(slogan.CreatedBy, lucky, slogan))
		}
		t.round.Shirts = shirts
	})

	return t.scoreAndVoteCeremonies(ctx, []int{200, 400, 600, 800, 1000})
}

func (t *TKO) finalTally(ctx context.Context) error {
	totals := map[string]int{}
	t.Sync(func() {
		for _, r := range append(append([]*Round{}, t.prevRounds...), t.round) {
			for _, fs := range r.FinalScores {
				totals[fs.Player.ID] += fs.Score
			}
		}
	})
	scores := make([]game.ScoreInfo, 0, len(totals))
	for _, p := range t.Players() {
		scores = append(scores, game.ScoreInfo{Name: p.Name, Value: totals[p.ID]})
	}
	sort.SliceStable(scores, func(i, j int) bool { return scores[i].Value > scores[j].Value })

	if err := t.MakeAnnouncement(ctx, game.Announcement{Heading: "And your grand totals..."}, 3*time.Second); err != nil {
		return err
	}
	return t.ShowScores(ctx, "Final tally", scores)
}

func (t *TKO) newRound() {
	t.Sync(func() {
		t.prevRounds = append(t.prevRounds, t.round)
		t.round = NewRound()
		t.designs = nil
		t.slogans = nil
		t.bonusesEnabled = true
		t.repeatSlogans = true
	})
}

func (t *TKO) collectDesigns(ctx context.Context) error {
	s := t.RequestInput(nil,
		func(*game.Player) game.Instruction {
			return game.Instruction{Type: game.InstructionDesign}
		},
		func(p *game.Player, cmd game.Command, s *game.Session) (game.Instruction, error) {
			switch cmd.Type {
			case game.CommandDesign:
				t.designs = append(t.designs, NewDesign(p.ID, cmd.Metadata.Base64))
				if len(s.Responses) == len(s.Targets) {
					s.End()
				}
				return game.Instruction{Type: game.InstructionWait}, nil
			default:
				return game.Instruction{}, fmt.Errorf("%w: %q while collecting designs", game.ErrUnknownCommand, cmd.Type)
			}
		})
	return t.TurnTimer(ctx, s, collectSeconds)
}

// collectSlogans gathers slogans until the timer runs out, or until
// target submissions arrived (0 = no cap). In repeat mode the same
// player is immediately asked for another slogan.
func (t *TKO) collectSlogans(ctx context.Context, target int) error {
	s := t.RequestInput(nil,
		func(*game.Player) game.Instruction {
			return game.Instruction{Type: game.InstructionSlogan}
		},
		func(p *game.Player, cmd game.Command, s *game.Session) (game.Instruction, error) {
			switch cmd.Type {
			case game.CommandSlogan:
				t.slogans = append(t.slogans, NewSlogan(p.ID, cmd.Metadata.Text))
				if target > 0 && len(s.Responses) >= target {
					s.End()
				}
				if t.repeatSlogans {
					return game.Instruction{Type: game.InstructionSlogan}, nil
				}
				return game.Instruction{Type: game.InstructionWait}, nil
			default:
				return game.Instruction{}, fmt.Errorf("%w: %q while collecting slogans", game.ErrUnknownCommand, cmd.Type)
			}
		})
	return t.TurnTimer(ctx, s, collectSeconds)
}

// composeShirts deals every player a disjoint share of the other
// players' designs and slogans and collects one composed shirt each.
func (t *TKO) composeShirts(ctx context.Context) error {
	players := t.Players()
	if len(players) == 0 {
		return nil
	}

	handouts := map[string]game.Instruction{}
	t.Sync(func() {
		used := map[string]bool{}
		designShare := len(t.designs) / len(players)
		sloganShare := len(t.slogans) / len(players)
		for _, p := range players {
			var designs []game.Asset
			for _, d := range game.Shuffled(t.designs) {
				if len(designs) == designShare {
					break
				}
				if d.CreatedBy == p.ID || used[d.ID] {
					continue
				}
				used[d.ID] = true
				designs = append(designs, game.Asset{ID: d.ID, Base64: d.Base64})
			}
			var slogans []game.Asset
			for _, sl := range game.Shuffled(t.slogans) {
				if len(slogans) == sloganShare {
					break
				}
				if sl.CreatedBy == p.ID || used[sl.ID] {
					continue
				}
				used[sl.ID] = true
				slogans = append(slogans, game.Asset{ID: sl.ID, Text: sl.Text})
			}
			handouts[p.ID] = game.Instruction{
				Type:     game.InstructionShirt,
				Metadata: game.Metadata{Designs: designs, Slogans: slogans},
			}
		}
	})

	s := t.RequestInput(nil,
		func(p *game.Player) game.Instruction { return handouts[p.ID] },
		func(p *game.Player, cmd game.Command, s *game.Session) (game.Instruction, error) {
			switch cmd.Type {
			case game.CommandShirt:
				design, ok := t.designByID(cmd.Metadata.DesignID)
				if !ok {
					return game.Instruction{}, fmt.Errorf("%w: design %q", game.ErrMissingReference, cmd.Metadata.DesignID)
				}
				slogan, ok := t.sloganByID(cmd.Metadata.SloganID)
				if !ok {
					return game.Instruction{}, fmt.Errorf("%w: slogan %q", game.ErrMissingReference, cmd.Metadata.SloganID)
				}
				t.round.Shirts = append(t.round.Shirts, NewShirt(p.ID, design, slogan))
				if len(s.Responses) == len(s.Targets) {
					s.End()
				}
				return game.Instruction{Type: game.InstructionWait}, nil
			default:
				return game.Instruction{}, fmt.Errorf("%w: %q while composing shirts", game.ErrUnknownCommand, cmd.Type)
			}
		})
	return t.TurnTimer(ctx, s, collectSeconds)
}

func (t *TKO) scoreAndVoteCeremonies(ctx context.Context, possibleScores []int) error {
	if err := t.MakeAnnouncement(ctx, game.Announcement{
		Heading: "Time to award some points",
		Subtext: "Assign every shirt a score. The top two shirts will proceed to the final votedown.",
	}, 5*time.Second); err != nil {
		return err
	}

	// Shuffle so the scoring order doesn't give authors away.
	var shirts []Shirt
	t.Sync(func() {
		t.round.Shirts = game.Shuffled(t.round.Shirts)
		shirts = append([]Shirt(nil), t.round.Shirts...)
	})

	for _, shirt := range shirts {
		t.SendToAllPlayers(game.Instruction{Type: game.InstructionWait})
		artifact := shirt.Artifact()
		t.ExplainAndWait(game.ExplainText{
			Heading:   "Whatcha think?",
			Explainer: "How do you rate this shirt?",
			Artifact:  &artifact,
		}, hiddenStatus) // tallies here would leak whose shirt it is
		if err := t.collectScoresFor(ctx, shirt, possibleScores); err != nil {
			return err
		}
	}

	type shirtTotal struct {
		shirt Shirt
		score int
	}
	var totals []shirtTotal
	t.Sync(func() {
		for _, s := range t.round.Shirts {
			totals = append(totals, shirtTotal{shirt: s, score: t.round.ShirtTotal(s.ID)})
		}
	})
	sort.SliceStable(totals, func(i, j int) bool { return totals[i].score > totals[j].score })

	// Straggler score popups stay buffered until after the votedown.
	t.feed.Pause()

	if err := t.MakeAnnouncement(ctx, game.Announcement{
		Heading: "The scores are in!",
		Subtext: "But first, a few honorable mentions",
	}, 5*time.Second); err != nil {
		return err
	}
	for j := len(totals) - 1; j >= 2; j-- {
		artifact := totals[j].shirt.Artifact()
		if err := t.MakeAnnouncement(ctx, game.Announcement{
			Heading:  fmt.Sprintf("%d: %s (+ %d)", j+1, t.playerName(totals[j].shirt.CreatedBy), totals[j].score),
			Artifact: &artifact,
		}, 8*time.Second); err != nil {
			return err
		}
	}

	if len(totals) > 2 {
		totals = totals[:2]
	}
	topTwo := game.Shuffled(totals)
	t.SendToAllPlayers(game.Instruction{Type: game.InstructionWait})
	if err := t.MakeAnnouncement(ctx, game.Announcement{
		Heading: "It's the final votedown!",
		Subtext: "Your top two are ready. May the best shirt win.",
	}, 5*time.Second); err != nil {
		return err
	}

	contenders := make([]Shirt, len(topTwo))
	artifacts := make([]game.Artifact, len(topTwo))
	for i, tt := range topTwo {
		contenders[i] = tt.shirt
		artifacts[i] = tt.shirt.Artifact()
	}
	t.SendStepToAllPresenters(game.StepVSVote, game.PresenterMetadata{VSVoteContenders: artifacts})
	if err := t.collectVotesBetween(ctx, contenders); err != nil {
		return err
	}
	if err := t.revealVotes(ctx); err != nil {
		return err
	}
	t.feed.Resume()
	if err := t.WaitFor(ctx, 5*time.Second); err != nil {
		return err
	}

	if err := t.MakeAnnouncement(ctx, game.Announcement{Heading: "Time for some scores!"}, 3*time.Second); err != nil {
		return err
	}

	players := t.Players()
	boards := []struct {
		category string
		total    func(r *Round, playerID string) int
		enabled  bool
	}{
		{"Shirt scores", func(r *Round, id string) int { return r.PlayerShirtTotal(id) }, true},
		{"Slogan bonuses", func(r *Round, id string) int { return r.AdhocTotal(id, ReasonSlogan) }, t.bonusesOn()},
		{"Design bonuses", func(r *Round, id string) int { return r.AdhocTotal(id, ReasonDesign) }, t.bonusesOn()},
	}
	for _, board := range boards {
		if !board.enabled {
			continue
		}
		scores := make([]game.ScoreInfo, 0, len(players))
		t.Sync(func() {
			for _, p := range players {
				scores = append(scores, game.ScoreInfo{Name: p.Name, Value: board.total(t.round, p.ID)})
			}
		})
		if err := t.ShowScores(ctx, board.category, scores); err != nil {
			return err
		}
	}

	var finals []game.ScoreInfo
	t.Sync(func() {
		t.round.ComputeFinalScores(players)
		for _, fs := range t.round.FinalScores {
			finals = append(finals, game.ScoreInfo{Name: fs.Player.Name, Value: fs.Score})
		}
	})
	if err := t.MakeAnnouncement(ctx, game.Announcement{Heading: "Drum roll, please..."}, 3*time.Second); err != nil {
		return err
	}
	return t.ShowScores(ctx, "End of round", finals)
}

// collectScoresFor lets everyone but the author rate one shirt.
func (t *TKO) collectScoresFor(ctx context.Context, shirt Shirt, possibleScores []int) error {
	s := t.RequestInput(
		func() []*game.Player {
			var scorers []*game.Player
			for _, p := range t.Players() {
				if p.ID != shirt.CreatedBy {
					scorers = append(scorers, p)
				}
			}
			return scorers
		},
		func(*game.Player) game.Instruction {
			return game.Instruction{
				Type: game.InstructionScore,
				Metadata: game.Metadata{
					Description:    shirt.Slogan.Text,
					ShirtID:        shirt.ID,
					PossibleScores: possibleScores,
				},
			}
		},
		func(p *game.Player, cmd game.Command, s *game.Session) (game.Instruction, error) {
			switch cmd.Type {
			case game.CommandScore:
				scored, ok := t.round.ShirtByID(cmd.Metadata.ShirtID)
				if !ok {
					return game.Instruction{}, fmt.Errorf("%w: shirt %q", game.ErrMissingReference, cmd.Metadata.ShirtID)
				}
				t.round.ShirtScores = append(t.round.ShirtScores, ShirtScore{
					ID:       game.ShortID("score"),
					ScorerID: p.ID,
					Shirt:    scored,
					Value:    cmd.Metadata.Value,
				})
				t.feed.Publish(game.ScoreNotice{
					PlayerName: t.playerName(scored.CreatedBy),
					Value:      cmd.Metadata.Value,
					Reason:     "shirt",
				})
				if t.bonusesEnabled {
					t.addBonus(p.ID, scored.Design.CreatedBy, cmd.Metadata.Value/2, ReasonDesign)
					t.addBonus(p.ID, scored.Slogan.CreatedBy, cmd.Metadata.Value/2, ReasonSlogan)
				}
				if len(s.Responses) == len(s.Targets) {
					s.End()
				}
				return game.Instruction{Type: game.InstructionWait}, nil
			default:
				return game.Instruction{}, fmt.Errorf("%w: %q while collecting scores", game.ErrUnknownCommand, cmd.Type)
			}
		})
	return t.TurnTimer(ctx, s, collectSeconds)
}

// addBonus credits half-value author bonuses for a scored shirt's
// parts. Called from handlers, game lock held.
func (t *TKO) addBonus(scorerID, targetID string, value int, reason Reason) {
	t.round.AdhocScores = append(t.round.AdhocScores, AdhocScore{
		ID:       game.ShortID("adhoc"),
		ScorerID: scorerID,
		TargetID: targetID,
		Value:    value,
		Reason:   reason,
	})
	t.feed.Publish(game.ScoreNotice{
		PlayerName: t.playerName(targetID),
		Value:      value,
		Reason:     string(reason),
	})
}

// collectVotesBetween runs the final votedown. Authors of the
// contending shirts don't get to vote.
func (t *TKO) collectVotesBetween(ctx context.Context, shirts []Shirt) error {
	t.Sync(func() { t.round.OpenVotingRound() })

	authors := map[string]bool{}
	options := make([]game.Option, len(shirts))
	for i, s := range shirts {
		authors[s.CreatedBy] = true
		options[i] = game.Option{ID: s.ID, Text: s.Slogan.Text}
	}

	s := t.RequestInput(
		func() []*game.Player {
			var voters []*game.Player
			for _, p := range t.Players() {
				if !authors[p.ID] {
					voters = append(voters, p)
				}
			}
			return voters
		},
		func(*game.Player) game.Instruction {
			return game.Instruction{Type: game.InstructionVote, Metadata: game.Metadata{Between: options}}
		},
		func(p *game.Player, cmd game.Command, s *game.Session) (game.Instruction, error) {
			switch cmd.Type {
			case game.CommandVote:
				var voted *Shirt
				for i := range shirts {
					if shirts[i].ID == cmd.Metadata.TargetID {
						voted = &shirts[i]
						break
					}
				}
				if voted == nil {
					return game.Instruction{}, fmt.Errorf("%w: shirt %q", game.ErrMissingReference, cmd.Metadata.TargetID)
				}
				t.round.AddVote(Vote{ScorerID: p.ID, ForShirt: *voted})
				if len(s.Responses) == len(s.Targets) {
					s.End()
				}
				return game.Instruction{Type: game.InstructionWait}, nil
			default:
				return game.Instruction{}, fmt.Errorf("%w: %q during votedown", game.ErrUnknownCommand, cmd.Type)
			}
		})
	return t.TurnTimer(ctx, s, collectSeconds)
}

// revealVotes converts ballots to vote scores and streams them to the
// presenter one by one.
func (t *TKO) revealVotes(ctx context.Context) error {
	var votes []Vote
	t.Sync(func() { votes = append([]Vote(nil), t.round.CurrentVotes()...) })
	if len(votes) == 0 {
		return nil
	}

	voteValue := 1000 / len(votes)
	t.Sync(func() {
		for _, v := range votes {
			t.round.AdhocScores = append(t.round.AdhocScores, AdhocScore{
				ID:       game.ShortID("adhoc"),
				ScorerID: v.ScorerID,
				TargetID: v.ForShirt.CreatedBy,
				Value:    voteValue,
				Reason:   ReasonVote,
			})
		}
	})

	var running []game.VoteResult
	for _, v := range votes {
		running = append(running, game.VoteResult{
			VoterName:     t.playerName(v.ScorerID),
			ScoreValue:    voteValue,
			ForArtifactID: v.ForShirt.ID,
		})
		t.SendToAllPresenters(game.PresenterPayload{
			Type:     game.PresenterPureMetadata,
			Metadata: game.PresenterMetadata{VSVoteVotes: append([]game.VoteResult(nil), running...)},
		})
		if err := t.WaitFor(ctx, 500*time.Millisecond); err != nil {
			return err
		}
	}
	return nil
}

func (t *TKO) designByID(id string) (Design, bool) {
	for _, d := range t.designs {
		if d.ID == id {
			return d, true
		}
	}
	return Design{}, false
}

func (t *TKO) sloganByID(id string) (Slogan, bool) {
	for _, s := range t.slogans {
		if s.ID == id {
			return s, true
		}
	}
	return Slogan{}, false
}

func (t *TKO) playerName(id string) string {
	if p := t.PlayerByID(id); p != nil {
		return p.Name
	}
	return id
}

func (t *TKO) bonusesOn() bool {
	var on bool
	t.Sync(func() { on = t.bonusesEnabled })
	return on
}

func (t *TKO) designCountStatus() game.StatusFunc {
	return func(players []*game.Player) []game.PlayerStatus {
		out := make([]game.PlayerStatus, 0, len(players))
		for _, p := range players {
			count := 0
			for _, d := range t.designs {
				if d.CreatedBy == p.ID {
					count++
				}
			}
			out = append(out, game.PlayerStatus{Player: p, Status: strconv.Itoa(count)})
		}
		return out
	}
}

func (t *TKO) sloganCountStatus() game.StatusFunc {
	return func(players []*game.Player) []game.PlayerStatus {
		out := make([]game.PlayerStatus, 0, len(players))
		for _, p := range players {
			count := 0
			for _, s := range t.slogans {
				if s.CreatedBy == p.ID {
					count++
				}
			}
			out = append(out, game.PlayerStatus{Player: p, Status: strconv.Itoa(count)})
		}
		return out
	}
}

func (t *TKO) shirtCountStatus() game.StatusFunc {
	return func(players []*game.Player) []game.PlayerStatus {
		out := make([]game.PlayerStatus, 0, len(players))
		for _, p := range players {
			count := 0
			for _, s := range t.round.Shirts {
				if s.CreatedBy == p.ID {
					count++
				}
			}
			out = append(out, game.PlayerStatus{Player: p, Status: strconv.Itoa(count)})
		}
		return out
	}
}

func hiddenStatus(players []*game.Player) []game.PlayerStatus {
	out := make([]game.PlayerStatus, 0, len(players))
	for _, p := range players {
		out = append(out, game.PlayerStatus{Player: p, Status: "?"})
	}
	return out
}
