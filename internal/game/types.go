package game

type GameType string

const (
	GameTypeTKO    GameType = "tko"
	GameTypeRanker GameType = "ranker"
)

// CommandType tags inbound participant commands. Scripts switch
// exhaustively over these; an unhandled type is a protocol desync and
// surfaces as ErrUnknownCommand.
type CommandType string

const (
	CommandDesign CommandType = "design"
	CommandSlogan CommandType = "slogan"
	CommandShirt  CommandType = "shirt"
	CommandScore  CommandType = "score"
	CommandVote   CommandType = "vote"
	CommandWrite  CommandType = "write"
	CommandRank   CommandType = "rank"
	CommandOrder  CommandType = "order"
)

// Command is an inbound envelope from a player.
type Command struct {
	SourcePlayerID string      `json:"sourcePlayerId"`
	Type           CommandType `json:"type"`
	Metadata       Metadata    `json:"metadata"`
}

type InstructionType string

const (
	InstructionDesign InstructionType = "design"
	InstructionSlogan InstructionType = "slogan"
	InstructionShirt  InstructionType = "shirt"
	InstructionScore  InstructionType = "score"
	InstructionVote   InstructionType = "vote"
	InstructionWrite  InstructionType = "write"
	InstructionRank   InstructionType = "rank"
	InstructionOrder  InstructionType = "order"
	InstructionWait   InstructionType = "wait"
	InstructionNoOp   InstructionType = "no-op"
)

// Instruction is an outbound payload telling a player what to do next.
type Instruction struct {
	Type     InstructionType `json:"type"`
	Metadata Metadata        `json:"metadata"`
}

// Metadata is the flat bag of optional fields carried by commands and
// instructions. Which fields are set depends on the command type.
type Metadata struct {
	Text           string   `json:"text,omitempty"`
	Base64         string   `json:"base64,omitempty"`
	DesignID       string   `json:"designId,omitempty"`
	SloganID       string   `json:"sloganId,omitempty"`
	ShirtID        string   `json:"shirtId,omitempty"`
	TargetID       string   `json:"targetId,omitempty"`
	Value          int      `json:"value,omitempty"`
	Ranked         []string `json:"ranked,omitempty"`
	Ordered        []string `json:"ordered,omitempty"`
	Description    string   `json:"description,omitempty"`
	PossibleScores []int    `json:"possibleScores,omitempty"`
	NumberToRank   int      `json:"numberToRank,omitempty"`
	Options        []Option `json:"options,omitempty"`
	Between        []Option `json:"between,omitempty"`
	Designs        []Asset  `json:"designs,omitempty"`
	Slogans        []Asset  `json:"slogans,omitempty"`
}

// Option is a selectable entry in vote/rank/order instructions.
type Option struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// Asset is a raw submission handed back to players for composing, a
// drawing (Base64) or a line of text.
type Asset struct {
	ID     string `json:"id"`
	Text   string `json:"text,omitempty"`
	Base64 string `json:"base64,omitempty"`
}

// Artifact is a composed piece as the presenter renders it.
type Artifact struct {
	ID          string `json:"id"`
	CreatedBy   string `json:"createdBy"`
	ImageBase64 string `json:"imageBase64,omitempty"`
	Caption     string `json:"caption,omitempty"`
}

type PresenterPayloadType string

const (
	PresenterStep         PresenterPayloadType = "step"
	PresenterPureMetadata PresenterPayloadType = "pure-metadata"
	PresenterTimer        PresenterPayloadType = "timer"
	PresenterAllPlayers   PresenterPayloadType = "all-players"
)

type StepType string

const (
	StepRound          StepType = "round"
	StepAnnouncement   StepType = "announcement"
	StepExplainAndWait StepType = "explain-and-wait"
	StepVSVote         StepType = "vs-vote"
	StepShowScores     StepType = "show-scores"
	StepRankingResults StepType = "ranking-results"
)

// PresenterPayload is an outbound payload for presenter displays. Step
// payloads replace the current scene; pure-metadata payloads patch it.
type PresenterPayload struct {
	Type     PresenterPayloadType `json:"type"`
	Step     StepType             `json:"step,omitempty"`
	Metadata PresenterMetadata    `json:"metadata"`
}

type PresenterMetadata struct {
	Time                 int              `json:"time,omitempty"`
	Players              []*Player        `json:"players,omitempty"`
	RoundNumber          int              `json:"roundNumber,omitempty"`
	RoundName            string           `json:"roundName,omitempty"`
	AnnouncementHeading  string           `json:"announcementHeading,omitempty"`
	AnnouncementSubtext  string           `json:"announcementSubtext,omitempty"`
	AnnouncementArtifact *Artifact        `json:"announcementArtifact,omitempty"`
	ExplainText          *ExplainText     `json:"explainText,omitempty"`
	ExplainStats         []PlayerStatus   `json:"explainStats,omitempty"`
	VSVoteContenders     []Artifact       `json:"vsVoteContenders,omitempty"`
	VSVoteVotes          []VoteResult     `json:"vsVoteVotes,omitempty"`
	ShowScoresCategory   string           `json:"showScoresCategory,omitempty"`
	ShowScoresScores     []ScoreInfo      `json:"showScoresScores,omitempty"`
	RankingResults       []RankingOutcome `json:"rankingResults,omitempty"`
	ScoreNotice          *ScoreNotice     `json:"scoreNotice,omitempty"`
}

// ExplainText is the headline block of an explain-and-wait scene.
type ExplainText struct {
	Heading   string    `json:"heading"`
	Explainer string    `json:"explainer"`
	Artifact  *Artifact `json:"artifact,omitempty"`
}

// PlayerStatus is one row of the "who's done yet" list shown while the
// presenter waits out a phase.
type PlayerStatus struct {
	Player *Player `json:"player"`
	Status string  `json:"status"`
}

type ScoreInfo struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
}

// VoteResult is a single revealed vote during the final votedown.
type VoteResult struct {
	VoterName     string `json:"voterName"`
	ScoreValue    int    `json:"scoreValue"`
	ForArtifactID string `json:"forArtifactId"`
}

// RankingOutcome is one player's scored ordering, with the
// per-position outcome tags the presenter renders.
type RankingOutcome struct {
	PlayerName string   `json:"playerName"`
	Score      int      `json:"score"`
	Outcomes   []string `json:"outcomes"`
}

// ScoreNotice is a granular "+N points" popup for the presenter.
type ScoreNotice struct {
	PlayerName string `json:"playerName"`
	Value      int    `json:"value"`
	Reason     string `json:"reason"`
}
