package domain

import "slices"

// Stage is a closed set of board columns. Every board kind declares its own
// string type so that stages of one board cannot be passed to another.
type Stage interface {
	~string
	Valid() bool
}

// BoardKind describes one pipeline board: its URL name, its stages in
// display order, and the stage new cards land in.
type BoardKind[S Stage] struct {
	Name    string
	Stages  []S
	Default S
}

// ParseStage converts raw into a stage of the board, or returns ErrUnknownStage.
func (k BoardKind[S]) ParseStage(raw string) (S, error) {
	s := S(raw)
	if !slices.Contains(k.Stages, s) {
		var zero S
		return zero, ErrUnknownStage
	}
	return s, nil
}

type InvestorStage string

const (
	InvestorStageResearch  InvestorStage = "research"
	InvestorStageOutreach  InvestorStage = "outreach"
	InvestorStageMeeting   InvestorStage = "meeting"
	InvestorStageFollowUp  InvestorStage = "follow_up"
	InvestorStageCommitted InvestorStage = "committed"
	InvestorStagePassed    InvestorStage = "passed"
)

func (s InvestorStage) Valid() bool {
	return slices.Contains(InvestorBoard.Stages, s)
}

type MissionStage string

const (
	MissionStageCreated    MissionStage = "created"
	MissionStageInProgress MissionStage = "in_progress"
	MissionStageCompleted  MissionStage = "completed"
)

func (s MissionStage) Valid() bool {
	return slices.Contains(MissionBoard.Stages, s)
}

// InvestorBoard is the fundraising pipeline.
var InvestorBoard = BoardKind[InvestorStage]{ //nolint:gochecknoglobals // closed enum table
	Name: "investors",
	Stages: []InvestorStage{
		InvestorStageResearch,
		InvestorStageOutreach,
		InvestorStageMeeting,
		InvestorStageFollowUp,
		InvestorStageCommitted,
		InvestorStagePassed,
	},
	Default: InvestorStageResearch,
}

// MissionBoard is the task board.
var MissionBoard = BoardKind[MissionStage]{ //nolint:gochecknoglobals // closed enum table
	Name: "missions",
	Stages: []MissionStage{
		MissionStageCreated,
		MissionStageInProgress,
		MissionStageCompleted,
	},
	Default: MissionStageCreated,
}
