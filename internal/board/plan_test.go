package board_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/hq/internal/board"
	"github.com/gosuda/hq/internal/domain"
)

type investorColumns = map[domain.InvestorStage][]*domain.InvestorCard

func TestPlanMove_AcrossStages(t *testing.T) {
	t.Parallel()

	a := investor("A", domain.InvestorStageResearch, 0)
	b := investor("B", domain.InvestorStageResearch, 1)
	c := investor("C", domain.InvestorStageResearch, 2)
	x := investor("X", domain.InvestorStageOutreach, 0)
	y := investor("Y", domain.InvestorStageOutreach, 1)

	cols := investorColumns{
		domain.InvestorStageResearch: {a, b, c},
		domain.InvestorStageOutreach: {x, y},
	}

	plan, err := board.PlanMove(cols, board.Move[domain.InvestorStage]{
		CardID:    b.ID,
		FromStage: domain.InvestorStageResearch,
		FromIndex: 1,
		ToStage:   domain.InvestorStageOutreach,
		ToIndex:   0,
	}, time.Now())
	require.NoError(t, err)

	research := plan.Columns[domain.InvestorStageResearch]
	outreach := plan.Columns[domain.InvestorStageOutreach]

	assert.Equal(t, []string{"A", "C"}, names(research))
	assert.Equal(t, []int{0, 1}, orders(research))
	assert.Equal(t, []string{"B", "X", "Y"}, names(outreach))
	assert.Equal(t, []int{0, 1, 2}, orders(outreach))
	assert.Equal(t, domain.InvestorStageOutreach, outreach[0].Stage)

	// Moved card first, with both stage and order.
	require.NotEmpty(t, plan.Writes)
	first := plan.Writes[0]
	assert.Equal(t, b.ID, first.CardID)
	require.NotNil(t, first.Patch.Stage)
	assert.Equal(t, domain.InvestorStageOutreach, *first.Patch.Stage)
	require.NotNil(t, first.Patch.Order)
	assert.Equal(t, 0, *first.Patch.Order)

	// X, Y shift right and C closes the gap; A is untouched.
	var written []uuid.UUID
	for _, w := range plan.Writes[1:] {
		assert.Nil(t, w.Patch.Stage, "siblings only get their order rewritten")
		assert.Nil(t, w.Patch.Data)
		written = append(written, w.CardID)
	}
	assert.ElementsMatch(t, []uuid.UUID{x.ID, y.ID, c.ID}, written)

	// Input columns are not mutated.
	assert.Equal(t, 1, b.Order)
	assert.Equal(t, domain.InvestorStageResearch, b.Stage)
	assert.Len(t, cols[domain.InvestorStageResearch], 3)
}

func TestPlanMove_WithinStage(t *testing.T) {
	t.Parallel()

	a := investor("A", domain.InvestorStageResearch, 0)
	b := investor("B", domain.InvestorStageResearch, 1)

	plan, err := board.PlanMove(investorColumns{
		domain.InvestorStageResearch: {a, b},
	}, board.Move[domain.InvestorStage]{
		CardID:    a.ID,
		FromStage: domain.InvestorStageResearch,
		FromIndex: 0,
		ToStage:   domain.InvestorStageResearch,
		ToIndex:   1,
	}, time.Now())
	require.NoError(t, err)

	research := plan.Columns[domain.InvestorStageResearch]
	assert.Equal(t, []string{"B", "A"}, names(research))
	assert.Equal(t, []int{0, 1}, orders(research))

	require.Len(t, plan.Writes, 2)
	assert.Equal(t, a.ID, plan.Writes[0].CardID)
	assert.Nil(t, plan.Writes[0].Patch.Stage, "stage is unchanged within a column")
	assert.Equal(t, 1, *plan.Writes[0].Patch.Order)
	assert.Equal(t, b.ID, plan.Writes[1].CardID)
	assert.Equal(t, 0, *plan.Writes[1].Patch.Order)
}

func TestPlanMove_SamePositionIsNoop(t *testing.T) {
	t.Parallel()

	a := investor("A", domain.InvestorStageMeeting, 0)
	b := investor("B", domain.InvestorStageMeeting, 7) // gap left by a delete

	plan, err := board.PlanMove(investorColumns{
		domain.InvestorStageMeeting: {a, b},
	}, board.Move[domain.InvestorStage]{
		CardID:    b.ID,
		FromStage: domain.InvestorStageMeeting,
		FromIndex: 1,
		ToStage:   domain.InvestorStageMeeting,
		ToIndex:   1,
	}, time.Now())
	require.NoError(t, err)

	assert.True(t, plan.Noop())
	assert.Empty(t, plan.Columns)
}

func TestPlanMove_LastCardToEndIsNoop(t *testing.T) {
	t.Parallel()

	a := investor("A", domain.InvestorStageMeeting, 0)
	b := investor("B", domain.InvestorStageMeeting, 1)

	for _, toIndex := range []int{2, 99} {
		plan, err := board.PlanMove(investorColumns{
			domain.InvestorStageMeeting: {a, b},
		}, board.Move[domain.InvestorStage]{
			CardID:    b.ID,
			FromStage: domain.InvestorStageMeeting,
			FromIndex: 1,
			ToStage:   domain.InvestorStageMeeting,
			ToIndex:   toIndex,
		}, time.Now())
		require.NoError(t, err)

		assert.True(t, plan.Noop(), "to_index %d", toIndex)
		assert.Empty(t, plan.Writes)
	}

	t.Run("first_card_to_end_still_moves", func(t *testing.T) {
		t.Parallel()

		plan, err := board.PlanMove(investorColumns{
			domain.InvestorStageMeeting: {a, b},
		}, board.Move[domain.InvestorStage]{
			CardID:    a.ID,
			FromStage: domain.InvestorStageMeeting,
			FromIndex: 0,
			ToStage:   domain.InvestorStageMeeting,
			ToIndex:   99,
		}, time.Now())
		require.NoError(t, err)

		require.False(t, plan.Noop())
		assert.Equal(t, []string{"B", "A"}, names(plan.Columns[domain.InvestorStageMeeting]))
		assert.Equal(t, []int{0, 1}, orders(plan.Columns[domain.InvestorStageMeeting]))
	})
}

func TestPlanMove_ClampsDestinationIndex(t *testing.T) {
	t.Parallel()

	a := investor("A", domain.InvestorStageResearch, 0)
	x := investor("X", domain.InvestorStageCommitted, 0)

	plan, err := board.PlanMove(investorColumns{
		domain.InvestorStageResearch:  {a},
		domain.InvestorStageCommitted: {x},
	}, board.Move[domain.InvestorStage]{
		CardID:    a.ID,
		FromStage: domain.InvestorStageResearch,
		FromIndex: 0,
		ToStage:   domain.InvestorStageCommitted,
		ToIndex:   99,
	}, time.Now())
	require.NoError(t, err)

	committed := plan.Columns[domain.InvestorStageCommitted]
	assert.Equal(t, []string{"X", "A"}, names(committed))
	assert.Equal(t, []int{0, 1}, orders(committed))
	assert.Empty(t, plan.Columns[domain.InvestorStageResearch])
}

func TestPlanMove_IntoEmptyStage(t *testing.T) {
	t.Parallel()

	a := investor("A", domain.InvestorStageResearch, 0)
	b := investor("B", domain.InvestorStageResearch, 1)

	plan, err := board.PlanMove(investorColumns{
		domain.InvestorStageResearch: {a, b},
	}, board.Move[domain.InvestorStage]{
		CardID:    a.ID,
		FromStage: domain.InvestorStageResearch,
		FromIndex: 0,
		ToStage:   domain.InvestorStagePassed,
		ToIndex:   0,
	}, time.Now())
	require.NoError(t, err)

	assert.Equal(t, []string{"A"}, names(plan.Columns[domain.InvestorStagePassed]))
	assert.Equal(t, []string{"B"}, names(plan.Columns[domain.InvestorStageResearch]))
	assert.Equal(t, []int{0}, orders(plan.Columns[domain.InvestorStageResearch]))
}

func TestPlanMove_Rejects(t *testing.T) {
	t.Parallel()

	a := investor("A", domain.InvestorStageResearch, 0)
	b := investor("B", domain.InvestorStageResearch, 1)
	cols := investorColumns{domain.InvestorStageResearch: {a, b}}

	tests := []struct {
		name    string
		move    board.Move[domain.InvestorStage]
		field   string
		wantErr error
	}{
		{
			name:    "unknown source stage",
			move:    board.Move[domain.InvestorStage]{CardID: a.ID, FromStage: "archived", ToStage: domain.InvestorStageOutreach},
			field:   "from_stage",
			wantErr: domain.ErrUnknownStage,
		},
		{
			name:    "unknown destination stage",
			move:    board.Move[domain.InvestorStage]{CardID: a.ID, FromStage: domain.InvestorStageResearch, ToStage: "archived"},
			field:   "to_stage",
			wantErr: domain.ErrUnknownStage,
		},
		{
			name:    "card not at source index",
			move:    board.Move[domain.InvestorStage]{CardID: a.ID, FromStage: domain.InvestorStageResearch, FromIndex: 1, ToStage: domain.InvestorStageOutreach},
			field:   "from_index",
			wantErr: board.ErrStaleMove,
		},
		{
			name:    "source index out of range",
			move:    board.Move[domain.InvestorStage]{CardID: a.ID, FromStage: domain.InvestorStageResearch, FromIndex: 5, ToStage: domain.InvestorStageOutreach},
			field:   "from_index",
			wantErr: board.ErrStaleMove,
		},
		{
			name:    "card in another stage",
			move:    board.Move[domain.InvestorStage]{CardID: a.ID, FromStage: domain.InvestorStageOutreach, FromIndex: 0, ToStage: domain.InvestorStageResearch},
			field:   "from_index",
			wantErr: board.ErrStaleMove,
		},
		{
			name:    "negative destination index",
			move:    board.Move[domain.InvestorStage]{CardID: a.ID, FromStage: domain.InvestorStageResearch, FromIndex: 0, ToStage: domain.InvestorStageOutreach, ToIndex: -1},
			field:   "to_index",
			wantErr: board.ErrInvalidIndex,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			plan, err := board.PlanMove(cols, tt.move, time.Now())
			require.Error(t, err)
			assert.Nil(t, plan)
			require.ErrorIs(t, err, tt.wantErr)

			var verr *board.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

// TestPlanMove_AlwaysDense moves every card of a board to every position and
// checks that each touched stage ends up numbered 0..n-1 and that the card
// ends up in exactly one stage.
func TestPlanMove_AlwaysDense(t *testing.T) {
	t.Parallel()

	build := func() investorColumns {
		return investorColumns{
			domain.InvestorStageResearch: {
				investor("r0", domain.InvestorStageResearch, 0),
				investor("r1", domain.InvestorStageResearch, 3),
				investor("r2", domain.InvestorStageResearch, 3),
			},
			domain.InvestorStageOutreach: {
				investor("o0", domain.InvestorStageOutreach, 2),
				investor("o1", domain.InvestorStageOutreach, 9),
			},
			domain.InvestorStageMeeting: {},
		}
	}

	stages := []domain.InvestorStage{
		domain.InvestorStageResearch,
		domain.InvestorStageOutreach,
		domain.InvestorStageMeeting,
	}

	for _, from := range stages {
		for fromIdx := range build()[from] {
			for _, to := range stages {
				for toIdx := 0; toIdx <= len(build()[to])+1; toIdx++ {
					cols := build()
					card := cols[from][fromIdx]

					plan, err := board.PlanMove(cols, board.Move[domain.InvestorStage]{
						CardID:    card.ID,
						FromStage: from,
						FromIndex: fromIdx,
						ToStage:   to,
						ToIndex:   toIdx,
					}, time.Now())
					require.NoError(t, err)
					if plan.Noop() {
						assert.Equal(t, from, to)
						assert.Equal(t, fromIdx, toIdx)
						continue
					}

					seen := 0
					for stage, col := range plan.Columns {
						for i, c := range col {
							assert.Equal(t, i, c.Order, "stage %s not dense", stage)
							assert.Equal(t, stage, c.Stage)
							if c.ID == card.ID {
								seen++
								assert.Equal(t, to, stage)
							}
						}
					}
					assert.Equal(t, 1, seen, "moved card must appear exactly once")
					assert.Equal(t, card.ID, plan.Writes[0].CardID)
				}
			}
		}
	}
}
