package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"github.com/gosuda/hq/internal/domain"
)

var (
	columnStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("62")).
			Padding(0, 1).
			Width(30)

	stageStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170"))

	cardStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	idStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	emptyStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

// renderBoard draws one bordered column per stage, in display order.
func renderBoard[S domain.Stage, P domain.Payload](kind domain.BoardKind[S], columns map[S][]*domain.Card[S, P]) string {
	rendered := make([]string, 0, len(kind.Stages))
	for _, stage := range kind.Stages {
		cards := columns[stage]

		lines := []string{stageStyle.Render(fmt.Sprintf("%s (%d)", stage, len(cards)))}
		if len(cards) == 0 {
			lines = append(lines, emptyStyle.Render("empty"))
		}
		for _, c := range cards {
			lines = append(lines,
				cardStyle.Render(c.Data.Label()),
				idStyle.Render(shortID(c.ID)),
			)
		}
		rendered = append(rendered, columnStyle.Render(strings.Join(lines, "\n")))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, rendered...)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
