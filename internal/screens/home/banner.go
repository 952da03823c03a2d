package home

import (
	"fmt"

	"charm.land/lipgloss/v2"

	"github.com/abhisek/classmate/internal/ui/theme"
)

const bannerFull = ` ┏━╸╻  ┏━┓┏━┓┏━┓┏┳┓┏━┓╺┳╸┏━╸
 ┃  ┃  ┣━┫┗━┓┗━┓┃┃┃┣━┫ ┃ ┣╸
 ┗━╸┗━╸╹ ╹┗━┛┗━┛╹ ╹╹ ╹ ╹ ┗━╸`

const bannerCompact = "C · L · A · S · S · M · A · T · E"

// contentWidth returns the uniform inner width used for all sections so
// the boxes line up.
func contentWidth(frameWidth int) int {
	return min(max(frameWidth-6, 20), 64)
}

func renderTitle(cw int, compact bool) string {
	art := bannerFull
	if compact {
		art = bannerCompact
	}
	return lipgloss.NewStyle().
		Width(cw).
		Align(lipgloss.Center).
		Render(lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).Render(art))
}

// renderStatsBar shows catalog-wide progress in a bordered box.
func renderStatsBar(courses, completed, total, cw int) string {
	courseStyle := lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	doneStyle := lipgloss.NewStyle().Foreground(theme.Success).Bold(true)

	stats := fmt.Sprintf("%s    %s",
		courseStyle.Render(fmt.Sprintf("%d COURSES", courses)),
		doneStyle.Render(fmt.Sprintf("✓ %d / %d LESSONS DONE", completed, total)),
	)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Border).
		Width(cw).
		Align(lipgloss.Center).
		Render(stats)
}
