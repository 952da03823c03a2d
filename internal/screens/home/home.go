package home

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/abhisek/classmate/internal/router"
	"github.com/abhisek/classmate/internal/screen"
	"github.com/abhisek/classmate/internal/screens/course"
	"github.com/abhisek/classmate/internal/screens/history"
	"github.com/abhisek/classmate/internal/screens/lesson"
	"github.com/abhisek/classmate/internal/store"
	"github.com/abhisek/classmate/internal/ui/components"
	"github.com/abhisek/classmate/internal/ui/layout"
	"github.com/abhisek/classmate/internal/ui/theme"
)

// courseRow is one catalog entry with the learner's progress through it.
type courseRow struct {
	Course    store.Course
	Lessons   int
	Completed int
}

type catalogLoadedMsg struct {
	Rows []courseRow
	Err  error
}

// HomeScreen lists the course catalog.
type HomeScreen struct {
	deps   lesson.Deps
	rows   []courseRow
	menu   components.Menu
	loaded bool
	errMsg string
}

var _ screen.Screen = (*HomeScreen)(nil)
var _ screen.KeyHintProvider = (*HomeScreen)(nil)
var _ screen.Resumer = (*HomeScreen)(nil)

// New creates a new HomeScreen.
func New(deps lesson.Deps) *HomeScreen {
	return &HomeScreen{deps: deps}
}

func (h *HomeScreen) Init() tea.Cmd {
	return h.load()
}

// Resume reloads progress after a course screen is closed.
func (h *HomeScreen) Resume() tea.Cmd {
	return h.load()
}

func (h *HomeScreen) load() tea.Cmd {
	st, userID := h.deps.Store, h.deps.Config.UserID
	return func() tea.Msg {
		rows, err := loadCatalog(context.Background(), st, userID)
		return catalogLoadedMsg{Rows: rows, Err: err}
	}
}

func loadCatalog(ctx context.Context, st *store.Store, userID string) ([]courseRow, error) {
	courses, err := st.Courses(ctx)
	if err != nil {
		return nil, err
	}
	rows := make([]courseRow, 0, len(courses))
	for _, c := range courses {
		lessons, err := st.PublishedLessons(ctx, c.ID)
		if err != nil {
			return nil, err
		}
		progress, err := st.ProgressForCourse(ctx, userID, c.ID)
		if err != nil {
			return nil, err
		}
		published := make(map[string]bool, len(lessons))
		for _, l := range lessons {
			published[l.ID] = true
		}
		row := courseRow{Course: c, Lessons: len(lessons)}
		for _, p := range progress {
			if p.Status == store.StatusCompleted && published[p.LessonID] {
				row.Completed++
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (h *HomeScreen) Title() string {
	return "Home"
}

func (h *HomeScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (h *HomeScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(catalogLoadedMsg); ok {
		h.loaded = true
		if msg.Err != nil {
			h.deps.Logger.Error("load catalog failed", "error", msg.Err)
			h.errMsg = msg.Err.Error()
			return h, nil
		}
		h.errMsg = ""
		h.rows = msg.Rows
		selected := h.menu.Selected
		h.menu = components.NewMenu(h.menuItems())
		if selected < len(h.menu.Items) {
			h.menu.Selected = selected
		}
		return h, nil
	}

	var cmd tea.Cmd
	h.menu, cmd = h.menu.Update(msg)
	return h, cmd
}

func (h *HomeScreen) menuItems() []components.MenuItem {
	items := make([]components.MenuItem, 0, len(h.rows)+2)
	for _, row := range h.rows {
		c := row.Course
		items = append(items, components.MenuItem{
			Label: fmt.Sprintf("%s  (%d/%d)", c.Title, row.Completed, row.Lessons),
			Action: func() tea.Cmd {
				return func() tea.Msg {
					return router.PushScreenMsg{Screen: course.New(h.deps, c)}
				}
			},
			Disabled: row.Lessons == 0,
		})
	}
	items = append(items,
		components.MenuItem{Label: "History", Action: func() tea.Cmd {
			return func() tea.Msg {
				return router.PushScreenMsg{Screen: history.New(h.deps.Store, h.deps.Config.UserID)}
			}
		}},
		components.MenuItem{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	)
	return items
}

func (h *HomeScreen) View(width, height int) string {
	compact := height < 22 || width < 90
	cw := contentWidth(width)

	var sections []string
	sections = append(sections, renderTitle(cw, compact))

	switch {
	case h.errMsg != "":
		sections = append(sections, theme.Incorrect.Render("Error: "+h.errMsg))
	case !h.loaded:
		sections = append(sections, theme.Hint.Render("Loading courses..."))
	default:
		completed, total := 0, 0
		for _, r := range h.rows {
			completed += r.Completed
			total += r.Lessons
		}
		sections = append(sections, renderStatsBar(len(h.rows), completed, total, cw))
		if len(h.rows) == 0 {
			sections = append(sections, theme.Hint.Render("No courses yet. Import one with: classmate import course.json"))
		}
		sections = append(sections, theme.Card.Width(cw).Render(h.menu.View()))
	}

	content := strings.Join(sections, "\n\n")
	return lipgloss.Place(width, height, lipgloss.Center, lipgloss.Center, content)
}
