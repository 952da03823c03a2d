package sessiontype

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/abhisek/classmate/internal/actions"
	"github.com/abhisek/classmate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCatalog struct {
	course   *store.Course
	lessons  []store.Lesson
	progress []store.LessonProgress
	err      error
	calls    int
}

func (f *fakeCatalog) Course(_ context.Context, id string) (*store.Course, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.course, nil
}

func (f *fakeCatalog) PublishedLessons(context.Context, string) ([]store.Lesson, error) {
	return f.lessons, nil
}

func (f *fakeCatalog) ProgressForCourse(context.Context, string, string) ([]store.LessonProgress, error) {
	return f.progress, nil
}

func newCatalog() *fakeCatalog {
	return &fakeCatalog{
		course: &store.Course{ID: "c1", Title: "Go Basics"},
		lessons: []store.Lesson{
			{ID: "intro", ModuleID: "m1", ModuleOrder: 0, Position: 0, Title: "Hello"},
			{ID: "vars", ModuleID: "m1", ModuleOrder: 0, Position: 1, Title: "Variables"},
			{ID: "structs", ModuleID: "m2", ModuleOrder: 1, Position: 0, Title: "Structs"},
		},
	}
}

func TestResolveDecisionTable(t *testing.T) {
	ts := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name     string
		lesson   string
		progress []store.LessonProgress
		want     actions.ActionType
	}{
		{"intro lesson, new learner", "intro", nil, actions.CourseWelcome},
		{"intro lesson, course started", "intro",
			[]store.LessonProgress{{LessonID: "vars", Status: store.StatusInProgress, LastAccessedAt: ts}},
			actions.CourseWelcomeBack},
		{"first module's second lesson, unvisited", "vars",
			[]store.LessonProgress{{LessonID: "intro", Status: store.StatusCompleted, LastAccessedAt: ts}},
			actions.LessonWelcome},
		{"position zero of a later module is not intro", "structs", nil, actions.LessonWelcome},
		{"not started row counts as first visit", "vars",
			[]store.LessonProgress{{LessonID: "vars", Status: store.StatusNotStarted, LastAccessedAt: ts}},
			actions.LessonWelcome},
		{"returning to a lesson", "vars",
			[]store.LessonProgress{{LessonID: "vars", Status: store.StatusInProgress, LastAccessedAt: ts}},
			actions.LessonWelcomeBack},
		{"course level, new learner", "", nil, actions.CourseWelcome},
		{"course level, returning", "",
			[]store.LessonProgress{{LessonID: "intro", Status: store.StatusInProgress, LastAccessedAt: ts}},
			actions.CourseWelcomeBack},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cat := newCatalog()
			cat.progress = tt.progress
			res, err := Resolve(t.Context(), cat, "u1", "c1", tt.lesson)
			require.NoError(t, err)
			assert.Equal(t, tt.want, res.SessionType)
		})
	}
}

func TestResolveAggregates(t *testing.T) {
	cat := newCatalog()
	older := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cat.progress = []store.LessonProgress{
		{LessonID: "intro", Status: store.StatusCompleted, LastAccessedAt: older},
		{LessonID: "vars", Status: store.StatusInProgress, LastAccessedAt: older.Add(time.Hour)},
		{LessonID: "gone", Status: store.StatusCompleted, LastAccessedAt: older},
	}

	res, err := Resolve(t.Context(), cat, "u1", "c1", "structs")
	require.NoError(t, err)

	assert.Equal(t, 3, res.TotalLessons)
	assert.Equal(t, 1, res.CompletedLessons, "unpublished lessons are not counted")
	assert.Equal(t, "Variables", res.LastAccessedTitle)
	assert.Equal(t, 3, res.LessonNumber)
	assert.Equal(t, "Variables", res.PreviousLessonTitle)
	assert.False(t, res.IsIntroLesson)
	assert.True(t, res.IsFirstLessonVisit)
	assert.False(t, res.IsReturningUser())
}

func TestResolveError(t *testing.T) {
	cat := newCatalog()
	cat.err = errors.New("db down")
	_, err := Resolve(t.Context(), cat, "u1", "c1", "intro")
	assert.ErrorContains(t, err, "db down")
}

func TestResolverIsOneShot(t *testing.T) {
	cat := newCatalog()
	r := NewResolver(cat)

	first, err := r.Resolve(t.Context(), "u1", "c1", "intro")
	require.NoError(t, err)
	assert.Equal(t, actions.CourseWelcome, first.SessionType)

	// Progress written during the session must not flip the greeting.
	cat.progress = []store.LessonProgress{{LessonID: "intro", Status: store.StatusInProgress}}
	second, err := r.Resolve(t.Context(), "u1", "c1", "intro")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, cat.calls)
}

func TestGreetingPerVariant(t *testing.T) {
	base := Resolution{
		CourseTitle: "Go Basics", TotalLessons: 3, CompletedLessons: 1,
		LastAccessedTitle: "Hello", LessonTitle: "Variables", LessonNumber: 2,
		PreviousLessonTitle: "Hello",
	}
	for _, tc := range []struct {
		typ  actions.ActionType
		want string
	}{
		{actions.CourseWelcome, "Welcome to Go Basics"},
		{actions.CourseWelcomeBack, "1 of 3 lessons"},
		{actions.LessonWelcome, "lesson 2: Variables"},
		{actions.LessonWelcomeBack, "Welcome back to Variables"},
	} {
		r := base
		r.SessionType = tc.typ
		assert.Contains(t, Greeting(r), tc.want, string(tc.typ))
	}
	assert.Empty(t, Greeting(Resolution{}))
}

func TestResolveAgainstStore(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	ctx := t.Context()

	doc, err := store.ParseCourse([]byte(`{"id": "c1", "title": "Go Basics", "modules": [
	  {"id": "m1", "title": "Intro", "position": 0, "lessons": [
	    {"id": "intro", "title": "Hello", "position": 0},
	    {"id": "vars", "title": "Variables", "position": 1}
	  ]}
	]}`))
	require.NoError(t, err)
	require.NoError(t, st.ImportCourse(ctx, doc))

	res, err := Resolve(ctx, st, "u1", "c1", "intro")
	require.NoError(t, err)
	assert.Equal(t, actions.CourseWelcome, res.SessionType)

	require.NoError(t, st.UpdateLessonProgress(ctx, store.ProgressInput{UserID: "u1", LessonID: "intro", CompletionPercentage: 100, VideoEnded: true}))

	res, err = Resolve(ctx, st, "u1", "c1", "intro")
	require.NoError(t, err)
	assert.Equal(t, actions.CourseWelcomeBack, res.SessionType)
	assert.True(t, res.IsReturningUser())

	res, err = Resolve(ctx, st, "u1", "c1", "vars")
	require.NoError(t, err)
	assert.Equal(t, actions.LessonWelcome, res.SessionType)
	assert.Equal(t, "Hello", res.PreviousLessonTitle)
}
