// Package sessiontype classifies how a learner enters a course or lesson,
// which picks the greeting and the first action buttons of a session.
package sessiontype

import (
	"context"
	"fmt"
	"sync"

	"github.com/abhisek/classmate/internal/actions"
	"github.com/abhisek/classmate/internal/store"
)

// Catalog is the read side of the store the resolver needs.
type Catalog interface {
	Course(ctx context.Context, id string) (*store.Course, error)
	PublishedLessons(ctx context.Context, courseID string) ([]store.Lesson, error)
	ProgressForCourse(ctx context.Context, userID, courseID string) ([]store.LessonProgress, error)
}

// Resolution is the outcome of classifying one entry point.
type Resolution struct {
	SessionType actions.ActionType

	CourseTitle        string
	IsFirstCourseVisit bool
	TotalLessons       int
	CompletedLessons   int
	// LastAccessedTitle is the title of the most recently opened lesson.
	LastAccessedTitle string

	LessonID           string
	LessonTitle        string
	IsIntroLesson      bool
	IsFirstLessonVisit bool
	// LessonNumber is 1-based within the published sequence, 0 if unknown.
	LessonNumber        int
	PreviousLessonTitle string
}

// IsReturningUser reports whether the learner has been here before.
func (r Resolution) IsReturningUser() bool {
	switch r.SessionType {
	case actions.CourseWelcomeBack, actions.LessonWelcomeBack:
		return true
	}
	return false
}

// Resolve classifies the learner's entry into courseID. An empty lessonID
// resolves at course level.
func Resolve(ctx context.Context, cat Catalog, userID, courseID, lessonID string) (Resolution, error) {
	course, err := cat.Course(ctx, courseID)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve session type: %w", err)
	}
	lessons, err := cat.PublishedLessons(ctx, courseID)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve session type: %w", err)
	}
	progress, err := cat.ProgressForCourse(ctx, userID, courseID)
	if err != nil {
		return Resolution{}, fmt.Errorf("resolve session type: %w", err)
	}

	res := Resolution{
		CourseTitle:        course.Title,
		IsFirstCourseVisit: len(progress) == 0,
		TotalLessons:       len(lessons),
	}

	titles := make(map[string]string, len(lessons))
	for _, l := range lessons {
		titles[l.ID] = l.Title
	}
	byLesson := make(map[string]store.LessonProgress, len(progress))
	var last *store.LessonProgress
	for i, p := range progress {
		byLesson[p.LessonID] = p
		if p.Status == store.StatusCompleted {
			if _, published := titles[p.LessonID]; published {
				res.CompletedLessons++
			}
		}
		if last == nil || p.LastAccessedAt.After(last.LastAccessedAt) {
			last = &progress[i]
		}
	}
	if last != nil {
		res.LastAccessedTitle = titles[last.LessonID]
	}

	if lessonID == "" {
		res.SessionType = actions.CourseWelcome
		if !res.IsFirstCourseVisit {
			res.SessionType = actions.CourseWelcomeBack
		}
		return res, nil
	}

	res.LessonID = lessonID
	for i, l := range lessons {
		if l.ID != lessonID {
			continue
		}
		res.LessonTitle = l.Title
		res.LessonNumber = i + 1
		if i > 0 {
			res.PreviousLessonTitle = lessons[i-1].Title
		}
		res.IsIntroLesson = l.Position == 0 && l.ModuleID == lessons[0].ModuleID
		break
	}

	p, seen := byLesson[lessonID]
	res.IsFirstLessonVisit = !seen || p.Status == store.StatusNotStarted

	switch {
	case res.IsIntroLesson && res.IsFirstCourseVisit:
		res.SessionType = actions.CourseWelcome
	case res.IsIntroLesson:
		res.SessionType = actions.CourseWelcomeBack
	case res.IsFirstLessonVisit:
		res.SessionType = actions.LessonWelcome
	default:
		res.SessionType = actions.LessonWelcomeBack
	}
	return res, nil
}

// Resolver resolves once and replays the first result on later calls,
// so a session keeps its greeting even after progress is written.
type Resolver struct {
	cat Catalog

	once sync.Once
	res  Resolution
	err  error
}

// NewResolver returns a one-shot resolver over cat.
func NewResolver(cat Catalog) *Resolver {
	return &Resolver{cat: cat}
}

// Resolve runs the classification on the first call only.
func (r *Resolver) Resolve(ctx context.Context, userID, courseID, lessonID string) (Resolution, error) {
	r.once.Do(func() {
		r.res, r.err = Resolve(ctx, r.cat, userID, courseID, lessonID)
	})
	return r.res, r.err
}
