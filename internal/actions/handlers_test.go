package actions

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlerRegistry_LastRegistrationWins(t *testing.T) {
	r := NewHandlerRegistry()
	var got string
	r.Register(LessonWelcome, ButtonStartWarmup, func(context.Context, PendingAction) error { got = "first"; return nil })
	r.Register(LessonWelcome, ButtonStartWarmup, func(context.Context, PendingAction) error { got = "second"; return nil })

	h, ok := r.Lookup(LessonWelcome, ButtonStartWarmup)
	require.True(t, ok)
	require.NoError(t, h(t.Context(), PendingAction{}))
	assert.Equal(t, "second", got)
	assert.Equal(t, 1, r.Len())
}

func TestHandlerRegistry_ScopedUnregister(t *testing.T) {
	r := NewHandlerRegistry()
	unregisterOld := r.Register(LessonWelcome, ButtonStartWarmup, func(context.Context, PendingAction) error { return nil })
	unregisterNew := r.Register(LessonWelcome, ButtonStartWarmup, func(context.Context, PendingAction) error { return nil })

	// The stale unregister must not remove the newer handler.
	unregisterOld()
	_, ok := r.Lookup(LessonWelcome, ButtonStartWarmup)
	assert.True(t, ok)

	unregisterNew()
	_, ok = r.Lookup(LessonWelcome, ButtonStartWarmup)
	assert.False(t, ok)

	// Calling again is harmless.
	unregisterNew()
	assert.Equal(t, 0, r.Len())
}

func TestHandlerRegistry_Unregister(t *testing.T) {
	r := NewHandlerRegistry()
	r.Register(WarmupComplete, ButtonStartLesson, func(context.Context, PendingAction) error { return nil })
	r.Unregister(WarmupComplete, ButtonStartLesson)
	_, ok := r.Lookup(WarmupComplete, ButtonStartLesson)
	assert.False(t, ok)
}

func TestHandlerRegistry_ConcurrentRegistration(t *testing.T) {
	r := NewHandlerRegistry()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			un := r.Register(InlessonComplete, ButtonContinue, func(context.Context, PendingAction) error { return nil })
			r.Lookup(InlessonComplete, ButtonContinue)
			un()
		}()
	}
	wg.Wait()
	assert.Equal(t, 0, r.Len())
}
