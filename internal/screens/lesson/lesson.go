// Package lesson is the lesson screen: it runs the session reducer on the
// UI goroutine and interprets the effects it returns against the store, the
// tutor transport, the action controller and the in-lesson quiz flow.
package lesson

import (
	"context"
	"sync"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/google/uuid"

	"github.com/abhisek/classmate/internal/actions"
	"github.com/abhisek/classmate/internal/config"
	"github.com/abhisek/classmate/internal/inlesson"
	"github.com/abhisek/classmate/internal/logger"
	"github.com/abhisek/classmate/internal/quiz"
	"github.com/abhisek/classmate/internal/router"
	"github.com/abhisek/classmate/internal/screen"
	"github.com/abhisek/classmate/internal/session"
	"github.com/abhisek/classmate/internal/sessiontype"
	"github.com/abhisek/classmate/internal/store"
	"github.com/abhisek/classmate/internal/tutor"
	"github.com/abhisek/classmate/internal/ui/components"
)

// inboxSize bounds messages queued by background goroutines.
const inboxSize = 64

const confettiDuration = 1500 * time.Millisecond

// Deps wires the lesson screen to its collaborators.
type Deps struct {
	Store  *store.Store
	Config *config.Config
	Logger *logger.Logger

	// NewTutor builds the transport for one screen. Nil runs without a tutor.
	NewTutor func(sink tutor.Sink) tutor.Transport
}

// lessonAware tutors are told which lesson is on screen.
type lessonAware interface {
	SetLesson(title, summary string)
}

// recapper tutors can summarize the current lesson on request.
type recapper interface {
	Recap(ctx context.Context) error
}

// Screen implements screen.Screen for one lesson session.
type Screen struct {
	deps        Deps
	log         *logger.Logger
	userID      string
	course      store.Course
	lesson      store.Lesson
	courseLevel bool

	state    session.State
	content  *quiz.Content
	player   player
	resolver *sessiontype.Resolver

	handlers   *actions.HandlerRegistry
	controller *actions.Controller
	unregister []func()
	flow       *inlesson.Flow
	tutor      tutor.Transport

	inbox     chan tea.Msg
	done      chan struct{}
	closeOnce sync.Once

	sessionID string
	newID     func() string

	input  components.TextInput
	choice *components.MultiChoice
	bar    components.ActionBar
	barKey string

	loaded      bool
	errMsg      string
	notice      string
	confirmQuit bool
	confetti    bool
	confettiGen uint64
}

var _ screen.Screen = (*Screen)(nil)
var _ screen.KeyHintProvider = (*Screen)(nil)
var _ screen.StatusProvider = (*Screen)(nil)
var _ screen.BackHandler = (*Screen)(nil)

// New creates a lesson screen. With courseLevel the session is classified
// at course level (course welcome variants) while lesson is still the one
// played.
func New(deps Deps, course store.Course, lesson store.Lesson, courseLevel bool) *Screen {
	if deps.Logger == nil {
		deps.Logger = logger.NewNop()
	}
	if deps.Config == nil {
		deps.Config = &config.Config{UserID: "learner"}
	}
	cfg := deps.Config

	s := &Screen{
		deps:        deps,
		log:         deps.Logger.With("lesson_id", lesson.ID),
		userID:      cfg.UserID,
		course:      course,
		lesson:      lesson,
		courseLevel: courseLevel,
		state: session.NewState(session.Tuning{
			ToastDuration:    cfg.ToastDuration,
			ProgressInterval: cfg.ProgressInterval,
		}),
		player:   newPlayer(lesson.DurationSecs),
		resolver: sessiontype.NewResolver(deps.Store),
		handlers: actions.NewHandlerRegistry(),
		inbox:    make(chan tea.Msg, inboxSize),
		done:     make(chan struct{}),
		newID:    uuid.NewString,
		input:    components.NewTextInput("Ask the tutor anything...", 500),
	}
	s.controller = actions.NewController(s.handlers, s.log)
	s.controller.OnChange(func() { s.nudge(actionsChangedMsg{}) })

	var t inlesson.Tutor
	if deps.NewTutor != nil {
		s.tutor = deps.NewTutor(s.sink)
		t = s.tutor
	}
	s.flow = inlesson.New(inlesson.Config{
		Emit:          s.sink,
		Recorder:      attemptRecorder{st: deps.Store},
		Tutor:         t,
		Cues:          cues{s: s},
		FeedbackDelay: cfg.FeedbackDelay,
		NewID:         func() string { return s.newID() },
		Logger:        s.log,
	})
	s.registerHandlers()
	return s
}

func (s *Screen) Init() tea.Cmd {
	return tea.Batch(s.listen(), s.load(), s.input.Init())
}

func (s *Screen) Title() string {
	return s.lesson.Title
}

func (s *Screen) HandlesBack() bool { return true }

// post queues msg from a background goroutine. It gives up once the screen
// is closed.
func (s *Screen) post(msg tea.Msg) {
	select {
	case s.inbox <- msg:
	case <-s.done:
	}
}

// nudge queues msg without blocking; it may be called on the UI goroutine.
func (s *Screen) nudge(msg tea.Msg) {
	select {
	case s.inbox <- msg:
	default:
	}
}

// sink receives events from the tutor transport and the quiz flow.
func (s *Screen) sink(ev session.Event) {
	s.post(eventMsg{Event: ev})
}

func (s *Screen) listen() tea.Cmd {
	inbox, done := s.inbox, s.done
	return func() tea.Msg {
		select {
		case m := <-inbox:
			return inboxMsg{Msg: m}
		case <-done:
			return nil
		}
	}
}

func (s *Screen) load() tea.Cmd {
	st, resolver := s.deps.Store, s.resolver
	userID, courseID, lesson := s.userID, s.course.ID, s.lesson
	lessonID := lesson.ID
	if s.courseLevel {
		lessonID = ""
	}
	return func() tea.Msg {
		ctx := context.Background()
		res, err := resolver.Resolve(ctx, userID, courseID, lessonID)
		if err != nil {
			return loadedMsg{Err: err}
		}
		content, err := parseContent(lesson.Quiz)
		if err != nil {
			return loadedMsg{Err: err}
		}
		progress, err := st.LessonProgress(ctx, userID, lesson.ID)
		if err != nil {
			return loadedMsg{Err: err}
		}
		return loadedMsg{Resolution: res, Content: content, Progress: progress}
	}
}

func parseContent(raw string) (*quiz.Content, error) {
	return quiz.Parse([]byte(raw))
}

func (s *Screen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	var cmd tea.Cmd
	if in, ok := msg.(inboxMsg); ok {
		cmd = tea.Batch(s.handle(in.Msg), s.listen())
	} else {
		cmd = s.handle(msg)
	}
	s.syncActionBar()
	return s, cmd
}

func (s *Screen) handle(msg tea.Msg) tea.Cmd {
	switch msg := msg.(type) {
	case loadedMsg:
		return s.handleLoaded(msg)
	case eventMsg:
		return s.apply(msg.Event)
	case sessionRecordMsg:
		s.sessionID = msg.ID
	case lessonSwitchMsg:
		return s.handleSwitch(msg)
	case playerTickMsg:
		return s.handleTick(msg)

	case playMsg:
		return s.play()
	case startWarmupMsg:
		return s.startWarmup()
	case replayMsg:
		return s.replay()
	case nextLessonMsg:
		return s.loadNextLesson()
	case focusChatMsg:
		s.input.SetPlaceholder("Ask the tutor anything...")
		return s.input.Init()
	case actionsChangedMsg:
		// Re-render only.

	case confettiMsg:
		s.confetti = true
		s.confettiGen++
		gen := s.confettiGen
		return tea.Tick(confettiDuration, func(time.Time) tea.Msg { return confettiDoneMsg{Gen: gen} })
	case confettiDoneMsg:
		if msg.Gen == s.confettiGen {
			s.confetti = false
		}
	case noticeMsg:
		s.notice = msg.Text

	case tea.KeyPressMsg:
		return s.handleKey(msg)

	default:
		var cmd tea.Cmd
		s.input, cmd = s.input.Update(msg)
		return cmd
	}
	return nil
}

func (s *Screen) handleLoaded(msg loadedMsg) tea.Cmd {
	if msg.Err != nil {
		s.log.Error("lesson load failed", "error", msg.Err)
		s.errMsg = msg.Err.Error()
		return nil
	}
	s.loaded = true
	s.content = msg.Content
	s.flow.SetLesson(s.userID, s.lesson.ID)
	s.tellTutorLesson()

	res := msg.Resolution
	cmds := []tea.Cmd{
		s.startRecord(string(res.SessionType)),
		s.connect(),
		s.apply(session.PlayerReady{Duration: s.lesson.DurationSecs}),
	}
	if p := msg.Progress; p != nil && p.Status != store.StatusCompleted && p.LastPosition > 0 {
		cmds = append(cmds, s.apply(session.PlayerSeekRequested{Position: p.LastPosition}))
	}
	cmds = append(cmds,
		s.apply(session.PanelToggled{Open: true}),
		s.apply(session.SessionStarted{
			UserID:           s.userID,
			CourseID:         s.course.ID,
			LessonID:         s.lesson.ID,
			IsReturningUser:  res.IsReturningUser(),
			SessionType:      res.SessionType,
			Greeting:         sessiontype.Greeting(res),
			WelcomeMessageID: s.newID(),
		}),
	)
	s.log.Info("lesson session started", "session_type", res.SessionType, "returning", res.IsReturningUser())
	return tea.Batch(cmds...)
}

// apply runs ev through the reducer and interprets the resulting effects.
func (s *Screen) apply(ev session.Event) tea.Cmd {
	next, effects := session.Reduce(s.state, ev)
	s.state = next
	cmds := make([]tea.Cmd, 0, len(effects))
	for _, eff := range effects {
		cmds = append(cmds, s.run(eff))
	}
	return tea.Batch(cmds...)
}

func (s *Screen) handleKey(msg tea.KeyPressMsg) tea.Cmd {
	key := msg.String()

	if s.errMsg != "" || (!s.loaded && key == "esc") {
		s.teardown()
		return func() tea.Msg { return router.PopScreenMsg{} }
	}
	if !s.loaded {
		return nil
	}

	if s.confirmQuit {
		switch key {
		case "y", "Y":
			return s.end()
		case "n", "N", "esc":
			s.confirmQuit = false
		}
		return nil
	}

	switch key {
	case "esc":
		s.confirmQuit = true
		return nil
	case "ctrl+p":
		if s.player.playing {
			return s.pause()
		}
		return s.play()
	case "ctrl+f":
		return s.seekBy(seekStep)
	case "ctrl+b":
		return s.seekBy(-seekStep)
	case "ctrl+s":
		return s.skip()
	case "ctrl+t":
		return s.apply(session.PanelToggled{Open: !s.state.PanelOpen})
	case "ctrl+o":
		return s.toggleMute()
	case "ctrl+r":
		return s.connect()
	}

	if mc := s.activeChoice(); mc != nil {
		var cmd tea.Cmd
		*mc, cmd = mc.Update(msg)
		return cmd
	}

	if _, pending := s.controller.Pending(); pending && s.input.Value() == "" {
		switch key {
		case "tab", "shift+tab", "enter":
			var cmd tea.Cmd
			s.bar, cmd = s.bar.Update(msg)
			return cmd
		}
	}

	if key == "enter" {
		return s.submit()
	}
	var cmd tea.Cmd
	s.input, cmd = s.input.Update(msg)
	return cmd
}

// activeChoice returns the multiple-choice widget if its question is the
// one the session is waiting on.
func (s *Screen) activeChoice() *components.MultiChoice {
	if s.choice == nil {
		return nil
	}
	id := s.choice.QuestionID
	if q, ok := s.state.Warmup.Current(); ok && q.ID == id {
		return s.choice
	}
	if a := s.state.ActiveInlessonQuestion; a != nil && a.QuestionID == id && a.Type == quiz.TypeMCQ {
		return s.choice
	}
	return nil
}

// submit sends the chat box: as the answer to an open text question, or
// as a chat message to the tutor.
func (s *Screen) submit() tea.Cmd {
	text := s.input.Value()
	if text == "" {
		return nil
	}
	s.input.Reset()

	if a := s.state.ActiveInlessonQuestion; a != nil && a.Type == quiz.TypeText {
		flow, id := s.flow, a.QuestionID
		s.input.SetPlaceholder("Ask the tutor anything...")
		return func() tea.Msg {
			flow.HandleAnswer(context.Background(), id, text)
			return nil
		}
	}
	return s.apply(session.UserMessageSent{MessageID: s.newID(), Text: text, MessageType: "text"})
}

func (s *Screen) skip() tea.Cmd {
	if q, ok := s.state.Warmup.Current(); ok {
		return s.apply(session.WarmupSkipped{QuestionID: q.ID})
	}
	if a := s.state.ActiveInlessonQuestion; a != nil {
		flow, id := s.flow, a.QuestionID
		return func() tea.Msg {
			flow.HandleSkip(context.Background(), id)
			return nil
		}
	}
	return nil
}

func (s *Screen) answerWarmup(questionID, option string) tea.Cmd {
	return s.apply(session.WarmupAnswered{QuestionID: questionID, Answer: option, MessageID: s.newID()})
}

func (s *Screen) answerInlesson(questionID, option string) tea.Cmd {
	flow := s.flow
	return func() tea.Msg {
		flow.HandleAnswer(context.Background(), questionID, option)
		return nil
	}
}

func (s *Screen) pressButton(buttonID string) tea.Cmd {
	return tea.Batch(
		s.apply(session.UserInteracted{MessageType: "button"}),
		s.apply(session.ActionButtonClicked{ButtonID: buttonID}),
	)
}

func (s *Screen) syncActionBar() {
	p, ok := s.controller.Pending()
	if !ok {
		s.barKey = ""
		return
	}
	key := string(p.Type) + "|" + p.AnchorMessageID
	if key != s.barKey {
		def, _ := actions.Lookup(p.Type)
		s.bar = components.NewActionBar(def, s.pressButton)
		s.barKey = key
	}
	s.bar.Disabled = s.controller.Actioned()
}

func (s *Screen) play() tea.Cmd {
	if s.state.Warmup.IsActive || s.state.ActiveInlessonQuestion != nil {
		s.notice = "Answer or skip the question first."
		return nil
	}
	tick := s.player.play()
	if tick == nil {
		return nil
	}
	s.notice = ""
	return tea.Batch(s.apply(session.PlayerPlaying{}), tick)
}

func (s *Screen) pause() tea.Cmd {
	s.player.pause()
	return s.apply(session.PlayerPaused{Position: s.player.position})
}

func (s *Screen) seekBy(delta float64) tea.Cmd {
	return s.apply(session.PlayerSeekRequested{Position: s.player.position + delta})
}

func (s *Screen) replay() tea.Cmd {
	return tea.Batch(s.apply(session.PlayerSeekRequested{Position: 0}), s.play())
}

func (s *Screen) startWarmup() tea.Cmd {
	if s.content == nil || len(s.content.Warmup) == 0 {
		return s.play()
	}
	return s.apply(session.WarmupStart{Questions: s.content.Warmup})
}

func (s *Screen) handleTick(msg playerTickMsg) tea.Cmd {
	if msg.Gen != s.player.gen || !s.player.playing {
		return nil
	}
	ended := s.player.advance()
	pos := s.player.position

	cmds := []tea.Cmd{s.apply(session.PlayerTimeUpdate{Position: pos})}
	if q, ok := s.dueQuestion(pos); ok {
		cmds = append(cmds, s.apply(session.PlayerFATrigger{Question: q, MessageID: s.newID()}))
	}
	if ended {
		cmds = append(cmds, s.apply(session.PlayerEnded{Position: pos}))
	} else if s.player.playing {
		cmds = append(cmds, s.player.tick())
	}
	return tea.Batch(cmds...)
}

// dueQuestion returns the earliest in-lesson question playback has reached
// that has not been asked yet.
func (s *Screen) dueQuestion(pos float64) (quiz.InlessonQuestion, bool) {
	if s.content == nil || s.state.ActiveInlessonQuestion != nil {
		return quiz.InlessonQuestion{}, false
	}
	for _, q := range s.content.InlessonAt(pos) {
		if _, asked := s.state.QuestionLog[q.ID]; !asked {
			return q, true
		}
	}
	return quiz.InlessonQuestion{}, false
}

func (s *Screen) toggleMute() tea.Cmd {
	if s.tutor == nil {
		return nil
	}
	t, log := s.tutor, s.log
	return func() tea.Msg {
		if err := t.ToggleMute(context.Background()); err != nil {
			log.Warn("toggle mute failed", "error", err)
		}
		return nil
	}
}

func (s *Screen) connect() tea.Cmd {
	if s.tutor == nil {
		return nil
	}
	t, log := s.tutor, s.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := t.Connect(ctx); err != nil {
			log.Warn("tutor connect failed", "error", err)
			return noticeMsg{Text: "Tutor offline. Press ctrl+r to retry."}
		}
		return nil
	}
}

func (s *Screen) tellTutorLesson() {
	if t, ok := s.tutor.(lessonAware); ok {
		t.SetLesson(s.lesson.Title, s.lesson.Summary)
	}
}

func (s *Screen) loadNextLesson() tea.Cmd {
	st, userID, courseID, current := s.deps.Store, s.userID, s.course.ID, s.lesson.ID
	return func() tea.Msg {
		ctx := context.Background()
		lessons, err := st.PublishedLessons(ctx, courseID)
		if err != nil {
			return lessonSwitchMsg{Err: err}
		}
		for i, l := range lessons {
			if l.ID != current {
				continue
			}
			if i+1 == len(lessons) {
				break
			}
			next := lessons[i+1]
			content, err := parseContent(next.Quiz)
			if err != nil {
				return lessonSwitchMsg{Err: err}
			}
			// The screen's Resolver is pinned to the first lesson; the next
			// one is classified against current progress.
			res, err := sessiontype.Resolve(ctx, st, userID, courseID, next.ID)
			if err != nil {
				return lessonSwitchMsg{Err: err}
			}
			progress, err := st.LessonProgress(ctx, userID, next.ID)
			if err != nil {
				return lessonSwitchMsg{Err: err}
			}
			return lessonSwitchMsg{Lesson: next, Content: content, Resolution: res, Progress: progress}
		}
		return noticeMsg{Text: "That was the last lesson in this course."}
	}
}

// handleSwitch moves the session to the next lesson in place.
func (s *Screen) handleSwitch(msg lessonSwitchMsg) tea.Cmd {
	if msg.Err != nil {
		s.log.Warn("next lesson load failed", "error", msg.Err)
		s.notice = "Could not load the next lesson."
		return nil
	}

	finish := s.finishRecord()
	s.lesson = msg.Lesson
	s.content = msg.Content
	s.choice = nil
	s.notice = ""
	s.log = s.deps.Logger.With("lesson_id", s.lesson.ID)
	s.player = newPlayer(s.lesson.DurationSecs)
	s.flow.SetLesson(s.userID, s.lesson.ID)
	s.tellTutorLesson()

	kind := msg.Resolution.SessionType
	if kind == "" {
		kind = actions.LessonWelcome
	}
	cmds := []tea.Cmd{
		finish,
		s.startRecord(string(kind)),
		s.apply(session.LessonSelected{LessonID: s.lesson.ID}),
		s.apply(session.PlayerReady{Duration: s.lesson.DurationSecs}),
	}
	if p := msg.Progress; p != nil && p.Status != store.StatusCompleted && p.LastPosition > 0 {
		cmds = append(cmds, s.apply(session.PlayerSeekRequested{Position: p.LastPosition}))
	}
	cmds = append(cmds, s.apply(session.ActionShow{Type: kind}))
	s.log.Info("switched lesson", "session_type", kind)
	return tea.Batch(cmds...)
}

// end closes the session and shows its summary.
func (s *Screen) end() tea.Cmd {
	s.confirmQuit = false
	var cmds []tea.Cmd
	if s.player.playing {
		cmds = append(cmds, s.pause())
	}
	sum := session.BuildSummary(s.state)
	cmds = append(cmds, s.finishRecord(), s.apply(session.SessionEnded{}))
	s.teardown()

	if t := s.tutor; t != nil {
		cmds = append(cmds, func() tea.Msg {
			t.Disconnect()
			return nil
		})
	}
	title := s.lesson.Title
	cmds = append(cmds, func() tea.Msg {
		return router.ReplaceScreenMsg{Screen: newSummaryScreen(title, sum)}
	})
	s.log.Info("lesson session ended",
		"warmup_correct", sum.WarmupCorrect, "inlesson_answered", sum.InlessonAnswered, "completion", sum.Completion)
	return tea.Batch(cmds...)
}

// teardown stops background delivery and releases handler registrations.
func (s *Screen) teardown() {
	s.closeOnce.Do(func() {
		close(s.done)
		for _, unregister := range s.unregister {
			unregister()
		}
		s.unregister = nil
		s.flow.Reset()
	})
}
