package session

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/abhisek/classmate/internal/actions"
)

// Reduce applies ev to s and returns the next state plus the effects the
// runtime must perform. It performs no I/O, reads no clock and never
// mutates maps or slices reachable from s.
func Reduce(s State, ev Event) (State, []Effect) {
	if ev == nil {
		return s, nil
	}

	switch e := ev.(type) {
	// Transport.
	case TransportConnected:
		if s.Connected {
			return s, stale(e, "already connected")
		}
		s.Connected = true
		return s, nil
	case TransportDisconnected:
		return reduceDisconnect(s, e)
	case MuteChanged:
		s.Muted = e.Muted
		return s, nil
	case AgentSpeaking:
		if !s.Connected {
			return s, stale(e, "agent speaking while disconnected")
		}
		s.AgentSpeaking = e.Speaking
		return s, nil

	// Transcript.
	case TranscriptPartial:
		return reducePartial(s, e)
	case TranscriptFinal:
		return reduceFinal(s, e)

	// Chat.
	case UserMessageSent:
		return reduceUserMessage(s, e)
	case AssistantMessageAdded:
		return reduceAssistantMessage(s, e)

	// Actions: the controller owns the pending action.
	case ActionShow:
		if _, ok := actions.Lookup(e.Type); !ok {
			return s, reject(e, "unknown action type "+string(e.Type))
		}
		return s, []Effect{ShowAction{Type: e.Type, Metadata: e.Metadata, AnchorMessageID: e.AnchorMessageID}}
	case ActionDismiss:
		return s, []Effect{DismissAction{}}
	case ActionButtonClicked:
		return s, []Effect{ClickAction{ButtonID: e.ButtonID}}

	// Warm-up.
	case WarmupStart:
		return reduceWarmupStart(s, e)
	case WarmupQuestionShown:
		return reduceWarmupShown(s, e)
	case WarmupAnswered:
		return reduceWarmupAnswered(s, e)
	case WarmupSkipped:
		return reduceWarmupSkipped(s, e)
	case WarmupComplete:
		if !s.Warmup.IsActive {
			return s, stale(e, "warm-up not active")
		}
		return finishWarmup(s)

	// In-lesson.
	case InlessonQuestionTriggered:
		return reduceTrigger(s, e, e.Question, e.MessageID)
	case PlayerFATrigger:
		return reduceTrigger(s, e, e.Question, e.MessageID)
	case InlessonQuestionShown:
		return reduceInlessonShown(s, e)
	case InlessonAnswered:
		return reduceInlessonAnswered(s, e)
	case InlessonSkipped:
		return reduceInlessonSkipped(s, e)
	case InlessonEvaluationResult:
		return reduceEvaluation(s, e)

	// Player.
	case PlayerReady:
		s.Player.Ready = true
		if e.Duration > 0 {
			s.Player.Duration = e.Duration
		}
		return s, nil
	case PlayerPlaying:
		s.Player.Playing = true
		return s, nil
	case PlayerPaused:
		s.Player.Playing = false
		s.Player.Position = s.clampPosition(e.Position)
		return saveProgress(s, false)
	case PlayerEnded:
		return reducePlayerEnded(s, e)
	case PlayerSeekRequested:
		pos := s.clampPosition(e.Position)
		s.Player.Position = pos
		return s, []Effect{SeekPlayer{Position: pos}}
	case PlayerTimeUpdate:
		s.Player.Position = s.clampPosition(e.Position)
		if abs(s.Player.Position-s.Player.LastSavedPosition) < s.Tuning.progressInterval() {
			return s, nil
		}
		return saveProgress(s, false)

	// Session.
	case SessionStarted:
		return reduceSessionStarted(s, e)
	case WelcomeStored:
		return reduceWelcomeStored(s, e)
	case LessonSelected:
		return reduceLessonSelected(s, e)
	case PanelToggled:
		s.PanelOpen = e.Open
		return s, nil
	case UserInteracted:
		s.UserHasInteracted = true
		if e.MessageType != "" {
			s.LastUserMessageType = e.MessageType
		}
		return s, nil
	case ToastRequested:
		if e.Toast != ToastSuccess && e.Toast != ToastError {
			return s, reject(e, "unknown toast kind "+string(e.Toast))
		}
		var eff Effect
		s, eff = raiseToast(s, e.Toast)
		return s, []Effect{eff}
	case ToastExpired:
		if e.Seq != s.ToastSeq {
			return s, stale(e, "toast superseded")
		}
		s.ShowSuccessToast = false
		s.ShowErrorToast = false
		return s, nil
	case SessionEnded:
		s.Ended = true
		s.StoredSegmentIDs = nil
		s.StoredVoiceMessages = nil
		return s, nil

	default:
		return s, reject(ev, "unhandled event")
	}
}

func reduceDisconnect(s State, e TransportDisconnected) (State, []Effect) {
	if !s.Connected {
		return s, stale(e, "already disconnected")
	}
	s.Connected = false
	s.AgentSpeaking = false
	s.ConnectionEpoch++

	// Partials from the old connection will never be finalized.
	if slices.ContainsFunc(s.Messages, func(m Message) bool { return m.Partial }) {
		s.Messages = slices.DeleteFunc(slices.Clone(s.Messages), func(m Message) bool { return m.Partial })
	}
	return s, nil
}

func reduceUserMessage(s State, e UserMessageSent) (State, []Effect) {
	text := strings.TrimSpace(e.Text)
	if text == "" || e.MessageID == "" {
		return s, reject(e, "empty user message")
	}
	typ := e.MessageType
	if typ == "" {
		typ = "text"
	}

	msg := Message{ID: e.MessageID, Role: RoleUser, Kind: KindChat, Text: text}
	s.Messages = appendMessage(s.Messages, msg)
	s.UserHasInteracted = true
	s.LastUserMessageType = typ

	effects := []Effect{s.persist(msg)}
	if s.Connected {
		effects = append(effects, SendToAgent{Text: text})
	}
	return s, effects
}

func reduceAssistantMessage(s State, e AssistantMessageAdded) (State, []Effect) {
	if e.MessageID == "" || strings.TrimSpace(e.Text) == "" {
		return s, reject(e, "empty assistant message")
	}
	if _, dup := s.MessageByID(e.MessageID); dup {
		return s, stale(e, "duplicate message id")
	}
	kind := e.MessageKind
	if kind == "" {
		kind = KindChat
	}
	msg := Message{ID: e.MessageID, Role: RoleAgent, Kind: kind, Text: e.Text, QuestionID: e.QuestionID}
	s.Messages = appendMessage(s.Messages, msg)
	return s, []Effect{s.persist(msg)}
}

func reduceSessionStarted(s State, e SessionStarted) (State, []Effect) {
	if s.Started {
		return s, stale(e, "session already started")
	}
	s.Started = true
	s.UserID = e.UserID
	s.CourseID = e.CourseID
	s.LessonID = e.LessonID
	s.IsReturningUser = e.IsReturningUser
	s.SessionType = e.SessionType

	if s.WelcomeStored || e.Greeting == "" || e.WelcomeMessageID == "" {
		return s, nil
	}
	return s, []Effect{StoreWelcome{MessageID: e.WelcomeMessageID, Text: e.Greeting}}
}

func reduceWelcomeStored(s State, e WelcomeStored) (State, []Effect) {
	if s.WelcomeStored {
		return s, nil
	}
	s.WelcomeStored = true
	s.WelcomeMessageID = e.MessageID
	s.Messages = appendMessage(s.Messages, Message{ID: e.MessageID, Role: RoleAgent, Kind: KindWelcome, Text: e.Text})

	if s.SessionType == "" {
		return s, nil
	}
	return s, []Effect{ShowAction{Type: s.SessionType, AnchorMessageID: e.MessageID}}
}

func reduceLessonSelected(s State, e LessonSelected) (State, []Effect) {
	if e.LessonID == "" || e.LessonID == s.LessonID {
		return s, stale(e, "lesson already selected")
	}
	s.LessonID = e.LessonID
	s.QuestionLog = nil
	s.Warmup = WarmupState{}
	s.ActiveInlessonQuestion = nil
	s.Player = PlayerState{}
	s.Messages = nil
	s.ShowSuccessToast = false
	s.ShowErrorToast = false
	return s, []Effect{DismissAction{}, ResetHandledActions{}}
}

func reducePlayerEnded(s State, e PlayerEnded) (State, []Effect) {
	if s.Player.Ended {
		return s, stale(e, "video already ended")
	}
	s.Player.Playing = false
	s.Player.Ended = true
	if e.Position > 0 {
		s.Player.Position = s.clampPosition(e.Position)
	} else {
		s.Player.Position = s.Player.Duration
	}

	s, effects := saveProgress(s, true)
	return s, append(effects, ShowAction{
		Type:     actions.LessonComplete,
		Metadata: map[string]string{"lesson_id": s.LessonID},
	})
}

func saveProgress(s State, ended bool) (State, []Effect) {
	if s.LessonID == "" {
		return s, nil
	}
	s.Player.LastSavedPosition = s.Player.Position
	return s, []Effect{UpdateProgress{
		UserID:               s.UserID,
		LessonID:             s.LessonID,
		LastPosition:         s.Player.Position,
		CompletionPercentage: s.Player.CompletionPercentage(),
		VideoEnded:           ended,
	}}
}

func raiseToast(s State, kind ToastKind) (State, Effect) {
	s.ToastSeq++
	s.ShowSuccessToast = kind == ToastSuccess
	s.ShowErrorToast = kind == ToastError
	return s, ScheduleToastClear{Seq: s.ToastSeq, After: s.Tuning.toastDuration()}
}

func (s State) persist(m Message) PersistMessage {
	return PersistMessage{UserID: s.UserID, LessonID: s.LessonID, Message: m}
}

func (s State) clampPosition(pos float64) float64 {
	if pos < 0 {
		return 0
	}
	if s.Player.Duration > 0 && pos > s.Player.Duration {
		return s.Player.Duration
	}
	return pos
}

func appendMessage(msgs []Message, m Message) []Message {
	return append(slices.Clip(msgs), m)
}

func withKey[V any](m map[string]V, k string, v V) map[string]V {
	out := maps.Clone(m)
	if out == nil {
		out = make(map[string]V, 1)
	}
	out[k] = v
	return out
}

func abs(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

func itoa(n int) string { return strconv.Itoa(n) }
