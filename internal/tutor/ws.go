package tutor

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/abhisek/classmate/internal/logger"
	"github.com/abhisek/classmate/internal/quiz"
	"github.com/abhisek/classmate/internal/session"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
)

// WSTransport talks to a voice gateway using JSON frames over websocket.
type WSTransport struct {
	url    string
	header http.Header
	sink   Sink
	log    *logger.Logger
	newID  func() string

	mu     sync.Mutex
	conn   *websocket.Conn
	cancel context.CancelFunc
	muted  bool
}

// WSOption configures a WSTransport.
type WSOption func(*WSTransport)

// WithHeader adds request headers to the websocket handshake.
func WithHeader(h http.Header) WSOption {
	return func(t *WSTransport) { t.header = h }
}

// WithIDs overrides message id generation.
func WithIDs(fn func() string) WSOption {
	return func(t *WSTransport) { t.newID = fn }
}

// NewWSTransport returns a transport for the gateway at url.
func NewWSTransport(url string, sink Sink, log *logger.Logger, opts ...WSOption) *WSTransport {
	if log == nil {
		log = logger.NewNop()
	}
	t := &WSTransport{url: url, sink: sink, log: log, newID: uuid.NewString}
	for _, o := range opts {
		o(t)
	}
	return t
}

// Connect dials the gateway and starts the read loop. Connecting twice is
// a no-op.
func (t *WSTransport) Connect(ctx context.Context) error {
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		return nil
	}
	t.mu.Unlock()

	conn, _, err := websocket.Dial(ctx, t.url, &websocket.DialOptions{HTTPHeader: t.header})
	if err != nil {
		return fmt.Errorf("dial tutor gateway: %w", err)
	}

	readCtx, cancel := context.WithCancel(context.Background())
	t.mu.Lock()
	if t.conn != nil {
		t.mu.Unlock()
		cancel()
		conn.Close(websocket.StatusNormalClosure, "duplicate connect")
		return nil
	}
	t.conn, t.cancel, t.muted = conn, cancel, false
	t.mu.Unlock()

	t.log.Info("tutor connected", "url", t.url)
	t.sink(session.TransportConnected{})
	go t.readLoop(readCtx, conn)
	return nil
}

// Disconnect closes the connection. Events already in flight from the read
// loop are dropped by the reducer once it has seen the disconnect.
func (t *WSTransport) Disconnect() {
	conn, ok := t.detach()
	if !ok {
		return
	}
	if err := conn.Close(websocket.StatusNormalClosure, "session ended"); err != nil {
		t.log.Debug("close tutor websocket", "error", err)
	}
	t.sink(session.TransportDisconnected{Reason: "client"})
}

// detach clears the connection and stops the read loop. It reports false
// if there was nothing to detach.
func (t *WSTransport) detach() (*websocket.Conn, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil, false
	}
	conn := t.conn
	t.cancel()
	t.conn, t.cancel = nil, nil
	return conn, true
}

// Connected reports whether a gateway connection is open.
func (t *WSTransport) Connected() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.conn != nil
}

// ToggleMute flips the microphone state on the gateway.
func (t *WSTransport) ToggleMute(ctx context.Context) error {
	t.mu.Lock()
	muted := !t.muted
	t.mu.Unlock()

	if err := t.write(ctx, outbound{Type: frameMute, Muted: &muted}); err != nil {
		return err
	}

	t.mu.Lock()
	t.muted = muted
	t.mu.Unlock()
	t.sink(session.MuteChanged{Muted: muted})
	return nil
}

// SendText sends a typed learner message to the tutor.
func (t *WSTransport) SendText(ctx context.Context, text string) error {
	return t.write(ctx, outbound{Type: frameText, Text: text})
}

// EvaluateAnswer asks the gateway to score a free-text answer.
func (t *WSTransport) EvaluateAnswer(ctx context.Context, q quiz.InlessonQuestion, answer string) error {
	return t.write(ctx, outbound{
		Type:       frameEvaluate,
		QuestionID: q.ID,
		Question:   q.Question,
		Answer:     answer,
	})
}

func (t *WSTransport) write(ctx context.Context, f outbound) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}
	if err := wsjson.Write(ctx, conn, f); err != nil {
		return fmt.Errorf("send %s frame: %w", f.Type, err)
	}
	return nil
}

func (t *WSTransport) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		var f inbound
		err := wsjson.Read(ctx, conn, &f)
		if err != nil {
			if ctx.Err() != nil {
				// Disconnect was called.
				return
			}
			reason := "connection lost"
			if status := websocket.CloseStatus(err); status != -1 {
				reason = fmt.Sprintf("closed by gateway (%d)", status)
				t.log.Info("tutor gateway closed the connection", "status", status)
			} else if !errors.Is(err, context.Canceled) {
				t.log.Warn("tutor read failed", "error", err)
			}
			if _, ok := t.detach(); ok {
				t.sink(session.TransportDisconnected{Reason: reason})
			}
			return
		}

		if ev := t.translate(f); ev != nil {
			t.sink(ev)
		}
	}
}

// translate maps an inbound frame to a session event, or nil for frames
// the client does not understand.
func (t *WSTransport) translate(f inbound) session.Event {
	switch f.Type {
	case frameTranscript:
		role := session.RoleAgent
		if f.Role == string(session.RoleUser) {
			role = session.RoleUser
		}
		if !f.Final {
			return session.TranscriptPartial{Role: role, SegmentID: f.SegmentID, Text: f.Text}
		}
		id := f.SegmentID
		if id == "" {
			id = t.newID()
		}
		return session.TranscriptFinal{Role: role, SegmentID: f.SegmentID, MessageID: id, Text: f.Text}

	case frameAgentSpeaking:
		return session.AgentSpeaking{Speaking: f.Speaking}

	case frameEvaluation:
		if f.QuestionID == "" {
			t.log.Warn("evaluation frame without question id")
			return nil
		}
		return session.InlessonEvaluationResult{
			QuestionID: f.QuestionID,
			Correct:    f.Correct,
			Feedback:   f.Feedback,
			MessageID:  t.newID(),
		}
	}

	t.log.Debug("ignoring tutor frame", "type", f.Type)
	return nil
}
