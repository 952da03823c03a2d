package actions

import (
	"context"
	"fmt"
	"sync"

	"github.com/abhisek/classmate/internal/logger"
)

// PendingAction is the overlay currently on screen.
type PendingAction struct {
	Type            ActionType
	Metadata        map[string]string
	AnchorMessageID string
}

// Controller is the single owner of the pending action. At most one action
// is pending at a time, and each action type is shown at most once until
// ResetHandledActions.
type Controller struct {
	mu       sync.Mutex
	handlers *HandlerRegistry
	log      *logger.Logger

	pending  *PendingAction
	showSeq  uint64
	actioned bool
	handled  map[ActionType]bool
	resetGen uint64

	onChange func()
}

// NewController creates a controller dispatching clicks through handlers.
func NewController(handlers *HandlerRegistry, log *logger.Logger) *Controller {
	if log == nil {
		log = logger.NewNop()
	}
	return &Controller{
		handlers: handlers,
		log:      log,
		handled:  make(map[ActionType]bool),
	}
}

// OnChange sets a callback invoked (outside the lock) after every change to
// the pending action or the actioned flag.
func (c *Controller) OnChange(fn func()) {
	c.mu.Lock()
	c.onChange = fn
	c.mu.Unlock()
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// ShowAction makes t the pending action. It is a no-op (returning false) if
// t was already handled this session or is not a known action type.
func (c *Controller) ShowAction(t ActionType, metadata map[string]string, anchorMessageID string) bool {
	if _, ok := Lookup(t); !ok {
		c.log.Warn("show unknown action", "type", t)
		return false
	}

	c.mu.Lock()
	if c.handled[t] {
		c.mu.Unlock()
		c.log.Debug("action already handled", "type", t)
		return false
	}
	md := make(map[string]string, len(metadata))
	for k, v := range metadata {
		md[k] = v
	}
	c.pending = &PendingAction{Type: t, Metadata: md, AnchorMessageID: anchorMessageID}
	c.showSeq++
	c.actioned = false
	c.mu.Unlock()

	c.notify()
	return true
}

// DismissAction marks the pending type handled and clears it.
func (c *Controller) DismissAction() {
	c.mu.Lock()
	if c.pending == nil {
		c.mu.Unlock()
		return
	}
	c.handled[c.pending.Type] = true
	c.pending = nil
	c.actioned = false
	c.mu.Unlock()

	c.notify()
}

// HandleButtonClick runs the registered handler for the pending action and
// buttonID. Buttons are disabled before the handler runs, so a second click
// while it is in flight is ignored. Handler failures are logged and the type
// is still marked handled, unless ResetHandledActions ran in the meantime.
func (c *Controller) HandleButtonClick(ctx context.Context, buttonID string) {
	c.mu.Lock()
	if c.pending == nil || c.actioned {
		c.mu.Unlock()
		c.log.Debug("ignored button click", "button", buttonID)
		return
	}
	action := *c.pending
	seq, gen := c.showSeq, c.resetGen
	def, _ := Lookup(action.Type)
	if !def.HasButton(buttonID) {
		c.mu.Unlock()
		c.log.Warn("click on unknown button", "type", action.Type, "button", buttonID)
		return
	}
	c.actioned = true
	c.mu.Unlock()
	c.notify()

	handler, ok := c.handlers.Lookup(action.Type, buttonID)
	if !ok {
		c.log.Warn("no handler registered", "type", action.Type, "button", buttonID)
		return
	}

	if err := runHandler(ctx, handler, action); err != nil {
		c.log.Error("action handler failed", "type", action.Type, "button", buttonID, "error", err)
	}

	c.mu.Lock()
	// A reset while the handler ran belongs to the next lesson; this click
	// must not mark the type handled there.
	if c.resetGen == gen {
		c.handled[action.Type] = true
	}
	// The handler may have shown a different action; leave that one alone.
	if c.pending != nil && c.showSeq == seq {
		if def.DismissAfterClick {
			c.pending = nil
		} else {
			c.actioned = false
		}
	}
	c.mu.Unlock()
	c.notify()
}

func runHandler(ctx context.Context, h Handler, action PendingAction) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ctx, action)
}

// HasBeenHandled reports whether t was dismissed or clicked this session.
func (c *Controller) HasBeenHandled(t ActionType) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.handled[t]
}

// ResetHandledActions forgets handled types, e.g. when a new lesson starts.
func (c *Controller) ResetHandledActions() {
	c.mu.Lock()
	c.handled = make(map[ActionType]bool)
	c.resetGen++
	c.mu.Unlock()
}

// Pending returns a copy of the pending action.
func (c *Controller) Pending() (PendingAction, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.pending == nil {
		return PendingAction{}, false
	}
	return *c.pending, true
}

// Actioned reports whether the pending action's buttons are disabled.
func (c *Controller) Actioned() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.actioned
}
