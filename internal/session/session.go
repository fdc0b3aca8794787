package session

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/HerbHall/distrocompare/internal/catalog"
)

// Session is one user's filter configuration and the views derived from
// it. Edits are serialized; re-evaluation after an edit is debounced and
// pushed to subscribers.
type Session struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`

	engine   *catalog.Engine
	store    StateStore
	logger   *zap.Logger
	now      func() time.Time
	debounce *Debouncer

	mu      sync.Mutex
	state   *catalog.FilterState
	touched time.Time
	subs    map[int]chan catalog.View
	nextSub int
	closed  bool
}

func newSession(id string, engine *catalog.Engine, store StateStore, delay time.Duration, now func() time.Time, logger *zap.Logger) *Session {
	t := now()
	s := &Session{
		ID:        id,
		CreatedAt: t,
		engine:    engine,
		store:     store,
		logger:    logger,
		now:       now,
		state:     catalog.NewFilterState(),
		touched:   t,
		subs:      make(map[int]chan catalog.View),
	}
	s.debounce = NewDebouncer(delay, s.evaluate)
	return s
}

// Update applies fn to the session's filter state. When fn succeeds the
// change is kept and a debounced re-evaluation is scheduled; when it fails
// the state is left untouched.
func (s *Session) Update(fn func(*catalog.FilterState) error) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	next := s.state.Clone()
	if err := fn(next); err != nil {
		s.mu.Unlock()
		return err
	}
	s.state = next
	s.touched = s.now()
	data, err := json.Marshal(next)
	s.mu.Unlock()

	if err == nil {
		s.store.Set(s.ID, data)
	}
	s.debounce.Trigger()
	return nil
}

// State returns a copy of the current filter state.
func (s *Session) State() *catalog.FilterState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// View evaluates the current state immediately. A pending debounced pass is
// run first so subscribers are not left behind.
func (s *Session) View() catalog.View {
	s.debounce.Flush()
	s.mu.Lock()
	s.touched = s.now()
	state := s.state.Clone()
	s.mu.Unlock()
	return s.engine.Evaluate(state)
}

// Badges lists the attributes with a priority other than Don't care.
func (s *Session) Badges() []catalog.Badge {
	return s.engine.Badges(s.State())
}

// Subscribe returns a channel receiving every view produced after an edit
// settles. Slow subscribers only see the latest view. The channel is closed
// by cancel or when the session closes.
func (s *Session) Subscribe() (<-chan catalog.View, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ch := make(chan catalog.View, 1)
	if s.closed {
		close(ch)
		return ch, func() {}
	}
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	return ch, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if c, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(c)
		}
	}
}

// IdleSince returns the time of the last edit or view.
func (s *Session) IdleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.touched
}

// Close stops pending evaluations and closes every subscription.
func (s *Session) Close() {
	s.debounce.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, ch := range s.subs {
		delete(s.subs, id)
		close(ch)
	}
	s.store.Remove(s.ID)
}

// evaluate is the debounced pass.
func (s *Session) evaluate() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	state := s.state.Clone()
	s.mu.Unlock()

	view := s.engine.Evaluate(state)

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, ch := range s.subs {
		// Replace an unread view with the newer one.
		select {
		case <-ch:
		default:
		}
		ch <- view
	}
	s.logger.Debug("session re-evaluated",
		zap.String("session", s.ID),
		zap.Int("filtered", view.Filtered),
		zap.Int("total", view.Total),
	)
}
