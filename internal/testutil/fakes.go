// Package testutil provides shared test doubles: a scripted game engine and
// a pusher that records everything delivered to it.
package testutil

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/gw31415/werewolf-web/internal/engine"
	"github.com/gw31415/werewolf-web/internal/protocol"
)

// FakeEngine is a minimal engine.Engine whose observable state is a counter
// bumped by every action. Every viewer sees the same snapshot; per-viewer
// filtering is the concern of real engines.
type FakeEngine struct {
	players  map[engine.Token]string
	names    map[string]bool
	actions  int
	started  bool
	FailNext error // next Execute returns this error once, if set
}

// NewFakeEngine creates an empty fake engine.
func NewFakeEngine() *FakeEngine {
	return &FakeEngine{
		players: make(map[engine.Token]string),
		names:   make(map[string]bool),
	}
}

// Start makes further signups fail with ErrGameAlreadyStarted.
func (f *FakeEngine) Start() { f.started = true }

// Signup issues a fresh token unless the name is taken or the game started.
func (f *FakeEngine) Signup(name string) (engine.Token, error) {
	if f.started {
		return engine.Token{}, engine.ErrGameAlreadyStarted
	}
	if f.names[name] {
		return engine.Token{}, &engine.NameAlreadyRegisteredError{Name: name}
	}
	token, err := engine.NewToken()
	if err != nil {
		return engine.Token{}, err
	}
	f.players[token] = name
	f.names[name] = true
	return token, nil
}

// Login returns a permission for tokens this engine issued.
func (f *FakeEngine) Login(token engine.Token) (engine.Permission, error) {
	if _, ok := f.players[token]; !ok {
		return nil, engine.ErrAuthenticationFailed
	}
	return &fakePermission{engine: f}, nil
}

// Name reports the name bound to a token.
func (f *FakeEngine) Name(token engine.Token) (string, bool) {
	name, ok := f.players[token]
	return name, ok
}

// Players returns all signed-up names, unsorted.
func (f *FakeEngine) Players() []string {
	names := make([]string, 0, len(f.players))
	for _, name := range f.players {
		names = append(names, name)
	}
	return names
}

// Actions reports how many actions executed successfully.
func (f *FakeEngine) Actions() int { return f.actions }

type fakePermission struct {
	engine *FakeEngine
}

// Execute bumps the action counter, except for the no-op action {"noop":true}
// which leaves state untouched, exercising diff suppression.
func (p *fakePermission) Execute(action json.RawMessage) error {
	if err := p.engine.FailNext; err != nil {
		p.engine.FailNext = nil
		return err
	}
	var decoded struct {
		Noop bool `json:"noop"`
	}
	_ = json.Unmarshal(action, &decoded)
	if !decoded.Noop {
		p.engine.actions++
	}
	return nil
}

func (p *fakePermission) ViewState() engine.State {
	return engine.State(fmt.Sprintf(`{"actions":%d}`, p.engine.actions))
}

// CapturePusher records every response pushed to it. Safe for concurrent use.
type CapturePusher struct {
	mu        sync.Mutex
	responses []protocol.Response
	closed    bool
}

// NewCapturePusher creates an empty recorder.
func NewCapturePusher() *CapturePusher {
	return &CapturePusher{}
}

// Push records the response. A closed pusher rejects pushes the way a dead
// session would.
func (c *CapturePusher) Push(resp protocol.Response) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("pusher closed")
	}
	c.responses = append(c.responses, resp)
	return nil
}

// Close marks the pusher closed.
func (c *CapturePusher) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

// Closed reports whether Close was called.
func (c *CapturePusher) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Responses returns a copy of everything pushed so far.
func (c *CapturePusher) Responses() []protocol.Response {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]protocol.Response, len(c.responses))
	copy(out, c.responses)
	return out
}

// Reset discards recorded responses.
func (c *CapturePusher) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.responses = nil
}

// States returns the state snapshots pushed, in order.
func (c *CapturePusher) States() []json.RawMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	var states []json.RawMessage
	for _, r := range c.responses {
		if r.Success != nil && r.Success.State != nil {
			states = append(states, r.Success.State)
		}
	}
	return states
}

// OnlineSets returns the online sets pushed, in order.
func (c *CapturePusher) OnlineSets() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sets [][]string
	for _, r := range c.responses {
		if r.Success != nil && r.Success.Online != nil {
			sets = append(sets, r.Success.Online)
		}
	}
	return sets
}

// MemberSets returns the membership sets pushed, in order.
func (c *CapturePusher) MemberSets() [][]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	var sets [][]string
	for _, r := range c.responses {
		if r.Success != nil && r.Success.Members != nil {
			sets = append(sets, r.Success.Members)
		}
	}
	return sets
}

// Errors returns the error bodies pushed, in order.
func (c *CapturePusher) Errors() []protocol.ErrorBody {
	c.mu.Lock()
	defer c.mu.Unlock()
	var errs []protocol.ErrorBody
	for _, r := range c.responses {
		if r.Error != nil {
			errs = append(errs, *r.Error)
		}
	}
	return errs
}
