// Package game provides a self-contained werewolf engine implementing the
// engine capability interfaces. It covers the lobby-to-night flow: players
// sign up, chat, start the game (which deals roles), and vote. State views
// are filtered per player: everyone sees their own role once dealt, and
// werewolves additionally see each other.
package game

import (
	"fmt"
	"math/rand"
	"sort"

	"github.com/gw31415/werewolf-web/internal/engine"
)

// Phase is the current stage of a game.
type Phase string

// Game phases.
const (
	PhaseLobby Phase = "lobby"
	PhaseNight Phase = "night"
)

// Role is a player's dealt role.
type Role string

// Roles dealt at game start.
const (
	RoleVillager Role = "villager"
	RoleWerewolf Role = "werewolf"
)

// MinPlayers is the smallest party that can start a game.
const MinPlayers = 3

type player struct {
	name string
	role Role // empty until the game starts
}

type chatEntry struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
}

// Engine is a single room's werewolf game. It satisfies engine.Engine.
// The router serializes all calls, so no internal locking is needed.
type Engine struct {
	phase   Phase
	players map[engine.Token]*player
	names   map[string]engine.Token
	chat    []chatEntry
	votes   map[string]string // voter name -> target name
	shuffle func(n int, swap func(i, j int))
}

// Option adjusts engine construction.
type Option func(*Engine)

// WithShuffle replaces the role-dealing shuffle, letting tests deal
// deterministic roles.
func WithShuffle(shuffle func(n int, swap func(i, j int))) Option {
	return func(e *Engine) { e.shuffle = shuffle }
}

// New creates an empty game in the lobby phase.
func New(opts ...Option) *Engine {
	e := &Engine{
		phase:   PhaseLobby,
		players: make(map[engine.Token]*player),
		names:   make(map[string]engine.Token),
		votes:   make(map[string]string),
		shuffle: rand.Shuffle,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Factory returns an engine.Factory producing fresh games.
func Factory(opts ...Option) engine.Factory {
	return func() engine.Engine { return New(opts...) }
}

// Signup registers a new player while the game is still in the lobby.
func (e *Engine) Signup(name string) (engine.Token, error) {
	if e.phase != PhaseLobby {
		return engine.Token{}, engine.ErrGameAlreadyStarted
	}
	if _, taken := e.names[name]; taken {
		return engine.Token{}, &engine.NameAlreadyRegisteredError{Name: name}
	}
	token, err := engine.NewToken()
	if err != nil {
		return engine.Token{}, err
	}
	e.players[token] = &player{name: name}
	e.names[name] = token
	return token, nil
}

// Login returns a permission scoped to the token's player.
func (e *Engine) Login(token engine.Token) (engine.Permission, error) {
	p, ok := e.players[token]
	if !ok {
		return nil, engine.ErrAuthenticationFailed
	}
	return &permission{engine: e, player: p}, nil
}

// Name reports the player name bound to a token.
func (e *Engine) Name(token engine.Token) (string, bool) {
	p, ok := e.players[token]
	if !ok {
		return "", false
	}
	return p.name, true
}

// Players returns all registered player names, sorted.
func (e *Engine) Players() []string {
	names := make([]string, 0, len(e.players))
	for _, p := range e.players {
		names = append(names, p.name)
	}
	sort.Strings(names)
	return names
}

// start deals roles and moves the game to the night phase.
// One werewolf per four players, at least one.
func (e *Engine) start() error {
	if e.phase != PhaseLobby {
		return engine.ErrGameAlreadyStarted
	}
	if len(e.players) < MinPlayers {
		return fmt.Errorf("need at least %d players to start, have %d", MinPlayers, len(e.players))
	}

	dealt := make([]*player, 0, len(e.players))
	for _, p := range e.players {
		dealt = append(dealt, p)
	}
	sort.Slice(dealt, func(i, j int) bool { return dealt[i].name < dealt[j].name })
	e.shuffle(len(dealt), func(i, j int) { dealt[i], dealt[j] = dealt[j], dealt[i] })

	wolves := len(dealt) / 4
	if wolves < 1 {
		wolves = 1
	}
	for i, p := range dealt {
		if i < wolves {
			p.role = RoleWerewolf
		} else {
			p.role = RoleVillager
		}
	}
	e.phase = PhaseNight
	return nil
}

func (e *Engine) werewolves() []string {
	var names []string
	for _, p := range e.players {
		if p.role == RoleWerewolf {
			names = append(names, p.name)
		}
	}
	sort.Strings(names)
	return names
}
