package game

import (
	"encoding/json"
	"fmt"

	"github.com/gw31415/werewolf-web/internal/engine"
)

// action is the decoded shape of a game action payload.
type action struct {
	Kind   string `json:"kind"`
	Text   string `json:"text,omitempty"`
	Target string `json:"target,omitempty"`
}

// Supported action kinds.
const (
	actionChat  = "chat"
	actionStart = "start"
	actionVote  = "vote"
)

// permission scopes engine calls to one player's viewpoint.
type permission struct {
	engine *Engine
	player *player
}

// Execute applies one action on behalf of the permission's player.
func (p *permission) Execute(raw json.RawMessage) error {
	var act action
	if err := json.Unmarshal(raw, &act); err != nil {
		return fmt.Errorf("decoding action: %w", err)
	}

	switch act.Kind {
	case actionChat:
		if act.Text == "" {
			return fmt.Errorf("chat action requires text")
		}
		p.engine.chat = append(p.engine.chat, chatEntry{Speaker: p.player.name, Text: act.Text})
		return nil

	case actionStart:
		return p.engine.start()

	case actionVote:
		if p.engine.phase == PhaseLobby {
			return fmt.Errorf("voting is not allowed before the game starts")
		}
		if _, ok := p.engine.names[act.Target]; !ok {
			return fmt.Errorf("unknown vote target %q", act.Target)
		}
		p.engine.votes[p.player.name] = act.Target
		return nil

	default:
		return fmt.Errorf("unsupported action kind %q", act.Kind)
	}
}

// view is the serialized per-player state snapshot.
type view struct {
	Phase      Phase             `json:"phase"`
	Players    []string          `json:"players"`
	Chat       []chatEntry       `json:"chat"`
	You        youView           `json:"you"`
	Werewolves []string          `json:"werewolves,omitempty"`
	Votes      map[string]string `json:"votes,omitempty"`
}

type youView struct {
	Name string `json:"name"`
	Role Role   `json:"role,omitempty"`
}

// ViewState renders what this player may see. Werewolves see the full wolf
// list; villagers never learn who the wolves are.
func (p *permission) ViewState() engine.State {
	v := view{
		Phase:   p.engine.phase,
		Players: p.engine.Players(),
		Chat:    p.engine.chat,
		You:     youView{Name: p.player.name, Role: p.player.role},
	}
	if p.player.role == RoleWerewolf {
		v.Werewolves = p.engine.werewolves()
	}
	if len(p.engine.votes) > 0 {
		v.Votes = p.engine.votes
	}

	raw, err := json.Marshal(v)
	if err != nil {
		// The view contains only marshalable fields; failure here is a bug.
		panic(fmt.Sprintf("game: marshalling state view: %v", err))
	}
	return engine.State(raw)
}
