package router

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/gw31415/werewolf-web/internal/engine"
	"github.com/gw31415/werewolf-web/internal/protocol"
)

// connection is one live client wired to a room, keyed by token.
type connection struct {
	sid    string
	pusher Pusher
	// lastState is the most recent snapshot successfully pushed to this
	// connection, nil before the first push.
	lastState engine.State
}

// pushState pushes the snapshot if it differs from the last one delivered,
// and records it only after a successful push so a failed delivery is
// retried on the next state change.
func (c *connection) pushState(state engine.State) {
	if c.lastState != nil && state.Equal(c.lastState) {
		return
	}
	if err := c.pusher.Push(protocol.StateUpdate(json.RawMessage(state))); err != nil {
		return
	}
	c.lastState = state
}

// room owns one engine instance and the registry of live connections into
// it. Rooms are internal to the Router and only touched from its operation
// loop, so no locking happens here.
type room struct {
	name  string
	eng   engine.Engine
	conns map[engine.Token]*connection
}

func newRoom(name string, eng engine.Engine) *room {
	return &room{
		name:  name,
		eng:   eng,
		conns: make(map[engine.Token]*connection),
	}
}

// insert registers a connection for the token, returning the connection it
// replaced, if any.
func (rm *room) insert(token engine.Token, sid string, pusher Pusher) *connection {
	replaced := rm.conns[token]
	rm.conns[token] = &connection{sid: sid, pusher: pusher}
	return replaced
}

// remove drops the token's connection if it still belongs to the given
// session. A mismatched sid means the connection was replaced by a newer
// session and the stale removal is ignored.
func (rm *room) remove(token engine.Token, sid string) (removed, empty bool) {
	conn, ok := rm.conns[token]
	if !ok || conn.sid != sid {
		return false, len(rm.conns) == 0
	}
	delete(rm.conns, token)
	return true, len(rm.conns) == 0
}

// onlineNames resolves the names of all currently connected tokens, sorted.
func (rm *room) onlineNames() []string {
	names := make([]string, 0, len(rm.conns))
	for token := range rm.conns {
		name, ok := rm.eng.Name(token)
		if !ok {
			panic(fmt.Sprintf("router: room %q registry holds token unknown to its engine", rm.name))
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// broadcastOnline pushes the current online set to every connection.
func (rm *room) broadcastOnline() {
	resp := protocol.OnlineSet(rm.onlineNames())
	for _, conn := range rm.conns {
		_ = conn.pusher.Push(resp)
	}
}

// memberNames returns every signed-up name, connected or not, sorted.
func (rm *room) memberNames() []string {
	names := rm.eng.Players()
	sort.Strings(names)
	return names
}

// broadcastMembers pushes the full membership set to every connection.
func (rm *room) broadcastMembers() {
	resp := protocol.MemberSet(rm.memberNames())
	for _, conn := range rm.conns {
		_ = conn.pusher.Push(resp)
	}
}

// pushStateDiffs recomputes every connection's view under its own login and
// pushes snapshots that changed since the last delivery.
func (rm *room) pushStateDiffs() {
	for token, conn := range rm.conns {
		perm, err := rm.eng.Login(token)
		if err != nil {
			panic(fmt.Sprintf("router: room %q engine rejected a registered token: %v", rm.name, err))
		}
		conn.pushState(perm.ViewState())
	}
}
