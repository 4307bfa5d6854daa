// Package router is the serialization point for all room-mutating
// operations: signup, reconnection, disconnection, game-action dispatch, and
// the resulting broadcasts. It owns every room and the global token index.
//
// The Router runs as a single goroutine draining an operation mailbox, so no
// two operations ever interleave and every client observes a consistent
// sequence of states for its room. Only the call into a room's engine takes
// non-trivial time; engines are assumed fast relative to network I/O.
package router

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/gw31415/werewolf-web/internal/engine"
	"github.com/gw31415/werewolf-web/internal/protocol"
)

// Pusher delivers asynchronous responses to one client connection. Push must
// not block the caller; Close force-terminates the owning session and is
// used when a newer connection replaces it.
type Pusher interface {
	Push(resp protocol.Response) error
	Close()
}

// Identifier selects how a Connect authenticates: by signing up a new player
// or by presenting a previously issued token.
type Identifier interface {
	isIdentifier()
}

// Signup creates a new player in the named room, creating the room first if
// it does not exist.
type Signup struct {
	Name string
	Room string
}

func (Signup) isIdentifier() {}

// Reconnect re-attaches a connection to the room that issued the token.
type Reconnect struct {
	Token engine.Token
}

func (Reconnect) isIdentifier() {}

// Router maps tokens to rooms and serializes every mutating operation.
// All methods are safe for concurrent use.
type Router struct {
	logger  *zap.Logger
	factory engine.Factory

	ops      chan op
	quit     chan struct{}
	stopOnce sync.Once

	// rooms and index are touched only from the operation loop.
	rooms map[string]*room
	index map[engine.Token]string // token -> room name, purged at room teardown
}

// New creates a Router. Start must be called before any operation completes.
//
// Precondition: factory and logger must be non-nil.
func New(factory engine.Factory, logger *zap.Logger) *Router {
	return &Router{
		logger:  logger,
		factory: factory,
		ops:     make(chan op, 64),
		quit:    make(chan struct{}),
		rooms:   make(map[string]*room),
		index:   make(map[engine.Token]string),
	}
}

// Start drains the operation mailbox until Stop is called. It blocks, which
// makes the Router a lifecycle service.
func (r *Router) Start() error {
	for {
		select {
		case o := <-r.ops:
			o.apply(r)
		case <-r.quit:
			return nil
		}
	}
}

// Stop terminates the operation loop. Pending and future operations fail
// with ErrStopped.
func (r *Router) Stop() {
	r.stopOnce.Do(func() { close(r.quit) })
}

// Connect authenticates a session, registers its pusher in the right room,
// and returns the session's token. Broadcasts triggered by the connection
// are fully delivered before the next operation is accepted.
func (r *Router) Connect(ctx context.Context, id Identifier, sid string, pusher Pusher) (engine.Token, error) {
	o := &connectOp{id: id, sid: sid, pusher: pusher, reply: make(chan connectReply, 1)}
	if err := r.enqueue(ctx, o); err != nil {
		return engine.Token{}, err
	}
	select {
	case rep := <-o.reply:
		return rep.token, rep.err
	case <-r.quit:
		return engine.Token{}, ErrStopped
	case <-ctx.Done():
		return engine.Token{}, ctx.Err()
	}
}

// Disconnect removes the session's connection from its room, destroying the
// room if it was the last one. A disconnect from a session whose connection
// was already replaced is a harmless no-op.
func (r *Router) Disconnect(ctx context.Context, token engine.Token, sid string) error {
	o := &disconnectOp{token: token, sid: sid, reply: make(chan error, 1)}
	if err := r.enqueue(ctx, o); err != nil {
		return err
	}
	select {
	case err := <-o.reply:
		return err
	case <-r.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Dispatch enqueues a game action for the token's room. It is
// fire-and-forget: failures are pushed to the requesting connection only and
// never affect the rest of the room.
func (r *Router) Dispatch(token engine.Token, action json.RawMessage) {
	select {
	case r.ops <- &dispatchOp{token: token, action: action}:
	case <-r.quit:
	}
}

func (r *Router) enqueue(ctx context.Context, o op) error {
	select {
	case r.ops <- o:
		return nil
	case <-r.quit:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// room resolves an indexed room name, panicking on registry corruption: an
// index entry must always point at a live room.
func (r *Router) room(name string) *room {
	rm, ok := r.rooms[name]
	if !ok {
		panic(fmt.Sprintf("router: index references room %q which does not exist", name))
	}
	return rm
}

type op interface {
	apply(*Router)
}

type connectReply struct {
	token engine.Token
	err   error
}

type connectOp struct {
	id     Identifier
	sid    string
	pusher Pusher
	reply  chan connectReply
}

func (o *connectOp) apply(r *Router) {
	switch id := o.id.(type) {
	case Signup:
		rm, ok := r.rooms[id.Room]
		if !ok {
			rm = newRoom(id.Room, r.factory())
		}
		token, err := rm.eng.Signup(id.Name)
		if err != nil {
			// A room created for a failed signup never had a member,
			// so it is simply not kept.
			o.reply <- connectReply{err: err}
			return
		}
		if !ok {
			r.rooms[id.Room] = rm
			r.logger.Info("room opened", zap.String("room", id.Room))
		}
		r.index[token] = id.Room
		r.register(rm, token, id.Name, o, true)

	case Reconnect:
		roomName, ok := r.index[id.Token]
		if !ok {
			o.reply <- connectReply{err: ErrInvalidToken}
			return
		}
		rm := r.room(roomName)
		name, ok := rm.eng.Name(id.Token)
		if !ok {
			panic(fmt.Sprintf("router: indexed token for room %q unknown to its engine", roomName))
		}
		r.register(rm, id.Token, name, o, false)

	default:
		o.reply <- connectReply{err: fmt.Errorf("unknown identifier type %T", o.id)}
	}
}

// register wires the pusher into the room and emits the connection
// broadcasts: the auth confirmation to the new connection, the online set to
// everyone, and the membership set to everyone on signup or to just the new
// connection on reconnect.
func (r *Router) register(rm *room, token engine.Token, name string, o *connectOp, signup bool) {
	if replaced := rm.insert(token, o.sid, o.pusher); replaced != nil {
		replaced.pusher.Close()
		r.logger.Info("connection replaced",
			zap.String("room", rm.name),
			zap.String("player", name),
			zap.String("old_session", replaced.sid),
			zap.String("session", o.sid),
		)
	}

	_ = o.pusher.Push(protocol.AuthSuccess(token.String(), rm.name, name))
	rm.broadcastOnline()
	if signup {
		rm.broadcastMembers()
	} else {
		_ = o.pusher.Push(protocol.MemberSet(rm.memberNames()))
	}

	r.logger.Info("player connected",
		zap.String("room", rm.name),
		zap.String("player", name),
		zap.String("session", o.sid),
		zap.Bool("signup", signup),
		zap.Int("online", len(rm.conns)),
	)
	o.reply <- connectReply{token: token}
}

type disconnectOp struct {
	token engine.Token
	sid   string
	reply chan error
}

func (o *disconnectOp) apply(r *Router) {
	roomName, ok := r.index[o.token]
	if !ok {
		o.reply <- ErrInvalidToken
		return
	}
	rm := r.room(roomName)

	removed, empty := rm.remove(o.token, o.sid)
	if !removed {
		r.logger.Debug("stale disconnect ignored",
			zap.String("room", roomName),
			zap.String("session", o.sid),
		)
		o.reply <- nil
		return
	}

	if empty {
		delete(r.rooms, roomName)
		for token, name := range r.index {
			if name == roomName {
				delete(r.index, token)
			}
		}
		r.logger.Info("room closed", zap.String("room", roomName))
	} else {
		rm.broadcastOnline()
	}

	r.logger.Info("player disconnected",
		zap.String("room", roomName),
		zap.String("session", o.sid),
		zap.Int("online", len(rm.conns)),
	)
	o.reply <- nil
}

type dispatchOp struct {
	token  engine.Token
	action json.RawMessage
}

func (o *dispatchOp) apply(r *Router) {
	roomName, ok := r.index[o.token]
	if !ok {
		// The room was torn down between the session's send and now.
		r.logger.Debug("dropping action for unindexed token")
		return
	}
	rm := r.room(roomName)
	conn, ok := rm.conns[o.token]
	if !ok {
		r.logger.Debug("dropping action without live connection",
			zap.String("room", roomName),
		)
		return
	}

	perm, err := rm.eng.Login(o.token)
	if err != nil {
		// An indexed token the engine rejects points at registry drift;
		// the requester gets the error and nobody else is disturbed.
		r.logger.Error("engine rejected indexed token",
			zap.String("room", roomName),
			zap.Error(err),
		)
		_ = conn.pusher.Push(protocol.Errorf(protocol.KindAuthenticationFailed, engine.ErrAuthenticationFailed.Error()))
		return
	}

	if err := perm.Execute(o.action); err != nil {
		_ = conn.pusher.Push(ErrorResponse(err))
		return
	}

	rm.pushStateDiffs()
}
