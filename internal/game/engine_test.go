package game

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gw31415/werewolf-web/internal/engine"
)

// noShuffle keeps the alphabetical deal order so tests know who the wolf is.
func noShuffle(n int, swap func(i, j int)) {}

func signupN(t *testing.T, e *Engine, names ...string) map[string]engine.Token {
	t.Helper()
	tokens := make(map[string]engine.Token, len(names))
	for _, name := range names {
		token, err := e.Signup(name)
		require.NoError(t, err)
		tokens[name] = token
	}
	return tokens
}

func execute(t *testing.T, e *Engine, token engine.Token, action string) error {
	t.Helper()
	perm, err := e.Login(token)
	require.NoError(t, err)
	return perm.Execute(json.RawMessage(action))
}

func viewOf(t *testing.T, e *Engine, token engine.Token) view {
	t.Helper()
	perm, err := e.Login(token)
	require.NoError(t, err)
	var v view
	require.NoError(t, json.Unmarshal(perm.ViewState(), &v))
	return v
}

func TestSignupIssuesDistinctTokens(t *testing.T) {
	e := New()
	tokens := signupN(t, e, "alice", "bob", "carol")
	assert.NotEqual(t, tokens["alice"], tokens["bob"])
	assert.Equal(t, []string{"alice", "bob", "carol"}, e.Players())
}

func TestSignupDuplicateName(t *testing.T) {
	e := New()
	signupN(t, e, "alice")

	_, err := e.Signup("alice")
	var nameErr *engine.NameAlreadyRegisteredError
	require.ErrorAs(t, err, &nameErr)
	assert.Equal(t, "alice", nameErr.Name)
	assert.Len(t, e.Players(), 1)
}

func TestSignupAfterStart(t *testing.T) {
	e := New(WithShuffle(noShuffle))
	tokens := signupN(t, e, "alice", "bob", "carol")
	require.NoError(t, execute(t, e, tokens["alice"], `{"kind":"start"}`))

	_, err := e.Signup("dave")
	assert.ErrorIs(t, err, engine.ErrGameAlreadyStarted)
}

func TestLoginUnknownToken(t *testing.T) {
	e := New()
	_, err := e.Login(engine.Token{})
	assert.ErrorIs(t, err, engine.ErrAuthenticationFailed)
}

func TestNameLookup(t *testing.T) {
	e := New()
	tokens := signupN(t, e, "alice")

	name, ok := e.Name(tokens["alice"])
	require.True(t, ok)
	assert.Equal(t, "alice", name)

	_, ok = e.Name(engine.Token{})
	assert.False(t, ok)
}

func TestStartNeedsEnoughPlayers(t *testing.T) {
	e := New()
	tokens := signupN(t, e, "alice", "bob")
	err := execute(t, e, tokens["alice"], `{"kind":"start"}`)
	assert.ErrorContains(t, err, "at least")
}

func TestStartDealsRoles(t *testing.T) {
	e := New(WithShuffle(noShuffle))
	tokens := signupN(t, e, "alice", "bob", "carol", "dave", "erin")
	require.NoError(t, execute(t, e, tokens["alice"], `{"kind":"start"}`))

	// 5 players deal one werewolf; with the shuffle disabled the deal order
	// is alphabetical, so alice is the wolf.
	wolves := 0
	for name, token := range tokens {
		v := viewOf(t, e, token)
		assert.Equal(t, PhaseNight, v.Phase)
		assert.Equal(t, name, v.You.Name)
		require.NotEmpty(t, v.You.Role)
		if v.You.Role == RoleWerewolf {
			wolves++
		}
	}
	assert.Equal(t, 1, wolves)
	assert.Equal(t, RoleWerewolf, viewOf(t, e, tokens["alice"]).You.Role)
}

func TestStartTwice(t *testing.T) {
	e := New(WithShuffle(noShuffle))
	tokens := signupN(t, e, "alice", "bob", "carol")
	require.NoError(t, execute(t, e, tokens["alice"], `{"kind":"start"}`))
	assert.ErrorIs(t, execute(t, e, tokens["alice"], `{"kind":"start"}`), engine.ErrGameAlreadyStarted)
}

func TestViewFiltersWolfList(t *testing.T) {
	e := New(WithShuffle(noShuffle))
	tokens := signupN(t, e, "alice", "bob", "carol", "dave", "erin", "frank", "grace", "heidi")
	require.NoError(t, execute(t, e, tokens["alice"], `{"kind":"start"}`))

	// 8 players deal two werewolves: alice and bob in deal order.
	aliceView := viewOf(t, e, tokens["alice"])
	assert.Equal(t, []string{"alice", "bob"}, aliceView.Werewolves)

	carolView := viewOf(t, e, tokens["carol"])
	assert.Equal(t, RoleVillager, carolView.You.Role)
	assert.Empty(t, carolView.Werewolves, "villagers must not see the wolf list")
}

func TestChat(t *testing.T) {
	e := New()
	tokens := signupN(t, e, "alice", "bob")
	require.NoError(t, execute(t, e, tokens["alice"], `{"kind":"chat","text":"hello"}`))

	v := viewOf(t, e, tokens["bob"])
	require.Len(t, v.Chat, 1)
	assert.Equal(t, "alice", v.Chat[0].Speaker)
	assert.Equal(t, "hello", v.Chat[0].Text)

	assert.Error(t, execute(t, e, tokens["alice"], `{"kind":"chat"}`))
}

func TestVote(t *testing.T) {
	e := New(WithShuffle(noShuffle))
	tokens := signupN(t, e, "alice", "bob", "carol")

	assert.Error(t, execute(t, e, tokens["alice"], `{"kind":"vote","target":"bob"}`),
		"voting before start must fail")

	require.NoError(t, execute(t, e, tokens["alice"], `{"kind":"start"}`))
	require.NoError(t, execute(t, e, tokens["alice"], `{"kind":"vote","target":"bob"}`))
	assert.Error(t, execute(t, e, tokens["alice"], `{"kind":"vote","target":"nobody"}`))

	v := viewOf(t, e, tokens["carol"])
	assert.Equal(t, map[string]string{"alice": "bob"}, v.Votes)
}

func TestUnknownAction(t *testing.T) {
	e := New()
	tokens := signupN(t, e, "alice")
	assert.Error(t, execute(t, e, tokens["alice"], `{"kind":"fly"}`))
	assert.Error(t, execute(t, e, tokens["alice"], `not json`))
}

func TestViewStateIsDeterministic(t *testing.T) {
	e := New()
	tokens := signupN(t, e, "alice", "bob")
	require.NoError(t, execute(t, e, tokens["alice"], `{"kind":"chat","text":"hi"}`))

	perm, err := e.Login(tokens["bob"])
	require.NoError(t, err)
	first := perm.ViewState()
	second := perm.ViewState()
	assert.True(t, first.Equal(second), "identical game state must serialize identically")
}

func TestWolfCountScales(t *testing.T) {
	for _, tc := range []struct {
		players int
		wolves  int
	}{
		{3, 1}, {4, 1}, {7, 1}, {8, 2}, {12, 3},
	} {
		e := New(WithShuffle(noShuffle))
		names := make([]string, tc.players)
		for i := range names {
			names[i] = fmt.Sprintf("p%02d", i)
		}
		tokens := signupN(t, e, names...)
		require.NoError(t, execute(t, e, tokens[names[0]], `{"kind":"start"}`))
		assert.Len(t, e.werewolves(), tc.wolves, "%d players", tc.players)
	}
}
