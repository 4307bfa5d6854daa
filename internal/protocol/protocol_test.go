package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestParsing(t *testing.T) {
	t.Run("signup", func(t *testing.T) {
		var req Request
		require.NoError(t, json.Unmarshal(
			[]byte(`{"connect":{"signup":{"name":"alice","room":"village"}}}`), &req))
		require.NotNil(t, req.Connect)
		require.NotNil(t, req.Connect.Signup)
		assert.Equal(t, "alice", req.Connect.Signup.Name)
		assert.Equal(t, "village", req.Connect.Signup.Room)
		assert.Empty(t, req.Connect.Token)
		assert.Nil(t, req.GameAction)
	})

	t.Run("token", func(t *testing.T) {
		var req Request
		require.NoError(t, json.Unmarshal(
			[]byte(`{"connect":{"token":"abc123"}}`), &req))
		require.NotNil(t, req.Connect)
		assert.Equal(t, "abc123", req.Connect.Token)
		assert.Nil(t, req.Connect.Signup)
	})

	t.Run("game action stays opaque", func(t *testing.T) {
		var req Request
		require.NoError(t, json.Unmarshal(
			[]byte(`{"gameAction":{"kind":"vote","target":"bob"}}`), &req))
		assert.Nil(t, req.Connect)
		assert.JSONEq(t, `{"kind":"vote","target":"bob"}`, string(req.GameAction))
	})
}

func TestResponseWireFormat(t *testing.T) {
	for _, tc := range []struct {
		name string
		resp Response
		want string
	}{
		{
			"auth success",
			AuthSuccess("tok", "village", "alice"),
			`{"success":{"authenticationSuccess":{"token":"tok","room":"village","name":"alice"}}}`,
		},
		{
			"state",
			StateUpdate(json.RawMessage(`{"phase":"night"}`)),
			`{"success":{"state":{"phase":"night"}}}`,
		},
		{
			"online",
			OnlineSet([]string{"alice", "bob"}),
			`{"success":{"online":["alice","bob"]}}`,
		},
		{
			"members",
			MemberSet([]string{"alice"}),
			`{"success":{"members":["alice"]}}`,
		},
		{
			"error",
			Errorf(KindInvalidToken, "token length must be 32 bytes"),
			`{"error":{"kind":"invalidToken","message":"token length must be 32 bytes"}}`,
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			got, err := json.Marshal(tc.resp)
			require.NoError(t, err)
			assert.Equal(t, tc.want, string(got))
		})
	}
}

// Empty and omitted fields must stay off the wire so clients can dispatch on
// the single populated member.
func TestUnionOmitsAbsentMembers(t *testing.T) {
	got, err := json.Marshal(OnlineSet([]string{"alice"}))
	require.NoError(t, err)
	assert.NotContains(t, string(got), "members")
	assert.NotContains(t, string(got), "state")
	assert.NotContains(t, string(got), "error")
}
