package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestViewStateTransitions(t *testing.T) {
	tests := []struct {
		name string
		from ViewState
		ev   Event
		want ViewState
	}{
		{"welcome to login", Initial(), EventShowLogin, ViewState{View: ViewLogin}},
		{"welcome to signup", Initial(), EventShowSignUp, ViewState{View: ViewLogin, SignUp: true}},
		{"welcome to guest", Initial(), EventContinueAsGuest, ViewState{View: ViewMain, Guest: true}},
		{"login toggles to signup", ViewState{View: ViewLogin}, EventShowSignUp, ViewState{View: ViewLogin, SignUp: true}},
		{"login authenticated", ViewState{View: ViewLogin, SignUp: true}, EventAuthenticated, ViewState{View: ViewMain}},
		{"login back", ViewState{View: ViewLogin}, EventBack, Initial()},
		{"guest signs in", ViewState{View: ViewMain, Guest: true}, EventShowLogin, ViewState{View: ViewLogin}},
		{"logout", ViewState{View: ViewMain}, EventLoggedOut, Initial()},
		{"guest leaves", ViewState{View: ViewMain, Guest: true}, EventLoggedOut, Initial()},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := tc.from.Next(tc.ev)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestViewStateIllegalTransitions(t *testing.T) {
	tests := []struct {
		from ViewState
		ev   Event
	}{
		{Initial(), EventAuthenticated},
		{Initial(), EventLoggedOut},
		{Initial(), EventBack},
		{ViewState{View: ViewLogin}, EventContinueAsGuest},
		{ViewState{View: ViewMain}, EventShowLogin},
		{ViewState{View: ViewMain}, EventAuthenticated},
	}

	for _, tc := range tests {
		got, err := tc.from.Next(tc.ev)
		var te *TransitionError
		require.True(t, errors.As(err, &te), "%s on %s", tc.ev, tc.from.View)
		assert.Equal(t, tc.from, got)
	}
}

func TestAuthenticated(t *testing.T) {
	assert.True(t, ViewState{View: ViewMain}.Authenticated())
	assert.False(t, ViewState{View: ViewMain, Guest: true}.Authenticated())
	assert.False(t, Initial().Authenticated())
}
