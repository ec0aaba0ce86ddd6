package client

import "fmt"

type View int

const (
	ViewWelcome View = iota
	ViewLogin
	ViewMain
)

func (v View) String() string {
	switch v {
	case ViewWelcome:
		return "welcome"
	case ViewLogin:
		return "login"
	case ViewMain:
		return "main"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

type Event int

const (
	EventShowLogin Event = iota
	EventShowSignUp
	EventContinueAsGuest
	EventAuthenticated
	EventBack
	EventLoggedOut
)

func (e Event) String() string {
	switch e {
	case EventShowLogin:
		return "show-login"
	case EventShowSignUp:
		return "show-signup"
	case EventContinueAsGuest:
		return "continue-as-guest"
	case EventAuthenticated:
		return "authenticated"
	case EventBack:
		return "back"
	case EventLoggedOut:
		return "logged-out"
	default:
		return fmt.Sprintf("event(%d)", int(e))
	}
}

// ViewState is the single source of truth for which screen is shown.
// SignUp selects the form on the login view; Guest marks free mode on the
// main view. Both are false everywhere else.
type ViewState struct {
	View   View
	SignUp bool
	Guest  bool
}

type TransitionError struct {
	From  ViewState
	Event Event
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("illegal transition: %s on %s", e.Event, e.From.View)
}

// Initial is the state a client starts in.
func Initial() ViewState {
	return ViewState{View: ViewWelcome}
}

// Next returns the state after e, or a TransitionError. The receiver is unchanged.
func (s ViewState) Next(e Event) (ViewState, error) {
	switch s.View {
	case ViewWelcome:
		switch e {
		case EventShowLogin:
			return ViewState{View: ViewLogin}, nil
		case EventShowSignUp:
			return ViewState{View: ViewLogin, SignUp: true}, nil
		case EventContinueAsGuest:
			return ViewState{View: ViewMain, Guest: true}, nil
		}

	case ViewLogin:
		switch e {
		case EventShowLogin:
			return ViewState{View: ViewLogin}, nil
		case EventShowSignUp:
			return ViewState{View: ViewLogin, SignUp: true}, nil
		case EventAuthenticated:
			return ViewState{View: ViewMain}, nil
		case EventBack:
			return ViewState{View: ViewWelcome}, nil
		}

	case ViewMain:
		switch e {
		case EventShowLogin:
			if s.Guest {
				return ViewState{View: ViewLogin}, nil
			}
		case EventShowSignUp:
			if s.Guest {
				return ViewState{View: ViewLogin, SignUp: true}, nil
			}
		case EventLoggedOut:
			return ViewState{View: ViewWelcome}, nil
		}
	}

	return s, &TransitionError{From: s, Event: e}
}

// Authenticated reports whether chats in this state are persisted.
func (s ViewState) Authenticated() bool {
	return s.View == ViewMain && !s.Guest
}
