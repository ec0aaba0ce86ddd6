package domain

// UserProfile is the identity provider's view of a user.
type UserProfile struct {
	ID        UserID    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	CreatedAt Timestamp `json:"created_at"`
}

// NewUser carries signup input after validation.
type NewUser struct {
	Email    string
	Password string
	Name     string
}

// AuthSession is what a successful sign-in returns.
type AuthSession struct {
	AccessToken string       `json:"accessToken"`
	User        *UserProfile `json:"user"`
}
