package models

// Identity describes who is using the journal and therefore which store owns their dreams.
type Identity struct {
	IsAuthenticated bool
	IsGuest         bool
	Token           string
	UserID          string
	Email           string
}

// GuestIdentity returns the identity of an anonymous local user.
func GuestIdentity() Identity {
	return Identity{IsGuest: true}
}

// Remote reports whether dreams belong to the remote account store.
func (i Identity) Remote() bool {
	return i.IsAuthenticated && !i.IsGuest
}

// String returns a short label for status output.
func (i Identity) String() string {
	switch {
	case i.Remote() && i.Email != "":
		return "signed in as " + i.Email
	case i.Remote():
		return "signed in"
	case i.IsGuest:
		return "guest"
	default:
		return "signed out"
	}
}
