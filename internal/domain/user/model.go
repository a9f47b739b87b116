package user

import "slices"

// DefaultBalance is credited to every new profile and reset on registration.
const DefaultBalance = 100

// Profile is a user's durable registration and balance state.
// The JSON field names are the on-disk contract of user_profiles.json.
type Profile struct {
	LichessUsername      *string   `json:"lichess_username"`
	Balance              int       `json:"balance"`
	RegistrationComplete bool      `json:"registration_complete"`
	CreatedAt            Timestamp `json:"created_at"`
}

// NewProfile returns the default profile for a user first seen at now.
func NewProfile(now Timestamp) Profile {
	return Profile{
		Balance:   DefaultBalance,
		CreatedAt: now,
	}
}

// Registered reports whether the handle has been collected.
func (p Profile) Registered() bool {
	return p.RegistrationComplete || p.LichessUsername != nil
}

// Handle returns the external account handle or "" when unset.
func (p Profile) Handle() string {
	if p.LichessUsername == nil {
		return ""
	}
	return *p.LichessUsername
}

// Clone returns a copy that shares no pointers with p.
func (p Profile) Clone() Profile {
	if p.LichessUsername != nil {
		h := *p.LichessUsername
		p.LichessUsername = &h
	}
	return p
}

// ProfileUpdate carries the fields to merge into a profile; nil fields are left untouched.
type ProfileUpdate struct {
	LichessUsername      *string
	Balance              *int
	RegistrationComplete *bool
}

// Apply merges u into p.
func (u ProfileUpdate) Apply(p Profile) Profile {
	if u.LichessUsername != nil {
		h := *u.LichessUsername
		p.LichessUsername = &h
	}
	if u.Balance != nil {
		p.Balance = *u.Balance
	}
	if u.RegistrationComplete != nil {
		p.RegistrationComplete = *u.RegistrationComplete
	}
	return p
}

// Activity is a user's interaction history.
// The JSON field names are the on-disk contract of user_activity.json.
type Activity struct {
	Username     *string   `json:"username"`
	FirstSeen    Timestamp `json:"first_seen"`
	LastSeen     Timestamp `json:"last_seen"`
	MessageCount int       `json:"message_count"`
	CommandsUsed []string  `json:"commands_used"`
}

// NewActivity returns an empty record first seen at now.
func NewActivity(now Timestamp) Activity {
	return Activity{
		FirstSeen:    now,
		LastSeen:     now,
		CommandsUsed: []string{},
	}
}

// AddCommand records a command token, ignoring duplicates.
func (a *Activity) AddCommand(cmd string) bool {
	if slices.Contains(a.CommandsUsed, cmd) {
		return false
	}
	a.CommandsUsed = append(a.CommandsUsed, cmd)
	return true
}

// DisplayName returns the last seen username or "".
func (a Activity) DisplayName() string {
	if a.Username == nil {
		return ""
	}
	return *a.Username
}

// Clone returns a deep copy of a.
func (a Activity) Clone() Activity {
	if a.Username != nil {
		u := *a.Username
		a.Username = &u
	}
	cmds := make([]string, len(a.CommandsUsed))
	copy(cmds, a.CommandsUsed)
	a.CommandsUsed = cmds
	return a
}

// StringPtr returns a pointer to s, or nil for the empty string.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
